package pdfs

import "io"

// TextOpts - per-call text placement options
// Width = 0 means unconstrained (single run from x)
type TextOpts struct {
	Width     float64
	Align     string // "L", "R", "C". empty = "L"
	LineBreak bool   // wrap inside Width instead of clipping
}

// Canvas - minimal, stream-style drawing surface for paged documents.
// Font/size/color are canvas-global mutable state; set them before every
// draw call you care about. No page navigation, append-only.
type Canvas interface {
	PaperSize() PaperSize
	Orientation() string

	SetFont(family string, style string, size float64)
	SetTextColor(r int, g int, b int)
	SetDrawColor(r int, g int, b int)

	Text(s string, x float64, y float64, opts TextOpts)
	Line(x1 float64, y1 float64, x2 float64, y2 float64)
	Rect(x float64, y float64, w float64, h float64)

	NewPage()
	PageCount() int

	WriteTo(w io.Writer) (int64, error)
	ProduceBytes() ([]byte, error)
}
