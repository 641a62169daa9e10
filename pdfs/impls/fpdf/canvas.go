package fpdf

import (
	"bytes"
	"io"
	"time"

	lowimpl "github.com/go-pdf/fpdf"

	"github.com/zeptools/orderdocs/pdfs"
	"github.com/zeptools/orderdocs/rw"
)

type Canvas struct {
	paper    pdfs.PaperSize
	fontSize float64 // last size passed to SetFont, for row cell heights

	// implementation details, not exported
	internal *lowimpl.Fpdf
}

// Ensure fpdf.Canvas implements pdfs.Canvas interface
var _ pdfs.Canvas = (*Canvas)(nil)

// NewCanvas creates a portrait canvas in pt units with the first page added.
// `created` becomes the document creation date; pass a fixed value to keep
// output byte-stable across renders of the same input.
func NewCanvas(paper pdfs.PaperSize, created time.Time) *Canvas {
	pdf := lowimpl.NewCustom(&lowimpl.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           lowimpl.SizeType{Wd: paper.Width, Ht: paper.Height},
	})
	pdf.SetCreationDate(created)
	pdf.SetModificationDate(created)
	// The flow engine owns all page breaks
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.AddPage()
	return &Canvas{paper: paper, internal: pdf}
}

func (c *Canvas) PaperSize() pdfs.PaperSize {
	return c.paper
}

func (c *Canvas) Orientation() string {
	return "P"
}

func (c *Canvas) SetFont(family string, style string, size float64) {
	c.internal.SetFont(family, style, size)
	c.fontSize = size
}

func (c *Canvas) SetTextColor(r int, g int, b int) {
	c.internal.SetTextColor(r, g, b)
}

func (c *Canvas) SetDrawColor(r int, g int, b int) {
	c.internal.SetDrawColor(r, g, b)
}

// Text draws s with (x, y) as the top-left corner of its cell
func (c *Canvas) Text(s string, x float64, y float64, opts pdfs.TextOpts) {
	align := opts.Align
	if align == "" {
		align = "L"
	}
	h := c.fontSize * 1.2
	c.internal.SetXY(x, y)
	translated := c.internal.UnicodeTranslatorFromDescriptor("")
	if opts.LineBreak && opts.Width > 0 {
		c.internal.MultiCell(opts.Width, h, translated(s), "", align, false)
		return
	}
	c.internal.CellFormat(opts.Width, h, translated(s), "", 0, align, false, 0, "")
}

func (c *Canvas) Line(x1 float64, y1 float64, x2 float64, y2 float64) {
	c.internal.Line(x1, y1, x2, y2)
}

func (c *Canvas) Rect(x float64, y float64, w float64, h float64) {
	c.internal.Rect(x, y, w, h, "D")
}

func (c *Canvas) NewPage() {
	c.internal.AddPage()
}

func (c *Canvas) PageCount() int {
	return c.internal.PageCount()
}

// WriteTo finalizes the document into w. The canvas is closed afterwards;
// further draw calls are undefined.
func (c *Canvas) WriteTo(w io.Writer) (int64, error) {
	cw := rw.NewCountWriter(w)
	if err := c.internal.Output(cw); err != nil {
		return cw.BytesWritten(), err
	}
	return cw.BytesWritten(), nil
}

func (c *Canvas) ProduceBytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := c.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
