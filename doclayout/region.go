package doclayout

import "github.com/zeptools/orderdocs/pdfs"

// Region - absolute printable area of one document, fixed for all pages.
// Reserved is trailing height permanently withheld from item rows so the
// totals and signature block always fit on the final page.
type Region struct {
	Top      float64
	Left     float64
	Right    float64
	Bottom   float64
	Reserved float64
}

// NewRegion converts margins (distances from the paper edges) into absolute
// coordinates on the given paper size.
func NewRegion(paper pdfs.PaperSize, top, left, right, bottom, reserved float64) Region {
	return Region{
		Top:      top,
		Left:     left,
		Right:    paper.Width - right,
		Bottom:   paper.Height - bottom,
		Reserved: reserved,
	}
}

func (r Region) Width() float64 {
	return r.Right - r.Left
}

// Usable returns the lowest y item rows may reach on any page.
// Everything below it, down to Bottom, belongs to the trailing reserve.
func (r Region) Usable() float64 {
	return r.Bottom - r.Reserved
}
