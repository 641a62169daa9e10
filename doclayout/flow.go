package doclayout

import (
	"strconv"

	"github.com/zeptools/orderdocs/pdfs"
)

const (
	RowHeight  = 14.0
	FontFamily = "Helvetica"

	rowFontSize    = 8.0
	totalsFontSize = 9.0
	signFontSize   = 7.0
	cellPad        = 2.0

	// signature boxes inside the trailing reserve
	SignBoxHeight = 50.0
	signBoxGap    = 20.0
)

// table labels (also matched by tests against recorded canvas output)
const (
	CarryLabel     = "Übertrag"
	LabelNet       = "Nettobetrag"
	LabelTax       = "zzgl. MwSt."
	LabelGross     = "Gesamtbetrag"
	LabelSignCust  = "Unterschrift Empfänger"
	LabelSignDrive = "Unterschrift Fahrer"
)

var headerLabels = [6]string{"Art.-Nr.", "Bezeichnung", "Charge", "Menge", "Einzelpreis", "Gesamtpreis"}

// cursor - mutable layout state threaded through one render.
// carried survives page breaks, everything else resets per page.
type cursor struct {
	y       float64
	carried float64 // subtotal folded in at previous page breaks
	pageSub float64 // subtotal accumulated on the current page
}

// Engine - the flow layout engine. One instance per document geometry;
// holds no per-render state, so it may be shared across renders.
type Engine struct {
	Region  Region
	Columns Columns
}

func NewEngine(region Region) *Engine {
	return &Engine{Region: region, Columns: NewColumns(region)}
}

// Render emits the item table onto cv. The caller has already drawn the
// first page's letterhead; onNewPage is invoked right after every page
// break so the caller redraws it before the table continues. The totals
// block and both signature boxes land exactly once, anchored inside the
// trailing reserve of the page the loop ends on.
//
// The bottom row slot of the item zone is withheld from item placement:
// item rows end at Usable()-RowHeight at the latest, so the carry-over
// row drawn there at a break can never overlap the last item.
func (e *Engine) Render(cv pdfs.Canvas, items []Item, taxRatePercent float64, onNewPage func()) {
	cur := cursor{y: e.Region.Top}
	e.drawTableHeader(cv, &cur)
	var grand float64
	for _, it := range items {
		row := Resolve(it)
		// Required height counts packaging sub-rows plus the main row.
		// TODO: batch continuation lines are not counted here, so an item
		// with many batch numbers near the page bottom can spill into the
		// trailing reserve. Left as-is until the intended behavior for
		// oversized batch lists is agreed.
		required := float64(len(it.Packaging)+1) * RowHeight
		// the bottom row of the item zone stays free for the carry-over row
		if cur.y+required > e.Region.Usable()-RowHeight {
			e.breakPage(cv, &cur, onNewPage)
		}
		// packaging sub-rows sit immediately above the item's main row
		for _, p := range it.Packaging {
			e.drawPackagingRow(cv, cur.y, p)
			cur.y += RowHeight
		}
		e.drawMainRow(cv, cur.y, it, row)
		// additional batch numbers stack below the main row, batch column only
		cv.SetFont(FontFamily, "", rowFontSize)
		for k := 1; k < len(it.BatchNumbers); k++ {
			e.drawCell(cv, e.Columns.Batch, it.BatchNumbers[k], cur.y+float64(k)*RowHeight, "L")
		}
		cur.y += float64(max(1, len(it.BatchNumbers))) * RowHeight
		// unresolved totals render blank and contribute nothing
		if !row.Total.IsNil() {
			grand += row.Total.ForceValue()
			cur.pageSub += row.Total.ForceValue()
		}
	}
	e.drawTrailer(cv, NewTotals(grand, taxRatePercent))
}

func (e *Engine) drawTableHeader(cv pdfs.Canvas, cur *cursor) {
	cv.SetFont(FontFamily, "B", rowFontSize)
	cols := [6]Column{e.Columns.Code, e.Columns.Desc, e.Columns.Batch, e.Columns.Qty, e.Columns.Price, e.Columns.Total}
	aligns := [6]string{"L", "L", "L", "R", "R", "R"}
	for i, col := range cols {
		e.drawCell(cv, col, headerLabels[i], cur.y, aligns[i])
	}
	cv.Line(e.Region.Left, cur.y+RowHeight-2, e.Region.Right, cur.y+RowHeight-2)
	cur.y += RowHeight
}

func (e *Engine) drawPackagingRow(cv pdfs.Canvas, y float64, p Packaging) {
	cv.SetFont(FontFamily, "I", rowFontSize)
	e.drawCell(cv, e.Columns.Desc, p.Label, y, "L")
	e.drawCell(cv, e.Columns.Qty, strconv.Itoa(p.Count)+" St", y, "R")
	// non-billable, but never blank
	e.drawCell(cv, e.Columns.Price, ZeroMoney, y, "R")
	e.drawCell(cv, e.Columns.Total, ZeroMoney, y, "R")
}

func (e *Engine) drawMainRow(cv pdfs.Canvas, y float64, it Item, row Row) {
	cv.SetFont(FontFamily, "", rowFontSize)
	e.drawCell(cv, e.Columns.Code, it.Code, y, "L")
	e.drawCell(cv, e.Columns.Desc, it.Description, y, "L")
	if len(it.BatchNumbers) > 0 {
		e.drawCell(cv, e.Columns.Batch, it.BatchNumbers[0], y, "L")
	}
	if !row.Qty.IsNil() {
		qty := Amount(row.Qty.ForceValue())
		if row.Unit != "" {
			qty += " " + row.Unit
		}
		e.drawCell(cv, e.Columns.Qty, qty, y, "R")
	}
	if !row.UnitPrice.IsNil() {
		e.drawCell(cv, e.Columns.Price, Money(row.UnitPrice.ForceValue()), y, "R")
	}
	if !row.Total.IsNil() {
		e.drawCell(cv, e.Columns.Total, Money(row.Total.ForceValue()), y, "R")
	}
}

// breakPage emits the carry-over row at the bottom of the item zone, folds
// the page subtotal into the carry, and opens a fresh page with a new
// table header. The trailing reserve itself is never written here.
func (e *Engine) breakPage(cv pdfs.Canvas, cur *cursor, onNewPage func()) {
	carry := cur.carried + cur.pageSub
	y := e.Region.Usable() - RowHeight
	cv.SetFont(FontFamily, "B", rowFontSize)
	e.drawCell(cv, e.Columns.Desc, CarryLabel, y, "L")
	e.drawCell(cv, e.Columns.Total, Money(carry), y, "R")
	cur.carried = carry
	cur.pageSub = 0
	cv.NewPage()
	if onNewPage != nil {
		onNewPage()
	}
	cur.y = e.Region.Top
	e.drawTableHeader(cv, cur)
}

// drawTrailer renders the totals block and both signature boxes into the
// trailing reserve of the current page.
func (e *Engine) drawTrailer(cv pdfs.Canvas, t Totals) {
	y := e.Region.Usable() + 4
	cv.Line(e.Region.Left, y, e.Region.Right, y)
	y += 6

	labelCol := Column{X: e.Columns.Qty.X, W: e.Columns.Qty.W + e.Columns.Price.W}
	cv.SetFont(FontFamily, "", rowFontSize)
	e.drawCell(cv, labelCol, LabelNet, y, "R")
	e.drawCell(cv, e.Columns.Total, Money(t.Net), y, "R")
	y += RowHeight
	taxLabel := LabelTax + " " + Money(t.RatePercent) + " %"
	e.drawCell(cv, labelCol, taxLabel, y, "R")
	e.drawCell(cv, e.Columns.Total, Money(t.Tax), y, "R")
	y += RowHeight
	cv.SetFont(FontFamily, "B", totalsFontSize)
	e.drawCell(cv, labelCol, LabelGross, y, "R")
	e.drawCell(cv, e.Columns.Total, Money(t.Gross), y, "R")

	// two signature boxes pinned to the region bottom
	boxW := (e.Region.Width() - signBoxGap) / 2
	boxY := e.Region.Bottom - SignBoxHeight
	cv.Rect(e.Region.Left, boxY, boxW, SignBoxHeight)
	cv.Rect(e.Region.Left+boxW+signBoxGap, boxY, boxW, SignBoxHeight)
	cv.SetFont(FontFamily, "", signFontSize)
	labelY := boxY + SignBoxHeight - 12
	e.drawCell(cv, Column{X: e.Region.Left, W: boxW}, LabelSignCust, labelY, "C")
	e.drawCell(cv, Column{X: e.Region.Left + boxW + signBoxGap, W: boxW}, LabelSignDrive, labelY, "C")
}

func (e *Engine) drawCell(cv pdfs.Canvas, col Column, s string, y float64, align string) {
	cv.Text(s, col.X+cellPad, y, pdfs.TextOpts{Width: col.W - 2*cellPad, Align: align})
}
