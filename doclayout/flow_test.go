package doclayout

import (
	"io"
	"testing"

	"github.com/zeptools/orderdocs/nullable"
	"github.com/zeptools/orderdocs/pdfs"
)

// recCanvas records draw calls per page instead of producing PDF bytes
type recCanvas struct {
	page  int
	texts []recText
	rects []recRect
}

type recText struct {
	page int
	s    string
	x, y float64
}

type recRect struct {
	page       int
	x, y, w, h float64
}

var _ pdfs.Canvas = (*recCanvas)(nil)

func newRecCanvas() *recCanvas { return &recCanvas{page: 1} }

func (c *recCanvas) PaperSize() pdfs.PaperSize              { return pdfs.A4Size }
func (c *recCanvas) Orientation() string                    { return "P" }
func (c *recCanvas) SetFont(string, string, float64)        {}
func (c *recCanvas) SetTextColor(int, int, int)             {}
func (c *recCanvas) SetDrawColor(int, int, int)             {}
func (c *recCanvas) Line(float64, float64, float64, float64) {}
func (c *recCanvas) NewPage()                               { c.page++ }
func (c *recCanvas) PageCount() int                         { return c.page }
func (c *recCanvas) WriteTo(io.Writer) (int64, error)       { return 0, nil }
func (c *recCanvas) ProduceBytes() ([]byte, error)          { return nil, nil }

func (c *recCanvas) Text(s string, x, y float64, _ pdfs.TextOpts) {
	c.texts = append(c.texts, recText{page: c.page, s: s, x: x, y: y})
}

func (c *recCanvas) Rect(x, y, w, h float64) {
	c.rects = append(c.rects, recRect{page: c.page, x: x, y: y, w: w, h: h})
}

func (c *recCanvas) find(s string) []recText {
	var out []recText
	for _, t := range c.texts {
		if t.s == s {
			out = append(out, t)
		}
	}
	return out
}

// small test geometry: header row + 8 item rows fit per page, the ninth
// row slot stays free for a carry-over
func testEngine() *Engine {
	return NewEngine(Region{Top: 0, Left: 0, Right: 500, Bottom: 200, Reserved: 60})
}

func storedTotalItem(code string, total float64) Item {
	return Item{Code: code, Description: "Ware " + code, StoredTotal: nullable.FloatOf(total)}
}

func TestRenderEmptyItemList(t *testing.T) {
	cv := newRecCanvas()
	testEngine().Render(cv, nil, DefaultTaxRatePercent, nil)
	if cv.PageCount() != 1 {
		t.Fatalf("expected 1 page, got %d", cv.PageCount())
	}
	if len(cv.find("Bezeichnung")) != 1 {
		t.Fatalf("expected exactly one table header")
	}
	if len(cv.find(LabelGross)) != 1 {
		t.Fatalf("expected exactly one totals block")
	}
	// net, tax, gross all zero
	if got := len(cv.find("0,00")); got < 3 {
		t.Fatalf("expected three zero amounts, found %d", got)
	}
	if len(cv.rects) != 2 {
		t.Fatalf("expected two signature boxes, got %d", len(cv.rects))
	}
}

func TestRenderCarryOverAcrossBreak(t *testing.T) {
	// 12 one-row items of 1..12: rows 1..8 fit on page 1 (header at
	// y=0..14, carry slot at y=126..140), items 9..12 move to page 2
	var items []Item
	var grand float64
	for i := 1; i <= 12; i++ {
		items = append(items, storedTotalItem(string(rune('A'+i-1)), float64(i)))
		grand += float64(i)
	}
	cv := newRecCanvas()
	newPages := 0
	testEngine().Render(cv, items, DefaultTaxRatePercent, func() { newPages++ })
	if cv.PageCount() != 2 {
		t.Fatalf("expected 2 pages, got %d", cv.PageCount())
	}
	if newPages != 1 {
		t.Fatalf("expected letterhead redraw hook once, got %d", newPages)
	}
	carries := cv.find(CarryLabel)
	if len(carries) != 1 || carries[0].page != 1 {
		t.Fatalf("expected one carry-over row on page 1, got %+v", carries)
	}
	// carry sits at the bottom of the item zone
	if wantY := 140.0 - RowHeight; carries[0].y != wantY {
		t.Fatalf("carry row at y=%v, want %v", carries[0].y, wantY)
	}
	// carry value = subtotal of items 1..8
	if len(cv.find(Money(36))) == 0 {
		t.Fatalf("expected carry value 36,00 on page 1")
	}
	// fresh table header on page 2, first carried item at the top
	var headerOnP2, itemIOnP2 bool
	for _, tx := range cv.texts {
		if tx.page == 2 && tx.s == "Bezeichnung" {
			headerOnP2 = true
		}
		if tx.page == 2 && tx.s == "I" && tx.y == RowHeight {
			itemIOnP2 = true
		}
	}
	if !headerOnP2 {
		t.Fatalf("expected table header redrawn on page 2")
	}
	if !itemIOnP2 {
		t.Fatalf("expected item I at the top of page 2")
	}
	// conservation: carry + page-2 subtotal == grand total
	carry := 36.0
	pageTwoSub := grand - carry
	if carry+pageTwoSub != grand {
		t.Fatalf("carry conservation broken")
	}
	if len(cv.find(Money(grand))) == 0 {
		t.Fatalf("expected net total %s in totals block", Money(grand))
	}
	// totals and signature boxes exactly once, on the final page
	gross := cv.find(LabelGross)
	if len(gross) != 1 || gross[0].page != 2 {
		t.Fatalf("expected one totals block on page 2, got %+v", gross)
	}
	if len(cv.rects) != 2 || cv.rects[0].page != 2 {
		t.Fatalf("expected two signature boxes on the final page")
	}
}

func TestRenderBatchContinuationLines(t *testing.T) {
	items := []Item{
		{
			Code:         "K-1",
			Description:  "Hähnchenbrust",
			BatchNumbers: []string{"CH-100", "CH-101", "CH-102"},
			StoredTotal:  nullable.FloatOf(10),
		},
		storedTotalItem("K-2", 5),
	}
	cv := newRecCanvas()
	eng := testEngine()
	eng.Render(cv, items, DefaultTaxRatePercent, nil)

	first := cv.find("CH-100")
	second := cv.find("CH-101")
	third := cv.find("CH-102")
	if len(first) != 1 || len(second) != 1 || len(third) != 1 {
		t.Fatalf("expected each batch number once")
	}
	mainY := first[0].y
	if second[0].y != mainY+RowHeight || third[0].y != mainY+2*RowHeight {
		t.Fatalf("continuation lines must stack below the main row")
	}
	batchX := eng.Columns.Batch.X + cellPad
	if second[0].x != batchX || third[0].x != batchX {
		t.Fatalf("continuation lines must stay in the batch column")
	}
	// next item starts below all batch lines
	next := cv.find("K-2")
	if len(next) != 1 || next[0].y != mainY+3*RowHeight {
		t.Fatalf("next item must start below continuation lines, got %+v", next)
	}
}

func TestRenderPackagingRows(t *testing.T) {
	items := []Item{
		{
			Code:        "W-7",
			Description: "Rinderhack",
			Packaging: []Packaging{
				{Label: "Europalette", Count: 2},
				{Label: "E2-Kiste", Count: 8},
			},
			NetWeight: nullable.FloatOf(12.5),
			UnitPrice: nullable.FloatOf(3),
		},
	}
	cv := newRecCanvas()
	testEngine().Render(cv, items, DefaultTaxRatePercent, nil)

	pal := cv.find("Europalette")
	box := cv.find("E2-Kiste")
	main := cv.find("W-7")
	if len(pal) != 1 || len(box) != 1 || len(main) != 1 {
		t.Fatalf("expected packaging rows and main row once each")
	}
	// packaging rows sit immediately above the main row
	if pal[0].y != main[0].y-2*RowHeight || box[0].y != main[0].y-RowHeight {
		t.Fatalf("packaging rows must precede the main row")
	}
	// packaging price/total are the zero string, never blank: 2 rows x 2 cells
	if got := len(cv.find(ZeroMoney)); got < 4 {
		t.Fatalf("expected at least four 0,00 cells, got %d", got)
	}
	// 12,50 kg at 3,00 resolves to 37,50
	if len(cv.find("12,50 kg")) != 1 {
		t.Fatalf("expected quantity cell 12,50 kg")
	}
	if len(cv.find("37,50")) == 0 {
		t.Fatalf("expected computed line total 37,50")
	}
}

func TestRenderUnresolvedItemContributesNothing(t *testing.T) {
	items := []Item{
		storedTotalItem("A", 10),
		{Code: "B", Description: "ohne Preis", OrderedQty: nullable.FloatOf(2), OrderedUnit: nullable.StringOf("St")},
	}
	cv := newRecCanvas()
	testEngine().Render(cv, items, DefaultTaxRatePercent, nil)
	// net stays 10; the unresolved row renders no total cell at all
	if len(cv.find(Money(10))) == 0 {
		t.Fatalf("expected net 10,00")
	}
	for _, tx := range cv.texts {
		if tx.s == "0,00" && tx.page == 1 && tx.y < 140 {
			// a zero cell inside the item zone would mean the blank rendered as 0,00
			t.Fatalf("unresolved total must render blank, found 0,00 in item zone at y=%v", tx.y)
		}
	}
}
