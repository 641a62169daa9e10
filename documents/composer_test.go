package documents

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/zeptools/orderdocs/nullable"
	"github.com/zeptools/orderdocs/orders"
	"github.com/zeptools/orderdocs/orders/impls/memstore"
	"github.com/zeptools/orderdocs/pdfs"
)

// fakeCanvas records text content and optionally fails on finalization
type fakeCanvas struct {
	pages    int
	texts    []string
	finalErr error
}

var _ pdfs.Canvas = (*fakeCanvas)(nil)

func (c *fakeCanvas) PaperSize() pdfs.PaperSize               { return pdfs.A4Size }
func (c *fakeCanvas) Orientation() string                     { return "P" }
func (c *fakeCanvas) SetFont(string, string, float64)         {}
func (c *fakeCanvas) SetTextColor(int, int, int)              {}
func (c *fakeCanvas) SetDrawColor(int, int, int)              {}
func (c *fakeCanvas) Line(float64, float64, float64, float64) {}
func (c *fakeCanvas) Rect(float64, float64, float64, float64) {}
func (c *fakeCanvas) NewPage()                                { c.pages++ }
func (c *fakeCanvas) PageCount() int                          { return c.pages + 1 }
func (c *fakeCanvas) WriteTo(io.Writer) (int64, error)        { return 0, c.finalErr }

func (c *fakeCanvas) Text(s string, _, _ float64, _ pdfs.TextOpts) {
	c.texts = append(c.texts, s)
}

func (c *fakeCanvas) ProduceBytes() ([]byte, error) {
	if c.finalErr != nil {
		return nil, c.finalErr
	}
	return []byte("pdf"), nil
}

func (c *fakeCanvas) contains(s string) bool {
	for _, t := range c.texts {
		if t == s {
			return true
		}
	}
	return false
}

func seededStore() *memstore.Store {
	st := memstore.New()
	st.PutCustomer(orders.Customer{ID: "c1", Name: "Metzgerei Kuhn GmbH & Co."})
	st.PutLineItem(orders.LineItem{
		ID:          "li1",
		Code:        "A-100",
		Description: "Putenbrust",
		NetWeight:   nullable.FloatOf(12.5),
		UnitPrice:   nullable.FloatOf(3),
	})
	st.PutOrder(orders.Order{
		ID:           "o1",
		OrderNo:      nullable.StringOf("B-2024-0815"),
		CustomerID:   "c1",
		DeliveryDate: nullable.TimeOf(time.Date(2024, 5, 17, 0, 0, 0, 0, time.UTC)),
		LineItemIDs:  []string{"li1", "li-missing"},
	})
	return st
}

func composerWithFake(st *memstore.Store) (*Composer, *fakeCanvas) {
	c := NewComposer(st, []string{"Hacilar Fleischhandel", "Industriestr. 12", "70565 Stuttgart"})
	cv := &fakeCanvas{}
	c.newCanvas = func(time.Time) pdfs.Canvas { return cv }
	return c, cv
}

func TestFilename(t *testing.T) {
	cust := &orders.Customer{Name: "Metzgerei Kuhn GmbH & Co."}
	o := &orders.Order{ID: "o1", OrderNo: nullable.StringOf("B-17")}
	if got := Filename(TypeLieferschein, o, cust); got != "Lieferschein_B-17_Metzgerei_Kuhn_GmbH__Co.pdf" {
		t.Fatalf("got %q", got)
	}
	o.InvoiceNo = nullable.StringOf("RE-2024-9")
	if got := Filename(TypeRechnung, o, cust); got != "Rechnung_RE-2024-9_Metzgerei_Kuhn_GmbH__Co.pdf" {
		t.Fatalf("got %q", got)
	}
	bare := &orders.Order{ID: "651f00aa"}
	if got := Filename(TypeLieferschein, bare, &orders.Customer{Name: "Süß & Sohn"}); got != "Lieferschein_651f00aa_S__Sohn.pdf" {
		t.Fatalf("got %q", got)
	}
}

func TestRenderNotFoundAbortsBeforeDrawing(t *testing.T) {
	st := memstore.New()
	c := NewComposer(st, nil)
	canvases := 0
	c.newCanvas = func(time.Time) pdfs.Canvas { canvases++; return &fakeCanvas{} }

	if _, err := c.Render(context.Background(), "nope", TypeLieferschein); !errors.Is(err, orders.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	// order present but customer missing aborts the same way
	st.PutOrder(orders.Order{ID: "o2", CustomerID: "ghost"})
	if _, err := c.Render(context.Background(), "o2", TypeLieferschein); !errors.Is(err, orders.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if canvases != 0 {
		t.Fatalf("no canvas may be created before lookups succeed, got %d", canvases)
	}
}

func TestRenderSkipsMissingLineItems(t *testing.T) {
	c, cv := composerWithFake(seededStore())
	doc, err := c.Render(context.Background(), "o1", TypeLieferschein)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if doc == nil || len(doc.Bytes) == 0 {
		t.Fatalf("expected a produced document")
	}
	if !cv.contains("A-100") {
		t.Fatalf("resolvable item must be rendered")
	}
	if doc.Name != "Lieferschein_B-2024-0815_Metzgerei_Kuhn_GmbH__Co.pdf" {
		t.Fatalf("unexpected name %q", doc.Name)
	}
}

func TestRenderLetterheadAndDate(t *testing.T) {
	c, cv := composerWithFake(seededStore())
	if _, err := c.Render(context.Background(), "o1", TypeRechnung); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !cv.contains("Rechnung B-2024-0815") {
		t.Fatalf("expected document label with number, got %v", cv.texts)
	}
	if !cv.contains("17.05.2024") {
		t.Fatalf("expected the supplied delivery date")
	}
	if !cv.contains("Hacilar Fleischhandel") {
		t.Fatalf("expected issuer letterhead line")
	}
}

func TestRenderCanvasFailurePropagates(t *testing.T) {
	c, cv := composerWithFake(seededStore())
	cv.finalErr = errors.New("stream broken")
	doc, err := c.Render(context.Background(), "o1", TypeLieferschein)
	if err == nil || doc != nil {
		t.Fatalf("finalization failure must propagate without a buffer, got doc=%v err=%v", doc, err)
	}
}

func TestRenderBatchIsolatesFailures(t *testing.T) {
	st := seededStore()
	c := NewComposer(st, nil)
	c.newCanvas = func(time.Time) pdfs.Canvas { return &fakeCanvas{} }

	results := c.RenderBatch(context.Background(), []string{"o1", "missing"}, TypeLieferschein)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Err != nil || results[0].Doc == nil {
		t.Fatalf("first order must succeed: %+v", results[0])
	}
	if !errors.Is(results[1].Err, orders.ErrNotFound) || results[1].Doc != nil {
		t.Fatalf("second order must fail in isolation: %+v", results[1])
	}
}

func TestRenderDeterministic(t *testing.T) {
	st := seededStore()
	c := NewComposer(st, []string{"Hacilar Fleischhandel"})
	first, err := c.Render(context.Background(), "o1", TypeLieferschein)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	second, err := c.Render(context.Background(), "o1", TypeLieferschein)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !bytes.Equal(first.Bytes, second.Bytes) {
		t.Fatalf("same order and geometry must produce byte-identical output")
	}
}
