package documents

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/zeptools/orderdocs/doclayout"
	"github.com/zeptools/orderdocs/orders"
	"github.com/zeptools/orderdocs/pdfs"
	fpdfimpl "github.com/zeptools/orderdocs/pdfs/impls/fpdf"
)

// Type - which document a render produces
type Type string

const (
	TypeLieferschein Type = "lieferschein"
	TypeRechnung     Type = "rechnung"
)

func (t Type) Label() string {
	switch t {
	case TypeRechnung:
		return "Rechnung"
	default:
		return "Lieferschein"
	}
}

// Document - one finished byte buffer, named for download
type Document struct {
	Name  string
	Bytes []byte
}

// default A4 geometry: letterhead above Top, trailing reserve for totals
// and signature boxes
const (
	marginTop      = 180
	marginSide     = 40
	marginBottom   = 40
	trailingHeight = 130
)

// Composer - thin orchestrator around the flow layout engine. Fetches the
// order and customer once, draws the letterhead on every page, delegates
// the item table, finalizes the buffer.
type Composer struct {
	Store  orders.Store
	Issuer []string // letterhead lines of the issuing company

	engine *doclayout.Engine
	region doclayout.Region

	// prevents concurrent duplicate renders of one (order, type) pair
	renderLocks *sync.Map

	// newCanvas is swappable so tests can record draw calls
	newCanvas func(created time.Time) pdfs.Canvas
}

func NewComposer(store orders.Store, issuer []string) *Composer {
	region := doclayout.NewRegion(pdfs.A4Size, marginTop, marginSide, marginSide, marginBottom, trailingHeight)
	return &Composer{
		Store:       store,
		Issuer:      issuer,
		engine:      doclayout.NewEngine(region),
		region:      region,
		renderLocks: &sync.Map{},
		newCanvas: func(created time.Time) pdfs.Canvas {
			return fpdfimpl.NewCanvas(pdfs.A4Size, created)
		},
	}
}

// Render produces one document for (orderID, t). A missing order or
// customer aborts before any drawing; a missing line-item record is
// skipped and the document still produced without it.
func (c *Composer) Render(ctx context.Context, orderID string, t Type) (*Document, error) {
	order, err := c.Store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	customer, err := c.Store.GetCustomer(ctx, order.CustomerID)
	if err != nil {
		return nil, err
	}
	items := make([]doclayout.Item, 0, len(order.LineItemIDs))
	for _, itemID := range order.LineItemIDs {
		li, err := c.Store.GetLineItem(ctx, itemID)
		if err != nil {
			log.Printf("[ERROR] skipping line item %s of order %s: %v", itemID, orderID, err)
			continue
		}
		items = append(items, layoutItem(*li))
	}

	// a fixed date keeps renders of the same order byte-identical
	docDate := order.DeliveryDate.ForceValue()
	if order.DeliveryDate.IsNil() {
		docDate = time.Unix(0, 0).UTC()
	}
	cv := c.newCanvas(docDate)
	c.drawLetterhead(cv, t, order, customer, docDate)

	rate := doclayout.DefaultTaxRatePercent
	if !order.VATRatePercent.IsNil() {
		rate = order.VATRatePercent.ForceValue()
	}
	c.engine.Render(cv, items, rate, func() {
		c.drawLetterhead(cv, t, order, customer, docDate)
	})

	b, err := cv.ProduceBytes()
	if err != nil {
		return nil, err
	}
	return &Document{Name: Filename(t, order, customer), Bytes: b}, nil
}

// drawLetterhead paints the per-page fixed header: issuer lines top left,
// document label, number and date top right, addressee block below.
func (c *Composer) drawLetterhead(cv pdfs.Canvas, t Type, o *orders.Order, cust *orders.Customer, date time.Time) {
	left := c.region.Left
	right := c.region.Right
	y := 40.0

	cv.SetFont(doclayout.FontFamily, "B", 11)
	cv.Text(t.Label()+" "+documentNumber(o), left, y, pdfs.TextOpts{Width: c.region.Width() - 160})
	cv.SetFont(doclayout.FontFamily, "", 8)
	cv.Text(date.Format("02.01.2006"), right-120, y, pdfs.TextOpts{Width: 120, Align: "R"})
	y += 18

	cv.SetFont(doclayout.FontFamily, "", 7)
	for _, line := range c.Issuer {
		cv.Text(line, right-160, y, pdfs.TextOpts{Width: 160, Align: "R"})
		y += 9
	}

	cv.SetFont(doclayout.FontFamily, "", 9)
	addrY := 80.0
	for _, line := range cust.AddressLines() {
		cv.Text(line, left, addrY, pdfs.TextOpts{Width: 250})
		addrY += 11
	}
	cv.Line(left, c.region.Top-8, right, c.region.Top-8)
}

// documentNumber picks the displayed number: invoice no, else order no,
// else the order identifier
func documentNumber(o *orders.Order) string {
	if !o.InvoiceNo.IsNil() {
		return o.InvoiceNo.ForceValue()
	}
	if !o.OrderNo.IsNil() {
		return o.OrderNo.ForceValue()
	}
	return o.ID
}

// Filename - `{Label}_{number}_{sanitizedCustomerName}.pdf`
func Filename(t Type, o *orders.Order, cust *orders.Customer) string {
	return t.Label() + "_" + documentNumber(o) + "_" + sanitizeName(cust.Name) + ".pdf"
}

// sanitizeName turns whitespace into underscores and drops anything
// outside [A-Za-z0-9_-]
func sanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case unicode.IsSpace(r):
			return '_'
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		default:
			return -1
		}
	}, name)
}

func layoutItem(li orders.LineItem) doclayout.Item {
	it := doclayout.Item{
		Code:          li.Code,
		Description:   li.Description,
		BatchNumbers:  li.BatchNumbers,
		OrderedQty:    li.OrderedQty,
		OrderedUnit:   li.OrderedUnit,
		CommittedQty:  li.CommittedQty,
		CommittedUnit: li.CommittedUnit,
		NetWeight:     li.NetWeight,
		UnitPrice:     li.UnitPrice,
		StoredTotal:   li.StoredTotal,
	}
	for _, p := range li.Packaging {
		it.Packaging = append(it.Packaging, doclayout.Packaging{Label: p.Label, Count: p.Count})
	}
	return it
}
