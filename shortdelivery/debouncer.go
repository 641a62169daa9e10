package shortdelivery

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/zeptools/orderdocs/doclayout"
	"github.com/zeptools/orderdocs/documents"
	"github.com/zeptools/orderdocs/schedjobs"
)

// Shortfall - one under-delivered order position
type Shortfall struct {
	LineItemID   string  `json:"line_item_id"`
	Code         string  `json:"code"`
	Description  string  `json:"description"`
	OrderedQty   float64 `json:"ordered_qty"`
	DeliveredQty float64 `json:"delivered_qty"`
	Unit         string  `json:"unit"`
}

// Renderer - the document composer's render entry point, as the
// debouncer sees it
type Renderer interface {
	Render(ctx context.Context, orderID string, t documents.Type) (*documents.Document, error)
}

// pending - coalesced shortfalls of one order waiting for the quiet period
type pending struct {
	shortfalls map[string]Shortfall // keyed by line item, latest report wins
	started    time.Time
}

// Debouncer coalesces short-delivery reports per order and mails one
// delivery note once reports stop arriving for the configured delay.
// State is constructor-owned, so independent instances never share a map.
type Debouncer struct {
	Delay      time.Duration
	Recipients []string
	BodyTpl    *template.Template

	sched    *schedjobs.Scheduler
	renderer Renderer
	mailer   Mailer

	mu      sync.Mutex
	pending map[string]*pending

	now func() time.Time // swappable for tests
}

func NewDebouncer(sched *schedjobs.Scheduler, renderer Renderer, mailer Mailer, delay time.Duration) *Debouncer {
	return &Debouncer{
		Delay:    delay,
		sched:    sched,
		renderer: renderer,
		mailer:   mailer,
		pending:  make(map[string]*pending),
		now:      time.Now,
	}
}

func jobID(orderID string) string {
	return "shortdelivery:" + orderID
}

// Report merges sf into the order's pending payload and restarts the
// quiet-period timer. Re-reporting replaces the per-item entry, it never
// queues a duplicate notification.
func (d *Debouncer) Report(orderID string, sf Shortfall) {
	d.mu.Lock()
	p, ok := d.pending[orderID]
	if !ok {
		p = &pending{shortfalls: make(map[string]Shortfall), started: d.now()}
		d.pending[orderID] = p
	}
	p.shortfalls[sf.LineItemID] = sf
	d.mu.Unlock()

	// same ID: a pending timer is cancelled and replaced
	d.sched.AddOneTimeJob(&schedjobs.OneTimeJob{
		ID:       jobID(orderID),
		ExecTime: d.now().Add(d.Delay),
		Task:     func() error { return d.fire(orderID) },
	})
}

// Cancel drops an order's pending notification, e.g. after the shortfall
// was resolved by a follow-up delivery
func (d *Debouncer) Cancel(orderID string) {
	d.mu.Lock()
	delete(d.pending, orderID)
	d.mu.Unlock()
	d.sched.DeleteOneTimeJob(jobID(orderID))
}

// Pending reports whether orderID still has an unsent notification
func (d *Debouncer) Pending(orderID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.pending[orderID]
	return ok
}

func (d *Debouncer) fire(orderID string) error {
	d.mu.Lock()
	p, ok := d.pending[orderID]
	delete(d.pending, orderID)
	d.mu.Unlock()
	if !ok {
		return nil // cancelled between scheduling and firing
	}

	ctx := context.Background()
	doc, err := d.renderer.Render(ctx, orderID, documents.TypeLieferschein)
	if err != nil {
		log.Printf("[ERROR] shortdelivery: rendering delivery note for order %s: %v", orderID, err)
		return err
	}
	mail := Mail{
		To:             d.Recipients,
		Subject:        "Minderlieferung zu Bestellung " + orderID,
		Body:           d.body(orderID, p),
		AttachmentName: doc.Name,
		Attachment:     doc.Bytes,
	}
	if err = d.mailer.Send(ctx, mail); err != nil {
		log.Printf("[ERROR] shortdelivery: sending notification for order %s: %v", orderID, err)
		return err
	}
	log.Printf("[INFO] shortdelivery: notification for order %s sent (%d positions)", orderID, len(p.shortfalls))
	return nil
}

func (d *Debouncer) body(orderID string, p *pending) string {
	if d.BodyTpl != nil {
		var sb strings.Builder
		data := struct {
			OrderID    string
			Started    time.Time
			Shortfalls map[string]Shortfall
		}{orderID, p.started, p.shortfalls}
		if err := d.BodyTpl.Execute(&sb, data); err == nil {
			return sb.String()
		} else {
			log.Printf("[ERROR] shortdelivery: body template failed, using fallback: %v", err)
		}
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Minderlieferung zu Bestellung %s (erster Hinweis %s):\n",
		orderID, p.started.Format("02.01.2006 15:04"))
	// stable line order across runs
	ids := make([]string, 0, len(p.shortfalls))
	for id := range p.shortfalls {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		sf := p.shortfalls[id]
		fmt.Fprintf(&sb, "- %s %s: bestellt %s %s, geliefert %s %s\n",
			sf.Code, sf.Description,
			doclayout.Amount(sf.OrderedQty), sf.Unit,
			doclayout.Amount(sf.DeliveredQty), sf.Unit)
	}
	return sb.String()
}
