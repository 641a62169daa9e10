package shortdelivery

import (
	"context"
	"strings"
	"sync"
	"testing"
	"text/template"
	"time"

	"github.com/zeptools/orderdocs/documents"
	"github.com/zeptools/orderdocs/schedjobs"
)

type fakeRenderer struct {
	renders int
}

func (r *fakeRenderer) Render(_ context.Context, orderID string, t documents.Type) (*documents.Document, error) {
	r.renders++
	return &documents.Document{Name: string(t) + "_" + orderID + ".pdf", Bytes: []byte("pdf")}, nil
}

type recMailer struct {
	mu    sync.Mutex
	mails []Mail
}

func (m *recMailer) Send(_ context.Context, mail Mail) error {
	m.mu.Lock()
	m.mails = append(m.mails, mail)
	m.mu.Unlock()
	return nil
}

func (m *recMailer) sent() []Mail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Mail(nil), m.mails...)
}

func newTestDebouncer() (*Debouncer, *fakeRenderer, *recMailer, *schedjobs.Scheduler, time.Time) {
	sched := schedjobs.NewScheduler(time.Minute)
	renderer := &fakeRenderer{}
	mailer := &recMailer{}
	d := NewDebouncer(sched, renderer, mailer, 5*time.Minute)
	d.Recipients = []string{"einkauf@example.com"}
	base := time.Date(2024, 5, 17, 9, 0, 0, 0, time.UTC)
	d.now = func() time.Time { return base }
	return d, renderer, mailer, sched, base
}

func TestDebounceCoalescesReports(t *testing.T) {
	d, renderer, mailer, sched, base := newTestDebouncer()

	d.Report("o1", Shortfall{LineItemID: "li1", Code: "A-1", OrderedQty: 10, DeliveredQty: 6, Unit: "kg"})
	d.Report("o1", Shortfall{LineItemID: "li2", Code: "A-2", OrderedQty: 4, DeliveredQty: 0, Unit: "St"})
	// li1 reported again: replaces, not duplicates
	d.Report("o1", Shortfall{LineItemID: "li1", Code: "A-1", OrderedQty: 10, DeliveredQty: 8, Unit: "kg"})

	// quiet period not over yet
	sched.RunDue(base.Add(4 * time.Minute))
	sched.Flush()
	if len(mailer.sent()) != 0 {
		t.Fatalf("notification sent before the quiet period ended")
	}
	if !d.Pending("o1") {
		t.Fatalf("expected pending payload before firing")
	}

	sched.RunDue(base.Add(5 * time.Minute))
	sched.Flush()
	mails := mailer.sent()
	if len(mails) != 1 {
		t.Fatalf("expected exactly one coalesced notification, got %d", len(mails))
	}
	if renderer.renders != 1 {
		t.Fatalf("expected one delivery-note render, got %d", renderer.renders)
	}
	m := mails[0]
	if m.AttachmentName != "lieferschein_o1.pdf" || len(m.Attachment) == 0 {
		t.Fatalf("expected the rendered delivery note attached, got %q", m.AttachmentName)
	}
	if d.Pending("o1") {
		t.Fatalf("payload must be consumed after firing")
	}
}

func TestDebounceReRegistrationPushesTimer(t *testing.T) {
	d, _, mailer, sched, base := newTestDebouncer()

	d.Report("o1", Shortfall{LineItemID: "li1", Code: "A-1"})
	// 3 minutes later another report arrives; timer restarts from there
	d.now = func() time.Time { return base.Add(3 * time.Minute) }
	d.Report("o1", Shortfall{LineItemID: "li1", Code: "A-1", DeliveredQty: 2})

	sched.RunDue(base.Add(5 * time.Minute)) // original deadline
	sched.Flush()
	if len(mailer.sent()) != 0 {
		t.Fatalf("re-registration must cancel the earlier timer")
	}
	sched.RunDue(base.Add(8 * time.Minute)) // pushed deadline
	sched.Flush()
	if len(mailer.sent()) != 1 {
		t.Fatalf("expected notification at the pushed deadline")
	}
}

func TestDebounceCancel(t *testing.T) {
	d, _, mailer, sched, base := newTestDebouncer()
	d.Report("o1", Shortfall{LineItemID: "li1"})
	d.Cancel("o1")
	sched.RunDue(base.Add(time.Hour))
	sched.Flush()
	if len(mailer.sent()) != 0 {
		t.Fatalf("cancelled notification must not fire")
	}
	if d.Pending("o1") {
		t.Fatalf("cancel must drop the payload")
	}
}

func TestDebounceIndependentOrders(t *testing.T) {
	d, _, mailer, sched, base := newTestDebouncer()
	d.Report("o1", Shortfall{LineItemID: "li1"})
	d.Report("o2", Shortfall{LineItemID: "li9"})
	sched.RunDue(base.Add(5 * time.Minute))
	sched.Flush()
	if len(mailer.sent()) != 2 {
		t.Fatalf("expected one notification per order, got %d", len(mailer.sent()))
	}
}

func TestDebounceFallbackBodyOrderedByLineItem(t *testing.T) {
	d, _, mailer, sched, base := newTestDebouncer()
	// reported out of order on purpose
	d.Report("o1", Shortfall{LineItemID: "li-2", Code: "Z-9", Description: "Wurst", OrderedQty: 5, DeliveredQty: 1, Unit: "St"})
	d.Report("o1", Shortfall{LineItemID: "li-1", Code: "A-1", Description: "Schinken", OrderedQty: 10, DeliveredQty: 6, Unit: "kg"})
	sched.RunDue(base.Add(5 * time.Minute))
	sched.Flush()
	mails := mailer.sent()
	if len(mails) != 1 {
		t.Fatalf("expected one notification, got %d", len(mails))
	}
	first := strings.Index(mails[0].Body, "A-1 Schinken")
	second := strings.Index(mails[0].Body, "Z-9 Wurst")
	if first < 0 || second < 0 || first > second {
		t.Fatalf("fallback body must list positions by line item id:\n%s", mails[0].Body)
	}
}

func TestDebounceBodyTemplate(t *testing.T) {
	d, _, mailer, sched, base := newTestDebouncer()
	d.BodyTpl = template.Must(template.New("mail").Parse(
		"Bestellung {{.OrderID}}: {{len .Shortfalls}} Positionen fehlen"))
	d.Report("o1", Shortfall{LineItemID: "li1"})
	d.Report("o1", Shortfall{LineItemID: "li2"})
	sched.RunDue(base.Add(5 * time.Minute))
	sched.Flush()
	mails := mailer.sent()
	if len(mails) != 1 || mails[0].Body != "Bestellung o1: 2 Positionen fehlen" {
		t.Fatalf("unexpected body: %+v", mails)
	}
}
