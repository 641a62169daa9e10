package web

import (
	"context"
	"encoding/json/v2"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/zeptools/orderdocs/documents"
	"github.com/zeptools/orderdocs/orders"
	"github.com/zeptools/orderdocs/requests"
	"github.com/zeptools/orderdocs/responses"
	"github.com/zeptools/orderdocs/routing"
	"github.com/zeptools/orderdocs/sec"
	"github.com/zeptools/orderdocs/shortdelivery"
)

// DocCache - optional byte cache for finished documents
type DocCache interface {
	Get(ctx context.Context, docType string, orderID string) ([]byte, bool, error)
	Put(ctx context.Context, docType string, orderID string, b []byte) error
	Invalidate(ctx context.Context, orderID string) error
}

// Handlers - HTTP entry points of the document service
type Handlers struct {
	Composer       *documents.Composer
	Debouncer      *shortdelivery.Debouncer
	Cache          DocCache // nil disables caching
	DownloadCipher *sec.XChaCha20Poly1305Cipher
	APISecret      []byte
	DownloadTTL    time.Duration
}

func (h *Handlers) RegisterRoutes(r *routing.BaseRouter) {
	rec := routing.WrapperFunc(routing.RecoverWrapper)
	auth := AuthWrapper{Secret: h.APISecret}
	// the document routes share recover + token auth via the group
	r.Group("/documents/", func(docs *routing.RouteGroup) {
		docs.HandleFunc("GET {doctype}/{orderID}", h.GetDocument)
		docs.HandleFunc("POST {doctype}/batch", h.BatchDocuments)
	}, rec, auth)
	r.HandleFunc("POST /shortdelivery/report", h.ReportShortDelivery, rec, auth)
	// download links carry their own sealed grant, no api token
	r.HandleFunc("GET /downloads/{token}", h.Download, rec)
}

func parseDocType(s string) (documents.Type, bool) {
	switch documents.Type(s) {
	case documents.TypeLieferschein, documents.TypeRechnung:
		return documents.Type(s), true
	default:
		return "", false
	}
}

func (h *Handlers) GetDocument(w http.ResponseWriter, r *http.Request) {
	t, ok := parseDocType(r.PathValue("doctype"))
	if !ok {
		responses.WriteSimpleErrorJSON(w, http.StatusBadRequest, "unknown document type")
		return
	}
	h.serveDocument(w, r, r.PathValue("orderID"), t)
}

func (h *Handlers) serveDocument(w http.ResponseWriter, r *http.Request, orderID string, t documents.Type) {
	ctx := r.Context()
	if h.Cache != nil {
		if b, found, err := h.Cache.Get(ctx, string(t), orderID); err == nil && found {
			// recompute the name only; bytes come from the cache
			if doc := h.cachedDocument(ctx, orderID, t, b); doc != nil {
				responses.WritePDFBytesWithFilename(w, doc.Name, doc.Bytes)
				return
			}
		}
	}
	doc, err := h.Composer.Render(ctx, orderID, t)
	if errors.Is(err, orders.ErrNotFound) {
		responses.WriteSimpleErrorJSON(w, http.StatusNotFound, "order not found")
		return
	}
	if err != nil {
		log.Printf("[ERROR] rendering %s for order %s: %v", t, orderID, err)
		responses.WriteSimpleErrorJSON(w, http.StatusInternalServerError, "document generation failed")
		return
	}
	if h.Cache != nil {
		if err = h.Cache.Put(ctx, string(t), orderID, doc.Bytes); err != nil {
			log.Printf("[ERROR] caching %s for order %s: %v", t, orderID, err)
		}
	}
	responses.WritePDFBytesWithFilename(w, doc.Name, doc.Bytes)
}

// cachedDocument rebuilds the download name for cached bytes. A vanished
// order invalidates the hit.
func (h *Handlers) cachedDocument(ctx context.Context, orderID string, t documents.Type, b []byte) *documents.Document {
	o, err := h.Composer.Store.GetOrder(ctx, orderID)
	if err != nil {
		return nil
	}
	cust, err := h.Composer.Store.GetCustomer(ctx, o.CustomerID)
	if err != nil {
		return nil
	}
	return &documents.Document{Name: documents.Filename(t, o, cust), Bytes: b}
}

type batchRequestBody struct {
	OrderIDs []string `json:"order_ids"`
}

type batchResultBody struct {
	OrderID      string `json:"order_id"`
	Filename     string `json:"filename,omitempty"`
	DownloadPath string `json:"download_path,omitempty"`
	Error        string `json:"error,omitempty"`
}

// BatchDocuments renders one document per order and answers with sealed
// download links instead of inlining the buffers
func (h *Handlers) BatchDocuments(w http.ResponseWriter, r *http.Request) {
	t, ok := parseDocType(r.PathValue("doctype"))
	if !ok {
		responses.WriteSimpleErrorJSON(w, http.StatusBadRequest, "unknown document type")
		return
	}
	if !requests.HasBody(r) {
		responses.WriteSimpleErrorJSON(w, http.StatusBadRequest, "missing request body")
		return
	}
	var body batchRequestBody
	if err := json.UnmarshalRead(r.Body, &body); err != nil {
		responses.WriteSimpleErrorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}
	results := h.Composer.RenderBatch(r.Context(), body.OrderIDs, t)
	out := make([]batchResultBody, 0, len(results))
	for _, res := range results {
		item := batchResultBody{OrderID: res.OrderID}
		if res.Err != nil {
			item.Error = res.Err.Error()
			out = append(out, item)
			continue
		}
		item.Filename = res.Doc.Name
		if h.DownloadCipher != nil {
			token, err := sec.SealDownloadToken(h.DownloadCipher, res.OrderID, string(t), h.DownloadTTL)
			if err == nil {
				item.DownloadPath = "/downloads/" + token
			} else {
				log.Printf("[ERROR] sealing download token for order %s: %v", res.OrderID, err)
			}
		}
		out = append(out, item)
	}
	responses.EncodeWriteJSON(w, http.StatusOK, out)
}

func (h *Handlers) Download(w http.ResponseWriter, r *http.Request) {
	if h.DownloadCipher == nil {
		responses.WriteSimpleErrorJSON(w, http.StatusNotFound, "downloads disabled")
		return
	}
	grant, err := sec.OpenDownloadToken(h.DownloadCipher, r.PathValue("token"), time.Now())
	if err != nil {
		log.Printf("[INFO] rejected download token from %s: %v", requests.GetClientIP(r), err)
		responses.WriteSimpleErrorJSON(w, http.StatusForbidden, "invalid or expired link")
		return
	}
	t, ok := parseDocType(grant.DocType)
	if !ok {
		responses.WriteSimpleErrorJSON(w, http.StatusForbidden, "invalid grant")
		return
	}
	h.serveDocument(w, r, grant.OrderID, t)
}

type shortDeliveryRequestBody struct {
	OrderID   string                  `json:"order_id"`
	Shortfall shortdelivery.Shortfall `json:"shortfall"`
}

// ReportShortDelivery feeds the debouncer; the notification mail goes
// out once reports for the order quiet down
func (h *Handlers) ReportShortDelivery(w http.ResponseWriter, r *http.Request) {
	var body shortDeliveryRequestBody
	if err := json.UnmarshalRead(r.Body, &body); err != nil {
		responses.WriteSimpleErrorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}
	orderID, err := orders.CanonicalID(body.OrderID)
	if err != nil {
		responses.WriteSimpleErrorJSON(w, http.StatusBadRequest, "invalid order id")
		return
	}
	if body.Shortfall.LineItemID == "" {
		responses.WriteSimpleErrorJSON(w, http.StatusBadRequest, "missing line item id")
		return
	}
	h.Debouncer.Report(orderID, body.Shortfall)
	// the order's data changed, so cached documents are stale
	if h.Cache != nil {
		if err = h.Cache.Invalidate(r.Context(), orderID); err != nil {
			log.Printf("[ERROR] invalidating cached documents of order %s: %v", orderID, err)
		}
	}
	responses.EncodeWriteJSON(w, http.StatusAccepted, responses.Message{Type: "ok", Message: "report registered"})
}
