package routing

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// tagWrapper records the order wrappers run in
type tagWrapper struct {
	tag string
	log *[]string
}

func (w tagWrapper) Wrap(inner http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		*w.log = append(*w.log, w.tag)
		inner.ServeHTTP(rw, r)
	})
}

func TestRouteGroupPrefixAndWrapperOrder(t *testing.T) {
	r := &BaseRouter{ServeMux: http.NewServeMux()}
	var calls []string
	grp := tagWrapper{"group", &calls}
	ind := tagWrapper{"route", &calls}
	r.Group("/api/", func(g *RouteGroup) {
		g.HandleFunc("GET ping", func(w http.ResponseWriter, _ *http.Request) {
			calls = append(calls, "handler")
			w.WriteHeader(http.StatusNoContent)
		}, ind)
	}, grp)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/api/ping", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	// group wrappers run before per-route wrappers
	if len(calls) != 3 || calls[0] != "group" || calls[1] != "route" || calls[2] != "handler" {
		t.Fatalf("unexpected wrapper order: %v", calls)
	}
}

func TestRouteGroupSubgroupExtendsPrefix(t *testing.T) {
	r := &BaseRouter{ServeMux: http.NewServeMux()}
	r.Group("/a/", func(a *RouteGroup) {
		a.Group("b/", func(b *RouteGroup) {
			b.HandleFunc("GET c", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusTeapot)
			})
		})
	})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/a/b/c", nil))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("expected 418, got %d", rec.Code)
	}
}
