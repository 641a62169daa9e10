package web

import (
	"log"
	"net/http"

	"github.com/zeptools/orderdocs/requests"
	"github.com/zeptools/orderdocs/responses"
	"github.com/zeptools/orderdocs/sec"
)

// AuthWrapper rejects requests without a valid HS256 API token
type AuthWrapper struct {
	Secret []byte
}

func (a AuthWrapper) Wrap(inner http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := sec.ExtractBearerToken(r.Header.Get("Authorization"))
		if token == "" {
			responses.WriteSimpleErrorJSON(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		if _, err := sec.VerifyHS256APIToken(token, a.Secret); err != nil {
			log.Printf("[INFO] rejected api token from %s: %v", requests.GetClientIP(r), err)
			responses.WriteSimpleErrorJSON(w, http.StatusUnauthorized, "invalid token")
			return
		}
		inner.ServeHTTP(w, r)
	})
}
