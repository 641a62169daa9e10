package routing

import "net/http"

// WrapperFunc adapts a plain middleware func to the HandlerWrapper interface
type WrapperFunc func(http.Handler) http.Handler

func (f WrapperFunc) Wrap(inner http.Handler) http.Handler {
	return f(inner)
}
