package middleware

import "net/http"

// Chain composes middleware into a single wrapper, outermost first: given
// Chain(A, B), the request sees A then B then the handler, and the response
// unwinds back through B then A. Used to build the façade's request-id and
// timeout wrapping around its ServeMux in a fixed, readable order.
func Chain(middlewares ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(handler http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			handler = middlewares[i](handler)
		}
		return handler
	}
}
