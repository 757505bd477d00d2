package middleware

import "net/http"

// Middleware is a function that wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain combines multiple middleware into a single Middleware, applied in
// the order given: Chain(mw1, mw2)(handler) yields mw1(mw2(handler)), so
// mw1 executes first. The router relies on this to keep Recovery outermost
// and to run Actor extraction before request logging.
func Chain(mws ...Middleware) Middleware {
	return func(final http.Handler) http.Handler {
		for i := len(mws) - 1; i >= 0; i-- {
			final = mws[i](final)
		}
		return final
	}
}
