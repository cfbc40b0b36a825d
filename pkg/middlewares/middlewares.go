package middlewares

import "net/http"

// Middleware decorates an outgoing transport.
type Middleware func(next http.RoundTripper) http.RoundTripper

// RoundTripperFunc adapts a function to http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// MiddlewareChain composes mws so that the last one sees the request first.
func MiddlewareChain(mws ...Middleware) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		if next == nil {
			next = http.DefaultTransport
		}

		for _, mw := range mws {
			next = mw(next)
		}

		return next
	}
}
