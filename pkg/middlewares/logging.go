package middlewares

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// NewLoggingMiddleware logs every request at debug level and transport failures at warn.
// A nil logger discards logs.
func NewLoggingMiddleware(logger *zap.Logger) Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			start := time.Now()

			resp, err := next.RoundTrip(req)

			fields := []zap.Field{
				zap.String("method", req.Method),
				zap.String("path", req.URL.Path),
				zap.Duration("duration", time.Since(start)),
			}

			if err != nil {
				logger.Warn("request failed", append(fields, zap.Error(err))...)

				return nil, err
			}

			logger.Debug("request completed", append(fields, zap.Int("status", resp.StatusCode), zap.String("cache", resp.Header.Get("X-Cache")))...)

			return resp, nil
		})
	}
}
