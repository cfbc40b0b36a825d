package middlewares

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/devshark/starkbank/pkg/crypt"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const cacheKeyPrefix = "starkbank:"

// varyHeaders are part of the cache key so different credentials never share entries.
var varyHeaders = []string{"Access-Id", "Authorization"}

type GetterAndSetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

type RedisCacheMiddleware struct {
	client     GetterAndSetter
	next       http.RoundTripper
	expiration time.Duration
	cacheable  func(*http.Request) bool
	logger     *zap.Logger
}

// NewRedisCacheMiddleware caches successful GET responses for which cacheable
// returns true. A nil cacheable caches every GET; a nil logger discards logs.
func NewRedisCacheMiddleware(client GetterAndSetter, expiration time.Duration, cacheable func(*http.Request) bool, logger *zap.Logger) Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(next http.RoundTripper) http.RoundTripper {
		return &RedisCacheMiddleware{
			client:     client,
			next:       next,
			expiration: expiration,
			cacheable:  cacheable,
			logger:     logger,
		}
	}
}

func (m *RedisCacheMiddleware) RoundTrip(req *http.Request) (*http.Response, error) {
	// Only cache GET requests
	if req.Method != http.MethodGet || (m.cacheable != nil && !m.cacheable(req)) {
		return m.next.RoundTrip(req)
	}

	ctx := req.Context()
	key := CacheKey(req)

	cached, err := m.client.Get(ctx, key).Bytes()
	if err == nil {
		return cachedResponse(req, cached), nil
	}

	if !errors.Is(err, redis.Nil) {
		m.logger.Warn("cache lookup failed", zap.String("key", key), zap.Error(err))
	}

	resp, err := m.next.RoundTrip(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		return resp, err
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()

	if err != nil {
		return nil, fmt.Errorf("cache read error: %w", err)
	}

	resp.Body = io.NopCloser(bytes.NewReader(body))

	if err := m.client.Set(ctx, key, body, m.expiration).Err(); err != nil {
		m.logger.Warn("cache store failed", zap.String("key", key), zap.Error(err))
	}

	return resp, nil
}

// CacheKey identifies a request by URL and credentials.
func CacheKey(req *http.Request) string {
	parts := make([]string, 0, len(varyHeaders)+1)
	parts = append(parts, req.URL.String())

	for _, header := range varyHeaders {
		parts = append(parts, req.Header.Get(header))
	}

	return cacheKeyPrefix + crypt.Fingerprint(parts...)
}

func cachedResponse(req *http.Request, body []byte) *http.Response {
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	header.Set("Content-Length", strconv.Itoa(len(body)))
	header.Set("X-Cache", "HIT")

	return &http.Response{
		Status:        "200 OK",
		StatusCode:    http.StatusOK,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       req,
	}
}
