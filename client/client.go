package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/devshark/starkbank/api"
	"github.com/devshark/starkbank/pkg/middlewares"
	"github.com/devshark/starkbank/pkg/retry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultClientName = "starkbank-go"

// Client is the REST gateway shared by every resource client.
// It is safe for concurrent use.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	clientName  string
	auth        Authenticator
	logger      *zap.Logger
	maxAttempts int
	middlewares []middlewares.Middleware
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client. The given client is not modified.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithName sets the Client-Name and User-Agent headers.
func WithName(name string) Option {
	return func(c *Client) {
		c.clientName = name
	}
}

// WithAuthenticator sets the credentials added to every request.
func WithAuthenticator(auth Authenticator) Option {
	return func(c *Client) {
		c.auth = auth
	}
}

// WithLogger sets the logger used for retries. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRetry retries GET requests failing with network errors, 429 or 5xx
// up to maxAttempts times in total. POST requests are never retried.
func WithRetry(maxAttempts int) Option {
	return func(c *Client) {
		c.maxAttempts = maxAttempts
	}
}

// WithMiddlewares wraps the transport of the http.Client. See middlewares.MiddlewareChain for ordering.
func WithMiddlewares(mws ...middlewares.Middleware) Option {
	return func(c *Client) {
		c.middlewares = append(c.middlewares, mws...)
	}
}

// NewClient creates a Client for the API at baseURL, e.g. api.SandboxURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  &http.Client{},
		clientName:  defaultClientName,
		logger:      zap.NewNop(),
		maxAttempts: 1,
	}

	for _, opt := range opts {
		opt(c)
	}

	if len(c.middlewares) > 0 {
		httpClient := *c.httpClient
		httpClient.Transport = middlewares.MiddlewareChain(c.middlewares...)(httpClient.Transport)
		c.httpClient = &httpClient
	}

	return c
}

// As returns a copy of c that authenticates with auth.
func (c *Client) As(auth Authenticator) *Client {
	clone := *c
	clone.auth = auth

	return &clone
}

// Transfers returns the transfer resource client.
func (c *Client) Transfers() *TransferClient {
	return &TransferClient{gateway: c}
}

// Transactions returns the transaction resource client.
func (c *Client) Transactions() *TransactionClient {
	return &TransactionClient{gateway: c}
}

// TransferLogs returns the transfer log resource client.
func (c *Client) TransferLogs() *TransferLogClient {
	return &TransferLogClient{gateway: c}
}

// getResource performs GET /<endpoint>/<id> and decodes the singular envelope.
func getResource[T any](ctx context.Context, c *Client, d api.Descriptor, id string) (*T, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, api.ErrInvalidID
	}

	body, err := c.send(ctx, http.MethodGet, d.Endpoint+"/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return nil, err
	}

	envelope, err := decodeEnvelope(body)
	if err != nil {
		return nil, err
	}

	return api.FromAPIJSON[T](d, envelope[d.Singular])
}

// getPage performs GET /<endpoint> for a single page and returns the next cursor.
func getPage[T any](ctx context.Context, c *Client, d api.Descriptor, filters url.Values, cursor string, limit int) ([]*T, string, error) {
	query := url.Values{}
	for key, values := range filters {
		query[key] = values
	}

	query.Set("limit", fmt.Sprint(limit))

	if cursor != "" {
		query.Set("cursor", cursor)
	}

	body, err := c.send(ctx, http.MethodGet, d.Endpoint, query, nil)
	if err != nil {
		return nil, "", err
	}

	envelope, err := decodeEnvelope(body)
	if err != nil {
		return nil, "", err
	}

	items, err := api.ListFromAPIJSON[T](d, envelope[d.Plural])
	if err != nil {
		return nil, "", err
	}

	var next *string
	if raw, ok := envelope["cursor"]; ok {
		if err := json.Unmarshal(raw, &next); err != nil {
			return nil, "", fmt.Errorf("failed to decode response: cursor: %w", err)
		}
	}

	if next == nil {
		return items, "", nil
	}

	return items, *next, nil
}

// postResources performs POST /<endpoint> with the plural envelope and decodes the created resources.
func postResources[T any, R any](ctx context.Context, c *Client, d api.Descriptor, requests []R) ([]*T, error) {
	if len(requests) == 0 {
		return nil, fmt.Errorf("%w: no %s to create", api.ErrInvalidRequest, d.Plural)
	}

	payload, err := json.Marshal(map[string][]R{d.Plural: requests})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	body, err := c.send(ctx, http.MethodPost, d.Endpoint, nil, payload)
	if err != nil {
		return nil, err
	}

	envelope, err := decodeEnvelope(body)
	if err != nil {
		return nil, err
	}

	return api.ListFromAPIJSON[T](d, envelope[d.Plural])
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, payload []byte) ([]byte, error) {
	if method != http.MethodGet || c.maxAttempts <= 1 {
		return c.roundTrip(ctx, method, path, query, payload)
	}

	return retry.Value(ctx, func() ([]byte, error) {
		body, err := c.roundTrip(ctx, method, path, query, payload)
		if err != nil && !temporary(err) {
			return nil, retry.Permanent(err)
		}

		if err != nil {
			c.logger.Debug("retrying request", zap.String("path", path), zap.Error(err))
		}

		return body, err
	}, c.maxAttempts)
}

func (c *Client) roundTrip(ctx context.Context, method, path string, query url.Values, payload []byte) ([]byte, error) {
	endpoint := c.baseURL + "/" + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Client-Name", c.clientName)
	req.Header.Set("User-Agent", c.clientName)

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Idempotency-Key", uuid.NewString())
	}

	if c.auth != nil {
		if err := c.auth.Authenticate(req, payload); err != nil {
			return nil, fmt.Errorf("failed to authenticate request: %w", err)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, decodeError(resp.StatusCode, body)
	}

	return body, nil
}

func decodeEnvelope(body []byte) (map[string]json.RawMessage, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return envelope, nil
}

// decodeError keeps the API error payload verbatim. Bodies that are not an
// error payload produce an APIError without details.
func decodeError(statusCode int, body []byte) error {
	apiErr := &api.APIError{StatusCode: statusCode}

	var payload api.ErrorResponse
	if err := json.Unmarshal(body, &payload); err == nil {
		apiErr.Errors = payload.Errors
	}

	return apiErr
}

func temporary(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}

	return !errors.Is(err, api.ErrInvalidRequest)
}
