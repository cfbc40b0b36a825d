package client_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/devshark/starkbank/api"
	"github.com/devshark/starkbank/client"
	"github.com/devshark/starkbank/pkg/banktest"
	"github.com/devshark/starkbank/pkg/middlewares"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestClient_Headers(t *testing.T) {
	server := banktest.NewServer()
	defer server.Close()

	logs := server.SeedTransferLogs(1, time.Now())

	c := client.NewClient(server.URL, client.WithName("archiver"), client.WithAuthenticator(client.AccessID("project/1")))

	_, err := c.TransferLogs().Get(context.Background(), logs[0].ID)
	require.NoError(t, err)

	header := server.LastHeader()
	require.Equal(t, "archiver", header.Get("Client-Name"))
	require.Equal(t, "archiver", header.Get("User-Agent"))
	require.Equal(t, "project/1", header.Get("Access-Id"))
	require.NotEmpty(t, header.Get("Access-Time"))
	require.Empty(t, header.Get("Idempotency-Key"))

	t.Run("As switches credentials", func(t *testing.T) {
		_, err := c.As(client.AccessID("project/2")).TransferLogs().Get(context.Background(), logs[0].ID)
		require.NoError(t, err)
		require.Equal(t, "project/2", server.LastHeader().Get("Access-Id"))

		_, err = c.TransferLogs().Get(context.Background(), logs[0].ID)
		require.NoError(t, err)
		require.Equal(t, "project/1", server.LastHeader().Get("Access-Id"))
	})

	t.Run("Authenticator sees the payload", func(t *testing.T) {
		var signed []byte
		auth := client.AuthenticatorFunc(func(req *http.Request, body []byte) error {
			signed = body
			req.Header.Set("Access-Signature", "signed")

			return nil
		})

		_, err := c.As(auth).Transactions().Create(context.Background(), []*api.TransactionRequest{
			{Amount: 100, ReceiverID: "r1", Description: "lunch", ExternalID: "e1"},
		})
		require.NoError(t, err)
		require.JSONEq(t, `{"transactions":[{"amount":100,"receiverId":"r1","description":"lunch","externalId":"e1"}]}`, string(signed))
		require.Equal(t, "signed", server.LastHeader().Get("Access-Signature"))
		require.NotEmpty(t, server.LastHeader().Get("Idempotency-Key"))
	})

	t.Run("Authenticator failure", func(t *testing.T) {
		auth := client.AuthenticatorFunc(func(*http.Request, []byte) error {
			return errors.New("no key")
		})

		_, err := c.As(auth).TransferLogs().Get(context.Background(), logs[0].ID)
		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to authenticate request")
	})
}

func TestClient_ErrorHandling(t *testing.T) {
	t.Run("Not found keeps the payload", func(t *testing.T) {
		server := banktest.NewServer()
		defer server.Close()

		_, err := client.NewClient(server.URL).Transfers().Get(context.Background(), "404")

		require.ErrorIs(t, err, api.ErrNotFound)

		var apiErr *api.APIError
		require.True(t, errors.As(err, &apiErr))
		require.Equal(t, http.StatusNotFound, apiErr.StatusCode)
		require.Equal(t, "notFound", apiErr.Errors[0].Code)
		require.Equal(t, "Transfer 404 not found", apiErr.Errors[0].Message)
	})

	t.Run("Not found reported by code", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			banktest.HandleError(w, http.StatusBadRequest, "notFound", "unknown id")
		}))
		defer server.Close()

		_, err := client.NewClient(server.URL).Transactions().Get(context.Background(), "1")

		require.ErrorIs(t, err, api.ErrNotFound)
		require.Contains(t, err.Error(), "notFound: unknown id")
	})

	t.Run("Server error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		_, err := client.NewClient(server.URL).Transfers().Get(context.Background(), "1")

		require.Error(t, err)
		require.ErrorIs(t, err, api.ErrUnexpected)
		require.NotErrorIs(t, err, api.ErrNotFound)
		require.Contains(t, err.Error(), "unexpected error: 500")
	})

	t.Run("Invalid JSON response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, err := w.Write([]byte("invalid json"))
			require.NoError(t, err)
		}))
		defer server.Close()

		_, err := client.NewClient(server.URL).Transfers().Get(context.Background(), "1")

		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to decode response")
	})

	t.Run("Missing envelope", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, err := w.Write([]byte(`{"transaction": {"id": "1"}}`))
			require.NoError(t, err)
		}))
		defer server.Close()

		_, err := client.NewClient(server.URL).Transfers().Get(context.Background(), "1")

		require.ErrorIs(t, err, api.ErrMalformedResource)
	})

	t.Run("Blank id", func(t *testing.T) {
		_, err := client.NewClient("http://nonexistent.example.com").TransferLogs().Get(context.Background(), "  ")

		require.ErrorIs(t, err, api.ErrInvalidID)
	})

	t.Run("Network error", func(t *testing.T) {
		_, err := client.NewClient("http://nonexistent.example.com").Transfers().Get(context.Background(), "1")

		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to send request")
	})

	t.Run("Context cancellation", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			time.Sleep(100 * time.Millisecond)

			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err := client.NewClient(server.URL).Transfers().Get(ctx, "1")

		require.Error(t, err)
		require.True(t, errors.Is(err, context.DeadlineExceeded))
	})
}

func TestClient_Retry(t *testing.T) {
	t.Run("Not retried by default", func(t *testing.T) {
		server := banktest.NewServer()
		defer server.Close()

		logs := server.SeedTransferLogs(1, time.Now())
		server.FailNext(1, http.StatusServiceUnavailable, "unavailable")

		_, err := client.NewClient(server.URL).TransferLogs().Get(context.Background(), logs[0].ID)

		require.ErrorIs(t, err, api.ErrUnexpected)
		require.Contains(t, err.Error(), "503")
	})

	t.Run("Transient failures are retried", func(t *testing.T) {
		server := banktest.NewServer()
		defer server.Close()

		logs := server.SeedTransferLogs(1, time.Now())
		server.FailNext(2, http.StatusServiceUnavailable, "unavailable")

		log, err := client.NewClient(server.URL, client.WithRetry(3)).TransferLogs().Get(context.Background(), logs[0].ID)

		require.NoError(t, err)
		require.Equal(t, logs[0].ID, log.ID)
	})

	t.Run("Client errors are not retried", func(t *testing.T) {
		var calls atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			banktest.HandleError(w, http.StatusNotFound, "notFound", "unknown id")
		}))
		defer server.Close()

		_, err := client.NewClient(server.URL, client.WithRetry(3)).Transfers().Get(context.Background(), "1")

		require.ErrorIs(t, err, api.ErrNotFound)
		require.Equal(t, int32(1), calls.Load())
	})

	t.Run("Posts are never retried", func(t *testing.T) {
		server := banktest.NewServer()
		defer server.Close()

		server.FailNext(1, http.StatusInternalServerError, "internalError")

		_, err := client.NewClient(server.URL, client.WithRetry(3)).Transfers().Create(context.Background(), []*api.TransferRequest{exampleTransferRequest()})

		require.ErrorIs(t, err, api.ErrUnexpected)

		it, err := client.NewClient(server.URL).Transfers().Query(api.TransferQuery{})
		require.NoError(t, err)

		transfers, err := client.Collect(context.Background(), it)
		require.NoError(t, err)
		require.Empty(t, transfers)
	})
}

func TestClient_Middlewares(t *testing.T) {
	server := banktest.NewServer()
	defer server.Close()

	logs := server.SeedTransferLogs(1, time.Now())

	core, recorded := observer.New(zap.DebugLevel)
	httpClient := &http.Client{Timeout: time.Second}

	c := client.NewClient(server.URL,
		client.WithHTTPClient(httpClient),
		client.WithMiddlewares(middlewares.NewLoggingMiddleware(zap.New(core))),
	)

	_, err := c.TransferLogs().Get(context.Background(), logs[0].ID)
	require.NoError(t, err)

	require.Nil(t, httpClient.Transport, "caller's http.Client must not be modified")
	require.Equal(t, 1, recorded.FilterMessage("request completed").Len())

	entry := recorded.All()[0]
	require.Equal(t, "/transfer/log/"+logs[0].ID, entry.ContextMap()["path"])
	require.Equal(t, int64(http.StatusOK), entry.ContextMap()["status"])
}
