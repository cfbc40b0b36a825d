// Package banktest provides an in-memory implementation of the banking API
// for tests. It serves the same envelopes, filters and cursor pagination as
// the remote API.
package banktest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"time"

	"github.com/devshark/starkbank/api"
)

type failure struct {
	status int
	code   string
}

type Server struct {
	*httptest.Server

	mu           sync.Mutex
	transfers    []*api.Transfer
	transactions []*api.Transaction
	logs         []*api.TransferLog
	sequence     int
	listCalls    map[string]int
	failures     []failure
	lastHeader   http.Header
	now          func() time.Time
}

// NewServer starts a server. Call Close when done.
func NewServer() *Server {
	s := &Server{
		listCalls: map[string]int{},
		now:       time.Now,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("POST /transfer", s.createTransfers)
	mux.HandleFunc("GET /transfer", s.listTransfers)
	mux.HandleFunc("GET /transfer/{id}", s.getTransfer)

	mux.HandleFunc("POST /transaction", s.createTransactions)
	mux.HandleFunc("GET /transaction", s.listTransactions)
	mux.HandleFunc("GET /transaction/{id}", s.getTransaction)

	mux.HandleFunc("GET /transfer/log", s.listTransferLogs)
	mux.HandleFunc("GET /transfer/log/{id}", s.getTransferLog)

	s.Server = httptest.NewServer(s.intercept(mux))

	return s
}

// WithClock replaces the clock used to stamp created resources.
func (s *Server) WithClock(now func() time.Time) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.now = now

	return s
}

// FailNext makes the next n requests fail with status and an error payload carrying code.
func (s *Server) FailNext(n int, status int, code string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for range n {
		s.failures = append(s.failures, failure{status: status, code: code})
	}
}

// ListCalls returns how many list requests were served for endpoint, e.g. "transfer/log".
func (s *Server) ListCalls(endpoint string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.listCalls[endpoint]
}

// LastHeader returns the headers of the last request received.
func (s *Server) LastHeader() http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastHeader.Clone()
}

func (s *Server) AddTransfer(transfer *api.Transfer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transfers = append(s.transfers, transfer)
}

func (s *Server) AddTransaction(transaction *api.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transactions = append(s.transactions, transaction)
}

func (s *Server) AddTransferLog(log *api.TransferLog) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logs = append(s.logs, log)
}

// SeedTransferLogs adds n logs of one transfer, one minute apart, ending at last.
func (s *Server) SeedTransferLogs(n int, last time.Time) []*api.TransferLog {
	transfer := s.newTransfer(&api.TransferRequest{
		Amount:        1000,
		Name:          "Jon Snow",
		TaxID:         "012.345.678-90",
		BankCode:      "001",
		BranchCode:    "1234",
		AccountNumber: "123456-7",
	}, last.Add(-time.Duration(n)*time.Minute))

	logs := make([]*api.TransferLog, n)
	for i := range n {
		logs[i] = &api.TransferLog{
			Resource: api.Resource{ID: s.nextID()},
			Created:  api.Timestamp{Time: last.Add(-time.Duration(n-1-i) * time.Minute)},
			Type:     api.TransferLogProcessing,
			Errors:   []string{},
			Transfer: *transfer,
		}
		s.AddTransferLog(logs[i])
	}

	return logs
}

func (s *Server) nextID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sequence++

	return fmt.Sprintf("%016d", 5000000000000000+s.sequence)
}

func (s *Server) newTransfer(request *api.TransferRequest, created time.Time) *api.Transfer {
	return &api.Transfer{
		Resource:      api.Resource{ID: s.nextID()},
		Amount:        request.Amount,
		Name:          request.Name,
		TaxID:         request.TaxID,
		BankCode:      request.BankCode,
		BranchCode:    request.BranchCode,
		AccountNumber: request.AccountNumber,
		Tags:          request.Tags,
		Status:        api.TransferCreated,
		Created:       api.Timestamp{Time: created},
		Updated:       api.Timestamp{Time: created},
	}
}

func (s *Server) intercept(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.lastHeader = r.Header.Clone()

		var injected *failure
		if len(s.failures) > 0 {
			injected = &s.failures[0]
			s.failures = s.failures[1:]
		}
		s.mu.Unlock()

		if injected != nil {
			HandleError(w, injected.status, injected.code, "injected failure")

			return
		}

		next.ServeHTTP(w, r)
	})
}

// newestFirst orders by creation time descending. Ties put the most recently added first.
func newestFirst[T any](items []*T, created func(*T) time.Time) []*T {
	sorted := make([]*T, len(items))
	for i, item := range items {
		sorted[len(items)-1-i] = item
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		return created(sorted[i]).After(created(sorted[j]))
	})

	return sorted
}
