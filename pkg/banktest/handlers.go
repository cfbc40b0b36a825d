package banktest

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/devshark/starkbank/api"
)

func (s *Server) createTransfers(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Transfers []*api.TransferRequest `json:"transfers"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || len(payload.Transfers) == 0 {
		HandleError(w, http.StatusBadRequest, "invalidJson", "expected a transfers list")

		return
	}

	for _, request := range payload.Transfers {
		if request == nil || request.Validate() != nil {
			HandleError(w, http.StatusBadRequest, "invalidTransfer", "transfer is missing required fields")

			return
		}
	}

	created := make([]*api.Transfer, 0, len(payload.Transfers))
	for _, request := range payload.Transfers {
		transfer := s.newTransfer(request, s.clock())
		s.AddTransfer(transfer)
		s.AddTransferLog(&api.TransferLog{
			Resource: api.Resource{ID: s.nextID()},
			Created:  transfer.Created,
			Type:     api.TransferLogCreated,
			Errors:   []string{},
			Transfer: *transfer,
		})

		created = append(created, transfer)
	}

	writeJSON(w, http.StatusOK, map[string]any{"transfers": created})
}

func (s *Server) createTransactions(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Transactions []*api.TransactionRequest `json:"transactions"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || len(payload.Transactions) == 0 {
		HandleError(w, http.StatusBadRequest, "invalidJson", "expected a transactions list")

		return
	}

	for _, request := range payload.Transactions {
		if request == nil || request.Validate() != nil {
			HandleError(w, http.StatusBadRequest, "invalidTransaction", "transaction is missing required fields")

			return
		}
	}

	created := make([]*api.Transaction, 0, len(payload.Transactions))
	for _, request := range payload.Transactions {
		transaction := &api.Transaction{
			Resource:    api.Resource{ID: s.nextID()},
			Amount:      request.Amount,
			Description: request.Description,
			ExternalID:  request.ExternalID,
			ReceiverID:  request.ReceiverID,
			Tags:        request.Tags,
			Source:      "self",
			Created:     api.Timestamp{Time: s.clock()},
		}
		s.AddTransaction(transaction)

		created = append(created, transaction)
	}

	writeJSON(w, http.StatusOK, map[string]any{"transactions": created})
}

func (s *Server) getTransfer(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	items := slices.Clone(s.transfers)
	s.mu.Unlock()

	serveOne(w, r, api.TransferResource, items, func(t *api.Transfer) string { return t.ID })
}

func (s *Server) getTransaction(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	items := slices.Clone(s.transactions)
	s.mu.Unlock()

	serveOne(w, r, api.TransactionResource, items, func(t *api.Transaction) string { return t.ID })
}

func (s *Server) getTransferLog(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	items := slices.Clone(s.logs)
	s.mu.Unlock()

	serveOne(w, r, api.TransferLogResource, items, func(l *api.TransferLog) string { return l.ID })
}

func (s *Server) listTransfers(w http.ResponseWriter, r *http.Request) {
	s.countList(api.TransferResource)

	s.mu.Lock()
	items := newestFirst(s.transfers, func(t *api.Transfer) time.Time { return t.Created.Time })
	s.mu.Unlock()

	query := r.URL.Query()
	if query.Get("sort") == "created" {
		slices.Reverse(items)
	}

	status := query.Get("status")
	tags := listParam(query, "tags")
	transactionIDs := listParam(query, "transactionIds")

	serveList(w, r, api.TransferResource, items, func(t *api.Transfer) time.Time { return t.Created.Time }, func(t *api.Transfer) bool {
		return (status == "" || string(t.Status) == status) &&
			overlaps(tags, t.Tags) &&
			overlaps(transactionIDs, t.TransactionIDs)
	})
}

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	s.countList(api.TransactionResource)

	s.mu.Lock()
	items := newestFirst(s.transactions, func(t *api.Transaction) time.Time { return t.Created.Time })
	s.mu.Unlock()

	query := r.URL.Query()
	ids := listParam(query, "ids")
	externalIDs := listParam(query, "externalIds")
	tags := listParam(query, "tags")

	serveList(w, r, api.TransactionResource, items, func(t *api.Transaction) time.Time { return t.Created.Time }, func(t *api.Transaction) bool {
		return overlaps(ids, []string{t.ID}) &&
			overlaps(externalIDs, []string{t.ExternalID}) &&
			overlaps(tags, t.Tags)
	})
}

func (s *Server) listTransferLogs(w http.ResponseWriter, r *http.Request) {
	s.countList(api.TransferLogResource)

	s.mu.Lock()
	items := newestFirst(s.logs, func(l *api.TransferLog) time.Time { return l.Created.Time })
	s.mu.Unlock()

	query := r.URL.Query()
	types := listParam(query, "types")
	transferIDs := listParam(query, "transferIds")

	serveList(w, r, api.TransferLogResource, items, func(l *api.TransferLog) time.Time { return l.Created.Time }, func(l *api.TransferLog) bool {
		return overlaps(types, []string{string(l.Type)}) &&
			overlaps(transferIDs, []string{l.Transfer.ID})
	})
}

func (s *Server) countList(d api.Descriptor) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listCalls[d.Endpoint]++
}

func (s *Server) clock() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.now().UTC()
}

func serveOne[T any](w http.ResponseWriter, r *http.Request, d api.Descriptor, items []*T, id func(*T) string) {
	wanted := r.PathValue("id")

	for _, item := range items {
		if id(item) == wanted {
			writeJSON(w, http.StatusOK, map[string]any{d.Singular: item})

			return
		}
	}

	HandleError(w, http.StatusNotFound, "notFound", d.Name+" "+wanted+" not found")
}

func serveList[T any](w http.ResponseWriter, r *http.Request, d api.Descriptor, items []*T, created func(*T) time.Time, match func(*T) bool) {
	query := r.URL.Query()

	after, before, err := dayBounds(query)
	if err != nil {
		HandleError(w, http.StatusBadRequest, "invalidDate", err.Error())

		return
	}

	offset, limit, err := pageBounds(query)
	if err != nil {
		HandleError(w, http.StatusBadRequest, "invalidCursor", err.Error())

		return
	}

	filtered := make([]*T, 0, len(items))
	for _, item := range items {
		day := created(item).UTC().Format(api.DateLayout)
		if (after != "" && day < after) || (before != "" && day > before) || !match(item) {
			continue
		}

		filtered = append(filtered, item)
	}

	if offset > len(filtered) {
		offset = len(filtered)
	}

	end := min(offset+limit, len(filtered))

	var cursor *string
	if end < len(filtered) {
		next := encodeCursor(end)
		cursor = &next
	}

	writeJSON(w, http.StatusOK, map[string]any{
		d.Plural: filtered[offset:end],
		"cursor": cursor,
	})
}

func dayBounds(query url.Values) (string, string, error) {
	var bounds [2]string

	for i, key := range []string{"after", "before"} {
		value := query.Get(key)
		if value == "" {
			continue
		}

		normalized, err := api.Date(value).Normalize()
		if err != nil {
			return "", "", err
		}

		bounds[i] = normalized
	}

	return bounds[0], bounds[1], nil
}

func pageBounds(query url.Values) (int, int, error) {
	limit := api.MaxPageSize

	if value := query.Get("limit"); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed < 1 {
			return 0, 0, api.ErrInvalidRequest
		}

		limit = min(parsed, api.MaxPageSize)
	}

	cursor := query.Get("cursor")
	if cursor == "" {
		return 0, limit, nil
	}

	decoded, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return 0, 0, api.ErrInvalidRequest
	}

	offset, err := strconv.Atoi(string(decoded))
	if err != nil || offset < 0 {
		return 0, 0, api.ErrInvalidRequest
	}

	return offset, limit, nil
}

func encodeCursor(offset int) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.Itoa(offset)))
}

func listParam(query url.Values, key string) []string {
	value := query.Get(key)
	if value == "" {
		return nil
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}

	return items
}

// overlaps is true when the filter is unset or shares a value with values.
func overlaps(filter, values []string) bool {
	if len(filter) == 0 {
		return true
	}

	for _, value := range values {
		if slices.Contains(filter, value) {
			return true
		}
	}

	return false
}
