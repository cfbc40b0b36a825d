package api

import (
	"net/url"
	"strings"
)

// TransferStatus is the processing state of a Transfer.
type TransferStatus string

const (
	TransferCreated    TransferStatus = "created"
	TransferProcessing TransferStatus = "processing"
	TransferSuccess    TransferStatus = "success"
	TransferFailed     TransferStatus = "failed"
	TransferCanceled   TransferStatus = "canceled"
)

// TransferResource describes how transfers are exposed by the API.
var TransferResource = Descriptor{
	Name:     "Transfer",
	Endpoint: "transfer",
	Singular: "transfer",
	Plural:   "transfers",
	Required: []string{"id", "amount", "name", "taxId", "bankCode", "branchCode", "accountNumber", "status", "created"},
}

// Transfer is a payment sent from the workspace balance to a bank account.
type Transfer struct {
	Resource
	Amount         Amount         `json:"amount"`
	Name           string         `json:"name"`
	TaxID          string         `json:"taxId"`
	BankCode       string         `json:"bankCode"`
	BranchCode     string         `json:"branchCode"`
	AccountNumber  string         `json:"accountNumber"`
	Tags           []string       `json:"tags"`
	Fee            Amount         `json:"fee"`
	Status         TransferStatus `json:"status"`
	TransactionIDs []string       `json:"transactionIds"`
	Created        Timestamp      `json:"created"`
	Updated        Timestamp      `json:"updated"`
}

// UnmarshalJSON rejects payloads missing a required transfer field.
func (t *Transfer) UnmarshalJSON(data []byte) error {
	type plain Transfer

	if err := decodeResource(TransferResource, data, (*plain)(t)); err != nil {
		return err
	}

	return t.Resource.validate(TransferResource.Name)
}

// TransferRequest is the payload of a transfer to be created.
type TransferRequest struct {
	Amount        Amount   `json:"amount"`
	Name          string   `json:"name"`
	TaxID         string   `json:"taxId"`
	BankCode      string   `json:"bankCode"`
	BranchCode    string   `json:"branchCode"`
	AccountNumber string   `json:"accountNumber"`
	Tags          []string `json:"tags,omitempty"`
}

// Validate checks the request before it is sent.
func (r *TransferRequest) Validate() error {
	switch {
	case r.Amount <= 0:
		return ErrInvalidAmount
	case strings.TrimSpace(r.Name) == "",
		strings.TrimSpace(r.TaxID) == "",
		strings.TrimSpace(r.BankCode) == "",
		strings.TrimSpace(r.BranchCode) == "",
		strings.TrimSpace(r.AccountNumber) == "":
		return ErrInvalidRequest
	}

	return nil
}

// TransferQuery filters transfer listings.
type TransferQuery struct {
	ListParams
	Status         TransferStatus
	Tags           []string
	TransactionIDs []string
	// Sort is "created" or "-created" (default, newest first).
	Sort string
}

// Values encodes the query filters, validating the date bounds.
func (q TransferQuery) Values() (url.Values, error) {
	values, err := q.ListParams.Values()
	if err != nil {
		return nil, err
	}

	if q.Status != "" {
		values.Set("status", string(q.Status))
	}

	if q.Sort != "" {
		values.Set("sort", q.Sort)
	}

	setList(values, "tags", q.Tags)
	setList(values, "transactionIds", q.TransactionIDs)

	return values, nil
}
