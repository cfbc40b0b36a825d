package api

import (
	"net/url"
	"strings"
)

// TransactionResource describes how transactions are exposed by the API.
var TransactionResource = Descriptor{
	Name:     "Transaction",
	Endpoint: "transaction",
	Singular: "transaction",
	Plural:   "transactions",
	Required: []string{"id", "amount", "description", "externalId", "receiverId", "created"},
}

// Transaction is a movement of funds between two workspaces. Debits carry a negative amount.
type Transaction struct {
	Resource
	Amount      Amount    `json:"amount"`
	Description string    `json:"description"`
	ExternalID  string    `json:"externalId"`
	ReceiverID  string    `json:"receiverId"`
	SenderID    string    `json:"senderId"`
	Tags        []string  `json:"tags"`
	Fee         Amount    `json:"fee"`
	Source      string    `json:"source"`
	Balance     Amount    `json:"balance"`
	Created     Timestamp `json:"created"`
}

// UnmarshalJSON rejects payloads missing a required transaction field.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	type plain Transaction

	if err := decodeResource(TransactionResource, data, (*plain)(t)); err != nil {
		return err
	}

	return t.Resource.validate(TransactionResource.Name)
}

// TransactionRequest is the payload of a transaction to be created.
type TransactionRequest struct {
	Amount      Amount   `json:"amount"`
	ReceiverID  string   `json:"receiverId"`
	Description string   `json:"description"`
	ExternalID  string   `json:"externalId"`
	Tags        []string `json:"tags,omitempty"`
}

// Validate checks the request before it is sent.
func (r *TransactionRequest) Validate() error {
	switch {
	case r.Amount <= 0:
		return ErrInvalidAmount
	case strings.TrimSpace(r.ReceiverID) == "",
		strings.TrimSpace(r.Description) == "",
		strings.TrimSpace(r.ExternalID) == "":
		return ErrInvalidRequest
	}

	return nil
}

// TransactionQuery filters transaction listings.
type TransactionQuery struct {
	ListParams
	IDs         []string
	ExternalIDs []string
	Tags        []string
}

// Values encodes the query filters, validating the date bounds.
func (q TransactionQuery) Values() (url.Values, error) {
	values, err := q.ListParams.Values()
	if err != nil {
		return nil, err
	}

	setList(values, "ids", q.IDs)
	setList(values, "externalIds", q.ExternalIDs)
	setList(values, "tags", q.Tags)

	return values, nil
}
