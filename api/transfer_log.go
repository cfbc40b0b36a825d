package api

import "net/url"

// TransferLogType is the transfer state change recorded by a TransferLog.
type TransferLogType string

const (
	TransferLogCreated    TransferLogType = "created"
	TransferLogProcessing TransferLogType = "processing"
	TransferLogSuccess    TransferLogType = "success"
	TransferLogFailed     TransferLogType = "failed"
	TransferLogCanceled   TransferLogType = "canceled"
)

// TransferLogResource describes how transfer logs are exposed by the API.
var TransferLogResource = Descriptor{
	Name:     "TransferLog",
	Endpoint: "transfer/log",
	Singular: "log",
	Plural:   "logs",
	Required: []string{"id", "created", "type", "transfer"},
}

// TransferLog records a state change of a Transfer. Logs are generated by the
// API; Transfer holds the transfer as it was when the log was created.
type TransferLog struct {
	Resource
	Created  Timestamp       `json:"created"`
	Type     TransferLogType `json:"type"`
	Errors   []string        `json:"errors"`
	Transfer Transfer        `json:"transfer"`
}

// UnmarshalJSON rejects payloads missing a required field, including the nested transfer's.
func (l *TransferLog) UnmarshalJSON(data []byte) error {
	type plain TransferLog

	if err := decodeResource(TransferLogResource, data, (*plain)(l)); err != nil {
		return err
	}

	if l.Errors == nil {
		l.Errors = []string{}
	}

	return l.Resource.validate(TransferLogResource.Name)
}

// TransferLogQuery filters transfer log listings.
type TransferLogQuery struct {
	ListParams
	Types       []TransferLogType
	TransferIDs []string
}

// Values encodes the query filters, validating the date bounds.
func (q TransferLogQuery) Values() (url.Values, error) {
	values, err := q.ListParams.Values()
	if err != nil {
		return nil, err
	}

	types := make([]string, 0, len(q.Types))
	for _, t := range q.Types {
		types = append(types, string(t))
	}

	setList(values, "types", types)
	setList(values, "transferIds", q.TransferIDs)

	return values, nil
}
