package client

import (
	"context"
	"net/http"
	"strings"

	"github.com/devshark/starkbank/api"
)

// TransferLogClient retrieves transfer logs. Logs are generated by the API
// whenever a transfer changes state and cannot be created by clients.
type TransferLogClient struct {
	gateway *Client
}

func (c *TransferLogClient) Get(ctx context.Context, id string) (*api.TransferLog, error) {
	return getResource[api.TransferLog](ctx, c.gateway, api.TransferLogResource, id)
}

func (c *TransferLogClient) Query(query api.TransferLogQuery) (*Iterator[api.TransferLog], error) {
	filters, err := query.Values()
	if err != nil {
		return nil, err
	}

	return newIterator[api.TransferLog](query.Limit, func(ctx context.Context, cursor string, limit int) ([]*api.TransferLog, string, error) {
		return getPage[api.TransferLog](ctx, c.gateway, api.TransferLogResource, filters, cursor, limit)
	}), nil
}

// IsTransferLogLookup reports whether req fetches a single transfer log.
// Logs never change, so these responses can be cached indefinitely.
func IsTransferLogLookup(req *http.Request) bool {
	prefix := "/" + api.TransferLogResource.Endpoint + "/"
	index := strings.Index(req.URL.Path, prefix)

	return req.Method == http.MethodGet && index >= 0 && len(req.URL.Path) > index+len(prefix)
}
