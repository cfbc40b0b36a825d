package client

import (
	"context"
	"fmt"

	"github.com/devshark/starkbank/api"
)

// TransactionClient creates and retrieves transactions between workspaces.
type TransactionClient struct {
	gateway *Client
}

// Create sends the transactions in a single request and returns them as created by the API.
func (c *TransactionClient) Create(ctx context.Context, requests []*api.TransactionRequest) ([]*api.Transaction, error) {
	for i, request := range requests {
		if request == nil {
			return nil, fmt.Errorf("transaction %d: %w", i, api.ErrInvalidRequest)
		}

		if err := request.Validate(); err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}
	}

	return postResources[api.Transaction](ctx, c.gateway, api.TransactionResource, requests)
}

// Get retrieves a transaction by its id.
func (c *TransactionClient) Get(ctx context.Context, id string) (*api.Transaction, error) {
	return getResource[api.Transaction](ctx, c.gateway, api.TransactionResource, id)
}

// Query lists transactions lazily. Filters are validated before any request is made.
func (c *TransactionClient) Query(query api.TransactionQuery) (*Iterator[api.Transaction], error) {
	filters, err := query.Values()
	if err != nil {
		return nil, err
	}

	return newIterator[api.Transaction](query.Limit, func(ctx context.Context, cursor string, limit int) ([]*api.Transaction, string, error) {
		return getPage[api.Transaction](ctx, c.gateway, api.TransactionResource, filters, cursor, limit)
	}), nil
}
