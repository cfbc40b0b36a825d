package client

import (
	"context"
	"fmt"

	"github.com/devshark/starkbank/api"
)

// TransferClient creates and retrieves transfers.
type TransferClient struct {
	gateway *Client
}

// Create sends the transfers in a single request and returns them as created by the API.
func (c *TransferClient) Create(ctx context.Context, requests []*api.TransferRequest) ([]*api.Transfer, error) {
	for i, request := range requests {
		if request == nil {
			return nil, fmt.Errorf("transfer %d: %w", i, api.ErrInvalidRequest)
		}

		if err := request.Validate(); err != nil {
			return nil, fmt.Errorf("transfer %d: %w", i, err)
		}
	}

	return postResources[api.Transfer](ctx, c.gateway, api.TransferResource, requests)
}

// Get retrieves a transfer by its id.
func (c *TransferClient) Get(ctx context.Context, id string) (*api.Transfer, error) {
	return getResource[api.Transfer](ctx, c.gateway, api.TransferResource, id)
}

// Query lists transfers lazily. Filters are validated before any request is made.
func (c *TransferClient) Query(query api.TransferQuery) (*Iterator[api.Transfer], error) {
	filters, err := query.Values()
	if err != nil {
		return nil, err
	}

	return newIterator[api.Transfer](query.Limit, func(ctx context.Context, cursor string, limit int) ([]*api.Transfer, string, error) {
		return getPage[api.Transfer](ctx, c.gateway, api.TransferResource, filters, cursor, limit)
	}), nil
}

