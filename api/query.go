package api

import (
	"fmt"
	"net/url"
	"strings"
)

// MaxPageSize is the largest page the API serves per request.
const MaxPageSize = 100

// Limit returns a pointer to n, for use in ListParams.
func Limit(n int) *int {
	return &n
}

// ListParams are the filters shared by every paginated query.
type ListParams struct {
	// Limit caps the number of items yielded. Nil means unbounded.
	Limit *int
	// After and Before bound the creation day, both inclusive.
	After  Date
	Before Date
}

// Values validates the date bounds and encodes them. Limit is handled by the paginator.
func (p ListParams) Values() (url.Values, error) {
	values := url.Values{}

	if p.Limit != nil && *p.Limit < 0 {
		return nil, fmt.Errorf("%w: negative limit %d", ErrInvalidRequest, *p.Limit)
	}

	if !p.After.IsZero() {
		after, err := p.After.Normalize()
		if err != nil {
			return nil, fmt.Errorf("after: %w", err)
		}

		values.Set("after", after)
	}

	if !p.Before.IsZero() {
		before, err := p.Before.Normalize()
		if err != nil {
			return nil, fmt.Errorf("before: %w", err)
		}

		values.Set("before", before)
	}

	return values, nil
}

func setList(values url.Values, key string, items []string) {
	cleaned := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			cleaned = append(cleaned, item)
		}
	}

	if len(cleaned) > 0 {
		values.Set(key, strings.Join(cleaned, ","))
	}
}
