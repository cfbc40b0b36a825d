package client

import (
	"context"
	"errors"

	"github.com/devshark/starkbank/api"
)

// ErrIteratorDone is returned by Iterator.Next when the sequence is exhausted.
var ErrIteratorDone = errors.New("no more items in iterator")

type pageFunc[T any] func(ctx context.Context, cursor string, limit int) ([]*T, string, error)

// Iterator walks a paginated listing one page at a time. A page is only
// requested when the previous one has been consumed. An Iterator cannot be
// restarted and is not safe for concurrent use; once Next returns an error,
// every later call returns the same error.
type Iterator[T any] struct {
	fetch     pageFunc[T]
	page      []*T
	cursor    string
	remaining int // negative when unbounded
	started   bool
	err       error
}

func newIterator[T any](limit *int, fetch pageFunc[T]) *Iterator[T] {
	remaining := -1
	if limit != nil {
		remaining = *limit
	}

	return &Iterator[T]{
		fetch:     fetch,
		remaining: remaining,
	}
}

// Next returns the next item, or ErrIteratorDone when the server has no more
// items or the query limit has been reached.
func (it *Iterator[T]) Next(ctx context.Context) (*T, error) {
	if it.err != nil {
		return nil, it.err
	}

	if it.remaining == 0 {
		it.err = ErrIteratorDone

		return nil, it.err
	}

	for len(it.page) == 0 {
		if it.started && it.cursor == "" {
			it.err = ErrIteratorDone

			return nil, it.err
		}

		size := api.MaxPageSize
		if it.remaining > 0 && it.remaining < size {
			size = it.remaining
		}

		page, cursor, err := it.fetch(ctx, it.cursor, size)
		if err != nil {
			it.err = err

			return nil, err
		}

		it.started = true
		it.page = page
		it.cursor = cursor
	}

	item := it.page[0]
	it.page[0] = nil
	it.page = it.page[1:]

	if it.remaining > 0 {
		it.remaining--
	}

	return item, nil
}

// Collect drains it into a slice.
func Collect[T any](ctx context.Context, it *Iterator[T]) ([]*T, error) {
	items := []*T{}

	for {
		item, err := it.Next(ctx)
		if errors.Is(err, ErrIteratorDone) {
			return items, nil
		}

		if err != nil {
			return items, err
		}

		items = append(items, item)
	}
}
