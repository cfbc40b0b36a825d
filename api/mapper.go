package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Descriptor tells the gateway and the mapper how a resource is exposed by the API.
type Descriptor struct {
	// Name is used in error messages.
	Name string
	// Endpoint is the path relative to the base URL, e.g. "transfer/log".
	Endpoint string
	// Singular is the envelope key of single-object responses.
	Singular string
	// Plural is the envelope key of list and create payloads.
	Plural string
	// Required lists the JSON fields that must be present and non-null.
	Required []string
}

// FromAPIJSON decodes a single resource object.
func FromAPIJSON[T any](d Descriptor, raw json.RawMessage) (*T, error) {
	if isNull(raw) {
		return nil, fmt.Errorf("%w: %s: empty object", ErrMalformedResource, d.Name)
	}

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, malformed(d, err)
	}

	return &v, nil
}

// ListFromAPIJSON decodes a JSON array of resource objects, keeping the server order.
func ListFromAPIJSON[T any](d Descriptor, raw json.RawMessage) ([]*T, error) {
	if isNull(raw) {
		return []*T{}, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, malformed(d, err)
	}

	result := make([]*T, 0, len(items))
	for i, item := range items {
		v, err := FromAPIJSON[T](d, item)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}

		result = append(result, v)
	}

	return result, nil
}

// decodeResource checks the required fields of d before decoding data into target.
// target must not implement json.Unmarshaler itself.
func decodeResource(d Descriptor, data []byte, target any) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return malformed(d, err)
	}

	for _, field := range d.Required {
		if raw, ok := fields[field]; !ok || isNull(raw) {
			return missingField(d.Name, field)
		}
	}

	if err := json.Unmarshal(data, target); err != nil {
		return malformed(d, err)
	}

	return nil
}

func malformed(d Descriptor, err error) error {
	if errors.Is(err, ErrMalformedResource) {
		return err
	}

	return fmt.Errorf("%w: %s: %w", ErrMalformedResource, d.Name, err)
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)

	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
