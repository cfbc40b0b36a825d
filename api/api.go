package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrInvalidRequest    = errors.New("invalid request")
	ErrInvalidID         = errors.New("invalid id")
	ErrInvalidDate       = errors.New("invalid date")
	ErrInvalidDateTime   = errors.New("invalid datetime")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrMalformedResource = errors.New("malformed resource")

	ErrNotFound   = errors.New("not found")
	ErrUnexpected = errors.New("unexpected error")
)

const (
	SandboxURL    = "https://sandbox.api.starkbank.com/v2"
	ProductionURL = "https://api.starkbank.com/v2"
)

// notFoundCode is the error code the API reports for unknown ids.
const notFoundCode = "notFound"

// Resource is the identity shared by every entity exposed by the API.
type Resource struct {
	ID string `json:"id"`
}

func (r Resource) validate(name string) error {
	if strings.TrimSpace(r.ID) == "" {
		return missingField(name, "id")
	}

	return nil
}

// ErrorDetail is a single entry of the API error payload.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is the body the API returns on non-2xx responses.
type ErrorResponse struct {
	Errors []ErrorDetail `json:"errors"`
}

// APIError carries the status code and payload of a failed API call.
type APIError struct {
	StatusCode int
	Errors     []ErrorDetail
}

func (e *APIError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("%s: %d", ErrUnexpected, e.StatusCode)
	}

	messages := make([]string, 0, len(e.Errors))
	for _, detail := range e.Errors {
		messages = append(messages, fmt.Sprintf("%s: %s", detail.Code, detail.Message))
	}

	return fmt.Sprintf("%s: %d: %s", ErrUnexpected, e.StatusCode, strings.Join(messages, "; "))
}

// Is matches ErrNotFound for unknown ids and ErrUnexpected for everything else.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.notFound()
	case ErrUnexpected:
		return true
	default:
		return false
	}
}

func (e *APIError) notFound() bool {
	if e.StatusCode == http.StatusNotFound {
		return true
	}

	for _, detail := range e.Errors {
		if detail.Code == notFoundCode {
			return true
		}
	}

	return false
}

// Temporary reports whether the call may succeed if repeated.
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

func missingField(resource, field string) error {
	return fmt.Errorf("%w: %s: missing required field %q", ErrMalformedResource, resource, field)
}
