package client

import (
	"net/http"
	"strconv"
	"time"
)

// Authenticator decorates an outgoing request with credentials. body is the
// exact payload that will be sent, or nil for requests without one.
type Authenticator interface {
	Authenticate(req *http.Request, body []byte) error
}

// AuthenticatorFunc adapts a function to Authenticator.
type AuthenticatorFunc func(req *http.Request, body []byte) error

func (f AuthenticatorFunc) Authenticate(req *http.Request, body []byte) error {
	return f(req, body)
}

// AccessID identifies a project or organization, e.g. "project/5656565656565656".
// It sets the identity headers only; use an AuthenticatorFunc to add a signature.
type AccessID string

func (a AccessID) Authenticate(req *http.Request, _ []byte) error {
	req.Header.Set("Access-Id", string(a))
	req.Header.Set("Access-Time", strconv.FormatInt(time.Now().Unix(), 10))

	return nil
}
