package application

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownDevice      = errors.New("unknown device")
	ErrNoCredentials      = errors.New("no credentials")
	ErrInvalidMarkMapping = errors.New("invalid lock mark mapping")
)

// TransportError means no response was obtained at all.
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: call failed: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// HTTPError means a response was obtained with a status other than 200.
type HTTPError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s: http status %d", e.Endpoint, e.StatusCode)
}

// ApplicationError means HTTP 200 but the envelope code was not 200.
type ApplicationError struct {
	Endpoint string
	Code     int
	Message  string
	Body     string
}

func (e *ApplicationError) Error() string {
	return fmt.Sprintf("%s: %s (code %d)", e.Endpoint, e.Message, e.Code)
}
