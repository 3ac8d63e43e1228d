package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a ServiceError.
type Code string

const (
	// CodeHTTPError marks transport and infrastructure failures. Callers must propagate it.
	CodeHTTPError      Code = "HTTP_ERROR"
	CodeNotFound       Code = "NOT_FOUND"
	CodeUnauthorized   Code = "UNAUTHORIZED"
	CodeAPIError       Code = "API_ERROR"
	CodeInvalidPayload Code = "INVALID_PAYLOAD"
)

// ServiceError is returned by every failed marketplace call.
type ServiceError struct {
	Code     Code
	Resource string
	Status   int
	Message  string
	Err      error
}

func (e *ServiceError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status != 0 {
		return fmt.Sprintf("marketplace %s (%s, status %d): %s", e.Resource, e.Code, e.Status, msg)
	}
	return fmt.Sprintf("marketplace %s (%s): %s", e.Resource, e.Code, msg)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// Transport reports whether the failure happened below the API contract.
func (e *ServiceError) Transport() bool {
	return e != nil && e.Code == CodeHTTPError
}

// IsTransport reports whether err carries an HTTP_ERROR ServiceError.
func IsTransport(err error) bool {
	var svcErr *ServiceError
	return errors.As(err, &svcErr) && svcErr.Transport()
}

// CodeOf returns the ServiceError code carried by err.
func CodeOf(err error) (Code, bool) {
	var svcErr *ServiceError
	if !errors.As(err, &svcErr) {
		return "", false
	}
	return svcErr.Code, true
}

// codeForStatus maps a non-2xx status onto an error code.
func codeForStatus(status int) Code {
	switch status {
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return CodeUnauthorized
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return CodeAPIError
	default:
		return CodeHTTPError
	}
}
