package util

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies failures surfaced by the API client.
type ErrorKind string

const (
	KindAuth       ErrorKind = "auth"
	KindValidation ErrorKind = "validation"
	KindTransport  ErrorKind = "transport"
	KindServer     ErrorKind = "server"
)

// APIError is the normalized error returned by every client operation.
// Payload holds the decoded server body when one was received.
type APIError struct {
	Kind    ErrorKind
	Status  int
	Payload map[string]any
	Message string
	Err     error
}

func (e *APIError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s error (status %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// KindForStatus maps an HTTP status to an error kind.
func KindForStatus(status int) ErrorKind {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindAuth
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return KindValidation
	default:
		return KindServer
	}
}

// NewResponseError builds an APIError from an HTTP reply.
func NewResponseError(status int, payload map[string]any, raw []byte) *APIError {
	msg := MessageFromPayload(payload)
	if msg == "" {
		if len(raw) > 0 && len(raw) < 512 {
			msg = string(raw)
		} else {
			msg = http.StatusText(status)
		}
	}
	return &APIError{
		Kind:    KindForStatus(status),
		Status:  status,
		Payload: payload,
		Message: msg,
	}
}

// NewTransportError wraps a failure where no response was received.
func NewTransportError(err error) *APIError {
	msg := "network unavailable"
	if err != nil {
		msg = err.Error()
	}
	return &APIError{Kind: KindTransport, Message: msg, Err: err}
}

// MessageFromPayload extracts a human readable message from the common
// server error shapes: message, error (string or object) and detail.
func MessageFromPayload(payload map[string]any) string {
	if payload == nil {
		return ""
	}
	if s, ok := payload["message"].(string); ok && s != "" {
		return s
	}
	switch v := payload["error"].(type) {
	case string:
		if v != "" {
			return v
		}
	case map[string]any:
		if s, ok := v["message"].(string); ok && s != "" {
			return s
		}
	}
	if s, ok := payload["detail"].(string); ok && s != "" {
		return s
	}
	return ""
}

// AsAPIError unwraps err into an APIError.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsKind reports whether err is an APIError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Kind == kind
}

// IsStatus reports whether err is an APIError with the given HTTP status.
func IsStatus(err error, status int) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Status == status
}
