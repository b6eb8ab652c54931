package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageFromPayload(t *testing.T) {
	tests := []struct {
		name    string
		payload map[string]any
		want    string
	}{
		{name: "nil", payload: nil, want: ""},
		{name: "message field", payload: map[string]any{"message": "created"}, want: "created"},
		{name: "error string", payload: map[string]any{"error": "Invalid credentials"}, want: "Invalid credentials"},
		{name: "error envelope", payload: map[string]any{"error": map[string]any{"code": "X", "message": "boom"}}, want: "boom"},
		{name: "detail", payload: map[string]any{"detail": "Not found."}, want: "Not found."},
		{name: "field errors only", payload: map[string]any{"username": []any{"required"}}, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MessageFromPayload(tt.payload))
		})
	}
}

func TestNewResponseErrorKinds(t *testing.T) {
	assert.Equal(t, KindAuth, NewResponseError(http.StatusUnauthorized, nil, nil).Kind)
	assert.Equal(t, KindAuth, NewResponseError(http.StatusForbidden, nil, nil).Kind)
	assert.Equal(t, KindValidation, NewResponseError(http.StatusBadRequest, nil, nil).Kind)
	assert.Equal(t, KindServer, NewResponseError(http.StatusInternalServerError, nil, nil).Kind)
	assert.Equal(t, KindServer, NewResponseError(http.StatusNotFound, nil, nil).Kind)

	e := NewResponseError(http.StatusBadGateway, nil, nil)
	assert.Equal(t, http.StatusText(http.StatusBadGateway), e.Message)
}

func TestAPIErrorUnwrapping(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := fmt.Errorf("list projects: %w", NewTransportError(cause))

	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, KindTransport, apiErr.Kind)
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsKind(err, KindTransport))
	assert.False(t, IsStatus(err, http.StatusUnauthorized))
}

func TestToDomainError(t *testing.T) {
	de := ToDomainError(fmt.Errorf("lookup: %w", ErrNotFound))
	assert.Equal(t, http.StatusNotFound, de.HTTPStatus)

	de = ToDomainError(errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, de.HTTPStatus)

	fe := NewFieldErrors(map[string][]string{"password": {"Passwords don't match"}})
	de = ToDomainError(fe)
	assert.Equal(t, http.StatusBadRequest, de.HTTPStatus)
	assert.Contains(t, de.Payload, "password")
}
