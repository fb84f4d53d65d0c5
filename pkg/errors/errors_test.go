package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRouterErrorIsMatchesByCode(t *testing.T) {
	err := New(ErrCircuitOpen, "breaker rejected the call")

	assert.ErrorIs(t, err, CircuitOpen)
	assert.NotErrorIs(t, err, NoProviderAvailable)
}

func TestRouterErrorIsThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("routed call to openai failed: %w", AllProvidersFailed)

	assert.ErrorIs(t, wrapped, AllProvidersFailed)
}

func TestRouterErrorIsRejectsForeignErrors(t *testing.T) {
	var re *RouterError = New(ErrProviderError, "boom")

	assert.False(t, re.Is(errors.New("plain error")))
}

func TestErrorMessageIncludesDetails(t *testing.T) {
	plain := New(ErrInvalidRequest, "bad payload")
	detailed := NewWithDetails(ErrInvalidRequest, "bad payload", "missing messages")

	assert.Equal(t, "INVALID_REQUEST: bad payload", plain.Error())
	assert.Equal(t, "INVALID_REQUEST: bad payload (missing messages)", detailed.Error())
}

func TestHTTPStatusCodeMapping(t *testing.T) {
	cases := []struct {
		code ErrorCode
		want int
	}{
		{ErrUnauthorized, http.StatusUnauthorized},
		{ErrInvalidRequest, http.StatusBadRequest},
		{ErrNoProviderAvailable, http.StatusServiceUnavailable},
		{ErrAllProvidersFailed, http.StatusServiceUnavailable},
		{ErrCircuitOpen, http.StatusServiceUnavailable},
		{ErrProviderTimeout, http.StatusGatewayTimeout},
		{ErrInternalServer, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, New(tc.code, "x").HTTPStatusCode, "code %s", tc.code)
	}
}
