package errdefs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(Transientf("x", "timeout")))
	assert.False(t, IsTransient(Permanentf("x", "bad input")))
	assert.False(t, IsTransient(errors.New("plain")))
	assert.False(t, IsTransient(nil))

	wrapped := fmt.Errorf("fetch: %w", Transientf("x", "reset"))
	assert.True(t, IsTransient(wrapped))
}

func TestFromHTTPStatus(t *testing.T) {
	tests := []struct {
		status    int
		transient bool
	}{
		{http.StatusTooManyRequests, true},
		{http.StatusInternalServerError, true},
		{http.StatusServiceUnavailable, true},
		{http.StatusBadGateway, true},
		{http.StatusNotFound, false},
		{http.StatusForbidden, false},
		{http.StatusUnauthorized, false},
		{http.StatusBadRequest, false},
	}
	for _, tt := range tests {
		err := FromHTTPStatus("https://x", tt.status)
		assert.Equal(t, tt.transient, IsTransient(err), "status %d", tt.status)
	}
}

func TestFromTransportError(t *testing.T) {
	assert.True(t, IsTransient(FromTransportError("x", context.DeadlineExceeded)))
	assert.True(t, IsTransient(FromTransportError("x", errors.New("dial tcp: connection refused"))))
	assert.True(t, IsTransient(FromTransportError("x", errors.New("read: connection reset by peer"))))
	assert.True(t, IsTransient(FromTransportError("x", errors.New("lookup bad.host: no such host"))))
}

func TestConversionErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := Transient("https://x", cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "https://x")
}

func TestValidationErrors(t *testing.T) {
	err := NewUnsupportedInput("notes.txt", ".txt")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, UnsupportedInput, verr.Kind)
	assert.Equal(t, ".txt", verr.Extension)
	assert.False(t, IsTransient(err), "validation errors are never retried")

	var nferr *ValidationError
	require.ErrorAs(t, NewFileNotFound("/missing.pdf"), &nferr)
	assert.Equal(t, FileNotFound, nferr.Kind)
}
