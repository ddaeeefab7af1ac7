package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", NewValidation("bad input"), http.StatusUnprocessableEntity},
		{"not found", NewNotFound("terminal", "abc"), http.StatusNotFound},
		{"invalid state", &InvalidStateError{Detail: "session already closed"}, http.StatusConflict},
		{"insufficient stock", &InsufficientStockError{ProductName: "Coca-Cola", Requested: 3, Available: 1}, http.StatusConflict},
		{"permission", &PermissionError{Detail: "main terminal only"}, http.StatusForbidden},
		{"blocked", &BlockedError{}, http.StatusLocked},
		{"transient", NewTransient("redis ping", errors.New("dial tcp: refused")), http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StatusCode(tc.err))
		})
	}
}

// Wrapped business errors keep their status through fmt.Errorf chains.
func TestStatusCodeWrapped(t *testing.T) {
	err := fmt.Errorf("closing session: %w", &InvalidStateError{Detail: "already closed"})
	assert.Equal(t, http.StatusConflict, StatusCode(err))
}

func TestPayloadShapes(t *testing.T) {
	t.Run("validation keeps fields", func(t *testing.T) {
		err := NewFieldValidation(map[string]string{"opening_fund": "must be >= 0"})
		p, ok := Payload(err).(*ValidationError)
		require.True(t, ok)
		assert.Equal(t, "must be >= 0", p.Fields["opening_fund"])
	})

	t.Run("invalid state carries session context", func(t *testing.T) {
		opened := time.Now()
		err := &InvalidStateError{Detail: "terminal has an open session", SessionID: "s-1", OpenedAt: &opened}
		p, ok := Payload(err).(*InvalidStateError)
		require.True(t, ok)
		assert.Equal(t, "s-1", p.SessionID)
		require.NotNil(t, p.OpenedAt)
	})

	t.Run("stock names product and remaining", func(t *testing.T) {
		err := &InsufficientStockError{ProductID: "p-1", ProductName: "Cerveza", Requested: 2, Available: 0}
		p, ok := Payload(err).(*InsufficientStockError)
		require.True(t, ok)
		assert.Equal(t, 0, p.Available)
		assert.Contains(t, err.Error(), "Cerveza")
	})

	t.Run("blocked lists every blocker", func(t *testing.T) {
		err := &BlockedError{OpenSessions: []Blocker{
			{TerminalName: "Caja 2", StaffName: "maria"},
			{TerminalName: "Caja 3", StaffName: "jose"},
		}}
		p, ok := Payload(err).(*BlockedError)
		require.True(t, ok)
		assert.Len(t, p.OpenSessions, 2)
		assert.Contains(t, err.Error(), "2 terminal(s)")
	})

	t.Run("transient never leaks the cause", func(t *testing.T) {
		err := NewTransient("audit sink", errors.New("connect: connection refused"))
		p, ok := Payload(err).(*APIError)
		require.True(t, ok)
		assert.NotContains(t, p.Detail, "refused")
	})

	t.Run("unknown gets the generic envelope", func(t *testing.T) {
		p, ok := Payload(errors.New("pq: deadlock detected")).(*APIError)
		require.True(t, ok)
		assert.Equal(t, "internal server error", p.Detail)
	})
}

func TestIsTransient(t *testing.T) {
	cause := errors.New("i/o timeout")
	err := NewTransient("session lookup", cause)

	assert.True(t, IsTransient(err))
	assert.True(t, IsTransient(fmt.Errorf("outer: %w", err)))
	assert.ErrorIs(t, err, cause)

	assert.False(t, IsTransient(NewValidation("nope")))
	assert.False(t, IsTransient(nil))
}
