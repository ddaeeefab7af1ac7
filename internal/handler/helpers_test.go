package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"lunapos/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newTestContext(t *testing.T) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/v1/sessions/active", nil)
	return c, w
}

func TestRespondErrTransient(t *testing.T) {
	c, w := newTestContext(t)

	respondErr(c, apierror.NewTransient("redis ping", errors.New("dial tcp: connection refused")))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "try again")
	assert.NotContains(t, w.Body.String(), "refused", "cause stays in the log, never the response")
}

func TestRespondErrUnknown(t *testing.T) {
	c, w := newTestContext(t)

	respondErr(c, errors.New("pq: deadlock detected"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal server error")
	assert.NotContains(t, w.Body.String(), "deadlock")
}

func TestRespondErrBusiness(t *testing.T) {
	c, w := newTestContext(t)

	respondErr(c, apierror.NewValidation("counted amounts must be >= 0"))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "counted amounts")
}
