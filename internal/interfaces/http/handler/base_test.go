package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arledger/backend/internal/domain/shared"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func TestHandleErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", shared.ErrNotFound, http.StatusNotFound, "ERR_NOT_FOUND"},
		{"already exists", shared.ErrAlreadyExists, http.StatusConflict, "ERR_ALREADY_EXISTS"},
		{"concurrency conflict", shared.ErrConcurrencyConflict, http.StatusConflict, "ERR_CONCURRENCY_CONFLICT"},
		{"invalid state", shared.ErrInvalidState, http.StatusUnprocessableEntity, "ERR_INVALID_STATE"},
		{"invalid input", shared.ErrInvalidInput, http.StatusBadRequest, "ERR_INVALID_INPUT"},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError, "ERR_INTERNAL"},
	}

	h := &BaseHandler{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestContext()
			h.HandleError(c, tt.err)
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.code)
		})
	}
}

func TestHandleErrorNilIsNoop(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext()
	h.HandleError(c, nil)
	assert.Empty(t, w.Body.String())
}

func TestHandleErrorCarriesRequestID(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext()
	c.Set("request_id", "req-55")
	h.HandleError(c, shared.ErrNotFound)
	assert.Contains(t, w.Body.String(), "req-55")
}

func TestGetTenantID(t *testing.T) {
	t.Run("header wins over dev default", func(t *testing.T) {
		c, _ := newTestContext()
		c.Request.Header.Set("X-Tenant-ID", "33333333-3333-3333-3333-333333333333")
		id, err := getTenantID(c)
		require.NoError(t, err)
		assert.Equal(t, "33333333-3333-3333-3333-333333333333", id.String())
	})

	t.Run("falls back to development tenant", func(t *testing.T) {
		c, _ := newTestContext()
		id, err := getTenantID(c)
		require.NoError(t, err)
		assert.Equal(t, "00000000-0000-0000-0000-000000000001", id.String())
	})

	t.Run("malformed header rejected", func(t *testing.T) {
		c, _ := newTestContext()
		c.Request.Header.Set("X-Tenant-ID", "not-a-uuid")
		_, err := getTenantID(c)
		assert.Error(t, err)
	})
}
