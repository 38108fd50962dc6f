package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/emilythestrangee/stackoverflow-clone/backend/internal/engine"
)

func TestRespondEngineError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name string
		err  error
		code int
	}{
		{"self vote", engine.ErrSelfVote, http.StatusBadRequest},
		{"wrapped self vote", errors.Join(engine.ErrSelfVote), http.StatusBadRequest},
		{"not found", engine.ErrNotFound, http.StatusNotFound},
		{"forbidden", engine.ErrForbidden, http.StatusForbidden},
		{"conflict", engine.ErrConflict, http.StatusConflict},
		{"unavailable", engine.ErrUnavailable, http.StatusServiceUnavailable},
		{"consistency violation", engine.ErrConsistency, http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			respondEngineError(c, tt.err)
			assert.Equal(t, tt.code, w.Code)
		})
	}
}

func TestExtractUserID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("missing", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		_, ok := extractUserID(c)
		assert.False(t, ok)
	})

	t.Run("int", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Set("user_id", 7)
		id, ok := extractUserID(c)
		assert.True(t, ok)
		assert.Equal(t, 7, id)
	})

	t.Run("float from token claims", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Set("user_id", float64(7))
		id, ok := extractUserID(c)
		assert.True(t, ok)
		assert.Equal(t, 7, id)
	})
}
