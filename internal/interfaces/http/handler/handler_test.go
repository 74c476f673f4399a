package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/flechaamarilla/mdm/internal/domain/shared"
	"github.com/flechaamarilla/mdm/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockPinger struct {
	mock.Mock
}

func (m *mockPinger) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func TestStringifyRecord(t *testing.T) {
	var in map[string]any
	require.NoError(t, json.Unmarshal([]byte(`{
		"rfc": "XAXX010101000",
		"regimen": 601,
		"price": 12.50,
		"active": true,
		"notes": null,
		"tags": ["a", "b"]
	}`), &in))

	out := stringifyRecord(in)

	assert.Equal(t, map[string]string{
		"rfc":     "XAXX010101000",
		"regimen": "601",
		"price":   "12.5",
		"active":  "true",
		"notes":   "",
		"tags":    `["a","b"]`,
	}, out)
}

func TestHealth(t *testing.T) {
	t.Run("database reachable", func(t *testing.T) {
		db := new(mockPinger)
		db.On("Ping", mock.Anything).Return(nil)
		engine := gin.New()
		engine.GET("/health", NewHealthHandler(db).Health)

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		db.AssertExpectations(t)
	})

	t.Run("database down", func(t *testing.T) {
		db := new(mockPinger)
		db.On("Ping", mock.Anything).Return(errors.New("connection refused"))
		engine := gin.New()
		engine.GET("/health", NewHealthHandler(db).Health)

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		var resp struct {
			Data HealthResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "degraded", resp.Data.Status)
		assert.Equal(t, "down", resp.Data.Database)
	})
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{"domain not found", shared.ErrNotFound, http.StatusNotFound, dto.CodeNotFound},
		{"domain conflict", shared.ErrConcurrencyConflict, http.StatusConflict, dto.CodeConcurrencyConflict},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, dto.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var h BaseHandler
			engine := gin.New()
			engine.GET("/", func(c *gin.Context) { h.HandleError(c, tt.err) })

			w := httptest.NewRecorder()
			engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, tt.wantCode, w.Code)
			var resp dto.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			assert.Equal(t, tt.wantErr, resp.Error.Code)
		})
	}
}
