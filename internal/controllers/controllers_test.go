package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/civicpulse/backend/internal/db"
	"github.com/civicpulse/backend/internal/middleware"
	"github.com/civicpulse/backend/internal/models"
	"github.com/civicpulse/backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestHealthPostgres(t *testing.T) {
	sqlDB, _, err := sqlmock.New()
	require.NoError(t, err)
	conn, err := db.Open(postgres.New(postgres.Config{Conn: sqlDB}))
	require.NoError(t, err)

	r := gin.New()
	r.GET("/health", NewHealthController(conn, "postgres").Health)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Status   string `json:"status"`
		Version  string `json:"version"`
		Services struct {
			Database map[string]string `json:"database"`
		} `json:"services"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "1.0.0", body.Version)
	assert.Equal(t, "postgres", body.Services.Database["driver"])

	sqlDB.Close()
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "database is closed")
}

func TestHealthWithoutDatabase(t *testing.T) {
	r := gin.New()
	r.GET("/health", NewHealthController(nil, "postgres").Health)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "not initialized")
}

func TestRespondError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"validation", &services.ValidationError{Field: "title", Message: "title is required"}, http.StatusBadRequest},
		{"transition", &services.InvalidTransitionError{From: models.StatusSubmitted, To: models.StatusResolved}, http.StatusConflict},
		{"auth", services.ErrAuthRequired, http.StatusUnauthorized},
		{"forbidden", fmt.Errorf("wrapped: %w", services.ErrForbidden), http.StatusForbidden},
		{"not found", services.ErrNotFound, http.StatusNotFound},
		{"store", errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)

			respondError(c, tc.err, "test")
			assert.Equal(t, tc.code, w.Code)
			if tc.code == http.StatusInternalServerError {
				assert.NotContains(t, w.Body.String(), "connection reset")
			}
		})
	}
}

func TestFilterFromQuery(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/reports?search=lamp&district=all&status=in-progress&priority=HIGH&sort=votes", nil)

	f, key, err := filterFromQuery(c, services.ScopeAdmin)
	require.NoError(t, err)
	assert.Equal(t, "lamp", f.Search)
	assert.Empty(t, f.District)
	assert.Equal(t, models.StatusInProgress, f.Status)
	assert.Equal(t, models.PriorityHigh, f.Priority)
	assert.Equal(t, services.ScopeAdmin, f.Scope)
	assert.Equal(t, services.SortVotes, key)

	// gin caches the parsed query per context
	c, _ = gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/reports?priority=urgent", nil)
	_, _, err = filterFromQuery(c, services.ScopePublic)
	var verr *services.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "priority", verr.Field)
}

func TestCurrentActor(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	assert.False(t, currentActor(c).Authenticated())

	c.Set(middleware.ContextUserID, "u-1")
	c.Set(middleware.ContextUserName, "Meera")
	c.Set(middleware.ContextUserRole, string(models.RoleDepartment))
	c.Set(middleware.ContextDepartment, "Public Works")

	actor := currentActor(c)
	assert.Equal(t, "u-1", actor.UserID)
	assert.True(t, actor.IsStaff())
	assert.Equal(t, "Public Works", actor.Department)
}
