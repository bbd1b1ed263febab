package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/civicpulse/backend/internal/logger"
	"github.com/civicpulse/backend/internal/middleware"
	"github.com/civicpulse/backend/internal/models"
	"github.com/civicpulse/backend/internal/services"
	"github.com/gin-gonic/gin"
)

// currentActor builds the service caller from the identity set by the auth middleware.
func currentActor(c *gin.Context) services.Actor {
	return services.Actor{
		UserID:     c.GetString(middleware.ContextUserID),
		Name:       c.GetString(middleware.ContextUserName),
		Role:       models.UserRole(c.GetString(middleware.ContextUserRole)),
		Department: c.GetString(middleware.ContextDepartment),
	}
}

// respondError maps service errors to HTTP statuses. Unexpected errors are logged
// and answered with a generic message.
func respondError(c *gin.Context, err error, component string) {
	var (
		validation *services.ValidationError
		transition *services.InvalidTransitionError
	)
	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Message, "field": validation.Field})
	case errors.As(err, &transition):
		c.JSON(http.StatusConflict, gin.H{"error": transition.Error(), "from": transition.From, "to": transition.To})
	case errors.Is(err, services.ErrAuthRequired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Report not found"})
	default:
		logger.WithError(err, component).WithFields(map[string]interface{}{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
		}).Error("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// filterFromQuery reads the listing query parameters. "all" means no filter.
func filterFromQuery(c *gin.Context, scope services.SearchScope) (services.Filter, services.SortKey, error) {
	f := services.Filter{
		Search:     services.FilterValue(c.Query("search")),
		District:   services.FilterValue(c.Query("district")),
		Category:   services.FilterValue(c.Query("category")),
		Department: services.FilterValue(c.Query("department")),
		Scope:      scope,
	}
	if v := services.FilterValue(c.Query("status")); v != "" {
		status, err := models.ParseStatus(v)
		if err != nil {
			return f, "", &services.ValidationError{Field: "status", Message: err.Error()}
		}
		f.Status = status
	}
	if v := services.FilterValue(c.Query("priority")); v != "" {
		priority, err := models.ParsePriority(strings.ToLower(v))
		if err != nil {
			return f, "", &services.ValidationError{Field: "priority", Message: err.Error()}
		}
		f.Priority = priority
	}
	key, err := services.ParseSortKey(c.Query("sort"))
	if err != nil {
		return f, "", err
	}
	return f, key, nil
}
