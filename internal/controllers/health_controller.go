package controllers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const version = "1.0.0"

type HealthController struct {
	db          *gorm.DB
	storeDriver string
}

// NewHealthController checks db when the server runs on Postgres; db may be nil for the memory store.
func NewHealthController(db *gorm.DB, storeDriver string) *HealthController {
	return &HealthController{db: db, storeDriver: storeDriver}
}

func (hc *HealthController) Health(c *gin.Context) {
	dbStatus, dbError := hc.checkDatabase(c.Request.Context())

	overallStatus := "ok"
	statusCode := http.StatusOK
	if dbStatus != "ok" {
		overallStatus = "error"
		statusCode = http.StatusServiceUnavailable
	}

	database := gin.H{"status": dbStatus, "driver": hc.storeDriver}
	if dbError != nil {
		database["error"] = dbError.Error()
	}

	c.JSON(statusCode, gin.H{
		"status":    overallStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   version,
		"services": gin.H{
			"database": database,
		},
	})
}

func (hc *HealthController) checkDatabase(ctx context.Context) (string, error) {
	if hc.storeDriver == "memory" {
		return "ok", nil
	}
	if hc.db == nil {
		return "error", fmt.Errorf("database connection not initialized")
	}
	sqlDB, err := hc.db.DB()
	if err != nil {
		return "error", err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return "error", err
	}
	return "ok", nil
}
