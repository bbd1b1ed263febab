package controllers

import (
	"bytes"
	"net/http"
	"time"

	"github.com/civicpulse/backend/internal/services"
	"github.com/gin-gonic/gin"
)

type AdminController struct {
	reports *services.ReportService
}

func NewAdminController(reports *services.ReportService) *AdminController {
	return &AdminController{reports: reports}
}

// ListReports searches title, id and citizen name instead of the public fields.
func (ac *AdminController) ListReports(c *gin.Context) {
	f, key, err := filterFromQuery(c, services.ScopeAdmin)
	if err != nil {
		respondError(c, err, "admin_controller")
		return
	}

	reports, err := ac.reports.List(c.Request.Context(), currentActor(c), f, key)
	if err != nil {
		respondError(c, err, "admin_controller")
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports, "total": len(reports)})
}

func (ac *AdminController) Assignable(c *gin.Context) {
	reports, err := ac.reports.Assignable(c.Request.Context(), currentActor(c))
	if err != nil {
		respondError(c, err, "admin_controller")
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports, "total": len(reports)})
}

func (ac *AdminController) Export(c *gin.Context) {
	f, _, err := filterFromQuery(c, services.ScopeAdmin)
	if err != nil {
		respondError(c, err, "admin_controller")
		return
	}

	var buf bytes.Buffer
	if err := ac.reports.ExportCSV(c.Request.Context(), currentActor(c), f, &buf); err != nil {
		respondError(c, err, "admin_controller")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+services.ExportFilename(time.Now())+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (ac *AdminController) Activity(c *gin.Context) {
	activity, err := ac.reports.Activity(c.Request.Context(), currentActor(c), c.Param("id"))
	if err != nil {
		respondError(c, err, "admin_controller")
		return
	}
	c.JSON(http.StatusOK, gin.H{"activity": activity})
}

func (ac *AdminController) UpdateReport(c *gin.Context) {
	var req services.AdminUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := ac.reports.AdminUpdate(c.Request.Context(), currentActor(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err, "admin_controller")
		return
	}
	c.JSON(http.StatusOK, report)
}

func (ac *AdminController) AddNote(c *gin.Context) {
	var req NoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := ac.reports.AddNote(c.Request.Context(), currentActor(c), c.Param("id"), req.Note, req.Public)
	if err != nil {
		respondError(c, err, "admin_controller")
		return
	}
	c.JSON(http.StatusOK, report)
}

func (ac *AdminController) BulkAssign(c *gin.Context) {
	var req services.BulkAssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := ac.reports.BulkAssign(c.Request.Context(), currentActor(c), req)
	if err != nil {
		respondError(c, err, "admin_controller")
		return
	}

	status := http.StatusOK
	if len(result.Failed) > 0 {
		status = http.StatusMultiStatus
	}
	c.JSON(status, result)
}

func (ac *AdminController) Analytics(c *gin.Context) {
	analytics, err := ac.reports.Analytics(c.Request.Context(), currentActor(c))
	if err != nil {
		respondError(c, err, "admin_controller")
		return
	}
	c.JSON(http.StatusOK, analytics)
}
