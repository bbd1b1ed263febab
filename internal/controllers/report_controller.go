package controllers

import (
	"net/http"
	"strconv"

	"github.com/civicpulse/backend/internal/models"
	"github.com/civicpulse/backend/internal/services"
	"github.com/gin-gonic/gin"
)

const defaultTopLimit = 5

type ReportController struct {
	reports *services.ReportService
}

func NewReportController(reports *services.ReportService) *ReportController {
	return &ReportController{reports: reports}
}

// Meta returns the fixed catalogs the client builds its forms from.
func (rc *ReportController) Meta(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"categories":  models.Categories,
		"departments": models.Departments,
		"districts":   models.Districts,
		"statuses":    models.Statuses,
		"priorities":  models.Priorities,
	})
}

func (rc *ReportController) ListReports(c *gin.Context) {
	f, key, err := filterFromQuery(c, services.ScopePublic)
	if err != nil {
		respondError(c, err, "report_controller")
		return
	}

	reports, err := rc.reports.List(c.Request.Context(), currentActor(c), f, key)
	if err != nil {
		respondError(c, err, "report_controller")
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports, "total": len(reports)})
}

func (rc *ReportController) TopReports(c *gin.Context) {
	f, _, err := filterFromQuery(c, services.ScopePublic)
	if err != nil {
		respondError(c, err, "report_controller")
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultTopLimit)))
	if err != nil || limit < 1 {
		limit = defaultTopLimit
	}

	reports, err := rc.reports.TopVoted(c.Request.Context(), currentActor(c), f, limit)
	if err != nil {
		respondError(c, err, "report_controller")
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

// MapReports answers a GeoJSON FeatureCollection of the located reports.
func (rc *ReportController) MapReports(c *gin.Context) {
	f, _, err := filterFromQuery(c, services.ScopePublic)
	if err != nil {
		respondError(c, err, "report_controller")
		return
	}

	fc, err := rc.reports.Map(c.Request.Context(), currentActor(c), f)
	if err != nil {
		respondError(c, err, "report_controller")
		return
	}
	c.Header("Content-Type", "application/geo+json")
	c.JSON(http.StatusOK, fc)
}

func (rc *ReportController) GetReport(c *gin.Context) {
	report, err := rc.reports.Get(c.Request.Context(), currentActor(c), c.Param("id"))
	if err != nil {
		respondError(c, err, "report_controller")
		return
	}
	c.JSON(http.StatusOK, report)
}

func (rc *ReportController) CreateReport(c *gin.Context) {
	var req services.CreateReportInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := rc.reports.Create(c.Request.Context(), currentActor(c), req)
	if err != nil {
		respondError(c, err, "report_controller")
		return
	}
	c.JSON(http.StatusCreated, report.ForPublic())
}

func (rc *ReportController) MyReports(c *gin.Context) {
	key, err := services.ParseSortKey(c.Query("sort"))
	if err != nil {
		respondError(c, err, "report_controller")
		return
	}

	reports, err := rc.reports.ListMine(c.Request.Context(), currentActor(c), key)
	if err != nil {
		respondError(c, err, "report_controller")
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports, "total": len(reports)})
}
