package controllers

import (
	"net/http"

	"github.com/civicpulse/backend/internal/services"
	"github.com/gin-gonic/gin"
)

type DepartmentController struct {
	reports *services.ReportService
}

func NewDepartmentController(reports *services.ReportService) *DepartmentController {
	return &DepartmentController{reports: reports}
}

type TransitionRequest struct {
	Status string `json:"status" binding:"required"`
}

type ResolveRequest struct {
	Note string `json:"note"`
}

type NoteRequest struct {
	Note   string `json:"note"`
	Public bool   `json:"public"`
}

// ListReports returns the caller's department queue.
func (dc *DepartmentController) ListReports(c *gin.Context) {
	f, key, err := filterFromQuery(c, services.ScopePublic)
	if err != nil {
		respondError(c, err, "department_controller")
		return
	}

	reports, err := dc.reports.ListForDepartment(c.Request.Context(), currentActor(c), f, key)
	if err != nil {
		respondError(c, err, "department_controller")
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports, "total": len(reports)})
}

func (dc *DepartmentController) Transition(c *gin.Context) {
	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := dc.reports.Transition(c.Request.Context(), currentActor(c), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err, "department_controller")
		return
	}
	c.JSON(http.StatusOK, report)
}

func (dc *DepartmentController) Resolve(c *gin.Context) {
	var req ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := dc.reports.Resolve(c.Request.Context(), currentActor(c), c.Param("id"), req.Note)
	if err != nil {
		respondError(c, err, "department_controller")
		return
	}
	c.JSON(http.StatusOK, report)
}

func (dc *DepartmentController) AddNote(c *gin.Context) {
	var req NoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := dc.reports.AddNote(c.Request.Context(), currentActor(c), c.Param("id"), req.Note, req.Public)
	if err != nil {
		respondError(c, err, "department_controller")
		return
	}
	c.JSON(http.StatusOK, report)
}
