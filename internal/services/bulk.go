package services

import (
	"context"
	"errors"
	"sync"

	"github.com/civicpulse/backend/internal/logger"
	"github.com/civicpulse/backend/internal/models"
)

type BulkAssignRequest struct {
	ReportIDs  []string `json:"reportIds"`
	Department string   `json:"department"`
	Priority   *string  `json:"priority"`
}

type BulkFailure struct {
	ReportID string `json:"reportId"`
	Error    string `json:"error"`
}

// BulkResult lists what was applied. No transaction spans reports, so a
// partial failure leaves the updated ones in place.
type BulkResult struct {
	Updated []string      `json:"updated"`
	Failed  []BulkFailure `json:"failed"`
}

type assignJob struct {
	index    int
	reportID string
}

// BulkAssign routes many reports to one department on a bounded worker pool.
func (s *ReportService) BulkAssign(ctx context.Context, actor Actor, req BulkAssignRequest) (*BulkResult, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if len(req.ReportIDs) == 0 {
		return nil, invalid("reportIds", "select at least one report")
	}
	if !models.IsDepartment(req.Department) {
		return nil, invalid("department", "unknown department "+req.Department)
	}
	if req.Priority != nil {
		if _, err := models.ParsePriority(*req.Priority); err != nil {
			return nil, invalid("priority", err.Error())
		}
	}

	update := AdminUpdate{AssignedDepartment: &req.Department, Priority: req.Priority}
	errs := make([]error, len(req.ReportIDs))

	jobs := make(chan assignJob)
	var wg sync.WaitGroup
	workers := s.bulkWorkers
	if workers > len(req.ReportIDs) {
		workers = len(req.ReportIDs)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				if err := ctx.Err(); err != nil {
					errs[job.index] = err
					continue
				}
				_, errs[job.index] = s.AdminUpdate(ctx, actor, job.reportID, update)
			}
		}()
	}

	for i, id := range req.ReportIDs {
		jobs <- assignJob{index: i, reportID: id}
	}
	close(jobs)
	wg.Wait()

	result := &BulkResult{Updated: []string{}, Failed: []BulkFailure{}}
	for i, id := range req.ReportIDs {
		if errs[i] == nil {
			result.Updated = append(result.Updated, id)
			continue
		}
		msg := errs[i].Error()
		if errors.Is(errs[i], ErrNotFound) {
			msg = "report not found"
		}
		result.Failed = append(result.Failed, BulkFailure{ReportID: id, Error: msg})
	}

	logger.WithContext(map[string]interface{}{
		"actor_id":   actor.UserID,
		"department": req.Department,
		"updated":    len(result.Updated),
		"failed":     len(result.Failed),
		"workers":    workers,
	}).Info("Bulk assignment finished")
	return result, nil
}
