package services

import (
	"time"

	"github.com/civicpulse/backend/internal/models"
)

// Transition moves r one step forward in the workflow and stamps the reached-at time.
// Requesting the current status again is a no-op. changed reports whether r was modified.
func Transition(r *models.Report, to models.ReportStatus, now time.Time) (changed bool, err error) {
	if !to.Valid() {
		return false, invalid("status", "unknown status "+string(to))
	}
	if r.Status == to {
		return false, nil
	}
	next, ok := r.Status.Next()
	if !ok || next != to {
		return false, &InvalidTransitionError{From: r.Status, To: to}
	}
	r.Status = to
	markReached(r, to, now)
	return true, nil
}

// Override sets any valid status, as administrators may. Timestamps already
// recorded are kept, so moving backwards never clears them.
func Override(r *models.Report, to models.ReportStatus, now time.Time) (changed bool, err error) {
	if !to.Valid() {
		return false, invalid("status", "unknown status "+string(to))
	}
	if r.Status == to {
		return false, nil
	}
	r.Status = to
	markReached(r, to, now)
	return true, nil
}

func markReached(r *models.Report, s models.ReportStatus, now time.Time) {
	field := r.ReachedAt(s)
	if field == nil || *field != nil {
		return
	}
	t := now
	*field = &t
}
