// Package events publishes report domain events.
package events

import (
	"context"
	"time"

	"github.com/civicpulse/backend/internal/logger"
	"github.com/civicpulse/backend/internal/metrics"
)

type Type string

const (
	ReportCreated         Type = "report.created"
	ReportStatusChanged   Type = "report.status_changed"
	ReportAssigned        Type = "report.assigned"
	ReportPriorityChanged Type = "report.priority_changed"
	ReportNoteAdded       Type = "report.note_added"
	ReportCommentAdded    Type = "report.comment_added"
	ReportVoteCast        Type = "report.vote_cast"
)

type Event struct {
	Type       Type                   `json:"type"`
	ReportID   string                 `json:"reportId"`
	ActorID    string                 `json:"actorId,omitempty"`
	Data       map[string]interface{} `json:"data,omitempty"`
	OccurredAt time.Time              `json:"occurredAt"`
}

func New(t Type, reportID, actorID string, data map[string]interface{}) Event {
	return Event{
		Type:       t,
		ReportID:   reportID,
		ActorID:    actorID,
		Data:       data,
		OccurredAt: time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Emit publishes e and logs failures. Events never fail the caller.
func Emit(ctx context.Context, p Publisher, e Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, e); err != nil {
		metrics.EventPublishErrorsTotal.Inc()
		logger.WithError(err, "events").WithField("event", e.Type).Warn("Failed to publish event")
	}
}

// LogPublisher writes events to the application log. Used when no broker is configured.
type LogPublisher struct{}

func (LogPublisher) Publish(ctx context.Context, e Event) error {
	logger.WithReport(e.ReportID, "events").WithFields(map[string]interface{}{
		"event":    e.Type,
		"actor_id": e.ActorID,
		"data":     e.Data,
	}).Info("Report event")
	return nil
}

func (LogPublisher) Close() error { return nil }
