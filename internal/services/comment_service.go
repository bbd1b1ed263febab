package services

import (
	"context"
	"strings"

	"github.com/civicpulse/backend/internal/events"
	"github.com/civicpulse/backend/internal/logger"
	"github.com/civicpulse/backend/internal/metrics"
	"github.com/civicpulse/backend/internal/models"
	"github.com/civicpulse/backend/internal/repository"
)

const maxCommentLength = 2000

type CommentService struct {
	reports  *ReportService
	comments repository.CommentRepository
	events   events.Publisher
}

func NewCommentService(reports *ReportService, comments repository.CommentRepository, publisher events.Publisher) *CommentService {
	return &CommentService{reports: reports, comments: comments, events: publisher}
}

// Fetch returns the comments of a report, newest first.
func (s *CommentService) Fetch(ctx context.Context, reportID string) ([]models.Comment, error) {
	if _, err := s.reports.load(ctx, reportID); err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByReport(ctx, reportID)
	if err != nil {
		return nil, storeErr("list comments", err)
	}
	if comments == nil {
		comments = []models.Comment{}
	}
	return comments, nil
}

func (s *CommentService) Add(ctx context.Context, actor Actor, reportID, content string) (*models.Comment, error) {
	if !actor.Authenticated() {
		return nil, ErrAuthRequired
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, invalid("content", "comment cannot be empty")
	}
	if len([]rune(content)) > maxCommentLength {
		return nil, invalid("content", "comment is too long")
	}
	if _, err := s.reports.load(ctx, reportID); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(actor.Name)
	if name == "" {
		name = "Anonymous"
	}
	comment := &models.Comment{
		ReportID: reportID,
		UserID:   actor.UserID,
		UserName: name,
		Content:  content,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, storeErr("create comment", err)
	}

	metrics.CommentsAddedTotal.Inc()
	logger.WithReport(reportID, "comment_service").WithField("user_id", actor.UserID).Info("Comment added")
	events.Emit(ctx, s.events, events.New(events.ReportCommentAdded, reportID, actor.UserID, map[string]interface{}{
		"commentId": comment.ID,
	}))
	return comment, nil
}
