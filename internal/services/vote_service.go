package services

import (
	"context"

	"github.com/civicpulse/backend/internal/events"
	"github.com/civicpulse/backend/internal/logger"
	"github.com/civicpulse/backend/internal/metrics"
	"github.com/civicpulse/backend/internal/models"
	"github.com/civicpulse/backend/internal/repository"
)

type VoteService struct {
	reports *ReportService
	votes   repository.VoteRepository
	events  events.Publisher
}

func NewVoteService(reports *ReportService, votes repository.VoteRepository, publisher events.Publisher) *VoteService {
	return &VoteService{reports: reports, votes: votes, events: publisher}
}

// CastVote toggles the caller's vote and returns the new tally.
// Casting the same type twice removes the vote; the other type replaces it.
func (s *VoteService) CastVote(ctx context.Context, actor Actor, reportID, voteType string) (models.VoteCounts, error) {
	if !actor.Authenticated() {
		return models.VoteCounts{}, ErrAuthRequired
	}
	vt, err := models.ParseVoteType(voteType)
	if err != nil {
		return models.VoteCounts{}, invalid("voteType", err.Error())
	}
	if _, err := s.reports.load(ctx, reportID); err != nil {
		return models.VoteCounts{}, err
	}

	action, err := s.votes.Cast(ctx, reportID, actor.UserID, vt)
	if err != nil {
		return models.VoteCounts{}, storeErr("cast vote", err)
	}

	metrics.VotesCastTotal.WithLabelValues(string(vt), action.String()).Inc()
	logger.WithReport(reportID, "vote_service").WithFields(map[string]interface{}{
		"user_id":   actor.UserID,
		"vote_type": vt,
		"action":    action.String(),
	}).Debug("Vote cast")
	events.Emit(ctx, s.events, events.New(events.ReportVoteCast, reportID, actor.UserID, map[string]interface{}{
		"voteType": vt,
		"action":   action.String(),
	}))

	return s.Counts(ctx, actor, reportID)
}

// Counts returns the tally of a report. UserVote is nil for anonymous viewers.
func (s *VoteService) Counts(ctx context.Context, actor Actor, reportID string) (models.VoteCounts, error) {
	counts, err := s.votes.Counts(ctx, reportID, actor.UserID)
	if err != nil {
		return models.VoteCounts{}, storeErr("count votes", err)
	}
	return counts, nil
}
