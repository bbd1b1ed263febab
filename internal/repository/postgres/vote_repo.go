package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/civicpulse/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type VoteRepo struct {
	db *gorm.DB
}

func NewVoteRepo(db *gorm.DB) *VoteRepo {
	return &VoteRepo{db: db}
}

type voteTally struct {
	ReportID string
	VoteType models.VoteType
	Total    int
}

// Cast locks the caller's existing row and applies the toggle rules in one transaction.
// A concurrent first vote by the same user lands on the unique index and becomes an update.
func (r *VoteRepo) Cast(ctx context.Context, reportID, userID string, voteType models.VoteType) (models.VoteAction, error) {
	var action models.VoteAction

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Vote
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("report_id = ? AND user_id = ?", reportID, userID).
			Take(&existing).Error

		var current *models.Vote
		switch {
		case err == nil:
			current = &existing
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			return err
		}

		action = models.ResolveVote(current, voteType)
		switch action {
		case models.VoteInserted:
			vote := models.Vote{ReportID: reportID, UserID: userID, VoteType: voteType}
			return tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "report_id"}, {Name: "user_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"vote_type", "updated_at"}),
			}).Create(&vote).Error
		case models.VoteRemoved:
			return tx.Where("id = ?", existing.ID).Delete(&models.Vote{}).Error
		default:
			return tx.Model(&existing).Update("vote_type", voteType).Error
		}
	})
	if err != nil {
		return action, fmt.Errorf("failed to cast vote: %w", err)
	}
	return action, nil
}

func (r *VoteRepo) Counts(ctx context.Context, reportID, userID string) (models.VoteCounts, error) {
	counts, err := r.CountsFor(ctx, []string{reportID}, userID)
	if err != nil {
		return models.VoteCounts{}, err
	}
	return counts[reportID], nil
}

func (r *VoteRepo) CountsFor(ctx context.Context, reportIDs []string, userID string) (map[string]models.VoteCounts, error) {
	out := make(map[string]models.VoteCounts, len(reportIDs))
	if len(reportIDs) == 0 {
		return out, nil
	}
	for _, id := range reportIDs {
		out[id] = models.VoteCounts{}
	}

	var rows []voteTally
	err := r.db.WithContext(ctx).Model(&models.Vote{}).
		Select("report_id, vote_type, COUNT(*) AS total").
		Where("report_id IN ?", reportIDs).
		Group("report_id, vote_type").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count votes: %w", err)
	}

	for _, row := range rows {
		c := out[row.ReportID]
		switch row.VoteType {
		case models.VoteUp:
			c.Upvotes = row.Total
		case models.VoteDown:
			c.Downvotes = row.Total
		}
		out[row.ReportID] = c
	}

	if userID == "" {
		return out, nil
	}

	var mine []models.Vote
	err = r.db.WithContext(ctx).
		Where("report_id IN ? AND user_id = ?", reportIDs, userID).
		Find(&mine).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load user votes: %w", err)
	}
	for _, v := range mine {
		c := out[v.ReportID]
		voteType := v.VoteType
		c.UserVote = &voteType
		out[v.ReportID] = c
	}

	return out, nil
}
