package repository

import (
	"context"
	"errors"

	"github.com/civicpulse/backend/internal/models"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record already exists")
)

type ReportRepository interface {
	// List returns every report, newest first.
	List(ctx context.Context) ([]models.Report, error)
	Get(ctx context.Context, id string) (*models.Report, error)
	Create(ctx context.Context, r *models.Report) error
	Save(ctx context.Context, r *models.Report) error
	// AppendNote appends to public or internal notes in one statement and returns the updated row.
	AppendNote(ctx context.Context, id, note string, public bool) (*models.Report, error)
	AddActivity(ctx context.Context, a *models.ReportActivity) error
	ListActivity(ctx context.Context, reportID string) ([]models.ReportActivity, error)
}

type VoteRepository interface {
	// Cast applies models.ResolveVote atomically for the (report, user) pair.
	Cast(ctx context.Context, reportID, userID string, voteType models.VoteType) (models.VoteAction, error)
	Counts(ctx context.Context, reportID, userID string) (models.VoteCounts, error)
	CountsFor(ctx context.Context, reportIDs []string, userID string) (map[string]models.VoteCounts, error)
}

type CommentRepository interface {
	// ListByReport returns comments newest first.
	ListByReport(ctx context.Context, reportID string) ([]models.Comment, error)
	Create(ctx context.Context, c *models.Comment) error
}

type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, u *models.User) error
	List(ctx context.Context, search string, offset, limit int) ([]models.User, int64, error)
}

// Store bundles the repositories a running server needs.
type Store struct {
	Reports  ReportRepository
	Votes    VoteRepository
	Comments CommentRepository
	Users    UserRepository
}
