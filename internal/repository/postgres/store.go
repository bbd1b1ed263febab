package postgres

import (
	"github.com/civicpulse/backend/internal/repository"
	"gorm.io/gorm"
)

// NewStore builds the Postgres-backed repositories over one connection pool.
func NewStore(db *gorm.DB) *repository.Store {
	return &repository.Store{
		Reports:  NewReportRepo(db),
		Votes:    NewVoteRepo(db),
		Comments: NewCommentRepo(db),
		Users:    NewUserRepo(db),
	}
}
