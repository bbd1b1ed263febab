package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VoteType string

const (
	VoteUp   VoteType = "upvote"
	VoteDown VoteType = "downvote"
)

func (t VoteType) Valid() bool {
	return t == VoteUp || t == VoteDown
}

func ParseVoteType(v string) (VoteType, error) {
	t := VoteType(v)
	if !t.Valid() {
		return "", fmt.Errorf("unknown vote type %q", v)
	}
	return t, nil
}

type Vote struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey"`
	ReportID  string    `json:"reportId" gorm:"type:uuid;not null;uniqueIndex:idx_report_votes_report_user"`
	UserID    string    `json:"userId" gorm:"type:uuid;not null;uniqueIndex:idx_report_votes_report_user"`
	VoteType  VoteType  `json:"voteType" gorm:"not null"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Vote) TableName() string {
	return "report_votes"
}

func (v *Vote) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}

// VoteAction is what a cast does to the (report, user) row.
type VoteAction int

const (
	VoteInserted VoteAction = iota
	VoteRemoved
	VoteChanged
)

func (a VoteAction) String() string {
	switch a {
	case VoteInserted:
		return "inserted"
	case VoteRemoved:
		return "removed"
	case VoteChanged:
		return "changed"
	}
	return "unknown"
}

// ResolveVote decides the row change for casting cast over existing (nil when absent).
// Same type toggles the vote off; the opposite type replaces it.
func ResolveVote(existing *Vote, cast VoteType) VoteAction {
	switch {
	case existing == nil:
		return VoteInserted
	case existing.VoteType == cast:
		return VoteRemoved
	default:
		return VoteChanged
	}
}

type VoteCounts struct {
	Upvotes   int       `json:"upvotes"`
	Downvotes int       `json:"downvotes"`
	UserVote  *VoteType `json:"userVote"`
}

func (c VoteCounts) Net() int {
	return c.Upvotes - c.Downvotes
}
