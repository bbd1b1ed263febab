package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

type ReportStatus string
type ReportPriority string

const (
	StatusSubmitted    ReportStatus = "submitted"
	StatusAcknowledged ReportStatus = "acknowledged"
	StatusInProgress   ReportStatus = "in-progress"
	StatusResolved     ReportStatus = "resolved"
)

const (
	PriorityLow    ReportPriority = "low"
	PriorityMedium ReportPriority = "medium"
	PriorityHigh   ReportPriority = "high"
)

// Statuses lists the workflow in order.
var Statuses = []ReportStatus{StatusSubmitted, StatusAcknowledged, StatusInProgress, StatusResolved}

var Priorities = []ReportPriority{PriorityLow, PriorityMedium, PriorityHigh}

// Index is the position of s in the workflow, or -1 for an unknown status.
func (s ReportStatus) Index() int {
	for i, v := range Statuses {
		if v == s {
			return i
		}
	}
	return -1
}

func (s ReportStatus) Valid() bool {
	return s.Index() >= 0
}

// Next returns the status that follows s. ok is false for resolved and unknown values.
func (s ReportStatus) Next() (next ReportStatus, ok bool) {
	i := s.Index()
	if i < 0 || i == len(Statuses)-1 {
		return "", false
	}
	return Statuses[i+1], true
}

func ParseStatus(v string) (ReportStatus, error) {
	s := ReportStatus(v)
	if !s.Valid() {
		return "", fmt.Errorf("unknown status %q", v)
	}
	return s, nil
}

// Rank orders priorities high=3, medium=2, low=1; unknown values rank 0.
func (p ReportPriority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

func (p ReportPriority) Valid() bool {
	return p.Rank() > 0
}

func ParsePriority(v string) (ReportPriority, error) {
	p := ReportPriority(v)
	if !p.Valid() {
		return "", fmt.Errorf("unknown priority %q", v)
	}
	return p, nil
}

type Report struct {
	ID                 string         `json:"id" gorm:"type:uuid;primaryKey"`
	Title              string         `json:"title" gorm:"not null"`
	Description        string         `json:"description" gorm:"type:text;not null"`
	Category           string         `json:"category" gorm:"not null;index"`
	Status             ReportStatus   `json:"status" gorm:"not null;default:'submitted';index"`
	Priority           ReportPriority `json:"priority" gorm:"not null;default:'medium'"`
	LocationAddress    *string        `json:"locationAddress"`
	LocationLat        *float64       `json:"locationLat"`
	LocationLng        *float64       `json:"locationLng"`
	MediaURLs          pq.StringArray `json:"mediaUrls" gorm:"type:text[]"`
	UserID             *string        `json:"userId" gorm:"type:uuid;index"`
	CitizenName        *string        `json:"citizenName"`
	AssignedDepartment *string        `json:"assignedDepartment" gorm:"index"`
	PublicNotes        pq.StringArray `json:"publicNotes" gorm:"type:text[]"`
	InternalNotes      pq.StringArray `json:"internalNotes,omitempty" gorm:"type:text[]"`
	CreatedAt          time.Time      `json:"createdAt"`
	UpdatedAt          time.Time      `json:"updatedAt"`
	AcknowledgedAt     *time.Time     `json:"acknowledgedAt"`
	InProgressAt       *time.Time     `json:"inProgressAt"`
	ResolvedAt         *time.Time     `json:"resolvedAt"`
}

func (Report) TableName() string {
	return "civic_reports"
}

func (r *Report) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// ReachedAt returns the timestamp field recorded for status s.
// Submitted has no field of its own; createdAt covers it.
func (r *Report) ReachedAt(s ReportStatus) **time.Time {
	switch s {
	case StatusAcknowledged:
		return &r.AcknowledgedAt
	case StatusInProgress:
		return &r.InProgressAt
	case StatusResolved:
		return &r.ResolvedAt
	}
	return nil
}

func (r *Report) Department() string {
	if r.AssignedDepartment == nil {
		return ""
	}
	return *r.AssignedDepartment
}

func (r *Report) Address() string {
	if r.LocationAddress == nil {
		return ""
	}
	return *r.LocationAddress
}

func (r *Report) HasCoordinates() bool {
	return r.LocationLat != nil && r.LocationLng != nil
}

// Clone deep-copies the slices and pointers so the copy can be mutated freely.
func (r Report) Clone() Report {
	out := r
	out.MediaURLs = cloneStrings(r.MediaURLs)
	out.PublicNotes = cloneStrings(r.PublicNotes)
	out.InternalNotes = cloneStrings(r.InternalNotes)
	out.LocationAddress = clonePtr(r.LocationAddress)
	out.LocationLat = clonePtr(r.LocationLat)
	out.LocationLng = clonePtr(r.LocationLng)
	out.UserID = clonePtr(r.UserID)
	out.CitizenName = clonePtr(r.CitizenName)
	out.AssignedDepartment = clonePtr(r.AssignedDepartment)
	out.AcknowledgedAt = clonePtr(r.AcknowledgedAt)
	out.InProgressAt = clonePtr(r.InProgressAt)
	out.ResolvedAt = clonePtr(r.ResolvedAt)
	return out
}

// ForPublic drops staff-only fields.
func (r Report) ForPublic() Report {
	out := r.Clone()
	out.InternalNotes = nil
	return out
}

// ReportView is a report decorated with its vote tally for listings.
type ReportView struct {
	Report
	Upvotes   int       `json:"upvotes"`
	Downvotes int       `json:"downvotes"`
	UserVote  *VoteType `json:"userVote"`
}

func (v ReportView) NetVotes() int {
	return v.Upvotes - v.Downvotes
}

func cloneStrings(in pq.StringArray) pq.StringArray {
	if in == nil {
		return nil
	}
	out := make(pq.StringArray, len(in))
	copy(out, in)
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
