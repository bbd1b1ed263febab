package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ActivityType string

const (
	ActivityStatusChange   ActivityType = "STATUS_CHANGE"
	ActivityPriorityChange ActivityType = "PRIORITY_CHANGE"
	ActivityAssignment     ActivityType = "ASSIGNMENT"
	ActivityNote           ActivityType = "NOTE"
)

// ReportActivity is the staff audit trail of a report.
type ReportActivity struct {
	ID        string       `json:"id" gorm:"type:uuid;primaryKey"`
	ReportID  string       `json:"reportId" gorm:"type:uuid;not null;index"`
	ActorID   *string      `json:"actorId" gorm:"type:uuid"`
	Type      ActivityType `json:"type" gorm:"not null"`
	Content   string       `json:"content" gorm:"type:text;not null"`
	CreatedAt time.Time    `json:"createdAt"`
}

func (ReportActivity) TableName() string {
	return "report_activities"
}

func (a *ReportActivity) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
