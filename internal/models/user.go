package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRole string

const (
	RoleCitizen    UserRole = "CITIZEN"
	RoleDepartment UserRole = "DEPARTMENT"
	RoleAdmin      UserRole = "ADMIN"
)

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleCitizen, RoleDepartment, RoleAdmin:
		return true
	}
	return false
}

// IsStaff is true for municipal users who may see internal notes.
func (r UserRole) IsStaff() bool {
	return r == RoleDepartment || r == RoleAdmin
}

type User struct {
	ID         string    `json:"id" gorm:"type:uuid;primaryKey"`
	Email      string    `json:"email" gorm:"uniqueIndex;not null"`
	Password   string    `json:"-" gorm:"not null"`
	FullName   string    `json:"fullName"`
	AvatarURL  *string   `json:"avatarUrl"`
	Role       UserRole  `json:"role" gorm:"not null;default:'CITIZEN'"`
	Department *string   `json:"department"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// DisplayName falls back to the email local part, then "Anonymous".
func (u *User) DisplayName() string {
	if name := strings.TrimSpace(u.FullName); name != "" {
		return name
	}
	if local, _, ok := strings.Cut(u.Email, "@"); ok && local != "" {
		return local
	}
	if u.Email != "" {
		return u.Email
	}
	return "Anonymous"
}
