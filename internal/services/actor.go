package services

import (
	"sync"

	"github.com/civicpulse/backend/internal/models"
)

// Actor is the caller of a service operation. The zero value is an anonymous visitor.
type Actor struct {
	UserID     string
	Name       string
	Role       models.UserRole
	Department string
}

func (a Actor) Authenticated() bool {
	return a.UserID != ""
}

func (a Actor) IsStaff() bool {
	return a.Authenticated() && a.Role.IsStaff()
}

func (a Actor) IsAdmin() bool {
	return a.Authenticated() && a.Role == models.RoleAdmin
}

func (a Actor) id() *string {
	if a.UserID == "" {
		return nil
	}
	id := a.UserID
	return &id
}

// requireAdmin distinguishes anonymous callers from signed-in non-admins.
func requireAdmin(a Actor) error {
	if !a.Authenticated() {
		return ErrAuthRequired
	}
	if a.Role != models.RoleAdmin {
		return ErrForbidden
	}
	return nil
}

func requireStaff(a Actor) error {
	if !a.Authenticated() {
		return ErrAuthRequired
	}
	if !a.Role.IsStaff() {
		return ErrForbidden
	}
	return nil
}

// canManage reports whether a may change r. Department users only manage
// reports assigned to their own department.
func canManage(a Actor, r *models.Report) error {
	if err := requireStaff(a); err != nil {
		return err
	}
	if a.Role == models.RoleAdmin {
		return nil
	}
	if a.Department == "" || r.Department() != a.Department {
		return ErrForbidden
	}
	return nil
}

// keyedMutex serializes writers per report id.
type keyedMutex struct {
	locks sync.Map
}

func (k *keyedMutex) Lock(key string) func() {
	m, _ := k.locks.LoadOrStore(key, &sync.Mutex{})
	mu := m.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
