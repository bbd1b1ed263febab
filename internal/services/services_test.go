package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/civicpulse/backend/internal/events"
	"github.com/civicpulse/backend/internal/models"
	"github.com/civicpulse/backend/internal/repository"
	"github.com/civicpulse/backend/internal/repository/memory"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type fixture struct {
	store     *repository.Store
	reports   *ReportService
	votes     *VoteService
	comments  *CommentService
	publisher *recordingPublisher
	now       time.Time
}

var (
	citizen     = Actor{UserID: "citizen-1", Name: "Asha Citizen", Role: models.RoleCitizen}
	otherUser   = Actor{UserID: "citizen-2", Name: "Ravi", Role: models.RoleCitizen}
	admin       = Actor{UserID: "admin-1", Name: "Admin", Role: models.RoleAdmin}
	publicWorks = Actor{UserID: "dept-1", Name: "PW Desk", Role: models.RoleDepartment, Department: "Public Works"}
	waterDept   = Actor{UserID: "dept-2", Name: "Water Desk", Role: models.RoleDepartment, Department: "Water Department"}
	anonymous   = Actor{}
)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:     memory.NewStore(),
		publisher: &recordingPublisher{},
		now:       time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	}
	f.reports = NewReportService(f.store, f.publisher, time.Minute, 3)
	f.reports.SetClock(func() time.Time { return f.now })
	f.votes = NewVoteService(f.reports, f.store.Votes, f.publisher)
	f.comments = NewCommentService(f.reports, f.store.Comments, f.publisher)
	return f
}

func (f *fixture) submit(t *testing.T, actor Actor, title string) *models.Report {
	t.Helper()
	r, err := f.reports.Create(context.Background(), actor, CreateReportInput{
		Title:       title,
		Description: "Needs attention",
		Category:    "Roads",
	})
	require.NoError(t, err)
	return r
}

func (f *fixture) assign(t *testing.T, id, dept string) {
	t.Helper()
	_, err := f.reports.AdminUpdate(context.Background(), admin, id, AdminUpdate{AssignedDepartment: &dept})
	require.NoError(t, err)
}
