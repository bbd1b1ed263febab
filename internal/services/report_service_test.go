package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/civicpulse/backend/internal/events"
	"github.com/civicpulse/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestCreateReportDefaults(t *testing.T) {
	f := newFixture(t)
	lat, lng := 13.08, 80.27

	r, err := f.reports.Create(context.Background(), citizen, CreateReportInput{
		Title:           "  Pothole on Mount Road ",
		Description:     "Deep pothole",
		Category:        "Roads",
		LocationAddress: strPtr("Mount Road, Chennai"),
		LocationLat:     &lat,
		LocationLng:     &lng,
		MediaURLs:       []string{"http://x/a.png", "  "},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, r.ID)
	assert.Equal(t, "Pothole on Mount Road", r.Title)
	assert.Equal(t, models.StatusSubmitted, r.Status)
	assert.Equal(t, models.PriorityMedium, r.Priority)
	require.NotNil(t, r.UserID)
	assert.Equal(t, citizen.UserID, *r.UserID)
	require.NotNil(t, r.CitizenName)
	assert.Equal(t, "Asha Citizen", *r.CitizenName)
	assert.Equal(t, []string{"http://x/a.png"}, []string(r.MediaURLs))
	assert.Nil(t, r.AcknowledgedAt)
	assert.Contains(t, f.publisher.types(), events.ReportCreated)
}

func TestCreateReportAnonymous(t *testing.T) {
	f := newFixture(t)
	r, err := f.reports.Create(context.Background(), anonymous, CreateReportInput{
		Title: "Overflowing bin", Description: "Near the market", Category: "Waste Management",
	})
	require.NoError(t, err)
	assert.Nil(t, r.UserID)
	assert.Nil(t, r.CitizenName)
}

func TestCreateReportValidation(t *testing.T) {
	f := newFixture(t)
	lat, badLng := 10.0, 200.0
	cases := map[string]CreateReportInput{
		"title":       {Title: "  ", Description: "d", Category: "Roads"},
		"description": {Title: "t", Description: "", Category: "Roads"},
		"category":    {Title: "t", Description: "d", Category: "Spaceships"},
		"location":    {Title: "t", Description: "d", Category: "Roads", LocationLat: &lat},
		"locationLng": {Title: "t", Description: "d", Category: "Roads", LocationLat: &lat, LocationLng: &badLng},
	}
	for field, in := range cases {
		_, err := f.reports.Create(context.Background(), citizen, in)
		var ve *ValidationError
		require.ErrorAs(t, err, &ve, field)
		assert.Equal(t, field, ve.Field)
	}
}

func TestDepartmentTransitionPath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.submit(t, citizen, "Broken pipe")
	f.assign(t, r.ID, "Public Works")

	_, err := f.reports.Transition(ctx, waterDept, r.ID, "acknowledged")
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.reports.Transition(ctx, citizen, r.ID, "acknowledged")
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.reports.Transition(ctx, anonymous, r.ID, "acknowledged")
	assert.ErrorIs(t, err, ErrAuthRequired)

	updated, err := f.reports.Transition(ctx, publicWorks, r.ID, "acknowledged")
	require.NoError(t, err)
	assert.Equal(t, models.StatusAcknowledged, updated.Status)
	require.NotNil(t, updated.AcknowledgedAt)
	assert.Equal(t, f.now, *updated.AcknowledgedAt)

	again, err := f.reports.Transition(ctx, publicWorks, r.ID, "acknowledged")
	require.NoError(t, err)
	assert.Equal(t, f.now, *again.AcknowledgedAt)

	_, err = f.reports.Transition(ctx, publicWorks, r.ID, "resolved")
	var te *InvalidTransitionError
	require.ErrorAs(t, err, &te)

	_, err = f.reports.Transition(ctx, publicWorks, "missing", "acknowledged")
	assert.ErrorIs(t, err, ErrNotFound)

	view, err := f.reports.Get(ctx, citizen, r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAcknowledged, view.Status, "cache is patched after the mutation")
}

func TestResolveRequiresNoteAndPublishesIt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.submit(t, citizen, "Leaking hydrant")
	f.assign(t, r.ID, "Public Works")

	_, err := f.reports.Transition(ctx, publicWorks, r.ID, "acknowledged")
	require.NoError(t, err)
	_, err = f.reports.Transition(ctx, publicWorks, r.ID, "in-progress")
	require.NoError(t, err)

	_, err = f.reports.Resolve(ctx, publicWorks, r.ID, "   ")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)

	resolved, err := f.reports.Resolve(ctx, publicWorks, r.ID, "Valve replaced")
	require.NoError(t, err)
	assert.Equal(t, models.StatusResolved, resolved.Status)
	require.NotNil(t, resolved.ResolvedAt)
	assert.Equal(t, []string{"Issue Resolved: Valve replaced"}, []string(resolved.PublicNotes))
}

func TestResolveTwiceIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.submit(t, citizen, "Blocked drain")
	f.assign(t, r.ID, "Public Works")

	for _, status := range []string{"acknowledged", "in-progress"} {
		_, err := f.reports.Transition(ctx, publicWorks, r.ID, status)
		require.NoError(t, err)
	}
	_, err := f.reports.Resolve(ctx, publicWorks, r.ID, "first")
	require.NoError(t, err)

	_, err = f.reports.Resolve(ctx, publicWorks, r.ID, "second")
	var te *InvalidTransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, models.StatusResolved, te.From)

	stored, err := f.store.Reports.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Issue Resolved: first"}, []string(stored.PublicNotes))
}

func TestAddNoteVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.submit(t, citizen, "Fallen tree")

	_, err := f.reports.AddNote(ctx, admin, r.ID, "", true)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)

	_, err = f.reports.AddNote(ctx, admin, r.ID, "Crew dispatched", true)
	require.NoError(t, err)
	updated, err := f.reports.AddNote(ctx, admin, r.ID, "Check contractor invoice", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"Check contractor invoice"}, []string(updated.InternalNotes))

	public, err := f.reports.Get(ctx, citizen, r.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Crew dispatched"}, []string(public.PublicNotes))
	assert.Empty(t, public.InternalNotes)

	staff, err := f.reports.Get(ctx, admin, r.ID)
	require.NoError(t, err)
	assert.Len(t, staff.InternalNotes, 1)

	list, err := f.reports.List(ctx, anonymous, Filter{}, SortRecent)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Empty(t, list[0].InternalNotes)

	_, err = f.reports.AddNote(ctx, publicWorks, r.ID, "not ours", true)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestAdminUpdateOverride(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.submit(t, citizen, "Signal out")

	updated, err := f.reports.AdminUpdate(ctx, admin, r.ID, AdminUpdate{
		Status:             strPtr("resolved"),
		Priority:           strPtr("high"),
		AssignedDepartment: strPtr("Traffic Management"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusResolved, updated.Status)
	assert.Equal(t, models.PriorityHigh, updated.Priority)
	assert.Equal(t, "Traffic Management", updated.Department())
	resolvedAt := *updated.ResolvedAt

	f.now = f.now.Add(time.Hour)
	reopened, err := f.reports.AdminUpdate(ctx, admin, r.ID, AdminUpdate{Status: strPtr("in-progress"), AssignedDepartment: strPtr("")})
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, reopened.Status)
	assert.Equal(t, resolvedAt, *reopened.ResolvedAt)
	assert.Equal(t, f.now, *reopened.InProgressAt)
	assert.Nil(t, reopened.AssignedDepartment)

	_, err = f.reports.AdminUpdate(ctx, publicWorks, r.ID, AdminUpdate{Priority: strPtr("low")})
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.reports.AdminUpdate(ctx, admin, r.ID, AdminUpdate{Priority: strPtr("urgent")})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	_, err = f.reports.AdminUpdate(ctx, admin, r.ID, AdminUpdate{AssignedDepartment: strPtr("Space Agency")})
	require.ErrorAs(t, err, &ve)

	activity, err := f.reports.Activity(ctx, admin, r.ID)
	require.NoError(t, err)
	var kinds []models.ActivityType
	for _, a := range activity {
		kinds = append(kinds, a.Type)
	}
	assert.Equal(t, []models.ActivityType{
		models.ActivityStatusChange,
		models.ActivityPriorityChange,
		models.ActivityAssignment,
		models.ActivityStatusChange,
		models.ActivityAssignment,
	}, kinds)
}

func TestListScopes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mine := f.submit(t, citizen, "Mine")
	theirs := f.submit(t, otherUser, "Theirs")
	f.assign(t, theirs.ID, "Public Works")

	got, err := f.reports.ListMine(ctx, citizen, SortRecent)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, mine.ID, got[0].ID)

	_, err = f.reports.ListMine(ctx, anonymous, SortRecent)
	assert.ErrorIs(t, err, ErrAuthRequired)

	queue, err := f.reports.ListForDepartment(ctx, publicWorks, Filter{Department: "Water Department"}, SortRecent)
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, theirs.ID, queue[0].ID)

	_, err = f.reports.ListForDepartment(ctx, citizen, Filter{}, SortRecent)
	assert.ErrorIs(t, err, ErrForbidden)

	assignable, err := f.reports.Assignable(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, assignable, 2, "assigned but still submitted counts as assignable")

	_, err = f.reports.Transition(ctx, publicWorks, theirs.ID, "acknowledged")
	require.NoError(t, err)
	assignable, err = f.reports.Assignable(ctx, admin)
	require.NoError(t, err)
	require.Len(t, assignable, 1)
	assert.Equal(t, mine.ID, assignable[0].ID)
}

func TestBulkAssignPartialFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	var ids []string
	for i := 0; i < 5; i++ {
		ids = append(ids, f.submit(t, citizen, fmt.Sprintf("Report %d", i)).ID)
	}
	req := BulkAssignRequest{
		ReportIDs:  append([]string{"missing-1"}, append(ids, "missing-2")...),
		Department: "Water Department",
		Priority:   strPtr("high"),
	}

	result, err := f.reports.BulkAssign(ctx, admin, req)
	require.NoError(t, err)
	assert.Equal(t, ids, result.Updated)
	require.Len(t, result.Failed, 2)
	assert.Equal(t, "missing-1", result.Failed[0].ReportID)
	assert.Equal(t, "report not found", result.Failed[0].Error)

	for _, id := range ids {
		v, err := f.reports.Get(ctx, admin, id)
		require.NoError(t, err)
		assert.Equal(t, "Water Department", v.Department())
		assert.Equal(t, models.PriorityHigh, v.Priority)
	}

	_, err = f.reports.BulkAssign(ctx, admin, BulkAssignRequest{ReportIDs: ids, Department: "Nowhere"})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	_, err = f.reports.BulkAssign(ctx, publicWorks, req)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestConcurrentNotesAreSerialized(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.submit(t, citizen, "Busy report")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.reports.AddNote(ctx, admin, r.ID, fmt.Sprintf("note %d", i), true)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	v, err := f.reports.Get(ctx, citizen, r.ID)
	require.NoError(t, err)
	assert.Len(t, v.PublicNotes, 10)
}

func TestStoreErrorsAreWrapped(t *testing.T) {
	err := storeErr("save report", errors.New("connection refused"))
	var se *StoreError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "save report", se.Op)
	assert.False(t, errors.Is(err, ErrNotFound))
}
