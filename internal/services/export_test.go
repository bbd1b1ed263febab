package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/civicpulse/backend/internal/models"
	"github.com/civicpulse/backend/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSV(t *testing.T) {
	created := time.Date(2025, 4, 9, 15, 0, 0, 0, time.UTC)
	name := "Meera, K"
	dept := "Public Works"
	reports := []models.Report{
		{ID: "r-1", Title: "Pothole", Category: "Roads", Status: models.StatusSubmitted, Priority: models.PriorityHigh, CreatedAt: created},
		{ID: "r-2", Title: "Leak", Category: "Water Supply", Status: models.StatusResolved, Priority: models.PriorityLow,
			CitizenName: &name, AssignedDepartment: &dept, CreatedAt: created},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, reports))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, CSVHeader, rows[0])
	assert.Equal(t, []string{"r-1", "Pothole", "Roads", "submitted", "high", "Anonymous", "2025-04-09", "Unassigned"}, rows[1])
	assert.Equal(t, []string{"r-2", "Leak", "Water Supply", "resolved", "low", "Meera, K", "2025-04-09", "Public Works"}, rows[2])

	assert.Equal(t, "civic-issues-2025-04-09.csv", ExportFilename(created))
}

func TestMapFeaturesSkipsReportsWithoutCoordinates(t *testing.T) {
	lat, lng := 19.07, 72.87
	views := []models.ReportView{
		{Report: models.Report{ID: "with", Title: "Flooding", LocationLat: &lat, LocationLng: &lng}, Upvotes: 4, Downvotes: 1},
		{Report: models.Report{ID: "without", Title: "No location"}},
	}

	fc := MapFeatures(views)
	require.Len(t, fc.Features, 1)
	feature := fc.Features[0]
	assert.Equal(t, "with", feature.ID)
	assert.Equal(t, []float64{lng, lat}, feature.Geometry.Point)
	assert.Equal(t, 3, feature.Properties["netVotes"])
	assert.Equal(t, "Flooding", feature.Properties["title"])
}

func TestSummarize(t *testing.T) {
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	resolvedAt := created.Add(48 * time.Hour)
	pw := "Public Works"
	reports := []models.Report{
		{Category: "Roads", Status: models.StatusResolved, Priority: models.PriorityHigh, AssignedDepartment: &pw, CreatedAt: created, ResolvedAt: &resolvedAt},
		{Category: "Roads", Status: models.StatusInProgress, Priority: models.PriorityMedium, AssignedDepartment: &pw},
		{Category: "Roads", Status: models.StatusSubmitted, Priority: models.PriorityMedium},
		{Category: "Electricity", Status: models.StatusAcknowledged, Priority: models.PriorityLow},
	}

	a := Summarize(reports)
	assert.Equal(t, Overview{Total: 4, Submitted: 1, InProgress: 2, Resolved: 1, HighPriority: 1, ResolutionRate: 25}, a.Overview)
	assert.Equal(t, 2, a.Unassigned)

	require.Len(t, a.Categories, 2)
	assert.Equal(t, CategoryStats{Category: "Roads", Count: 3, Resolved: 1, ResolutionRate: 33}, a.Categories[0])
	assert.Equal(t, "Electricity", a.Categories[1].Category)

	require.Len(t, a.Departments, 1)
	assert.Equal(t, DepartmentStats{Department: "Public Works", Assigned: 2, Active: 1, Resolved: 1, ResolutionRate: 50, AvgResolutionHours: 48}, a.Departments[0])

	require.Len(t, a.Priorities, 3)
	assert.Equal(t, PriorityStats{Priority: models.PriorityHigh, Count: 1, Percentage: 25}, a.Priorities[0])
	assert.Equal(t, PriorityStats{Priority: models.PriorityMedium, Count: 2, Percentage: 50}, a.Priorities[1])

	empty := Summarize(nil)
	assert.Equal(t, 0, empty.Overview.ResolutionRate)
	assert.Empty(t, empty.Categories)
}

func TestExportRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	f.submit(t, citizen, "Pothole")

	var buf bytes.Buffer
	assert.ErrorIs(t, f.reports.ExportCSV(context.Background(), citizen, Filter{}, &buf), ErrForbidden)
	require.NoError(t, f.reports.ExportCSV(context.Background(), admin, Filter{}, &buf))
	assert.Equal(t, 2, strings.Count(buf.String(), "\n"))
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func TestMediaUpload(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewLocalMediaStore(dir, "http://media.test")
	require.NoError(t, err)
	svc := NewMediaService(store, 1<<20)
	svc.now = func() time.Time { return time.UnixMilli(1700000000000) }

	url, err := svc.Upload(context.Background(), anonymous, "photo.png", bytes.NewReader(pngHeader))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://media.test/civic-media/anonymous/1700000000000-"), url)
	assert.True(t, strings.HasSuffix(url, ".png"), url)

	url, err = svc.Upload(context.Background(), citizen, "photo.png", bytes.NewReader(pngHeader))
	require.NoError(t, err)
	assert.Contains(t, url, "/civic-media/citizen-1/")

	_, err = svc.Upload(context.Background(), citizen, "notes.txt", strings.NewReader("plain text"))
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)

	small := NewMediaService(store, 8)
	_, err = small.Upload(context.Background(), citizen, "photo.png", bytes.NewReader(pngHeader))
	require.ErrorAs(t, err, &ve)
}
