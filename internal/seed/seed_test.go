package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/civicpulse/backend/internal/models"
	"github.com/civicpulse/backend/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func sampleData() *Data {
	lat, lng := 13.08, 80.27
	return &Data{
		Users: []UserData{
			{Email: "Admin@City.gov", Password: "admin123", FullName: "Admin", Role: "admin"},
			{Email: "works@city.gov", Password: "works123", FullName: "Works", Role: "department", Department: "Public Works"},
			{Email: "asha@example.com", Password: "asha1234", FullName: "Asha", Role: "citizen"},
		},
		Reports: []ReportData{
			{Title: "Pothole", Description: "Deep", Category: "Roads", Status: "in-progress", Priority: "high",
				Address: "Adyar, Chennai", Lat: &lat, Lng: &lng, Department: "Public Works", Reporter: "asha@example.com", AgeHours: 10},
			{Title: "Dark street", Description: "No lights", Category: "Electricity", AgeHours: 1},
		},
	}
}

func TestRunSeedsUsersAndReports(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	res, err := Run(ctx, store, sampleData(), now)
	require.NoError(t, err)
	assert.Equal(t, Result{UsersCreated: 3, ReportsCreated: 2}, res)

	admin, err := store.Users.GetByEmail(ctx, "admin@city.gov")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte("admin123")))

	works, err := store.Users.GetByEmail(ctx, "works@city.gov")
	require.NoError(t, err)
	require.NotNil(t, works.Department)
	assert.Equal(t, "Public Works", *works.Department)

	reports, err := store.Reports.List(ctx)
	require.NoError(t, err)
	require.Len(t, reports, 2)

	// newest first
	dark, pothole := reports[0], reports[1]
	assert.Nil(t, dark.UserID)
	assert.Equal(t, models.StatusSubmitted, dark.Status)
	assert.Equal(t, models.PriorityMedium, dark.Priority)

	assert.Equal(t, models.StatusInProgress, pothole.Status)
	assert.Equal(t, "Asha", *pothole.CitizenName)
	require.NotNil(t, pothole.AcknowledgedAt)
	require.NotNil(t, pothole.InProgressAt)
	assert.Nil(t, pothole.ResolvedAt)
	assert.True(t, pothole.AcknowledgedAt.Before(*pothole.InProgressAt))
	assert.Equal(t, now.Add(-10*time.Hour), pothole.CreatedAt)
}

func TestRunIsRepeatable(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	now := time.Now()

	_, err := Run(ctx, store, sampleData(), now)
	require.NoError(t, err)

	res, err := Run(ctx, store, sampleData(), now)
	require.NoError(t, err)
	assert.Equal(t, Result{UsersSkipped: 3}, res)

	reports, err := store.Reports.List(ctx)
	require.NoError(t, err)
	assert.Len(t, reports, 2)
}

func TestRunRejectsUnknownReporter(t *testing.T) {
	data := sampleData()
	data.Reports[1].Reporter = "ghost@example.com"

	_, err := Run(context.Background(), memory.NewStore(), data, time.Now())
	assert.ErrorContains(t, err, "unknown reporter")
}

func TestRunRejectsDepartmentUserWithoutDepartment(t *testing.T) {
	data := &Data{Users: []UserData{{Email: "x@city.gov", Password: "pw123456", Role: "department"}}}
	_, err := Run(context.Background(), memory.NewStore(), data, time.Now())
	assert.ErrorContains(t, err, "unknown department")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"users":[{"email":"a@b.c","role":"admin"}],"reports":[{"title":"T","category":"Roads"}]}`), 0o644))

	data, err := Load(path)
	require.NoError(t, err)
	require.Len(t, data.Users, 1)
	assert.Equal(t, "admin", data.Users[0].Role)
	assert.Equal(t, "Roads", data.Reports[0].Category)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestBundledSeedFileIsValid(t *testing.T) {
	data, err := Load(filepath.Join("data", "seed.json"))
	require.NoError(t, err)

	res, err := Run(context.Background(), memory.NewStore(), data, time.Now())
	require.NoError(t, err)
	assert.Equal(t, len(data.Users), res.UsersCreated)
	assert.Equal(t, len(data.Reports), res.ReportsCreated)
}
