package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/civicpulse/backend/internal/logger"
	"github.com/civicpulse/backend/internal/models"
	"github.com/civicpulse/backend/internal/repository"
	"github.com/civicpulse/backend/internal/services"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

// UserData represents the structure of users in the JSON file
type UserData struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	FullName   string `json:"fullName"`
	Role       string `json:"role"`
	Department string `json:"department"`
}

// ReportData is one sample report. Reporter is the email of a seeded user; empty means anonymous.
type ReportData struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Status      string   `json:"status"`
	Priority    string   `json:"priority"`
	Address     string   `json:"address"`
	Lat         *float64 `json:"lat"`
	Lng         *float64 `json:"lng"`
	Department  string   `json:"department"`
	Reporter    string   `json:"reporter"`
	PublicNotes []string `json:"publicNotes"`
	AgeHours    int      `json:"ageHours"`
}

// Data represents the structure of the seed file
type Data struct {
	Users   []UserData   `json:"users"`
	Reports []ReportData `json:"reports"`
}

type Result struct {
	UsersCreated   int
	UsersSkipped   int
	ReportsCreated int
}

// Load reads the seed file, trying path relative to the repository root as well.
func Load(path string) (*Data, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		alt := filepath.Join("..", "..", path)
		logger.Debug("Seed file not found, trying alternative path", map[string]interface{}{
			"path": path,
			"alt":  alt,
		})
		if raw, err = os.ReadFile(alt); err != nil {
			return nil, fmt.Errorf("failed to read seed file: %w", err)
		}
	}

	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return &data, nil
}

func parseRole(v string) models.UserRole {
	switch strings.ToLower(v) {
	case "admin":
		return models.RoleAdmin
	case "department":
		return models.RoleDepartment
	default:
		return models.RoleCitizen
	}
}

// Run creates missing users and, when the store holds no reports yet, the sample reports.
func Run(ctx context.Context, store *repository.Store, data *Data, now time.Time) (Result, error) {
	var res Result
	reporters := make(map[string]*models.User)

	for _, ud := range data.Users {
		email := strings.ToLower(strings.TrimSpace(ud.Email))
		if existing, err := store.Users.GetByEmail(ctx, email); err == nil {
			reporters[email] = existing
			res.UsersSkipped++
			logger.Debug("User already exists", map[string]interface{}{"email": email})
			continue
		} else if !errors.Is(err, repository.ErrNotFound) {
			return res, fmt.Errorf("failed to look up %s: %w", email, err)
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(ud.Password), bcrypt.DefaultCost)
		if err != nil {
			return res, fmt.Errorf("failed to hash password for %s: %w", email, err)
		}

		user := &models.User{
			Email:    email,
			Password: string(hashed),
			FullName: ud.FullName,
			Role:     parseRole(ud.Role),
		}
		if user.Role == models.RoleDepartment {
			if !models.IsDepartment(ud.Department) {
				return res, fmt.Errorf("user %s: unknown department %q", email, ud.Department)
			}
			dept := ud.Department
			user.Department = &dept
		}

		if err := store.Users.Create(ctx, user); err != nil {
			return res, fmt.Errorf("failed to create user %s: %w", email, err)
		}
		reporters[email] = user
		res.UsersCreated++
		logger.Info("Created user", map[string]interface{}{"email": email, "role": user.Role})
	}

	existing, err := store.Reports.List(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to list reports: %w", err)
	}
	if len(existing) > 0 {
		logger.Info("Reports already present, skipping sample reports", map[string]interface{}{"count": len(existing)})
		return res, nil
	}

	for i, rd := range data.Reports {
		report, err := buildReport(rd, reporters, now)
		if err != nil {
			return res, fmt.Errorf("report %d: %w", i, err)
		}
		if err := store.Reports.Create(ctx, report); err != nil {
			return res, fmt.Errorf("failed to create report %q: %w", rd.Title, err)
		}
		res.ReportsCreated++
	}

	logger.Info("Seeding completed", map[string]interface{}{
		"users_created":   res.UsersCreated,
		"users_skipped":   res.UsersSkipped,
		"reports_created": res.ReportsCreated,
	})
	return res, nil
}

func buildReport(rd ReportData, reporters map[string]*models.User, now time.Time) (*models.Report, error) {
	if !models.IsCategory(rd.Category) {
		return nil, fmt.Errorf("unknown category %q", rd.Category)
	}
	created := now.Add(-time.Duration(rd.AgeHours) * time.Hour)

	r := &models.Report{
		Title:       rd.Title,
		Description: rd.Description,
		Category:    rd.Category,
		Status:      models.StatusSubmitted,
		Priority:    models.PriorityMedium,
		LocationLat: rd.Lat,
		LocationLng: rd.Lng,
		PublicNotes: pq.StringArray(rd.PublicNotes),
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	if rd.Address != "" {
		addr := rd.Address
		r.LocationAddress = &addr
	}
	if rd.Priority != "" {
		p, err := models.ParsePriority(rd.Priority)
		if err != nil {
			return nil, err
		}
		r.Priority = p
	}
	if rd.Department != "" {
		if !models.IsDepartment(rd.Department) {
			return nil, fmt.Errorf("unknown department %q", rd.Department)
		}
		dept := rd.Department
		r.AssignedDepartment = &dept
	}
	if rd.Reporter != "" {
		u, ok := reporters[strings.ToLower(rd.Reporter)]
		if !ok {
			return nil, fmt.Errorf("unknown reporter %s", rd.Reporter)
		}
		id, name := u.ID, u.DisplayName()
		r.UserID = &id
		r.CitizenName = &name
	}

	if rd.Status != "" {
		target, err := models.ParseStatus(rd.Status)
		if err != nil {
			return nil, err
		}
		// Walk the workflow so every reached-at timestamp is stamped.
		step := created
		for r.Status != target {
			next, ok := r.Status.Next()
			if !ok {
				break
			}
			step = step.Add(time.Hour)
			if _, err := services.Transition(r, next, step); err != nil {
				return nil, err
			}
		}
		r.UpdatedAt = step
	}
	return r, nil
}
