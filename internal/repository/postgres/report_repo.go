package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/civicpulse/backend/internal/models"
	"github.com/civicpulse/backend/internal/repository"
	"gorm.io/gorm"
)

type ReportRepo struct {
	db *gorm.DB
}

func NewReportRepo(db *gorm.DB) *ReportRepo {
	return &ReportRepo{db: db}
}

func (r *ReportRepo) List(ctx context.Context) ([]models.Report, error) {
	var reports []models.Report
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&reports).Error; err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return reports, nil
}

func (r *ReportRepo) Get(ctx context.Context, id string) (*models.Report, error) {
	var report models.Report
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&report).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return &report, nil
}

func (r *ReportRepo) Create(ctx context.Context, report *models.Report) error {
	if err := r.db.WithContext(ctx).Create(report).Error; err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	return nil
}

func (r *ReportRepo) Save(ctx context.Context, report *models.Report) error {
	res := r.db.WithContext(ctx).Model(report).Select("*").Omit("created_at").Updates(report)
	if res.Error != nil {
		return fmt.Errorf("failed to save report: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// AppendNote uses array_append so concurrent notes never overwrite each other.
func (r *ReportRepo) AppendNote(ctx context.Context, id, note string, public bool) (*models.Report, error) {
	column := "internal_notes"
	if public {
		column = "public_notes"
	}

	res := r.db.WithContext(ctx).Model(&models.Report{}).Where("id = ?", id).Updates(map[string]interface{}{
		column:       gorm.Expr("array_append(COALESCE("+column+", '{}'::text[]), ?)", note),
		"updated_at": time.Now(),
	})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to append note: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, repository.ErrNotFound
	}
	return r.Get(ctx, id)
}

func (r *ReportRepo) AddActivity(ctx context.Context, a *models.ReportActivity) error {
	if err := r.db.WithContext(ctx).Create(a).Error; err != nil {
		return fmt.Errorf("failed to record report activity: %w", err)
	}
	return nil
}

func (r *ReportRepo) ListActivity(ctx context.Context, reportID string) ([]models.ReportActivity, error) {
	var activity []models.ReportActivity
	err := r.db.WithContext(ctx).
		Where("report_id = ?", reportID).
		Order("created_at ASC").
		Find(&activity).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list report activity: %w", err)
	}
	return activity, nil
}
