package db

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/civicpulse/backend/internal/config"
	"github.com/civicpulse/backend/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the Postgres connection described by cfg.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	conn, err := Open(postgres.Open(cfg.DSN()))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Println("✅ Database connected successfully")
	return conn, nil
}

// Open wraps gorm.Open with the settings every caller needs.
// TranslateError turns unique violations into gorm.ErrDuplicatedKey.
func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	return gorm.Open(dialector, &gorm.Config{
		Logger:         newGormLogger(os.Stdout),
		TranslateError: true,
	})
}

// newGormLogger reports SQL errors only. Lookups that find no row are an
// expected outcome (first vote, unknown email) and stay quiet.
func newGormLogger(w io.Writer) logger.Interface {
	return logger.New(log.New(w, "\r\n", log.LstdFlags), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Error,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

// AutoMigrate creates or updates every table the server uses.
func AutoMigrate(conn *gorm.DB) error {
	tables := []struct {
		name  string
		model interface{}
	}{
		{"users", &models.User{}},
		{"civic_reports", &models.Report{}},
		{"report_votes", &models.Vote{}},
		{"report_comments", &models.Comment{}},
		{"report_activities", &models.ReportActivity{}},
	}

	for _, t := range tables {
		log.Printf("Migrating %s...", t.name)
		if err := conn.AutoMigrate(t.model); err != nil {
			return fmt.Errorf("%s migration failed: %w", t.name, err)
		}
		log.Printf("✅ %s table migrated successfully", t.name)
	}

	log.Println("✅ All database migrations completed successfully")
	return nil
}
