package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/civicpulse/backend/internal/models"
	geojson "github.com/paulmach/go.geojson"
)

// CSVHeader is the column order of the admin export.
var CSVHeader = []string{"ID", "Title", "Category", "Status", "Priority", "Citizen", "Date", "Department"}

// ExportFilename names the export after the day it was produced.
func ExportFilename(now time.Time) string {
	return fmt.Sprintf("civic-issues-%s.csv", now.Format("2006-01-02"))
}

// WriteCSV writes one row per report in CSVHeader order.
func WriteCSV(w io.Writer, reports []models.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for i := range reports {
		r := &reports[i]
		citizen := "Anonymous"
		if r.CitizenName != nil && *r.CitizenName != "" {
			citizen = *r.CitizenName
		}
		row := []string{
			r.ID,
			r.Title,
			r.Category,
			string(r.Status),
			string(r.Priority),
			citizen,
			r.CreatedAt.Format("2006-01-02"),
			orDefault(r.Department(), "Unassigned"),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportCSV writes the admin listing for f to w.
func (s *ReportService) ExportCSV(ctx context.Context, actor Actor, f Filter, w io.Writer) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	views, err := s.List(ctx, actor, f, SortRecent)
	if err != nil {
		return err
	}
	reports := make([]models.Report, len(views))
	for i := range views {
		reports[i] = views[i].Report
	}
	return WriteCSV(w, reports)
}

// MapFeatures turns the reports that carry coordinates into GeoJSON points.
func MapFeatures(views []models.ReportView) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i := range views {
		v := &views[i]
		if !v.HasCoordinates() {
			continue
		}
		f := geojson.NewPointFeature([]float64{*v.LocationLng, *v.LocationLat})
		f.ID = v.ID
		f.SetProperty("title", v.Title)
		f.SetProperty("category", v.Category)
		f.SetProperty("status", string(v.Status))
		f.SetProperty("priority", string(v.Priority))
		f.SetProperty("netVotes", v.NetVotes())
		if addr := v.Address(); addr != "" {
			f.SetProperty("address", addr)
		}
		fc.AddFeature(f)
	}
	return fc
}

func (s *ReportService) Map(ctx context.Context, actor Actor, f Filter) (*geojson.FeatureCollection, error) {
	views, err := s.List(ctx, actor, f, SortRecent)
	if err != nil {
		return nil, err
	}
	return MapFeatures(views), nil
}
