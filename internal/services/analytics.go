package services

import (
	"context"
	"math"
	"sort"

	"github.com/civicpulse/backend/internal/models"
)

type Overview struct {
	Total          int `json:"total"`
	Submitted      int `json:"submitted"`
	InProgress     int `json:"inProgress"`
	Resolved       int `json:"resolved"`
	HighPriority   int `json:"highPriority"`
	ResolutionRate int `json:"resolutionRate"`
}

type CategoryStats struct {
	Category       string `json:"category"`
	Count          int    `json:"count"`
	Resolved       int    `json:"resolved"`
	ResolutionRate int    `json:"resolutionRate"`
}

type DepartmentStats struct {
	Department         string  `json:"department"`
	Assigned           int     `json:"assigned"`
	Active             int     `json:"active"`
	Resolved           int     `json:"resolved"`
	ResolutionRate     int     `json:"resolutionRate"`
	AvgResolutionHours float64 `json:"avgResolutionHours"`
}

type PriorityStats struct {
	Priority   models.ReportPriority `json:"priority"`
	Count      int                   `json:"count"`
	Percentage int                   `json:"percentage"`
}

type Analytics struct {
	Overview    Overview          `json:"overview"`
	Categories  []CategoryStats   `json:"categories"`
	Departments []DepartmentStats `json:"departments"`
	Priorities  []PriorityStats   `json:"priorities"`
	Unassigned  int               `json:"unassigned"`
}

// percent rounds part/whole to a whole percentage; zero when whole is zero.
func percent(part, whole int) int {
	if whole == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}

// Summarize computes the admin dashboard figures. Categories and departments
// with no reports are left out; categories are ordered by count, descending.
func Summarize(reports []models.Report) Analytics {
	var a Analytics
	a.Overview.Total = len(reports)

	categories := make(map[string]*CategoryStats)
	departments := make(map[string]*DepartmentStats)
	resolutionHours := make(map[string]float64)
	resolvedWithTime := make(map[string]int)
	priorities := make(map[models.ReportPriority]int)

	for i := range reports {
		r := &reports[i]
		resolved := r.Status == models.StatusResolved

		switch r.Status {
		case models.StatusSubmitted:
			a.Overview.Submitted++
		case models.StatusAcknowledged, models.StatusInProgress:
			a.Overview.InProgress++
		case models.StatusResolved:
			a.Overview.Resolved++
		}
		if r.Priority == models.PriorityHigh {
			a.Overview.HighPriority++
		}
		priorities[r.Priority]++

		cs := categories[r.Category]
		if cs == nil {
			cs = &CategoryStats{Category: r.Category}
			categories[r.Category] = cs
		}
		cs.Count++
		if resolved {
			cs.Resolved++
		}

		dept := r.Department()
		if dept == "" {
			a.Unassigned++
			continue
		}
		ds := departments[dept]
		if ds == nil {
			ds = &DepartmentStats{Department: dept}
			departments[dept] = ds
		}
		ds.Assigned++
		if resolved {
			ds.Resolved++
			if r.ResolvedAt != nil {
				resolutionHours[dept] += r.ResolvedAt.Sub(r.CreatedAt).Hours()
				resolvedWithTime[dept]++
			}
		} else {
			ds.Active++
		}
	}
	a.Overview.ResolutionRate = percent(a.Overview.Resolved, a.Overview.Total)

	a.Categories = []CategoryStats{}
	for _, name := range orderedKeys(models.Categories, categories) {
		cs := categories[name]
		cs.ResolutionRate = percent(cs.Resolved, cs.Count)
		a.Categories = append(a.Categories, *cs)
	}
	sort.SliceStable(a.Categories, func(i, j int) bool {
		return a.Categories[i].Count > a.Categories[j].Count
	})

	a.Departments = []DepartmentStats{}
	for _, name := range orderedKeys(models.Departments, departments) {
		ds := departments[name]
		ds.ResolutionRate = percent(ds.Resolved, ds.Assigned)
		if n := resolvedWithTime[name]; n > 0 {
			ds.AvgResolutionHours = math.Round(resolutionHours[name]/float64(n)*10) / 10
		}
		a.Departments = append(a.Departments, *ds)
	}

	for _, p := range []models.ReportPriority{models.PriorityHigh, models.PriorityMedium, models.PriorityLow} {
		a.Priorities = append(a.Priorities, PriorityStats{
			Priority:   p,
			Count:      priorities[p],
			Percentage: percent(priorities[p], a.Overview.Total),
		})
	}
	return a
}

// orderedKeys returns the keys of m in catalog order, then any others alphabetically.
func orderedKeys[V any](catalog []string, m map[string]V) []string {
	keys := make([]string, 0, len(m))
	seen := make(map[string]bool, len(m))
	for _, c := range catalog {
		if _, ok := m[c]; ok {
			keys = append(keys, c)
			seen[c] = true
		}
	}
	var rest []string
	for k := range m {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

// Analytics summarizes every report for administrators.
func (s *ReportService) Analytics(ctx context.Context, actor Actor) (*Analytics, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	reports, err := s.cache.All(ctx)
	if err != nil {
		return nil, err
	}
	a := Summarize(reports)
	return &a, nil
}
