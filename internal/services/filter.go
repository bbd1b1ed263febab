package services

import (
	"sort"
	"strings"

	"github.com/civicpulse/backend/internal/models"
)

type SortKey string

const (
	SortRecent   SortKey = "recent"
	SortVotes    SortKey = "votes"
	SortPriority SortKey = "priority"
)

// ParseSortKey accepts an empty value as SortRecent.
func ParseSortKey(v string) (SortKey, error) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(v))); k {
	case "":
		return SortRecent, nil
	case SortRecent, SortVotes, SortPriority:
		return k, nil
	}
	return "", invalid("sort", "unknown sort key "+v)
}

// SearchScope picks the fields free-text search looks at.
type SearchScope int

const (
	// ScopePublic searches title, description and address.
	ScopePublic SearchScope = iota
	// ScopeAdmin searches title, id and citizen name.
	ScopeAdmin
)

// Filter holds the optional criteria of a report listing. Empty fields match everything.
type Filter struct {
	Search     string
	District   string
	Category   string
	Status     models.ReportStatus
	Priority   models.ReportPriority
	Department string
	OwnerID    string
	Scope      SearchScope
}

// FilterValue normalizes a query parameter: "all" means no filter.
func FilterValue(v string) string {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, "all") {
		return ""
	}
	return v
}

func (f Filter) Matches(r *models.Report) bool {
	if f.Search != "" && !f.matchesSearch(r) {
		return false
	}
	if f.District != "" && !containsFold(r.Address(), f.District) {
		return false
	}
	if f.Category != "" && r.Category != f.Category {
		return false
	}
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if f.Priority != "" && r.Priority != f.Priority {
		return false
	}
	if f.Department != "" && r.Department() != f.Department {
		return false
	}
	if f.OwnerID != "" && (r.UserID == nil || *r.UserID != f.OwnerID) {
		return false
	}
	return true
}

func (f Filter) matchesSearch(r *models.Report) bool {
	if f.Scope == ScopeAdmin {
		citizen := ""
		if r.CitizenName != nil {
			citizen = *r.CitizenName
		}
		return containsFold(r.Title, f.Search) ||
			containsFold(r.ID, f.Search) ||
			containsFold(citizen, f.Search)
	}
	return containsFold(r.Title, f.Search) ||
		containsFold(r.Description, f.Search) ||
		containsFold(r.Address(), f.Search)
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// Apply filters and sorts views into a new slice. The input is left untouched
// and ties keep their input order.
func Apply(views []models.ReportView, f Filter, key SortKey) []models.ReportView {
	out := make([]models.ReportView, 0, len(views))
	for _, v := range views {
		if f.Matches(&v.Report) {
			out = append(out, v)
		}
	}

	var less func(a, b *models.ReportView) bool
	switch key {
	case SortVotes:
		less = func(a, b *models.ReportView) bool { return a.NetVotes() > b.NetVotes() }
	case SortPriority:
		less = func(a, b *models.ReportView) bool { return a.Priority.Rank() > b.Priority.Rank() }
	default:
		less = func(a, b *models.ReportView) bool { return a.CreatedAt.After(b.CreatedAt) }
	}
	sort.SliceStable(out, func(i, j int) bool { return less(&out[i], &out[j]) })
	return out
}

// Top returns at most n views with the highest net votes.
func Top(views []models.ReportView, n int) []models.ReportView {
	sorted := Apply(views, Filter{}, SortVotes)
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
