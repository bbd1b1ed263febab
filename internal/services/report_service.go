package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/civicpulse/backend/internal/events"
	"github.com/civicpulse/backend/internal/logger"
	"github.com/civicpulse/backend/internal/metrics"
	"github.com/civicpulse/backend/internal/models"
	"github.com/civicpulse/backend/internal/repository"
)

type ReportService struct {
	reports     repository.ReportRepository
	votes       repository.VoteRepository
	cache       *ReportCache
	locks       keyedMutex
	events      events.Publisher
	bulkWorkers int
	now         func() time.Time
}

func NewReportService(store *repository.Store, publisher events.Publisher, cacheTTL time.Duration, bulkWorkers int) *ReportService {
	if bulkWorkers < 1 {
		bulkWorkers = 1
	}
	return &ReportService{
		reports:     store.Reports,
		votes:       store.Votes,
		cache:       NewReportCache(store.Reports, cacheTTL),
		events:      publisher,
		bulkWorkers: bulkWorkers,
		now:         time.Now,
	}
}

// SetClock replaces the time source used for lifecycle timestamps.
func (s *ReportService) SetClock(now func() time.Time) {
	s.now = now
}

type CreateReportInput struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Category        string   `json:"category"`
	LocationAddress *string  `json:"locationAddress"`
	LocationLat     *float64 `json:"locationLat"`
	LocationLng     *float64 `json:"locationLng"`
	MediaURLs       []string `json:"mediaUrls"`
	CitizenName     *string  `json:"citizenName"`
}

func (in CreateReportInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return invalid("title", "title is required")
	}
	if strings.TrimSpace(in.Description) == "" {
		return invalid("description", "description is required")
	}
	if !models.IsCategory(in.Category) {
		return invalid("category", "unknown category "+in.Category)
	}
	if (in.LocationLat == nil) != (in.LocationLng == nil) {
		return invalid("location", "latitude and longitude must be provided together")
	}
	if in.LocationLat != nil {
		if *in.LocationLat < -90 || *in.LocationLat > 90 {
			return invalid("locationLat", "latitude must be between -90 and 90")
		}
		if *in.LocationLng < -180 || *in.LocationLng > 180 {
			return invalid("locationLng", "longitude must be between -180 and 180")
		}
	}
	return nil
}

// Create stores a new submitted report. Anonymous submissions are allowed.
func (s *ReportService) Create(ctx context.Context, actor Actor, in CreateReportInput) (*models.Report, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	report := &models.Report{
		Title:           strings.TrimSpace(in.Title),
		Description:     strings.TrimSpace(in.Description),
		Category:        in.Category,
		Status:          models.StatusSubmitted,
		Priority:        models.PriorityMedium,
		LocationAddress: trimmedPtr(in.LocationAddress),
		LocationLat:     in.LocationLat,
		LocationLng:     in.LocationLng,
		UserID:          actor.id(),
		CitizenName:     trimmedPtr(in.CitizenName),
	}
	for _, u := range in.MediaURLs {
		if u = strings.TrimSpace(u); u != "" {
			report.MediaURLs = append(report.MediaURLs, u)
		}
	}
	if actor.Authenticated() && strings.TrimSpace(actor.Name) != "" {
		name := strings.TrimSpace(actor.Name)
		report.CitizenName = &name
	}

	if err := s.reports.Create(ctx, report); err != nil {
		return nil, storeErr("create report", err)
	}
	s.cache.Put(report)

	metrics.ReportsCreatedTotal.WithLabelValues(report.Category).Inc()
	logger.WithReport(report.ID, "report_service").WithField("category", report.Category).Info("Report submitted")
	events.Emit(ctx, s.events, events.New(events.ReportCreated, report.ID, actor.UserID, map[string]interface{}{
		"category": report.Category,
	}))

	return report, nil
}

// load reads one report through the cache.
func (s *ReportService) load(ctx context.Context, id string) (*models.Report, error) {
	return s.cache.Get(ctx, id)
}

// views decorates reports with vote counts, hiding staff fields from non-staff.
func (s *ReportService) views(ctx context.Context, actor Actor, reports []models.Report) ([]models.ReportView, error) {
	ids := make([]string, len(reports))
	for i := range reports {
		ids[i] = reports[i].ID
	}
	counts, err := s.votes.CountsFor(ctx, ids, actor.UserID)
	if err != nil {
		return nil, storeErr("count votes", err)
	}

	out := make([]models.ReportView, len(reports))
	for i, r := range reports {
		if !actor.IsStaff() {
			r = r.ForPublic()
		}
		c := counts[r.ID]
		out[i] = models.ReportView{Report: r, Upvotes: c.Upvotes, Downvotes: c.Downvotes, UserVote: c.UserVote}
	}
	return out, nil
}

func (s *ReportService) Get(ctx context.Context, actor Actor, id string) (*models.ReportView, error) {
	r, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	views, err := s.views(ctx, actor, []models.Report{*r})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// List returns the reports matching f, sorted by key.
func (s *ReportService) List(ctx context.Context, actor Actor, f Filter, key SortKey) ([]models.ReportView, error) {
	all, err := s.cache.All(ctx)
	if err != nil {
		return nil, err
	}
	matched := make([]models.Report, 0, len(all))
	for i := range all {
		if f.Matches(&all[i]) {
			matched = append(matched, all[i])
		}
	}
	views, err := s.views(ctx, actor, matched)
	if err != nil {
		return nil, err
	}
	return Apply(views, f, key), nil
}

// TopVoted returns the n most supported reports matching f.
func (s *ReportService) TopVoted(ctx context.Context, actor Actor, f Filter, n int) ([]models.ReportView, error) {
	views, err := s.List(ctx, actor, f, SortVotes)
	if err != nil {
		return nil, err
	}
	return Top(views, n), nil
}

func (s *ReportService) ListMine(ctx context.Context, actor Actor, key SortKey) ([]models.ReportView, error) {
	if !actor.Authenticated() {
		return nil, ErrAuthRequired
	}
	return s.List(ctx, actor, Filter{OwnerID: actor.UserID}, key)
}

// ListForDepartment scopes department users to their own queue. Admins may pick any department.
func (s *ReportService) ListForDepartment(ctx context.Context, actor Actor, f Filter, key SortKey) ([]models.ReportView, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	if actor.Role == models.RoleDepartment {
		if actor.Department == "" {
			return nil, ErrForbidden
		}
		f.Department = actor.Department
	}
	return s.List(ctx, actor, f, key)
}

// Assignable lists reports that still need routing: unassigned or not yet acknowledged.
func (s *ReportService) Assignable(ctx context.Context, actor Actor) ([]models.ReportView, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	all, err := s.cache.All(ctx)
	if err != nil {
		return nil, err
	}
	var pending []models.Report
	for _, r := range all {
		if r.Department() == "" || r.Status == models.StatusSubmitted {
			pending = append(pending, r)
		}
	}
	return s.views(ctx, actor, pending)
}

// Transition advances a report one step on the department path.
func (s *ReportService) Transition(ctx context.Context, actor Actor, id string, status string) (*models.Report, error) {
	to, err := models.ParseStatus(status)
	if err != nil {
		return nil, invalid("status", err.Error())
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	r, err := s.authorized(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	from := r.Status
	changed, err := Transition(r, to, s.now())
	if err != nil {
		return nil, err
	}
	if !changed {
		return r, nil
	}
	if err := s.save(ctx, r); err != nil {
		return nil, err
	}
	s.statusChanged(ctx, actor, r, from)
	return r, nil
}

// Resolve closes an in-progress report and publishes the resolution note.
func (s *ReportService) Resolve(ctx context.Context, actor Actor, id, note string) (*models.Report, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		return nil, invalid("note", "a resolution note is required")
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	r, err := s.authorized(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	from := r.Status
	if from == models.StatusResolved {
		return nil, &InvalidTransitionError{From: from, To: models.StatusResolved}
	}
	if _, err := Transition(r, models.StatusResolved, s.now()); err != nil {
		return nil, err
	}
	if err := s.save(ctx, r); err != nil {
		return nil, err
	}
	s.statusChanged(ctx, actor, r, from)

	return s.appendNote(ctx, actor, id, "Issue Resolved: "+note, true)
}

// AddNote appends a public or internal staff note.
func (s *ReportService) AddNote(ctx context.Context, actor Actor, id, note string, public bool) (*models.Report, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		return nil, invalid("note", "note cannot be empty")
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	if _, err := s.authorized(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.appendNote(ctx, actor, id, note, public)
}

// appendNote expects the caller to hold the report lock.
func (s *ReportService) appendNote(ctx context.Context, actor Actor, id, note string, public bool) (*models.Report, error) {
	r, err := s.reports.AppendNote(ctx, id, note, public)
	if err != nil {
		return nil, storeErr("append note", err)
	}
	s.cache.Put(r)

	visibility := "internal"
	if public {
		visibility = "public"
	}
	metrics.NotesAddedTotal.WithLabelValues(visibility).Inc()
	s.record(ctx, actor, id, models.ActivityNote, fmt.Sprintf("%s note: %s", visibility, note))
	events.Emit(ctx, s.events, events.New(events.ReportNoteAdded, id, actor.UserID, map[string]interface{}{
		"public": public,
	}))
	return r, nil
}

type AdminUpdate struct {
	Status             *string `json:"status"`
	Priority           *string `json:"priority"`
	AssignedDepartment *string `json:"assignedDepartment"`
}

// AdminUpdate applies an administrator edit. Status uses Override, so any valid
// value is accepted. An empty department unassigns the report.
func (s *ReportService) AdminUpdate(ctx context.Context, actor Actor, id string, in AdminUpdate) (*models.Report, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	var (
		status   models.ReportStatus
		priority models.ReportPriority
		dept     string
		err      error
	)
	if in.Status != nil {
		if status, err = models.ParseStatus(*in.Status); err != nil {
			return nil, invalid("status", err.Error())
		}
	}
	if in.Priority != nil {
		if priority, err = models.ParsePriority(*in.Priority); err != nil {
			return nil, invalid("priority", err.Error())
		}
	}
	if in.AssignedDepartment != nil {
		dept = strings.TrimSpace(*in.AssignedDepartment)
		if dept != "" && !models.IsDepartment(dept) {
			return nil, invalid("assignedDepartment", "unknown department "+dept)
		}
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	r, err := s.reports.Get(ctx, id)
	if err != nil {
		return nil, storeErr("get report", err)
	}

	from := r.Status
	statusChanged := false
	if in.Status != nil {
		if statusChanged, err = Override(r, status, s.now()); err != nil {
			return nil, err
		}
	}

	prevPriority := r.Priority
	priorityChanged := in.Priority != nil && priority != r.Priority
	if priorityChanged {
		r.Priority = priority
	}

	prevDept := r.Department()
	deptChanged := in.AssignedDepartment != nil && dept != prevDept
	if deptChanged {
		if dept == "" {
			r.AssignedDepartment = nil
		} else {
			d := dept
			r.AssignedDepartment = &d
		}
	}

	if !statusChanged && !priorityChanged && !deptChanged {
		return r, nil
	}
	if err := s.save(ctx, r); err != nil {
		return nil, err
	}

	if statusChanged {
		s.statusChanged(ctx, actor, r, from)
	}
	if priorityChanged {
		s.record(ctx, actor, id, models.ActivityPriorityChange, fmt.Sprintf("priority %s -> %s", prevPriority, r.Priority))
		events.Emit(ctx, s.events, events.New(events.ReportPriorityChanged, id, actor.UserID, map[string]interface{}{
			"from": prevPriority,
			"to":   r.Priority,
		}))
	}
	if deptChanged {
		s.record(ctx, actor, id, models.ActivityAssignment, "assigned to "+orDefault(r.Department(), "Unassigned"))
		events.Emit(ctx, s.events, events.New(events.ReportAssigned, id, actor.UserID, map[string]interface{}{
			"department": r.Department(),
		}))
	}
	return r, nil
}

// Activity returns the staff audit trail of a report, oldest first.
func (s *ReportService) Activity(ctx context.Context, actor Actor, id string) ([]models.ReportActivity, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}
	activity, err := s.reports.ListActivity(ctx, id)
	if err != nil {
		return nil, storeErr("list activity", err)
	}
	return activity, nil
}

// authorized reloads the authoritative row and checks the actor may change it.
func (s *ReportService) authorized(ctx context.Context, actor Actor, id string) (*models.Report, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	r, err := s.reports.Get(ctx, id)
	if err != nil {
		return nil, storeErr("get report", err)
	}
	if err := canManage(actor, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *ReportService) save(ctx context.Context, r *models.Report) error {
	if err := s.reports.Save(ctx, r); err != nil {
		return storeErr("save report", err)
	}
	s.cache.Put(r)
	return nil
}

func (s *ReportService) statusChanged(ctx context.Context, actor Actor, r *models.Report, from models.ReportStatus) {
	metrics.StatusTransitionsTotal.WithLabelValues(string(r.Status)).Inc()
	s.record(ctx, actor, r.ID, models.ActivityStatusChange, fmt.Sprintf("status %s -> %s", from, r.Status))
	logger.WithReport(r.ID, "report_service").WithFields(map[string]interface{}{
		"from":    from,
		"to":      r.Status,
		"user_id": actor.UserID,
	}).Info("Report status changed")
	events.Emit(ctx, s.events, events.New(events.ReportStatusChanged, r.ID, actor.UserID, map[string]interface{}{
		"from": from,
		"to":   r.Status,
	}))
}

// record appends to the audit trail. A failure is logged; the mutation already happened.
func (s *ReportService) record(ctx context.Context, actor Actor, reportID string, kind models.ActivityType, content string) {
	a := &models.ReportActivity{
		ReportID:  reportID,
		ActorID:   actor.id(),
		Type:      kind,
		Content:   content,
		CreatedAt: s.now(),
	}
	if err := s.reports.AddActivity(ctx, a); err != nil {
		logger.WithError(err, "report_service").WithField("report_id", reportID).Warn("Failed to record report activity")
	}
}

func trimmedPtr(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
