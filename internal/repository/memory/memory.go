// Package memory keeps every repository in process. It backs STORE_DRIVER=memory
// and the service tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/civicpulse/backend/internal/models"
	"github.com/civicpulse/backend/internal/repository"
	"github.com/google/uuid"
)

// NewStore returns a Store with empty in-memory repositories.
func NewStore() *repository.Store {
	return &repository.Store{
		Reports:  NewReportRepo(),
		Votes:    NewVoteRepo(),
		Comments: NewCommentRepo(),
		Users:    NewUserRepo(),
	}
}

type ReportRepo struct {
	mu       sync.RWMutex
	reports  map[string]models.Report
	activity map[string][]models.ReportActivity
}

func NewReportRepo() *ReportRepo {
	return &ReportRepo{
		reports:  make(map[string]models.Report),
		activity: make(map[string][]models.ReportActivity),
	}
}

func (r *ReportRepo) List(ctx context.Context) ([]models.Report, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Report, 0, len(r.reports))
	for _, rep := range r.reports {
		out = append(out, rep.Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *ReportRepo) Get(ctx context.Context, id string) (*models.Report, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rep, ok := r.reports[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := rep.Clone()
	return &c, nil
}

func (r *ReportRepo) Create(ctx context.Context, rep *models.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rep.ID == "" {
		rep.ID = uuid.NewString()
	}
	if _, exists := r.reports[rep.ID]; exists {
		return repository.ErrConflict
	}
	now := time.Now()
	if rep.CreatedAt.IsZero() {
		rep.CreatedAt = now
	}
	if rep.UpdatedAt.IsZero() {
		rep.UpdatedAt = rep.CreatedAt
	}
	if rep.Status == "" {
		rep.Status = models.StatusSubmitted
	}
	if rep.Priority == "" {
		rep.Priority = models.PriorityMedium
	}
	r.reports[rep.ID] = rep.Clone()
	return nil
}

func (r *ReportRepo) Save(ctx context.Context, rep *models.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, ok := r.reports[rep.ID]
	if !ok {
		return repository.ErrNotFound
	}
	rep.CreatedAt = prev.CreatedAt
	rep.UpdatedAt = time.Now()
	r.reports[rep.ID] = rep.Clone()
	return nil
}

func (r *ReportRepo) AppendNote(ctx context.Context, id, note string, public bool) (*models.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rep, ok := r.reports[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	rep = rep.Clone()
	if public {
		rep.PublicNotes = append(rep.PublicNotes, note)
	} else {
		rep.InternalNotes = append(rep.InternalNotes, note)
	}
	rep.UpdatedAt = time.Now()
	r.reports[id] = rep

	out := rep.Clone()
	return &out, nil
}

func (r *ReportRepo) AddActivity(ctx context.Context, a *models.ReportActivity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	r.activity[a.ReportID] = append(r.activity[a.ReportID], *a)
	return nil
}

func (r *ReportRepo) ListActivity(ctx context.Context, reportID string) ([]models.ReportActivity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]models.ReportActivity(nil), r.activity[reportID]...), nil
}

type voteKey struct {
	reportID string
	userID   string
}

type VoteRepo struct {
	mu    sync.Mutex
	votes map[voteKey]models.Vote
}

func NewVoteRepo() *VoteRepo {
	return &VoteRepo{votes: make(map[voteKey]models.Vote)}
}

func (r *VoteRepo) Cast(ctx context.Context, reportID, userID string, voteType models.VoteType) (models.VoteAction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := voteKey{reportID, userID}
	var existing *models.Vote
	if v, ok := r.votes[key]; ok {
		existing = &v
	}

	now := time.Now()
	action := models.ResolveVote(existing, voteType)
	switch action {
	case models.VoteInserted:
		r.votes[key] = models.Vote{
			ID:        uuid.NewString(),
			ReportID:  reportID,
			UserID:    userID,
			VoteType:  voteType,
			CreatedAt: now,
			UpdatedAt: now,
		}
	case models.VoteRemoved:
		delete(r.votes, key)
	case models.VoteChanged:
		v := *existing
		v.VoteType = voteType
		v.UpdatedAt = now
		r.votes[key] = v
	}
	return action, nil
}

func (r *VoteRepo) Counts(ctx context.Context, reportID, userID string) (models.VoteCounts, error) {
	counts, err := r.CountsFor(ctx, []string{reportID}, userID)
	if err != nil {
		return models.VoteCounts{}, err
	}
	return counts[reportID], nil
}

func (r *VoteRepo) CountsFor(ctx context.Context, reportIDs []string, userID string) (map[string]models.VoteCounts, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	wanted := make(map[string]bool, len(reportIDs))
	out := make(map[string]models.VoteCounts, len(reportIDs))
	for _, id := range reportIDs {
		wanted[id] = true
		out[id] = models.VoteCounts{}
	}

	for key, v := range r.votes {
		if !wanted[key.reportID] {
			continue
		}
		c := out[key.reportID]
		switch v.VoteType {
		case models.VoteUp:
			c.Upvotes++
		case models.VoteDown:
			c.Downvotes++
		}
		if userID != "" && key.userID == userID {
			voteType := v.VoteType
			c.UserVote = &voteType
		}
		out[key.reportID] = c
	}
	return out, nil
}

type CommentRepo struct {
	mu       sync.RWMutex
	comments map[string][]models.Comment
}

func NewCommentRepo() *CommentRepo {
	return &CommentRepo{comments: make(map[string][]models.Comment)}
}

// ListByReport returns newest first; equal timestamps keep the later insert first.
func (r *CommentRepo) ListByReport(ctx context.Context, reportID string) ([]models.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.comments[reportID]
	out := make([]models.Comment, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		out = append(out, stored[i])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *CommentRepo) Create(ctx context.Context, c *models.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	r.comments[c.ReportID] = append(r.comments[c.ReportID], *c)
	return nil
}

type UserRepo struct {
	mu    sync.RWMutex
	users map[string]models.User
}

func NewUserRepo() *UserRepo {
	return &UserRepo{users: make(map[string]models.User)}
}

func (r *UserRepo) Create(ctx context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.emailTaken(u.Email, "") {
		return repository.ErrConflict
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = models.RoleCitizen
	}
	now := time.Now()
	u.CreatedAt, u.UpdatedAt = now, now
	r.users[u.ID] = *u
	return nil
}

func (r *UserRepo) emailTaken(email, exceptID string) bool {
	for id, existing := range r.users {
		if id != exceptID && strings.EqualFold(existing.Email, email) {
			return true
		}
	}
	return false
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	email = strings.TrimSpace(email)
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			found := u
			return &found, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepo) Update(ctx context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, ok := r.users[u.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if r.emailTaken(u.Email, u.ID) {
		return repository.ErrConflict
	}
	u.CreatedAt = prev.CreatedAt
	u.UpdatedAt = time.Now()
	r.users[u.ID] = *u
	return nil
}

func (r *UserRepo) List(ctx context.Context, search string, offset, limit int) ([]models.User, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	search = strings.ToLower(strings.TrimSpace(search))
	var matched []models.User
	for _, u := range r.users {
		if search == "" ||
			strings.Contains(strings.ToLower(u.Email), search) ||
			strings.Contains(strings.ToLower(u.FullName), search) {
			matched = append(matched, u)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].Email < matched[j].Email
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	if offset < 0 {
		offset = 0
	}
	if offset >= len(matched) {
		return []models.User{}, total, nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, total, nil
}
