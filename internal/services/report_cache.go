package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/civicpulse/backend/internal/metrics"
	"github.com/civicpulse/backend/internal/models"
	"github.com/civicpulse/backend/internal/repository"
)

// ReportCache holds every report in memory. It is filled by one full load and
// kept current by Put after each mutation; it reloads only when the TTL expires.
type ReportCache struct {
	mu       sync.RWMutex
	repo     repository.ReportRepository
	ttl      time.Duration
	items    map[string]models.Report
	loadedAt time.Time
	now      func() time.Time
}

func NewReportCache(repo repository.ReportRepository, ttl time.Duration) *ReportCache {
	return &ReportCache{repo: repo, ttl: ttl, now: time.Now}
}

func (c *ReportCache) fresh() bool {
	if c.items == nil {
		return false
	}
	return c.ttl <= 0 || c.now().Sub(c.loadedAt) < c.ttl
}

func (c *ReportCache) ensure(ctx context.Context) error {
	c.mu.RLock()
	ok := c.fresh()
	c.mu.RUnlock()
	if ok {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fresh() {
		return nil
	}

	reports, err := c.repo.List(ctx)
	if err != nil {
		return storeErr("load reports", err)
	}
	items := make(map[string]models.Report, len(reports))
	for _, r := range reports {
		items[r.ID] = r.Clone()
	}
	c.items = items
	c.loadedAt = c.now()
	metrics.CachedReports.Set(float64(len(items)))
	return nil
}

// All returns copies of every report, newest first.
func (c *ReportCache) All(ctx context.Context) ([]models.Report, error) {
	if err := c.ensure(ctx); err != nil {
		return nil, err
	}

	c.mu.RLock()
	out := make([]models.Report, 0, len(c.items))
	for _, r := range c.items {
		out = append(out, r.Clone())
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Get returns a copy of one report, falling back to the store on a miss.
func (c *ReportCache) Get(ctx context.Context, id string) (*models.Report, error) {
	if err := c.ensure(ctx); err != nil {
		return nil, err
	}

	c.mu.RLock()
	r, ok := c.items[id]
	c.mu.RUnlock()
	if ok {
		out := r.Clone()
		return &out, nil
	}

	fetched, err := c.repo.Get(ctx, id)
	if err != nil {
		return nil, storeErr("get report", err)
	}
	c.Put(fetched)
	return fetched, nil
}

// Put patches one entry in place.
func (c *ReportCache) Put(r *models.Report) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.items == nil {
		return
	}
	c.items[r.ID] = r.Clone()
	metrics.CachedReports.Set(float64(len(c.items)))
}
