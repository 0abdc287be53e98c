// Package cache holds the read-through cache for task queries: a single
// most-recent list slot plus a per-task detail map, both TTL-bounded.
// Absence never signals non-existence, only "not cached".
package cache

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/taskmgr/task-manager-api/internal/core/domain"
)

// DefaultTTL bounds entries when no TTL is configured.
const DefaultTTL = 300 * time.Second

// TaskListPage is the cached value of one list query.
type TaskListPage struct {
	Count int64             `json:"count"`
	Tasks []domain.TaskView `json:"tasks"`
}

type detailEntry struct {
	view      *domain.TaskView
	expiresAt time.Time
}

// TaskCache memoizes the last task-list query result and individual task
// details. The list side is deliberately a single slot ("last query wins"),
// not an LRU: list results may depend on the mutated row through arbitrary
// filters, so writes clear the whole slot anyway.
type TaskCache struct {
	ttl time.Duration
	now func() time.Time

	listMu      sync.RWMutex
	listKey     string
	listVal     *TaskListPage
	listExpires time.Time

	detailMu sync.RWMutex
	details  map[string]detailEntry
}

// Option configures a TaskCache.
type Option func(*TaskCache)

// WithClock overrides the time source (used by tests).
func WithClock(now func() time.Time) Option {
	return func(c *TaskCache) {
		if now != nil {
			c.now = now
		}
	}
}

// New builds a TaskCache with the given TTL; ttl <= 0 falls back to DefaultTTL.
func New(ttl time.Duration, opts ...Option) *TaskCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &TaskCache{
		ttl:     ttl,
		now:     time.Now,
		details: make(map[string]detailEntry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListKey canonicalizes a filter set plus pagination into a cache key:
// filter pairs are sorted so semantically identical queries collide
// regardless of insertion order.
func ListKey(filters map[string]string, page, limit int) string {
	pairs := make([]string, 0, len(filters))
	for k, v := range filters {
		if v == "" {
			continue
		}
		pairs = append(pairs, k+"="+v)
	}
	sort.Strings(pairs)
	return fmt.Sprintf("%s|page=%d|limit=%d", strings.Join(pairs, "&"), page, limit)
}

// GetList returns the cached page for key, or nil on miss. A stale or
// mismatched entry counts as a miss and is evicted.
func (c *TaskCache) GetList(key string) *TaskListPage {
	c.listMu.Lock()
	defer c.listMu.Unlock()

	if c.listVal == nil || c.listKey != key {
		return nil
	}
	if !c.now().Before(c.listExpires) {
		c.clearListLocked()
		return nil
	}
	return c.listVal
}

// PutList overwrites the list slot unconditionally with a fresh expiry,
// evicting whatever was cached under a different key.
func (c *TaskCache) PutList(key string, page *TaskListPage) {
	c.listMu.Lock()
	defer c.listMu.Unlock()

	c.listKey = key
	c.listVal = page
	c.listExpires = c.now().Add(c.ttl)
}

// InvalidateList clears the list slot. Called after every task write:
// coarse invalidation, correctness over precision.
func (c *TaskCache) InvalidateList() {
	c.listMu.Lock()
	defer c.listMu.Unlock()
	c.clearListLocked()
}

func (c *TaskCache) clearListLocked() {
	c.listKey = ""
	c.listVal = nil
	c.listExpires = time.Time{}
}

// GetDetail returns the cached view for a task id, or nil on miss.
func (c *TaskCache) GetDetail(taskID string) *domain.TaskView {
	c.detailMu.Lock()
	defer c.detailMu.Unlock()

	entry, ok := c.details[taskID]
	if !ok {
		return nil
	}
	if !c.now().Before(entry.expiresAt) {
		delete(c.details, taskID)
		return nil
	}
	return entry.view
}

// PutDetail stores the view under the task id with a fresh expiry.
func (c *TaskCache) PutDetail(taskID string, view *domain.TaskView) {
	c.detailMu.Lock()
	defer c.detailMu.Unlock()

	c.details[taskID] = detailEntry{view: view, expiresAt: c.now().Add(c.ttl)}
}

// InvalidateDetail evicts one task's detail entry.
func (c *TaskCache) InvalidateDetail(taskID string) {
	c.detailMu.Lock()
	defer c.detailMu.Unlock()
	delete(c.details, taskID)
}
