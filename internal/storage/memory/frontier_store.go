// Package memory provides in-memory store implementations for tests and
// local development without Postgres.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/scopecrawl/scopecrawl/internal/crawler"
)

// FrontierStore is a mutex-guarded in-memory crawler.Frontier with the same
// semantics as the Postgres store: unique URLs, frozen first-discovery depth,
// single false->true claim transition.
type FrontierStore struct {
	mu      sync.Mutex
	nextID  int64
	entries map[string]*crawler.FrontierEntry
}

// NewFrontierStore constructs an empty FrontierStore.
func NewFrontierStore() *FrontierStore {
	return &FrontierStore{
		nextID:  1,
		entries: make(map[string]*crawler.FrontierEntry),
	}
}

// Seed inserts the URL at depth 0 if absent.
func (s *FrontierStore) Seed(ctx context.Context, url string) error {
	return s.Enqueue(ctx, []string{url}, 0)
}

// Enqueue inserts unknown URLs at the given depth; known URLs are skipped.
func (s *FrontierStore) Enqueue(_ context.Context, urls []string, depth int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, url := range urls {
		if _, exists := s.entries[url]; exists {
			continue
		}
		s.entries[url] = &crawler.FrontierEntry{
			ID:    s.nextID,
			URL:   url,
			Depth: depth,
		}
		s.nextID++
	}
	return nil
}

// ClaimNext marks and returns the shallowest unclaimed entry with
// depth <= maxDepth. The whole select-and-mark runs under the store mutex.
func (s *FrontierStore) ClaimNext(_ context.Context, maxDepth int) (crawler.CrawlTask, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var candidate *crawler.FrontierEntry
	for _, entry := range s.entries {
		if entry.Claimed || entry.Depth > maxDepth {
			continue
		}
		if candidate == nil ||
			entry.Depth < candidate.Depth ||
			(entry.Depth == candidate.Depth && entry.ID < candidate.ID) {
			candidate = entry
		}
	}
	if candidate == nil {
		return crawler.CrawlTask{}, false, nil
	}
	candidate.Claimed = true
	return crawler.CrawlTask{URL: candidate.URL, Depth: candidate.Depth}, true, nil
}

// ClaimBatch claims up to n tasks, stopping early on exhaustion.
func (s *FrontierStore) ClaimBatch(ctx context.Context, n, maxDepth int) ([]crawler.CrawlTask, error) {
	var tasks []crawler.CrawlTask
	for len(tasks) < n {
		task, ok, err := s.ClaimNext(ctx, maxDepth)
		if err != nil {
			return tasks, err
		}
		if !ok {
			break
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// Stats reports claimed/unclaimed counts.
func (s *FrontierStore) Stats(_ context.Context) (crawler.FrontierStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var stats crawler.FrontierStats
	for _, entry := range s.entries {
		if entry.Claimed {
			stats.Claimed++
		} else {
			stats.Unclaimed++
		}
	}
	return stats, nil
}

// Entries returns a snapshot of all frontier rows ordered by ID, for test
// assertions.
func (s *FrontierStore) Entries() []crawler.FrontierEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]crawler.FrontierEntry, 0, len(s.entries))
	for _, entry := range s.entries {
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
