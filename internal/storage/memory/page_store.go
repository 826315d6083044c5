package memory

import (
	"context"
	"sync"

	"github.com/scopecrawl/scopecrawl/internal/crawler"
)

// PageStore is a mutex-guarded in-memory crawler.PageStore.
type PageStore struct {
	mu    sync.RWMutex
	pages map[string]crawler.PageRecord
}

// NewPageStore constructs an empty PageStore.
func NewPageStore() *PageStore {
	return &PageStore{pages: make(map[string]crawler.PageRecord)}
}

// Upsert stores the record, replacing any previous row for the URL.
func (s *PageStore) Upsert(_ context.Context, page crawler.PageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[page.URL] = page
	return nil
}

// Get returns the stored record for a URL, for test assertions.
func (s *PageStore) Get(url string) (crawler.PageRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	page, ok := s.pages[url]
	return page, ok
}

// Len reports the number of stored pages.
func (s *PageStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pages)
}
