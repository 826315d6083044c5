// Package crawler defines core types shared across subsystems.
package crawler

import (
	"time"

	"github.com/PuerkitoBio/goquery"
)

// CrawlTask is one claimed unit of work handed to a fetch worker.
// It is the in-memory projection of a claimed frontier row and is
// never persisted itself.
type CrawlTask struct {
	URL   string
	Depth int
}

// FrontierEntry mirrors one durable frontier row.
type FrontierEntry struct {
	ID      int64
	URL     string
	Depth   int
	Claimed bool
}

// FrontierStats summarizes frontier progress for logging and the status API.
type FrontierStats struct {
	Claimed   int64 `json:"claimed"`
	Unclaimed int64 `json:"unclaimed"`
}

// PageRecord is the persisted result of one successful fetch.
// Description is nil when the page carries no description metadata.
type PageRecord struct {
	URL         string
	Title       string
	Description *string
	RawContent  []byte
	FetchedAt   time.Time
}

// FetchRequest captures everything needed to fetch a URL.
type FetchRequest struct {
	URL       string
	Depth     int
	UserAgent string
}

// FetchResponse is the result returned by a Fetcher implementation.
// Document is the parsed form of Body and is always non-nil on success.
type FetchResponse struct {
	URL        string
	StatusCode int
	Body       []byte
	Document   *goquery.Document
	Duration   time.Duration
}
