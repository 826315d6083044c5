// Package collyfetcher implements crawler.Fetcher using gocolly.
package collyfetcher

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"github.com/scopecrawl/scopecrawl/internal/crawler"
	"github.com/scopecrawl/scopecrawl/internal/policy/ratelimit"
)

// Config controls collector behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// Fetcher fetches one URL per call with a cloned Colly collector. Pacing is
// enforced here rather than in the orchestrator: every fetch waits on the
// per-domain limiter before touching the network.
type Fetcher struct {
	cfg           Config
	limiter       *ratelimit.Limiter
	transport     http.RoundTripper
	baseCollector *colly.Collector
}

// New builds a Fetcher. A nil limiter disables pacing.
func New(cfg Config, limiter *ratelimit.Limiter) *Fetcher {
	c := colly.NewCollector(colly.Async(false))
	transport := newHTTPTransport()
	c.WithTransport(transport)

	return &Fetcher{
		cfg:           cfg,
		limiter:       limiter,
		transport:     transport,
		baseCollector: c,
	}
}

// Fetch executes a single HTTP GET and parses the response body. Non-2xx
// responses and unparseable bodies are fetch errors.
func (f *Fetcher) Fetch(ctx context.Context, request crawler.FetchRequest) (crawler.FetchResponse, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, request.URL); err != nil {
			return crawler.FetchResponse{}, err
		}
	}

	result, err := f.visit(ctx, request)
	if err != nil {
		return crawler.FetchResponse{}, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(result.Body))
	if err != nil {
		return crawler.FetchResponse{}, fmt.Errorf("parse response body: %w", err)
	}
	result.Document = doc
	return result, nil
}

func (f *Fetcher) buildCollector(
	request crawler.FetchRequest,
	start time.Time,
	result *crawler.FetchResponse,
	fetchErr *error,
) *colly.Collector {
	collector := f.baseCollector.Clone()
	collector.IgnoreRobotsTxt = true
	if request.UserAgent != "" {
		collector.UserAgent = request.UserAgent
	} else if f.cfg.UserAgent != "" {
		collector.UserAgent = f.cfg.UserAgent
	}
	timeout := f.cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	collector.SetRequestTimeout(timeout)
	collector.WithTransport(f.transport)

	collector.OnResponse(func(r *colly.Response) {
		*result = crawler.FetchResponse{
			URL:        r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Body:       append([]byte(nil), r.Body...),
			Duration:   time.Since(start),
		}
	})

	collector.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			*fetchErr = fmt.Errorf("status %d: %w", r.StatusCode, err)
			return
		}
		*fetchErr = err
	})

	return collector
}

type visitOutcome struct {
	response crawler.FetchResponse
	err      error
}

// visit runs one collector pass. The collector and the values its callbacks
// write are confined to the goroutine; only the outcome crosses back, over a
// buffered channel. A caller that gives up on ctx therefore never races a
// late callback write.
func (f *Fetcher) visit(ctx context.Context, request crawler.FetchRequest) (crawler.FetchResponse, error) {
	done := make(chan visitOutcome, 1)
	go func() {
		var (
			response crawler.FetchResponse
			fetchErr error
		)
		start := time.Now()
		collector := f.buildCollector(request, start, &response, &fetchErr)
		err := collector.Visit(request.URL)
		switch {
		case err != nil:
			done <- visitOutcome{err: fmt.Errorf("visit failed: %w", err)}
		case fetchErr != nil:
			done <- visitOutcome{err: fmt.Errorf("fetch failed: %w", fetchErr)}
		default:
			done <- visitOutcome{response: response}
		}
	}()

	select {
	case <-ctx.Done():
		return crawler.FetchResponse{}, fmt.Errorf("fetch canceled: %w", ctx.Err())
	case outcome := <-done:
		return outcome.response, outcome.err
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
