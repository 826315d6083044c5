package collyfetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/scopecrawl/scopecrawl/internal/crawler"
	"github.com/scopecrawl/scopecrawl/internal/policy/ratelimit"
)

func TestFetcherReturnsBodyAndDocument(t *testing.T) {
	t.Parallel()

	var gotUA string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.UserAgent()
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><title>Hello</title></head><body></body></html>`))
	}))
	defer ts.Close()

	f := New(Config{UserAgent: "scopecrawl-test", Timeout: 5 * time.Second}, nil)
	resp, err := f.Fetch(context.Background(), crawler.FetchRequest{URL: ts.URL})
	require.NoError(t, err)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(resp.Body), "<title>Hello</title>")
	require.NotNil(t, resp.Document)
	require.Equal(t, "Hello", resp.Document.Find("title").Text())
	require.Equal(t, "scopecrawl-test", gotUA)
	require.Positive(t, resp.Duration)
}

func TestFetcherRequestUserAgentOverride(t *testing.T) {
	t.Parallel()

	var gotUA string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.UserAgent()
		_, _ = w.Write([]byte(`<html></html>`))
	}))
	defer ts.Close()

	f := New(Config{UserAgent: "default-agent"}, nil)
	_, err := f.Fetch(context.Background(), crawler.FetchRequest{
		URL:       ts.URL,
		UserAgent: "per-request-agent",
	})
	require.NoError(t, err)
	require.Equal(t, "per-request-agent", gotUA)
}

func TestFetcherNonOKStatusIsError(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer ts.Close()

	f := New(Config{}, nil)
	_, err := f.Fetch(context.Background(), crawler.FetchRequest{URL: ts.URL})
	require.Error(t, err)
}

func TestFetcherConnectionFailureIsError(t *testing.T) {
	t.Parallel()

	// Grab a port nobody is listening on.
	ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := ts.URL
	ts.Close()

	f := New(Config{Timeout: time.Second}, nil)
	_, err := f.Fetch(context.Background(), crawler.FetchRequest{URL: url})
	require.Error(t, err)
}

func TestFetcherCancelMidFetch(t *testing.T) {
	t.Parallel()

	// Hold the response open until after the caller has canceled, so the
	// collector finishes (and its callbacks fire) only once Fetch has
	// already returned.
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
		_, _ = w.Write([]byte(`<html><head><title>late</title></head></html>`))
	}))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := New(Config{Timeout: 5 * time.Second}, nil)
	errCh := make(chan error, 1)
	go func() {
		_, err := f.Fetch(ctx, crawler.FetchRequest{URL: ts.URL})
		errCh <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Fetch did not return after cancel")
	}
	close(release)
}

func TestFetcherWaitsOnLimiterContext(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html></html>`))
	}))
	defer ts.Close()

	limiter := ratelimit.New(ratelimit.Config{DefaultRPS: 0.001, DefaultBurst: 1})
	f := New(Config{}, limiter)

	// First fetch consumes the burst token.
	_, err := f.Fetch(context.Background(), crawler.FetchRequest{URL: ts.URL})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = f.Fetch(ctx, crawler.FetchRequest{URL: ts.URL})
	require.Error(t, err)
}
