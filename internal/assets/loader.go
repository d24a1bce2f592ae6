// Package assets preloads question images so a question is never shown
// with a broken illustration. A failing image gets exactly one retry after
// a fixed backoff; a second failure reports the question for permanent
// exclusion and the session moves on to a different question.
package assets

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/abhisek/prepdeck/internal/api"
)

// DefaultBackoff is the wait between the first and second load attempt.
const DefaultBackoff = 1 * time.Second

// maxAttempts bounds the worst case to two loads per defective question.
const maxAttempts = 2

// Resolution is the outcome of resolving a question's image.
type Resolution int

const (
	// ResolutionNone means the question has no image (fast path).
	ResolutionNone Resolution = iota
	// ResolutionReady means the image loaded and the question can render.
	ResolutionReady
	// ResolutionExcluded means the image failed twice and the question
	// was reported for exclusion; it must not be rendered.
	ResolutionExcluded
)

func (r Resolution) String() string {
	switch r {
	case ResolutionNone:
		return "none"
	case ResolutionReady:
		return "ready"
	case ResolutionExcluded:
		return "excluded"
	default:
		return "unknown"
	}
}

// Fetcher loads one image asset.
type Fetcher interface {
	Fetch(ctx context.Context, url string) error
}

// Reporter signals a permanently defective question. api.Client satisfies
// this.
type Reporter interface {
	ReportBrokenAsset(ctx context.Context, questionID string) error
}

// Loader resolves question images with bounded retry.
type Loader struct {
	fetcher  Fetcher
	reporter Reporter
	backoff  time.Duration

	// sleep is injectable so tests don't wait out the backoff.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewLoader creates a Loader with the default backoff.
func NewLoader(fetcher Fetcher, reporter Reporter) *Loader {
	return &Loader{
		fetcher:  fetcher,
		reporter: reporter,
		backoff:  DefaultBackoff,
		sleep:    sleepCtx,
	}
}

// WithBackoff overrides the delay between the two fetch attempts and
// returns the loader for chaining.
func (l *Loader) WithBackoff(d time.Duration) *Loader {
	l.backoff = d
	return l
}

// Resolve loads q's image if it has one. The returned error is non-nil only
// when ctx ends during the backoff; asset failure itself is never an error,
// it resolves to ResolutionExcluded.
func (l *Loader) Resolve(ctx context.Context, q *api.Question) (Resolution, error) {
	if q == nil || !q.HasImage || q.ImageURL == "" {
		return ResolutionNone, nil
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			if err := l.sleep(ctx, l.backoff); err != nil {
				return ResolutionNone, err
			}
		}
		if lastErr = l.fetcher.Fetch(ctx, q.ImageURL); lastErr == nil {
			return ResolutionReady, nil
		}
	}

	// Both attempts failed: report and move on. The report's result is
	// deliberately ignored; the session must not stall behind it.
	_ = l.reporter.ReportBrokenAsset(ctx, q.ID)
	return ResolutionExcluded, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// HTTPFetcher loads images over HTTP.
type HTTPFetcher struct {
	client *http.Client
}

var _ Fetcher = (*HTTPFetcher)(nil)

// NewHTTPFetcher creates a fetcher with the given timeout per attempt.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{client: &http.Client{Timeout: timeout}}
}

// Fetch downloads the asset and discards the bytes; the point is to warm
// the cache and prove the asset is servable.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch image: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("fetch image: HTTP %d", resp.StatusCode)
	}

	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return fmt.Errorf("read image: %w", err)
	}
	return nil
}
