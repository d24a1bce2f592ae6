package assets

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/abhisek/prepdeck/internal/api"
)

type fakeFetcher struct {
	errs  []error
	calls int
}

func (f *fakeFetcher) Fetch(_ context.Context, _ string) error {
	defer func() { f.calls++ }()
	if f.calls < len(f.errs) {
		return f.errs[f.calls]
	}
	return nil
}

type fakeReporter struct {
	reported []string
}

func (r *fakeReporter) ReportBrokenAsset(_ context.Context, questionID string) error {
	r.reported = append(r.reported, questionID)
	return nil
}

func testLoader(f Fetcher, r Reporter) *Loader {
	l := NewLoader(f, r)
	l.backoff = time.Millisecond
	return l
}

func imageQuestion(id string) *api.Question {
	return &api.Question{ID: id, Stem: "stem", HasImage: true, ImageURL: "https://cdn.example.com/" + id + ".png"}
}

func TestResolve_NoImageFastPath(t *testing.T) {
	f := &fakeFetcher{}
	r := &fakeReporter{}
	l := testLoader(f, r)

	res, err := l.Resolve(context.Background(), &api.Question{ID: "q1", Stem: "stem"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res != ResolutionNone {
		t.Fatalf("resolution = %v, want none", res)
	}
	if f.calls != 0 {
		t.Fatalf("fetch calls = %d, want 0", f.calls)
	}
}

func TestResolve_FirstAttemptSucceeds(t *testing.T) {
	f := &fakeFetcher{}
	r := &fakeReporter{}
	l := testLoader(f, r)

	res, err := l.Resolve(context.Background(), imageQuestion("q1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res != ResolutionReady {
		t.Fatalf("resolution = %v, want ready", res)
	}
	if f.calls != 1 {
		t.Fatalf("fetch calls = %d, want 1", f.calls)
	}
}

func TestResolve_RetrySucceeds(t *testing.T) {
	f := &fakeFetcher{errs: []error{errors.New("timeout")}}
	r := &fakeReporter{}
	l := testLoader(f, r)

	res, err := l.Resolve(context.Background(), imageQuestion("q1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res != ResolutionReady {
		t.Fatalf("resolution = %v, want ready", res)
	}
	if f.calls != 2 {
		t.Fatalf("fetch calls = %d, want 2", f.calls)
	}
	if len(r.reported) != 0 {
		t.Fatalf("reported = %v, want none", r.reported)
	}
}

func TestResolve_TwoFailuresExcludes(t *testing.T) {
	f := &fakeFetcher{errs: []error{errors.New("timeout"), errors.New("timeout")}}
	r := &fakeReporter{}
	l := testLoader(f, r)

	res, err := l.Resolve(context.Background(), imageQuestion("q7"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res != ResolutionExcluded {
		t.Fatalf("resolution = %v, want excluded", res)
	}
	// Exactly two attempts, never a third.
	if f.calls != 2 {
		t.Fatalf("fetch calls = %d, want 2", f.calls)
	}
	if len(r.reported) != 1 || r.reported[0] != "q7" {
		t.Fatalf("reported = %v, want [q7]", r.reported)
	}
}

func TestResolve_ReportFailureStillExcludes(t *testing.T) {
	f := &fakeFetcher{errs: []error{errors.New("x"), errors.New("x")}}
	l := testLoader(f, failingReporter{})

	res, err := l.Resolve(context.Background(), imageQuestion("q1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res != ResolutionExcluded {
		t.Fatalf("resolution = %v, want excluded", res)
	}
}

type failingReporter struct{}

func (failingReporter) ReportBrokenAsset(context.Context, string) error {
	return errors.New("report failed")
}

func TestResolve_ContextCanceledDuringBackoff(t *testing.T) {
	f := &fakeFetcher{errs: []error{errors.New("x"), errors.New("x")}}
	r := &fakeReporter{}
	l := NewLoader(f, r)
	l.backoff = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.Resolve(ctx, imageQuestion("q1"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestHTTPFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path == "/broken.png" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("png-bytes"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(2 * time.Second)

	if err := f.Fetch(context.Background(), srv.URL+"/ok.png"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.Fetch(context.Background(), srv.URL+"/broken.png"); err == nil {
		t.Fatal("expected error for HTTP 500")
	}
}
