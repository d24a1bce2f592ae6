package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/abhisek/prepdeck/internal/api"
	"github.com/abhisek/prepdeck/internal/assets"
	"github.com/abhisek/prepdeck/internal/gate"
	"github.com/abhisek/prepdeck/internal/store"
)

type scriptedFetcher struct {
	// fail maps an image URL to how many times fetching it should fail
	// before succeeding.
	fail  map[string]int
	calls []string
}

func (f *scriptedFetcher) Fetch(ctx context.Context, url string) error {
	f.calls = append(f.calls, url)
	if n := f.fail[url]; n > 0 {
		f.fail[url] = n - 1
		return errors.New("fetch failed")
	}
	return nil
}

func newTestController(client *api.Mock, fetcher assets.Fetcher) *Controller {
	if fetcher == nil {
		fetcher = &scriptedFetcher{}
	}
	loader := assets.NewLoader(fetcher, client).WithBackoff(time.Millisecond)
	c := New(client, loader, gate.New(client), nil)
	c.newAttemptID = func() string { return "attempt-1" }
	return c
}

func questionPayload(id string, number int, imageURL string) *api.NextQuestion {
	return &api.NextQuestion{
		QuestionNumber: number,
		TotalQuestions: 12,
		Question: &api.Question{
			ID:       id,
			Stem:     "What is 2+2?",
			HasImage: imageURL != "",
			ImageURL: imageURL,
			Category: "arithmetic",
		},
	}
}

func TestStartFreshSession(t *testing.T) {
	client := &api.Mock{
		SessionStatusFunc: func(ctx context.Context) (*api.SessionStatus, error) {
			return &api.SessionStatus{ActiveSession: false}, nil
		},
		LimitStatusFunc: func(ctx context.Context) (*api.LimitStatus, error) {
			return &api.LimitStatus{LimitReached: false, CompletedSessions: 2}, nil
		},
		StartSessionFunc: func(ctx context.Context) (*api.StartedSession, error) {
			return &api.StartedSession{SessionID: "s-new", TotalQuestions: 12}, nil
		},
	}
	c := newTestController(client, nil)

	out, err := c.StartOrResume(context.Background())
	if err != nil {
		t.Fatalf("StartOrResume: %v", err)
	}
	if out.Resumed || out.UpgradeRequired {
		t.Fatalf("expected plain fresh start, got %+v", out)
	}
	if out.Session.ID != "s-new" {
		t.Errorf("session id = %q, want s-new", out.Session.ID)
	}
	if out.Session.Ordinal != 3 {
		t.Errorf("ordinal = %d, want completed+1 = 3", out.Session.Ordinal)
	}
	if c.Phase() != PhaseFetching {
		t.Errorf("phase = %s, want fetching", c.Phase())
	}
}

func TestResumeAdoptsActiveSessionWithoutStarting(t *testing.T) {
	client := &api.Mock{
		SessionStatusFunc: func(ctx context.Context) (*api.SessionStatus, error) {
			return &api.SessionStatus{
				ActiveSession:   true,
				SessionID:       "s-live",
				Ordinal:         4,
				CurrentQuestion: 7,
				TotalQuestions:  12,
			}, nil
		},
	}
	c := newTestController(client, nil)

	out, err := c.StartOrResume(context.Background())
	if err != nil {
		t.Fatalf("StartOrResume: %v", err)
	}
	if !out.Resumed {
		t.Fatal("expected Resumed")
	}
	if out.Session.ID != "s-live" || out.Session.Ordinal != 4 {
		t.Errorf("session = %+v", out.Session)
	}
	if out.Session.Current != 7 {
		t.Errorf("current = %d, want 7", out.Session.Current)
	}
	if n := client.CallCount("start_session"); n != 0 {
		t.Errorf("start_session called %d times during resume", n)
	}
	if n := client.CallCount("limit_status"); n != 0 {
		t.Errorf("limit_status called %d times; server ordinal was present", n)
	}
}

func TestQuotaDeniedMakesNoStartCall(t *testing.T) {
	client := &api.Mock{
		SessionStatusFunc: func(ctx context.Context) (*api.SessionStatus, error) {
			return &api.SessionStatus{ActiveSession: false}, nil
		},
		LimitStatusFunc: func(ctx context.Context) (*api.LimitStatus, error) {
			return &api.LimitStatus{LimitReached: true, CompletedSessions: 3}, nil
		},
	}
	c := newTestController(client, nil)

	out, err := c.StartOrResume(context.Background())
	if err != nil {
		t.Fatalf("StartOrResume: %v", err)
	}
	if !out.UpgradeRequired {
		t.Fatal("expected UpgradeRequired")
	}
	for _, call := range client.Calls() {
		if call == "start_session" {
			t.Fatal("start_session must not be called when the quota is exhausted")
		}
	}
	if c.Phase() != PhaseIdle {
		t.Errorf("phase = %s, want idle", c.Phase())
	}
}

func TestNextQuestionDeliversAndAdvancesPhase(t *testing.T) {
	client := &api.Mock{
		NextQuestionFunc: func(ctx context.Context, sessionID string) (*api.NextQuestion, error) {
			return questionPayload("q1", 1, ""), nil
		},
	}
	c := newTestController(client, nil)
	c.phase = PhaseFetching
	c.session = Session{ID: "s1"}

	qs, comp, err := c.NextQuestion(context.Background())
	if err != nil {
		t.Fatalf("NextQuestion: %v", err)
	}
	if comp != nil {
		t.Fatal("unexpected completion")
	}
	if qs.Question.ID != "q1" || qs.Number != 1 {
		t.Errorf("question = %+v", qs)
	}
	if qs.Image != ImageNone {
		t.Errorf("image state = %d, want none", qs.Image)
	}
	if c.Phase() != PhaseAwaitingAnswer {
		t.Errorf("phase = %s, want awaiting-answer", c.Phase())
	}
}

func TestNextQuestionSkipsExcludedAndRefetches(t *testing.T) {
	fetcher := &scriptedFetcher{fail: map[string]int{
		"https://img/q1.png": 2, // both attempts fail: excluded
		"https://img/q2.png": 1, // first fails, retry succeeds
	}}
	served := 0
	client := &api.Mock{
		NextQuestionFunc: func(ctx context.Context, sessionID string) (*api.NextQuestion, error) {
			served++
			if served == 1 {
				return questionPayload("q1", 3, "https://img/q1.png"), nil
			}
			return questionPayload("q2", 3, "https://img/q2.png"), nil
		},
	}
	c := newTestController(client, fetcher)
	c.phase = PhaseFetching
	c.session = Session{ID: "s1"}

	qs, _, err := c.NextQuestion(context.Background())
	if err != nil {
		t.Fatalf("NextQuestion: %v", err)
	}
	if qs.Question.ID != "q2" {
		t.Errorf("question = %s, want q2 after q1 excluded", qs.Question.ID)
	}
	if qs.Number != 3 {
		t.Errorf("number = %d; replacement keeps the same slot", qs.Number)
	}
	if qs.Image != ImageReady {
		t.Errorf("image state = %d, want ready", qs.Image)
	}
	if n := client.CallCount("report_broken_asset"); n != 1 {
		t.Errorf("report_broken_asset called %d times, want 1", n)
	}
	// Exactly two fetches for the broken image, two for the flaky one.
	if len(fetcher.calls) != 4 {
		t.Errorf("fetch calls = %v", fetcher.calls)
	}
}

func TestNextQuestionCompletion(t *testing.T) {
	client := &api.Mock{
		NextQuestionFunc: func(ctx context.Context, sessionID string) (*api.NextQuestion, error) {
			return &api.NextQuestion{SessionComplete: true, QuestionsCompleted: 12, TotalQuestions: 12}, nil
		},
	}
	c := newTestController(client, nil)
	c.phase = PhaseFetching
	c.session = Session{ID: "s1"}

	qs, comp, err := c.NextQuestion(context.Background())
	if err != nil {
		t.Fatalf("NextQuestion: %v", err)
	}
	if qs != nil {
		t.Fatal("unexpected question at completion")
	}
	if comp == nil || comp.QuestionsCompleted != 12 {
		t.Fatalf("completion = %+v", comp)
	}
	if c.Phase() != PhaseCompleted {
		t.Errorf("phase = %s, want completed", c.Phase())
	}
}

func TestNextQuestionNotFoundCompletesFromLocalCounters(t *testing.T) {
	client := &api.Mock{
		NextQuestionFunc: func(ctx context.Context, sessionID string) (*api.NextQuestion, error) {
			return nil, &api.ErrNotFound{Resource: "session"}
		},
	}
	c := newTestController(client, nil)
	c.phase = PhaseFetching
	c.session = Session{ID: "s1", Progress: Progress{Current: 5, Total: 12}}

	_, comp, err := c.NextQuestion(context.Background())
	if err != nil {
		t.Fatalf("NextQuestion: %v", err)
	}
	if comp == nil || comp.QuestionsCompleted != 5 || comp.TotalQuestions != 12 {
		t.Fatalf("completion = %+v", comp)
	}
	if c.Phase() != PhaseCompleted {
		t.Errorf("phase = %s, want completed", c.Phase())
	}
}

func TestSubmitJudgesAnswer(t *testing.T) {
	var got api.SubmitInput
	client := &api.Mock{
		SubmitAnswerFunc: func(ctx context.Context, in api.SubmitInput) (*api.AnswerResult, error) {
			got = in
			return &api.AnswerResult{Correct: true, UserAnswer: in.Answer, CorrectAnswer: "4"}, nil
		},
	}
	c := newTestController(client, nil)
	c.phase = PhaseAwaitingAnswer
	c.session = Session{ID: "s1"}
	c.current = &QuestionState{Question: &api.Question{ID: "q1", Category: "arithmetic"}, Number: 1}

	result, err := c.Submit(context.Background(), "4")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !result.Correct {
		t.Error("expected correct judgment")
	}
	if got.SessionID != "s1" || got.QuestionID != "q1" || got.Answer != "4" {
		t.Errorf("submit input = %+v", got)
	}
	if got.AttemptID == "" {
		t.Error("attempt id missing")
	}
	if c.Phase() != PhaseShowingResult {
		t.Errorf("phase = %s, want showing-result", c.Phase())
	}
}

func TestSubmitRejectedAfterJudgment(t *testing.T) {
	client := &api.Mock{
		SubmitAnswerFunc: func(ctx context.Context, in api.SubmitInput) (*api.AnswerResult, error) {
			return &api.AnswerResult{Correct: false}, nil
		},
	}
	c := newTestController(client, nil)
	c.phase = PhaseAwaitingAnswer
	c.session = Session{ID: "s1"}
	c.current = &QuestionState{Question: &api.Question{ID: "q1"}}

	if _, err := c.Submit(context.Background(), "3"); err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	if _, err := c.Submit(context.Background(), "3"); !errors.Is(err, ErrAlreadyJudged) {
		t.Fatalf("second Submit err = %v, want ErrAlreadyJudged", err)
	}
	if n := client.CallCount("submit_answer"); n != 1 {
		t.Errorf("submit_answer called %d times, want 1", n)
	}
}

func TestSubmitRejectedWhileInFlight(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	client := &api.Mock{
		SubmitAnswerFunc: func(ctx context.Context, in api.SubmitInput) (*api.AnswerResult, error) {
			close(started)
			<-release
			return &api.AnswerResult{Correct: true}, nil
		},
	}
	c := newTestController(client, nil)
	c.phase = PhaseAwaitingAnswer
	c.session = Session{ID: "s1"}
	c.current = &QuestionState{Question: &api.Question{ID: "q1"}}

	done := make(chan error, 1)
	go func() {
		_, err := c.Submit(context.Background(), "4")
		done <- err
	}()
	<-started

	if _, err := c.Submit(context.Background(), "4"); !errors.Is(err, ErrSubmitInFlight) {
		t.Fatalf("concurrent Submit err = %v, want ErrSubmitInFlight", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	if n := client.CallCount("submit_answer"); n != 1 {
		t.Errorf("submit_answer called %d times, want 1", n)
	}
}

func TestSubmitTransientFailureAllowsRetry(t *testing.T) {
	attempts := 0
	client := &api.Mock{
		SubmitAnswerFunc: func(ctx context.Context, in api.SubmitInput) (*api.AnswerResult, error) {
			attempts++
			if attempts == 1 {
				return nil, &api.ErrTransient{Status: 503}
			}
			return &api.AnswerResult{Correct: true}, nil
		},
	}
	c := newTestController(client, nil)
	c.phase = PhaseAwaitingAnswer
	c.session = Session{ID: "s1"}
	c.current = &QuestionState{Question: &api.Question{ID: "q1"}}

	if _, err := c.Submit(context.Background(), "4"); !api.IsTransient(err) {
		t.Fatalf("first Submit err = %v, want transient", err)
	}
	if c.Phase() != PhaseAwaitingAnswer {
		t.Fatalf("phase after transient failure = %s, want awaiting-answer", c.Phase())
	}
	if _, err := c.Submit(context.Background(), "4"); err != nil {
		t.Fatalf("retry Submit: %v", err)
	}
	if c.Phase() != PhaseShowingResult {
		t.Errorf("phase = %s, want showing-result", c.Phase())
	}
}

func TestUnauthenticatedSignsOut(t *testing.T) {
	client := &api.Mock{
		SessionStatusFunc: func(ctx context.Context) (*api.SessionStatus, error) {
			return nil, &api.ErrUnauthenticated{}
		},
	}
	c := newTestController(client, nil)

	if _, err := c.StartOrResume(context.Background()); !api.IsUnauthenticated(err) {
		t.Fatalf("err = %v, want unauthenticated", err)
	}
	if c.Phase() != PhaseSignedOut {
		t.Errorf("phase = %s, want signed-out", c.Phase())
	}
}

func TestAdvanceClearsQuestionState(t *testing.T) {
	c := newTestController(&api.Mock{}, nil)
	c.phase = PhaseShowingResult
	c.current = &QuestionState{Question: &api.Question{ID: "q1"}}
	c.result = &api.AnswerResult{Correct: true}

	if err := c.Advance(); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if c.Current() != nil || c.Result() != nil {
		t.Error("per-question state must not survive advance")
	}
	if c.Phase() != PhaseFetching {
		t.Errorf("phase = %s, want fetching", c.Phase())
	}

	if err := c.Advance(); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("second Advance err = %v, want ErrWrongPhase", err)
	}
}

func TestDoubtAvailableOnlyAfterJudgment(t *testing.T) {
	c := newTestController(&api.Mock{}, nil)
	c.phase = PhaseAwaitingAnswer
	c.session = Session{ID: "s1"}
	c.current = &QuestionState{Question: &api.Question{ID: "q1"}}

	if m := c.Doubt(); m != nil {
		t.Fatal("doubt manager available before judgment")
	}

	c.result = &api.AnswerResult{Correct: false}
	m := c.Doubt()
	if m == nil {
		t.Fatal("doubt manager missing after judgment")
	}
	if m2 := c.Doubt(); m2 != m {
		t.Error("doubt manager must be stable per question")
	}
}

func TestAssetSkipLimit(t *testing.T) {
	fetcher := &scriptedFetcher{fail: map[string]int{}}
	served := 0
	client := &api.Mock{
		NextQuestionFunc: func(ctx context.Context, sessionID string) (*api.NextQuestion, error) {
			served++
			url := fmt.Sprintf("https://img/q%d.png", served)
			fetcher.fail[url] = 2
			return questionPayload(fmt.Sprintf("q%d", served), 1, url), nil
		},
	}
	c := newTestController(client, fetcher)
	c.phase = PhaseFetching
	c.session = Session{ID: "s1"}

	_, _, err := c.NextQuestion(context.Background())
	if !errors.Is(err, ErrAssetSkipLimit) {
		t.Fatalf("err = %v, want ErrAssetSkipLimit", err)
	}
	if served != maxAssetSkips+1 {
		t.Errorf("served %d questions before giving up, want %d", served, maxAssetSkips+1)
	}
}

// recordingJournal captures journal writes along with the contexts they
// arrived on.
type recordingJournal struct {
	exclusions    []string
	exclusionCtxs []context.Context
}

func (j *recordingJournal) AppendSession(ctx context.Context, rec store.SessionRecord) error {
	return nil
}

func (j *recordingJournal) AppendAnswer(ctx context.Context, rec store.AnswerRecord) error {
	return nil
}

func (j *recordingJournal) AppendExclusion(ctx context.Context, questionID string) error {
	j.exclusions = append(j.exclusions, questionID)
	j.exclusionCtxs = append(j.exclusionCtxs, ctx)
	return nil
}

func (j *recordingJournal) RecordAPICall(ctx context.Context, rec api.CallRecord) error {
	return nil
}

func (j *recordingJournal) CompletedSessions(ctx context.Context) (int, error) { return 0, nil }

func (j *recordingJournal) OverallAccuracy(ctx context.Context) (attempted, correct int, err error) {
	return 0, 0, nil
}

func (j *recordingJournal) TopicCoverage(ctx context.Context) ([]store.TopicStats, error) {
	return nil, nil
}

func (j *recordingJournal) RecentSessions(ctx context.Context, limit int) ([]store.SessionSummary, error) {
	return nil, nil
}

func TestNextQuestionRejectsEmptyPayload(t *testing.T) {
	client := &api.Mock{
		NextQuestionFunc: func(ctx context.Context, sessionID string) (*api.NextQuestion, error) {
			// Neither a question nor a completion marker.
			return &api.NextQuestion{}, nil
		},
	}
	c := newTestController(client, nil)
	c.phase = PhaseFetching
	c.session = Session{ID: "s1"}

	q, done, err := c.NextQuestion(context.Background())
	var inv *api.ErrInvalidPayload
	if !errors.As(err, &inv) {
		t.Fatalf("err = %v, want ErrInvalidPayload", err)
	}
	if q != nil || done != nil {
		t.Errorf("q = %v, done = %v, want both nil", q, done)
	}
	if c.Phase() != PhaseFetching {
		t.Errorf("phase = %s, want fetching so the fetch can be retried", c.Phase())
	}
}

func TestExclusionJournaledOffRequestContext(t *testing.T) {
	fetcher := &scriptedFetcher{fail: map[string]int{
		"https://img/q1.png": 2,
	}}
	served := 0
	client := &api.Mock{
		NextQuestionFunc: func(ctx context.Context, sessionID string) (*api.NextQuestion, error) {
			served++
			if served > 1 {
				return questionPayload("q2", 3, ""), nil
			}
			return questionPayload("q1", 3, "https://img/q1.png"), nil
		},
	}
	journal := &recordingJournal{}
	loader := assets.NewLoader(fetcher, client).WithBackoff(time.Millisecond)
	c := New(client, loader, gate.New(client), journal)
	c.phase = PhaseFetching
	c.session = Session{ID: "s1"}

	reqCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q, _, err := c.NextQuestion(reqCtx)
	if err != nil {
		t.Fatalf("NextQuestion: %v", err)
	}
	if q == nil || q.Question.ID != "q2" {
		t.Fatalf("q = %+v, want q2 after exclusion", q)
	}
	if len(journal.exclusions) != 1 || journal.exclusions[0] != "q1" {
		t.Fatalf("exclusions = %v, want [q1]", journal.exclusions)
	}
	// Journal writes never ride the request context; a cancelled fetch
	// must not lose the exclusion record.
	if journal.exclusionCtxs[0].Done() != nil {
		t.Error("exclusion journaled on a cancellable context")
	}
}
