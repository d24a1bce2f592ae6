package api

import (
	"context"
	"sync"
)

// Mock is a deterministic Client for testing. Each method delegates to an
// optional func field and records the call; a nil field returns the zero
// value with a transient error so a missing stub is obvious in tests.
type Mock struct {
	mu    sync.Mutex
	calls []string

	SessionStatusFunc     func(ctx context.Context) (*SessionStatus, error)
	StartSessionFunc      func(ctx context.Context) (*StartedSession, error)
	NextQuestionFunc      func(ctx context.Context, sessionID string) (*NextQuestion, error)
	SubmitAnswerFunc      func(ctx context.Context, in SubmitInput) (*AnswerResult, error)
	ReportBrokenAssetFunc func(ctx context.Context, questionID string) error
	LimitStatusFunc       func(ctx context.Context) (*LimitStatus, error)
	AskDoubtFunc          func(ctx context.Context, in DoubtInput) (*DoubtReceipt, error)
	DoubtHistoryFunc      func(ctx context.Context, questionID string) (*DoubtThread, error)
}

var _ Client = (*Mock)(nil)

func (m *Mock) note(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, op)
}

// Calls returns the operations invoked so far, in order.
func (m *Mock) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns how many times op was invoked.
func (m *Mock) CallCount(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c == op {
			n++
		}
	}
	return n
}

func (m *Mock) SessionStatus(ctx context.Context) (*SessionStatus, error) {
	m.note("session_status")
	if m.SessionStatusFunc == nil {
		return nil, &ErrTransient{Err: errNoStub("SessionStatus")}
	}
	return m.SessionStatusFunc(ctx)
}

func (m *Mock) StartSession(ctx context.Context) (*StartedSession, error) {
	m.note("start_session")
	if m.StartSessionFunc == nil {
		return nil, &ErrTransient{Err: errNoStub("StartSession")}
	}
	return m.StartSessionFunc(ctx)
}

func (m *Mock) NextQuestion(ctx context.Context, sessionID string) (*NextQuestion, error) {
	m.note("next_question")
	if m.NextQuestionFunc == nil {
		return nil, &ErrTransient{Err: errNoStub("NextQuestion")}
	}
	return m.NextQuestionFunc(ctx, sessionID)
}

func (m *Mock) SubmitAnswer(ctx context.Context, in SubmitInput) (*AnswerResult, error) {
	m.note("submit_answer")
	if m.SubmitAnswerFunc == nil {
		return nil, &ErrTransient{Err: errNoStub("SubmitAnswer")}
	}
	return m.SubmitAnswerFunc(ctx, in)
}

func (m *Mock) ReportBrokenAsset(ctx context.Context, questionID string) error {
	m.note("report_broken_asset")
	if m.ReportBrokenAssetFunc == nil {
		return nil
	}
	return m.ReportBrokenAssetFunc(ctx, questionID)
}

func (m *Mock) LimitStatus(ctx context.Context) (*LimitStatus, error) {
	m.note("limit_status")
	if m.LimitStatusFunc == nil {
		return nil, &ErrTransient{Err: errNoStub("LimitStatus")}
	}
	return m.LimitStatusFunc(ctx)
}

func (m *Mock) AskDoubt(ctx context.Context, in DoubtInput) (*DoubtReceipt, error) {
	m.note("ask_doubt")
	if m.AskDoubtFunc == nil {
		return nil, &ErrTransient{Err: errNoStub("AskDoubt")}
	}
	return m.AskDoubtFunc(ctx, in)
}

func (m *Mock) DoubtHistory(ctx context.Context, questionID string) (*DoubtThread, error) {
	m.note("doubt_history")
	if m.DoubtHistoryFunc == nil {
		return nil, &ErrTransient{Err: errNoStub("DoubtHistory")}
	}
	return m.DoubtHistoryFunc(ctx, questionID)
}

type stubError string

func (e stubError) Error() string { return string(e) }

func errNoStub(method string) error {
	return stubError("mock: no stub for " + method)
}
