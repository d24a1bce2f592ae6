package api

import (
	"context"
	"fmt"
	"os"
	"time"
)

// CallRecord captures one backend call for the local journal.
type CallRecord struct {
	Operation    string
	LatencyMs    int64
	Success      bool
	ErrorMessage string
}

// CallRecorder receives a record per backend call. The local store
// satisfies this.
type CallRecorder interface {
	RecordAPICall(ctx context.Context, rec CallRecord) error
}

// LoggingClient is a decorator that records every backend call.
type LoggingClient struct {
	inner    Client
	recorder CallRecorder
}

var _ Client = (*LoggingClient)(nil)

// WithLogging wraps a Client with call journaling.
func WithLogging(c Client, recorder CallRecorder) Client {
	return &LoggingClient{inner: c, recorder: recorder}
}

func (l *LoggingClient) SessionStatus(ctx context.Context) (*SessionStatus, error) {
	start := time.Now()
	out, err := l.inner.SessionStatus(ctx)
	l.record(ctx, "session_status", start, err)
	return out, err
}

func (l *LoggingClient) StartSession(ctx context.Context) (*StartedSession, error) {
	start := time.Now()
	out, err := l.inner.StartSession(ctx)
	l.record(ctx, "start_session", start, err)
	return out, err
}

func (l *LoggingClient) NextQuestion(ctx context.Context, sessionID string) (*NextQuestion, error) {
	start := time.Now()
	out, err := l.inner.NextQuestion(ctx, sessionID)
	l.record(ctx, "next_question", start, err)
	return out, err
}

func (l *LoggingClient) SubmitAnswer(ctx context.Context, in SubmitInput) (*AnswerResult, error) {
	start := time.Now()
	out, err := l.inner.SubmitAnswer(ctx, in)
	l.record(ctx, "submit_answer", start, err)
	return out, err
}

func (l *LoggingClient) ReportBrokenAsset(ctx context.Context, questionID string) error {
	start := time.Now()
	err := l.inner.ReportBrokenAsset(ctx, questionID)
	l.record(ctx, "report_broken_asset", start, err)
	return err
}

func (l *LoggingClient) LimitStatus(ctx context.Context) (*LimitStatus, error) {
	start := time.Now()
	out, err := l.inner.LimitStatus(ctx)
	l.record(ctx, "limit_status", start, err)
	return out, err
}

func (l *LoggingClient) AskDoubt(ctx context.Context, in DoubtInput) (*DoubtReceipt, error) {
	start := time.Now()
	out, err := l.inner.AskDoubt(ctx, in)
	l.record(ctx, "ask_doubt", start, err)
	return out, err
}

func (l *LoggingClient) DoubtHistory(ctx context.Context, questionID string) (*DoubtThread, error) {
	start := time.Now()
	out, err := l.inner.DoubtHistory(ctx, questionID)
	l.record(ctx, "doubt_history", start, err)
	return out, err
}

// record journals the call but never fails the request on a journal error.
func (l *LoggingClient) record(ctx context.Context, op string, start time.Time, callErr error) {
	rec := CallRecord{
		Operation: op,
		LatencyMs: time.Since(start).Milliseconds(),
		Success:   callErr == nil,
	}
	if callErr != nil {
		rec.ErrorMessage = callErr.Error()
	}
	if err := l.recorder.RecordAPICall(ctx, rec); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to journal API call: %v\n", err)
	}
}
