package store

import (
	"context"
	"time"

	"github.com/abhisek/prepdeck/internal/api"
)

// SessionRecord captures one session lifecycle event.
type SessionRecord struct {
	SessionID      string
	Action         string // "start", "resume", "complete"
	Ordinal        int
	QuestionsDone  int
	TotalQuestions int
}

// AnswerRecord captures one judged answer.
type AnswerRecord struct {
	SessionID   string
	QuestionID  string
	Category    string
	Subcategory string
	Difficulty  string
	Answer      string
	Correct     bool
}

// SessionSummary is one completed session as shown on the progress screen.
type SessionSummary struct {
	SessionID   string    `db:"session_id"`
	Ordinal     int       `db:"ordinal"`
	Questions   int       `db:"questions_done"`
	Correct     int       `db:"correct"`
	CompletedAt time.Time `db:"created_at"`
}

// TopicStats is per-category coverage across all recorded answers.
type TopicStats struct {
	Topic     string `db:"category"`
	Attempted int    `db:"attempted"`
	Correct   int    `db:"correct"`
}

// PracticeLog provides append and query access to the local journal.
type PracticeLog interface {
	// AppendSession records a session lifecycle event.
	AppendSession(ctx context.Context, rec SessionRecord) error

	// AppendAnswer records a judged answer.
	AppendAnswer(ctx context.Context, rec AnswerRecord) error

	// AppendExclusion records a question excluded for a broken asset.
	AppendExclusion(ctx context.Context, questionID string) error

	// RecordAPICall journals one backend call (api.CallRecorder).
	RecordAPICall(ctx context.Context, rec api.CallRecord) error

	// CompletedSessions counts locally observed session completions.
	CompletedSessions(ctx context.Context) (int, error)

	// OverallAccuracy returns total attempted and correct answer counts.
	OverallAccuracy(ctx context.Context) (attempted, correct int, err error)

	// TopicCoverage aggregates answers per category.
	TopicCoverage(ctx context.Context) ([]TopicStats, error)

	// RecentSessions returns the most recent completed sessions, newest
	// first, up to limit (0 = all).
	RecentSessions(ctx context.Context, limit int) ([]SessionSummary, error)
}
