package api

import (
	"context"
	"time"
)

// Client is the contract the practice engine depends on. The production
// implementation is HTTPClient; tests use Mock.
type Client interface {
	// SessionStatus reports whether the current user has an active session.
	SessionStatus(ctx context.Context) (*SessionStatus, error)

	// StartSession creates a new practice session for the current user.
	StartSession(ctx context.Context) (*StartedSession, error)

	// NextQuestion returns the next question for the session, or a
	// completion marker when the session is exhausted.
	NextQuestion(ctx context.Context, sessionID string) (*NextQuestion, error)

	// SubmitAnswer judges one answer for one (session, question) pair.
	SubmitAnswer(ctx context.Context, in SubmitInput) (*AnswerResult, error)

	// ReportBrokenAsset asks the server to exclude a question whose image
	// failed to load twice.
	ReportBrokenAsset(ctx context.Context, questionID string) error

	// LimitStatus reports the free-session quota state.
	LimitStatus(ctx context.Context) (*LimitStatus, error)

	// AskDoubt sends a follow-up question about a judged answer.
	AskDoubt(ctx context.Context, in DoubtInput) (*DoubtReceipt, error)

	// DoubtHistory returns the full conversation for a question.
	DoubtHistory(ctx context.Context, questionID string) (*DoubtThread, error)
}

// SessionStatus describes the user's current session, if any.
type SessionStatus struct {
	ActiveSession   bool   `json:"active_session"`
	SessionID       string `json:"session_id,omitempty"`
	Ordinal         int    `json:"session_number,omitempty"`
	CurrentQuestion int    `json:"current_question,omitempty"`
	TotalQuestions  int    `json:"total_questions,omitempty"`
}

// StartedSession is the response to a start-session request.
type StartedSession struct {
	SessionID      string `json:"session_id"`
	Ordinal        int    `json:"session_number,omitempty"`
	TotalQuestions int    `json:"total_questions,omitempty"`
}

// Option is one labeled choice of a multiple-choice question.
type Option struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// Question is a single practice question. Immutable once fetched; replaced
// wholesale when the next question arrives.
type Question struct {
	ID          string   `json:"id"`
	Stem        string   `json:"stem"`
	HasImage    bool     `json:"has_image"`
	ImageURL    string   `json:"image_url,omitempty"`
	Options     []Option `json:"options,omitempty"`
	Category    string   `json:"category"`
	Subcategory string   `json:"subcategory,omitempty"`
	Difficulty  string   `json:"difficulty,omitempty"`
}

// FreeResponse reports whether the question has no option set.
func (q *Question) FreeResponse() bool {
	return len(q.Options) == 0
}

// NextQuestion is either a question or a session-complete marker.
type NextQuestion struct {
	SessionComplete    bool      `json:"session_complete"`
	QuestionsCompleted int       `json:"questions_completed,omitempty"`
	TotalQuestions     int       `json:"total_questions,omitempty"`
	QuestionNumber     int       `json:"question_number,omitempty"`
	Question           *Question `json:"question,omitempty"`
}

// SubmitInput identifies one answer attempt. AttemptID is generated by the
// client per attempt so the server can deduplicate.
type SubmitInput struct {
	SessionID  string `json:"session_id"`
	QuestionID string `json:"question_id"`
	Answer     string `json:"answer"`
	AttemptID  string `json:"context"`
}

// SolutionFeedback is the structured explanation attached to a judged answer.
type SolutionFeedback struct {
	Approach  string   `json:"approach"`
	Steps     []string `json:"steps,omitempty"`
	Principle string   `json:"principle,omitempty"`
}

// QuestionMeta echoes question metadata back for result display.
type QuestionMeta struct {
	Category    string `json:"category"`
	Subcategory string `json:"subcategory,omitempty"`
	Difficulty  string `json:"difficulty,omitempty"`
}

// AnswerResult is the judged outcome for one (session, question) pair.
// Created once by SubmitAnswer; never mutated.
type AnswerResult struct {
	Correct       bool             `json:"correct"`
	UserAnswer    string           `json:"user_answer"`
	CorrectAnswer string           `json:"correct_answer"`
	Feedback      SolutionFeedback `json:"solution_feedback"`
	Meta          QuestionMeta     `json:"question_metadata"`
}

// LimitStatus is the free-session quota state.
type LimitStatus struct {
	LimitReached      bool `json:"limit_reached"`
	CompletedSessions int  `json:"completed_sessions"`
}

// DoubtInput identifies one doubt message.
type DoubtInput struct {
	QuestionID string `json:"question_id"`
	SessionID  string `json:"session_id"`
	Message    string `json:"message"`
}

// DoubtReceipt is the server's acknowledgment of an accepted doubt.
// Count and lock in the receipt are authoritative over any local state.
type DoubtReceipt struct {
	Success           bool `json:"success"`
	MessageCount      int  `json:"message_count"`
	RemainingMessages int  `json:"remaining_messages"`
	Locked            bool `json:"is_locked"`
}

// DoubtMessage is one message in a doubt conversation.
type DoubtMessage struct {
	Role      string    `json:"role"` // "asker" or "responder"
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// DoubtThread is the full conversation for a question.
type DoubtThread struct {
	Messages          []DoubtMessage `json:"messages"`
	MessageCount      int            `json:"message_count"`
	RemainingMessages int            `json:"remaining_messages"`
	Locked            bool           `json:"is_locked"`
}
