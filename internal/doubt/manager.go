// Package doubt manages the follow-up conversation a user can hold about
// one judged question. Conversations are scoped to a (session, question)
// pair and capped server-side; the client mirrors count and lock state as
// a usability affordance but never treats its own copy as the enforcement
// boundary.
package doubt

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/abhisek/prepdeck/internal/api"
)

// MaxMessages is the total message cap per (question, session) pair.
// Display-only; the server decides when a conversation locks.
const MaxMessages = 10

var (
	// ErrLocked is returned when the conversation has reached its cap.
	ErrLocked = errors.New("doubt conversation is locked")

	// ErrEmptyMessage is returned for empty or whitespace-only input.
	ErrEmptyMessage = errors.New("doubt message is empty")
)

// Service is the slice of the backend the manager needs. api.Client
// satisfies this.
type Service interface {
	AskDoubt(ctx context.Context, in api.DoubtInput) (*api.DoubtReceipt, error)
	DoubtHistory(ctx context.Context, questionID string) (*api.DoubtThread, error)
}

// Manager owns one conversation. It is created lazily on first doubt and
// simply becomes unreachable when the session moves to the next question.
type Manager struct {
	service    Service
	sessionID  string
	questionID string

	mu       sync.Mutex
	messages []api.DoubtMessage
	count    int
	locked   bool
}

// NewManager creates a manager for the given (session, question) pair.
func NewManager(service Service, sessionID, questionID string) *Manager {
	return &Manager{
		service:    service,
		sessionID:  sessionID,
		questionID: questionID,
	}
}

// Ask sends one doubt message. Empty input and locked conversations are
// rejected locally, before any network call. The receipt's count and lock
// flag replace the local copies; the server is authoritative.
func (m *Manager) Ask(ctx context.Context, message string) (*api.DoubtReceipt, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	m.mu.Lock()
	if m.locked {
		m.mu.Unlock()
		return nil, ErrLocked
	}
	m.mu.Unlock()

	receipt, err := m.service.AskDoubt(ctx, api.DoubtInput{
		QuestionID: m.questionID,
		SessionID:  m.sessionID,
		Message:    message,
	})
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.count = receipt.MessageCount
	m.locked = receipt.Locked
	m.mu.Unlock()

	return receipt, nil
}

// LoadHistory fetches the full ordered message list and reconciles count
// and lock state. Used to seed the panel and again after each Ask, since
// the ask receipt carries no responder text.
func (m *Manager) LoadHistory(ctx context.Context) error {
	thread, err := m.service.DoubtHistory(ctx, m.questionID)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.messages = thread.Messages
	m.count = thread.MessageCount
	m.locked = thread.Locked
	m.mu.Unlock()

	return nil
}

// Messages returns a copy of the conversation so far.
func (m *Manager) Messages() []api.DoubtMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]api.DoubtMessage, len(m.messages))
	copy(out, m.messages)
	return out
}

// Count returns the server-reported message count.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.count
}

// Remaining returns how many messages are left before the cap.
func (m *Manager) Remaining() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locked {
		return 0
	}
	r := MaxMessages - m.count
	if r < 0 {
		return 0
	}
	return r
}

// Locked reports whether the conversation has reached its cap.
func (m *Manager) Locked() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.locked
}

// QuestionID returns the question this conversation is anchored to.
func (m *Manager) QuestionID() string {
	return m.questionID
}
