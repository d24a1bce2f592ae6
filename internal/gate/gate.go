// Package gate decides whether a new practice session may be started.
// Quota exhaustion is a first-class outcome routed to the upgrade flow,
// not an error.
package gate

import (
	"context"

	"github.com/abhisek/prepdeck/internal/api"
)

// Checker is the slice of the backend the gate needs. api.Client
// satisfies this.
type Checker interface {
	LimitStatus(ctx context.Context) (*api.LimitStatus, error)
}

// Decision is the outcome of one gate check. Not cached; the gate is
// consulted fresh at each session-start decision point.
type Decision struct {
	// Allowed is false when the free-session quota is exhausted.
	Allowed bool

	// CompletedSessions is the server's count of finished sessions, used
	// as the fallback for deriving a display ordinal.
	CompletedSessions int
}

// Gate guards session creation behind the usage quota.
type Gate struct {
	checker Checker
}

// New creates a Gate backed by the given checker.
func New(checker Checker) *Gate {
	return &Gate{checker: checker}
}

// Check queries the quota state. When the decision is not Allowed the
// caller must not attempt a start-session call and should surface the
// upgrade prompt instead.
func (g *Gate) Check(ctx context.Context) (Decision, error) {
	status, err := g.checker.LimitStatus(ctx)
	if err != nil {
		return Decision{}, err
	}
	return Decision{
		Allowed:           !status.LimitReached,
		CompletedSessions: status.CompletedSessions,
	}, nil
}
