// Package progress computes the read-only summary shown on the dashboard:
// sessions completed, accuracy, the preparation phase label and per-topic
// coverage. All of it derives from the local practice journal; there is no
// state of its own.
package progress

import (
	"context"
	"fmt"

	"github.com/abhisek/prepdeck/internal/store"
)

// Phase labels by completed-session count.
const (
	PhaseGettingStarted = "Getting Started"
	PhaseFoundation     = "Foundation"
	PhaseBuilding       = "Building"
	PhaseExamReady      = "Exam Ready"
)

// Summary is one snapshot of the learner's standing. The dashboard
// re-queries it after every session completion.
type Summary struct {
	SessionsCompleted int
	Attempted         int
	Correct           int
	Phase             string
	Topics            []store.TopicStats
	Recent            []store.SessionSummary
}

// Accuracy returns the overall fraction correct, 0 when nothing was
// attempted.
func (s *Summary) Accuracy() float64 {
	if s.Attempted == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Attempted)
}

// Aggregator reads the practice journal.
type Aggregator struct {
	log store.PracticeLog
}

// New creates an Aggregator over the given journal.
func New(log store.PracticeLog) *Aggregator {
	return &Aggregator{log: log}
}

// Summary assembles the full dashboard snapshot.
func (a *Aggregator) Summary(ctx context.Context) (*Summary, error) {
	sessions, err := a.log.CompletedSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting sessions: %w", err)
	}
	attempted, correct, err := a.log.OverallAccuracy(ctx)
	if err != nil {
		return nil, fmt.Errorf("computing accuracy: %w", err)
	}
	topics, err := a.log.TopicCoverage(ctx)
	if err != nil {
		return nil, fmt.Errorf("aggregating topics: %w", err)
	}
	recent, err := a.log.RecentSessions(ctx, 10)
	if err != nil {
		return nil, fmt.Errorf("listing recent sessions: %w", err)
	}
	return &Summary{
		SessionsCompleted: sessions,
		Attempted:         attempted,
		Correct:           correct,
		Phase:             phaseFor(sessions),
		Topics:            topics,
		Recent:            recent,
	}, nil
}

// phaseFor maps a completed-session count to a preparation-phase label.
func phaseFor(sessions int) string {
	switch {
	case sessions == 0:
		return PhaseGettingStarted
	case sessions < 5:
		return PhaseFoundation
	case sessions < 15:
		return PhaseBuilding
	default:
		return PhaseExamReady
	}
}
