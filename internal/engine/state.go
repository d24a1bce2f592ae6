package engine

import (
	"github.com/abhisek/prepdeck/internal/api"
	"github.com/abhisek/prepdeck/internal/doubt"
)

// Phase is the controller's position in the session lifecycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseFetching
	PhaseAwaitingAnswer
	PhaseSubmitting
	PhaseShowingResult
	PhaseCompleted
	PhaseSignedOut
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseFetching:
		return "fetching"
	case PhaseAwaitingAnswer:
		return "awaiting-answer"
	case PhaseSubmitting:
		return "submitting"
	case PhaseShowingResult:
		return "showing-result"
	case PhaseCompleted:
		return "completed"
	case PhaseSignedOut:
		return "signed-out"
	default:
		return "unknown"
	}
}

// ImageState is the asset readiness of the current question.
type ImageState int

const (
	ImageNone ImageState = iota
	ImageReady
	ImageExcluded
)

// QuestionState is the per-question value object: the question itself plus
// its asset and doubt state. Replaced wholesale on advance; the doubt
// manager stays keyed to its question id and is simply orphaned when the
// question changes.
type QuestionState struct {
	Question *api.Question
	Number   int
	Image    ImageState
	Doubt    *doubt.Manager
}

// Progress tracks the session's position. Current never decreases and
// never exceeds Total.
type Progress struct {
	Current int
	Total   int
}

// observe folds in server-reported counters, keeping local monotonicity.
func (p *Progress) observe(current, total int) {
	if total > p.Total {
		p.Total = total
	}
	if current > p.Current {
		p.Current = current
	}
	if p.Total > 0 && p.Current > p.Total {
		p.Current = p.Total
	}
}

// Session identifies the active practice session.
type Session struct {
	ID      string
	Ordinal int
	Progress
}

// StartOutcome is the result of StartOrResume.
type StartOutcome struct {
	// Resumed is true when an already-active session was adopted.
	Resumed bool

	// UpgradeRequired is true when the quota gate denied a fresh start.
	// No start-session call was made; the caller routes to the upgrade
	// flow.
	UpgradeRequired bool

	Session Session
}

// Completion reports the final counts of a finished session.
type Completion struct {
	QuestionsCompleted int
	TotalQuestions     int
}
