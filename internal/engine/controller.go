// Package engine drives a practice session: starting or resuming against
// the backend, walking the question loop, submitting answers and holding
// the phase machine that the screens render from.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/abhisek/prepdeck/internal/api"
	"github.com/abhisek/prepdeck/internal/assets"
	"github.com/abhisek/prepdeck/internal/doubt"
	"github.com/abhisek/prepdeck/internal/gate"
	"github.com/abhisek/prepdeck/internal/store"
)

// maxAssetSkips bounds how many consecutive questions with broken images
// the controller will silently skip before giving up on the fetch loop.
const maxAssetSkips = 25

var (
	// ErrNoQuestion is returned when an answer-scoped call arrives with
	// no question on screen.
	ErrNoQuestion = errors.New("no question is active")

	// ErrSubmitInFlight is returned when Submit is called while a prior
	// submission is still awaiting judgment.
	ErrSubmitInFlight = errors.New("a submission is already in flight")

	// ErrAlreadyJudged is returned when Submit is called after the
	// current question has been judged.
	ErrAlreadyJudged = errors.New("this question has already been judged")

	// ErrWrongPhase is returned when an operation does not apply to the
	// controller's current phase.
	ErrWrongPhase = errors.New("operation not valid in current phase")

	// ErrAssetSkipLimit is returned when too many consecutive questions
	// were excluded for broken images.
	ErrAssetSkipLimit = errors.New("too many consecutive questions had broken images")
)

// Controller owns one practice session end to end. Methods are safe for
// concurrent use; network calls run outside the lock so the UI can keep
// polling phase while a request is in flight.
type Controller struct {
	client  api.Client
	loader  *assets.Loader
	gate    *gate.Gate
	journal store.PracticeLog

	// newAttemptID mints the idempotency token attached to each
	// submission. Swapped in tests.
	newAttemptID func() string

	mu         sync.Mutex
	phase      Phase
	session    Session
	current    *QuestionState
	result     *api.AnswerResult
	completion *Completion
	submitting bool
	skips      int
}

// New builds a controller. journal may be nil; session events are then
// not recorded locally.
func New(client api.Client, loader *assets.Loader, g *gate.Gate, journal store.PracticeLog) *Controller {
	return &Controller{
		client:       client,
		loader:       loader,
		gate:         g,
		journal:      journal,
		newAttemptID: uuid.NewString,
		phase:        PhaseIdle,
	}
}

// Phase returns the current lifecycle phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Session returns a copy of the active session descriptor.
func (c *Controller) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Current returns the question on screen, or nil.
func (c *Controller) Current() *QuestionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Result returns the judgment for the current question, or nil before
// submission completes.
func (c *Controller) Result() *api.AnswerResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}

// Completion returns the final counts once the session has completed.
func (c *Controller) Completion() *Completion {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.completion
}

// StartOrResume adopts an already-active session if the backend reports
// one; otherwise it consults the quota gate and, only when allowed,
// starts a fresh session. A denied gate makes no start call at all.
func (c *Controller) StartOrResume(ctx context.Context) (StartOutcome, error) {
	c.mu.Lock()
	if c.phase != PhaseIdle && c.phase != PhaseCompleted {
		c.mu.Unlock()
		return StartOutcome{}, fmt.Errorf("start: %w (phase %s)", ErrWrongPhase, c.phase)
	}
	c.mu.Unlock()

	status, err := c.client.SessionStatus(ctx)
	if err != nil {
		return StartOutcome{}, c.fail(err)
	}

	if status.ActiveSession {
		return c.adoptActive(ctx, status)
	}

	decision, err := c.gate.Check(ctx)
	if err != nil {
		return StartOutcome{}, c.fail(err)
	}
	if !decision.Allowed {
		return StartOutcome{UpgradeRequired: true}, nil
	}

	started, err := c.client.StartSession(ctx)
	if err != nil {
		return StartOutcome{}, c.fail(err)
	}

	ordinal := started.Ordinal
	if ordinal == 0 {
		ordinal = decision.CompletedSessions + 1
	}

	c.mu.Lock()
	c.reset()
	c.session = Session{ID: started.SessionID, Ordinal: ordinal}
	c.session.observe(0, started.TotalQuestions)
	c.phase = PhaseFetching
	sess := c.session
	c.mu.Unlock()

	c.logSession("start", sess)
	return StartOutcome{Session: sess}, nil
}

// adoptActive resumes the session the backend reported. Resuming is
// idempotent: the server owns position, so a killed client picks up at
// the same question it left.
func (c *Controller) adoptActive(ctx context.Context, status *api.SessionStatus) (StartOutcome, error) {
	ordinal := status.Ordinal
	if ordinal == 0 {
		// Best effort: the limit endpoint knows how many sessions
		// finished before this one.
		if decision, err := c.gate.Check(ctx); err == nil {
			ordinal = decision.CompletedSessions + 1
		}
	}

	c.mu.Lock()
	c.reset()
	c.session = Session{ID: status.SessionID, Ordinal: ordinal}
	c.session.observe(status.CurrentQuestion, status.TotalQuestions)
	c.phase = PhaseFetching
	sess := c.session
	c.mu.Unlock()

	c.logSession("resume", sess)
	return StartOutcome{Resumed: true, Session: sess}, nil
}

// NextQuestion fetches the next question from the server and resolves its
// image. Questions whose images cannot be loaded are excluded and skipped
// transparently, up to maxAssetSkips in a row. Exactly one of the returned
// question and completion is non-nil on success.
func (c *Controller) NextQuestion(ctx context.Context) (*QuestionState, *Completion, error) {
	c.mu.Lock()
	if c.phase != PhaseFetching {
		c.mu.Unlock()
		return nil, nil, fmt.Errorf("next question: %w (phase %s)", ErrWrongPhase, c.phase)
	}
	sessionID := c.session.ID
	c.mu.Unlock()

	for {
		next, err := c.client.NextQuestion(ctx, sessionID)
		if err != nil {
			if api.IsNotFound(err) {
				return nil, c.completeLocally(), nil
			}
			return nil, nil, c.fail(err)
		}

		if next.SessionComplete {
			return nil, c.complete(next.QuestionsCompleted, next.TotalQuestions), nil
		}

		// A payload with neither a question nor a completion marker is
		// malformed; surface it as such instead of serving nothing.
		if next.Question == nil {
			return nil, nil, &api.ErrInvalidPayload{
				Operation: "next-question",
				Err:       errors.New("payload carries neither a question nor session_complete"),
			}
		}

		res, err := c.loader.Resolve(ctx, next.Question)
		if err != nil {
			return nil, nil, err
		}
		if res == assets.ResolutionExcluded {
			if skips := c.noteSkip(next.Question.ID); skips > maxAssetSkips {
				return nil, nil, ErrAssetSkipLimit
			}
			continue
		}

		qs := &QuestionState{
			Question: next.Question,
			Number:   next.QuestionNumber,
			Image:    ImageNone,
		}
		if res == assets.ResolutionReady {
			qs.Image = ImageReady
		}

		c.mu.Lock()
		c.skips = 0
		c.current = qs
		c.result = nil
		c.submitting = false
		c.session.observe(next.QuestionNumber, next.TotalQuestions)
		c.phase = PhaseAwaitingAnswer
		c.mu.Unlock()
		return qs, nil, nil
	}
}

// Submit sends the learner's answer for judgment. At most one submission
// runs per question: a second call while one is in flight, or after the
// result arrived, is rejected without touching the network. A transient
// failure returns the phase to awaiting-answer so the learner can retry.
func (c *Controller) Submit(ctx context.Context, answer string) (*api.AnswerResult, error) {
	c.mu.Lock()
	if c.current == nil {
		c.mu.Unlock()
		return nil, ErrNoQuestion
	}
	if c.submitting {
		c.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	if c.result != nil {
		c.mu.Unlock()
		return nil, ErrAlreadyJudged
	}
	if c.phase != PhaseAwaitingAnswer {
		c.mu.Unlock()
		return nil, fmt.Errorf("submit: %w (phase %s)", ErrWrongPhase, c.phase)
	}
	c.submitting = true
	c.phase = PhaseSubmitting
	sessionID := c.session.ID
	q := c.current.Question
	c.mu.Unlock()

	input := api.SubmitInput{
		SessionID:  sessionID,
		QuestionID: q.ID,
		Answer:     answer,
		AttemptID:  c.newAttemptID(),
	}
	result, err := c.client.SubmitAnswer(ctx, input)

	c.mu.Lock()
	c.submitting = false
	if err != nil {
		if api.IsNotFound(err) {
			c.mu.Unlock()
			c.completeLocally()
			return nil, nil
		}
		if api.IsUnauthenticated(err) {
			c.phase = PhaseSignedOut
			c.mu.Unlock()
			return nil, err
		}
		c.phase = PhaseAwaitingAnswer
		c.mu.Unlock()
		return nil, err
	}
	c.result = result
	c.phase = PhaseShowingResult
	c.mu.Unlock()

	c.logAnswer(sessionID, q, result)
	return result, nil
}

// Doubt returns the conversation manager for the current question,
// creating it on first use. Available only after the question was judged.
func (c *Controller) Doubt() *doubt.Manager {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil || c.result == nil {
		return nil
	}
	if c.current.Doubt == nil {
		c.current.Doubt = doubt.NewManager(c.client, c.session.ID, c.current.Question.ID)
	}
	return c.current.Doubt
}

// Advance clears the judged question and moves back to fetching. The
// per-question state, doubt thread included, does not carry over.
func (c *Controller) Advance() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseShowingResult {
		return fmt.Errorf("advance: %w (phase %s)", ErrWrongPhase, c.phase)
	}
	c.current = nil
	c.result = nil
	c.phase = PhaseFetching
	return nil
}

// fail maps an API error onto the phase machine. Unauthenticated ends the
// session at signed-out; anything else leaves the phase alone so the
// caller can retry. Not-found on session endpoints is handled at the call
// sites, where it means the session evaporated server side.
func (c *Controller) fail(err error) error {
	if api.IsUnauthenticated(err) {
		c.mu.Lock()
		c.phase = PhaseSignedOut
		c.mu.Unlock()
	}
	return err
}

func (c *Controller) complete(done, total int) *Completion {
	c.mu.Lock()
	c.session.observe(done, total)
	comp := &Completion{QuestionsCompleted: done, TotalQuestions: total}
	c.completion = comp
	c.current = nil
	c.result = nil
	c.phase = PhaseCompleted
	sess := c.session
	c.mu.Unlock()

	c.logSession("complete", sess)
	return comp
}

// completeLocally finalizes from local counters when the server no longer
// knows the session.
func (c *Controller) completeLocally() *Completion {
	c.mu.Lock()
	done, total := c.session.Current, c.session.Total
	c.mu.Unlock()
	return c.complete(done, total)
}

func (c *Controller) noteSkip(questionID string) int {
	c.mu.Lock()
	c.skips++
	n := c.skips
	c.mu.Unlock()
	if c.journal != nil {
		_ = c.journal.AppendExclusion(context.Background(), questionID)
	}
	return n
}

func (c *Controller) reset() {
	c.current = nil
	c.result = nil
	c.completion = nil
	c.submitting = false
	c.skips = 0
}

// Journal writes are local, best-effort bookkeeping; they never block on
// the request context and a failure never disturbs the session.
func (c *Controller) logSession(action string, sess Session) {
	if c.journal == nil {
		return
	}
	_ = c.journal.AppendSession(context.Background(), store.SessionRecord{
		SessionID:      sess.ID,
		Action:         action,
		Ordinal:        sess.Ordinal,
		QuestionsDone:  sess.Current,
		TotalQuestions: sess.Total,
	})
}

func (c *Controller) logAnswer(sessionID string, q *api.Question, result *api.AnswerResult) {
	if c.journal == nil {
		return
	}
	_ = c.journal.AppendAnswer(context.Background(), store.AnswerRecord{
		SessionID:   sessionID,
		QuestionID:  q.ID,
		Category:    q.Category,
		Subcategory: q.Subcategory,
		Difficulty:  q.Difficulty,
		Answer:      result.UserAnswer,
		Correct:     result.Correct,
	})
}
