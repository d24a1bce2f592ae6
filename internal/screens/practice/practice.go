// Package practice is the active-session screen: it drives the engine
// controller through start-or-resume, the question loop, answer judgment
// and the post-answer doubt panel.
package practice

import (
	"context"
	"errors"
	"fmt"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/prepdeck/internal/api"
	"github.com/abhisek/prepdeck/internal/doubt"
	"github.com/abhisek/prepdeck/internal/engine"
	"github.com/abhisek/prepdeck/internal/router"
	"github.com/abhisek/prepdeck/internal/screen"
	"github.com/abhisek/prepdeck/internal/screens/upgrade"
	"github.com/abhisek/prepdeck/internal/ui/components"
	"github.com/abhisek/prepdeck/internal/ui/layout"
)

// PracticeScreen implements screen.Screen for one practice session.
type PracticeScreen struct {
	ctrl *engine.Controller

	input     components.TextInput
	options   components.OptionList
	optActive bool

	doubtOpen  bool
	doubtInput components.TextInput
	doubtErr   string

	showingQuitConfirm bool
	errMsg             string
	// retry re-runs the command that produced errMsg.
	retry tea.Cmd
}

var _ screen.Screen = (*PracticeScreen)(nil)
var _ screen.KeyHintProvider = (*PracticeScreen)(nil)

// New creates a PracticeScreen around an engine controller.
func New(ctrl *engine.Controller) *PracticeScreen {
	return &PracticeScreen{
		ctrl:  ctrl,
		input: components.NewTextInput("Type your answer...", false, 64),
	}
}

func (p *PracticeScreen) Init() tea.Cmd {
	return p.startCmd()
}

func (p *PracticeScreen) Title() string {
	return "Practice"
}

func (p *PracticeScreen) KeyHints() []layout.KeyHint {
	switch {
	case p.showingQuitConfirm:
		return []layout.KeyHint{
			{Key: "Y", Description: "Leave"},
			{Key: "N", Description: "Stay"},
		}
	case p.errMsg != "":
		return []layout.KeyHint{
			{Key: "R", Description: "Retry"},
			{Key: "Esc", Description: "Back"},
		}
	case p.doubtOpen:
		return []layout.KeyHint{
			{Key: "Enter", Description: "Ask"},
			{Key: "Esc", Description: "Close"},
		}
	case p.ctrl.Phase() == engine.PhaseShowingResult:
		return []layout.KeyHint{
			{Key: "Enter", Description: "Next question"},
			{Key: "D", Description: "Ask a doubt"},
		}
	case p.ctrl.Phase() == engine.PhaseCompleted, p.ctrl.Phase() == engine.PhaseSignedOut:
		return []layout.KeyHint{
			{Key: "Enter", Description: "Back"},
		}
	default:
		return []layout.KeyHint{
			{Key: "Enter", Description: "Submit"},
			{Key: "Esc", Description: "Leave session"},
		}
	}
}

func (p *PracticeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case startedMsg:
		return p.handleStarted(msg)

	case questionMsg:
		return p.handleQuestion(msg)

	case judgedMsg:
		return p.handleJudged(msg)

	case doubtSentMsg:
		return p.handleDoubtSent(msg)

	case doubtHistoryMsg:
		if msg.Err != nil {
			p.doubtErr = msg.Err.Error()
		}
		return p, nil

	case tea.KeyMsg:
		return p.handleKey(msg)
	}

	// Forward to the active input.
	if p.doubtOpen {
		var cmd tea.Cmd
		p.doubtInput, cmd = p.doubtInput.Update(msg)
		return p, cmd
	}
	if p.ctrl.Phase() == engine.PhaseAwaitingAnswer && !p.optActive {
		var cmd tea.Cmd
		p.input, cmd = p.input.Update(msg)
		return p, cmd
	}
	return p, nil
}

func (p *PracticeScreen) handleStarted(msg startedMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		return p.fail(msg.Err, p.startCmd())
	}
	if msg.Outcome.UpgradeRequired {
		return p, func() tea.Msg {
			return router.ReplaceScreenMsg{Screen: upgrade.New()}
		}
	}
	return p, p.fetchCmd()
}

func (p *PracticeScreen) handleQuestion(msg questionMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		return p.fail(msg.Err, p.fetchCmd())
	}
	if msg.Done != nil {
		// Completion view renders off the controller; nothing to store.
		return p, nil
	}

	q := msg.Question.Question
	if q.FreeResponse() {
		p.optActive = false
		p.input = components.NewTextInput("Type your answer...", false, 64)
		return p, p.input.Init()
	}
	p.optActive = true
	p.options = components.NewOptionList(q.Options)
	return p, nil
}

func (p *PracticeScreen) handleJudged(msg judgedMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		if errors.Is(msg.Err, engine.ErrSubmitInFlight) || errors.Is(msg.Err, engine.ErrAlreadyJudged) {
			// Duplicate keypress; the first submission stands.
			return p, nil
		}
		if api.IsTransient(msg.Err) {
			p.errMsg = "Couldn't submit your answer. Check your connection."
			p.retry = p.submitCmd(p.answerValue())
			return p, nil
		}
		return p.fail(msg.Err, nil)
	}
	return p, nil
}

func (p *PracticeScreen) handleDoubtSent(msg doubtSentMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		switch {
		case errors.Is(msg.Err, doubt.ErrLocked):
			p.doubtErr = "This conversation has reached its message limit."
		case errors.Is(msg.Err, doubt.ErrEmptyMessage):
			p.doubtErr = "Type a question first."
		default:
			p.doubtErr = "Couldn't send. Try again."
		}
		return p, nil
	}
	p.doubtErr = ""
	p.doubtInput = newDoubtInput()
	return p, tea.Batch(p.doubtInput.Init(), p.loadDoubtHistoryCmd())
}

func (p *PracticeScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	if p.showingQuitConfirm {
		switch key {
		case "y", "Y":
			// No server-side cancel: leaving just abandons local state
			// and the session resumes on next entry.
			return p, func() tea.Msg { return router.PopScreenMsg{} }
		case "n", "N", "esc":
			p.showingQuitConfirm = false
		}
		return p, nil
	}

	if p.errMsg != "" {
		switch key {
		case "r", "R":
			p.errMsg = ""
			retry := p.retry
			p.retry = nil
			return p, retry
		case "esc":
			return p, func() tea.Msg { return router.PopScreenMsg{} }
		}
		return p, nil
	}

	if p.doubtOpen {
		return p.handleDoubtKey(msg)
	}

	switch p.ctrl.Phase() {
	case engine.PhaseCompleted, engine.PhaseSignedOut:
		if key == "enter" || key == "esc" {
			return p, func() tea.Msg { return router.PopScreenMsg{} }
		}
		return p, nil

	case engine.PhaseShowingResult:
		switch key {
		case "enter", "n":
			return p.advance()
		case "d", "D":
			return p.openDoubt()
		}
		return p, nil

	case engine.PhaseAwaitingAnswer:
		switch key {
		case "esc":
			p.showingQuitConfirm = true
			return p, nil
		case "enter":
			answer := p.answerValue()
			if answer == "" {
				return p, nil
			}
			return p, p.submitCmd(answer)
		}
		if p.optActive {
			var cmd tea.Cmd
			p.options, cmd = p.options.Update(msg)
			return p, cmd
		}
		var cmd tea.Cmd
		p.input, cmd = p.input.Update(msg)
		return p, cmd
	}

	return p, nil
}

func (p *PracticeScreen) handleDoubtKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	switch msg.String() {
	case "esc":
		p.doubtOpen = false
		p.doubtErr = ""
		return p, nil
	case "enter":
		mgr := p.ctrl.Doubt()
		if mgr == nil {
			p.doubtOpen = false
			return p, nil
		}
		if mgr.Locked() {
			p.doubtErr = "This conversation has reached its message limit."
			return p, nil
		}
		return p, p.askDoubtCmd(mgr, p.doubtInput.Value())
	}

	var cmd tea.Cmd
	p.doubtInput, cmd = p.doubtInput.Update(msg)
	return p, cmd
}

func (p *PracticeScreen) advance() (screen.Screen, tea.Cmd) {
	if err := p.ctrl.Advance(); err != nil {
		return p, nil
	}
	p.doubtOpen = false
	p.doubtErr = ""
	return p, p.fetchCmd()
}

func (p *PracticeScreen) openDoubt() (screen.Screen, tea.Cmd) {
	mgr := p.ctrl.Doubt()
	if mgr == nil {
		return p, nil
	}
	p.doubtOpen = true
	p.doubtInput = newDoubtInput()
	return p, tea.Batch(p.doubtInput.Init(), p.loadDoubtHistoryCmd())
}

// fail routes an error either to the inline retryable state or, for
// sign-out, lets the phase machine drive the view.
func (p *PracticeScreen) fail(err error, retry tea.Cmd) (screen.Screen, tea.Cmd) {
	if api.IsUnauthenticated(err) {
		// Signed-out view renders off the controller phase.
		return p, nil
	}
	p.errMsg = humanError(err)
	p.retry = retry
	return p, nil
}

func (p *PracticeScreen) answerValue() string {
	if p.optActive {
		return p.options.Choice()
	}
	return p.input.Value()
}

func (p *PracticeScreen) startCmd() tea.Cmd {
	return func() tea.Msg {
		outcome, err := p.ctrl.StartOrResume(context.Background())
		return startedMsg{Outcome: outcome, Err: err}
	}
}

func (p *PracticeScreen) fetchCmd() tea.Cmd {
	return func() tea.Msg {
		q, done, err := p.ctrl.NextQuestion(context.Background())
		return questionMsg{Question: q, Done: done, Err: err}
	}
}

func (p *PracticeScreen) submitCmd(answer string) tea.Cmd {
	return func() tea.Msg {
		result, err := p.ctrl.Submit(context.Background(), answer)
		return judgedMsg{Result: result, Err: err}
	}
}

func (p *PracticeScreen) askDoubtCmd(mgr *doubt.Manager, message string) tea.Cmd {
	return func() tea.Msg {
		_, err := mgr.Ask(context.Background(), message)
		return doubtSentMsg{Err: err}
	}
}

func (p *PracticeScreen) loadDoubtHistoryCmd() tea.Cmd {
	mgr := p.ctrl.Doubt()
	return func() tea.Msg {
		if mgr == nil {
			return doubtHistoryMsg{}
		}
		err := mgr.LoadHistory(context.Background())
		return doubtHistoryMsg{Err: err}
	}
}

func newDoubtInput() components.TextInput {
	return components.NewTextInput("Ask about this solution...", false, 200)
}

func humanError(err error) string {
	if api.IsTransient(err) {
		return "Connection trouble. Check your network and retry."
	}
	return fmt.Sprintf("Something went wrong: %v", err)
}
