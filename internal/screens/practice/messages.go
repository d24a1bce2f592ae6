package practice

import (
	"github.com/abhisek/prepdeck/internal/api"
	"github.com/abhisek/prepdeck/internal/engine"
)

// startedMsg is sent when start-or-resume finishes.
type startedMsg struct {
	Outcome engine.StartOutcome
	Err     error
}

// questionMsg is sent when the next question (or the session-complete
// marker) arrives with its image resolved.
type questionMsg struct {
	Question *engine.QuestionState
	Done     *engine.Completion
	Err      error
}

// judgedMsg is sent when a submitted answer comes back judged.
type judgedMsg struct {
	Result *api.AnswerResult
	Err    error
}

// doubtSentMsg is sent when a doubt message was accepted or rejected.
type doubtSentMsg struct {
	Err error
}

// doubtHistoryMsg is sent when the conversation history finished loading.
type doubtHistoryMsg struct {
	Err error
}
