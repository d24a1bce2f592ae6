// Package progress is the dashboard screen: preparation phase, overall
// accuracy, topic coverage and recent sessions, all from the local
// practice journal.
package progress

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/prepdeck/internal/progress"
	"github.com/abhisek/prepdeck/internal/router"
	"github.com/abhisek/prepdeck/internal/screen"
	"github.com/abhisek/prepdeck/internal/ui/components"
	"github.com/abhisek/prepdeck/internal/ui/layout"
	"github.com/abhisek/prepdeck/internal/ui/theme"
)

type summaryLoadedMsg struct {
	Summary *progress.Summary
	Err     error
}

// ProgressScreen displays the learner's standing.
type ProgressScreen struct {
	agg     *progress.Aggregator
	summary *progress.Summary
	loaded  bool
	errMsg  string
}

var _ screen.Screen = (*ProgressScreen)(nil)
var _ screen.KeyHintProvider = (*ProgressScreen)(nil)

// New creates a new ProgressScreen.
func New(agg *progress.Aggregator) *ProgressScreen {
	return &ProgressScreen{agg: agg}
}

func (s *ProgressScreen) Init() tea.Cmd {
	return func() tea.Msg {
		summary, err := s.agg.Summary(context.Background())
		return summaryLoadedMsg{Summary: summary, Err: err}
	}
}

func (s *ProgressScreen) Title() string {
	return "Progress"
}

func (s *ProgressScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Esc", Description: "Back"},
	}
}

func (s *ProgressScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case summaryLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
		} else {
			s.summary = msg.Summary
		}
		s.loaded = true
		return s, nil

	case tea.KeyMsg:
		if msg.String() == "esc" {
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		}
	}
	return s, nil
}

func (s *ProgressScreen) View(width, height int) string {
	if s.errMsg != "" {
		return lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Foreground(theme.Error).
			Render("\n\n  Couldn't load progress: " + s.errMsg)
	}
	if !s.loaded {
		return lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Foreground(theme.TextDim).
			Render("\n\n  Loading...")
	}

	sum := s.summary
	var b strings.Builder
	b.WriteString("\n")

	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Primary).
		Bold(true).
		Render(sum.Phase))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.TextDim).
		Render(fmt.Sprintf("%d sessions completed · %d questions answered",
			sum.SessionsCompleted, sum.Attempted)))
	b.WriteString("\n\n")

	if sum.Attempted > 0 {
		accLine := components.NewProgressBar("Accuracy", sum.Accuracy(), true, min(width-8, 50))
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, accLine.View()))
		b.WriteString("\n\n")
	}

	if len(sum.Topics) > 0 {
		b.WriteString(lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Foreground(theme.Secondary).
			Bold(true).
			Render("Topic coverage"))
		b.WriteString("\n")
		for _, topic := range sum.Topics {
			acc := 0.0
			if topic.Attempted > 0 {
				acc = float64(topic.Correct) / float64(topic.Attempted)
			}
			line := fmt.Sprintf("%-16s %3d answered  %3.0f%% correct",
				topic.Topic, topic.Attempted, acc*100)
			b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
				lipgloss.NewStyle().Foreground(theme.Text).Render(line)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if len(sum.Recent) > 0 {
		b.WriteString(lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Foreground(theme.Secondary).
			Bold(true).
			Render("Recent sessions"))
		b.WriteString("\n")
		for _, sess := range sum.Recent {
			line := fmt.Sprintf("Session %-3d  %2d questions  %2d correct  %s",
				sess.Ordinal, sess.Questions, sess.Correct,
				sess.CompletedAt.Format("Jan 2"))
			b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
				lipgloss.NewStyle().Foreground(theme.Text).Render(line)))
			b.WriteString("\n")
		}
	}

	if sum.SessionsCompleted == 0 {
		b.WriteString(lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Foreground(theme.TextDim).
			Render("\nNo sessions yet. Start practicing to see your progress here."))
	}

	return b.String()
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
