package practice

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/prepdeck/internal/engine"
	"github.com/abhisek/prepdeck/internal/ui/components"
	"github.com/abhisek/prepdeck/internal/ui/theme"
)

func (p *PracticeScreen) View(width, height int) string {
	if p.showingQuitConfirm {
		return renderQuitConfirm(width)
	}
	if p.errMsg != "" {
		return renderError(width, p.errMsg)
	}

	switch p.ctrl.Phase() {
	case engine.PhaseIdle, engine.PhaseFetching:
		return renderLoading(width)
	case engine.PhaseCompleted:
		return p.renderCompletion(width)
	case engine.PhaseSignedOut:
		return renderSignedOut(width)
	case engine.PhaseShowingResult:
		if p.doubtOpen {
			return p.renderDoubtPanel(width)
		}
		return p.renderResult(width)
	default:
		return p.renderQuestion(width)
	}
}

// Status renders the header's right-hand session position.
func (p *PracticeScreen) Status() string {
	sess := p.ctrl.Session()
	if sess.ID == "" {
		return ""
	}
	if sess.Total == 0 {
		return fmt.Sprintf("Session %d", sess.Ordinal)
	}
	return fmt.Sprintf("Session %d · Q %d/%d", sess.Ordinal, sess.Current, sess.Total)
}

func (p *PracticeScreen) renderQuestion(width int) string {
	qs := p.ctrl.Current()
	if qs == nil || qs.Question == nil {
		return renderLoading(width)
	}
	q := qs.Question
	sess := p.ctrl.Session()

	var b strings.Builder

	infoLeft := lipgloss.NewStyle().
		Foreground(theme.Secondary).
		Bold(true).
		Render(fmt.Sprintf("  %s", topicLine(q.Category, q.Subcategory, q.Difficulty)))

	infoRight := lipgloss.NewStyle().
		Foreground(theme.TextDim).
		Render(fmt.Sprintf("Q %d/%d", qs.Number, sess.Total))

	infoLine := infoLeft
	rightPad := width - lipgloss.Width(infoLeft) - lipgloss.Width(infoRight) - 4
	if rightPad > 0 {
		infoLine += strings.Repeat(" ", rightPad) + infoRight
	}
	b.WriteString(infoLine)
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", max(width-4, 0))))
	b.WriteString("\n")

	if sess.Total > 0 {
		bar := components.NewProgressBar("", float64(sess.Current)/float64(sess.Total), false, min(width-8, 50))
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, bar.View()))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	stem := lipgloss.NewStyle().
		Width(min(width-8, 76)).
		Foreground(theme.Text).
		Bold(true).
		Render(q.Stem)
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, stem))
	b.WriteString("\n\n")

	if qs.Image == engine.ImageReady {
		diagram := lipgloss.NewStyle().
			Foreground(theme.TextDim).
			Render("Diagram: " + q.ImageURL)
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, diagram))
		b.WriteString("\n\n")
	}

	if p.optActive {
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, p.options.View()))
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Foreground(theme.TextDim).
			Render("Pick an option, then Enter to submit"))
	} else {
		answerLine := lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Render("Answer: " + p.input.View())
		b.WriteString(answerLine)
	}

	if p.ctrl.Phase() == engine.PhaseSubmitting {
		b.WriteString("\n\n")
		b.WriteString(lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Foreground(theme.TextDim).
			Render("Checking your answer..."))
	}

	return b.String()
}

func (p *PracticeScreen) renderResult(width int) string {
	result := p.ctrl.Result()
	if result == nil {
		return renderLoading(width)
	}

	var b strings.Builder
	b.WriteString("\n")

	if result.Correct {
		b.WriteString(lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Foreground(theme.Success).
			Bold(true).
			Render("Correct!"))
	} else {
		b.WriteString(lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Foreground(theme.Error).
			Bold(true).
			Render("Not quite"))
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Foreground(theme.TextDim).
			Render(fmt.Sprintf("Your answer: %s    Correct answer: %s",
				result.UserAnswer, result.CorrectAnswer)))
	}
	b.WriteString("\n\n")

	fb := result.Feedback
	blockWidth := min(width-8, 72)

	if fb.Approach != "" {
		b.WriteString(section(width, blockWidth, "Approach", fb.Approach))
	}
	for i, step := range fb.Steps {
		text := lipgloss.NewStyle().
			Width(blockWidth).
			Foreground(theme.Text).
			Render(fmt.Sprintf("%d. %s", i+1, step))
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, text))
		b.WriteString("\n")
	}
	if len(fb.Steps) > 0 {
		b.WriteString("\n")
	}
	if fb.Principle != "" {
		b.WriteString(section(width, blockWidth, "Remember", fb.Principle))
	}

	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.TextDim).
		Render("Enter: next question   D: ask a doubt"))

	return b.String()
}

func (p *PracticeScreen) renderDoubtPanel(width int) string {
	mgr := p.ctrl.Doubt()
	if mgr == nil {
		return p.renderResult(width)
	}

	var b strings.Builder
	blockWidth := min(width-8, 72)

	title := lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Primary).
		Bold(true).
		Render("Doubts")
	b.WriteString("\n")
	b.WriteString(title)
	b.WriteString("\n\n")

	for _, m := range mgr.Messages() {
		var style lipgloss.Style
		var prefix string
		if m.Role == "asker" {
			style = lipgloss.NewStyle().Foreground(theme.Secondary)
			prefix = "You: "
		} else {
			style = lipgloss.NewStyle().Foreground(theme.Text)
			prefix = "Tutor: "
		}
		line := style.Width(blockWidth).Render(prefix + m.Text)
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, line))
		b.WriteString("\n")
	}
	if len(mgr.Messages()) > 0 {
		b.WriteString("\n")
	}

	if mgr.Locked() {
		b.WriteString(lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Foreground(theme.Accent).
			Render("Message limit reached for this question."))
	} else {
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, "Ask: "+p.doubtInput.View()))
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Foreground(theme.TextDim).
			Render(fmt.Sprintf("%d messages left", mgr.Remaining())))
	}

	if p.doubtErr != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Foreground(theme.Error).
			Render(p.doubtErr))
	}

	return b.String()
}

func (p *PracticeScreen) renderCompletion(width int) string {
	var b strings.Builder
	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Success).
		Bold(true).
		Render("Session complete!"))

	if comp := p.ctrl.Completion(); comp != nil {
		b.WriteString("\n\n")
		b.WriteString(lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Foreground(theme.Text).
			Render(fmt.Sprintf("You worked through %d of %d questions.",
				comp.QuestionsCompleted, comp.TotalQuestions)))
	}

	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.TextDim).
		Render("Press Enter to return."))
	return b.String()
}

func renderSignedOut(width int) string {
	return lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Error).
		Render("\n\n\n  Your sign-in has expired.\n\n  Set PREPDECK_API_TOKEN and restart, then press Enter.")
}

func renderQuitConfirm(width int) string {
	var b strings.Builder
	b.WriteString("\n\n\n")
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Text).
		Bold(true).
		Render("Leave this session?"))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.TextDim).
		Render("You can resume right where you left off."))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Success).
		Render("[Y] Yes, leave"))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Primary).
		Render("[N] No, keep going"))
	return b.String()
}

func renderLoading(width int) string {
	return lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.TextDim).
		Render("\n\n\n  Fetching your next question...")
}

func renderError(width int, errMsg string) string {
	return lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Error).
		Render(fmt.Sprintf("\n\n\n  %s\n\n  R to retry, Esc to go back.", errMsg))
}

func section(width, blockWidth int, heading, body string) string {
	var b strings.Builder
	h := lipgloss.NewStyle().
		Width(blockWidth).
		Foreground(theme.Secondary).
		Bold(true).
		Render(heading)
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, h))
	b.WriteString("\n")
	t := lipgloss.NewStyle().
		Width(blockWidth).
		Foreground(theme.Text).
		Render(body)
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, t))
	b.WriteString("\n\n")
	return b.String()
}

func topicLine(category, subcategory, difficulty string) string {
	line := category
	if subcategory != "" {
		line += " · " + subcategory
	}
	if difficulty != "" {
		line += "  (" + difficulty + ")"
	}
	return line
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
