// Package upgrade is shown when the free-session quota is exhausted. It is
// purely informational; plan changes happen on the web, not in the client.
package upgrade

import (
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/prepdeck/internal/router"
	"github.com/abhisek/prepdeck/internal/screen"
	"github.com/abhisek/prepdeck/internal/ui/components"
	"github.com/abhisek/prepdeck/internal/ui/layout"
	"github.com/abhisek/prepdeck/internal/ui/theme"
)

const upgradeURL = "https://prepdeck.app/upgrade"

// UpgradeScreen implements screen.Screen.
type UpgradeScreen struct {
	back components.Button
}

var _ screen.Screen = (*UpgradeScreen)(nil)
var _ screen.KeyHintProvider = (*UpgradeScreen)(nil)

// New creates an UpgradeScreen.
func New() *UpgradeScreen {
	return &UpgradeScreen{
		back: components.NewButton("GOT IT", true, func() tea.Cmd {
			return func() tea.Msg { return router.PopScreenMsg{} }
		}),
	}
}

func (u *UpgradeScreen) Init() tea.Cmd {
	return nil
}

func (u *UpgradeScreen) Title() string {
	return "Upgrade"
}

func (u *UpgradeScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Back"},
	}
}

func (u *UpgradeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyMsg); ok && kmsg.String() == "esc" {
		return u, func() tea.Msg { return router.PopScreenMsg{} }
	}

	var cmd tea.Cmd
	u.back, cmd = u.back.Update(msg)
	return u, cmd
}

func (u *UpgradeScreen) View(width, height int) string {
	var b strings.Builder
	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Accent).
		Bold(true).
		Render("You've used all your free sessions"))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Text).
		Render("Upgrade to keep practicing with unlimited sessions:"))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Secondary).
		Bold(true).
		Render(upgradeURL))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, u.back.View()))
	return b.String()
}
