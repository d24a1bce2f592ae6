package components

import (
	"fmt"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/prepdeck/internal/api"
	"github.com/abhisek/prepdeck/internal/ui/theme"
)

// OptionList is a selector over a question's labeled choices. It knows
// nothing about correctness; answers are judged server side and the
// result view handles the reveal.
type OptionList struct {
	Options  []api.Option
	Selected int
	Locked   bool
}

// NewOptionList creates a selector over the given options.
func NewOptionList(options []api.Option) OptionList {
	return OptionList{Options: options}
}

// Init returns nil.
func (o OptionList) Init() tea.Cmd {
	return nil
}

// Update handles keyboard navigation. Enter is left to the owning screen,
// which reads Choice() and submits.
func (o OptionList) Update(msg tea.Msg) (OptionList, tea.Cmd) {
	if o.Locked {
		return o, nil
	}

	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return o, nil
	}

	switch kmsg.String() {
	case "up", "k":
		if o.Selected > 0 {
			o.Selected--
		}
	case "down", "j":
		if o.Selected < len(o.Options)-1 {
			o.Selected++
		}
	default:
		// Direct selection by option label ("a".."e").
		for i, opt := range o.Options {
			if kmsg.String() == labelKey(opt.Label, i) {
				o.Selected = i
			}
		}
	}

	return o, nil
}

// Choice returns the currently selected option's label, or "" when the
// list is empty.
func (o OptionList) Choice() string {
	if o.Selected < 0 || o.Selected >= len(o.Options) {
		return ""
	}
	return o.Options[o.Selected].Label
}

// View renders the option list.
func (o OptionList) View() string {
	var s string
	for i, opt := range o.Options {
		prefix := "  "
		if i == o.Selected && !o.Locked {
			prefix = "▸ "
		}
		line := fmt.Sprintf("%s%s)  %s", prefix, opt.Label, opt.Text)

		switch {
		case o.Locked:
			s += lipgloss.NewStyle().Foreground(theme.TextDim).Render(line) + "\n"
		case i == o.Selected:
			s += lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render(line) + "\n"
		default:
			s += lipgloss.NewStyle().Foreground(theme.Text).Render(line) + "\n"
		}
	}
	return s
}

// labelKey maps an option label to the key that selects it directly.
// Falls back to positional letters when the server sends unlabeled
// options.
func labelKey(label string, index int) string {
	if label != "" {
		r := []rune(label)[0]
		if r >= 'A' && r <= 'Z' {
			r += 'a' - 'A'
		}
		return string(r)
	}
	return string(rune('a' + index))
}
