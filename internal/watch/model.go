// Package watch renders a live, self-refreshing view of every account's
// current code. Codes are regenerated on a one-second tick so the display
// rolls over with the 30-second window.
package watch

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/authkeep/go/internal/database"
	"github.com/authkeep/go/internal/totp"
)

const (
	// BarWidth is the width of the countdown bar in cells
	BarWidth = 20
)

// Styles defines the visual styling for the watch view.
type Styles struct {
	Header    lipgloss.Style
	Name      lipgloss.Style
	Code      lipgloss.Style
	CodeError lipgloss.Style
	BarFilled lipgloss.Style
	BarEmpty  lipgloss.Style
	Meta      lipgloss.Style
	Filter    lipgloss.Style
	NoResults lipgloss.Style
}

// defaultStyles returns the default styling configuration.
func defaultStyles() Styles {
	return Styles{
		Header: lipgloss.NewStyle().
			Foreground(lipgloss.Color("32")). // Green
			Bold(true),
		Name: lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")), // White
		Code: lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")). // Yellow
			Bold(true),
		CodeError: lipgloss.NewStyle().
			Foreground(lipgloss.Color("red")).
			Italic(true),
		BarFilled: lipgloss.NewStyle().
			Foreground(lipgloss.Color("14")), // Cyan
		BarEmpty: lipgloss.NewStyle().
			Foreground(lipgloss.Color("238")), // Dark gray
		Meta: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")), // Gray
		Filter: lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")).
			Background(lipgloss.Color("238")),
		NoResults: lipgloss.NewStyle().
			Foreground(lipgloss.Color("red")).
			Italic(true),
	}
}

// tickMsg advances the clock once per second.
type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Model is the Bubble Tea model for the live code view.
type Model struct {
	accounts []database.Account
	filter   string
	now      time.Time
	showBar  bool
	quitting bool
	styles   Styles
}

// NewModel creates the watch model over a decrypted account list.
func NewModel(accounts []database.Account, showBar bool) Model {
	return Model{
		accounts: accounts,
		now:      time.Now(),
		showBar:  showBar,
		styles:   defaultStyles(),
	}
}

// Init starts the per-second refresh loop.
func (m Model) Init() tea.Cmd {
	return tick()
}

// Update handles clock ticks and key presses.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.now = time.Time(msg)
		return m, tick()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit

		case "esc":
			// Esc clears an active filter first; a second Esc quits.
			if m.filter != "" {
				m.filter = ""
				return m, nil
			}
			m.quitting = true
			return m, tea.Quit

		case "backspace":
			if len(m.filter) > 0 {
				m.filter = m.filter[:len(m.filter)-1]
			}

		default:
			if len(msg.String()) == 1 && msg.String()[0] >= 32 { // Printable characters
				m.filter += msg.String()
			}
		}
	}

	return m, nil
}

// visible returns the accounts matching the current filter, case
// insensitively, against both name and issuer.
func (m Model) visible() []database.Account {
	if m.filter == "" {
		return m.accounts
	}

	query := strings.ToLower(m.filter)
	var matched []database.Account
	for _, acc := range m.accounts {
		if strings.Contains(strings.ToLower(acc.Name), query) ||
			strings.Contains(strings.ToLower(acc.Issuer), query) {
			matched = append(matched, acc)
		}
	}
	return matched
}

// View renders the account list with live codes and countdowns.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.styles.Header.Render("Live codes"))
	b.WriteString("\n")
	if m.filter != "" {
		b.WriteString(m.styles.Meta.Render("Filter: "))
		b.WriteString(m.styles.Filter.Render(m.filter))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	visible := m.visible()
	if len(visible) == 0 {
		if m.filter != "" {
			b.WriteString(m.styles.NoResults.Render("No matching accounts"))
		} else {
			b.WriteString(m.styles.Meta.Render("No accounts stored"))
		}
		b.WriteString("\n")
	}

	nameWidth := 0
	for _, acc := range visible {
		if w := lipgloss.Width(acc.Label()); w > nameWidth {
			nameWidth = w
		}
	}

	for _, acc := range visible {
		b.WriteString(m.renderAccount(acc, nameWidth))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.styles.Meta.Render("Type to filter, Esc to clear, Ctrl+C to quit"))
	b.WriteString("\n")

	return b.String()
}

// renderAccount renders one account line: padded label, current code,
// seconds left, and optionally the countdown bar.
func (m Model) renderAccount(acc database.Account, nameWidth int) string {
	label := acc.Label()
	padding := strings.Repeat(" ", nameWidth-lipgloss.Width(label))

	var code string
	if c, err := totp.GenerateAt(acc.Secret, m.now); err != nil {
		code = m.styles.CodeError.Render("ERROR ")
	} else {
		code = m.styles.Code.Render(c)
	}

	line := fmt.Sprintf("  %s%s  %s  %s",
		m.styles.Name.Render(label), padding, code,
		m.styles.Meta.Render(fmt.Sprintf("%2ds", totp.TimeRemainingAt(m.now))))

	if m.showBar {
		line += "  " + m.renderBar()
	}
	return line
}

// renderBar draws the countdown bar for the current window.
func (m Model) renderBar() string {
	filled := int(totp.ProgressAt(m.now) * BarWidth)
	if filled > BarWidth {
		filled = BarWidth
	}

	return m.styles.BarFilled.Render(strings.Repeat("█", BarWidth-filled)) +
		m.styles.BarEmpty.Render(strings.Repeat("░", filled))
}

// Run starts the watch view and blocks until the user quits.
func Run(accounts []database.Account, showBar bool) error {
	program := tea.NewProgram(NewModel(accounts, showBar), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("error running watch view: %w", err)
	}
	return nil
}
