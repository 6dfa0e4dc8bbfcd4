package watch

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authkeep/go/internal/database"
)

const testSecret = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"

func testAccounts() []database.Account {
	return []database.Account{
		{ID: 1, Name: "alice@example.com", Secret: testSecret, Issuer: "GitHub"},
		{ID: 2, Name: "bob@example.com", Secret: testSecret, Issuer: "AWS"},
		{ID: 3, Name: "broken", Secret: "!!", Issuer: ""},
	}
}

func atTime(m Model, t time.Time) Model {
	updated, _ := m.Update(tickMsg(t))
	return updated.(Model)
}

func TestViewShowsCurrentCodes(t *testing.T) {
	m := atTime(NewModel(testAccounts(), true), time.Unix(59, 0))

	view := m.View()
	// RFC 6238 value for the shared test secret at t=59.
	assert.Contains(t, view, "287082")
	assert.Contains(t, view, "GitHub (alice@example.com)")
	assert.Contains(t, view, "AWS (bob@example.com)")
}

func TestViewMarksUndecodableSecret(t *testing.T) {
	m := atTime(NewModel(testAccounts(), false), time.Unix(59, 0))

	view := m.View()
	assert.Contains(t, view, "broken")
	assert.Contains(t, view, "ERROR")
}

func TestViewEmptyStore(t *testing.T) {
	m := atTime(NewModel(nil, true), time.Unix(59, 0))
	assert.Contains(t, m.View(), "No accounts stored")
}

func TestTickSchedulesNextTick(t *testing.T) {
	m := NewModel(testAccounts(), true)

	updated, cmd := m.Update(tickMsg(time.Unix(100, 0)))
	require.NotNil(t, cmd)
	assert.Equal(t, time.Unix(100, 0), updated.(Model).now)
}

func TestFilterMatchesNameAndIssuer(t *testing.T) {
	m := NewModel(testAccounts(), true)

	m.filter = "alice"
	require.Len(t, m.visible(), 1)
	assert.Equal(t, "alice@example.com", m.visible()[0].Name)

	m.filter = "aws"
	require.Len(t, m.visible(), 1)
	assert.Equal(t, "bob@example.com", m.visible()[0].Name)

	m.filter = "nothing"
	assert.Empty(t, m.visible())
	assert.Contains(t, atTime(m, time.Unix(59, 0)).View(), "No matching accounts")
}

func TestTypingUpdatesFilter(t *testing.T) {
	m := NewModel(testAccounts(), true)

	for _, ch := range "bob" {
		updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{ch}})
		m = updated.(Model)
	}
	assert.Equal(t, "bob", m.filter)

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	m = updated.(Model)
	assert.Equal(t, "bo", m.filter)
}

func TestEscClearsFilterThenQuits(t *testing.T) {
	m := NewModel(testAccounts(), true)
	m.filter = "alice"

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = updated.(Model)
	assert.Nil(t, cmd)
	assert.Equal(t, "", m.filter)

	updated, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = updated.(Model)
	require.NotNil(t, cmd)
	assert.True(t, m.quitting)
	assert.Equal(t, "", m.View())
}

func TestCtrlCQuits(t *testing.T) {
	m := NewModel(testAccounts(), true)

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.True(t, updated.(Model).quitting)
}

func TestBarDrainsWithWindow(t *testing.T) {
	m := NewModel(testAccounts(), true)

	fresh := atTime(m, time.Unix(30, 0)).renderBar()
	late := atTime(m, time.Unix(59, 0)).renderBar()

	assert.Greater(t, strings.Count(fresh, "█"), strings.Count(late, "█"))
}
