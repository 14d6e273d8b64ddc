package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/knowlearn/kldash/internal/config"
	"github.com/knowlearn/kldash/internal/database"
	"github.com/knowlearn/kldash/internal/database/seed"
	"github.com/knowlearn/kldash/internal/testutil"
	"github.com/knowlearn/kldash/internal/util"
)

var testNow = time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)

// newTestDB returns a migrated in-memory database filled with a small
// deterministic dataset.
func newTestDB(t *testing.T) *database.DB {
	t.Helper()

	tdb := testutil.NewTestDB(t)
	gen := seed.NewGenerator(tdb.DB.DB, seed.Config{Seed: 7, People: 30, Projects: 8, Partners: 6})
	if _, err := gen.Generate(context.Background()); err != nil {
		t.Fatalf("seeding test database: %v", err)
	}
	return tdb.DB
}

// newTestApp creates an App backed by a seeded in-memory database. The
// clock is fixed, the agent answers at once, and the window is set to
// 120x40 and marked ready.
func newTestApp(t *testing.T) *App {
	t.Helper()

	app := New(newTestDB(t), config.Default(), util.FixedClock{T: testNow}, WithAssistantDelay(0))
	app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return app
}

// press sends a key to the app and runs the commands it returns.
func press(t *testing.T, app *App, msg tea.KeyMsg) {
	t.Helper()
	_, cmd := app.Update(msg)
	drain(t, app, cmd)
}

// drain runs cmd and feeds the resulting messages back into the app until
// no work is left. Clock ticks are dropped so tests never wait on them.
func drain(t *testing.T, app *App, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		return
	}

	switch msg := cmd().(type) {
	case nil, tickMsg, tea.QuitMsg:
	case tea.BatchMsg:
		for _, c := range msg {
			drain(t, app, c)
		}
	default:
		_, next := app.Update(msg)
		drain(t, app, next)
	}
}

// keyMsg creates a tea.KeyMsg for a regular character key.
func keyMsg(key string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
}

// specialKeyMsg creates a tea.KeyMsg for a special key type.
func specialKeyMsg(keyType tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: keyType}
}

// typeText sends each rune of s as a key press.
func typeText(t *testing.T, app *App, s string) {
	t.Helper()
	for _, r := range s {
		press(t, app, keyMsg(string(r)))
	}
}
