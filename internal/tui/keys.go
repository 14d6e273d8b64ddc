package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// KeyMap defines all key bindings for the application.
type KeyMap struct {
	// Navigation
	Up       Key
	Down     Key
	Left     Key
	Right    Key
	PageUp   Key
	PageDown Key

	// Actions
	Select Key
	Back   Key
	Quit   Key
	Search Key

	// Function keys for module navigation
	F1  Key
	F2  Key
	F3  Key
	F4  Key
	F5  Key
	F6  Key
	F7  Key
	F10 Key

	// Form navigation
	Tab      Key
	ShiftTab Key
}

// Key represents a key binding.
type Key struct {
	Keys    []string
	Help    string
	Enabled bool
}

func newKey(help string, keys ...string) Key {
	return Key{Keys: keys, Help: help, Enabled: true}
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:       newKey("up", "up", "k"),
		Down:     newKey("down", "down", "j"),
		Left:     newKey("left", "left", "h"),
		Right:    newKey("right", "right", "l"),
		PageUp:   newKey("page up", "pgup"),
		PageDown: newKey("page down", "pgdown"),

		Select: newKey("select", "enter"),
		Back:   newKey("back", "esc"),
		Quit:   newKey("quit", "q", "ctrl+c"),
		Search: newKey("search", "/"),

		F1:  newKey("Help", "f1"),
		F2:  newKey("Dashboard", "f2"),
		F3:  newKey("Talent", "f3"),
		F4:  newKey("Partners", "f4"),
		F5:  newKey("Projects", "f5"),
		F6:  newKey("Simulation", "f6"),
		F7:  newKey("AI Agent", "f7"),
		F10: newKey("Quit", "f10"),

		Tab:      newKey("next field", "tab"),
		ShiftTab: newKey("prev field", "shift+tab"),
	}
}

// Matches checks if a key message matches this key binding.
func (k Key) Matches(msg tea.KeyMsg) bool {
	if !k.Enabled {
		return false
	}

	keyStr := msg.String()
	for _, key := range k.Keys {
		if keyStr == key {
			return true
		}
	}
	return false
}

// MatchesAny checks if a key message matches any of the provided key bindings.
func MatchesAny(msg tea.KeyMsg, keys ...Key) bool {
	for _, k := range keys {
		if k.Matches(msg) {
			return true
		}
	}
	return false
}

// IsQuit checks if the key message is a quit command.
func (km KeyMap) IsQuit(msg tea.KeyMsg) bool {
	return MatchesAny(msg, km.Quit, km.F10)
}

// FunctionKeyModule returns the module a function key opens. The second
// result is false for keys that are not module shortcuts.
func (km KeyMap) FunctionKeyModule(msg tea.KeyMsg) (Module, bool) {
	switch {
	case km.F1.Matches(msg):
		return ModuleHelp, true
	case km.F2.Matches(msg):
		return ModuleDashboard, true
	case km.F3.Matches(msg):
		return ModuleTalent, true
	case km.F4.Matches(msg):
		return ModulePartners, true
	case km.F5.Matches(msg):
		return ModuleProjects, true
	case km.F6.Matches(msg):
		return ModuleSimulation, true
	case km.F7.Matches(msg):
		return ModuleAssistant, true
	default:
		return "", false
	}
}

// StatusBarHelp returns the help text for the status bar.
func (km KeyMap) StatusBarHelp() string {
	return "[F1]Help [F2]Dashboard [F3]Talent [F4]Partners [F5]Projects [F6]Simulation [F7]AI Agent [F10]Quit"
}
