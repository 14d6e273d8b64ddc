// Package assistant provides the AI agent chat screen.
package assistant

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/knowlearn/kldash/internal/assistant"
	"github.com/knowlearn/kldash/internal/tui/components"
)

// Answerer supplies prepared answers and the texts around them.
type Answerer interface {
	Suggestions() []string
	Answer(question string) assistant.Response
	Welcome() string
	Thinking() string
	Labels() assistant.Labels
}

// AnsweredMsg delivers the answer to the pending question.
type AnsweredMsg struct {
	Seq      int
	Response assistant.Response
}

type exchange struct {
	question string
	response assistant.Response
	pending  bool
}

// View shows suggested questions and the conversation so far.
type View struct {
	agent  Answerer
	styles components.Styles
	delay  time.Duration

	suggestions []string
	selected    int
	input       *components.Input
	typing      bool

	history []exchange
	seq     int
}

// New creates an assistant view. Answers arrive after delay, which may
// be zero.
func New(agent Answerer, styles components.Styles, delay time.Duration) *View {
	input := components.NewInput("Question").
		SetPlaceholder("Ask about staffing").
		SetWidth(50).
		SetMaxLength(200)
	input.SetStyles(styles)

	return &View{
		agent:       agent,
		styles:      styles,
		delay:       delay,
		suggestions: agent.Suggestions(),
		input:       input,
	}
}

// Capturing reports whether the question input owns the keyboard.
func (v *View) Capturing() bool {
	return v.typing
}

// Pending reports whether an answer is on its way.
func (v *View) Pending() bool {
	return len(v.history) > 0 && v.history[len(v.history)-1].pending
}

// Ask records a question and returns the command that answers it. Empty
// questions and questions asked while another is pending are ignored.
func (v *View) Ask(question string) tea.Cmd {
	question = strings.TrimSpace(question)
	if question == "" || v.Pending() {
		return nil
	}

	v.seq++
	v.history = append(v.history, exchange{question: question, pending: true})

	seq, resp := v.seq, v.agent.Answer(question)
	if v.delay <= 0 {
		return func() tea.Msg { return AnsweredMsg{Seq: seq, Response: resp} }
	}
	return tea.Tick(v.delay, func(time.Time) tea.Msg {
		return AnsweredMsg{Seq: seq, Response: resp}
	})
}

// SetAnswer fills in the pending exchange. Stale answers are dropped.
func (v *View) SetAnswer(msg AnsweredMsg) {
	if msg.Seq != v.seq || !v.Pending() {
		return
	}
	last := &v.history[len(v.history)-1]
	last.response = msg.Response
	last.pending = false
}

// HandleKey handles a key press and returns the answer command when a
// question is asked.
func (v *View) HandleKey(key string) tea.Cmd {
	if v.typing {
		switch key {
		case "esc":
			v.typing = false
			v.input.Focus(false)
		case "enter":
			q := v.input.Value()
			v.input.SetValue("")
			v.typing = false
			v.input.Focus(false)
			return v.Ask(q)
		default:
			v.input.HandleKey(key)
		}
		return nil
	}

	switch key {
	case "up", "k":
		if v.selected > 0 {
			v.selected--
		}
	case "down", "j":
		if v.selected < len(v.suggestions)-1 {
			v.selected++
		}
	case "enter":
		if v.selected < len(v.suggestions) {
			return v.Ask(v.suggestions[v.selected])
		}
	case "/", "i":
		v.typing = true
		v.input.Focus(true)
	case "c":
		if !v.Pending() {
			v.history = nil
		}
	}
	return nil
}

// Render renders the conversation.
func (v *View) Render(width, height int) string {
	s := v.styles
	var b strings.Builder

	b.WriteString(s.Title.Render("=== AI AGENT ==="))
	b.WriteString("\n\n")

	textWidth := max(width-6, 30)
	b.WriteString(s.Value.Width(textWidth).Render(v.agent.Welcome()))
	b.WriteString("\n\n")

	for _, ex := range v.history {
		b.WriteString(s.Focus.Render("> " + ex.question))
		b.WriteString("\n")
		if ex.pending {
			b.WriteString(s.Muted.Render(v.agent.Thinking()))
			b.WriteString("\n\n")
			continue
		}
		b.WriteString(components.Panel(s, "", v.renderResponse(ex.response, textWidth-4), textWidth))
		b.WriteString("\n\n")
	}

	b.WriteString(s.Section.Render("SUGGESTED QUESTIONS"))
	for i, q := range v.suggestions {
		b.WriteString("\n")
		if i == v.selected && !v.typing {
			b.WriteString(s.Focus.Render("▶ " + q))
		} else {
			b.WriteString(s.Label.Render("  " + q))
		}
	}
	b.WriteString("\n\n")

	if v.typing {
		b.WriteString(v.input.Render())
		b.WriteString("\n")
		b.WriteString(s.Help.Render("Enter:Ask  Esc:Cancel"))
	} else {
		b.WriteString(s.Help.Render("Up/Down:Select  Enter:Ask  /:Type a question  c:Clear"))
	}
	return b.String()
}

func (v *View) renderResponse(r assistant.Response, width int) string {
	s := v.styles
	labels := v.agent.Labels()

	var b strings.Builder
	b.WriteString(s.Section.Width(width).Render(r.Summary))
	sections := []struct {
		label string
		body  string
		style func(...string) string
	}{
		{labels.Evidence, r.Evidence, s.Value.Render},
		{labels.Risk, r.Risk, s.Warning.Render},
		{labels.Alternative, r.Alternative, s.Value.Render},
	}
	for _, sec := range sections {
		b.WriteString("\n\n")
		b.WriteString(s.Label.Render("■ " + sec.label))
		b.WriteString("\n")
		b.WriteString(sec.style(sec.body))
	}
	return b.String()
}
