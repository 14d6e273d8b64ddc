package assistant

import (
	"strings"
	"testing"
	"time"

	"github.com/knowlearn/kldash/internal/assistant"
	"github.com/knowlearn/kldash/internal/tui/components"
)

type fakeAgent struct {
	asked []string
}

func (f *fakeAgent) Suggestions() []string {
	return []string{"Who is free next month?", "Which project is riskiest?"}
}

func (f *fakeAgent) Answer(q string) assistant.Response {
	f.asked = append(f.asked, q)
	return assistant.Response{
		Summary:     "Answer to " + q,
		Evidence:    "bench report",
		Risk:        "schedule slip",
		Alternative: "hire a contractor",
	}
}

func (f *fakeAgent) Welcome() string  { return "Ask me about staffing." }
func (f *fakeAgent) Thinking() string { return "Thinking..." }

func (f *fakeAgent) Labels() assistant.Labels {
	return assistant.Labels{Evidence: "Evidence", Risk: "Risk", Alternative: "Alternative"}
}

func TestView_InitialRender(t *testing.T) {
	v := New(&fakeAgent{}, components.DefaultStyles(), 0)
	output := v.Render(120, 40)

	for _, want := range []string{"AI AGENT", "Ask me about staffing.", "SUGGESTED QUESTIONS", "▶ Who is free next month?"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output", want)
		}
	}
}

func TestView_AskSuggestion(t *testing.T) {
	agent := &fakeAgent{}
	v := New(agent, components.DefaultStyles(), 0)

	v.HandleKey("down")
	cmd := v.HandleKey("enter")
	if cmd == nil {
		t.Fatal("expected answer command")
	}
	if !v.Pending() {
		t.Error("expected question to be pending")
	}
	if !strings.Contains(v.Render(120, 40), "Thinking...") {
		t.Error("expected thinking text while pending")
	}

	v.SetAnswer(cmd().(AnsweredMsg))
	if v.Pending() {
		t.Error("expected answer to resolve the question")
	}

	output := v.Render(120, 40)
	for _, want := range []string{"> Which project is riskiest?", "Answer to Which project is riskiest?", "■ Evidence", "bench report", "■ Risk", "■ Alternative"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output", want)
		}
	}
}

func TestView_IgnoresQuestionWhilePending(t *testing.T) {
	agent := &fakeAgent{}
	v := New(agent, components.DefaultStyles(), time.Second)

	if cmd := v.HandleKey("enter"); cmd == nil {
		t.Fatal("expected answer command")
	}
	if cmd := v.HandleKey("enter"); cmd != nil {
		t.Error("expected second question to be ignored while pending")
	}
	if len(agent.asked) != 1 {
		t.Errorf("Expected 1 question asked, got %d", len(agent.asked))
	}
}

func TestView_StaleAnswerDropped(t *testing.T) {
	v := New(&fakeAgent{}, components.DefaultStyles(), 0)

	first := v.HandleKey("enter")().(AnsweredMsg)
	v.SetAnswer(first)
	v.HandleKey("enter")

	v.SetAnswer(first)
	if !v.Pending() {
		t.Error("expected stale answer to be dropped")
	}
}

func TestView_TypeQuestion(t *testing.T) {
	agent := &fakeAgent{}
	v := New(agent, components.DefaultStyles(), 0)

	v.HandleKey("/")
	if !v.Capturing() {
		t.Fatal("expected input to capture keys")
	}
	for _, r := range "quit?" {
		v.HandleKey(string(r))
	}
	if !strings.Contains(v.Render(120, 40), "Enter:Ask  Esc:Cancel") {
		t.Error("expected input help while typing")
	}

	cmd := v.HandleKey("enter")
	if cmd == nil {
		t.Fatal("expected answer command")
	}
	if v.Capturing() {
		t.Error("expected input to close after asking")
	}
	if len(agent.asked) != 1 || agent.asked[0] != "quit?" {
		t.Errorf("Expected question %q, got %v", "quit?", agent.asked)
	}
}

func TestView_EmptyQuestionIgnored(t *testing.T) {
	v := New(&fakeAgent{}, components.DefaultStyles(), 0)

	v.HandleKey("i")
	v.HandleKey("space")
	if cmd := v.HandleKey("enter"); cmd != nil {
		t.Error("expected blank question to be ignored")
	}
}

func TestView_Clear(t *testing.T) {
	v := New(&fakeAgent{}, components.DefaultStyles(), 0)
	v.SetAnswer(v.HandleKey("enter")().(AnsweredMsg))

	v.HandleKey("c")
	if strings.Contains(v.Render(120, 40), "Answer to") {
		t.Error("expected conversation to be cleared")
	}
}
