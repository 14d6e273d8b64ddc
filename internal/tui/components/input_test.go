package components

import (
	"strings"
	"testing"
)

func TestInput_RequiredValidation(t *testing.T) {
	input := NewInput("Project").SetRequired(true)

	if input.Validate() {
		t.Error("Expected validation to fail for empty required field")
	}
	if input.Error() != "Required" {
		t.Errorf("Expected 'Required', got %q", input.Error())
	}

	input.SetValue("Alpha")
	if !input.Validate() {
		t.Error("Expected validation to pass with value set")
	}

	input.SetValue("   ")
	if input.Validate() {
		t.Error("Expected validation to fail for whitespace-only required field")
	}
}

func TestInput_Validators(t *testing.T) {
	tests := []struct {
		name     string
		validate func(string) error
		value    string
		wantErr  string
	}{
		{"float in range", FloatRange(0, 500), "120.5", ""},
		{"float too big", FloatRange(0, 500), "501", "must be 0-500"},
		{"float garbage", FloatRange(0, 500), "12a", "not a number"},
		{"int in range", IntRange(0, 100), "50", ""},
		{"int fraction", IntRange(0, 100), "50.5", "not a whole number"},
		{"int negative", IntRange(0, 100), "-1", "must be 0-100"},
		{"date ok", DateLayout("2006-01-02"), "2024-08-01", ""},
		{"date wrong layout", DateLayout("2006-01-02"), "08/01/2024", "use 2006-01-02"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := NewInput("Field").SetValidator(tt.validate).SetValue(tt.value)
			ok := input.Validate()
			if ok != (tt.wantErr == "") {
				t.Errorf("Expected ok=%v, got %v (%q)", tt.wantErr == "", ok, input.Error())
			}
			if input.Error() != tt.wantErr {
				t.Errorf("Expected error %q, got %q", tt.wantErr, input.Error())
			}
		})
	}
}

func TestInput_EmptyOptionalSkipsValidator(t *testing.T) {
	input := NewInput("Min Availability").SetValidator(IntRange(0, 100))
	if !input.Validate() {
		t.Errorf("Expected empty optional field to pass, got %q", input.Error())
	}
}

func TestInput_HandleKey(t *testing.T) {
	input := NewInput("Search")
	input.Focus(true)

	for _, k := range []string{"C", "l", "o", "u", "d"} {
		input.HandleKey(k)
	}
	if input.Value() != "Cloud" {
		t.Errorf("Expected 'Cloud', got %q", input.Value())
	}

	input.HandleKey("left")
	input.HandleKey("X")
	if input.Value() != "ClouXd" {
		t.Errorf("Expected 'ClouXd', got %q", input.Value())
	}

	input.HandleKey("home")
	input.HandleKey("delete")
	if input.Value() != "louXd" {
		t.Errorf("Expected 'louXd', got %q", input.Value())
	}

	input.HandleKey("end")
	input.HandleKey("backspace")
	if input.Value() != "louX" {
		t.Errorf("Expected 'louX', got %q", input.Value())
	}

	// Function keys are not text.
	input.HandleKey("f3")
	if input.Value() != "louX" {
		t.Errorf("Expected 'louX', got %q", input.Value())
	}
}

func TestInput_HandleKey_MultibyteRunes(t *testing.T) {
	input := NewInput("Question")
	input.Focus(true)

	for _, k := range []string{"인", "력", "x"} {
		input.HandleKey(k)
	}
	input.HandleKey("backspace")
	input.HandleKey("backspace")
	if input.Value() != "인" {
		t.Errorf("Expected '인', got %q", input.Value())
	}
}

func TestInput_NotFocusedIgnoresKeys(t *testing.T) {
	input := NewInput("Name").SetValue("Hello")
	input.HandleKey("A")
	if input.Value() != "Hello" {
		t.Errorf("Should not handle keys when not focused, got %q", input.Value())
	}
}

func TestInput_MaxLength(t *testing.T) {
	input := NewInput("Code").SetMaxLength(3)
	input.Focus(true)
	for _, k := range []string{"a", "b", "c", "d"} {
		input.HandleKey(k)
	}
	if input.Value() != "abc" {
		t.Errorf("Expected 'abc', got %q", input.Value())
	}
}

func TestInput_Render(t *testing.T) {
	input := NewInput("Required MM").SetPlaceholder("1-500")
	if !strings.Contains(input.Render(), "1-500") {
		t.Error("Expected placeholder in render")
	}

	input.SetValue("abc").SetValidator(FloatRange(1, 500))
	input.Validate()
	out := input.Render()
	if !strings.Contains(out, "Required MM:") || !strings.Contains(out, "not a number") {
		t.Errorf("Expected label and error in render, got %q", out)
	}
}

func TestSelect(t *testing.T) {
	sel := NewSelect("Strategy", []string{"Conservative", "Neutral", "Aggressive"})
	sel.SetValue("Neutral")
	if sel.selected != 1 {
		t.Errorf("Expected index 1, got %d", sel.selected)
	}

	sel.HandleKey("right")
	if sel.Value() != "Neutral" {
		t.Error("Unfocused select should ignore keys")
	}

	sel.Focus(true)
	sel.HandleKey("right")
	sel.HandleKey("right")
	if sel.Value() != "Aggressive" {
		t.Errorf("Expected 'Aggressive', got %q", sel.Value())
	}

	sel.HandleKey("left")
	if sel.Value() != "Neutral" {
		t.Errorf("Expected 'Neutral', got %q", sel.Value())
	}

	if !strings.Contains(sel.Render(), "[Neutral]") {
		t.Errorf("Expected focused option in brackets, got %q", sel.Render())
	}
}

func TestSelect_SetOptionsKeepsValue(t *testing.T) {
	sel := NewSelect("Role", []string{"All", "PL", "AA"})
	sel.SetValue("AA")

	sel.SetOptions([]string{"All", "AA", "DA", "Developer"})
	if sel.Value() != "AA" {
		t.Errorf("Expected 'AA' kept, got %q", sel.Value())
	}

	sel.SetOptions([]string{"All", "PL"})
	if sel.Value() != "All" {
		t.Errorf("Expected fallback to 'All', got %q", sel.Value())
	}
}

func TestSelect_LongListRendersCurrentOnly(t *testing.T) {
	sel := NewSelect("Skill", []string{"All", "Java", "Python", "React", "AWS", "Docker", "Go"})
	sel.SetValue("React")

	out := sel.Render()
	if !strings.Contains(out, "React") || strings.Contains(out, "Docker") {
		t.Errorf("Expected only current value, got %q", out)
	}
	if !strings.Contains(out, "(4/7)") {
		t.Errorf("Expected position indicator, got %q", out)
	}
}

func TestForm_Navigation(t *testing.T) {
	first := NewInput("First")
	second := NewSelect("Second", []string{"A", "B"})
	form := NewForm("Test").AddField(first).AddField(second)

	if !first.IsFocused() {
		t.Error("First field should be focused")
	}

	form.HandleKey("tab")
	if first.IsFocused() || !second.IsFocused() {
		t.Error("Tab should move focus to second field")
	}

	form.HandleKey("right")
	if second.Value() != "B" {
		t.Errorf("Expected key routed to focused select, got %q", second.Value())
	}

	form.HandleKey("tab")
	if form.focusIndex != 0 {
		t.Errorf("Expected focus to wrap to 0, got %d", form.focusIndex)
	}

	form.HandleKey("shift+tab")
	if form.focusIndex != 1 {
		t.Errorf("Expected focus to wrap to 1, got %d", form.focusIndex)
	}
}

func TestForm_SubmitCancelReset(t *testing.T) {
	form := NewForm("Test").AddField(NewInput("Only"))

	form.HandleKey("enter")
	if !form.IsSubmitted() {
		t.Error("Enter should submit")
	}

	form.Reset()
	if form.IsSubmitted() {
		t.Error("Reset should clear submitted")
	}

	form.HandleKey("esc")
	if !form.IsCancelled() {
		t.Error("Esc should cancel")
	}
}

func TestForm_ValidateMarksEveryField(t *testing.T) {
	a := NewInput("A").SetRequired(true)
	b := NewInput("B").SetValidator(FloatRange(0, 10)).SetValue("11")
	form := NewForm("Test").AddField(a).AddField(b)

	if form.Validate() {
		t.Fatal("Expected validation failure")
	}
	if a.Error() == "" || b.Error() == "" {
		t.Errorf("Expected both fields to report errors, got %q and %q", a.Error(), b.Error())
	}

	form.SetError("fix the fields")
	if !strings.Contains(form.Render(), "Error: fix the fields") {
		t.Error("Expected form error in render")
	}
}
