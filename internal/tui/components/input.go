package components

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Input is a simple text input component.
type Input struct {
	label       string
	value       string
	placeholder string
	width       int
	focused     bool
	cursorPos   int
	maxLength   int
	required    bool
	validate    func(string) error
	err         string
	styles      Styles
}

// NewInput creates a new input field.
func NewInput(label string) *Input {
	return &Input{
		label:     label,
		width:     20,
		maxLength: 100,
		styles:    DefaultStyles(),
	}
}

// SetValue sets the input value.
func (i *Input) SetValue(v string) *Input {
	i.value = v
	i.cursorPos = len([]rune(v))
	i.err = ""
	return i
}

// SetPlaceholder sets the placeholder text.
func (i *Input) SetPlaceholder(p string) *Input {
	i.placeholder = p
	return i
}

// SetWidth sets the input width.
func (i *Input) SetWidth(w int) *Input {
	i.width = w
	return i
}

// SetMaxLength sets the maximum input length.
func (i *Input) SetMaxLength(m int) *Input {
	i.maxLength = m
	return i
}

// SetRequired marks the field as required.
func (i *Input) SetRequired(r bool) *Input {
	i.required = r
	return i
}

// SetValidator installs a check run by Validate on non-empty values.
func (i *Input) SetValidator(fn func(string) error) *Input {
	i.validate = fn
	return i
}

// SetError sets an error message.
func (i *Input) SetError(e string) *Input {
	i.err = e
	return i
}

// Error returns the current error message.
func (i *Input) Error() string {
	return i.err
}

// SetStyles sets the render styles.
func (i *Input) SetStyles(s Styles) {
	i.styles = s
}

// Focus sets the focus state.
func (i *Input) Focus(focused bool) {
	i.focused = focused
	if n := len([]rune(i.value)); focused && i.cursorPos > n {
		i.cursorPos = n
	}
}

// IsFocused returns the focus state.
func (i *Input) IsFocused() bool {
	return i.focused
}

// Value returns the current value.
func (i *Input) Value() string {
	return i.value
}

// HandleKey handles a key press.
func (i *Input) HandleKey(key string) {
	if !i.focused {
		return
	}

	runes := []rune(i.value)
	switch key {
	case "backspace":
		if i.cursorPos > 0 {
			runes = append(runes[:i.cursorPos-1], runes[i.cursorPos:]...)
			i.cursorPos--
		}
	case "delete":
		if i.cursorPos < len(runes) {
			runes = append(runes[:i.cursorPos], runes[i.cursorPos+1:]...)
		}
	case "left":
		if i.cursorPos > 0 {
			i.cursorPos--
		}
	case "right":
		if i.cursorPos < len(runes) {
			i.cursorPos++
		}
	case "home", "ctrl+a":
		i.cursorPos = 0
	case "end", "ctrl+e":
		i.cursorPos = len(runes)
	case "space":
		key = " "
		fallthrough
	default:
		r := []rune(key)
		if len(r) == 1 && len(runes) < i.maxLength {
			runes = append(runes[:i.cursorPos], append(r, runes[i.cursorPos:]...)...)
			i.cursorPos++
		}
	}
	i.value = string(runes)
}

// Validate checks the value and records the error message.
func (i *Input) Validate() bool {
	v := strings.TrimSpace(i.value)
	if i.required && v == "" {
		i.err = "Required"
		return false
	}
	if v != "" && i.validate != nil {
		if err := i.validate(v); err != nil {
			i.err = err.Error()
			return false
		}
	}
	i.err = ""
	return true
}

// Render renders the input field.
func (i *Input) Render() string {
	label := i.label
	if i.required {
		label += "*"
	}
	label += ":"

	runes := []rune(i.value)
	var display string
	switch {
	case i.value == "" && i.placeholder != "" && !i.focused:
		display = i.styles.Muted.Render(i.placeholder)
	case i.focused:
		display = i.styles.Focus.Render(string(runes[:i.cursorPos]) + "_" + string(runes[i.cursorPos:]))
	default:
		display = i.styles.Value.Render(i.value)
	}

	displayLen := len(runes)
	if i.focused {
		displayLen++
	}
	if displayLen < i.width {
		display += strings.Repeat(" ", i.width-displayLen)
	}

	result := i.styles.Label.Width(22).Render(label) + " " + display
	if i.err != "" {
		result += " " + i.styles.Error.Render(i.err)
	}
	return result
}

// FloatRange returns a validator accepting numbers in [lo, hi].
func FloatRange(lo, hi float64) func(string) error {
	return func(s string) error {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(v) {
			return fmt.Errorf("not a number")
		}
		if v < lo || v > hi {
			return fmt.Errorf("must be %g-%g", lo, hi)
		}
		return nil
	}
}

// IntRange returns a validator accepting integers in [lo, hi].
func IntRange(lo, hi int) func(string) error {
	return func(s string) error {
		v, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("not a whole number")
		}
		if v < lo || v > hi {
			return fmt.Errorf("must be %d-%d", lo, hi)
		}
		return nil
	}
}

// DateLayout returns a validator accepting dates in layout.
func DateLayout(layout string) func(string) error {
	return func(s string) error {
		if _, err := time.Parse(layout, s); err != nil {
			return fmt.Errorf("use %s", layout)
		}
		return nil
	}
}

// Select is a selection input component.
type Select struct {
	label    string
	options  []string
	selected int
	focused  bool
	styles   Styles
}

// NewSelect creates a new select input.
func NewSelect(label string, options []string) *Select {
	return &Select{
		label:   label,
		options: options,
		styles:  DefaultStyles(),
	}
}

// SetSelected sets the selected index.
func (s *Select) SetSelected(idx int) *Select {
	if idx >= 0 && idx < len(s.options) {
		s.selected = idx
	}
	return s
}

// SetValue selects the option equal to v, if present.
func (s *Select) SetValue(v string) *Select {
	for i, opt := range s.options {
		if opt == v {
			s.selected = i
			break
		}
	}
	return s
}

// SetOptions replaces the options, keeping the current value when it is
// still offered.
func (s *Select) SetOptions(options []string) {
	current := s.Value()
	s.options = options
	s.selected = 0
	s.SetValue(current)
}

// SetStyles sets the render styles.
func (s *Select) SetStyles(st Styles) {
	s.styles = st
}

// Focus sets the focus state.
func (s *Select) Focus(focused bool) {
	s.focused = focused
}

// IsFocused returns the focus state.
func (s *Select) IsFocused() bool {
	return s.focused
}

// Value returns the selected value.
func (s *Select) Value() string {
	if s.selected >= 0 && s.selected < len(s.options) {
		return s.options[s.selected]
	}
	return ""
}

// HandleKey handles a key press.
func (s *Select) HandleKey(key string) {
	if !s.focused {
		return
	}

	switch key {
	case "left", "h":
		if s.selected > 0 {
			s.selected--
		}
	case "right", "l":
		if s.selected < len(s.options)-1 {
			s.selected++
		}
	}
}

// Validate always succeeds; every option is a valid choice.
func (s *Select) Validate() bool { return true }

// Render renders the select. Long option lists show only the current value.
func (s *Select) Render() string {
	var b strings.Builder
	b.WriteString(s.styles.Label.Width(22).Render(s.label + ":"))
	b.WriteString(" ")

	if len(s.options) > 5 {
		v := s.Value()
		if s.focused {
			b.WriteString(s.styles.Focus.Render("< " + v + " >"))
		} else {
			b.WriteString(s.styles.Value.Render(v))
		}
		b.WriteString(s.styles.Muted.Render(fmt.Sprintf("  (%d/%d)", s.selected+1, len(s.options))))
		return b.String()
	}

	for i, opt := range s.options {
		if i > 0 {
			b.WriteString(" ")
		}
		switch {
		case i == s.selected && s.focused:
			b.WriteString(s.styles.Focus.Render("[" + opt + "]"))
		case i == s.selected:
			b.WriteString(s.styles.Value.Bold(true).Render("(" + opt + ")"))
		default:
			b.WriteString(s.styles.Label.Render(" " + opt + " "))
		}
	}
	return b.String()
}

// FormField is a focusable, validatable form control.
type FormField interface {
	Focus(bool)
	IsFocused() bool
	HandleKey(string)
	Validate() bool
	SetStyles(Styles)
	Render() string
}

var (
	_ FormField = (*Input)(nil)
	_ FormField = (*Select)(nil)
)

// Form is a simple form container.
type Form struct {
	title      string
	fields     []FormField
	focusIndex int
	submitted  bool
	cancelled  bool
	err        string
	help       string
	styles     Styles
}

// NewForm creates a new form.
func NewForm(title string) *Form {
	return &Form{
		title:  title,
		help:   "Tab/Down:Next  Shift+Tab/Up:Prev  Left/Right:Choose  Enter:Submit  Esc:Cancel",
		styles: DefaultStyles(),
	}
}

// AddField adds a field to the form.
func (f *Form) AddField(field FormField) *Form {
	field.SetStyles(f.styles)
	f.fields = append(f.fields, field)
	if len(f.fields) == 1 {
		field.Focus(true)
	}
	return f
}

// SetStyles sets the styles of the form and its fields.
func (f *Form) SetStyles(s Styles) {
	f.styles = s
	for _, field := range f.fields {
		field.SetStyles(s)
	}
}

// SetHelp replaces the key help line.
func (f *Form) SetHelp(help string) {
	f.help = help
}

// HandleKey handles form navigation. Enter submits from any field.
func (f *Form) HandleKey(key string) {
	switch key {
	case "tab", "down":
		f.nextField()
	case "shift+tab", "up":
		f.prevField()
	case "esc":
		f.cancelled = true
	case "enter", "ctrl+s":
		f.submitted = true
	default:
		if f.focusIndex < len(f.fields) {
			f.fields[f.focusIndex].HandleKey(key)
		}
	}
}

func (f *Form) nextField() {
	if len(f.fields) == 0 {
		return
	}
	f.fields[f.focusIndex].Focus(false)
	f.focusIndex = (f.focusIndex + 1) % len(f.fields)
	f.fields[f.focusIndex].Focus(true)
}

func (f *Form) prevField() {
	if len(f.fields) == 0 {
		return
	}
	f.fields[f.focusIndex].Focus(false)
	f.focusIndex--
	if f.focusIndex < 0 {
		f.focusIndex = len(f.fields) - 1
	}
	f.fields[f.focusIndex].Focus(true)
}

// Validate validates every field, so each one shows its own error.
func (f *Form) Validate() bool {
	ok := true
	for _, field := range f.fields {
		if !field.Validate() {
			ok = false
		}
	}
	return ok
}

// IsSubmitted returns true if form was submitted.
func (f *Form) IsSubmitted() bool {
	return f.submitted
}

// IsCancelled returns true if form was cancelled.
func (f *Form) IsCancelled() bool {
	return f.cancelled
}

// Reset clears the submitted and cancelled flags.
func (f *Form) Reset() {
	f.submitted = false
	f.cancelled = false
}

// SetError sets an error message.
func (f *Form) SetError(err string) {
	f.err = err
}

// Error returns the form-level error message.
func (f *Form) Error() string {
	return f.err
}

// Render renders the form.
func (f *Form) Render() string {
	var b strings.Builder

	if f.title != "" {
		b.WriteString(f.styles.Title.Render(fmt.Sprintf("=== %s ===", f.title)))
		b.WriteString("\n\n")
	}

	for _, field := range f.fields {
		b.WriteString(field.Render())
		b.WriteString("\n")
	}

	if f.err != "" {
		b.WriteString("\n")
		b.WriteString(f.styles.Error.Render("Error: " + f.err))
		b.WriteString("\n")
	}

	if f.help != "" {
		b.WriteString("\n")
		b.WriteString(f.styles.Help.Render(f.help))
	}

	return b.String()
}
