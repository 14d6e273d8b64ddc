package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Panel renders a bordered panel with the title set into the top border.
func Panel(s Styles, title, content string, width int) string {
	style := s.Box.Width(max(width-2, 1))
	if title == "" {
		return style.Render(content)
	}

	body := style.BorderTop(false).Render(content)
	bodyWidth := lipgloss.Width(body)
	label := " " + title + " "
	fill := bodyWidth - 3 - lipgloss.Width(label)
	if fill < 0 {
		return style.Render(content)
	}

	border := lipgloss.RoundedBorder()
	top := s.Label.Render(border.TopLeft+border.Top) +
		s.Title.Render(label) +
		s.Label.Render(strings.Repeat(border.Top, fill)+border.TopRight)
	return top + "\n" + body
}

// SideBySide renders blocks next to each other when they fit in totalWidth,
// otherwise stacks them vertically.
func SideBySide(totalWidth, gap int, blocks ...string) string {
	if len(blocks) == 0 {
		return ""
	}

	need := gap * (len(blocks) - 1)
	for _, b := range blocks {
		need += lipgloss.Width(b)
	}
	if need > totalWidth {
		return strings.Join(blocks, "\n\n")
	}

	parts := make([]string, 0, 2*len(blocks)-1)
	spacer := strings.Repeat(" ", gap)
	for i, b := range blocks {
		if i > 0 {
			parts = append(parts, spacer)
		}
		parts = append(parts, b)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

// Bar renders a text gauge of value out of maxValue. With higherIsWorse the
// color escalates as the gauge fills (risk); otherwise a full gauge is good
// (utilization).
func Bar(s Styles, value, maxValue float64, width int, higherIsWorse bool) string {
	if maxValue <= 0 {
		maxValue = 1
	}
	ratio := value / maxValue
	ratio = max(0, min(1, ratio))

	barWidth := max(width-2, 4)
	filled := int(ratio * float64(barWidth))
	bar := "[" + strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled) + "]"

	if higherIsWorse {
		switch {
		case ratio > 0.6:
			return s.Error.Render(bar)
		case ratio > 0.4:
			return s.Warning.Render(bar)
		default:
			return s.Success.Render(bar)
		}
	}
	switch {
	case ratio > 0.6:
		return s.Success.Render(bar)
	case ratio > 0.3:
		return s.Warning.Render(bar)
	default:
		return s.Error.Render(bar)
	}
}

// LabeledBar renders "label [bar] value%" on one line.
func LabeledBar(s Styles, label string, value float64, labelWidth, barWidth int, higherIsWorse bool) string {
	return s.Label.Width(labelWidth).Render(label) + " " +
		Bar(s, value, 100, barWidth, higherIsWorse) + " " +
		s.Value.Render(fmt.Sprintf("%3.0f%%", value))
}

// Card renders a small metric box: a label, a large value and a note.
func Card(s Styles, label, value, note string, noteStyle lipgloss.Style, width int) string {
	content := s.Label.Render(label) + "\n" +
		s.Title.Render(value) + "\n" +
		noteStyle.Render(note)
	return s.Box.Width(max(width-2, 1)).Render(content)
}

// Tabs renders a tab strip with the active tab highlighted.
func Tabs(s Styles, names []string, active int) string {
	parts := make([]string, len(names))
	for i, name := range names {
		if i == active {
			parts[i] = s.Focus.Underline(true).Render(name)
		} else {
			parts[i] = s.Muted.Render(name)
		}
	}
	return strings.Join(parts, s.Muted.Render(" | "))
}

// Clip cuts s to at most width terminal cells, marking the cut with an
// ellipsis. Wide runes count as two cells.
func Clip(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}
