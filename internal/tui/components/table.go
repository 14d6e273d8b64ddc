package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Column defines a table column. A column with Width > 0 has a fixed width;
// otherwise it takes a Weight share of the space left over, never less than
// MinWidth.
type Column struct {
	Title    string
	Width    int
	MinWidth int
	Weight   float64
	Align    lipgloss.Position

	// Priority decides drop order on narrow terminals (lower drops first).
	Priority int
}

const columnSeparator = " | "

// Table is a simple table component.
type Table struct {
	columns     []Column
	rows        [][]string
	selected    int
	offset      int
	visibleRows int
	focused     bool
	styles      Styles

	// Pagination
	currentPage int
	totalPages  int
	totalRows   int
}

// NewTable creates a new table with the given columns.
func NewTable(columns []Column) *Table {
	return &Table{
		columns:     columns,
		rows:        [][]string{},
		visibleRows: 10,
		styles:      DefaultStyles(),
	}
}

// SetRows sets the table data and keeps the selection in range.
func (t *Table) SetRows(rows [][]string) {
	t.rows = rows
	if t.selected >= len(rows) {
		t.selected = len(rows) - 1
	}
	if t.selected < 0 {
		t.selected = 0
	}
	if t.offset > t.selected {
		t.offset = t.selected
	}
}

// SetPagination sets pagination info.
func (t *Table) SetPagination(page, totalPages, totalRows int) {
	t.currentPage = page
	t.totalPages = totalPages
	t.totalRows = totalRows
}

// SetVisibleRows sets the number of visible rows.
func (t *Table) SetVisibleRows(n int) {
	if n < 1 {
		n = 1
	}
	t.visibleRows = n
}

// SetStyles sets the table styles.
func (t *Table) SetStyles(s Styles) {
	t.styles = s
}

// Focus sets the table focus state.
func (t *Table) Focus(focused bool) {
	t.focused = focused
}

// Selected returns the currently selected row index.
func (t *Table) Selected() int {
	return t.selected
}

// MoveUp moves the selection up.
func (t *Table) MoveUp() {
	if t.selected > 0 {
		t.selected--
		if t.selected < t.offset {
			t.offset = t.selected
		}
	}
}

// MoveDown moves the selection down.
func (t *Table) MoveDown() {
	if t.selected < len(t.rows)-1 {
		t.selected++
		if t.selected >= t.offset+t.visibleRows {
			t.offset = t.selected - t.visibleRows + 1
		}
	}
}

// GoToTop goes to the first row.
func (t *Table) GoToTop() {
	t.selected = 0
	t.offset = 0
}

// GoToBottom goes to the last row.
func (t *Table) GoToBottom() {
	if len(t.rows) > 0 {
		t.selected = len(t.rows) - 1
		t.offset = t.selected - t.visibleRows + 1
		if t.offset < 0 {
			t.offset = 0
		}
	}
}

// Render renders the table at each column's natural width.
func (t *Table) Render() string {
	widths := make([]int, len(t.columns))
	for i, col := range t.columns {
		widths[i] = col.Width
		if widths[i] == 0 {
			widths[i] = max(col.MinWidth, lipgloss.Width(col.Title))
		}
	}
	return t.render(widths)
}

// RenderResponsive renders the table to fit width, dropping low-priority
// columns when there is not enough room.
func (t *Table) RenderResponsive(width int) string {
	return t.render(ColumnWidths(t.columns, width, lipgloss.Width(columnSeparator)))
}

func (t *Table) render(widths []int) string {
	var b strings.Builder

	totalWidth := 0
	visible := 0
	for _, w := range widths {
		if w > 0 {
			totalWidth += w
			visible++
		}
	}
	if visible > 1 {
		totalWidth += (visible - 1) * lipgloss.Width(columnSeparator)
	}
	totalWidth += 2

	b.WriteString(t.renderRow(t.headers(), widths, t.styles.TableHeader))
	b.WriteString("\n")
	b.WriteString(t.styles.TableBorder.Render(strings.Repeat("-", totalWidth)))
	b.WriteString("\n")

	end := min(t.offset+t.visibleRows, len(t.rows))
	for i := t.offset; i < end; i++ {
		style := t.styles.TableRow
		switch {
		case i == t.selected && t.focused:
			style = t.styles.TableSelected
		case (i-t.offset)%2 == 1:
			style = t.styles.TableRowAlt
		}
		b.WriteString(t.renderRow(t.rows[i], widths, style))
		b.WriteString("\n")
	}

	if t.totalPages > 0 {
		b.WriteString(t.styles.TableBorder.Render(strings.Repeat("-", totalWidth)))
		b.WriteString("\n")
		b.WriteString(t.styles.TableBorder.Render(fmt.Sprintf("Page %d/%d | %d total", t.currentPage, t.totalPages, t.totalRows)))
	}

	return b.String()
}

func (t *Table) headers() []string {
	headers := make([]string, len(t.columns))
	for i, col := range t.columns {
		headers[i] = col.Title
	}
	return headers
}

func (t *Table) renderRow(cells []string, widths []int, style lipgloss.Style) string {
	var parts []string
	for i, col := range t.columns {
		if widths[i] <= 0 {
			continue
		}
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		parts = append(parts, style.Render(Fit(cell, widths[i], col.Align)))
	}
	return " " + strings.Join(parts, columnSeparator) + " "
}

// Fit truncates or pads s to exactly width display cells.
func Fit(s string, width int, align lipgloss.Position) string {
	if width <= 0 {
		return ""
	}
	s = Clip(s, width)
	pad := width - lipgloss.Width(s)
	if pad <= 0 {
		return s
	}
	switch align {
	case lipgloss.Right:
		return strings.Repeat(" ", pad) + s
	case lipgloss.Center:
		left := pad / 2
		return strings.Repeat(" ", left) + s + strings.Repeat(" ", pad-left)
	default:
		return s + strings.Repeat(" ", pad)
	}
}

// ColumnWidths distributes availableWidth among columns. Fixed columns keep
// their width and the rest share what remains by weight. When the columns
// do not fit, the lowest-priority ones are hidden (width 0). separator is
// the width consumed by each gap between columns.
func ColumnWidths(columns []Column, availableWidth, separator int) []int {
	widths := make([]int, len(columns))
	visible := make([]bool, len(columns))

	need := func() (fixed int, weight float64, count int) {
		for i, col := range columns {
			if !visible[i] {
				continue
			}
			count++
			if col.Width > 0 {
				fixed += col.Width
			} else {
				fixed += col.MinWidth
				weight += col.Weight
			}
		}
		return fixed, weight, count
	}

	for i := range columns {
		visible[i] = true
	}

	fixed, weight, count := need()
	for count > 1 && availableWidth-fixed-(count-1)*separator-2 < 0 {
		lowest := -1
		for i, col := range columns {
			if visible[i] && (lowest < 0 || col.Priority < columns[lowest].Priority) {
				lowest = i
			}
		}
		visible[lowest] = false
		fixed, weight, count = need()
	}

	remaining := availableWidth - fixed - (count-1)*separator - 2
	if remaining < 0 {
		remaining = 0
	}

	for i, col := range columns {
		switch {
		case !visible[i]:
			widths[i] = 0
		case col.Width > 0:
			widths[i] = col.Width
		case weight > 0:
			widths[i] = col.MinWidth + int(float64(remaining)*col.Weight/weight)
		default:
			widths[i] = col.MinWidth
		}
	}
	return widths
}

// Empty returns true if the table has no rows.
func (t *Table) Empty() bool {
	return len(t.rows) == 0
}
