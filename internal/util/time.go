package util

import (
	"fmt"
	"time"
)

const (
	// DateFormat is the standard date format for records.
	DateFormat = "2006-01-02"

	// DateTimeFormat is the standard datetime format for display.
	DateTimeFormat = "2006-01-02 15:04:05"
)

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// FixedClock always returns the same instant. Tests use it to pin
// timestamps.
type FixedClock struct {
	T time.Time
}

// Now returns the fixed time.
func (c FixedClock) Now() time.Time {
	return c.T
}

// FormatDate formats a time as a date string. The zero time renders as "-".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(DateFormat)
}

// FormatDateTime formats a time as a datetime string.
func FormatDateTime(t time.Time) string {
	return t.Format(DateTimeFormat)
}

// ParseDate parses a date string.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateFormat, s)
}

// DaysUntil calculates the number of calendar days from one date to another.
func DaysUntil(from, to time.Time) int {
	from = StartOfDay(from)
	to = time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, from.Location())

	return int(to.Sub(from).Hours() / 24)
}

// StartOfDay returns midnight of the given day.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// AvailabilityString describes when someone becomes free relative to now.
func AvailabilityString(from, now time.Time) string {
	if from.IsZero() {
		return "unknown"
	}
	days := DaysUntil(now, from)
	switch {
	case days <= 0:
		return "available now"
	case days == 1:
		return "from tomorrow"
	default:
		return fmt.Sprintf("in %d days", days)
	}
}

// RelativeTimeString returns a human-readable string for a past time.
func RelativeTimeString(t time.Time, now time.Time) string {
	diff := now.Sub(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", mins)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	default:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "yesterday"
		}
		return fmt.Sprintf("%d days ago", days)
	}
}
