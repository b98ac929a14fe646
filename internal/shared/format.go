package shared

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DateLayout is the layout used for session dates on the command line and in forms.
const DateLayout = "2006-01-02"

var printer = message.NewPrinter(language.English)

// FormatNumber formats an integer with thousand separators (18248 → "18,248").
func FormatNumber(n int) string {
	return printer.Sprintf("%d", n)
}

// FormatMinutes renders a minute count as "1,234 min".
func FormatMinutes(minutes int) string {
	return FormatNumber(minutes) + " min"
}

// FormatDate renders the calendar date of t, or "—" for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	return t.Format(DateLayout)
}

// FormatRelative renders t relative to now ("3 days ago").
func FormatRelative(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.Time(t)
}

// RoundAverage rounds an average to the nearest whole number for display.
func RoundAverage(avg float64) string {
	return fmt.Sprintf("%.0f", avg)
}

// ParseDate parses a YYYY-MM-DD date in UTC. An empty string yields today.
func ParseDate(s string) (time.Time, error) {
	if s == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must be YYYY-MM-DD: %q", ErrInvalidInput, s)
	}
	return t, nil
}
