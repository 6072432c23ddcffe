package output

import (
	"bytes"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"
)

// TableFormatter formats listings as aligned columns.
type TableFormatter struct {
	// NoHeaders omits the header row.
	NoHeaders bool
}

// Format writes one tab-aligned line per row. Empty cells print as "-".
func (f *TableFormatter) Format(l Listing) (string, error) {
	if len(l.Rows) == 0 {
		kind := l.Kind
		if kind == "" {
			kind = "results"
		}
		return fmt.Sprintf("No %s found\n", kind), nil
	}

	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	if !f.NoHeaders && len(l.Headers) > 0 {
		_, _ = fmt.Fprintln(w, strings.Join(l.Headers, "\t"))
	}

	for i, row := range l.Rows {
		if len(l.Headers) > 0 && len(row) != len(l.Headers) {
			return "", fmt.Errorf("row %d has %d cells, want %d", i, len(row), len(l.Headers))
		}
		cells := make([]string, len(row))
		for j, c := range row {
			if c == "" {
				c = "-"
			}
			cells[j] = c
		}
		_, _ = fmt.Fprintln(w, strings.Join(cells, "\t"))
	}

	_ = w.Flush()
	return buf.String(), nil
}

// Age formats the time since t, e.g. "5s", "2m", "3h", "4d", "2w", "1y".
// A zero t prints as "-".
func Age(t, now time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return formatAge(now.Sub(t))
}

func formatAge(d time.Duration) string {
	if d < 0 {
		return "unknown"
	}

	seconds := int(d.Seconds())
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}

	minutes := seconds / 60
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}

	hours := minutes / 60
	if hours < 24 {
		return fmt.Sprintf("%dh", hours)
	}

	days := hours / 24
	if days < 7 {
		return fmt.Sprintf("%dd", days)
	}

	weeks := days / 7
	// Weeks up to ~2 months
	if weeks < 8 {
		return fmt.Sprintf("%dw", weeks)
	}

	if years := days / 365; years > 0 {
		return fmt.Sprintf("%dy", years)
	}
	return fmt.Sprintf("%dd", days)
}
