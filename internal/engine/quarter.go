package engine

import (
	"fmt"
	"strings"
	"time"
)

// Quarter is a calendar quarter, e.g. {2024, 2} for April through June.
type Quarter struct {
	Year int
	Q    int
}

func (q Quarter) String() string { return fmt.Sprintf("%d-Q%d", q.Year, q.Q) }

// ParseQuarter parses tokens of the form "2024-Q2".
func ParseQuarter(token string) (Quarter, error) {
	var q Quarter
	if _, err := fmt.Sscanf(strings.TrimSpace(token), "%d-Q%d", &q.Year, &q.Q); err != nil {
		return Quarter{}, fmt.Errorf("malformed quarter %q", token)
	}
	if q.Q < 1 || q.Q > 4 || q.Year < 1 {
		return Quarter{}, fmt.Errorf("quarter %q out of range", token)
	}
	return q, nil
}

func quarterOf(t time.Time) Quarter {
	return Quarter{Year: t.Year(), Q: (int(t.Month())-1)/3 + 1}
}

// QuarterSpan returns the distinct quarters a date range overlaps, in
// chronological order. When only one date parses it stands in for both
// ends; when neither does the span is empty.
func QuarterSpan(startDate, endDate string) []Quarter {
	start, okStart := parseDate(startDate)
	end, okEnd := parseDate(endDate)
	switch {
	case !okStart && !okEnd:
		return nil
	case !okStart:
		start = end
	case !okEnd:
		end = start
	}
	if end.Before(start) {
		start, end = end, start
	}

	first := quarterOf(start)
	if first == quarterOf(end) {
		return []Quarter{first}
	}

	// walk one quarter at a time from the first day of the start quarter
	var span []Quarter
	cursor := time.Date(first.Year, time.Month((first.Q-1)*3+1), 1, 0, 0, 0, 0, time.UTC)
	for !cursor.After(end) {
		span = append(span, quarterOf(cursor))
		cursor = cursor.AddDate(0, 3, 0)
	}
	return span
}

// parseDate accepts date-only and RFC 3339 timestamps.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// dateOnly normalizes a stored date string to its calendar-day prefix.
func dateOnly(s string) string {
	if t, ok := parseDate(s); ok {
		return t.Format("2006-01-02")
	}
	return strings.TrimSpace(s)
}
