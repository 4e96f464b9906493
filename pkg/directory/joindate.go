package directory

import (
	"fmt"
	"time"
)

// joinDateLayouts are tried in order when parsing a join date.
var joinDateLayouts = []string{
	"1/2/2006",
	"2006-01-02",
	time.RFC3339,
}

// ParseJoinDate parses the join date formats the directory API is known to emit.
func ParseJoinDate(raw string) (time.Time, error) {
	for _, layout := range joinDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized join date %q", raw)
}

// FormatJoinDate renders a join date relative to now ("today", "5 days ago",
// "2 weeks ago", ...). Unparseable input is returned unchanged.
func FormatJoinDate(raw string, now time.Time) string {
	joined, err := ParseJoinDate(raw)
	if err != nil {
		return raw
	}

	y1, m1, d1 := joined.Date()
	y2, m2, d2 := now.Date()
	// Compare calendar days so the time of day does not shift the result.
	from := time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC)
	to := time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC)
	days := int(to.Sub(from).Hours() / 24)

	switch {
	case days <= 0:
		return "today"
	case days == 1:
		return "yesterday"
	case days < 7:
		return fmt.Sprintf("%d days ago", days)
	case days < 30:
		return plural(days/7, "week")
	case days < 365:
		return plural(days/30, "month")
	default:
		return plural(days/365, "year")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
