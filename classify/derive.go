package classify

import (
	"fmt"
	"strings"
	"time"
)

// DefaultPreviewLength is the preview length used by callers that do not
// pick their own.
const DefaultPreviewLength = 100

// Preview truncates body at the last whitespace boundary within maxLen and
// appends an ellipsis marker. A body already within maxLen is returned
// unchanged.
func Preview(body string, maxLen int) string {
	if maxLen <= 0 || len(body) <= maxLen {
		return body
	}
	cut := body[:maxLen]
	if i := strings.LastIndexAny(cut, " \t\n\r"); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " \t\n\r") + "..."
}

// WordCount counts non-empty whitespace-separated tokens.
func WordCount(body string) int {
	return len(strings.Fields(body))
}

// Domain returns the lowercase part after the last '@' of an email
// address, or "" when the address has no domain part.
func Domain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}
	return strings.ToLower(email[at+1:])
}

// relUnits drives RelativeTime. Each entry covers durations below its
// limit and divides by its unit span.
var relUnits = []struct {
	limit time.Duration
	span  time.Duration
	name  string
}{
	{time.Hour, time.Minute, "minute"},
	{24 * time.Hour, time.Hour, "hour"},
	{7 * 24 * time.Hour, 24 * time.Hour, "day"},
	{30 * 24 * time.Hour, 7 * 24 * time.Hour, "week"},
	{365 * 24 * time.Hour, 30 * 24 * time.Hour, "month"},
}

// RelativeTime renders t as a human-readable age relative to now, e.g.
// "just now", "3 hours ago", "2 weeks ago".
func RelativeTime(t, now time.Time) string {
	d := now.Sub(t)
	if d < time.Minute {
		return "just now"
	}
	for _, u := range relUnits {
		if d < u.limit {
			return plural(int(d/u.span), u.name)
		}
	}
	return plural(int(d/(365*24*time.Hour)), "year")
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit + " ago"
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
