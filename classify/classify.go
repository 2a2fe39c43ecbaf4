// Package classify computes derived classification for stored messages:
// a priority score, an urgency flag, and a spam-likelihood heuristic,
// plus small presentation-adjacent derivations (age, preview, word count,
// sender domain, relative time).
//
// Everything here is pure and deterministic given (message, now). Results
// are never persisted; callers recompute them on every retrieval so that
// urgency and priority reflect the current time rather than the time of
// storage.
package classify

import (
	"strings"
	"time"
	"unicode"

	"github.com/JuanKhanjar/inbox/store"
)

// DefaultUrgentThresholdHours is the age at which an unread message is
// considered urgent.
const DefaultUrgentThresholdHours = 24

// Priority bounds. 1 is the highest priority, 5 the lowest.
const (
	PriorityHighest = 1
	PriorityDefault = 3
	PriorityLowest  = 5
)

// urgentKeywords lower the priority by one when any of them appears in the
// subject or body as a case-insensitive substring.
var urgentKeywords = []string{
	"urgent", "asap", "important", "emergency",
	"help", "problem", "issue", "bug", "error",
}

// spamKeywords mark a message as potential spam when two or more of them
// appear across subject and body.
var spamKeywords = []string{
	"free", "win", "winner", "congratulations", "prize",
	"lottery", "casino", "viagra", "pharmacy", "pills",
	"weight loss", "make money", "work from home", "click here",
	"act now", "limited time", "offer expires", "100% free",
	"no obligation", "risk free", "satisfaction guaranteed",
}

// AgeInHours returns the message age in hours at the given instant.
func AgeInHours(m store.Message, now time.Time) float64 {
	return now.Sub(m.GetSentAt()).Hours()
}

// AgeInDays returns the message age in whole days at the given instant.
func AgeInDays(m store.Message, now time.Time) int {
	return int(AgeInHours(m, now) / 24)
}

// IsUrgent reports whether the message is unread and at least
// thresholdHours old. A read message is never urgent regardless of age.
func IsUrgent(m store.Message, now time.Time, thresholdHours int) bool {
	return !m.GetIsRead() && AgeInHours(m, now) >= float64(thresholdHours)
}

// Priority scores the message from 1 (highest) to 5 (lowest). Starting
// from the default of 3: unread subtracts 1; age over 72 hours subtracts
// 1; an urgent keyword in subject or body subtracts 1; potential spam adds
// 2. The result is clamped to [1, 5].
func Priority(m store.Message, now time.Time) int {
	p := PriorityDefault
	if !m.GetIsRead() {
		p--
	}
	switch age := AgeInHours(m, now); {
	case age <= 24:
		// fresh, keep the score
	case age <= 72:
		// 24-72h band keeps the score as well; the band is deliberate
		// tiering, not a collapsed branch
	default:
		p--
	}
	if containsAnyFold(m.GetSubject(), urgentKeywords) ||
		containsAnyFold(m.GetBody(), urgentKeywords) {
		p--
	}
	if IsPotentialSpam(m) {
		p += 2
	}
	return clamp(p, PriorityHighest, PriorityLowest)
}

// IsPotentialSpam applies a heuristic disjunction: two or more spam
// keywords across subject+body, a shouty subject (>10 chars, over 70%
// uppercase among letters), or excessive exclamation marks (more than 3 in
// the subject or more than 10 in the body). Any one condition suffices.
func IsPotentialSpam(m store.Message) bool {
	subject := m.GetSubject()
	body := m.GetBody()

	if spamKeywordHits(subject+" "+body) >= 2 {
		return true
	}
	if isMostlyUppercase(subject) {
		return true
	}
	if strings.Count(subject, "!") > 3 || strings.Count(body, "!") > 10 {
		return true
	}
	return false
}

func spamKeywordHits(text string) int {
	lower := strings.ToLower(text)
	hits := 0
	for _, kw := range spamKeywords {
		if strings.Contains(lower, kw) {
			hits++
		}
	}
	return hits
}

// isMostlyUppercase reports whether a subject longer than 10 characters
// has over 70% uppercase among its letters.
func isMostlyUppercase(subject string) bool {
	if len(subject) <= 10 {
		return false
	}
	var letters, upper int
	for _, r := range subject {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	if letters == 0 {
		return false
	}
	return float64(upper)/float64(letters) > 0.7
}

func containsAnyFold(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
