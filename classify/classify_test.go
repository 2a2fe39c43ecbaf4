package classify

import (
	"strings"
	"testing"
	"time"

	"github.com/JuanKhanjar/inbox/store"
)

func testMessage(subject, body string, age time.Duration, read bool, now time.Time) store.Message {
	return &store.Record{
		ID:          1,
		SenderName:  "Jane Doe",
		SenderEmail: "jane@example.com",
		Subject:     subject,
		Body:        body,
		SentAt:      now.Add(-age),
		IsRead:      read,
	}
}

func TestIsUrgent(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	t.Run("unread past threshold", func(t *testing.T) {
		m := testMessage("Hello there", "a perfectly ordinary message body", 25*time.Hour, false, now)
		if !IsUrgent(m, now, DefaultUrgentThresholdHours) {
			t.Error("expected urgent")
		}
	})

	t.Run("exactly at threshold", func(t *testing.T) {
		m := testMessage("Hello there", "a perfectly ordinary message body", 24*time.Hour, false, now)
		if !IsUrgent(m, now, DefaultUrgentThresholdHours) {
			t.Error("expected urgent at exact threshold")
		}
	})

	t.Run("unread under threshold", func(t *testing.T) {
		m := testMessage("Hello there", "a perfectly ordinary message body", 23*time.Hour, false, now)
		if IsUrgent(m, now, DefaultUrgentThresholdHours) {
			t.Error("expected not urgent")
		}
	})

	t.Run("read message never urgent", func(t *testing.T) {
		m := testMessage("Hello there", "a perfectly ordinary message body", 1000*time.Hour, true, now)
		if IsUrgent(m, now, DefaultUrgentThresholdHours) {
			t.Error("read message must not be urgent regardless of age")
		}
	})

	t.Run("custom threshold", func(t *testing.T) {
		m := testMessage("Hello there", "a perfectly ordinary message body", 5*time.Hour, false, now)
		if !IsUrgent(m, now, 4) {
			t.Error("expected urgent with threshold 4")
		}
		if IsUrgent(m, now, 6) {
			t.Error("expected not urgent with threshold 6")
		}
	})
}

func TestPriority(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		subject string
		body    string
		age     time.Duration
		read    bool
		want    int
	}{
		{"read and fresh stays at default", "Question about pricing", "could you tell me more about your rates", time.Hour, true, 3},
		{"unread subtracts one", "Question about pricing", "could you tell me more about your rates", time.Hour, false, 2},
		{"mid band keeps score", "Question about pricing", "could you tell me more about your rates", 48 * time.Hour, false, 2},
		{"old message subtracts again", "Question about pricing", "could you tell me more about your rates", 80 * time.Hour, false, 1},
		{"exactly 72h is still mid band", "Question about pricing", "could you tell me more about your rates", 72 * time.Hour, false, 2},
		{"urgent keyword subtracts one", "Urgent question", "could you tell me more about your rates", time.Hour, false, 1},
		{"keyword in body counts too", "Question", "there is a problem with my order", time.Hour, false, 1},
		{"clamped at highest", "urgent help needed today", "emergency bug error problem", 100 * time.Hour, false, 1},
		{"spam adds two", "free prize winner", "congratulations you won the lottery", time.Hour, true, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := testMessage(tt.subject, tt.body, tt.age, tt.read, now)
			if got := Priority(m, now); got != tt.want {
				t.Errorf("Priority() = %d, want %d", got, tt.want)
			}
		})
	}

	t.Run("always within bounds", func(t *testing.T) {
		subjects := []string{"hi", "URGENT EMERGENCY HELP", "free winner prize lottery casino", "a plain subject line"}
		bodies := []string{"short body text", "help help help!!!!!!!!!!!!!", "make money work from home click here act now"}
		ages := []time.Duration{0, 12 * time.Hour, 30 * time.Hour, 100 * time.Hour, 10000 * time.Hour}
		for _, s := range subjects {
			for _, b := range bodies {
				for _, a := range ages {
					for _, read := range []bool{true, false} {
						m := testMessage(s, b, a, read, now)
						p := Priority(m, now)
						if p < PriorityHighest || p > PriorityLowest {
							t.Fatalf("Priority out of range: %d for subject=%q body=%q age=%v read=%v", p, s, b, a, read)
						}
					}
				}
			}
		}
	})

	t.Run("example scenario", func(t *testing.T) {
		// 48h-old unread message with "ASAP" in the subject.
		m := testMessage("Need help ASAP", "This is a 10+ character message", 48*time.Hour, false, now)
		if !IsUrgent(m, now, 24) {
			t.Error("expected urgent")
		}
		if p := Priority(m, now); p > 2 {
			t.Errorf("Priority() = %d, want <= 2", p)
		}
	})
}

func TestIsPotentialSpam(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		subject string
		body    string
		want    bool
	}{
		{"plain message", "Question about your portfolio", "I would like to discuss a project with you", false},
		{"single keyword is tolerated", "Free consultation request", "I would like to discuss a project with you", false},
		{"two keywords flag it", "Free prize inside", "you are a winner, claim today", true},
		{"keywords split across fields", "You won the lottery", "congratulations, claim your reward", true},
		{"four exclamations in subject", "Please respond!!!!", "a perfectly reasonable body text here", true},
		{"three exclamations pass", "Please respond!!!", "a perfectly reasonable body text here", false},
		{"eleven exclamations in body", "Please respond", "hello!!! there!!! how!!! are!! you", true},
		{"shouty subject", "BUY NOW AND SAVE BIG TODAY", "a perfectly reasonable body text here", true},
		{"short shouty subject passes", "BUY NOW!", "a perfectly reasonable body text here", false},
		{"mixed case subject passes", "Buy now and save big today", "a perfectly reasonable body text here", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := testMessage(tt.subject, tt.body, time.Hour, false, now)
			if got := IsPotentialSpam(m); got != tt.want {
				t.Errorf("IsPotentialSpam() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAge(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	m := testMessage("Subject here", "body text long enough", 50*time.Hour, false, now)

	if got := AgeInHours(m, now); got != 50 {
		t.Errorf("AgeInHours() = %v, want 50", got)
	}
	if got := AgeInDays(m, now); got != 2 {
		t.Errorf("AgeInDays() = %d, want 2", got)
	}
}

func TestPreview(t *testing.T) {
	t.Run("short body unchanged", func(t *testing.T) {
		if got := Preview("a short body", 100); got != "a short body" {
			t.Errorf("Preview() = %q", got)
		}
	})

	t.Run("truncates at word boundary", func(t *testing.T) {
		body := "the quick brown fox jumps over the lazy dog"
		got := Preview(body, 20)
		if !strings.HasSuffix(got, "...") {
			t.Errorf("Preview() = %q, want ellipsis suffix", got)
		}
		if strings.Contains(got, "jumps") {
			t.Errorf("Preview() = %q, should have been cut before %q", got, "jumps")
		}
		if strings.HasSuffix(got, " ...") {
			t.Errorf("Preview() = %q, trailing space before ellipsis", got)
		}
	})

	t.Run("exact length unchanged", func(t *testing.T) {
		body := "exactly twenty chars"
		if got := Preview(body, len(body)); got != body {
			t.Errorf("Preview() = %q, want unchanged", got)
		}
	})
}

func TestWordCount(t *testing.T) {
	tests := []struct {
		body string
		want int
	}{
		{"one two three", 3},
		{"  padded   with   spaces  ", 3},
		{"single", 1},
		{"", 0},
		{"line\nbreaks\tand tabs", 4},
	}
	for _, tt := range tests {
		if got := WordCount(tt.body); got != tt.want {
			t.Errorf("WordCount(%q) = %d, want %d", tt.body, got, tt.want)
		}
	}
}

func TestDomain(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{"jane@example.com", "example.com"},
		{"jane@Example.COM", "example.com"},
		{"weird@@double.org", "double.org"},
		{"nodomain", ""},
		{"trailing@", ""},
	}
	for _, tt := range tests {
		if got := Domain(tt.email); got != tt.want {
			t.Errorf("Domain(%q) = %q, want %q", tt.email, got, tt.want)
		}
	}
}

func TestRelativeTime(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		age  time.Duration
		want string
	}{
		{30 * time.Second, "just now"},
		{time.Minute, "1 minute ago"},
		{5 * time.Minute, "5 minutes ago"},
		{90 * time.Minute, "1 hour ago"},
		{26 * time.Hour, "1 day ago"},
		{8 * 24 * time.Hour, "1 week ago"},
		{40 * 24 * time.Hour, "1 month ago"},
		{800 * 24 * time.Hour, "2 years ago"},
	}
	for _, tt := range tests {
		if got := RelativeTime(now.Add(-tt.age), now); got != tt.want {
			t.Errorf("RelativeTime(-%v) = %q, want %q", tt.age, got, tt.want)
		}
	}
}
