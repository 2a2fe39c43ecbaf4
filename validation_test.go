package inbox

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNewMessageData(t *testing.T) {
	t.Run("valid input is normalized", func(t *testing.T) {
		before := time.Now().UTC()
		data, err := NewMessageData("  Jane Doe  ", " JANE@Example.COM ", "  Hello there  ", "  A body long enough.  ")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if data.SenderName != "Jane Doe" {
			t.Errorf("expected trimmed name, got %q", data.SenderName)
		}
		if data.SenderEmail != "jane@example.com" {
			t.Errorf("expected lowercased email, got %q", data.SenderEmail)
		}
		if data.Subject != "Hello there" || data.Body != "A body long enough." {
			t.Errorf("expected trimmed subject/body, got %q / %q", data.Subject, data.Body)
		}
		if data.IsRead {
			t.Error("expected IsRead=false")
		}
		if data.SentAt.Before(before) || data.SentAt.After(time.Now().UTC().Add(time.Second)) {
			t.Errorf("expected SentAt near now, got %v", data.SentAt)
		}
	})

	t.Run("field errors", func(t *testing.T) {
		valid := func() (string, string, string, string) {
			return "Jane Doe", "jane@example.com", "Hello there", "A body long enough."
		}

		tests := []struct {
			name   string
			mutate func(name, email, subject, body string) (string, string, string, string)
			field  string
		}{
			{
				name: "name too short",
				mutate: func(_, e, s, b string) (string, string, string, string) {
					return "J", e, s, b
				},
				field: "sender_name",
			},
			{
				name: "name only whitespace",
				mutate: func(_, e, s, b string) (string, string, string, string) {
					return "   ", e, s, b
				},
				field: "sender_name",
			},
			{
				name: "name too long",
				mutate: func(_, e, s, b string) (string, string, string, string) {
					return strings.Repeat("a", MaxSenderNameLength+1), e, s, b
				},
				field: "sender_name",
			},
			{
				name: "email empty",
				mutate: func(n, _, s, b string) (string, string, string, string) {
					return n, "", s, b
				},
				field: "sender_email",
			},
			{
				name: "email without at",
				mutate: func(n, _, s, b string) (string, string, string, string) {
					return n, "janeexample.com", s, b
				},
				field: "sender_email",
			},
			{
				name: "domain without dot",
				mutate: func(n, _, s, b string) (string, string, string, string) {
					return n, "jane@example", s, b
				},
				field: "sender_email",
			},
			{
				name: "email too long",
				mutate: func(n, _, s, b string) (string, string, string, string) {
					return n, strings.Repeat("a", MaxSenderEmailLength) + "@example.com", s, b
				},
				field: "sender_email",
			},
			{
				name: "subject too short",
				mutate: func(n, e, _, b string) (string, string, string, string) {
					return n, e, "Hi", b
				},
				field: "subject",
			},
			{
				name: "subject too long",
				mutate: func(n, e, _, b string) (string, string, string, string) {
					return n, e, strings.Repeat("s", MaxSubjectLength+1), b
				},
				field: "subject",
			},
			{
				name: "body too short",
				mutate: func(n, e, s, _ string) (string, string, string, string) {
					return n, e, s, "short"
				},
				field: "body",
			},
			{
				name: "body too long",
				mutate: func(n, e, s, _ string) (string, string, string, string) {
					return n, e, s, strings.Repeat("b", MaxBodyLength+1)
				},
				field: "body",
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := NewMessageData(tt.mutate(valid()))
				if !errors.Is(err, ErrInvalidMessage) {
					t.Fatalf("expected ErrInvalidMessage, got %v", err)
				}
				ve, ok := IsValidationError(err)
				if !ok {
					t.Fatalf("expected ValidationError, got %T", err)
				}
				if ve.Field != tt.field {
					t.Errorf("expected field %q, got %q", tt.field, ve.Field)
				}
			})
		}
	})
}

func TestIsValidEmail(t *testing.T) {
	valid := []string{
		"jane@example.com",
		"jane.doe+tag@sub.example.co.uk",
		"x@y.io",
	}
	invalid := []string{
		"@example.com",
		"jane@",
		"jane@example",
		"jane doe@example.com",
		"jane@.example.com",
		"jane@example.com.",
		"jane@exam ple.com",
	}

	for _, e := range valid {
		if !isValidEmail(e) {
			t.Errorf("expected %q to be valid", e)
		}
	}
	for _, e := range invalid {
		if isValidEmail(e) {
			t.Errorf("expected %q to be invalid", e)
		}
	}
}
