package inbox

import (
	"fmt"
	"strings"
	"time"

	"github.com/JuanKhanjar/inbox/store"
)

// Field limits for inbound messages.
const (
	MinSenderNameLength = 2
	MaxSenderNameLength = 100

	// MaxSenderEmailLength is the RFC 5321 address limit.
	MaxSenderEmailLength = 254

	MinSubjectLength = 3
	MaxSubjectLength = 200

	MinBodyLength = 10
	MaxBodyLength = 5000
)

// NewMessageData validates raw contact-form fields and constructs a
// normalized store.MessageData ready for persistence. All fields are
// trimmed; the sender email is lowercased so lookups are case-insensitive.
// SentAt is stamped once at construction and never changes afterwards.
func NewMessageData(senderName, senderEmail, subject, body string) (store.MessageData, error) {
	return newMessageDataAt(senderName, senderEmail, subject, body, time.Now().UTC())
}

// newMessageDataAt is the clock-injected form used by the service.
func newMessageDataAt(senderName, senderEmail, subject, body string, now time.Time) (store.MessageData, error) {
	name, err := ValidateSenderName(senderName)
	if err != nil {
		return store.MessageData{}, err
	}
	email, err := ValidateSenderEmail(senderEmail)
	if err != nil {
		return store.MessageData{}, err
	}
	subj, err := ValidateSubject(subject)
	if err != nil {
		return store.MessageData{}, err
	}
	b, err := ValidateBody(body)
	if err != nil {
		return store.MessageData{}, err
	}

	return store.MessageData{
		SenderName:  name,
		SenderEmail: email,
		Subject:     subj,
		Body:        b,
		SentAt:      now.UTC(),
		IsRead:      false,
	}, nil
}

// ValidateSenderName validates and returns the trimmed sender name.
func ValidateSenderName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if len(name) < MinSenderNameLength {
		return "", &ValidationError{
			Field:   "sender_name",
			Message: fmt.Sprintf("must be at least %d characters", MinSenderNameLength),
		}
	}
	if len(name) > MaxSenderNameLength {
		return "", &ValidationError{
			Field:   "sender_name",
			Message: fmt.Sprintf("must be at most %d characters", MaxSenderNameLength),
		}
	}
	return name, nil
}

// ValidateSenderEmail validates and returns the trimmed, lowercased email.
func ValidateSenderEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", &ValidationError{Field: "sender_email", Message: "must not be empty"}
	}
	if len(email) > MaxSenderEmailLength {
		return "", &ValidationError{
			Field:   "sender_email",
			Message: fmt.Sprintf("must be at most %d characters", MaxSenderEmailLength),
		}
	}
	if !isValidEmail(email) {
		return "", &ValidationError{Field: "sender_email", Message: "must be a valid email address"}
	}
	return email, nil
}

// ValidateSubject validates and returns the trimmed subject.
func ValidateSubject(subject string) (string, error) {
	subject = strings.TrimSpace(subject)
	if len(subject) < MinSubjectLength {
		return "", &ValidationError{
			Field:   "subject",
			Message: fmt.Sprintf("must be at least %d characters", MinSubjectLength),
		}
	}
	if len(subject) > MaxSubjectLength {
		return "", &ValidationError{
			Field:   "subject",
			Message: fmt.Sprintf("must be at most %d characters", MaxSubjectLength),
		}
	}
	return subject, nil
}

// ValidateBody validates and returns the trimmed body.
func ValidateBody(body string) (string, error) {
	body = strings.TrimSpace(body)
	if len(body) < MinBodyLength {
		return "", &ValidationError{
			Field:   "body",
			Message: fmt.Sprintf("must be at least %d characters", MinBodyLength),
		}
	}
	if len(body) > MaxBodyLength {
		return "", &ValidationError{
			Field:   "body",
			Message: fmt.Sprintf("must be at most %d characters", MaxBodyLength),
		}
	}
	return body, nil
}

// isValidEmail checks the minimal local@domain shape: a non-empty local
// part, a domain containing a dot, and no whitespace or control characters.
// Full RFC 5322 parsing is deliberately out of scope; the address is used
// as a reply target and grouping key, not for delivery guarantees.
func isValidEmail(email string) bool {
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	local, domain := email[:at], email[at+1:]
	if strings.ContainsAny(local, " \t\n\r") {
		return false
	}
	if !strings.Contains(domain, ".") {
		return false
	}
	if strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return false
	}
	for _, c := range domain {
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '@' || c < 32 || c == 127 {
			return false
		}
	}
	return true
}
