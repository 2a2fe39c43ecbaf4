package store

import (
	"time"
)

// Message is a read-only snapshot of a stored contact message.
// Messages cannot be directly modified - use Store mutators like
// MarkRead, MarkUnread, and Delete.
type Message interface {
	GetID() int64
	GetSenderName() string
	GetSenderEmail() string
	GetSubject() string
	GetBody() string
	GetSentAt() time.Time
	GetIsRead() bool
	GetReadAt() *time.Time
}

// MessageData contains validated, normalized data for creating a message.
// Construction and validation happen in the service layer; the store trusts
// this data and only assigns the identifier.
type MessageData struct {
	SenderName  string
	SenderEmail string
	Subject     string
	Body        string
	SentAt      time.Time
	IsRead      bool
	ReadAt      *time.Time
}

// Record is a plain value implementation of Message, usable by any backend
// as its snapshot type.
type Record struct {
	ID          int64
	SenderName  string
	SenderEmail string
	Subject     string
	Body        string
	SentAt      time.Time
	IsRead      bool
	ReadAt      *time.Time
}

var _ Message = (*Record)(nil)

func (r *Record) GetID() int64           { return r.ID }
func (r *Record) GetSenderName() string  { return r.SenderName }
func (r *Record) GetSenderEmail() string { return r.SenderEmail }
func (r *Record) GetSubject() string     { return r.Subject }
func (r *Record) GetBody() string        { return r.Body }
func (r *Record) GetSentAt() time.Time   { return r.SentAt }
func (r *Record) GetIsRead() bool        { return r.IsRead }

// GetReadAt returns the time the message was marked read, or nil while
// unread. The returned pointer refers to a copy; callers cannot mutate
// stored state through it.
func (r *Record) GetReadAt() *time.Time {
	if r.ReadAt == nil {
		return nil
	}
	t := *r.ReadAt
	return &t
}

// Snapshot returns a detached copy of m as a Record.
func Snapshot(m Message) *Record {
	r := &Record{
		ID:          m.GetID(),
		SenderName:  m.GetSenderName(),
		SenderEmail: m.GetSenderEmail(),
		Subject:     m.GetSubject(),
		Body:        m.GetBody(),
		SentAt:      m.GetSentAt(),
		IsRead:      m.GetIsRead(),
	}
	if at := m.GetReadAt(); at != nil {
		t := *at
		r.ReadAt = &t
	}
	return r
}
