package inbox

import (
	"context"

	"github.com/JuanKhanjar/inbox/classify"
	"github.com/JuanKhanjar/inbox/store"
)

// Message is a stored inquiry together with its derived classification.
// Derived fields (priority, urgency, spam likelihood, age, preview) are
// computed against the service clock at call time and are never persisted.
type Message interface {
	store.Message

	// Priority returns the computed priority, 1 (highest) to 5 (lowest).
	Priority() int
	// IsUrgent reports whether the message is unread and older than the
	// configured urgency threshold.
	IsUrgent() bool
	// IsPotentialSpam reports whether the spam heuristic flags the message.
	IsPotentialSpam() bool
	// AgeInHours returns the time since the message was sent, in hours.
	AgeInHours() float64
	// AgeInDays returns the whole days since the message was sent.
	AgeInDays() int
	// Preview returns a truncated body suitable for list views.
	Preview() string
	// WordCount returns the number of words in the body.
	WordCount() int
	// SenderDomain returns the lowercased domain of the sender's email.
	SenderDomain() string
	// SentAgo returns a human-readable relative description of SentAt.
	SentAgo() string

	// MarkRead marks the message as read. Returns false when the message
	// no longer exists.
	MarkRead(ctx context.Context) (bool, error)
	// MarkUnread clears the read flag and read-at timestamp.
	MarkUnread(ctx context.Context) (bool, error)
	// Delete permanently removes the message.
	Delete(ctx context.Context) (bool, error)
}

// message wraps a store snapshot with service access for derived fields
// and mutations.
type message struct {
	store.Message
	svc *service
}

var _ Message = (*message)(nil)

// newMessage wraps a store message for service callers.
func newMessage(m store.Message, s *service) Message {
	return &message{Message: m, svc: s}
}

func (m *message) Priority() int {
	return classify.Priority(m.Message, m.svc.nowFn())
}

func (m *message) IsUrgent() bool {
	return classify.IsUrgent(m.Message, m.svc.nowFn(), m.svc.opts.urgentThresholdHours)
}

func (m *message) IsPotentialSpam() bool {
	return classify.IsPotentialSpam(m.Message)
}

func (m *message) AgeInHours() float64 {
	return classify.AgeInHours(m.Message, m.svc.nowFn())
}

func (m *message) AgeInDays() int {
	return classify.AgeInDays(m.Message, m.svc.nowFn())
}

func (m *message) Preview() string {
	return classify.Preview(m.GetBody(), classify.DefaultPreviewLength)
}

func (m *message) WordCount() int {
	return classify.WordCount(m.GetBody())
}

func (m *message) SenderDomain() string {
	return classify.Domain(m.GetSenderEmail())
}

func (m *message) SentAgo() string {
	return classify.RelativeTime(m.GetSentAt(), m.svc.nowFn())
}

// MarkRead marks the message as read and refreshes the local snapshot.
func (m *message) MarkRead(ctx context.Context) (bool, error) {
	ok, err := m.svc.MarkRead(ctx, m.GetID())
	if err != nil || !ok {
		return ok, err
	}
	return true, m.refresh(ctx)
}

// MarkUnread clears the read flag and refreshes the local snapshot.
func (m *message) MarkUnread(ctx context.Context) (bool, error) {
	ok, err := m.svc.MarkUnread(ctx, m.GetID())
	if err != nil || !ok {
		return ok, err
	}
	return true, m.refresh(ctx)
}

// Delete permanently removes the message.
func (m *message) Delete(ctx context.Context) (bool, error) {
	return m.svc.Delete(ctx, m.GetID())
}

// refresh re-reads the underlying record after a mutation so the wrapper
// reflects the stored state.
func (m *message) refresh(ctx context.Context) error {
	updated, err := m.svc.store.GetByID(ctx, m.GetID())
	if err != nil {
		return err
	}
	if updated != nil {
		m.Message = updated
	}
	return nil
}

// wrapMessages wraps store snapshots in service-backed messages,
// preserving order.
func wrapMessages(msgs []store.Message, s *service) []Message {
	out := make([]Message, len(msgs))
	for i, m := range msgs {
		out[i] = newMessage(m, s)
	}
	return out
}
