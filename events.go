package inbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rbaliyan/event/v3"
)

// Event names for inbox events.
const (
	EventNameMessageReceived = "inbox.message.received"
	EventNameMessageRead     = "inbox.message.read"
	EventNameMessagesDeleted = "inbox.messages.deleted"
)

// MessageReceivedEvent is published when a new inquiry is stored.
// This is the primary event for downstream processing of new messages.
type MessageReceivedEvent struct {
	MessageID   int64     `json:"message_id"`
	SenderEmail string    `json:"sender_email"`
	Subject     string    `json:"subject"`
	SentAt      time.Time `json:"sent_at"`
}

// MessageReadEvent is published when a message is marked as read.
type MessageReadEvent struct {
	MessageID int64     `json:"message_id"`
	ReadAt    time.Time `json:"read_at"`
}

// MessagesDeletedEvent is published when messages are permanently deleted,
// either individually or via a bulk delete.
type MessagesDeletedEvent struct {
	MessageIDs []int64   `json:"message_ids"`
	DeletedAt  time.Time `json:"deleted_at"`
}

// ServiceEvents provides access to per-service event instances.
// Each service creates its own events bound to its own event bus,
// enabling independent event routing and parallel testing.
//
// Subscribe to events:
//
//	svc.Events().MessageReceived.Subscribe(ctx, handler)
//	svc.Events().MessageRead.Subscribe(ctx, handler)
//	svc.Events().MessagesDeleted.Subscribe(ctx, handler)
type ServiceEvents struct {
	// MessageReceived is published when a new inquiry is stored.
	MessageReceived event.Event[MessageReceivedEvent]

	// MessageRead is published when a message is marked as read.
	MessageRead event.Event[MessageReadEvent]

	// MessagesDeleted is published when messages are permanently deleted.
	MessagesDeleted event.Event[MessagesDeletedEvent]
}

// newServiceEvents creates per-service event instances with a unique name prefix.
func newServiceEvents(namePrefix string) *ServiceEvents {
	return &ServiceEvents{
		MessageReceived: event.New[MessageReceivedEvent](namePrefix + "." + EventNameMessageReceived),
		MessageRead:     event.New[MessageReadEvent](namePrefix + "." + EventNameMessageRead),
		MessagesDeleted: event.New[MessagesDeletedEvent](namePrefix + "." + EventNameMessagesDeleted),
	}
}

// registerServiceEvents registers per-service events with the given bus.
func registerServiceEvents(ctx context.Context, bus *event.Bus, events *ServiceEvents) error {
	if err := tryRegister(ctx, bus, events.MessageReceived); err != nil {
		return fmt.Errorf("register MessageReceived: %w", err)
	}
	if err := tryRegister(ctx, bus, events.MessageRead); err != nil {
		return fmt.Errorf("register MessageRead: %w", err)
	}
	if err := tryRegister(ctx, bus, events.MessagesDeleted); err != nil {
		return fmt.Errorf("register MessagesDeleted: %w", err)
	}
	return nil
}

// tryRegister attempts to register an event, ignoring "already bound" errors.
func tryRegister[T any](ctx context.Context, bus *event.Bus, ev event.Event[T]) error {
	err := event.Register(ctx, bus, ev)
	if err == nil {
		return nil
	}
	// Ignore "already bound" errors from a previous service instance that
	// registered the same event name.
	if errors.Is(err, event.ErrAlreadyBound) {
		return nil
	}
	return err
}
