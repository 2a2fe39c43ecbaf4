package inbox

import (
	"errors"
	"fmt"

	"github.com/JuanKhanjar/inbox/store"
)

// Sentinel errors for the inbox package.
// Use errors.Is() to check for these errors.
//
// These errors wrap corresponding store-level errors where applicable,
// so errors.Is(err, inbox.ErrNotConnected) will match both inbox-level
// and store-level errors.
var (
	// ErrInvalidMessage is returned for message validation failures.
	// ValidationError unwraps to this sentinel.
	ErrInvalidMessage = errors.New("inbox: invalid message")

	// ErrStoreRequired is returned when no store is configured.
	ErrStoreRequired = errors.New("inbox: store is required")

	// ErrNotConnected is returned when operations are attempted before Connect().
	// Wraps store.ErrNotConnected for consistent error checking.
	ErrNotConnected = fmt.Errorf("inbox: %w", store.ErrNotConnected)

	// ErrAlreadyConnected is returned when Connect() is called twice.
	// Wraps store.ErrAlreadyConnected for consistent error checking.
	ErrAlreadyConnected = fmt.Errorf("inbox: %w", store.ErrAlreadyConnected)

	// ErrInvalidRange is returned when a date range has end before start.
	// Wraps store.ErrInvalidRange for consistent error checking.
	ErrInvalidRange = fmt.Errorf("inbox: %w", store.ErrInvalidRange)

	// ErrInvalidPage is returned for invalid pagination parameters.
	// Wraps store.ErrInvalidPage for consistent error checking.
	ErrInvalidPage = fmt.Errorf("inbox: %w", store.ErrInvalidPage)

	// ErrInvalidRetention is returned for a negative retention window.
	// Wraps store.ErrInvalidRetention for consistent error checking.
	ErrInvalidRetention = fmt.Errorf("inbox: %w", store.ErrInvalidRetention)
)

// ValidationError provides details about a validation failure.
type ValidationError struct {
	Field   string // The field that failed validation
	Message string // Human-readable error message
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("inbox: validation failed for %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidMessage
}

// IsValidationError checks if the error is a validation error and returns details.
func IsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// EventPublishError is returned when event publishing fails but the
// operation itself succeeded. The message was stored/read/deleted, only
// the event notification failed.
type EventPublishError struct {
	Event     string // The event name (e.g., "MessageReceived")
	MessageID int64  // The message ID the event was for (0 for batch events)
	Err       error  // The underlying publish error
}

func (e *EventPublishError) Error() string {
	return fmt.Sprintf("inbox: event %s publish failed for message %d: %v", e.Event, e.MessageID, e.Err)
}

func (e *EventPublishError) Unwrap() error {
	return e.Err
}

// IsEventPublishError checks if the error is an event publish error and returns details.
// This is useful when eventErrorsFatal=true but you still need to know the
// underlying operation succeeded.
func IsEventPublishError(err error) (*EventPublishError, bool) {
	var epe *EventPublishError
	if errors.As(err, &epe) {
		return epe, true
	}
	return nil, false
}
