package store

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for the store package.
var (
	// ErrNotConnected is returned when operations are attempted before Connect().
	ErrNotConnected = errors.New("store: not connected")

	// ErrAlreadyConnected is returned when Connect() is called twice.
	ErrAlreadyConnected = errors.New("store: already connected")

	// ErrInvalidRange is returned when a date range ends before it starts.
	ErrInvalidRange = errors.New("store: end date before start date")

	// ErrInvalidPage is returned when a page number or page size is < 1.
	ErrInvalidPage = errors.New("store: page number and page size must be >= 1")

	// ErrInvalidRetention is returned when a retention window is negative.
	ErrInvalidRetention = errors.New("store: retention days must not be negative")
)

// StorageError wraps an underlying persistence failure with the operation
// name and identifying context. It unwraps to the cause, so errors.Is/As
// still reach driver errors.
type StorageError struct {
	// Op is the store operation that failed, e.g. "get_by_id" or "mark_many_read".
	Op string
	// Err is the underlying cause.
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// WrapErr wraps err in a *StorageError for op. Returns nil if err is nil,
// and never double-wraps validation sentinels or an existing StorageError.
func WrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrInvalidRange) || errors.Is(err, ErrInvalidPage) || errors.Is(err, ErrInvalidRetention) {
		return err
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// Error checking helpers.

func IsNotConnected(err error) bool {
	return errors.Is(err, ErrNotConnected)
}

func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

// CheckRange validates that end does not precede start.
func CheckRange(start, end time.Time) error {
	if end.Before(start) {
		return fmt.Errorf("%w: start=%s end=%s", ErrInvalidRange,
			start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return nil
}

// CheckPage validates 1-based pagination arguments.
func CheckPage(page, size int) error {
	if page < 1 || size < 1 {
		return fmt.Errorf("%w: page=%d size=%d", ErrInvalidPage, page, size)
	}
	return nil
}

// CheckRetentionDays validates an age-based deletion window.
func CheckRetentionDays(days int) error {
	if days < 0 {
		return fmt.Errorf("%w: days=%d", ErrInvalidRetention, days)
	}
	return nil
}
