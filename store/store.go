// Package store provides interfaces and types for inbox storage.
// Implementations are in store/memory, store/postgres, store/sqlite,
// and store/mongo subpackages.
//
// # Architectural Principle: No Distributed Locks
//
// All concurrency concerns are handled through database-level atomicity:
//
//  1. Atomic single-row operations: inserts, read-flag updates, and deletes
//     are atomic at the storage engine level. No external coordination is
//     required for them to be safe under concurrent callers.
//
//  2. Transactional batches: multi-id mutations (MarkManyRead, DeleteMany,
//     DeleteOlderThan) run inside a single storage transaction where the
//     engine supports it, so a failure partway through never leaves a
//     partially applied batch that reports success.
//
//  3. Absence as data: lookups and single-id mutations report a missing
//     message as (nil, error=nil) or (false, error=nil), never as an error.
//     Two callers racing to delete the same id both succeed; one observes
//     false.
//
// Statistics and counters perform multiple sequential reads without a
// cross-read transaction; minor staleness between sub-queries is acceptable.
package store

import (
	"context"
	"time"
)

// Store is the storage interface for the inbox.
//
// All operations must be safe for concurrent use. Implementations must use
// database-level atomicity (transactions, atomic operations) rather than
// external locking mechanisms. See package documentation for details.
type Store interface {
	// Lifecycle
	Connect(ctx context.Context) error
	Close(ctx context.Context) error

	// Read operations - every result is a detached snapshot
	MessageReader

	// Mutation operations - the only way to change stored state
	MessageMutator

	// Counter operations - aggregate counts for statistics
	MessageCounter
}

// MessageReader provides read operations for messages.
//
// Every returned Message is a detached snapshot: mutating it never affects
// storage. Persistence requires an explicit MessageMutator call.
type MessageReader interface {
	// GetByID retrieves a message by ID.
	// Returns (nil, nil) if the message does not exist - absence is an
	// expected outcome, not a failure.
	GetByID(ctx context.Context, id int64) (Message, error)

	// GetAll returns every message ordered by sent time ascending.
	GetAll(ctx context.Context) ([]Message, error)

	// GetUnread returns unread messages ordered by sent time descending.
	GetUnread(ctx context.Context) ([]Message, error)

	// GetRead returns read messages ordered by sent time descending.
	GetRead(ctx context.Context) ([]Message, error)

	// GetBySender returns messages from the given sender email ordered by
	// sent time descending. The query email is trimmed and lowercased the
	// same way stored emails are.
	GetBySender(ctx context.Context, email string) ([]Message, error)

	// GetByDateRange returns messages with start <= sentAt <= end ordered
	// by sent time ascending. Returns ErrInvalidRange if end < start.
	GetByDateRange(ctx context.Context, start, end time.Time) ([]Message, error)

	// GetRecent returns messages sent within the last `days` days
	// (cutoff = now - days), ordered by sent time descending.
	GetRecent(ctx context.Context, days int) ([]Message, error)

	// Search returns messages whose sender name, sender email, subject, or
	// body contains the term (case-insensitive substring), ordered by sent
	// time descending. A blank term returns the same result as GetAll,
	// including its ascending order.
	Search(ctx context.Context, term string) ([]Message, error)

	// GetUrgent returns unread messages older than thresholdHours, ordered
	// by sent time ASCENDING - oldest first, since those need attention
	// soonest.
	GetUrgent(ctx context.Context, thresholdHours int) ([]Message, error)

	// GetPaged returns one page of messages ordered by sent time descending.
	// page and size are 1-based; returns ErrInvalidPage if either is < 1.
	GetPaged(ctx context.Context, page, size int) ([]Message, error)
}

// MessageMutator provides mutation operations for messages.
// Mutations are specific operations, not general setters.
type MessageMutator interface {
	// Add persists a new message and returns it with its assigned ID.
	Add(ctx context.Context, data MessageData) (Message, error)

	// Update persists the mutable fields (read flag, read-at) of an
	// existing message and returns the stored snapshot.
	// Returns (nil, nil) if the message does not exist.
	Update(ctx context.Context, msg Message) (Message, error)

	// MarkRead sets the read flag. Returns false if the message does not
	// exist. Marking an already-read message is an idempotent no-op that
	// still returns true.
	MarkRead(ctx context.Context, id int64, readAt time.Time) (bool, error)

	// MarkUnread clears the read flag and the read-at timestamp.
	// Returns false if the message does not exist.
	MarkUnread(ctx context.Context, id int64) (bool, error)

	// MarkManyRead marks the given ids read in a single transaction and
	// returns the number of messages actually changed. Ids that do not
	// exist or are already read are skipped and not counted.
	MarkManyRead(ctx context.Context, ids []int64, readAt time.Time) (int64, error)

	// Delete removes a message. Returns false if it does not exist.
	Delete(ctx context.Context, id int64) (bool, error)

	// DeleteMany removes the given ids in a single transaction and returns
	// the number actually deleted. Missing ids are skipped.
	DeleteMany(ctx context.Context, ids []int64) (int64, error)

	// DeleteOlderThan removes messages with sentAt < now - days and returns
	// the number deleted. Returns ErrInvalidRetention if days < 0.
	// days == 0 deletes every message sent before now.
	DeleteOlderThan(ctx context.Context, days int) (int64, error)
}

// MessageCounter provides aggregate counts.
type MessageCounter interface {
	// Count returns the total number of stored messages.
	Count(ctx context.Context) (int64, error)

	// CountUnread returns the number of unread messages.
	CountUnread(ctx context.Context) (int64, error)

	// CountInRange returns total/read/unread counts for messages with
	// start <= sentAt <= end. This should be implemented as a single
	// conditional-aggregation query rather than three round-trips.
	// Returns ErrInvalidRange if end < start.
	CountInRange(ctx context.Context, start, end time.Time) (RangeCounts, error)
}
