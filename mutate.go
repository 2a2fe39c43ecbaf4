package inbox

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// MarkRead marks the message as read, stamping read-at with the service
// clock. An already-read message keeps its original read-at timestamp.
// Returns false when the message does not exist.
func (s *service) MarkRead(ctx context.Context, id int64) (bool, error) {
	if err := s.checkConnected(); err != nil {
		return false, err
	}

	ctx, endSpan := s.otel.startSpan(ctx, "inbox.mark_read",
		attribute.Int64("message_id", id),
	)
	start := time.Now()
	var opErr error
	defer func() {
		endSpan(opErr)
		s.otel.recordUpdate(ctx, time.Since(start), "mark_read", opErr)
	}()

	readAt := s.nowFn()
	ok, err := s.store.MarkRead(ctx, id, readAt)
	if err != nil {
		opErr = err
		return false, err
	}
	if !ok {
		return false, nil
	}

	if err := s.events.MessageRead.Publish(ctx, MessageReadEvent{
		MessageID: id,
		ReadAt:    readAt,
	}); err != nil {
		if s.opts.eventErrorsFatal {
			// The flag is set; return success together with the event error.
			opErr = &EventPublishError{Event: "MessageRead", MessageID: id, Err: err}
			return true, opErr
		}
		s.opts.safeEventPublishFailure("MessageRead", err)
	}

	return true, nil
}

// MarkUnread clears the read flag and read-at timestamp.
// Returns false when the message does not exist.
func (s *service) MarkUnread(ctx context.Context, id int64) (bool, error) {
	if err := s.checkConnected(); err != nil {
		return false, err
	}

	ctx, endSpan := s.otel.startSpan(ctx, "inbox.mark_unread",
		attribute.Int64("message_id", id),
	)
	start := time.Now()
	var opErr error
	defer func() {
		endSpan(opErr)
		s.otel.recordUpdate(ctx, time.Since(start), "mark_unread", opErr)
	}()

	ok, err := s.store.MarkUnread(ctx, id)
	if err != nil {
		opErr = err
		return false, err
	}
	return ok, nil
}

// Delete permanently removes a message.
// Returns false when the message does not exist.
func (s *service) Delete(ctx context.Context, id int64) (bool, error) {
	if err := s.checkConnected(); err != nil {
		return false, err
	}

	ctx, endSpan := s.otel.startSpan(ctx, "inbox.delete",
		attribute.Int64("message_id", id),
	)
	start := time.Now()
	var opErr error
	defer func() {
		endSpan(opErr)
		s.otel.recordDelete(ctx, time.Since(start), 1, opErr)
	}()

	ok, err := s.store.Delete(ctx, id)
	if err != nil {
		opErr = err
		return false, err
	}
	if !ok {
		return false, nil
	}

	s.publishDeleted(ctx, []int64{id})
	return true, nil
}

// RetentionSweep permanently deletes messages sent more than the given
// number of days ago. A zero window deletes everything sent before now.
// Call this periodically from your application's scheduler.
func (s *service) RetentionSweep(ctx context.Context, days int) (int64, error) {
	if err := s.checkConnected(); err != nil {
		return 0, err
	}

	ctx, endSpan := s.otel.startSpan(ctx, "inbox.retention_sweep",
		attribute.Int("retention_days", days),
	)
	start := time.Now()
	var opErr error
	var deleted int64
	defer func() {
		endSpan(opErr)
		s.otel.recordDelete(ctx, time.Since(start), deleted, opErr)
	}()

	deleted, err := s.store.DeleteOlderThan(ctx, days)
	if err != nil {
		opErr = err
		return 0, err
	}
	if deleted > 0 {
		s.logger.Info("retention sweep completed",
			"retention_days", days,
			"deleted", deleted,
		)
	}
	return deleted, nil
}

// publishDeleted publishes a MessagesDeleted event, logging failures.
// Deletion already succeeded at this point, so event failures are never
// surfaced to the caller.
func (s *service) publishDeleted(ctx context.Context, ids []int64) {
	if err := s.events.MessagesDeleted.Publish(ctx, MessagesDeletedEvent{
		MessageIDs: ids,
		DeletedAt:  s.nowFn(),
	}); err != nil {
		s.opts.safeEventPublishFailure("MessagesDeleted", err)
	}
}
