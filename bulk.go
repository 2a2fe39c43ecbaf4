package inbox

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// BulkAction identifies a bulk operation.
type BulkAction string

// Supported bulk actions.
const (
	BulkMarkRead BulkAction = "mark_read"
	BulkDelete   BulkAction = "delete"
)

// BulkRequest describes a bulk operation over a set of message IDs.
type BulkRequest struct {
	MessageIDs []int64
	Action     BulkAction
}

// BulkResult reports the aggregate outcome of a bulk operation.
// Bulk operations are partial-success tolerant at the identifier level:
// identifiers that do not exist (or, for mark_read, are already read) are
// skipped and excluded from Affected without failing the operation.
type BulkResult struct {
	// Action is the action that was performed.
	Action BulkAction
	// Requested is the number of identifiers in the request.
	Requested int
	// Affected is the number of messages actually changed or deleted.
	Affected int64
}

// Skipped returns how many requested identifiers had no effect.
func (r *BulkResult) Skipped() int64 {
	if r == nil {
		return 0
	}
	return int64(r.Requested) - r.Affected
}

// Bulk executes a bulk operation. An unknown action returns a
// ValidationError; an empty identifier set is a no-op returning zero.
func (s *service) Bulk(ctx context.Context, req BulkRequest) (*BulkResult, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}

	switch req.Action {
	case BulkMarkRead, BulkDelete:
	default:
		return nil, &ValidationError{
			Field:   "action",
			Message: fmt.Sprintf("unknown bulk action %q", req.Action),
		}
	}

	result := &BulkResult{Action: req.Action, Requested: len(req.MessageIDs)}
	if len(req.MessageIDs) == 0 {
		return result, nil
	}

	ctx, endSpan := s.otel.startSpan(ctx, "inbox.bulk",
		attribute.String("action", string(req.Action)),
		attribute.Int("requested", len(req.MessageIDs)),
	)
	start := time.Now()
	var bulkErr error
	defer func() {
		endSpan(bulkErr)
		s.otel.recordBulk(ctx, time.Since(start), string(req.Action), result.Affected, bulkErr)
	}()

	var affected int64
	var err error
	switch req.Action {
	case BulkMarkRead:
		affected, err = s.store.MarkManyRead(ctx, req.MessageIDs, s.nowFn())
	case BulkDelete:
		affected, err = s.store.DeleteMany(ctx, req.MessageIDs)
	}
	if err != nil {
		bulkErr = err
		return nil, err
	}
	result.Affected = affected

	if req.Action == BulkDelete && affected > 0 {
		s.publishDeleted(ctx, req.MessageIDs)
	}

	s.logger.Info("bulk operation completed",
		"action", req.Action,
		"requested", result.Requested,
		"affected", result.Affected,
	)
	return result, nil
}
