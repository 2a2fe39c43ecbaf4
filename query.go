package inbox

import (
	"context"
	"time"

	"github.com/JuanKhanjar/inbox/store"
	"go.opentelemetry.io/otel/attribute"
)

// Get returns the message with the given ID, or (nil, nil) when absent.
func (s *service) Get(ctx context.Context, id int64) (Message, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}

	ctx, endSpan := s.otel.startSpan(ctx, "inbox.get",
		attribute.Int64("message_id", id),
	)
	start := time.Now()
	var getErr error
	defer func() {
		endSpan(getErr)
		s.otel.recordGet(ctx, time.Since(start), getErr)
	}()

	msg, err := s.store.GetByID(ctx, id)
	if err != nil {
		getErr = err
		return nil, err
	}
	if msg == nil {
		return nil, nil
	}
	return newMessage(msg, s), nil
}

// list instruments a store list call and wraps its results.
func (s *service) list(ctx context.Context, op string, fetch func(ctx context.Context) ([]store.Message, error)) ([]Message, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}

	ctx, endSpan := s.otel.startSpan(ctx, "inbox.list",
		attribute.String("operation", op),
	)
	start := time.Now()
	var listErr error
	var resultCount int
	defer func() {
		endSpan(listErr)
		s.otel.recordList(ctx, time.Since(start), op, resultCount, listErr)
	}()

	msgs, err := fetch(ctx)
	if err != nil {
		listErr = err
		return nil, err
	}
	resultCount = len(msgs)
	return wrapMessages(msgs, s), nil
}

// All returns every message, oldest first.
func (s *service) All(ctx context.Context) ([]Message, error) {
	return s.list(ctx, "all", s.store.GetAll)
}

// Unread returns unread messages, newest first.
func (s *service) Unread(ctx context.Context) ([]Message, error) {
	return s.list(ctx, "unread", s.store.GetUnread)
}

// Read returns read messages, newest first.
func (s *service) Read(ctx context.Context) ([]Message, error) {
	return s.list(ctx, "read", s.store.GetRead)
}

// BySender returns messages from the given sender email, newest first.
// The email is matched case-insensitively.
func (s *service) BySender(ctx context.Context, email string) ([]Message, error) {
	return s.list(ctx, "by_sender", func(ctx context.Context) ([]store.Message, error) {
		return s.store.GetBySender(ctx, email)
	})
}

// ByDateRange returns messages sent within [start, end], oldest first.
func (s *service) ByDateRange(ctx context.Context, start, end time.Time) ([]Message, error) {
	return s.list(ctx, "by_date_range", func(ctx context.Context) ([]store.Message, error) {
		return s.store.GetByDateRange(ctx, start, end)
	})
}

// Recent returns messages sent within the last N days, newest first.
func (s *service) Recent(ctx context.Context, days int) ([]Message, error) {
	return s.list(ctx, "recent", func(ctx context.Context) ([]store.Message, error) {
		return s.store.GetRecent(ctx, days)
	})
}

// Search returns messages matching the term across sender name, email,
// subject, and body, newest first. A blank term returns all messages in
// their default (oldest first) order.
func (s *service) Search(ctx context.Context, term string) ([]Message, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}

	ctx, endSpan := s.otel.startSpan(ctx, "inbox.search",
		attribute.String("term", term),
	)
	start := time.Now()
	var searchErr error
	var resultCount int
	defer func() {
		endSpan(searchErr)
		s.otel.recordSearch(ctx, time.Since(start), resultCount, searchErr)
	}()

	msgs, err := s.store.Search(ctx, term)
	if err != nil {
		searchErr = err
		return nil, err
	}
	resultCount = len(msgs)
	return wrapMessages(msgs, s), nil
}

// Urgent returns unread messages at least as old as the configured urgency
// threshold, oldest first so the longest-waiting inquiry surfaces on top.
func (s *service) Urgent(ctx context.Context) ([]Message, error) {
	return s.list(ctx, "urgent", func(ctx context.Context) ([]store.Message, error) {
		return s.store.GetUrgent(ctx, s.opts.urgentThresholdHours)
	})
}

// Paged returns one page of messages, newest first. Pages are 1-based.
func (s *service) Paged(ctx context.Context, page, size int) ([]Message, error) {
	return s.list(ctx, "paged", func(ctx context.Context) ([]store.Message, error) {
		return s.store.GetPaged(ctx, page, size)
	})
}

// FilterRequest combines the supported filters with pagination.
// When multiple filters are set, the first matching branch wins, evaluated
// in this order: SearchTerm, SenderEmail, StartDate+EndDate, DaysBack,
// IsRead=false, IsRead=true, IsUrgent. With no filters set, all messages
// are returned. Skip and Take are applied to the resolved result.
type FilterRequest struct {
	SearchTerm  string
	SenderEmail string
	IsRead      *bool
	IsUrgent    bool
	StartDate   *time.Time
	EndDate     *time.Time
	DaysBack    int
	Skip        int
	Take        int
}

// Filter resolves a combined filter request.
func (s *service) Filter(ctx context.Context, req FilterRequest) ([]Message, error) {
	msgs, err := s.filterMessages(ctx, req)
	if err != nil {
		return nil, err
	}
	return paginate(msgs, req.Skip, req.Take), nil
}

// filterMessages resolves the precedence chain to a single store read.
func (s *service) filterMessages(ctx context.Context, req FilterRequest) ([]Message, error) {
	switch {
	case req.SearchTerm != "":
		return s.Search(ctx, req.SearchTerm)
	case req.SenderEmail != "":
		return s.BySender(ctx, req.SenderEmail)
	case req.StartDate != nil && req.EndDate != nil:
		return s.ByDateRange(ctx, *req.StartDate, *req.EndDate)
	case req.DaysBack > 0:
		return s.Recent(ctx, req.DaysBack)
	case req.IsRead != nil && !*req.IsRead:
		return s.Unread(ctx)
	case req.IsRead != nil && *req.IsRead:
		return s.Read(ctx)
	case req.IsUrgent:
		return s.Urgent(ctx)
	default:
		return s.All(ctx)
	}
}

// paginate applies plain skip/take pagination. A non-positive take means
// no limit.
func paginate(msgs []Message, skip, take int) []Message {
	if skip < 0 {
		skip = 0
	}
	if skip >= len(msgs) {
		return []Message{}
	}
	msgs = msgs[skip:]
	if take > 0 && take < len(msgs) {
		msgs = msgs[:take]
	}
	return msgs
}
