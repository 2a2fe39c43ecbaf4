package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/JuanKhanjar/inbox/store"
)

// Count returns the total number of stored messages.
func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.countWhere(ctx, "count", "")
}

// CountUnread returns the number of unread messages.
func (s *Store) CountUnread(ctx context.Context) (int64, error) {
	return s.countWhere(ctx, "count_unread", "WHERE is_read = 0")
}

func (s *Store) countWhere(ctx context.Context, op, where string) (int64, error) {
	if err := s.checkConnected(); err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s %s`, s.opts.table, where)
	var n int64
	if err := s.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, store.WrapErr(op, err)
	}
	return n, nil
}

// CountInRange returns total/read/unread counts for start <= sentAt <= end
// in a single conditional-aggregation query.
func (s *Store) CountInRange(ctx context.Context, start, end time.Time) (store.RangeCounts, error) {
	var counts store.RangeCounts
	if err := s.checkConnected(); err != nil {
		return counts, err
	}
	if err := store.CheckRange(start, end); err != nil {
		return counts, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	query := fmt.Sprintf(`
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN is_read = 1 THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN is_read = 0 THEN 1 ELSE 0 END), 0)
		FROM %s
		WHERE sent_at >= ? AND sent_at <= ?
	`, s.opts.table)

	err := s.db.QueryRowContext(ctx, query, start, end).Scan(&counts.Total, &counts.Read, &counts.Unread)
	if err != nil {
		return store.RangeCounts{}, store.WrapErr("count_in_range", err)
	}
	return counts, nil
}
