package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/JuanKhanjar/inbox/store"
)

// GetByID retrieves a message by ID. Returns (nil, nil) when absent.
func (s *Store) GetByID(ctx context.Context, id int64) (store.Message, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, messageColumns, s.opts.table)
	msg, err := scanMessage(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, store.WrapErr("get_by_id", err)
	}
	return msg, nil
}

// GetAll returns every message ordered by sent time ascending.
func (s *Store) GetAll(ctx context.Context) ([]store.Message, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY sent_at ASC, id ASC`, messageColumns, s.opts.table)
	msgs, err := s.queryMessages(ctx, query)
	return msgs, store.WrapErr("get_all", err)
}

// GetUnread returns unread messages, newest first.
func (s *Store) GetUnread(ctx context.Context) ([]store.Message, error) {
	return s.byReadFlag(ctx, false, "get_unread")
}

// GetRead returns read messages, newest first.
func (s *Store) GetRead(ctx context.Context) ([]store.Message, error) {
	return s.byReadFlag(ctx, true, "get_read")
}

func (s *Store) byReadFlag(ctx context.Context, read bool, op string) ([]store.Message, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE is_read = $1 ORDER BY sent_at DESC, id DESC`,
		messageColumns, s.opts.table)
	msgs, err := s.queryMessages(ctx, query, read)
	return msgs, store.WrapErr(op, err)
}

// GetBySender returns messages from the given sender, newest first.
func (s *Store) GetBySender(ctx context.Context, email string) ([]store.Message, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE sender_email = $1 ORDER BY sent_at DESC, id DESC`,
		messageColumns, s.opts.table)
	msgs, err := s.queryMessages(ctx, query, normalizeEmail(email))
	return msgs, store.WrapErr("get_by_sender", err)
}

// GetByDateRange returns messages with start <= sentAt <= end, oldest first.
func (s *Store) GetByDateRange(ctx context.Context, start, end time.Time) ([]store.Message, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}
	if err := store.CheckRange(start, end); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE sent_at >= $1 AND sent_at <= $2 ORDER BY sent_at ASC, id ASC`,
		messageColumns, s.opts.table)
	msgs, err := s.queryMessages(ctx, query, start, end)
	return msgs, store.WrapErr("get_by_date_range", err)
}

// GetRecent returns messages sent within the last `days` days, newest first.
func (s *Store) GetRecent(ctx context.Context, days int) ([]store.Message, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	cutoff := s.opts.nowFn().AddDate(0, 0, -days)
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE sent_at >= $1 ORDER BY sent_at DESC, id DESC`,
		messageColumns, s.opts.table)
	msgs, err := s.queryMessages(ctx, query, cutoff)
	return msgs, store.WrapErr("get_recent", err)
}

// Search matches term case-insensitively against sender name, sender
// email, subject, and body, newest first. A blank term behaves as GetAll.
func (s *Store) Search(ctx context.Context, term string) ([]store.Message, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}

	term = strings.TrimSpace(term)
	if term == "" {
		return s.GetAll(ctx)
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	pattern := "%" + escapeLike(term) + "%"
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE sender_name ILIKE $1 OR sender_email ILIKE $1 OR subject ILIKE $1 OR body ILIKE $1
		ORDER BY sent_at DESC, id DESC
	`, messageColumns, s.opts.table)
	msgs, err := s.queryMessages(ctx, query, pattern)
	return msgs, store.WrapErr("search", err)
}

// GetUrgent returns unread messages at least thresholdHours old, oldest first.
func (s *Store) GetUrgent(ctx context.Context, thresholdHours int) ([]store.Message, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	cutoff := s.opts.nowFn().Add(-time.Duration(thresholdHours) * time.Hour)
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE is_read = FALSE AND sent_at <= $1
		ORDER BY sent_at ASC, id ASC
	`, messageColumns, s.opts.table)
	msgs, err := s.queryMessages(ctx, query, cutoff)
	return msgs, store.WrapErr("get_urgent", err)
}

// GetPaged returns one 1-based page of messages, newest first.
func (s *Store) GetPaged(ctx context.Context, page, size int) ([]store.Message, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}
	if err := store.CheckPage(page, size); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY sent_at DESC, id DESC LIMIT $1 OFFSET $2`,
		messageColumns, s.opts.table)
	msgs, err := s.queryMessages(ctx, query, size, (page-1)*size)
	return msgs, store.WrapErr("get_paged", err)
}
