package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/JuanKhanjar/inbox/store"
)

// Add persists a new message and returns it with the assigned ID.
func (s *Store) Add(ctx context.Context, data store.MessageData) (store.Message, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	query := fmt.Sprintf(`
		INSERT INTO %s (sender_name, sender_email, subject, body, sent_at, is_read, read_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, s.opts.table)

	r := &store.Record{
		SenderName:  data.SenderName,
		SenderEmail: data.SenderEmail,
		Subject:     data.Subject,
		Body:        data.Body,
		SentAt:      data.SentAt,
		IsRead:      data.IsRead,
		ReadAt:      data.ReadAt,
	}
	err := s.db.QueryRowContext(ctx, query,
		r.SenderName, r.SenderEmail, r.Subject, r.Body, r.SentAt, r.IsRead, r.ReadAt,
	).Scan(&r.ID)
	if err != nil {
		return nil, store.WrapErr("add", err)
	}
	return r, nil
}

// Update persists the read flag and read-at of an existing message.
// Returns (nil, nil) when the message does not exist.
func (s *Store) Update(ctx context.Context, msg store.Message) (store.Message, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	query := fmt.Sprintf(`
		UPDATE %s SET is_read = $2, read_at = $3
		WHERE id = $1
		RETURNING %s
	`, s.opts.table, messageColumns)

	updated, err := scanMessage(s.db.QueryRowContext(ctx, query, msg.GetID(), msg.GetIsRead(), msg.GetReadAt()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, store.WrapErr("update", err)
	}
	return updated, nil
}

// MarkRead sets the read flag, keeping an existing read-at timestamp.
// Idempotent; returns false when the message does not exist.
func (s *Store) MarkRead(ctx context.Context, id int64, readAt time.Time) (bool, error) {
	if err := s.checkConnected(); err != nil {
		return false, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	query := fmt.Sprintf(`
		UPDATE %s SET is_read = TRUE, read_at = COALESCE(read_at, $2)
		WHERE id = $1
	`, s.opts.table)
	return s.execExists(ctx, "mark_read", query, id, readAt)
}

// MarkUnread clears the read flag and read-at.
// Returns false when the message does not exist.
func (s *Store) MarkUnread(ctx context.Context, id int64) (bool, error) {
	if err := s.checkConnected(); err != nil {
		return false, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	query := fmt.Sprintf(`UPDATE %s SET is_read = FALSE, read_at = NULL WHERE id = $1`, s.opts.table)
	return s.execExists(ctx, "mark_unread", query, id)
}

// MarkManyRead marks the given ids read in one atomic statement and
// returns the number actually changed. Already-read and missing ids are
// not counted.
func (s *Store) MarkManyRead(ctx context.Context, ids []int64, readAt time.Time) (int64, error) {
	if err := s.checkConnected(); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	// Single UPDATE - the database applies it atomically, no explicit
	// transaction needed.
	query := fmt.Sprintf(`
		UPDATE %s SET is_read = TRUE, read_at = $2
		WHERE id = ANY($1) AND is_read = FALSE
	`, s.opts.table)
	return s.execCount(ctx, "mark_many_read", query, pq.Array(ids), readAt)
}

// Delete removes a message. Returns false when it does not exist.
func (s *Store) Delete(ctx context.Context, id int64) (bool, error) {
	if err := s.checkConnected(); err != nil {
		return false, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, s.opts.table)
	return s.execExists(ctx, "delete", query, id)
}

// DeleteMany removes the given ids in one atomic statement and returns
// the number actually deleted.
func (s *Store) DeleteMany(ctx context.Context, ids []int64) (int64, error) {
	if err := s.checkConnected(); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ANY($1)`, s.opts.table)
	return s.execCount(ctx, "delete_many", query, pq.Array(ids))
}

// DeleteOlderThan removes messages sent before now - days and returns the
// number deleted.
func (s *Store) DeleteOlderThan(ctx context.Context, days int) (int64, error) {
	if err := s.checkConnected(); err != nil {
		return 0, err
	}
	if err := store.CheckRetentionDays(days); err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	cutoff := s.opts.nowFn().AddDate(0, 0, -days)
	query := fmt.Sprintf(`DELETE FROM %s WHERE sent_at < $1`, s.opts.table)
	deleted, err := s.execCount(ctx, "delete_older_than", query, cutoff)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.logger.Info("retention sweep removed messages", "deleted", deleted, "days", days)
	}
	return deleted, nil
}

func (s *Store) execExists(ctx context.Context, op, query string, args ...any) (bool, error) {
	n, err := s.execCount(ctx, op, query, args...)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) execCount(ctx context.Context, op, query string, args ...any) (int64, error) {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, store.WrapErr(op, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, store.WrapErr(op, err)
	}
	return rows, nil
}
