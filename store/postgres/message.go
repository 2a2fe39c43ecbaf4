package postgres

import (
	"context"
	"database/sql"
	"strings"

	"github.com/JuanKhanjar/inbox/store"
)

// messageColumns is the column list every message select uses, in the
// order scanMessage expects.
const messageColumns = "id, sender_name, sender_email, subject, body, sent_at, is_read, read_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (*store.Record, error) {
	var r store.Record
	var readAt sql.NullTime
	err := row.Scan(
		&r.ID, &r.SenderName, &r.SenderEmail, &r.Subject, &r.Body,
		&r.SentAt, &r.IsRead, &readAt,
	)
	if err != nil {
		return nil, err
	}
	r.SentAt = r.SentAt.UTC()
	if readAt.Valid {
		t := readAt.Time.UTC()
		r.ReadAt = &t
	}
	return &r, nil
}

// queryMessages runs a full select with the given tail (WHERE/ORDER/LIMIT)
// and returns scanned snapshots.
func (s *Store) queryMessages(ctx context.Context, query string, args ...any) ([]store.Message, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	msgs := make([]store.Message, 0)
	for rows.Next() {
		r, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, r)
	}
	return msgs, rows.Err()
}

// escapeLike escapes LIKE wildcards in a user-supplied search term.
func escapeLike(term string) string {
	term = strings.ReplaceAll(term, `\`, `\\`)
	term = strings.ReplaceAll(term, `%`, `\%`)
	term = strings.ReplaceAll(term, `_`, `\_`)
	return term
}

// normalizeEmail applies the same normalization stored emails carry.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
