// Package sqlite provides a SQLite implementation of store.Store backed by
// the pure-Go modernc.org/sqlite driver.
//
// The caller opens the database and passes it in:
//
//	db, err := sql.Open("sqlite", "file:inbox.db?_pragma=busy_timeout(5000)")
//	st := sqlite.New(db)
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/JuanKhanjar/inbox/store"
)

// Compile-time check
var _ store.Store = (*Store)(nil)

// Store implements store.Store using SQLite.
type Store struct {
	db        *sql.DB
	opts      *options
	connected int32
	logger    *slog.Logger
}

// New creates a new SQLite store with the provided database connection.
// Call Connect() to initialize the schema and indexes.
func New(db *sql.DB, opts ...Option) *Store {
	o := newOptions(opts...)
	return &Store{
		db:     db,
		opts:   o,
		logger: o.logger,
	}
}

// Connect initializes the schema and indexes.
func (s *Store) Connect(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&s.connected, 0, 1) {
		return store.ErrAlreadyConnected
	}

	if s.db == nil {
		atomic.StoreInt32(&s.connected, 0)
		return fmt.Errorf("sqlite: db is required")
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		atomic.StoreInt32(&s.connected, 0)
		return fmt.Errorf("sqlite ping: %w", err)
	}

	if err := s.ensureSchema(ctx); err != nil {
		atomic.StoreInt32(&s.connected, 0)
		return fmt.Errorf("ensure schema: %w", err)
	}

	s.logger.Info("connected to SQLite", "table", s.opts.table)
	return nil
}

// Close marks the store as disconnected.
// The caller is responsible for closing the database connection.
func (s *Store) Close(ctx context.Context) error {
	atomic.StoreInt32(&s.connected, 0)
	return nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			sender_name TEXT NOT NULL,
			sender_email TEXT NOT NULL,
			subject TEXT NOT NULL,
			body TEXT NOT NULL,
			sent_at TIMESTAMP NOT NULL,
			is_read BOOLEAN NOT NULL DEFAULT 0,
			read_at TIMESTAMP
		)
	`, s.opts.table)

	if _, err := s.db.ExecContext(ctx, createTable); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	indexes := []string{
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_sent ON %s(sent_at)`, s.opts.table, s.opts.table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_sender ON %s(sender_email)`, s.opts.table, s.opts.table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_unread ON %s(is_read, sent_at)`, s.opts.table, s.opts.table),
	}
	for _, idx := range indexes {
		if _, err := s.db.ExecContext(ctx, idx); err != nil {
			s.logger.Warn("failed to create index", "error", err, "sql", idx)
		}
	}

	return nil
}

func (s *Store) checkConnected() error {
	if atomic.LoadInt32(&s.connected) == 0 {
		return store.ErrNotConnected
	}
	return nil
}

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

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// placeholders renders "?, ?, ..." for n arguments.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
