package memory

import (
	"context"
	"strings"
	"time"

	"github.com/JuanKhanjar/inbox/store"
)

// GetByID retrieves a message by ID. Returns (nil, nil) when absent.
func (s *Store) GetByID(_ context.Context, id int64) (store.Message, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.messages[id]
	if !ok {
		return nil, nil
	}
	return store.Snapshot(r), nil
}

// GetAll returns every message ordered by sent time ascending.
func (s *Store) GetAll(_ context.Context) ([]store.Message, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}
	return s.collect(nil, true), nil
}

// GetUnread returns unread messages, newest first.
func (s *Store) GetUnread(_ context.Context) ([]store.Message, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}
	return s.collect(func(r *store.Record) bool { return !r.IsRead }, false), nil
}

// GetRead returns read messages, newest first.
func (s *Store) GetRead(_ context.Context) ([]store.Message, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}
	return s.collect(func(r *store.Record) bool { return r.IsRead }, false), nil
}

// GetBySender returns messages from the given sender, newest first.
func (s *Store) GetBySender(_ context.Context, email string) ([]store.Message, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	return s.collect(func(r *store.Record) bool { return r.SenderEmail == email }, false), nil
}

// GetByDateRange returns messages with start <= sentAt <= end, oldest first.
func (s *Store) GetByDateRange(_ context.Context, start, end time.Time) ([]store.Message, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}
	if err := store.CheckRange(start, end); err != nil {
		return nil, err
	}
	return s.collect(func(r *store.Record) bool {
		return !r.SentAt.Before(start) && !r.SentAt.After(end)
	}, true), nil
}

// GetRecent returns messages sent within the last `days` days, newest first.
func (s *Store) GetRecent(_ context.Context, days int) ([]store.Message, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}
	cutoff := s.nowFn().AddDate(0, 0, -days)
	return s.collect(func(r *store.Record) bool { return !r.SentAt.Before(cutoff) }, false), nil
}

// Search matches term case-insensitively against sender name, sender
// email, subject, and body, newest first. A blank term behaves as GetAll.
func (s *Store) Search(ctx context.Context, term string) ([]store.Message, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return s.GetAll(ctx)
	}
	return s.collect(func(r *store.Record) bool {
		return strings.Contains(strings.ToLower(r.SenderName), term) ||
			strings.Contains(r.SenderEmail, term) ||
			strings.Contains(strings.ToLower(r.Subject), term) ||
			strings.Contains(strings.ToLower(r.Body), term)
	}, false), nil
}

// GetUrgent returns unread messages at least thresholdHours old, oldest
// first - those need attention soonest.
func (s *Store) GetUrgent(_ context.Context, thresholdHours int) ([]store.Message, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}
	now := s.nowFn()
	return s.collect(func(r *store.Record) bool {
		return !r.IsRead && now.Sub(r.SentAt).Hours() >= float64(thresholdHours)
	}, true), nil
}

// GetPaged returns one 1-based page of messages, newest first.
func (s *Store) GetPaged(_ context.Context, page, size int) ([]store.Message, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}
	if err := store.CheckPage(page, size); err != nil {
		return nil, err
	}
	all := s.collect(nil, false)
	offset := (page - 1) * size
	if offset >= len(all) {
		return []store.Message{}, nil
	}
	end := offset + size
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}
