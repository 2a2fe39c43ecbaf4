package memory

import (
	"context"
	"time"

	"github.com/JuanKhanjar/inbox/store"
)

// Add persists a new message and assigns its ID.
func (s *Store) Add(_ context.Context, data store.MessageData) (store.Message, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	r := &store.Record{
		ID:          s.nextID,
		SenderName:  data.SenderName,
		SenderEmail: data.SenderEmail,
		Subject:     data.Subject,
		Body:        data.Body,
		SentAt:      data.SentAt,
		IsRead:      data.IsRead,
	}
	if data.ReadAt != nil {
		t := *data.ReadAt
		r.ReadAt = &t
	}
	s.messages[r.ID] = r
	return store.Snapshot(r), nil
}

// Update persists the read flag and read-at of an existing message.
// Returns (nil, nil) when the message does not exist.
func (s *Store) Update(_ context.Context, msg store.Message) (store.Message, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.messages[msg.GetID()]
	if !ok {
		return nil, nil
	}
	r.IsRead = msg.GetIsRead()
	r.ReadAt = nil
	if at := msg.GetReadAt(); at != nil {
		t := *at
		r.ReadAt = &t
	}
	return store.Snapshot(r), nil
}

// MarkRead sets the read flag. Idempotent; returns false when absent.
func (s *Store) MarkRead(_ context.Context, id int64, readAt time.Time) (bool, error) {
	if err := s.checkConnected(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.messages[id]
	if !ok {
		return false, nil
	}
	if !r.IsRead {
		r.IsRead = true
		t := readAt
		r.ReadAt = &t
	}
	return true, nil
}

// MarkUnread clears the read flag and read-at. Returns false when absent.
func (s *Store) MarkUnread(_ context.Context, id int64) (bool, error) {
	if err := s.checkConnected(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.messages[id]
	if !ok {
		return false, nil
	}
	r.IsRead = false
	r.ReadAt = nil
	return true, nil
}

// MarkManyRead marks the given ids read and returns the number actually
// changed. Missing and already-read ids are skipped.
func (s *Store) MarkManyRead(_ context.Context, ids []int64, readAt time.Time) (int64, error) {
	if err := s.checkConnected(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var changed int64
	for _, id := range ids {
		r, ok := s.messages[id]
		if !ok || r.IsRead {
			continue
		}
		r.IsRead = true
		t := readAt
		r.ReadAt = &t
		changed++
	}
	return changed, nil
}

// Delete removes a message. Returns false when absent.
func (s *Store) Delete(_ context.Context, id int64) (bool, error) {
	if err := s.checkConnected(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.messages[id]; !ok {
		return false, nil
	}
	delete(s.messages, id)
	return true, nil
}

// DeleteMany removes the given ids and returns the number deleted.
func (s *Store) DeleteMany(_ context.Context, ids []int64) (int64, error) {
	if err := s.checkConnected(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted int64
	for _, id := range ids {
		if _, ok := s.messages[id]; ok {
			delete(s.messages, id)
			deleted++
		}
	}
	return deleted, nil
}

// DeleteOlderThan removes messages sent before now - days and returns the
// number deleted.
func (s *Store) DeleteOlderThan(_ context.Context, days int) (int64, error) {
	if err := s.checkConnected(); err != nil {
		return 0, err
	}
	if err := store.CheckRetentionDays(days); err != nil {
		return 0, err
	}
	cutoff := s.nowFn().AddDate(0, 0, -days)
	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted int64
	for id, r := range s.messages {
		if r.SentAt.Before(cutoff) {
			delete(s.messages, id)
			deleted++
		}
	}
	return deleted, nil
}
