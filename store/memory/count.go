package memory

import (
	"context"
	"time"

	"github.com/JuanKhanjar/inbox/store"
)

// Count returns the total number of stored messages.
func (s *Store) Count(_ context.Context) (int64, error) {
	if err := s.checkConnected(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.messages)), nil
}

// CountUnread returns the number of unread messages.
func (s *Store) CountUnread(_ context.Context) (int64, error) {
	if err := s.checkConnected(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, r := range s.messages {
		if !r.IsRead {
			n++
		}
	}
	return n, nil
}

// CountInRange returns total/read/unread counts for start <= sentAt <= end.
func (s *Store) CountInRange(_ context.Context, start, end time.Time) (store.RangeCounts, error) {
	var counts store.RangeCounts
	if err := s.checkConnected(); err != nil {
		return counts, err
	}
	if err := store.CheckRange(start, end); err != nil {
		return counts, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.messages {
		if r.SentAt.Before(start) || r.SentAt.After(end) {
			continue
		}
		counts.Total++
		if r.IsRead {
			counts.Read++
		} else {
			counts.Unread++
		}
	}
	return counts, nil
}
