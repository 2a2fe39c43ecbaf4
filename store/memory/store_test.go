package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/JuanKhanjar/inbox/store"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func setupStore(t *testing.T) *Store {
	t.Helper()
	s := New(WithClock(func() time.Time { return testNow }))
	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func addMessage(t *testing.T, s *Store, age time.Duration, read bool) store.Message {
	t.Helper()
	data := store.MessageData{
		SenderName:  "Jane Doe",
		SenderEmail: "jane@example.com",
		Subject:     "Subject line",
		Body:        "a body that is long enough",
		SentAt:      testNow.Add(-age),
		IsRead:      read,
	}
	if read {
		at := testNow.Add(-age / 2)
		data.ReadAt = &at
	}
	msg, err := s.Add(context.Background(), data)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	return msg
}

func TestConnectLifecycle(t *testing.T) {
	s := New()
	ctx := context.Background()

	if _, err := s.Count(ctx); !errors.Is(err, store.ErrNotConnected) {
		t.Errorf("Count before Connect: err = %v, want ErrNotConnected", err)
	}
	if err := s.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := s.Connect(ctx); !errors.Is(err, store.ErrAlreadyConnected) {
		t.Errorf("second Connect: err = %v, want ErrAlreadyConnected", err)
	}
	if err := s.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := s.GetAll(ctx); !errors.Is(err, store.ErrNotConnected) {
		t.Errorf("GetAll after Close: err = %v, want ErrNotConnected", err)
	}
}

func TestAddAssignsSequentialIDs(t *testing.T) {
	s := setupStore(t)
	first := addMessage(t, s, time.Hour, false)
	second := addMessage(t, s, time.Hour, false)
	if first.GetID() == 0 || second.GetID() != first.GetID()+1 {
		t.Errorf("ids = %d, %d; want sequential nonzero", first.GetID(), second.GetID())
	}
}

func TestGetByID(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	msg := addMessage(t, s, time.Hour, false)

	t.Run("found", func(t *testing.T) {
		got, err := s.GetByID(ctx, msg.GetID())
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if got == nil || got.GetID() != msg.GetID() {
			t.Errorf("got %v, want id %d", got, msg.GetID())
		}
	})

	t.Run("absent returns nil nil", func(t *testing.T) {
		got, err := s.GetByID(ctx, 9999)
		if err != nil || got != nil {
			t.Errorf("GetByID(9999) = (%v, %v), want (nil, nil)", got, err)
		}
	})
}

func TestOrderings(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	oldest := addMessage(t, s, 72*time.Hour, false)
	middle := addMessage(t, s, 36*time.Hour, true)
	newest := addMessage(t, s, time.Hour, false)

	t.Run("GetAll ascending", func(t *testing.T) {
		msgs, err := s.GetAll(ctx)
		if err != nil {
			t.Fatalf("GetAll: %v", err)
		}
		wantIDs := []int64{oldest.GetID(), middle.GetID(), newest.GetID()}
		assertOrder(t, msgs, wantIDs)
	})

	t.Run("GetUnread descending", func(t *testing.T) {
		msgs, err := s.GetUnread(ctx)
		if err != nil {
			t.Fatalf("GetUnread: %v", err)
		}
		assertOrder(t, msgs, []int64{newest.GetID(), oldest.GetID()})
	})

	t.Run("GetRead descending", func(t *testing.T) {
		msgs, err := s.GetRead(ctx)
		if err != nil {
			t.Fatalf("GetRead: %v", err)
		}
		assertOrder(t, msgs, []int64{middle.GetID()})
	})

	t.Run("GetUrgent ascending oldest first", func(t *testing.T) {
		msgs, err := s.GetUrgent(ctx, 24)
		if err != nil {
			t.Fatalf("GetUrgent: %v", err)
		}
		// middle is read, newest too fresh
		assertOrder(t, msgs, []int64{oldest.GetID()})
	})
}

func assertOrder(t *testing.T, msgs []store.Message, wantIDs []int64) {
	t.Helper()
	if len(msgs) != len(wantIDs) {
		t.Fatalf("got %d messages, want %d", len(msgs), len(wantIDs))
	}
	for i, want := range wantIDs {
		if msgs[i].GetID() != want {
			t.Errorf("position %d: id = %d, want %d", i, msgs[i].GetID(), want)
		}
	}
}

func TestGetBySenderNormalizesEmail(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	addMessage(t, s, time.Hour, false)

	msgs, err := s.GetBySender(ctx, "  JANE@Example.COM ")
	if err != nil {
		t.Fatalf("GetBySender: %v", err)
	}
	if len(msgs) != 1 {
		t.Errorf("got %d messages, want 1", len(msgs))
	}
}

func TestGetByDateRange(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	addMessage(t, s, 48*time.Hour, false)
	inRange := addMessage(t, s, 12*time.Hour, false)

	t.Run("filters by range", func(t *testing.T) {
		msgs, err := s.GetByDateRange(ctx, testNow.Add(-24*time.Hour), testNow)
		if err != nil {
			t.Fatalf("GetByDateRange: %v", err)
		}
		assertOrder(t, msgs, []int64{inRange.GetID()})
	})

	t.Run("inverted range rejected", func(t *testing.T) {
		_, err := s.GetByDateRange(ctx, testNow, testNow.Add(-24*time.Hour))
		if !errors.Is(err, store.ErrInvalidRange) {
			t.Errorf("err = %v, want ErrInvalidRange", err)
		}
	})
}

func TestSearch(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	addMessage(t, s, 2*time.Hour, false)
	other, err := s.Add(ctx, store.MessageData{
		SenderName:  "Bob Smith",
		SenderEmail: "bob@other.org",
		Subject:     "Invoice overdue",
		Body:        "please check the attached invoice",
		SentAt:      testNow.Add(-time.Hour),
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	t.Run("matches subject case-insensitively", func(t *testing.T) {
		msgs, err := s.Search(ctx, "INVOICE")
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		assertOrder(t, msgs, []int64{other.GetID()})
	})

	t.Run("matches sender email", func(t *testing.T) {
		msgs, err := s.Search(ctx, "other.org")
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		assertOrder(t, msgs, []int64{other.GetID()})
	})

	t.Run("blank term behaves as GetAll", func(t *testing.T) {
		all, err := s.GetAll(ctx)
		if err != nil {
			t.Fatalf("GetAll: %v", err)
		}
		msgs, err := s.Search(ctx, "   ")
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		if len(msgs) != len(all) {
			t.Fatalf("got %d messages, want %d", len(msgs), len(all))
		}
		for i := range all {
			if msgs[i].GetID() != all[i].GetID() {
				t.Errorf("position %d: id = %d, want %d", i, msgs[i].GetID(), all[i].GetID())
			}
		}
	})
}

func TestGetPaged(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		addMessage(t, s, time.Duration(i+1)*time.Hour, false)
	}

	t.Run("pages newest first", func(t *testing.T) {
		page, err := s.GetPaged(ctx, 1, 2)
		if err != nil {
			t.Fatalf("GetPaged: %v", err)
		}
		if len(page) != 2 {
			t.Fatalf("got %d messages, want 2", len(page))
		}
		if !page[0].GetSentAt().After(page[1].GetSentAt()) {
			t.Error("page not in descending sent order")
		}
	})

	t.Run("last partial page", func(t *testing.T) {
		page, err := s.GetPaged(ctx, 3, 2)
		if err != nil {
			t.Fatalf("GetPaged: %v", err)
		}
		if len(page) != 1 {
			t.Errorf("got %d messages, want 1", len(page))
		}
	})

	t.Run("page beyond end is empty", func(t *testing.T) {
		page, err := s.GetPaged(ctx, 10, 2)
		if err != nil {
			t.Fatalf("GetPaged: %v", err)
		}
		if len(page) != 0 {
			t.Errorf("got %d messages, want 0", len(page))
		}
	})

	t.Run("invalid page rejected", func(t *testing.T) {
		if _, err := s.GetPaged(ctx, 0, 10); !errors.Is(err, store.ErrInvalidPage) {
			t.Errorf("err = %v, want ErrInvalidPage", err)
		}
		if _, err := s.GetPaged(ctx, 1, 0); !errors.Is(err, store.ErrInvalidPage) {
			t.Errorf("err = %v, want ErrInvalidPage", err)
		}
	})
}

func TestMarkReadUnread(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	msg := addMessage(t, s, time.Hour, false)

	ok, err := s.MarkRead(ctx, msg.GetID(), testNow)
	if err != nil || !ok {
		t.Fatalf("MarkRead = (%v, %v), want (true, nil)", ok, err)
	}
	got, err := s.GetByID(ctx, msg.GetID())
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !got.GetIsRead() || got.GetReadAt() == nil {
		t.Error("expected read with read-at set")
	}
	if !got.GetSentAt().Equal(msg.GetSentAt()) {
		t.Error("MarkRead must not touch sentAt")
	}

	// idempotent second mark keeps the original read-at
	ok, err = s.MarkRead(ctx, msg.GetID(), testNow.Add(time.Hour))
	if err != nil || !ok {
		t.Fatalf("second MarkRead = (%v, %v)", ok, err)
	}
	again, _ := s.GetByID(ctx, msg.GetID())
	if !again.GetReadAt().Equal(*got.GetReadAt()) {
		t.Error("second MarkRead must not change read-at")
	}

	ok, err = s.MarkUnread(ctx, msg.GetID())
	if err != nil || !ok {
		t.Fatalf("MarkUnread = (%v, %v)", ok, err)
	}
	got, _ = s.GetByID(ctx, msg.GetID())
	if got.GetIsRead() || got.GetReadAt() != nil {
		t.Error("expected unread with read-at cleared")
	}

	t.Run("absent returns false", func(t *testing.T) {
		if ok, err := s.MarkRead(ctx, 9999, testNow); err != nil || ok {
			t.Errorf("MarkRead(9999) = (%v, %v), want (false, nil)", ok, err)
		}
		if ok, err := s.MarkUnread(ctx, 9999); err != nil || ok {
			t.Errorf("MarkUnread(9999) = (%v, %v), want (false, nil)", ok, err)
		}
	})
}

func TestMarkManyRead(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	unread := addMessage(t, s, time.Hour, false)
	read := addMessage(t, s, time.Hour, true)

	t.Run("empty set is a no-op", func(t *testing.T) {
		n, err := s.MarkManyRead(ctx, nil, testNow)
		if err != nil || n != 0 {
			t.Errorf("MarkManyRead(nil) = (%d, %v), want (0, nil)", n, err)
		}
	})

	t.Run("counts only changed messages", func(t *testing.T) {
		n, err := s.MarkManyRead(ctx, []int64{unread.GetID(), read.GetID(), 9999}, testNow)
		if err != nil {
			t.Fatalf("MarkManyRead: %v", err)
		}
		if n != 1 {
			t.Errorf("changed = %d, want 1", n)
		}
	})

	t.Run("already read counts zero", func(t *testing.T) {
		n, err := s.MarkManyRead(ctx, []int64{read.GetID()}, testNow)
		if err != nil || n != 0 {
			t.Errorf("MarkManyRead = (%d, %v), want (0, nil)", n, err)
		}
	})
}

func TestDelete(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	msg := addMessage(t, s, time.Hour, false)

	ok, err := s.Delete(ctx, msg.GetID())
	if err != nil || !ok {
		t.Fatalf("Delete = (%v, %v), want (true, nil)", ok, err)
	}
	if ok, _ := s.Delete(ctx, msg.GetID()); ok {
		t.Error("second Delete should return false")
	}
}

func TestDeleteMany(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	a := addMessage(t, s, time.Hour, false)
	b := addMessage(t, s, 2*time.Hour, false)

	n, err := s.DeleteMany(ctx, []int64{a.GetID(), b.GetID(), 9999})
	if err != nil {
		t.Fatalf("DeleteMany: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted = %d, want 2", n)
	}
}

func TestDeleteOlderThan(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	addMessage(t, s, 40*24*time.Hour, true)
	addMessage(t, s, 10*24*time.Hour, false)
	addMessage(t, s, time.Hour, false)

	t.Run("negative days rejected", func(t *testing.T) {
		_, err := s.DeleteOlderThan(ctx, -1)
		if !errors.Is(err, store.ErrInvalidRetention) {
			t.Errorf("err = %v, want ErrInvalidRetention", err)
		}
	})

	t.Run("deletes past cutoff", func(t *testing.T) {
		n, err := s.DeleteOlderThan(ctx, 30)
		if err != nil {
			t.Fatalf("DeleteOlderThan: %v", err)
		}
		if n != 1 {
			t.Errorf("deleted = %d, want 1", n)
		}
	})

	t.Run("zero days deletes everything sent before now", func(t *testing.T) {
		n, err := s.DeleteOlderThan(ctx, 0)
		if err != nil {
			t.Fatalf("DeleteOlderThan: %v", err)
		}
		if n != 2 {
			t.Errorf("deleted = %d, want 2", n)
		}
	})
}

func TestCounts(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	addMessage(t, s, 48*time.Hour, true)
	addMessage(t, s, 12*time.Hour, false)
	addMessage(t, s, 6*time.Hour, false)

	total, err := s.Count(ctx)
	if err != nil || total != 3 {
		t.Errorf("Count = (%d, %v), want (3, nil)", total, err)
	}
	unread, err := s.CountUnread(ctx)
	if err != nil || unread != 2 {
		t.Errorf("CountUnread = (%d, %v), want (2, nil)", unread, err)
	}

	t.Run("range counts", func(t *testing.T) {
		counts, err := s.CountInRange(ctx, testNow.Add(-24*time.Hour), testNow)
		if err != nil {
			t.Fatalf("CountInRange: %v", err)
		}
		want := store.RangeCounts{Total: 2, Read: 0, Unread: 2}
		if counts != want {
			t.Errorf("CountInRange = %+v, want %+v", counts, want)
		}
	})

	t.Run("inverted range rejected", func(t *testing.T) {
		_, err := s.CountInRange(ctx, testNow, testNow.Add(-time.Hour))
		if !errors.Is(err, store.ErrInvalidRange) {
			t.Errorf("err = %v, want ErrInvalidRange", err)
		}
	})
}

func TestSnapshotsAreDetached(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	msg := addMessage(t, s, time.Hour, false)

	snap, err := s.GetByID(ctx, msg.GetID())
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	rec, ok := snap.(*store.Record)
	if !ok {
		t.Fatalf("snapshot is %T, want *store.Record", snap)
	}
	rec.IsRead = true
	rec.Subject = "mutated locally"

	stored, _ := s.GetByID(ctx, msg.GetID())
	if stored.GetIsRead() || stored.GetSubject() == "mutated locally" {
		t.Error("mutating a snapshot must not affect storage")
	}
}
