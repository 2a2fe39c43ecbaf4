package inbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/JuanKhanjar/inbox/notify"
	"github.com/JuanKhanjar/inbox/store"
	"github.com/JuanKhanjar/inbox/store/memory"
	"github.com/rbaliyan/event/v3/transport/channel"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

// fakeClock is a settable time source shared by the store and the service.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{now: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// setupService creates a connected service on a memory store with a fixed
// clock and in-process event transport.
func setupService(t *testing.T, opts ...Option) (Service, *fakeClock) {
	t.Helper()
	clock := newFakeClock(testNow)
	base := []Option{
		WithStore(memory.New(memory.WithClock(clock.Now))),
		WithClock(clock.Now),
		WithEventTransport(channel.New()),
	}
	svc, err := NewService(append(base, opts...)...)
	if err != nil {
		t.Fatalf("create service: %v", err)
	}
	ctx := context.Background()
	if err := svc.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { svc.Close(context.Background()) })
	return svc, clock
}

// submitMessage submits a valid inquiry, failing the test on error.
func submitMessage(t *testing.T, svc Service, name, email, subject, body string) Message {
	t.Helper()
	msg, err := svc.Submit(context.Background(), SubmitRequest{
		SenderName:  name,
		SenderEmail: email,
		Subject:     subject,
		Body:        body,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	return msg
}

func TestNewService(t *testing.T) {
	t.Run("requires store", func(t *testing.T) {
		_, err := NewService()
		if !errors.Is(err, ErrStoreRequired) {
			t.Errorf("expected ErrStoreRequired, got %v", err)
		}
	})

	t.Run("not connected before Connect", func(t *testing.T) {
		svc, err := NewService(WithStore(memory.New()))
		if err != nil {
			t.Fatalf("create service: %v", err)
		}
		if svc.IsConnected() {
			t.Error("expected IsConnected=false before Connect")
		}
	})
}

func TestConnectLifecycle(t *testing.T) {
	ctx := context.Background()

	t.Run("connect and close", func(t *testing.T) {
		svc, err := NewService(WithStore(memory.New()))
		if err != nil {
			t.Fatalf("create service: %v", err)
		}
		if err := svc.Connect(ctx); err != nil {
			t.Fatalf("connect: %v", err)
		}
		if !svc.IsConnected() {
			t.Error("expected IsConnected=true after Connect")
		}
		if err := svc.Close(ctx); err != nil {
			t.Fatalf("close: %v", err)
		}
		if svc.IsConnected() {
			t.Error("expected IsConnected=false after Close")
		}
	})

	t.Run("double connect fails", func(t *testing.T) {
		svc, _ := setupService(t)
		err := svc.Connect(ctx)
		if !errors.Is(err, ErrAlreadyConnected) {
			t.Errorf("expected ErrAlreadyConnected, got %v", err)
		}
		if !errors.Is(err, store.ErrAlreadyConnected) {
			t.Errorf("expected error to match store sentinel, got %v", err)
		}
	})

	t.Run("operations before connect fail", func(t *testing.T) {
		svc, err := NewService(WithStore(memory.New()))
		if err != nil {
			t.Fatalf("create service: %v", err)
		}
		if _, err := svc.All(ctx); !errors.Is(err, ErrNotConnected) {
			t.Errorf("All: expected ErrNotConnected, got %v", err)
		}
		if _, err := svc.Submit(ctx, SubmitRequest{}); !errors.Is(err, ErrNotConnected) {
			t.Errorf("Submit: expected ErrNotConnected, got %v", err)
		}
		if _, err := svc.Stats(ctx); !errors.Is(err, ErrNotConnected) {
			t.Errorf("Stats: expected ErrNotConnected, got %v", err)
		}
	})

	t.Run("close is idempotent", func(t *testing.T) {
		svc, err := NewService(WithStore(memory.New()))
		if err != nil {
			t.Fatalf("create service: %v", err)
		}
		if err := svc.Connect(ctx); err != nil {
			t.Fatalf("connect: %v", err)
		}
		if err := svc.Close(ctx); err != nil {
			t.Fatalf("first close: %v", err)
		}
		if err := svc.Close(ctx); err != nil {
			t.Fatalf("second close: %v", err)
		}
	})
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()

	t.Run("stores a valid inquiry", func(t *testing.T) {
		svc, _ := setupService(t)
		msg := submitMessage(t, svc, "Jane Doe", " JANE@Example.COM ", "Question about pricing", "I would like to know more about your plans.")

		if msg.GetID() == 0 {
			t.Error("expected assigned ID")
		}
		if got := msg.GetSenderEmail(); got != "jane@example.com" {
			t.Errorf("expected normalized email, got %q", got)
		}
		if msg.GetIsRead() {
			t.Error("expected new message to be unread")
		}
		if !msg.GetSentAt().Equal(testNow) {
			t.Errorf("expected SentAt=%v, got %v", testNow, msg.GetSentAt())
		}

		stored, err := svc.Get(ctx, msg.GetID())
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if stored == nil || stored.GetSubject() != "Question about pricing" {
			t.Errorf("stored message mismatch: %+v", stored)
		}
	})

	t.Run("rejects invalid fields", func(t *testing.T) {
		svc, _ := setupService(t)
		tests := []struct {
			name  string
			req   SubmitRequest
			field string
		}{
			{
				name:  "name too short",
				req:   SubmitRequest{SenderName: "J", SenderEmail: "j@example.com", Subject: "Hello", Body: "A body long enough."},
				field: "sender_name",
			},
			{
				name:  "bad email",
				req:   SubmitRequest{SenderName: "Jane", SenderEmail: "not-an-email", Subject: "Hello", Body: "A body long enough."},
				field: "sender_email",
			},
			{
				name:  "subject too short",
				req:   SubmitRequest{SenderName: "Jane", SenderEmail: "j@example.com", Subject: "Hi", Body: "A body long enough."},
				field: "subject",
			},
			{
				name:  "body too short",
				req:   SubmitRequest{SenderName: "Jane", SenderEmail: "j@example.com", Subject: "Hello", Body: "short"},
				field: "body",
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := svc.Submit(ctx, tt.req)
				if !errors.Is(err, ErrInvalidMessage) {
					t.Fatalf("expected ErrInvalidMessage, got %v", err)
				}
				ve, ok := IsValidationError(err)
				if !ok {
					t.Fatalf("expected ValidationError, got %T", err)
				}
				if ve.Field != tt.field {
					t.Errorf("expected field %q, got %q", tt.field, ve.Field)
				}
			})
		}
	})

	t.Run("dispatches notifier", func(t *testing.T) {
		notified := make(chan int64, 1)
		notifier := notify.Func(func(_ context.Context, m store.Message) error {
			notified <- m.GetID()
			return nil
		})
		svc, _ := setupService(t, WithNotifier(notifier))

		msg := submitMessage(t, svc, "Jane Doe", "jane@example.com", "Hello there", "A body long enough.")

		select {
		case id := <-notified:
			if id != msg.GetID() {
				t.Errorf("expected notification for %d, got %d", msg.GetID(), id)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for notification")
		}
	})

	t.Run("notifier failure does not fail submit", func(t *testing.T) {
		called := make(chan struct{}, 1)
		notifier := notify.Func(func(context.Context, store.Message) error {
			called <- struct{}{}
			return errors.New("smtp down")
		})
		svc, _ := setupService(t, WithNotifier(notifier))

		submitMessage(t, svc, "Jane Doe", "jane@example.com", "Hello there", "A body long enough.")

		select {
		case <-called:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for notifier call")
		}
	})
}

func TestGracefulClose(t *testing.T) {
	var done sync.WaitGroup
	done.Add(1)
	var finished bool
	notifier := notify.Func(func(context.Context, store.Message) error {
		defer done.Done()
		time.Sleep(100 * time.Millisecond)
		finished = true
		return nil
	})

	clock := newFakeClock(testNow)
	svc, err := NewService(
		WithStore(memory.New(memory.WithClock(clock.Now))),
		WithClock(clock.Now),
		WithNotifier(notifier),
		WithShutdownTimeout(5*time.Second),
	)
	if err != nil {
		t.Fatalf("create service: %v", err)
	}
	ctx := context.Background()
	if err := svc.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}

	if _, err := svc.Submit(ctx, SubmitRequest{
		SenderName:  "Jane Doe",
		SenderEmail: "jane@example.com",
		Subject:     "Hello there",
		Body:        "A body long enough.",
	}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if err := svc.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
	done.Wait()
	if !finished {
		t.Error("expected Close to wait for the in-flight notification")
	}
}
