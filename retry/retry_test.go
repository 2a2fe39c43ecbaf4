package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastConfig() Config {
	return Config{
		MaxRetries:     3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2.0,
	}
}

func TestDo(t *testing.T) {
	ctx := context.Background()

	t.Run("succeeds first try", func(t *testing.T) {
		calls := 0
		err := Do(ctx, fastConfig(), func(context.Context) error {
			calls++
			return nil
		})
		if err != nil || calls != 1 {
			t.Errorf("Do = %v after %d calls, want nil after 1", err, calls)
		}
	})

	t.Run("recovers from transient failures", func(t *testing.T) {
		calls := 0
		err := Do(ctx, fastConfig(), func(context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("transient")
			}
			return nil
		})
		if err != nil || calls != 3 {
			t.Errorf("Do = %v after %d calls, want nil after 3", err, calls)
		}
	})

	t.Run("exhausts retries", func(t *testing.T) {
		cause := errors.New("always failing")
		calls := 0
		err := Do(ctx, fastConfig(), func(context.Context) error {
			calls++
			return cause
		})
		if calls != 4 {
			t.Errorf("calls = %d, want 4", calls)
		}
		if !errors.Is(err, ErrMaxRetries) || !errors.Is(err, cause) {
			t.Errorf("err = %v, want ErrMaxRetries wrapping cause", err)
		}
		var re *RetryError
		if !errors.As(err, &re) || re.Attempts != 4 {
			t.Errorf("RetryError attempts = %v, want 4", err)
		}
	})

	t.Run("stops on non-retryable error", func(t *testing.T) {
		calls := 0
		err := Do(ctx, fastConfig(), func(context.Context) error {
			calls++
			return MarkNotRetryable(errors.New("permanent"))
		})
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
		if !errors.Is(err, ErrNotRetryable) {
			t.Errorf("err = %v, want ErrNotRetryable", err)
		}
	})

	t.Run("canceled context stops retries", func(t *testing.T) {
		canceled, cancel := context.WithCancel(ctx)
		cancel()
		err := Do(canceled, fastConfig(), func(context.Context) error {
			return errors.New("should not matter")
		})
		if err == nil {
			t.Error("expected error from canceled context")
		}
	})
}
