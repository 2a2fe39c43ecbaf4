package inbox

import (
	"context"
	"errors"
	"testing"
)

func TestBulk(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown action fails", func(t *testing.T) {
		svc, _ := setupService(t)
		_, err := svc.Bulk(ctx, BulkRequest{MessageIDs: []int64{1}, Action: "archive"})
		if !errors.Is(err, ErrInvalidMessage) {
			t.Fatalf("expected ErrInvalidMessage, got %v", err)
		}
		ve, ok := IsValidationError(err)
		if !ok || ve.Field != "action" {
			t.Errorf("expected action validation error, got %v", err)
		}
	})

	t.Run("empty id set is a no-op", func(t *testing.T) {
		svc, _ := setupService(t)
		res, err := svc.Bulk(ctx, BulkRequest{Action: BulkMarkRead})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Affected != 0 || res.Requested != 0 {
			t.Errorf("expected empty result, got %+v", res)
		}
	})

	t.Run("mark read counts only actual changes", func(t *testing.T) {
		svc, clock := setupService(t)
		jane, bob, carol := seedInbox(t, svc, clock)

		// bob is already read; 999 does not exist.
		res, err := svc.Bulk(ctx, BulkRequest{
			MessageIDs: []int64{jane.GetID(), bob.GetID(), carol.GetID(), 999},
			Action:     BulkMarkRead,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Requested != 4 {
			t.Errorf("expected requested=4, got %d", res.Requested)
		}
		if res.Affected != 2 {
			t.Errorf("expected affected=2, got %d", res.Affected)
		}
		if res.Skipped() != 2 {
			t.Errorf("expected skipped=2, got %d", res.Skipped())
		}

		unread, err := svc.Unread(ctx)
		if err != nil {
			t.Fatalf("unread: %v", err)
		}
		if len(unread) != 0 {
			t.Errorf("expected no unread messages, got %d", len(unread))
		}
	})

	t.Run("delete skips missing ids", func(t *testing.T) {
		svc, clock := setupService(t)
		jane, bob, _ := seedInbox(t, svc, clock)

		res, err := svc.Bulk(ctx, BulkRequest{
			MessageIDs: []int64{jane.GetID(), bob.GetID(), 999},
			Action:     BulkDelete,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Affected != 2 {
			t.Errorf("expected affected=2, got %d", res.Affected)
		}

		remaining, err := svc.All(ctx)
		if err != nil {
			t.Fatalf("all: %v", err)
		}
		if len(remaining) != 1 {
			t.Errorf("expected 1 remaining, got %d", len(remaining))
		}
	})
}
