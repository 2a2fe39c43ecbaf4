// Package notify delivers operator notifications for newly received
// messages. Dispatch is fire-and-forget from the service's point of view:
// a returned error is logged by the caller and never propagated to message
// submission.
package notify

import (
	"context"

	"github.com/JuanKhanjar/inbox/store"
)

// Notifier alerts an operator about a newly received message.
type Notifier interface {
	Notify(ctx context.Context, msg store.Message) error
}

// Func adapts a function to the Notifier interface.
type Func func(ctx context.Context, msg store.Message) error

// Notify calls f.
func (f Func) Notify(ctx context.Context, msg store.Message) error {
	return f(ctx, msg)
}
