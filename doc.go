// Package inbox provides the inbound-inquiry core for a contact form:
// validated message intake, classification of priority/urgency/spam on
// read paths, querying, bulk operations, and statistics reporting.
//
// # Architecture
//
// The package is organized as a service layer over pluggable storage:
//
//   - inbox (this package): Service orchestration, validation, filtering,
//     bulk operations, statistics, lifecycle events
//   - classify: Pure classification and derivation functions
//   - notify: Notification dispatch (slog, SMTP)
//   - retry: Bounded exponential backoff used by the SMTP notifier
//   - store: Storage contract shared by all backends
//   - store/memory, store/postgres, store/sqlite, store/mongo: Backends
//
// # Quick Start
//
//	svc, err := inbox.NewService(
//	    inbox.WithStore(memory.New()),
//	    inbox.WithNotifier(notify.NewLogNotifier(nil)),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ctx := context.Background()
//	if err := svc.Connect(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer svc.Close(ctx)
//
//	msg, err := svc.Submit(ctx, inbox.SubmitRequest{
//	    SenderName:  "Jane Doe",
//	    SenderEmail: "jane@example.com",
//	    Subject:     "Need help with my account",
//	    Body:        "I cannot log in since yesterday, please advise.",
//	})
//
// # Classification
//
// Priority, urgency, and spam likelihood are derived fields: they are
// recomputed from the stored record and the current clock on every read,
// never persisted. See the classify package for the rules.
//
// # Events
//
// Lifecycle events are published through an event bus. By default a noop
// transport is used. Provide a Redis client or custom transport for
// cross-process delivery:
//
//	svc, err := inbox.NewService(
//	    inbox.WithStore(st),
//	    inbox.WithRedisClient(redisClient),
//	)
//
// Subscribe via svc.Events():
//
//	svc.Events().MessageReceived.Subscribe(ctx, handler)
//
// # Observability
//
// OpenTelemetry tracing and metrics are available via WithTracing,
// WithMetrics, or WithOTel. Both are disabled by default.
package inbox
