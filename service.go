package inbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/JuanKhanjar/inbox/notify"
	"github.com/JuanKhanjar/inbox/store"
	"github.com/rbaliyan/event/v3"
	"github.com/rbaliyan/event/v3/transport/noop"
	eventredis "github.com/rbaliyan/event/v3/transport/redis"
	"golang.org/x/sync/semaphore"
)

// ServiceHealth provides health and state information about the service.
type ServiceHealth interface {
	// IsConnected returns true if the service is connected and ready.
	IsConnected() bool
}

// SubmitRequest contains the raw fields of an inbound inquiry.
type SubmitRequest struct {
	SenderName  string
	SenderEmail string
	Subject     string
	Body        string
}

// Submitter accepts new inquiries.
type Submitter interface {
	// Submit validates the request, stores the message, dispatches the
	// configured notifier in the background, and publishes a
	// MessageReceived event. Validation failures return ValidationError.
	Submit(ctx context.Context, req SubmitRequest) (Message, error)
}

// MessageQuerier provides read access to stored messages.
// Ordering contracts: All, ByDateRange, and Urgent return oldest first;
// the remaining list operations return newest first.
type MessageQuerier interface {
	// Get returns the message with the given ID, or (nil, nil) when absent.
	Get(ctx context.Context, id int64) (Message, error)
	All(ctx context.Context) ([]Message, error)
	Unread(ctx context.Context) ([]Message, error)
	Read(ctx context.Context) ([]Message, error)
	BySender(ctx context.Context, email string) ([]Message, error)
	ByDateRange(ctx context.Context, start, end time.Time) ([]Message, error)
	Recent(ctx context.Context, days int) ([]Message, error)
	Search(ctx context.Context, term string) ([]Message, error)
	// Urgent returns unread messages at least as old as the configured
	// urgency threshold, oldest first.
	Urgent(ctx context.Context) ([]Message, error)
	Paged(ctx context.Context, page, size int) ([]Message, error)
	// Filter resolves a combined filter request; see FilterRequest for
	// the precedence rules.
	Filter(ctx context.Context, req FilterRequest) ([]Message, error)
}

// MessageMutator changes or removes stored messages.
// All single-message operations report absence as (false, nil).
type MessageMutator interface {
	MarkRead(ctx context.Context, id int64) (bool, error)
	MarkUnread(ctx context.Context, id int64) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
	// RetentionSweep permanently deletes messages sent more than the given
	// number of days ago and returns the number deleted.
	RetentionSweep(ctx context.Context, days int) (int64, error)
}

// BulkOperator executes count-only bulk operations.
type BulkOperator interface {
	Bulk(ctx context.Context, req BulkRequest) (*BulkResult, error)
}

// StatsReader produces aggregate inbox statistics.
type StatsReader interface {
	// Stats recomputes a full report from the current record set.
	Stats(ctx context.Context) (*Report, error)
}

// Service is the inbox service: intake, querying, mutation, bulk
// operations, and statistics over a single inbound inbox.
//
// Composed of:
//   - ServiceHealth: Health and state queries (IsConnected)
//   - Submitter: Inquiry intake (Submit)
//   - MessageQuerier: Reads (Get, All, Search, Filter, ...)
//   - MessageMutator: Mutations (MarkRead, Delete, RetentionSweep)
//   - BulkOperator: Bulk operations (Bulk)
//   - StatsReader: Statistics (Stats)
type Service interface {
	ServiceHealth
	Submitter
	MessageQuerier
	MessageMutator
	BulkOperator
	StatsReader

	// Connect establishes the storage connection and event bus.
	Connect(ctx context.Context) error
	// Close waits for in-flight notification dispatches and closes all
	// connections.
	Close(ctx context.Context) error
	// Events returns per-service event instances for subscribing and
	// publishing.
	Events() *ServiceEvents
}

// Connection states for the service.
const (
	stateDisconnected int32 = 0
	stateConnecting   int32 = 1
	stateConnected    int32 = 2
)

// service is the default implementation of Service.
type service struct {
	store     store.Store
	notifier  notify.Notifier
	logger    *slog.Logger
	opts      *options
	state     int32 // stateDisconnected, stateConnecting, or stateConnected
	otel      *otelInstrumentation
	notifySem *semaphore.Weighted // Limits concurrent notification dispatches
	eventBus  *event.Bus          // Event bus for publishing events
	events    *ServiceEvents      // Per-service event instances
	nowFn     func() time.Time
}

var _ Service = (*service)(nil)

// NewService creates a new inbox service.
// Call Connect() to establish connections to backends.
func NewService(opts ...Option) (Service, error) {
	o := newOptions(opts...)

	if o.store == nil {
		return nil, ErrStoreRequired
	}

	otelInstr, err := newOtelInstrumentation(o)
	if err != nil {
		return nil, fmt.Errorf("init otel: %w", err)
	}

	return &service{
		store:     o.store,
		notifier:  o.notifier,
		logger:    o.logger,
		opts:      o,
		otel:      otelInstr,
		notifySem: semaphore.NewWeighted(int64(o.maxConcurrentNotifications)),
		nowFn:     o.nowFn,
	}, nil
}

// Events returns per-service event instances for subscribing and publishing.
func (s *service) Events() *ServiceEvents {
	return s.events
}

// IsConnected returns true if the service is connected and ready.
func (s *service) IsConnected() bool {
	return atomic.LoadInt32(&s.state) == stateConnected
}

// checkConnected verifies the service is ready for operations.
func (s *service) checkConnected() error {
	if atomic.LoadInt32(&s.state) != stateConnected {
		return ErrNotConnected
	}
	return nil
}

// Connect establishes connections to the storage backend and event bus.
func (s *service) Connect(ctx context.Context) error {
	// Three states prevent callers from seeing partial initialization:
	// stateDisconnected -> stateConnecting -> stateConnected
	if !atomic.CompareAndSwapInt32(&s.state, stateDisconnected, stateConnecting) {
		return ErrAlreadyConnected
	}

	// Reset to disconnected on failure, set to connected on success
	success := false
	defer func() {
		if success {
			atomic.StoreInt32(&s.state, stateConnected)
		} else {
			atomic.StoreInt32(&s.state, stateDisconnected)
		}
	}()

	if err := s.store.Connect(ctx); err != nil {
		return fmt.Errorf("connect store: %w", err)
	}

	if err := s.initEventBus(ctx); err != nil {
		s.store.Close(ctx)
		return fmt.Errorf("init event bus: %w", err)
	}

	success = true
	s.logger.Info("inbox service connected")
	return nil
}

// busCounter generates unique suffixes for event bus names.
var busCounter int64

// initEventBus initializes the event bus for this service.
// Each service creates its own bus with uniquely named events.
func (s *service) initEventBus(ctx context.Context) error {
	serviceName := s.opts.serviceName
	if serviceName == "" {
		serviceName = "inbox"
	}
	// Each bus needs a unique name, so append a counter suffix
	busName := fmt.Sprintf("%s-%d", serviceName, atomic.AddInt64(&busCounter, 1))

	var bus *event.Bus
	var err error

	switch {
	case s.opts.eventTransport != nil:
		s.logger.Info("initializing event bus with custom transport")
		bus, err = event.NewBus(busName, event.WithTransport(s.opts.eventTransport))
	case s.opts.redisClient != nil:
		s.logger.Info("initializing event bus with Redis transport")
		t, transportErr := eventredis.New(s.opts.redisClient)
		if transportErr != nil {
			return fmt.Errorf("create redis transport: %w", transportErr)
		}
		bus, err = event.NewBus(busName, event.WithTransport(t))
	default:
		s.logger.Debug("initializing event bus with noop transport")
		bus, err = event.NewBus(busName, event.WithTransport(noop.New()))
	}

	if err != nil {
		return fmt.Errorf("create event bus: %w", err)
	}
	s.eventBus = bus

	s.events = newServiceEvents(busName)
	if err := registerServiceEvents(ctx, bus, s.events); err != nil {
		bus.Close(ctx)
		return fmt.Errorf("register service events: %w", err)
	}

	return nil
}

// Close waits for in-flight notification dispatches and closes connections.
func (s *service) Close(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&s.state, stateConnected, stateDisconnected) {
		return nil
	}

	var errs []error

	// Wait for in-flight notification dispatches (graceful shutdown).
	// After the state flips, no new dispatches can start. Acquiring all
	// semaphore slots waits for existing dispatches to finish.
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, s.opts.shutdownTimeout)
	defer shutdownCancel()
	if err := s.notifySem.Acquire(shutdownCtx, int64(s.opts.maxConcurrentNotifications)); err != nil {
		s.logger.Warn("timeout waiting for in-flight notifications, proceeding with shutdown",
			"error", err)
		errs = append(errs, fmt.Errorf("graceful shutdown timeout: %w", err))
	} else {
		s.notifySem.Release(int64(s.opts.maxConcurrentNotifications))
	}

	// Close the event bus only when a real transport is in use. The noop
	// bus holds no resources.
	if s.eventBus != nil && (s.opts.eventTransport != nil || s.opts.redisClient != nil) {
		if err := s.eventBus.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close event bus: %w", err))
		}
	}

	if err := s.store.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}

	return errors.Join(errs...)
}

// Submit validates and stores a new inquiry.
func (s *service) Submit(ctx context.Context, req SubmitRequest) (Message, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}

	data, err := newMessageDataAt(req.SenderName, req.SenderEmail, req.Subject, req.Body, s.nowFn())
	if err != nil {
		return nil, err
	}

	ctx, endSpan := s.otel.startSpan(ctx, "inbox.submit")
	start := time.Now()
	var submitErr error
	defer func() {
		endSpan(submitErr)
		s.otel.recordSubmit(ctx, time.Since(start), submitErr)
	}()

	stored, err := s.store.Add(ctx, data)
	if err != nil {
		submitErr = err
		return nil, fmt.Errorf("store message: %w", err)
	}

	s.dispatchNotification(stored)

	msg := newMessage(stored, s)
	if err := s.events.MessageReceived.Publish(ctx, MessageReceivedEvent{
		MessageID:   stored.GetID(),
		SenderEmail: stored.GetSenderEmail(),
		Subject:     stored.GetSubject(),
		SentAt:      stored.GetSentAt(),
	}); err != nil {
		if s.opts.eventErrorsFatal {
			// The message is stored; return it together with the event error.
			submitErr = &EventPublishError{
				Event:     "MessageReceived",
				MessageID: stored.GetID(),
				Err:       err,
			}
			return msg, submitErr
		}
		s.opts.safeEventPublishFailure("MessageReceived", err)
	}

	s.logger.Info("inquiry received",
		"id", stored.GetID(),
		"sender", stored.GetSenderEmail(),
	)
	return msg, nil
}

// dispatchNotification hands the stored message to the notifier in the
// background. Dispatch is capped by the notification semaphore; when the
// cap is reached the notification is skipped rather than blocking intake.
// Failures are logged and never surfaced to the submitter.
func (s *service) dispatchNotification(msg store.Message) {
	if s.notifier == nil {
		return
	}
	if !s.notifySem.TryAcquire(1) {
		s.logger.Warn("notification capacity exhausted, skipping dispatch",
			"id", msg.GetID())
		return
	}
	go func() {
		defer s.notifySem.Release(1)
		// Detached from the request context: the submitter should not
		// wait on, or be able to cancel, the notification.
		ctx, cancel := context.WithTimeout(context.Background(), s.opts.shutdownTimeout)
		defer cancel()
		if err := s.notifier.Notify(ctx, msg); err != nil {
			s.logger.Error("notification dispatch failed",
				"id", msg.GetID(),
				"error", err,
			)
		}
	}()
}
