// Package mongo provides a MongoDB implementation of store.Store.
//
// Messages carry sequential int64 identifiers. IDs are allocated from a
// counters collection with an atomic findOneAndUpdate $inc upsert, so no
// distributed lock is needed for assignment.
package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	mongoopts "go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/JuanKhanjar/inbox/store"
)

// Compile-time check
var _ store.Store = (*Store)(nil)

// regexMetaChars matches regex metacharacters that need escaping.
var regexMetaChars = regexp.MustCompile(`[\\^$.|?*+()[\]{}]`)

// escapeRegex escapes regex metacharacters in a string to prevent regex injection.
func escapeRegex(s string) string {
	return regexMetaChars.ReplaceAllString(s, `\$0`)
}

// Store implements store.Store using MongoDB.
type Store struct {
	client     *mongo.Client
	db         *mongo.Database
	collection *mongo.Collection
	counters   *mongo.Collection
	opts       *options
	connected  int32
	logger     *slog.Logger
}

// New creates a new MongoDB store with the provided client.
// Call Connect() to initialize the collection and indexes.
func New(client *mongo.Client, opts ...Option) *Store {
	o := newOptions(opts...)
	return &Store{
		client: client,
		opts:   o,
		logger: o.logger,
	}
}

// Connect initializes the database, collection, and indexes.
func (s *Store) Connect(ctx context.Context) error {
	if atomic.LoadInt32(&s.connected) == 1 {
		return store.ErrAlreadyConnected
	}

	if s.client == nil {
		return fmt.Errorf("mongo: client is required")
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	if err := s.client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("mongo ping: %w", err)
	}

	s.db = s.client.Database(s.opts.database)
	s.collection = s.db.Collection(s.opts.collection)
	s.counters = s.db.Collection(s.opts.collection + "_counters")

	if err := s.ensureIndexes(ctx); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}

	atomic.StoreInt32(&s.connected, 1)
	s.logger.Info("connected to MongoDB", "database", s.opts.database, "collection", s.opts.collection)
	return nil
}

// Close marks the store as disconnected.
// The caller is responsible for closing the MongoDB client.
func (s *Store) Close(ctx context.Context) error {
	atomic.StoreInt32(&s.connected, 0)
	return nil
}

// ensureIndexes creates required indexes.
func (s *Store) ensureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{bson.E{Key: "sent_at", Value: -1}}},
		{Keys: bson.D{bson.E{Key: "sender_email", Value: 1}}},
		{Keys: bson.D{
			bson.E{Key: "is_read", Value: 1},
			bson.E{Key: "sent_at", Value: 1},
		}},
	}

	_, err := s.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

// checkConnected returns error if not connected.
func (s *Store) checkConnected() error {
	if atomic.LoadInt32(&s.connected) == 0 {
		return store.ErrNotConnected
	}
	return nil
}

// nextID atomically allocates the next message identifier.
func (s *Store) nextID(ctx context.Context) (int64, error) {
	filter := bson.M{"_id": s.opts.collection}
	update := bson.M{"$inc": bson.M{"seq": int64(1)}}
	opts := mongoopts.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(mongoopts.After)

	var counter struct {
		Seq int64 `bson:"seq"`
	}
	if err := s.counters.FindOneAndUpdate(ctx, filter, update, opts).Decode(&counter); err != nil {
		return 0, fmt.Errorf("allocate id: %w", err)
	}
	return counter.Seq, nil
}

// messageDoc is the BSON document shape for a message.
type messageDoc struct {
	ID          int64      `bson:"_id"`
	SenderName  string     `bson:"sender_name"`
	SenderEmail string     `bson:"sender_email"`
	Subject     string     `bson:"subject"`
	Body        string     `bson:"body"`
	SentAt      time.Time  `bson:"sent_at"`
	IsRead      bool       `bson:"is_read"`
	ReadAt      *time.Time `bson:"read_at,omitempty"`
}

func (d *messageDoc) record() *store.Record {
	r := &store.Record{
		ID:          d.ID,
		SenderName:  d.SenderName,
		SenderEmail: d.SenderEmail,
		Subject:     d.Subject,
		Body:        d.Body,
		SentAt:      d.SentAt.UTC(),
		IsRead:      d.IsRead,
	}
	if d.ReadAt != nil {
		t := d.ReadAt.UTC()
		r.ReadAt = &t
	}
	return r
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
