package mongo

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	mongoopts "go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/JuanKhanjar/inbox/store"
)

// Sort orders on sent_at with _id as the tie-breaker so listings are stable.
var (
	sortAsc  = bson.D{bson.E{Key: "sent_at", Value: 1}, bson.E{Key: "_id", Value: 1}}
	sortDesc = bson.D{bson.E{Key: "sent_at", Value: -1}, bson.E{Key: "_id", Value: -1}}
)

func (s *Store) find(ctx context.Context, op string, filter bson.M, sort bson.D, opts ...mongoopts.Lister[mongoopts.FindOptions]) ([]store.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	opts = append(opts, mongoopts.Find().SetSort(sort))
	cursor, err := s.collection.Find(ctx, filter, opts...)
	if err != nil {
		return nil, store.WrapErr(op, err)
	}
	defer cursor.Close(ctx)

	var docs []messageDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, store.WrapErr(op, err)
	}

	msgs := make([]store.Message, len(docs))
	for i := range docs {
		msgs[i] = docs[i].record()
	}
	return msgs, nil
}

// GetByID retrieves a message by ID. Returns (nil, nil) when absent.
func (s *Store) GetByID(ctx context.Context, id int64) (store.Message, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	var doc messageDoc
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, store.WrapErr("get_by_id", err)
	}
	return doc.record(), nil
}

// GetAll returns every message ordered by sent time ascending.
func (s *Store) GetAll(ctx context.Context) ([]store.Message, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}
	return s.find(ctx, "get_all", bson.M{}, sortAsc)
}

// GetUnread returns unread messages, newest first.
func (s *Store) GetUnread(ctx context.Context) ([]store.Message, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}
	return s.find(ctx, "get_unread", bson.M{"is_read": false}, sortDesc)
}

// GetRead returns read messages, newest first.
func (s *Store) GetRead(ctx context.Context) ([]store.Message, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}
	return s.find(ctx, "get_read", bson.M{"is_read": true}, sortDesc)
}

// GetBySender returns messages from the given sender, newest first.
func (s *Store) GetBySender(ctx context.Context, email string) ([]store.Message, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}
	return s.find(ctx, "get_by_sender", bson.M{"sender_email": normalizeEmail(email)}, sortDesc)
}

// GetByDateRange returns messages with start <= sentAt <= end, oldest first.
func (s *Store) GetByDateRange(ctx context.Context, start, end time.Time) ([]store.Message, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}
	if err := store.CheckRange(start, end); err != nil {
		return nil, err
	}
	filter := bson.M{"sent_at": bson.M{"$gte": start, "$lte": end}}
	return s.find(ctx, "get_by_date_range", filter, sortAsc)
}

// GetRecent returns messages sent within the last `days` days, newest first.
func (s *Store) GetRecent(ctx context.Context, days int) ([]store.Message, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}
	cutoff := s.opts.nowFn().AddDate(0, 0, -days)
	return s.find(ctx, "get_recent", bson.M{"sent_at": bson.M{"$gte": cutoff}}, sortDesc)
}

// Search matches term case-insensitively against sender name, sender
// email, subject, and body, newest first. A blank term behaves as GetAll.
func (s *Store) Search(ctx context.Context, term string) ([]store.Message, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}

	term = strings.TrimSpace(term)
	if term == "" {
		return s.GetAll(ctx)
	}

	pattern := bson.M{"$regex": escapeRegex(term), "$options": "i"}
	filter := bson.M{"$or": []bson.M{
		{"sender_name": pattern},
		{"sender_email": pattern},
		{"subject": pattern},
		{"body": pattern},
	}}
	return s.find(ctx, "search", filter, sortDesc)
}

// GetUrgent returns unread messages at least thresholdHours old, oldest first.
func (s *Store) GetUrgent(ctx context.Context, thresholdHours int) ([]store.Message, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}
	cutoff := s.opts.nowFn().Add(-time.Duration(thresholdHours) * time.Hour)
	filter := bson.M{
		"is_read": false,
		"sent_at": bson.M{"$lte": cutoff},
	}
	return s.find(ctx, "get_urgent", filter, sortAsc)
}

// GetPaged returns one 1-based page of messages, newest first.
func (s *Store) GetPaged(ctx context.Context, page, size int) ([]store.Message, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}
	if err := store.CheckPage(page, size); err != nil {
		return nil, err
	}
	opts := mongoopts.Find().
		SetSkip(int64((page - 1) * size)).
		SetLimit(int64(size))
	return s.find(ctx, "get_paged", bson.M{}, sortDesc, opts)
}
