package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/JuanKhanjar/inbox/store"
)

// Add persists a new message under a freshly allocated ID.
func (s *Store) Add(ctx context.Context, data store.MessageData) (store.Message, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	id, err := s.nextID(ctx)
	if err != nil {
		return nil, store.WrapErr("add", err)
	}

	doc := messageDoc{
		ID:          id,
		SenderName:  data.SenderName,
		SenderEmail: data.SenderEmail,
		Subject:     data.Subject,
		Body:        data.Body,
		SentAt:      data.SentAt,
		IsRead:      data.IsRead,
		ReadAt:      data.ReadAt,
	}
	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		return nil, store.WrapErr("add", err)
	}
	return doc.record(), nil
}

// Update persists the read flag and read-at of an existing message.
// Returns (nil, nil) when the message does not exist.
func (s *Store) Update(ctx context.Context, msg store.Message) (store.Message, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"is_read": msg.GetIsRead(),
		"read_at": msg.GetReadAt(),
	}}
	result, err := s.collection.UpdateOne(ctx, bson.M{"_id": msg.GetID()}, update)
	if err != nil {
		return nil, store.WrapErr("update", err)
	}
	if result.MatchedCount == 0 {
		return nil, nil
	}

	var doc messageDoc
	if err := s.collection.FindOne(ctx, bson.M{"_id": msg.GetID()}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, store.WrapErr("update", err)
	}
	return doc.record(), nil
}

// MarkRead sets the read flag, keeping an existing read-at timestamp.
// Idempotent; returns false when the message does not exist.
func (s *Store) MarkRead(ctx context.Context, id int64, readAt time.Time) (bool, error) {
	if err := s.checkConnected(); err != nil {
		return false, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	// Only flip unread documents so an existing read_at survives. A match
	// on the id alone still reports the message as found.
	filter := bson.M{"_id": id, "is_read": false}
	update := bson.M{"$set": bson.M{"is_read": true, "read_at": readAt}}
	result, err := s.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, store.WrapErr("mark_read", err)
	}
	if result.MatchedCount > 0 {
		return true, nil
	}

	n, err := s.collection.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return false, store.WrapErr("mark_read", err)
	}
	return n > 0, nil
}

// MarkUnread clears the read flag and read-at.
// Returns false when the message does not exist.
func (s *Store) MarkUnread(ctx context.Context, id int64) (bool, error) {
	if err := s.checkConnected(); err != nil {
		return false, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	update := bson.M{
		"$set":   bson.M{"is_read": false},
		"$unset": bson.M{"read_at": ""},
	}
	result, err := s.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return false, store.WrapErr("mark_unread", err)
	}
	return result.MatchedCount > 0, nil
}

// MarkManyRead marks the given ids read in one atomic updateMany and
// returns the number actually changed. Already-read and missing ids are
// not counted.
func (s *Store) MarkManyRead(ctx context.Context, ids []int64, readAt time.Time) (int64, error) {
	if err := s.checkConnected(); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	filter := bson.M{"_id": bson.M{"$in": ids}, "is_read": false}
	update := bson.M{"$set": bson.M{"is_read": true, "read_at": readAt}}
	result, err := s.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, store.WrapErr("mark_many_read", err)
	}
	return result.ModifiedCount, nil
}

// Delete removes a message. Returns false when it does not exist.
func (s *Store) Delete(ctx context.Context, id int64) (bool, error) {
	if err := s.checkConnected(); err != nil {
		return false, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	result, err := s.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, store.WrapErr("delete", err)
	}
	return result.DeletedCount > 0, nil
}

// DeleteMany removes the given ids in one atomic deleteMany and returns
// the number actually deleted.
func (s *Store) DeleteMany(ctx context.Context, ids []int64) (int64, error) {
	if err := s.checkConnected(); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	result, err := s.collection.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, store.WrapErr("delete_many", err)
	}
	return result.DeletedCount, nil
}

// DeleteOlderThan removes messages sent before now - days and returns the
// number deleted.
func (s *Store) DeleteOlderThan(ctx context.Context, days int) (int64, error) {
	if err := s.checkConnected(); err != nil {
		return 0, err
	}
	if err := store.CheckRetentionDays(days); err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	cutoff := s.opts.nowFn().AddDate(0, 0, -days)
	result, err := s.collection.DeleteMany(ctx, bson.M{"sent_at": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, store.WrapErr("delete_older_than", err)
	}
	if result.DeletedCount > 0 {
		s.logger.Info("retention sweep removed messages", "deleted", result.DeletedCount, "days", days)
	}
	return result.DeletedCount, nil
}
