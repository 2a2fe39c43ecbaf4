package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/JuanKhanjar/inbox/store"
)

// Count returns the total number of stored messages.
func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.countDocs(ctx, "count", bson.M{})
}

// CountUnread returns the number of unread messages.
func (s *Store) CountUnread(ctx context.Context) (int64, error) {
	return s.countDocs(ctx, "count_unread", bson.M{"is_read": false})
}

func (s *Store) countDocs(ctx context.Context, op string, filter bson.M) (int64, error) {
	if err := s.checkConnected(); err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	n, err := s.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, store.WrapErr(op, err)
	}
	return n, nil
}

// CountInRange returns total/read/unread counts for start <= sentAt <= end
// using a single aggregation pipeline.
func (s *Store) CountInRange(ctx context.Context, start, end time.Time) (store.RangeCounts, error) {
	var counts store.RangeCounts
	if err := s.checkConnected(); err != nil {
		return counts, err
	}
	if err := store.CheckRange(start, end); err != nil {
		return counts, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	pipeline := []bson.M{
		{"$match": bson.M{"sent_at": bson.M{"$gte": start, "$lte": end}}},
		{"$group": bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": 1},
			"read":  bson.M{"$sum": bson.M{"$cond": []any{"$is_read", 1, 0}}},
		}},
	}

	cursor, err := s.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return counts, store.WrapErr("count_in_range", err)
	}
	defer cursor.Close(ctx)

	var results []struct {
		Total int64 `bson:"total"`
		Read  int64 `bson:"read"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return counts, store.WrapErr("count_in_range", err)
	}
	if len(results) == 0 {
		return counts, nil
	}
	counts.Total = results[0].Total
	counts.Read = results[0].Read
	counts.Unread = counts.Total - counts.Read
	return counts, nil
}
