package store

// RangeCounts holds total/read/unread counts for a date range.
// Read + Unread always equals Total.
type RangeCounts struct {
	Total  int64
	Read   int64
	Unread int64
}
