package inbox

import (
	"context"
	"sort"
	"time"

	"github.com/JuanKhanjar/inbox/classify"
	"github.com/JuanKhanjar/inbox/store"
)

// DailyDays is the length of the daily time series in a Report: today and
// the 29 preceding calendar days.
const DailyDays = 30

// DomainCount is one entry in the top-domains ranking.
type DomainCount struct {
	// Domain is the lowercased sender email domain.
	Domain string
	// Count is how many messages came from this domain.
	Count int64
	// Percent is Count as a percentage of all messages.
	Percent float64
}

// DailyCount is one day in the daily time series.
type DailyCount struct {
	// Date is midnight UTC of the day.
	Date time.Time
	// Count is how many messages were sent that day.
	Count int64
	// Unread is how many of them are still unread.
	Unread int64
}

// Report is an aggregate snapshot of the inbox.
type Report struct {
	Total  int64
	Unread int64
	Read   int64
	// Urgent is the number of currently urgent messages.
	Urgent int64
	// Today, Week, and Month count messages sent in the last 1, 7, and
	// 30 days.
	Today int64
	Week  int64
	Month int64
	// AvgPerDay is the mean daily volume over the last 30 days.
	AvgPerDay float64
	// ReadPercent is the share of messages read, 0 when the inbox is empty.
	ReadPercent float64
	// TopDomains ranks the five most frequent sender domains.
	TopDomains []DomainCount
	// Daily holds exactly DailyDays entries, oldest day first, today last.
	Daily []DailyCount
}

// Stats recomputes a full report from the current record set. Nothing is
// cached: every call reflects the store at the time of the call. The
// sub-reads are not transactional, so concurrent writes may cause minor
// skew between sections of one report.
func (s *service) Stats(ctx context.Context) (*Report, error) {
	if err := s.checkConnected(); err != nil {
		return nil, err
	}

	ctx, endSpan := s.otel.startSpan(ctx, "inbox.stats")
	start := time.Now()
	var statsErr error
	defer func() {
		endSpan(statsErr)
		s.otel.recordStats(ctx, time.Since(start), statsErr)
	}()

	report, err := s.buildReport(ctx)
	if err != nil {
		statsErr = err
		return nil, err
	}
	return report, nil
}

func (s *service) buildReport(ctx context.Context) (*Report, error) {
	total, err := s.store.Count(ctx)
	if err != nil {
		return nil, err
	}
	unread, err := s.store.CountUnread(ctx)
	if err != nil {
		return nil, err
	}

	urgent, err := s.store.GetUrgent(ctx, s.opts.urgentThresholdHours)
	if err != nil {
		return nil, err
	}
	today, err := s.store.GetRecent(ctx, 1)
	if err != nil {
		return nil, err
	}
	week, err := s.store.GetRecent(ctx, 7)
	if err != nil {
		return nil, err
	}
	month, err := s.store.GetRecent(ctx, 30)
	if err != nil {
		return nil, err
	}

	all, err := s.store.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Total:     total,
		Unread:    unread,
		Read:      total - unread,
		Urgent:    int64(len(urgent)),
		Today:     int64(len(today)),
		Week:      int64(len(week)),
		Month:     int64(len(month)),
		AvgPerDay: float64(len(month)) / float64(DailyDays),
	}
	if total > 0 {
		report.ReadPercent = float64(report.Read) / float64(total) * 100
	}
	report.TopDomains = topDomains(all, total)
	report.Daily = dailySeries(all, s.nowFn())
	return report, nil
}

// topDomains groups messages by sender domain and returns the five most
// frequent, ordered by count descending with ties broken by domain name
// for deterministic output.
func topDomains(msgs []store.Message, total int64) []DomainCount {
	counts := make(map[string]int64)
	for _, m := range msgs {
		if d := classify.Domain(m.GetSenderEmail()); d != "" {
			counts[d]++
		}
	}

	domains := make([]DomainCount, 0, len(counts))
	for d, c := range counts {
		dc := DomainCount{Domain: d, Count: c}
		if total > 0 {
			dc.Percent = float64(c) / float64(total) * 100
		}
		domains = append(domains, dc)
	}
	sort.Slice(domains, func(i, j int) bool {
		if domains[i].Count != domains[j].Count {
			return domains[i].Count > domains[j].Count
		}
		return domains[i].Domain < domains[j].Domain
	})

	const top = 5
	if len(domains) > top {
		domains = domains[:top]
	}
	return domains
}

// dailySeries buckets messages by calendar day (UTC) and returns exactly
// DailyDays entries covering today and the 29 preceding days. Days with
// no messages still appear with zero counts.
func dailySeries(msgs []store.Message, now time.Time) []DailyCount {
	now = now.UTC()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	first := todayStart.AddDate(0, 0, -(DailyDays - 1))

	series := make([]DailyCount, DailyDays)
	index := make(map[time.Time]int, DailyDays)
	for i := range series {
		day := first.AddDate(0, 0, i)
		series[i].Date = day
		index[day] = i
	}

	for _, m := range msgs {
		sent := m.GetSentAt().UTC()
		day := time.Date(sent.Year(), sent.Month(), sent.Day(), 0, 0, 0, 0, time.UTC)
		i, ok := index[day]
		if !ok {
			continue
		}
		series[i].Count++
		if !m.GetIsRead() {
			series[i].Unread++
		}
	}
	return series
}
