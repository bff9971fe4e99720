// Package stats computes participation and trend aggregates over
// already-fetched mood entry rows. All functions are pure and deterministic
// regardless of input row order.
package stats

import (
	"math"
	"sort"

	"patio/internal/dates"
	"patio/internal/domain"
)

// Row is the minimal entry shape the aggregator consumes
type Row struct {
	UserID string
	Day    dates.Date
	Rating int
}

// RowsFromEntries adapts stored mood entries to aggregator rows
func RowsFromEntries(entries []*domain.MoodEntry) []Row {
	rows := make([]Row, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, Row{UserID: e.UserID, Day: e.EntryDate, Rating: e.Rating})
	}
	return rows
}

// dayBucket accumulates one day's entries before rounding
type dayBucket struct {
	day          dates.Date
	participants map[string]struct{}
	ratingSum    int
	ratingCount  int
}

func (b *dayBucket) mean() float64 {
	return float64(b.ratingSum) / float64(b.ratingCount)
}

// round1 rounds to one decimal place, half away from zero
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// round2 rounds to two decimal places, half away from zero
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func bucketByDay(rows []Row) []*dayBucket {
	byDay := make(map[dates.Date]*dayBucket)
	for _, row := range rows {
		b, ok := byDay[row.Day]
		if !ok {
			b = &dayBucket{day: row.Day, participants: make(map[string]struct{})}
			byDay[row.Day] = b
		}
		b.participants[row.UserID] = struct{}{}
		b.ratingSum += row.Rating
		b.ratingCount++
	}

	buckets := make([]*dayBucket, 0, len(byDay))
	for _, b := range byDay {
		buckets = append(buckets, b)
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].day.Before(buckets[j].day)
	})
	return buckets
}

// DailyAggregates groups rows by entry date and computes, per day, the count
// of distinct participants and the mean rating (one decimal). The result is
// ordered by day ascending and holds only days that have data.
func DailyAggregates(rows []Row) []domain.DailyAggregate {
	buckets := bucketByDay(rows)
	aggs := make([]domain.DailyAggregate, 0, len(buckets))
	for _, b := range buckets {
		aggs = append(aggs, domain.DailyAggregate{
			Day:                  b.day,
			DistinctParticipants: len(b.participants),
			AverageRating:        round1(b.mean()),
		})
	}
	return aggs
}

// MovingAverage produces one trend point per day with data. The moving average
// at day d is the mean of daily means over the trailing calendar window of
// windowSize days ending at d, restricted to days that actually have data.
// Gap days are skipped, never counted as zero. Both values are rounded to one
// decimal; the moving average is computed from unrounded daily means.
func MovingAverage(rows []Row, windowSize int) []domain.TrendPoint {
	if windowSize < 1 {
		windowSize = 1
	}

	buckets := bucketByDay(rows)
	points := make([]domain.TrendPoint, 0, len(buckets))
	for i, b := range buckets {
		windowStart := b.day.AddDays(-(windowSize - 1))
		sum := 0.0
		n := 0
		for j := i; j >= 0; j-- {
			if buckets[j].day.Before(windowStart) {
				break
			}
			sum += buckets[j].mean()
			n++
		}
		points = append(points, domain.TrendPoint{
			Day:           b.day,
			Average:       round1(b.mean()),
			MovingAverage: round1(sum / float64(n)),
		})
	}
	return points
}

// ParticipationStats summarises a range of rows. The overall rating mean runs
// across all entries unweighted by day (two decimals, 0 when empty), while
// average participation is the mean per-day distinct-participant count over
// days that had at least one entry. Both round to two decimals, unlike the
// chart's one-decimal trend values.
func ParticipationStats(rows []Row, totalMembers int) domain.ParticipationStats {
	buckets := bucketByDay(rows)

	result := domain.ParticipationStats{
		TotalDays:                len(buckets),
		TotalMembers:             totalMembers,
		DailyParticipationCounts: make(map[string]int, len(buckets)),
	}

	ratingSum := 0
	participantSum := 0
	for _, b := range buckets {
		ratingSum += b.ratingSum
		participantSum += len(b.participants)
		result.DailyParticipationCounts[b.day.String()] = len(b.participants)
	}

	if len(rows) > 0 {
		result.AverageRating = round2(float64(ratingSum) / float64(len(rows)))
	}
	if len(buckets) > 0 {
		result.AverageParticipation = round2(float64(participantSum) / float64(len(buckets)))
		if totalMembers > 0 {
			result.ParticipationRate = round2(result.AverageParticipation / float64(totalMembers))
		}
	}
	return result
}
