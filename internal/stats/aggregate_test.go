package stats

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"patio/internal/dates"
)

func day(t *testing.T, s string) dates.Date {
	t.Helper()
	d, err := dates.Parse(s)
	require.NoError(t, err)
	return d
}

func TestDailyAggregates(t *testing.T) {
	t.Run("empty input yields empty output", func(t *testing.T) {
		assert.Empty(t, DailyAggregates(nil))
	})

	t.Run("two users on one day", func(t *testing.T) {
		rows := []Row{
			{UserID: "u1", Day: day(t, "2024-01-01"), Rating: 5},
			{UserID: "u2", Day: day(t, "2024-01-01"), Rating: 3},
		}

		aggs := DailyAggregates(rows)
		require.Len(t, aggs, 1)
		assert.Equal(t, "2024-01-01", aggs[0].Day.String())
		assert.Equal(t, 2, aggs[0].DistinctParticipants)
		assert.Equal(t, 4.0, aggs[0].AverageRating)
	})

	t.Run("same user twice counts one participant", func(t *testing.T) {
		rows := []Row{
			{UserID: "u1", Day: day(t, "2024-01-01"), Rating: 2},
			{UserID: "u1", Day: day(t, "2024-01-01"), Rating: 4},
		}

		aggs := DailyAggregates(rows)
		require.Len(t, aggs, 1)
		assert.Equal(t, 1, aggs[0].DistinctParticipants)
		assert.Equal(t, 3.0, aggs[0].AverageRating)
	})

	t.Run("days come out sorted ascending", func(t *testing.T) {
		rows := []Row{
			{UserID: "u1", Day: day(t, "2024-01-05"), Rating: 4},
			{UserID: "u1", Day: day(t, "2024-01-01"), Rating: 2},
			{UserID: "u1", Day: day(t, "2024-01-03"), Rating: 3},
		}

		aggs := DailyAggregates(rows)
		require.Len(t, aggs, 3)
		assert.Equal(t, "2024-01-01", aggs[0].Day.String())
		assert.Equal(t, "2024-01-03", aggs[1].Day.String())
		assert.Equal(t, "2024-01-05", aggs[2].Day.String())
	})

	t.Run("averages round to one decimal", func(t *testing.T) {
		rows := []Row{
			{UserID: "u1", Day: day(t, "2024-01-01"), Rating: 5},
			{UserID: "u2", Day: day(t, "2024-01-01"), Rating: 4},
			{UserID: "u3", Day: day(t, "2024-01-01"), Rating: 4},
		}

		aggs := DailyAggregates(rows)
		require.Len(t, aggs, 1)
		assert.Equal(t, 4.3, aggs[0].AverageRating) // 13/3 = 4.333...
	})

	t.Run("independent of input order", func(t *testing.T) {
		rows := []Row{
			{UserID: "u1", Day: day(t, "2024-01-01"), Rating: 5},
			{UserID: "u2", Day: day(t, "2024-01-01"), Rating: 3},
			{UserID: "u1", Day: day(t, "2024-01-02"), Rating: 1},
			{UserID: "u3", Day: day(t, "2024-01-02"), Rating: 4},
			{UserID: "u2", Day: day(t, "2024-01-03"), Rating: 2},
		}
		want := DailyAggregates(rows)

		rng := rand.New(rand.NewSource(42))
		for i := 0; i < 10; i++ {
			shuffled := make([]Row, len(rows))
			copy(shuffled, rows)
			rng.Shuffle(len(shuffled), func(a, b int) {
				shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
			})
			assert.Equal(t, want, DailyAggregates(shuffled))
		}
	})
}

func TestMovingAverage(t *testing.T) {
	t.Run("window of one equals daily average", func(t *testing.T) {
		rows := []Row{
			{UserID: "u1", Day: day(t, "2024-01-01"), Rating: 2},
			{UserID: "u1", Day: day(t, "2024-01-02"), Rating: 4},
		}

		points := MovingAverage(rows, 1)
		require.Len(t, points, 2)
		assert.Equal(t, points[0].Average, points[0].MovingAverage)
		assert.Equal(t, points[1].Average, points[1].MovingAverage)
	})

	t.Run("trailing window accumulates prior days", func(t *testing.T) {
		rows := []Row{
			{UserID: "u1", Day: day(t, "2024-01-01"), Rating: 2},
			{UserID: "u1", Day: day(t, "2024-01-02"), Rating: 3},
			{UserID: "u1", Day: day(t, "2024-01-03"), Rating: 4},
		}

		points := MovingAverage(rows, 7)
		require.Len(t, points, 3)
		assert.Equal(t, 2.0, points[0].MovingAverage)
		assert.Equal(t, 2.5, points[1].MovingAverage)
		assert.Equal(t, 3.0, points[2].MovingAverage)
	})

	t.Run("days outside the window drop off", func(t *testing.T) {
		rows := []Row{
			{UserID: "u1", Day: day(t, "2024-01-01"), Rating: 1},
			{UserID: "u1", Day: day(t, "2024-01-02"), Rating: 3},
			{UserID: "u1", Day: day(t, "2024-01-03"), Rating: 5},
		}

		points := MovingAverage(rows, 2)
		require.Len(t, points, 3)
		assert.Equal(t, 1.0, points[0].MovingAverage)
		assert.Equal(t, 2.0, points[1].MovingAverage) // (1+3)/2
		assert.Equal(t, 4.0, points[2].MovingAverage) // (3+5)/2, day 1 dropped
	})

	t.Run("gap days are skipped not zero filled", func(t *testing.T) {
		// Ten consecutive days, day 5 missing. Windows covering day 5 must
		// average only the present days.
		var rows []Row
		start := day(t, "2024-01-01")
		for i := 0; i < 10; i++ {
			if i == 4 { // 2024-01-05 has no entries
				continue
			}
			rows = append(rows, Row{UserID: "u1", Day: start.AddDays(i), Rating: 4})
		}

		points := MovingAverage(rows, 7)
		require.Len(t, points, 9)
		for _, p := range points {
			assert.Equal(t, 4.0, p.MovingAverage, "day %s", p.Day)
		}
	})

	t.Run("gap day with differing ratings", func(t *testing.T) {
		rows := []Row{
			{UserID: "u1", Day: day(t, "2024-01-01"), Rating: 5},
			// 2024-01-02 missing
			{UserID: "u1", Day: day(t, "2024-01-03"), Rating: 1},
		}

		points := MovingAverage(rows, 3)
		require.Len(t, points, 2)
		// (5+1)/2 over the two present days, not (5+0+1)/3
		assert.Equal(t, 3.0, points[1].MovingAverage)
	})

	t.Run("calendar window not entry-count window", func(t *testing.T) {
		rows := []Row{
			{UserID: "u1", Day: day(t, "2024-01-01"), Rating: 5},
			{UserID: "u1", Day: day(t, "2024-01-10"), Rating: 1},
		}

		points := MovingAverage(rows, 3)
		require.Len(t, points, 2)
		// Jan 1 is far outside the 3-day window ending Jan 10
		assert.Equal(t, 1.0, points[1].MovingAverage)
	})
}

func TestParticipationStats(t *testing.T) {
	t.Run("zero entries", func(t *testing.T) {
		got := ParticipationStats(nil, 5)
		assert.Equal(t, 0.0, got.AverageRating)
		assert.Equal(t, 0.0, got.AverageParticipation)
		assert.Equal(t, 0, got.TotalDays)
		assert.Equal(t, 5, got.TotalMembers)
		assert.Empty(t, got.DailyParticipationCounts)
	})

	t.Run("rating mean is entry-weighted not day-weighted", func(t *testing.T) {
		rows := []Row{
			{UserID: "u1", Day: day(t, "2024-01-01"), Rating: 5},
			{UserID: "u2", Day: day(t, "2024-01-01"), Rating: 5},
			{UserID: "u3", Day: day(t, "2024-01-01"), Rating: 5},
			{UserID: "u1", Day: day(t, "2024-01-02"), Rating: 1},
		}

		got := ParticipationStats(rows, 3)
		// (5+5+5+1)/4 = 4, not mean(5, 1) = 3
		assert.Equal(t, 4.0, got.AverageRating)
	})

	t.Run("participation averages over days with data", func(t *testing.T) {
		rows := []Row{
			{UserID: "u1", Day: day(t, "2024-01-01"), Rating: 3},
			{UserID: "u2", Day: day(t, "2024-01-01"), Rating: 4},
			{UserID: "u3", Day: day(t, "2024-01-01"), Rating: 2},
			{UserID: "u1", Day: day(t, "2024-01-03"), Rating: 3},
			// 2024-01-02 has no entries and must not drag the mean down
		}

		got := ParticipationStats(rows, 4)
		assert.Equal(t, 2, got.TotalDays)
		assert.Equal(t, 2.0, got.AverageParticipation) // (3+1)/2
		assert.Equal(t, 0.5, got.ParticipationRate)
		assert.Equal(t, map[string]int{
			"2024-01-01": 3,
			"2024-01-03": 1,
		}, got.DailyParticipationCounts)
	})

	t.Run("two decimal rounding", func(t *testing.T) {
		rows := []Row{
			{UserID: "u1", Day: day(t, "2024-01-01"), Rating: 5},
			{UserID: "u2", Day: day(t, "2024-01-01"), Rating: 4},
			{UserID: "u3", Day: day(t, "2024-01-01"), Rating: 4},
		}

		got := ParticipationStats(rows, 3)
		assert.Equal(t, 4.33, got.AverageRating) // 13/3, two decimals here
	})
}
