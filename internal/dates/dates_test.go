package dates

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Date
		wantErr bool
	}{
		{
			name:  "valid date",
			input: "2024-01-03",
			want:  Date{Year: 2024, Month: time.January, Day: 3},
		},
		{
			name:  "leap day",
			input: "2024-02-29",
			want:  Date{Year: 2024, Month: time.February, Day: 29},
		},
		{
			name:    "non-leap February 29",
			input:   "2023-02-29",
			wantErr: true,
		},
		{
			name:    "missing zero padding",
			input:   "2024-1-3",
			wantErr: true,
		},
		{
			name:    "slash separators",
			input:   "2024/01/03",
			wantErr: true,
		},
		{
			name:    "datetime string",
			input:   "2024-01-03T00:00:00Z",
			wantErr: true,
		},
		{
			name:    "empty string",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidDateFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToday(t *testing.T) {
	t.Run("default timezone is UTC", func(t *testing.T) {
		got, err := Today("")
		require.NoError(t, err)
		assert.Equal(t, FromTime(time.Now(), time.UTC), got)
	})

	t.Run("valid IANA timezone", func(t *testing.T) {
		_, err := Today("America/New_York")
		require.NoError(t, err)
	})

	t.Run("timezones straddling a day boundary differ", func(t *testing.T) {
		// Kiritimati (UTC+14) and Niue (UTC-11) are 25 hours apart, so at
		// any instant they observe different calendar dates.
		east, err := time.LoadLocation("Pacific/Kiritimati")
		require.NoError(t, err)
		west, err := time.LoadLocation("Pacific/Niue")
		require.NoError(t, err)

		now := time.Now()
		assert.NotEqual(t, FromTime(now, east), FromTime(now, west))
	})

	t.Run("unknown timezone", func(t *testing.T) {
		_, err := Today("Mars/Olympus_Mons")
		assert.Error(t, err)
	})
}

func TestFromTimeIn(t *testing.T) {
	// 02:00 UTC on March 5th is still March 4th in New York.
	instant := time.Date(2024, time.March, 5, 2, 0, 0, 0, time.UTC)

	assert.Equal(t, Date{Year: 2024, Month: time.March, Day: 4},
		FromTimeIn(instant, "America/New_York"))
	assert.Equal(t, Date{Year: 2024, Month: time.March, Day: 5},
		FromTimeIn(instant, "UTC"))
	assert.Equal(t, Date{Year: 2024, Month: time.March, Day: 5},
		FromTimeIn(instant, ""), "empty zone falls back to UTC")
	assert.Equal(t, Date{Year: 2024, Month: time.March, Day: 5},
		FromTimeIn(instant, "Mars/Olympus_Mons"), "unknown zone falls back to UTC")
}

func TestWeekday(t *testing.T) {
	tests := []struct {
		date string
		want string
	}{
		{"2024-01-01", "monday"},
		{"2024-01-02", "tuesday"},
		{"2024-01-03", "wednesday"},
		{"2024-01-04", "thursday"},
		{"2024-01-05", "friday"},
		{"2024-01-06", "saturday"},
		{"2024-01-07", "sunday"},
	}

	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			d, err := Parse(tt.date)
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Weekday())
		})
	}
}

func TestAddDays(t *testing.T) {
	d, err := Parse("2024-03-01")
	require.NoError(t, err)

	assert.Equal(t, "2024-02-29", d.AddDays(-1).String(), "leap year backward step")
	assert.Equal(t, "2024-03-08", d.AddDays(7).String())
	assert.Equal(t, d, d.AddDays(0))
}

func TestComparisons(t *testing.T) {
	early, _ := Parse("2024-01-01")
	late, _ := Parse("2024-01-02")

	assert.True(t, early.Before(late))
	assert.True(t, late.After(early))
	assert.False(t, early.Equal(late))
	assert.True(t, early.Equal(early))
	assert.Equal(t, -1, early.Compare(late))
	assert.Equal(t, 1, late.Compare(early))
	assert.Equal(t, 0, early.Compare(early))
	assert.Equal(t, 1, early.DaysBetween(late))
	assert.Equal(t, -1, late.DaysBetween(early))
}

func TestJSONRoundTrip(t *testing.T) {
	d, err := Parse("2024-06-15")
	require.NoError(t, err)

	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2024-06-15"`, string(b))

	var back Date
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, d, back)

	var bad Date
	assert.Error(t, json.Unmarshal([]byte(`"15/06/2024"`), &bad))
	assert.Error(t, json.Unmarshal([]byte(`20240615`), &bad))
}
