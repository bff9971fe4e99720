package domain

import "patio/internal/dates"

// DailyAggregate summarises one polling day: how many distinct members
// participated and their mean rating.
type DailyAggregate struct {
	Day                  dates.Date `json:"day"`
	DistinctParticipants int        `json:"distinct_participants"`
	AverageRating        float64    `json:"average_rating"`
}

// TrendPoint is one point on the team sentiment chart
type TrendPoint struct {
	Day           dates.Date `json:"day"`
	Average       float64    `json:"average"`
	MovingAverage float64    `json:"moving_average"`
}

// ParticipationStats summarises engagement over a queried range. Days with no
// entries are excluded from the participation mean, never zero-filled.
type ParticipationStats struct {
	AverageRating            float64        `json:"average_rating"`
	AverageParticipation     float64        `json:"average_participation"`
	ParticipationRate        float64        `json:"participation_rate"`
	TotalDays                int            `json:"total_days"`
	TotalMembers             int            `json:"total_members"`
	DailyParticipationCounts map[string]int `json:"daily_participation_counts"`
}
