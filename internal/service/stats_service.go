package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"patio/internal/dates"
	"patio/internal/domain"
	"patio/internal/repository"
	"patio/internal/stats"
	apperrors "patio/pkg/errors"
)

// DefaultTrendWindow is the trailing window for the moving average chart
const DefaultTrendWindow = 7

// MaxTrendWindow caps client-supplied windows
const MaxTrendWindow = 90

// TrendResponse is the chart payload: per-day aggregates plus trend points
type TrendResponse struct {
	Daily  []domain.DailyAggregate `json:"daily"`
	Trend  []domain.TrendPoint     `json:"trend"`
	Window int                     `json:"window"`
}

// StatsService computes cached team sentiment aggregates
type StatsService struct {
	entries      repository.MoodEntryRepository
	memberships  repository.MembershipRepository
	cacheService *CacheService
	logger       *zap.Logger
}

func NewStatsService(repos *repository.Repositories, cacheService *CacheService, logger *zap.Logger) *StatsService {
	return &StatsService{
		entries:      repos.MoodEntry,
		memberships:  repos.Membership,
		cacheService: cacheService,
		logger:       logger,
	}
}

func (s *StatsService) requireMembership(ctx context.Context, teamID int64, userID string) error {
	membership, err := s.cacheService.GetMembershipWithCache(ctx, teamID, userID, s.memberships.Get)
	if err != nil {
		return apperrors.NewInternalError("Failed to load membership", err)
	}
	if membership == nil {
		return apperrors.NewAuthorizationError("You are not a member of this team")
	}
	return nil
}

// loadRows fetches the full (unfiltered by visibility) row set for a range.
// Aggregates count private entries; only comments are visibility-scoped.
func (s *StatsService) loadRows(ctx context.Context, teamID int64, from, to dates.Date) ([]stats.Row, error) {
	entries, err := s.entries.ListForRange(ctx, teamID, from, to)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to load entries", err)
	}
	return stats.RowsFromEntries(entries), nil
}

// TeamTrend returns daily aggregates and the moving-average trend for a range
func (s *StatsService) TeamTrend(ctx context.Context, teamID int64, userID string, from, to dates.Date, window int) (*TrendResponse, error) {
	if err := s.requireMembership(ctx, teamID, userID); err != nil {
		return nil, err
	}
	if window <= 0 {
		window = DefaultTrendWindow
	}
	if window > MaxTrendWindow {
		window = MaxTrendWindow
	}
	if to.Before(from) {
		return nil, apperrors.NewValidationError("Range end precedes range start", nil)
	}

	var result TrendResponse
	cacheKey := ""
	if s.cacheService.enabled() {
		cacheKey = s.cacheService.redis.KeyBuilder.KeyTeamTrend(teamID,
			fmt.Sprintf("%s:%s:%d", from, to, window))
	}

	err := s.cacheService.GetStatsWithCache(ctx, cacheKey, &result, func(ctx context.Context) (interface{}, error) {
		rows, err := s.loadRows(ctx, teamID, from, to)
		if err != nil {
			return nil, err
		}
		return &TrendResponse{
			Daily:  stats.DailyAggregates(rows),
			Trend:  stats.MovingAverage(rows, window),
			Window: window,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// TeamParticipation returns participation statistics for a range
func (s *StatsService) TeamParticipation(ctx context.Context, teamID int64, userID string, from, to dates.Date) (*domain.ParticipationStats, error) {
	if err := s.requireMembership(ctx, teamID, userID); err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, apperrors.NewValidationError("Range end precedes range start", nil)
	}

	var result domain.ParticipationStats
	cacheKey := ""
	if s.cacheService.enabled() {
		cacheKey = s.cacheService.redis.KeyBuilder.KeyParticipation(teamID,
			fmt.Sprintf("%s:%s", from, to))
	}

	err := s.cacheService.GetStatsWithCache(ctx, cacheKey, &result, func(ctx context.Context) (interface{}, error) {
		rows, err := s.loadRows(ctx, teamID, from, to)
		if err != nil {
			return nil, err
		}
		totalMembers, err := s.memberships.CountMembers(ctx, teamID)
		if err != nil {
			return nil, apperrors.NewInternalError("Failed to count members", err)
		}
		result := stats.ParticipationStats(rows, totalMembers)
		return &result, nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}
