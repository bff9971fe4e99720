package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"patio/internal/domain"
	"patio/pkg/redis"
)

// CacheService provides cache-aside helpers over Redis. Every method degrades
// to the database fallback when Redis is down or the client is nil.
type CacheService struct {
	redis  *redis.Client
	logger *zap.Logger
}

// NewCacheService creates a new cache service
func NewCacheService(redisClient *redis.Client, logger *zap.Logger) *CacheService {
	return &CacheService{
		redis:  redisClient,
		logger: logger,
	}
}

func (c *CacheService) enabled() bool {
	return c != nil && c.redis != nil
}

// GetTeamWithCache retrieves team data with a cache-aside pattern
func (c *CacheService) GetTeamWithCache(ctx context.Context, teamID int64, dbFallback func(ctx context.Context, id int64) (*domain.Team, error)) (*domain.Team, error) {
	if !c.enabled() {
		return dbFallback(ctx, teamID)
	}

	cacheKey := c.redis.KeyBuilder.KeyTeamByID(teamID)

	cachedData, err := c.redis.Get(ctx, cacheKey)
	if err == nil && cachedData != "" {
		var team domain.Team
		if unmarshalErr := json.Unmarshal([]byte(cachedData), &team); unmarshalErr == nil {
			c.logger.Debug("Team cache hit", zap.Int64("team_id", teamID))
			return &team, nil
		}
		c.logger.Warn("Team cache corrupted, falling back to database",
			zap.Int64("team_id", teamID))
	} else if err != nil && err != redis.Nil {
		c.logger.Warn("Team cache error, falling back to database",
			zap.Int64("team_id", teamID),
			zap.Error(err))
	}

	team, err := dbFallback(ctx, teamID)
	if err != nil {
		return nil, err
	}

	if team != nil {
		go c.cacheTeamAsync(teamID, team)
	}

	return team, nil
}

func (c *CacheService) cacheTeamAsync(teamID int64, team *domain.Team) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	data, err := json.Marshal(team)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, c.redis.KeyBuilder.KeyTeamByID(teamID), data, redis.TTLTeam); err != nil {
		c.logger.Warn("Failed to cache team", zap.Int64("team_id", teamID), zap.Error(err))
	}
}

// GetTeamByCodeWithCache resolves an invite code to its team with a
// cache-aside pattern, so repeated joins against the same code skip the
// database lookup
func (c *CacheService) GetTeamByCodeWithCache(ctx context.Context, code string, dbFallback func(ctx context.Context, code string) (*domain.Team, error)) (*domain.Team, error) {
	if !c.enabled() {
		return dbFallback(ctx, code)
	}

	cacheKey := c.redis.KeyBuilder.KeyTeamByCode(code)

	cachedData, err := c.redis.Get(ctx, cacheKey)
	if err == nil && cachedData != "" {
		var team domain.Team
		if unmarshalErr := json.Unmarshal([]byte(cachedData), &team); unmarshalErr == nil {
			c.logger.Debug("Join code cache hit", zap.Int64("team_id", team.ID))
			return &team, nil
		}
		c.logger.Warn("Join code cache corrupted, falling back to database")
	} else if err != nil && err != redis.Nil {
		c.logger.Warn("Join code cache error, falling back to database", zap.Error(err))
	}

	team, err := dbFallback(ctx, code)
	if err != nil {
		return nil, err
	}

	if team != nil {
		snapshot := *team
		go func() {
			cacheCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			data, err := json.Marshal(&snapshot)
			if err != nil {
				return
			}
			if err := c.redis.Set(cacheCtx, cacheKey, data, redis.TTLTeam); err != nil {
				c.logger.Warn("Failed to cache join code lookup", zap.Int64("team_id", snapshot.ID), zap.Error(err))
			}
		}()
	}

	return team, nil
}

// GetMembershipWithCache retrieves a user's membership with a cache-aside
// pattern. Absent memberships are never cached, so a just-joined user is
// visible immediately.
func (c *CacheService) GetMembershipWithCache(ctx context.Context, teamID int64, userID string, dbFallback func(ctx context.Context, teamID int64, userID string) (*domain.Membership, error)) (*domain.Membership, error) {
	if !c.enabled() {
		return dbFallback(ctx, teamID, userID)
	}

	cacheKey := c.redis.KeyBuilder.KeyMembership(teamID, userID)

	cachedData, err := c.redis.Get(ctx, cacheKey)
	if err == nil && cachedData != "" {
		var m domain.Membership
		if unmarshalErr := json.Unmarshal([]byte(cachedData), &m); unmarshalErr == nil {
			c.logger.Debug("Membership cache hit", zap.Int64("team_id", teamID))
			return &m, nil
		}
		c.logger.Warn("Membership cache corrupted, falling back to database", zap.Int64("team_id", teamID))
	} else if err != nil && err != redis.Nil {
		c.logger.Warn("Membership cache error, falling back to database",
			zap.Int64("team_id", teamID),
			zap.Error(err))
	}

	membership, err := dbFallback(ctx, teamID, userID)
	if err != nil {
		return nil, err
	}

	if membership != nil {
		snapshot := *membership
		go func() {
			cacheCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			data, err := json.Marshal(&snapshot)
			if err != nil {
				return
			}
			if err := c.redis.Set(cacheCtx, cacheKey, data, redis.TTLMembership); err != nil {
				c.logger.Warn("Failed to cache membership", zap.Int64("team_id", teamID), zap.Error(err))
			}
		}()
	}

	return membership, nil
}

// InvalidateMembership drops a cached membership after a role change or
// removal
func (c *CacheService) InvalidateMembership(ctx context.Context, teamID int64, userID string) {
	if !c.enabled() {
		return
	}
	if err := c.redis.Delete(ctx, c.redis.KeyBuilder.KeyMembership(teamID, userID)); err != nil {
		c.logger.Warn("Failed to invalidate membership cache",
			zap.Int64("team_id", teamID),
			zap.Error(err))
	}
}

// InvalidateTeam drops a team's cached settings, and its join-code mapping
// when the code is known, after a settings update
func (c *CacheService) InvalidateTeam(ctx context.Context, teamID int64, joinCode string) {
	if !c.enabled() {
		return
	}
	keys := []string{c.redis.KeyBuilder.KeyTeamByID(teamID)}
	if joinCode != "" {
		keys = append(keys, c.redis.KeyBuilder.KeyTeamByCode(joinCode))
	}
	if err := c.redis.Delete(ctx, keys...); err != nil {
		c.logger.Warn("Failed to invalidate team cache",
			zap.Int64("team_id", teamID),
			zap.Error(err))
	}
}

// MarkEntrySubmitted flags that a user already has an entry for a date, so
// repeat submissions can short-circuit before hitting the database. SetNX
// keeps the first writer's TTL when two submissions race.
func (c *CacheService) MarkEntrySubmitted(ctx context.Context, teamID int64, userID, date string) {
	if !c.enabled() {
		return
	}
	key := c.redis.KeyBuilder.KeyEntrySubmitted(teamID, userID, date)
	if _, err := c.redis.SetNX(ctx, key, "1", redis.TTLEntryFlag); err != nil {
		c.logger.Warn("Failed to cache entry flag", zap.Int64("team_id", teamID), zap.Error(err))
	}
}

// ClearEntrySubmitted drops the submitted flag after an entry is deleted
func (c *CacheService) ClearEntrySubmitted(ctx context.Context, teamID int64, userID, date string) {
	if !c.enabled() {
		return
	}
	key := c.redis.KeyBuilder.KeyEntrySubmitted(teamID, userID, date)
	if err := c.redis.Delete(ctx, key); err != nil {
		c.logger.Warn("Failed to clear entry flag", zap.Int64("team_id", teamID), zap.Error(err))
	}
}

// HasEntrySubmitted reports whether the submitted flag is set. A false result
// is not authoritative; the caller still checks the database.
func (c *CacheService) HasEntrySubmitted(ctx context.Context, teamID int64, userID, date string) bool {
	if !c.enabled() {
		return false
	}
	key := c.redis.KeyBuilder.KeyEntrySubmitted(teamID, userID, date)
	n, err := c.redis.Exists(ctx, key)
	if err != nil {
		return false
	}
	return n > 0
}

// GetStatsWithCache returns a cached JSON stats payload, or computes and
// caches it. Stats keys carry a short TTL instead of write-time invalidation.
func (c *CacheService) GetStatsWithCache(ctx context.Context, cacheKey string, dest interface{}, compute func(ctx context.Context) (interface{}, error)) error {
	if c.enabled() {
		cachedData, err := c.redis.Get(ctx, cacheKey)
		if err == nil && cachedData != "" {
			if unmarshalErr := json.Unmarshal([]byte(cachedData), dest); unmarshalErr == nil {
				c.logger.Debug("Stats cache hit", zap.String("key", cacheKey))
				return nil
			}
			c.logger.Warn("Stats cache corrupted, recomputing", zap.String("key", cacheKey))
		}
	}

	result, err := compute(ctx)
	if err != nil {
		return err
	}

	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return err
	}

	if c.enabled() {
		go func() {
			cacheCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := c.redis.Set(cacheCtx, cacheKey, data, redis.TTLStats); err != nil {
				c.logger.Warn("Failed to cache stats", zap.String("key", cacheKey), zap.Error(err))
			}
		}()
	}

	return nil
}
