package container

import (
	"patio/internal/config"
	"patio/internal/repository"
	"patio/internal/service"
	"patio/internal/service/auth"
	"patio/pkg/database"
	"patio/pkg/logger"
	"patio/pkg/redis"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	Logger       *logger.Logger
	RedisClient  *redis.Client
	Repositories *repository.Repositories
	Services     *service.Services
}

// New creates a new dependency injection container. Redis is optional; when
// it is unavailable the services run uncached.
func New(cfg *config.Config, log *logger.Logger, db *database.PostgresDB) (*Container, error) {
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		client, err := redis.NewClient(cfg.RedisURL, cfg.Environment, log.Logger)
		if err != nil {
			log.WithError(err).Warn("Failed to initialize Redis client, proceeding without caching")
		} else {
			redisClient = client
			log.Info("Redis client initialized successfully")
		}
	} else {
		log.Info("Redis URL not configured, proceeding without caching")
	}

	repos := &repository.Repositories{
		User:       repository.NewUserRepository(db),
		Team:       repository.NewTeamRepository(db),
		Membership: repository.NewMembershipRepository(db),
		MoodEntry:  repository.NewMoodEntryRepository(db),
	}

	cacheService := service.NewCacheService(redisClient, log.Logger)

	authService := auth.NewService(
		cfg.GoogleClientID,
		cfg.GoogleClientSecret,
		cfg.GoogleRedirectURL,
		cfg.SessionJWTSecret,
		cfg.SessionTTLHours,
		log,
	)

	services := &service.Services{
		Auth:  authService,
		Teams: service.NewTeamService(repos, cacheService, cfg.DefaultTimezone, log.Logger),
		Moods: service.NewMoodService(repos, cacheService, cfg.DefaultTimezone, log.Logger),
		Stats: service.NewStatsService(repos, cacheService, log.Logger),
	}

	return &Container{
		Config:       cfg,
		Logger:       log,
		RedisClient:  redisClient,
		Repositories: repos,
		Services:     services,
	}, nil
}

// GetAuthService returns the auth service
func (c *Container) GetAuthService() service.AuthService {
	return c.Services.Auth
}

// GetLogger returns the logger
func (c *Container) GetLogger() *logger.Logger {
	return c.Logger
}

// GetConfig returns the configuration
func (c *Container) GetConfig() *config.Config {
	return c.Config
}

// GetRedisClient returns the Redis client (may be nil if not configured)
func (c *Container) GetRedisClient() *redis.Client {
	return c.RedisClient
}

// HasRedis returns true if the Redis client is available
func (c *Container) HasRedis() bool {
	return c.RedisClient != nil
}
