package redis

import "fmt"

// KeyBuilder provides environment-aware Redis key building functionality
type KeyBuilder struct {
	prefix string // Environment prefix (staging/prod)
}

// NewKeyBuilder creates a new key builder with environment-based prefix
func NewKeyBuilder(environment string) *KeyBuilder {
	prefix := "prod"
	if environment == "development" || environment == "staging" || environment == "test" {
		prefix = "staging"
	}

	return &KeyBuilder{
		prefix: prefix,
	}
}

// BuildKey constructs a Redis key with the environment prefix
func (kb *KeyBuilder) BuildKey(key string) string {
	return fmt.Sprintf("%s:%s", kb.prefix, key)
}

// GetPrefix returns the current environment prefix
func (kb *KeyBuilder) GetPrefix() string {
	return kb.prefix
}

// KeyTeamByID builds the cache key for a team's settings
func (kb *KeyBuilder) KeyTeamByID(teamID int64) string {
	return kb.BuildKey(fmt.Sprintf(KeyTeamByID, teamID))
}

// KeyTeamByCode builds the cache key mapping a join code to a team
func (kb *KeyBuilder) KeyTeamByCode(code string) string {
	return kb.BuildKey(fmt.Sprintf(KeyTeamByCode, code))
}

// KeyMembership builds the cache key for a user's role in a team
func (kb *KeyBuilder) KeyMembership(teamID int64, userID string) string {
	return kb.BuildKey(fmt.Sprintf(KeyMembership, teamID, userID))
}

// KeyEntrySubmitted builds the flag key marking that a user already has an
// entry for a team on a given date
func (kb *KeyBuilder) KeyEntrySubmitted(teamID int64, userID, date string) string {
	return kb.BuildKey(fmt.Sprintf(KeyEntrySubmitted, teamID, userID, date))
}

// KeyTeamTrend builds the cache key for a team's trend series
func (kb *KeyBuilder) KeyTeamTrend(teamID int64, rangeKey string) string {
	return kb.BuildKey(fmt.Sprintf(KeyTeamTrend, teamID, rangeKey))
}

// KeyParticipation builds the cache key for a team's participation stats
func (kb *KeyBuilder) KeyParticipation(teamID int64, rangeKey string) string {
	return kb.BuildKey(fmt.Sprintf(KeyParticipation, teamID, rangeKey))
}
