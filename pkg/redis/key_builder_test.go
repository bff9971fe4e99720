package redis

import (
	"testing"
)

func TestKeyBuilder_Environment_Prefixes(t *testing.T) {
	tests := []struct {
		name           string
		environment    string
		expectedPrefix string
	}{
		{
			name:           "Production environment should use prod prefix",
			environment:    "production",
			expectedPrefix: "prod",
		},
		{
			name:           "Development environment should use staging prefix",
			environment:    "development",
			expectedPrefix: "staging",
		},
		{
			name:           "Staging environment should use staging prefix",
			environment:    "staging",
			expectedPrefix: "staging",
		},
		{
			name:           "Test environment should use staging prefix",
			environment:    "test",
			expectedPrefix: "staging",
		},
		{
			name:           "Unknown environment should default to prod prefix",
			environment:    "unknown",
			expectedPrefix: "prod",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kb := NewKeyBuilder(tt.environment)
			if kb.GetPrefix() != tt.expectedPrefix {
				t.Errorf("NewKeyBuilder(%s).GetPrefix() = %s, want %s",
					tt.environment, kb.GetPrefix(), tt.expectedPrefix)
			}
		})
	}
}

func TestKeyBuilder_KeyGeneration(t *testing.T) {
	kb := NewKeyBuilder("production")

	tests := []struct {
		name     string
		method   func() string
		expected string
	}{
		{
			name:     "TeamByID key",
			method:   func() string { return kb.KeyTeamByID(5) },
			expected: "prod:mood:team:5",
		},
		{
			name:     "TeamByCode key",
			method:   func() string { return kb.KeyTeamByCode("A1B2C3D4") },
			expected: "prod:mood:team:code:A1B2C3D4",
		},
		{
			name:     "Membership key",
			method:   func() string { return kb.KeyMembership(5, "user123") },
			expected: "prod:mood:team:5:member:user123",
		},
		{
			name:     "EntrySubmitted key",
			method:   func() string { return kb.KeyEntrySubmitted(5, "user123", "2024-01-15") },
			expected: "prod:mood:entry:5:user123:2024-01-15",
		},
		{
			name:     "TeamTrend key",
			method:   func() string { return kb.KeyTeamTrend(5, "2024-01-01:2024-01-31:7") },
			expected: "prod:mood:team:5:trend:2024-01-01:2024-01-31:7",
		},
		{
			name:     "Participation key",
			method:   func() string { return kb.KeyParticipation(5, "2024-01-01:2024-01-31") },
			expected: "prod:mood:team:5:participation:2024-01-01:2024-01-31",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.method()
			if result != tt.expected {
				t.Errorf("%s = %s, want %s", tt.name, result, tt.expected)
			}
		})
	}
}

func TestKeyBuilder_EnvironmentSeparation(t *testing.T) {
	prodKB := NewKeyBuilder("production")
	stagingKB := NewKeyBuilder("development")

	prodKey := prodKB.KeyTeamByID(1)
	stagingKey := stagingKB.KeyTeamByID(1)

	if prodKey == stagingKey {
		t.Errorf("Production and staging keys should be different. Got: prod=%s, staging=%s",
			prodKey, stagingKey)
	}

	expectedProd := "prod:mood:team:1"
	expectedStaging := "staging:mood:team:1"

	if prodKey != expectedProd {
		t.Errorf("Production key = %s, want %s", prodKey, expectedProd)
	}

	if stagingKey != expectedStaging {
		t.Errorf("Staging key = %s, want %s", stagingKey, expectedStaging)
	}
}

func TestKeyBuilder_BuildKey(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		key         string
		expected    string
	}{
		{
			name:        "Production simple key",
			environment: "production",
			key:         "test:key",
			expected:    "prod:test:key",
		},
		{
			name:        "Staging simple key",
			environment: "staging",
			key:         "test:key",
			expected:    "staging:test:key",
		},
		{
			name:        "Development simple key",
			environment: "development",
			key:         "test:key",
			expected:    "staging:test:key",
		},
		{
			name:        "Unknown environment defaults to prod",
			environment: "qa",
			key:         "test:key",
			expected:    "prod:test:key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kb := NewKeyBuilder(tt.environment)
			result := kb.BuildKey(tt.key)
			if result != tt.expected {
				t.Errorf("BuildKey(%s) with env %s = %s, want %s",
					tt.key, tt.environment, result, tt.expected)
			}
		})
	}
}
