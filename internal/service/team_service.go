package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"patio/internal/domain"
	"patio/internal/moodrules"
	"patio/internal/repository"
	apperrors "patio/pkg/errors"
)

// TeamService coordinates team lifecycle and membership operations
type TeamService struct {
	teams        repository.TeamRepository
	memberships  repository.MembershipRepository
	cacheService *CacheService
	defaultTZ    string
	logger       *zap.Logger
}

func NewTeamService(repos *repository.Repositories, cacheService *CacheService, defaultTZ string, logger *zap.Logger) *TeamService {
	return &TeamService{
		teams:        repos.Team,
		memberships:  repos.Membership,
		cacheService: cacheService,
		defaultTZ:    defaultTZ,
		logger:       logger,
	}
}

// generateJoinCode produces a short random invite code
func generateJoinCode() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return hex.EncodeToString([]byte(time.Now().Format("150405")))
	}
	return strings.ToUpper(hex.EncodeToString(b))
}

func validTimezone(tz string) bool {
	if tz == "" {
		return true
	}
	_, err := time.LoadLocation(tz)
	return err == nil
}

// CreateTeam creates a team with the caller as its first admin
func (s *TeamService) CreateTeam(ctx context.Context, userID string, req *domain.CreateTeamRequest) (*domain.Team, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("Team name is required", nil)
	}
	if len(name) > 100 {
		return nil, apperrors.NewValidationError("Team name must be at most 100 characters", nil)
	}
	if !validTimezone(req.Timezone) {
		return nil, apperrors.NewValidationError("Unknown timezone", map[string]interface{}{"timezone": req.Timezone})
	}

	pollDays := domain.DefaultPollDays()
	if req.PollDays != nil {
		pollDays = *req.PollDays
	}

	tz := req.Timezone
	if tz == "" {
		tz = s.defaultTZ
	}

	team := &domain.Team{
		Name:     name,
		JoinCode: generateJoinCode(),
		Timezone: tz,
		PollDays: pollDays,
	}

	if err := s.teams.Create(ctx, team, userID); err != nil {
		return nil, apperrors.NewInternalError("Failed to create team", err)
	}

	s.logger.Info("Team created", zap.Int64("team_id", team.ID))
	return team, nil
}

// requireMembership loads the caller's membership or fails with 403
func (s *TeamService) requireMembership(ctx context.Context, teamID int64, userID string) (*domain.Membership, error) {
	membership, err := s.cacheService.GetMembershipWithCache(ctx, teamID, userID, s.memberships.Get)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to load membership", err)
	}
	if membership == nil {
		return nil, apperrors.NewAuthorizationError("You are not a member of this team")
	}
	return membership, nil
}

// requireAdmin loads the caller's membership and checks the admin role
func (s *TeamService) requireAdmin(ctx context.Context, teamID int64, userID string) (*domain.Membership, error) {
	membership, err := s.requireMembership(ctx, teamID, userID)
	if err != nil {
		return nil, err
	}
	if membership.Role != domain.RoleAdmin {
		return nil, apperrors.NewAuthorizationError("Only team admins may do this")
	}
	return membership, nil
}

// GetTeam returns a team to one of its members. The join code is only
// revealed to admins.
func (s *TeamService) GetTeam(ctx context.Context, teamID int64, userID string) (*domain.Team, error) {
	membership, err := s.requireMembership(ctx, teamID, userID)
	if err != nil {
		return nil, err
	}

	team, err := s.cacheService.GetTeamWithCache(ctx, teamID, s.teams.GetByID)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to load team", err)
	}
	if team == nil {
		return nil, apperrors.NewNotFoundError("Team not found")
	}

	if membership.Role != domain.RoleAdmin {
		redacted := *team
		redacted.JoinCode = ""
		return &redacted, nil
	}
	return team, nil
}

// ListTeams returns the caller's teams
func (s *TeamService) ListTeams(ctx context.Context, userID string) ([]*domain.Team, error) {
	teams, err := s.teams.ListForUser(ctx, userID)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to list teams", err)
	}
	for _, t := range teams {
		t.JoinCode = ""
	}
	return teams, nil
}

// UpdateSettings applies a settings change; admins only. An all-false poll-day
// mask is stored as-is and surfaces as NoPollDayConfigured when resolving poll
// dates.
func (s *TeamService) UpdateSettings(ctx context.Context, teamID int64, userID string, req *domain.UpdateTeamSettingsRequest) (*domain.Team, error) {
	if _, err := s.requireAdmin(ctx, teamID, userID); err != nil {
		return nil, err
	}

	team, err := s.teams.GetByID(ctx, teamID)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to load team", err)
	}
	if team == nil {
		return nil, apperrors.NewNotFoundError("Team not found")
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apperrors.NewValidationError("Team name is required", nil)
		}
		team.Name = name
	}
	if req.Timezone != nil {
		if !validTimezone(*req.Timezone) {
			return nil, apperrors.NewValidationError("Unknown timezone", map[string]interface{}{"timezone": *req.Timezone})
		}
		team.Timezone = *req.Timezone
	}
	if req.PollDays != nil {
		team.PollDays = *req.PollDays
		if !team.PollDays.Any() {
			s.logger.Warn("Team saved with no poll day enabled", zap.Int64("team_id", teamID))
		}
	}

	if err := s.teams.UpdateSettings(ctx, team); err != nil {
		return nil, apperrors.NewInternalError("Failed to update team settings", err)
	}

	s.cacheService.InvalidateTeam(ctx, teamID, team.JoinCode)
	return team, nil
}

// JoinTeam adds the caller to the team matching the invite code
func (s *TeamService) JoinTeam(ctx context.Context, userID string, code string) (*domain.Team, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, apperrors.NewValidationError("Invite code is required", nil)
	}

	team, err := s.cacheService.GetTeamByCodeWithCache(ctx, code, s.teams.GetByJoinCode)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to look up invite code", err)
	}
	if team == nil {
		return nil, apperrors.NewNotFoundError("No team matches that invite code")
	}

	existing, err := s.memberships.Get(ctx, team.ID, userID)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to load membership", err)
	}
	if existing != nil {
		return nil, apperrors.NewConflictError("You are already a member of this team")
	}

	m := &domain.Membership{TeamID: team.ID, UserID: userID, Role: domain.RoleMember}
	if err := s.memberships.Create(ctx, m); err != nil {
		return nil, apperrors.NewInternalError("Failed to join team", err)
	}

	s.logger.Info("User joined team", zap.Int64("team_id", team.ID))
	joined := *team
	joined.JoinCode = ""
	return &joined, nil
}

// ListMembers lists a team's members to one of its members
func (s *TeamService) ListMembers(ctx context.Context, teamID int64, userID string) ([]*domain.Member, error) {
	if _, err := s.requireMembership(ctx, teamID, userID); err != nil {
		return nil, err
	}

	members, err := s.memberships.ListMembers(ctx, teamID)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to list members", err)
	}
	return members, nil
}

// RemoveMember removes a member. Admins can remove anyone; a member can remove
// only themselves (leaving). The repository re-checks the last-admin invariant
// inside its transaction.
func (s *TeamService) RemoveMember(ctx context.Context, teamID int64, callerID, targetID string) error {
	caller, err := s.requireMembership(ctx, teamID, callerID)
	if err != nil {
		return err
	}
	if callerID != targetID && caller.Role != domain.RoleAdmin {
		return apperrors.NewAuthorizationError("Only team admins may remove other members")
	}

	target, err := s.memberships.Get(ctx, teamID, targetID)
	if err != nil {
		return apperrors.NewInternalError("Failed to load membership", err)
	}
	if target == nil {
		return apperrors.NewNotFoundError("Member not found")
	}

	if err := s.memberships.Remove(ctx, teamID, targetID); err != nil {
		if errors.Is(err, repository.ErrLastAdmin) {
			return apperrors.NewConflictError("A team must retain at least one admin").
				WithReason(string(moodrules.ReasonLastAdminViolation))
		}
		if errors.Is(err, repository.ErrMembershipNotFound) {
			return apperrors.NewNotFoundError("Member not found")
		}
		return apperrors.NewInternalError("Failed to remove member", err)
	}

	s.cacheService.InvalidateMembership(ctx, teamID, targetID)
	s.logger.Info("Member removed", zap.Int64("team_id", teamID), zap.Bool("self", callerID == targetID))
	return nil
}

// UpdateRole changes a member's role. Admins only, though self-demotion by the
// last admin is rejected regardless of caller.
func (s *TeamService) UpdateRole(ctx context.Context, teamID int64, callerID, targetID string, role domain.Role) error {
	if !role.Valid() {
		return apperrors.NewValidationError("Role must be member or admin", nil)
	}
	if _, err := s.requireAdmin(ctx, teamID, callerID); err != nil {
		return err
	}

	if err := s.memberships.UpdateRole(ctx, teamID, targetID, role); err != nil {
		if errors.Is(err, repository.ErrLastAdmin) {
			return apperrors.NewConflictError("A team must retain at least one admin").
				WithReason(string(moodrules.ReasonLastAdminViolation))
		}
		if errors.Is(err, repository.ErrMembershipNotFound) {
			return apperrors.NewNotFoundError("Member not found")
		}
		return apperrors.NewInternalError("Failed to update role", err)
	}

	s.cacheService.InvalidateMembership(ctx, teamID, targetID)
	return nil
}
