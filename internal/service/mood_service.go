package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"patio/internal/dates"
	"patio/internal/domain"
	"patio/internal/moodrules"
	"patio/internal/poll"
	"patio/internal/repository"
	apperrors "patio/pkg/errors"
)

// MoodService coordinates mood entry submission, edits and reads. The domain
// invariants live in moodrules; this layer fetches the rows they need and maps
// rejections to transport errors.
type MoodService struct {
	entries      repository.MoodEntryRepository
	memberships  repository.MembershipRepository
	teams        repository.TeamRepository
	cacheService *CacheService
	defaultTZ    string
	logger       *zap.Logger
}

func NewMoodService(repos *repository.Repositories, cacheService *CacheService, defaultTZ string, logger *zap.Logger) *MoodService {
	return &MoodService{
		entries:      repos.MoodEntry,
		memberships:  repos.Membership,
		teams:        repos.Team,
		cacheService: cacheService,
		defaultTZ:    defaultTZ,
		logger:       logger,
	}
}

// rejectionError maps a moodrules rejection to a transport-level AppError
func rejectionError(err error) error {
	var rej *moodrules.Rejection
	if !errors.As(err, &rej) {
		return err
	}

	switch rej.Reason {
	case moodrules.ReasonNotAMember, moodrules.ReasonNotOwner:
		return apperrors.NewAuthorizationError(rej.Message).WithReason(string(rej.Reason))
	case moodrules.ReasonNotFound:
		return apperrors.NewNotFoundError(rej.Message).WithReason(string(rej.Reason))
	case moodrules.ReasonDuplicateEntry, moodrules.ReasonLastAdminViolation:
		return apperrors.NewConflictError(rej.Message).WithReason(string(rej.Reason))
	default:
		return apperrors.NewValidationError(rej.Message, nil).WithReason(string(rej.Reason))
	}
}

// teamToday resolves "today" in the team's timezone, falling back to the
// configured default
func (s *MoodService) teamToday(team *domain.Team) (dates.Date, error) {
	tz := team.Timezone
	if tz == "" {
		tz = s.defaultTZ
	}
	today, err := dates.Today(tz)
	if err != nil {
		return dates.Today(s.defaultTZ)
	}
	return today, nil
}

// getTeam fetches a team through the cache, converting absence to a 404
func (s *MoodService) getTeam(ctx context.Context, teamID int64) (*domain.Team, error) {
	team, err := s.cacheService.GetTeamWithCache(ctx, teamID, s.teams.GetByID)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to load team", err)
	}
	if team == nil {
		return nil, apperrors.NewNotFoundError("Team not found")
	}
	return team, nil
}

// DefaultEntryDate returns the team's most recent valid poll date, the date a
// client should preselect for submission
func (s *MoodService) DefaultEntryDate(ctx context.Context, teamID int64, userID string) (dates.Date, error) {
	team, err := s.getTeam(ctx, teamID)
	if err != nil {
		return dates.Date{}, err
	}

	membership, err := s.memberships.Get(ctx, teamID, userID)
	if err != nil {
		return dates.Date{}, apperrors.NewInternalError("Failed to load membership", err)
	}
	if membership == nil {
		return dates.Date{}, apperrors.NewAuthorizationError("You are not a member of this team")
	}

	today, err := s.teamToday(team)
	if err != nil {
		return dates.Date{}, apperrors.NewInternalError("Failed to resolve team date", err)
	}

	last, err := poll.LastValidDate(team.PollDays, today)
	if err != nil {
		return dates.Date{}, apperrors.NewConflictError("This team has no poll day configured").
			WithReason("no_poll_day_configured")
	}
	return last, nil
}

// SubmitEntry validates and persists a new mood entry
func (s *MoodService) SubmitEntry(ctx context.Context, userID string, teamID int64, req *domain.SubmitMoodRequest) (*domain.MoodEntry, error) {
	team, err := s.getTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}

	today, err := s.teamToday(team)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to resolve team date", err)
	}

	var entryDate dates.Date
	if req.EntryDate == "" {
		entryDate, err = poll.LastValidDate(team.PollDays, today)
		if err != nil {
			return nil, apperrors.NewConflictError("This team has no poll day configured").
				WithReason("no_poll_day_configured")
		}
	} else {
		entryDate, err = dates.Parse(req.EntryDate)
		if err != nil {
			return nil, apperrors.NewValidationError("Entry date must be YYYY-MM-DD", nil).
				WithReason("invalid_date_format")
		}
	}

	if req.Visibility == "" {
		req.Visibility = domain.VisibilityPublic
	}
	if !req.Visibility.Valid() {
		return nil, apperrors.NewValidationError("Visibility must be public or private", nil)
	}

	membership, err := s.memberships.Get(ctx, teamID, userID)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to load membership", err)
	}

	// Fast path: the cache already knows this user submitted for the date.
	if s.cacheService.HasEntrySubmitted(ctx, teamID, userID, entryDate.String()) {
		return nil, apperrors.NewConflictError("An entry for this date already exists").
			WithReason(string(moodrules.ReasonDuplicateEntry))
	}

	existing, err := s.entries.GetForDate(ctx, teamID, userID, entryDate)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to check existing entry", err)
	}

	sub := moodrules.Submission{
		UserID:    userID,
		TeamID:    teamID,
		Rating:    req.Rating,
		EntryDate: entryDate,
	}
	if err := moodrules.ValidateCreate(sub, membership, team, existing, today); err != nil {
		return nil, rejectionError(err)
	}

	entry := &domain.MoodEntry{
		UserID:       userID,
		TeamID:       teamID,
		Rating:       req.Rating,
		Comment:      req.Comment,
		Visibility:   req.Visibility,
		AllowContact: req.AllowContact,
		EntryDate:    entryDate,
	}

	if err := s.entries.Create(ctx, entry); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			// Lost the race: someone inserted between our check and the
			// write. The unique index is the real guard.
			return nil, apperrors.NewConflictError("An entry for this date already exists").
				WithReason(string(moodrules.ReasonDuplicateEntry))
		}
		return nil, apperrors.NewInternalError("Failed to save mood entry", err)
	}

	s.cacheService.MarkEntrySubmitted(ctx, teamID, userID, entryDate.String())

	s.logger.Info("Mood entry submitted",
		zap.Int64("team_id", teamID),
		zap.String("entry_date", entryDate.String()),
		zap.Int("rating", entry.Rating))

	return entry, nil
}

// UpdateEntry edits an existing entry's mutable fields
func (s *MoodService) UpdateEntry(ctx context.Context, userID string, entryID int64, req *domain.UpdateMoodRequest) (*domain.MoodEntry, error) {
	existing, err := s.entries.GetByID(ctx, entryID)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to load mood entry", err)
	}
	if existing == nil {
		return nil, apperrors.NewNotFoundError("Mood entry not found").
			WithReason(string(moodrules.ReasonNotFound))
	}

	team, err := s.getTeam(ctx, existing.TeamID)
	if err != nil {
		return nil, err
	}

	today, err := s.teamToday(team)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to resolve team date", err)
	}

	membership, err := s.memberships.Get(ctx, existing.TeamID, userID)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to load membership", err)
	}

	if req.Visibility == "" {
		req.Visibility = existing.Visibility
	}
	if !req.Visibility.Valid() {
		return nil, apperrors.NewValidationError("Visibility must be public or private", nil)
	}

	sub := moodrules.Submission{
		UserID:    userID,
		TeamID:    existing.TeamID,
		Rating:    req.Rating,
		EntryDate: existing.EntryDate,
	}
	if err := moodrules.ValidateUpdate(sub, membership, team, existing, today); err != nil {
		return nil, rejectionError(err)
	}

	existing.Rating = req.Rating
	existing.Comment = req.Comment
	existing.Visibility = req.Visibility
	existing.AllowContact = req.AllowContact

	if err := s.entries.Update(ctx, existing); err != nil {
		return nil, apperrors.NewInternalError("Failed to update mood entry", err)
	}

	return existing, nil
}

// DeleteEntry removes an entry; only its owner may do so
func (s *MoodService) DeleteEntry(ctx context.Context, userID string, entryID int64) error {
	existing, err := s.entries.GetByID(ctx, entryID)
	if err != nil {
		return apperrors.NewInternalError("Failed to load mood entry", err)
	}

	if err := moodrules.ValidateDelete(userID, existing); err != nil {
		return rejectionError(err)
	}

	if err := s.entries.Delete(ctx, existing.ID); err != nil {
		return apperrors.NewInternalError("Failed to delete mood entry", err)
	}

	s.cacheService.ClearEntrySubmitted(ctx, existing.TeamID, userID, existing.EntryDate.String())
	return nil
}

// ListTeamEntries returns a team's entries in [from, to] for a member.
// Private entries are filtered out unless the caller owns them; their ratings
// still count in the aggregates, which use the unfiltered row set elsewhere.
func (s *MoodService) ListTeamEntries(ctx context.Context, userID string, teamID int64, from, to dates.Date) ([]*domain.MoodEntry, error) {
	membership, err := s.memberships.Get(ctx, teamID, userID)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to load membership", err)
	}
	if membership == nil {
		return nil, apperrors.NewAuthorizationError("You are not a member of this team")
	}

	entries, err := s.entries.ListForRange(ctx, teamID, from, to)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to list mood entries", err)
	}

	visible := make([]*domain.MoodEntry, 0, len(entries))
	for _, e := range entries {
		if e.Visibility == domain.VisibilityPrivate && e.UserID != userID {
			continue
		}
		visible = append(visible, e)
	}
	return visible, nil
}
