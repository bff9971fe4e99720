package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"patio/internal/dates"
	"patio/internal/domain"
	"patio/internal/repository"
	apperrors "patio/pkg/errors"
)

// MockTeamRepository mocks repository.TeamRepository
type MockTeamRepository struct {
	mock.Mock
}

func (m *MockTeamRepository) Create(ctx context.Context, team *domain.Team, creatorID string) error {
	args := m.Called(ctx, team, creatorID)
	return args.Error(0)
}

func (m *MockTeamRepository) GetByID(ctx context.Context, id int64) (*domain.Team, error) {
	args := m.Called(ctx, id)
	if team := args.Get(0); team != nil {
		return team.(*domain.Team), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTeamRepository) GetByJoinCode(ctx context.Context, code string) (*domain.Team, error) {
	args := m.Called(ctx, code)
	if team := args.Get(0); team != nil {
		return team.(*domain.Team), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTeamRepository) UpdateSettings(ctx context.Context, team *domain.Team) error {
	args := m.Called(ctx, team)
	return args.Error(0)
}

func (m *MockTeamRepository) ListForUser(ctx context.Context, userID string) ([]*domain.Team, error) {
	args := m.Called(ctx, userID)
	if teams := args.Get(0); teams != nil {
		return teams.([]*domain.Team), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockMembershipRepository mocks repository.MembershipRepository
type MockMembershipRepository struct {
	mock.Mock
}

func (m *MockMembershipRepository) Get(ctx context.Context, teamID int64, userID string) (*domain.Membership, error) {
	args := m.Called(ctx, teamID, userID)
	if membership := args.Get(0); membership != nil {
		return membership.(*domain.Membership), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMembershipRepository) Create(ctx context.Context, membership *domain.Membership) error {
	args := m.Called(ctx, membership)
	return args.Error(0)
}

func (m *MockMembershipRepository) Remove(ctx context.Context, teamID int64, userID string) error {
	args := m.Called(ctx, teamID, userID)
	return args.Error(0)
}

func (m *MockMembershipRepository) UpdateRole(ctx context.Context, teamID int64, userID string, role domain.Role) error {
	args := m.Called(ctx, teamID, userID, role)
	return args.Error(0)
}

func (m *MockMembershipRepository) ListMembers(ctx context.Context, teamID int64) ([]*domain.Member, error) {
	args := m.Called(ctx, teamID)
	if members := args.Get(0); members != nil {
		return members.([]*domain.Member), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMembershipRepository) CountMembers(ctx context.Context, teamID int64) (int, error) {
	args := m.Called(ctx, teamID)
	return args.Int(0), args.Error(1)
}

// MockMoodEntryRepository mocks repository.MoodEntryRepository
type MockMoodEntryRepository struct {
	mock.Mock
}

func (m *MockMoodEntryRepository) Create(ctx context.Context, entry *domain.MoodEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockMoodEntryRepository) Update(ctx context.Context, entry *domain.MoodEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockMoodEntryRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockMoodEntryRepository) GetByID(ctx context.Context, id int64) (*domain.MoodEntry, error) {
	args := m.Called(ctx, id)
	if entry := args.Get(0); entry != nil {
		return entry.(*domain.MoodEntry), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMoodEntryRepository) GetForDate(ctx context.Context, teamID int64, userID string, day dates.Date) (*domain.MoodEntry, error) {
	args := m.Called(ctx, teamID, userID, day)
	if entry := args.Get(0); entry != nil {
		return entry.(*domain.MoodEntry), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMoodEntryRepository) ListForRange(ctx context.Context, teamID int64, from, to dates.Date) ([]*domain.MoodEntry, error) {
	args := m.Called(ctx, teamID, from, to)
	if entries := args.Get(0); entries != nil {
		return entries.([]*domain.MoodEntry), args.Error(1)
	}
	return nil, args.Error(1)
}

type moodServiceMocks struct {
	teams       *MockTeamRepository
	memberships *MockMembershipRepository
	entries     *MockMoodEntryRepository
}

func newTestMoodService() (*MoodService, *moodServiceMocks) {
	mocks := &moodServiceMocks{
		teams:       &MockTeamRepository{},
		memberships: &MockMembershipRepository{},
		entries:     &MockMoodEntryRepository{},
	}
	repos := &repository.Repositories{
		Team:       mocks.teams,
		Membership: mocks.memberships,
		MoodEntry:  mocks.entries,
	}
	// nil Redis client: the cache service degrades to the database on every call
	svc := NewMoodService(repos, NewCacheService(nil, zap.NewNop()), "UTC", zap.NewNop())
	return svc, mocks
}

// everyDayTeam polls on all seven days so "today" is always submittable
func everyDayTeam() *domain.Team {
	return &domain.Team{
		ID:       1,
		Name:     "Platform Team",
		Timezone: "UTC",
		PollDays: domain.PollDays{
			Monday: true, Tuesday: true, Wednesday: true, Thursday: true,
			Friday: true, Saturday: true, Sunday: true,
		},
		CreatedAt: time.Now().AddDate(-1, 0, 0),
	}
}

func appErrorFrom(t *testing.T, err error) *apperrors.AppError {
	t.Helper()
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok, "expected *apperrors.AppError, got %T: %v", err, err)
	return appErr
}

func TestMoodService_SubmitEntry_Success(t *testing.T) {
	svc, mocks := newTestMoodService()
	ctx := context.Background()

	team := everyDayTeam()
	today, err := dates.Today("UTC")
	require.NoError(t, err)

	mocks.teams.On("GetByID", mock.Anything, int64(1)).Return(team, nil)
	mocks.memberships.On("Get", mock.Anything, int64(1), "user-1").
		Return(&domain.Membership{TeamID: 1, UserID: "user-1", Role: domain.RoleMember}, nil)
	mocks.entries.On("GetForDate", mock.Anything, int64(1), "user-1", today).Return(nil, nil)
	mocks.entries.On("Create", mock.Anything, mock.AnythingOfType("*domain.MoodEntry")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*domain.MoodEntry).ID = 42
		}).
		Return(nil)

	entry, err := svc.SubmitEntry(ctx, "user-1", 1, &domain.SubmitMoodRequest{
		Rating:    4,
		Comment:   "solid retro",
		EntryDate: today.String(),
	})

	require.NoError(t, err)
	assert.Equal(t, int64(42), entry.ID)
	assert.Equal(t, 4, entry.Rating)
	assert.Equal(t, today, entry.EntryDate)
	assert.Equal(t, domain.VisibilityPublic, entry.Visibility, "visibility should default to public")
	mocks.entries.AssertExpectations(t)
}

func TestMoodService_SubmitEntry_DefaultsEntryDate(t *testing.T) {
	svc, mocks := newTestMoodService()
	ctx := context.Background()

	team := everyDayTeam()
	today, err := dates.Today("UTC")
	require.NoError(t, err)

	mocks.teams.On("GetByID", mock.Anything, int64(1)).Return(team, nil)
	mocks.memberships.On("Get", mock.Anything, int64(1), "user-1").
		Return(&domain.Membership{TeamID: 1, UserID: "user-1", Role: domain.RoleMember}, nil)
	mocks.entries.On("GetForDate", mock.Anything, int64(1), "user-1", today).Return(nil, nil)
	mocks.entries.On("Create", mock.Anything, mock.AnythingOfType("*domain.MoodEntry")).Return(nil)

	// No entry date: the service resolves the team's last valid poll date,
	// which for an every-day mask is today.
	entry, err := svc.SubmitEntry(ctx, "user-1", 1, &domain.SubmitMoodRequest{Rating: 3})

	require.NoError(t, err)
	assert.Equal(t, today, entry.EntryDate)
}

func TestMoodService_SubmitEntry_Duplicate(t *testing.T) {
	svc, mocks := newTestMoodService()
	ctx := context.Background()

	team := everyDayTeam()
	today, err := dates.Today("UTC")
	require.NoError(t, err)

	mocks.teams.On("GetByID", mock.Anything, int64(1)).Return(team, nil)
	mocks.memberships.On("Get", mock.Anything, int64(1), "user-1").
		Return(&domain.Membership{TeamID: 1, UserID: "user-1", Role: domain.RoleMember}, nil)
	mocks.entries.On("GetForDate", mock.Anything, int64(1), "user-1", today).
		Return(&domain.MoodEntry{ID: 7, UserID: "user-1", TeamID: 1, EntryDate: today}, nil)

	_, err = svc.SubmitEntry(ctx, "user-1", 1, &domain.SubmitMoodRequest{
		Rating:    4,
		EntryDate: today.String(),
	})

	require.Error(t, err)
	appErr := appErrorFrom(t, err)
	assert.Equal(t, 409, appErr.StatusCode)
	assert.Equal(t, "duplicate_entry", appErr.Reason)
	mocks.entries.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestMoodService_SubmitEntry_DuplicateRace(t *testing.T) {
	svc, mocks := newTestMoodService()
	ctx := context.Background()

	team := everyDayTeam()
	today, err := dates.Today("UTC")
	require.NoError(t, err)

	mocks.teams.On("GetByID", mock.Anything, int64(1)).Return(team, nil)
	mocks.memberships.On("Get", mock.Anything, int64(1), "user-1").
		Return(&domain.Membership{TeamID: 1, UserID: "user-1", Role: domain.RoleMember}, nil)
	mocks.entries.On("GetForDate", mock.Anything, int64(1), "user-1", today).Return(nil, nil)
	// A concurrent insert wins the race; the unique index reports it
	mocks.entries.On("Create", mock.Anything, mock.AnythingOfType("*domain.MoodEntry")).
		Return(repository.ErrDuplicateEntry)

	_, err = svc.SubmitEntry(ctx, "user-1", 1, &domain.SubmitMoodRequest{
		Rating:    4,
		EntryDate: today.String(),
	})

	require.Error(t, err)
	appErr := appErrorFrom(t, err)
	assert.Equal(t, 409, appErr.StatusCode)
	assert.Equal(t, "duplicate_entry", appErr.Reason)
}

func TestMoodService_SubmitEntry_NotAMember(t *testing.T) {
	svc, mocks := newTestMoodService()
	ctx := context.Background()

	team := everyDayTeam()
	today, err := dates.Today("UTC")
	require.NoError(t, err)

	mocks.teams.On("GetByID", mock.Anything, int64(1)).Return(team, nil)
	mocks.memberships.On("Get", mock.Anything, int64(1), "stranger").Return(nil, nil)
	mocks.entries.On("GetForDate", mock.Anything, int64(1), "stranger", today).Return(nil, nil)

	_, err = svc.SubmitEntry(ctx, "stranger", 1, &domain.SubmitMoodRequest{
		Rating:    4,
		EntryDate: today.String(),
	})

	require.Error(t, err)
	appErr := appErrorFrom(t, err)
	assert.Equal(t, 403, appErr.StatusCode)
	assert.Equal(t, "not_a_member", appErr.Reason)
}

func TestMoodService_SubmitEntry_TeamNotFound(t *testing.T) {
	svc, mocks := newTestMoodService()
	ctx := context.Background()

	mocks.teams.On("GetByID", mock.Anything, int64(99)).Return(nil, nil)

	_, err := svc.SubmitEntry(ctx, "user-1", 99, &domain.SubmitMoodRequest{Rating: 4})

	require.Error(t, err)
	appErr := appErrorFrom(t, err)
	assert.Equal(t, 404, appErr.StatusCode)
}

func TestMoodService_SubmitEntry_MalformedDate(t *testing.T) {
	svc, mocks := newTestMoodService()
	ctx := context.Background()

	mocks.teams.On("GetByID", mock.Anything, int64(1)).Return(everyDayTeam(), nil)

	_, err := svc.SubmitEntry(ctx, "user-1", 1, &domain.SubmitMoodRequest{
		Rating:    4,
		EntryDate: "04/03/2024",
	})

	require.Error(t, err)
	appErr := appErrorFrom(t, err)
	assert.Equal(t, 400, appErr.StatusCode)
	assert.Equal(t, "invalid_date_format", appErr.Reason)
}

func TestMoodService_DefaultEntryDate_NoPollDayConfigured(t *testing.T) {
	svc, mocks := newTestMoodService()
	ctx := context.Background()

	team := everyDayTeam()
	team.PollDays = domain.PollDays{} // all days disabled

	mocks.teams.On("GetByID", mock.Anything, int64(1)).Return(team, nil)
	mocks.memberships.On("Get", mock.Anything, int64(1), "user-1").
		Return(&domain.Membership{TeamID: 1, UserID: "user-1", Role: domain.RoleMember}, nil)

	_, err := svc.DefaultEntryDate(ctx, 1, "user-1")

	require.Error(t, err)
	appErr := appErrorFrom(t, err)
	assert.Equal(t, 409, appErr.StatusCode)
	assert.Equal(t, "no_poll_day_configured", appErr.Reason)
}

func TestMoodService_UpdateEntry_NotOwner(t *testing.T) {
	svc, mocks := newTestMoodService()
	ctx := context.Background()

	team := everyDayTeam()
	today, err := dates.Today("UTC")
	require.NoError(t, err)

	stored := &domain.MoodEntry{
		ID:         7,
		UserID:     "owner",
		TeamID:     1,
		Rating:     3,
		Visibility: domain.VisibilityPublic,
		EntryDate:  today,
	}

	mocks.entries.On("GetByID", mock.Anything, int64(7)).Return(stored, nil)
	mocks.teams.On("GetByID", mock.Anything, int64(1)).Return(team, nil)
	mocks.memberships.On("Get", mock.Anything, int64(1), "intruder").
		Return(&domain.Membership{TeamID: 1, UserID: "intruder", Role: domain.RoleMember}, nil)

	_, err = svc.UpdateEntry(ctx, "intruder", 7, &domain.UpdateMoodRequest{Rating: 5})

	require.Error(t, err)
	appErr := appErrorFrom(t, err)
	assert.Equal(t, 403, appErr.StatusCode)
	assert.Equal(t, "not_owner", appErr.Reason)
	mocks.entries.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestMoodService_UpdateEntry_Success(t *testing.T) {
	svc, mocks := newTestMoodService()
	ctx := context.Background()

	team := everyDayTeam()
	today, err := dates.Today("UTC")
	require.NoError(t, err)

	stored := &domain.MoodEntry{
		ID:         7,
		UserID:     "user-1",
		TeamID:     1,
		Rating:     3,
		Visibility: domain.VisibilityPublic,
		EntryDate:  today,
	}

	mocks.entries.On("GetByID", mock.Anything, int64(7)).Return(stored, nil)
	mocks.teams.On("GetByID", mock.Anything, int64(1)).Return(team, nil)
	mocks.memberships.On("Get", mock.Anything, int64(1), "user-1").
		Return(&domain.Membership{TeamID: 1, UserID: "user-1", Role: domain.RoleMember}, nil)
	mocks.entries.On("Update", mock.Anything, mock.AnythingOfType("*domain.MoodEntry")).Return(nil)

	updated, err := svc.UpdateEntry(ctx, "user-1", 7, &domain.UpdateMoodRequest{
		Rating:     5,
		Comment:    "turned the week around",
		Visibility: domain.VisibilityPrivate,
	})

	require.NoError(t, err)
	assert.Equal(t, 5, updated.Rating)
	assert.Equal(t, "turned the week around", updated.Comment)
	assert.Equal(t, domain.VisibilityPrivate, updated.Visibility)
	assert.Equal(t, today, updated.EntryDate, "entry date must not change on update")
}

func TestMoodService_DeleteEntry(t *testing.T) {
	svc, mocks := newTestMoodService()
	ctx := context.Background()

	today, err := dates.Today("UTC")
	require.NoError(t, err)

	stored := &domain.MoodEntry{ID: 7, UserID: "user-1", TeamID: 1, EntryDate: today}

	mocks.entries.On("GetByID", mock.Anything, int64(7)).Return(stored, nil)
	mocks.entries.On("Delete", mock.Anything, int64(7)).Return(nil)

	err = svc.DeleteEntry(ctx, "user-1", 7)
	require.NoError(t, err)
	mocks.entries.AssertExpectations(t)
}

func TestMoodService_DeleteEntry_NotFound(t *testing.T) {
	svc, mocks := newTestMoodService()
	ctx := context.Background()

	mocks.entries.On("GetByID", mock.Anything, int64(404)).Return(nil, nil)

	err := svc.DeleteEntry(ctx, "user-1", 404)
	require.Error(t, err)
	appErr := appErrorFrom(t, err)
	assert.Equal(t, 404, appErr.StatusCode)
}

func TestMoodService_ListTeamEntries_FiltersPrivate(t *testing.T) {
	svc, mocks := newTestMoodService()
	ctx := context.Background()

	from, _ := dates.Parse("2024-01-01")
	to, _ := dates.Parse("2024-01-31")
	day, _ := dates.Parse("2024-01-15")

	rows := []*domain.MoodEntry{
		{ID: 1, UserID: "user-1", TeamID: 1, Rating: 4, Visibility: domain.VisibilityPublic, EntryDate: day},
		{ID: 2, UserID: "user-2", TeamID: 1, Rating: 2, Visibility: domain.VisibilityPrivate, EntryDate: day},
		{ID: 3, UserID: "user-1", TeamID: 1, Rating: 3, Visibility: domain.VisibilityPrivate, EntryDate: day},
	}

	mocks.memberships.On("Get", mock.Anything, int64(1), "user-1").
		Return(&domain.Membership{TeamID: 1, UserID: "user-1", Role: domain.RoleMember}, nil)
	mocks.entries.On("ListForRange", mock.Anything, int64(1), from, to).Return(rows, nil)

	entries, err := svc.ListTeamEntries(ctx, "user-1", 1, from, to)
	require.NoError(t, err)

	// user-2's private entry is hidden; user-1 sees their own private entry
	require.Len(t, entries, 2)
	assert.Equal(t, int64(1), entries[0].ID)
	assert.Equal(t, int64(3), entries[1].ID)
}
