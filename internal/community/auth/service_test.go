// Copyright (c) 2026 FourT. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fourt/community/internal/community/auth"
	"github.com/fourt/community/internal/community/points"
	"github.com/fourt/community/internal/platform/apperr"
	"github.com/fourt/community/internal/platform/sec"
)

// # Test Doubles

type fakeUserRepository struct {
	users map[string]*auth.User // keyed by ID
}

func newFakeUserRepository() *fakeUserRepository {
	return &fakeUserRepository{users: map[string]*auth.User{}}
}

func (repo *fakeUserRepository) FindByID(_ context.Context, id string) (*auth.User, error) {
	if user, ok := repo.users[id]; ok {
		return user, nil
	}
	return nil, apperr.NotFound("User")
}

func (repo *fakeUserRepository) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	for _, user := range repo.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (repo *fakeUserRepository) FindByUsername(_ context.Context, username string) (*auth.User, error) {
	for _, user := range repo.users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (repo *fakeUserRepository) CreateWithBonus(_ context.Context, user *auth.User, bonus int) error {
	user.Points = bonus
	user.TotalPointsEarned = bonus
	repo.users[user.ID] = user
	return nil
}

func (repo *fakeUserRepository) CheckinClaim(_ context.Context, userID string, streakDay int, now time.Time) error {
	user, ok := repo.users[userID]
	if !ok {
		return apperr.NotFound("User")
	}
	today := now.UTC().Truncate(24 * time.Hour)
	if user.LastCheckinAt != nil && !user.LastCheckinAt.UTC().Truncate(24*time.Hour).Before(today) {
		return apperr.Conflict("Already checked in today")
	}
	claimedAt := now.UTC()
	user.CheckinStreak = streakDay
	user.LastCheckinAt = &claimedAt
	return nil
}

type fakeSessionRepository struct {
	sessions map[string]*auth.Session // keyed by ID
}

func newFakeSessionRepository() *fakeSessionRepository {
	return &fakeSessionRepository{sessions: map[string]*auth.Session{}}
}

func (repo *fakeSessionRepository) Create(_ context.Context, session *auth.Session) error {
	clone := *session
	repo.sessions[session.ID] = &clone
	return nil
}

func (repo *fakeSessionRepository) FindByTokenHash(_ context.Context, tokenHash string) (*auth.Session, error) {
	for _, session := range repo.sessions {
		if session.TokenHash == tokenHash && !session.IsRevoked && session.ExpiresAt.After(time.Now()) {
			return session, nil
		}
	}
	return nil, apperr.NotFound("Session")
}

func (repo *fakeSessionRepository) FindRevokedByTokenHash(_ context.Context, tokenHash string) (*auth.Session, error) {
	for _, session := range repo.sessions {
		if session.TokenHash == tokenHash && session.IsRevoked {
			return session, nil
		}
	}
	return nil, apperr.NotFound("Session")
}

func (repo *fakeSessionRepository) Revoke(_ context.Context, sessionID string) error {
	if session, ok := repo.sessions[sessionID]; ok {
		session.IsRevoked = true
	}
	return nil
}

func (repo *fakeSessionRepository) RevokeAll(_ context.Context, userID string) error {
	for _, session := range repo.sessions {
		if session.UserID == userID {
			session.IsRevoked = true
		}
	}
	return nil
}

func (repo *fakeSessionRepository) liveCount(userID string) int {
	count := 0
	for _, session := range repo.sessions {
		if session.UserID == userID && !session.IsRevoked {
			count++
		}
	}
	return count
}

type fakeLedger struct {
	balances map[string]int
}

func (ledger *fakeLedger) Credit(_ context.Context, userID string, amount int, reason string, _ *string) (int, error) {
	ledger.balances[userID] += amount
	return ledger.balances[userID], nil
}

type fakeTokenProvider struct{}

func (fakeTokenProvider) GenerateAccessToken(userID, username, rank string, isAdmin bool, _ time.Duration) (string, error) {
	return "jwt-" + userID, nil
}

func newTestService() (*auth.Service, *fakeUserRepository, *fakeSessionRepository, *fakeLedger) {
	users := newFakeUserRepository()
	sessions := newFakeSessionRepository()
	ledger := &fakeLedger{balances: map[string]int{}}
	service := auth.NewService(users, sessions, ledger, fakeTokenProvider{})
	return service, users, sessions, ledger
}

// # Registration

func TestService_Register(t *testing.T) {
	service, _, _, _ := newTestService()

	user, err := service.Register(context.Background(), auth.RegisterInput{
		Username: "pianist",
		Email:    "pianist@example.com",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, points.RankNewcomer, user.Rank)
	assert.False(t, user.IsAdmin)
	assert.Equal(t, points.RegisterBonus, user.Points, "signup bonus must be on the opening balance")
	assert.NotEqual(t, "correct-horse-battery", user.PasswordHash)
	assert.True(t, sec.CheckPasswordHash("correct-horse-battery", user.PasswordHash))
}

func TestService_Register_DuplicateIdentity(t *testing.T) {
	service, _, _, _ := newTestService()

	_, err := service.Register(context.Background(), auth.RegisterInput{
		Username: "pianist", Email: "pianist@example.com", Password: "secret-password",
	})
	require.NoError(t, err)

	_, err = service.Register(context.Background(), auth.RegisterInput{
		Username: "other", Email: "pianist@example.com", Password: "secret-password",
	})
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperr.As(err).Code)

	_, err = service.Register(context.Background(), auth.RegisterInput{
		Username: "pianist", Email: "other@example.com", Password: "secret-password",
	})
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperr.As(err).Code)
}

// # Login & Session Rotation

func TestService_Login(t *testing.T) {
	service, _, sessions, _ := newTestService()

	user, err := service.Register(context.Background(), auth.RegisterInput{
		Username: "pianist", Email: "pianist@example.com", Password: "secret-password",
	})
	require.NoError(t, err)

	// Username and email logins both resolve the same account.
	session, err := service.Login(context.Background(), auth.LoginInput{Login: "pianist", Password: "secret-password"})
	require.NoError(t, err)
	assert.Equal(t, "jwt-"+user.ID, session.AccessToken)
	assert.NotEmpty(t, session.RefreshToken)

	_, err = service.Login(context.Background(), auth.LoginInput{Login: "pianist@example.com", Password: "secret-password"})
	require.NoError(t, err)

	assert.Equal(t, 2, sessions.liveCount(user.ID))
}

func TestService_Login_WrongPassword(t *testing.T) {
	service, _, _, _ := newTestService()

	_, err := service.Register(context.Background(), auth.RegisterInput{
		Username: "pianist", Email: "pianist@example.com", Password: "secret-password",
	})
	require.NoError(t, err)

	_, err = service.Login(context.Background(), auth.LoginInput{Login: "pianist", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", apperr.As(err).Code)
}

func TestService_RefreshSession_Rotates(t *testing.T) {
	service, _, sessions, _ := newTestService()

	user, err := service.Register(context.Background(), auth.RegisterInput{
		Username: "pianist", Email: "pianist@example.com", Password: "secret-password",
	})
	require.NoError(t, err)

	login, err := service.Login(context.Background(), auth.LoginInput{Login: "pianist", Password: "secret-password"})
	require.NoError(t, err)

	refreshed, err := service.RefreshSession(context.Background(), login.RefreshToken, "ua", "ip")
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken, "rotation must mint a new token")
	assert.Equal(t, 1, sessions.liveCount(user.ID), "the rotated-out session must be revoked")
}

func TestService_RefreshSession_ReuseRevokesEverything(t *testing.T) {
	service, _, sessions, _ := newTestService()

	user, err := service.Register(context.Background(), auth.RegisterInput{
		Username: "pianist", Email: "pianist@example.com", Password: "secret-password",
	})
	require.NoError(t, err)

	login, err := service.Login(context.Background(), auth.LoginInput{Login: "pianist", Password: "secret-password"})
	require.NoError(t, err)

	_, err = service.RefreshSession(context.Background(), login.RefreshToken, "ua", "ip")
	require.NoError(t, err)

	// Presenting the rotated-out token again is treated as theft.
	_, err = service.RefreshSession(context.Background(), login.RefreshToken, "ua", "ip")
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", apperr.As(err).Code)
	assert.Equal(t, 0, sessions.liveCount(user.ID), "reuse must revoke the whole session family")
}

func TestService_Logout_Idempotent(t *testing.T) {
	service, _, _, _ := newTestService()

	require.NoError(t, service.Logout(context.Background(), "never-issued-token"))
}

// # Daily Check-In

func TestService_Checkin(t *testing.T) {
	service, _, _, ledger := newTestService()

	user, err := service.Register(context.Background(), auth.RegisterInput{
		Username: "pianist", Email: "pianist@example.com", Password: "secret-password",
	})
	require.NoError(t, err)

	result, err := service.Checkin(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.StreakDay)
	assert.Equal(t, auth.CheckinBaseReward, result.Reward)
	assert.Equal(t, auth.CheckinBaseReward, ledger.balances[user.ID])

	// Second check-in on the same day must be rejected.
	_, err = service.Checkin(context.Background(), user.ID)
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperr.As(err).Code)
}

func TestNextStreakDay(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)
	lastWeek := now.AddDate(0, 0, -7)

	testCases := []struct {
		name    string
		streak  int
		last    *time.Time
		want    int
	}{
		{"first_ever", 0, nil, 1},
		{"consecutive", 3, &yesterday, 4},
		{"gap_resets", 10, &lastWeek, 1},
		{"cycle_restarts", auth.CheckinStreakCycle, &yesterday, 1},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.want, auth.NextStreakDay(testCase.streak, testCase.last, now))
		})
	}
}

func TestCheckinReward(t *testing.T) {
	assert.Equal(t, 2, auth.CheckinReward(1))
	assert.Equal(t, 2, auth.CheckinReward(6))
	assert.Equal(t, 5, auth.CheckinReward(7))
	assert.Equal(t, 3, auth.CheckinReward(8))
	assert.Equal(t, 3, auth.CheckinReward(29))
	assert.Equal(t, 15, auth.CheckinReward(30))
}
