// Copyright (c) 2026 FourT. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package points_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fourt/community/internal/community/points"
	"github.com/fourt/community/internal/platform/apperr"
)

// fakeLedger is an in-memory [points.Repository] with the same conditional
// debit semantics as the Postgres implementation.
type fakeLedger struct {
	mutex        sync.Mutex
	balances     map[string]int
	transactions []points.Transaction
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{balances: map[string]int{}}
}

func (ledger *fakeLedger) Credit(_ context.Context, userID string, amount int, reason string, referenceID *string) (int, error) {
	ledger.mutex.Lock()
	defer ledger.mutex.Unlock()

	ledger.balances[userID] += amount
	ledger.transactions = append(ledger.transactions, points.Transaction{
		UserID: userID, Amount: amount, Reason: reason, ReferenceID: referenceID, CreatedAt: time.Now(),
	})
	return ledger.balances[userID], nil
}

func (ledger *fakeLedger) Debit(_ context.Context, userID string, amount int, reason string, referenceID *string) (int, error) {
	ledger.mutex.Lock()
	defer ledger.mutex.Unlock()

	if ledger.balances[userID] < amount {
		return 0, apperr.PaymentRequired("Insufficient points")
	}
	ledger.balances[userID] -= amount
	ledger.transactions = append(ledger.transactions, points.Transaction{
		UserID: userID, Amount: -amount, Reason: reason, ReferenceID: referenceID, CreatedAt: time.Now(),
	})
	return ledger.balances[userID], nil
}

func (ledger *fakeLedger) EarnedToday(_ context.Context, userID, reason string) (int, error) {
	ledger.mutex.Lock()
	defer ledger.mutex.Unlock()

	total := 0
	for _, transaction := range ledger.transactions {
		if transaction.UserID == userID && transaction.Reason == reason && transaction.Amount > 0 {
			total += transaction.Amount
		}
	}
	return total, nil
}

func (ledger *fakeLedger) LastEarnedAt(_ context.Context, userID, reason string) (*time.Time, error) {
	ledger.mutex.Lock()
	defer ledger.mutex.Unlock()

	var latest *time.Time
	for _, transaction := range ledger.transactions {
		if transaction.UserID == userID && transaction.Reason == reason && transaction.Amount > 0 {
			at := transaction.CreatedAt
			latest = &at
		}
	}
	return latest, nil
}

func (ledger *fakeLedger) History(_ context.Context, userID string, limit, offset int) ([]points.Transaction, int, error) {
	ledger.mutex.Lock()
	defer ledger.mutex.Unlock()

	var all []points.Transaction
	for index := len(ledger.transactions) - 1; index >= 0; index-- {
		if ledger.transactions[index].UserID == userID {
			all = append(all, ledger.transactions[index])
		}
	}

	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (ledger *fakeLedger) Leaderboard(_ context.Context, limit int) ([]points.LeaderboardEntry, error) {
	return nil, nil
}

func TestService_Credit(t *testing.T) {
	service := points.NewService(newFakeLedger())

	balance, err := service.Credit(context.Background(), "user-1", points.RegisterBonus, points.ReasonRegisterBonus, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, balance)

	balance, err = service.Credit(context.Background(), "user-1", 2, points.ReasonDailyCheckin, nil)
	require.NoError(t, err)
	assert.Equal(t, 7, balance)
}

func TestService_Credit_RejectsNonPositiveAmount(t *testing.T) {
	service := points.NewService(newFakeLedger())

	_, err := service.Credit(context.Background(), "user-1", 0, points.ReasonComment, nil)
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)

	_, err = service.Credit(context.Background(), "user-1", -3, points.ReasonComment, nil)
	require.Error(t, err)
}

func TestService_Debit_InsufficientBalance(t *testing.T) {
	ledger := newFakeLedger()
	service := points.NewService(ledger)

	_, err := service.Credit(context.Background(), "user-1", 2, points.ReasonDailyCheckin, nil)
	require.NoError(t, err)

	_, err = service.Debit(context.Background(), "user-1", 3, points.ReasonDownloadMidi, nil)
	require.Error(t, err)

	var appError *apperr.AppError
	require.True(t, errors.As(err, &appError))
	assert.Equal(t, "INSUFFICIENT_POINTS", appError.Code)

	// The failed debit must not touch the balance.
	balance, err := service.Debit(context.Background(), "user-1", 2, points.ReasonDownloadMidi, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, balance)
}

func TestService_Debit_RejectsNonPositiveAmount(t *testing.T) {
	service := points.NewService(newFakeLedger())

	_, err := service.Debit(context.Background(), "user-1", 0, points.ReasonDownloadMidi, nil)
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
}

func TestService_CanEarnCommentPoints_DailyCap(t *testing.T) {
	ledger := newFakeLedger()
	service := points.NewService(ledger)

	// Seed three rewarded comments well outside the cooldown window.
	for index := 0; index < 3; index++ {
		ledger.transactions = append(ledger.transactions, points.Transaction{
			UserID: "user-1", Amount: points.CommentReward, Reason: points.ReasonComment,
			CreatedAt: time.Now().Add(-2 * time.Hour),
		})
	}

	allowed, err := service.CanEarnCommentPoints(context.Background(), "user-1")
	require.NoError(t, err)
	assert.False(t, allowed, "daily cap of %d points must block the reward", points.MaxCommentPointsPerDay)
}

func TestService_CanEarnCommentPoints_Cooldown(t *testing.T) {
	ledger := newFakeLedger()
	service := points.NewService(ledger)

	ledger.transactions = append(ledger.transactions, points.Transaction{
		UserID: "user-1", Amount: points.CommentReward, Reason: points.ReasonComment,
		CreatedAt: time.Now().Add(-time.Minute),
	})

	allowed, err := service.CanEarnCommentPoints(context.Background(), "user-1")
	require.NoError(t, err)
	assert.False(t, allowed, "a comment one minute ago is inside the cooldown")
}

func TestService_CanEarnCommentPoints_Allowed(t *testing.T) {
	ledger := newFakeLedger()
	service := points.NewService(ledger)

	ledger.transactions = append(ledger.transactions, points.Transaction{
		UserID: "user-1", Amount: points.CommentReward, Reason: points.ReasonComment,
		CreatedAt: time.Now().Add(-10 * time.Minute),
	})

	allowed, err := service.CanEarnCommentPoints(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestService_CanEarnUploadPoints_Cooldown(t *testing.T) {
	ledger := newFakeLedger()
	service := points.NewService(ledger)

	ledger.transactions = append(ledger.transactions, points.Transaction{
		UserID: "user-1", Amount: points.UploadApprovedReward, Reason: points.ReasonUploadApproved,
		CreatedAt: time.Now().Add(-5 * time.Minute),
	})

	allowed, err := service.CanEarnUploadPoints(context.Background(), "user-1")
	require.NoError(t, err)
	assert.False(t, allowed, "an approval five minutes ago is inside the 30 minute cooldown")
}

func TestService_History_ClampsPagination(t *testing.T) {
	ledger := newFakeLedger()
	service := points.NewService(ledger)

	for index := 0; index < 5; index++ {
		_, err := service.Credit(context.Background(), "user-1", 1, points.ReasonComment, nil)
		require.NoError(t, err)
	}

	transactions, total, err := service.History(context.Background(), "user-1", 0, -10)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Len(t, transactions, 5)

	transactions, total, err = service.History(context.Background(), "user-1", 2, 4)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Len(t, transactions, 1)
}
