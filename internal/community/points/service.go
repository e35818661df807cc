// Copyright (c) 2026 FourT. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package points

import (
	"context"
	"time"

	"github.com/fourt/community/internal/platform/apperr"
)

// # Service

// Service implements the ledger use cases on top of [Repository].
//
// Pricing stays a pure function ([Price]); the service adds validation,
// pagination clamping, and the anti-abuse gates that decide whether an
// action earns a reward at all.
type Service struct {
	repository Repository
}

// NewService constructs a new points [Service].
func NewService(repository Repository) *Service {
	return &Service{repository: repository}
}

// # Balance Mutations

/*
Credit awards points to a user and records the ledger entry.

Parameters:
  - context: context.Context
  - userID: string
  - amount: int (must be positive)
  - reason: string
  - referenceID: *string

Returns:
  - int: Balance after the credit
  - error: apperr.ValidationError for non-positive amounts, persistence failures
*/
func (service *Service) Credit(context context.Context, userID string, amount int, reason string, referenceID *string) (int, error) {
	if amount <= 0 {
		return 0, apperr.ValidationError("Credit amount must be positive", apperr.FieldError{Field: FieldAmount, Message: "must be positive"})
	}
	if reason == "" {
		return 0, apperr.ValidationError("Transaction reason is required", apperr.FieldError{Field: FieldReason, Message: "required"})
	}

	return service.repository.Credit(context, userID, amount, reason, referenceID)
}

/*
Debit spends points from a user's balance.

Description: Delegates the non-negative balance invariant to the storage
layer's conditional update, so two concurrent debits can never overdraw.

Parameters:
  - context: context.Context
  - userID: string
  - amount: int (must be positive)
  - reason: string
  - referenceID: *string

Returns:
  - int: Balance after the debit
  - error: apperr.PaymentRequired when funds are insufficient
*/
func (service *Service) Debit(context context.Context, userID string, amount int, reason string, referenceID *string) (int, error) {
	if amount <= 0 {
		return 0, apperr.ValidationError("Debit amount must be positive", apperr.FieldError{Field: FieldAmount, Message: "must be positive"})
	}
	if reason == "" {
		return 0, apperr.ValidationError("Transaction reason is required", apperr.FieldError{Field: FieldReason, Message: "required"})
	}

	return service.repository.Debit(context, userID, amount, reason, referenceID)
}

// # Anti-Abuse Gates

/*
CanEarnCommentPoints reports whether a new comment should be rewarded.

Description: A comment is always stored; only the reward is gated. The gate
combines the daily cap with a per-comment cooldown.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - bool: true when the comment reward may be credited
  - error: Query failures
*/
func (service *Service) CanEarnCommentPoints(context context.Context, userID string) (bool, error) {
	earned, err := service.repository.EarnedToday(context, userID, ReasonComment)
	if err != nil {
		return false, err
	}
	if earned >= MaxCommentPointsPerDay {
		return false, nil
	}

	last, err := service.repository.LastEarnedAt(context, userID, ReasonComment)
	if err != nil {
		return false, err
	}
	if last != nil && time.Since(*last) < CommentCooldown {
		return false, nil
	}

	return true, nil
}

/*
CanEarnUploadPoints reports whether an upload approval should be rewarded.

Parameters:
  - context: context.Context
  - userID: string (the uploader)

Returns:
  - bool: true when the approval reward may be credited
  - error: Query failures
*/
func (service *Service) CanEarnUploadPoints(context context.Context, userID string) (bool, error) {
	earned, err := service.repository.EarnedToday(context, userID, ReasonUploadApproved)
	if err != nil {
		return false, err
	}
	if earned >= MaxUploadPointsPerDay {
		return false, nil
	}

	last, err := service.repository.LastEarnedAt(context, userID, ReasonUploadApproved)
	if err != nil {
		return false, err
	}
	if last != nil && time.Since(*last) < UploadCooldown {
		return false, nil
	}

	return true, nil
}

// # Queries

/*
History returns a page of a user's ledger entries, newest first.

Parameters:
  - context: context.Context
  - userID: string
  - limit: int (clamped to [1, MaxHistoryLimit]; 0 means the default)
  - offset: int (negative values clamp to 0)

Returns:
  - []Transaction: Page of entries
  - int: Total entry count
  - error: Query failures
*/
func (service *Service) History(context context.Context, userID string, limit, offset int) ([]Transaction, int, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}

	return service.repository.History(context, userID, limit, offset)
}

/*
Leaderboard returns the top earners across the community.

Parameters:
  - context: context.Context
  - limit: int (clamped to [1, MaxLeaderboardLimit]; 0 means the default)

Returns:
  - []LeaderboardEntry: Ranked standings
  - error: Query failures
*/
func (service *Service) Leaderboard(context context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	if limit > MaxLeaderboardLimit {
		limit = MaxLeaderboardLimit
	}

	return service.repository.Leaderboard(context, limit)
}
