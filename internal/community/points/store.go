// Copyright (c) 2026 FourT. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package points

import (
	"context"
	"time"
)

// # Ledger Data Access

// Repository defines the data access contract for the points ledger.
//
// Every balance mutation goes through [Repository.Credit] or
// [Repository.Debit]; both write a pointtransaction row and adjust the
// account balance inside a single database transaction so the ledger and
// the balance can never drift apart.
type Repository interface {

	/*
		Credit adds points to a user's balance and records the ledger entry.

		Description: Earned points also advance totalpointsearned, which
		drives rank progression. The account's rank is recomputed from the
		new lifetime total in the same transaction.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - amount: int (must be positive)
		  - reason: string (one of the Reason* constants)
		  - referenceID: *string (optional related entity ID)

		Returns:
		  - int: The balance after the credit
		  - error: Persistence failures
	*/
	Credit(context context.Context, userID string, amount int, reason string, referenceID *string) (int, error)

	/*
		Debit removes points from a user's balance if sufficient funds exist.

		Description: The deduction is a single conditional UPDATE guarded by
		points >= amount, so concurrent debits against the same account can
		never drive the balance negative. Spending does not reduce
		totalpointsearned.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - amount: int (must be positive)
		  - reason: string
		  - referenceID: *string

		Returns:
		  - int: The balance after the debit
		  - error: apperr.PaymentRequired when funds are insufficient
	*/
	Debit(context context.Context, userID string, amount int, reason string, referenceID *string) (int, error)

	/*
		EarnedToday sums the points credited to a user for a reason since
		local midnight UTC.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - reason: string

		Returns:
		  - int: Total credited today
		  - error: Query failures
	*/
	EarnedToday(context context.Context, userID, reason string) (int, error)

	/*
		LastEarnedAt returns the time of the most recent credit for a reason.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - reason: string

		Returns:
		  - *time.Time: nil when the user has never earned for this reason
		  - error: Query failures
	*/
	LastEarnedAt(context context.Context, userID, reason string) (*time.Time, error)

	/*
		History returns a page of a user's ledger entries, newest first.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - limit: int
		  - offset: int

		Returns:
		  - []Transaction: Page of entries
		  - int: Total entry count for the user
		  - error: Query failures
	*/
	History(context context.Context, userID string, limit, offset int) ([]Transaction, int, error)

	/*
		Leaderboard returns the top users ordered by lifetime earned points.

		Parameters:
		  - context: context.Context
		  - limit: int

		Returns:
		  - []LeaderboardEntry: Ranked standings
		  - error: Query failures
	*/
	Leaderboard(context context.Context, limit int) ([]LeaderboardEntry, error)
}
