// Copyright (c) 2026 FourT. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package points (Postgres) implements the storage layer for the points ledger.

# Schema Table Mapping
  - users.account: Balance, lifetime total, and rank columns.
  - community.pointtransaction: Append-only ledger of every balance change.

# Consistency

Balance mutations pair the account update with the ledger insert inside a
single transaction. Debits use a conditional UPDATE guarded by the current
balance, which makes concurrent spends against one account safe without
row locks held across application code.
*/
package points

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fourt/community/internal/platform/apperr"
	"github.com/fourt/community/internal/platform/database/schema"
	"github.com/fourt/community/pkg/uuid"
)

// # Repository Implementation

// PostgresRepository implements [Repository] using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Postgres implementation of the ledger.
func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

/*
Credit adds points to a user's balance and records the ledger entry.

Parameters:
  - context: context.Context
  - userID: string
  - amount: int
  - reason: string
  - referenceID: *string

Returns:
  - int: Balance after the credit
  - error: apperr.NotFound or persistence failures
*/
func (repository *PostgresRepository) Credit(context context.Context, userID string, amount int, reason string, referenceID *string) (int, error) {
	tx, err := repository.pool.Begin(context)
	if err != nil {
		return 0, fmt.Errorf("postgres_points_repo_credit_begin_failed: %w", err)
	}
	defer tx.Rollback(context)

	balance, err := CreditTx(context, tx, userID, amount, reason, referenceID)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(context); err != nil {
		return 0, fmt.Errorf("postgres_points_repo_credit_commit_failed: %w", err)
	}

	return balance, nil
}

/*
CreditTx applies a credit inside an existing transaction.

Description: Shared with the midi store, whose download transaction credits
the uploader in the same unit of work as the buyer's debit.
*/
func CreditTx(context context.Context, tx pgx.Tx, userID string, amount int, reason string, referenceID *string) (int, error) {
	updateQuery := fmt.Sprintf(`
		UPDATE %s
		SET %s = %s + $2, %s = %s + $2, %s = NOW()
		WHERE %s = $1 AND %s IS NULL
		RETURNING %s, %s`,
		schema.UserAccount.Table,
		schema.UserAccount.Points, schema.UserAccount.Points,
		schema.UserAccount.TotalPointsEarned, schema.UserAccount.TotalPointsEarned,
		schema.UserAccount.UpdatedAt,
		schema.UserAccount.ID, schema.UserAccount.DeletedAt,
		schema.UserAccount.Points, schema.UserAccount.TotalPointsEarned,
	)

	var balance, totalEarned int
	err := tx.QueryRow(context, updateQuery, userID, amount).Scan(&balance, &totalEarned)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperr.NotFound("Account")
		}
		return 0, fmt.Errorf("postgres_points_repo_credit_failed: %w", err)
	}

	// Rank follows lifetime earnings, never the spendable balance.
	rankQuery := fmt.Sprintf(`UPDATE %s SET %s = $2 WHERE %s = $1 AND %s != $2`,
		schema.UserAccount.Table, schema.UserAccount.Rank,
		schema.UserAccount.ID, schema.UserAccount.Rank)
	if _, err := tx.Exec(context, rankQuery, userID, string(RankFor(totalEarned))); err != nil {
		return 0, fmt.Errorf("postgres_points_repo_credit_rank_failed: %w", err)
	}

	if err := insertTransactionTx(context, tx, userID, amount, reason, referenceID); err != nil {
		return 0, err
	}

	return balance, nil
}

/*
Debit removes points from a user's balance if sufficient funds exist.

Parameters:
  - context: context.Context
  - userID: string
  - amount: int
  - reason: string
  - referenceID: *string

Returns:
  - int: Balance after the debit
  - error: apperr.PaymentRequired, apperr.NotFound, or persistence failures
*/
func (repository *PostgresRepository) Debit(context context.Context, userID string, amount int, reason string, referenceID *string) (int, error) {
	tx, err := repository.pool.Begin(context)
	if err != nil {
		return 0, fmt.Errorf("postgres_points_repo_debit_begin_failed: %w", err)
	}
	defer tx.Rollback(context)

	balance, err := DebitTx(context, tx, userID, amount, reason, referenceID)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(context); err != nil {
		return 0, fmt.Errorf("postgres_points_repo_debit_commit_failed: %w", err)
	}

	return balance, nil
}

// DebitTx applies a guarded debit inside an existing transaction.
func DebitTx(context context.Context, tx pgx.Tx, userID string, amount int, reason string, referenceID *string) (int, error) {
	updateQuery := fmt.Sprintf(`
		UPDATE %s
		SET %s = %s - $2, %s = NOW()
		WHERE %s = $1 AND %s >= $2 AND %s IS NULL
		RETURNING %s`,
		schema.UserAccount.Table,
		schema.UserAccount.Points, schema.UserAccount.Points, schema.UserAccount.UpdatedAt,
		schema.UserAccount.ID, schema.UserAccount.Points, schema.UserAccount.DeletedAt,
		schema.UserAccount.Points,
	)

	var balance int
	err := tx.QueryRow(context, updateQuery, userID, amount).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Distinguish a missing account from an insufficient balance.
			existsQuery := fmt.Sprintf(`SELECT 1 FROM %s WHERE %s = $1 AND %s IS NULL`,
				schema.UserAccount.Table, schema.UserAccount.ID, schema.UserAccount.DeletedAt)
			var one int
			if checkErr := tx.QueryRow(context, existsQuery, userID).Scan(&one); checkErr != nil {
				if errors.Is(checkErr, pgx.ErrNoRows) {
					return 0, apperr.NotFound("Account")
				}
				return 0, fmt.Errorf("postgres_points_repo_debit_check_failed: %w", checkErr)
			}
			return 0, apperr.PaymentRequired("Insufficient points")
		}
		return 0, fmt.Errorf("postgres_points_repo_debit_failed: %w", err)
	}

	if err := insertTransactionTx(context, tx, userID, -amount, reason, referenceID); err != nil {
		return 0, err
	}

	return balance, nil
}

// insertTransactionTx appends one ledger row.
func insertTransactionTx(context context.Context, tx pgx.Tx, userID string, amount int, reason string, referenceID *string) error {
	insertQuery := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, NOW())`,
		schema.PointTransaction.Table,
		schema.PointTransaction.ID, schema.PointTransaction.UserID, schema.PointTransaction.Amount,
		schema.PointTransaction.Reason, schema.PointTransaction.ReferenceID, schema.PointTransaction.CreatedAt,
	)

	_, err := tx.Exec(context, insertQuery, uuid.New(), userID, amount, reason, referenceID)
	if err != nil {
		return fmt.Errorf("postgres_points_repo_insert_transaction_failed: %w", err)
	}

	return nil
}

/*
EarnedToday sums the points credited to a user for a reason since UTC midnight.

Parameters:
  - context: context.Context
  - userID: string
  - reason: string

Returns:
  - int: Total credited today
  - error: Query failures
*/
func (repository *PostgresRepository) EarnedToday(context context.Context, userID, reason string) (int, error) {
	query := fmt.Sprintf(`
		SELECT COALESCE(SUM(%s), 0)
		FROM %s
		WHERE %s = $1 AND %s = $2 AND %s > 0
		  AND %s >= date_trunc('day', NOW() AT TIME ZONE 'UTC')`,
		schema.PointTransaction.Amount,
		schema.PointTransaction.Table,
		schema.PointTransaction.UserID, schema.PointTransaction.Reason, schema.PointTransaction.Amount,
		schema.PointTransaction.CreatedAt,
	)

	var total int
	if err := repository.pool.QueryRow(context, query, userID, reason).Scan(&total); err != nil {
		return 0, fmt.Errorf("postgres_points_repo_earned_today_failed: %w", err)
	}

	return total, nil
}

/*
LastEarnedAt returns the time of the most recent credit for a reason.

Parameters:
  - context: context.Context
  - userID: string
  - reason: string

Returns:
  - *time.Time: nil when no credit exists
  - error: Query failures
*/
func (repository *PostgresRepository) LastEarnedAt(context context.Context, userID, reason string) (*time.Time, error) {
	query := fmt.Sprintf(`
		SELECT MAX(%s)
		FROM %s
		WHERE %s = $1 AND %s = $2 AND %s > 0`,
		schema.PointTransaction.CreatedAt,
		schema.PointTransaction.Table,
		schema.PointTransaction.UserID, schema.PointTransaction.Reason, schema.PointTransaction.Amount,
	)

	var latest *time.Time
	if err := repository.pool.QueryRow(context, query, userID, reason).Scan(&latest); err != nil {
		return nil, fmt.Errorf("postgres_points_repo_last_earned_at_failed: %w", err)
	}

	return latest, nil
}

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
func (repository *PostgresRepository) History(context context.Context, userID string, limit, offset int) ([]Transaction, int, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s, COUNT(*) OVER() AS total
		FROM %s
		WHERE %s = $1
		ORDER BY %s DESC
		LIMIT $2 OFFSET $3`,
		schema.PointTransaction.ID, schema.PointTransaction.UserID, schema.PointTransaction.Amount,
		schema.PointTransaction.Reason, schema.PointTransaction.ReferenceID, schema.PointTransaction.CreatedAt,
		schema.PointTransaction.Table,
		schema.PointTransaction.UserID,
		schema.PointTransaction.CreatedAt,
	)

	rows, err := repository.pool.Query(context, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_points_repo_history_failed: %w", err)
	}
	defer rows.Close()

	var transactions []Transaction
	var total int
	for rows.Next() {
		var transaction Transaction
		if err := rows.Scan(
			&transaction.ID,
			&transaction.UserID,
			&transaction.Amount,
			&transaction.Reason,
			&transaction.ReferenceID,
			&transaction.CreatedAt,
			&total,
		); err != nil {
			return nil, 0, fmt.Errorf("postgres_points_repo_history_scan_failed: %w", err)
		}
		transactions = append(transactions, transaction)
	}

	return transactions, total, nil
}

/*
Leaderboard returns the top users ordered by lifetime earned points.

Parameters:
  - context: context.Context
  - limit: int

Returns:
  - []LeaderboardEntry: Ranked standings
  - error: Query failures
*/
func (repository *PostgresRepository) Leaderboard(context context.Context, limit int) ([]LeaderboardEntry, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s
		FROM %s
		WHERE %s IS NULL
		ORDER BY %s DESC, %s ASC
		LIMIT $1`,
		schema.UserAccount.ID, schema.UserAccount.Username, schema.UserAccount.Rank,
		schema.UserAccount.TotalPointsEarned,
		schema.UserAccount.Table,
		schema.UserAccount.DeletedAt,
		schema.UserAccount.TotalPointsEarned, schema.UserAccount.CreatedAt,
	)

	rows, err := repository.pool.Query(context, query, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres_points_repo_leaderboard_failed: %w", err)
	}
	defer rows.Close()

	var entries []LeaderboardEntry
	position := 0
	for rows.Next() {
		var entry LeaderboardEntry
		if err := rows.Scan(&entry.UserID, &entry.Username, &entry.Rank, &entry.TotalPointsEarned); err != nil {
			return nil, fmt.Errorf("postgres_points_repo_leaderboard_scan_failed: %w", err)
		}
		position++
		entry.Position = position
		entries = append(entries, entry)
	}

	return entries, nil
}
