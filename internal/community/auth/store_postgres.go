// Copyright (c) 2026 FourT. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package auth (Postgres) implements the storage layer for identity data.
//
// # Architecture
//
// Repositories in this package are strictly separated from domain logic. They
// implement domain-defined interfaces (e.g., [UserRepository]) using the
// [pgxpool.Pool] connection manager.
//
// # err Mapping
//
// Storage-specific errors (like pgx.ErrNoRows) are mapped to domain-friendly
// [apperr.AppError] types to avoid leaking storage implementation details.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fourt/community/internal/community/points"
	"github.com/fourt/community/internal/platform/apperr"
	"github.com/fourt/community/internal/platform/dberr"
)

// # User Repository

// PostgresUserRepository implements the UserRepository interface using pgx.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new PostgreSQL implementation of the UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

const userColumns = `
	id, username, email, passwordhash, rank, isadmin, points,
	totalpointsearned, checkinstreak, lastcheckinat, createdat, updatedat`

func scanUser(row pgx.Row) (*User, error) {
	user := &User{}
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Rank,
		&user.IsAdmin,
		&user.Points,
		&user.TotalPointsEarned,
		&user.CheckinStreak,
		&user.LastCheckinAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	return user, err
}

/*
CreateWithBonus persists a new account and its signup bonus atomically.

Description: The account row is inserted with a zero balance, then the
signup bonus is applied through the shared ledger credit, so the opening
transaction row, the balance, and the rank all come from one code path.

Parameters:
  - context: context.Context
  - user: *User (Entity to persist; balance fields are populated on return)
  - bonus: int

Returns:
  - error: Database constraint violations or connectivity errors
*/
func (repository *PostgresUserRepository) CreateWithBonus(context context.Context, user *User, bonus int) error {
	const query = `
		INSERT INTO users.account (
			id, username, email, passwordhash, rank, isadmin, points,
			totalpointsearned, checkinstreak, createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, $6, 0, 0, 0, $7, $8)`

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	tx, err := repository.pool.Begin(context)
	if err != nil {
		return fmt.Errorf("postgres_user_repo_create_begin_failed: %w", err)
	}
	defer tx.Rollback(context)

	_, err = tx.Exec(context, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.Rank,
		user.IsAdmin,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		// A racing register can slip past the service's uniqueness checks
		// and land on the partial unique indexes.
		return dberr.Wrap(err, "Account")
	}

	if bonus > 0 {
		balance, err := points.CreditTx(context, tx, user.ID, bonus, points.ReasonRegisterBonus, nil)
		if err != nil {
			return fmt.Errorf("postgres_user_repo_create_bonus_failed: %w", err)
		}
		user.Points = balance
		user.TotalPointsEarned = bonus
	}

	if err := tx.Commit(context); err != nil {
		return fmt.Errorf("postgres_user_repo_create_commit_failed: %w", err)
	}

	return nil
}

/*
FindByEmail retrieves a user record by their unique email address.

Description: Performs a lookup on the account table, filtering out soft-deleted users.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresUserRepository) FindByEmail(context context.Context, email string) (*User, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM users.account
		WHERE email = $1 AND deletedat IS NULL`, userColumns)

	user, err := scanUser(repository.pool.QueryRow(context, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User not found with this email")
		}
		return nil, fmt.Errorf("postgres_user_repo_find_by_email_failed: %w", err)
	}

	return user, nil
}

/*
FindByUsername retrieves a user record by their unique username.

Parameters:
  - context: context.Context
  - username: string

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresUserRepository) FindByUsername(context context.Context, username string) (*User, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM users.account
		WHERE username = $1 AND deletedat IS NULL`, userColumns)

	user, err := scanUser(repository.pool.QueryRow(context, query, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User not found with this username")
		}
		return nil, fmt.Errorf("postgres_user_repo_find_by_username_failed: %w", err)
	}

	return user, nil
}

/*
FindByID retrieves a user record by their unique ID.

Parameters:
  - context: context.Context
  - id: string (UUIDv7)

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresUserRepository) FindByID(context context.Context, id string) (*User, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM users.account
		WHERE id = $1 AND deletedat IS NULL`, userColumns)

	user, err := scanUser(repository.pool.QueryRow(context, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User")
		}
		return nil, fmt.Errorf("postgres_user_repo_find_by_id_failed: %w", err)
	}

	return user, nil
}

/*
CheckinClaim marks today's check-in if it has not been claimed yet.

Description: The WHERE clause is the concurrency guard. Two simultaneous
check-ins race on the same row and the second one matches zero rows.

Parameters:
  - context: context.Context
  - userID: string
  - streakDay: int
  - now: time.Time

Returns:
  - error: apperr.Conflict when today is already claimed, apperr.NotFound
    for unknown accounts
*/
func (repository *PostgresUserRepository) CheckinClaim(context context.Context, userID string, streakDay int, now time.Time) error {
	const query = `
		UPDATE users.account
		SET checkinstreak = $2, lastcheckinat = $3, updatedat = $3
		WHERE id = $1 AND deletedat IS NULL
		  AND (lastcheckinat IS NULL OR lastcheckinat < date_trunc('day', $3::timestamptz AT TIME ZONE 'UTC') AT TIME ZONE 'UTC')`

	tag, err := repository.pool.Exec(context, query, userID, streakDay, now.UTC())
	if err != nil {
		return fmt.Errorf("postgres_user_repo_checkin_claim_failed: %w", err)
	}

	if tag.RowsAffected() == 0 {
		const existsQuery = `SELECT 1 FROM users.account WHERE id = $1 AND deletedat IS NULL`
		var one int
		if checkErr := repository.pool.QueryRow(context, existsQuery, userID).Scan(&one); checkErr != nil {
			if errors.Is(checkErr, pgx.ErrNoRows) {
				return apperr.NotFound("User")
			}
			return fmt.Errorf("postgres_user_repo_checkin_check_failed: %w", checkErr)
		}
		return apperr.Conflict("Already checked in today")
	}

	return nil
}

// # Session Repository

// PostgresSessionRepository implements the SessionRepository interface using pgx.
type PostgresSessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new PostgreSQL implementation of the SessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) *PostgresSessionRepository {
	return &PostgresSessionRepository{pool: pool}
}

/*
Create persists a new refresh session row.

Parameters:
  - context: context.Context
  - session: *Session

Returns:
  - error: Persistence failures
*/
func (repository *PostgresSessionRepository) Create(context context.Context, session *Session) error {
	const query = `
		INSERT INTO users.session (
			id, userid, tokenhash, useragent, ipaddress, isrevoked, expiresat, createdat
		) VALUES ($1, $2, $3, $4, $5, false, $6, $7)`

	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}

	_, err := repository.pool.Exec(context, query,
		session.ID,
		session.UserID,
		session.TokenHash,
		session.UserAgent,
		session.IPAddress,
		session.ExpiresAt,
		session.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("postgres_session_repo_create_failed: %w", err)
	}

	return nil
}

const sessionColumns = `id, userid, tokenhash, useragent, ipaddress, isrevoked, expiresat, createdat`

func scanSession(row pgx.Row) (*Session, error) {
	session := &Session{}
	err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.TokenHash,
		&session.UserAgent,
		&session.IPAddress,
		&session.IsRevoked,
		&session.ExpiresAt,
		&session.CreatedAt,
	)
	return session, err
}

/*
FindByTokenHash returns the live session matching a token hash.

Parameters:
  - context: context.Context
  - tokenHash: string

Returns:
  - *Session: Hydrated entity
  - error: apperr.NotFound or retrieval failures
*/
func (repository *PostgresSessionRepository) FindByTokenHash(context context.Context, tokenHash string) (*Session, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM users.session
		WHERE tokenhash = $1 AND isrevoked = false AND expiresat > NOW()`, sessionColumns)

	session, err := scanSession(repository.pool.QueryRow(context, query, tokenHash))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Session")
		}
		return nil, fmt.Errorf("postgres_session_repo_find_failed: %w", err)
	}

	return session, nil
}

/*
FindRevokedByTokenHash returns a session matching a token hash regardless of
revocation state. Supports detection of rotated-token replay.

Parameters:
  - context: context.Context
  - tokenHash: string

Returns:
  - *Session: Hydrated entity
  - error: apperr.NotFound or retrieval failures
*/
func (repository *PostgresSessionRepository) FindRevokedByTokenHash(context context.Context, tokenHash string) (*Session, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM users.session
		WHERE tokenhash = $1 AND isrevoked = true`, sessionColumns)

	session, err := scanSession(repository.pool.QueryRow(context, query, tokenHash))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Session")
		}
		return nil, fmt.Errorf("postgres_session_repo_find_revoked_failed: %w", err)
	}

	return session, nil
}

/*
Revoke marks a single session as permanently revoked.

Parameters:
  - context: context.Context
  - sessionID: string

Returns:
  - error: Update failures
*/
func (repository *PostgresSessionRepository) Revoke(context context.Context, sessionID string) error {
	const query = `UPDATE users.session SET isrevoked = true, revokedat = NOW() WHERE id = $1`
	_, err := repository.pool.Exec(context, query, sessionID)
	if err != nil {
		return fmt.Errorf("postgres_session_repo_revoke_failed: %w", err)
	}
	return nil
}

/*
RevokeAll terminates every live session for a user.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Batch update failures
*/
func (repository *PostgresSessionRepository) RevokeAll(context context.Context, userID string) error {
	const query = `UPDATE users.session SET isrevoked = true, revokedat = NOW() WHERE userid = $1 AND isrevoked = false`
	_, err := repository.pool.Exec(context, query, userID)
	if err != nil {
		return fmt.Errorf("postgres_session_repo_revoke_all_failed: %w", err)
	}
	return nil
}
