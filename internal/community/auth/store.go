// Copyright (c) 2026 FourT. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"time"
)

// # User Data Access

// UserRepository defines the data access contract for user accounts.
type UserRepository interface {

	/*
		FindByID returns the account with the given ID.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *User: Hydrated entity
		  - error: Database retrieval failures
	*/
	FindByID(context context.Context, id string) (*User, error)

	/*
		FindByEmail returns the account with the given email.

		Parameters:
		  - context: context.Context
		  - email: string

		Returns:
		  - *User: Hydrated entity
		  - error: Database retrieval failures
	*/
	FindByEmail(context context.Context, email string) (*User, error)

	/*
		FindByUsername returns the account with the given username.

		Parameters:
		  - context: context.Context
		  - username: string

		Returns:
		  - *User: Hydrated entity
		  - error: Database retrieval failures
	*/
	FindByUsername(context context.Context, username string) (*User, error)

	/*
		CreateWithBonus persists a new account and credits the signup bonus
		in the same transaction, so no account ever exists without its
		opening ledger entry.

		Parameters:
		  - context: context.Context
		  - user: *User
		  - bonus: int (signup points)

		Returns:
		  - error: Persistence failures
	*/
	CreateWithBonus(context context.Context, user *User, bonus int) error

	/*
		CheckinClaim marks today's check-in if it has not been claimed yet.

		Description: A conditional UPDATE guarded on lastcheckinat makes the
		claim atomic; concurrent check-ins on the same UTC day leave exactly
		one winner.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - streakDay: int (the streak value to record)
		  - now: time.Time

		Returns:
		  - error: apperr.Conflict when today is already claimed
	*/
	CheckinClaim(context context.Context, userID string, streakDay int, now time.Time) error
}

// # Session Data Access

// SessionRepository defines the data access contract for refresh-token sessions.
type SessionRepository interface {

	/*
		Create persists a brand-new refresh session.

		Parameters:
		  - context: context.Context
		  - session: *Session

		Returns:
		  - error: Persistence failures
	*/
	Create(context context.Context, session *Session) error

	/*
		FindByTokenHash returns the live session matching a token hash.
		Revoked or expired sessions are not returned.

		Parameters:
		  - context: context.Context
		  - tokenHash: string

		Returns:
		  - *Session: Hydrated entity
		  - error: apperr.NotFound or retrieval failures
	*/
	FindByTokenHash(context context.Context, tokenHash string) (*Session, error)

	/*
		FindRevokedByTokenHash returns a session matching a token hash even
		after revocation. Used to detect replay of rotated refresh tokens.

		Parameters:
		  - context: context.Context
		  - tokenHash: string

		Returns:
		  - *Session: Hydrated entity
		  - error: apperr.NotFound or retrieval failures
	*/
	FindRevokedByTokenHash(context context.Context, tokenHash string) (*Session, error)

	/*
		Revoke marks a single session as permanently revoked.

		Parameters:
		  - context: context.Context
		  - sessionID: string

		Returns:
		  - error: Update failures
	*/
	Revoke(context context.Context, sessionID string) error

	/*
		RevokeAll terminates every live session for a user.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - error: Batch update failures
	*/
	RevokeAll(context context.Context, userID string) error
}
