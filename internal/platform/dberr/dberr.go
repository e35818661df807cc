// Copyright (c) 2026 FourT. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dberr provides a bridge between low-level database errors and
// higher-level application errors.
package dberr

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/fourt/community/internal/platform/apperr"
)

var (
	// ErrNotFound is a standard error returned when a queried row doesn't exist.
	ErrNotFound = apperr.NotFound("Resource")
)

/*
Wrap inspects a database error and wraps it into a meaningful [apperr.AppError].
It hides internal database details from the client while classifying the error type.

Classification:
  - pgx.ErrNoRows: 404 Not Found
  - SQLSTATE 23505 (unique_violation): 409 Conflict
  - SQLSTATE 23503 (foreign_key_violation): 404 Not Found (the referenced row is gone)
  - Everything else: 500 Internal
*/
func Wrap(err error, resource string) error {
	if err == nil {
		return nil
	}

	if resource == "" {
		resource = "Resource"
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(resource)
	}

	var pgError *pgconn.PgError
	if errors.As(err, &pgError) {
		switch pgError.Code {
		case pgerrcode.UniqueViolation:
			return apperr.Conflict(resource + " already exists")
		case pgerrcode.ForeignKeyViolation:
			return apperr.NotFound(resource)
		}
	}

	return apperr.Internal(err)
}
