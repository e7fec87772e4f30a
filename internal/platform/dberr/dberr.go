// Copyright (c) 2026 Comunidad. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dberr provides a bridge between low-level database errors and
// higher-level application errors.
package dberr

import (
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/taibuivan/comunidad/internal/platform/apperr"
)

// Wrap inspects a database error and classifies it as an [apperr.AppError].
// The action is recorded in the cause for logs and never reaches the client.
//
//   - pgx.ErrNoRows        → NOT_FOUND
//   - unique_violation     → CONFLICT
//   - anything else        → STORE_ERROR, foreign key violations included
func Wrap(err error, action string) error {
	if err == nil {
		return nil
	}

	// Already classified further down the stack
	if ae := apperr.As(err); ae != nil {
		return ae
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound("Resource")
	}

	if IsUniqueViolation(err) {
		conflict := apperr.Conflict(conflictMessage(err))
		conflict.Cause = fmt.Errorf("%s: %w", action, err)
		return conflict
	}

	return apperr.StoreError(fmt.Errorf("%s: %w", action, err))
}

// IsUniqueViolation reports whether err is a Postgres unique_violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// conflictMessage names the violated constraint when Postgres reports one.
func conflictMessage(err error) string {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.ConstraintName == "" {
		return "A record with the same unique value already exists"
	}
	return fmt.Sprintf("A record with the same unique value already exists (%s)", pgErr.ConstraintName)
}
