package errors

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// reKeyField extracts field name from unique violation detail: "Key (field)=(value) already exists.".
var reKeyField = regexp.MustCompile(`Key \(([^)]+)\)=`)

// MapDBError maps database errors to AppError instances.
// It handles common database error patterns including:
// - pgx.ErrNoRows → NotFound
// - Unique constraint violations → Conflict
// - Check and NOT NULL violations → Validation
// - Context timeouts/cancellations → Timeout/Canceled
//
// If the error is not a recognized database error, it returns the original error.
func MapDBError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &AppError{Code: ErrCodeTimeout, Message: "Request timed out. Please try again.", Cause: err}
	}
	if errors.Is(err, context.Canceled) {
		return &AppError{Code: ErrCodeCanceled, Message: "Request was canceled.", Cause: err}
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return &AppError{Code: ErrCodeNotFound, Message: "Resource not found", Cause: err}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return mapPgError(pgErr)
	}

	return err
}

// mapPgError maps PostgreSQL-specific errors to AppError instances.
func mapPgError(pgErr *pgconn.PgError) error {
	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		return &AppError{
			Code:    ErrCodeConflict,
			Message: "This value already exists. Please choose a different one.",
			Field:   uniqueViolationField(pgErr),
			Cause:   pgErr,
		}
	case pgerrcode.CheckViolation, pgerrcode.StringDataRightTruncationDataException:
		return fieldValidation(pgErr, "This field has an invalid value.", "Invalid data. Please check your input.")
	case pgerrcode.NotNullViolation:
		return fieldValidation(pgErr, "This field is required.", "Required field is missing. Please check your input.")
	default:
		return &AppError{
			Code:    ErrCodeInternal,
			Message: "A database error occurred. Please try again.",
			Cause:   pgErr,
		}
	}
}

func fieldValidation(pgErr *pgconn.PgError, fieldMsg, msg string) error {
	if pgErr.ColumnName != "" {
		return &AppError{Code: ErrCodeValidation, Message: fieldMsg, Field: pgErr.ColumnName, Cause: pgErr}
	}
	return &AppError{Code: ErrCodeValidation, Message: msg, Cause: pgErr}
}

// uniqueViolationField resolves the offending column from metadata, detail text,
// or a "table_field_key" constraint name, in that order.
func uniqueViolationField(pgErr *pgconn.PgError) string {
	if pgErr.ColumnName != "" {
		return pgErr.ColumnName
	}
	if m := reKeyField.FindStringSubmatch(pgErr.Detail); len(m) == 2 {
		return m[1]
	}
	return inferFieldFromConstraint(pgErr.ConstraintName)
}

// inferFieldFromConstraint infers "title" from "content_items_title_key".
// Table names may contain underscores, so the field is the segment before the suffix.
func inferFieldFromConstraint(constraintName string) string {
	for _, suffix := range []string{"_key", "_unique", "_idx"} {
		if rest, ok := strings.CutSuffix(constraintName, suffix); ok {
			if i := strings.LastIndex(rest, "_"); i >= 0 && i < len(rest)-1 {
				return rest[i+1:]
			}
			return ""
		}
	}
	return ""
}
