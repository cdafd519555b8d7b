package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapDBError_NilError(t *testing.T) {
	if err := MapDBError(nil); err != nil {
		t.Errorf("MapDBError(nil) = %v, want nil", err)
	}
}

func TestMapDBError_ContextErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode ErrorCode
	}{
		{name: "deadline exceeded", err: context.DeadlineExceeded, wantCode: ErrCodeTimeout},
		{name: "canceled", err: fmt.Errorf("query: %w", context.Canceled), wantCode: ErrCodeCanceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapDBError(tt.err)
			if !isCode(err, tt.wantCode) {
				t.Errorf("MapDBError() code = %v, want %v", GetCode(err), tt.wantCode)
			}
		})
	}
}

func TestMapDBError_NoRows(t *testing.T) {
	err := MapDBError(fmt.Errorf("get content item: %w", pgx.ErrNoRows))
	if !IsNotFound(err) {
		t.Errorf("MapDBError(pgx.ErrNoRows) should be NotFound, got %v", GetCode(err))
	}
}

func TestMapDBError_UniqueViolation(t *testing.T) {
	tests := []struct {
		name      string
		pgErr     *pgconn.PgError
		wantField string
	}{
		{
			name:      "column metadata",
			pgErr:     &pgconn.PgError{Code: pgerrcode.UniqueViolation, ColumnName: "title"},
			wantField: "title",
		},
		{
			name: "detail message",
			pgErr: &pgconn.PgError{
				Code:   pgerrcode.UniqueViolation,
				Detail: "Key (title)=(Economic Trends 2025 Report) already exists.",
			},
			wantField: "title",
		},
		{
			name:      "constraint name with underscored table",
			pgErr:     &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "content_items_title_key"},
			wantField: "title",
		},
		{
			name:      "no hints",
			pgErr:     &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "pkey"},
			wantField: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapDBError(tt.pgErr)
			if !IsConflict(err) {
				t.Fatalf("expected conflict, got %v", GetCode(err))
			}
			if got := GetField(err); got != tt.wantField {
				t.Errorf("field = %q, want %q", got, tt.wantField)
			}
			if !errors.Is(err, tt.pgErr) {
				t.Error("expected cause to be preserved")
			}
		})
	}
}

func TestMapDBError_ValidationViolations(t *testing.T) {
	tests := []struct {
		name      string
		pgErr     *pgconn.PgError
		wantField string
		wantMsg   string
	}{
		{
			name:      "not null with column",
			pgErr:     &pgconn.PgError{Code: pgerrcode.NotNullViolation, ColumnName: "email"},
			wantField: "email",
			wantMsg:   "This field is required.",
		},
		{
			name:    "not null without column",
			pgErr:   &pgconn.PgError{Code: pgerrcode.NotNullViolation},
			wantMsg: "Required field is missing. Please check your input.",
		},
		{
			name:      "check with column",
			pgErr:     &pgconn.PgError{Code: pgerrcode.CheckViolation, ColumnName: "content_type"},
			wantField: "content_type",
			wantMsg:   "This field has an invalid value.",
		},
		{
			name:    "value too long",
			pgErr:   &pgconn.PgError{Code: pgerrcode.StringDataRightTruncationDataException},
			wantMsg: "Invalid data. Please check your input.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapDBError(tt.pgErr)
			if !IsValidation(err) {
				t.Fatalf("expected validation, got %v", GetCode(err))
			}
			if got := GetField(err); got != tt.wantField {
				t.Errorf("field = %q, want %q", got, tt.wantField)
			}
			var appErr *AppError
			if !errors.As(err, &appErr) || appErr.Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", appErr.Message, tt.wantMsg)
			}
		})
	}
}

func TestMapDBError_UnknownPgError(t *testing.T) {
	err := MapDBError(&pgconn.PgError{Code: pgerrcode.DeadlockDetected})
	if GetCode(err) != ErrCodeInternal {
		t.Errorf("expected internal, got %v", GetCode(err))
	}
}

func TestMapDBError_StandardError(t *testing.T) {
	orig := errors.New("boom")
	if err := MapDBError(orig); err != orig {
		t.Errorf("expected original error to pass through, got %v", err)
	}
}

func TestInferFieldFromConstraint(t *testing.T) {
	tests := map[string]string{
		"content_items_title_key":    "title",
		"contact_messages_email_idx": "email",
		"users_name_unique":          "name",
		"content_items_pkey":         "",
		"":                           "",
		"_key":                       "",
	}
	for in, want := range tests {
		if got := inferFieldFromConstraint(in); got != want {
			t.Errorf("inferFieldFromConstraint(%q) = %q, want %q", in, got, want)
		}
	}
}
