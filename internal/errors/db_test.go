package errors

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapDBError_NilError(t *testing.T) {
	err := MapDBError(nil)
	if err != nil {
		t.Errorf("MapDBError(nil) = %v, want nil", err)
	}
}

func TestMapDBError_ContextErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode ErrorCode
	}{
		{
			name:     "deadline exceeded",
			err:      context.DeadlineExceeded,
			wantCode: ErrCodeTimeout,
		},
		{
			name:     "canceled",
			err:      context.Canceled,
			wantCode: ErrCodeCanceled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapDBError(tt.err)
			if !IsAppError(err, tt.wantCode) {
				t.Errorf("MapDBError() code = %v, want %v", GetCode(err), tt.wantCode)
			}
		})
	}
}

func TestMapDBError_NoRows(t *testing.T) {
	for _, in := range []error{sql.ErrNoRows, pgx.ErrNoRows, fmt.Errorf("scan: %w", sql.ErrNoRows)} {
		if err := MapDBError(in); !IsNotFound(err) {
			t.Errorf("MapDBError(%v) code = %v, want not_found", in, GetCode(err))
		}
	}
}

func TestMapDBError_PgErrors(t *testing.T) {
	tests := []struct {
		name      string
		code      string
		column    string
		wantCode  ErrorCode
		wantField string
	}{
		{name: "undefined table", code: pgerrcode.UndefinedTable, wantCode: ErrCodeUnavailable},
		{name: "undefined column", code: pgerrcode.UndefinedColumn, wantCode: ErrCodeUnavailable},
		{name: "connection failure", code: pgerrcode.ConnectionFailure, wantCode: ErrCodeUnavailable},
		{name: "too many connections", code: pgerrcode.TooManyConnections, wantCode: ErrCodeUnavailable},
		{name: "admin shutdown", code: pgerrcode.AdminShutdown, wantCode: ErrCodeUnavailable},
		{
			name:      "not null",
			code:      pgerrcode.NotNullViolation,
			column:    "value",
			wantCode:  ErrCodeValidation,
			wantField: "value",
		},
		{name: "other", code: pgerrcode.DivisionByZero, wantCode: ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pgErr := &pgconn.PgError{Code: tt.code, ColumnName: tt.column}
			err := MapDBError(fmt.Errorf("exec: %w", pgErr))
			if !IsAppError(err, tt.wantCode) {
				t.Fatalf("MapDBError() code = %v, want %v", GetCode(err), tt.wantCode)
			}
			if GetField(err) != tt.wantField {
				t.Errorf("GetField() = %q, want %q", GetField(err), tt.wantField)
			}
			if !errors.As(err, &pgErr) {
				t.Error("mapped error should keep the PgError cause")
			}
		})
	}
}

func TestMapDBError_Passthrough(t *testing.T) {
	plain := errors.New("plain")
	if err := MapDBError(plain); !errors.Is(err, plain) || GetCode(err) != "" {
		t.Errorf("MapDBError(plain) = %v, want passthrough", err)
	}
}
