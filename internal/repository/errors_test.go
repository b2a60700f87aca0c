package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestTranslateError(t *testing.T) {
	if translateError(nil) != nil {
		t.Fatalf("expected nil for nil error")
	}
	if !errors.Is(translateError(pgx.ErrNoRows), ErrNotFound) {
		t.Fatalf("expected ErrNotFound for no rows")
	}
	wrapped := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})
	if !errors.Is(translateError(wrapped), ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for unique violation")
	}
	if !errors.Is(translateError(&pgconn.PgError{Code: "23503"}), ErrForeignKey) {
		t.Fatalf("expected ErrForeignKey for fk violation")
	}
	if !errors.Is(translateError(&pgconn.PgError{Code: "22P02"}), ErrNotFound) {
		t.Fatalf("expected ErrNotFound for malformed uuid")
	}
	other := errors.New("boom")
	if translateError(other) != other {
		t.Fatalf("expected unknown errors to pass through")
	}
}

func TestPageOffset(t *testing.T) {
	limit, offset := pageOffset(0, 0)
	if limit != 10 || offset != 0 {
		t.Fatalf("unexpected defaults: %d %d", limit, offset)
	}
	limit, offset = pageOffset(3, 20)
	if limit != 20 || offset != 40 {
		t.Fatalf("unexpected paging: %d %d", limit, offset)
	}
}
