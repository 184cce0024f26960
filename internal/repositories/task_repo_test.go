package repositories

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolation(t *testing.T) {
	uniq := &pgconn.PgError{Code: "23505", ConstraintName: "idx_invite_tasks_open_per_user"}
	if !isUniqueViolation(uniq) {
		t.Error("23505 not recognized as a unique violation")
	}
	if !isUniqueViolation(fmt.Errorf("create invite: %w", uniq)) {
		t.Error("wrapped 23505 not recognized")
	}
	if isUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Error("foreign key violation treated as unique")
	}
	if isUniqueViolation(errors.New("connection reset")) {
		t.Error("plain error treated as unique violation")
	}
	if isUniqueViolation(nil) {
		t.Error("nil treated as unique violation")
	}
}
