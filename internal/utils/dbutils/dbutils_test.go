package dbutils

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
)

type fakeResult struct {
	affected int64
	err      error
}

func (r fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r fakeResult) RowsAffected() (int64, error) { return r.affected, r.err }

func TestCheckRowAffected(t *testing.T) {
	if err := CheckRowAffected(fakeResult{affected: 1}, 1); err != nil {
		t.Error("one affected row should pass:", err)
	}
	if err := CheckRowAffected(fakeResult{affected: 0}, 1); err == nil {
		t.Error("zero affected rows should fail")
	}
	if err := CheckRowAffected(fakeResult{affected: 2}, 1); err == nil {
		t.Error("two affected rows should fail")
	}
	if err := CheckRowAffected(fakeResult{err: errors.New("not supported")}, 1); err == nil {
		t.Error("a driver error should be passed through")
	}
}

func TestUniqueViolation(t *testing.T) {
	dup := &pq.Error{Code: "23505", Constraint: "users_v1_login_key"}
	if UniqueViolation(dup) == nil {
		t.Error("a 23505 error should be reported as a unique violation")
	}
	if UniqueViolation(fmt.Errorf("create user: %w", dup)) == nil {
		t.Error("a wrapped 23505 error should be reported as a unique violation")
	}

	if UniqueViolation(&pq.Error{Code: "23503"}) != nil {
		t.Error("a foreign key violation is not a unique violation")
	}
	if UniqueViolation(errors.New("plain error")) != nil {
		t.Error("a non-pq error is not a unique violation")
	}
	if UniqueViolation(nil) != nil {
		t.Error("nil is not a unique violation")
	}
}
