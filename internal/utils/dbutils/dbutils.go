package dbutils

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// DBQueryOptionnal carries the optional clauses a caller can apply on a listing query
type DBQueryOptionnal struct {
	Limit  int
	Offset int
	MaxAge time.Duration
}

// UniqueViolation returns the underlying pq error when err is a postgresql
// unique constraint violation (code 23505), nil otherwise
func UniqueViolation(err error) *pq.Error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return pqErr
	}
	return nil
}

// ScanFirst scans the first row with the provided scan function.
// The boolean reports whether a row was found.
func ScanFirst[T any](rows *sql.Rows, scan func(rows *sql.Rows) (T, error)) (T, bool, error) {
	if rows.Next() {
		obj, err := scan(rows)
		return obj, err == nil, err
	}
	var zero T
	return zero, false, rows.Err()
}

// ScanAll scans every row with the provided scan function
func ScanAll[T any](rows *sql.Rows, scan func(rows *sql.Rows) (T, error)) ([]T, error) {
	objs := make([]T, 0)
	for rows.Next() {
		obj, err := scan(rows)
		if err != nil {
			return nil, err
		}
		objs = append(objs, obj)
	}
	return objs, rows.Err()
}

// CheckRowAffected fails when an exec did not touch the expected number of
// rows, which is how updates and deletes aimed at a missing row surface
func CheckRowAffected(result sql.Result, expected int64) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected != expected {
		return fmt.Errorf("%d rows affected, expected %d", affected, expected)
	}
	return nil
}
