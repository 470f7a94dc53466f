package dbmanager

import (
	"errors"

	"github.com/jackc/pgconn"
	"github.com/mattn/go-sqlite3"
)

// ErrorClass is the constraint category of a driver error.
type ErrorClass int

const (
	ClassOther ErrorClass = iota
	ClassUniqueViolation
	ClassForeignKeyViolation
	ClassNotNullViolation
)

// Classify maps PostgreSQL SQLSTATE codes and SQLite extended result codes to a
// common constraint category.
func Classify(err error) ErrorClass {
	if err == nil {
		return ClassOther
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return ClassUniqueViolation
		case "23503":
			return ClassForeignKeyViolation
		case "23502":
			return ClassNotNullViolation
		}
		return ClassOther
	}
	var sqErr sqlite3.Error
	if errors.As(err, &sqErr) {
		switch sqErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return ClassUniqueViolation
		case sqlite3.ErrConstraintForeignKey:
			return ClassForeignKeyViolation
		case sqlite3.ErrConstraintNotNull:
			return ClassNotNullViolation
		}
	}
	return ClassOther
}
