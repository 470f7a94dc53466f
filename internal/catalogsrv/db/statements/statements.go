// Package statements holds the SQL that reads and writes the catalog tables.
// Every function runs on an Executor, which is normally the transaction
// handler bound to the caller's Xid. Queries are written with $n placeholders
// numbered in order of appearance so the same text runs on PostgreSQL and
// SQLite.
package statements

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/jackc/pgtype"
	"github.com/rs/zerolog/log"
	"github.com/tansive/polycatalog/internal/catalogsrv/db/dberror"
	"github.com/tansive/polycatalog/internal/catalogsrv/db/dbmanager"
	"github.com/tansive/polycatalog/internal/common/apperrors"
	"github.com/tansive/polycatalog/pkg/types"
)

// Executor runs statements inside one transaction. txn.Handler satisfies it.
type Executor interface {
	Dialect() dbmanager.Dialect
	Execute(ctx context.Context, query string, args ...any) (int64, error)
	ExecuteSelect(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecuteInsert(ctx context.Context, query string, args ...any) (int64, error)
}

type scanner interface {
	Scan(dest ...any) error
}

// entity maps one catalog table to a model type.
type entity[T any] struct {
	name     string
	from     string
	columns  []string
	scan     func(s scanner) (T, error)
	notFound apperrors.Error
}

func (e *entity[T]) selectSQL(joins string, f *filter, orderBy string) string {
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(e.columns, ", "))
	b.WriteString(" FROM ")
	b.WriteString(e.from)
	if joins != "" {
		b.WriteString(" ")
		b.WriteString(joins)
	}
	b.WriteString(f.where())
	if orderBy != "" {
		b.WriteString(" ORDER BY ")
		b.WriteString(orderBy)
	}
	return b.String()
}

func queryAll[T any](ctx context.Context, ex Executor, e *entity[T], joins string, f *filter, orderBy string) ([]T, error) {
	if f == nil {
		f = newFilter()
	}
	query := e.selectSQL(joins, f, orderBy)
	rows, err := ex.ExecuteSelect(ctx, query, f.args...)
	if err != nil {
		return nil, dbError(ctx, err, "failed to query "+e.name)
	}
	defer rows.Close()

	result := make([]T, 0)
	for rows.Next() {
		v, err := e.scan(rows)
		if err != nil {
			log.Ctx(ctx).Error().Err(err).Str("entity", e.name).Msg("failed to scan row")
			return nil, dberror.ErrDatabase.Err(err)
		}
		result = append(result, v)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(ctx, err, "failed to read "+e.name+" rows")
	}
	return result, nil
}

// queryOne returns the single row matching f. No row is the entity's
// not-found error and more than one is an integrity violation.
func queryOne[T any](ctx context.Context, ex Executor, e *entity[T], joins string, f *filter, what string) (T, error) {
	var zero T
	list, err := queryAll(ctx, ex, e, joins, f, "")
	if err != nil {
		return zero, err
	}
	switch len(list) {
	case 0:
		return zero, e.notFound.Suffix(what)
	case 1:
		return list[0], nil
	}
	log.Ctx(ctx).Error().Str("entity", e.name).Str("lookup", what).Int("rows", len(list)).Msg("lookup matched more than one row")
	return zero, dberror.ErrIntegrity.Msg("more than one " + e.name + " matches " + what)
}

// filter builds a WHERE clause with bound parameters.
type filter struct {
	conds []string
	args  []any
}

func newFilter() *filter {
	return &filter{}
}

func (f *filter) next(v any) string {
	f.args = append(f.args, v)
	return "$" + strconv.Itoa(len(f.args))
}

func (f *filter) eq(col string, v any) *filter {
	f.conds = append(f.conds, col+" = "+f.next(v))
	return f
}

// like adds a LIKE condition. An unset pattern matches everything and adds nothing.
func (f *filter) like(col string, p types.Pattern) *filter {
	if !p.IsSet() {
		return f
	}
	f.conds = append(f.conds, col+" LIKE "+f.next(p.String()))
	return f
}

func (f *filter) in(col string, ids []int64) *filter {
	if len(ids) == 0 {
		f.conds = append(f.conds, "1 = 0")
		return f
	}
	ph := make([]string, len(ids))
	for i, id := range ids {
		ph[i] = f.next(id)
	}
	f.conds = append(f.conds, col+" IN ("+strings.Join(ph, ", ")+")")
	return f
}

func (f *filter) where() string {
	if len(f.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(f.conds, " AND ")
}

// dbError passes catalog errors through and wraps everything else as ErrDatabase.
func dbError(ctx context.Context, err error, msg string) error {
	var appErr apperrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	log.Ctx(ctx).Error().Err(err).Msg(msg)
	return dberror.ErrDatabase.Err(err)
}

// writeError maps a failed INSERT or UPDATE to the catalog error taxonomy.
func writeError(ctx context.Context, err error, what string) error {
	switch dbmanager.Classify(err) {
	case dbmanager.ClassUniqueViolation:
		log.Ctx(ctx).Info().Err(err).Msg(what + " already exists")
		return dberror.ErrAlreadyExists.MsgErr(what+" already exists", err)
	case dbmanager.ClassForeignKeyViolation:
		log.Ctx(ctx).Info().Err(err).Msg(what + " references a missing entity")
		return dberror.ErrUnknownParent.Err(err)
	case dbmanager.ClassNotNullViolation:
		return dberror.ErrInvalidInput.MsgErr(what+" is missing a required value", err)
	}
	return dbError(ctx, err, "failed to write "+what)
}

// deleteError maps a failed DELETE. A foreign key violation means the row
// is still referenced.
func deleteError(ctx context.Context, err error, what string) error {
	if dbmanager.Classify(err) == dbmanager.ClassForeignKeyViolation {
		log.Ctx(ctx).Info().Err(err).Msg(what + " still has dependents")
		return dberror.ErrHasDependents.MsgErr(what+" still has dependents", err)
	}
	return dbError(ctx, err, "failed to delete "+what)
}

// execOne runs a statement that must touch exactly one row.
func execOne(ctx context.Context, ex Executor, notFound apperrors.Error, what string, query string, args ...any) error {
	n, err := ex.Execute(ctx, query, args...)
	if err != nil {
		return writeError(ctx, err, what)
	}
	if n == 0 {
		return notFound.Suffix(what)
	}
	return nil
}

// deleteOne runs a DELETE that must remove exactly one row.
func deleteOne(ctx context.Context, ex Executor, notFound apperrors.Error, what string, query string, args ...any) error {
	n, err := ex.Execute(ctx, query, args...)
	if err != nil {
		return deleteError(ctx, err, what)
	}
	if n == 0 {
		return notFound.Suffix(what)
	}
	return nil
}

func count(ctx context.Context, ex Executor, query string, args ...any) (int64, error) {
	rows, err := ex.ExecuteSelect(ctx, query, args...)
	if err != nil {
		return 0, dbError(ctx, err, "failed to count rows")
	}
	defer rows.Close()
	var n int64
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, dberror.ErrDatabase.Err(err)
		}
	}
	return n, rows.Err()
}

// Undefined pgtype values fail to encode; they are written as NULL.

func nullText(v pgtype.Text) pgtype.Text {
	if v.Status == pgtype.Undefined {
		return pgtype.Text{Status: pgtype.Null}
	}
	return v
}

func nullInt4(v pgtype.Int4) pgtype.Int4 {
	if v.Status == pgtype.Undefined {
		return pgtype.Int4{Status: pgtype.Null}
	}
	return v
}

func nullInt8(v pgtype.Int8) pgtype.Int8 {
	if v.Status == pgtype.Undefined {
		return pgtype.Int8{Status: pgtype.Null}
	}
	return v
}

func idString(id int64) string {
	return strconv.FormatInt(id, 10)
}

func isUnknownParent(err error) bool {
	return dbmanager.Classify(err) == dbmanager.ClassForeignKeyViolation
}

// placeholders returns "$start, ..., $start+n-1".
func placeholders(start, n int) string {
	ph := make([]string, n)
	for i := range ph {
		ph[i] = "$" + strconv.Itoa(start+i)
	}
	return strings.Join(ph, ", ")
}

func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
