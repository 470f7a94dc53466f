// Package txn implements the transaction handlers that own a storage
// connection for the duration of one transaction: LocalHandler for
// single-phase work and XaHandler for branches of a global transaction.
package txn

import (
	"context"
	"database/sql"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/tansive/polycatalog/internal/catalogsrv/db/dberror"
	"github.com/tansive/polycatalog/internal/catalogsrv/db/dbmanager"
	"github.com/tansive/polycatalog/pkg/types"
)

// Handler runs statements inside one transaction. A handler is not safe for
// concurrent use; callers drive one transaction from one goroutine at a time.
type Handler interface {
	Xid() types.Xid
	Dialect() dbmanager.Dialect
	// Execute runs a statement and returns the number of affected rows.
	Execute(ctx context.Context, query string, args ...any) (int64, error)
	// ExecuteSelect runs a query. The rows are closed when the transaction ends
	// if the caller has not closed them already.
	ExecuteSelect(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	// ExecuteInsert runs an INSERT ... RETURNING id and returns the generated key.
	ExecuteInsert(ctx context.Context, query string, args ...any) (int64, error)
	Prepare(ctx context.Context) (bool, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type State int

const (
	StatePooled State = iota
	StateActive
	StatePrepared
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StatePrepared:
		return "prepared"
	}
	return "pooled"
}

// handler is the part shared by both variants: the connection and its open cursors.
type handler struct {
	dialect dbmanager.Dialect
	sqlConn *sql.Conn
	state   State
	cursors []*sql.Rows
}

func (h *handler) Dialect() dbmanager.Dialect {
	return h.dialect
}

func (h *handler) State() State {
	return h.state
}

func (h *handler) checkActive() error {
	if h.state != StateActive {
		return dberror.ErrHandlerState.Msg("statement issued on a " + h.state.String() + " transaction handler")
	}
	return nil
}

func (h *handler) Execute(ctx context.Context, query string, args ...any) (int64, error) {
	if err := h.checkActive(); err != nil {
		return 0, err
	}
	res, err := h.sqlConn.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (h *handler) ExecuteSelect(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if err := h.checkActive(); err != nil {
		return nil, err
	}
	rows, err := h.sqlConn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	h.trackCursor(rows)
	return rows, nil
}

// trackCursor remembers rows so they can be closed when the transaction ends
// and forgets the cursors the caller has closed in the meantime.
func (h *handler) trackCursor(rows *sql.Rows) {
	open := h.cursors[:0]
	for _, r := range h.cursors {
		// Columns fails only on closed rows
		if _, err := r.Columns(); err == nil {
			open = append(open, r)
		}
	}
	for i := len(open); i < len(h.cursors); i++ {
		h.cursors[i] = nil
	}
	h.cursors = append(open, rows)
}

func (h *handler) ExecuteInsert(ctx context.Context, query string, args ...any) (int64, error) {
	if err := h.checkActive(); err != nil {
		return 0, err
	}
	var id int64
	if err := h.sqlConn.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (h *handler) closeCursors(ctx context.Context) {
	for _, rows := range h.cursors {
		if err := rows.Close(); err != nil {
			log.Ctx(ctx).Warn().Err(err).Msg("failed to close cursor")
		}
	}
	h.cursors = nil
}

// freeList holds idle handlers. A non-positive max means unbounded.
type freeList[T any] struct {
	mu    sync.Mutex
	items []T
	max   int
}

func (f *freeList[T]) push(v T) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.max > 0 && len(f.items) >= f.max {
		return false
	}
	f.items = append(f.items, v)
	return true
}

func (f *freeList[T]) pop() (T, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var zero T
	n := len(f.items)
	if n == 0 {
		return zero, false
	}
	v := f.items[n-1]
	f.items[n-1] = zero
	f.items = f.items[:n-1]
	return v, true
}

func (f *freeList[T]) drain() []T {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := f.items
	f.items = nil
	return items
}

func (f *freeList[T]) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

func (f *freeList[T]) contains(pred func(T) bool) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range f.items {
		if pred(v) {
			return true
		}
	}
	return false
}

// PoolStats is a snapshot of a handler pool.
type PoolStats struct {
	Active int
	Idle   int
	Opened uint64
	Closed uint64
}
