package dbmanager

import (
	"context"
	"database/sql"
	"sync/atomic"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"
	"github.com/tansive/polycatalog/internal/catalogsrv/db/dberror"
	"github.com/tansive/polycatalog/pkg/types"
)

// txStatus is the transaction state of a session as the engine reports it.
type txStatus int

const (
	txIdle txStatus = iota
	txActive
	// txFailed is a transaction that an earlier error aborted. The engine
	// accepts COMMIT and PREPARE on it but silently rolls back.
	txFailed
)

// twoPhase holds the dialect specific commands of a resource manager.
type twoPhase interface {
	status(ctx context.Context, c *sql.Conn) (txStatus, error)
	prepare(ctx context.Context, c *sql.Conn, xid types.Xid) error
	commitPrepared(ctx context.Context, c *sql.Conn, xid types.Xid) error
	rollbackPrepared(ctx context.Context, c *sql.Conn, xid types.Xid) error
}

// sqlConnector hands out dedicated connections from a database/sql pool.
type sqlConnector struct {
	dialect      Dialect
	db           *sql.DB
	session      []string
	tp           twoPhase
	connRequests atomic.Uint64
	connReturns  atomic.Uint64
}

func openSqlConnector(ctx context.Context, dialect Dialect, driver, dsn string, session []string, tp twoPhase, attempts uint) (*sqlConnector, error) {
	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("dialect", string(dialect)).Msg("failed to open db")
		return nil, dberror.ErrConnection.Err(err)
	}
	if attempts == 0 {
		attempts = 1
	}
	err = retry.Do(
		func() error {
			return sqlDB.PingContext(ctx)
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(500*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Ctx(ctx).Warn().Err(err).Uint("attempt", n+1).Str("dialect", string(dialect)).Msg("db not reachable, retrying")
		}),
	)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("dialect", string(dialect)).Msg("failed to ping db")
		sqlDB.Close()
		return nil, dberror.ErrConnection.Err(err)
	}
	return &sqlConnector{
		dialect: dialect,
		db:      sqlDB,
		session: session,
		tp:      tp,
	}, nil
}

func (p *sqlConnector) Dialect() Dialect {
	return p.dialect
}

func (p *sqlConnector) Conn(ctx context.Context) (Conn, error) {
	return p.open(ctx)
}

func (p *sqlConnector) XAConn(ctx context.Context) (XAConn, error) {
	return p.open(ctx)
}

func (p *sqlConnector) open(ctx context.Context) (*dbConn, error) {
	conn, err := p.db.Conn(ctx)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to obtain connection")
		return nil, dberror.ErrConnection.Err(err)
	}
	for _, stmt := range p.session {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			log.Ctx(ctx).Error().Err(err).Str("stmt", stmt).Msg("failed to apply session setting")
			conn.Close()
			return nil, dberror.ErrConnection.Err(err)
		}
	}
	p.connRequests.Add(1)
	return &dbConn{
		conn: conn,
		pool: p,
	}, nil
}

func (p *sqlConnector) Stats() (requests, returns uint64) {
	return p.connRequests.Load(), p.connReturns.Load()
}

func (p *sqlConnector) Close() error {
	return p.db.Close()
}

type branchState int

const (
	branchIdle branchState = iota
	branchActive
	branchEnded
	branchPrepared
)

// dbConn is a dedicated connection. In XA mode it tracks the branch it is associated with.
type dbConn struct {
	conn   *sql.Conn
	pool   *sqlConnector
	xid    types.Xid
	branch branchState
}

func (h *dbConn) Conn() *sql.Conn {
	return h.conn
}

func (h *dbConn) exec(ctx context.Context, stmt string) error {
	if _, err := h.conn.ExecContext(ctx, stmt); err != nil {
		return dberror.ErrTransaction.Err(err)
	}
	return nil
}

func (h *dbConn) Begin(ctx context.Context) error {
	return h.exec(ctx, "BEGIN")
}

func (h *dbConn) status(ctx context.Context) txStatus {
	st, err := h.pool.tp.status(ctx, h.conn)
	if err != nil {
		// let the engine decide
		log.Ctx(ctx).Warn().Err(err).Msg("unable to read transaction status")
		return txActive
	}
	return st
}

// Commit commits the local transaction. A transaction that is no longer open,
// or that an earlier statement aborted, is rolled back and reported as an error.
func (h *dbConn) Commit(ctx context.Context) error {
	switch h.status(ctx) {
	case txIdle:
		return dberror.ErrTransaction.Msg("no transaction to commit; it was rolled back")
	case txFailed:
		if err := h.exec(ctx, "ROLLBACK"); err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("failed to roll back aborted transaction")
		}
		return dberror.ErrTransaction.Msg("transaction was aborted by an earlier error and has been rolled back")
	}
	return h.exec(ctx, "COMMIT")
}

func (h *dbConn) Rollback(ctx context.Context) error {
	if h.status(ctx) == txIdle {
		return nil
	}
	return h.exec(ctx, "ROLLBACK")
}

func (h *dbConn) Close(ctx context.Context) {
	if h.conn == nil {
		return
	}
	if err := h.conn.Close(); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to close connection")
	}
	h.conn = nil
	h.pool.connReturns.Add(1)
}

func (h *dbConn) checkBranch(xid types.Xid, states ...branchState) error {
	if h.xid != xid {
		return dberror.ErrHandlerState.Msg("connection is associated with another xid")
	}
	for _, s := range states {
		if h.branch == s {
			return nil
		}
	}
	return dberror.ErrHandlerState
}

func (h *dbConn) Start(ctx context.Context, xid types.Xid) error {
	if h.branch != branchIdle {
		return dberror.ErrHandlerState.Msg("connection is already associated with a branch")
	}
	if err := h.Begin(ctx); err != nil {
		return err
	}
	h.xid = xid
	h.branch = branchActive
	return nil
}

func (h *dbConn) End(ctx context.Context, xid types.Xid) error {
	if err := h.checkBranch(xid, branchActive); err != nil {
		return err
	}
	h.branch = branchEnded
	return nil
}

func (h *dbConn) Prepare(ctx context.Context, xid types.Xid) (bool, error) {
	if err := h.checkBranch(xid, branchEnded); err != nil {
		return false, err
	}
	if st := h.status(ctx); st != txActive {
		// the work of the branch is already lost; the coordinator must roll back
		log.Ctx(ctx).Warn().Str("xid", xid.String()).Msg("branch transaction was aborted, voting to roll back")
		return false, nil
	}
	if err := h.pool.tp.prepare(ctx, h.conn, xid); err != nil {
		// the branch stays ended so that the coordinator can still roll it back
		return false, dberror.ErrTransaction.Err(err)
	}
	h.branch = branchPrepared
	return true, nil
}

func (h *dbConn) CommitXA(ctx context.Context, xid types.Xid, onePhase bool) error {
	if onePhase {
		if err := h.checkBranch(xid, branchActive, branchEnded); err != nil {
			return err
		}
		defer h.reset()
		return h.Commit(ctx)
	}
	if err := h.checkBranch(xid, branchPrepared); err != nil {
		return err
	}
	defer h.reset()
	if err := h.pool.tp.commitPrepared(ctx, h.conn, xid); err != nil {
		return dberror.ErrTransaction.Err(err)
	}
	return nil
}

func (h *dbConn) RollbackXA(ctx context.Context, xid types.Xid) error {
	if err := h.checkBranch(xid, branchActive, branchEnded, branchPrepared); err != nil {
		return err
	}
	defer h.reset()
	if h.branch == branchPrepared {
		if err := h.pool.tp.rollbackPrepared(ctx, h.conn, xid); err != nil {
			return dberror.ErrTransaction.Err(err)
		}
		return nil
	}
	return h.Rollback(ctx)
}

func (h *dbConn) reset() {
	h.xid = types.Xid{}
	h.branch = branchIdle
}
