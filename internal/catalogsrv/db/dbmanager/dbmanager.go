// Package dbmanager opens dedicated connections to the storage engine that
// backs the catalog, in plain mode for local transactions and in XA mode for
// two-phase transaction branches.
package dbmanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tansive/polycatalog/internal/catalogsrv/config"
	dbconfig "github.com/tansive/polycatalog/internal/catalogsrv/db/config"
	"github.com/tansive/polycatalog/pkg/types"
)

type Dialect string

const (
	DialectPostgres Dialect = config.DialectPostgres
	DialectSqlite   Dialect = config.DialectSqlite
)

type Connector interface {
	// Dialect names the storage engine behind the connector.
	Dialect() Dialect
	// Conn opens a dedicated connection in plain mode.
	Conn(ctx context.Context) (Conn, error)
	// XAConn opens a dedicated connection that acts as a two-phase resource manager.
	XAConn(ctx context.Context) (XAConn, error)
	// Stats returns the number of connections opened and closed.
	Stats() (requests, returns uint64)
	// Close releases the underlying connection pool.
	Close() error
}

type Conn interface {
	// Conn returns the underlying connection.
	Conn() *sql.Conn
	// Begin starts a local transaction.
	Begin(ctx context.Context) error
	// Commit commits the local transaction.
	Commit(ctx context.Context) error
	// Rollback rolls back the local transaction.
	Rollback(ctx context.Context) error
	// Close returns the connection to the storage driver.
	Close(ctx context.Context)
}

type XAConn interface {
	Conn
	// Start associates the connection with a new branch for xid.
	Start(ctx context.Context, xid types.Xid) error
	// End ends the association of the connection with the branch.
	End(ctx context.Context, xid types.Xid) error
	// Prepare asks the resource manager to prepare the branch and reports whether it voted OK.
	Prepare(ctx context.Context, xid types.Xid) (bool, error)
	// CommitXA commits the branch. onePhase commits a branch that was never prepared.
	CommitXA(ctx context.Context, xid types.Xid, onePhase bool) error
	// RollbackXA rolls back the branch, prepared or not.
	RollbackXA(ctx context.Context, xid types.Xid) error
}

// NewConnector opens the storage engine configured in cfg.
func NewConnector(ctx context.Context, cfg *config.ConfigParam) (Connector, error) {
	switch Dialect(cfg.DB.Dialect) {
	case DialectPostgres:
		return NewPostgresqlDb(ctx, dbconfig.PostgresDsn(cfg.DB.Postgres), cfg.DB.Session, cfg.DB.ConnectAttempts)
	case DialectSqlite:
		return NewSqliteDb(ctx, dbconfig.SqliteDsn(cfg.DB.Sqlite), cfg.DB.Session, cfg.DB.ConnectAttempts)
	}
	return nil, fmt.Errorf("unsupported dialect %q", cfg.DB.Dialect)
}
