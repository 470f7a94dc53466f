package dbmanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/tansive/polycatalog/internal/catalogsrv/config"
	"github.com/tansive/polycatalog/pkg/types"
)

// NewSqliteDb opens the embedded engine. The database must be a file: every
// connection of an in-memory database would see its own empty catalog.
func NewSqliteDb(ctx context.Context, path string, s config.SessionConfig, attempts uint) (Connector, error) {
	busy, err := config.ParseDuration(s.BusyTimeout)
	if err != nil {
		return nil, err
	}
	session := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA case_sensitive_like = ON",
		fmt.Sprintf("PRAGMA busy_timeout = %d", busy.Milliseconds()),
	}
	c, err := openSqlConnector(ctx, DialectSqlite, "sqlite3", path, session, sqliteTwoPhase{}, attempts)
	if err != nil {
		return nil, err
	}
	if _, err := c.db.ExecContext(ctx, "PRAGMA journal_mode = WAL"); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("unable to switch to write-ahead logging")
	}
	return c, nil
}

// sqliteTwoPhase lets the embedded engine take part in a global transaction as
// a last resource: prepare keeps the transaction open and votes OK, and the
// outcome is decided by the final commit or rollback.
type sqliteTwoPhase struct{}

// status reports idle when the engine is back in autocommit mode, which
// happens when an error such as SQLITE_FULL rolls the transaction back.
func (sqliteTwoPhase) status(ctx context.Context, c *sql.Conn) (txStatus, error) {
	st := txActive
	err := c.Raw(func(driverConn any) error {
		sc, ok := driverConn.(*sqlite3.SQLiteConn)
		if !ok {
			return fmt.Errorf("unexpected driver connection %T", driverConn)
		}
		if sc.AutoCommit() {
			st = txIdle
		}
		return nil
	})
	return st, err
}

func (sqliteTwoPhase) prepare(ctx context.Context, c *sql.Conn, xid types.Xid) error {
	return nil
}

func (t sqliteTwoPhase) commitPrepared(ctx context.Context, c *sql.Conn, xid types.Xid) error {
	if st, err := t.status(ctx, c); err == nil && st == txIdle {
		return fmt.Errorf("prepared branch %s is no longer open", xid.GID())
	}
	_, err := c.ExecContext(ctx, "COMMIT")
	return err
}

func (t sqliteTwoPhase) rollbackPrepared(ctx context.Context, c *sql.Conn, xid types.Xid) error {
	if st, err := t.status(ctx, c); err == nil && st == txIdle {
		return nil
	}
	_, err := c.ExecContext(ctx, "ROLLBACK")
	return err
}
