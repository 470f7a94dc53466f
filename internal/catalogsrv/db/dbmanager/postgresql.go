package dbmanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v4/stdlib"

	"github.com/tansive/polycatalog/internal/catalogsrv/config"
	"github.com/tansive/polycatalog/pkg/types"
)

// NewPostgresqlDb opens a PostgreSQL backed connector. Two-phase branches map to
// PREPARE TRANSACTION / COMMIT PREPARED, which requires max_prepared_transactions > 0
// on the server.
func NewPostgresqlDb(ctx context.Context, dsn string, s config.SessionConfig, attempts uint) (Connector, error) {
	session, err := postgresSession(s)
	if err != nil {
		return nil, err
	}
	return openSqlConnector(ctx, DialectPostgres, "pgx", dsn, session, postgresTwoPhase{}, attempts)
}

func postgresSession(s config.SessionConfig) ([]string, error) {
	var session []string
	lock, err := config.ParseDuration(s.LockTimeout)
	if err != nil {
		return nil, err
	}
	if lock > 0 {
		session = append(session, fmt.Sprintf("SET lock_timeout = %d", lock.Milliseconds()))
	}
	stmt, err := config.ParseDuration(s.StatementTimeout)
	if err != nil {
		return nil, err
	}
	if stmt > 0 {
		session = append(session, fmt.Sprintf("SET statement_timeout = %d", stmt.Milliseconds()))
	}
	return session, nil
}

type postgresTwoPhase struct{}

// status reads the transaction indicator of the last ReadyForQuery message.
func (postgresTwoPhase) status(ctx context.Context, c *sql.Conn) (txStatus, error) {
	var st byte
	err := c.Raw(func(driverConn any) error {
		pc, ok := driverConn.(*stdlib.Conn)
		if !ok {
			return fmt.Errorf("unexpected driver connection %T", driverConn)
		}
		st = pc.Conn().PgConn().TxStatus()
		return nil
	})
	if err != nil {
		return txActive, err
	}
	switch st {
	case 'I':
		return txIdle, nil
	case 'E':
		return txFailed, nil
	}
	return txActive, nil
}

// The transaction commands do not accept bind parameters; GID() is restricted
// to hex digits and underscores so it is safe as a literal.
func (postgresTwoPhase) prepare(ctx context.Context, c *sql.Conn, xid types.Xid) error {
	_, err := c.ExecContext(ctx, "PREPARE TRANSACTION '"+xid.GID()+"'")
	return err
}

func (postgresTwoPhase) commitPrepared(ctx context.Context, c *sql.Conn, xid types.Xid) error {
	_, err := c.ExecContext(ctx, "COMMIT PREPARED '"+xid.GID()+"'")
	return err
}

func (postgresTwoPhase) rollbackPrepared(ctx context.Context, c *sql.Conn, xid types.Xid) error {
	_, err := c.ExecContext(ctx, "ROLLBACK PREPARED '"+xid.GID()+"'")
	return err
}
