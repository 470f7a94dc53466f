package dbmanager

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tansive/polycatalog/internal/catalogsrv/config"
	"github.com/tansive/polycatalog/internal/catalogsrv/db/dberror"
	"github.com/tansive/polycatalog/pkg/types"
)

func newTestConnector(t *testing.T) Connector {
	t.Helper()
	ctx := log.Logger.WithContext(context.Background())
	cfg := config.Default()
	cfg.DB.Sqlite.Path = filepath.Join(t.TempDir(), "catalog.db")
	c, err := NewConnector(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		c.Close()
	})

	conn, err := c.Conn(ctx)
	require.NoError(t, err)
	defer conn.Close(ctx)
	_, err = conn.Conn().ExecContext(ctx, `CREATE TABLE "item" (id INTEGER PRIMARY KEY, name VARCHAR(20) NOT NULL UNIQUE)`)
	require.NoError(t, err)
	_, err = conn.Conn().ExecContext(ctx, `CREATE TABLE "child" (id INTEGER PRIMARY KEY, item_id INTEGER NOT NULL REFERENCES "item"(id))`)
	require.NoError(t, err)
	return c
}

func countItems(t *testing.T, ctx context.Context, c Connector) int {
	conn, err := c.Conn(ctx)
	require.NoError(t, err)
	defer conn.Close(ctx)
	var n int
	require.NoError(t, conn.Conn().QueryRowContext(ctx, `SELECT COUNT(*) FROM "item"`).Scan(&n))
	return n
}

func TestXABranchCommit(t *testing.T) {
	ctx := log.Logger.WithContext(context.Background())
	c := newTestConnector(t)
	xid := types.NewXid()

	xc, err := c.XAConn(ctx)
	require.NoError(t, err)
	defer xc.Close(ctx)

	require.NoError(t, xc.Start(ctx, xid))
	_, err = xc.Conn().ExecContext(ctx, `INSERT INTO "item" (id, name) VALUES (1, 'a')`)
	require.NoError(t, err)

	// a second start on the same connection is rejected
	assert.ErrorIs(t, xc.Start(ctx, types.NewXid()), dberror.ErrHandlerState)
	// prepare needs the association to be ended first
	_, err = xc.Prepare(ctx, xid)
	assert.ErrorIs(t, err, dberror.ErrHandlerState)

	require.NoError(t, xc.End(ctx, xid))
	ok, err := xc.Prepare(ctx, xid)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, xc.CommitXA(ctx, xid, false))

	assert.Equal(t, 1, countItems(t, ctx, c))

	// the connection is reusable for another branch
	xid2 := types.NewXid()
	require.NoError(t, xc.Start(ctx, xid2))
	require.NoError(t, xc.CommitXA(ctx, xid2, true))
}

func TestXABranchRollback(t *testing.T) {
	ctx := log.Logger.WithContext(context.Background())
	c := newTestConnector(t)
	xid := types.NewXid()

	xc, err := c.XAConn(ctx)
	require.NoError(t, err)
	defer xc.Close(ctx)

	require.NoError(t, xc.Start(ctx, xid))
	_, err = xc.Conn().ExecContext(ctx, `INSERT INTO "item" (id, name) VALUES (1, 'a')`)
	require.NoError(t, err)
	require.NoError(t, xc.End(ctx, xid))
	_, err = xc.Prepare(ctx, xid)
	require.NoError(t, err)

	assert.ErrorIs(t, xc.RollbackXA(ctx, types.NewXid()), dberror.ErrHandlerState)
	require.NoError(t, xc.RollbackXA(ctx, xid))
	assert.Equal(t, 0, countItems(t, ctx, c))
}

func TestAbortedBranchVotesNo(t *testing.T) {
	ctx := log.Logger.WithContext(context.Background())
	c := newTestConnector(t)
	xid := types.NewXid()

	xc, err := c.XAConn(ctx)
	require.NoError(t, err)
	defer xc.Close(ctx)

	require.NoError(t, xc.Start(ctx, xid))
	_, err = xc.Conn().ExecContext(ctx, `INSERT INTO "item" (id, name) VALUES (1, 'a')`)
	require.NoError(t, err)
	// the engine drops the transaction underneath the branch
	_, err = xc.Conn().ExecContext(ctx, `ROLLBACK`)
	require.NoError(t, err)

	require.NoError(t, xc.End(ctx, xid))
	ok, err := xc.Prepare(ctx, xid)
	require.NoError(t, err)
	assert.False(t, ok)

	// a branch that voted no can only be rolled back
	assert.ErrorIs(t, xc.CommitXA(ctx, xid, false), dberror.ErrHandlerState)
	require.NoError(t, xc.RollbackXA(ctx, xid))
	assert.Equal(t, 0, countItems(t, ctx, c))
}

func TestCommitOfLostTransactionFails(t *testing.T) {
	ctx := log.Logger.WithContext(context.Background())
	c := newTestConnector(t)

	xc, err := c.XAConn(ctx)
	require.NoError(t, err)
	defer xc.Close(ctx)

	xid := types.NewXid()
	require.NoError(t, xc.Start(ctx, xid))
	_, err = xc.Conn().ExecContext(ctx, `INSERT INTO "item" (id, name) VALUES (1, 'a')`)
	require.NoError(t, err)
	_, err = xc.Conn().ExecContext(ctx, `ROLLBACK`)
	require.NoError(t, err)
	assert.ErrorIs(t, xc.CommitXA(ctx, xid, true), dberror.ErrTransaction)

	// the same holds for a plain local transaction
	conn, err := c.Conn(ctx)
	require.NoError(t, err)
	defer conn.Close(ctx)
	require.NoError(t, conn.Begin(ctx))
	_, err = conn.Conn().ExecContext(ctx, `ROLLBACK`)
	require.NoError(t, err)
	assert.ErrorIs(t, conn.Commit(ctx), dberror.ErrTransaction)
	require.NoError(t, conn.Rollback(ctx))
	assert.Equal(t, 0, countItems(t, ctx, c))
}

func TestClassify(t *testing.T) {
	ctx := log.Logger.WithContext(context.Background())
	c := newTestConnector(t)

	conn, err := c.Conn(ctx)
	require.NoError(t, err)
	defer conn.Close(ctx)
	db := conn.Conn()

	_, err = db.ExecContext(ctx, `INSERT INTO "item" (id, name) VALUES (1, 'a')`)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, `INSERT INTO "item" (id, name) VALUES (2, 'a')`)
	assert.Equal(t, ClassUniqueViolation, Classify(err))

	_, err = db.ExecContext(ctx, `INSERT INTO "child" (id, item_id) VALUES (1, 42)`)
	assert.Equal(t, ClassForeignKeyViolation, Classify(err))

	_, err = db.ExecContext(ctx, `INSERT INTO "item" (id, name) VALUES (3, NULL)`)
	assert.Equal(t, ClassNotNullViolation, Classify(err))

	_, err = db.ExecContext(ctx, `INSERT INTO "child" (id, item_id) VALUES (1, 1)`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `DELETE FROM "item" WHERE id = 1`)
	assert.Equal(t, ClassForeignKeyViolation, Classify(err))

	assert.Equal(t, ClassOther, Classify(nil))
	assert.Equal(t, ClassOther, Classify(assert.AnError))
}

func TestCaseSensitiveLike(t *testing.T) {
	ctx := log.Logger.WithContext(context.Background())
	c := newTestConnector(t)

	conn, err := c.Conn(ctx)
	require.NoError(t, err)
	defer conn.Close(ctx)
	_, err = conn.Conn().ExecContext(ctx, `INSERT INTO "item" (id, name) VALUES (1, 'Foo'), (2, 'foo')`)
	require.NoError(t, err)

	var n int
	require.NoError(t, conn.Conn().QueryRowContext(ctx, `SELECT COUNT(*) FROM "item" WHERE name LIKE $1`, "foo%").Scan(&n))
	assert.Equal(t, 1, n)
}

func TestStats(t *testing.T) {
	ctx := log.Logger.WithContext(context.Background())
	c := newTestConnector(t)
	req, ret := c.Stats()
	// the fixture opened and closed one connection
	assert.Equal(t, uint64(1), req)
	assert.Equal(t, uint64(1), ret)

	conn, err := c.Conn(ctx)
	require.NoError(t, err)
	conn.Close(ctx)
	conn.Close(ctx)
	req, ret = c.Stats()
	assert.Equal(t, uint64(2), req)
	assert.Equal(t, uint64(2), ret)
}

func TestUnsupportedDialect(t *testing.T) {
	cfg := config.Default()
	cfg.DB.Dialect = "oracle"
	_, err := NewConnector(context.Background(), cfg)
	assert.Error(t, err)
}
