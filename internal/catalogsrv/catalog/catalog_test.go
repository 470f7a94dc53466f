package catalog

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/jackc/pgtype"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tansive/polycatalog/internal/catalogsrv/config"
	"github.com/tansive/polycatalog/internal/catalogsrv/db/dberror"
	"github.com/tansive/polycatalog/internal/catalogsrv/db/dbmanager"
	"github.com/tansive/polycatalog/internal/catalogsrv/db/models"
	"github.com/tansive/polycatalog/pkg/types"
)

// newTestService opens a bootstrapped catalog on a fresh SQLite file.
func newTestService(t *testing.T) (context.Context, *Service) {
	t.Helper()
	ctx := log.Logger.WithContext(context.Background())
	cfg := config.Default()
	cfg.DB.Sqlite.Path = filepath.Join(t.TempDir(), "catalog.db")
	cfg.Bootstrap.DefaultPassword = "secret"
	c, err := dbmanager.NewConnector(ctx, cfg)
	require.NoError(t, err)
	s := New(c, OptionsFromConfig(cfg))
	t.Cleanup(func() { s.Close(ctx) })
	require.NoError(t, s.Bootstrap(ctx))
	return ctx, s
}

func defaultSchema(t *testing.T, ctx context.Context, cat Catalog) *models.Schema {
	t.Helper()
	db, err := cat.GetDatabase(ctx, "APP")
	require.NoError(t, err)
	sc, err := cat.GetSchema(ctx, db.ID, DefaultSchema)
	require.NoError(t, err)
	return sc
}

func newTable(t *testing.T, ctx context.Context, cat Catalog, sc *models.Schema, name string) *models.Table {
	t.Helper()
	tbl := &models.Table{
		Name:      name,
		SchemaID:  sc.ID,
		OwnerID:   sc.OwnerID,
		Encoding:  types.EncodingUTF8,
		Collation: types.CollationCaseInsensitive,
	}
	_, err := cat.AddTable(ctx, tbl)
	require.NoError(t, err)
	return tbl
}

func newColumn(t *testing.T, ctx context.Context, cat Catalog, tableID int64, name string, pos int) *models.Column {
	t.Helper()
	c := &models.Column{
		Name:     name,
		TableID:  tableID,
		Position: pos,
		Type:     types.TypeInteger,
		Nullable: false,
		Encoding: types.EncodingUTF8,
	}
	_, err := cat.AddColumn(ctx, c)
	require.NoError(t, err)
	return c
}

func TestTableLifecycle(t *testing.T) {
	ctx, s := newTestService(t)

	xid := types.NewXid()
	cat := s.GetCatalog(xid)
	assert.Equal(t, xid, cat.Xid())
	sc := defaultSchema(t, ctx, cat)

	t1 := newTable(t, ctx, cat, sc, "T1")
	assert.Equal(t, types.TableTypeTable, t1.TableType)
	c1 := newColumn(t, ctx, cat, t1.ID, "c1", 1)

	cols, err := cat.GetColumns(ctx, t1.ID)
	require.NoError(t, err)
	require.Len(t, cols, 1)
	assert.Equal(t, "c1", cols[0].Name)
	assert.Equal(t, types.TypeInteger, cols[0].Type)
	assert.False(t, cols[0].Nullable)
	assert.Equal(t, 1, cols[0].Position)

	err = cat.DeleteTable(ctx, t1.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, dberror.ErrHasDependents))

	require.NoError(t, cat.DeleteColumn(ctx, c1.ID))
	require.NoError(t, cat.DeleteTable(ctx, t1.ID))

	ok, err := cat.Prepare(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, cat.Commit(ctx))
	assert.Equal(t, 0, s.ActiveCatalogs())

	cat = s.GetCatalog(types.NewXid())
	found, err := cat.CheckIfExistsTable(ctx, sc.ID, "T1")
	require.NoError(t, err)
	assert.False(t, found)
	require.NoError(t, cat.Rollback(ctx))
}

func TestCommitMakesChangesVisible(t *testing.T) {
	ctx, s := newTestService(t)

	cat := s.GetCatalog(types.NewXid())
	sc := defaultSchema(t, ctx, cat)
	tbl := newTable(t, ctx, cat, sc, "ORDERS")
	require.NoError(t, cat.Commit(ctx))

	cat = s.GetCatalog(types.NewXid())
	got, err := cat.GetTableByName(ctx, "APP", DefaultSchema, "ORDERS")
	require.NoError(t, err)
	assert.Equal(t, tbl.ID, got.ID)
	require.NoError(t, cat.Rollback(ctx))
}

func TestRollbackDiscardsChanges(t *testing.T) {
	ctx, s := newTestService(t)

	cat := s.GetCatalog(types.NewXid())
	sc := defaultSchema(t, ctx, cat)
	newTable(t, ctx, cat, sc, "SCRATCH")
	require.NoError(t, cat.Rollback(ctx))

	cat = s.GetCatalog(types.NewXid())
	found, err := cat.CheckIfExistsTable(ctx, sc.ID, "SCRATCH")
	require.NoError(t, err)
	assert.False(t, found)
	require.NoError(t, cat.Rollback(ctx))
}

func TestCheckIfExists(t *testing.T) {
	ctx, s := newTestService(t)
	cat := s.GetCatalog(types.NewXid())
	defer cat.Rollback(ctx)

	found, err := cat.CheckIfExistsDatabase(ctx, "APP")
	require.NoError(t, err)
	assert.True(t, found)
	found, err = cat.CheckIfExistsDatabase(ctx, "NOPE")
	require.NoError(t, err)
	assert.False(t, found)

	sc := defaultSchema(t, ctx, cat)
	found, err = cat.CheckIfExistsSchema(ctx, sc.DatabaseID, DefaultSchema)
	require.NoError(t, err)
	assert.True(t, found)
	found, err = cat.CheckIfExistsSchema(ctx, sc.DatabaseID, "other")
	require.NoError(t, err)
	assert.False(t, found)

	tbl := newTable(t, ctx, cat, sc, "T")
	newColumn(t, ctx, cat, tbl.ID, "a", 1)
	found, err = cat.CheckIfExistsColumn(ctx, tbl.ID, "a")
	require.NoError(t, err)
	assert.True(t, found)
	found, err = cat.CheckIfExistsColumn(ctx, tbl.ID, "b")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPatterns(t *testing.T) {
	ctx, s := newTestService(t)
	cat := s.GetCatalog(types.NewXid())
	defer cat.Rollback(ctx)

	sc := defaultSchema(t, ctx, cat)
	for _, n := range []string{"ITEM", "ITEM_PRICE", "CUSTOMER"} {
		newTable(t, ctx, cat, sc, n)
	}

	all, err := cat.GetTables(ctx, sc.ID, types.AnyPattern)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	items, err := cat.GetTablesByPattern(ctx, types.NewPattern("APP"), types.AnyPattern, types.NewPattern("ITEM%"))
	require.NoError(t, err)
	assert.Len(t, items, 2)

	none, err := cat.GetTablesByPattern(ctx, types.NewPattern("OTHER%"), types.AnyPattern, types.AnyPattern)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	schemas, err := cat.GetSchemasByPattern(ctx, types.AnyPattern, types.NewPattern("pub%"))
	require.NoError(t, err)
	require.Len(t, schemas, 1)
	assert.Equal(t, DefaultSchema, schemas[0].Name)
}

func TestInputValidation(t *testing.T) {
	ctx, s := newTestService(t)
	cat := s.GetCatalog(types.NewXid())
	defer cat.Rollback(ctx)
	sc := defaultSchema(t, ctx, cat)

	_, err := cat.AddTable(ctx, &models.Table{SchemaID: sc.ID, OwnerID: sc.OwnerID})
	assert.True(t, errors.Is(err, dberror.ErrInvalidInput))

	tbl := newTable(t, ctx, cat, sc, "T")
	_, err = cat.AddColumn(ctx, &models.Column{
		Name:      "n",
		TableID:   tbl.ID,
		Position:  1,
		Type:      types.TypeInteger,
		Encoding:  types.EncodingUTF8,
		Collation: pgtype.Int4{Int: int32(types.CollationCaseSensitive), Status: pgtype.Present},
	})
	assert.True(t, errors.Is(err, dberror.ErrInvalidInput))

	_, err = cat.AddColumn(ctx, &models.Column{Name: "p", TableID: tbl.ID, Position: 0, Type: types.TypeInteger})
	assert.True(t, errors.Is(err, dberror.ErrInvalidInput))

	_, err = cat.AddStore(ctx, &models.Store{UniqueName: "s"})
	assert.True(t, errors.Is(err, dberror.ErrInvalidInput))
}

func TestCombinedTable(t *testing.T) {
	ctx, s := newTestService(t)
	cat := s.GetCatalog(types.NewXid())
	defer cat.Rollback(ctx)
	sc := defaultSchema(t, ctx, cat)

	parent := newTable(t, ctx, cat, sc, "PARENT")
	pid := newColumn(t, ctx, cat, parent.ID, "id", 1)
	pkID, err := cat.AddPrimaryKey(ctx, parent.ID, []int64{pid.ID})
	require.NoError(t, err)

	child := newTable(t, ctx, cat, sc, "CHILD")
	cid := newColumn(t, ctx, cat, child.ID, "id", 1)
	ref := newColumn(t, ctx, cat, child.ID, "parent_id", 2)
	fk := &models.ForeignKey{
		Key:             models.Key{TableID: child.ID, ColumnIDs: []int64{ref.ID}},
		ReferencedKeyID: pkID,
		OnDelete:        types.ForeignKeyCascade,
	}
	_, err = cat.AddForeignKey(ctx, fk)
	require.NoError(t, err)
	assert.NotEmpty(t, fk.Name)

	idx := &models.Index{TableID: child.ID, Unique: true, ColumnIDs: []int64{cid.ID}}
	_, err = cat.AddIndex(ctx, idx)
	require.NoError(t, err)

	store := &models.Store{
		UniqueName: "mem",
		Adapter:    "memory",
		Settings:   pgtype.JSONB{Bytes: []byte(`{"maxConnections":10}`), Status: pgtype.Present},
	}
	_, err = cat.AddStore(ctx, store)
	require.NoError(t, err)
	require.NoError(t, cat.AddDataPlacement(ctx, store.ID, child.ID))

	ct, err := cat.GetCombinedTable(ctx, child.ID)
	require.NoError(t, err)
	assert.Equal(t, "CHILD", ct.Table.Name)
	assert.Equal(t, "pa", ct.Owner.Username)
	assert.Len(t, ct.Columns, 2)
	assert.Nil(t, ct.PrimaryKey)
	require.Len(t, ct.ForeignKeys, 1)
	assert.Equal(t, pkID, ct.ForeignKeys[0].ReferencedKeyID)
	require.Len(t, ct.Indexes, 1)
	assert.Equal(t, []int64{cid.ID}, ct.Indexes[0].ColumnIDs)
	require.Len(t, ct.Placements, 1)
	assert.Equal(t, store.ID, ct.Placements[0].StoreID)

	cp, err := cat.GetCombinedTable(ctx, parent.ID)
	require.NoError(t, err)
	require.NotNil(t, cp.PrimaryKey)
	assert.Equal(t, pkID, cp.PrimaryKey.ID)

	exported, err := cat.GetExportedKeys(ctx, parent.ID)
	require.NoError(t, err)
	assert.Len(t, exported, 1)

	err = cat.DeletePrimaryKey(ctx, parent.ID)
	assert.True(t, errors.Is(err, dberror.ErrHasDependents))

	cdb, err := cat.GetCombinedDatabase(ctx, sc.DatabaseID)
	require.NoError(t, err)
	require.Len(t, cdb.Schemas, 1)
	assert.Len(t, cdb.Schemas[0].Tables, 2)

	_, err = cat.GetCombinedTable(ctx, 999999)
	assert.True(t, errors.Is(err, dberror.ErrUnknownTable))
}

func TestCatalogRegistry(t *testing.T) {
	ctx, s := newTestService(t)

	xid := types.NewXid()
	a := s.GetCatalog(xid)
	b := s.GetCatalog(xid)
	assert.Same(t, a, b)
	assert.Equal(t, 1, s.ActiveCatalogs())

	other := s.GetCatalog(types.NewXid())
	assert.NotSame(t, a, other)
	assert.Equal(t, 2, s.ActiveCatalogs())

	// Neither catalog ran a statement, so no branch is bound.
	ok, err := a.Prepare(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, a.Commit(ctx))
	require.NoError(t, other.Rollback(ctx))
	assert.Equal(t, 0, s.ActiveCatalogs())

	local, xa := s.Stats()
	assert.Equal(t, 0, xa.Active)
	assert.GreaterOrEqual(t, local.Opened, uint64(1))
}

func TestCommitAfterBranchLost(t *testing.T) {
	ctx, s := newTestService(t)

	cat := s.GetCatalog(types.NewXid())
	newTable(t, ctx, cat, defaultSchema(t, ctx, cat), "LOST")
	voter := s.GetCatalog(types.NewXid())
	_, err := voter.GetDatabases(ctx, types.AnyPattern)
	require.NoError(t, err)

	// shutting the pool down rolls back both branches
	s.xa.Close(ctx)

	ok, err := voter.Prepare(ctx)
	assert.True(t, errors.Is(err, dberror.ErrHandlerState))
	assert.False(t, ok)
	assert.True(t, errors.Is(cat.Commit(ctx), dberror.ErrHandlerState))
	require.NoError(t, voter.Rollback(ctx))
	assert.Equal(t, 0, s.ActiveCatalogs())
}

func TestAuthenticate(t *testing.T) {
	ctx, s := newTestService(t)

	u, err := s.Authenticate(ctx, "pa", "secret")
	require.NoError(t, err)
	assert.Equal(t, "pa", u.Username)

	_, err = s.Authenticate(ctx, "pa", "wrong")
	assert.True(t, errors.Is(err, ErrAuthFailed))
	_, err = s.Authenticate(ctx, "nobody", "secret")
	assert.True(t, errors.Is(err, ErrAuthFailed))

	_, err = s.AddUser(ctx, "analyst", "pw")
	require.NoError(t, err)
	_, err = s.AddUser(ctx, "analyst", "pw")
	assert.True(t, errors.Is(err, dberror.ErrAlreadyExists))
	_, err = s.Authenticate(ctx, "analyst", "pw")
	assert.NoError(t, err)

	users, err := s.GetUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestAddSchemaRoundTrip(t *testing.T) {
	ctx, s := newTestService(t)
	cat := s.GetCatalog(types.NewXid())
	defer cat.Rollback(ctx)

	owner, err := cat.GetUser(ctx, "pa")
	require.NoError(t, err)
	db := &models.Database{
		Name:            "SALES",
		OwnerID:         owner.ID,
		Encoding:        types.EncodingUTF8,
		Collation:       types.CollationCaseSensitive,
		ConnectionLimit: 10,
	}
	dbID, err := cat.AddDatabase(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, dbID, db.ID)

	in := &models.Schema{
		Name:       DefaultSchema,
		DatabaseID: dbID,
		OwnerID:    owner.ID,
		Encoding:   types.EncodingUTF8,
		Collation:  types.CollationCaseSensitive,
	}
	id, err := cat.AddSchema(ctx, in)
	require.NoError(t, err)

	got, err := cat.GetSchema(ctx, dbID, DefaultSchema)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, in.Name, got.Name)
	assert.Equal(t, dbID, got.DatabaseID)
	assert.Equal(t, owner.ID, got.OwnerID)
	assert.Equal(t, types.CollationCaseSensitive, got.Collation)
	assert.Equal(t, types.SchemaTypeRelational, got.SchemaType)

	_, err = cat.AddSchema(ctx, in)
	assert.True(t, errors.Is(err, dberror.ErrAlreadyExists))

	_, err = cat.GetSchema(ctx, dbID, "missing")
	assert.True(t, errors.Is(err, dberror.ErrUnknownSchema))
}

func TestExistsPropagatesOtherErrors(t *testing.T) {
	found, err := exists[*models.Schema](nil, dberror.ErrUnknownSchema.Msg("gone"))
	assert.NoError(t, err)
	assert.False(t, found)

	found, err = exists[*models.Schema](nil, dberror.ErrConnection)
	assert.True(t, errors.Is(err, dberror.ErrConnection))
	assert.False(t, found)

	found, err = exists(&models.Schema{}, nil)
	assert.NoError(t, err)
	assert.True(t, found)
}
