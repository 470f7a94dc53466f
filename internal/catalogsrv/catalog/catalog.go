// Package catalog is the entry point to the metadata catalog. A Service owns
// the storage connector, the handler pools and the registry of per
// transaction Catalog facades. Every Catalog is bound to one Xid and runs
// all of its statements on the XA branch of that Xid.
package catalog

import (
	"context"
	"sync/atomic"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgtype"
	"github.com/rs/zerolog/log"
	"github.com/tansive/polycatalog/internal/catalogsrv/db/dberror"
	"github.com/tansive/polycatalog/internal/catalogsrv/db/models"
	"github.com/tansive/polycatalog/internal/catalogsrv/db/statements"
	"github.com/tansive/polycatalog/internal/common/logtrace"
	"github.com/tansive/polycatalog/pkg/types"
)

// Catalog reads and changes catalog entities inside one global transaction.
// Implementations are not safe for concurrent use by more than one caller.
type Catalog interface {
	Xid() types.Xid

	// Users
	GetUser(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	AddUser(ctx context.Context, username, password string) (int64, error)

	// Databases
	GetDatabases(ctx context.Context, pattern types.Pattern) ([]models.Database, error)
	GetDatabase(ctx context.Context, name string) (*models.Database, error)
	GetDatabaseByID(ctx context.Context, id int64) (*models.Database, error)
	AddDatabase(ctx context.Context, db *models.Database) (int64, error)
	RenameDatabase(ctx context.Context, id int64, name string) error
	SetDatabaseOwner(ctx context.Context, id int64, ownerID int64) error
	DeleteDatabase(ctx context.Context, id int64) error
	CheckIfExistsDatabase(ctx context.Context, name string) (bool, error)

	// Schemas
	GetSchemas(ctx context.Context, databaseID int64, pattern types.Pattern) ([]models.Schema, error)
	GetSchemasByPattern(ctx context.Context, dbPattern, schemaPattern types.Pattern) ([]models.Schema, error)
	GetSchema(ctx context.Context, databaseID int64, name string) (*models.Schema, error)
	GetSchemaByID(ctx context.Context, id int64) (*models.Schema, error)
	AddSchema(ctx context.Context, schema *models.Schema) (int64, error)
	RenameSchema(ctx context.Context, id int64, name string) error
	SetSchemaOwner(ctx context.Context, id int64, ownerID int64) error
	DeleteSchema(ctx context.Context, id int64) error
	CheckIfExistsSchema(ctx context.Context, databaseID int64, name string) (bool, error)

	// Tables
	GetTables(ctx context.Context, schemaID int64, pattern types.Pattern) ([]models.Table, error)
	GetTablesByPattern(ctx context.Context, dbPattern, schemaPattern, tablePattern types.Pattern) ([]models.Table, error)
	GetTable(ctx context.Context, schemaID int64, name string) (*models.Table, error)
	GetTableByName(ctx context.Context, database, schema, table string) (*models.Table, error)
	GetTableByID(ctx context.Context, id int64) (*models.Table, error)
	AddTable(ctx context.Context, table *models.Table) (int64, error)
	RenameTable(ctx context.Context, id int64, name string) error
	SetTableOwner(ctx context.Context, id int64, ownerID int64) error
	SetPrimaryKey(ctx context.Context, id int64, keyID pgtype.Int8) error
	DeleteTable(ctx context.Context, id int64) error
	CheckIfExistsTable(ctx context.Context, schemaID int64, name string) (bool, error)

	// Columns
	GetColumns(ctx context.Context, tableID int64) ([]models.Column, error)
	GetColumnsByPattern(ctx context.Context, dbPattern, schemaPattern, tablePattern, columnPattern types.Pattern) ([]models.Column, error)
	GetColumn(ctx context.Context, tableID int64, name string) (*models.Column, error)
	GetColumnByID(ctx context.Context, id int64) (*models.Column, error)
	AddColumn(ctx context.Context, column *models.Column) (int64, error)
	RenameColumn(ctx context.Context, id int64, name string) error
	SetColumnPosition(ctx context.Context, id int64, position int) error
	SetColumnType(ctx context.Context, id int64, typ types.ColumnType, length, precision pgtype.Int4) error
	SetNullable(ctx context.Context, id int64, nullable bool) error
	SetCollation(ctx context.Context, id int64, collation pgtype.Int4) error
	SetForceDefault(ctx context.Context, id int64, force bool) error
	SetDefaultValue(ctx context.Context, dv *models.DefaultValue) error
	DeleteDefaultValue(ctx context.Context, columnID int64) error
	DeleteColumn(ctx context.Context, id int64) error
	CheckIfExistsColumn(ctx context.Context, tableID int64, name string) (bool, error)

	// Keys
	GetKeys(ctx context.Context, tableID int64) ([]models.Key, error)
	GetKey(ctx context.Context, id int64) (*models.Key, error)
	AddKey(ctx context.Context, tableID int64, columnIDs []int64) (int64, error)
	DeleteKey(ctx context.Context, id int64) error
	AddPrimaryKey(ctx context.Context, tableID int64, columnIDs []int64) (int64, error)
	GetPrimaryKey(ctx context.Context, tableID int64) (*models.PrimaryKey, error)
	DeletePrimaryKey(ctx context.Context, tableID int64) error

	// Foreign keys
	GetForeignKeys(ctx context.Context, tableID int64) ([]models.ForeignKey, error)
	GetExportedKeys(ctx context.Context, tableID int64) ([]models.ForeignKey, error)
	GetForeignKey(ctx context.Context, tableID int64, name string) (*models.ForeignKey, error)
	AddForeignKey(ctx context.Context, fk *models.ForeignKey) (int64, error)
	DeleteForeignKey(ctx context.Context, keyID int64) error

	// Indexes
	GetIndexes(ctx context.Context, tableID int64, onlyUnique bool) ([]models.Index, error)
	GetIndex(ctx context.Context, tableID int64, name string) (*models.Index, error)
	AddIndex(ctx context.Context, idx *models.Index) (int64, error)
	DeleteIndex(ctx context.Context, id int64) error

	// Stores and placements
	GetStores(ctx context.Context) ([]models.Store, error)
	GetStore(ctx context.Context, uniqueName string) (*models.Store, error)
	AddStore(ctx context.Context, store *models.Store) (int64, error)
	SetStoreSetting(ctx context.Context, id int64, path string, value any) error
	DeleteStore(ctx context.Context, id int64) error
	GetDataPlacements(ctx context.Context, tableID int64) ([]models.DataPlacement, error)
	GetDataPlacementsOnStore(ctx context.Context, storeID int64) ([]models.DataPlacement, error)
	AddDataPlacement(ctx context.Context, storeID, tableID int64) error
	DeleteDataPlacement(ctx context.Context, storeID, tableID int64) error

	// Combined views
	GetCombinedDatabase(ctx context.Context, id int64) (*models.CombinedDatabase, error)
	GetCombinedSchema(ctx context.Context, id int64) (*models.CombinedSchema, error)
	GetCombinedTable(ctx context.Context, id int64) (*models.CombinedTable, error)

	// Two-phase participant
	Prepare(ctx context.Context) (bool, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

var validate = validator.New()

type catalogImpl struct {
	xid types.Xid
	svc *Service
	// bound is set once a statement has run on the branch of xid.
	bound atomic.Bool
}

var _ Catalog = (*catalogImpl)(nil)

func (c *catalogImpl) Xid() types.Xid {
	return c.xid
}

func (c *catalogImpl) logCtx(ctx context.Context) context.Context {
	if logtrace.XidFromContext(ctx) == c.xid.String() {
		return ctx
	}
	return logtrace.WithXid(ctx, c.xid.String())
}

// run executes fn on the branch bound to the catalog's Xid, starting the
// branch on first use.
func run[T any](ctx context.Context, c *catalogImpl, fn func(ctx context.Context, ex statements.Executor) (T, error)) (T, error) {
	ctx = c.logCtx(ctx)
	h, err := c.svc.xa.GetOrCreate(ctx, c.xid)
	if err != nil {
		var zero T
		return zero, err
	}
	c.bound.Store(true)
	return fn(ctx, h)
}

func exec(ctx context.Context, c *catalogImpl, fn func(ctx context.Context, ex statements.Executor) error) error {
	_, err := run(ctx, c, func(ctx context.Context, ex statements.Executor) (struct{}, error) {
		return struct{}{}, fn(ctx, ex)
	})
	return err
}

// exists turns a not-found error into false and passes every other error on.
func exists[T any](v T, err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if dberror.IsNotFound(err) {
		return false, nil
	}
	return false, err
}

func validateInput(v any) error {
	if err := validate.Struct(v); err != nil {
		return dberror.ErrInvalidInput.MsgErr("invalid input: "+err.Error(), err)
	}
	return nil
}

// lostBranch is the error for a catalog whose branch was ended behind its back,
// for example by a shutdown of the service.
func (c *catalogImpl) lostBranch(ctx context.Context) error {
	log.Ctx(ctx).Error().Msg("branch of the transaction is gone; its changes were rolled back")
	return dberror.ErrHandlerState.Msg("transaction branch " + c.xid.String() + " was rolled back")
}

// Prepare asks the bound branch to prepare. A catalog that never ran a
// statement has nothing to vote on and votes yes.
func (c *catalogImpl) Prepare(ctx context.Context) (bool, error) {
	ctx = c.logCtx(ctx)
	h, ok := c.svc.xa.Get(c.xid)
	if !ok {
		if c.bound.Load() {
			return false, c.lostBranch(ctx)
		}
		return true, nil
	}
	return h.Prepare(ctx)
}

// Commit commits the bound branch, if any, and removes the catalog from the registry.
func (c *catalogImpl) Commit(ctx context.Context) error {
	ctx = c.logCtx(ctx)
	defer c.svc.RemoveCatalog(ctx, c.xid)
	h, ok := c.svc.xa.Get(c.xid)
	if !ok {
		if c.bound.Swap(false) {
			return c.lostBranch(ctx)
		}
		log.Ctx(ctx).Debug().Msg("commit without a bound branch")
		return nil
	}
	c.bound.Store(false)
	return h.Commit(ctx)
}

// Rollback rolls the bound branch back, if any, and removes the catalog from the registry.
func (c *catalogImpl) Rollback(ctx context.Context) error {
	ctx = c.logCtx(ctx)
	defer c.svc.RemoveCatalog(ctx, c.xid)
	c.bound.Store(false)
	h, ok := c.svc.xa.Get(c.xid)
	if !ok {
		log.Ctx(ctx).Debug().Msg("rollback without a bound branch")
		return nil
	}
	return h.Rollback(ctx)
}
