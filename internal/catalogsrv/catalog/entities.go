package catalog

import (
	"context"

	"github.com/jackc/pgtype"
	"github.com/tansive/polycatalog/internal/catalogsrv/catcommon"
	"github.com/tansive/polycatalog/internal/catalogsrv/db/dberror"
	"github.com/tansive/polycatalog/internal/catalogsrv/db/models"
	"github.com/tansive/polycatalog/internal/catalogsrv/db/statements"
	"github.com/tansive/polycatalog/pkg/types"
)

// Users

func (c *catalogImpl) GetUser(ctx context.Context, username string) (*models.User, error) {
	return run(ctx, c, func(ctx context.Context, ex statements.Executor) (*models.User, error) {
		return statements.GetUser(ctx, ex, username)
	})
}

func (c *catalogImpl) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return run(ctx, c, func(ctx context.Context, ex statements.Executor) (*models.User, error) {
		return statements.GetUserByID(ctx, ex, id)
	})
}

// AddUser stores a new user with an argon2id hash of password.
func (c *catalogImpl) AddUser(ctx context.Context, username, password string) (int64, error) {
	if err := validateInput(&models.User{Username: username}); err != nil {
		return 0, err
	}
	hash, err := catcommon.HashPassword(password)
	if err != nil {
		return 0, dberror.ErrDatabase.Err(err)
	}
	return run(ctx, c, func(ctx context.Context, ex statements.Executor) (int64, error) {
		return statements.AddUser(ctx, ex, username, hash)
	})
}

// Databases

func (c *catalogImpl) GetDatabases(ctx context.Context, pattern types.Pattern) ([]models.Database, error) {
	return run(ctx, c, func(ctx context.Context, ex statements.Executor) ([]models.Database, error) {
		return statements.GetDatabases(ctx, ex, pattern)
	})
}

func (c *catalogImpl) GetDatabase(ctx context.Context, name string) (*models.Database, error) {
	return run(ctx, c, func(ctx context.Context, ex statements.Executor) (*models.Database, error) {
		return statements.GetDatabase(ctx, ex, name)
	})
}

func (c *catalogImpl) GetDatabaseByID(ctx context.Context, id int64) (*models.Database, error) {
	return run(ctx, c, func(ctx context.Context, ex statements.Executor) (*models.Database, error) {
		return statements.GetDatabaseByID(ctx, ex, id)
	})
}

func (c *catalogImpl) AddDatabase(ctx context.Context, db *models.Database) (int64, error) {
	if err := validateInput(db); err != nil {
		return 0, err
	}
	return run(ctx, c, func(ctx context.Context, ex statements.Executor) (int64, error) {
		return statements.AddDatabase(ctx, ex, db)
	})
}

func (c *catalogImpl) RenameDatabase(ctx context.Context, id int64, name string) error {
	return exec(ctx, c, func(ctx context.Context, ex statements.Executor) error {
		return statements.RenameDatabase(ctx, ex, id, name)
	})
}

func (c *catalogImpl) SetDatabaseOwner(ctx context.Context, id int64, ownerID int64) error {
	return exec(ctx, c, func(ctx context.Context, ex statements.Executor) error {
		return statements.SetDatabaseOwner(ctx, ex, id, ownerID)
	})
}

func (c *catalogImpl) DeleteDatabase(ctx context.Context, id int64) error {
	return exec(ctx, c, func(ctx context.Context, ex statements.Executor) error {
		return statements.DeleteDatabase(ctx, ex, id)
	})
}

func (c *catalogImpl) CheckIfExistsDatabase(ctx context.Context, name string) (bool, error) {
	return exists(c.GetDatabase(ctx, name))
}

// Schemas

func (c *catalogImpl) GetSchemas(ctx context.Context, databaseID int64, pattern types.Pattern) ([]models.Schema, error) {
	return run(ctx, c, func(ctx context.Context, ex statements.Executor) ([]models.Schema, error) {
		return statements.GetSchemas(ctx, ex, databaseID, pattern)
	})
}

func (c *catalogImpl) GetSchemasByPattern(ctx context.Context, dbPattern, schemaPattern types.Pattern) ([]models.Schema, error) {
	return run(ctx, c, func(ctx context.Context, ex statements.Executor) ([]models.Schema, error) {
		return statements.FindSchemas(ctx, ex, dbPattern, schemaPattern)
	})
}

func (c *catalogImpl) GetSchema(ctx context.Context, databaseID int64, name string) (*models.Schema, error) {
	return run(ctx, c, func(ctx context.Context, ex statements.Executor) (*models.Schema, error) {
		return statements.GetSchema(ctx, ex, databaseID, name)
	})
}

func (c *catalogImpl) GetSchemaByID(ctx context.Context, id int64) (*models.Schema, error) {
	return run(ctx, c, func(ctx context.Context, ex statements.Executor) (*models.Schema, error) {
		return statements.GetSchemaByID(ctx, ex, id)
	})
}

func (c *catalogImpl) AddSchema(ctx context.Context, schema *models.Schema) (int64, error) {
	if err := validateInput(schema); err != nil {
		return 0, err
	}
	if schema.SchemaType == 0 {
		schema.SchemaType = types.SchemaTypeRelational
	}
	return run(ctx, c, func(ctx context.Context, ex statements.Executor) (int64, error) {
		return statements.AddSchema(ctx, ex, schema)
	})
}

func (c *catalogImpl) RenameSchema(ctx context.Context, id int64, name string) error {
	return exec(ctx, c, func(ctx context.Context, ex statements.Executor) error {
		return statements.RenameSchema(ctx, ex, id, name)
	})
}

func (c *catalogImpl) SetSchemaOwner(ctx context.Context, id int64, ownerID int64) error {
	return exec(ctx, c, func(ctx context.Context, ex statements.Executor) error {
		return statements.SetSchemaOwner(ctx, ex, id, ownerID)
	})
}

func (c *catalogImpl) DeleteSchema(ctx context.Context, id int64) error {
	return exec(ctx, c, func(ctx context.Context, ex statements.Executor) error {
		return statements.DeleteSchema(ctx, ex, id)
	})
}

// CheckIfExistsSchema reports false only when the schema is not found; any
// other failure is returned.
func (c *catalogImpl) CheckIfExistsSchema(ctx context.Context, databaseID int64, name string) (bool, error) {
	return exists(c.GetSchema(ctx, databaseID, name))
}

// Tables

func (c *catalogImpl) GetTables(ctx context.Context, schemaID int64, pattern types.Pattern) ([]models.Table, error) {
	return run(ctx, c, func(ctx context.Context, ex statements.Executor) ([]models.Table, error) {
		return statements.GetTables(ctx, ex, schemaID, pattern)
	})
}

func (c *catalogImpl) GetTablesByPattern(ctx context.Context, dbPattern, schemaPattern, tablePattern types.Pattern) ([]models.Table, error) {
	return run(ctx, c, func(ctx context.Context, ex statements.Executor) ([]models.Table, error) {
		return statements.FindTables(ctx, ex, dbPattern, schemaPattern, tablePattern)
	})
}

func (c *catalogImpl) GetTable(ctx context.Context, schemaID int64, name string) (*models.Table, error) {
	return run(ctx, c, func(ctx context.Context, ex statements.Executor) (*models.Table, error) {
		return statements.GetTable(ctx, ex, schemaID, name)
	})
}

func (c *catalogImpl) GetTableByName(ctx context.Context, database, schema, table string) (*models.Table, error) {
	return run(ctx, c, func(ctx context.Context, ex statements.Executor) (*models.Table, error) {
		return statements.GetTableByName(ctx, ex, database, schema, table)
	})
}

func (c *catalogImpl) GetTableByID(ctx context.Context, id int64) (*models.Table, error) {
	return run(ctx, c, func(ctx context.Context, ex statements.Executor) (*models.Table, error) {
		return statements.GetTableByID(ctx, ex, id)
	})
}

func (c *catalogImpl) AddTable(ctx context.Context, table *models.Table) (int64, error) {
	if err := validateInput(table); err != nil {
		return 0, err
	}
	if table.TableType == 0 {
		table.TableType = types.TableTypeTable
	}
	return run(ctx, c, func(ctx context.Context, ex statements.Executor) (int64, error) {
		return statements.AddTable(ctx, ex, table)
	})
}

func (c *catalogImpl) RenameTable(ctx context.Context, id int64, name string) error {
	return exec(ctx, c, func(ctx context.Context, ex statements.Executor) error {
		return statements.RenameTable(ctx, ex, id, name)
	})
}

func (c *catalogImpl) SetTableOwner(ctx context.Context, id int64, ownerID int64) error {
	return exec(ctx, c, func(ctx context.Context, ex statements.Executor) error {
		return statements.SetTableOwner(ctx, ex, id, ownerID)
	})
}

func (c *catalogImpl) SetPrimaryKey(ctx context.Context, id int64, keyID pgtype.Int8) error {
	return exec(ctx, c, func(ctx context.Context, ex statements.Executor) error {
		return statements.SetPrimaryKey(ctx, ex, id, keyID)
	})
}

func (c *catalogImpl) DeleteTable(ctx context.Context, id int64) error {
	return exec(ctx, c, func(ctx context.Context, ex statements.Executor) error {
		return statements.DeleteTable(ctx, ex, id)
	})
}

func (c *catalogImpl) CheckIfExistsTable(ctx context.Context, schemaID int64, name string) (bool, error) {
	return exists(c.GetTable(ctx, schemaID, name))
}

// Columns

func (c *catalogImpl) GetColumns(ctx context.Context, tableID int64) ([]models.Column, error) {
	return run(ctx, c, func(ctx context.Context, ex statements.Executor) ([]models.Column, error) {
		return statements.GetColumns(ctx, ex, tableID)
	})
}

func (c *catalogImpl) GetColumnsByPattern(ctx context.Context, dbPattern, schemaPattern, tablePattern, columnPattern types.Pattern) ([]models.Column, error) {
	return run(ctx, c, func(ctx context.Context, ex statements.Executor) ([]models.Column, error) {
		return statements.FindColumns(ctx, ex, dbPattern, schemaPattern, tablePattern, columnPattern)
	})
}

func (c *catalogImpl) GetColumn(ctx context.Context, tableID int64, name string) (*models.Column, error) {
	return run(ctx, c, func(ctx context.Context, ex statements.Executor) (*models.Column, error) {
		return statements.GetColumn(ctx, ex, tableID, name)
	})
}

func (c *catalogImpl) GetColumnByID(ctx context.Context, id int64) (*models.Column, error) {
	return run(ctx, c, func(ctx context.Context, ex statements.Executor) (*models.Column, error) {
		return statements.GetColumnByID(ctx, ex, id)
	})
}

func (c *catalogImpl) AddColumn(ctx context.Context, column *models.Column) (int64, error) {
	if err := validateInput(column); err != nil {
		return 0, err
	}
	if !column.Type.IsCharacter() && column.Collation.Status == pgtype.Present {
		return 0, dberror.ErrInvalidInput.Msg("collation is only allowed on character columns")
	}
	return run(ctx, c, func(ctx context.Context, ex statements.Executor) (int64, error) {
		return statements.AddColumn(ctx, ex, column)
	})
}

func (c *catalogImpl) RenameColumn(ctx context.Context, id int64, name string) error {
	return exec(ctx, c, func(ctx context.Context, ex statements.Executor) error {
		return statements.RenameColumn(ctx, ex, id, name)
	})
}

func (c *catalogImpl) SetColumnPosition(ctx context.Context, id int64, position int) error {
	return exec(ctx, c, func(ctx context.Context, ex statements.Executor) error {
		return statements.SetColumnPosition(ctx, ex, id, position)
	})
}

func (c *catalogImpl) SetColumnType(ctx context.Context, id int64, typ types.ColumnType, length, precision pgtype.Int4) error {
	return exec(ctx, c, func(ctx context.Context, ex statements.Executor) error {
		return statements.SetColumnType(ctx, ex, id, typ, length, precision)
	})
}

func (c *catalogImpl) SetNullable(ctx context.Context, id int64, nullable bool) error {
	return exec(ctx, c, func(ctx context.Context, ex statements.Executor) error {
		return statements.SetNullable(ctx, ex, id, nullable)
	})
}

func (c *catalogImpl) SetCollation(ctx context.Context, id int64, collation pgtype.Int4) error {
	return exec(ctx, c, func(ctx context.Context, ex statements.Executor) error {
		return statements.SetCollation(ctx, ex, id, collation)
	})
}

func (c *catalogImpl) SetForceDefault(ctx context.Context, id int64, force bool) error {
	return exec(ctx, c, func(ctx context.Context, ex statements.Executor) error {
		return statements.SetForceDefault(ctx, ex, id, force)
	})
}

func (c *catalogImpl) SetDefaultValue(ctx context.Context, dv *models.DefaultValue) error {
	return exec(ctx, c, func(ctx context.Context, ex statements.Executor) error {
		return statements.SetDefaultValue(ctx, ex, dv)
	})
}

func (c *catalogImpl) DeleteDefaultValue(ctx context.Context, columnID int64) error {
	return exec(ctx, c, func(ctx context.Context, ex statements.Executor) error {
		return statements.DeleteDefaultValue(ctx, ex, columnID)
	})
}

func (c *catalogImpl) DeleteColumn(ctx context.Context, id int64) error {
	return exec(ctx, c, func(ctx context.Context, ex statements.Executor) error {
		return statements.DeleteColumn(ctx, ex, id)
	})
}

func (c *catalogImpl) CheckIfExistsColumn(ctx context.Context, tableID int64, name string) (bool, error) {
	return exists(c.GetColumn(ctx, tableID, name))
}

// Keys

func (c *catalogImpl) GetKeys(ctx context.Context, tableID int64) ([]models.Key, error) {
	return run(ctx, c, func(ctx context.Context, ex statements.Executor) ([]models.Key, error) {
		return statements.GetKeys(ctx, ex, tableID)
	})
}

func (c *catalogImpl) GetKey(ctx context.Context, id int64) (*models.Key, error) {
	return run(ctx, c, func(ctx context.Context, ex statements.Executor) (*models.Key, error) {
		return statements.GetKey(ctx, ex, id)
	})
}

func (c *catalogImpl) AddKey(ctx context.Context, tableID int64, columnIDs []int64) (int64, error) {
	return run(ctx, c, func(ctx context.Context, ex statements.Executor) (int64, error) {
		return statements.AddKey(ctx, ex, tableID, columnIDs)
	})
}

func (c *catalogImpl) DeleteKey(ctx context.Context, id int64) error {
	return exec(ctx, c, func(ctx context.Context, ex statements.Executor) error {
		return statements.DeleteKey(ctx, ex, id)
	})
}

// AddPrimaryKey makes a new key over columnIDs the table's primary key. A
// previous primary key is removed.
func (c *catalogImpl) AddPrimaryKey(ctx context.Context, tableID int64, columnIDs []int64) (int64, error) {
	return run(ctx, c, func(ctx context.Context, ex statements.Executor) (int64, error) {
		t, err := statements.GetTableByID(ctx, ex, tableID)
		if err != nil {
			return 0, err
		}
		return statements.AddPrimaryKey(ctx, ex, t, columnIDs)
	})
}

func (c *catalogImpl) GetPrimaryKey(ctx context.Context, tableID int64) (*models.PrimaryKey, error) {
	return run(ctx, c, func(ctx context.Context, ex statements.Executor) (*models.PrimaryKey, error) {
		t, err := statements.GetTableByID(ctx, ex, tableID)
		if err != nil {
			return nil, err
		}
		return statements.GetPrimaryKey(ctx, ex, t)
	})
}

func (c *catalogImpl) DeletePrimaryKey(ctx context.Context, tableID int64) error {
	return exec(ctx, c, func(ctx context.Context, ex statements.Executor) error {
		t, err := statements.GetTableByID(ctx, ex, tableID)
		if err != nil {
			return err
		}
		return statements.DeletePrimaryKey(ctx, ex, t)
	})
}

// Foreign keys

func (c *catalogImpl) GetForeignKeys(ctx context.Context, tableID int64) ([]models.ForeignKey, error) {
	return run(ctx, c, func(ctx context.Context, ex statements.Executor) ([]models.ForeignKey, error) {
		return statements.GetForeignKeys(ctx, ex, tableID)
	})
}

func (c *catalogImpl) GetExportedKeys(ctx context.Context, tableID int64) ([]models.ForeignKey, error) {
	return run(ctx, c, func(ctx context.Context, ex statements.Executor) ([]models.ForeignKey, error) {
		return statements.GetExportedKeys(ctx, ex, tableID)
	})
}

func (c *catalogImpl) GetForeignKey(ctx context.Context, tableID int64, name string) (*models.ForeignKey, error) {
	return run(ctx, c, func(ctx context.Context, ex statements.Executor) (*models.ForeignKey, error) {
		return statements.GetForeignKey(ctx, ex, tableID, name)
	})
}

// AddForeignKey creates a foreign key from fk.ColumnIDs of fk.TableID to
// fk.ReferencedKeyID. A name is generated when fk.Name is empty.
func (c *catalogImpl) AddForeignKey(ctx context.Context, fk *models.ForeignKey) (int64, error) {
	if err := validateInput(fk); err != nil {
		return 0, err
	}
	return run(ctx, c, func(ctx context.Context, ex statements.Executor) (int64, error) {
		return statements.AddForeignKey(ctx, ex, fk)
	})
}

func (c *catalogImpl) DeleteForeignKey(ctx context.Context, keyID int64) error {
	return exec(ctx, c, func(ctx context.Context, ex statements.Executor) error {
		return statements.DeleteForeignKey(ctx, ex, keyID)
	})
}

// Indexes

func (c *catalogImpl) GetIndexes(ctx context.Context, tableID int64, onlyUnique bool) ([]models.Index, error) {
	return run(ctx, c, func(ctx context.Context, ex statements.Executor) ([]models.Index, error) {
		return statements.GetIndexes(ctx, ex, tableID, onlyUnique)
	})
}

func (c *catalogImpl) GetIndex(ctx context.Context, tableID int64, name string) (*models.Index, error) {
	return run(ctx, c, func(ctx context.Context, ex statements.Executor) (*models.Index, error) {
		return statements.GetIndex(ctx, ex, tableID, name)
	})
}

func (c *catalogImpl) AddIndex(ctx context.Context, idx *models.Index) (int64, error) {
	if err := validateInput(idx); err != nil {
		return 0, err
	}
	return run(ctx, c, func(ctx context.Context, ex statements.Executor) (int64, error) {
		return statements.AddIndex(ctx, ex, idx)
	})
}

func (c *catalogImpl) DeleteIndex(ctx context.Context, id int64) error {
	return exec(ctx, c, func(ctx context.Context, ex statements.Executor) error {
		return statements.DeleteIndex(ctx, ex, id)
	})
}

// Stores and data placements

func (c *catalogImpl) GetStores(ctx context.Context) ([]models.Store, error) {
	return run(ctx, c, func(ctx context.Context, ex statements.Executor) ([]models.Store, error) {
		return statements.GetStores(ctx, ex)
	})
}

func (c *catalogImpl) GetStore(ctx context.Context, uniqueName string) (*models.Store, error) {
	return run(ctx, c, func(ctx context.Context, ex statements.Executor) (*models.Store, error) {
		return statements.GetStore(ctx, ex, uniqueName)
	})
}

func (c *catalogImpl) AddStore(ctx context.Context, store *models.Store) (int64, error) {
	if err := validateInput(store); err != nil {
		return 0, err
	}
	return run(ctx, c, func(ctx context.Context, ex statements.Executor) (int64, error) {
		return statements.AddStore(ctx, ex, store)
	})
}

func (c *catalogImpl) SetStoreSetting(ctx context.Context, id int64, path string, value any) error {
	return exec(ctx, c, func(ctx context.Context, ex statements.Executor) error {
		return statements.SetStoreSetting(ctx, ex, id, path, value)
	})
}

func (c *catalogImpl) DeleteStore(ctx context.Context, id int64) error {
	return exec(ctx, c, func(ctx context.Context, ex statements.Executor) error {
		return statements.DeleteStore(ctx, ex, id)
	})
}

func (c *catalogImpl) GetDataPlacements(ctx context.Context, tableID int64) ([]models.DataPlacement, error) {
	return run(ctx, c, func(ctx context.Context, ex statements.Executor) ([]models.DataPlacement, error) {
		return statements.GetDataPlacements(ctx, ex, tableID)
	})
}

func (c *catalogImpl) GetDataPlacementsOnStore(ctx context.Context, storeID int64) ([]models.DataPlacement, error) {
	return run(ctx, c, func(ctx context.Context, ex statements.Executor) ([]models.DataPlacement, error) {
		return statements.GetDataPlacementsOnStore(ctx, ex, storeID)
	})
}

func (c *catalogImpl) AddDataPlacement(ctx context.Context, storeID, tableID int64) error {
	return exec(ctx, c, func(ctx context.Context, ex statements.Executor) error {
		return statements.AddDataPlacement(ctx, ex, storeID, tableID)
	})
}

func (c *catalogImpl) DeleteDataPlacement(ctx context.Context, storeID, tableID int64) error {
	return exec(ctx, c, func(ctx context.Context, ex statements.Executor) error {
		return statements.DeleteDataPlacement(ctx, ex, storeID, tableID)
	})
}
