package catalog

import (
	"context"

	"github.com/tansive/polycatalog/internal/catalogsrv/db/dberror"
	"github.com/tansive/polycatalog/internal/catalogsrv/db/models"
	"github.com/tansive/polycatalog/internal/catalogsrv/db/statements"
	"github.com/tansive/polycatalog/pkg/types"
)

// GetCombinedDatabase returns a database with its schemas and every table in them.
func (c *catalogImpl) GetCombinedDatabase(ctx context.Context, id int64) (*models.CombinedDatabase, error) {
	return run(ctx, c, func(ctx context.Context, ex statements.Executor) (*models.CombinedDatabase, error) {
		return combineDatabase(ctx, newOwnerCache(ex), ex, id)
	})
}

func (c *catalogImpl) GetCombinedSchema(ctx context.Context, id int64) (*models.CombinedSchema, error) {
	return run(ctx, c, func(ctx context.Context, ex statements.Executor) (*models.CombinedSchema, error) {
		sc, err := statements.GetSchemaByID(ctx, ex, id)
		if err != nil {
			return nil, err
		}
		return combineSchema(ctx, newOwnerCache(ex), ex, sc)
	})
}

func (c *catalogImpl) GetCombinedTable(ctx context.Context, id int64) (*models.CombinedTable, error) {
	return run(ctx, c, func(ctx context.Context, ex statements.Executor) (*models.CombinedTable, error) {
		t, err := statements.GetTableByID(ctx, ex, id)
		if err != nil {
			return nil, err
		}
		return combineTable(ctx, newOwnerCache(ex), ex, t)
	})
}

// ownerCache resolves owner ids once per combined view.
type ownerCache struct {
	ex    statements.Executor
	users map[int64]models.User
}

func newOwnerCache(ex statements.Executor) *ownerCache {
	return &ownerCache{ex: ex, users: make(map[int64]models.User)}
}

func (o *ownerCache) get(ctx context.Context, id int64) (models.User, error) {
	if u, ok := o.users[id]; ok {
		return u, nil
	}
	u, err := statements.GetUserByID(ctx, o.ex, id)
	if err != nil {
		return models.User{}, err
	}
	o.users[id] = *u
	return *u, nil
}

func combineDatabase(ctx context.Context, owners *ownerCache, ex statements.Executor, id int64) (*models.CombinedDatabase, error) {
	db, err := statements.GetDatabaseByID(ctx, ex, id)
	if err != nil {
		return nil, err
	}
	owner, err := owners.get(ctx, db.OwnerID)
	if err != nil {
		return nil, err
	}
	schemas, err := statements.GetSchemas(ctx, ex, db.ID, types.AnyPattern)
	if err != nil {
		return nil, err
	}
	result := &models.CombinedDatabase{
		Database: *db,
		Owner:    owner,
		Schemas:  make([]models.CombinedSchema, 0, len(schemas)),
	}
	for i := range schemas {
		cs, err := combineSchema(ctx, owners, ex, &schemas[i])
		if err != nil {
			return nil, err
		}
		result.Schemas = append(result.Schemas, *cs)
	}
	return result, nil
}

func combineSchema(ctx context.Context, owners *ownerCache, ex statements.Executor, sc *models.Schema) (*models.CombinedSchema, error) {
	owner, err := owners.get(ctx, sc.OwnerID)
	if err != nil {
		return nil, err
	}
	tables, err := statements.GetTables(ctx, ex, sc.ID, types.AnyPattern)
	if err != nil {
		return nil, err
	}
	result := &models.CombinedSchema{
		Schema: *sc,
		Owner:  owner,
		Tables: make([]models.CombinedTable, 0, len(tables)),
	}
	for i := range tables {
		ct, err := combineTable(ctx, owners, ex, &tables[i])
		if err != nil {
			return nil, err
		}
		result.Tables = append(result.Tables, *ct)
	}
	return result, nil
}

func combineTable(ctx context.Context, owners *ownerCache, ex statements.Executor, t *models.Table) (*models.CombinedTable, error) {
	owner, err := owners.get(ctx, t.OwnerID)
	if err != nil {
		return nil, err
	}
	result := &models.CombinedTable{Table: *t, Owner: owner}
	if result.Columns, err = statements.GetColumns(ctx, ex, t.ID); err != nil {
		return nil, err
	}
	if result.Keys, err = statements.GetKeys(ctx, ex, t.ID); err != nil {
		return nil, err
	}
	if t.HasPrimaryKey() {
		pk, err := statements.GetPrimaryKey(ctx, ex, t)
		if err != nil && !dberror.IsNotFound(err) {
			return nil, err
		}
		result.PrimaryKey = pk
	}
	if result.ForeignKeys, err = statements.GetForeignKeys(ctx, ex, t.ID); err != nil {
		return nil, err
	}
	if result.Indexes, err = statements.GetIndexes(ctx, ex, t.ID, false); err != nil {
		return nil, err
	}
	if result.Placements, err = statements.GetDataPlacements(ctx, ex, t.ID); err != nil {
		return nil, err
	}
	return result, nil
}
