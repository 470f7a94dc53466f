package statements

import (
	"context"

	"github.com/jackc/pgtype"
	"github.com/tansive/polycatalog/internal/catalogsrv/db/dberror"
	"github.com/tansive/polycatalog/internal/catalogsrv/db/models"
	"github.com/tansive/polycatalog/pkg/types"
)

var tableEntity = &entity[models.Table]{
	name: "table",
	from: `"table" t`,
	columns: []string{
		"t.id", "t.name", "t.schema_id", "t.owner_id", "t.encoding", "t.collation_type",
		"t.table_type", "t.definition", "t.primary_key",
	},
	scan: func(s scanner) (models.Table, error) {
		var t models.Table
		err := s.Scan(&t.ID, &t.Name, &t.SchemaID, &t.OwnerID, &t.Encoding, &t.Collation,
			&t.TableType, &t.Definition, &t.PrimaryKey)
		return t, err
	},
	notFound: dberror.ErrUnknownTable,
}

const tableJoins = `JOIN "schema" s ON t.schema_id = s.id JOIN "database" d ON s.database_id = d.id`

// GetTables lists the tables of one schema whose name matches pattern.
func GetTables(ctx context.Context, ex Executor, schemaID int64, pattern types.Pattern) ([]models.Table, error) {
	f := newFilter().eq("t.schema_id", schemaID).like("t.name", pattern)
	return queryAll(ctx, ex, tableEntity, "", f, "t.id")
}

// FindTables lists tables by database, schema and table name pattern.
func FindTables(ctx context.Context, ex Executor, dbPattern, schemaPattern, tablePattern types.Pattern) ([]models.Table, error) {
	f := newFilter().like("d.name", dbPattern).like("s.name", schemaPattern).like("t.name", tablePattern)
	return queryAll(ctx, ex, tableEntity, tableJoins, f, "t.id")
}

func GetTable(ctx context.Context, ex Executor, schemaID int64, name string) (*models.Table, error) {
	f := newFilter().eq("t.schema_id", schemaID).eq("t.name", name)
	t, err := queryOne(ctx, ex, tableEntity, "", f, name)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetTableByName resolves a fully qualified table name.
func GetTableByName(ctx context.Context, ex Executor, database, schema, table string) (*models.Table, error) {
	f := newFilter().eq("d.name", database).eq("s.name", schema).eq("t.name", table)
	t, err := queryOne(ctx, ex, tableEntity, tableJoins, f, database+"."+schema+"."+table)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func GetTableByID(ctx context.Context, ex Executor, id int64) (*models.Table, error) {
	t, err := queryOne(ctx, ex, tableEntity, "", newFilter().eq("t.id", id), idString(id))
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// AddTable inserts t and sets t.ID to the generated key. The primary key
// is set separately once its key exists.
func AddTable(ctx context.Context, ex Executor, t *models.Table) (int64, error) {
	if t.Name == "" {
		return 0, dberror.ErrInvalidInput.Msg("table name is empty")
	}
	if t.TableType == types.TableTypeView && (t.Definition.Status != pgtype.Present || t.Definition.String == "") {
		return 0, dberror.ErrInvalidInput.Msg("view " + t.Name + " has no definition")
	}
	id, err := ex.ExecuteInsert(ctx, `
		INSERT INTO "table" (name, schema_id, owner_id, encoding, collation_type, table_type, definition)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		t.Name, t.SchemaID, t.OwnerID, int(t.Encoding), int(t.Collation), int(t.TableType), nullText(t.Definition))
	if err != nil {
		return 0, writeError(ctx, err, "table "+t.Name)
	}
	t.ID = id
	t.PrimaryKey = pgtype.Int8{Status: pgtype.Null}
	return id, nil
}

func RenameTable(ctx context.Context, ex Executor, id int64, name string) error {
	if name == "" {
		return dberror.ErrInvalidInput.Msg("table name is empty")
	}
	return execOne(ctx, ex, dberror.ErrUnknownTable, idString(id),
		`UPDATE "table" SET name = $1 WHERE id = $2`, name, id)
}

func SetTableOwner(ctx context.Context, ex Executor, id int64, ownerID int64) error {
	return execOne(ctx, ex, dberror.ErrUnknownTable, idString(id),
		`UPDATE "table" SET owner_id = $1 WHERE id = $2`, ownerID, id)
}

// SetPrimaryKey points the table at keyID. A null keyID clears it.
func SetPrimaryKey(ctx context.Context, ex Executor, id int64, keyID pgtype.Int8) error {
	return execOne(ctx, ex, dberror.ErrUnknownTable, idString(id),
		`UPDATE "table" SET primary_key = $1 WHERE id = $2`, nullInt8(keyID), id)
}

// DeleteTable removes the table row. Columns, keys, indexes and placements
// must be removed by the caller first.
func DeleteTable(ctx context.Context, ex Executor, id int64) error {
	return deleteOne(ctx, ex, dberror.ErrUnknownTable, idString(id), `DELETE FROM "table" WHERE id = $1`, id)
}
