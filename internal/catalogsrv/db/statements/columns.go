package statements

import (
	"context"

	"github.com/jackc/pgtype"
	"github.com/tansive/polycatalog/internal/catalogsrv/db/dberror"
	"github.com/tansive/polycatalog/internal/catalogsrv/db/models"
	"github.com/tansive/polycatalog/pkg/types"
)

var columnEntity = &entity[models.Column]{
	name: "column",
	from: `"column" c`,
	columns: []string{
		"c.id", "c.name", "c.table_id", "c.position", "c.type", "c.length", "c.precision",
		"c.nullable", "c.encoding", "c.collation_type", "c.force_default",
	},
	scan: func(s scanner) (models.Column, error) {
		var c models.Column
		err := s.Scan(&c.ID, &c.Name, &c.TableID, &c.Position, &c.Type, &c.Length, &c.Precision,
			&c.Nullable, &c.Encoding, &c.Collation, &c.ForceDefault)
		return c, err
	},
	notFound: dberror.ErrUnknownColumn,
}

var defaultValueEntity = &entity[models.DefaultValue]{
	name:    "default value",
	from:    `"default_value" dv`,
	columns: []string{"dv.column_id", "dv.type", "dv.value", "dv.function_name"},
	scan: func(s scanner) (models.DefaultValue, error) {
		var dv models.DefaultValue
		err := s.Scan(&dv.ColumnID, &dv.Type, &dv.Value, &dv.FunctionName)
		return dv, err
	},
	notFound: dberror.ErrUnknownDefault,
}

const columnJoins = `JOIN "table" t ON c.table_id = t.id JOIN "schema" s ON t.schema_id = s.id JOIN "database" d ON s.database_id = d.id`

// GetColumns lists the columns of a table ordered by position.
func GetColumns(ctx context.Context, ex Executor, tableID int64) ([]models.Column, error) {
	cols, err := queryAll(ctx, ex, columnEntity, "", newFilter().eq("c.table_id", tableID), "c.position")
	if err != nil {
		return nil, err
	}
	return cols, attachDefaults(ctx, ex, cols)
}

// FindColumns lists columns by database, schema, table and column name pattern.
func FindColumns(ctx context.Context, ex Executor, dbPattern, schemaPattern, tablePattern, columnPattern types.Pattern) ([]models.Column, error) {
	f := newFilter().
		like("d.name", dbPattern).
		like("s.name", schemaPattern).
		like("t.name", tablePattern).
		like("c.name", columnPattern)
	cols, err := queryAll(ctx, ex, columnEntity, columnJoins, f, "c.table_id, c.position")
	if err != nil {
		return nil, err
	}
	return cols, attachDefaults(ctx, ex, cols)
}

func GetColumn(ctx context.Context, ex Executor, tableID int64, name string) (*models.Column, error) {
	c, err := queryOne(ctx, ex, columnEntity, "", newFilter().eq("c.table_id", tableID).eq("c.name", name), name)
	if err != nil {
		return nil, err
	}
	return withDefault(ctx, ex, c)
}

func GetColumnByID(ctx context.Context, ex Executor, id int64) (*models.Column, error) {
	c, err := queryOne(ctx, ex, columnEntity, "", newFilter().eq("c.id", id), idString(id))
	if err != nil {
		return nil, err
	}
	return withDefault(ctx, ex, c)
}

func withDefault(ctx context.Context, ex Executor, c models.Column) (*models.Column, error) {
	cols := []models.Column{c}
	if err := attachDefaults(ctx, ex, cols); err != nil {
		return nil, err
	}
	return &cols[0], nil
}

func attachDefaults(ctx context.Context, ex Executor, cols []models.Column) error {
	if len(cols) == 0 {
		return nil
	}
	ids := make([]int64, len(cols))
	for i := range cols {
		ids[i] = cols[i].ID
	}
	defaults, err := queryAll(ctx, ex, defaultValueEntity, "", newFilter().in("dv.column_id", ids), "")
	if err != nil {
		return err
	}
	byColumn := make(map[int64]*models.DefaultValue, len(defaults))
	for i := range defaults {
		byColumn[defaults[i].ColumnID] = &defaults[i]
	}
	for i := range cols {
		cols[i].DefaultValue = byColumn[cols[i].ID]
	}
	return nil
}

// AddColumn inserts c and sets c.ID to the generated key.
func AddColumn(ctx context.Context, ex Executor, c *models.Column) (int64, error) {
	if c.Name == "" {
		return 0, dberror.ErrInvalidInput.Msg("column name is empty")
	}
	if !c.Type.IsValid() {
		return 0, dberror.ErrInvalidInput.Msg("column " + c.Name + " has an invalid type")
	}
	id, err := ex.ExecuteInsert(ctx, `
		INSERT INTO "column" (name, table_id, position, type, length, precision, nullable, encoding, collation_type, force_default)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`,
		c.Name, c.TableID, c.Position, int(c.Type), nullInt4(c.Length), nullInt4(c.Precision),
		c.Nullable, int(c.Encoding), nullInt4(c.Collation), c.ForceDefault)
	if err != nil {
		return 0, writeError(ctx, err, "column "+c.Name)
	}
	c.ID = id
	return id, nil
}

func RenameColumn(ctx context.Context, ex Executor, id int64, name string) error {
	if name == "" {
		return dberror.ErrInvalidInput.Msg("column name is empty")
	}
	return execOne(ctx, ex, dberror.ErrUnknownColumn, idString(id),
		`UPDATE "column" SET name = $1 WHERE id = $2`, name, id)
}

func SetColumnPosition(ctx context.Context, ex Executor, id int64, position int) error {
	if position < 1 {
		return dberror.ErrInvalidInput.Msg("column position must be positive")
	}
	return execOne(ctx, ex, dberror.ErrUnknownColumn, idString(id),
		`UPDATE "column" SET position = $1 WHERE id = $2`, position, id)
}

// SetColumnType changes the type together with its length and precision.
func SetColumnType(ctx context.Context, ex Executor, id int64, typ types.ColumnType, length, precision pgtype.Int4) error {
	if !typ.IsValid() {
		return dberror.ErrInvalidInput.Msg("invalid column type")
	}
	return execOne(ctx, ex, dberror.ErrUnknownColumn, idString(id),
		`UPDATE "column" SET type = $1, length = $2, precision = $3 WHERE id = $4`,
		int(typ), nullInt4(length), nullInt4(precision), id)
}

func SetNullable(ctx context.Context, ex Executor, id int64, nullable bool) error {
	return execOne(ctx, ex, dberror.ErrUnknownColumn, idString(id),
		`UPDATE "column" SET nullable = $1 WHERE id = $2`, nullable, id)
}

// SetCollation sets the column collation. A null collation clears it.
func SetCollation(ctx context.Context, ex Executor, id int64, collation pgtype.Int4) error {
	return execOne(ctx, ex, dberror.ErrUnknownColumn, idString(id),
		`UPDATE "column" SET collation_type = $1 WHERE id = $2`, nullInt4(collation), id)
}

func SetForceDefault(ctx context.Context, ex Executor, id int64, force bool) error {
	return execOne(ctx, ex, dberror.ErrUnknownColumn, idString(id),
		`UPDATE "column" SET force_default = $1 WHERE id = $2`, force, id)
}

// DeleteColumn removes a column. Its default value goes with it; keys that
// still use the column make the delete fail.
func DeleteColumn(ctx context.Context, ex Executor, id int64) error {
	return deleteOne(ctx, ex, dberror.ErrUnknownColumn, idString(id), `DELETE FROM "column" WHERE id = $1`, id)
}

func GetDefaultValue(ctx context.Context, ex Executor, columnID int64) (*models.DefaultValue, error) {
	dv, err := queryOne(ctx, ex, defaultValueEntity, "", newFilter().eq("dv.column_id", columnID), idString(columnID))
	if err != nil {
		return nil, err
	}
	return &dv, nil
}

// SetDefaultValue replaces the default value of a column.
func SetDefaultValue(ctx context.Context, ex Executor, dv *models.DefaultValue) error {
	if !dv.Type.IsValid() {
		return dberror.ErrInvalidInput.Msg("default value has an invalid type")
	}
	if _, err := ex.Execute(ctx, `DELETE FROM "default_value" WHERE column_id = $1`, dv.ColumnID); err != nil {
		return dbError(ctx, err, "failed to clear default value")
	}
	_, err := ex.Execute(ctx, `
		INSERT INTO "default_value" (column_id, type, value, function_name)
		VALUES ($1, $2, $3, $4)`,
		dv.ColumnID, int(dv.Type), nullText(dv.Value), nullText(dv.FunctionName))
	if err != nil {
		if isUnknownParent(err) {
			return dberror.ErrUnknownColumn.Suffix(idString(dv.ColumnID))
		}
		return writeError(ctx, err, "default value")
	}
	return nil
}

func DeleteDefaultValue(ctx context.Context, ex Executor, columnID int64) error {
	return deleteOne(ctx, ex, dberror.ErrUnknownDefault, idString(columnID),
		`DELETE FROM "default_value" WHERE column_id = $1`, columnID)
}
