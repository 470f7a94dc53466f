package statements

import (
	"context"

	"github.com/tansive/polycatalog/internal/catalogsrv/db/dberror"
	"github.com/tansive/polycatalog/internal/catalogsrv/db/models"
	"github.com/tansive/polycatalog/pkg/types"
)

var schemaEntity = &entity[models.Schema]{
	name: "schema",
	from: `"schema" s`,
	columns: []string{
		"s.id", "s.name", "s.database_id", "s.owner_id", "s.encoding", "s.collation_type", "s.schema_type",
	},
	scan: func(s scanner) (models.Schema, error) {
		var sc models.Schema
		err := s.Scan(&sc.ID, &sc.Name, &sc.DatabaseID, &sc.OwnerID, &sc.Encoding, &sc.Collation, &sc.SchemaType)
		return sc, err
	},
	notFound: dberror.ErrUnknownSchema,
}

const schemaJoins = `JOIN "database" d ON s.database_id = d.id`

// GetSchemas lists the schemas of one database whose name matches pattern.
func GetSchemas(ctx context.Context, ex Executor, databaseID int64, pattern types.Pattern) ([]models.Schema, error) {
	f := newFilter().eq("s.database_id", databaseID).like("s.name", pattern)
	return queryAll(ctx, ex, schemaEntity, "", f, "s.id")
}

// FindSchemas lists schemas across databases by database and schema name pattern.
func FindSchemas(ctx context.Context, ex Executor, dbPattern, schemaPattern types.Pattern) ([]models.Schema, error) {
	f := newFilter().like("d.name", dbPattern).like("s.name", schemaPattern)
	return queryAll(ctx, ex, schemaEntity, schemaJoins, f, "s.id")
}

func GetSchema(ctx context.Context, ex Executor, databaseID int64, name string) (*models.Schema, error) {
	f := newFilter().eq("s.database_id", databaseID).eq("s.name", name)
	sc, err := queryOne(ctx, ex, schemaEntity, "", f, name)
	if err != nil {
		return nil, err
	}
	return &sc, nil
}

func GetSchemaByID(ctx context.Context, ex Executor, id int64) (*models.Schema, error) {
	sc, err := queryOne(ctx, ex, schemaEntity, "", newFilter().eq("s.id", id), idString(id))
	if err != nil {
		return nil, err
	}
	return &sc, nil
}

// AddSchema inserts sc and sets sc.ID to the generated key.
func AddSchema(ctx context.Context, ex Executor, sc *models.Schema) (int64, error) {
	if sc.Name == "" {
		return 0, dberror.ErrInvalidInput.Msg("schema name is empty")
	}
	id, err := ex.ExecuteInsert(ctx, `
		INSERT INTO "schema" (name, database_id, owner_id, encoding, collation_type, schema_type)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		sc.Name, sc.DatabaseID, sc.OwnerID, int(sc.Encoding), int(sc.Collation), int(sc.SchemaType))
	if err != nil {
		return 0, writeError(ctx, err, "schema "+sc.Name)
	}
	sc.ID = id
	return id, nil
}

func RenameSchema(ctx context.Context, ex Executor, id int64, name string) error {
	if name == "" {
		return dberror.ErrInvalidInput.Msg("schema name is empty")
	}
	return execOne(ctx, ex, dberror.ErrUnknownSchema, idString(id),
		`UPDATE "schema" SET name = $1 WHERE id = $2`, name, id)
}

func SetSchemaOwner(ctx context.Context, ex Executor, id int64, ownerID int64) error {
	return execOne(ctx, ex, dberror.ErrUnknownSchema, idString(id),
		`UPDATE "schema" SET owner_id = $1 WHERE id = $2`, ownerID, id)
}

func DeleteSchema(ctx context.Context, ex Executor, id int64) error {
	return deleteOne(ctx, ex, dberror.ErrUnknownSchema, idString(id), `DELETE FROM "schema" WHERE id = $1`, id)
}
