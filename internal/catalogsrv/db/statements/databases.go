package statements

import (
	"context"

	"github.com/tansive/polycatalog/internal/catalogsrv/db/dberror"
	"github.com/tansive/polycatalog/internal/catalogsrv/db/models"
	"github.com/tansive/polycatalog/pkg/types"
)

var databaseEntity = &entity[models.Database]{
	name: "database",
	from: `"database" d`,
	columns: []string{
		"d.id", "d.name", "d.owner_id", "d.encoding", "d.collation_type", "d.connection_limit",
	},
	scan: func(s scanner) (models.Database, error) {
		var d models.Database
		err := s.Scan(&d.ID, &d.Name, &d.OwnerID, &d.Encoding, &d.Collation, &d.ConnectionLimit)
		return d, err
	},
	notFound: dberror.ErrUnknownDB,
}

// GetDatabases lists the databases whose name matches pattern, ordered by id.
func GetDatabases(ctx context.Context, ex Executor, pattern types.Pattern) ([]models.Database, error) {
	return queryAll(ctx, ex, databaseEntity, "", newFilter().like("d.name", pattern), "d.id")
}

func GetDatabase(ctx context.Context, ex Executor, name string) (*models.Database, error) {
	d, err := queryOne(ctx, ex, databaseEntity, "", newFilter().eq("d.name", name), name)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func GetDatabaseByID(ctx context.Context, ex Executor, id int64) (*models.Database, error) {
	d, err := queryOne(ctx, ex, databaseEntity, "", newFilter().eq("d.id", id), idString(id))
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// AddDatabase inserts d and sets d.ID to the generated key.
func AddDatabase(ctx context.Context, ex Executor, d *models.Database) (int64, error) {
	if d.Name == "" {
		return 0, dberror.ErrInvalidInput.Msg("database name is empty")
	}
	id, err := ex.ExecuteInsert(ctx, `
		INSERT INTO "database" (name, owner_id, encoding, collation_type, connection_limit)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		d.Name, d.OwnerID, int(d.Encoding), int(d.Collation), d.ConnectionLimit)
	if err != nil {
		return 0, writeError(ctx, err, "database "+d.Name)
	}
	d.ID = id
	return id, nil
}

func RenameDatabase(ctx context.Context, ex Executor, id int64, name string) error {
	if name == "" {
		return dberror.ErrInvalidInput.Msg("database name is empty")
	}
	return execOne(ctx, ex, dberror.ErrUnknownDB, idString(id),
		`UPDATE "database" SET name = $1 WHERE id = $2`, name, id)
}

func SetDatabaseOwner(ctx context.Context, ex Executor, id int64, ownerID int64) error {
	return execOne(ctx, ex, dberror.ErrUnknownDB, idString(id),
		`UPDATE "database" SET owner_id = $1 WHERE id = $2`, ownerID, id)
}

// DeleteDatabase removes the database row. Its schemas must be gone first.
func DeleteDatabase(ctx context.Context, ex Executor, id int64) error {
	return deleteOne(ctx, ex, dberror.ErrUnknownDB, idString(id), `DELETE FROM "database" WHERE id = $1`, id)
}
