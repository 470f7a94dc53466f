package statements

import (
	"context"

	"github.com/tansive/polycatalog/internal/catalogsrv/catcommon"
	"github.com/tansive/polycatalog/internal/catalogsrv/db/dberror"
	"github.com/tansive/polycatalog/internal/catalogsrv/db/models"
	"github.com/tansive/polycatalog/pkg/types"
)

var indexEntity = &entity[models.Index]{
	name:    "index",
	from:    `"index" i`,
	columns: []string{"i.id", "i.name", "i.key_id", "i.is_unique", "i.index_type", "i.table_id"},
	scan: func(s scanner) (models.Index, error) {
		var idx models.Index
		err := s.Scan(&idx.ID, &idx.Name, &idx.KeyID, &idx.Unique, &idx.IndexType, &idx.TableID)
		return idx, err
	},
	notFound: dberror.ErrUnknownIndex,
}

func attachIndexColumns(ctx context.Context, ex Executor, indexes []models.Index) error {
	ids := make([]int64, len(indexes))
	for i := range indexes {
		ids[i] = indexes[i].ID
	}
	cols, err := loadColumnIDs(ctx, ex, keyColumnsOfIndex, "index_id", ids)
	if err != nil {
		return err
	}
	for i := range indexes {
		indexes[i].ColumnIDs = cols[indexes[i].ID]
	}
	return nil
}

// GetIndexes lists the indexes of a table, only the unique ones if onlyUnique is set.
func GetIndexes(ctx context.Context, ex Executor, tableID int64, onlyUnique bool) ([]models.Index, error) {
	f := newFilter().eq("i.table_id", tableID)
	if onlyUnique {
		f.eq("i.is_unique", true)
	}
	indexes, err := queryAll(ctx, ex, indexEntity, "", f, "i.id")
	if err != nil {
		return nil, err
	}
	return indexes, attachIndexColumns(ctx, ex, indexes)
}

func GetIndex(ctx context.Context, ex Executor, tableID int64, name string) (*models.Index, error) {
	return getIndex(ctx, ex, newFilter().eq("i.table_id", tableID).eq("i.name", name), name)
}

func GetIndexByID(ctx context.Context, ex Executor, id int64) (*models.Index, error) {
	return getIndex(ctx, ex, newFilter().eq("i.id", id), idString(id))
}

func getIndex(ctx context.Context, ex Executor, f *filter, what string) (*models.Index, error) {
	idx, err := queryOne(ctx, ex, indexEntity, "", f, what)
	if err != nil {
		return nil, err
	}
	indexes := []models.Index{idx}
	if err := attachIndexColumns(ctx, ex, indexes); err != nil {
		return nil, err
	}
	return &indexes[0], nil
}

// AddIndex creates a key over idx.ColumnIDs, the index row and its column list.
// An empty name gets a generated one.
func AddIndex(ctx context.Context, ex Executor, idx *models.Index) (int64, error) {
	if idx.IndexType == 0 {
		idx.IndexType = types.IndexTypeBTree
	}
	if idx.Name == "" {
		idx.Name = catcommon.GenerateName("idx")
	}
	keyID, err := AddKey(ctx, ex, idx.TableID, idx.ColumnIDs)
	if err != nil {
		return 0, err
	}
	id, err := ex.ExecuteInsert(ctx, `
		INSERT INTO "index" (name, key_id, table_id, is_unique, index_type)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		idx.Name, keyID, idx.TableID, idx.Unique, int(idx.IndexType))
	if err != nil {
		return 0, writeError(ctx, err, "index "+idx.Name)
	}
	for seq, colID := range idx.ColumnIDs {
		if _, err := ex.Execute(ctx, `INSERT INTO "index_columns" (index_id, column_id, seq) VALUES ($1, $2, $3)`, id, colID, seq); err != nil {
			return 0, writeError(ctx, err, "index column")
		}
	}
	idx.ID = id
	idx.KeyID = keyID
	return id, nil
}

// DeleteIndex removes the index and its key. A unique index whose key is
// referenced by a foreign key cannot be removed.
func DeleteIndex(ctx context.Context, ex Executor, id int64) error {
	idx, err := GetIndexByID(ctx, ex, id)
	if err != nil {
		return err
	}
	n, err := count(ctx, ex, `SELECT COUNT(*) FROM "foreign_key" WHERE referenced_key_id = $1`, idx.KeyID)
	if err != nil {
		return err
	}
	if n > 0 {
		return dberror.ErrHasDependents.Msg("index " + idx.Name + " is referenced by a foreign key")
	}
	if err := deleteOne(ctx, ex, dberror.ErrUnknownIndex, idx.Name, `DELETE FROM "index" WHERE id = $1`, id); err != nil {
		return err
	}
	return DeleteKey(ctx, ex, idx.KeyID)
}
