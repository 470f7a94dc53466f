package statements

import (
	"context"

	"github.com/jackc/pgtype"
	"github.com/rs/zerolog/log"
	"github.com/tansive/polycatalog/internal/catalogsrv/catcommon"
	"github.com/tansive/polycatalog/internal/catalogsrv/db/dberror"
	"github.com/tansive/polycatalog/internal/catalogsrv/db/models"
)

var keyEntity = &entity[models.Key]{
	name:    "key",
	from:    `"key" k`,
	columns: []string{"k.id", "k.table_id"},
	scan: func(s scanner) (models.Key, error) {
		var k models.Key
		err := s.Scan(&k.ID, &k.TableID)
		return k, err
	},
	notFound: dberror.ErrUnknownKey,
}

type keyColumn struct {
	ownerID  int64
	columnID int64
}

// keyColumnEntity reads an ordered column list table such as key_column or index_columns.
func keyColumnEntity(table, ownerCol string) *entity[keyColumn] {
	return &entity[keyColumn]{
		name:    table,
		from:    `"` + table + `" kc`,
		columns: []string{"kc." + ownerCol, "kc.column_id"},
		scan: func(s scanner) (keyColumn, error) {
			var kc keyColumn
			err := s.Scan(&kc.ownerID, &kc.columnID)
			return kc, err
		},
		notFound: dberror.ErrUnknownColumn,
	}
}

var (
	keyColumnsOfKey   = keyColumnEntity("key_column", "key_id")
	keyColumnsOfIndex = keyColumnEntity("index_columns", "index_id")
)

func loadColumnIDs(ctx context.Context, ex Executor, e *entity[keyColumn], ownerCol string, owners []int64) (map[int64][]int64, error) {
	result := make(map[int64][]int64, len(owners))
	if len(owners) == 0 {
		return result, nil
	}
	rows, err := queryAll(ctx, ex, e, "", newFilter().in("kc."+ownerCol, owners), "kc."+ownerCol+", kc.seq")
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		result[r.ownerID] = append(result[r.ownerID], r.columnID)
	}
	return result, nil
}

func attachKeyColumns(ctx context.Context, ex Executor, keys []models.Key) error {
	ids := make([]int64, len(keys))
	for i := range keys {
		ids[i] = keys[i].ID
	}
	cols, err := loadColumnIDs(ctx, ex, keyColumnsOfKey, "key_id", ids)
	if err != nil {
		return err
	}
	for i := range keys {
		keys[i].ColumnIDs = cols[keys[i].ID]
	}
	return nil
}

// GetKeys lists every key of a table: primary, foreign and index keys alike.
func GetKeys(ctx context.Context, ex Executor, tableID int64) ([]models.Key, error) {
	keys, err := queryAll(ctx, ex, keyEntity, "", newFilter().eq("k.table_id", tableID), "k.id")
	if err != nil {
		return nil, err
	}
	return keys, attachKeyColumns(ctx, ex, keys)
}

func GetKey(ctx context.Context, ex Executor, id int64) (*models.Key, error) {
	k, err := queryOne(ctx, ex, keyEntity, "", newFilter().eq("k.id", id), idString(id))
	if err != nil {
		return nil, err
	}
	keys := []models.Key{k}
	if err := attachKeyColumns(ctx, ex, keys); err != nil {
		return nil, err
	}
	return &keys[0], nil
}

// AddKey creates a key over columnIDs, in order. All columns must belong to the table.
func AddKey(ctx context.Context, ex Executor, tableID int64, columnIDs []int64) (int64, error) {
	if len(columnIDs) == 0 {
		return 0, dberror.ErrInvalidInput.Msg("a key needs at least one column")
	}
	n, err := count(ctx, ex, `SELECT COUNT(DISTINCT id) FROM "column" WHERE table_id = $1 AND id IN (`+placeholders(2, len(columnIDs))+`)`,
		append([]any{tableID}, int64Args(columnIDs)...)...)
	if err != nil {
		return 0, err
	}
	if n != int64(len(columnIDs)) {
		return 0, dberror.ErrInvalidInput.Msg("key columns must be distinct columns of table " + idString(tableID))
	}

	id, err := ex.ExecuteInsert(ctx, `INSERT INTO "key" (table_id) VALUES ($1) RETURNING id`, tableID)
	if err != nil {
		return 0, writeError(ctx, err, "key")
	}
	for seq, colID := range columnIDs {
		if _, err := ex.Execute(ctx, `INSERT INTO "key_column" (key_id, column_id, seq) VALUES ($1, $2, $3)`, id, colID, seq); err != nil {
			return 0, writeError(ctx, err, "key column")
		}
	}
	return id, nil
}

// DeleteKey removes a key that nothing references anymore.
func DeleteKey(ctx context.Context, ex Executor, id int64) error {
	n, err := count(ctx, ex, `SELECT COUNT(*) FROM "table" WHERE primary_key = $1`, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return dberror.ErrHasDependents.Msg("key " + idString(id) + " is a primary key")
	}
	return deleteOne(ctx, ex, dberror.ErrUnknownKey, idString(id), `DELETE FROM "key" WHERE id = $1`, id)
}

// GetPrimaryKey returns the primary key of t, or ErrUnknownPK if it has none.
func GetPrimaryKey(ctx context.Context, ex Executor, t *models.Table) (*models.PrimaryKey, error) {
	if !t.HasPrimaryKey() {
		return nil, dberror.ErrUnknownPK.Suffix(t.Name)
	}
	k, err := GetKey(ctx, ex, t.PrimaryKey.Int)
	if err != nil {
		return nil, err
	}
	return &models.PrimaryKey{Key: *k}, nil
}

// isUniqueKey reports whether a key is a primary key or backs a unique index.
func isUniqueKey(ctx context.Context, ex Executor, keyID int64) (bool, error) {
	n, err := count(ctx, ex, `
		SELECT (SELECT COUNT(*) FROM "table" WHERE primary_key = $1) +
		       (SELECT COUNT(*) FROM "index" WHERE key_id = $2 AND is_unique = $3)`, keyID, keyID, true)
	return n > 0, err
}

var foreignKeyEntity = &entity[models.ForeignKey]{
	name: "foreign key",
	from: `"foreign_key" f JOIN "key" k ON f.key_id = k.id`,
	columns: []string{
		"k.id", "k.table_id", "f.referenced_key_id", "f.name", "f.on_update", "f.on_delete",
	},
	scan: func(s scanner) (models.ForeignKey, error) {
		var fk models.ForeignKey
		err := s.Scan(&fk.ID, &fk.TableID, &fk.ReferencedKeyID, &fk.Name, &fk.OnUpdate, &fk.OnDelete)
		return fk, err
	},
	notFound: dberror.ErrUnknownFK,
}

func attachForeignKeyColumns(ctx context.Context, ex Executor, fks []models.ForeignKey) error {
	ids := make([]int64, len(fks))
	for i := range fks {
		ids[i] = fks[i].ID
	}
	cols, err := loadColumnIDs(ctx, ex, keyColumnsOfKey, "key_id", ids)
	if err != nil {
		return err
	}
	for i := range fks {
		fks[i].ColumnIDs = cols[fks[i].ID]
	}
	return nil
}

// GetForeignKeys lists the foreign keys defined on a table.
func GetForeignKeys(ctx context.Context, ex Executor, tableID int64) ([]models.ForeignKey, error) {
	fks, err := queryAll(ctx, ex, foreignKeyEntity, "", newFilter().eq("k.table_id", tableID), "k.id")
	if err != nil {
		return nil, err
	}
	return fks, attachForeignKeyColumns(ctx, ex, fks)
}

// GetExportedKeys lists the foreign keys of other tables that reference a key of tableID.
func GetExportedKeys(ctx context.Context, ex Executor, tableID int64) ([]models.ForeignKey, error) {
	fks, err := queryAll(ctx, ex, foreignKeyEntity, `JOIN "key" rk ON f.referenced_key_id = rk.id`,
		newFilter().eq("rk.table_id", tableID), "k.id")
	if err != nil {
		return nil, err
	}
	return fks, attachForeignKeyColumns(ctx, ex, fks)
}

func GetForeignKey(ctx context.Context, ex Executor, tableID int64, name string) (*models.ForeignKey, error) {
	fk, err := queryOne(ctx, ex, foreignKeyEntity, "", newFilter().eq("k.table_id", tableID).eq("f.name", name), name)
	if err != nil {
		return nil, err
	}
	fks := []models.ForeignKey{fk}
	if err := attachForeignKeyColumns(ctx, ex, fks); err != nil {
		return nil, err
	}
	return &fks[0], nil
}

// AddForeignKey creates the key over fk.ColumnIDs and the foreign key row.
// The referenced key must be a primary key or back a unique index and have
// the same number of columns. An empty name gets a generated one.
func AddForeignKey(ctx context.Context, ex Executor, fk *models.ForeignKey) (int64, error) {
	ref, err := GetKey(ctx, ex, fk.ReferencedKeyID)
	if err != nil {
		return 0, err
	}
	if len(ref.ColumnIDs) != len(fk.ColumnIDs) {
		return 0, dberror.ErrInvalidInput.Msg("foreign key and referenced key have a different number of columns")
	}
	unique, err := isUniqueKey(ctx, ex, ref.ID)
	if err != nil {
		return 0, err
	}
	if !unique {
		return 0, dberror.ErrInvalidInput.Msg("referenced key must be a primary key or have a unique index")
	}
	if fk.Name == "" {
		fk.Name = catcommon.GenerateName("fk")
	}
	if _, err := GetForeignKey(ctx, ex, fk.TableID, fk.Name); err == nil {
		return 0, dberror.ErrAlreadyExists.Msg("foreign key " + fk.Name + " already exists")
	} else if !dberror.IsNotFound(err) {
		return 0, err
	}

	keyID, err := AddKey(ctx, ex, fk.TableID, fk.ColumnIDs)
	if err != nil {
		return 0, err
	}
	_, err = ex.Execute(ctx, `
		INSERT INTO "foreign_key" (key_id, referenced_key_id, name, on_update, on_delete)
		VALUES ($1, $2, $3, $4, $5)`,
		keyID, fk.ReferencedKeyID, fk.Name, int(fk.OnUpdate), int(fk.OnDelete))
	if err != nil {
		return 0, writeError(ctx, err, "foreign key "+fk.Name)
	}
	fk.ID = keyID
	log.Ctx(ctx).Debug().Str("name", fk.Name).Int64("key_id", keyID).Msg("added foreign key")
	return keyID, nil
}

// DeleteForeignKey removes the foreign key and its key.
func DeleteForeignKey(ctx context.Context, ex Executor, keyID int64) error {
	if err := deleteOne(ctx, ex, dberror.ErrUnknownFK, idString(keyID), `DELETE FROM "foreign_key" WHERE key_id = $1`, keyID); err != nil {
		return err
	}
	return DeleteKey(ctx, ex, keyID)
}

// AddPrimaryKey replaces the primary key of t with a new key over columnIDs.
// The old key is only removed once the new one exists, so a rejected column
// list leaves t unchanged.
func AddPrimaryKey(ctx context.Context, ex Executor, t *models.Table, columnIDs []int64) (int64, error) {
	keyID, err := AddKey(ctx, ex, t.ID, columnIDs)
	if err != nil {
		return 0, err
	}
	if t.HasPrimaryKey() {
		if err := DeletePrimaryKey(ctx, ex, t); err != nil {
			if dErr := DeleteKey(ctx, ex, keyID); dErr != nil {
				log.Ctx(ctx).Error().Err(dErr).Int64("key_id", keyID).Msg("failed to remove unused key")
			}
			return 0, err
		}
	}
	pk := pgtype.Int8{Int: keyID, Status: pgtype.Present}
	if err := SetPrimaryKey(ctx, ex, t.ID, pk); err != nil {
		return 0, err
	}
	t.PrimaryKey = pk
	return keyID, nil
}

// DeletePrimaryKey clears the primary key of t and removes its key.
func DeletePrimaryKey(ctx context.Context, ex Executor, t *models.Table) error {
	if !t.HasPrimaryKey() {
		return dberror.ErrUnknownPK.Suffix(t.Name)
	}
	keyID := t.PrimaryKey.Int
	n, err := count(ctx, ex, `SELECT COUNT(*) FROM "foreign_key" WHERE referenced_key_id = $1`, keyID)
	if err != nil {
		return err
	}
	if n > 0 {
		return dberror.ErrHasDependents.Msg("primary key of " + t.Name + " is referenced by a foreign key")
	}
	if err := SetPrimaryKey(ctx, ex, t.ID, pgtype.Int8{Status: pgtype.Null}); err != nil {
		return err
	}
	t.PrimaryKey = pgtype.Int8{Status: pgtype.Null}
	return DeleteKey(ctx, ex, keyID)
}
