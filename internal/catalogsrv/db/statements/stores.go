package statements

import (
	"context"

	"github.com/jackc/pgtype"
	jsoniter "github.com/json-iterator/go"
	"github.com/tansive/polycatalog/internal/catalogsrv/db/dberror"
	"github.com/tansive/polycatalog/internal/catalogsrv/db/models"
	"github.com/tidwall/sjson"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var storeEntity = &entity[models.Store]{
	name:    "store",
	from:    `"store" st`,
	columns: []string{"st.id", "st.unique_name", "st.adapter", "st.settings"},
	scan: func(s scanner) (models.Store, error) {
		var st models.Store
		var settings pgtype.Text
		if err := s.Scan(&st.ID, &st.UniqueName, &st.Adapter, &settings); err != nil {
			return st, err
		}
		st.Settings = pgtype.JSONB{Status: pgtype.Null}
		if settings.Status == pgtype.Present {
			st.Settings = pgtype.JSONB{Bytes: []byte(settings.String), Status: pgtype.Present}
		}
		return st, nil
	},
	notFound: dberror.ErrUnknownStore,
}

func settingsText(v pgtype.JSONB) pgtype.Text {
	if v.Status != pgtype.Present {
		return pgtype.Text{Status: pgtype.Null}
	}
	return pgtype.Text{String: string(v.Bytes), Status: pgtype.Present}
}

func GetStores(ctx context.Context, ex Executor) ([]models.Store, error) {
	return queryAll(ctx, ex, storeEntity, "", nil, "st.id")
}

func GetStore(ctx context.Context, ex Executor, uniqueName string) (*models.Store, error) {
	st, err := queryOne(ctx, ex, storeEntity, "", newFilter().eq("st.unique_name", uniqueName), uniqueName)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func GetStoreByID(ctx context.Context, ex Executor, id int64) (*models.Store, error) {
	st, err := queryOne(ctx, ex, storeEntity, "", newFilter().eq("st.id", id), idString(id))
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// AddStore registers a store. Settings, if present, must be a JSON object.
func AddStore(ctx context.Context, ex Executor, st *models.Store) (int64, error) {
	if st.UniqueName == "" || st.Adapter == "" {
		return 0, dberror.ErrInvalidInput.Msg("store needs a unique name and an adapter")
	}
	if st.Settings.Status == pgtype.Present && !isJSONObject(st.Settings.Bytes) {
		return 0, dberror.ErrInvalidInput.Msg("store settings must be a JSON object")
	}
	id, err := ex.ExecuteInsert(ctx, `INSERT INTO "store" (unique_name, adapter, settings) VALUES ($1, $2, $3) RETURNING id`,
		st.UniqueName, st.Adapter, settingsText(st.Settings))
	if err != nil {
		return 0, writeError(ctx, err, "store "+st.UniqueName)
	}
	st.ID = id
	return id, nil
}

// SetStoreSetting sets one settings value at a gjson style path.
func SetStoreSetting(ctx context.Context, ex Executor, id int64, path string, value any) error {
	st, err := GetStoreByID(ctx, ex, id)
	if err != nil {
		return err
	}
	doc := "{}"
	if st.Settings.Status == pgtype.Present {
		doc = string(st.Settings.Bytes)
	}
	doc, err = sjson.Set(doc, path, value)
	if err != nil {
		return dberror.ErrInvalidInput.MsgErr("invalid settings path "+path, err)
	}
	return execOne(ctx, ex, dberror.ErrUnknownStore, idString(id),
		`UPDATE "store" SET settings = $1 WHERE id = $2`, doc, id)
}

// DeleteStore removes a store that holds no placements.
func DeleteStore(ctx context.Context, ex Executor, id int64) error {
	return deleteOne(ctx, ex, dberror.ErrUnknownStore, idString(id), `DELETE FROM "store" WHERE id = $1`, id)
}

func isJSONObject(b []byte) bool {
	var m map[string]any
	return json.Unmarshal(b, &m) == nil
}

var placementEntity = &entity[models.DataPlacement]{
	name:    "data placement",
	from:    `"data_placement" dp`,
	columns: []string{"dp.store_id", "dp.table_id"},
	scan: func(s scanner) (models.DataPlacement, error) {
		var dp models.DataPlacement
		err := s.Scan(&dp.StoreID, &dp.TableID)
		return dp, err
	},
	notFound: dberror.ErrUnknownPlace,
}

// GetDataPlacements lists the stores a table is placed on.
func GetDataPlacements(ctx context.Context, ex Executor, tableID int64) ([]models.DataPlacement, error) {
	return queryAll(ctx, ex, placementEntity, "", newFilter().eq("dp.table_id", tableID), "dp.store_id")
}

// GetDataPlacementsOnStore lists the tables placed on a store.
func GetDataPlacementsOnStore(ctx context.Context, ex Executor, storeID int64) ([]models.DataPlacement, error) {
	return queryAll(ctx, ex, placementEntity, "", newFilter().eq("dp.store_id", storeID), "dp.table_id")
}

func AddDataPlacement(ctx context.Context, ex Executor, storeID, tableID int64) error {
	_, err := ex.Execute(ctx, `INSERT INTO "data_placement" (store_id, table_id) VALUES ($1, $2)`, storeID, tableID)
	if err != nil {
		return writeError(ctx, err, "data placement of table "+idString(tableID)+" on store "+idString(storeID))
	}
	return nil
}

func DeleteDataPlacement(ctx context.Context, ex Executor, storeID, tableID int64) error {
	return deleteOne(ctx, ex, dberror.ErrUnknownPlace, "table "+idString(tableID)+" on store "+idString(storeID),
		`DELETE FROM "data_placement" WHERE store_id = $1 AND table_id = $2`, storeID, tableID)
}
