package models

import (
	"github.com/jackc/pgtype"
	"github.com/tidwall/gjson"
)

/*
    Column    |          Type          | Nullable
--------------+------------------------+----------
 id           | bigint                 | not null
 unique_name  | character varying(128) | not null
 adapter      | character varying(256) | not null
 settings     | text (json)            |
*/

// Store is a physical storage location tables can be placed on.
type Store struct {
	ID         int64        `db:"id" json:"id"`
	UniqueName string       `db:"unique_name" json:"uniqueName" validate:"required,max=128"`
	Adapter    string       `db:"adapter" json:"adapter" validate:"required,max=256"`
	Settings   pgtype.JSONB `db:"settings" json:"settings"`
}

// Setting returns the value of a setting addressed by a gjson path, or "".
func (s *Store) Setting(path string) string {
	if s.Settings.Status != pgtype.Present {
		return ""
	}
	return gjson.GetBytes(s.Settings.Bytes, path).String()
}

/*
  Column   |  Type  | Nullable
-----------+--------+----------
 store_id  | bigint | not null
 table_id  | bigint | not null
Indexes:
    "data_placement_pkey" PRIMARY KEY (store_id, table_id)
*/

type DataPlacement struct {
	StoreID int64 `db:"store_id" json:"storeId"`
	TableID int64 `db:"table_id" json:"tableId"`
}
