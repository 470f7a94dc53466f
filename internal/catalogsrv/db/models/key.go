package models

import "github.com/tansive/polycatalog/pkg/types"

/*
 "key"                        "key_column"
  Column   |  Type  |          Column    |  Type
-----------+--------+        -----------+---------
 id        | bigint |         key_id    | bigint
 table_id  | bigint |         column_id | bigint
                              seq       | integer
*/

// Key is an ordered set of columns of one table.
type Key struct {
	ID        int64   `db:"id" json:"id"`
	TableID   int64   `db:"table_id" json:"tableId"`
	ColumnIDs []int64 `db:"-" json:"columnIds"`
}

// PrimaryKey is the key referenced by the table's primary_key column.
type PrimaryKey struct {
	Key
}

/*
     Column        |          Type          | Nullable
-------------------+------------------------+----------
 key_id            | bigint                 | not null
 referenced_key_id | bigint                 | not null
 name              | character varying(128) | not null
 on_update         | integer                | not null
 on_delete         | integer                | not null
*/

type ForeignKey struct {
	Key
	ReferencedKeyID int64                  `db:"referenced_key_id" json:"referencedKeyId"`
	Name            string                 `db:"name" json:"name" validate:"max=128"`
	OnUpdate        types.ForeignKeyOption `db:"on_update" json:"onUpdate"`
	OnDelete        types.ForeignKeyOption `db:"on_delete" json:"onDelete"`
}

/*
   Column   |          Type          | Nullable
------------+------------------------+----------
 id         | bigint                 | not null
 name       | character varying(128) | not null
 key_id     | bigint                 | not null
 is_unique  | boolean                | not null
 table_id   | bigint                 | not null
 index_type | integer                | not null
Indexes:
    UNIQUE (table_id, name)
*/

type Index struct {
	ID        int64           `db:"id" json:"id"`
	Name      string          `db:"name" json:"name" validate:"max=128"`
	KeyID     int64           `db:"key_id" json:"keyId"`
	Unique    bool            `db:"is_unique" json:"unique"`
	IndexType types.IndexType `db:"index_type" json:"indexType"`
	TableID   int64           `db:"table_id" json:"tableId"`
	ColumnIDs []int64         `db:"-" json:"columnIds"`
}
