package models

import (
	"github.com/jackc/pgtype"
	"github.com/tansive/polycatalog/pkg/types"
)

/*
     Column     |          Type          | Nullable | Default
----------------+------------------------+----------+-----------
 id             | bigint                 | not null | bigserial
 name           | character varying(128) | not null |
 table_id       | bigint                 | not null |
 position       | integer                | not null |
 type           | integer                | not null |
 length         | integer                |          |
 precision      | integer                |          |
 nullable       | boolean                | not null |
 encoding       | integer                | not null |
 collation_type | integer                |          |
 force_default  | boolean                | not null |
Indexes:
    "column_pkey" PRIMARY KEY (id)
    UNIQUE (table_id, name)
    UNIQUE (table_id, position)
Foreign-key constraints:
    FOREIGN KEY (table_id) REFERENCES "table"(id)
*/

type Column struct {
	ID           int64            `db:"id" json:"id"`
	Name         string           `db:"name" json:"name" validate:"required,max=128"`
	TableID      int64            `db:"table_id" json:"tableId"`
	Position     int              `db:"position" json:"position" validate:"gte=1"`
	Type         types.ColumnType `db:"type" json:"type"`
	Length       pgtype.Int4      `db:"length" json:"length"`
	Precision    pgtype.Int4      `db:"precision" json:"precision"`
	Nullable     bool             `db:"nullable" json:"nullable"`
	Encoding     types.Encoding   `db:"encoding" json:"encoding"`
	Collation    pgtype.Int4      `db:"collation_type" json:"collation"`
	ForceDefault bool             `db:"force_default" json:"forceDefault"`
	DefaultValue *DefaultValue    `db:"-" json:"defaultValue,omitempty"`
}

/*
    Column     |          Type          | Nullable
---------------+------------------------+----------
 column_id     | bigint                 | not null
 type          | integer                | not null
 value         | text                   |
 function_name | character varying(128) |
Indexes:
    "default_value_pkey" PRIMARY KEY (column_id)
*/

type DefaultValue struct {
	ColumnID     int64            `db:"column_id" json:"columnId"`
	Type         types.ColumnType `db:"type" json:"type"`
	Value        pgtype.Text      `db:"value" json:"value"`
	FunctionName pgtype.Text      `db:"function_name" json:"functionName"`
}
