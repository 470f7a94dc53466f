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
 schema_id      | bigint                 | not null |
 owner_id       | bigint                 | not null |
 encoding       | integer                | not null |
 collation_type | integer                | not null |
 table_type     | integer                | not null |
 definition     | text                   |          |
 primary_key    | bigint                 |          |
Indexes:
    "table_pkey" PRIMARY KEY (id)
    UNIQUE (schema_id, name)
Foreign-key constraints:
    FOREIGN KEY (schema_id) REFERENCES "schema"(id)
    FOREIGN KEY (owner_id) REFERENCES "user"(id)
    FOREIGN KEY (primary_key) REFERENCES "key"(id)
*/

type Table struct {
	ID         int64           `db:"id" json:"id"`
	Name       string          `db:"name" json:"name" validate:"required,max=128"`
	SchemaID   int64           `db:"schema_id" json:"schemaId"`
	OwnerID    int64           `db:"owner_id" json:"ownerId"`
	Encoding   types.Encoding  `db:"encoding" json:"encoding"`
	Collation  types.Collation `db:"collation_type" json:"collation"`
	TableType  types.TableType `db:"table_type" json:"tableType"`
	Definition pgtype.Text     `db:"definition" json:"definition"`
	PrimaryKey pgtype.Int8     `db:"primary_key" json:"primaryKey"`
}

// HasPrimaryKey reports whether a primary key is set for the table.
func (t *Table) HasPrimaryKey() bool {
	return t.PrimaryKey.Status == pgtype.Present
}
