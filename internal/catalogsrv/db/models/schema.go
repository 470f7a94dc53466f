package models

import "github.com/tansive/polycatalog/pkg/types"

/*
     Column     |          Type          | Nullable | Default
----------------+------------------------+----------+-----------
 id             | bigint                 | not null | bigserial
 name           | character varying(128) | not null |
 database_id    | bigint                 | not null |
 owner_id       | bigint                 | not null |
 encoding       | integer                | not null |
 collation_type | integer                | not null |
 schema_type    | integer                | not null |
Indexes:
    "schema_pkey" PRIMARY KEY (id)
    UNIQUE (database_id, name)
Foreign-key constraints:
    FOREIGN KEY (database_id) REFERENCES "database"(id)
    FOREIGN KEY (owner_id) REFERENCES "user"(id)
*/

// Schema is a namespace inside a database.
type Schema struct {
	ID           int64            `db:"id" json:"id"`
	Name         string           `db:"name" json:"name" validate:"required,max=128"`
	DatabaseID   int64            `db:"database_id" json:"databaseId"`
	OwnerID      int64            `db:"owner_id" json:"ownerId"`
	Encoding     types.Encoding   `db:"encoding" json:"encoding"`
	Collation    types.Collation  `db:"collation_type" json:"collation"`
	SchemaType   types.SchemaType `db:"schema_type" json:"schemaType"`
}
