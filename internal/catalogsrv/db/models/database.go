package models

import "github.com/tansive/polycatalog/pkg/types"

/*
      Column      |          Type          | Nullable | Default
------------------+------------------------+----------+-----------
 id               | bigint                 | not null | bigserial
 name             | character varying(128) | not null |
 owner_id         | bigint                 | not null |
 encoding         | integer                | not null |
 collation_type   | integer                | not null |
 connection_limit | integer                | not null |
Indexes:
    "database_pkey" PRIMARY KEY (id)
    "database_name_key" UNIQUE (name)
Foreign-key constraints:
    FOREIGN KEY (owner_id) REFERENCES "user"(id)
*/

type Database struct {
	ID              int64           `db:"id" json:"id"`
	Name            string          `db:"name" json:"name" validate:"required,max=128"`
	OwnerID         int64           `db:"owner_id" json:"ownerId"`
	Encoding        types.Encoding  `db:"encoding" json:"encoding"`
	Collation       types.Collation `db:"collation_type" json:"collation"`
	ConnectionLimit int             `db:"connection_limit" json:"connectionLimit" validate:"gte=0"`
}
