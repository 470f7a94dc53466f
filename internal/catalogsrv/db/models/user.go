package models

/*
  Column   |          Type          | Nullable | Default
-----------+------------------------+----------+-----------
 id        | bigint                 | not null | bigserial
 username  | character varying(128) | not null |
 password  | character varying(256) | not null |
Indexes:
    "user_pkey" PRIMARY KEY (id)
    "user_username_key" UNIQUE (username)
*/

type User struct {
	ID       int64  `db:"id" json:"id"`
	Username string `db:"username" json:"username" validate:"required,max=128"`
	Password string `db:"password" json:"-"`
}
