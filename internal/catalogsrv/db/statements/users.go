package statements

import (
	"context"

	"github.com/tansive/polycatalog/internal/catalogsrv/db/dberror"
	"github.com/tansive/polycatalog/internal/catalogsrv/db/models"
)

var userEntity = &entity[models.User]{
	name:    "user",
	from:    `"user" u`,
	columns: []string{"u.id", "u.username", "u.password"},
	scan: func(s scanner) (models.User, error) {
		var u models.User
		err := s.Scan(&u.ID, &u.Username, &u.Password)
		return u, err
	},
	notFound: dberror.ErrUnknownUser,
}

func GetUsers(ctx context.Context, ex Executor) ([]models.User, error) {
	return queryAll(ctx, ex, userEntity, "", nil, "u.id")
}

// GetUser looks a user up by name.
func GetUser(ctx context.Context, ex Executor, username string) (*models.User, error) {
	u, err := queryOne(ctx, ex, userEntity, "", newFilter().eq("u.username", username), username)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func GetUserByID(ctx context.Context, ex Executor, id int64) (*models.User, error) {
	u, err := queryOne(ctx, ex, userEntity, "", newFilter().eq("u.id", id), idString(id))
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// AddUser stores a user. password must already be hashed.
func AddUser(ctx context.Context, ex Executor, username, password string) (int64, error) {
	if username == "" {
		return 0, dberror.ErrInvalidInput.Msg("user name is empty")
	}
	id, err := ex.ExecuteInsert(ctx, `INSERT INTO "user" (username, password) VALUES ($1, $2) RETURNING id`, username, password)
	if err != nil {
		return 0, writeError(ctx, err, "user "+username)
	}
	return id, nil
}

func SetUserPassword(ctx context.Context, ex Executor, id int64, password string) error {
	return execOne(ctx, ex, dberror.ErrUnknownUser, idString(id),
		`UPDATE "user" SET password = $1 WHERE id = $2`, password, id)
}

func DeleteUser(ctx context.Context, ex Executor, id int64) error {
	return deleteOne(ctx, ex, dberror.ErrUnknownUser, idString(id), `DELETE FROM "user" WHERE id = $1`, id)
}
