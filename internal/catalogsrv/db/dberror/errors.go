package dberror

import (
	"errors"

	"github.com/tansive/polycatalog/internal/common/apperrors"
)

var (
	ErrDatabase      apperrors.Error = apperrors.New("db error").SetKind(apperrors.KindInternal)
	ErrAlreadyExists apperrors.Error = ErrDatabase.New("already exists").SetKind(apperrors.KindAlreadyExists)
	ErrInvalidInput  apperrors.Error = ErrDatabase.New("invalid input").SetKind(apperrors.KindInvalidInput)

	// ErrConnection means no storage connection could be opened or obtained.
	ErrConnection apperrors.Error = ErrDatabase.New("connection error").SetKind(apperrors.KindConnection)

	// ErrTransaction covers prepare/commit/rollback failures and misuse of a transaction handler.
	ErrTransaction    apperrors.Error = ErrDatabase.New("transaction error").SetKind(apperrors.KindTransaction)
	ErrBranchExists   apperrors.Error = ErrTransaction.New("already a connection handler for this xid")
	ErrHandlerState   apperrors.Error = ErrTransaction.New("transaction handler is not in a valid state for this operation")
	ErrNotTwoPhase    apperrors.Error = ErrTransaction.New("local transaction handler cannot take part in two-phase commit")
	ErrPoolClosed     apperrors.Error = ErrTransaction.New("transaction handler pool is closed")
	ErrPrepareVotedNo apperrors.Error = ErrTransaction.New("resource manager voted to roll back")

	// ErrIntegrity means a singular lookup matched more than one row.
	ErrIntegrity      apperrors.Error = ErrDatabase.New("integrity violation").SetKind(apperrors.KindIntegrity)
	ErrHasDependents  apperrors.Error = ErrIntegrity.New("entity still has dependents")
	ErrUnknownParent  apperrors.Error = ErrInvalidInput.New("referenced entity does not exist")
	ErrNotFound       apperrors.Error = ErrDatabase.New("not found").SetKind(apperrors.KindNotFound)
	ErrUnknownUser    apperrors.Error = ErrNotFound.New("unknown user")
	ErrUnknownDB      apperrors.Error = ErrNotFound.New("unknown database")
	ErrUnknownSchema  apperrors.Error = ErrNotFound.New("unknown schema")
	ErrUnknownTable   apperrors.Error = ErrNotFound.New("unknown table")
	ErrUnknownColumn  apperrors.Error = ErrNotFound.New("unknown column")
	ErrUnknownKey     apperrors.Error = ErrNotFound.New("unknown key")
	ErrUnknownFK      apperrors.Error = ErrNotFound.New("unknown foreign key")
	ErrUnknownIndex   apperrors.Error = ErrNotFound.New("unknown index")
	ErrUnknownStore   apperrors.Error = ErrNotFound.New("unknown store")
	ErrUnknownDefault apperrors.Error = ErrNotFound.New("unknown default value")
	ErrUnknownPlace   apperrors.Error = ErrNotFound.New("unknown data placement")
	ErrUnknownPK      apperrors.Error = ErrNotFound.New("table has no primary key")
)

var notFoundEntities = []struct {
	err    error
	entity string
}{
	{ErrUnknownUser, "user"},
	{ErrUnknownDB, "database"},
	{ErrUnknownSchema, "schema"},
	{ErrUnknownTable, "table"},
	{ErrUnknownColumn, "column"},
	{ErrUnknownPK, "primary key"},
	{ErrUnknownFK, "foreign key"},
	{ErrUnknownKey, "key"},
	{ErrUnknownIndex, "index"},
	{ErrUnknownStore, "store"},
	{ErrUnknownDefault, "default value"},
	{ErrUnknownPlace, "data placement"},
}

// NotFoundEntity names the entity of a not-found error, or returns "" if err is not one.
func NotFoundEntity(err error) string {
	for _, e := range notFoundEntities {
		if errors.Is(err, e.err) {
			return e.entity
		}
	}
	return ""
}

// IsNotFound reports whether err is any kind of not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
