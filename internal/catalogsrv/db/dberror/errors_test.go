package dberror

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tansive/polycatalog/internal/common/apperrors"
)

func TestKinds(t *testing.T) {
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(ErrUnknownTable.Msg("table T1")))
	assert.Equal(t, apperrors.KindTransaction, apperrors.KindOf(ErrBranchExists))
	assert.Equal(t, apperrors.KindIntegrity, apperrors.KindOf(ErrHasDependents))
	assert.Equal(t, apperrors.KindConnection, apperrors.KindOf(ErrConnection.Err(assert.AnError)))
	assert.Equal(t, apperrors.KindInvalidInput, apperrors.KindOf(ErrUnknownParent))
	assert.ErrorIs(t, ErrUnknownColumn, ErrDatabase)
}

func TestNotFoundEntity(t *testing.T) {
	assert.Equal(t, "table", NotFoundEntity(ErrUnknownTable.Msg("x")))
	assert.Equal(t, "foreign key", NotFoundEntity(ErrUnknownFK))
	assert.Equal(t, "", NotFoundEntity(ErrIntegrity))
	assert.True(t, IsNotFound(ErrUnknownSchema))
	assert.False(t, IsNotFound(ErrConnection))
}
