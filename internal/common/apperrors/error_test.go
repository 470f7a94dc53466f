package apperrors

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestError(t *testing.T) {
	t.Run("TestError", func(t *testing.T) {
		ErrBaseErr := New("base error")
		assert.Equal(t, "base error", ErrBaseErr.Error())
		assert.Equal(t, "msg", ErrBaseErr.New("msg").Error())
		assert.ErrorIs(t, ErrBaseErr, ErrBaseErr)

		ErrFirstLevel := ErrBaseErr.New("first level")
		assert.Equal(t, "first level", ErrFirstLevel.Error())
		assert.ErrorIs(t, ErrFirstLevel, ErrBaseErr)

		ErrAnotherErr := New("another error")
		ErrWrappedErr := ErrFirstLevel.Err(ErrAnotherErr)
		assert.Equal(t, "first level", ErrWrappedErr.Error())
		assert.ErrorIs(t, ErrWrappedErr, ErrBaseErr)
		assert.ErrorIs(t, ErrWrappedErr, ErrFirstLevel)
		assert.ErrorIs(t, ErrWrappedErr, ErrAnotherErr)

		err := errors.New("error")
		ErrWrappedErr = ErrFirstLevel.Err(err)
		assert.Equal(t, "first level", ErrWrappedErr.Error())
		assert.ErrorIs(t, ErrWrappedErr, ErrBaseErr)
		assert.ErrorIs(t, ErrWrappedErr, err)

		ErrWrappedErr = ErrFirstLevel.MsgErr("msg", err)
		assert.Equal(t, "msg", ErrWrappedErr.Error())
		assert.ErrorIs(t, ErrWrappedErr, ErrBaseErr)
		assert.ErrorIs(t, ErrWrappedErr, err)
	})

	t.Run("SentinelsAreNotMutated", func(t *testing.T) {
		ErrBase := New("base error")
		_ = ErrBase.Msg("changed")
		_ = ErrBase.Prefix("pre").Suffix("suf")
		_ = ErrBase.Err(errors.New("cause"))
		assert.Equal(t, "base error", ErrBase.Error())
		assert.Empty(t, ErrBase.Unwrap())

		derived := ErrBase.Prefix("pre").Suffix("suf")
		assert.Equal(t, "pre: base error: suf", derived.Error())
		assert.Equal(t, "pre: base error: suf", derived.Error())
	})

	t.Run("ErrorAll", func(t *testing.T) {
		cause := errors.New("cause")
		e := New("top").Err(cause)
		assert.Equal(t, "top", e.ErrorAll())
		assert.Equal(t, "top: cause", e.SetExpandError(true).ErrorAll())
	})
}

func TestKind(t *testing.T) {
	ErrBase := New("base").SetKind(KindNotFound)
	ErrChild := ErrBase.New("child")
	assert.Equal(t, KindNotFound, ErrChild.Kind())
	assert.Equal(t, KindNotFound, KindOf(ErrChild.Msg("detail")))
	assert.Equal(t, KindNotFound, KindOf(errors.Wrap(ErrChild, "wrapped")))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
	assert.Equal(t, "not_found", KindNotFound.String())
}
