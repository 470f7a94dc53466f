package types

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestXid(t *testing.T) {
	x := NewXid()
	assert.False(t, x.IsNil())
	assert.True(t, Xid{}.IsNil())

	b := x.NewBranch()
	assert.Equal(t, x.GlobalID, b.GlobalID)
	assert.NotEqual(t, x.BranchID, b.BranchID)
	assert.NotEqual(t, x, b)

	parsed, err := ParseXid(x.String())
	require.NoError(t, err)
	assert.Equal(t, x, parsed)

	for _, s := range []string{"", "abc", "abc.def", x.GlobalID.String() + ".zz"} {
		_, err := ParseXid(s)
		assert.Error(t, err, s)
	}

	assert.Regexp(t, regexp.MustCompile(`^pc_[0-9a-f]{32}_[0-9a-f]{32}$`), x.GID())

	m := map[Xid]int{x: 1}
	m[parsed]++
	assert.Equal(t, 2, m[x])
}

func TestPattern(t *testing.T) {
	assert.False(t, AnyPattern.IsSet())
	p := NewPattern("ITEM%")
	assert.True(t, p.IsSet())
	assert.Equal(t, "ITEM%", p.String())
	assert.True(t, NewPattern("").IsSet())
}

func TestColumnType(t *testing.T) {
	for ct := TypeBoolean; ct <= TypeTimestamp; ct++ {
		assert.True(t, ct.IsValid())
		parsed, ok := ParseColumnType(ct.String())
		assert.True(t, ok)
		assert.Equal(t, ct, parsed)
	}
	assert.False(t, ColumnType(0).IsValid())
	assert.Equal(t, "UNKNOWN", ColumnType(99).String())
	_, ok := ParseColumnType("BLOB")
	assert.False(t, ok)

	assert.True(t, TypeVarchar.IsCharacter())
	assert.True(t, TypeText.IsCharacter())
	assert.False(t, TypeInteger.IsCharacter())
}

func TestEnumNames(t *testing.T) {
	assert.Equal(t, "UTF8", EncodingUTF8.String())
	assert.Equal(t, "CASE_INSENSITIVE", CollationCaseInsensitive.String())
	assert.Equal(t, "RELATIONAL", SchemaTypeRelational.String())
	assert.Equal(t, "VIEW", TableTypeView.String())
	assert.Equal(t, "NONE", ForeignKeyNone.String())
	assert.Equal(t, ForeignKeyOption(0), ForeignKeyRestrict)
	assert.Equal(t, "SET DEFAULT", ForeignKeySetDefault.String())
	assert.Equal(t, "HASH", IndexTypeHash.String())
}
