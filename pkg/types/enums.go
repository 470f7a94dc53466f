package types

type Encoding int

const (
	EncodingUTF8 Encoding = 1
)

func (e Encoding) String() string {
	if e == EncodingUTF8 {
		return "UTF8"
	}
	return "UNKNOWN"
}

type Collation int

const (
	CollationCaseSensitive   Collation = 1
	CollationCaseInsensitive Collation = 2
)

func (c Collation) String() string {
	switch c {
	case CollationCaseSensitive:
		return "CASE_SENSITIVE"
	case CollationCaseInsensitive:
		return "CASE_INSENSITIVE"
	}
	return "UNKNOWN"
}

type SchemaType int

const (
	SchemaTypeRelational SchemaType = 1
)

func (t SchemaType) String() string {
	if t == SchemaTypeRelational {
		return "RELATIONAL"
	}
	return "UNKNOWN"
}

type TableType int

const (
	TableTypeTable TableType = 1
	TableTypeView  TableType = 2
)

func (t TableType) String() string {
	switch t {
	case TableTypeTable:
		return "TABLE"
	case TableTypeView:
		return "VIEW"
	}
	return "UNKNOWN"
}

// ColumnType is the SQL type of a catalog column.
type ColumnType int

const (
	TypeBoolean ColumnType = iota + 1
	TypeVarbinary
	TypeInteger
	TypeBigint
	TypeReal
	TypeDouble
	TypeDecimal
	TypeVarchar
	TypeText
	TypeDate
	TypeTime
	TypeTimestamp
)

var columnTypeNames = map[ColumnType]string{
	TypeBoolean:   "BOOLEAN",
	TypeVarbinary: "VARBINARY",
	TypeInteger:   "INTEGER",
	TypeBigint:    "BIGINT",
	TypeReal:      "REAL",
	TypeDouble:    "DOUBLE",
	TypeDecimal:   "DECIMAL",
	TypeVarchar:   "VARCHAR",
	TypeText:      "TEXT",
	TypeDate:      "DATE",
	TypeTime:      "TIME",
	TypeTimestamp: "TIMESTAMP",
}

func (t ColumnType) String() string {
	if n, ok := columnTypeNames[t]; ok {
		return n
	}
	return "UNKNOWN"
}

func (t ColumnType) IsValid() bool {
	_, ok := columnTypeNames[t]
	return ok
}

// IsCharacter reports whether values of this type carry a collation.
func (t ColumnType) IsCharacter() bool {
	return t == TypeVarchar || t == TypeText
}

func ParseColumnType(s string) (ColumnType, bool) {
	for t, n := range columnTypeNames {
		if n == s {
			return t, true
		}
	}
	return 0, false
}

// ForeignKeyOption is the referential action of a foreign key.
type ForeignKeyOption int

const (
	ForeignKeyNone ForeignKeyOption = iota - 1
	ForeignKeyRestrict
	ForeignKeyCascade
	ForeignKeySetNull
	ForeignKeySetDefault
)

func (o ForeignKeyOption) String() string {
	switch o {
	case ForeignKeyNone:
		return "NONE"
	case ForeignKeyRestrict:
		return "RESTRICT"
	case ForeignKeyCascade:
		return "CASCADE"
	case ForeignKeySetNull:
		return "SET NULL"
	case ForeignKeySetDefault:
		return "SET DEFAULT"
	}
	return "UNKNOWN"
}

type IndexType int

const (
	IndexTypeBTree IndexType = 1
	IndexTypeHash  IndexType = 2
)

func (t IndexType) String() string {
	switch t {
	case IndexTypeBTree:
		return "BTREE"
	case IndexTypeHash:
		return "HASH"
	}
	return "UNKNOWN"
}
