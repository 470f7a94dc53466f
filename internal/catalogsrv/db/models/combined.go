package models

// CombinedDatabase is a database with every schema below it.
type CombinedDatabase struct {
	Database Database         `json:"database"`
	Owner    User             `json:"owner"`
	Schemas  []CombinedSchema `json:"schemas"`
}

type CombinedSchema struct {
	Schema Schema          `json:"schema"`
	Owner  User            `json:"owner"`
	Tables []CombinedTable `json:"tables"`
}

// CombinedTable is a table with its columns, keys and placements.
type CombinedTable struct {
	Table       Table           `json:"table"`
	Owner       User            `json:"owner"`
	Columns     []Column        `json:"columns"`
	Keys        []Key           `json:"keys"`
	PrimaryKey  *PrimaryKey     `json:"primaryKey,omitempty"`
	ForeignKeys []ForeignKey    `json:"foreignKeys"`
	Indexes     []Index         `json:"indexes"`
	Placements  []DataPlacement `json:"placements"`
}
