package types

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Xid identifies one branch of a global transaction.
// It is comparable and can be used as a map key.
type Xid struct {
	GlobalID uuid.UUID
	BranchID uuid.UUID
}

// NewXid returns a new global transaction with a single branch.
func NewXid() Xid {
	return Xid{
		GlobalID: uuid.New(),
		BranchID: uuid.New(),
	}
}

// NewBranch returns a new branch of the same global transaction.
func (x Xid) NewBranch() Xid {
	return Xid{
		GlobalID: x.GlobalID,
		BranchID: uuid.New(),
	}
}

func (x Xid) IsNil() bool {
	return x.GlobalID == uuid.Nil && x.BranchID == uuid.Nil
}

func (x Xid) String() string {
	return x.GlobalID.String() + "." + x.BranchID.String()
}

// GID is the identifier used with the storage engine's two-phase commands.
// It only contains characters in [0-9a-f_] and is safe to use as a literal.
func (x Xid) GID() string {
	return "pc_" + hex.EncodeToString(x.GlobalID[:]) + "_" + hex.EncodeToString(x.BranchID[:])
}

func ParseXid(s string) (Xid, error) {
	g, b, ok := strings.Cut(s, ".")
	if !ok {
		return Xid{}, fmt.Errorf("invalid xid %q", s)
	}
	gid, err := uuid.Parse(g)
	if err != nil {
		return Xid{}, fmt.Errorf("invalid xid %q: %w", s, err)
	}
	bid, err := uuid.Parse(b)
	if err != nil {
		return Xid{}, fmt.Errorf("invalid xid %q: %w", s, err)
	}
	return Xid{GlobalID: gid, BranchID: bid}, nil
}

// Pattern filters names with SQL LIKE semantics ('%' and '_' wildcards, case sensitive).
// The zero value matches everything.
type Pattern struct {
	expr  string
	valid bool
}

// AnyPattern matches every name.
var AnyPattern = Pattern{}

func NewPattern(expr string) Pattern {
	return Pattern{expr: expr, valid: true}
}

func (p Pattern) IsSet() bool {
	return p.valid
}

func (p Pattern) String() string {
	return p.expr
}
