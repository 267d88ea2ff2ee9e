package entity

import "github.com/uptrace/bun"

// Sequence is a named atomic counter row. Identifier generation bumps it
// with a single upsert statement so concurrent writers never observe the
// same value.
type Sequence struct {
	bun.BaseModel `bun:"table:sequences"`

	Scope string `bun:"scope,pk"`
	Value int64  `bun:"value,notnull"`
}
