package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// Club is an owning organization for orders. Its short code prefixes
// human-readable order identifiers.
type Club struct {
	bun.BaseModel `bun:"table:clubs"`

	ID        int64     `bun:",pk,autoincrement"`
	Name      string    `bun:"name,notnull"`
	Code      string    `bun:"code,notnull,unique"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
}
