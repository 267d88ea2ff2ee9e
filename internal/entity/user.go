package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// User mirrors the identity-provider account for quota bookkeeping.
// Authentication itself happens outside this service.
type User struct {
	bun.BaseModel `bun:"table:users"`

	ID    int64  `bun:",pk,autoincrement"`
	Email string `bun:"email,notnull,unique"`
	Role  string `bun:"role,notnull"`

	// FilesUsed counts files ever attached by this user. It only
	// increments; expiry and deletion do not give quota back.
	FilesUsed int `bun:"files_used,notnull,default:0"`

	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
}
