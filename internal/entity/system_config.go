package entity

import (
	"encoding/json"
	"time"

	"github.com/uptrace/bun"
)

// SystemConfig is a key/value settings row. Values are opaque JSON;
// callers interpret them and fall back to hard-coded defaults when a row
// is absent or malformed.
type SystemConfig struct {
	bun.BaseModel `bun:"table:system_config"`

	Key         string          `bun:"key,pk"`
	Value       json.RawMessage `bun:"value,type:jsonb"`
	Description string          `bun:"description"`
	UpdatedBy   int64           `bun:"updated_by"`
	UpdatedAt   time.Time       `bun:"updated_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
}
