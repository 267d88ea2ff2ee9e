package dto

import "encoding/json"

// SetConfigRequest replaces one system configuration value.
type SetConfigRequest struct {
	Value       json.RawMessage `json:"value"`
	Description string          `json:"description"`
}

// ConfigResponse is the wire shape of one configuration entry.
type ConfigResponse struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}
