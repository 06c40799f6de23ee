package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// KeyParams is the full set of parameters that determine a search
// result. Two logically identical queries must always produce the same
// key regardless of how the filter maps were assembled.
type KeyParams struct {
	Query     string         `json:"query"`
	UserID    string         `json:"user_id"`
	Limit     int            `json:"limit"`
	Filters   map[string]any `json:"filters"`
	Threshold *float64       `json:"threshold"`
	Extra     map[string]any `json:"extra"`
}

// Key derives a deterministic cache key from params. encoding/json
// serializes map keys in sorted order, so the encoding is canonical and
// insertion order never leaks into the hash.
func Key(params KeyParams) string {
	if params.Filters == nil {
		params.Filters = map[string]any{}
	}
	if params.Extra == nil {
		params.Extra = map[string]any{}
	}
	encoded, err := json.Marshal(params)
	if err != nil {
		// Only unmarshalable values (channels, funcs) can land here;
		// KeyParams carries none
		panic(err)
	}
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:])
}
