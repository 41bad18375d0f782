package query

import (
	"encoding/json"
	"fmt"
)

// Key identifies a cached read: the GET path and its query parameters.
// Two keys address the same entry only when their canonical strings match.
type Key struct {
	Path   string
	Params any
}

func NewKey(path string, params any) Key {
	return Key{Path: path, Params: params}
}

// String returns the canonical form of the key. Params are rendered as JSON
// with object keys sorted, so map iteration order never splits an entry.
func (k Key) String() string {
	params := canonicalParams(k.Params)
	if params == "" {
		return k.Path
	}
	return k.Path + " " + params
}

func canonicalParams(params any) string {
	if params == nil {
		return ""
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return fmt.Sprintf("%#v", params)
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return string(raw)
	}
	switch v := decoded.(type) {
	case nil:
		return ""
	case map[string]any:
		if len(v) == 0 {
			return ""
		}
	}
	// encoding/json sorts map keys.
	canonical, err := json.Marshal(decoded)
	if err != nil {
		return string(raw)
	}
	return string(canonical)
}
