package models

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// ToID reads a base-10 integer from a decoded JSON, TOML or YAML value.
// Numeric strings may carry surrounding spaces. Booleans, fractional numbers
// and anything else non-numeric are rejected.
func ToID(v interface{}) (int, bool) {
	switch t := v.(type) {
	case nil, bool:
		return 0, false
	case json.Number:
		id, err := t.Int64()
		return int(id), err == nil
	case string:
		id, err := strconv.Atoi(strings.TrimSpace(t))
		return id, err == nil
	case float64:
		if t != float64(int(t)) {
			return 0, false
		}
	case float32:
		if t != float32(int(t)) {
			return 0, false
		}
	}
	id, err := cast.ToIntE(v)
	return id, err == nil
}
