package normalizer

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/ternarybob/fleetjobs/internal/models"
)

// outcome of resolving a single logical field
type outcome int

const (
	resolved  outcome = iota // Value found and usable
	missing                  // No alias held a non-null value
	malformed                // A value was present but could not be coerced
)

func (o outcome) String() string {
	switch o {
	case resolved:
		return "resolved"
	case missing:
		return "missing"
	}
	return "malformed"
}

// lookup returns the first non-null value among the field's aliases that
// satisfies accept. When only unacceptable values are present the outcome is
// malformed.
func lookup(obj map[string]interface{}, field string, accept func(interface{}) bool) (interface{}, outcome) {
	if obj == nil {
		return nil, missing
	}
	result := missing
	for _, key := range aliasTable[field] {
		v, ok := obj[key]
		if !ok || v == nil {
			continue
		}
		if accept(v) {
			return v, resolved
		}
		result = malformed
	}
	return nil, result
}

func isObjectShape(v interface{}) bool {
	switch v.(type) {
	case map[string]interface{}, string:
		return true
	}
	return false
}

func isListShape(v interface{}) bool {
	switch v.(type) {
	case []interface{}, []string, []int, string:
		return true
	}
	return false
}

// isIDListShape also accepts scalars, promoted to one-element lists
func isIDListShape(v interface{}) bool {
	return isListShape(v) || isNumber(v)
}

func isScalarShape(v interface{}) bool {
	_, ok := v.(string)
	return ok || isNumber(v)
}

func isNumber(v interface{}) bool {
	switch v.(type) {
	case float64, float32, int, int32, int64, uint, uint32, uint64, json.Number:
		return true
	}
	return false
}

// asObject accepts a decoded object or a JSON-encoded object string
func asObject(v interface{}) (map[string]interface{}, outcome) {
	switch t := v.(type) {
	case nil:
		return nil, missing
	case map[string]interface{}:
		return t, resolved
	case string:
		s := strings.TrimSpace(t)
		if s == "" || s == "null" {
			return nil, missing
		}
		var m map[string]interface{}
		if err := json.Unmarshal([]byte(s), &m); err != nil || m == nil {
			return nil, malformed
		}
		return m, resolved
	}
	return nil, malformed
}

// asStringList accepts an array, a JSON-encoded array string, or a
// comma-separated string. Entries are trimmed and blanks dropped.
func asStringList(v interface{}) ([]string, outcome) {
	switch t := v.(type) {
	case nil:
		return []string{}, missing
	case []string:
		return cleanStrings(t), resolved
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if e == nil {
				continue
			}
			if s, err := cast.ToStringE(e); err == nil {
				out = append(out, s)
			}
		}
		return cleanStrings(out), resolved
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return []string{}, resolved
		}
		if strings.HasPrefix(s, "[") {
			var decoded []interface{}
			if err := json.Unmarshal([]byte(s), &decoded); err == nil {
				return asStringList(decoded)
			}
		}
		return cleanStrings(strings.Split(s, ",")), resolved
	}
	return []string{}, malformed
}

// asIDList accepts an array, a JSON-encoded string (array or scalar), a
// comma-separated string or a bare number. Non-numeric entries are dropped.
func asIDList(v interface{}) ([]int, outcome) {
	switch t := v.(type) {
	case nil:
		return []int{}, missing
	case []int:
		out := make([]int, len(t))
		copy(out, t)
		return out, resolved
	case []interface{}:
		out := make([]int, 0, len(t))
		for _, e := range t {
			if id, ok := asID(e); ok {
				out = append(out, id)
			}
		}
		return out, resolved
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return []int{}, resolved
		}
		var decoded interface{}
		if err := json.Unmarshal([]byte(s), &decoded); err == nil {
			switch d := decoded.(type) {
			case []interface{}:
				return asIDList(d)
			case float64:
				if id, ok := asID(d); ok {
					return []int{id}, resolved
				}
			}
		}
		out := []int{}
		for _, part := range strings.Split(strings.Trim(s, "[]"), ",") {
			if id, err := strconv.Atoi(strings.TrimSpace(part)); err == nil {
				out = append(out, id)
			}
		}
		return out, resolved
	}
	if id, ok := asID(v); ok {
		return []int{id}, resolved
	}
	return []int{}, malformed
}

// asID converts a single numeric value (number or numeric string) to an int
func asID(v interface{}) (int, bool) {
	return models.ToID(v)
}

// asCount converts a counter to a non-negative int; anything unusable is 0
func asCount(v interface{}) (int, outcome) {
	if v == nil {
		return 0, missing
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		if s, ok := v.(string); ok {
			f, ferr := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if ferr != nil {
				return 0, malformed
			}
			n = int(f)
		} else {
			return 0, malformed
		}
	}
	if n < 0 {
		return 0, malformed
	}
	return n, resolved
}

// asText converts a scalar to a trimmed string
func asText(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case json.Number:
		return t.String()
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
	}
	return strings.TrimSpace(cast.ToString(v))
}

// asOptionalInt converts a scalar to a day/time component, nil when absent or invalid
func asOptionalInt(v interface{}) *int {
	if v == nil {
		return nil
	}
	if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
		return nil
	}
	n, ok := asID(v)
	if !ok {
		return nil
	}
	return &n
}

var createdAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// asTimestamp accepts RFC3339 and common SQL-style timestamps, or epoch
// seconds / milliseconds. Results are in UTC.
func asTimestamp(v interface{}) (time.Time, outcome) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, missing
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, missing
		}
		for _, layout := range createdAtLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts.UTC(), resolved
			}
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return fromEpoch(n), resolved
		}
		return time.Time{}, malformed
	}
	if isNumber(v) {
		n, err := cast.ToInt64E(v)
		if err == nil && n > 0 {
			return fromEpoch(n), resolved
		}
	}
	return time.Time{}, malformed
}

// fromEpoch treats values beyond year 33658 in seconds as milliseconds
func fromEpoch(n int64) time.Time {
	if n > 1e12 {
		return time.UnixMilli(n).UTC()
	}
	return time.Unix(n, 0).UTC()
}

func cleanStrings(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
