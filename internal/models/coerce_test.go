package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToID(t *testing.T) {
	tests := []struct {
		name   string
		value  interface{}
		want   int
		wantOK bool
	}{
		{"Float", float64(42), 42, true},
		{"Fraction", 2.9, 0, false},
		{"Int64 from TOML", int64(5), 5, true},
		{"JSON number", json.Number("17"), 17, true},
		{"JSON fraction", json.Number("1.5"), 0, false},
		{"Decimal string", "010", 10, true},
		{"Padded string", "  7 ", 7, true},
		{"Hex string", "0x1F", 0, false},
		{"Word", "abc", 0, false},
		{"Boolean", true, 0, false},
		{"Nil", nil, 0, false},
		{"Object", map[string]interface{}{"id": 1}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToID(tt.value)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
