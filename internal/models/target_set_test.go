package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTargetSet_EditsReturnNewValues(t *testing.T) {
	var empty TargetSet

	one := empty.AddEntry(TargetKindHostname, "web01")
	two := one.AddEntry(TargetKindHostname, "web02")

	assert.Nil(t, empty.Hostnames)
	assert.Equal(t, []string{"web01"}, one.Hostnames)
	assert.Equal(t, []string{"web01", "web02"}, two.Hostnames)

	updated := two.UpdateEntry(TargetKindHostname, 0, "db01")
	assert.Equal(t, []string{"db01", "web02"}, updated.Hostnames)
	assert.Equal(t, []string{"web01", "web02"}, two.Hostnames, "snapshot must not change")

	removed := updated.RemoveEntry(TargetKindHostname, 0)
	assert.Equal(t, []string{"web02"}, removed.Hostnames)
	assert.Equal(t, []string{"db01", "web02"}, updated.Hostnames)
}

func TestTargetSet_OutOfRangeIsNoOp(t *testing.T) {
	set := TargetSet{}.AddEntry(TargetKindIPRange, "10.0.0.1-10.0.0.9")

	tests := []struct {
		name string
		got  TargetSet
	}{
		{"Update negative index", set.UpdateEntry(TargetKindIPRange, -1, "x")},
		{"Update past end", set.UpdateEntry(TargetKindIPRange, 1, "x")},
		{"Remove past end", set.RemoveEntry(TargetKindIPRange, 3)},
		{"Remove from empty kind", set.RemoveEntry(TargetKindOUPath, 0)},
		{"Unknown kind", set.AddEntry(TargetKind("mac"), "aa:bb")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, set, tt.got)
		})
	}
}

func TestTargetSet_CleanAndHasAnyTarget(t *testing.T) {
	set := TargetSet{
		IPRanges:   []string{"  ", ""},
		Hostnames:  []string{" web01 ", "web01", "\t"},
		IPSegments: []string{"10.1.0.0/16"},
	}

	clean := set.Clean()
	assert.Equal(t, []string{}, clean.IPRanges)
	assert.Equal(t, []string{"web01", "web01"}, clean.Hostnames, "duplicates are kept")
	assert.Equal(t, []string{}, clean.OUPaths)
	assert.Equal(t, []string{"10.1.0.0/16"}, clean.IPSegments)
	assert.Equal(t, 3, set.Count())
	assert.True(t, set.HasAnyTarget())

	blank := TargetSet{Hostnames: []string{" "}, OUPaths: []string{""}}
	assert.False(t, blank.HasAnyTarget())
	assert.False(t, TargetSet{}.HasAnyTarget())
	assert.Equal(t, 0, blank.Count())

	data, err := json.Marshal(TargetSet{}.Clean())
	require.NoError(t, err)
	assert.JSONEq(t, `{"ipRanges":[],"hostnames":[],"ouPaths":[],"ipSegments":[]}`, string(data))
}

func TestTargetSet_Entries(t *testing.T) {
	set := TargetSet{OUPaths: []string{"OU=Servers,DC=corp,DC=local"}}

	entries := set.Entries(TargetKindOUPath)
	entries[0] = "changed"
	assert.Equal(t, "OU=Servers,DC=corp,DC=local", set.OUPaths[0])

	assert.Nil(t, set.Entries(TargetKind("bogus")))
	assert.Len(t, AllTargetKinds(), 4)
}
