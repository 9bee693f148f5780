package models

import "strings"

// TargetKind identifies which addressing sequence of a TargetSet an entry belongs to
type TargetKind string

// TargetKind constants
const (
	TargetKindIPRange   TargetKind = "ip_range"   // e.g. "10.0.0.1-10.0.0.50"
	TargetKindHostname  TargetKind = "hostname"   // e.g. "web-01.corp.local"
	TargetKindOUPath    TargetKind = "ou_path"    // e.g. "OU=Servers,DC=corp,DC=local"
	TargetKindIPSegment TargetKind = "ip_segment" // CIDR, e.g. "192.168.10.0/24"
)

// IsValid checks if the TargetKind is a known kind
func (k TargetKind) IsValid() bool {
	switch k {
	case TargetKindIPRange, TargetKindHostname, TargetKindOUPath, TargetKindIPSegment:
		return true
	}
	return false
}

// AllTargetKinds returns every TargetKind in display order
func AllTargetKinds() []TargetKind {
	return []TargetKind{
		TargetKindIPRange,
		TargetKindHostname,
		TargetKindOUPath,
		TargetKindIPSegment,
	}
}

// TargetSet is the collection of deployment targets of a job.
//
// A TargetSet is a value: every edit returns a new TargetSet and never writes
// to the slices of the receiver, so a snapshot taken by a caller stays valid.
// Duplicate entries are kept, both within a kind and across kinds.
type TargetSet struct {
	IPRanges   []string `json:"ipRanges" toml:"ip_ranges" yaml:"ip_ranges"`
	Hostnames  []string `json:"hostnames" toml:"hostnames" yaml:"hostnames"`
	OUPaths    []string `json:"ouPaths" toml:"ou_paths" yaml:"ou_paths"`
	IPSegments []string `json:"ipSegments" toml:"ip_segments" yaml:"ip_segments"`
}

// Entries returns a copy of the sequence for the given kind (nil for unknown kinds)
func (t TargetSet) Entries(kind TargetKind) []string {
	entries := t.get(kind)
	if entries == nil {
		return nil
	}
	out := make([]string, len(entries))
	copy(out, entries)
	return out
}

// AddEntry appends value to the sequence of the given kind.
// Blank values are accepted here; Clean drops them.
func (t TargetSet) AddEntry(kind TargetKind, value string) TargetSet {
	if !kind.IsValid() {
		return t
	}
	entries := t.get(kind)
	next := make([]string, len(entries), len(entries)+1)
	copy(next, entries)
	return t.with(kind, append(next, value))
}

// UpdateEntry replaces the entry at index. Out of range indexes are a no-op.
func (t TargetSet) UpdateEntry(kind TargetKind, index int, value string) TargetSet {
	entries := t.get(kind)
	if !kind.IsValid() || index < 0 || index >= len(entries) {
		return t
	}
	next := make([]string, len(entries))
	copy(next, entries)
	next[index] = value
	return t.with(kind, next)
}

// RemoveEntry drops the entry at index, preserving the order of the rest.
// Out of range indexes are a no-op.
func (t TargetSet) RemoveEntry(kind TargetKind, index int) TargetSet {
	entries := t.get(kind)
	if !kind.IsValid() || index < 0 || index >= len(entries) {
		return t
	}
	next := make([]string, 0, len(entries)-1)
	next = append(next, entries[:index]...)
	next = append(next, entries[index+1:]...)
	return t.with(kind, next)
}

// Clean trims every entry and drops blank ones, preserving relative order
func (t TargetSet) Clean() TargetSet {
	return TargetSet{
		IPRanges:   cleanEntries(t.IPRanges),
		Hostnames:  cleanEntries(t.Hostnames),
		OUPaths:    cleanEntries(t.OUPaths),
		IPSegments: cleanEntries(t.IPSegments),
	}
}

// HasAnyTarget reports whether at least one sequence holds a non-blank entry.
// This is the only gate for submission; a false result blocks the wizard.
func (t TargetSet) HasAnyTarget() bool {
	for _, kind := range AllTargetKinds() {
		for _, entry := range t.get(kind) {
			if strings.TrimSpace(entry) != "" {
				return true
			}
		}
	}
	return false
}

// Count returns the number of non-blank entries across all kinds
func (t TargetSet) Count() int {
	c := t.Clean()
	return len(c.IPRanges) + len(c.Hostnames) + len(c.OUPaths) + len(c.IPSegments)
}

func (t TargetSet) get(kind TargetKind) []string {
	switch kind {
	case TargetKindIPRange:
		return t.IPRanges
	case TargetKindHostname:
		return t.Hostnames
	case TargetKindOUPath:
		return t.OUPaths
	case TargetKindIPSegment:
		return t.IPSegments
	}
	return nil
}

func (t TargetSet) with(kind TargetKind, entries []string) TargetSet {
	switch kind {
	case TargetKindIPRange:
		t.IPRanges = entries
	case TargetKindHostname:
		t.Hostnames = entries
	case TargetKindOUPath:
		t.OUPaths = entries
	case TargetKindIPSegment:
		t.IPSegments = entries
	}
	return t
}

// cleanEntries always returns a non-nil slice so payloads serialize as [] rather than null
func cleanEntries(entries []string) []string {
	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		if trimmed := strings.TrimSpace(entry); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
