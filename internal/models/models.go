package models

import "time"

// Reading is one decoded sensor value. OK is false when the vehicle did not
// answer the request or the reply could not be decoded; Value is then
// meaningless.
type Reading struct {
	Value float64
	OK    bool
}

// Snapshot is the result of one bulk scan over a set of PID keys. Keys holds
// the requested keys in registry order so that display columns and CSV
// exports stay stable. A Snapshot is never mutated after it is produced.
type Snapshot struct {
	Timestamp time.Time
	Keys      []string
	Readings  map[string]Reading
}

// NewSnapshot returns an empty snapshot for the given key set.
func NewSnapshot(keys []string) Snapshot {
	return Snapshot{
		Timestamp: time.Now(),
		Keys:      keys,
		Readings:  make(map[string]Reading, len(keys)),
	}
}

// Get returns the reading for key. Missing keys read as a not-OK Reading.
func (s Snapshot) Get(key string) Reading {
	return s.Readings[key]
}

// MonitorStatus is the decoded Mode 01 PID 01 bit-flag response.
type MonitorStatus struct {
	MILOn    bool
	DTCCount int
}

// DTCEntry represents a diagnostic trouble code with description.
type DTCEntry struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}
