package config

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Settings supplies the runtime-setting document: overrides applied on top
// of every file without rewriting one.
type Settings interface {
	// Snapshot returns the current overrides as a JSON object keyed by
	// subagent id.
	Snapshot() []byte
}

// MemorySettings is an in-memory Settings store safe for concurrent use.
type MemorySettings struct {
	mu  sync.RWMutex
	doc []byte
}

// NewMemorySettings creates an empty settings store.
func NewMemorySettings() *MemorySettings {
	return &MemorySettings{doc: []byte("{}")}
}

// Snapshot implements Settings.
func (s *MemorySettings) Snapshot() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.doc)
}

// Set stores value at field of subagent id. Nested fields use dot
// notation, e.g. "permissions.bash".
func (s *MemorySettings) Set(id, field string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := sjson.SetBytes(s.doc, settingsPath(id, field), value)
	if err != nil {
		return fmt.Errorf("setting %s.%s: %w", id, field, err)
	}
	s.doc = doc
	return nil
}

// SetRaw stores the JSON value raw at field of subagent id.
func (s *MemorySettings) SetRaw(id, field string, raw []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := sjson.SetRawBytes(s.doc, settingsPath(id, field), raw)
	if err != nil {
		return fmt.Errorf("setting %s.%s: %w", id, field, err)
	}
	s.doc = doc
	return nil
}

// SetModel overrides the model of subagent id.
func (s *MemorySettings) SetModel(id, model string) error {
	return s.Set(id, "model", model)
}

// Unset removes field of subagent id. An empty field removes every
// override for id.
func (s *MemorySettings) Unset(id, field string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := sjson.DeleteBytes(s.doc, settingsPath(id, field))
	if err != nil {
		return fmt.Errorf("unsetting %s.%s: %w", id, field, err)
	}
	s.doc = doc
	return nil
}

// Reset drops every override.
func (s *MemorySettings) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = []byte("{}")
}

// settingsPath builds the sjson path of field in the entry of id. Each
// component is escaped so ids and field names are taken literally.
func settingsPath(id, field string) string {
	if field == "" {
		return gjson.Escape(id)
	}
	parts := strings.Split(field, ".")
	for i, part := range parts {
		parts[i] = gjson.Escape(part)
	}
	return gjson.Escape(id) + "." + strings.Join(parts, ".")
}
