package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"sort"

	"github.com/aleksclark/crush-subagents/internal/prompt"
	"github.com/aleksclark/crush-subagents/internal/subagent"
	"github.com/aleksclark/crush-subagents/internal/tracing"
	"github.com/tidwall/gjson"
	"github.com/tidwall/jsonc"
)

//go:embed defaults.json
var defaultsJSON []byte

// DefaultsPath is the report path of the packaged defaults.
const DefaultsPath = "<embedded>"

var (
	// ErrInvalidJSON is reported for documents that do not parse.
	ErrInvalidJSON = errors.New("invalid JSON")
	// ErrNotObject is reported for documents that are not JSON objects.
	ErrNotObject = errors.New("document is not a JSON object")
)

// Document is a parsed configuration document keyed by subagent id.
type Document struct {
	Source subagent.Source
	Path   string
	Data   gjson.Result
}

// ReportEntry records whether a source contributed a document.
type ReportEntry struct {
	Source subagent.Source `json:"source"`
	Path   string          `json:"path,omitempty"`
	Loaded bool            `json:"loaded"`
	Err    error           `json:"-"`
}

// LoadOptions configures Load.
type LoadOptions struct {
	// WorkDir is the project directory. Empty disables the project source.
	WorkDir string
	// GlobalDir overrides the global configuration directory.
	GlobalDir string
	// Defaults overrides the packaged defaults document.
	Defaults []byte
	// Settings supplies the runtime-setting source. Nil disables it.
	Settings Settings
}

// Sources holds the file-backed documents and the runtime settings store.
type Sources struct {
	docs     []Document // Lowest precedence first.
	report   []ReportEntry
	settings Settings
}

// Load reads the defaults, global and project documents. Missing, unreadable
// or invalid documents are treated as absent and recorded in the report.
// Runtime settings are read on every resolution, not here.
func Load(ctx context.Context, opts LoadOptions) *Sources {
	s := &Sources{settings: opts.Settings}

	defaults := opts.Defaults
	if defaults == nil {
		defaults = defaultsJSON
	}
	s.add(ctx, subagent.SourceDefaults, DefaultsPath, func() ([]byte, error) {
		return defaults, nil
	})

	globalDir := opts.GlobalDir
	if globalDir == "" {
		globalDir = GlobalDir()
	}
	s.addFile(ctx, subagent.SourceGlobal, globalDir)
	s.addFile(ctx, subagent.SourceProject, ProjectDir(opts.WorkDir))

	return s
}

func (s *Sources) addFile(ctx context.Context, source subagent.Source, dir string) {
	path, ok := findFile(dir)
	if !ok {
		slog.Debug("No subagent config found", "source", source, "dir", dir)
		s.report = append(s.report, ReportEntry{Source: source, Path: dir})
		return
	}
	s.add(ctx, source, path, func() ([]byte, error) {
		return os.ReadFile(path)
	})
}

func (s *Sources) add(ctx context.Context, source subagent.Source, path string, read func() ([]byte, error)) {
	span := tracing.StartLoad(ctx, source.String(), path)
	defer span.End()

	data, err := read()
	if err == nil {
		var doc gjson.Result
		doc, err = parseDocument(data)
		if err == nil {
			s.docs = append(s.docs, Document{Source: source, Path: path, Data: doc})
			s.report = append(s.report, ReportEntry{Source: source, Path: path, Loaded: true})
			span.SetLoaded(true, len(data))
			slog.Debug("Loaded subagent config", "source", source, "path", path)
			return
		}
	}

	err = fmt.Errorf("loading %s: %w", path, err)
	slog.Warn("Ignoring subagent config", "source", source, "path", path, "error", err)
	span.SetError(err)
	span.SetLoaded(false, len(data))
	s.report = append(s.report, ReportEntry{Source: source, Path: path, Err: err})
}

// parseDocument strips JSONC comments and trailing commas and validates
// that data holds a JSON object.
func parseDocument(data []byte) (gjson.Result, error) {
	data = jsonc.ToJSON(data)
	if !gjson.ValidBytes(data) {
		return gjson.Result{}, ErrInvalidJSON
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return gjson.Result{}, ErrNotObject
	}
	return doc, nil
}

// Snapshot is the set of documents at one moment: the file-backed
// documents plus the runtime settings as they were when it was taken.
type Snapshot struct {
	docs []Document // Lowest precedence first.
}

// Snapshot captures the current documents, including the runtime settings.
func (s *Sources) Snapshot(ctx context.Context) Snapshot {
	docs := slices.Clone(s.docs)
	if s.settings == nil {
		return Snapshot{docs: docs}
	}

	span := tracing.StartLoad(ctx, subagent.SourceRuntime.String(), "")
	defer span.End()

	data := s.settings.Snapshot()
	doc, err := parseDocument(data)
	if err != nil {
		slog.Warn("Ignoring runtime settings", "error", err)
		span.SetError(err)
		span.SetLoaded(false, len(data))
		return Snapshot{docs: docs}
	}
	span.SetLoaded(true, len(data))
	return Snapshot{docs: append(docs, Document{Source: subagent.SourceRuntime, Data: doc})}
}

// Layers returns the sanitized patches for id, lowest precedence first.
// Sources without an entry for id contribute nothing.
func (s Snapshot) Layers(id string) []subagent.Layer {
	var layers []subagent.Layer
	for _, doc := range s.docs {
		raw := subagent.Member(doc.Data, id)
		if !raw.Exists() {
			continue
		}
		patch := subagent.Sanitize(raw)
		if patch.IsEmpty() {
			slog.Debug("Subagent entry has no valid fields", "id", id, "source", doc.Source)
		}
		layers = append(layers, subagent.Layer{
			Source: doc.Source,
			Patch:  patch,
		})
	}
	return layers
}

// ContributedTo returns the sources that have an entry for id.
func (s Snapshot) ContributedTo(id string) []subagent.Source {
	var sources []subagent.Source
	for _, doc := range s.docs {
		if subagent.Member(doc.Data, id).Exists() {
			sources = append(sources, doc.Source)
		}
	}
	return sources
}

// IDs returns every subagent id named by a document or the built-in
// registry, sorted.
func (s Snapshot) IDs() []string {
	seen := make(map[string]bool)
	for _, id := range prompt.IDs() {
		seen[id] = true
	}
	for _, doc := range s.docs {
		doc.Data.ForEach(func(key, _ gjson.Result) bool {
			seen[key.String()] = true
			return true
		})
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Report returns the loaded-from report for the file-backed sources and the
// runtime settings.
func (s *Sources) Report() []ReportEntry {
	report := slices.Clone(s.report)
	if s.settings == nil {
		return report
	}
	entry := ReportEntry{Source: subagent.SourceRuntime, Loaded: true}
	if _, err := parseDocument(s.settings.Snapshot()); err != nil {
		entry.Loaded = false
		entry.Err = err
	}
	return append(report, entry)
}
