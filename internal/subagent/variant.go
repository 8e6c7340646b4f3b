package subagent

import (
	"log/slog"
	"strings"
)

// Resolution is the outcome of variant selection.
type Resolution struct {
	Profile Profile
	// VariantPattern is the matched pattern; empty when nothing matched.
	VariantPattern string
	// VariantSource is the source that declared VariantPattern. Only
	// meaningful when Matched is true.
	VariantSource Source
	Matched       bool
}

// ResolveVariant selects at most one variant for modelPattern and overlays
// it on the base profile. Sources are scanned from highest precedence to
// lowest and, within a source, patterns in declaration order. The first
// source with a match decides; lower sources are not consulted.
//
// An empty modelPattern returns the base profile unchanged.
func ResolveVariant(c Consolidated, modelPattern string) Resolution {
	base := c.Base.Clone()
	modelPattern = strings.TrimSpace(modelPattern)
	if modelPattern == "" {
		return Resolution{Profile: base}
	}

	for _, sv := range c.Variants {
		pattern, variant, ok := firstMatch(sv.Variants, modelPattern)
		if !ok {
			continue
		}
		slog.Debug("Selected subagent variant", "pattern", pattern, "source", sv.Source, "model", modelPattern)
		return Resolution{
			Profile:        base.Overlay(variant),
			VariantPattern: pattern,
			VariantSource:  sv.Source,
			Matched:        true,
		}
	}

	return Resolution{Profile: base}
}

// firstMatch returns the first declared pattern in variants matching
// candidate.
func firstMatch(variants *Variants, candidate string) (string, Profile, bool) {
	if variants == nil {
		return "", Profile{}, false
	}
	for pair := variants.Oldest(); pair != nil; pair = pair.Next() {
		if CompilePattern(pair.Key)(candidate) {
			return pair.Key, pair.Value, true
		}
	}
	return "", Profile{}, false
}
