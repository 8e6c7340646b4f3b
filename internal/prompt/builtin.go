// Package prompt locates the packaged default prompts of built-in subagents.
//
// Prompts ship as Markdown files in a prompts directory next to the binary
// in packaged builds, or under runtime/backend/prompts in a source checkout.
package prompt

import (
	"slices"

	"github.com/aleksclark/crush-subagents/internal/subagent"
)

// SampleFile must exist in a directory for it to be accepted as the prompts
// directory.
const SampleFile = "general.md"

// Variant maps a model pattern to a prompt filename.
type Variant struct {
	Pattern string
	File    string
}

// BuiltIn describes a built-in subagent's packaged prompts.
type BuiltIn struct {
	ID          string
	DefaultFile string
	// Variants are tried in order; the first match wins.
	Variants []Variant
}

var builtIns = []BuiltIn{
	{
		ID:          "general",
		DefaultFile: "general.md",
		Variants: []Variant{
			{Pattern: "*gpt*", File: "general.gpt.md"},
			{Pattern: "*gemini*", File: "general.gemini.md"},
		},
	},
	{
		ID:          "explore",
		DefaultFile: "explore.md",
		Variants: []Variant{
			{Pattern: "*gpt*", File: "explore.gpt.md"},
			{Pattern: "anthropic/*", File: "explore.claude.md"},
		},
	},
	{
		ID:          "review",
		DefaultFile: "review.md",
		Variants: []Variant{
			{Pattern: "*gpt-5*", File: "review.gpt-5.md"},
		},
	},
	{
		ID:          "plan",
		DefaultFile: "plan.md",
	},
}

// BuiltIns returns the built-in subagents.
func BuiltIns() []BuiltIn {
	out := make([]BuiltIn, len(builtIns))
	for i, b := range builtIns {
		b.Variants = slices.Clone(b.Variants)
		out[i] = b
	}
	return out
}

// IDs returns the ids of the built-in subagents.
func IDs() []string {
	ids := make([]string, len(builtIns))
	for i, b := range builtIns {
		ids[i] = b.ID
	}
	return ids
}

// Lookup returns the built-in subagent with the given id.
func Lookup(id string) (BuiltIn, bool) {
	for _, b := range builtIns {
		if b.ID == id {
			b.Variants = slices.Clone(b.Variants)
			return b, true
		}
	}
	return BuiltIn{}, false
}

// FileFor returns the prompt filename to try first for modelPattern: the
// first declared matching variant, or the default file.
func (b BuiltIn) FileFor(modelPattern string) string {
	if modelPattern == "" {
		return b.DefaultFile
	}
	for _, v := range b.Variants {
		if subagent.MatchPattern(v.Pattern, modelPattern) {
			return v.File
		}
	}
	return b.DefaultFile
}
