// Package resolver turns the configured documents into the final profile of
// a subagent: sanitize, merge, select a model variant, then fall back to the
// packaged prompt when none is configured.
package resolver

import (
	"context"
	"log/slog"
	"strings"

	"github.com/aleksclark/crush-subagents/internal/config"
	"github.com/aleksclark/crush-subagents/internal/prompt"
	"github.com/aleksclark/crush-subagents/internal/subagent"
	"github.com/aleksclark/crush-subagents/internal/tracing"
	"golang.org/x/sync/errgroup"
)

// PromptSource tells where the resolved prompt came from.
type PromptSource string

const (
	// PromptNone means no prompt was configured or found.
	PromptNone PromptSource = ""
	// PromptConfigured means a source or variant set the prompt.
	PromptConfigured PromptSource = "configured"
	// PromptBuiltIn means the packaged prompt of a built-in subagent is used.
	PromptBuiltIn PromptSource = "builtin"
)

// maxConcurrency bounds ResolveAll.
const maxConcurrency = 8

// Result is the resolved profile of one subagent.
type Result struct {
	ID             string            `json:"id" yaml:"id"`
	Profile        subagent.Profile  `json:"profile" yaml:"profile"`
	VariantPattern string            `json:"variantPattern,omitempty" yaml:"variantPattern,omitempty"`
	VariantSource  *subagent.Source  `json:"variantSource,omitempty" yaml:"variantSource,omitempty"`
	PromptSource   PromptSource      `json:"promptSource,omitempty" yaml:"promptSource,omitempty"`
	Sources        []subagent.Source `json:"sources" yaml:"sources"`
	Fingerprint    string            `json:"fingerprint" yaml:"fingerprint"`
}

// Resolver resolves subagent profiles from a set of sources.
type Resolver struct {
	sources   *config.Sources
	moduleDir string
}

// New creates a resolver. moduleDir is the location the packaged prompts
// directory is searched from; see prompt.FindDir.
func New(sources *config.Sources, moduleDir string) *Resolver {
	return &Resolver{
		sources:   sources,
		moduleDir: moduleDir,
	}
}

// Resolve returns the profile of id for modelPattern. An empty modelPattern
// skips variant selection. Resolution has no failure mode: invalid input
// degrades to fewer fields.
func (r *Resolver) Resolve(ctx context.Context, id, modelPattern string) Result {
	modelPattern = strings.TrimSpace(modelPattern)
	span := tracing.StartResolve(ctx, id, modelPattern)
	defer span.End()

	return r.resolve(span, r.sources.Snapshot(span.Context()), id, modelPattern)
}

// ResolveAll resolves every id concurrently against the same snapshot of the
// sources. Results are in the order of ids. The only error is cancellation
// of ctx.
func (r *Resolver) ResolveAll(ctx context.Context, ids []string, modelPattern string) ([]Result, error) {
	modelPattern = strings.TrimSpace(modelPattern)
	snapshot := r.sources.Snapshot(ctx)
	results := make([]Result, len(ids))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			span := tracing.StartResolve(ctx, id, modelPattern)
			defer span.End()
			results[i] = r.resolve(span, snapshot, id, modelPattern)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// resolve runs the pipeline for id against snapshot, recording the outcome
// on span.
func (r *Resolver) resolve(span *tracing.ResolveSpan, snapshot config.Snapshot, id, modelPattern string) Result {
	layers := snapshot.Layers(id)
	resolution := subagent.ResolveVariant(subagent.Merge(layers), modelPattern)

	result := Result{
		ID:      id,
		Profile: resolution.Profile,
		Sources: make([]subagent.Source, 0, len(layers)),
	}
	for _, l := range layers {
		result.Sources = append(result.Sources, l.Source)
	}
	if resolution.Matched {
		source := resolution.VariantSource
		result.VariantPattern = resolution.VariantPattern
		result.VariantSource = &source
	}

	switch {
	case result.Profile.Prompt != "":
		result.PromptSource = PromptConfigured
	default:
		if ref, ok := prompt.ResolveBuiltIn(id, modelPattern, r.moduleDir); ok {
			result.Profile.Prompt = ref
			result.PromptSource = PromptBuiltIn
		}
	}

	result.Fingerprint = subagent.Fingerprint(result.Profile, result.VariantPattern)

	sources := make([]string, len(result.Sources))
	for i, s := range result.Sources {
		sources[i] = s.String()
	}
	span.SetResult(result.VariantPattern, string(result.PromptSource), sources)

	slog.DebugContext(span.Context(), "Resolved subagent profile",
		"id", id,
		"model_pattern", modelPattern,
		"variant", result.VariantPattern,
		"prompt_source", result.PromptSource,
		"sources", sources,
	)
	return result
}
