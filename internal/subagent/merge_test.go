package subagent

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func layer(source Source, doc string) Layer {
	return Layer{Source: source, Patch: SanitizeJSON([]byte(doc))}
}

func TestMerge(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		layers []Layer
		check  func(t *testing.T, c Consolidated)
	}{
		{
			name: "higher source replaces scalars",
			layers: []Layer{
				layer(SourceDefaults, `{"model": "openai/gpt-4o", "description": "default", "prompt": "base"}`),
				layer(SourceProject, `{"model": "anthropic/claude-sonnet-4"}`),
			},
			check: func(t *testing.T, c Consolidated) {
				require.Equal(t, "anthropic/claude-sonnet-4", c.Base.Model)
				require.Equal(t, "default", c.Base.Description)
				require.Equal(t, "base", c.Base.Prompt)
			},
		},
		{
			name: "absent field never overwrites",
			layers: []Layer{
				layer(SourceGlobal, `{"description": "global"}`),
				layer(SourceProject, `{"description": "   ", "model": "nope"}`),
			},
			check: func(t *testing.T, c Consolidated) {
				require.Equal(t, "global", c.Base.Description)
				require.Empty(t, c.Base.Model)
			},
		},
		{
			name: "whenToUse is replaced wholesale",
			layers: []Layer{
				layer(SourceDefaults, `{"whenToUse": ["a", "b"]}`),
				layer(SourceGlobal, `{"whenToUse": ["c"]}`),
				layer(SourceProject, `{"whenToUse": []}`),
			},
			check: func(t *testing.T, c Consolidated) {
				require.Equal(t, []string{"c"}, c.Base.WhenToUse)
			},
		},
		{
			name: "permissions accumulate by key",
			layers: []Layer{
				layer(SourceDefaults, `{"permissions": {"bash": "deny", "edit": "allow"}}`),
				layer(SourceGlobal, `{"permissions": {"bash": "allow", "write": "inherit"}}`),
				layer(SourceProject, `{"permissions": {"webfetch": "deny"}}`),
			},
			check: func(t *testing.T, c Consolidated) {
				require.Equal(t, Permissions{
					"bash":     PermissionAllow,
					"edit":     PermissionAllow,
					"write":    PermissionInherit,
					"webfetch": PermissionDeny,
				}, c.Base.Permissions)
			},
		},
		{
			name: "variants kept per source highest first",
			layers: []Layer{
				layer(SourceDefaults, `{"variants": {"*": {}}}`),
				layer(SourceGlobal, `{"variants": {"*gpt*": {}}}`),
				layer(SourceProject, `{"model": "openai/gpt-5"}`),
				layer(SourceRuntime, `{"variants": {"openai/*": {}}}`),
			},
			check: func(t *testing.T, c Consolidated) {
				require.Len(t, c.Variants, 3)
				require.Equal(t, SourceRuntime, c.Variants[0].Source)
				require.Equal(t, SourceGlobal, c.Variants[1].Source)
				require.Equal(t, SourceDefaults, c.Variants[2].Source)
				_, ok := c.Variants[1].Variants.Get("*gpt*")
				require.True(t, ok)
			},
		},
		{
			name: "layer order does not matter",
			layers: []Layer{
				layer(SourceRuntime, `{"model": "openai/o3"}`),
				layer(SourceDefaults, `{"model": "openai/gpt-4o"}`),
				layer(SourceProject, `{"model": "anthropic/claude-opus-4"}`),
			},
			check: func(t *testing.T, c Consolidated) {
				require.Equal(t, "openai/o3", c.Base.Model)
			},
		},
		{
			name:   "no layers yields empty profile",
			layers: nil,
			check: func(t *testing.T, c Consolidated) {
				require.True(t, c.Base.IsEmpty())
				require.Empty(t, c.Variants)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tt.check(t, Merge(tt.layers))
		})
	}
}

// The runtime setting is assumed to be the highest precedence source, above
// the packaged defaults and both files.
func TestMergeRuntimeSettingWins(t *testing.T) {
	t.Parallel()

	c := Merge([]Layer{
		layer(SourceDefaults, `{"model": "openai/gpt-4o", "permissions": {"bash": "deny"}}`),
		layer(SourceProject, `{"model": "anthropic/claude-sonnet-4"}`),
		layer(SourceRuntime, `{"model": "openai/gpt-5:high", "permissions": {"bash": "allow"}}`),
	})
	require.Equal(t, "openai/gpt-5:high", c.Base.Model)
	require.Equal(t, PermissionAllow, c.Base.Permissions["bash"])
}

func TestMergeDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	defaults := layer(SourceDefaults, `{"whenToUse": ["a"], "permissions": {"bash": "deny"}}`)
	project := layer(SourceProject, `{"permissions": {"bash": "allow"}}`)

	c := Merge([]Layer{defaults, project})
	c.Base.Permissions["edit"] = PermissionAllow
	c.Base.WhenToUse[0] = "changed"

	require.Equal(t, Permissions{"bash": PermissionDeny}, defaults.Patch.Permissions)
	require.Equal(t, Permissions{"bash": PermissionAllow}, project.Patch.Permissions)
	require.Equal(t, []string{"a"}, defaults.Patch.WhenToUse)
}

func TestOverlay(t *testing.T) {
	t.Parallel()

	t.Run("inherit keeps base permission", func(t *testing.T) {
		t.Parallel()

		base := Profile{Permissions: Permissions{"bash": PermissionAllow, "edit": PermissionDeny}}
		variant := Profile{Permissions: Permissions{"edit": PermissionInherit, "apply_patch": PermissionDeny}}

		merged := base.Overlay(variant)
		require.Equal(t, Permissions{
			"bash":        PermissionAllow,
			"edit":        PermissionDeny,
			"apply_patch": PermissionDeny,
		}, merged.Permissions)
	})

	t.Run("inherit without base entry stays absent", func(t *testing.T) {
		t.Parallel()

		base := Profile{Permissions: Permissions{"bash": PermissionAllow}}
		variant := Profile{Permissions: Permissions{"write": PermissionInherit}}

		merged := base.Overlay(variant)
		require.Equal(t, Permissions{"bash": PermissionAllow}, merged.Permissions)
		require.NotContains(t, merged.Permissions, "write")
	})

	t.Run("inherit only on empty base leaves permissions absent", func(t *testing.T) {
		t.Parallel()

		merged := Profile{}.Overlay(Profile{Permissions: Permissions{"edit": PermissionInherit}})
		require.Nil(t, merged.Permissions)
	})

	t.Run("allow and deny overwrite", func(t *testing.T) {
		t.Parallel()

		base := Profile{Permissions: Permissions{"bash": PermissionAllow}}
		merged := base.Overlay(Profile{Permissions: Permissions{"bash": PermissionDeny}})
		require.Equal(t, PermissionDeny, merged.Permissions["bash"])
		require.Equal(t, PermissionAllow, base.Permissions["bash"])
	})

	t.Run("fields replace when present", func(t *testing.T) {
		t.Parallel()

		base := Profile{
			Model:       "openai/gpt-4o",
			Prompt:      "base prompt",
			Description: "base",
			WhenToUse:   []string{"a", "b"},
		}
		merged := base.Overlay(Profile{Prompt: "{file:/p/gpt.md}", WhenToUse: []string{"c"}})
		require.Equal(t, "openai/gpt-4o", merged.Model)
		require.Equal(t, "{file:/p/gpt.md}", merged.Prompt)
		require.Equal(t, "base", merged.Description)
		require.Equal(t, []string{"c"}, merged.WhenToUse)
	})
}
