package subagent

import (
	"cmp"
	"maps"
	"slices"
)

// SourceVariants is the variant map declared by a single source.
type SourceVariants struct {
	Source   Source
	Variants *Variants
}

// Consolidated is the merged base profile together with each source's
// variant map, kept separate so variant selection can honor source
// precedence.
type Consolidated struct {
	Base Profile
	// Variants is ordered from highest precedence to lowest.
	Variants []SourceVariants
}

// Merge combines layers into a consolidated profile. Higher-precedence
// sources override lower ones field by field; permissions accumulate by key.
// Layers may be passed in any order; they are applied by Source.
func Merge(layers []Layer) Consolidated {
	ordered := slices.Clone(layers)
	slices.SortStableFunc(ordered, func(a, b Layer) int {
		return cmp.Compare(a.Source, b.Source)
	})

	var c Consolidated
	for _, layer := range ordered {
		c.Base = mergeFields(c.Base, layer.Patch.Profile)
		if layer.Patch.Variants != nil && layer.Patch.Variants.Len() > 0 {
			c.Variants = append(c.Variants, SourceVariants{
				Source:   layer.Source,
				Variants: layer.Patch.Variants,
			})
		}
	}
	slices.Reverse(c.Variants)

	return c
}

// mergeFields applies patch over base without inherit semantics.
func mergeFields(base, patch Profile) Profile {
	merged := base.Clone()
	if patch.Model != "" {
		merged.Model = patch.Model
	}
	if patch.Prompt != "" {
		merged.Prompt = patch.Prompt
	}
	if patch.Description != "" {
		merged.Description = patch.Description
	}
	if len(patch.WhenToUse) > 0 {
		merged.WhenToUse = slices.Clone(patch.WhenToUse)
	}
	if len(patch.Permissions) > 0 {
		if merged.Permissions == nil {
			merged.Permissions = make(Permissions, len(patch.Permissions))
		}
		maps.Copy(merged.Permissions, patch.Permissions)
	}
	return merged
}

// Overlay applies a variant over the profile. Scalars and whenToUse are
// replaced when the variant sets them. A permission set to inherit keeps the
// profile's value for that action, leaving it absent if the profile has none.
func (p Profile) Overlay(variant Profile) Profile {
	merged := p.Clone()
	if variant.Model != "" {
		merged.Model = variant.Model
	}
	if variant.Prompt != "" {
		merged.Prompt = variant.Prompt
	}
	if variant.Description != "" {
		merged.Description = variant.Description
	}
	if len(variant.WhenToUse) > 0 {
		merged.WhenToUse = slices.Clone(variant.WhenToUse)
	}
	for action, perm := range variant.Permissions {
		if perm == PermissionInherit {
			continue
		}
		if merged.Permissions == nil {
			merged.Permissions = make(Permissions)
		}
		merged.Permissions[action] = perm
	}
	return merged
}
