// Package subagent implements layered subagent profile resolution.
// Profiles are assembled from precedence-ordered JSON patches (packaged
// defaults, global file, project file, runtime setting) and may be
// specialized further by a model-pattern variant.
package subagent

import (
	"maps"
	"slices"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Permission is the policy applied to a single action.
type Permission string

const (
	// PermissionAllow lets the action run without asking.
	PermissionAllow Permission = "allow"
	// PermissionDeny blocks the action.
	PermissionDeny Permission = "deny"
	// PermissionInherit defers to the base profile's value for the action.
	PermissionInherit Permission = "inherit"
)

// IsValid returns true if the permission is a known value.
func (p Permission) IsValid() bool {
	switch p {
	case PermissionAllow, PermissionDeny, PermissionInherit:
		return true
	default:
		return false
	}
}

// Permissions maps action names (bash, edit, write, ...) to a policy.
type Permissions map[string]Permission

// Profile is the set of fields a subagent can configure. The same shape is
// used for variant patches and for the resolved profile.
//
// The zero value of a field means the field is absent: Sanitize never
// produces empty strings, slices or maps.
type Profile struct {
	Model       string      `json:"model,omitempty" yaml:"model,omitempty" jsonschema:"description=Model as provider/model with an optional :effort suffix,pattern=^[^/\\s]+/[^:\\s]+(:\\S+)?$,example=openai/gpt-5:high"`
	Prompt      string      `json:"prompt,omitempty" yaml:"prompt,omitempty" jsonschema:"description=Prompt text or a {file:<path>} reference"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty" jsonschema:"description=Short description of the subagent"`
	WhenToUse   []string    `json:"whenToUse,omitempty" yaml:"whenToUse,omitempty" jsonschema:"description=Ordered hints on when to delegate to the subagent"`
	Permissions Permissions `json:"permissions,omitempty" yaml:"permissions,omitempty" jsonschema:"description=Policy per action name"`
}

// IsEmpty reports whether no field is set.
func (p Profile) IsEmpty() bool {
	return p.Model == "" && p.Prompt == "" && p.Description == "" &&
		len(p.WhenToUse) == 0 && len(p.Permissions) == 0
}

// Clone creates a deep copy of the profile.
func (p Profile) Clone() Profile {
	clone := p
	if p.WhenToUse != nil {
		clone.WhenToUse = slices.Clone(p.WhenToUse)
	}
	if p.Permissions != nil {
		clone.Permissions = maps.Clone(p.Permissions)
	}
	return clone
}

// Variants is an insertion-ordered mapping of wildcard pattern to variant
// patch. Declaration order decides which pattern is tried first.
type Variants = orderedmap.OrderedMap[string, Profile]

// NewVariants returns an empty variant map.
func NewVariants() *Variants {
	return orderedmap.New[string, Profile]()
}

// Patch is a sanitized, partial profile contributed by one source.
type Patch struct {
	Profile  `yaml:",inline"`
	Variants *Variants `json:"variants,omitempty" yaml:"-"`
}

// IsEmpty reports whether the patch sets no field and declares no variant.
func (p Patch) IsEmpty() bool {
	return p.Profile.IsEmpty() && (p.Variants == nil || p.Variants.Len() == 0)
}

// Source identifies where a patch came from. Sources are totally ordered by
// increasing precedence.
type Source int

const (
	// SourceDefaults is the packaged defaults document.
	SourceDefaults Source = iota
	// SourceGlobal is the user-level configuration file.
	SourceGlobal
	// SourceProject is the project-level configuration file.
	SourceProject
	// SourceRuntime is the in-process settings override.
	SourceRuntime
)

func (s Source) String() string {
	switch s {
	case SourceDefaults:
		return "defaults"
	case SourceGlobal:
		return "global-file"
	case SourceProject:
		return "project-file"
	case SourceRuntime:
		return "runtime-setting"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Source) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Layer is one source's patch for a subagent.
type Layer struct {
	Source Source
	Patch  Patch
}
