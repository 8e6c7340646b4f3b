package subagent

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// modelPattern validates model identifiers: provider/model with an optional
// :effort suffix. Provider and model segments must be non-empty.
var modelPattern = regexp.MustCompile(`^[^/\s]+/[^:\s]+(:\S+)?$`)

// SanitizeJSON parses data and sanitizes it as a subagent patch. Invalid JSON
// yields an empty patch.
func SanitizeJSON(data []byte) Patch {
	if !gjson.ValidBytes(data) {
		return Patch{}
	}
	return Sanitize(gjson.ParseBytes(data))
}

// Sanitize turns a raw JSON value into a validated patch. It never fails:
// invalid fields are dropped and a non-object value yields an empty patch.
func Sanitize(raw gjson.Result) Patch {
	if !raw.IsObject() {
		return Patch{}
	}

	patch := Patch{Profile: sanitizeProfile(raw)}

	variants := Member(raw, "variants")
	if !variants.IsObject() {
		if variants.Exists() {
			slog.Debug("Dropping subagent field", "field", "variants", "reason", "not an object")
		}
		return patch
	}

	patch.Variants = NewVariants()
	variants.ForEach(func(key, value gjson.Result) bool {
		pattern := strings.TrimSpace(key.String())
		if pattern == "" {
			slog.Debug("Dropping variant with empty pattern")
			return true
		}
		// Nested variants are ignored: variants are one level deep.
		var variant Profile
		if value.IsObject() {
			variant = sanitizeProfile(value)
		}
		patch.Variants.Set(pattern, variant)
		return true
	})
	if patch.Variants.Len() == 0 {
		patch.Variants = nil
	}

	return patch
}

// Member returns the value of key in the JSON object obj. Keys are matched
// literally, without path syntax, and the last occurrence of a duplicated
// key wins.
func Member(obj gjson.Result, key string) gjson.Result {
	var member gjson.Result
	obj.ForEach(func(k, v gjson.Result) bool {
		if k.String() == key {
			member = v
		}
		return true
	})
	return member
}

// sanitizeProfile extracts the profile fields shared by patches and variants.
func sanitizeProfile(raw gjson.Result) Profile {
	var p Profile
	raw.ForEach(func(key, value gjson.Result) bool {
		switch key.String() {
		case "model":
			p.Model = sanitizeModel(value)
		case "prompt":
			p.Prompt = sanitizeText(value)
		case "description":
			p.Description = sanitizeText(value)
		case "whenToUse":
			p.WhenToUse = sanitizeWhenToUse(value)
		case "permissions":
			p.Permissions = sanitizePermissions(value)
		}
		return true
	})
	return p
}

func sanitizeModel(value gjson.Result) string {
	if value.Type != gjson.String {
		return ""
	}
	model := strings.TrimSpace(value.Str)
	if !modelPattern.MatchString(model) {
		slog.Debug("Dropping subagent field", "field", "model", "value", value.Str)
		return ""
	}
	return strings.ToLower(model)
}

func sanitizeText(value gjson.Result) string {
	if value.Type != gjson.String {
		return ""
	}
	return strings.TrimSpace(value.Str)
}

func sanitizeWhenToUse(value gjson.Result) []string {
	if !value.IsArray() {
		return nil
	}
	var hints []string
	for _, item := range value.Array() {
		if hint := sanitizeText(item); hint != "" {
			hints = append(hints, hint)
		}
	}
	return hints
}

func sanitizePermissions(value gjson.Result) Permissions {
	if !value.IsObject() {
		return nil
	}
	perms := make(Permissions)
	value.ForEach(func(key, value gjson.Result) bool {
		action := strings.ToLower(strings.TrimSpace(key.String()))
		if action == "" || value.Type != gjson.String {
			return true
		}
		perm := Permission(value.Str)
		if !perm.IsValid() {
			slog.Debug("Dropping permission", "action", action, "value", value.Str)
			return true
		}
		perms[action] = perm
		return true
	})
	if len(perms) == 0 {
		return nil
	}
	return perms
}
