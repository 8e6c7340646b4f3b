package prompt

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const (
	// PackagedDir is the prompts directory next to the binary.
	PackagedDir = "prompts"
	// SourceDir is the prompts directory in a source checkout with a src root.
	SourceDir = "src/runtime/backend/prompts"
	// RuntimeDir is the prompts directory in a source checkout.
	RuntimeDir = "runtime/backend/prompts"
)

// ModuleDir returns the directory of the running executable, with symlinks
// resolved. It returns the working directory if the executable cannot be
// located.
func ModuleDir() string {
	exe, err := os.Executable()
	if err != nil {
		slog.Debug("Failed to locate executable", "error", err)
		wd, _ := os.Getwd()
		return wd
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe)
}

// FindDir locates the prompts directory for moduleDir. It probes
// <moduleDir>/prompts, then walks up to the filesystem root probing
// src/runtime/backend/prompts and runtime/backend/prompts at each level.
func FindDir(moduleDir string) (string, bool) {
	if moduleDir == "" {
		return "", false
	}
	dir, err := filepath.Abs(moduleDir)
	if err != nil {
		return "", false
	}

	if candidate := filepath.Join(dir, PackagedDir); isPromptDir(candidate) {
		return candidate, true
	}

	for {
		for _, rel := range []string{SourceDir, RuntimeDir} {
			candidate := filepath.Join(dir, filepath.FromSlash(rel))
			if isPromptDir(candidate) {
				return candidate, true
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	slog.Debug("No prompts directory found", "module_dir", moduleDir)
	return "", false
}

// isPromptDir reports whether dir is a directory containing SampleFile.
func isPromptDir(dir string) bool {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return false
	}
	return isFile(filepath.Join(dir, SampleFile))
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// ResolveBuiltIn returns a file reference to the packaged prompt of a
// built-in subagent. A model-specific variant is preferred, then the default
// file. It returns false for unknown ids and when no prompt file is found.
func ResolveBuiltIn(id, modelPattern, moduleDir string) (string, bool) {
	b, ok := Lookup(id)
	if !ok {
		return "", false
	}

	dir, ok := FindDir(moduleDir)
	if !ok {
		return "", false
	}

	candidates := []string{b.FileFor(strings.TrimSpace(modelPattern))}
	if candidates[0] != b.DefaultFile {
		candidates = append(candidates, b.DefaultFile)
	}
	for _, name := range candidates {
		path := filepath.Join(dir, name)
		if isFile(path) {
			slog.Debug("Resolved built-in prompt", "id", id, "path", path)
			return FileRef(path), true
		}
	}

	return "", false
}
