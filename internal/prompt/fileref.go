package prompt

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	fileRefPrefix = "{file:"
	fileRefSuffix = "}"
)

// FileRef returns the marker that tells callers to read the prompt from path.
func FileRef(path string) string {
	return fileRefPrefix + path + fileRefSuffix
}

// ParseFileRef extracts the path from a {file:<path>} marker.
func ParseFileRef(s string) (string, bool) {
	if !strings.HasPrefix(s, fileRefPrefix) || !strings.HasSuffix(s, fileRefSuffix) {
		return "", false
	}
	path := strings.TrimSuffix(strings.TrimPrefix(s, fileRefPrefix), fileRefSuffix)
	if path == "" {
		return "", false
	}
	return path, true
}

// Expand returns the prompt text behind value. Literal prompts are returned
// unchanged. For file references, "~/" is expanded to the home directory and
// relative paths are joined to baseDir.
func Expand(value, baseDir string) (string, error) {
	path, ok := ParseFileRef(value)
	if !ok {
		return value, nil
	}

	switch {
	case strings.HasPrefix(path, "~/"):
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expanding home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	case !filepath.IsAbs(path):
		path = filepath.Join(baseDir, path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading prompt file: %w", err)
	}
	return strings.TrimSpace(string(content)), nil
}
