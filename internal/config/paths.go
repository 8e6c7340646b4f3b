// Package config loads the documents subagent profiles are resolved from:
// packaged defaults, the global and project configuration files, and the
// in-process runtime settings.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

const (
	appName = "crush"

	// GlobalConfigEnv overrides the global configuration directory.
	GlobalConfigEnv = "CRUSH_GLOBAL_CONFIG"

	// ProjectDirName is the project-level configuration directory.
	ProjectDirName = ".crush"
)

// FileNames are the accepted document names, in lookup order.
var FileNames = []string{"subagents.json", "subagents.jsonc"}

// GlobalDir returns the global configuration directory: $CRUSH_GLOBAL_CONFIG,
// else $XDG_CONFIG_HOME/crush, else the platform default.
func GlobalDir() string {
	if dir := os.Getenv(GlobalConfigEnv); dir != "" {
		return dir
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	if runtime.GOOS == "windows" {
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			localAppData = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Local")
		}
		return filepath.Join(localAppData, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName)
}

// ProjectDir returns the project configuration directory for workDir.
func ProjectDir(workDir string) string {
	if workDir == "" {
		return ""
	}
	return filepath.Join(workDir, ProjectDirName)
}

// findFile returns the first existing document in dir.
func findFile(dir string) (string, bool) {
	if dir == "" {
		return "", false
	}
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}
