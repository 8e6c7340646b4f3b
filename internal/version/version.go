package version

import "runtime/debug"

// Build-time parameters set via -ldflags

var Version = "devel"

// A user may install crush-subagents using `go install`. In that case the
// version is taken from the module information.
func init() {
	if Version != "devel" {
		return
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	if mainVersion := info.Main.Version; mainVersion != "" && mainVersion != "(devel)" {
		Version = mainVersion
	}
}
