package version

import "runtime/debug"

// Build-time parameters set via -ldflags

var Version = "devel"

func init() {
	if info, ok := debug.ReadBuildInfo(); ok && Version == "devel" {
		mainVersion := info.Main.Version
		if mainVersion != "" && mainVersion != "(devel)" {
			Version = mainVersion
		}
	}
}
