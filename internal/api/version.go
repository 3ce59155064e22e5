package api

import "github.com/MJE43/redsettings-go/internal/engine"

// Version information; GitCommit and BuildTime are set at build time via ldflags.
var (
	EngineVersion = engine.Version
	GitCommit     = "unknown"
	BuildTime     = "unknown"
)

// GetVersionInfo returns the current version information
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		EngineVersion: EngineVersion,
		GitCommit:     GitCommit,
		BuildTime:     BuildTime,
	}
}
