// Package version holds build metadata for the vlist binary.
package version

import (
	"fmt"
	"runtime/debug"
)

// Build metadata, overridden at link time:
//
//	go build -ldflags "-X github.com/Sumatoshi-tech/virtualizer/pkg/version.Version=v1.2.0"
var (
	Version = "dev"
	Commit  = "<unknown>"
	Date    = "<unknown>"
)

// Info is the resolved build metadata.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
}

// Get returns the build metadata. Fields left at their defaults are filled
// from the module build info when the binary was built with module support.
func Get() Info {
	info := Info{Version: Version, Commit: Commit, Date: Date}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}

	info.GoVersion = bi.GoVersion

	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}

	for _, s := range bi.Settings {
		switch {
		case s.Key == "vcs.revision" && info.Commit == "<unknown>":
			info.Commit = s.Value
		case s.Key == "vcs.time" && info.Date == "<unknown>":
			info.Date = s.Value
		}
	}

	return info
}

// String formats the metadata on one line.
func (i Info) String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", i.Version, i.Commit, i.Date)
}
