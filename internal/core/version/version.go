// Package version reports what build of a pimms binary is running
package version

import "runtime/debug"

// BuildInfo is served by /meta/version and printed by pimmsctl version
type BuildInfo struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// set with -ldflags "-X pimms/internal/core/version.version=v0.3.0 -X ...commit=abc1234 -X ...date=2026-10-01"
var (
	version = "dev"
	commit  = ""
	date    = "unknown"
)

// Info describes the named binary, pimms-api when service is empty
// without a linked commit the vcs revision stamped by go build is used
func Info(service string) BuildInfo {
	if service == "" {
		service = "pimms-api"
	}
	return BuildInfo{Service: service, Version: version, Commit: shortCommit(), Date: date}
}

func shortCommit() string {
	if commit != "" {
		return commit
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" && len(s.Value) >= 7 {
				return s.Value[:7]
			}
		}
	}
	return "none"
}
