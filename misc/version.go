// Package misc keeps small helpers shared by everything else - mostly build
// identification used in logs and file names.
package misc

import "runtime/debug"

const appName = "wxr2pdf"

// set by the linker during release builds
var (
	version = "development"
	gitHash = ""
)

func GetAppName() string {
	return appName
}

func GetVersion() string {
	return version
}

func GetGitHash() string {
	if len(gitHash) > 0 {
		return gitHash
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" {
				return s.Value
			}
		}
	}
	return "unknown"
}
