// Package misc provides program identification helpers.
package misc

import (
	"runtime/debug"
	"strings"
)

const appName = "cssmap"

var version = "development"

// GetAppName returns short program name used for logging and temporary files.
func GetAppName() string {
	return appName
}

// GetVersion returns program version. When built from a module it is taken
// from build info, otherwise linker supplied value is used.
func GetVersion() string {
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		return bi.Main.Version
	}
	return version
}

// GetGitHash returns VCS revision recorded in build info, shortened to 12
// characters, or empty string when not available.
func GetGitHash() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range bi.Settings {
		if s.Key == "vcs.revision" {
			if len(s.Value) > 12 {
				return s.Value[:12]
			}
			return s.Value
		}
	}
	return ""
}

// GetUserAgent returns user agent string for outgoing HTTP requests.
func GetUserAgent() string {
	var sb strings.Builder
	sb.WriteString(appName)
	sb.WriteString("/")
	sb.WriteString(GetVersion())
	return sb.String()
}
