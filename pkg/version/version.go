// Package version reports the build revision of the companion binary.
//
// Resolution order: -ldflags override, then VCS info from debug.BuildInfo,
// then "dev".
package version

import "runtime/debug"

// AppName prefixes version strings and outbound user agents.
const AppName = "fitz-companion"

// revisionOverride is set with -ldflags "-X .../pkg/version.revisionOverride=<sha>"
// for container builds that have no .git directory.
var revisionOverride string

// GitCommit is the short (8 char) revision, or "dev".
var GitCommit = resolveRevision(revisionOverride, readBuildRevision())

func readBuildRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" {
			return s.Value
		}
	}
	return ""
}

func resolveRevision(override, vcs string) string {
	rev := override
	if rev == "" {
		rev = vcs
	}
	if rev == "" {
		return "dev"
	}
	if len(rev) > 8 {
		return rev[:8]
	}
	return rev
}

// Full returns "fitz-companion/<commit>".
func Full() string {
	return AppName + "/" + GitCommit
}
