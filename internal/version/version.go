package version

import "runtime/debug"

// Set through -ldflags at release time.
var (
	Version = "1.0.0"
	Commit  = ""
)

// Resolve returns the release version, suffixed with the VCS revision when
// the binary was not built from a release with an injected commit.
func Resolve() string {
	return resolveVersion(Version, Commit, debug.ReadBuildInfo)
}

func resolveVersion(base, commit string, buildInfo func() (*debug.BuildInfo, bool)) string {
	if base == "" {
		base = "0.0.0"
	}
	if commit != "" {
		return base
	}

	info, ok := buildInfo()
	if !ok || info == nil {
		return base
	}

	var revision string
	var dirty bool
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			dirty = setting.Value == "true"
		}
	}

	if revision == "" {
		return base
	}
	if len(revision) > 7 {
		revision = revision[:7]
	}

	resolved := base + "-g" + revision
	if dirty {
		resolved += "-dirty"
	}
	return resolved
}
