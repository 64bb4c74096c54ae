package version

import (
	"runtime/debug"
	"strings"
	"sync"
)

// SemVer is set at build time for releases.
//
// Example:
//
//	-ldflags "-X todod/internals/version.SemVer=1.2.3"
var SemVer = "0.1.0-dev"

var (
	once sync.Once
	full string
)

// Version returns the semantic version plus the vcs revision when the
// binary carries build metadata, e.g. "0.1.0-dev+a1b2c3d4e5f6" or
// "0.1.0-dev+a1b2c3d4e5f6.dirty".
func Version() string {
	once.Do(func() {
		full = compute()
	})
	return full
}

func compute() string {
	v := strings.TrimSpace(SemVer)
	if v == "" {
		v = "0.0.0-dev"
	}

	rev, dirty := vcsInfo()
	if rev == "" {
		return v
	}
	meta := rev
	if dirty {
		meta += ".dirty"
	}
	if strings.Contains(v, "+") {
		return v + "." + meta
	}
	return v + "+" + meta
}

func vcsInfo() (rev string, dirty bool) {
	info, ok := debug.ReadBuildInfo()
	if !ok || info == nil {
		return "", false
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = strings.TrimSpace(s.Value)
		case "vcs.modified":
			dirty = strings.TrimSpace(s.Value) == "true"
		}
	}
	if len(rev) > 12 {
		rev = rev[:12]
	}
	return rev, dirty
}
