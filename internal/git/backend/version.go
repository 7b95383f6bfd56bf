package backend

import (
	"fmt"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
)

const engineModule = "github.com/go-git/go-git/v5"

// Minimum engine version. Keep this aligned with the go-git APIs the engine
// relies on (PlainOpenOptions.EnableDotGitCommonDir, storer.ErrStop).
var minEngineVersion = engineVersion{major: 5, minor: 11, patch: 0}

type engineVersion struct {
	major int
	minor int
	patch int
}

func MinVersion() string {
	return minEngineVersion.String()
}

func (v engineVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.major, v.minor, v.patch)
}

func (v engineVersion) less(other engineVersion) bool {
	if v.major != other.major {
		return v.major < other.major
	}
	if v.minor != other.minor {
		return v.minor < other.minor
	}
	return v.patch < other.patch
}

// parseModuleVersion accepts module versions such as "v5.16.4",
// "v5.16.4+incompatible" and pseudo-versions like
// "v5.16.5-0.20250101000000-abcdef123456".
func parseModuleVersion(s string) (engineVersion, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "v")
	if i := strings.IndexAny(s, "-+"); i >= 0 {
		s = s[:i]
	}
	if s == "" {
		return engineVersion{}, false
	}
	parts := strings.Split(s, ".")
	if len(parts) < 2 {
		return engineVersion{}, false
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return engineVersion{}, false
	}
	minor, err := strconv.Atoi(parts[1])
	if err != nil {
		return engineVersion{}, false
	}
	patch := 0
	if len(parts) >= 3 {
		if p, err := strconv.Atoi(parts[2]); err == nil {
			patch = p
		}
	}
	return engineVersion{major: major, minor: minor, patch: patch}, true
}

func validateModuleVersion(s string) error {
	got, ok := parseModuleVersion(s)
	if !ok {
		return fmt.Errorf("unable to parse engine version: %q", s)
	}
	if got.less(minEngineVersion) {
		return fmt.Errorf("engine %s is too old; gitbind requires %s >= %s", got, engineModule, minEngineVersion)
	}
	return nil
}

type versionInfo struct {
	raw string
	err error
}

var (
	versionOnce  sync.Once
	versionCache versionInfo
)

func moduleVersionFromBuildInfo() (string, bool) {
	info, ok := debug.ReadBuildInfo()
	if !ok || info == nil {
		return "", false
	}
	for _, dep := range info.Deps {
		if dep.Path != engineModule {
			continue
		}
		if dep.Replace != nil && dep.Replace.Version != "" {
			return dep.Replace.Version, true
		}
		return dep.Version, true
	}
	return "", false
}

// Version reports the go-git module version linked into the binary. The
// error is set when build information is unavailable or the linked version
// is older than MinVersion.
func Version() (string, error) {
	versionOnce.Do(func() {
		raw, ok := moduleVersionFromBuildInfo()
		if !ok {
			versionCache.err = fmt.Errorf("%s not found in build info", engineModule)
			return
		}
		versionCache.raw = raw
		versionCache.err = validateModuleVersion(raw)
	})
	return versionCache.raw, versionCache.err
}
