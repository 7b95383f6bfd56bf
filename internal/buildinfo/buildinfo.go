package buildinfo

import (
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/thiagokokada/gitbind/internal/git"
)

// Info describes the running binary and the git engine linked into it.
type Info struct {
	Version   string
	Tags      string
	GoVersion string
	Engine    string
	// EngineErr is set when the engine version is unknown or too old.
	EngineErr error
}

// Read collects build information for the current binary.
func Read() Info {
	info, ok := debug.ReadBuildInfo()
	bi := fromBuildInfo(info, ok)
	bi.Engine, bi.EngineErr = git.EngineVersion()
	return bi
}

func fromBuildInfo(info *debug.BuildInfo, ok bool) Info {
	bi := Info{Version: "dev"}
	if !ok || info == nil {
		return bi
	}
	bi.GoVersion = info.GoVersion
	if v := info.Main.Version; v != "" && v != "(devel)" {
		bi.Version = v
	}
	for _, setting := range info.Settings {
		if setting.Key == "-tags" {
			bi.Tags = setting.Value
		}
	}
	return bi
}

// Version returns the module version or "dev" when unset.
func Version() string {
	info, ok := debug.ReadBuildInfo()
	return fromBuildInfo(info, ok).Version
}

func (i Info) String() string {
	var b strings.Builder
	b.WriteString(i.Version)
	if i.Tags != "" {
		fmt.Fprintf(&b, " (tags: %s)", i.Tags)
	}
	switch {
	case i.EngineErr != nil:
		fmt.Fprintf(&b, "\nengine: unknown (%v)", i.EngineErr)
	case i.Engine != "":
		fmt.Fprintf(&b, "\nengine: go-git %s (minimum %s)", i.Engine, git.MinEngineVersion())
	}
	if i.GoVersion != "" {
		fmt.Fprintf(&b, "\ngo: %s", i.GoVersion)
	}
	return b.String()
}
