package buildinfo

import (
	"errors"
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromBuildInfo(t *testing.T) {
	tests := []struct {
		name string
		info *debug.BuildInfo
		ok   bool
		want Info
	}{
		{name: "unavailable", want: Info{Version: "dev"}},
		{
			name: "devel",
			info: &debug.BuildInfo{GoVersion: "go1.25.0", Main: debug.Module{Version: "(devel)"}},
			ok:   true,
			want: Info{Version: "dev", GoVersion: "go1.25.0"},
		},
		{
			name: "tagged release",
			info: &debug.BuildInfo{
				GoVersion: "go1.25.0",
				Main:      debug.Module{Version: "v0.3.0"},
				Settings:  []debug.BuildSetting{{Key: "-tags", Value: "netgo"}},
			},
			ok:   true,
			want: Info{Version: "v0.3.0", Tags: "netgo", GoVersion: "go1.25.0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, fromBuildInfo(tt.info, tt.ok))
		})
	}
}

func TestInfoString(t *testing.T) {
	t.Parallel()

	i := Info{Version: "v0.3.0", Tags: "netgo", GoVersion: "go1.25.0", Engine: "v5.16.4"}
	assert.Equal(t, "v0.3.0 (tags: netgo)\nengine: go-git v5.16.4 (minimum 5.11.0)\ngo: go1.25.0", i.String())

	i = Info{Version: "dev", EngineErr: errors.New("not found in build info")}
	assert.Equal(t, "dev\nengine: unknown (not found in build info)", i.String())
}

func TestReadNeverEmpty(t *testing.T) {
	t.Parallel()

	i := Read()
	assert.NotEmpty(t, i.Version)
	assert.NotEmpty(t, i.String())
}
