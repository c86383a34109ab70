package cmd

import (
	"runtime/debug"
	"testing"
)

func TestResolveVersion(t *testing.T) {
	installed := &debug.BuildInfo{Main: debug.Module{Version: "v0.3.0"}}
	devel := &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}}

	tests := []struct {
		name    string
		ldflags string
		info    *debug.BuildInfo
		ok      bool
		want    string
	}{
		{"ldflags win", "v1.2.0", installed, true, "v1.2.0"},
		{"go install", "dev", installed, true, "v0.3.0"},
		{"local build", "dev", devel, true, "dev"},
		{"no build info", "dev", nil, false, "dev"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveVersion(tt.ldflags, tt.info, tt.ok); got != tt.want {
				t.Errorf("resolveVersion = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDepVersion(t *testing.T) {
	info := &debug.BuildInfo{Deps: []*debug.Module{
		{Path: "github.com/spf13/cobra", Version: "v1.10.1"},
		{Path: ffmpegGoModule, Version: "v0.5.0"},
	}}
	if got := depVersion(info, ffmpegGoModule); got != "v0.5.0" {
		t.Errorf("depVersion = %q", got)
	}
	if got := depVersion(info, "github.com/nobody/missing"); got != "" {
		t.Errorf("missing dep = %q", got)
	}
}
