package cmd

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/jorgmikel2025/VideoSplitterApp/internal/config"
)

func TestCollectStats(t *testing.T) {
	logText := strings.Join([]string{
		`2026/01/02 10:00:00 split.go:167: {"type":"clip_result","input":"/v/a.mp4","output":"/v/split/a_001.mp4","index":1,"start_sec":0,"duration_sec":5}`,
		`2026/01/02 10:00:01 split.go:167: {"type":"clip_result","input":"/v/a.mp4","output":"/v/split/a_002.mp4","index":2,"start_sec":5,"duration_sec":5}`,
		`2026/01/02 10:00:02 split.go:167: {"type":"clip_result","input":"/v/b.mp4","output":"/v/split/b_001.mp4","index":1,"start_sec":0,"duration_sec":2.5}`,
		`2026/01/02 10:00:03 sync.go:217: ✅ Copied: p.mp4 (1080x1920) -> /out/p.mp4`,
		`2026/01/02 10:00:03 sync.go:217: {"type":"copy_result","input":"/in/p.mp4","output":"/out/p.mp4","width":1080,"height":1920,"size":2048}`,
		`2026/01/02 10:00:04 sync.go:217: {broken json`,
	}, "\n")

	s, err := collectStats(strings.NewReader(logText))
	if err != nil {
		t.Fatalf("collectStats: %v", err)
	}
	if s.Clips != 3 || s.Inputs != 2 {
		t.Errorf("clips=%d inputs=%d, want 3 and 2", s.Clips, s.Inputs)
	}
	if s.ClipSeconds != 12.5 {
		t.Errorf("clip seconds = %v", s.ClipSeconds)
	}
	if s.Copies != 1 || s.CopiedBytes != 2048 {
		t.Errorf("copies=%d bytes=%d", s.Copies, s.CopiedBytes)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.in); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteStarterConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	if err := writeStarterConfig(path, false); err != nil {
		t.Fatalf("writeStarterConfig: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("generated config does not load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("generated config is invalid: %v", err)
	}
	if cfg.Mode != config.ModeSegment || cfg.ClipSeconds != 5 {
		t.Errorf("mode=%q clip=%v", cfg.Mode, cfg.ClipSeconds)
	}
	if ok, err := cfg.ApplyProfile("shorts"); !ok || err != nil {
		t.Errorf("shorts profile missing: %v", err)
	}

	if err := writeStarterConfig(path, false); err == nil {
		t.Error("expected an error when the file already exists")
	}
	if err := writeStarterConfig(path, true); err != nil {
		t.Errorf("--force: %v", err)
	}
}
