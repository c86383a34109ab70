package clip

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/jorgmikel2025/VideoSplitterApp/internal/config"
	"github.com/jorgmikel2025/VideoSplitterApp/internal/runner"
	"github.com/jorgmikel2025/VideoSplitterApp/internal/runner/runnertest"
)

type fixedProber struct {
	d   time.Duration
	err error
}

func (p fixedProber) Duration(context.Context, string) (time.Duration, error) {
	return p.d, p.err
}

func perClipConfig(dir string) *config.Config {
	cfg := config.NewDefault()
	cfg.Mode = config.ModePerClip
	cfg.ClipSeconds = 5
	cfg.OutputDir = dir
	cfg.AudioCodec = "copy"
	return cfg
}

func lastArg(args []string) string { return args[len(args)-1] }

func TestSplit_PerClipSeventeenSeconds(t *testing.T) {
	dir := t.TempDir()
	fake := &runnertest.Fake{}
	s := New(perClipConfig(dir), fake, fixedProber{d: 17 * time.Second})

	res, err := s.Split(context.Background(), "/videos/talk.mp4")
	if err != nil {
		t.Fatalf("Split: %v", err)
	}

	calls := fake.Calls()
	if len(calls) != 4 {
		t.Fatalf("got %d ffmpeg invocations, want 4", len(calls))
	}
	wantStarts := []string{"0", "5", "10", "15"}
	for i, c := range calls {
		if c.Bin != "ffmpeg" {
			t.Errorf("call %d bin = %q", i, c.Bin)
		}
		if got := runnertest.ArgAfter(c.Args, "-ss"); got != wantStarts[i] {
			t.Errorf("call %d -ss = %q, want %q", i, got, wantStarts[i])
		}
		if got := runnertest.ArgAfter(c.Args, "-t"); got != "5" {
			t.Errorf("call %d -t = %q, want 5", i, got)
		}
		if got := runnertest.ArgAfter(c.Args, "-i"); got != "/videos/talk.mp4" {
			t.Errorf("call %d -i = %q", i, got)
		}
		if got := runnertest.ArgAfter(c.Args, "-force_key_frames"); got != "expr:gte(t,0)" {
			t.Errorf("call %d -force_key_frames = %q", i, got)
		}
		if got := runnertest.ArgAfter(c.Args, "-c:v"); got != "libx264" {
			t.Errorf("call %d -c:v = %q", i, got)
		}
		if got := runnertest.ArgAfter(c.Args, "-c:a"); got != "copy" {
			t.Errorf("call %d -c:a = %q", i, got)
		}
	}

	wantClips := []string{
		filepath.Join(dir, "talk_001.mp4"),
		filepath.Join(dir, "talk_002.mp4"),
		filepath.Join(dir, "talk_003.mp4"),
		filepath.Join(dir, "talk_004.mp4"),
	}
	if len(res.Clips) != len(wantClips) {
		t.Fatalf("clips = %v", res.Clips)
	}
	for i := range wantClips {
		if res.Clips[i] != wantClips[i] {
			t.Errorf("clip %d = %q, want %q", i, res.Clips[i], wantClips[i])
		}
	}
}

func TestSplit_OffsetPolicy(t *testing.T) {
	cfg := perClipConfig(t.TempDir())
	cfg.SeekOffsetSeconds = 0.1
	cfg.TrimSeconds = 1
	fake := &runnertest.Fake{}
	s := New(cfg, fake, fixedProber{d: 10 * time.Second})

	if _, err := s.Split(context.Background(), "in.mp4"); err != nil {
		t.Fatalf("Split: %v", err)
	}
	calls := fake.Calls()
	if len(calls) != 2 {
		t.Fatalf("got %d calls", len(calls))
	}
	if got := runnertest.ArgAfter(calls[1].Args, "-ss"); got != "5.1" {
		t.Errorf("-ss = %q, want 5.1", got)
	}
	if got := runnertest.ArgAfter(calls[1].Args, "-t"); got != "4" {
		t.Errorf("-t = %q, want 4", got)
	}
}

func failOn(index int) *runnertest.Fake {
	n := 0
	return &runnertest.Fake{Respond: func(cmd runner.Command) (runner.Result, error) {
		n++
		if n == index {
			return runner.Result{ExitCode: 1, Stderr: "Conversion failed!"}, nil
		}
		return runner.Result{}, nil
	}}
}

func TestSplit_AbortOnFirstError(t *testing.T) {
	fake := failOn(2)
	s := New(perClipConfig(t.TempDir()), fake, fixedProber{d: 17 * time.Second})

	res, err := s.Split(context.Background(), "in.mp4")
	var we *WindowError
	if !errors.As(err, &we) {
		t.Fatalf("expected WindowError, got %v", err)
	}
	if we.Index != 2 {
		t.Errorf("failed window index = %d, want 2", we.Index)
	}
	if n := len(fake.Calls()); n != 2 {
		t.Errorf("abort policy ran %d invocations, want 2", n)
	}
	if len(res.Clips) != 1 {
		t.Errorf("clips before failure = %v", res.Clips)
	}
}

func TestSplit_ContinueOnError(t *testing.T) {
	cfg := perClipConfig(t.TempDir())
	cfg.OnError = config.OnErrorContinue
	fake := failOn(3)
	s := New(cfg, fake, fixedProber{d: 17 * time.Second})

	res, err := s.Split(context.Background(), "in.mp4")
	if !errors.Is(err, ErrPartial) {
		t.Fatalf("expected ErrPartial, got %v", err)
	}
	if n := len(fake.Calls()); n != 4 {
		t.Errorf("continue policy ran %d invocations, want 4", n)
	}
	if len(res.Failed) != 1 || res.Failed[0].Index != 3 {
		t.Errorf("failed = %+v", res.Failed)
	}
	if len(res.Clips) != 3 {
		t.Errorf("clips = %v", res.Clips)
	}
}

func TestSplit_LaunchErrorIsFatalEvenWhenContinuing(t *testing.T) {
	cfg := perClipConfig(t.TempDir())
	cfg.OnError = config.OnErrorContinue
	fake := &runnertest.Fake{Respond: func(cmd runner.Command) (runner.Result, error) {
		return runner.Result{}, &runner.LaunchError{Bin: cmd.Bin, Err: os.ErrNotExist}
	}}
	s := New(cfg, fake, fixedProber{d: 17 * time.Second})

	_, err := s.Split(context.Background(), "in.mp4")
	if !runner.IsLaunch(err) {
		t.Fatalf("expected LaunchError, got %v", err)
	}
	if n := len(fake.Calls()); n != 1 {
		t.Errorf("ran %d invocations after launch failure", n)
	}
}

func TestSplit_DurationUnavailable(t *testing.T) {
	tests := []struct {
		name   string
		prober fixedProber
	}{
		{"probe failed", fixedProber{err: errors.New("Invalid data found")}},
		{"zero duration", fixedProber{d: 0}},
	}
	for _, mode := range []string{config.ModePerClip, config.ModeSegment} {
		for _, tt := range tests {
			t.Run(mode+"/"+tt.name, func(t *testing.T) {
				cfg := perClipConfig(t.TempDir())
				cfg.Mode = mode
				fake := &runnertest.Fake{}
				_, err := New(cfg, fake, tt.prober).Split(context.Background(), "in.mp4")
				if !IsDurationUnavailable(err) {
					t.Fatalf("expected DurationUnavailable, got %v", err)
				}
				if n := len(fake.Calls()); n != 0 {
					t.Errorf("ffmpeg invoked %d times", n)
				}
			})
		}
	}
}

// segmentMuxer stands in for ffmpeg's segment muxer: it writes one file per
// clip of the input, numbered from 1 through the output pattern.
func segmentMuxer(counts map[string]int) *runnertest.Fake {
	return &runnertest.Fake{Respond: func(cmd runner.Command) (runner.Result, error) {
		in := runnertest.ArgAfter(cmd.Args, "-i")
		pattern := lastArg(cmd.Args)
		for i := 1; i <= counts[in]; i++ {
			if err := os.WriteFile(fmt.Sprintf(pattern, i), []byte(in), 0o644); err != nil {
				return runner.Result{}, err
			}
		}
		return runner.Result{}, nil
	}}
}

func TestSplit_Segment(t *testing.T) {
	dir := t.TempDir()
	cfg := config.NewDefault()
	cfg.OutputDir = dir

	fake := segmentMuxer(map[string]int{"/videos/in.mkv": 4})
	events := make(chan interface{}, 16)
	s := New(cfg, fake, fixedProber{d: 17 * time.Second})
	s.EventChan = events

	res, err := s.Split(context.Background(), "/videos/in.mkv")
	if err != nil {
		t.Fatalf("Split: %v", err)
	}

	calls := fake.Calls()
	if len(calls) != 1 {
		t.Fatalf("segment mode should run ffmpeg once, ran %d", len(calls))
	}
	args := calls[0].Args
	checks := map[string]string{
		"-i":                    "/videos/in.mkv",
		"-force_key_frames":     "expr:gte(t,n_forced*5)",
		"-f":                    "segment",
		"-segment_time":         "5",
		"-segment_start_number": "1",
		"-reset_timestamps":     "1",
		"-c:v":                  "libx264",
		"-c:a":                  "aac",
	}
	for flag, want := range checks {
		if got := runnertest.ArgAfter(args, flag); got != want {
			t.Errorf("%s = %q, want %q", flag, got, want)
		}
	}
	if got := lastArg(args); got != filepath.Join(dir, "in_%03d.mp4") {
		t.Errorf("output pattern = %q", got)
	}
	if len(res.Clips) != 4 || filepath.Base(res.Clips[0]) != "in_001.mp4" {
		t.Errorf("clips = %v", res.Clips)
	}

	done := 0
	for len(events) > 0 {
		if _, ok := (<-events).(ClipDoneEvent); ok {
			done++
		}
	}
	if done != 4 {
		t.Errorf("got %d ClipDoneEvents, want 4", done)
	}
}

func TestSplit_SegmentTwoInputsOneFolder(t *testing.T) {
	dir := t.TempDir()
	a, b := filepath.Join(dir, "a.mp4"), filepath.Join(dir, "b.mp4")
	cfg := config.NewDefault()
	fake := segmentMuxer(map[string]int{a: 4, b: 2})

	resA, err := New(cfg, fake, fixedProber{d: 17 * time.Second}).Split(context.Background(), a)
	if err != nil {
		t.Fatalf("Split a: %v", err)
	}
	resB, err := New(cfg, fake, fixedProber{d: 7 * time.Second}).Split(context.Background(), b)
	if err != nil {
		t.Fatalf("Split b: %v", err)
	}

	if len(resA.Clips) != 4 || len(resB.Clips) != 2 {
		t.Fatalf("a clips = %v, b clips = %v", resA.Clips, resB.Clips)
	}
	for _, c := range resA.Clips {
		if got, _ := os.ReadFile(c); string(got) != a {
			t.Errorf("%s holds output of %q", filepath.Base(c), got)
		}
	}
	for _, c := range resB.Clips {
		if got, _ := os.ReadFile(c); string(got) != b {
			t.Errorf("%s holds output of %q", filepath.Base(c), got)
		}
	}
}

func TestSplit_SegmentDropsStaleClips(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "talk.mp4")
	out := filepath.Join(dir, DefaultOutputDirName)
	if err := os.MkdirAll(out, 0o755); err != nil {
		t.Fatal(err)
	}
	// from an earlier, longer version of the same file
	for _, name := range []string{"talk_005.mp4", "talk_006.mp4", "talk_extra_001.mp4"} {
		if err := os.WriteFile(filepath.Join(out, name), []byte("old"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	res, err := New(config.NewDefault(), segmentMuxer(map[string]int{in: 2}), fixedProber{d: 7 * time.Second}).
		Split(context.Background(), in)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(res.Clips) != 2 {
		t.Errorf("clips = %v, want talk_001 and talk_002", res.Clips)
	}
	if _, err := os.Stat(filepath.Join(out, "talk_005.mp4")); !os.IsNotExist(err) {
		t.Errorf("stale clip kept: %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "talk_extra_001.mp4")); err != nil {
		t.Errorf("clip of another input removed: %v", err)
	}
}

func TestSplitter_IsOutput(t *testing.T) {
	root := t.TempDir()
	s := New(config.NewDefault(), &runnertest.Fake{}, fixedProber{})
	if !s.IsOutput(filepath.Join(root, "sub", "split", "a_001.mp4")) {
		t.Error("default split folder not recognised")
	}
	if s.IsOutput(filepath.Join(root, "sub", "a.mp4")) {
		t.Error("plain input treated as output")
	}

	cfg := config.NewDefault()
	cfg.OutputDir = filepath.Join(root, "clips")
	s = New(cfg, &runnertest.Fake{}, fixedProber{})
	if !s.IsOutput(filepath.Join(root, "clips", "nested", "a_001.mp4")) {
		t.Error("configured output dir not recognised")
	}
	if s.IsOutput(filepath.Join(root, "split", "a.mp4")) {
		t.Error("split folder should not matter once an output dir is set")
	}
}

func TestSplit_DefaultOutputDir(t *testing.T) {
	src := t.TempDir()
	cfg := config.NewDefault()
	s := New(cfg, &runnertest.Fake{}, fixedProber{d: time.Second})

	if got, want := s.OutputDir(filepath.Join(src, "a.mp4")), filepath.Join(src, "split"); got != want {
		t.Errorf("OutputDir = %q, want %q", got, want)
	}
	if _, err := s.Split(context.Background(), filepath.Join(src, "a.mp4")); err != nil {
		t.Fatalf("Split: %v", err)
	}
	if info, err := os.Stat(filepath.Join(src, "split")); err != nil || !info.IsDir() {
		t.Errorf("split dir not created: %v", err)
	}
}
