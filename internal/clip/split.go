package clip

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/jorgmikel2025/VideoSplitterApp/internal/config"
	"github.com/jorgmikel2025/VideoSplitterApp/internal/logger"
	"github.com/jorgmikel2025/VideoSplitterApp/internal/runner"
)

// DefaultOutputDirName is the folder created next to an input when no
// output directory is configured.
const DefaultOutputDirName = "split"

// ErrPartial is returned under the continue policy when some windows failed.
var ErrPartial = errors.New("split incomplete")

// WindowError reports the encode failure of one planned window.
type WindowError struct {
	Index int
	Start time.Duration
	Err   error
}

func (e *WindowError) Error() string {
	return fmt.Sprintf("clip %d (at %s) failed: %v", e.Index, e.Start, e.Err)
}

func (e *WindowError) Unwrap() error { return e.Err }

type DurationProber interface {
	Duration(ctx context.Context, path string) (time.Duration, error)
}

// Events
type ClipStartEvent struct {
	Input string
	Index int
	Total int
	Out   string
}
type ClipDoneEvent struct {
	Input string
	Index int
	Out   string
}
type ClipFailedEvent struct {
	Input string
	Index int
	Err   error
}

type Result struct {
	Input     string
	OutputDir string
	Mode      string
	Duration  time.Duration
	Clips     []string
	Failed    []*WindowError
}

// Splitter turns one input file into fixed-length clips.
type Splitter struct {
	Cfg       *config.Config
	Runner    runner.Runner
	Prober    DurationProber
	EventChan chan<- interface{} // Optional: Send events for TUI
}

func New(cfg *config.Config, r runner.Runner, p DurationProber) *Splitter {
	return &Splitter{Cfg: cfg, Runner: r, Prober: p}
}

func (s *Splitter) Split(ctx context.Context, inFile string) (*Result, error) {
	total, err := s.Prober.Duration(ctx, inFile)
	if err != nil {
		if runner.IsLaunch(err) {
			return nil, err
		}
		return nil, &DurationUnavailableError{Path: inFile, Err: err}
	}
	if total <= 0 {
		return nil, &DurationUnavailableError{Path: inFile}
	}

	outDir := s.OutputDir(inFile)
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, errors.Wrap(err, "出力ディレクトリの作成に失敗")
	}

	res := &Result{Input: inFile, OutputDir: outDir, Mode: s.Cfg.Mode, Duration: total}
	log.Printf("▶ 分割: %s (%s, %s毎, %s) -> %s", inFile, total, s.Cfg.ClipLength(), s.Cfg.Mode, outDir)

	if s.Cfg.Mode == config.ModePerClip {
		err = s.splitPerClip(ctx, res)
	} else {
		err = s.splitSegment(ctx, res)
	}
	if err != nil {
		return res, err
	}

	log.Printf("🔪 分割完了: %s -> %d クリップ", filepath.Base(inFile), len(res.Clips))
	return res, nil
}

// OutputDir is the configured output directory, or a "split" folder next to
// the input.
func (s *Splitter) OutputDir(inFile string) string {
	if s.Cfg.OutputDir != "" {
		return s.Cfg.OutputDir
	}
	return filepath.Join(filepath.Dir(inFile), DefaultOutputDirName)
}

func (s *Splitter) splitPerClip(ctx context.Context, res *Result) error {
	clipLen := s.Cfg.ClipLength()
	windows, err := Plan(res.Duration, clipLen)
	if err != nil {
		if IsDurationUnavailable(err) {
			return &DurationUnavailableError{Path: res.Input}
		}
		return err
	}
	total := Count(res.Duration, clipLen)
	base := baseName(res.Input)

	for w := range windows {
		if err := ctx.Err(); err != nil {
			return err
		}

		out := filepath.Join(res.OutputDir, fmt.Sprintf("%s_%03d.mp4", base, w.Index))
		cmd := s.ClipCommand(res.Input, out, w)
		s.emit(ctx, ClipStartEvent{Input: res.Input, Index: w.Index, Total: total, Out: out})
		log.Printf("クリップ %d/%d: %s から %s", w.Index, total, w.Start, out)

		r, err := s.Runner.Run(ctx, cmd)
		if err == nil {
			err = r.Err(cmd)
		}
		if err != nil {
			we := &WindowError{Index: w.Index, Start: w.Start, Err: err}
			log.Printf("❌ %v", we)
			s.emit(ctx, ClipFailedEvent{Input: res.Input, Index: w.Index, Err: we})

			// A missing ffmpeg or a cancelled run fails every later window too.
			if runner.IsLaunch(err) || ctx.Err() != nil {
				return err
			}
			if s.Cfg.OnError != config.OnErrorContinue {
				return we
			}
			res.Failed = append(res.Failed, we)
			continue
		}

		res.Clips = append(res.Clips, out)
		s.emit(ctx, ClipDoneEvent{Input: res.Input, Index: w.Index, Out: out})
		record(res.Input, out, w.Index, w.Start, w.Duration)
	}

	if len(res.Failed) > 0 {
		return errors.Wrapf(ErrPartial, "%d of %d clips failed", len(res.Failed), total)
	}
	return nil
}

// ClipCommand re-encodes one window with a keyframe forced on its first
// frame.
func (s *Splitter) ClipCommand(inFile, outFile string, w Window) runner.Command {
	start := w.Start + s.Cfg.SeekOffset()
	dur := w.Duration - s.Cfg.Trim()

	stream := ffmpeg.Input(inFile, ffmpeg.KwArgs{"ss": formatSeconds(start)}).
		Output(outFile, ffmpeg.KwArgs{
			"t":                formatSeconds(dur),
			"c:v":              s.Cfg.VideoCodec,
			"c:a":              s.Cfg.AudioCodec,
			"force_key_frames": "expr:gte(t,0)",
		}).
		OverWriteOutput()

	return runner.Command{Bin: s.ffmpegBin(), Args: stream.GetArgs()}
}

func (s *Splitter) splitSegment(ctx context.Context, res *Result) error {
	base := baseName(res.Input)

	// Leftovers of an earlier run on the same input would be picked up as
	// this run's output.
	stale, err := clipFiles(res.OutputDir, base)
	if err != nil {
		return err
	}
	for _, f := range stale {
		if err := os.Remove(f); err != nil {
			return errors.Wrap(err, "古いクリップの削除に失敗")
		}
	}
	if len(stale) > 0 {
		log.Printf("🧹 古いクリップを削除: %d件 (%s_*.mp4)", len(stale), base)
	}

	cmd := s.SegmentCommand(res.Input, res.OutputDir)
	total := Count(res.Duration, s.Cfg.ClipLength())
	s.emit(ctx, ClipStartEvent{Input: res.Input, Index: 1, Total: total, Out: res.OutputDir})

	r, err := s.Runner.Run(ctx, cmd)
	if err == nil {
		err = r.Err(cmd)
	}
	if err != nil {
		s.emit(ctx, ClipFailedEvent{Input: res.Input, Index: 0, Err: err})
		return errors.Wrap(err, "split failed")
	}

	// Verify and collect output files
	files, err := clipFiles(res.OutputDir, base)
	if err != nil {
		return err
	}
	res.Clips = files

	clipLen := s.Cfg.ClipLength()
	for i, f := range files {
		start := time.Duration(i) * clipLen
		s.emit(ctx, ClipDoneEvent{Input: res.Input, Index: i + 1, Out: f})
		record(res.Input, f, i+1, start, clipLen)
	}
	return nil
}

// SegmentCommand lets ffmpeg's segment muxer cut the whole file in one run,
// forcing a keyframe at every segment boundary. Outputs are named
// <base>_001.mp4, <base>_002.mp4, ... like per-clip mode.
func (s *Splitter) SegmentCommand(inFile, outDir string) runner.Command {
	l := formatSeconds(s.Cfg.ClipLength())
	outPattern := filepath.Join(outDir, baseName(inFile)+"_%03d.mp4")

	args := []string{
		"-y",
		"-i", inFile,
		"-force_key_frames", "expr:gte(t,n_forced*" + l + ")",
		"-f", "segment",
		"-segment_time", l,
		"-segment_start_number", "1",
		"-reset_timestamps", "1", // Important for independent chunks
		"-c:v", s.Cfg.VideoCodec,
		"-c:a", s.Cfg.AudioCodec,
		outPattern,
	}
	return runner.Command{Bin: s.ffmpegBin(), Args: args}
}

// IsOutput reports whether path lies in a folder this splitter writes clips
// to, so directory inputs do not pick up earlier results.
func (s *Splitter) IsOutput(path string) bool {
	dir := filepath.Dir(path)
	if s.Cfg.OutputDir != "" {
		out, err := filepath.Abs(s.Cfg.OutputDir)
		if err != nil {
			return false
		}
		abs, err := filepath.Abs(dir)
		if err != nil {
			return false
		}
		return abs == out || strings.HasPrefix(abs, out+string(filepath.Separator))
	}
	return filepath.Base(dir) == DefaultOutputDirName
}

// clipFiles lists <base>_NNN.mp4 in dir, sorted.
func clipFiles(dir, base string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	prefix := base + "_"
	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".mp4") {
			continue
		}
		num := strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".mp4")
		if len(num) < 3 || strings.Trim(num, "0123456789") != "" {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	sort.Strings(files)
	return files, nil
}

func baseName(inFile string) string {
	return strings.TrimSuffix(filepath.Base(inFile), filepath.Ext(inFile))
}

func (s *Splitter) ffmpegBin() string {
	if s.Cfg.FFmpegBin != "" {
		return s.Cfg.FFmpegBin
	}
	return "ffmpeg"
}

func (s *Splitter) emit(ctx context.Context, ev interface{}) {
	if s.EventChan == nil {
		return
	}
	select {
	case s.EventChan <- ev:
	case <-ctx.Done():
	}
}

func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}

func record(input, output string, index int, start, dur time.Duration) {
	logger.Record(struct {
		Type        string  `json:"type"`
		Input       string  `json:"input"`
		Output      string  `json:"output"`
		Index       int     `json:"index"`
		StartSec    float64 `json:"start_sec"`
		DurationSec float64 `json:"duration_sec"`
		Timestamp   string  `json:"timestamp"`
	}{
		Type:        "clip_result",
		Input:       input,
		Output:      output,
		Index:       index,
		StartSec:    start.Seconds(),
		DurationSec: dur.Seconds(),
		Timestamp:   time.Now().Format(time.RFC3339),
	})
}
