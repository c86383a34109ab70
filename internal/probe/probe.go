// Package probe reads the playable duration of a media file with ffprobe.
package probe

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/jorgmikel2025/VideoSplitterApp/internal/runner"
)

var ErrNoDuration = errors.New("duration unavailable")

type FFprobe struct {
	Runner runner.Runner
	Bin    string
}

func New(r runner.Runner, bin string) *FFprobe {
	if bin == "" {
		bin = "ffprobe"
	}
	return &FFprobe{Runner: r, Bin: bin}
}

func (p *FFprobe) Duration(ctx context.Context, path string) (time.Duration, error) {
	cmd := runner.Command{
		Bin: p.Bin,
		Args: []string{
			"-v", "error",
			"-show_entries", "format=duration",
			"-of", "default=noprint_wrappers=1:nokey=1",
			path,
		},
	}
	res, err := p.Runner.Run(ctx, cmd)
	if err != nil {
		return 0, err
	}
	if err := res.Err(cmd); err != nil {
		return 0, errors.Wrapf(ErrNoDuration, "%v", err)
	}
	return ParseDuration(res.FirstLine())
}

// ParseDuration parses ffprobe's format=duration value in fractional seconds.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "N/A" {
		return 0, errors.Wrapf(ErrNoDuration, "ffprobe reported %q", s)
	}
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.Wrapf(ErrNoDuration, "unparsable duration %q", s)
	}
	if sec <= 0 {
		return 0, errors.Wrapf(ErrNoDuration, "non-positive duration %q", s)
	}
	return time.Duration(math.Round(sec*1e6)) * time.Microsecond, nil
}
