// Package orient classifies a video as portrait or landscape from the pixel
// size of its first video stream.
package orient

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/jorgmikel2025/VideoSplitterApp/internal/runner"
)

type Result struct {
	Width  int
	Height int
}

func (r Result) IsPortrait() bool { return r.Height > r.Width }

func (r Result) String() string { return fmt.Sprintf("%dx%d", r.Width, r.Height) }

// ProbeError means the file could not be classified. Callers exclude the
// file; they never assume landscape.
type ProbeError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ProbeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("probe %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("probe %s: %s", e.Path, e.Reason)
}

func (e *ProbeError) Unwrap() error { return e.Err }

func IsProbe(err error) bool {
	var e *ProbeError
	return errors.As(err, &e)
}

type Classifier struct {
	Runner runner.Runner
	Bin    string
}

func New(r runner.Runner, ffprobeBin string) *Classifier {
	if ffprobeBin == "" {
		ffprobeBin = "ffprobe"
	}
	return &Classifier{Runner: r, Bin: ffprobeBin}
}

func (c *Classifier) Command(path string) runner.Command {
	return runner.Command{
		Bin: c.Bin,
		Args: []string{
			"-v", "error",
			"-select_streams", "v:0",
			"-show_entries", "stream=width,height",
			"-of", "csv=p=0",
			path,
		},
	}
}

func (c *Classifier) Classify(ctx context.Context, path string) (Result, error) {
	cmd := c.Command(path)
	res, err := c.Runner.Run(ctx, cmd)
	if err != nil {
		return Result{}, &ProbeError{Path: path, Reason: "ffprobe did not run", Err: err}
	}
	if err := res.Err(cmd); err != nil {
		return Result{}, &ProbeError{Path: path, Reason: "not a readable media file", Err: err}
	}

	r, err := Parse(res.FirstLine())
	if err != nil {
		return Result{}, &ProbeError{Path: path, Reason: err.Error()}
	}
	return r, nil
}

// Parse reads a "<width>,<height>" record. Anything other than exactly two
// positive integers is rejected.
func Parse(line string) (Result, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Result{}, errors.New("empty ffprobe output")
	}
	parts := strings.Split(line, ",")
	if len(parts) != 2 {
		return Result{}, errors.Errorf("expected 2 fields, got %d in %q", len(parts), line)
	}
	w, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return Result{}, errors.Errorf("bad width in %q", line)
	}
	h, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return Result{}, errors.Errorf("bad height in %q", line)
	}
	if w <= 0 || h <= 0 {
		return Result{}, errors.Errorf("non-positive size in %q", line)
	}
	return Result{Width: w, Height: h}, nil
}
