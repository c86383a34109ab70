package clip

import (
	"fmt"
	"iter"
	"time"

	"github.com/pkg/errors"
)

var ErrInvalidClipLength = errors.New("clip length must be > 0")

// DurationUnavailableError means the total length of the input is zero or
// could not be probed, so no windows can be planned.
type DurationUnavailableError struct {
	Path string
	Err  error
}

func (e *DurationUnavailableError) Error() string {
	switch {
	case e.Path != "" && e.Err != nil:
		return fmt.Sprintf("duration of %s unavailable: %v", e.Path, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("duration unavailable: %v", e.Err)
	case e.Path != "":
		return fmt.Sprintf("duration of %s unavailable", e.Path)
	default:
		return "duration unavailable"
	}
}

func (e *DurationUnavailableError) Unwrap() error { return e.Err }

func IsDurationUnavailable(err error) bool {
	var e *DurationUnavailableError
	return errors.As(err, &e)
}

// Window is one clip of the plan. Index is 1-based.
type Window struct {
	Index    int
	Start    time.Duration
	Duration time.Duration
}

func (w Window) End() time.Duration { return w.Start + w.Duration }

// Plan yields fixed-length windows starting at 0 until the start offset
// reaches total. The last window keeps the full clip length; the encoder
// stops at end of stream.
func Plan(total, clipLength time.Duration) (iter.Seq[Window], error) {
	if clipLength <= 0 {
		return nil, ErrInvalidClipLength
	}
	if total <= 0 {
		return nil, &DurationUnavailableError{}
	}
	return func(yield func(Window) bool) {
		index := 0
		for start := time.Duration(0); start < total; start += clipLength {
			index++
			if !yield(Window{Index: index, Start: start, Duration: clipLength}) {
				return
			}
		}
	}, nil
}

// Count is ceil(total / clipLength), the number of windows Plan yields.
func Count(total, clipLength time.Duration) int {
	if clipLength <= 0 || total <= 0 {
		return 0
	}
	n := total / clipLength
	if total%clipLength != 0 {
		n++
	}
	return int(n)
}
