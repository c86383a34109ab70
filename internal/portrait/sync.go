// Package portrait copies portrait-oriented videos out of a folder tree.
package portrait

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/jorgmikel2025/VideoSplitterApp/internal/config"
	"github.com/jorgmikel2025/VideoSplitterApp/internal/fsx"
	"github.com/jorgmikel2025/VideoSplitterApp/internal/logger"
	"github.com/jorgmikel2025/VideoSplitterApp/internal/orient"
	"github.com/jorgmikel2025/VideoSplitterApp/internal/runner"
)

type Status int

const (
	Copied Status = iota
	Skipped
	Failed
)

func (s Status) String() string {
	switch s {
	case Copied:
		return "Copied"
	case Skipped:
		return "Skipped"
	case Failed:
		return "Failed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Outcome is the result for one source file.
type Outcome struct {
	Source string
	Status Status
	Dest   string
	Width  int
	Height int
	Reason string
}

func (o Outcome) String() string {
	name := filepath.Base(o.Source)
	switch o.Status {
	case Copied:
		return fmt.Sprintf("Copied: %s (%dx%d) -> %s", name, o.Width, o.Height, o.Dest)
	case Skipped:
		return fmt.Sprintf("Skipped: %s (%s)", name, o.Reason)
	default:
		return fmt.Sprintf("Failed: %s - %s", name, o.Reason)
	}
}

// InvalidDirectoryError means a source or destination is missing or not a
// directory. Nothing has been touched when it is returned.
type InvalidDirectoryError struct {
	Role string
	Path string
	Err  error
}

func (e *InvalidDirectoryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s directory %q: %v", e.Role, e.Path, e.Err)
	}
	return fmt.Sprintf("invalid %s directory %q: not a directory", e.Role, e.Path)
}

func (e *InvalidDirectoryError) Unwrap() error { return e.Err }

func IsInvalidDirectory(err error) bool {
	var e *InvalidDirectoryError
	return errors.As(err, &e)
}

type Classifier interface {
	Classify(ctx context.Context, path string) (orient.Result, error)
}

// Events
type FileFoundEvent struct {
	Path string
	Name string
}
type OutcomeEvent struct {
	Outcome Outcome
}

type Syncer struct {
	Cfg        *config.Config
	Classifier Classifier
	EventChan  chan<- interface{} // Optional: Send events for TUI
}

func New(cfg *config.Config, c Classifier) *Syncer {
	return &Syncer{Cfg: cfg, Classifier: c}
}

func (s *Syncer) Filter() Filter {
	return Filter{
		Extensions:     s.Cfg.Extensions,
		Keywords:       s.Cfg.Keywords,
		IgnoreKeywords: s.Cfg.IgnoreKeywords,
	}
}

// CheckDirs resolves src and dst to absolute paths and verifies both are
// existing directories.
func CheckDirs(src, dst string) (string, string, error) {
	absSrc, err := checkDir("source", src)
	if err != nil {
		return "", "", err
	}
	absDst, err := checkDir("destination", dst)
	if err != nil {
		return "", "", err
	}
	return absSrc, absDst, nil
}

func checkDir(role, p string) (string, error) {
	if p == "" {
		return "", &InvalidDirectoryError{Role: role, Path: p, Err: errors.New("no path given")}
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", &InvalidDirectoryError{Role: role, Path: p, Err: err}
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", &InvalidDirectoryError{Role: role, Path: p, Err: err}
	}
	if !info.IsDir() {
		return "", &InvalidDirectoryError{Role: role, Path: p}
	}
	return abs, nil
}

// Sync classifies every candidate under src and copies the portrait ones
// into dst. One file failing never stops the batch; outcomes come back in
// scan order. A missing ffprobe stops the batch and is returned as the
// *runner.LaunchError.
func (s *Syncer) Sync(ctx context.Context, src, dst string) ([]Outcome, error) {
	src, dst, err := CheckDirs(src, dst)
	if err != nil {
		return nil, err
	}

	files, err := Scan(src, dst, s.Filter())
	if err != nil {
		return nil, errors.Wrapf(err, "scan %s", src)
	}

	concurrent := s.Cfg.Concurrent
	if concurrent < 1 {
		concurrent = 1
	}
	log.Printf("対象: %d件", len(files))
	log.Printf("出力先: %s", dst)
	log.Printf("並列実行数: %d", concurrent)

	poolCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	outcomes := make([]Outcome, len(files))
	done := make([]bool, len(files))

	var wg sync.WaitGroup
	var fatalMu sync.Mutex
	var fatal error
	semaphore := make(chan struct{}, concurrent)

loop:
	for i, path := range files {
		if poolCtx.Err() != nil {
			break
		}
		select {
		case semaphore <- struct{}{}: // 実行枠を確保
		case <-poolCtx.Done():
			break loop
		}
		wg.Add(1)

		go func(i int, path string) {
			defer func() {
				<-semaphore // 実行枠を解放
				wg.Done()
			}()
			if poolCtx.Err() != nil {
				return
			}
			s.emit(poolCtx, FileFoundEvent{Path: path, Name: filepath.Base(path)})
			o, err := s.Process(poolCtx, path, dst)

			fatalMu.Lock()
			defer fatalMu.Unlock()
			if err != nil {
				if fatal == nil {
					fatal = err
					cancel()
				}
				return
			}
			// Files cut short by a missing ffprobe are not outcomes.
			if fatal == nil {
				outcomes[i] = o
				done[i] = true
			}
		}(i, path)
	}
	wg.Wait()

	result := make([]Outcome, 0, len(files))
	for i := range outcomes {
		if done[i] {
			result = append(result, outcomes[i])
		}
	}
	if fatal != nil {
		return result, fatal
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}
	log.Println("✅ すべて完了")
	return result, nil
}

// Process classifies one file and copies it into dst when it is portrait.
// The error is non-nil only when ffprobe cannot be launched at all; every
// other failure is reported in the Outcome.
func (s *Syncer) Process(ctx context.Context, path, dst string) (Outcome, error) {
	o, err := s.process(ctx, path, dst)
	if err != nil {
		log.Printf("❌ %s: %v", filepath.Base(path), err)
		return o, err
	}
	switch o.Status {
	case Copied:
		log.Printf("✅ %s", o)
		recordCopy(o)
	case Skipped:
		log.Printf("⏭ %s", o)
	default:
		log.Printf("❌ %s", o)
	}
	s.emit(ctx, OutcomeEvent{Outcome: o})
	return o, nil
}

func (s *Syncer) process(ctx context.Context, path, dst string) (Outcome, error) {
	o := Outcome{Source: path}

	r, err := s.Classifier.Classify(ctx, path)
	if err != nil {
		var le *runner.LaunchError
		if errors.As(err, &le) {
			return o, le
		}
		o.Status = Failed
		o.Reason = err.Error()
		return o, nil
	}
	o.Width, o.Height = r.Width, r.Height

	if !r.IsPortrait() {
		o.Status = Skipped
		o.Reason = fmt.Sprintf("landscape %s", r)
		return o, nil
	}

	out, err := fsx.CopyUnique(path, dst)
	if err != nil {
		o.Status = Failed
		o.Reason = fmt.Sprintf("copy failed: %v", err)
		return o, nil
	}
	o.Status = Copied
	o.Dest = out
	return o, nil
}

func (s *Syncer) emit(ctx context.Context, ev interface{}) {
	if s.EventChan == nil {
		return
	}
	select {
	case s.EventChan <- ev:
	case <-ctx.Done():
	}
}

func recordCopy(o Outcome) {
	var size int64
	if info, err := os.Stat(o.Dest); err == nil {
		size = info.Size()
	}
	logger.Record(struct {
		Type      string `json:"type"`
		Input     string `json:"input"`
		Output    string `json:"output"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
		Size      int64  `json:"size"`
		Timestamp string `json:"timestamp"`
	}{
		Type:      "copy_result",
		Input:     o.Source,
		Output:    o.Dest,
		Width:     o.Width,
		Height:    o.Height,
		Size:      size,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}
