// Package runnertest provides a scripted runner.Runner for tests.
package runnertest

import (
	"context"
	"sync"

	"github.com/jorgmikel2025/VideoSplitterApp/internal/runner"
)

// Fake records every command and answers with Respond, or a zero Result
// when Respond is nil.
type Fake struct {
	Respond func(cmd runner.Command) (runner.Result, error)

	mu    sync.Mutex
	calls []runner.Command
}

func (f *Fake) Run(_ context.Context, cmd runner.Command) (runner.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	f.mu.Unlock()
	if f.Respond == nil {
		return runner.Result{}, nil
	}
	return f.Respond(cmd)
}

func (f *Fake) Calls() []runner.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]runner.Command, len(f.calls))
	copy(out, f.calls)
	return out
}

// ArgAfter returns the argument following flag, or "" if flag is absent.
func ArgAfter(args []string, flag string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}
