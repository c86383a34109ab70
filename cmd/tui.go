package cmd

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jorgmikel2025/VideoSplitterApp/internal/logger"
	"github.com/jorgmikel2025/VideoSplitterApp/internal/portrait"
	"github.com/jorgmikel2025/VideoSplitterApp/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui SOURCE DEST",
	Short: "TUIモードで縦動画のコピーと監視を行います (Interactive)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s := newSyncer(cfg)
		title := fmt.Sprintf("Portrait: %s -> %s", args[0], args[1])

		return runTUI(cmd.Context(), title, func(ctx context.Context, events chan<- interface{}) error {
			s.EventChan = events
			// Existing files first, then watch.
			if _, err := s.Sync(ctx, args[0], args[1]); err != nil {
				return err
			}
			return portrait.NewWatcher(s).Run(ctx, args[0], args[1])
		})
	},
}

// runTUI runs work in the background and renders the events it sends until
// the user quits. Quitting cancels work; its error, unless it is the
// cancellation itself, is returned once the screen is restored.
func runTUI(parent context.Context, title string, work func(ctx context.Context, events chan<- interface{}) error) error {
	// Mute stdout logging to prevent TUI corruption
	logger.MuteStdout()

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	eventChan := make(chan interface{}, 100)
	errc := make(chan error, 1)
	go func() {
		err := work(ctx, eventChan)
		errc <- err
		select {
		case eventChan <- tui.DoneMsg{Err: err}:
		case <-ctx.Done():
		}
	}()

	m := tui.NewModel(title, eventChan)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, runErr := p.Run()
	cancel()
	if err := <-errc; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if runErr != nil && parent.Err() == nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return fmt.Errorf("tui: %w", runErr)
	}
	return nil
}

func init() {
	addSyncFlags(tuiCmd)
	rootCmd.AddCommand(tuiCmd)
}
