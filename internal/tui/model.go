package tui

import (
	"fmt"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jorgmikel2025/VideoSplitterApp/internal/clip"
	"github.com/jorgmikel2025/VideoSplitterApp/internal/portrait"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A0A0A0"))

	failStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F87"))
)

const maxHistory = 200

type tickMsg time.Time

// DoneMsg tells the model that the background pipeline finished.
type DoneMsg struct {
	Err error
}

type Model struct {
	title string
	// files seen but not yet classified, by path
	pending []string
	history []string
	offset  int // scroll position in history

	copied, skipped, failed int
	done                    bool
	err                     error

	sub chan interface{} // Subscription to pipeline events
}

func NewModel(title string, sub chan interface{}) Model {
	return Model{
		title:   title,
		pending: []string{},
		history: []string{},
		sub:     sub,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		waitForActivity(m.sub),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			if m.offset > 0 {
				m.offset--
			}
		case "down", "j":
			if m.offset < len(m.history)-1 {
				m.offset++
			}
		}
	case tickMsg:
		return m, tickCmd()

	case DoneMsg:
		m.done = true
		m.err = msg.Err
		return m, waitForActivity(m.sub)

	case portrait.FileFoundEvent:
		m.pending = append(m.pending, msg.Path)
		return m, waitForActivity(m.sub)

	case portrait.OutcomeEvent:
		m.removePending(msg.Outcome.Source)
		switch msg.Outcome.Status {
		case portrait.Copied:
			m.copied++
		case portrait.Skipped:
			m.skipped++
		default:
			m.failed++
		}
		m.push(msg.Outcome.String())
		return m, waitForActivity(m.sub)

	case clip.ClipStartEvent:
		m.push(fmt.Sprintf("🚀 Clip %d/%d: %s", msg.Index, msg.Total, filepath.Base(msg.Out)))
		return m, waitForActivity(m.sub)

	case clip.ClipDoneEvent:
		m.copied++
		m.push("✅ Done: " + filepath.Base(msg.Out))
		return m, waitForActivity(m.sub)

	case clip.ClipFailedEvent:
		m.failed++
		m.push(fmt.Sprintf("❌ Failed: clip %d: %v", msg.Index, msg.Err))
		return m, waitForActivity(m.sub)
	}
	return m, nil
}

func (m *Model) removePending(path string) {
	for i, p := range m.pending {
		if p == path {
			m.pending = append(m.pending[:i], m.pending[i+1:]...)
			return
		}
	}
}

// push prepends a line to the history, newest first.
func (m *Model) push(line string) {
	m.history = append([]string{line}, m.history...)
	if len(m.history) > maxHistory {
		m.history = m.history[:maxHistory]
	}
}

func (m Model) View() string {
	s := titleStyle.Render("🎬 "+m.title) + "\n\n"

	s += fmt.Sprintf("Copied/Done: %d  Skipped: %d  Failed: %d\n\n", m.copied, m.skipped, m.failed)

	s += "処理待ちキュー:\n"
	if len(m.pending) == 0 {
		s += statusStyle.Render("  (なし)") + "\n"
	}
	for _, p := range m.pending {
		s += fmt.Sprintf("  %s\n", filepath.Base(p))
	}

	s += "\n結果ログ:\n"
	if len(m.history) == 0 {
		s += statusStyle.Render("  (履歴なし)") + "\n"
	}
	for _, h := range m.history[min(m.offset, len(m.history)):] {
		s += fmt.Sprintf("  %s\n", h)
	}

	if m.done {
		if m.err != nil {
			s += "\n" + failStyle.Render("Error: "+m.err.Error()) + "\n"
		} else {
			s += "\n" + statusStyle.Render("完了") + "\n"
		}
	}

	s += "\n操作: [q] 終了  [↑/↓] スクロール\n"
	return s
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitForActivity(sub chan interface{}) tea.Cmd {
	return func() tea.Msg {
		return <-sub
	}
}
