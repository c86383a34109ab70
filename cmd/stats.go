package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jorgmikel2025/VideoSplitterApp/internal/logger"
)

type LogEntry struct {
	Type        string  `json:"type"`
	Input       string  `json:"input"`
	Output      string  `json:"output"`
	DurationSec float64 `json:"duration_sec"`
	Size        int64   `json:"size"`
	Timestamp   string  `json:"timestamp"`
}

type statsSummary struct {
	Clips       int
	ClipSeconds float64
	Inputs      int
	Copies      int
	CopiedBytes int64
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "処理統計を表示します",
	Long:  `過去の処理履歴(ログファイル)を集計し、作成したクリップ数やコピーした縦動画の数を表示します。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logPath := logger.DefaultPath()
		if cfg != nil && cfg.LogFile != "" {
			logPath = cfg.LogFile
		}

		f, err := os.Open(logPath)
		if err != nil {
			return fmt.Errorf("ログファイルを開けませんでした: %w", err)
		}
		defer f.Close()

		s, err := collectStats(f)
		if err != nil {
			log.Printf("⚠️ ログの読み込み中にエラー: %v", err)
		}

		const separator = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"
		fmt.Println(separator)
		fmt.Printf("📊 video-splitter 統計レポート\n")
		fmt.Println(separator)
		fmt.Printf("分割した動画:   %d 本\n", s.Inputs)
		fmt.Printf("作成クリップ:   %d 本\n", s.Clips)
		fmt.Printf("クリップ合計:   %s\n", formatDuration(s.ClipSeconds))
		fmt.Printf("縦動画コピー:   %d 本\n", s.Copies)
		fmt.Printf("コピー合計:     %s\n", formatBytes(s.CopiedBytes))
		fmt.Println(separator)
		return nil
	},
}

// collectStats sums the clip_result and copy_result records in a log.
func collectStats(r io.Reader) (statsSummary, error) {
	var s statsSummary
	inputs := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		// Log lines start with "2006/01/02 15:04:05 file.go:10: {...}"
		idx := strings.Index(line, "{")
		if idx == -1 {
			continue
		}

		var entry LogEntry
		if err := json.Unmarshal([]byte(line[idx:]), &entry); err != nil {
			continue
		}

		switch entry.Type {
		case "clip_result":
			s.Clips++
			s.ClipSeconds += entry.DurationSec
			inputs[entry.Input] = true
		case "copy_result":
			s.Copies++
			s.CopiedBytes += entry.Size
		}
	}
	s.Inputs = len(inputs)
	return s, scanner.Err()
}

func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}

func formatDuration(sec float64) string {
	d := time.Duration(sec * float64(time.Second))
	return d.String()
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
