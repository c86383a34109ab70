package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/jorgmikel2025/VideoSplitterApp/internal/config"
	"github.com/jorgmikel2025/VideoSplitterApp/internal/orient"
	"github.com/jorgmikel2025/VideoSplitterApp/internal/portrait"
	"github.com/jorgmikel2025/VideoSplitterApp/internal/runner"
)

var flagWatch bool

var portraitCmd = &cobra.Command{
	Use:   "portrait SOURCE DEST",
	Short: "縦向きの動画だけを DEST にコピーします",
	Long: `SOURCE 以下の動画 (mp4, mov, avi, mkv, webm) を ffprobe で調べ、
高さ > 幅 のものを DEST にコピーします。同名ファイルがある場合はランダムな接頭辞を付けて保存します。`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s := newSyncer(cfg)

		if flagWatch {
			log.Println("👀 監視モードを開始しました (Ctrl+C で終了)")
			return portrait.NewWatcher(s).Run(ctx, args[0], args[1])
		}

		outcomes, err := s.Sync(ctx, args[0], args[1])
		var copied, skipped, failed int
		for _, o := range outcomes {
			fmt.Println(o)
			switch o.Status {
			case portrait.Copied:
				copied++
			case portrait.Skipped:
				skipped++
			default:
				failed++
			}
		}
		if err != nil {
			return err
		}
		fmt.Printf("Portrait video copy completed: %d copied, %d skipped, %d failed\n", copied, skipped, failed)
		return nil
	},
}

func newSyncer(c *config.Config) *portrait.Syncer {
	classifier := orient.New(&runner.Exec{Timeout: c.ProbeTimeout()}, c.FFprobeBin)
	return portrait.New(c, classifier)
}

func addSyncFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.IntVar(&flagConcurrent, "concurrent", 0, "並列実行数")
	f.StringSliceVar(&flagKeywords, "keywords", []string{}, "ファイル名に含まれるキーワードでフィルタ")
	f.StringSliceVar(&flagIgnoreKeywords, "ignore-keywords", []string{}, "ファイル名に含まれるキーワードを除外")
	f.StringSliceVar(&flagExt, "ext", []string{}, "対象の拡張子")
	f.IntVar(&flagSettle, "settle", 0, "監視モードで新規ファイルを処理するまでの待ち秒数")
}

func init() {
	addSyncFlags(portraitCmd)
	portraitCmd.Flags().BoolVar(&flagWatch, "watch", false, "SOURCE を監視して新しいファイルを自動でコピーする")
	rootCmd.AddCommand(portraitCmd)
}
