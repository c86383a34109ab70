package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/jorgmikel2025/VideoSplitterApp/internal/clip"
	"github.com/jorgmikel2025/VideoSplitterApp/internal/config"
	"github.com/jorgmikel2025/VideoSplitterApp/internal/probe"
	"github.com/jorgmikel2025/VideoSplitterApp/internal/runner"
)

var flagSplitTUI bool

var splitCmd = &cobra.Command{
	Use:   "split [filesOrDirs...]",
	Short: "動画を固定秒数のクリップに分割します",
	Long: `ffmpeg で動画を --clip-seconds 秒ごとのクリップに分割します。
--mode segment (既定) は ffmpeg の segment 機能で1回で分割し、
--mode per-clip はクリップごとに先頭キーフレームを強制して再エンコードします。`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// Earlier clips in split/ (or --out) are not inputs.
		s := newSplitter(cfg)
		files := expandInputs(args, cfg.Extensions, s.IsOutput)
		if len(files) == 0 {
			return fmt.Errorf("分割対象が見つかりません: %v", args)
		}

		if flagSplitTUI {
			title := fmt.Sprintf("Split: %d files (%gs, %s)", len(files), cfg.ClipSeconds, cfg.Mode)
			return runTUI(ctx, title, func(ctx context.Context, events chan<- interface{}) error {
				s.EventChan = events
				return splitAll(ctx, s, files)
			})
		}
		return splitAll(ctx, s, files)
	},
}

// splitAll splits files one after another. A missing ffmpeg/ffprobe or a
// cancelled context ends the whole batch; other failures are counted.
func splitAll(ctx context.Context, s *clip.Splitter, files []string) error {
	failed := 0
	for _, f := range files {
		res, err := s.Split(ctx, f)
		if err != nil {
			if runner.IsLaunch(err) || ctx.Err() != nil {
				return err
			}
			log.Printf("❌ 分割失敗: %s -> %v", f, err)
			failed++
			continue
		}
		log.Printf("%s: %d clips -> %s", f, len(res.Clips), res.OutputDir)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed to split", failed, len(files))
	}
	log.Println("✅ すべて完了")
	return nil
}

func newSplitter(c *config.Config) *clip.Splitter {
	// Probes are read-only, so they run even in dry-run mode.
	prober := probe.New(&runner.Exec{Timeout: c.ProbeTimeout()}, c.FFprobeBin)
	return clip.New(c, &runner.Exec{Timeout: c.Timeout(), DryRun: c.DryRun}, prober)
}

func init() {
	f := splitCmd.Flags()
	f.Float64Var(&flagClipSeconds, "clip-seconds", 0, "クリップの長さ (秒)")
	f.StringVar(&flagMode, "mode", "", "分割方式: segment | per-clip")
	f.StringVar(&flagOnError, "on-error", "", "per-clipでの失敗時の動作: abort | continue")
	f.StringVar(&flagOut, "out", "", "出力先ディレクトリ (既定: 入力ファイルと同じ場所の split/)")
	f.StringVar(&flagVCodec, "vcodec", "", "映像コーデック")
	f.StringVar(&flagACodec, "acodec", "", "音声コーデック (copy も可)")
	f.Float64Var(&flagSeekOffset, "seek-offset", 0, "各クリップの開始位置に加える秒数 (per-clip)")
	f.Float64Var(&flagTrim, "trim", 0, "各クリップの長さから引く秒数 (per-clip)")
	f.BoolVar(&flagDryRun, "dry-run", false, "実行せずにコマンドを表示する")
	f.StringVar(&flagProfile, "profile", "", "使用するプロファイル名")
	f.BoolVar(&flagSplitTUI, "tui", false, "進捗をTUIで表示する")
	rootCmd.AddCommand(splitCmd)
}
