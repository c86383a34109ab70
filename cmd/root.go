package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jorgmikel2025/VideoSplitterApp/internal/config"
	"github.com/jorgmikel2025/VideoSplitterApp/internal/logger"
	"github.com/jorgmikel2025/VideoSplitterApp/internal/updater"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "video-splitter",
	Short: "動画を一定秒数のクリップに分割し、縦動画だけをコピーします。",
	Long: `ffmpeg/ffprobe を使って動画を固定長のクリップに分割 (split) し、
フォルダ内の縦向き動画だけを別フォルダへコピー (portrait) するCLIツール。`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize Config
		loadedCfg, err := config.Load(cfgFile)
		if err != nil {
			log.Printf("設定ファイルの読み込みに失敗しました (デフォルト値を使用します): %v", err)
			loadedCfg = config.NewDefault()
		}
		cfg = loadedCfg

		// Override config file values with flags only if the flag was changed.
		if err := updateConfigFromFlags(cmd, cfg); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		// Setup Logger
		logger.Setup(cfg.LogFile)

		if cmd.Name() != versionCmd.Name() && cmd.Name() != doctorCmd.Name() {
			updater.CheckTools(cfg.FFmpegBin, cfg.FFprobeBin)
		}
		return nil
	},
}

// Temporary variables for flags
var (
	flagFFmpegBin      string
	flagFFprobeBin     string
	flagTimeout        int
	flagLogFile        string
	flagClipSeconds    float64
	flagMode           string
	flagOnError        string
	flagOut            string
	flagVCodec         string
	flagACodec         string
	flagSeekOffset     float64
	flagTrim           float64
	flagDryRun         bool
	flagProfile        string
	flagConcurrent     int
	flagKeywords       []string
	flagIgnoreKeywords []string
	flagExt            []string
	flagSettle         int
)

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "設定ファイルのパス (default ~/.config/video-splitter/config.yaml)")
	pf.StringVar(&flagFFmpegBin, "ffmpeg-bin", "", "ffmpegのバイナリパスを明示的に指定する")
	pf.StringVar(&flagFFprobeBin, "ffprobe-bin", "", "ffprobeのバイナリパスを明示的に指定する")
	pf.IntVar(&flagTimeout, "timeout", 0, "外部コマンド1回あたりのタイムアウト秒数 (0で無制限)")
	pf.StringVar(&flagLogFile, "log-file", "", "ログファイルのパス")
}

func updateConfigFromFlags(cmd *cobra.Command, c *config.Config) error {
	flags := cmd.Flags()

	// 1. Apply Profile first if exists
	if flags.Changed("profile") {
		if _, err := c.ApplyProfile(flagProfile); err != nil {
			return err
		}
		log.Printf("ℹ️ プロファイル '%s' を適用しました (%.3gs, %s)", flagProfile, c.ClipSeconds, c.Mode)
	}

	if flags.Changed("ffmpeg-bin") {
		c.FFmpegBin = flagFFmpegBin
	}
	if flags.Changed("ffprobe-bin") {
		c.FFprobeBin = flagFFprobeBin
	}
	if flags.Changed("timeout") {
		c.TimeoutSeconds = flagTimeout
	}
	if flags.Changed("log-file") {
		c.LogFile = flagLogFile
	}
	if flags.Changed("clip-seconds") {
		c.ClipSeconds = flagClipSeconds
	}
	if flags.Changed("mode") {
		c.Mode = flagMode
	}
	if flags.Changed("on-error") {
		c.OnError = flagOnError
	}
	if flags.Changed("out") {
		c.OutputDir = flagOut
	}
	if flags.Changed("vcodec") {
		c.VideoCodec = flagVCodec
	}
	if flags.Changed("acodec") {
		c.AudioCodec = flagACodec
	}
	if flags.Changed("seek-offset") {
		c.SeekOffsetSeconds = flagSeekOffset
	}
	if flags.Changed("trim") {
		c.TrimSeconds = flagTrim
	}
	if flags.Changed("dry-run") {
		c.DryRun = flagDryRun
	}
	if flags.Changed("concurrent") {
		c.Concurrent = flagConcurrent
	}
	if flags.Changed("keywords") {
		c.Keywords = flagKeywords
	}
	if flags.Changed("ignore-keywords") {
		c.IgnoreKeywords = flagIgnoreKeywords
	}
	if flags.Changed("ext") {
		c.Extensions = flagExt
	}
	if flags.Changed("settle") {
		c.SettleSeconds = flagSettle
	}
	return nil
}
