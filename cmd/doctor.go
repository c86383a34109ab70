package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/jorgmikel2025/VideoSplitterApp/internal/config"
	"github.com/jorgmikel2025/VideoSplitterApp/internal/logger"
	"github.com/jorgmikel2025/VideoSplitterApp/internal/runner"
	"github.com/jorgmikel2025/VideoSplitterApp/internal/updater"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "環境の診断を行います",
	Long:  `ffmpeg/ffprobe のインストール状況、ログディレクトリの権限、設定ファイルの状態などをチェックします。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log.Println("🏥 環境診断を開始します...")
		hasError := false

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()
		r := &runner.Exec{}

		// 1. ffmpeg / ffprobe
		for _, bin := range []string{cfg.FFmpegBin, cfg.FFprobeBin} {
			tool, err := updater.Lookup(ctx, r, bin)
			if err != nil {
				log.Printf("❌ %s が見つかりません。 `brew install ffmpeg` を実行してください。", bin)
				hasError = true
				continue
			}
			log.Printf("✅ %s found: %s", tool.Name, tool.Path)
			if tool.Version != "" {
				log.Printf("   Version: %s", tool.Version)
			}
		}

		// 2. Log directory
		logPath := cfg.LogFile
		if logPath == "" {
			logPath = logger.DefaultPath()
		}
		if err := checkWritable(filepath.Dir(logPath)); err != nil {
			log.Printf("❌ ログディレクトリへの書き込み権限がありません: %v", err)
			hasError = true
		} else {
			log.Printf("✅ ログディレクトリ権限 OK (%s)", filepath.Dir(logPath))
		}

		// 3. Config file
		cfgPath := cfgFile
		if cfgPath == "" {
			cfgPath = config.DefaultPath()
		}
		if _, err := os.Stat(cfgPath); err != nil {
			log.Println("ℹ️ 設定ファイルは見つかりませんでした (init未実行、デフォルト値を使用)")
		} else if _, err := config.Load(cfgPath); err != nil {
			log.Printf("❌ 設定ファイルを読み込めません: %v", err)
			hasError = true
		} else {
			log.Printf("✅ config found: %s", cfgPath)
		}

		if hasError {
			log.Println("\n❌ いくつかの問題が見つかりました。修正してください。")
			return fmt.Errorf("doctor found problems")
		}
		log.Println("\n✅ 診断完了: 概ね問題なさそうです！")
		return nil
	},
}

func checkWritable(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, "video-splitter-write-test-*")
	if err != nil {
		return err
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
