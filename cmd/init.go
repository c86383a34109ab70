package cmd

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"text/template"

	"github.com/spf13/cobra"

	"github.com/jorgmikel2025/VideoSplitterApp/internal/config"
)

var flagForce bool

const configTemplate = `# video-splitter config
ffmpegBin: {{.FFmpegBin}}
ffprobeBin: {{.FFprobeBin}}

# split
clipSeconds: {{.ClipSeconds}}
mode: {{.Mode}}          # segment | per-clip
onError: {{.OnError}}       # abort | continue (per-clip only)
videoCodec: {{.VideoCodec}}
audioCodec: {{.AudioCodec}}
seekOffsetSeconds: 0
trimSeconds: 0

# portrait
extensions:{{range .Extensions}}
  - {{.}}{{end}}
concurrent: {{.Concurrent}}
settleSeconds: {{.SettleSeconds}}

timeoutSeconds: {{.TimeoutSeconds}}
probeTimeoutSeconds: {{.ProbeTimeoutSeconds}}

profiles:
  shorts:
    clipSeconds: 60
    mode: per-clip
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "初期セットアップを行います",
	Long:  `設定ファイル (~/.config/video-splitter/config.yaml) をデフォルト値で生成します。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			path = config.DefaultPath()
		}
		if err := writeStarterConfig(path, flagForce); err != nil {
			return err
		}
		log.Printf("✅ 設定ファイルを作成: %s", path)
		return nil
	},
}

func writeStarterConfig(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s は既に存在します (上書きするには --force)", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("ディレクトリ作成失敗: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("設定ファイルの作成に失敗: %w", err)
	}
	t := template.Must(template.New("config").Parse(configTemplate))
	if err := t.Execute(f, config.NewDefault()); err != nil {
		f.Close()
		return fmt.Errorf("設定ファイルの書き込みに失敗: %w", err)
	}
	return f.Close()
}

func init() {
	initCmd.Flags().BoolVar(&flagForce, "force", false, "既存の設定ファイルを上書きする")
	rootCmd.AddCommand(initCmd)
}
