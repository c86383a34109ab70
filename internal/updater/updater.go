package updater

import (
	"context"
	"log"
	"os/exec"
	"strings"
	"time"

	"github.com/jorgmikel2025/VideoSplitterApp/internal/runner"
)

type Tool struct {
	Name    string
	Path    string
	Version string
}

// Lookup resolves bin on PATH and reads the first line of `bin -version`.
func Lookup(ctx context.Context, r runner.Runner, bin string) (Tool, error) {
	t := Tool{Name: bin}
	path, err := exec.LookPath(bin)
	if err != nil {
		return t, &runner.LaunchError{Bin: bin, Err: err}
	}
	t.Path = path

	res, err := r.Run(ctx, runner.Command{Bin: path, Args: []string{"-version"}})
	if err == nil && res.ExitCode == 0 {
		t.Version = res.FirstLine()
	}
	return t, nil
}

// CheckTools warns at startup when ffmpeg or ffprobe is missing, and hints
// at a brew upgrade when one is available.
func CheckTools(ffmpegBin, ffprobeBin string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	r := &runner.Exec{}

	for _, bin := range []string{ffmpegBin, ffprobeBin} {
		if _, err := exec.LookPath(bin); err != nil {
			log.Printf("⚠️ %s が見つかりません。インストールを推奨します: `brew install ffmpeg`", bin)
			return
		}
	}

	if _, err := exec.LookPath("brew"); err == nil {
		res, err := r.Run(ctx, runner.Command{Bin: "brew", Args: []string{"outdated", "ffmpeg"}})
		if err == nil && res.ExitCode == 0 && strings.Contains(res.Stdout, "ffmpeg") {
			log.Println("ℹ️ ffmpeg のアップデートが可能です。自動更新は設定されていませんが、以下で更新できます:")
			log.Println("   brew upgrade ffmpeg")
		}
	}
}
