package cmd

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

var (
	// ldflags will set these
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const ffmpegGoModule = "github.com/u2takey/ffmpeg-go"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "バージョン情報を表示します",
	Run: func(cmd *cobra.Command, args []string) {
		info, ok := debug.ReadBuildInfo()
		fmt.Printf("video-splitter %s\n", resolveVersion(version, info, ok))
		fmt.Printf("Commit:    %s\n", commit)
		fmt.Printf("Date:      %s\n", date)
		if !ok {
			return
		}
		fmt.Printf("Go:        %s\n", info.GoVersion)
		if v := depVersion(info, ffmpegGoModule); v != "" {
			fmt.Printf("ffmpeg-go: %s\n", v)
		}
	},
}

// resolveVersion prefers the ldflags value, then the module version of a
// `go install`ed binary.
func resolveVersion(ldflags string, info *debug.BuildInfo, ok bool) string {
	if ldflags != "dev" || !ok || info.Main.Version == "" || info.Main.Version == "(devel)" {
		return ldflags
	}
	return info.Main.Version
}

func depVersion(info *debug.BuildInfo, path string) string {
	for _, d := range info.Deps {
		if d.Path != path {
			continue
		}
		if d.Replace != nil {
			return d.Replace.Version
		}
		return d.Version
	}
	return ""
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
