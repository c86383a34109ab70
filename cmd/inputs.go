package cmd

import (
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// expandInputs turns files, directories and doublestar patterns into a
// deduplicated file list. Directories are searched recursively for the
// given extensions. Matches for which skip returns true are dropped; files
// named explicitly are always kept.
func expandInputs(inputPatterns []string, extensions []string, skip func(path string) bool) []string {
	var files []string
	videoExtensions := extensionSet(extensions)
	home, _ := os.UserHomeDir()

	for _, input := range inputPatterns {
		processedInput := input
		if input == "~" {
			processedInput = home
		} else if strings.HasPrefix(input, "~/") {
			processedInput = filepath.Join(home, input[2:])
		}

		var pattern string
		info, err := os.Stat(processedInput)
		switch {
		case err == nil && info.IsDir():
			pattern = filepath.Join(processedInput, "**", "*."+videoExtensions)
		case err == nil:
			if abs, err := filepath.Abs(processedInput); err == nil {
				processedInput = abs
			}
			files = append(files, processedInput)
			continue
		default:
			pattern = processedInput
		}

		if !filepath.IsAbs(pattern) {
			if abs, err := filepath.Abs(pattern); err == nil {
				pattern = abs
			}
		}

		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			log.Printf("警告: パターン '%s' の検索に失敗しました: %v", pattern, err)
			continue
		}
		for _, m := range matches {
			if skip != nil && skip(m) {
				continue
			}
			if fi, err := os.Stat(m); err == nil && fi.Mode().IsRegular() {
				files = append(files, m)
			}
		}
	}

	// Unique
	uniqueFiles := make(map[string]bool)
	var result []string
	for _, f := range files {
		if !uniqueFiles[f] {
			uniqueFiles[f] = true
			result = append(result, f)
		}
	}
	return result
}

// extensionSet builds a "{mp4,MP4,mov,MOV}" alternation.
func extensionSet(extensions []string) string {
	var alts []string
	for _, e := range extensions {
		e = strings.TrimPrefix(e, ".")
		lower, upper := strings.ToLower(e), strings.ToUpper(e)
		alts = append(alts, lower)
		if upper != lower {
			alts = append(alts, upper)
		}
	}
	return "{" + strings.Join(alts, ",") + "}"
}
