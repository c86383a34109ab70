package portrait

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Filter decides which files under the source tree are candidates.
type Filter struct {
	Extensions     []string
	Keywords       []string
	IgnoreKeywords []string
}

func (f Filter) Match(name string) bool {
	return f.isTargetVideo(name) && f.shouldProcess(name)
}

func (f Filter) isTargetVideo(name string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	if ext == "" {
		return false
	}
	for _, v := range f.Extensions {
		if ext == strings.TrimPrefix(strings.ToLower(v), ".") {
			return true
		}
	}
	return false
}

// shouldProcess applies the keyword filters; an ignore match always wins.
func (f Filter) shouldProcess(name string) bool {
	lowerName := strings.ToLower(name)
	for _, k := range f.IgnoreKeywords {
		if strings.Contains(lowerName, strings.ToLower(k)) {
			return false
		}
	}

	if len(f.Keywords) == 0 {
		return true
	}
	for _, k := range f.Keywords {
		if strings.Contains(lowerName, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

// Scan walks root recursively, hidden entries included, and returns the
// matching files as absolute paths sorted by their path relative to root.
// Anything under exclude (the destination, when it sits inside the source)
// is skipped.
func Scan(root, exclude string, f Filter) ([]string, error) {
	root = filepath.Clean(root)
	if exclude != "" {
		exclude = filepath.Clean(exclude)
	}

	var rels []string
	err := doublestar.GlobWalk(os.DirFS(root), "**", func(p string, d fs.DirEntry) error {
		abs := filepath.Join(root, filepath.FromSlash(p))
		if exclude != "" && isUnder(abs, exclude) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() || !f.Match(d.Name()) {
			return nil
		}
		rels = append(rels, p)
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 強制的に安定した順序にする
	sort.Strings(rels)
	files := make([]string, len(rels))
	for i, r := range rels {
		files[i] = filepath.Join(root, filepath.FromSlash(r))
	}
	return files, nil
}

func isUnder(path, base string) bool {
	if path == base {
		return true
	}
	return strings.HasPrefix(path, base+string(filepath.Separator))
}
