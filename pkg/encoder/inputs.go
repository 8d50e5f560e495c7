package encoder

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// VideoExtensions are the file types picked up from directories.
var VideoExtensions = []string{".mp4", ".mkv", ".avi", ".mov", ".ts", ".m2ts", ".webm", ".flv"}

// IsVideo reports whether path has one of VideoExtensions.
func IsVideo(path string) bool {
	return slices.Contains(VideoExtensions, strings.ToLower(filepath.Ext(path)))
}

// CollectInputs expands paths into the files to encode. Files are taken as
// given; directories contribute their video files (not recursively), sorted
// by name. Duplicates are dropped.
func CollectInputs(paths []string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)
	add := func(p string) {
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("input %s: %w", p, err)
		}
		if !info.IsDir() {
			add(p)
			continue
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, fmt.Errorf("input %s: %w", p, err)
		}
		for _, e := range entries {
			if e.Type()&fs.ModeType == 0 && IsVideo(e.Name()) {
				add(filepath.Join(p, e.Name()))
			}
		}
	}
	return files, nil
}

// OutputPath is where input lands inside dir.
func OutputPath(dir, input string) string {
	stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(dir, stem+".mp4")
}
