package builder

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Sources are the compilable files of a module, split by language
type Sources struct {
	C   []string
	Cxx []string
}

func (s Sources) Len() int { return len(s.C) + len(s.Cxx) }

func isCxx(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cpp", ".cc":
		return true
	}
	return false
}

func isC(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".c"
}

// ScanSources recursively collects .c, .cpp and .cc files below dir. A
// missing dir yields no sources.
func ScanSources(dir string) (Sources, error) {
	var srcs Sources
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return srcs, nil
	}

	matches, err := doublestar.Glob(os.DirFS(dir), "**/*.{c,cc,cpp}", doublestar.WithFilesOnly())
	if err != nil {
		return srcs, err
	}
	for _, match := range matches {
		path := filepath.Join(dir, filepath.FromSlash(match))
		switch {
		case isC(path):
			srcs.C = append(srcs.C, path)
		case isCxx(path):
			srcs.Cxx = append(srcs.Cxx, path)
		}
	}
	slices.Sort(srcs.C)
	slices.Sort(srcs.Cxx)
	return srcs, nil
}
