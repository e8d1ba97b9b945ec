package builder

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

const objectSuffix = ".o"

// objectPath is where the object file of src is placed
func objectPath(intermediateDir, src string) string {
	return filepath.Join(intermediateDir, filepath.Base(src)+objectSuffix)
}

// isCompiled reports whether obj exists and was modified strictly after src.
// Only timestamps are compared: touching a source forces a recompile and a
// copy that preserves timestamps can hide a change.
func isCompiled(src, obj string) (bool, error) {
	objStat, err := os.Stat(obj)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	srcStat, err := os.Stat(src)
	if err != nil {
		return false, err
	}
	return objStat.ModTime().After(srcStat.ModTime()), nil
}

// pendingSources drops every source whose object is still valid. With
// useCache unset everything is pending.
func pendingSources(srcs Sources, intermediateDir string, useCache bool) (Sources, error) {
	if !useCache {
		return srcs, nil
	}

	filter := func(files []string) ([]string, error) {
		var pending []string
		for _, src := range files {
			compiled, err := isCompiled(src, objectPath(intermediateDir, src))
			if err != nil {
				return nil, err
			}
			if !compiled {
				pending = append(pending, src)
			}
		}
		return pending, nil
	}

	var (
		out Sources
		err error
	)
	if out.C, err = filter(srcs.C); err != nil {
		return Sources{}, err
	}
	if out.Cxx, err = filter(srcs.Cxx); err != nil {
		return Sources{}, err
	}
	return out, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
