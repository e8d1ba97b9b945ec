package builder

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// FormatChecker validates the formatting of a single source file
type FormatChecker interface {
	Check(path string) error
}

// ClangFormat checks files with clang-format and prints what it would change
type ClangFormat struct {
	Binary string
	W      io.Writer
}

func (c ClangFormat) binary() string {
	if c.Binary == "" {
		return "clang-format"
	}
	return c.Binary
}

func (c ClangFormat) Check(path string) error {
	cmd := exec.Command(c.binary(), "--Werror", "--fail-on-incomplete-format", "--dry-run", path)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	err := cmd.Run()
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return fmt.Errorf("could not run %s: %w", c.binary(), err)
	}

	w := c.W
	if w == nil {
		w = os.Stdout
	}
	if diff, derr := c.diff(path); derr == nil && diff != "" {
		fmt.Fprintln(w, diff)
	} else {
		w.Write(stderr.Bytes())
	}
	return fmt.Errorf("%s exited with status %d", c.binary(), exitErr.ExitCode())
}

// diff renders the changes clang-format would make to path
func (c ClangFormat) diff(path string) (string, error) {
	orig, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	formatted, err := exec.Command(c.binary(), path).Output()
	if err != nil {
		return "", err
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(string(orig), string(formatted), false)
	if len(diffs) == 1 && diffs[0].Type == diffmatchpatch.DiffEqual {
		return "", nil
	}
	return dmp.DiffPrettyText(dmp.DiffCleanupSemantic(diffs)), nil
}
