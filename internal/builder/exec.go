package builder

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

type CommandKind int

const (
	KindCompile CommandKind = iota
	KindArchive
	KindLink
	KindTestBuild
	KindTestRun
)

var commandVerbs = map[CommandKind]string{
	KindCompile:   "CC",
	KindArchive:   "AR",
	KindLink:      "LINK",
	KindTestBuild: "CC",
	KindTestRun:   "TEST",
}

func (k CommandKind) String() string { return commandVerbs[k] }

// Command is one fully formed toolchain invocation. Argv[0] is the program.
type Command struct {
	Kind   CommandKind
	Argv   []string
	Source string // the compiled file, compile commands only
	Output string // the file the command produces, if any
}

func (c Command) String() string { return strings.Join(c.Argv, " ") }

// Runner executes a command and returns its exit status. err is only set
// when the process could not be run at all.
type Runner interface {
	Run(cmd Command) (status int, err error)
}

// ExecRunner runs commands as child processes
type ExecRunner struct {
	Stdout, Stderr io.Writer
}

func (r ExecRunner) Run(c Command) (int, error) {
	if len(c.Argv) == 0 {
		return -1, errors.New("empty command")
	}
	if c.Output != "" {
		if err := os.MkdirAll(filepath.Dir(c.Output), 0755); err != nil {
			return -1, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	cmd := exec.Command(c.Argv[0], c.Argv[1:]...)
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	if c.Kind == KindTestRun {
		cmd.Stdin = os.Stdin
	}

	err := cmd.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	if err != nil {
		return -1, err
	}
	return 0, nil
}

// failure describes why a command did not succeed
func failure(status int, err error) string {
	if err != nil {
		return err.Error()
	}
	return fmt.Sprintf("exit status %d", status)
}
