package builder

import "errors"

// Build failures wrap one of these, see ExitCode
var (
	ErrEnvironment = errors.New("environment error")
	ErrGraph       = errors.New("graph error")
	ErrFormat      = errors.New("format error")
	ErrCompile     = errors.New("compile error")
	ErrLink        = errors.New("link error")
	ErrTest        = errors.New("test error")
)

var (
	errNoEntry     = errors.New("target has no entry_point module to run")
	errManyEntries = errors.New("target has more than one entry_point module")
)

var exitCodes = []struct {
	err  error
	code int
}{
	{ErrEnvironment, 2},
	{ErrGraph, 3},
	{ErrFormat, 4},
	{ErrCompile, 5},
	{ErrLink, 6},
	{ErrTest, 7},
}

// ExitCode maps a build error to a distinct process exit status
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	for _, ec := range exitCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return 1
}
