package builder

import (
	"bytes"
	"os"
	"os/exec"
	"regexp"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"
)

var (
	commonCCompilers   = []string{"gcc", "clang", "cc"}
	commonCxxCompilers = []string{"g++", "clang++", "c++"}
	commonArchivers    = []string{"ar", "llvm-ar"}
)

const unknownVersion = "0.0.1"

// Toolchain is the resolved compiler metadata of the host
type Toolchain struct {
	CC, CXX, AR string
	CCVersion   string
	CXXVersion  string
	OS          string
}

// withDefaults fills unset compilers with the gcc-compatible defaults
func (tc Toolchain) withDefaults() Toolchain {
	if tc.CC == "" {
		tc.CC = "gcc"
	}
	if tc.CXX == "" {
		tc.CXX = "g++"
	}
	if tc.AR == "" {
		tc.AR = "ar"
	}
	if tc.CCVersion == "" {
		tc.CCVersion = unknownVersion
	}
	if tc.CXXVersion == "" {
		tc.CXXVersion = unknownVersion
	}
	if tc.OS == "" {
		tc.OS = runtime.GOOS
	}
	return tc
}

// findTool returns $env, the first candidate found in PATH, or the first candidate as is
func findTool(env string, candidates []string) string {
	if v := os.Getenv(env); v != "" {
		return v
	}
	for _, tool := range candidates {
		if _, err := exec.LookPath(tool); err == nil {
			return tool
		}
	}
	return candidates[0]
}

// DetectToolchain resolves the compilers and probes their versions. Probe
// failures are not fatal, the version stays unknown.
func DetectToolchain() Toolchain {
	tc := Toolchain{
		CC:  findTool("CC", commonCCompilers),
		CXX: findTool("CXX", commonCxxCompilers),
		AR:  findTool("AR", commonArchivers),
		OS:  runtime.GOOS,
	}

	var eg errgroup.Group
	eg.Go(func() error {
		tc.CCVersion = probeVersion(tc.CC)
		return nil
	})
	eg.Go(func() error {
		tc.CXXVersion = probeVersion(tc.CXX)
		return nil
	})
	eg.Wait()

	return tc.withDefaults()
}

var versionRegex = regexp.MustCompile(`\d+\.\d+(\.\d+)?`)

func probeVersion(compiler string) string {
	var out bytes.Buffer
	cmd := exec.Command(compiler, "--version")
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return unknownVersion
	}
	return parseVersion(out.String())
}

// parseVersion extracts the version from the first line of `cc --version`,
// preferring the last version-looking token (gcc prints it last)
func parseVersion(output string) string {
	line, _, _ := strings.Cut(output, "\n")
	matches := versionRegex.FindAllString(line, -1)
	if len(matches) == 0 {
		return unknownVersion
	}
	return matches[len(matches)-1]
}
