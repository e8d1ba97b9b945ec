package builder

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/qobs-build/qmod/internal/msg"
)

// testSources lists the C++ files below the module's Tests dir
func testSources(mod *Module) ([]string, error) {
	dir := mod.TestsDir()
	if !fileExists(dir) {
		return nil, nil
	}
	matches, err := doublestar.Glob(os.DirFS(dir), "**/*.{cpp,cc}", doublestar.WithFilesOnly())
	if err != nil {
		return nil, err
	}
	files := make([]string, len(matches))
	for i, match := range matches {
		files[i] = filepath.Join(dir, filepath.FromSlash(match))
	}
	slices.Sort(files)
	return files, nil
}

func (s *Session) testBinaryPath(mod *Module) string {
	return filepath.Join(s.intermediateDir(mod), mod.Name+"-tests"+s.platform.exeSuffix)
}

// testCommands returns the command building the test binary of mod and the
// command running it
func (s *Session) testCommands(mod *Module, tests, objs []string) (build, run Command) {
	out := s.testBinaryPath(mod)

	args := []string{s.Toolchain.CXX}
	args = append(args, tests...)
	args = append(args, objs...)
	args = append(args, "-o", out, "-std="+mod.CxxStandard)
	args = append(args, s.extraArgs(mod)...)
	args = append(args, s.includeArgs(mod)...)
	args = append(args, "-L"+s.binariesDir())
	args = append(args, s.linkLibs(mod)...)
	if mod.Binary != EntryPoint {
		args = append(args, "-l"+mod.libName(s.Target.Name))
	}

	build = Command{Kind: KindTestBuild, Argv: args, Output: out}
	run = Command{Kind: KindTestRun, Argv: []string{out}}
	return build, run
}

var mainRegex = regexp.MustCompile(`(?m)^\s*(?:int|auto)\s+main\s*\(`)

// definesMain reports whether the source file src defines a main function
func definesMain(src string) (bool, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return false, err
	}
	return mainRegex.Match(data), nil
}

// testObjects are the objects a test binary links. An entry point's own main
// would clash with the one of the tests, so its object is left out.
func (s *Session) testObjects(mod *Module, srcs Sources) ([]string, error) {
	if mod.Binary != EntryPoint {
		return objects(srcs, s.intermediateDir(mod)), nil
	}
	var kept Sources
	for _, files := range []struct {
		in  []string
		out *[]string
	}{{srcs.C, &kept.C}, {srcs.Cxx, &kept.Cxx}} {
		for _, src := range files.in {
			isMain, err := definesMain(src)
			if err != nil {
				return nil, err
			}
			if !isMain {
				*files.out = append(*files.out, src)
			}
		}
	}
	return objects(kept, s.intermediateDir(mod)), nil
}

// testModule builds and runs the tests of mod against the objects of srcs
func (s *Session) testModule(mod *Module, srcs Sources) error {
	tests, err := testSources(mod)
	if err != nil {
		return fmt.Errorf("%w: failed to collect tests of module %q: %v", ErrTest, mod.Name, err)
	}
	if len(tests) == 0 {
		msg.Warn("module '%s' enables tests but has no test sources in %s", mod.Name, mod.TestsDir())
		return nil
	}

	objs, err := s.testObjects(mod, srcs)
	if err != nil {
		return fmt.Errorf("%w: failed to collect objects of module %q: %v", ErrTest, mod.Name, err)
	}

	msg.Info("Testing module '%s'", mod.Name)
	build, run := s.testCommands(mod, tests, objs)

	status, err := s.execute(build)
	if err != nil || status != 0 {
		return fmt.Errorf("%w: unable to build tests for module %q: %s", ErrTest, mod.Name, failure(status, err))
	}
	status, err = s.execute(run)
	if err != nil || status != 0 {
		return fmt.Errorf("%w: tests of module %q failed: %s", ErrTest, mod.Name, failure(status, err))
	}
	return nil
}
