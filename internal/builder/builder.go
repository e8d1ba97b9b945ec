package builder

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/qobs-build/qmod/internal/builder/gen"
	"github.com/qobs-build/qmod/internal/msg"
)

// Options configure one build invocation
type Options struct {
	Root      string // invocation root holding Source/ and Build/
	BuildType BuildType

	DryRun            bool // synthesize commands without running the toolchain
	NoCache           bool // recompile every source regardless of timestamps
	Tests             bool // build and run tests of modules that enable them
	FormatCheck       bool // clang-format check C++ sources before compiling
	NoCompileCommands bool // don't merge compile_commands.json

	Toolchain Toolchain
	Runner    Runner        // defaults to ExecRunner
	Formatter FormatChecker // defaults to ClangFormat
}

type Builder struct {
	opts Options
	root string
}

func NewBuilder(opts Options) (*Builder, error) {
	if opts.Root == "" {
		opts.Root = "."
	}
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, err
	}
	if opts.Runner == nil {
		opts.Runner = ExecRunner{}
	}
	if opts.Formatter == nil {
		opts.Formatter = ClangFormat{}
	}
	opts.Toolchain = opts.Toolchain.withDefaults()
	return &Builder{opts: opts, root: root}, nil
}

func (b *Builder) SourceDir() string { return filepath.Join(b.root, "Source") }

// LoadRegistry reads every descriptor below the source directory
func (b *Builder) LoadRegistry() (*Registry, error) {
	return LoadRegistry(b.SourceDir(), NewConfigEnv(b.opts.BuildType, b.opts.Toolchain))
}

// Plan returns the build order of a target
func (b *Builder) Plan(targetName string) ([]string, error) {
	reg, err := b.LoadRegistry()
	if err != nil {
		return nil, err
	}
	_, order, err := planTarget(reg, targetName)
	return order, err
}

func planTarget(reg *Registry, targetName string) (*Target, []string, error) {
	target, ok := reg.Targets[targetName]
	if !ok {
		return nil, nil, fmt.Errorf("%w: unknown target %q, known targets: %s", ErrEnvironment, targetName, strings.Join(reg.TargetNames(), ", "))
	}
	roots, err := reg.SelectModules(target)
	if err != nil {
		return nil, nil, err
	}
	order, err := ResolveOrder(reg.Modules, roots)
	if err != nil {
		return nil, nil, fmt.Errorf("target %q: %w", targetName, err)
	}
	return target, order, nil
}

// Build builds every module of the given targets (all targets when none are
// given) and merges the compile database. The returned session is valid even
// when an error is returned.
func (b *Builder) Build(targets ...string) (*Session, error) {
	reg, err := b.LoadRegistry()
	if err != nil {
		return nil, err
	}
	s := newSession(b.root, b.opts, reg)

	msg.Info("Build session %s, build type is %s", s.ID, b.opts.BuildType)
	msg.Info("Toolchain: %s %s, %s %s", s.Toolchain.CC, s.Toolchain.CCVersion, s.Toolchain.CXX, s.Toolchain.CXXVersion)

	if len(targets) == 0 {
		targets = reg.TargetNames()
	}
	if len(targets) == 0 {
		return s, fmt.Errorf("%w: no *%s files found in %s", ErrEnvironment, targetSuffix, reg.SourceDir)
	}
	msg.Info("Found target: %s", strings.Join(targets, ", "))

	start := time.Now()
	for _, name := range targets {
		if err := s.buildTarget(name); err != nil {
			return s, err
		}
	}

	if !b.opts.NoCompileCommands {
		path := filepath.Join(b.root, gen.CompileCommandsFile)
		if err := gen.MergeCompileCommands(path, s.CompileCommands); err != nil {
			return s, fmt.Errorf("failed to write %s: %w", path, err)
		}
	}

	msg.Info("Build done in %s", time.Since(start).Round(time.Millisecond))
	return s, nil
}

func (s *Session) buildTarget(name string) error {
	target, order, err := planTarget(s.Registry, name)
	if err != nil {
		return err
	}
	if err := ValidateOrder(order, s.Registry.Modules); err != nil {
		return fmt.Errorf("target %q: %w", name, err)
	}

	msg.Info("Building target '%s' (%s, %d modules)", name, target.Type, len(order))
	s.begin(target, order)
	defer s.finish()

	for i, modName := range order {
		if err := s.buildModule(i, modName); err != nil {
			return err
		}
	}
	return nil
}

// BuildAndRun builds a target and runs its entry point with args
func (b *Builder) BuildAndRun(targetName string, args []string) error {
	s, err := b.Build(targetName)
	if err != nil {
		return err
	}
	if b.opts.DryRun {
		return nil
	}

	var entries []*Module
	for _, name := range s.BuildOrder {
		if mod := s.module(name); mod.Binary == EntryPoint {
			entries = append(entries, mod)
		}
	}
	switch len(entries) {
	case 0:
		return errNoEntry
	case 1:
	default:
		names := make([]string, len(entries))
		for i, mod := range entries {
			names[i] = mod.Name
		}
		return fmt.Errorf("%w: %s", errManyEntries, strings.Join(names, ", "))
	}

	cmd := exec.Command(s.artifactPath(entries[0]), args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	return cmd.Run()
}
