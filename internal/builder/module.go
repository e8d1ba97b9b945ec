package builder

import (
	"fmt"
	"os"

	"github.com/qobs-build/qmod/internal/msg"
)

// buildModule runs one module through dependency check, scan, incremental
// filter, compile, link and the optional test step. Any returned error is
// fatal for the whole build.
func (s *Session) buildModule(index int, name string) error {
	mod := s.module(name)

	// the module stays NotBuilt, so its dependants fail the dependency check
	if !mod.BuildThisModule {
		msg.Info("[%d/%d] Module '%s' is excluded from the build", index+1, len(s.BuildOrder), name)
		return nil
	}

	if err := s.checkDependencies(mod); err != nil {
		return err
	}

	msg.Info("[%d/%d] Building module '%s'", index+1, len(s.BuildOrder), name)

	intermediateDir := s.intermediateDir(mod)
	for _, dir := range []string{intermediateDir, s.binariesDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("%w: %v", ErrEnvironment, err)
		}
	}

	if err := fetchModule(mod); err != nil {
		return fmt.Errorf("%w: %v", ErrEnvironment, err)
	}

	srcs, err := ScanSources(mod.PrivateDir())
	if err != nil {
		return fmt.Errorf("%w: failed to scan sources of module %q: %v", ErrEnvironment, name, err)
	}
	pending, err := pendingSources(srcs, intermediateDir, !s.Options.NoCache)
	if err != nil {
		return fmt.Errorf("%w: failed to check objects of module %q: %v", ErrEnvironment, name, err)
	}

	if s.canSkip(mod, pending) {
		s.setOutcome(name, Skipped)
		msg.Info("Module '%s' is up to date", name)
		return nil
	}

	if s.Options.FormatCheck && mod.EnableFormatCheck {
		for _, file := range pending.Cxx {
			if err := s.formatter.Check(file); err != nil {
				s.setOutcome(name, Failed)
				return fmt.Errorf("%w: format check failed in file %s: %v", ErrFormat, file, err)
			}
		}
	}

	// still linked: the empty artifact is what lets the next run skip it
	if srcs.Len() == 0 {
		msg.Warn("module '%s' has no sources in %s (set auto_skipped = true if it has nothing to build)", name, mod.PrivateDir())
	}

	for _, src := range append(pending.C, pending.Cxx...) {
		cmd := s.compileCommand(mod, src)
		s.CompileCommands = append(s.CompileCommands, compileRecord(cmd))

		status, err := s.execute(cmd)
		if err != nil || status != 0 {
			s.setOutcome(name, Failed)
			return fmt.Errorf("%w: failed to compile %s in module %q: %s", ErrCompile, src, name, failure(status, err))
		}
	}

	// nothing was produced, dependants only need the module to count as built
	if s.Options.DryRun {
		s.setOutcome(name, Built)
		return nil
	}

	objs := objects(srcs, intermediateDir)
	status, err := s.execute(s.linkCommand(mod, objs))
	if err != nil || status != 0 {
		s.setOutcome(name, Failed)
		return fmt.Errorf("%w: failed to build module %q in target %q: %s", ErrLink, name, s.Target.Name, failure(status, err))
	}
	s.setOutcome(name, Built)

	if s.Options.Tests && mod.EnableTests {
		if err := s.testModule(mod, srcs); err != nil {
			return err
		}
	}
	return nil
}

// canSkip reports whether mod needs no work: it is marked auto-skipped, or
// nothing is pending, every dependency was skipped and the artifact exists
func (s *Session) canSkip(mod *Module, pending Sources) bool {
	if mod.AutoSkipped {
		return true
	}
	return pending.Len() == 0 && s.dependenciesSkipped(mod) && fileExists(s.artifactPath(mod))
}
