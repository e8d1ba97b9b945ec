package builder

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/qobs-build/qmod/internal/builder/gen"
	"github.com/qobs-build/qmod/internal/msg"
)

// Outcome is the state a module reached in the current build
type Outcome int

const (
	NotBuilt Outcome = iota
	Skipped
	Built
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Skipped:
		return "skipped"
	case Built:
		return "built"
	case Failed:
		return "failed"
	}
	return "not built"
}

// satisfied reports whether dependants of a module in this state may build
func (o Outcome) satisfied() bool { return o == Built || o == Skipped }

type moduleState struct {
	module  *Module
	outcome Outcome
}

// Session is the state of one build invocation. It is the single source of
// truth for build order and module outcomes and is not safe for concurrent use.
type Session struct {
	ID        string
	Root      string
	Options   Options
	Toolchain Toolchain
	Registry  *Registry

	// active target and its order, reset for every target
	Target     *Target
	BuildOrder []string
	modules    map[string]*moduleState

	CompileCommands []gen.CompileCommand

	// target name -> module name -> outcome, kept for diagnostics
	Results map[string]map[string]Outcome

	platform  platform
	runner    Runner
	formatter FormatChecker
}

func newSession(root string, opts Options, reg *Registry) *Session {
	tc := opts.Toolchain.withDefaults()
	return &Session{
		ID:        uuid.NewString(),
		Root:      root,
		Options:   opts,
		Toolchain: tc,
		Registry:  reg,
		Results:   make(map[string]map[string]Outcome),
		platform:  platformFor(tc.OS),
		runner:    opts.Runner,
		formatter: opts.Formatter,
	}
}

// begin makes t the active target with the given build order. Every module of
// the order starts out NotBuilt.
func (s *Session) begin(t *Target, order []string) {
	s.Target = t
	s.BuildOrder = order
	s.modules = make(map[string]*moduleState, len(order))
	for _, name := range order {
		s.modules[name] = &moduleState{module: s.Registry.Modules[name]}
	}
}

// finish records the outcomes of the active target
func (s *Session) finish() {
	if s.Target == nil {
		return
	}
	s.Results[s.Target.Name] = s.Outcomes()
}

func (s *Session) module(name string) *Module {
	if st, ok := s.modules[name]; ok {
		return st.module
	}
	return s.Registry.Modules[name]
}

// Outcome returns the outcome of a module of the active target
func (s *Session) Outcome(name string) Outcome {
	if st, ok := s.modules[name]; ok {
		return st.outcome
	}
	return NotBuilt
}

// Outcomes returns a copy of the outcomes of the active target
func (s *Session) Outcomes() map[string]Outcome {
	outcomes := make(map[string]Outcome, len(s.modules))
	for name, st := range s.modules {
		outcomes[name] = st.outcome
	}
	return outcomes
}

func (s *Session) setOutcome(name string, o Outcome) {
	s.modules[name].outcome = o
}

// checkDependencies fails unless every dependency of mod is built or skipped
func (s *Session) checkDependencies(mod *Module) error {
	for _, dep := range mod.Depends {
		if !s.Outcome(dep).satisfied() {
			return fmt.Errorf("%w: module %q depends on module %q, but it didn't build", ErrGraph, mod.Name, dep)
		}
	}
	return nil
}

func (s *Session) dependenciesSkipped(mod *Module) bool {
	for _, dep := range mod.Depends {
		if s.Outcome(dep) != Skipped {
			return false
		}
	}
	return true
}

// execute runs cmd unless this is a dry run, in which case it only reports it
func (s *Session) execute(cmd Command) (int, error) {
	subject := cmd.Output
	if cmd.Kind == KindCompile {
		subject = cmd.Source
	}
	msg.Step(cmd.Kind.String(), subject)
	if s.Options.DryRun {
		return 0, nil
	}
	return s.runner.Run(cmd)
}
