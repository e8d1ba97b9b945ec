package builder

import (
	"path/filepath"
	"slices"

	"github.com/qobs-build/qmod/internal/builder/gen"
)

func (s *Session) intermediateDir(mod *Module) string {
	return filepath.Join(s.Root, "Build", "Intermediate", s.Target.Name, mod.Name)
}

func (s *Session) binariesDir() string {
	return filepath.Join(s.Root, "Build", "Binaries")
}

// extraArgs are the module arguments followed by the target and profile arguments
func (s *Session) extraArgs(mod *Module) []string {
	args := slices.Clone(mod.Arguments)
	args = append(args, s.Target.Arguments...)
	return append(args, s.Target.profileArgs(s.Options.BuildType)...)
}

// includeArgs has one -I per dependency Public dir, in dependency order, and
// the module's own Public dir last
func (s *Session) includeArgs(mod *Module) []string {
	args := make([]string, 0, len(mod.Depends)+1)
	for _, dep := range mod.Depends {
		args = append(args, "-I"+s.module(dep).PublicDir())
	}
	return append(args, "-I"+mod.PublicDir())
}

// linkLibs has one -l per dependency that is linked
func (s *Session) linkLibs(mod *Module) []string {
	var libs []string
	for _, dep := range mod.Depends {
		depMod := s.module(dep)
		if depMod.LinkThisModule {
			libs = append(libs, "-l"+depMod.libName(s.Target.Name))
		}
	}
	return libs
}

// compileCommand builds the command compiling src into its object file
func (s *Session) compileCommand(mod *Module, src string) Command {
	compiler, std := s.Toolchain.CC, mod.CStandard
	if isCxx(src) {
		compiler, std = s.Toolchain.CXX, mod.CxxStandard
	}
	obj := objectPath(s.intermediateDir(mod), src)

	args := []string{compiler, src, "-o", obj, "-std=" + std}
	args = append(args, s.extraArgs(mod)...)
	args = append(args, s.includeArgs(mod)...)
	if mod.Binary == DynamicLib {
		args = append(args, "-fPIC")
	}
	args = append(args, "-c")

	return Command{Kind: KindCompile, Argv: args, Source: src, Output: obj}
}

// compileRecord is the compile database entry of a compile command
func compileRecord(cmd Command) gen.CompileCommand {
	return gen.CompileCommand{
		File:      filepath.Base(cmd.Source),
		Directory: filepath.Dir(cmd.Source),
		Arguments: slices.Clone(cmd.Argv),
	}
}

// objects lists the object files of every source, C first
func objects(srcs Sources, intermediateDir string) []string {
	objs := make([]string, 0, srcs.Len())
	for _, src := range srcs.C {
		objs = append(objs, objectPath(intermediateDir, src))
	}
	for _, src := range srcs.Cxx {
		objs = append(objs, objectPath(intermediateDir, src))
	}
	return objs
}
