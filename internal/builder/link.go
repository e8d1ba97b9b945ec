package builder

import (
	"path/filepath"
)

// artifactName is the file name a module links into on the host platform
func (s *Session) artifactName(mod *Module) string {
	prefix := ""
	if mod.EnableBinaryLibPrefix {
		prefix = s.Target.Name + "-"
	}
	switch mod.Binary {
	case EntryPoint:
		return mod.Name + s.platform.exeSuffix
	case DynamicLib:
		return s.platform.sharedPrefix + prefix + mod.Name + s.platform.sharedSuffix
	default:
		return "lib" + prefix + mod.Name + ".a"
	}
}

func (s *Session) artifactPath(mod *Module) string {
	return filepath.Join(s.binariesDir(), s.artifactName(mod))
}

// linkCommand dispatches on the binary type of mod
func (s *Session) linkCommand(mod *Module, objs []string) Command {
	out := s.artifactPath(mod)

	if mod.Binary == StaticLib {
		args := []string{s.Toolchain.AR, "rcs", out}
		args = append(args, objs...)
		for _, dep := range mod.Depends {
			depMod := s.module(dep)
			if depMod.LinkThisModule && depMod.Binary == StaticLib {
				args = append(args, s.artifactPath(depMod))
			}
		}
		return Command{Kind: KindArchive, Argv: args, Output: out}
	}

	args := []string{s.Toolchain.CXX}
	args = append(args, objs...)
	args = append(args, "-o", out, "-L"+s.binariesDir())
	args = append(args, s.linkLibs(mod)...)
	if mod.Binary == DynamicLib {
		args = append(args, "-fPIC", "-shared")
	}
	args = append(args, s.extraArgs(mod)...)
	return Command{Kind: KindLink, Argv: args, Output: out}
}
