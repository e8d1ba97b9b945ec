package builder

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

const (
	moduleSuffix = ".build.toml"
	targetSuffix = ".target.toml"
)

// Registry holds every module and target descriptor found below a source root
type Registry struct {
	SourceDir string
	Modules   map[string]*Module
	Targets   map[string]*Target
}

// LoadRegistry discovers <Module>.build.toml and <target>.target.toml files
// below sourceDir and parses them with env
func LoadRegistry(sourceDir string, env ConfigEnv) (*Registry, error) {
	stat, err := os.Stat(sourceDir)
	if err != nil {
		return nil, fmt.Errorf("%w: could not find source folder %s: %v", ErrEnvironment, sourceDir, err)
	}
	if !stat.IsDir() {
		return nil, fmt.Errorf("%w: source %s is not a folder", ErrEnvironment, sourceDir)
	}

	reg := &Registry{
		SourceDir: sourceDir,
		Modules:   make(map[string]*Module),
		Targets:   make(map[string]*Target),
	}
	fsys := os.DirFS(sourceDir)

	moduleFiles, err := doublestar.Glob(fsys, "**/*"+moduleSuffix, doublestar.WithFilesOnly())
	if err != nil {
		return nil, err
	}
	slices.Sort(moduleFiles)
	for _, rel := range moduleFiles {
		path := filepath.Join(sourceDir, filepath.FromSlash(rel))
		name := strings.TrimSuffix(filepath.Base(path), moduleSuffix)
		if prev, ok := reg.Modules[name]; ok {
			return nil, fmt.Errorf("%w: module %q is declared twice (%s and %s)", ErrEnvironment, name, prev.Dir, filepath.Dir(path))
		}

		cfg, err := ParseModuleConfigFromFile(path, env)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to parse %s: %v", ErrEnvironment, path, err)
		}
		mod, err := cfg.Module.resolve(name, filepath.Dir(path))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrEnvironment, err)
		}
		reg.Modules[name] = mod
	}

	targetFiles, err := doublestar.Glob(fsys, "**/*"+targetSuffix, doublestar.WithFilesOnly())
	if err != nil {
		return nil, err
	}
	slices.Sort(targetFiles)
	for _, rel := range targetFiles {
		path := filepath.Join(sourceDir, filepath.FromSlash(rel))
		name := strings.TrimSuffix(filepath.Base(path), targetSuffix)
		if _, ok := reg.Targets[name]; ok {
			return nil, fmt.Errorf("%w: target %q is declared twice", ErrEnvironment, name)
		}

		cfg, err := ParseTargetConfigFromFile(path, env)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to parse %s: %v", ErrEnvironment, path, err)
		}
		target, err := cfg.resolve(name, path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrEnvironment, err)
		}
		reg.Targets[name] = target
	}

	return reg, nil
}

// TargetNames returns all target names in sorted order
func (r *Registry) TargetNames() []string {
	names := make([]string, 0, len(r.Targets))
	for name := range r.Targets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// SelectModules applies the target's module-selection policy and returns the
// sorted names of the root modules of the target
func (r *Registry) SelectModules(t *Target) ([]string, error) {
	var names []string
	if t.BuildAllModules {
		for name, mod := range r.Modules {
			rel, err := filepath.Rel(r.SourceDir, mod.Dir)
			if err != nil {
				return nil, err
			}
			rel = filepath.ToSlash(rel)
			if slices.ContainsFunc(t.ModuleDirs, func(dir string) bool { return inDir(rel, dir) }) {
				names = append(names, name)
			}
		}
	} else {
		for _, name := range t.Modules {
			if _, ok := r.Modules[name]; !ok {
				return nil, fmt.Errorf("%w: target %q selects unknown module %q", ErrGraph, t.Name, name)
			}
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return slices.Compact(names), nil
}

// inDir reports whether the slash-separated path rel lies within dir
func inDir(rel, dir string) bool {
	dir = strings.Trim(filepath.ToSlash(dir), "/")
	if dir == "" || dir == "." {
		return true
	}
	return rel == dir || strings.HasPrefix(rel, dir+"/")
}
