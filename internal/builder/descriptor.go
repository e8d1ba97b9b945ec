package builder

import (
	"fmt"
	"path/filepath"
	"strings"
)

// BuildType selects the profile a build is made with
type BuildType int

const (
	// Release has optimizations and no debug information
	Release BuildType = iota
	// Debug has full debug information and no optimizations
	Debug
	// Development is a debug build with light optimizations
	Development
)

var buildTypeNames = []string{"Release", "Debug", "Development"}

func (t BuildType) String() string {
	if int(t) < len(buildTypeNames) {
		return buildTypeNames[t]
	}
	return fmt.Sprintf("BuildType(%d)", int(t))
}

// profileKey is the [profile.*] table name for this build type
func (t BuildType) profileKey() string { return strings.ToLower(t.String()) }

func ParseBuildType(s string) (BuildType, error) {
	for i, name := range buildTypeNames {
		if strings.EqualFold(s, name) {
			return BuildType(i), nil
		}
	}
	return Debug, fmt.Errorf("unknown build type %q, known build types: %s", s, strings.Join(buildTypeNames, ", "))
}

// BinaryType is the kind of artifact a module links into
type BinaryType int

const (
	EntryPoint BinaryType = iota
	StaticLib
	DynamicLib
)

func (t BinaryType) String() string {
	switch t {
	case EntryPoint:
		return "entry_point"
	case StaticLib:
		return "static_lib"
	case DynamicLib:
		return "dynamic_lib"
	}
	return fmt.Sprintf("BinaryType(%d)", int(t))
}

// ParseBinaryType accepts both `entry_point` and `EntryPoint` spellings
func ParseBinaryType(s string) (BinaryType, error) {
	switch strings.ToLower(strings.ReplaceAll(s, "_", "")) {
	case "", "staticlib", "static":
		return StaticLib, nil
	case "entrypoint", "executable":
		return EntryPoint, nil
	case "dynamiclib", "shared":
		return DynamicLib, nil
	}
	return StaticLib, fmt.Errorf("unknown module type %q (expected entry_point, static_lib or dynamic_lib)", s)
}

type TargetType int

const (
	Program TargetType = iota
	Game
)

func (t TargetType) String() string {
	if t == Game {
		return "game"
	}
	return "program"
}

func ParseTargetType(s string) (TargetType, error) {
	switch strings.ToLower(s) {
	case "", "program":
		return Program, nil
	case "game":
		return Game, nil
	}
	return Program, fmt.Errorf("unknown target type %q (expected program or game)", s)
}

// Module is a resolved module descriptor. It is read-only once loaded.
type Module struct {
	Name        string
	Dir         string // directory holding <Name>.build.toml
	Binary      BinaryType
	Depends     []string
	CStandard   string
	CxxStandard string
	Arguments   []string

	LinkThisModule        bool
	EnableBinaryLibPrefix bool
	AutoSkipped           bool
	EnableTests           bool
	EnableFormatCheck     bool
	BuildThisModule       bool

	Fetch    string // git source cloned into FetchDir when it is missing
	FetchDir string
}

func (m *Module) PublicDir() string  { return filepath.Join(m.Dir, "Public") }
func (m *Module) PrivateDir() string { return filepath.Join(m.Dir, "Private") }
func (m *Module) TestsDir() string   { return filepath.Join(m.Dir, "Tests") }

// libName is the name passed to -l when linking against this module
func (m *Module) libName(target string) string {
	if m.EnableBinaryLibPrefix {
		return target + "-" + m.Name
	}
	return m.Name
}

// Target is a resolved target descriptor
type Target struct {
	Name      string
	Path      string
	Type      TargetType
	Arguments []string

	BuildAllModules bool
	ModuleDirs      []string // relative to the source root, "" means everything
	Modules         []string

	Profile map[string]ProfileSection
}

// profileArgs returns the arguments of the profile selected by bt
func (t *Target) profileArgs(bt BuildType) []string {
	prof, ok := t.Profile[bt.profileKey()]
	if !ok {
		return nil
	}
	return prof.Args()
}

// platform describes the artifact naming conventions of an OS
type platform struct {
	exeSuffix    string
	sharedPrefix string
	sharedSuffix string
}

func platformFor(goos string) platform {
	switch goos {
	case "windows":
		return platform{exeSuffix: ".exe", sharedSuffix: ".dll"}
	case "darwin":
		return platform{sharedPrefix: "lib", sharedSuffix: ".dylib"}
	default:
		return platform{sharedPrefix: "lib", sharedSuffix: ".so"}
	}
}
