package builder

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// past is the modification time given to every source file, so objects
// written by the fake runner are always newer
var past = time.Now().Add(-time.Hour)

var testToolchain = Toolchain{CC: "gcc", CXX: "g++", AR: "ar", OS: "linux"}

// fakeRunner records commands and creates their outputs instead of running them
type fakeRunner struct {
	cmds []Command
	fail map[string]int // base name of a source or output -> exit status
}

func (r *fakeRunner) Run(cmd Command) (int, error) {
	r.cmds = append(r.cmds, cmd)

	key := filepath.Base(cmd.Output)
	if cmd.Kind == KindCompile {
		key = filepath.Base(cmd.Source)
	} else if cmd.Kind == KindTestRun {
		key = filepath.Base(cmd.Argv[0]) + ":run"
	}
	if status := r.fail[key]; status != 0 {
		return status, nil
	}

	if cmd.Output != "" {
		if err := os.MkdirAll(filepath.Dir(cmd.Output), 0o755); err != nil {
			return -1, err
		}
		if err := os.WriteFile(cmd.Output, []byte(cmd.String()), 0o644); err != nil {
			return -1, err
		}
	}
	return 0, nil
}

func (r *fakeRunner) kinds(kind CommandKind) []Command {
	var out []Command
	for _, cmd := range r.cmds {
		if cmd.Kind == kind {
			out = append(out, cmd)
		}
	}
	return out
}

// fakeFormatter fails for the listed base names
type fakeFormatter struct {
	checked []string
	bad     map[string]bool
}

func (f *fakeFormatter) Check(path string) error {
	f.checked = append(f.checked, path)
	if f.bad[filepath.Base(path)] {
		return os.ErrInvalid
	}
	return nil
}

// workspace is an invocation root with a Source/ tree
type workspace struct {
	t    *testing.T
	root string
}

func newWorkspace(t *testing.T) *workspace {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Source"), 0o755))
	return &workspace{t: t, root: root}
}

// write creates a file below the root with an old modification time
func (w *workspace) write(rel, content string) string {
	w.t.Helper()
	path := filepath.Join(w.root, filepath.FromSlash(rel))
	require.NoError(w.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(w.t, os.WriteFile(path, []byte(content), 0o644))
	require.NoError(w.t, os.Chtimes(path, past, past))
	return path
}

// module writes Source/<name>/<name>.build.toml and one private file per source
func (w *workspace) module(name, descriptor string, sources ...string) {
	w.t.Helper()
	w.write("Source/"+name+"/"+name+moduleSuffix, descriptor)
	require.NoError(w.t, os.MkdirAll(filepath.Join(w.root, "Source", name, "Public"), 0o755))
	for _, src := range sources {
		w.write("Source/"+name+"/Private/"+src, "int "+name+"_"+filepath.Base(src)[:1]+";\n")
	}
}

func (w *workspace) target(name, descriptor string) {
	w.t.Helper()
	w.write("Source/"+name+targetSuffix, descriptor)
}

func (w *workspace) source(module, src string) string {
	return filepath.Join(w.root, "Source", module, "Private", filepath.FromSlash(src))
}

func (w *workspace) binary(name string) string {
	return filepath.Join(w.root, "Build", "Binaries", name)
}

// touch moves the modification time of a file into the future
func (w *workspace) touch(path string) {
	w.t.Helper()
	future := time.Now().Add(time.Hour)
	require.NoError(w.t, os.Chtimes(path, future, future))
}

func (w *workspace) builder(runner Runner, opts Options) *Builder {
	w.t.Helper()
	opts.Root = w.root
	opts.Runner = runner
	opts.Toolchain = testToolchain
	if opts.Formatter == nil {
		opts.Formatter = &fakeFormatter{}
	}
	b, err := NewBuilder(opts)
	require.NoError(w.t, err)
	return b
}

// testSession returns a session whose active target is T over mods in the given order
func testSession(t *testing.T, goos string, mods ...*Module) *Session {
	t.Helper()
	reg := &Registry{Modules: make(map[string]*Module), Targets: make(map[string]*Target)}
	order := make([]string, len(mods))
	for i, mod := range mods {
		reg.Modules[mod.Name] = mod
		order[i] = mod.Name
	}
	tc := testToolchain
	tc.OS = goos
	s := newSession(t.TempDir(), Options{Toolchain: tc}, reg)
	s.begin(&Target{Name: "T"}, order)
	return s
}

func newTestModule(name string, binary BinaryType, depends ...string) *Module {
	return &Module{
		Name:                  name,
		Dir:                   filepath.Join("/src", name),
		Binary:                binary,
		Depends:               depends,
		CStandard:             "c17",
		CxxStandard:           "c++20",
		LinkThisModule:        true,
		EnableBinaryLibPrefix: true,
		EnableFormatCheck:     true,
		BuildThisModule:       true,
	}
}
