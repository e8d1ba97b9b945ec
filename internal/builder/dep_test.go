package builder

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGitURL(t *testing.T) {
	for _, tc := range []struct {
		raw  string
		want gitURL
	}{
		{"https://github.com/someone/something", gitURL{cleanURL: "https://github.com/someone/something.git"}},
		{"https://github.com/someone/something.git@master#0.1.0", gitURL{cleanURL: "https://github.com/someone/something.git", branch: "master", commitOrTag: "0.1.0"}},
		{"https://github.com/someone/something@feature-branch", gitURL{cleanURL: "https://github.com/someone/something.git", branch: "feature-branch"}},
		{"https://github.com/someone/something#12345abc", gitURL{cleanURL: "https://github.com/someone/something.git", commitOrTag: "12345abc"}},
		{"git@github.com:someone/something.git", gitURL{cleanURL: "git@github.com:someone/something.git"}},
		{"git@github.com:someone/something@dev", gitURL{cleanURL: "git@github.com:someone/something.git", branch: "dev"}},
	} {
		assert.Equal(t, tc.want, parseGitURL(tc.raw), tc.raw)
	}
}

func TestIsURL(t *testing.T) {
	assert.True(t, isURL("https://example.com/lib.tar.gz"))
	assert.False(t, isURL("../Vendor/zlib"))
	assert.False(t, isURL("/abs/path"))
}

func TestFetchSource_Rejects(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "out")
	assert.ErrorIs(t, fetchSource("", ".", dst), errIllegalDep)
	assert.ErrorIs(t, fetchSource("https://example.com/lib.zip", ".", dst), errArchiveDep)
}

func TestFetchModule_LocalPath(t *testing.T) {
	w := newWorkspace(t)
	w.write("Vendor/zlib/inflate.c", "int inflate;\n")
	w.write("Vendor/zlib/sub/deflate.c", "int deflate;\n")
	w.write("Source/Zlib/Zlib.build.toml", staticLib)

	mod := newTestModule("Zlib", StaticLib)
	mod.Dir = filepath.Join(w.root, "Source", "Zlib")
	mod.Fetch = "../../Vendor/zlib"
	mod.FetchDir = "Private"

	require.NoError(t, fetchModule(mod))
	assert.FileExists(t, filepath.Join(mod.PrivateDir(), "inflate.c"))
	assert.FileExists(t, filepath.Join(mod.PrivateDir(), "sub", "deflate.c"))

	srcs, err := ScanSources(mod.PrivateDir())
	require.NoError(t, err)
	assert.Equal(t, 2, srcs.Len())

	// an existing fetch dir is left alone
	require.NoError(t, os.Remove(filepath.Join(mod.PrivateDir(), "inflate.c")))
	require.NoError(t, fetchModule(mod))
	assert.NoFileExists(t, filepath.Join(mod.PrivateDir(), "inflate.c"))
}

func TestFetchModule_FailureCleansUp(t *testing.T) {
	w := newWorkspace(t)
	mod := newTestModule("Zlib", StaticLib)
	mod.Dir = filepath.Join(w.root, "Source", "Zlib")
	mod.Fetch = "../../Vendor/missing"
	mod.FetchDir = "Private"

	err := fetchModule(mod)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `module "Zlib"`)
	assert.NoDirExists(t, mod.PrivateDir())
}

func TestFetchModule_NothingToFetch(t *testing.T) {
	mod := newTestModule("Core", StaticLib)
	mod.Dir = filepath.Join(t.TempDir(), "Core")
	require.NoError(t, fetchModule(mod))
	assert.NoDirExists(t, mod.Dir)
}
