package builder

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing"
	"github.com/qobs-build/qmod/internal/msg"
)

var depShortcuts = map[string]string{
	"gh:": "https://github.com/",
	"gl:": "https://gitlab.com/",
	"bb:": "https://bitbucket.org/",
	"sr:": "https://sr.ht/",
	"cb:": "https://codeberg.org/",
}

const gitPrefix = "git:"

var (
	errIllegalDep = errors.New("empty or illegal fetch source")
	errArchiveDep = errors.New("archive sources are not supported, use a git source or a local path")
)

// fetchModule populates the fetch directory of mod when it does not exist yet
func fetchModule(mod *Module) error {
	if mod.Fetch == "" {
		return nil
	}
	toWhere := filepath.Join(mod.Dir, mod.FetchDir)
	if fileExists(toWhere) {
		return nil
	}

	msg.Info("Fetching %s for module '%s'", mod.Fetch, mod.Name)
	if err := os.MkdirAll(filepath.Dir(toWhere), 0755); err != nil {
		return err
	}
	if err := fetchSource(mod.Fetch, mod.Dir, toWhere); err != nil {
		os.RemoveAll(toWhere) // don't leave a half-fetched tree behind
		return fmt.Errorf("failed to fetch %q for module %q: %w", mod.Fetch, mod.Name, err)
	}
	return nil
}

func fetchSource(src, basedir, toWhere string) error {
	if src == "" {
		return errIllegalDep
	}

	// check for `git:` prefix, e.g. git:https://github.com/zeozeozeo/libhelloworld.git
	if strings.HasPrefix(src, gitPrefix) {
		return cloneGitRepo(src[len(gitPrefix):], toWhere)
	}

	// check for shortcut prefix, e.g. gh:google/googletest#v1.14.0
	for shortcut, url := range depShortcuts {
		if strings.HasPrefix(src, shortcut) {
			return cloneGitRepo(url+src[len(shortcut):], toWhere)
		}
	}

	// if it's a URL, it should be an archive
	if isURL(src) {
		return errArchiveDep
	}

	// otherwise it's a path, relative to the module
	if !filepath.IsAbs(src) {
		src = filepath.Join(basedir, src)
	}
	return os.CopyFS(toWhere, os.DirFS(src))
}

func isURL(maybeURL string) bool {
	u, err := url.Parse(maybeURL)
	return err == nil && u.Scheme != "" && u.Host != ""
}

type gitURL struct {
	cleanURL    string
	branch      string
	commitOrTag string
}

// someone/something@master#0.1.0
// someone/something@feature-branch#12345abc
// someone/something#12345abc
func parseGitURL(rawURL string) (res gitURL) {
	parts := strings.SplitN(rawURL, "#", 2)
	baseURL := parts[0]
	if len(parts) == 2 {
		res.commitOrTag = parts[1]
	}

	// only look for @branch after the host, ssh urls have a user@ part
	at := strings.LastIndex(baseURL, "@")
	if at > strings.LastIndex(baseURL, ":") && at > strings.Index(baseURL, "/") {
		res.cleanURL = baseURL[:at]
		res.branch = baseURL[at+1:]
	} else {
		res.cleanURL = baseURL
	}

	if !strings.HasSuffix(res.cleanURL, ".git") {
		res.cleanURL += ".git"
	}

	return
}

// cloneGitRepo clones a Git remote into the specified directory
func cloneGitRepo(url, toWhere string) error {
	parsedURL := parseGitURL(url)

	cloneOptions := &git.CloneOptions{
		URL:               parsedURL.cleanURL,
		Progress:          &msg.IndentWriter{Indent: "    ", W: os.Stdout},
		RecurseSubmodules: git.DefaultSubmoduleRecursionDepth,
	}

	if parsedURL.commitOrTag == "" {
		cloneOptions.Depth = 1 // we can do a shallow clone of the latest commit
	}

	if parsedURL.branch != "" {
		cloneOptions.ReferenceName = plumbing.NewBranchReferenceName(parsedURL.branch)
		cloneOptions.SingleBranch = true
	}

	repo, err := git.PlainClone(toWhere, cloneOptions)
	if err != nil {
		return err
	}

	if parsedURL.commitOrTag != "" {
		w, err := repo.Worktree()
		if err != nil {
			return fmt.Errorf("could not get worktree: %w", err)
		}

		revision := parsedURL.commitOrTag
		hash, err := repo.ResolveRevision(plumbing.Revision(revision))
		if err != nil {
			return fmt.Errorf("could not resolve revision `%s`: %w", revision, err)
		}

		err = w.Checkout(&git.CheckoutOptions{
			Hash:  *hash,
			Force: true,
		})
		if err != nil {
			return fmt.Errorf("failed to checkout `%s`: %w", revision, err)
		}
	}

	return nil
}
