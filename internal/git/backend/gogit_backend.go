package backend

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/go-git/go-git/v5/storage/filesystem"
)

type repoResource struct {
	repo    *gitlib.Repository
	control string
	path    []byte // control dir with trailing separator, NUL-terminated
	workdir []byte // nil for bare repositories
}

type objectResource struct {
	owner Handle
	id    Oid
	typ   int
}

// GoGit implements Backend on top of go-git. All calls are serialized on an
// internal mutex; the last-error slot is shared by every caller.
type GoGit struct {
	mu        sync.Mutex
	initCount int
	next      Handle
	handles   map[Handle]any
	stats     Stats
	lastErr   *ErrorInfo
}

var _ Backend = (*GoGit)(nil)

func NewGoGit() *GoGit {
	return &GoGit{
		handles: map[Handle]any{},
	}
}

var defaultBackend = sync.OnceValue(func() Backend { return NewGoGit() })

// Default returns the process-wide engine instance.
func Default() Backend {
	return defaultBackend()
}

func (g *GoGit) LibraryInit() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.initCount++
	return g.initCount
}

func (g *GoGit) LibraryShutdown() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.initCount == 0 {
		return g.fail(ERROR, ErrorClassInvalid, "library not initialized")
	}
	g.initCount--
	if g.initCount == 0 {
		g.lastErr = nil
	}
	return g.initCount
}

func (g *GoGit) ErrorLast() *ErrorInfo {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.lastErr == nil {
		return nil
	}
	info := *g.lastErr
	info.Message = bytes.Clone(g.lastErr.Message)
	return &info
}

func (g *GoGit) ErrorClear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastErr = nil
}

func (g *GoGit) Stats() Stats {
	g.mu.Lock()
	defer g.mu.Unlock()
	s := g.stats
	s.Live = len(g.handles)
	return s
}

func (g *GoGit) RepositoryOpen(out *Handle, path []byte) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if code := g.checkInit(); code < 0 {
		return code
	}
	if out == nil {
		return g.fail(EINVALID, ErrorClassInvalid, "output handle is NULL")
	}
	p, ok := cString(path)
	if !ok {
		return g.fail(EINVALID, ErrorClassInvalid, "path is not NUL-terminated")
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return g.failErr("open repository", err)
	}
	repo, err := gitlib.PlainOpenWithOptions(abs, &gitlib.PlainOpenOptions{EnableDotGitCommonDir: true})
	if err != nil {
		return g.failErr(fmt.Sprintf("could not find repository at '%s'", abs), err)
	}
	res, err := newRepoResource(repo)
	if err != nil {
		return g.failErr("open repository", err)
	}
	*out = g.alloc(res)
	return OK
}

func (g *GoGit) RepositoryInit(out *Handle, path []byte, isBare uint) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if code := g.checkInit(); code < 0 {
		return code
	}
	if out == nil {
		return g.fail(EINVALID, ErrorClassInvalid, "output handle is NULL")
	}
	p, ok := cString(path)
	if !ok {
		return g.fail(EINVALID, ErrorClassInvalid, "path is not NUL-terminated")
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return g.failErr("init repository", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return g.failErr(fmt.Sprintf("cannot initialize repository at '%s'", abs), err)
	}
	if !info.IsDir() {
		return g.fail(ERROR, ErrorClassOS, "cannot initialize repository at '%s': not a directory", abs)
	}
	repo, err := gitlib.PlainInit(abs, isBare != 0)
	if errors.Is(err, gitlib.ErrRepositoryAlreadyExists) {
		// Re-initializing an existing repository is not an error.
		repo, err = gitlib.PlainOpen(abs)
	}
	if err != nil {
		return g.failErr(fmt.Sprintf("cannot initialize repository at '%s'", abs), err)
	}
	res, err := newRepoResource(repo)
	if err != nil {
		return g.failErr("init repository", err)
	}
	*out = g.alloc(res)
	return OK
}

func (g *GoGit) RepositoryFree(repo Handle) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.release(repo)
}

func (g *GoGit) RepositoryIsBare(repo Handle) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	res, code := g.repository(repo)
	if code < 0 {
		return code
	}
	if res.workdir == nil {
		return 1
	}
	return 0
}

func (g *GoGit) RepositoryIsShallow(repo Handle) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	res, code := g.repository(repo)
	if code < 0 {
		return code
	}
	shallow, err := res.repo.Storer.Shallow()
	if err != nil {
		return g.failErr("read shallow file", err)
	}
	if len(shallow) > 0 {
		return 1
	}
	return 0
}

// RepositoryIsEmpty reports 1 when HEAD is unborn and no references exist.
func (g *GoGit) RepositoryIsEmpty(repo Handle) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	res, code := g.repository(repo)
	if code < 0 {
		return code
	}
	_, err := res.repo.Head()
	if err == nil {
		return 0
	}
	if !errors.Is(err, plumbing.ErrReferenceNotFound) {
		return g.failErr("resolve HEAD", err)
	}
	refs, err := res.repo.References()
	if err != nil {
		return g.failErr("list references", err)
	}
	defer refs.Close()
	found := false
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		if ref.Name() == plumbing.HEAD {
			return nil
		}
		found = true
		return storer.ErrStop
	})
	if err != nil {
		return g.failErr("list references", err)
	}
	if found {
		return 0
	}
	return 1
}

func (g *GoGit) RepositoryPath(repo Handle) []byte {
	g.mu.Lock()
	defer g.mu.Unlock()
	res, code := g.repository(repo)
	if code < 0 {
		return nil
	}
	return res.path
}

func (g *GoGit) RepositoryWorkdir(repo Handle) []byte {
	g.mu.Lock()
	defer g.mu.Unlock()
	res, code := g.repository(repo)
	if code < 0 {
		return nil
	}
	return res.workdir
}

func (g *GoGit) RepositoryState(repo Handle) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	res, code := g.repository(repo)
	if code < 0 {
		return code
	}
	return detectState(res.control)
}

func (g *GoGit) ObjectFree(obj Handle) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.release(obj)
}

func (g *GoGit) ObjectID(obj Handle) *Oid {
	g.mu.Lock()
	defer g.mu.Unlock()
	res, code := g.object(obj)
	if code < 0 {
		return nil
	}
	id := res.id
	return &id
}

func (g *GoGit) ObjectType(obj Handle) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	res, code := g.object(obj)
	if code < 0 {
		return ObjectInvalid
	}
	return res.typ
}

func newRepoResource(repo *gitlib.Repository) (*repoResource, error) {
	st, ok := repo.Storer.(*filesystem.Storage)
	if !ok {
		return nil, fmt.Errorf("unsupported storage %T", repo.Storer)
	}
	control := filepath.Clean(st.Filesystem().Root())
	res := &repoResource{repo: repo, control: control, path: nativeDir(control)}
	wt, err := repo.Worktree()
	switch {
	case errors.Is(err, gitlib.ErrIsBareRepository):
		workdir, err := configuredWorkdir(repo, control)
		if err != nil {
			return nil, err
		}
		if workdir != "" {
			res.workdir = nativeDir(workdir)
		}
	case err != nil:
		return nil, err
	default:
		res.workdir = nativeDir(wt.Filesystem.Root())
	}
	return res, nil
}

// configuredWorkdir finds the working tree of a repository that go-git
// opened without one, which happens when the path names the control
// directory itself. It returns "" for repositories that really are bare.
func configuredWorkdir(repo *gitlib.Repository, control string) (string, error) {
	cfg, err := repo.Config()
	if err != nil {
		return "", err
	}
	if cfg.Core.IsBare {
		return "", nil
	}
	if wt := cfg.Core.Worktree; wt != "" {
		if !filepath.IsAbs(wt) {
			wt = filepath.Join(control, wt)
		}
		return filepath.Clean(wt), nil
	}
	if filepath.Base(control) != gitlib.GitDirName {
		return "", nil
	}
	return filepath.Dir(control), nil
}

func detectState(dir string) int {
	exists := func(name string) bool {
		_, err := os.Stat(filepath.Join(dir, name))
		return err == nil
	}
	switch {
	case exists(filepath.Join("rebase-merge", "interactive")):
		return StateRebaseInteractive
	case exists("rebase-merge"):
		return StateRebaseMerge
	case exists(filepath.Join("rebase-apply", "rebasing")):
		return StateRebase
	case exists(filepath.Join("rebase-apply", "applying")):
		return StateApplyMailbox
	case exists("rebase-apply"):
		return StateApplyMailboxOrRebase
	case exists("MERGE_HEAD"):
		return StateMerge
	case exists("REVERT_HEAD"):
		return StateRevert
	case exists("CHERRY_PICK_HEAD"):
		return StateCherrypick
	case exists("BISECT_LOG"):
		return StateBisect
	}
	return StateNone
}

// checkInit expects the caller to hold g.mu.
func (g *GoGit) checkInit() int {
	if g.initCount == 0 {
		return g.fail(ERROR, ErrorClassInvalid, "library not initialized")
	}
	return OK
}

func (g *GoGit) alloc(res any) Handle {
	g.next++
	h := g.next
	g.handles[h] = res
	g.stats.Allocated++
	return h
}

// release frees h. Handles are never reused, so any handle up to g.next
// that is no longer live has been freed before.
func (g *GoGit) release(h Handle) {
	if h == 0 || h > g.next {
		return
	}
	if _, ok := g.handles[h]; !ok {
		g.stats.DoubleFrees++
		return
	}
	delete(g.handles, h)
	g.stats.Freed++
}

func (g *GoGit) repository(h Handle) (*repoResource, int) {
	if code := g.checkInit(); code < 0 {
		return nil, code
	}
	res, ok := g.handles[h].(*repoResource)
	if !ok {
		return nil, g.fail(EINVALID, ErrorClassInvalid, "invalid repository handle %d", h)
	}
	return res, OK
}

func (g *GoGit) object(h Handle) (*objectResource, int) {
	if code := g.checkInit(); code < 0 {
		return nil, code
	}
	res, ok := g.handles[h].(*objectResource)
	if !ok {
		return nil, g.fail(EINVALID, ErrorClassInvalid, "invalid object handle %d", h)
	}
	return res, OK
}

func (g *GoGit) fail(code, class int, format string, args ...any) int {
	msg := fmt.Sprintf(format, args...)
	g.lastErr = &ErrorInfo{Class: class, Message: append([]byte(msg), 0)}
	return code
}

func (g *GoGit) failErr(context string, err error) int {
	switch {
	case errors.Is(err, gitlib.ErrRepositoryNotExists):
		return g.fail(ENOTFOUND, ErrorClassRepository, "%s: %v", context, err)
	case errors.Is(err, gitlib.ErrRepositoryAlreadyExists):
		return g.fail(EEXISTS, ErrorClassRepository, "%s: %v", context, err)
	case errors.Is(err, gitlib.ErrIsBareRepository):
		return g.fail(EBAREREPO, ErrorClassRepository, "%s: %v", context, err)
	case errors.Is(err, plumbing.ErrReferenceNotFound):
		return g.fail(ENOTFOUND, ErrorClassReference, "%s: %v", context, err)
	case errors.Is(err, plumbing.ErrObjectNotFound):
		return g.fail(ENOTFOUND, ErrorClassOdb, "%s: %v", context, err)
	case errors.Is(err, fs.ErrNotExist):
		return g.fail(ENOTFOUND, ErrorClassOS, "%s: %v", context, err)
	case errors.Is(err, fs.ErrPermission):
		return g.fail(ERROR, ErrorClassOS, "%s: %v", context, err)
	}
	return g.fail(ERROR, ErrorClassRepository, "%s: %v", context, err)
}

func cString(b []byte) (string, bool) {
	idx := bytes.IndexByte(b, 0)
	if idx < 0 {
		return "", false
	}
	return string(b[:idx]), true
}

func nativeDir(p string) []byte {
	p = filepath.Clean(p)
	if !strings.HasSuffix(p, string(filepath.Separator)) {
		p += string(filepath.Separator)
	}
	return append([]byte(p), 0)
}
