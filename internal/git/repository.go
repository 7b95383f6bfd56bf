package git

import (
	"log/slog"
	"runtime"

	gitbackend "github.com/thiagokokada/gitbind/internal/git/backend"
)

// Repository owns one engine repository handle.
//
// A Repository must not be copied and must not be used from two goroutines
// at the same time; concurrent entry panics with an *InvariantError. Objects
// resolved from it are bound to it and are freed together with it.
type Repository struct {
	_       noCopy
	guard   confinement
	ptr     gitbackend.Handle
	be      gitbackend.Backend
	objects map[*Object]struct{}
	owned   *ownedHandles
	cleanup runtime.Cleanup
}

// ownedHandles is what the garbage collector needs to release a Repository
// that was dropped without Free. It must not point back at the Repository.
type ownedHandles struct {
	be      gitbackend.Backend
	repo    gitbackend.Handle
	objects map[gitbackend.Handle]struct{}
}

func newRepository(be gitbackend.Backend, op string, ptr gitbackend.Handle) *Repository {
	if ptr == 0 {
		invariant(op, "engine returned a NULL repository")
	}
	owned := &ownedHandles{be: be, repo: ptr, objects: map[gitbackend.Handle]struct{}{}}
	r := &Repository{ptr: ptr, be: be, objects: map[*Object]struct{}{}, owned: owned}
	r.cleanup = runtime.AddCleanup(r, releaseDropped, owned)
	return r
}

func releaseDropped(owned *ownedHandles) {
	slog.Warn("repository garbage collected without Free",
		slog.Int("objects", len(owned.objects)),
	)
	native(func() {
		for obj := range owned.objects {
			owned.be.ObjectFree(obj)
		}
		owned.be.RepositoryFree(owned.repo)
	})
}

// Open opens an existing repository at path. The path can point to either a
// standard or a bare repository.
func Open(path string) (*Repository, error) {
	EnsureInitialized()
	be := engine
	var ptr gitbackend.Handle
	err := withCString("open", path, func(cs []byte) error {
		_, err := call(be, "open", func() int { return be.RepositoryOpen(&ptr, cs) })
		return err
	})
	if err != nil {
		return nil, err
	}
	slog.Debug("repository opened", slog.String("path", path))
	return newRepository(be, "Open", ptr), nil
}

// Init creates a repository in path, which must already exist. A bare
// repository keeps its metadata directly in path.
func Init(path string, bare bool) (*Repository, error) {
	EnsureInitialized()
	be := engine
	var flag uint
	if bare {
		flag = 1
	}
	var ptr gitbackend.Handle
	err := withCString("init", path, func(cs []byte) error {
		_, err := call(be, "init", func() int { return be.RepositoryInit(&ptr, cs, flag) })
		return err
	})
	if err != nil {
		return nil, err
	}
	slog.Debug("repository initialized", slog.String("path", path), slog.Bool("bare", bare))
	return newRepository(be, "Init", ptr), nil
}

// Revparse resolves a revision expression into one object or a range. Each
// side is an object id, an abbreviated id or a reference name, optionally
// followed by ^N, ~N, ^{type}, ^{/regex} or :path. Reflog selectors and
// index paths fail with ErrInvalidSpec. Annotated tags are not peeled unless
// asked to.
func (r *Repository) Revparse(spec string) (*Revspec, error) {
	defer r.enter("Revparse")()
	var raw gitbackend.Revspec
	err := withCString("revparse", spec, func(cs []byte) error {
		_, err := call(r.be, "revparse", func() int { return r.be.Revparse(&raw, r.ptr, cs) })
		return err
	})
	if err != nil {
		return nil, err
	}
	return newRevspec(r, raw)
}

// RevparseSingle resolves a revision expression to exactly one object.
func (r *Repository) RevparseSingle(spec string) (*Object, error) {
	defer r.enter("RevparseSingle")()
	var ptr gitbackend.Handle
	err := withCString("revparse single", spec, func(cs []byte) error {
		_, err := call(r.be, "revparse single", func() int { return r.be.RevparseSingle(&ptr, r.ptr, cs) })
		return err
	})
	if err != nil {
		return nil, err
	}
	if ptr == 0 {
		invariant("RevparseSingle", "engine reported success with a NULL object")
	}
	return newObject(r, ptr), nil
}

func (r *Repository) IsBare() bool {
	defer r.enter("IsBare")()
	var code int
	native(func() { code = r.be.RepositoryIsBare(r.ptr) })
	return code == 1
}

func (r *Repository) IsShallow() bool {
	defer r.enter("IsShallow")()
	var code int
	native(func() { code = r.be.RepositoryIsShallow(r.ptr) })
	return code == 1
}

// IsEmpty reports whether the repository has no references and an unborn
// HEAD.
func (r *Repository) IsEmpty() (bool, error) {
	defer r.enter("IsEmpty")()
	code, err := call(r.be, "is empty", func() int { return r.be.RepositoryIsEmpty(r.ptr) })
	if err != nil {
		return false, err
	}
	return code == 1, nil
}

// Path returns the metadata directory: ".git" inside the working tree for
// standard repositories, the repository itself for bare ones.
func (r *Repository) Path() string {
	defer r.enter("Path")()
	var path string
	native(func() {
		p := r.be.RepositoryPath(r.ptr)
		if p == nil {
			invariant("Path", "engine returned a NULL path")
		}
		path = goPath("Path", p)
	})
	return path
}

// Workdir returns the working tree root. ok is false for bare repositories.
func (r *Repository) Workdir() (dir string, ok bool) {
	defer r.enter("Workdir")()
	native(func() {
		p := r.be.RepositoryWorkdir(r.ptr)
		if p == nil {
			return
		}
		dir, ok = goPath("Workdir", p), true
	})
	return dir, ok
}

// State reports the operation currently in progress, if any. It is read
// fresh on every call.
func (r *Repository) State() RepositoryState {
	defer r.enter("State")()
	var raw int
	native(func() { raw = r.be.RepositoryState(r.ptr) })
	return decodeState(raw)
}

// Free releases the repository and every object still bound to it. Calling
// it more than once is a no-op.
func (r *Repository) Free() {
	if r == nil || r.ptr == 0 {
		return
	}
	defer r.guard.enter("Free")()
	r.cleanup.Stop()
	for obj := range r.objects {
		obj.free()
	}
	ptr := r.ptr
	r.ptr = 0
	native(func() { r.be.RepositoryFree(ptr) })
}

func (r *Repository) enter(op string) func() {
	if r == nil || r.ptr == 0 {
		invariant(op, "use of a freed repository")
	}
	return r.guard.enter(op)
}
