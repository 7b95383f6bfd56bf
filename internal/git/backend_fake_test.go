package git

import (
	"fmt"
	"sync"
	"testing"

	gitbackend "github.com/thiagokokada/gitbind/internal/git/backend"
)

// fakeBackend is a scriptable engine. Unset funcs panic so a test notices
// calls it did not expect.
type fakeBackend struct {
	mu      sync.Mutex
	calls   []string
	lastErr *gitbackend.ErrorInfo
	stats   gitbackend.Stats

	initCalls     int
	shutdownCalls int
	freedRepos    []gitbackend.Handle
	freedObjects  []gitbackend.Handle

	openFunc           func(out *gitbackend.Handle, path string) int
	initFunc           func(out *gitbackend.Handle, path string, isBare uint) int
	isBareFunc         func(repo gitbackend.Handle) int
	isShallowFunc      func(repo gitbackend.Handle) int
	isEmptyFunc        func(repo gitbackend.Handle) int
	pathFunc           func(repo gitbackend.Handle) []byte
	workdirFunc        func(repo gitbackend.Handle) []byte
	stateFunc          func(repo gitbackend.Handle) int
	revparseFunc       func(out *gitbackend.Revspec, spec string) int
	revparseSingleFunc func(out *gitbackend.Handle, spec string) int
	objectIDFunc       func(obj gitbackend.Handle) *gitbackend.Oid
	objectTypeFunc     func(obj gitbackend.Handle) int
	statsFunc          func() gitbackend.Stats
}

var _ gitbackend.Backend = (*fakeBackend)(nil)

// useFakeBackend installs f as the engine for the duration of the test.
func useFakeBackend(t *testing.T, f *fakeBackend) {
	t.Helper()
	origEngine := engine
	origInit := initialized.Load()
	engine = f
	initialized.Store(false)
	t.Cleanup(func() {
		engine = origEngine
		initialized.Store(origInit)
	})
}

// openedFake returns a fake whose RepositoryOpen hands out handle 1.
func openedFake() *fakeBackend {
	return &fakeBackend{
		openFunc: func(out *gitbackend.Handle, _ string) int {
			*out = 1
			return gitbackend.OK
		},
	}
}

func (f *fakeBackend) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
}

func (f *fakeBackend) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeBackend) freed() (repos, objects []gitbackend.Handle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]gitbackend.Handle(nil), f.freedRepos...), append([]gitbackend.Handle(nil), f.freedObjects...)
}

// fail mimics an engine failure: it fills the last-error slot.
func (f *fakeBackend) fail(code, class int, msg string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastErr = &gitbackend.ErrorInfo{Class: class, Message: append([]byte(msg), 0)}
	return code
}

func cPath(p []byte) string {
	return cStringBytes(p)
}

func (f *fakeBackend) LibraryInit() int {
	f.record("LibraryInit")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.initCalls++
	return f.initCalls - f.shutdownCalls
}

func (f *fakeBackend) LibraryShutdown() int {
	f.record("LibraryShutdown")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shutdownCalls++
	return f.initCalls - f.shutdownCalls
}

func (f *fakeBackend) ErrorLast() *gitbackend.ErrorInfo {
	f.record("ErrorLast")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

func (f *fakeBackend) ErrorClear() {
	f.record("ErrorClear")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastErr = nil
}

func (f *fakeBackend) RepositoryOpen(out *gitbackend.Handle, path []byte) int {
	f.record("RepositoryOpen")
	if f.openFunc == nil {
		panic("unexpected RepositoryOpen call")
	}
	return f.openFunc(out, cPath(path))
}

func (f *fakeBackend) RepositoryInit(out *gitbackend.Handle, path []byte, isBare uint) int {
	f.record("RepositoryInit")
	if f.initFunc == nil {
		panic("unexpected RepositoryInit call")
	}
	return f.initFunc(out, cPath(path), isBare)
}

func (f *fakeBackend) RepositoryFree(repo gitbackend.Handle) {
	f.record("RepositoryFree")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.freedRepos = append(f.freedRepos, repo)
}

func (f *fakeBackend) RepositoryIsBare(repo gitbackend.Handle) int {
	f.record("RepositoryIsBare")
	if f.isBareFunc == nil {
		panic("unexpected RepositoryIsBare call")
	}
	return f.isBareFunc(repo)
}

func (f *fakeBackend) RepositoryIsShallow(repo gitbackend.Handle) int {
	f.record("RepositoryIsShallow")
	if f.isShallowFunc == nil {
		panic("unexpected RepositoryIsShallow call")
	}
	return f.isShallowFunc(repo)
}

func (f *fakeBackend) RepositoryIsEmpty(repo gitbackend.Handle) int {
	f.record("RepositoryIsEmpty")
	if f.isEmptyFunc == nil {
		panic("unexpected RepositoryIsEmpty call")
	}
	return f.isEmptyFunc(repo)
}

func (f *fakeBackend) RepositoryPath(repo gitbackend.Handle) []byte {
	f.record("RepositoryPath")
	if f.pathFunc == nil {
		panic("unexpected RepositoryPath call")
	}
	return f.pathFunc(repo)
}

func (f *fakeBackend) RepositoryWorkdir(repo gitbackend.Handle) []byte {
	f.record("RepositoryWorkdir")
	if f.workdirFunc == nil {
		panic("unexpected RepositoryWorkdir call")
	}
	return f.workdirFunc(repo)
}

func (f *fakeBackend) RepositoryState(repo gitbackend.Handle) int {
	f.record("RepositoryState")
	if f.stateFunc == nil {
		panic("unexpected RepositoryState call")
	}
	return f.stateFunc(repo)
}

func (f *fakeBackend) Revparse(out *gitbackend.Revspec, _ gitbackend.Handle, spec []byte) int {
	f.record("Revparse")
	if f.revparseFunc == nil {
		panic("unexpected Revparse call")
	}
	return f.revparseFunc(out, cPath(spec))
}

func (f *fakeBackend) RevparseSingle(out *gitbackend.Handle, _ gitbackend.Handle, spec []byte) int {
	f.record("RevparseSingle")
	if f.revparseSingleFunc == nil {
		panic("unexpected RevparseSingle call")
	}
	return f.revparseSingleFunc(out, cPath(spec))
}

func (f *fakeBackend) ObjectFree(obj gitbackend.Handle) {
	f.record("ObjectFree")
	if obj == 0 {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.freedObjects = append(f.freedObjects, obj)
}

func (f *fakeBackend) ObjectID(obj gitbackend.Handle) *gitbackend.Oid {
	f.record("ObjectID")
	if f.objectIDFunc == nil {
		panic("unexpected ObjectID call")
	}
	return f.objectIDFunc(obj)
}

func (f *fakeBackend) ObjectType(obj gitbackend.Handle) int {
	f.record("ObjectType")
	if f.objectTypeFunc == nil {
		panic("unexpected ObjectType call")
	}
	return f.objectTypeFunc(obj)
}

func (f *fakeBackend) Stats() gitbackend.Stats {
	f.record("Stats")
	if f.statsFunc != nil {
		return f.statsFunc()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stats
}

func (f *fakeBackend) String() string {
	return fmt.Sprintf("fakeBackend(calls=%d)", len(f.callLog()))
}
