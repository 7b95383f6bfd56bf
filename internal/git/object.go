package git

import (
	"encoding/hex"
	"fmt"

	gitbackend "github.com/thiagokokada/gitbind/internal/git/backend"
)

// Oid is a raw object id.
type Oid [gitbackend.OidSize]byte

// NewOid parses a full hexadecimal object id.
func NewOid(s string) (Oid, error) {
	var id Oid
	if len(s) != hex.EncodedLen(len(id)) {
		return id, fmt.Errorf("invalid object id %q: want %d hex digits", s, hex.EncodedLen(len(id)))
	}
	if _, err := hex.Decode(id[:], []byte(s)); err != nil {
		return id, fmt.Errorf("invalid object id %q: %w", s, err)
	}
	return id, nil
}

func (id Oid) String() string {
	return hex.EncodeToString(id[:])
}

func (id Oid) Equal(other Oid) bool {
	return id == other
}

func (id Oid) IsZero() bool {
	return id == Oid{}
}

type ObjectType int

const (
	ObjectAny     ObjectType = gitbackend.ObjectAny
	ObjectInvalid ObjectType = gitbackend.ObjectInvalid
	ObjectCommit  ObjectType = gitbackend.ObjectCommit
	ObjectTree    ObjectType = gitbackend.ObjectTree
	ObjectBlob    ObjectType = gitbackend.ObjectBlob
	ObjectTag     ObjectType = gitbackend.ObjectTag
)

func (t ObjectType) String() string {
	switch t {
	case ObjectAny:
		return "any"
	case ObjectCommit:
		return "commit"
	case ObjectTree:
		return "tree"
	case ObjectBlob:
		return "blob"
	case ObjectTag:
		return "tag"
	}
	return "invalid"
}

// Object is one engine object (commit, tree, blob or tag). It can only be
// obtained from a Repository and is unusable once it, or its repository, has
// been freed.
type Object struct {
	_    noCopy
	ptr  gitbackend.Handle
	repo *Repository
}

// newObject expects repo to be live and ptr to be non-NULL.
func newObject(repo *Repository, ptr gitbackend.Handle) *Object {
	obj := &Object{ptr: ptr, repo: repo}
	repo.objects[obj] = struct{}{}
	repo.owned.objects[ptr] = struct{}{}
	return obj
}

func (o *Object) ID() Oid {
	defer o.enter("Object.ID")()
	var id *gitbackend.Oid
	native(func() { id = o.repo.be.ObjectID(o.ptr) })
	if id == nil {
		invariant("Object.ID", "engine returned NULL id for a live object")
	}
	return Oid(*id)
}

func (o *Object) Type() ObjectType {
	defer o.enter("Object.Type")()
	var t int
	native(func() { t = o.repo.be.ObjectType(o.ptr) })
	return ObjectType(t)
}

// Owner returns the repository the object was resolved from.
func (o *Object) Owner() *Repository {
	o.checkLive("Object.Owner")
	return o.repo
}

// String returns the hex id, or "<freed>" once the object is unusable.
func (o *Object) String() string {
	if o == nil || o.ptr == 0 || o.repo == nil || o.repo.ptr == 0 {
		return "<freed>"
	}
	return o.ID().String()
}

// Free releases the object. Calling it more than once is a no-op.
func (o *Object) Free() {
	if o == nil || o.ptr == 0 || o.repo == nil || o.repo.ptr == 0 {
		return
	}
	defer o.repo.guard.enter("Object.Free")()
	o.free()
}

// free expects the caller to hold the repository's confinement guard.
func (o *Object) free() {
	ptr := o.ptr
	o.ptr = 0
	delete(o.repo.objects, o)
	delete(o.repo.owned.objects, ptr)
	native(func() { o.repo.be.ObjectFree(ptr) })
}

func (o *Object) checkLive(op string) {
	if o == nil || o.ptr == 0 {
		invariant(op, "use of a freed object")
	}
	if o.repo == nil || o.repo.ptr == 0 {
		invariant(op, "object used after its repository was freed")
	}
}

func (o *Object) enter(op string) func() {
	o.checkLive(op)
	return o.repo.guard.enter(op)
}
