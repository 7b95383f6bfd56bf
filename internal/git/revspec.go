package git

import gitbackend "github.com/thiagokokada/gitbind/internal/git/backend"

// RevparseMode classifies a parsed revision expression.
type RevparseMode uint

const (
	RevparseSingle    RevparseMode = RevparseMode(gitbackend.RevparseSingle)
	RevparseRange     RevparseMode = RevparseMode(gitbackend.RevparseRange)
	RevparseMergeBase RevparseMode = RevparseMode(gitbackend.RevparseMergeBase)
)

// Revspec is the result of Repository.Revparse: one object for a single
// revision, two for a range. It owns its objects.
type Revspec struct {
	from *Object
	to   *Object
	mode RevparseMode
}

// From returns the first (or only) object, or nil.
func (rs *Revspec) From() *Object {
	return rs.from
}

// To returns the second object of a range. It is nil for single revisions.
func (rs *Revspec) To() *Object {
	return rs.to
}

func (rs *Revspec) Mode() RevparseMode {
	return rs.mode
}

func (rs *Revspec) IsRange() bool {
	return rs.mode&RevparseRange != 0
}

// Free releases both objects.
func (rs *Revspec) Free() {
	if rs == nil {
		return
	}
	rs.from.Free()
	rs.to.Free()
}

// newRevspec classifies the engine out-parameter. It expects the caller to
// hold the repository's confinement guard. Unrecognized flags release the
// returned handles and yield ErrUnsupportedRevspec.
func newRevspec(repo *Repository, raw gitbackend.Revspec) (*Revspec, error) {
	mode := RevparseMode(raw.Flags)
	switch {
	case mode&RevparseSingle != 0:
		if raw.To != 0 {
			invariant("Revparse", "single revspec has a second object")
		}
		if raw.From == 0 {
			invariant("Revparse", "single revspec has no object")
		}
		return &Revspec{from: newObject(repo, raw.From), mode: mode}, nil
	case mode&RevparseRange != 0:
		if raw.From == 0 || raw.To == 0 {
			invariant("Revparse", "range revspec is missing an endpoint")
		}
		return &Revspec{
			from: newObject(repo, raw.From),
			to:   newObject(repo, raw.To),
			mode: mode,
		}, nil
	}
	native(func() {
		repo.be.ObjectFree(raw.From)
		repo.be.ObjectFree(raw.To)
	})
	return nil, ErrUnsupportedRevspec
}
