package backend

import (
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

func (g *GoGit) Revparse(out *Revspec, repo Handle, spec []byte) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	res, code := g.repository(repo)
	if code < 0 {
		return code
	}
	if out == nil {
		return g.fail(EINVALID, ErrorClassInvalid, "output revspec is NULL")
	}
	s, ok := cString(spec)
	if !ok {
		return g.fail(EINVALID, ErrorClassInvalid, "revspec is not NUL-terminated")
	}
	fromSpec, toSpec, flags := splitRange(s)
	from, code := g.resolve(repo, res, fromSpec)
	if code < 0 {
		return code
	}
	if flags&RevparseSingle != 0 {
		*out = Revspec{From: g.alloc(from), Flags: flags}
		return OK
	}
	to, code := g.resolve(repo, res, toSpec)
	if code < 0 {
		return code
	}
	*out = Revspec{From: g.alloc(from), To: g.alloc(to), Flags: flags}
	return OK
}

func (g *GoGit) RevparseSingle(out *Handle, repo Handle, spec []byte) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	res, code := g.repository(repo)
	if code < 0 {
		return code
	}
	if out == nil {
		return g.fail(EINVALID, ErrorClassInvalid, "output handle is NULL")
	}
	s, ok := cString(spec)
	if !ok {
		return g.fail(EINVALID, ErrorClassInvalid, "revspec is not NUL-terminated")
	}
	if strings.Contains(s, "..") {
		return g.fail(EINVALIDSPEC, ErrorClassInvalid, "invalid pattern '%s': ranges resolve to two objects", s)
	}
	obj, code := g.resolve(repo, res, s)
	if code < 0 {
		return code
	}
	*out = g.alloc(obj)
	return OK
}

// splitRange splits "a..b" and "a...b"; an empty side stands for HEAD.
func splitRange(spec string) (from, to string, flags uint) {
	idx := strings.Index(spec, "..")
	if idx < 0 {
		return spec, "", RevparseSingle
	}
	from, to, flags = spec[:idx], spec[idx+2:], RevparseRange
	if strings.HasPrefix(to, ".") {
		to = to[1:]
		flags |= RevparseMergeBase
	}
	if from == "" {
		from = "HEAD"
	}
	if to == "" {
		to = "HEAD"
	}
	return from, to, flags
}

func (g *GoGit) resolve(owner Handle, res *repoResource, spec string) (*objectResource, int) {
	if spec == "" {
		return nil, g.fail(EINVALIDSPEC, ErrorClassInvalid, "empty revision specifier")
	}
	obj, err := evalRevision(res.repo, spec)
	if err != nil {
		return nil, g.failRevision(spec, err)
	}
	return &objectResource{owner: owner, id: Oid(obj.ID()), typ: objectTypeCode(obj.Type())}, OK
}

func (g *GoGit) failRevision(spec string, err error) int {
	var revErr *revisionError
	switch {
	case errors.As(err, &revErr):
		return g.fail(revErr.code, revErr.class, "%s", revErr.msg)
	case errors.Is(err, plumbing.ErrReferenceNotFound):
		return g.fail(ENOTFOUND, ErrorClassReference, "revspec '%s' not found", spec)
	case errors.Is(err, plumbing.ErrObjectNotFound),
		errors.Is(err, object.ErrParentNotFound),
		errors.Is(err, object.ErrEntryNotFound),
		errors.Is(err, object.ErrDirectoryNotFound),
		errors.Is(err, object.ErrFileNotFound):
		return g.fail(ENOTFOUND, ErrorClassOdb, "object '%s' not found: %v", spec, err)
	}
	return g.fail(EINVALIDSPEC, ErrorClassInvalid, "failed to parse revision specifier '%s': %v", spec, err)
}

type revisionError struct {
	code  int
	class int
	msg   string
}

func (e *revisionError) Error() string {
	return e.msg
}

func unsupportedRevision(spec, what string) error {
	return &revisionError{
		code:  EINVALIDSPEC,
		class: ErrorClassInvalid,
		msg:   fmt.Sprintf("failed to parse revision specifier '%s': %s", spec, what),
	}
}

// evalRevision resolves a base name followed by ^, ~, ^{...} and :<path>
// suffixes. Syntax outside that grammar fails instead of being approximated.
func evalRevision(repo *gitlib.Repository, spec string) (object.Object, error) {
	if strings.Contains(spec, "@{") {
		return nil, unsupportedRevision(spec, "reflog selectors are not supported")
	}
	if strings.HasPrefix(spec, ":") {
		return nil, unsupportedRevision(spec, "index paths and message searches are not supported")
	}
	rev, treePath, hasPath := cutTreePath(spec)
	end := strings.IndexAny(rev, "^~")
	if end < 0 {
		end = len(rev)
	}
	base := rev[:end]
	switch base {
	case "":
		return nil, unsupportedRevision(spec, "missing base revision")
	case "@":
		base = "HEAD"
	}
	obj, err := lookupBase(repo, spec, base)
	if err != nil {
		return nil, err
	}
	for ops := rev[end:]; ops != ""; {
		obj, ops, err = applySuffix(obj, spec, ops)
		if err != nil {
			return nil, err
		}
	}
	if hasPath {
		return lookupTreePath(repo, obj, spec, treePath)
	}
	return obj, nil
}

// cutTreePath splits "rev:path" on the first colon outside a ^{...} group.
func cutTreePath(spec string) (rev, treePath string, ok bool) {
	depth := 0
	for i := 0; i < len(spec); i++ {
		switch spec[i] {
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		case ':':
			if depth == 0 {
				return spec[:i], spec[i+1:], true
			}
		}
	}
	return spec, "", false
}

// lookupBase resolves a full id, a reference name or an abbreviated id, in
// that order. References are not peeled: an annotated tag yields the tag.
func lookupBase(repo *gitlib.Repository, spec, name string) (object.Object, error) {
	if plumbing.IsHash(name) {
		obj, err := repo.Object(plumbing.AnyObject, plumbing.NewHash(name))
		if err == nil {
			return obj, nil
		}
		if !errors.Is(err, plumbing.ErrObjectNotFound) {
			return nil, err
		}
	}
	for _, rule := range plumbing.RefRevParseRules {
		ref, err := repo.Reference(plumbing.ReferenceName(fmt.Sprintf(rule, name)), true)
		if err == nil {
			return repo.Object(plumbing.AnyObject, ref.Hash())
		}
	}
	hashes, err := hashesWithPrefix(repo, name)
	if err != nil {
		return nil, err
	}
	switch len(hashes) {
	case 0:
		return nil, plumbing.ErrReferenceNotFound
	case 1:
		return repo.Object(plumbing.AnyObject, hashes[0])
	}
	return nil, &revisionError{
		code:  EAMBIGUOUS,
		class: ErrorClassOdb,
		msg:   fmt.Sprintf("short id '%s' in '%s' is ambiguous: %d candidates", name, spec, len(hashes)),
	}
}

type prefixSearcher interface {
	HashesWithPrefix(prefix []byte) ([]plumbing.Hash, error)
}

func hashesWithPrefix(repo *gitlib.Repository, name string) ([]plumbing.Hash, error) {
	if len(name) < minAbbrev || len(name) >= OidSize*2 || !isHex(name) {
		return nil, nil
	}
	searcher, ok := repo.Storer.(prefixSearcher)
	if !ok {
		return nil, nil
	}
	even := name[:len(name)&^1]
	prefix, err := hex.DecodeString(even)
	if err != nil {
		return nil, nil
	}
	candidates, err := searcher.HashesWithPrefix(prefix)
	if err != nil || len(even) == len(name) {
		return candidates, err
	}
	var hashes []plumbing.Hash
	for _, h := range candidates {
		if strings.HasPrefix(h.String(), name) {
			hashes = append(hashes, h)
		}
	}
	return hashes, nil
}

const minAbbrev = 4

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F') {
			return false
		}
	}
	return true
}

// applySuffix consumes one ^ or ~ operator from ops.
func applySuffix(obj object.Object, spec, ops string) (object.Object, string, error) {
	op := ops[0]
	ops = ops[1:]
	if op == '^' && strings.HasPrefix(ops, "{") {
		end := strings.IndexByte(ops, '}')
		if end < 0 {
			return nil, "", unsupportedRevision(spec, "unterminated ^{...}")
		}
		next, err := peelSuffix(obj, spec, ops[1:end])
		return next, ops[end+1:], err
	}
	if op != '^' && op != '~' {
		return nil, "", unsupportedRevision(spec, fmt.Sprintf("unexpected %q", op))
	}
	digits := len(ops) - len(strings.TrimLeft(ops, "0123456789"))
	n := 1
	if digits > 0 {
		var err error
		if n, err = strconv.Atoi(ops[:digits]); err != nil {
			return nil, "", unsupportedRevision(spec, err.Error())
		}
	}
	ops = ops[digits:]
	commit, err := peelCommit(obj, spec)
	if err != nil {
		return nil, "", err
	}
	if op == '^' {
		if n == 0 {
			return commit, ops, nil
		}
		parent, err := commit.Parent(n - 1)
		return parent, ops, err
	}
	for range n {
		if commit, err = commit.Parent(0); err != nil {
			return nil, "", err
		}
	}
	return commit, ops, nil
}

func peelSuffix(obj object.Object, spec, target string) (object.Object, error) {
	switch target {
	case "":
		for {
			tag, ok := obj.(*object.Tag)
			if !ok {
				return obj, nil
			}
			next, err := tag.Object()
			if err != nil {
				return nil, err
			}
			obj = next
		}
	case "object":
		return obj, nil
	case "commit":
		return peel(obj, spec, plumbing.CommitObject)
	case "tree":
		return peel(obj, spec, plumbing.TreeObject)
	case "blob":
		return peel(obj, spec, plumbing.BlobObject)
	case "tag":
		return peel(obj, spec, plumbing.TagObject)
	}
	if pattern, ok := strings.CutPrefix(target, "/"); ok && !strings.HasPrefix(pattern, "!") {
		return searchMessage(obj, spec, pattern)
	}
	return nil, unsupportedRevision(spec, fmt.Sprintf("unsupported peel target '^{%s}'", target))
}

// peel follows tags, and commits to their tree, until an object of type want
// is reached.
func peel(obj object.Object, spec string, want plumbing.ObjectType) (object.Object, error) {
	for obj.Type() != want {
		var err error
		switch o := obj.(type) {
		case *object.Tag:
			obj, err = o.Object()
		case *object.Commit:
			if want != plumbing.TreeObject {
				return nil, peelError(spec, obj, want)
			}
			obj, err = o.Tree()
		default:
			return nil, peelError(spec, obj, want)
		}
		if err != nil {
			return nil, err
		}
	}
	return obj, nil
}

func peelCommit(obj object.Object, spec string) (*object.Commit, error) {
	peeled, err := peel(obj, spec, plumbing.CommitObject)
	if err != nil {
		return nil, err
	}
	return peeled.(*object.Commit), nil
}

func peelError(spec string, obj object.Object, want plumbing.ObjectType) error {
	return &revisionError{
		code:  EINVALIDSPEC,
		class: ErrorClassObject,
		msg:   fmt.Sprintf("the %s in '%s' cannot be peeled to a %s", obj.Type(), spec, want),
	}
}

// searchMessage walks history from obj and returns the first commit whose
// message matches pattern.
func searchMessage(obj object.Object, spec, pattern string) (object.Object, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, &revisionError{code: EINVALIDSPEC, class: ErrorClassRegex, msg: fmt.Sprintf("invalid pattern in '%s': %v", spec, err)}
	}
	start, err := peelCommit(obj, spec)
	if err != nil {
		return nil, err
	}
	var found *object.Commit
	err = object.NewCommitPreorderIter(start, nil, nil).ForEach(func(c *object.Commit) error {
		if re.MatchString(c.Message) {
			found = c
			return storer.ErrStop
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, &revisionError{code: ENOTFOUND, class: ErrorClassReference, msg: fmt.Sprintf("no commit message matches '%s'", pattern)}
	}
	return found, nil
}

// lookupTreePath resolves "<rev>:<path>". An empty path names the tree itself.
func lookupTreePath(repo *gitlib.Repository, obj object.Object, spec, treePath string) (object.Object, error) {
	peeled, err := peel(obj, spec, plumbing.TreeObject)
	if err != nil {
		return nil, err
	}
	treePath = strings.Trim(treePath, "/")
	if treePath == "" {
		return peeled, nil
	}
	entry, err := peeled.(*object.Tree).FindEntry(treePath)
	if err != nil {
		return nil, err
	}
	return repo.Object(plumbing.AnyObject, entry.Hash)
}

func objectTypeCode(t plumbing.ObjectType) int {
	switch t {
	case plumbing.CommitObject:
		return ObjectCommit
	case plumbing.TreeObject:
		return ObjectTree
	case plumbing.BlobObject:
		return ObjectBlob
	case plumbing.TagObject:
		return ObjectTag
	}
	return ObjectInvalid
}
