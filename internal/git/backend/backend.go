package backend

// Backend is the engine's C-style function table.
//
// Calls return integer status codes (negative on failure, details in the
// last-error slot), take NUL-terminated byte strings, and hand out opaque
// handles that must be released with the matching Free call. Byte slices
// returned by the engine stay valid until the owning handle is freed; nil
// stands for NULL.
//
// The default implementation is backed by go-git, but the interface allows
// other engines (or fakes in tests) without changing callers.
type Backend interface {
	LibraryInit() int
	LibraryShutdown() int

	// ErrorLast returns the last-error slot, or nil when it is empty. Any
	// later engine call may overwrite it.
	ErrorLast() *ErrorInfo
	ErrorClear()

	RepositoryOpen(out *Handle, path []byte) int
	RepositoryInit(out *Handle, path []byte, isBare uint) int
	RepositoryFree(repo Handle)
	RepositoryIsBare(repo Handle) int
	RepositoryIsShallow(repo Handle) int
	RepositoryIsEmpty(repo Handle) int
	RepositoryPath(repo Handle) []byte
	RepositoryWorkdir(repo Handle) []byte
	RepositoryState(repo Handle) int

	Revparse(out *Revspec, repo Handle, spec []byte) int
	RevparseSingle(out *Handle, repo Handle, spec []byte) int

	ObjectFree(obj Handle)
	ObjectID(obj Handle) *Oid
	ObjectType(obj Handle) int

	Stats() Stats
}
