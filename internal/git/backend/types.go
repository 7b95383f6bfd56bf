package backend

// Handle is an opaque reference to an engine-owned resource. Zero is NULL.
type Handle uintptr

// Status codes returned by engine calls. Negative values signal failure and
// leave details in the last-error slot.
const (
	OK            = 0
	ERROR         = -1
	ENOTFOUND     = -3
	EEXISTS       = -4
	EAMBIGUOUS    = -5
	EBAREREPO     = -8
	EUNBORNBRANCH = -9
	EINVALIDSPEC  = -12
	EINVALID      = -21
)

// Error classes stored alongside the message in the last-error slot.
const (
	ErrorClassNone = iota
	ErrorClassNoMemory
	ErrorClassOS
	ErrorClassInvalid
	ErrorClassReference
	ErrorClassZlib
	ErrorClassRepository
	ErrorClassConfig
	ErrorClassRegex
	ErrorClassOdb
	ErrorClassIndex
	ErrorClassObject
)

// Repository states reported by RepositoryState.
const (
	StateNone = iota
	StateMerge
	StateRevert
	StateCherrypick
	StateBisect
	StateRebase
	StateRebaseInteractive
	StateRebaseMerge
	StateApplyMailbox
	StateApplyMailboxOrRebase
)

// Object types reported by ObjectType.
const (
	ObjectAny     = -2
	ObjectInvalid = -1
	ObjectCommit  = 1
	ObjectTree    = 2
	ObjectBlob    = 3
	ObjectTag     = 4
)

// Revparse mode flags.
const (
	RevparseSingle    uint = 1 << 0
	RevparseRange     uint = 1 << 1
	RevparseMergeBase uint = 1 << 2
)

// OidSize is the length of a raw object id.
const OidSize = 20

type Oid [OidSize]byte

// Revspec is the out-parameter of Revparse.
type Revspec struct {
	From  Handle
	To    Handle
	Flags uint
}

// ErrorInfo is the content of the last-error slot.
type ErrorInfo struct {
	Class   int
	Message []byte // NUL-terminated
}

// Stats exposes handle accounting for leak instrumentation.
type Stats struct {
	Live        int
	Allocated   int
	Freed       int
	DoubleFrees int
}
