package git

import gitbackend "github.com/thiagokokada/gitbind/internal/git/backend"

// RepositoryState describes an operation in progress on a repository.
type RepositoryState uint8

const (
	StateClean RepositoryState = iota
	StateMerge
	StateRevert
	StateCherryPick
	StateBisect
	StateRebase
	StateRebaseInteractive
	StateRebaseMerge
	StateApplyMailbox
	StateApplyMailboxOrRebase
)

func (s RepositoryState) String() string {
	switch s {
	case StateClean:
		return "clean"
	case StateMerge:
		return "merge"
	case StateRevert:
		return "revert"
	case StateCherryPick:
		return "cherry-pick"
	case StateBisect:
		return "bisect"
	case StateRebase:
		return "rebase"
	case StateRebaseInteractive:
		return "rebase-interactive"
	case StateRebaseMerge:
		return "rebase-merge"
	case StateApplyMailbox:
		return "apply-mailbox"
	case StateApplyMailboxOrRebase:
		return "apply-mailbox-or-rebase"
	}
	return "unknown"
}

// decodeState maps the engine integer onto RepositoryState. The set is
// closed: an unknown value means the engine and this package disagree on
// the contract, which is fatal.
func decodeState(raw int) RepositoryState {
	switch raw {
	case gitbackend.StateNone:
		return StateClean
	case gitbackend.StateMerge:
		return StateMerge
	case gitbackend.StateRevert:
		return StateRevert
	case gitbackend.StateCherrypick:
		return StateCherryPick
	case gitbackend.StateBisect:
		return StateBisect
	case gitbackend.StateRebase:
		return StateRebase
	case gitbackend.StateRebaseInteractive:
		return StateRebaseInteractive
	case gitbackend.StateRebaseMerge:
		return StateRebaseMerge
	case gitbackend.StateApplyMailbox:
		return StateApplyMailbox
	case gitbackend.StateApplyMailboxOrRebase:
		return StateApplyMailboxOrRebase
	}
	invariant("State", "unknown repository state: %d", raw)
	return StateClean
}
