package git

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitChange(t *testing.T, w *StateWatcher) StateChange {
	t.Helper()
	select {
	case change, ok := <-w.Changes():
		require.True(t, ok, "changes channel closed early")
		return change
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for state change")
	}
	return StateChange{}
}

func TestWatchStateReportsMerge(t *testing.T) {
	dir, repo := initRepo(t, false)
	commitFile(t, dir, "README", "hello\n")
	repo.Free()

	w, err := WatchState(dir, 20*time.Millisecond)
	require.NoError(t, err)
	defer w.Close()
	assert.Equal(t, StateClean, w.Current())

	mergeHead := filepath.Join(dir, ".git", "MERGE_HEAD")
	require.NoError(t, os.WriteFile(mergeHead, []byte("0123456789abcdef0123456789abcdef01234567\n"), 0o644))
	assert.Equal(t, StateChange{From: StateClean, To: StateMerge}, waitChange(t, w))
	assert.Equal(t, StateMerge, w.Current())

	require.NoError(t, os.Remove(mergeHead))
	assert.Equal(t, StateChange{From: StateMerge, To: StateClean}, waitChange(t, w))
}

func TestWatchStateFollowsRebaseDir(t *testing.T) {
	dir, repo := initRepo(t, false)
	commitFile(t, dir, "README", "hello\n")
	repo.Free()

	w, err := WatchState(dir, 20*time.Millisecond)
	require.NoError(t, err)
	defer w.Close()

	rebaseDir := filepath.Join(dir, ".git", "rebase-merge")
	require.NoError(t, os.Mkdir(rebaseDir, 0o755))
	assert.Equal(t, StateChange{From: StateClean, To: StateRebaseMerge}, waitChange(t, w))

	require.NoError(t, os.WriteFile(filepath.Join(rebaseDir, "interactive"), nil, 0o644))
	assert.Equal(t, StateChange{From: StateRebaseMerge, To: StateRebaseInteractive}, waitChange(t, w))
}

func TestWatchStateCloseClosesChanges(t *testing.T) {
	dir, repo := initRepo(t, true)
	repo.Free()

	before := HandleStats()
	w, err := WatchState(dir, 0)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	_, ok := <-w.Changes()
	assert.False(t, ok)
	assert.Equal(t, before.Live, HandleStats().Live)
}

func TestWatchStateMissingRepository(t *testing.T) {
	w, err := WatchState(filepath.Join(t.TempDir(), "missing"), 0)
	assert.Nil(t, w)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestShouldIgnoreWatchPath(t *testing.T) {
	assert.True(t, shouldIgnoreWatchPath("/r/.git/index.lock"))
	assert.True(t, shouldIgnoreWatchPath("/r/.git/HEAD.LOCK"))
	assert.False(t, shouldIgnoreWatchPath("/r/.git/MERGE_HEAD"))
}
