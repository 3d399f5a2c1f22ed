package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "nested", "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreOpenCreatesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a", "b", "runs.db")

	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err)

	// Reopening runs the migration again without error.
	again, err := Open(path)
	require.NoError(t, err)
	assert.NoError(t, again.Close())
}

func TestSaveAndRecentRuns(t *testing.T) {
	store := openTemp(t)

	runs := []Run{
		{Scenario: "room", Mode: "solve", Status: "success", Frames: 120, Checkpoints: 2, Script: "120,f,0.0\n"},
		{Scenario: "room", Mode: "evolve", Status: "exhausted", Frames: 300, Checkpoints: 1, Seed: 42, Fitness: -12.5, Note: "exhausted", Script: "300,f,90.0\n", Duration: 1500 * time.Millisecond},
		{Scenario: "cave", Mode: "solve", Status: "aborted", Frames: 7, Note: "aborted: frame 7: no feasible angle", Script: "7,f,180.0\n"},
	}
	for _, r := range runs {
		id, err := store.SaveRun(r)
		require.NoError(t, err)
		assert.Positive(t, id)
	}

	all, err := store.RecentRuns("", 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "cave", all[0].Scenario, "newest first")

	room, err := store.RecentRuns("room", 10)
	require.NoError(t, err)
	require.Len(t, room, 2)
	got := room[0]
	assert.Equal(t, "evolve", got.Mode)
	assert.Equal(t, uint64(42), got.Seed)
	assert.Equal(t, -12.5, got.Fitness)
	assert.Equal(t, "exhausted", got.Note)
	assert.Equal(t, 1500*time.Millisecond, got.Duration)
	assert.Equal(t, "300,f,90.0\n", got.Script)

	limited, err := store.RecentRuns("", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestBestRun(t *testing.T) {
	store := openTemp(t)

	best, err := store.BestRun("room")
	require.NoError(t, err)
	assert.Nil(t, best)

	for _, r := range []Run{
		{Scenario: "room", Mode: "solve", Status: "success", Frames: 120, Script: "a"},
		{Scenario: "room", Mode: "evolve", Status: "success", Frames: 97, Script: "b"},
		{Scenario: "room", Mode: "evolve", Status: "exhausted", Frames: 50, Script: "c"},
	} {
		_, err := store.SaveRun(r)
		require.NoError(t, err)
	}

	best, err = store.BestRun("room")
	require.NoError(t, err)
	require.NotNil(t, best)
	assert.Equal(t, 97, best.Frames)
	assert.Equal(t, "b", best.Script)
}
