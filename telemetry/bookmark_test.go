package telemetry

import "testing"

func gen(round, generation int, best, std float64, reached int) GenerationStats {
	return GenerationStats{
		Round:       round,
		Generation:  generation,
		BestFitness: best,
		StdFitness:  std,
		BestReached: reached,
	}
}

func countType(bookmarks []Bookmark, typ BookmarkType) int {
	n := 0
	for _, b := range bookmarks {
		if b.Type == typ {
			n++
		}
	}
	return n
}

func TestBookmarkDetector_Checkpoint(t *testing.T) {
	bd := NewBookmarkDetector(5, 100)

	if got := bd.Check(gen(0, 0, 10, 1, 0)); countType(got, BookmarkCheckpoint) != 0 {
		t.Error("no checkpoint reached yet")
	}
	if got := bd.Check(gen(0, 1, 20, 1, 1)); countType(got, BookmarkCheckpoint) != 1 {
		t.Errorf("expected checkpoint bookmark, got %v", got)
	}
	if got := bd.Check(gen(0, 2, 30, 1, 1)); countType(got, BookmarkCheckpoint) != 0 {
		t.Error("same checkpoint count must not fire again")
	}
	// Carries over into the next round.
	if got := bd.Check(gen(1, 0, 30, 1, 1)); countType(got, BookmarkCheckpoint) != 0 {
		t.Error("checkpoint count must carry across rounds")
	}
}

func TestBookmarkDetector_Breakthrough(t *testing.T) {
	bd := NewBookmarkDetector(5, 100)

	for i := range 3 {
		if got := bd.Check(gen(0, i, float64(i), 2, 0)); countType(got, BookmarkBreakthrough) != 0 {
			t.Fatalf("generation %d: unexpected breakthrough", i)
		}
	}
	// Gain of 3 is below twice the spread of 2.
	if got := bd.Check(gen(0, 3, 5, 2, 0)); countType(got, BookmarkBreakthrough) != 0 {
		t.Error("small gain must not be a breakthrough")
	}
	if got := bd.Check(gen(0, 4, 50, 2, 0)); countType(got, BookmarkBreakthrough) != 1 {
		t.Errorf("expected breakthrough, got %v", got)
	}
}

func TestBookmarkDetector_Stagnation(t *testing.T) {
	bd := NewBookmarkDetector(5, 3)

	fired := 0
	for i := range 7 {
		fired += countType(bd.Check(gen(0, i, 10, 1, 0)), BookmarkStagnation)
	}
	// Generation 0 sets the best; 6 stale generations fire twice.
	if fired != 2 {
		t.Errorf("stagnation fired %d times, want 2", fired)
	}

	// A new round restarts the count.
	if got := bd.Check(gen(1, 0, 10, 1, 0)); countType(got, BookmarkStagnation) != 0 {
		t.Error("first generation of a round must not stagnate")
	}
}
