package telemetry

import (
	"fmt"
	"log/slog"
	"math"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkCheckpoint   BookmarkType = "checkpoint_reached"
	BookmarkBreakthrough BookmarkType = "breakthrough"
	BookmarkStagnation   BookmarkType = "stagnation"
)

// Bookmark is a notable moment of an evolutionary search.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Round       int          `csv:"round"`
	Generation  int          `csv:"generation"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark.
func (b Bookmark) LogBookmark(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("bookmark",
		"type", string(b.Type),
		"round", b.Round,
		"generation", b.Generation,
		"description", b.Description,
	)
}

// BookmarkDetector watches generation stats within a commit round.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []GenerationStats
	historySize int
	historyIdx  int
	historyFull bool

	round          int
	bestReached    int
	bestFitness    float64
	sinceImproved  int
	stagnantWindow int
}

// NewBookmarkDetector creates a detector. stagnantWindow is the number of
// generations without improvement that count as stagnation.
func NewBookmarkDetector(historySize, stagnantWindow int) *BookmarkDetector {
	if historySize < 3 {
		historySize = 3
	}
	if stagnantWindow < 1 {
		stagnantWindow = 1
	}
	return &BookmarkDetector{
		history:        make([]GenerationStats, historySize),
		historySize:    historySize,
		stagnantWindow: stagnantWindow,
		round:          -1,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
// A new round resets the history; reached checkpoints carry over.
func (bd *BookmarkDetector) Check(stats GenerationStats) []Bookmark {
	if stats.Round != bd.round {
		bd.round = stats.Round
		bd.historyIdx = 0
		bd.historyFull = false
		bd.sinceImproved = 0
		bd.bestFitness = math.Inf(-1)
	}

	var bookmarks []Bookmark
	if b := bd.checkCheckpoint(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkBreakthrough(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkStagnation(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	bd.addToHistory(stats)
	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats GenerationStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []GenerationStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

func (bd *BookmarkDetector) checkCheckpoint(stats GenerationStats) *Bookmark {
	if stats.BestReached <= bd.bestReached {
		return nil
	}
	old := bd.bestReached
	bd.bestReached = stats.BestReached
	return &Bookmark{
		Type:        BookmarkCheckpoint,
		Round:       stats.Round,
		Generation:  stats.Generation,
		Description: fmt.Sprintf("Best genome reaches %d checkpoints (was %d)", stats.BestReached, old),
	}
}

// checkBreakthrough fires when the best fitness jumps by more than twice
// the recent mean spread of the population.
func (bd *BookmarkDetector) checkBreakthrough(stats GenerationStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var spread float64
	for _, h := range history {
		spread += h.StdFitness
	}
	spread /= float64(len(history))
	if spread == 0 {
		return nil
	}

	prev := bd.history[(bd.historyIdx+bd.historySize-1)%bd.historySize].BestFitness
	gain := stats.BestFitness - prev
	if gain > 2*spread {
		return &Bookmark{
			Type:        BookmarkBreakthrough,
			Round:       stats.Round,
			Generation:  stats.Generation,
			Description: fmt.Sprintf("Best fitness rose %.1f, %.1fx the mean spread (%.1f)", gain, gain/spread, spread),
		}
	}
	return nil
}

// checkStagnation fires once every stagnantWindow generations without a
// better best fitness.
func (bd *BookmarkDetector) checkStagnation(stats GenerationStats) *Bookmark {
	if stats.BestFitness > bd.bestFitness {
		bd.bestFitness = stats.BestFitness
		bd.sinceImproved = 0
		return nil
	}
	bd.sinceImproved++
	if bd.sinceImproved%bd.stagnantWindow != 0 {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkStagnation,
		Round:       stats.Round,
		Generation:  stats.Generation,
		Description: fmt.Sprintf("No improvement over %d generations (best %.1f)", bd.sinceImproved, bd.bestFitness),
	}
}
