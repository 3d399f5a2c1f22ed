package evolve

import (
	"encoding/json"
	"math/rand/v2"
	"slices"
	"sort"

	"github.com/pthm-cable/maunakea/player"
)

// HallEntry is a genome remembered by the hall of fame.
type HallEntry struct {
	Genes      []player.Angle `json:"genes"`
	Fitness    float64        `json:"fitness"`
	Reached    int            `json:"reached"`
	Round      int            `json:"round"`
	Generation int            `json:"generation"`
}

// HallOfFame keeps the best distinct genomes of the current commit round,
// so lineages lost to selection can be reseeded when the population
// stagnates.
type HallOfFame struct {
	entries []HallEntry
	maxSize int
}

// NewHallOfFame creates a hall with the given capacity. A zero capacity
// gives a hall that never admits anything.
func NewHallOfFame(maxSize int) *HallOfFame {
	return &HallOfFame{
		entries: make([]HallEntry, 0, maxSize),
		maxSize: maxSize,
	}
}

// Consider offers an evaluated genome to the hall. Returns true if it was
// added.
func (hof *HallOfFame) Consider(g *Genome, fit Fitness, round, generation int) bool {
	if hof.maxSize == 0 || fit.Value == Lowest {
		return false
	}
	for _, e := range hof.entries {
		if e.Fitness == fit.Value && slices.Equal(e.Genes, g.Genes) {
			return false
		}
	}

	var added bool
	hof.entries, added = hof.insertEntry(hof.entries, HallEntry{
		Genes:      slices.Clone(g.Genes),
		Fitness:    fit.Value,
		Reached:    fit.Reached,
		Round:      round,
		Generation: generation,
	})
	return added
}

// insertEntry adds an entry to the hall, maintaining sorted order by fitness.
// If the hall is full, the lowest-fitness entry is removed.
func (hof *HallOfFame) insertEntry(hall []HallEntry, entry HallEntry) ([]HallEntry, bool) {
	// Find insertion point (sorted descending by fitness)
	idx := sort.Search(len(hall), func(i int) bool {
		return hall[i].Fitness < entry.Fitness
	})

	// If hall is full and entry would be last (lowest), skip it
	if len(hall) >= hof.maxSize && idx >= hof.maxSize {
		return hall, false
	}

	hall = append(hall, HallEntry{})
	copy(hall[idx+1:], hall[idx:])
	hall[idx] = entry

	if len(hall) > hof.maxSize {
		hall = hall[:hof.maxSize]
	}
	return hall, true
}

// Sample picks an entry by tournament selection and returns a copy of its
// genes, or nil if the hall is empty.
func (hof *HallOfFame) Sample(rng *rand.Rand) []player.Angle {
	if len(hof.entries) == 0 {
		return nil
	}

	const tournamentSize = 3
	best := -1
	for range tournamentSize {
		i := rng.IntN(len(hof.entries))
		if best < 0 || hof.entries[i].Fitness > hof.entries[best].Fitness {
			best = i
		}
	}
	return slices.Clone(hof.entries[best].Genes)
}

// Reset empties the hall. Genes are relative to the canonical state, so
// the hall is cleared whenever frames are committed.
func (hof *HallOfFame) Reset() {
	hof.entries = hof.entries[:0]
}

// Len returns the number of entries.
func (hof *HallOfFame) Len() int { return len(hof.entries) }

// TopFitness returns the highest fitness in the hall, or Lowest if empty.
func (hof *HallOfFame) TopFitness() float64 {
	if len(hof.entries) == 0 {
		return Lowest
	}
	return hof.entries[0].Fitness
}

// MarshalJSON serializes the entries, best first.
func (hof *HallOfFame) MarshalJSON() ([]byte, error) {
	if hof == nil {
		return []byte("[]"), nil
	}
	return json.MarshalIndent(hof.entries, "", "  ")
}
