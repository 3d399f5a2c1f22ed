// Package evolve searches multi-frame input sequences with a generational
// genetic algorithm, committing a prefix of the best sequence each round.
package evolve

import (
	"slices"
	"sync"

	"github.com/pthm-cable/maunakea/player"
)

// Genome is a candidate input sequence, one angle per frame. Its fitness is
// computed at most once; concurrent callers wait for the first.
type Genome struct {
	Genes []player.Angle

	once sync.Once
	fit  Fitness
}

// NewGenome wraps genes without copying them.
func NewGenome(genes []player.Angle) *Genome {
	return &Genome{Genes: genes}
}

// Fitness returns the memoised fitness, evaluating with ev on first use.
func (g *Genome) Fitness(ev *Evaluator) Fitness {
	g.once.Do(func() {
		g.fit = ev.Evaluate(g.Genes)
	})
	return g.fit
}

// Clone returns an unevaluated copy of the genes.
func (g *Genome) Clone() *Genome {
	return NewGenome(slices.Clone(g.Genes))
}
