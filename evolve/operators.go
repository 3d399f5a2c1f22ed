package evolve

import (
	"math/rand/v2"
	"sort"

	"github.com/pthm-cable/maunakea/player"
)

// randomAngle samples the whole angle domain.
func randomAngle(rng *rand.Rand) player.Angle {
	return player.Angle(rng.IntN(int(player.FullTurn)))
}

// randomGenes returns n independent random angles.
func randomGenes(rng *rand.Rand, n int) []player.Angle {
	genes := make([]player.Angle, n)
	for i := range genes {
		genes[i] = randomAngle(rng)
	}
	return genes
}

// rankSelector picks parents by linear ranking: with pressure s in [1, 2],
// the worst of n has weight (2-s)/n and the best s/n.
type rankSelector struct {
	cumulative []float64
}

// newRankSelector expects ranked best first.
func newRankSelector(n int, pressure float64) *rankSelector {
	cum := make([]float64, n)
	total := 0.0
	for i := range n {
		// rank 0 is the worst
		r := float64(n - 1 - i)
		p := (2 - pressure) / float64(n)
		if n > 1 {
			p += 2 * r * (pressure - 1) / (float64(n) * float64(n-1))
		}
		total += p
		cum[i] = total
	}
	return &rankSelector{cumulative: cum}
}

// pick returns an index into the ranked population.
func (s *rankSelector) pick(rng *rand.Rand) int {
	u := rng.Float64() * s.cumulative[len(s.cumulative)-1]
	i := sort.SearchFloat64s(s.cumulative, u)
	// SearchFloat64s returns the first cumulative >= u; a zero-weight
	// slot shares its bound with the previous one and is never first.
	if i >= len(s.cumulative) {
		i = len(s.cumulative) - 1
	}
	return i
}

// crossover combines two parents of equal length at one or two cut points.
func crossover(rng *rand.Rand, a, b []player.Angle, points int) []player.Angle {
	n := len(a)
	child := make([]player.Angle, n)
	if n < 2 {
		copy(child, a)
		return child
	}

	c1 := 1 + rng.IntN(n-1)
	c2 := n
	if points >= 2 && n > 2 {
		c2 = 1 + rng.IntN(n-1)
		for c2 == c1 {
			c2 = 1 + rng.IntN(n-1)
		}
		if c2 < c1 {
			c1, c2 = c2, c1
		}
	}
	copy(child, a[:c1])
	copy(child[c1:], b[c1:c2])
	copy(child[c2:], a[c2:])
	return child
}

// mutation holds the per-gene mutation parameters.
type mutation struct {
	rate      float64
	maxDelta  int
	resetRate float64
}

// apply mutates genes in place. A mutated gene is either resampled or
// shifted by a uniform delta in [-maxDelta, maxDelta].
func (m mutation) apply(rng *rand.Rand, genes []player.Angle) {
	for i := range genes {
		if rng.Float64() >= m.rate {
			continue
		}
		if rng.Float64() < m.resetRate {
			genes[i] = randomAngle(rng)
			continue
		}
		delta := player.Angle(rng.IntN(2*m.maxDelta+1) - m.maxDelta)
		genes[i] = (genes[i] + delta).Normalize()
	}
}
