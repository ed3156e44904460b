package neat

import (
	"io"
	"log/slog"
	"maps"
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestSpecies builds a species whose members are clones of one genome
// carrying the given fitness per agent ID.
func newTestSpecies(t *testing.T, key int, fitness map[int]float64, pool *ColorPool, rng *rand.Rand) *Species {
	t.Helper()
	config := DefaultConfig(2, 1)
	base := NewGenome(&config.Genome, NewInnovationRegistry(), rng)

	var s *Species
	for _, id := range slices.Sorted(maps.Keys(fitness)) {
		g := base.Clone()
		g.Fitness = fitness[id]
		if s == nil {
			s = NewSpecies(key, id, g, pool, rng)
			continue
		}
		s.Add(id, g)
	}
	require.NotNil(t, s)
	return s
}

func TestNewSpecies(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	pool := NewColorPool()
	config := DefaultConfig(2, 1)
	founder := NewGenome(&config.Genome, NewInnovationRegistry(), rng)

	s := NewSpecies(4, 7, founder, pool, rng)

	assert.Equal(t, 4, s.Key)
	assert.Equal(t, []int{7}, s.AgentIDs())
	assert.Same(t, founder, s.Members[7])
	assert.NotSame(t, founder, s.Representative, "representative must be a clone")
	assert.True(t, s.Compatible(founder))
	require.True(t, s.HasColor)
	assert.True(t, pool.InUse(s.Color))

	s.Release(pool)
	assert.False(t, s.HasColor)
	assert.False(t, pool.InUse(s.Color))
}

func TestSpecies_CullKeepsFittest(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	s := newTestSpecies(t, 1, map[int]float64{1: 10, 2: 50, 3: 30, 4: 20, 5: 40}, nil, rng)
	before := s.Members[2]

	s.Cull(0.5)

	assert.Equal(t, []int{2, 3, 5}, s.AgentIDs())
	assert.NotSame(t, before, s.Members[2], "survivors are clones")
	assert.Equal(t, 50.0, Fitness(s.Members[2]))
}

func TestSpecies_CullKeepsAtLeastOne(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	s := newTestSpecies(t, 1, map[int]float64{1: 10, 2: 50, 3: 30, 4: 20, 5: 40}, nil, rng)

	s.Cull(0.1)
	assert.Equal(t, []int{2}, s.AgentIDs())
}

func TestSpecies_CullTiesPreferLowerAgentID(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	s := newTestSpecies(t, 1, map[int]float64{9: 5, 3: 5, 6: 5, 1: 5}, nil, rng)

	s.Cull(0.5)
	assert.Equal(t, []int{1, 3}, s.AgentIDs())
}

func TestSpecies_UpdateStaleness(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	s := newTestSpecies(t, 1, map[int]float64{1: 10, 2: 50, 3: 30}, nil, rng)

	s.UpdateStaleness()
	assert.Equal(t, 0, s.Staleness)
	assert.Equal(t, 50.0, s.BestFitness)
	assert.Equal(t, 2, s.BestAgentID)

	s.UpdateStaleness()
	assert.Equal(t, 1, s.Staleness, "equal fitness is not an improvement")

	s.Members[3].Network().Fitness = 60
	s.UpdateStaleness()
	assert.Equal(t, 0, s.Staleness)
	assert.Equal(t, 60.0, s.BestFitness)
	assert.Equal(t, 3, s.BestAgentID)
}

func TestSpecies_ShareAndAverageFitness(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	s := newTestSpecies(t, 1, map[int]float64{1: 30, 2: 60, 3: 90}, nil, rng)

	s.ShareFitness()
	assert.Equal(t, []float64{10, 20, 30}, s.Fitnesses())

	s.UpdateAverageFitness()
	assert.InDelta(t, 20.0, s.AverageFitness, 1e-12)
}

func TestSpecies_Reproduce(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	s := newTestSpecies(t, 1, map[int]float64{1: 3, 2: 8}, nil, rng)

	for _, crossover := range []float64{0, 1} {
		child := s.Reproduce(crossover, rng)
		require.NotNil(t, child)
		for _, m := range s.Members {
			assert.NotSame(t, m.Network(), child.Network())
		}
		assert.Same(t, s.Members[1].Network().Registry, child.Network().Registry)
	}
}

func TestSpecies_ReproduceFromEmptyPanics(t *testing.T) {
	s := &Species{Key: 3, Members: map[int]Organism{}}
	assert.Panics(t, func() {
		s.Reproduce(0.5, rand.New(rand.NewSource(1)))
	})
}

func TestSpeciesSet_SpeciateFirstMatch(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	config := DefaultConfig(2, 1)
	base := NewGenome(&config.Genome, NewInnovationRegistry(), rng)
	split := base.Clone()
	_, err := split.SplitLink(0, rng)
	require.NoError(t, err)

	organisms := map[int]Organism{
		0: base.Clone(),
		1: split,
		2: base.Clone(),
		3: split.Clone(),
	}
	pool := NewColorPool()
	ss := NewSpeciesSet(pool, discardLogger())
	ss.Speciate([]int{0, 1, 2, 3}, organisms, rng)

	require.Len(t, ss.Species, 2)
	assert.Equal(t, 1, ss.Species[0].Key)
	assert.Equal(t, []int{0, 2}, ss.Species[0].AgentIDs())
	assert.Equal(t, 2, ss.Species[1].Key)
	assert.Equal(t, []int{1, 3}, ss.Species[1].AgentIDs())
	assert.NotEqual(t, ss.Species[0].Color, ss.Species[1].Color)

	sp, ok := ss.SpeciesOf(3)
	require.True(t, ok)
	assert.Equal(t, 2, sp.Key)

	// Species nobody joins survive speciation empty.
	ss.Speciate([]int{0}, map[int]Organism{0: base.Clone()}, rng)
	require.Len(t, ss.Species, 2)
	assert.Equal(t, 1, ss.NonEmpty())
	assert.Equal(t, 0, ss.Species[1].Size())
}

func TestSpeciesSet_SpeciateWithExhaustedPalette(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	config := DefaultConfig(2, 1)
	base := NewGenome(&config.Genome, NewInnovationRegistry(), rng)
	split := base.Clone()
	_, err := split.SplitLink(0, rng)
	require.NoError(t, err)

	pool := NewColorPool(DefaultPalette[:2]...) // clear and black
	ss := NewSpeciesSet(pool, discardLogger())
	ss.Speciate([]int{0, 1}, map[int]Organism{0: base, 1: split}, rng)

	require.Len(t, ss.Species, 2)
	assert.True(t, ss.Species[0].HasColor)
	assert.False(t, ss.Species[1].HasColor, "species still forms without a color")
}
