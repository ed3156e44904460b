package neat

import (
	"fmt"
	"image/color"
	"log/slog"
	"math"
	"math/rand"
	"slices"
)

// Species represents a group of genetically similar organisms.
type Species struct {
	Key            int              // Unique identifier for the species.
	Members        map[int]Organism // Organisms belonging to this species (maps agent ID -> organism).
	Representative *Genome          // Clone compared against when speciating; never a live member.
	BestAgentID    int              // Best member of the current generation.
	BestFitness    float64          // Highest fitness the species has ever reached.
	AverageFitness float64          // Mean (shared) fitness of the current members.
	Staleness      int              // Generations without improvement.
	Color          color.RGBA
	HasColor       bool
}

// NewSpecies creates a species founded by one agent. The representative is a
// clone of the founder's network and a display color is drawn from the pool.
func NewSpecies(key, agentID int, founder Organism, pool *ColorPool, rng *rand.Rand) *Species {
	s := &Species{
		Key:            key,
		Members:        map[int]Organism{agentID: founder},
		Representative: founder.Network().Clone(),
		BestAgentID:    agentID,
	}
	if pool != nil {
		s.Color, s.HasColor = pool.Acquire(rng)
	}
	return s
}

// Size returns the number of members.
func (s *Species) Size() int {
	return len(s.Members)
}

// AgentIDs returns the member agent IDs in ascending order.
func (s *Species) AgentIDs() []int {
	ids := make([]int, 0, len(s.Members))
	for id := range s.Members {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Has reports whether the agent is a member of the species.
func (s *Species) Has(agentID int) bool {
	_, ok := s.Members[agentID]
	return ok
}

// Add puts an organism into the species.
func (s *Species) Add(agentID int, o Organism) {
	s.Members[agentID] = o
}

// Compatible reports whether the organism may join the species.
func (s *Species) Compatible(o Organism) bool {
	return s.Representative.Compatible(o.Network())
}

// SetRepresentative replaces the representative with a clone of a uniformly
// random member. A species without members keeps its current representative.
func (s *Species) SetRepresentative(rng *rand.Rand) {
	ids := s.AgentIDs()
	if len(ids) == 0 {
		return
	}
	s.Representative = s.Members[ids[rng.Intn(len(ids))]].Network().Clone()
}

// Fitnesses returns the fitness of every member in agent ID order.
func (s *Species) Fitnesses() []float64 {
	ids := s.AgentIDs()
	fitnesses := make([]float64, len(ids))
	for i, id := range ids {
		fitnesses[i] = Fitness(s.Members[id])
	}
	return fitnesses
}

// Cull keeps the fittest ceil(size × threshold) members, at least one, and
// drops the rest. Survivors are clones; the organisms that were live in the
// population are left untouched. Equal fitness is resolved by the lower agent ID.
func (s *Species) Cull(threshold float64) {
	ids := s.AgentIDs()
	if len(ids) == 0 {
		return
	}
	keep := max(int(math.Ceil(float64(len(ids))*threshold)), 1)

	selected := make(map[int]bool, keep)
	survivors := make(map[int]Organism, keep)
	for len(survivors) < keep {
		best := -1
		for _, id := range ids {
			if selected[id] {
				continue
			}
			if best == -1 || Fitness(s.Members[id]) > Fitness(s.Members[best]) {
				best = id
			}
		}
		selected[best] = true
		survivors[best] = s.Members[best].Copy()
	}
	s.Members = survivors
}

// UpdateStaleness records this generation's best member. Staleness resets
// when it beats the best fitness ever seen and increments otherwise.
func (s *Species) UpdateStaleness() {
	generationBest := math.Inf(-1)
	for _, id := range s.AgentIDs() {
		if f := Fitness(s.Members[id]); f > generationBest {
			generationBest = f
			s.BestAgentID = id
		}
	}
	if generationBest > s.BestFitness {
		s.BestFitness = generationBest
		s.Staleness = 0
	} else {
		s.Staleness++
	}
}

// ShareFitness divides every member's fitness by the species size.
func (s *Species) ShareFitness() {
	size := float64(len(s.Members))
	for _, o := range s.Members {
		o.Network().Fitness /= size
	}
}

// UpdateAverageFitness recomputes the mean fitness of the members.
func (s *Species) UpdateAverageFitness() {
	s.AverageFitness = Mean(s.Fitnesses())
}

// Reproduce produces one mutated child. With probability crossoverProb two
// random members are mated, the fitter one dominant (the first draw on a tie);
// otherwise a random member is cloned.
//
// Reproducing from an empty species is an algorithm error and panics.
func (s *Species) Reproduce(crossoverProb float64, rng *rand.Rand) Organism {
	ids := s.AgentIDs()
	if len(ids) == 0 {
		panic(fmt.Sprintf("neat: species %d has no members to reproduce from", s.Key))
	}

	var child Organism
	if rng.Float64() < crossoverProb {
		dominant := s.Members[ids[rng.Intn(len(ids))]]
		recessive := s.Members[ids[rng.Intn(len(ids))]]
		if Fitness(recessive) > Fitness(dominant) {
			dominant, recessive = recessive, dominant
		}
		child = dominant.Mate(recessive, rng)
	} else {
		child = s.Members[ids[rng.Intn(len(ids))]].Copy()
	}

	child.Mutate(rng)
	return child
}

// Release returns the species color to the pool.
func (s *Species) Release(pool *ColorPool) {
	if s.HasColor && pool != nil {
		pool.Release(s.Color)
	}
	s.HasColor = false
}

// --------------------------- SpeciesSet ---------------------------

// SpeciesSet manages the species of a population in creation order.
type SpeciesSet struct {
	Species []*Species
	Indexer int // Counter for assigning new species keys (start at 1)
	Pool    *ColorPool
	logger  *slog.Logger
}

// NewSpeciesSet creates an empty species set drawing colors from pool.
func NewSpeciesSet(pool *ColorPool, logger *slog.Logger) *SpeciesSet {
	if logger == nil {
		logger = slog.Default()
	}
	return &SpeciesSet{
		Indexer: 1, // Start species IDs at 1
		Pool:    pool,
		logger:  logger,
	}
}

// Speciate partitions the organisms into species.
//
// Every existing species first picks a new representative from its previous
// members and is emptied. Each agent, in the given order, then joins the
// first species (in creation order) whose representative it is compatible
// with, or founds a new one. Species nobody joined stay in the set empty.
func (ss *SpeciesSet) Speciate(agentIDs []int, organisms map[int]Organism, rng *rand.Rand) {
	// --- Step 1: Refresh representatives ---
	for _, s := range ss.Species {
		s.SetRepresentative(rng)
		s.Members = make(map[int]Organism)
		s.UpdateAverageFitness()
	}

	// --- Step 2: First-match assignment ---
	for _, id := range agentIDs {
		o := organisms[id]
		found := false
		for _, s := range ss.Species {
			if s.Compatible(o) {
				s.Add(id, o)
				found = true
				break
			}
		}
		if found {
			continue
		}

		s := NewSpecies(ss.Indexer, id, o, ss.Pool, rng)
		ss.Indexer++
		ss.Species = append(ss.Species, s)
		if s.HasColor {
			ss.logger.Debug("species created", "species", s.Key, "founder", id, "color", ss.Pool.Name(s.Color))
		} else {
			ss.logger.Warn("species created without a display color, palette exhausted", "species", s.Key, "founder", id)
		}
	}
}

// SpeciesOf returns the species the agent was assigned to.
func (ss *SpeciesSet) SpeciesOf(agentID int) (*Species, bool) {
	for _, s := range ss.Species {
		if s.Has(agentID) {
			return s, true
		}
	}
	return nil, false
}

// FirstCompatible returns the first species whose representative is compatible with the organism.
func (ss *SpeciesSet) FirstCompatible(o Organism) (*Species, bool) {
	for _, s := range ss.Species {
		if s.Compatible(o) {
			return s, true
		}
	}
	return nil, false
}

// NonEmpty returns the number of species with at least one member.
func (ss *SpeciesSet) NonEmpty() int {
	n := 0
	for _, s := range ss.Species {
		if s.Size() > 0 {
			n++
		}
	}
	return n
}

// Remove drops every species for which drop returns true, releasing its color.
// It returns the removed species.
func (ss *SpeciesSet) Remove(drop func(*Species) bool) []*Species {
	var removed []*Species
	kept := ss.Species[:0]
	for _, s := range ss.Species {
		if drop(s) {
			s.Release(ss.Pool)
			removed = append(removed, s)
			continue
		}
		kept = append(kept, s)
	}
	clear(ss.Species[len(kept):])
	ss.Species = kept
	return removed
}

// AverageFitnessSum returns the sum of the species' average fitness.
func (ss *SpeciesSet) AverageFitnessSum() float64 {
	averages := make([]float64, len(ss.Species))
	for i, s := range ss.Species {
		averages[i] = s.AverageFitness
	}
	return Sum(averages)
}
