package neat

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
)

// Reproduction handles unproductive-species removal and the creation of the next generation.
type Reproduction struct {
	Config *ReproductionConfig
	logger *slog.Logger
}

// NewReproduction creates a new reproduction manager.
func NewReproduction(config *ReproductionConfig, logger *slog.Logger) *Reproduction {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reproduction{Config: config, logger: logger}
}

// CreateNewPopulation creates the initial organism of every agent.
func (r *Reproduction) CreateNewPopulation(agentIDs []int, factory OrganismFactory, registry *InnovationRegistry, rng *rand.Rand) map[int]Organism {
	organisms := make(map[int]Organism, len(agentIDs))
	for _, id := range agentIDs {
		organisms[id] = factory(registry, rng)
	}
	return organisms
}

// expectedOffspring is the species' share of the summed average fitness scaled
// by the population size. When every average is zero the population is split
// evenly between the non-empty species.
func expectedOffspring(sp *Species, averageSum float64, popSize, nonEmpty int) float64 {
	if sp.Size() == 0 {
		return 0
	}
	if averageSum == 0 {
		return float64(popSize) / float64(nonEmpty)
	}
	return sp.AverageFitness / averageSum * float64(popSize)
}

// RemoveBad drops every species expected to produce fewer than one offspring,
// unless it holds the best agent. Empty species are always dropped.
func (r *Reproduction) RemoveBad(speciesSet *SpeciesSet, bestAgentID, popSize int) []*Species {
	averageSum := speciesSet.AverageFitnessSum()
	nonEmpty := speciesSet.NonEmpty()

	removed := speciesSet.Remove(func(sp *Species) bool {
		if sp.Size() == 0 {
			return true
		}
		return !sp.Has(bestAgentID) && expectedOffspring(sp, averageSum, popSize, nonEmpty) < 1
	})
	for _, sp := range removed {
		r.logger.Debug("species removed as unproductive", "species", sp.Key, "members", sp.Size(), "average_fitness", sp.AverageFitness)
	}
	return removed
}

// computeSpawnAmounts returns, per species, floor(expected) - 1 offspring in
// addition to the carried-over champion, clamped to [0, popSize-1]. With
// negative fitness the average sum can approach zero, so the expectation
// itself is unbounded.
func computeSpawnAmounts(speciesSet *SpeciesSet, popSize int) []int {
	averageSum := speciesSet.AverageFitnessSum()
	nonEmpty := speciesSet.NonEmpty()

	spawnAmounts := make([]int, len(speciesSet.Species))
	for i, sp := range speciesSet.Species {
		expected := expectedOffspring(sp, averageSum, popSize, nonEmpty)
		if expected >= float64(popSize) {
			spawnAmounts[i] = max(popSize-1, 0)
			continue
		}
		spawn := int(math.Floor(expected)) - 1
		spawnAmounts[i] = max(spawn, 0)
	}
	return spawnAmounts
}

// Reproduce creates exactly popSize offspring. Every species carries over a
// clone of its best member and breeds its spawn amount; any shortfall is
// bred from randomly chosen species and any overshoot is trimmed.
func (r *Reproduction) Reproduce(speciesSet *SpeciesSet, popSize int, rng *rand.Rand) []Organism {
	if len(speciesSet.Species) == 0 {
		panic("neat: no species left to reproduce from")
	}

	spawnAmounts := computeSpawnAmounts(speciesSet, popSize)
	offspring := make([]Organism, 0, popSize)

	for i, sp := range speciesSet.Species {
		if sp.Size() == 0 {
			panic(fmt.Sprintf("neat: species %d has no members to reproduce from", sp.Key))
		}

		// Transfer the champion.
		champion, ok := sp.Members[sp.BestAgentID]
		if !ok {
			champion = sp.Members[sp.AgentIDs()[0]]
		}
		offspring = append(offspring, champion.Copy())

		// Leave room for the champions of the species still to come.
		budget := popSize - len(offspring) - (len(speciesSet.Species) - 1 - i)
		for j := 0; j < min(spawnAmounts[i], budget); j++ {
			offspring = append(offspring, sp.Reproduce(r.Config.CrossoverProb, rng))
		}
	}

	// Top up from random species.
	for len(offspring) < popSize {
		sp := speciesSet.Species[rng.Intn(len(speciesSet.Species))]
		offspring = append(offspring, sp.Reproduce(r.Config.CrossoverProb, rng))
	}

	if len(offspring) > popSize {
		r.logger.Debug("trimming offspring pool", "produced", len(offspring), "target", popSize)
		clear(offspring[popSize:])
		offspring = offspring[:popSize]
	}
	return offspring
}
