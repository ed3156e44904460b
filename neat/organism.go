package neat

import "math/rand"

// Organism is the evolvable unit bound to one agent. *Genome implements it
// for the direct encoding; the indirect encoding wraps a CPPN genome and its
// painted substrate.
type Organism interface {
	// Evaluate maps a vision vector to an action vector.
	Evaluate(inputs []float64) ([]float64, error)
	// Mutate applies the mutation operators and refreshes any derived phenotype.
	Mutate(rng *rand.Rand)
	// Network returns the genome that carries fitness and is compared for speciation.
	Network() *Genome
	// Copy returns a structural clone.
	Copy() Organism
	// Mate produces a child with the receiver as the dominant parent.
	Mate(recessive Organism, rng *rand.Rand) Organism
}

// OrganismFactory creates a fresh organism for the initial population.
type OrganismFactory func(registry *InnovationRegistry, rng *rand.Rand) Organism

// GenomeFactory returns the factory of the direct encoding.
func GenomeFactory(config *GenomeConfig) OrganismFactory {
	return func(registry *InnovationRegistry, rng *rand.Rand) Organism {
		return NewGenome(config, registry, rng)
	}
}

// Fitness returns the fitness carried by the organism's network.
func Fitness(o Organism) float64 {
	return o.Network().Fitness
}
