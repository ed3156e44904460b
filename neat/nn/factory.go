package nn

import (
	"fmt"
	"math/rand"

	"github.com/baldhumanity/agent-neat/neat"
)

// Factory returns the organism factory of the configured algorithm.
func Factory(config *neat.Config) (neat.OrganismFactory, error) {
	switch config.Neat.Algorithm {
	case neat.AlgorithmNEAT:
		return neat.GenomeFactory(&config.Genome), nil
	case neat.AlgorithmHyperNEAT:
		// Fail here rather than inside the factory.
		if _, err := NewSubstrate(&config.Substrate, config.Genome.NumInputs, config.Genome.NumOutputs); err != nil {
			return nil, err
		}
		return func(registry *neat.InnovationRegistry, rng *rand.Rand) neat.Organism {
			c, err := NewCPPN(config, registry, rng)
			if err != nil {
				panic(fmt.Sprintf("nn: creating CPPN: %v", err))
			}
			return c
		}, nil
	default:
		return nil, fmt.Errorf("unknown algorithm '%s'", config.Neat.Algorithm)
	}
}

// NewPopulation creates a population using the organism factory of the configured algorithm.
func NewPopulation(config *neat.Config, agentIDs []int, opts ...neat.Option) (*neat.Population, error) {
	factory, err := Factory(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create organism factory: %w", err)
	}
	return neat.NewPopulation(config, agentIDs, factory, opts...)
}
