package nn

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/baldhumanity/agent-neat/neat"
)

// CPPN is the organism of the indirect encoding. Its genome maps two lattice
// points (x1, y1, x2, y2) to one weight, and the painted substrate is what
// agents are evaluated with.
type CPPN struct {
	Genome    *neat.Genome
	Substrate *Substrate
	MinWeight float64 // Painted weights smaller in magnitude are zeroed

	stale bool // Substrate does not reflect Genome yet
}

// NewCPPN creates a CPPN with a fresh genome and paints its substrate.
func NewCPPN(config *neat.Config, registry *neat.InnovationRegistry, rng *rand.Rand) (*CPPN, error) {
	substrate, err := NewSubstrate(&config.Substrate, config.Genome.NumInputs, config.Genome.NumOutputs)
	if err != nil {
		return nil, err
	}
	c := &CPPN{
		Genome:    neat.NewGenome(&config.CPPN, registry, rng),
		Substrate: substrate,
		MinWeight: config.Substrate.MinWeight,
	}
	c.Paint()
	return c, nil
}

// Paint evaluates the genome for every pair of lattice cells and writes the
// results into the substrate.
func (c *CPPN) Paint() {
	c.stale = false
	s := c.Substrate
	coords := make([]float64, 4)
	for ix := 0; ix < s.Size; ix++ {
		for iy := 0; iy < s.Size; iy++ {
			for ox := 0; ox < s.Size; ox++ {
				for oy := 0; oy < s.Size; oy++ {
					coords[0], coords[1] = s.Coordinate(ix), s.Coordinate(iy)
					coords[2], coords[3] = s.Coordinate(ox), s.Coordinate(oy)
					out, err := c.Genome.Evaluate(coords)
					if err != nil {
						// The CPPN genome always has four inputs.
						panic(fmt.Sprintf("nn: painting substrate: %v", err))
					}
					w := out[0]
					if math.Abs(w) < c.MinWeight {
						w = 0
					}
					s.SetLinkWeight(ix, iy, ox, oy, w)
				}
			}
		}
	}
}

// Evaluate runs the painted substrate, painting it first if the genome
// changed since the last paint.
func (c *CPPN) Evaluate(inputs []float64) ([]float64, error) {
	if c.stale {
		c.Paint()
	}
	return c.Substrate.Evaluate(inputs)
}

// Mutate mutates the CPPN genome and repaints the substrate.
func (c *CPPN) Mutate(rng *rand.Rand) {
	c.Genome.Mutate(rng)
	c.Paint()
}

// Network returns the CPPN genome.
func (c *CPPN) Network() *neat.Genome {
	return c.Genome
}

// Copy returns a deep copy of the genome and the substrate.
func (c *CPPN) Copy() neat.Organism {
	return &CPPN{
		Genome:    c.Genome.Clone(),
		Substrate: c.Substrate.Clone(),
		MinWeight: c.MinWeight,
		stale:     c.stale,
	}
}

// Mate crosses the CPPN genomes, the receiver dominant. The child is left
// unpainted: reproduction mutates every crossover child, and Mutate paints.
// Evaluate paints a child that reaches it without a mutation.
func (c *CPPN) Mate(recessive neat.Organism, rng *rand.Rand) neat.Organism {
	return &CPPN{
		Genome:    c.Genome.Crossover(recessive.Network(), rng),
		Substrate: c.Substrate.Clone(),
		MinWeight: c.MinWeight,
		stale:     true,
	}
}
