package neat

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

// ErrInvalidSplit is returned by SplitLink for links the add-node operator may not split.
var ErrInvalidSplit = errors.New("link cannot be split")

// Mutate applies the four mutation operators, each gated by its own coin flip:
// weight perturbation, add-link, add-node and slope learning.
func (g *Genome) Mutate(rng *rand.Rand) {
	config := g.Config

	for i := range g.Links {
		if rng.Float64() < config.WeightMutateRate {
			g.Links[i].Weight = mutateWeight(g.Links[i].Weight, config, rng)
		}
	}
	if rng.Float64() < config.ConnAddProb {
		g.mutateAddLink(rng)
	}
	if rng.Float64() < config.NodeAddProb {
		g.mutateAddNode(rng)
	}
	if rng.Float64() < config.SlopeMutateProb {
		g.mutateSlope(rng)
	}
}

// mutateAddLink inserts a link between two random nodes on different layers
// that are not yet connected. It is a no-op on a fully connected genome.
func (g *Genome) mutateAddLink(rng *rand.Rand) bool {
	if g.IsFullyConnected() {
		return false
	}
	for {
		a := rng.Intn(len(g.Nodes))
		b := rng.Intn(len(g.Nodes))
		if g.IsBadLink(a, b) {
			continue
		}
		if g.Nodes[b].Layer < g.Nodes[a].Layer {
			a, b = b, a
		}
		return g.addLink(a, b, randomWeight(rng))
	}
}

// mutateAddNode splits a random enabled link whose source is not the bias.
func (g *Genome) mutateAddNode(rng *rand.Rand) bool {
	candidates := make([]int, 0, len(g.Links))
	for i, l := range g.Links {
		if l.Enabled && g.Nodes[l.From].Kind != BiasNode {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return false
	}
	_, err := g.SplitLink(candidates[rng.Intn(len(candidates))], rng)
	return err == nil
}

// SplitLink disables the link at linkIndex and routes it through a new hidden
// node placed on the ceiling of the midpoint layer of the link's endpoints.
// When that layer is the destination's, every node at or above it moves one
// layer outward first. The new node receives three links:
//
//	source -> new  weight 1
//	new -> dest    weight of the split link
//	bias -> new    weight 0
//
// The new node draws its activation from the configured options. It returns
// the arena index of the new node.
func (g *Genome) SplitLink(linkIndex int, rng *rand.Rand) (int, error) {
	if linkIndex < 0 || linkIndex >= len(g.Links) {
		return -1, fmt.Errorf("%w: index %d out of range", ErrInvalidSplit, linkIndex)
	}
	link := g.Links[linkIndex]
	if !link.Enabled {
		return -1, fmt.Errorf("%w: link %d is disabled", ErrInvalidSplit, link.Innovation)
	}
	if g.Nodes[link.From].Kind == BiasNode {
		return -1, fmt.Errorf("%w: link %d starts at the bias node", ErrInvalidSplit, link.Innovation)
	}

	g.Links[linkIndex].Enabled = false

	from, to := link.From, link.To
	layer := int(math.Ceil(float64(g.Nodes[from].Layer+g.Nodes[to].Layer) / 2))
	if layer == g.Nodes[to].Layer {
		for i := range g.Nodes {
			if g.Nodes[i].Layer >= layer {
				g.Nodes[i].Layer++
			}
		}
		g.Layers++
	}

	g.Nodes = append(g.Nodes, Node{
		ID:         g.nextNodeID,
		Kind:       HiddenNode,
		Layer:      layer,
		Activation: randomActivation(g.Config, rng),
		Slope:      g.Config.InitialSlope,
	})
	g.nextNodeID++
	hidden := len(g.Nodes) - 1
	g.order = nil

	g.addLink(from, hidden, 1)
	g.addLink(hidden, to, link.Weight)
	g.addLink(g.BiasIndex(), hidden, 0)
	return hidden, nil
}

// mutateSlope nudges the learned slope of one random hidden node.
func (g *Genome) mutateSlope(rng *rand.Rand) bool {
	first := g.OutputIndex(g.NumOutputs)
	if first >= len(g.Nodes) {
		return false
	}
	idx := first + rng.Intn(len(g.Nodes)-first)
	g.Nodes[idx].Slope += rng.NormFloat64() * g.Config.SlopeMutatePower
	return true
}
