package neat

import (
	"fmt"
	"math/rand"
)

// NodeKind tells the role a node plays inside its genome.
type NodeKind int

const (
	InputNode NodeKind = iota
	BiasNode
	HiddenNode
	OutputNode
)

// String returns a readable name for the node kind.
func (k NodeKind) String() string {
	switch k {
	case InputNode:
		return "input"
	case BiasNode:
		return "bias"
	case HiddenNode:
		return "hidden"
	case OutputNode:
		return "output"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// BiasNodeID is the identity of every genome's bias node.
const BiasNodeID = -1

// InputBiasLayer is the layer holding the input and bias nodes.
const InputBiasLayer = 0

// --------------------------- Node ---------------------------

// Node represents a neuron in the genome's node arena.
type Node struct {
	ID         int // Stable identity, unique within a genome
	Kind       NodeKind
	Layer      int     // 0 for inputs and bias, grows toward the outputs
	Input      float64 // Accumulated input of the current evaluation
	Output     float64
	Activation ActivationKind
	Slope      float64 // Learned slope, read by PReLU
	Out        []int   // Indices of outgoing links in the genome's link arena
}

// String returns a string representation of the Node.
func (n *Node) String() string {
	return fmt.Sprintf("Node(ID: %d, Kind: %s, Layer: %d, Activation: %s, Slope: %.3f)",
		n.ID, n.Kind, n.Layer, n.Activation, n.Slope)
}

// copyNode creates a copy of the node with its own outgoing link slice.
func copyNode(n Node) Node {
	c := n
	c.Out = append([]int(nil), n.Out...)
	return c
}

// activate computes the node's output and pushes it along its enabled links.
func (n *Node) activate(g *Genome) {
	if n.Layer != InputBiasLayer {
		n.Output = n.Activation.Apply(n.Input, n.Slope)
	}
	for _, li := range n.Out {
		link := &g.Links[li]
		if link.Enabled {
			g.Nodes[link.To].Input += link.Weight * n.Output
		}
	}
}

// --------------------------- Link ---------------------------

// Link represents a directed, weighted connection between two nodes.
// From and To are indices into the owning genome's node arena.
type Link struct {
	Innovation int
	From       int
	To         int
	Weight     float64
	Enabled    bool
}

// String returns a string representation of the Link.
func (l Link) String() string {
	return fmt.Sprintf("Link(Innovation: %d, %d->%d, Weight: %.3f, Enabled: %t)",
		l.Innovation, l.From, l.To, l.Weight, l.Enabled)
}

// --------------------------- Attribute Helpers ---------------------------

// randomWeight draws a weight uniformly from [-1, 1].
func randomWeight(rng *rand.Rand) float64 {
	return rng.Float64()*2 - 1
}

// mutateWeight either replaces the weight with a fresh uniform draw or nudges
// it with Gaussian noise, clamping the result to [-1, 1].
func mutateWeight(weight float64, config *GenomeConfig, rng *rand.Rand) float64 {
	if rng.Float64() < config.WeightReplaceRate {
		return randomWeight(rng)
	}
	weight += rng.NormFloat64() * config.WeightMutatePower
	return clamp(weight, -1.0, 1.0)
}

// randomActivation picks one of the configured activation kinds.
func randomActivation(config *GenomeConfig, rng *rand.Rand) ActivationKind {
	options := config.Activations()
	if len(options) == 1 {
		return options[0]
	}
	return options[rng.Intn(len(options))]
}
