package neat

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"slices"
)

// ErrInputSize is returned when an input vector does not match the number of input nodes.
var ErrInputSize = errors.New("input size mismatch")

// Genome represents one evolvable neural network.
//
// Nodes and links live in two arenas and reference each other by index, so a
// clone is a copy of both slices. The arena is laid out as: input nodes
// [0, NumInputs), the bias node at NumInputs, output nodes after it, and
// hidden nodes appended in creation order.
type Genome struct {
	Nodes      []Node
	Links      []Link
	NumInputs  int     // Fixed at construction
	NumOutputs int     // Fixed at construction
	Layers     int     // Layer index of the output nodes
	Fitness    float64 // Fitness score of the genome
	Config     *GenomeConfig
	Registry   *InnovationRegistry // Shared by the whole lineage

	nextNodeID int
	order      []int // Cached activation order, nil when stale
}

// NewGenome creates a genome whose inputs and bias are fully wired to its
// outputs with uniform random weights in [-1, 1].
func NewGenome(config *GenomeConfig, registry *InnovationRegistry, rng *rand.Rand) *Genome {
	n, m := config.NumInputs, config.NumOutputs
	g := &Genome{
		Nodes:      make([]Node, 0, n+m+1),
		Links:      make([]Link, 0, (n+1)*m),
		NumInputs:  n,
		NumOutputs: m,
		Config:     config,
		Registry:   registry,
	}

	for i := 0; i < n; i++ {
		g.Nodes = append(g.Nodes, Node{ID: i, Kind: InputNode, Layer: InputBiasLayer})
	}
	g.Nodes = append(g.Nodes, Node{ID: BiasNodeID, Kind: BiasNode, Layer: InputBiasLayer, Output: 1})

	// The output layer sits directly behind the inputs until a hidden node
	// pushes it outward.
	g.Layers = 1
	for i := 0; i < m; i++ {
		g.Nodes = append(g.Nodes, Node{
			ID:         n + i,
			Kind:       OutputNode,
			Layer:      g.Layers,
			Activation: randomActivation(config, rng),
			Slope:      config.InitialSlope,
		})
	}
	g.nextNodeID = n + m

	for i := 0; i < n; i++ {
		for o := 0; o < m; o++ {
			g.addLink(i, g.OutputIndex(o), randomWeight(rng))
		}
	}
	for o := 0; o < m; o++ {
		g.addLink(g.BiasIndex(), g.OutputIndex(o), randomWeight(rng))
	}
	return g
}

// BiasIndex returns the arena index of the bias node.
func (g *Genome) BiasIndex() int {
	return g.NumInputs
}

// OutputIndex returns the arena index of the i-th output node.
func (g *Genome) OutputIndex(i int) int {
	return g.NumInputs + 1 + i
}

// NodeIndex returns the arena index of the node with the given ID.
func (g *Genome) NodeIndex(id int) (int, bool) {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return i, true
		}
	}
	return -1, false
}

// HiddenCount returns the number of hidden nodes.
func (g *Genome) HiddenCount() int {
	return len(g.Nodes) - g.NumInputs - 1 - g.NumOutputs
}

// LinkIndex returns the arena index of the link carrying the given innovation number.
func (g *Genome) LinkIndex(innovation int) (int, bool) {
	for i := range g.Links {
		if g.Links[i].Innovation == innovation {
			return i, true
		}
	}
	return -1, false
}

// String returns a short summary of the genome.
func (g *Genome) String() string {
	return fmt.Sprintf("Genome(Nodes: %d, Links: %d, Layers: %d, Fitness: %.3f)",
		len(g.Nodes), len(g.Links), g.Layers, g.Fitness)
}

// Clone returns a structural copy sharing only the config and registry.
func (g *Genome) Clone() *Genome {
	c := &Genome{
		Nodes:      make([]Node, len(g.Nodes)),
		Links:      slices.Clone(g.Links),
		NumInputs:  g.NumInputs,
		NumOutputs: g.NumOutputs,
		Layers:     g.Layers,
		Fitness:    g.Fitness,
		Config:     g.Config,
		Registry:   g.Registry,
		nextNodeID: g.nextNodeID,
		order:      slices.Clone(g.order),
	}
	for i, node := range g.Nodes {
		c.Nodes[i] = copyNode(node)
	}
	return c
}

// addLink inserts a link between two arena indices unless they are already
// connected. The innovation number comes from the shared registry.
func (g *Genome) addLink(from, to int, weight float64) bool {
	if g.IsConnected(from, to) {
		return false
	}
	innovation := g.Registry.Innovation(g.Nodes[from].ID, g.Nodes[to].ID)
	g.Links = append(g.Links, Link{
		Innovation: innovation,
		From:       from,
		To:         to,
		Weight:     weight,
		Enabled:    true,
	})
	g.Nodes[from].Out = append(g.Nodes[from].Out, len(g.Links)-1)
	return true
}

// IsConnected reports whether a link exists between the two nodes in either direction.
func (g *Genome) IsConnected(a, b int) bool {
	for _, li := range g.Nodes[a].Out {
		if g.Links[li].To == b {
			return true
		}
	}
	for _, li := range g.Nodes[b].Out {
		if g.Links[li].To == a {
			return true
		}
	}
	return false
}

// IsBadLink reports whether a link between the two nodes must be rejected:
// they are already connected in either direction or share a layer.
func (g *Genome) IsBadLink(a, b int) bool {
	return g.Nodes[a].Layer == g.Nodes[b].Layer || g.IsConnected(a, b)
}

// IsFullyConnected reports whether every pair of nodes on different layers
// already carries a link, disabled links included.
func (g *Genome) IsFullyConnected() bool {
	perLayer := make(map[int]int)
	for i := range g.Nodes {
		perLayer[g.Nodes[i].Layer]++
	}
	total := len(g.Nodes)
	maxLinks := total * (total - 1) / 2
	for _, count := range perLayer {
		maxLinks -= count * (count - 1) / 2
	}
	return len(g.Links) >= maxLinks
}

// activationOrder lists arena indices as inputs, bias, hidden nodes by
// ascending layer, then outputs.
func (g *Genome) activationOrder() []int {
	if g.order != nil {
		return g.order
	}
	order := make([]int, 0, len(g.Nodes))
	for i := 0; i <= g.NumInputs; i++ {
		order = append(order, i)
	}
	hidden := make([]int, 0, g.HiddenCount())
	for i := g.OutputIndex(g.NumOutputs); i < len(g.Nodes); i++ {
		hidden = append(hidden, i)
	}
	slices.SortStableFunc(hidden, func(a, b int) int {
		return g.Nodes[a].Layer - g.Nodes[b].Layer
	})
	order = append(order, hidden...)
	for o := 0; o < g.NumOutputs; o++ {
		order = append(order, g.OutputIndex(o))
	}
	g.order = order
	return order
}

// Evaluate feeds the input vector forward through the network and returns
// the output vector. Accumulators are reset afterwards, so repeated calls
// with the same inputs return the same outputs.
func (g *Genome) Evaluate(inputs []float64) ([]float64, error) {
	if len(inputs) != g.NumInputs {
		return nil, fmt.Errorf("%w: got %d values for %d input nodes", ErrInputSize, len(inputs), g.NumInputs)
	}
	for i, v := range inputs {
		g.Nodes[i].Output = v
	}
	g.Nodes[g.BiasIndex()].Output = 1

	for _, idx := range g.activationOrder() {
		g.Nodes[idx].activate(g)
	}

	outputs := make([]float64, g.NumOutputs)
	for o := range outputs {
		outputs[o] = g.Nodes[g.OutputIndex(o)].Output
	}

	for i := range g.Nodes {
		g.Nodes[i].Input = 0
	}
	return outputs, nil
}

// Distance calculates the compatibility distance between this genome and another:
//
//	d = c1·D/N + c2·W
//
// where D counts links present in only one genome, W is the mean absolute
// weight difference of links sharing an innovation number, and N is the
// larger link count (1 for genomes below the normalisation floor).
func (g *Genome) Distance(other *Genome) float64 {
	config := g.Config

	ours := make(map[int]float64, len(g.Links))
	for _, l := range g.Links {
		ours[l.Innovation] = l.Weight
	}
	matching := make([]int, 0, len(g.Links))
	theirs := make(map[int]float64, len(other.Links))
	for _, l := range other.Links {
		theirs[l.Innovation] = l.Weight
		if _, ok := ours[l.Innovation]; ok {
			matching = append(matching, l.Innovation)
		}
	}
	disjoint := len(ours) + len(theirs) - 2*len(matching)

	// Summing in innovation order keeps the result bit-identical in both directions.
	slices.Sort(matching)
	averageWeightDiff := config.CompatibilityNoMatchDifference
	if len(matching) > 0 {
		sum := 0.0
		for _, innovation := range matching {
			sum += math.Abs(ours[innovation] - theirs[innovation])
		}
		averageWeightDiff = sum / float64(len(matching))
	}

	n := max(len(g.Links), len(other.Links))
	if n < config.CompatibilityNormalizeFloor {
		n = 1
	}
	return config.CompatibilityDisjointCoefficient*float64(disjoint)/float64(n) +
		config.CompatibilityWeightCoefficient*averageWeightDiff
}

// Compatible reports whether the two genomes belong to the same species.
func (g *Genome) Compatible(other *Genome) bool {
	return g.Distance(other) <= g.Config.CompatibilityThreshold
}

// Crossover creates a child from this genome (the dominant parent) and a
// recessive parent. The child is a structural clone of the dominant parent;
// for every link the recessive parent shares by innovation number, a fair
// coin decides whether the child takes the recessive weight and enabled flag.
//
// Links found only in the recessive parent are not inherited.
func (g *Genome) Crossover(recessive *Genome, rng *rand.Rand) *Genome {
	child := g.Clone()

	theirs := make(map[int]int, len(recessive.Links))
	for i, l := range recessive.Links {
		theirs[l.Innovation] = i
	}
	for i := range child.Links {
		j, ok := theirs[child.Links[i].Innovation]
		if !ok {
			continue
		}
		if rng.Float64() < 0.5 {
			child.Links[i].Weight = recessive.Links[j].Weight
			child.Links[i].Enabled = recessive.Links[j].Enabled
		}
	}
	return child
}

// --- Organism implementation ---

// Network returns the genome itself.
func (g *Genome) Network() *Genome {
	return g
}

// Copy returns a clone of the genome as an Organism.
func (g *Genome) Copy() Organism {
	return g.Clone()
}

// Mate crosses this genome (dominant) with the recessive organism's network.
func (g *Genome) Mate(recessive Organism, rng *rand.Rand) Organism {
	return g.Crossover(recessive.Network(), rng)
}
