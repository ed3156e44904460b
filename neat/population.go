package neat

import (
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"math/rand"
	"slices"
	"time"
)

// ErrUnknownAgent is returned when an agent ID has no organism in the population.
var ErrUnknownAgent = errors.New("unknown agent")

// State is a step of the generational state machine.
type State int

const (
	StateIdle State = iota
	StateSpeciating
	StateBestTracking
	StateCulling
	StateStaleRemoval
	StateBadSpeciesRemoval
	StateReproducing
	StateReassigning
)

var stateNames = [...]string{
	StateIdle:              "idle",
	StateSpeciating:        "speciating",
	StateBestTracking:      "best_tracking",
	StateCulling:           "culling",
	StateStaleRemoval:      "stale_removal",
	StateBadSpeciesRemoval: "bad_species_removal",
	StateReproducing:       "reproducing",
	StateReassigning:       "reassigning",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Population holds the state of the evolutionary process for a fixed set of agents.
type Population struct {
	Config       *Config
	SpeciesSet   *SpeciesSet
	Reproduction *Reproduction
	Stagnation   *Stagnation
	Registry     *InnovationRegistry // Shared by every organism of the run

	organisms   map[int]Organism // agent ID -> organism
	agentIDs    []int            // ascending, fixed for the run
	generation  int
	bestAgentID int
	state       State
	lastStats   GenerationStats

	rng       *rand.Rand
	logger    *slog.Logger
	reporters []Reporter
	pool      *ColorPool
}

// Option configures a Population.
type Option func(*Population)

// WithRand sets the random source every draw of the run goes through.
func WithRand(rng *rand.Rand) Option {
	return func(p *Population) { p.rng = rng }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Population) { p.logger = logger }
}

// WithReporter adds a generation reporter.
func WithReporter(r Reporter) Option {
	return func(p *Population) { p.reporters = append(p.reporters, r) }
}

// WithRegistry sets the innovation registry, e.g. to share one across populations.
func WithRegistry(registry *InnovationRegistry) Option {
	return func(p *Population) { p.Registry = registry }
}

// WithColorPool sets the pool species draw their display colors from.
func WithColorPool(pool *ColorPool) Option {
	return func(p *Population) { p.pool = pool }
}

// NewPopulation creates a population with one organism per agent. A nil
// factory selects the direct encoding; the indirect encoding needs the
// factory from the nn package.
func NewPopulation(config *Config, agentIDs []int, factory OrganismFactory, opts ...Option) (*Population, error) {
	if len(agentIDs) == 0 {
		return nil, fmt.Errorf("failed to create population: no agents")
	}
	ids := slices.Clone(agentIDs)
	slices.Sort(ids)
	if len(slices.Compact(slices.Clone(ids))) != len(ids) {
		return nil, fmt.Errorf("failed to create population: duplicate agent IDs")
	}
	if factory == nil {
		if config.Neat.Algorithm != AlgorithmNEAT {
			return nil, fmt.Errorf("failed to create population: algorithm '%s' needs an organism factory", config.Neat.Algorithm)
		}
		factory = GenomeFactory(&config.Genome)
	}

	p := &Population{
		Config:   config,
		agentIDs: ids,
		state:    StateIdle,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.rng == nil {
		p.rng = rand.New(rand.NewSource(config.Neat.Seed))
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.Registry == nil {
		p.Registry = NewInnovationRegistry()
	}
	if p.pool == nil {
		p.pool = NewColorPool()
	}

	p.SpeciesSet = NewSpeciesSet(p.pool, p.logger)
	p.Stagnation = NewStagnation(&config.Stagnation, p.logger)
	p.Reproduction = NewReproduction(&config.Reproduction, p.logger)
	p.organisms = p.Reproduction.CreateNewPopulation(ids, factory, p.Registry, p.rng)
	p.bestAgentID = ids[0]

	p.logger.Debug("population created", "algorithm", config.Neat.Algorithm, "agents", len(ids))
	return p, nil
}

// Evaluate runs the agent's organism on a vision vector and returns its action vector.
func (p *Population) Evaluate(agentID int, vision []float64) ([]float64, error) {
	o, err := p.organism(agentID)
	if err != nil {
		return nil, err
	}
	out, err := o.Evaluate(vision)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate agent %d: %w", agentID, err)
	}
	return out, nil
}

// ReportFitness sets the fitness of the agent's organism.
func (p *Population) ReportFitness(agentID int, fitness int) error {
	o, err := p.organism(agentID)
	if err != nil {
		return err
	}
	o.Network().Fitness = float64(fitness)
	return nil
}

// AssignDisplayColor returns the color of the first species compatible with
// the agent's organism. The boolean is false when no species matches yet or
// the species has no color.
func (p *Population) AssignDisplayColor(agentID int) (color.RGBA, bool, error) {
	o, err := p.organism(agentID)
	if err != nil {
		return color.RGBA{}, false, err
	}
	s, ok := p.SpeciesSet.FirstCompatible(o)
	if !ok || !s.HasColor {
		return color.RGBA{}, false, nil
	}
	return s.Color, true, nil
}

// Organism returns the agent's current organism.
func (p *Population) Organism(agentID int) (Organism, error) {
	return p.organism(agentID)
}

func (p *Population) organism(agentID int) (Organism, error) {
	o, ok := p.organisms[agentID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownAgent, agentID)
	}
	return o, nil
}

// AgentIDs returns the agent IDs in ascending order.
func (p *Population) AgentIDs() []int {
	return slices.Clone(p.agentIDs)
}

// Generation returns the number of completed generations.
func (p *Population) Generation() int {
	return p.generation
}

// SpeciesCount returns the number of live species.
func (p *Population) SpeciesCount() int {
	return len(p.SpeciesSet.Species)
}

// BestAgentID returns the agent holding the highest fitness of the last generation.
func (p *Population) BestAgentID() int {
	return p.bestAgentID
}

// LastStats returns the statistics of the last completed generation.
func (p *Population) LastStats() GenerationStats {
	return p.lastStats
}

// State returns the current step of the generational state machine.
func (p *Population) State() State {
	return p.state
}

func (p *Population) transition(next State) {
	p.logger.Debug("population state", "generation", p.generation, "from", p.state, "to", next)
	p.state = next
}

// AdvanceGeneration runs one full generation: speciate, track the best agent,
// cull, remove stale and unproductive species, reproduce and hand the
// offspring back to the agents with their fitness reset.
func (p *Population) AdvanceGeneration() (GenerationStats, error) {
	if p.state != StateIdle {
		return GenerationStats{}, fmt.Errorf("advance generation called while %s", p.state)
	}
	genStartTime := time.Now()
	popSize := len(p.agentIDs)

	// 1. Speciate
	p.transition(StateSpeciating)
	p.SpeciesSet.Speciate(p.agentIDs, p.organisms, p.rng)
	stats := p.collectStats()

	// 2. Track the best agent
	p.transition(StateBestTracking)
	p.bestAgentID = p.findBestAgent()
	stats.BestAgentID = p.bestAgentID

	// 3. Cull, staleness and fitness sharing
	p.transition(StateCulling)
	for _, s := range p.SpeciesSet.Species {
		s.Cull(p.Config.Reproduction.CullThreshold)
		s.UpdateStaleness()
		s.ShareFitness()
		s.UpdateAverageFitness()
	}

	// 4. Remove stale species
	p.transition(StateStaleRemoval)
	p.Stagnation.RemoveStale(p.SpeciesSet, p.bestAgentID)

	// 5. Remove unproductive species
	p.transition(StateBadSpeciesRemoval)
	p.Reproduction.RemoveBad(p.SpeciesSet, p.bestAgentID, popSize)

	// 6. Reproduce
	p.transition(StateReproducing)
	offspring := p.Reproduction.Reproduce(p.SpeciesSet, popSize, p.rng)

	// 7. Reassign
	p.transition(StateReassigning)
	for i, id := range p.agentIDs {
		child := offspring[i]
		child.Network().Fitness = 0
		p.organisms[id] = child
	}

	p.generation++
	p.transition(StateIdle)
	p.lastStats = stats

	p.logger.Debug("generation finished", "generation", stats.Generation, "species", len(p.SpeciesSet.Species), "elapsed", time.Since(genStartTime))
	for _, r := range p.reporters {
		r.GenerationComplete(stats)
	}
	return stats, nil
}

// findBestAgent returns the agent with the highest fitness; ties keep the lowest agent ID.
func (p *Population) findBestAgent() int {
	best := p.agentIDs[0]
	bestFitness := Fitness(p.organisms[best])
	for _, id := range p.agentIDs[1:] {
		if f := Fitness(p.organisms[id]); f > bestFitness {
			bestFitness = f
			best = id
		}
	}
	return best
}

// collectStats summarises the raw fitness of the population just after speciation.
func (p *Population) collectStats() GenerationStats {
	fitnesses := make([]float64, len(p.agentIDs))
	for i, id := range p.agentIDs {
		fitnesses[i] = Fitness(p.organisms[id])
	}
	stats := GenerationStats{
		Generation:     p.generation,
		AverageFitness: Mean(fitnesses),
		MaxFitness:     MaxFloat(fitnesses),
	}
	for _, s := range p.SpeciesSet.Species {
		if s.Size() == 0 {
			continue
		}
		stats.SpeciesCount++
		if s.HasColor {
			stats.SpeciesColors = append(stats.SpeciesColors, s.Color)
			stats.ColorNames = append(stats.ColorNames, p.pool.Name(s.Color))
		}
	}
	return stats
}
