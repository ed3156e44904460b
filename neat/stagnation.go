package neat

import "log/slog"

// Stagnation manages the removal of species that stopped improving.
type Stagnation struct {
	Config *StagnationConfig
	logger *slog.Logger
}

// NewStagnation creates a new stagnation manager.
func NewStagnation(config *StagnationConfig, logger *slog.Logger) *Stagnation {
	if logger == nil {
		logger = slog.Default()
	}
	return &Stagnation{Config: config, logger: logger}
}

// IsStale reports whether the species has gone more generations without
// improvement than the threshold allows.
func (s *Stagnation) IsStale(sp *Species) bool {
	return sp.Staleness > s.Config.StalenessThreshold
}

// RemoveStale drops every stale species except the one holding the best
// agent, returning its color to the pool.
func (s *Stagnation) RemoveStale(speciesSet *SpeciesSet, bestAgentID int) []*Species {
	removed := speciesSet.Remove(func(sp *Species) bool {
		return !sp.Has(bestAgentID) && s.IsStale(sp)
	})
	for _, sp := range removed {
		s.logger.Info("species removed due to stagnation", "species", sp.Key, "staleness", sp.Staleness)
	}
	return removed
}
