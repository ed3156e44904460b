package neat

import (
	"image/color"
	"log/slog"
)

// GenerationStats summarises one completed generation. Fitness figures are
// computed from the raw reported fitness, before culling and sharing.
type GenerationStats struct {
	Generation     int
	AverageFitness float64
	MaxFitness     float64
	SpeciesCount   int
	BestAgentID    int
	SpeciesColors  []color.RGBA
	ColorNames     []string
}

// Reporter receives the statistics of every completed generation.
type Reporter interface {
	GenerationComplete(stats GenerationStats)
}

// ReporterFunc adapts a function to the Reporter interface.
type ReporterFunc func(stats GenerationStats)

// GenerationComplete calls f(stats).
func (f ReporterFunc) GenerationComplete(stats GenerationStats) {
	f(stats)
}

// LogReporter writes one structured record per generation.
type LogReporter struct {
	Logger *slog.Logger
}

// GenerationComplete logs the generation summary at info level.
func (r LogReporter) GenerationComplete(stats GenerationStats) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("generation complete",
		"generation", stats.Generation,
		"average_fitness", stats.AverageFitness,
		"max_fitness", stats.MaxFitness,
		"species", stats.SpeciesCount,
		"best_agent", stats.BestAgentID,
	)
}
