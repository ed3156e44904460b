package stats

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/baldhumanity/agent-neat/neat"
)

const metricsNamespace = "neat"

// PrometheusReporter exports the statistics of every generation as gauges
// labelled with the algorithm.
type PrometheusReporter struct {
	Generation     *prometheus.GaugeVec
	AverageFitness *prometheus.GaugeVec
	MaxFitness     *prometheus.GaugeVec
	SpeciesCount   *prometheus.GaugeVec

	algorithm string
}

// NewPrometheusReporter creates the gauges and registers them on reg.
func NewPrometheusReporter(reg prometheus.Registerer, algorithm string) (*PrometheusReporter, error) {
	labels := []string{"algorithm"}
	r := &PrometheusReporter{
		Generation: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "generation",
			Help:      "Last completed generation",
		}, labels),
		AverageFitness: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "fitness_average",
			Help:      "Average raw fitness of the last generation",
		}, labels),
		MaxFitness: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "fitness_max",
			Help:      "Maximum raw fitness of the last generation",
		}, labels),
		SpeciesCount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "species_count",
			Help:      "Number of non-empty species after speciation",
		}, labels),
		algorithm: algorithm,
	}

	for _, c := range []prometheus.Collector{r.Generation, r.AverageFitness, r.MaxFitness, r.SpeciesCount} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metric: %w", err)
		}
	}
	return r, nil
}

// GenerationComplete updates the gauges.
func (r *PrometheusReporter) GenerationComplete(stats neat.GenerationStats) {
	r.Generation.WithLabelValues(r.algorithm).Set(float64(stats.Generation))
	r.AverageFitness.WithLabelValues(r.algorithm).Set(stats.AverageFitness)
	r.MaxFitness.WithLabelValues(r.algorithm).Set(stats.MaxFitness)
	r.SpeciesCount.WithLabelValues(r.algorithm).Set(float64(stats.SpeciesCount))
}
