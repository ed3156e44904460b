package neat

import (
	"fmt"
	"strings"

	"gopkg.in/ini.v1"
)

// Algorithm names accepted by [NEAT] algorithm.
const (
	AlgorithmNEAT      = "neat"
	AlgorithmHyperNEAT = "hyperneat"
)

// Config stores the configuration parameters for the evolutionary engine.
type Config struct {
	Neat         NeatConfig
	Genome       GenomeConfig
	CPPN         GenomeConfig // Genome parameters for the CPPN of the indirect encoding
	Reproduction ReproductionConfig
	SpeciesSet   SpeciesSetConfig
	Stagnation   StagnationConfig
	Substrate    SubstrateConfig
}

// NeatConfig holds parameters for the run as a whole.
type NeatConfig struct {
	Algorithm string `ini:"algorithm"` // "neat" or "hyperneat"
	Seed      int64  `ini:"seed"`
}

// GenomeConfig holds parameters specific to the structure and mutation of genomes.
type GenomeConfig struct {
	NumInputs  int `ini:"num_inputs"`
	NumOutputs int `ini:"num_outputs"`

	ActivationOptions []string `ini:"activation_options" delim:" "` // Space-separated list

	// --- Mutation probabilities ---
	WeightMutateRate  float64 `ini:"weight_mutate_rate"`
	WeightReplaceRate float64 `ini:"weight_replace_rate"`
	WeightMutatePower float64 `ini:"weight_mutate_power"`
	ConnAddProb       float64 `ini:"conn_add_prob"`
	NodeAddProb       float64 `ini:"node_add_prob"`
	SlopeMutateProb   float64 `ini:"slope_mutate_prob"`
	SlopeMutatePower  float64 `ini:"slope_mutate_power"`
	InitialSlope      float64 `ini:"prelu_initial_slope"`

	// --- Compatibility ---
	CompatibilityDisjointCoefficient float64 `ini:"compatibility_disjoint_coefficient"`
	CompatibilityWeightCoefficient   float64 `ini:"compatibility_weight_coefficient"`
	CompatibilityNormalizeFloor      int     `ini:"compatibility_normalize_floor"`    // genomes smaller than this are not normalised
	CompatibilityNoMatchDifference   float64 `ini:"compatibility_no_match_difference"` // weight difference used when no gene matches
	CompatibilityThreshold           float64 `ini:"compatibility_threshold"`

	activations []ActivationKind // Derived from ActivationOptions
}

// ReproductionConfig holds parameters related to reproduction.
type ReproductionConfig struct {
	CrossoverProb float64 `ini:"crossover_prob"`
	CullThreshold float64 `ini:"cull_threshold"` // fraction of a species kept by Cull
}

// SpeciesSetConfig holds parameters related to speciation.
type SpeciesSetConfig struct {
	CompatibilityThreshold float64 `ini:"compatibility_threshold"`
}

// StagnationConfig holds parameters related to species stagnation.
type StagnationConfig struct {
	StalenessThreshold int `ini:"staleness_threshold"`
}

// SubstrateConfig holds parameters of the indirect encoding's substrate.
type SubstrateConfig struct {
	Size       int     `ini:"size"`
	MinWeight  float64 `ini:"min_weight"`
	Activation string  `ini:"activation"`
}

// DefaultConfig returns a configuration carrying the engine's stock
// coefficients for a genome with the given number of inputs and outputs.
func DefaultConfig(numInputs, numOutputs int) *Config {
	config := &Config{
		Neat: NeatConfig{Algorithm: AlgorithmNEAT, Seed: 1},
		Genome: GenomeConfig{
			NumInputs:  numInputs,
			NumOutputs: numOutputs,
		},
		CPPN: GenomeConfig{
			NumInputs:         4,
			NumOutputs:        1,
			ActivationOptions: []string{"logistic", "tanh", "prelu", "swish"},
			SlopeMutateProb:   0.2,
		},
		Reproduction: ReproductionConfig{CrossoverProb: 0.05, CullThreshold: 0.5},
		SpeciesSet:   SpeciesSetConfig{CompatibilityThreshold: 0.3},
		Stagnation:   StagnationConfig{StalenessThreshold: 10},
		Substrate:    SubstrateConfig{Size: 11, MinWeight: 0.0002, Activation: "logistic"},
	}
	applyDefaults(config)
	if err := config.finalize(); err != nil {
		// The stock coefficients always validate unless the caller asked for
		// a genome without inputs or outputs.
		panic(err)
	}
	return config
}

// LoadConfig loads configuration parameters from an INI file.
func LoadConfig(filePath string) (*Config, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:         true,
		UnescapeValueCommentSymbols: true,
	}, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file '%s': %w", filePath, err)
	}
	return configFromINI(cfg)
}

// ParseConfig loads configuration parameters from INI-formatted bytes.
func ParseConfig(data []byte) (*Config, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:         true,
		UnescapeValueCommentSymbols: true,
	}, data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return configFromINI(cfg)
}

func configFromINI(cfg *ini.File) (*Config, error) {
	config := &Config{}

	if err := cfg.Section("NEAT").MapTo(&config.Neat); err != nil {
		return nil, fmt.Errorf("failed to map [NEAT] section: %w", err)
	}
	if err := cfg.Section("DefaultGenome").MapTo(&config.Genome); err != nil {
		return nil, fmt.Errorf("failed to map [DefaultGenome] section: %w", err)
	}
	if err := cfg.Section("CPPNGenome").MapTo(&config.CPPN); err != nil {
		return nil, fmt.Errorf("failed to map [CPPNGenome] section: %w", err)
	}
	if err := cfg.Section("DefaultReproduction").MapTo(&config.Reproduction); err != nil {
		return nil, fmt.Errorf("failed to map [DefaultReproduction] section: %w", err)
	}
	if err := cfg.Section("DefaultSpeciesSet").MapTo(&config.SpeciesSet); err != nil {
		return nil, fmt.Errorf("failed to map [DefaultSpeciesSet] section: %w", err)
	}
	if err := cfg.Section("DefaultStagnation").MapTo(&config.Stagnation); err != nil {
		return nil, fmt.Errorf("failed to map [DefaultStagnation] section: %w", err)
	}
	if err := cfg.Section("Substrate").MapTo(&config.Substrate); err != nil {
		return nil, fmt.Errorf("failed to map [Substrate] section: %w", err)
	}

	// The CPPN always maps two 2-D points to one weight.
	config.CPPN.NumInputs = 4
	config.CPPN.NumOutputs = 1

	config.Neat.Algorithm = strings.ToLower(cleanIniString(config.Neat.Algorithm))
	config.Substrate.Activation = strings.ToLower(cleanIniString(config.Substrate.Activation))
	for _, gc := range []*GenomeConfig{&config.Genome, &config.CPPN} {
		for i, opt := range gc.ActivationOptions {
			gc.ActivationOptions[i] = strings.ToLower(strings.TrimSpace(opt))
		}
	}

	if config.Neat.Algorithm == "" {
		config.Neat.Algorithm = AlgorithmNEAT
	}
	if !cfg.Section("NEAT").HasKey("seed") {
		config.Neat.Seed = 1
	}
	if config.Reproduction.CrossoverProb == 0 && !cfg.Section("DefaultReproduction").HasKey("crossover_prob") {
		config.Reproduction.CrossoverProb = 0.05
	}
	if config.Reproduction.CullThreshold == 0 {
		config.Reproduction.CullThreshold = 0.5
	}
	if config.SpeciesSet.CompatibilityThreshold == 0 && !cfg.Section("DefaultSpeciesSet").HasKey("compatibility_threshold") {
		config.SpeciesSet.CompatibilityThreshold = 0.3
	}
	if config.Stagnation.StalenessThreshold == 0 {
		config.Stagnation.StalenessThreshold = 10
	}
	if config.Substrate.Size == 0 {
		config.Substrate.Size = 11
	}
	if config.Substrate.MinWeight == 0 && !cfg.Section("Substrate").HasKey("min_weight") {
		config.Substrate.MinWeight = 0.0002
	}
	if config.Substrate.Activation == "" {
		config.Substrate.Activation = "logistic"
	}
	if len(config.CPPN.ActivationOptions) == 0 {
		config.CPPN.ActivationOptions = []string{"logistic", "tanh", "prelu", "swish"}
	}
	if !cfg.Section("CPPNGenome").HasKey("slope_mutate_prob") {
		config.CPPN.SlopeMutateProb = 0.2
	}
	genomeDefaults(&config.Genome, cfg.Section("DefaultGenome"))
	genomeDefaults(&config.CPPN, cfg.Section("CPPNGenome"))

	if err := config.finalize(); err != nil {
		return nil, err
	}
	return config, nil
}

// genomeDefaults fills unset genome parameters. Probabilities are only
// defaulted when the key is absent so that an explicit 0 disables a mutation.
func genomeDefaults(gc *GenomeConfig, section *ini.Section) {
	has := func(key string) bool { return section != nil && section.HasKey(key) }
	if len(gc.ActivationOptions) == 0 {
		gc.ActivationOptions = []string{"logistic"}
	}
	if !has("weight_mutate_rate") {
		gc.WeightMutateRate = 0.8
	}
	if !has("weight_replace_rate") {
		gc.WeightReplaceRate = 0.1
	}
	if !has("weight_mutate_power") {
		gc.WeightMutatePower = 0.02
	}
	if !has("conn_add_prob") {
		gc.ConnAddProb = 0.15
	}
	if !has("node_add_prob") {
		gc.NodeAddProb = 0.05
	}
	if !has("slope_mutate_power") {
		gc.SlopeMutatePower = 0.1
	}
	if !has("prelu_initial_slope") {
		gc.InitialSlope = 0.25
	}
	if !has("compatibility_disjoint_coefficient") {
		gc.CompatibilityDisjointCoefficient = 1.0
	}
	if !has("compatibility_weight_coefficient") {
		gc.CompatibilityWeightCoefficient = 0.5
	}
	if gc.CompatibilityNormalizeFloor == 0 {
		gc.CompatibilityNormalizeFloor = 20
	}
	if gc.CompatibilityNoMatchDifference == 0 {
		gc.CompatibilityNoMatchDifference = 100
	}
}

// applyDefaults fills the genome sections of a programmatically built Config.
func applyDefaults(config *Config) {
	genomeDefaults(&config.Genome, nil)
	cppnSlope := config.CPPN.SlopeMutateProb
	genomeDefaults(&config.CPPN, nil)
	config.CPPN.SlopeMutateProb = cppnSlope
}

// finalize derives cached values and validates the configuration.
func (config *Config) finalize() error {
	// Both genome families speciate on the same threshold.
	config.Genome.CompatibilityThreshold = config.SpeciesSet.CompatibilityThreshold
	config.CPPN.CompatibilityThreshold = config.SpeciesSet.CompatibilityThreshold

	for _, gc := range []*GenomeConfig{&config.Genome, &config.CPPN} {
		gc.activations = gc.activations[:0]
		for _, name := range gc.ActivationOptions {
			kind, err := ParseActivation(name)
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			gc.activations = append(gc.activations, kind)
		}
	}
	if _, err := ParseActivation(config.Substrate.Activation); err != nil {
		return fmt.Errorf("config error: substrate %w", err)
	}
	return config.Validate()
}

// Validate checks the configuration values.
func (config *Config) Validate() error {
	switch config.Neat.Algorithm {
	case AlgorithmNEAT, AlgorithmHyperNEAT:
	default:
		return fmt.Errorf("config error: invalid algorithm '%s', must be one of 'neat', 'hyperneat'", config.Neat.Algorithm)
	}
	if config.Genome.NumInputs <= 0 {
		return fmt.Errorf("config error: num_inputs must be positive")
	}
	if config.Genome.NumOutputs <= 0 {
		return fmt.Errorf("config error: num_outputs must be positive")
	}
	sections := []struct {
		name string
		gc   *GenomeConfig
	}{
		{"DefaultGenome", &config.Genome},
		{"CPPNGenome", &config.CPPN},
	}
	for _, section := range sections {
		name, gc := section.name, section.gc
		probs := []struct {
			key   string
			value float64
		}{
			{"weight_mutate_rate", gc.WeightMutateRate},
			{"weight_replace_rate", gc.WeightReplaceRate},
			{"conn_add_prob", gc.ConnAddProb},
			{"node_add_prob", gc.NodeAddProb},
			{"slope_mutate_prob", gc.SlopeMutateProb},
		}
		for _, p := range probs {
			if p.value < 0 || p.value > 1 {
				return fmt.Errorf("config error: [%s] %s must be between 0 and 1", name, p.key)
			}
		}
		if gc.WeightMutatePower < 0 || gc.SlopeMutatePower < 0 {
			return fmt.Errorf("config error: [%s] mutate powers cannot be negative", name)
		}
		if gc.CompatibilityDisjointCoefficient < 0 || gc.CompatibilityWeightCoefficient < 0 {
			return fmt.Errorf("config error: [%s] compatibility coefficients cannot be negative", name)
		}
		if len(gc.ActivationOptions) == 0 {
			return fmt.Errorf("config error: [%s] activation_options must be specified", name)
		}
	}
	if config.Reproduction.CrossoverProb < 0 || config.Reproduction.CrossoverProb > 1 {
		return fmt.Errorf("config error: crossover_prob must be between 0 and 1")
	}
	if config.Reproduction.CullThreshold <= 0 || config.Reproduction.CullThreshold > 1 {
		return fmt.Errorf("config error: cull_threshold must be in (0, 1]")
	}
	if config.SpeciesSet.CompatibilityThreshold < 0 {
		return fmt.Errorf("config error: compatibility_threshold cannot be negative")
	}
	if config.Stagnation.StalenessThreshold <= 0 {
		return fmt.Errorf("config error: staleness_threshold must be positive")
	}
	if config.Neat.Algorithm == AlgorithmHyperNEAT {
		cells := config.Substrate.Size * config.Substrate.Size
		if config.Substrate.Size <= 0 {
			return fmt.Errorf("config error: substrate size must be positive")
		}
		if config.Genome.NumInputs > cells || config.Genome.NumOutputs > cells {
			return fmt.Errorf("config error: substrate of size %d holds at most %d inputs and outputs", config.Substrate.Size, cells)
		}
	}
	if config.Substrate.MinWeight < 0 {
		return fmt.Errorf("config error: min_weight cannot be negative")
	}
	return nil
}

// Activations returns the activation kinds new nodes may draw from.
func (gc *GenomeConfig) Activations() []ActivationKind {
	if len(gc.activations) == 0 {
		return []ActivationKind{Logistic}
	}
	return gc.activations
}

// cleanIniString removes inline comments and trims whitespace from a string read from INI.
func cleanIniString(s string) string {
	if idx := strings.IndexAny(s, "#;"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
