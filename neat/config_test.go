package neat

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfigINI = `
[NEAT]
algorithm = HyperNEAT # indirect encoding
seed      = 42

[DefaultGenome]
num_inputs         = 3
num_outputs        = 2
activation_options = tanh swish
conn_add_prob      = 0.0
node_add_prob      = 0.2

[CPPNGenome]
activation_options = logistic prelu

[DefaultReproduction]
crossover_prob = 0.1
cull_threshold = 0.25

[DefaultSpeciesSet]
compatibility_threshold = 1.5

[DefaultStagnation]
staleness_threshold = 7

[Substrate]
size       = 5
min_weight = 0.01
activation = tanh
`

func TestParseConfig(t *testing.T) {
	config, err := ParseConfig([]byte(testConfigINI))
	require.NoError(t, err)

	assert.Equal(t, AlgorithmHyperNEAT, config.Neat.Algorithm, "inline comment stripped and lowercased")
	assert.Equal(t, int64(42), config.Neat.Seed)

	assert.Equal(t, 3, config.Genome.NumInputs)
	assert.Equal(t, 2, config.Genome.NumOutputs)
	assert.Equal(t, []ActivationKind{Tanh, Swish}, config.Genome.Activations())
	assert.Zero(t, config.Genome.ConnAddProb, "explicit zero disables the mutation")
	assert.Equal(t, 0.2, config.Genome.NodeAddProb)
	assert.Equal(t, 0.8, config.Genome.WeightMutateRate)
	assert.Zero(t, config.Genome.SlopeMutateProb)
	assert.Equal(t, 1.5, config.Genome.CompatibilityThreshold)

	assert.Equal(t, 4, config.CPPN.NumInputs)
	assert.Equal(t, 1, config.CPPN.NumOutputs)
	assert.Equal(t, []ActivationKind{Logistic, PReLU}, config.CPPN.Activations())
	assert.Equal(t, 0.2, config.CPPN.SlopeMutateProb)
	assert.Equal(t, 1.5, config.CPPN.CompatibilityThreshold)

	assert.Equal(t, 0.1, config.Reproduction.CrossoverProb)
	assert.Equal(t, 0.25, config.Reproduction.CullThreshold)
	assert.Equal(t, 7, config.Stagnation.StalenessThreshold)
	assert.Equal(t, 5, config.Substrate.Size)
	assert.Equal(t, 0.01, config.Substrate.MinWeight)
	assert.Equal(t, "tanh", config.Substrate.Activation)
}

func TestParseConfig_Defaults(t *testing.T) {
	config, err := ParseConfig([]byte("[DefaultGenome]\nnum_inputs = 2\nnum_outputs = 1\n"))
	require.NoError(t, err)

	assert.Equal(t, AlgorithmNEAT, config.Neat.Algorithm)
	assert.Equal(t, int64(1), config.Neat.Seed)
	assert.Equal(t, []ActivationKind{Logistic}, config.Genome.Activations())
	assert.Equal(t, 0.1, config.Genome.WeightReplaceRate)
	assert.Equal(t, 0.02, config.Genome.WeightMutatePower)
	assert.Equal(t, 0.15, config.Genome.ConnAddProb)
	assert.Equal(t, 0.05, config.Genome.NodeAddProb)
	assert.Equal(t, 0.25, config.Genome.InitialSlope)
	assert.Equal(t, 1.0, config.Genome.CompatibilityDisjointCoefficient)
	assert.Equal(t, 0.5, config.Genome.CompatibilityWeightCoefficient)
	assert.Equal(t, 20, config.Genome.CompatibilityNormalizeFloor)
	assert.Equal(t, 100.0, config.Genome.CompatibilityNoMatchDifference)
	assert.Equal(t, 0.3, config.Genome.CompatibilityThreshold)
	assert.Equal(t, []ActivationKind{Logistic, Tanh, PReLU, Swish}, config.CPPN.Activations())
	assert.Equal(t, 0.05, config.Reproduction.CrossoverProb)
	assert.Equal(t, 0.5, config.Reproduction.CullThreshold)
	assert.Equal(t, 10, config.Stagnation.StalenessThreshold)
	assert.Equal(t, 11, config.Substrate.Size)
	assert.Equal(t, 0.0002, config.Substrate.MinWeight)
	assert.Equal(t, "logistic", config.Substrate.Activation)
}

func TestParseConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		ini  string
	}{
		{name: "unknown algorithm", ini: "[NEAT]\nalgorithm = rnn\n[DefaultGenome]\nnum_inputs = 1\nnum_outputs = 1\n"},
		{name: "missing inputs", ini: "[DefaultGenome]\nnum_outputs = 1\n"},
		{name: "missing outputs", ini: "[DefaultGenome]\nnum_inputs = 1\n"},
		{name: "unknown activation", ini: "[DefaultGenome]\nnum_inputs = 1\nnum_outputs = 1\nactivation_options = relu\n"},
		{name: "probability above one", ini: "[DefaultGenome]\nnum_inputs = 1\nnum_outputs = 1\nnode_add_prob = 1.5\n"},
		{name: "negative cull threshold", ini: "[DefaultGenome]\nnum_inputs = 1\nnum_outputs = 1\n[DefaultReproduction]\ncull_threshold = -0.5\n"},
		{name: "substrate too small", ini: "[NEAT]\nalgorithm = hyperneat\n[DefaultGenome]\nnum_inputs = 10\nnum_outputs = 1\n[Substrate]\nsize = 3\n"},
		{name: "unknown substrate activation", ini: "[DefaultGenome]\nnum_inputs = 1\nnum_outputs = 1\n[Substrate]\nactivation = step\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.ini))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "neat.ini")
	require.NoError(t, os.WriteFile(path, []byte(testConfigINI), 0o644))

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 5, config.Substrate.Size)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.ini"))
	assert.Error(t, err)
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig(6, 4)

	require.NoError(t, config.Validate())
	assert.Equal(t, AlgorithmNEAT, config.Neat.Algorithm)
	assert.Equal(t, 6, config.Genome.NumInputs)
	assert.Equal(t, 4, config.Genome.NumOutputs)
	assert.Zero(t, config.Genome.SlopeMutateProb)
	assert.Equal(t, 0.2, config.CPPN.SlopeMutateProb)
	assert.Equal(t, 0.8, config.CPPN.WeightMutateRate)
	assert.Equal(t, 0.3, config.Genome.CompatibilityThreshold)

	assert.Panics(t, func() { DefaultConfig(0, 1) })
}

func TestLoadConfig_XORExample(t *testing.T) {
	config, err := LoadConfig(filepath.Join("..", "examples", "xor", "xor-config.ini"))
	require.NoError(t, err)

	assert.Equal(t, AlgorithmNEAT, config.Neat.Algorithm)
	assert.Equal(t, 2, config.Genome.NumInputs)
	assert.Equal(t, 1, config.Genome.NumOutputs)
	assert.Zero(t, config.Genome.SlopeMutateProb)
	assert.Equal(t, 3, config.Substrate.Size)
}

func TestParseConfig_SeedZeroIsKept(t *testing.T) {
	config, err := ParseConfig([]byte("[NEAT]\nseed = 0\n[DefaultGenome]\nnum_inputs = 1\nnum_outputs = 1\n"))
	require.NoError(t, err)
	assert.Equal(t, int64(0), config.Neat.Seed)
}

func TestValidate_ReportsFirstInvalidKeyInOrder(t *testing.T) {
	for i := 0; i < 20; i++ {
		config := DefaultConfig(2, 1)
		config.Genome.NodeAddProb = 2
		config.Genome.WeightMutateRate = -1
		config.CPPN.ConnAddProb = 3

		err := config.Validate()
		require.Error(t, err)
		assert.EqualError(t, err, "config error: [DefaultGenome] weight_mutate_rate must be between 0 and 1")
	}
}
