package nn

import (
	"fmt"

	"github.com/baldhumanity/agent-neat/neat"
)

// Substrate is the fixed-topology phenotype of the indirect encoding: three
// N×N layers (input, sandwich, output) with every cell of one layer wired to
// every cell of the next. Only the weights change; the shape never does.
//
// Cells are numbered row-major, so cell (x, y) has index y*N + x.
type Substrate struct {
	Size       int
	NumInputs  int
	NumOutputs int
	Activation neat.ActivationKind

	// Dense weight matrices indexed [from*cells + to].
	InputToSandwich  []float64
	SandwichToOutput []float64

	// Scratch layers reused across evaluations.
	sandwich []float64
	output   []float64
}

// NewSubstrate creates a substrate whose placeholder links all carry weight 0.
func NewSubstrate(config *neat.SubstrateConfig, numInputs, numOutputs int) (*Substrate, error) {
	if config.Size <= 0 {
		return nil, fmt.Errorf("failed to create substrate: size must be positive, got %d", config.Size)
	}
	cells := config.Size * config.Size
	if numInputs > cells || numOutputs > cells {
		return nil, fmt.Errorf("failed to create substrate: %d inputs and %d outputs do not fit %d cells", numInputs, numOutputs, cells)
	}
	activation, err := neat.ParseActivation(config.Activation)
	if err != nil {
		return nil, fmt.Errorf("failed to create substrate: %w", err)
	}
	return &Substrate{
		Size:             config.Size,
		NumInputs:        numInputs,
		NumOutputs:       numOutputs,
		Activation:       activation,
		InputToSandwich:  make([]float64, cells*cells),
		SandwichToOutput: make([]float64, cells*cells),
		sandwich:         make([]float64, cells),
		output:           make([]float64, cells),
	}, nil
}

// Cells returns the number of cells per layer.
func (s *Substrate) Cells() int {
	return s.Size * s.Size
}

// Cell returns the index of cell (x, y).
func (s *Substrate) Cell(x, y int) int {
	return y*s.Size + x
}

// InputCell returns the input-layer cell fed by vision entry i.
func (s *Substrate) InputCell(i int) int {
	return i
}

// OutputCell returns the output-layer cell read for action entry i. Actions
// start at the first cell of the last row.
func (s *Substrate) OutputCell(i int) int {
	cells := s.Cells()
	return (cells - s.Size + i) % cells
}

// Coordinate maps a lattice index in [0, Size) onto [-1, 1].
func (s *Substrate) Coordinate(i int) float64 {
	if s.Size == 1 {
		return 0
	}
	return -1 + 2*float64(i)/float64(s.Size-1)
}

// SetLinkWeight sets the weight of input(ix, iy) -> sandwich(ox, oy) and of
// sandwich(ix, iy) -> output(ox, oy).
func (s *Substrate) SetLinkWeight(ix, iy, ox, oy int, weight float64) {
	from, to := s.Cell(ix, iy), s.Cell(ox, oy)
	s.InputToSandwich[from*s.Cells()+to] = weight
	s.SandwichToOutput[from*s.Cells()+to] = weight
}

// LinkWeight returns the weight painted for the coordinate pair.
func (s *Substrate) LinkWeight(ix, iy, ox, oy int) float64 {
	return s.InputToSandwich[s.Cell(ix, iy)*s.Cells()+s.Cell(ox, oy)]
}

// Evaluate feeds the vision vector through the three layers.
func (s *Substrate) Evaluate(inputs []float64) ([]float64, error) {
	if len(inputs) != s.NumInputs {
		return nil, fmt.Errorf("%w: got %d values for %d substrate inputs", neat.ErrInputSize, len(inputs), s.NumInputs)
	}
	cells := s.Cells()

	clear(s.sandwich)
	for i, v := range inputs {
		if v == 0 {
			continue
		}
		row := s.InputToSandwich[s.InputCell(i)*cells : (s.InputCell(i)+1)*cells]
		for to, w := range row {
			s.sandwich[to] += w * v
		}
	}
	for i := range s.sandwich {
		s.sandwich[i] = s.Activation.Apply(s.sandwich[i], 0)
	}

	clear(s.output)
	for from, v := range s.sandwich {
		row := s.SandwichToOutput[from*cells : (from+1)*cells]
		for to, w := range row {
			s.output[to] += w * v
		}
	}

	outputs := make([]float64, s.NumOutputs)
	for i := range outputs {
		outputs[i] = s.Activation.Apply(s.output[s.OutputCell(i)], 0)
	}
	return outputs, nil
}

// Clone returns a deep copy of the substrate.
func (s *Substrate) Clone() *Substrate {
	c := *s
	c.InputToSandwich = append([]float64(nil), s.InputToSandwich...)
	c.SandwichToOutput = append([]float64(nil), s.SandwichToOutput...)
	c.sandwich = make([]float64, len(s.sandwich))
	c.output = make([]float64, len(s.output))
	return &c
}
