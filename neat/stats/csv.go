package stats

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/baldhumanity/agent-neat/neat"
)

// CSVHeader is the first row written by a CSVRecorder.
var CSVHeader = []string{"Generation", "Average", "Maximum", "Color"}

// CSVRecorder appends one "Generation,Average,Maximum,Color" row per
// generation. The color column lists the species colors joined by " : ".
type CSVRecorder struct {
	mu     sync.Mutex
	writer *csv.Writer
	err    error
}

// NewCSVRecorder writes the header to w and returns the recorder.
func NewCSVRecorder(w io.Writer) (*CSVRecorder, error) {
	writer := csv.NewWriter(w)
	if err := writer.Write(CSVHeader); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	return &CSVRecorder{writer: writer}, nil
}

// Record writes and flushes one row.
func (r *CSVRecorder) Record(stats neat.GenerationStats) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	row := []string{
		strconv.Itoa(stats.Generation),
		strconv.FormatFloat(stats.AverageFitness, 'f', -1, 64),
		strconv.FormatFloat(stats.MaxFitness, 'f', -1, 64),
		strings.Join(stats.ColorNames, " : "),
	}
	if err := r.writer.Write(row); err != nil {
		r.err = err
		return fmt.Errorf("write generation %d: %w", stats.Generation, err)
	}
	r.writer.Flush()
	if err := r.writer.Error(); err != nil {
		r.err = err
		return fmt.Errorf("write generation %d: %w", stats.Generation, err)
	}
	return nil
}

// GenerationComplete implements neat.Reporter. Write failures are reported by Err.
func (r *CSVRecorder) GenerationComplete(stats neat.GenerationStats) {
	_ = r.Record(stats)
}

// Err returns the last write failure.
func (r *CSVRecorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}
