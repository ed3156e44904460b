package stats

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baldhumanity/agent-neat/neat"
)

func sampleStats(generation int) neat.GenerationStats {
	return neat.GenerationStats{
		Generation:     generation,
		AverageFitness: 12.5,
		MaxFitness:     40,
		SpeciesCount:   2,
		BestAgentID:    7,
		ColorNames:     []string{"red", "navy"},
	}
}

func TestPrometheusReporter(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := NewPrometheusReporter(reg, neat.AlgorithmNEAT)
	require.NoError(t, err)

	r.GenerationComplete(sampleStats(3))

	assert.Equal(t, 3.0, testutil.ToFloat64(r.Generation.WithLabelValues(neat.AlgorithmNEAT)))
	assert.Equal(t, 12.5, testutil.ToFloat64(r.AverageFitness.WithLabelValues(neat.AlgorithmNEAT)))
	assert.Equal(t, 40.0, testutil.ToFloat64(r.MaxFitness.WithLabelValues(neat.AlgorithmNEAT)))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.SpeciesCount.WithLabelValues(neat.AlgorithmNEAT)))

	_, err = NewPrometheusReporter(reg, neat.AlgorithmNEAT)
	assert.Error(t, err, "gauges are already registered")
}

func TestCSVRecorder(t *testing.T) {
	var buf bytes.Buffer
	r, err := NewCSVRecorder(&buf)
	require.NoError(t, err)

	require.NoError(t, r.Record(sampleStats(0)))
	r.GenerationComplete(neat.GenerationStats{Generation: 1, AverageFitness: 0.25, MaxFitness: 1})
	require.NoError(t, r.Err())

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		CSVHeader,
		{"0", "12.5", "40", "red : navy"},
		{"1", "0.25", "1", ""},
	}, records)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestCSVRecorder_WriteFailure(t *testing.T) {
	_, err := NewCSVRecorder(failingWriter{})
	assert.Error(t, err)
}

func TestSQLiteRecorder(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "stats.db")

	rec := NewSQLiteRecorder(path)
	require.NoError(t, rec.Init(ctx))
	t.Cleanup(func() { _ = rec.Close() })

	require.NoError(t, rec.Record(ctx, sampleStats(1)))
	require.NoError(t, rec.Record(ctx, sampleStats(0)))

	updated := sampleStats(1)
	updated.MaxFitness = 55
	rec.Reporter(ctx, nil).GenerationComplete(updated)

	rows, err := rec.Generations(ctx, rec.RunID())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, 0, rows[0].Generation)
	assert.Equal(t, 1, rows[1].Generation)
	assert.Equal(t, 55.0, rows[1].MaxFitness, "re-recording a generation updates it")
	assert.Equal(t, 12.5, rows[0].AverageFitness)
	assert.Equal(t, 2, rows[0].SpeciesCount)
	assert.Equal(t, 7, rows[0].BestAgentID)
	assert.Equal(t, "red : navy", rows[0].Colors)
	assert.Equal(t, rec.RunID(), rows[0].RunID)
	assert.False(t, rows[0].RecordedAt.IsZero())

	other, err := rec.Generations(ctx, "another-run")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestSQLiteRecorder_SharedFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "stats.db")

	first := NewSQLiteRecorder(path)
	second := NewSQLiteRecorder(path)
	require.NotEqual(t, first.RunID(), second.RunID())

	require.NoError(t, first.Init(ctx))
	require.NoError(t, first.Record(ctx, sampleStats(0)))
	require.NoError(t, first.Close())

	require.NoError(t, second.Init(ctx))
	t.Cleanup(func() { _ = second.Close() })
	require.NoError(t, second.Record(ctx, sampleStats(0)))

	rows, err := second.Generations(ctx, first.RunID())
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestSQLiteRecorder_RequiresInit(t *testing.T) {
	ctx := context.Background()

	rec := NewSQLiteRecorder(filepath.Join(t.TempDir(), "stats.db"))
	assert.Error(t, rec.Record(ctx, sampleStats(0)))
	assert.NoError(t, rec.Close())

	assert.Error(t, NewSQLiteRecorder("").Init(ctx))
}
