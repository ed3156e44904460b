package stats

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/baldhumanity/agent-neat/neat"
)

// Row is one recorded generation.
type Row struct {
	RunID          string
	Generation     int
	AverageFitness float64
	MaxFitness     float64
	SpeciesCount   int
	BestAgentID    int
	Colors         string
	RecordedAt     time.Time
}

// SQLiteRecorder appends one row per generation to a SQLite database. Every
// recorder writes under its own run ID, so several runs can share a file.
type SQLiteRecorder struct {
	path  string
	runID uuid.UUID

	mu sync.RWMutex
	db *sql.DB
}

// NewSQLiteRecorder creates a recorder for a new run. Call Init before recording.
func NewSQLiteRecorder(path string) *SQLiteRecorder {
	return &SQLiteRecorder{path: path, runID: uuid.New()}
}

// RunID returns the identifier the recorder writes under.
func (s *SQLiteRecorder) RunID() string {
	return s.runID.String()
}

// Init opens the database and creates the schema.
func (s *SQLiteRecorder) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

// Record writes the statistics of one generation.
func (s *SQLiteRecorder) Record(ctx context.Context, stats neat.GenerationStats) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO generations (run_id, generation, average_fitness, max_fitness, species_count, best_agent, colors, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, generation) DO UPDATE SET
			average_fitness = excluded.average_fitness,
			max_fitness = excluded.max_fitness,
			species_count = excluded.species_count,
			best_agent = excluded.best_agent,
			colors = excluded.colors,
			recorded_at = excluded.recorded_at
	`, s.RunID(), stats.Generation, stats.AverageFitness, stats.MaxFitness, stats.SpeciesCount,
		stats.BestAgentID, strings.Join(stats.ColorNames, " : "), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("record generation %d: %w", stats.Generation, err)
	}
	return nil
}

// Generations returns the rows of a run in generation order.
func (s *SQLiteRecorder) Generations(ctx context.Context, runID string) ([]Row, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT run_id, generation, average_fitness, max_fitness, species_count, best_agent, colors, recorded_at
		FROM generations WHERE run_id = ? ORDER BY generation
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var (
			r          Row
			recordedAt string
		)
		if err := rows.Scan(&r.RunID, &r.Generation, &r.AverageFitness, &r.MaxFitness, &r.SpeciesCount, &r.BestAgentID, &r.Colors, &recordedAt); err != nil {
			return nil, err
		}
		if r.RecordedAt, err = time.Parse(time.RFC3339Nano, recordedAt); err != nil {
			return nil, fmt.Errorf("decode recorded_at of generation %d: %w", r.Generation, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Reporter adapts the recorder to neat.Reporter. Write failures are logged.
func (s *SQLiteRecorder) Reporter(ctx context.Context, logger *slog.Logger) neat.Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	return neat.ReporterFunc(func(stats neat.GenerationStats) {
		if err := s.Record(ctx, stats); err != nil {
			logger.Error("failed to record generation statistics", "run", s.RunID(), "error", err)
		}
	})
}

// Close closes the database.
func (s *SQLiteRecorder) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteRecorder) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("recorder is not initialized")
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS generations (
			run_id TEXT NOT NULL,
			generation INTEGER NOT NULL,
			average_fitness REAL NOT NULL,
			max_fitness REAL NOT NULL,
			species_count INTEGER NOT NULL,
			best_agent INTEGER NOT NULL,
			colors TEXT NOT NULL,
			recorded_at TEXT NOT NULL,
			PRIMARY KEY (run_id, generation)
		);
	`)
	return err
}
