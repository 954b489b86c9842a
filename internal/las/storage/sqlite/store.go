// Package sqlite persists an inventory of LAS ingest runs and their
// per-field statistics.
package sqlite

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/pointpack/internal/las/stats"
)

//go:embed migrations
var migrationsFS embed.FS

// Store wraps the inventory database.
type Store struct {
	*sql.DB
}

// IngestRun records one inspected LAS file.
type IngestRun struct {
	RunID        string
	SourcePath   string
	LASVersion   string // e.g. "1.4"
	PointFormat  int
	RecordLength int
	PointCount   int64
	CreatedAt    int64 // unix nanoseconds
}

// Open opens the inventory database at path, creating it if needed,
// and applies any pending migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	s := &Store{db}
	if err := s.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrateUp() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load embedded migrations: %w", err)
	}
	driver, err := migratesqlite.WithInstance(s.DB, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	m.Log = &migrateLogger{}
	// Note: m is not closed here because that would close the
	// underlying DB connection.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// InsertRun persists a new ingest run. If RunID is empty, a UUID is
// generated; if CreatedAt is zero, the current time is used.
func (s *Store) InsertRun(run *IngestRun) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAt == 0 {
		run.CreatedAt = time.Now().UnixNano()
	}
	_, err := s.Exec(`
		INSERT INTO las_ingest_runs (
			run_id, source_path, las_version, point_format,
			record_length, point_count, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.SourcePath, run.LASVersion, run.PointFormat,
		run.RecordLength, run.PointCount, run.CreatedAt,
	)
	return err
}

// InsertFieldSummaries persists the per-field statistics of a run in
// one transaction.
func (s *Store) InsertFieldSummaries(runID string, summaries []stats.FieldSummary) error {
	tx, err := s.Begin()
	if err != nil {
		return fmt.Errorf("begin summaries transaction: %w", err)
	}
	for _, fs := range summaries {
		_, err := tx.Exec(`
			INSERT INTO las_field_summaries (
				run_id, field_name, min_value, max_value,
				mean_value, stddev, distinct_count
			) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			runID, fs.Name, fs.Min, fs.Max, fs.Mean, fs.StdDev, fs.Distinct,
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("insert summary for %s: %w", fs.Name, err)
		}
	}
	return tx.Commit()
}

// GetRun returns a single run by ID.
func (s *Store) GetRun(runID string) (*IngestRun, error) {
	row := s.QueryRow(`
		SELECT run_id, source_path, las_version, point_format,
		       record_length, point_count, created_at
		FROM las_ingest_runs
		WHERE run_id = ?`, runID)

	var run IngestRun
	err := row.Scan(&run.RunID, &run.SourcePath, &run.LASVersion, &run.PointFormat,
		&run.RecordLength, &run.PointCount, &run.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("ingest run %q not found: %w", runID, err)
	}
	if err != nil {
		return nil, fmt.Errorf("query ingest run: %w", err)
	}
	return &run, nil
}

// ListRuns returns all runs, newest first.
func (s *Store) ListRuns() ([]*IngestRun, error) {
	rows, err := s.Query(`
		SELECT run_id, source_path, las_version, point_format,
		       record_length, point_count, created_at
		FROM las_ingest_runs
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query ingest runs: %w", err)
	}
	defer rows.Close()

	var runs []*IngestRun
	for rows.Next() {
		var run IngestRun
		if err := rows.Scan(&run.RunID, &run.SourcePath, &run.LASVersion, &run.PointFormat,
			&run.RecordLength, &run.PointCount, &run.CreatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}

// FieldSummaries returns the stored statistics of a run, ordered by
// field name.
func (s *Store) FieldSummaries(runID string) ([]stats.FieldSummary, error) {
	rows, err := s.Query(`
		SELECT field_name, min_value, max_value, mean_value, stddev, distinct_count
		FROM las_field_summaries
		WHERE run_id = ?
		ORDER BY field_name`, runID)
	if err != nil {
		return nil, fmt.Errorf("query field summaries: %w", err)
	}
	defer rows.Close()

	var summaries []stats.FieldSummary
	for rows.Next() {
		var fs stats.FieldSummary
		if err := rows.Scan(&fs.Name, &fs.Min, &fs.Max, &fs.Mean, &fs.StdDev, &fs.Distinct); err != nil {
			return nil, err
		}
		summaries = append(summaries, fs)
	}
	return summaries, rows.Err()
}

// DeleteRun removes a run and its field summaries.
func (s *Store) DeleteRun(runID string) error {
	tx, err := s.Begin()
	if err != nil {
		return fmt.Errorf("begin delete transaction: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM las_field_summaries WHERE run_id = ?`, runID); err != nil {
		tx.Rollback()
		return fmt.Errorf("delete field summaries: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM las_ingest_runs WHERE run_id = ?`, runID); err != nil {
		tx.Rollback()
		return fmt.Errorf("delete ingest run: %w", err)
	}
	return tx.Commit()
}

// migrateLogger implements migrate.Logger.
type migrateLogger struct{}

func (l *migrateLogger) Printf(format string, v ...interface{}) {
	log.Printf("[migrate] "+format, v...)
}

func (l *migrateLogger) Verbose() bool {
	return false
}
