// Package history keeps a DuckDB-backed log of completed analyses.
package history

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/marcboeker/go-duckdb"
	"github.com/rotor-modal/client/internal/models"
	"github.com/rotor-modal/client/internal/results"
)

// Run is the summary of one successful analysis.
type Run struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"createdAt"`
	Displacement string    `json:"datFile"`
	Position     string    `json:"inpFile"`
	ModalTarget  string    `json:"modalTarget,omitempty"`
	RowCount     int       `json:"rowCount"`
	BelowCount   int       `json:"belowThreshold"`
	AboveCount   int       `json:"atOrAboveThreshold"`
	DurationMs   int64     `json:"durationMs"`
}

// NewRun summarises result using the interpreter's classification.
func NewRun(datName, inpName string, result *models.AnalysisResult, in *results.Interpreter, elapsed time.Duration) Run {
	run := Run{
		ID:           uuid.New().String(),
		CreatedAt:    time.Now().UTC(),
		Displacement: datName,
		Position:     inpName,
		DurationMs:   elapsed.Milliseconds(),
	}
	if result == nil {
		return run
	}
	if result.ModalTarget != nil {
		run.ModalTarget = *result.ModalTarget
	}
	rows := in.Interpret(result)
	run.RowCount = len(rows)
	run.BelowCount, run.AboveCount = results.Counts(rows)
	return run
}

// Store persists runs in a DuckDB file.
type Store struct {
	db     *sql.DB
	dbPath string
	mu     sync.Mutex
}

// Open opens or creates the history database at dbPath.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	fmt.Printf("[History] Opening database at: %s\n", dbPath)
	connector, err := duckdb.NewConnector(dbPath, func(execer driver.ExecerContext) error {
		pragmas := []string{
			"PRAGMA memory_limit='256MB'",
			"PRAGMA threads=2",
			"PRAGMA enable_progress_bar=false",
		}
		for _, pragma := range pragmas {
			if _, err := execer.ExecContext(context.Background(), pragma, nil); err != nil {
				fmt.Printf("[History] Pragma warning: %v\n", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create DuckDB connector: %w", err)
	}

	db := sql.OpenDB(connector)
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id           VARCHAR PRIMARY KEY,
			created_at   TIMESTAMP NOT NULL,
			dat_name     VARCHAR NOT NULL,
			inp_name     VARCHAR NOT NULL,
			modal_target VARCHAR,
			row_count    INTEGER NOT NULL,
			below_count  INTEGER NOT NULL,
			above_count  INTEGER NOT NULL,
			duration_ms  BIGINT NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create runs table: %w", err)
	}

	return &Store{db: db, dbPath: dbPath}, nil
}

// Record appends a run.
func (s *Store) Record(ctx context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}
	defer conn.Close()

	var target any
	if run.ModalTarget != "" {
		target = run.ModalTarget
	}

	err = conn.Raw(func(driverConn interface{}) error {
		dConn, ok := driverConn.(*duckdb.Conn)
		if !ok {
			return fmt.Errorf("failed to cast to duckdb.Conn")
		}

		appender, err := duckdb.NewAppenderFromConn(dConn, "", "runs")
		if err != nil {
			return fmt.Errorf("failed to create appender: %w", err)
		}
		defer appender.Close()

		if err := appender.AppendRow(
			run.ID,
			run.CreatedAt,
			run.Displacement,
			run.Position,
			target,
			int32(run.RowCount),
			int32(run.BelowCount),
			int32(run.AboveCount),
			run.DurationMs,
		); err != nil {
			return fmt.Errorf("failed to append run: %w", err)
		}
		return appender.Flush()
	})
	if err != nil {
		return fmt.Errorf("appender error: %w", err)
	}

	fmt.Printf("[History] Recorded run %s (%s + %s, %d rows)\n", shortID(run.ID), run.Displacement, run.Position, run.RowCount)
	return nil
}

// Recent returns up to limit runs, newest first. A limit <= 0 returns all.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	query := `
		SELECT id, created_at, dat_name, inp_name, COALESCE(modal_target, ''),
		       row_count, below_count, above_count, duration_ms
		FROM runs
		ORDER BY created_at DESC, id`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.CreatedAt, &r.Displacement, &r.Position, &r.ModalTarget,
			&r.RowCount, &r.BelowCount, &r.AboveCount, &r.DurationMs); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Count returns the number of recorded runs.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting runs: %w", err)
	}
	return n, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
