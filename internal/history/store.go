// Package history records spawned commands in a SQLite database so that
// earlier --exec and --exec-batch runs can be reviewed and exported.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/harrison/sift/internal/models"
)

//go:embed schema.sql
var schemaSQL string

// Invocation is one recorded child process.
type Invocation struct {
	ID         int64     `json:"id"`
	RunID      string    `json:"run_id"`
	Mode       string    `json:"mode"`
	Argv       []string  `json:"argv"`
	Paths      int       `json:"paths"`
	ExitCode   *int      `json:"exit_code,omitempty"`
	SpawnError string    `json:"spawn_error,omitempty"`
	Success    bool      `json:"success"`
	DurationMs int64     `json:"duration_ms"`
	StartedAt  time.Time `json:"started_at"`
	WorkDir    string    `json:"work_dir,omitempty"`
}

// Store manages the SQLite invocation history
type Store struct {
	db      *sql.DB
	dbPath  string
	workDir string
}

// NewStore creates a new Store instance and initializes the database
func NewStore(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Writes are serialized and an in-memory database lives on one connection.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA busy_timeout=5000", // Must be first
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	if err := execWithRetry(db, schemaSQL, 5, 10*time.Millisecond); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	wd, _ := os.Getwd()
	return &Store{db: db, dbPath: dbPath, workDir: wd}, nil
}

// execWithRetry executes a SQL statement with exponential backoff retry on lock errors.
func execWithRetry(db *sql.DB, stmt string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(stmt)
		if err == nil {
			return nil
		}
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}
		lastErr = err
		time.Sleep(baseDelay * time.Duration(1<<attempt))
	}
	return lastErr
}

// Path returns the database location.
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// RecordInvocation stores one finished child process.
func (s *Store) RecordInvocation(ctx context.Context, outcome models.ExecutionOutcome) error {
	argv, err := json.Marshal(outcome.Argv)
	if err != nil {
		return fmt.Errorf("marshal argv: %w", err)
	}

	var exitCode sql.NullInt64
	if outcome.ExitCode != nil {
		exitCode = sql.NullInt64{Int64: int64(*outcome.ExitCode), Valid: true}
	}
	var spawnErr sql.NullString
	if outcome.SpawnErr != nil {
		spawnErr = sql.NullString{String: outcome.SpawnErr.Error(), Valid: true}
	}
	startedAt := outcome.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now()
	}

	query := `INSERT INTO invocations
		(run_id, mode, argv, paths, exit_code, spawn_error, success, duration_ms, started_at, work_dir)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = s.db.ExecContext(ctx, query,
		outcome.RunID,
		outcome.Mode,
		string(argv),
		outcome.Paths,
		exitCode,
		spawnErr,
		outcome.Success(),
		outcome.Duration.Milliseconds(),
		startedAt.UTC(),
		s.workDir,
	)
	if err != nil {
		return fmt.Errorf("insert invocation: %w", err)
	}
	return nil
}

const selectInvocations = `SELECT id, run_id, mode, argv, paths, exit_code, spawn_error, success, duration_ms, started_at, work_dir
		FROM invocations`

// Recent returns the most recent invocations, newest first. limit <= 0
// returns every row.
func (s *Store) Recent(ctx context.Context, limit int) ([]*Invocation, error) {
	query := selectInvocations + ` ORDER BY id DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query invocations: %w", err)
	}
	defer rows.Close()
	return scanInvocations(rows)
}

// ByRun returns every invocation of one run in execution order.
func (s *Store) ByRun(ctx context.Context, runID string) ([]*Invocation, error) {
	rows, err := s.db.QueryContext(ctx, selectInvocations+` WHERE run_id = ? ORDER BY id ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run %s: %w", runID, err)
	}
	defer rows.Close()
	return scanInvocations(rows)
}

// Prune deletes invocations that started before cutoff and returns the
// number of rows removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM invocations WHERE started_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("prune invocations: %w", err)
	}
	return result.RowsAffected()
}

func scanInvocations(rows *sql.Rows) ([]*Invocation, error) {
	var invocations []*Invocation
	for rows.Next() {
		inv := &Invocation{}
		var argv string
		var exitCode sql.NullInt64
		var spawnErr, workDir sql.NullString
		err := rows.Scan(
			&inv.ID,
			&inv.RunID,
			&inv.Mode,
			&argv,
			&inv.Paths,
			&exitCode,
			&spawnErr,
			&inv.Success,
			&inv.DurationMs,
			&inv.StartedAt,
			&workDir,
		)
		if err != nil {
			return nil, fmt.Errorf("scan invocation row: %w", err)
		}

		if err := json.Unmarshal([]byte(argv), &inv.Argv); err != nil {
			return nil, fmt.Errorf("unmarshal argv: %w", err)
		}
		if exitCode.Valid {
			code := int(exitCode.Int64)
			inv.ExitCode = &code
		}
		if spawnErr.Valid {
			inv.SpawnError = spawnErr.String
		}
		if workDir.Valid {
			inv.WorkDir = workDir.String
		}
		invocations = append(invocations, inv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invocation rows: %w", err)
	}
	return invocations, nil
}
