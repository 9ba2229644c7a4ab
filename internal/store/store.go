// Package store implements the optional SQL-backed persistence spec §6
// allows for the profiling-counter registry and a record of analysis
// requests, selected by the `store_dsn` config variable's URL scheme.
// Grounded on sentra's internal/database/db_manager.go: connection-pool
// sizing (10 open / 5 idle / 5-minute lifetime), a driver-name mapping
// switch, and a Ping-on-connect health check, generalized from a
// multi-connection registry keyed by caller-chosen IDs (many named
// connections open at once) down to the one DSN this core ever opens.
// Scheme-to-driver mapping exercises four of the pack's SQL drivers
// (github.com/lib/pq, github.com/go-sql-driver/mysql,
// github.com/mattn/go-sqlite3, github.com/denisenkom/go-mssqldb) the
// way SPEC_FULL §2's domain stack section commits to.
package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Store wraps one pooled SQL connection used for counter snapshots and
// an analysis-request audit log. Persistence here is a reporting aid,
// not the hot-path cache — internal/analysis.Manager's in-memory map
// remains the cache a running process actually consults.
type Store struct {
	db     *sql.DB
	driver string
}

// Open selects a driver from dsn's URL scheme, connects, verifies with
// Ping, configures the pool exactly as sentra's DBManager.Connect does,
// and ensures the two tables this package owns exist.
func Open(dsn string) (*Store, error) {
	driver, err := driverFor(dsn)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: opening %s: %w", driver, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: pinging %s: %w", driver, err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	s := &Store{db: db, driver: driver}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func driverFor(dsn string) (string, error) {
	scheme := dsn
	if i := strings.Index(dsn, "://"); i >= 0 {
		scheme = dsn[:i]
	}
	switch scheme {
	case "sqlite", "sqlite3", "file":
		return "sqlite3", nil
	case "postgres", "postgresql":
		return "postgres", nil
	case "mysql":
		return "mysql", nil
	case "sqlserver", "mssql":
		return "sqlserver", nil
	default:
		return "", fmt.Errorf("store: unrecognized DSN scheme in %q", dsn)
	}
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS counter_snapshots (
			run_id TEXT NOT NULL,
			name TEXT NOT NULL,
			value BIGINT NOT NULL,
			recorded_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS analysis_runs (
			pass_id TEXT NOT NULL,
			func_name TEXT NOT NULL,
			arg_type_string TEXT NOT NULL,
			summary TEXT NOT NULL,
			recorded_at TIMESTAMP NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("store: migrating: %w", err)
		}
	}
	return nil
}

// SaveCounters persists one named snapshot of a metrics.Registry's
// current counter values (spec §6's "survive a process restart" note on
// the profiling counters).
func (s *Store) SaveCounters(runID string, values map[string]int64) error {
	now := time.Now()
	for name, v := range values {
		if _, err := s.db.Exec(
			`INSERT INTO counter_snapshots (run_id, name, value, recorded_at) VALUES (?, ?, ?, ?)`,
			runID, name, v, now,
		); err != nil {
			return fmt.Errorf("store: saving counter %q: %w", name, err)
		}
	}
	return nil
}

// LoadCounters reads back every counter value ever recorded under
// runID, keeping the most recent value per counter name.
func (s *Store) LoadCounters(runID string) (map[string]int64, error) {
	rows, err := s.db.Query(
		`SELECT name, value FROM counter_snapshots WHERE run_id = ? ORDER BY recorded_at ASC`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("store: loading counters: %w", err)
	}
	defer rows.Close()

	out := map[string]int64{}
	for rows.Next() {
		var name string
		var value int64
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		out[name] = value
	}
	return out, rows.Err()
}

// RecordAnalysisRun appends one audit row for a completed
// Manager.Request call, for post-hoc inspection of which analyses ran
// against which argument-type strings.
func (s *Store) RecordAnalysisRun(passID, funcName, argTypeString, summary string) error {
	_, err := s.db.Exec(
		`INSERT INTO analysis_runs (pass_id, func_name, arg_type_string, summary, recorded_at) VALUES (?, ?, ?, ?, ?)`,
		passID, funcName, argTypeString, summary, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("store: recording analysis run: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error { return s.db.Close() }
