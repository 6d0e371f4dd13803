package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/logsage/logsage-ai-go/internal/analysis"
)

// Storage handles database operations
type Storage struct {
	db *sql.DB
}

// Run represents one analysis run over a log file
type Run struct {
	ID         int64
	Timestamp  time.Time
	LogFile    string
	EntryCount int
	ChunkCount int
	ErrorCount int
	CostUSD    float64
}

// Record represents one persisted error analysis
type Record struct {
	ID              int64
	RunID           int64
	Timestamp       time.Time
	ErrorMessage    string
	Explanation     string
	PossibleCauses  []string
	Severity        string
	Recommendations []string
	ConfidenceScore float64
	ErrorDetails    string
}

// Database configuration constants
const (
	// busyTimeoutMs is how long SQLite waits when database is locked (5 seconds)
	busyTimeoutMs = 5000
	// maxOpenConns limits concurrent connections (SQLite works best with 1)
	maxOpenConns = 1
	// maxIdleConns is the number of idle connections to keep
	maxIdleConns = 1
	// connMaxLifetime is how long a connection can be reused
	connMaxLifetime = 30 * time.Minute
)

// New creates a new storage instance
func New(dbPath string) (*Storage, error) {
	// Create directory if it doesn't exist (0700 for security - owner only)
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open database with busy timeout to prevent indefinite waits
	dsn := fmt.Sprintf("%s?_busy_timeout=%d", dbPath, busyTimeoutMs)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with a single connection to avoid lock contention
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	// Test connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	storage := &Storage{db: db}

	// Initialize schema
	if err := storage.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return storage, nil
}

// Schema version constants
const (
	// currentSchemaVersion is the latest schema version
	// Increment this when adding new migrations
	currentSchemaVersion = 1
)

// initSchema creates the database schema if it doesn't exist
func (s *Storage) initSchema() error {
	// Create schema_version table first (tracks migration state)
	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		)
	`); err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	version := s.getSchemaVersion()

	if err := s.migrateSchema(version); err != nil {
		return fmt.Errorf("schema migration failed: %w", err)
	}

	return nil
}

// getSchemaVersion returns the current schema version (0 if not set)
func (s *Storage) getSchemaVersion() int {
	var version int
	err := s.db.QueryRow(`SELECT version FROM schema_version LIMIT 1`).Scan(&version)
	if err != nil {
		return 0 // No version set, needs full migration
	}
	return version
}

// setSchemaVersion updates the schema version
func (s *Storage) setSchemaVersion(version int) error {
	// Delete existing and insert new (simpler than upsert for single row)
	if _, err := s.db.Exec(`DELETE FROM schema_version`); err != nil {
		return err
	}
	if _, err := s.db.Exec(`INSERT INTO schema_version (version) VALUES (?)`, version); err != nil {
		return err
	}
	return nil
}

// migrateSchema runs migrations from currentVersion to latest
func (s *Storage) migrateSchema(currentVersion int) error {
	if currentVersion >= currentSchemaVersion {
		return nil // Already up to date
	}

	log.Printf("storage: migrating schema from version %d to %d", currentVersion, currentSchemaVersion)

	// Migration 0 -> 1: Create base tables
	if currentVersion < 1 {
		if err := s.migrateV1(); err != nil {
			return fmt.Errorf("migration v1 failed: %w", err)
		}
	}

	if err := s.setSchemaVersion(currentSchemaVersion); err != nil {
		return fmt.Errorf("failed to update schema version: %w", err)
	}

	log.Printf("storage: schema migration completed successfully (now at version %d)", currentSchemaVersion)
	return nil
}

// migrateV1 creates the base runs and analyses tables
func (s *Storage) migrateV1() error {
	log.Printf("storage: running migration v1 - create base tables")

	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TEXT NOT NULL,
		log_file TEXT NOT NULL,
		entry_count INTEGER DEFAULT 0,
		chunk_count INTEGER DEFAULT 0,
		error_count INTEGER DEFAULT 0,
		cost_usd REAL DEFAULT 0.0
	);

	CREATE TABLE IF NOT EXISTS analyses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id),
		timestamp TEXT NOT NULL,
		error_message TEXT NOT NULL,
		explanation TEXT NOT NULL,
		possible_causes TEXT,
		severity TEXT NOT NULL,
		recommendations TEXT,
		confidence_score REAL DEFAULT 0.0,
		error_details TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON runs(timestamp);
	CREATE INDEX IF NOT EXISTS idx_analyses_run ON analyses(run_id);
	CREATE INDEX IF NOT EXISTS idx_analyses_severity ON analyses(severity);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveRun saves a run and its analysis results in a single transaction.
func (s *Storage) SaveRun(run *Run, results []analysis.Result) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`
		INSERT INTO runs (timestamp, log_file, entry_count, chunk_count, error_count, cost_usd)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		run.Timestamp.Format(time.RFC3339),
		run.LogFile,
		run.EntryCount,
		run.ChunkCount,
		run.ErrorCount,
		run.CostUSD,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	runID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get run id: %w", err)
	}
	run.ID = runID

	stmt, err := tx.Prepare(`
		INSERT INTO analyses (
			run_id, timestamp, error_message, explanation,
			possible_causes, severity, recommendations,
			confidence_score, error_details
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare analysis insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, result := range results {
		causesJSON, err := json.Marshal(result.PossibleCauses)
		if err != nil {
			return fmt.Errorf("failed to marshal possible causes: %w", err)
		}
		recommendationsJSON, err := json.Marshal(result.Recommendations)
		if err != nil {
			return fmt.Errorf("failed to marshal recommendations: %w", err)
		}

		timestamp := result.Timestamp
		if timestamp == "" {
			timestamp = time.Now().Format(time.RFC3339)
		}

		if _, err := stmt.Exec(
			runID,
			timestamp,
			result.ErrorMessage,
			result.Explanation,
			string(causesJSON),
			string(result.Severity),
			string(recommendationsJSON),
			result.ConfidenceScore,
			result.ErrorDetails,
		); err != nil {
			return fmt.Errorf("failed to insert analysis: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}

	return nil
}

// GetRecentRecords retrieves analyses from the last N days, optionally
// filtered by severity. severity is empty for no filter.
func (s *Storage) GetRecentRecords(days int, severity string) ([]*Record, error) {
	cutoffDate := time.Now().AddDate(0, 0, -days).Format(time.RFC3339)

	query := `
		SELECT id, run_id, timestamp, error_message, explanation,
		       possible_causes, severity, recommendations,
		       confidence_score, error_details
		FROM analyses
		WHERE timestamp >= ?
	`
	args := []interface{}{cutoffDate}

	if severity != "" {
		query += ` AND severity = ?`
		args = append(args, severity)
	}

	query += ` ORDER BY timestamp DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses: %w", err)
	}
	defer func(rows *sql.Rows) {
		err = rows.Close()
		if err != nil {
			log.Printf("storage: failed to close database rows: %v", err)
		}
	}(rows)

	var records []*Record
	for rows.Next() {
		record, err := s.scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

// CleanupOldRuns deletes runs and their analyses older than N days
func (s *Storage) CleanupOldRuns(days int) (int64, error) {
	cutoffDate := time.Now().AddDate(0, 0, -days).Format(time.RFC3339)

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(
		`DELETE FROM analyses WHERE run_id IN (SELECT id FROM runs WHERE timestamp < ?)`,
		cutoffDate,
	); err != nil {
		return 0, fmt.Errorf("failed to cleanup old analyses: %w", err)
	}

	result, err := tx.Exec(`DELETE FROM runs WHERE timestamp < ?`, cutoffDate)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup old runs: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit cleanup: %w", err)
	}

	return affected, nil
}

// GetStatistics returns database statistics
func (s *Storage) GetStatistics() (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var totalRuns int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&totalRuns); err != nil {
		return nil, err
	}
	stats["total_runs"] = totalRuns

	var totalAnalyses int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM analyses`).Scan(&totalAnalyses); err != nil {
		return nil, err
	}
	stats["total_analyses"] = totalAnalyses

	// Severity distribution
	rows, err := s.db.Query(`SELECT severity, COUNT(*) FROM analyses GROUP BY severity`)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		err = rows.Close()
		if err != nil {
			log.Printf("storage: failed to close database rows: %v", err)
		}
	}(rows)

	severityDist := make(map[string]int)
	for rows.Next() {
		var severity string
		var count int
		if err := rows.Scan(&severity, &count); err != nil {
			return nil, err
		}
		severityDist[severity] = count
	}
	stats["severity_distribution"] = severityDist

	// Total cost
	var totalCost float64
	if err := s.db.QueryRow(`SELECT COALESCE(SUM(cost_usd), 0) FROM runs`).Scan(&totalCost); err != nil {
		return nil, err
	}
	stats["total_cost_usd"] = totalCost

	return stats, nil
}

// scanRecord scans a database row into a Record struct
func (s *Storage) scanRecord(rows *sql.Rows) (*Record, error) {
	var (
		id, runID                            int64
		timestamp                            string
		errorMessage, explanation            string
		causesJSON, severity, recommendsJSON string
		confidenceScore                      float64
		errorDetails                         string
	)

	err := rows.Scan(
		&id, &runID, &timestamp, &errorMessage, &explanation,
		&causesJSON, &severity, &recommendsJSON,
		&confidenceScore, &errorDetails,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}

	ts, err := time.Parse(time.RFC3339, timestamp)
	if err != nil {
		return nil, fmt.Errorf("failed to parse timestamp: %w", err)
	}

	var causes, recommendations []string
	if err := json.Unmarshal([]byte(causesJSON), &causes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal possible causes: %w", err)
	}
	if err := json.Unmarshal([]byte(recommendsJSON), &recommendations); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recommendations: %w", err)
	}

	return &Record{
		ID:              id,
		RunID:           runID,
		Timestamp:       ts,
		ErrorMessage:    errorMessage,
		Explanation:     explanation,
		PossibleCauses:  causes,
		Severity:        severity,
		Recommendations: recommendations,
		ConfidenceScore: confidenceScore,
		ErrorDetails:    errorDetails,
	}, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
