package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Kind classifies a history entry
type Kind string

const (
	KindDefinition Kind = "definition"
	KindExtern     Kind = "extern"
	KindExpression Kind = "expression"
	KindError      Kind = "error"
)

// Entry is one recorded construct or diagnostic
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Session   string    `json:"session"`
	Kind      Kind      `json:"kind"`
	Name      string    `json:"name,omitempty"`
	Params    []string  `json:"params,omitempty"`
	SExpr     string    `json:"sexpr,omitempty"`
	Error     string    `json:"error,omitempty"`
	Line      int       `json:"line,omitempty"`
	Column    int       `json:"column,omitempty"`
}

// Filter defines criteria for querying entries
type Filter struct {
	Session   string
	Kind      Kind
	Name      string
	StartTime time.Time
	EndTime   time.Time
	Limit     int
	Offset    int
}

// Stats summarizes the stored history
type Stats struct {
	TotalEntries int64          `json:"total_entries"`
	ByKind       map[Kind]int64 `json:"entries_by_kind"`
	Sessions     int64          `json:"sessions"`
	LastEntry    time.Time      `json:"last_entry,omitempty"`
}

// Store defines the interface for history persistence
type Store interface {
	Record(ctx context.Context, entry *Entry) error
	RecordBatch(ctx context.Context, entries []*Entry) (int, error)
	Query(ctx context.Context, filter Filter) ([]*Entry, error)
	Stats(ctx context.Context) (*Stats, error)
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
	Close() error
}

// SQLiteStore implements Store using SQLite
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// Config holds configuration for the SQLite store
type Config struct {
	Path string
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		Path: "./data/history.db",
	}
}

// NewSQLiteStore creates a new SQLite-based history store
func NewSQLiteStore(cfg Config) (*SQLiteStore, error) {
	// Ensure directory exists
	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	// Open database with WAL mode
	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates the necessary tables
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS history (
		id TEXT PRIMARY KEY,
		timestamp DATETIME NOT NULL,
		session TEXT NOT NULL,
		kind TEXT NOT NULL,
		name TEXT,
		params TEXT,
		sexpr TEXT,
		error TEXT,
		line INTEGER,
		col INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_history_timestamp ON history(timestamp DESC);
	CREATE INDEX IF NOT EXISTS idx_history_session ON history(session);
	CREATE INDEX IF NOT EXISTS idx_history_kind ON history(kind);
	CREATE INDEX IF NOT EXISTS idx_history_name ON history(name);
	`

	_, err := s.db.Exec(schema)
	return err
}

func prepareEntry(entry *Entry) {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
}

const insertEntry = `
	INSERT INTO history (id, timestamp, session, kind, name, params, sexpr, error, line, col)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

func entryArgs(entry *Entry) []interface{} {
	var paramsJSON []byte
	if entry.Params != nil {
		paramsJSON, _ = json.Marshal(entry.Params)
	}
	return []interface{}{
		entry.ID, entry.Timestamp, entry.Session, string(entry.Kind), entry.Name,
		string(paramsJSON), entry.SExpr, entry.Error, entry.Line, entry.Column,
	}
}

// Record stores a single entry
func (s *SQLiteStore) Record(ctx context.Context, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prepareEntry(entry)

	if _, err := s.db.ExecContext(ctx, insertEntry, entryArgs(entry)...); err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}

	return nil
}

// RecordBatch stores entries in one transaction and returns how many were
// accepted. Rows that fail to insert are skipped; their errors are joined
// into the returned error while the remaining rows are still committed.
func (s *SQLiteStore) RecordBatch(ctx context.Context, entries []*Entry) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertEntry)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	accepted := 0
	var failed []error
	for _, entry := range entries {
		prepareEntry(entry)
		if _, err := stmt.ExecContext(ctx, entryArgs(entry)...); err != nil {
			failed = append(failed, fmt.Errorf("entry %s: %w", entry.ID, err))
			continue
		}
		accepted++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if len(failed) > 0 {
		return accepted, fmt.Errorf("failed to insert %d of %d history entries: %w",
			len(failed), len(entries), errors.Join(failed...))
	}
	return accepted, nil
}

// Query retrieves entries based on filter criteria, newest first
func (s *SQLiteStore) Query(ctx context.Context, filter Filter) ([]*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, timestamp, session, kind, name, params, sexpr, error, line, col FROM history WHERE 1=1`
	var args []interface{}

	if filter.Session != "" {
		query += " AND session = ?"
		args = append(args, filter.Session)
	}
	if filter.Kind != "" {
		query += " AND kind = ?"
		args = append(args, string(filter.Kind))
	}
	if filter.Name != "" {
		query += " AND name = ?"
		args = append(args, filter.Name)
	}
	if !filter.StartTime.IsZero() {
		query += " AND timestamp >= ?"
		args = append(args, filter.StartTime)
	}
	if !filter.EndTime.IsZero() {
		query += " AND timestamp <= ?"
		args = append(args, filter.EndTime)
	}

	query += " ORDER BY timestamp DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	} else if filter.Offset > 0 {
		query += " LIMIT -1"
	}
	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var entry Entry
		var kind string
		var name, params, sexpr, errText sql.NullString
		var line, col sql.NullInt64

		if err := rows.Scan(&entry.ID, &entry.Timestamp, &entry.Session, &kind,
			&name, &params, &sexpr, &errText, &line, &col); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}

		entry.Kind = Kind(kind)
		entry.Name = name.String
		entry.SExpr = sexpr.String
		entry.Error = errText.String
		entry.Line = int(line.Int64)
		entry.Column = int(col.Int64)
		if params.Valid && params.String != "" {
			if err := json.Unmarshal([]byte(params.String), &entry.Params); err != nil {
				return nil, fmt.Errorf("failed to decode params of history entry %s: %w", entry.ID, err)
			}
		}

		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}

// Stats returns history statistics
func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &Stats{ByKind: make(map[Kind]int64)}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*), COUNT(DISTINCT session) FROM history`).
		Scan(&stats.TotalEntries, &stats.Sessions); err != nil {
		return nil, fmt.Errorf("failed to count history: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT kind, COUNT(*) FROM history GROUP BY kind`)
	if err != nil {
		return nil, fmt.Errorf("failed to group history: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var kind string
		var count int64
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, fmt.Errorf("failed to scan kind count: %w", err)
		}
		stats.ByKind[Kind(kind)] = count
	}

	// MAX() loses the column type, so read the newest row instead
	var last time.Time
	err = s.db.QueryRowContext(ctx, `SELECT timestamp FROM history ORDER BY timestamp DESC LIMIT 1`).Scan(&last)
	if err == nil {
		stats.LastEntry = last
	} else if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to read last entry: %w", err)
	}

	return stats, nil
}

// Prune deletes entries older than the given age
func (s *SQLiteStore) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-olderThan)

	result, err := s.db.ExecContext(ctx, `DELETE FROM history WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune history: %w", err)
	}
	deleted, _ := result.RowsAffected()

	return deleted, nil
}

// Vacuum reclaims space after pruning
func (s *SQLiteStore) Vacuum(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "VACUUM")
	return err
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// MemoryStore is an in-memory implementation for testing
type MemoryStore struct {
	mu      sync.RWMutex
	entries []*Entry
}

// NewMemoryStore creates a new in-memory history store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Record stores a single entry
func (s *MemoryStore) Record(ctx context.Context, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prepareEntry(entry)
	copied := *entry
	s.entries = append(s.entries, &copied)
	return nil
}

// RecordBatch stores all entries
func (s *MemoryStore) RecordBatch(ctx context.Context, entries []*Entry) (int, error) {
	for _, entry := range entries {
		if err := s.Record(ctx, entry); err != nil {
			return 0, err
		}
	}
	return len(entries), nil
}

// Query retrieves entries based on filter criteria, newest first
func (s *MemoryStore) Query(ctx context.Context, filter Filter) ([]*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*Entry
	for i := len(s.entries) - 1; i >= 0; i-- {
		entry := s.entries[i]
		if filter.Session != "" && entry.Session != filter.Session {
			continue
		}
		if filter.Kind != "" && entry.Kind != filter.Kind {
			continue
		}
		if filter.Name != "" && entry.Name != filter.Name {
			continue
		}
		if !filter.StartTime.IsZero() && entry.Timestamp.Before(filter.StartTime) {
			continue
		}
		if !filter.EndTime.IsZero() && entry.Timestamp.After(filter.EndTime) {
			continue
		}
		result = append(result, entry)
	}

	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return nil, nil
		}
		result = result[filter.Offset:]
	}
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

// Stats returns history statistics
func (s *MemoryStore) Stats(ctx context.Context) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &Stats{ByKind: make(map[Kind]int64)}
	sessions := make(map[string]bool)
	for _, entry := range s.entries {
		stats.TotalEntries++
		stats.ByKind[entry.Kind]++
		sessions[entry.Session] = true
		if entry.Timestamp.After(stats.LastEntry) {
			stats.LastEntry = entry.Timestamp
		}
	}
	stats.Sessions = int64(len(sessions))
	return stats, nil
}

// Prune deletes entries older than the given age
func (s *MemoryStore) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-olderThan)
	kept := s.entries[:0]
	var deleted int64
	for _, entry := range s.entries {
		if entry.Timestamp.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, entry)
	}
	s.entries = kept
	return deleted, nil
}

// Close is a no-op
func (s *MemoryStore) Close() error {
	return nil
}
