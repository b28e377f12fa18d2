// Package store persists per-cycle analysis snapshots to SQLite.
//
// The analyzers never read this data back — durable storage is a
// collaborator concern, and this store exists so the dashboard can
// show history across restarts. Store is safe for sequential use from
// the monitor loop; the underlying sql.DB handles serialization.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)
)

// Snapshot is one analysis cycle's summary row.
type Snapshot struct {
	ID            string
	CreatedAt     time.Time
	Items         int
	ActivityLevel string
	ThreatLevel   string
	TopTopic      string
	TopEntity     string
	Emerging      int
	Narratives    int
	Entities      int
	Detail        string // JSON blob of the top signals, for display
}

// Store handles snapshot persistence.
type Store struct {
	db *sql.DB
}

// NewStore creates a new SQLite store at the given path.
//
// The database is created if it doesn't exist, and migrations are
// applied automatically.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrent access
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		id TEXT PRIMARY KEY,
		created_at DATETIME NOT NULL,
		items INTEGER DEFAULT 0,
		activity_level TEXT,
		threat_level TEXT,
		top_topic TEXT,
		top_entity TEXT,
		emerging INTEGER DEFAULT 0,
		narratives INTEGER DEFAULT 0,
		entities INTEGER DEFAULT 0,
		detail TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_created ON snapshots(created_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Save writes one snapshot. A missing ID is generated.
func (s *Store) Save(snap Snapshot) error {
	if snap.ID == "" {
		snap.ID = uuid.NewString()
	}
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now()
	}
	_, err := s.db.Exec(`
		INSERT INTO snapshots (id, created_at, items, activity_level, threat_level,
			top_topic, top_entity, emerging, narratives, entities, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, snap.ID, snap.CreatedAt, snap.Items, snap.ActivityLevel, snap.ThreatLevel,
		snap.TopTopic, snap.TopEntity, snap.Emerging, snap.Narratives, snap.Entities, snap.Detail)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// Recent returns the most recent snapshots, newest first.
func (s *Store) Recent(limit int) ([]Snapshot, error) {
	rows, err := s.db.Query(`
		SELECT id, created_at, items, activity_level, threat_level,
			top_topic, top_entity, emerging, narratives, entities, detail
		FROM snapshots
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []Snapshot
	for rows.Next() {
		var sn Snapshot
		err := rows.Scan(&sn.ID, &sn.CreatedAt, &sn.Items, &sn.ActivityLevel,
			&sn.ThreatLevel, &sn.TopTopic, &sn.TopEntity, &sn.Emerging,
			&sn.Narratives, &sn.Entities, &sn.Detail)
		if err != nil {
			continue
		}
		snaps = append(snaps, sn)
	}
	return snaps, rows.Err()
}

// MarshalDetail encodes an arbitrary detail payload as the snapshot's
// JSON blob.
func MarshalDetail(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
