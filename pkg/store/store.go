// Package store persists drained scan passes to SQLite. This is
// orchestrator-side plumbing: the probes themselves never persist
// anything, they only fill the in-page evidence containers that get
// drained into a report here.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lcalzada-xor/pagetap/pkg/output"
	_ "modernc.org/sqlite" // CGO-free SQLite
)

// Evidence row kinds.
const (
	RowNetworkEvent = "network_event"
	RowDOMMarker    = "dom_marker"
	RowSink         = "sink"
	RowCapture      = "capture"
)

type Store struct {
	db *sql.DB
}

// Open opens (or creates) the evidence database.
func Open(path string) (*Store, error) {
	// WAL + busy timeout to avoid "database is locked"
	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS scans(
	  id         TEXT PRIMARY KEY,
	  url        TEXT NOT NULL,
	  created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
	);
	CREATE TABLE IF NOT EXISTS evidence(
	  id        INTEGER PRIMARY KEY,
	  scan_id   TEXT    NOT NULL REFERENCES scans(id),
	  kind      TEXT    NOT NULL CHECK (kind IN ('network_event','dom_marker','sink','capture')),
	  seq       INTEGER NOT NULL,
	  data_json TEXT    NOT NULL CHECK (json_valid(data_json))
	);
	CREATE INDEX IF NOT EXISTS idx_evidence_scan ON evidence(scan_id);
	CREATE INDEX IF NOT EXISTS idx_evidence_kind ON evidence(kind);
	`)
	if err != nil {
		return fmt.Errorf("failed to create database tables: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveReport writes one drained scan pass in a single transaction,
// preserving each container's discovery order through the seq column.
func (s *Store) SaveReport(rep output.Report) error {
	if rep.ScanID == "" {
		return fmt.Errorf("report has no scan id")
	}
	if rep.URL == "" {
		return fmt.Errorf("report has no URL")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if _, err := tx.Exec(`INSERT INTO scans(id, url) VALUES(?,?)`, rep.ScanID, rep.URL); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to insert scan: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO evidence(scan_id, kind, seq, data_json) VALUES(?,?,?,json(?))`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	insert := func(kind string, seq int, v any) error {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to marshal %s: %w", kind, err)
		}
		if _, err := stmt.Exec(rep.ScanID, kind, seq, string(data)); err != nil {
			return fmt.Errorf("failed to insert %s: %w", kind, err)
		}
		return nil
	}

	for i, ev := range rep.NetworkEvents {
		if err := insert(RowNetworkEvent, i, ev); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	for i, m := range rep.Markers {
		if err := insert(RowDOMMarker, i, m); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	for i, sk := range rep.Sinks {
		if err := insert(RowSink, i, sk); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	for i, c := range rep.CaptureRecords {
		if err := insert(RowCapture, i, c); err != nil {
			_ = tx.Rollback()
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// CountEvidence returns how many evidence rows of one kind a scan has.
func (s *Store) CountEvidence(scanID, kind string) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM evidence WHERE scan_id = ? AND kind = ?`, scanID, kind).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count evidence: %w", err)
	}
	return n, nil
}
