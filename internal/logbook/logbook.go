// Package logbook records polling sessions into a sqlite database so runs
// can be inspected after the fact.
package logbook

import (
	"database/sql"
	"fmt"
	"time"

	"gobd/internal/models"

	_ "modernc.org/sqlite"
)

type Logbook struct {
	db *sql.DB
}

// Open opens (creating if needed) the logbook database at path.
func Open(path string) (*Logbook, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS readings (
			timestamp  TIMESTAMP,
			key        TEXT,
			value      DOUBLE
		);
		CREATE TABLE IF NOT EXISTS dtc_events (
			timestamp   TIMESTAMP,
			code        TEXT,
			description TEXT,
			pending     BOOLEAN
		);
		CREATE INDEX IF NOT EXISTS idx_readings_key ON readings(key, timestamp);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create logbook schema: %w", err)
	}

	return &Logbook{db: db}, nil
}

func (l *Logbook) Close() error {
	return l.db.Close()
}

// RecordSnapshot stores every OK reading of the snapshot. Missing values are
// not recorded; absence in the table means the vehicle did not answer.
func (l *Logbook) RecordSnapshot(snap models.Snapshot) error {
	tx, err := l.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO readings (timestamp, key, value) VALUES (?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, key := range snap.Keys {
		r := snap.Readings[key]
		if !r.OK {
			continue
		}
		if _, err := stmt.Exec(snap.Timestamp, key, r.Value); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// RecordDTCs stores a set of trouble codes observed at ts.
func (l *Logbook) RecordDTCs(ts time.Time, entries []models.DTCEntry, pending bool) error {
	for _, e := range entries {
		_, err := l.db.Exec(
			`INSERT INTO dtc_events (timestamp, code, description, pending) VALUES (?, ?, ?, ?)`,
			ts, e.Code, e.Description, pending,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// Recent returns the most recent values recorded for key, newest first.
func (l *Logbook) Recent(key string, limit int) ([]float64, error) {
	rows, err := l.db.Query(
		`SELECT value FROM readings WHERE key = ? ORDER BY timestamp DESC LIMIT ?`,
		key, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}
