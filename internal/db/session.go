package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/banshee-data/powerlog/internal/protocol"
)

// Session is one acquisition run.
type Session struct {
	ID        string
	Device    string
	BaudRate  int
	StartedAt time.Time
	EndedAt   *time.Time
	Outcome   string
	Stats     protocol.Stats
}

// CreateSession records the start of a session.
func (db *DB) CreateSession(s *Session) error {
	if s.StartedAt.IsZero() {
		s.StartedAt = time.Now().UTC()
	}
	_, err := db.Exec(
		`INSERT INTO sessions (session_id, device, baud_rate, started_at) VALUES (?, ?, ?, ?)`,
		s.ID, s.Device, s.BaudRate, s.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create session %s: %w", s.ID, err)
	}
	return nil
}

// EndSession records how a session ended.
func (db *DB) EndSession(id, outcome string, stats protocol.Stats) error {
	res, err := db.Exec(
		`UPDATE sessions
		    SET ended_at = ?, outcome = ?, samples = ?, rising_edges = ?, falling_edges = ?, malformed = ?
		  WHERE session_id = ?`,
		time.Now().UTC(), outcome, stats.Samples, stats.RisingEdges, stats.FallingEdges, stats.Malformed, id,
	)
	if err != nil {
		return fmt.Errorf("failed to end session %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("session %s not found", id)
	}
	return nil
}

// GetSession returns the session with the given ID.
func (db *DB) GetSession(id string) (*Session, error) {
	var (
		s       Session
		endedAt sql.NullTime
		outcome sql.NullString
	)
	err := db.QueryRow(
		`SELECT session_id, device, baud_rate, started_at, ended_at, outcome,
		        samples, rising_edges, falling_edges, malformed
		   FROM sessions WHERE session_id = ?`, id,
	).Scan(
		&s.ID, &s.Device, &s.BaudRate, &s.StartedAt, &endedAt, &outcome,
		&s.Stats.Samples, &s.Stats.RisingEdges, &s.Stats.FallingEdges, &s.Stats.Malformed,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get session %s: %w", id, err)
	}
	if endedAt.Valid {
		t := endedAt.Time
		s.EndedAt = &t
	}
	s.Outcome = outcome.String
	return &s, nil
}

// Measurements returns every stored measurement of a session in stream
// order.
func (db *DB) Measurements(sessionID string) ([]protocol.Measurement, error) {
	rows, err := db.Query(
		`SELECT time_s, power_mw, input_pin FROM measurements WHERE session_id = ? ORDER BY seq`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []protocol.Measurement
	for rows.Next() {
		var (
			t     float64
			value int64
			pin   int
		)
		if err := rows.Scan(&t, &value, &pin); err != nil {
			return nil, err
		}
		out = append(out, protocol.Measurement{
			Time:         float32(t),
			Value:        uint16(value),
			DigitalInput: pin == 1,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// DefaultBatchSize is how many measurements MeasurementWriter buffers before
// committing them in one transaction.
const DefaultBatchSize = 256

// MeasurementWriter appends measurements of one session in batches. It is
// not safe for concurrent use.
type MeasurementWriter struct {
	db        *DB
	sessionID string
	batchSize int
	pending   []protocol.Measurement
	seq       int64
}

// NewMeasurementWriter returns a writer for sessionID. A batchSize below 1
// uses DefaultBatchSize.
func (db *DB) NewMeasurementWriter(sessionID string, batchSize int) *MeasurementWriter {
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}
	return &MeasurementWriter{
		db:        db,
		sessionID: sessionID,
		batchSize: batchSize,
		pending:   make([]protocol.Measurement, 0, batchSize),
	}
}

// Write buffers m and commits the batch once it is full.
func (w *MeasurementWriter) Write(m protocol.Measurement) error {
	w.pending = append(w.pending, m)
	if len(w.pending) >= w.batchSize {
		return w.Flush()
	}
	return nil
}

// Flush commits all buffered measurements. On error nothing of the batch is
// stored and the batch is kept.
func (w *MeasurementWriter) Flush() error {
	if len(w.pending) == 0 {
		return nil
	}

	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin batch: %w", err)
	}
	stmt, err := tx.Prepare(
		`INSERT INTO measurements (session_id, seq, time_s, power_mw, input_pin) VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare batch: %w", err)
	}
	defer stmt.Close()

	seq := w.seq
	for _, m := range w.pending {
		seq++
		pin := 0
		if m.DigitalInput {
			pin = 1
		}
		if _, err := stmt.Exec(w.sessionID, seq, float64(m.Time), int64(m.Value), pin); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert measurement %d: %w", seq, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}

	w.seq = seq
	w.pending = w.pending[:0]
	return nil
}

// Pending returns the number of buffered measurements.
func (w *MeasurementWriter) Pending() int { return len(w.pending) }
