package sink

import (
	"fmt"

	"github.com/banshee-data/powerlog/internal/db"
	"github.com/banshee-data/powerlog/internal/protocol"
)

// SQLite stores measurements of one session in a capture database.
type SQLite struct {
	db        *db.DB
	w         *db.MeasurementWriter
	sessionID string
	closed    bool
}

// OpenSQLite opens (or creates) the database at path and registers the
// session described by opts.
func OpenSQLite(path string, opts Options) (*SQLite, error) {
	if opts.SessionID == "" {
		return nil, fmt.Errorf("sqlite sink needs a session id")
	}
	d, err := db.NewDB(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture database: %w", err)
	}
	if err := d.CreateSession(&db.Session{
		ID:       opts.SessionID,
		Device:   opts.Device,
		BaudRate: opts.BaudRate,
	}); err != nil {
		d.Close()
		return nil, err
	}
	return &SQLite{
		db:        d,
		w:         d.NewMeasurementWriter(opts.SessionID, opts.BatchSize),
		sessionID: opts.SessionID,
	}, nil
}

// DB exposes the underlying database for the admin routes.
func (s *SQLite) DB() *db.DB { return s.db }

// Write buffers m into the current batch.
func (s *SQLite) Write(m protocol.Measurement) error {
	if s.closed {
		return errClosed
	}
	return s.w.Write(m)
}

// EndSession flushes pending measurements and records the outcome.
func (s *SQLite) EndSession(outcome string, stats protocol.Stats) error {
	if err := s.w.Flush(); err != nil {
		return err
	}
	return s.db.EndSession(s.sessionID, outcome, stats)
}

// Close flushes pending measurements and closes the database.
func (s *SQLite) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	flushErr := s.w.Flush()
	if err := s.db.Close(); err != nil {
		return err
	}
	return flushErr
}
