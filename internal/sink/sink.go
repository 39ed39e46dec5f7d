// Package sink persists measurements. The output file extension picks the
// format: .db, .sqlite and .sqlite3 go to SQLite, anything else is CSV.
package sink

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/banshee-data/powerlog/internal/fsutil"
	"github.com/banshee-data/powerlog/internal/protocol"
)

// Sink accepts measurements in order. Close releases the output; a Sink
// must not be written after Close.
type Sink interface {
	Write(protocol.Measurement) error
	Close() error
}

// Format identifies an output format.
type Format string

const (
	FormatCSV    Format = "csv"
	FormatSQLite Format = "sqlite"
)

// FormatFor returns the format implied by the extension of path.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite
	default:
		return FormatCSV
	}
}

// Options describe the session being recorded.
type Options struct {
	// FS is used for CSV output. Nil means the OS filesystem.
	FS fsutil.FileSystem

	SessionID string
	Device    string
	BaudRate  int

	// BatchSize is the SQLite insert batch size. Zero uses the default.
	BatchSize int
}

// Open creates the sink for path.
func Open(path string, opts Options) (Sink, error) {
	switch FormatFor(path) {
	case FormatSQLite:
		return OpenSQLite(path, opts)
	default:
		fs := opts.FS
		if fs == nil {
			fs = fsutil.OSFileSystem{}
		}
		return CreateCSV(fs, path)
	}
}

// errClosed is returned by writes after Close.
var errClosed = fmt.Errorf("sink is closed")
