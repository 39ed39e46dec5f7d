package sink

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/powerlog/internal/db"
	"github.com/banshee-data/powerlog/internal/fsutil"
	"github.com/banshee-data/powerlog/internal/protocol"
)

func TestFormatRecord(t *testing.T) {
	tests := []struct {
		name string
		m    protocol.Measurement
		want string
	}{
		{"zero", protocol.Measurement{}, "0,0,0"},
		{"input high", protocol.Measurement{Time: 0.5, Value: 6, DigitalInput: true}, "0.5,6,1"},
		{"shortest float32", protocol.Measurement{Time: 0.1, Value: 7}, "0.1,7,0"},
		{"no exponent", protocol.Measurement{Time: 1234567, Value: 1}, "1234567,1,0"},
		{"tiny", protocol.Measurement{Time: 0.000001, Value: 2}, "0.000001,2,0"},
		{"max sample", protocol.Measurement{Time: 3.25, Value: 0xffef}, "3.25,65519,0"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatRecord(tc.m))
		})
	}
}

func TestFormatFor(t *testing.T) {
	assert.Equal(t, FormatSQLite, FormatFor("run.db"))
	assert.Equal(t, FormatSQLite, FormatFor("/data/run.SQLITE"))
	assert.Equal(t, FormatSQLite, FormatFor("run.sqlite3"))
	assert.Equal(t, FormatCSV, FormatFor("run.csv"))
	assert.Equal(t, FormatCSV, FormatFor("run"))
}

func TestCSV_WritesHeaderAndLines(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	c, err := CreateCSV(mfs, "/captures/run.csv")
	require.NoError(t, err)

	for _, m := range []protocol.Measurement{
		{Time: 0, Value: 5},
		{Time: 0.25, Value: 6, DigitalInput: true},
	} {
		require.NoError(t, c.Write(m))
	}

	// lines reach the file before Close
	data, err := mfs.ReadFile("/captures/run.csv")
	require.NoError(t, err)
	want := "time_s,power_mw,input_pin\n0,5,0\n0.25,6,1\n"
	if diff := cmp.Diff(want, string(data)); diff != "" {
		t.Errorf("csv content (-want +got):\n%s", diff)
	}

	require.NoError(t, c.Close())
	assert.True(t, mfs.Closed("/captures/run.csv"))
	assert.NoError(t, c.Close(), "second close is a no-op")
	assert.Error(t, c.Write(protocol.Measurement{}))
}

func TestCSV_WriteFailureIsReported(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	errFull := errors.New("no space left on device")
	mfs.FailWrites("/run.csv", len(CSVHeader)+1+len("0,5,0\n"), errFull)

	c, err := CreateCSV(mfs, "/run.csv")
	require.NoError(t, err)

	require.NoError(t, c.Write(protocol.Measurement{Value: 5}))
	err = c.Write(protocol.Measurement{Value: 6})
	assert.ErrorIs(t, err, errFull)
}

func TestCreateCSV_HeaderFailure(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	mfs.FailWrites("/run.csv", 3, errors.New("io"))

	_, err := CreateCSV(mfs, "/run.csv")
	assert.ErrorContains(t, err, "header")
}

func TestOpen_CSVOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "run.csv")
	s, err := Open(path, Options{})
	require.NoError(t, err)
	require.NoError(t, s.Write(protocol.Measurement{Time: 1.5, Value: 42, DigitalInput: true}))
	require.NoError(t, s.Close())

	data, err := fsutil.OSFileSystem{}.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{CSVHeader, "1.5,42,1", ""}, strings.Split(string(data), "\n"))
}

func TestOpen_SQLiteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.db")
	s, err := Open(path, Options{SessionID: "sess-1", Device: "/dev/ttyACM0", BaudRate: 1_000_000, BatchSize: 2})
	require.NoError(t, err)
	sq, ok := s.(*SQLite)
	require.True(t, ok)

	want := []protocol.Measurement{
		{Time: 0, Value: 5},
		{Time: 0.001, Value: 6, DigitalInput: true},
		{Time: 0.002, Value: 7},
	}
	for _, m := range want {
		require.NoError(t, s.Write(m))
	}
	stats := protocol.Stats{Samples: 3, RisingEdges: 1, FallingEdges: 1}
	require.NoError(t, sq.EndSession("shutdown-complete", stats))
	require.NoError(t, s.Close())
	assert.Error(t, s.Write(protocol.Measurement{}))

	d, err := db.NewDB(path)
	require.NoError(t, err)
	defer d.Close()

	got, err := d.Measurements("sess-1")
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("measurements (-want +got):\n%s", diff)
	}
	sess, err := d.GetSession("sess-1")
	require.NoError(t, err)
	assert.Equal(t, "shutdown-complete", sess.Outcome)
	assert.Equal(t, stats, sess.Stats)
}

func TestOpen_SQLiteCloseFlushesPending(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.sqlite")
	s, err := Open(path, Options{SessionID: "s", Device: "d", BaudRate: 9600, BatchSize: 100})
	require.NoError(t, err)
	require.NoError(t, s.Write(protocol.Measurement{Value: 9}))
	require.NoError(t, s.Close())

	d, err := db.NewDB(path)
	require.NoError(t, err)
	defer d.Close()
	got, err := d.Measurements("s")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestOpenSQLite_NeedsSessionID(t *testing.T) {
	_, err := OpenSQLite(filepath.Join(t.TempDir(), "x.db"), Options{})
	assert.Error(t, err)
}
