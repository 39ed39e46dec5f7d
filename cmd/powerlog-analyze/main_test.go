package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/powerlog/internal/fsutil"
)

const capture = `time_s,power_mw,input_pin
0,100,0
1,300,1
1.5,500,1
2,200,0
3,400,1
4,100,0
`

func TestAnalyze(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	mfs.WriteFile("/run.csv", []byte(capture))

	r, err := analyze(mfs, "/run.csv", 2)
	require.NoError(t, err)

	assert.Equal(t, 6, r.Samples)
	assert.Equal(t, []float64{1, 3}, r.Rising)
	assert.Equal(t, []float64{2, 4}, r.Falling)
	require.Len(t, r.Windows, 2)
	assert.Empty(t, r.Warnings)
}

func TestAnalyze_Warnings(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	mfs.WriteFile("/run.csv", []byte("time_s,power_mw,input_pin\n0,1,1\n1,2,0\n"))

	r, err := analyze(mfs, "/run.csv", 8)
	require.NoError(t, err)
	require.Len(t, r.Warnings, 2)
	assert.Contains(t, r.Warnings[0], "input low")
	assert.Contains(t, r.Warnings[1], "expected 8")
}

func TestAnalyze_Missing(t *testing.T) {
	_, err := analyze(fsutil.NewMemoryFileSystem(), "/nope.csv", 0)
	assert.ErrorContains(t, err, "open capture")
}

func TestWriteCSVReport(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	mfs.WriteFile("/run.csv", []byte(capture))
	r, err := analyze(mfs, "/run.csv", 0)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeCSVReport(&buf, r))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "start,end,samples"))
	assert.Equal(t, "1.0000,1.5000,2,400.0000,141.4214,300,500,500,200.0000", lines[1])
	assert.Equal(t, "3.0000,3.0000,1,400.0000,0.0000,400,400,400,0.0000", lines[2])
}
