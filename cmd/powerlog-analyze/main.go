// Command powerlog-analyze reports input edges and per-window power
// statistics of a CSV capture, and can render it as a PNG plot.
//
//	powerlog-analyze [-plot out.png] [-json] [-expect-edges N] <capture.csv>
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/banshee-data/powerlog/internal/analysis"
	"github.com/banshee-data/powerlog/internal/fsutil"
	"github.com/banshee-data/powerlog/internal/protocol"
)

var (
	plotPath    = flag.String("plot", "", "Write a PNG plot of the capture to this path")
	asJSON      = flag.Bool("json", false, "Print the report as JSON instead of CSV")
	expectEdges = flag.Int("expect-edges", 0, "Warn unless exactly this many rising and falling edges are found (0 disables)")
)

// report is what the tool prints.
type report struct {
	Capture  string            `json:"capture"`
	Samples  int               `json:"samples"`
	Rising   []float64         `json:"rising_edges_s"`
	Falling  []float64         `json:"falling_edges_s"`
	Windows  []analysis.Window `json:"windows"`
	Warnings []string          `json:"warnings,omitempty"`

	measurements []protocol.Measurement
}

func analyze(fs fsutil.FileSystem, path string, expect int) (*report, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture: %w", err)
	}
	defer f.Close()

	ms, err := analysis.ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	edges := analysis.FindEdges(ms)
	r := &report{
		Capture: path,
		Samples: len(ms),
		Rising:  edges.Rising,
		Falling: edges.Falling,
		Windows: analysis.Windows(ms),

		measurements: ms,
	}
	if !analysis.Bracketed(ms) {
		r.Warnings = append(r.Warnings, "capture does not start and end with the input low")
	}
	if expect > 0 && (len(edges.Rising) != expect || len(edges.Falling) != expect) {
		r.Warnings = append(r.Warnings, fmt.Sprintf("found %d rising and %d falling edges, expected %d",
			len(edges.Rising), len(edges.Falling), expect))
	}
	return r, nil
}

func writeCSVReport(w io.Writer, r *report) error {
	if _, err := fmt.Fprintln(w, "start,end,samples,power_mean,power_stddev,power_min,power_max,power_p95,energy"); err != nil {
		return err
	}
	for _, win := range r.Windows {
		if _, err := fmt.Fprintf(w, "%.4f,%.4f,%d,%.4f,%.4f,%.0f,%.0f,%.0f,%.4f\n",
			win.Start, win.End, win.Samples, win.Mean, win.StdDev, win.Min, win.Max, win.P95, win.Energy); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: powerlog-analyze [flags] <capture.csv>")
		flag.PrintDefaults()
		os.Exit(2)
	}
	path := flag.Arg(0)

	r, err := analyze(fsutil.OSFileSystem{}, path, *expectEdges)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("%s: %d samples, %d rising and %d falling edges, %d windows",
		path, r.Samples, len(r.Rising), len(r.Falling), len(r.Windows))
	for _, w := range r.Warnings {
		log.Printf("warning: %s", w)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		err = enc.Encode(r)
	} else {
		err = writeCSVReport(os.Stdout, r)
	}
	if err != nil {
		log.Fatalf("failed to write report: %v", err)
	}

	if *plotPath != "" {
		if err := analysis.SavePowerPlot(r.measurements, filepath.Base(path), *plotPath); err != nil {
			log.Fatalf("failed to plot: %v", err)
		}
		log.Printf("plot written to %s", *plotPath)
	}
}
