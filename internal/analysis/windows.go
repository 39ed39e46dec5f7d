package analysis

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/powerlog/internal/protocol"
)

// Window summarises power between a rising edge and the next falling edge.
// Power values are in mW, so Energy is in mJ.
type Window struct {
	Start   float64 `json:"start_s"`
	End     float64 `json:"end_s"`
	Samples int     `json:"samples"`
	Mean    float64 `json:"power_mean_mw"`
	StdDev  float64 `json:"power_stddev_mw"`
	Min     float64 `json:"power_min_mw"`
	Max     float64 `json:"power_max_mw"`
	P95     float64 `json:"power_p95_mw"`
	Energy  float64 `json:"energy_mj"`
}

// Duration is the span covered by the window's samples.
func (w Window) Duration() float64 { return w.End - w.Start }

// Summarize computes the statistics of a run of measurements. Start and End
// are the first and last sample times.
func Summarize(ms []protocol.Measurement) Window {
	if len(ms) == 0 {
		return Window{}
	}
	power := make([]float64, len(ms))
	for i, m := range ms {
		power[i] = float64(m.Value)
	}

	w := Window{
		Start:   float64(ms[0].Time),
		End:     float64(ms[len(ms)-1].Time),
		Samples: len(ms),
		Mean:    stat.Mean(power, nil),
		Min:     floats.Min(power),
		Max:     floats.Max(power),
	}
	if len(power) > 1 {
		w.StdDev = stat.StdDev(power, nil)
	}
	sorted := append([]float64(nil), power...)
	sort.Float64s(sorted)
	w.P95 = stat.Quantile(0.95, stat.Empirical, sorted, nil)
	w.Energy = w.Mean * w.Duration()
	return w
}

// Windows pairs every rising edge with the first falling edge after it and
// summarises the samples in between, the falling edge sample excluded. A
// rising edge with no falling edge after it runs to the end of the capture.
func Windows(ms []protocol.Measurement) []Window {
	edges := FindEdges(ms)

	var out []Window
	for _, rise := range edges.Rising {
		i := sort.Search(len(edges.Falling), func(k int) bool { return edges.Falling[k] > rise })

		var section []protocol.Measurement
		if i < len(edges.Falling) {
			section = Interval(ms, rise, edges.Falling[i])
		} else {
			section = From(ms, rise)
		}
		if len(section) == 0 {
			continue
		}
		out = append(out, Summarize(section))
	}
	return out
}
