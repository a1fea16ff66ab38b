// sim/summary.go
package sim

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// ConfigSummary aggregates the runs of one sweep combination.
type ConfigSummary struct {
	WindowSize   uint64
	FramePayload uint64
	Runs         int

	GoodputMean         float64 // bits/sec
	GoodputStdDev       float64
	RetransmissionsMean float64
	TimeMean            float64 // seconds
}

// Summarize groups sweep records by (window size, frame payload) and
// computes per-combination statistics, ordered by window size then payload.
func Summarize(records []RunRecord) []ConfigSummary {
	type comboKey struct {
		w, l uint64
	}
	groups := make(map[comboKey][]RunRecord)
	for _, rec := range records {
		k := comboKey{rec.WindowSize, rec.FramePayload}
		groups[k] = append(groups[k], rec)
	}

	keys := make([]comboKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].w != keys[j].w {
			return keys[i].w < keys[j].w
		}
		return keys[i].l < keys[j].l
	})

	summaries := make([]ConfigSummary, 0, len(keys))
	for _, k := range keys {
		recs := groups[k]
		goodputs := make([]float64, len(recs))
		retrans := make([]float64, len(recs))
		times := make([]float64, len(recs))
		for i, rec := range recs {
			goodputs[i] = rec.Result.Goodput
			retrans[i] = float64(rec.Result.Retransmissions)
			times[i] = rec.Result.Time
		}

		stdDev := 0.0
		if len(goodputs) > 1 {
			stdDev = stat.StdDev(goodputs, nil)
		}

		summaries = append(summaries, ConfigSummary{
			WindowSize:          k.w,
			FramePayload:        k.l,
			Runs:                len(recs),
			GoodputMean:         stat.Mean(goodputs, nil),
			GoodputStdDev:       stdDev,
			RetransmissionsMean: stat.Mean(retrans, nil),
			TimeMean:            stat.Mean(times, nil),
		})
	}
	return summaries
}

// PrintSummaries displays one summary line per combination.
func PrintSummaries(summaries []ConfigSummary) {
	fmt.Println("=== Sweep Summary ===")
	for _, s := range summaries {
		fmt.Printf("W=%3d L=%5d runs=%2d goodput=%8.2f kbit/s (σ=%.2f) retrans=%7.1f time=%8.3f s\n",
			s.WindowSize, s.FramePayload, s.Runs,
			s.GoodputMean/1e3, s.GoodputStdDev/1e3, s.RetransmissionsMean, s.TimeMean)
	}
}
