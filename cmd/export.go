package cmd

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/arq-sim/arq-sim/sim"
)

// sweepCSVHeader is the per-run export schema.
var sweepCSVHeader = []string{
	"window_size", "frame_payload", "run",
	"goodput_mbps", "retransmissions", "time_seconds",
}

// writeSweepCSV exports one row per sweep run.
func writeSweepCSV(path string, records []sim.RunRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(sweepCSVHeader); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}

	for _, rec := range records {
		row := []string{
			strconv.FormatUint(rec.WindowSize, 10),
			strconv.FormatUint(rec.FramePayload, 10),
			strconv.Itoa(rec.Run),
			strconv.FormatFloat(rec.Result.Goodput/1e6, 'f', 6, 64),
			strconv.FormatUint(rec.Result.Retransmissions, 10),
			strconv.FormatFloat(rec.Result.Time, 'f', 6, 64),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("writing CSV row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing CSV: %w", err)
	}
	return nil
}
