// sim/sweep.go
//
// Closed-form fast path: a discrete-time loop that advances a virtual clock
// directly instead of pumping a true event loop, for fast parameter sweeps
// over (window size, frame payload) combinations.
package sim

import (
	"container/heap"
	"context"
	"fmt"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// TransferSizeBytes is the fixed payload every closed-form simulation ships.
const TransferSizeBytes = 1_000_000

// ackTimeoutMargin is the slack applied to the expected ACK arrival time in
// the closed-form loop. The virtual channel has no jitter or congestion, so
// a minimal margin suffices.
const ackTimeoutMargin = 1.005

// idleClockStep nudges the virtual clock forward when a loop iteration takes
// no action, so pending ACK deadlines are eventually reached.
const idleClockStep = 1e-5

// Result is the outcome of one closed-form simulation run.
type Result struct {
	Goodput         float64 // delivered payload bits per simulated second
	Retransmissions uint64  // frames sent more than once
	Time            float64 // simulated seconds to complete the transfer
}

// seqHeap is a min-heap of sequence numbers, used to slide the send base
// past contiguously acknowledged frames.
type seqHeap []uint64

func (h seqHeap) Len() int            { return len(h) }
func (h seqHeap) Less(i, j int) bool  { return h[i] < h[j] }
func (h seqHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *seqHeap) Push(x any)         { *h = append(*h, x.(uint64)) }
func (h *seqHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[0 : n-1]
	return item
}

// pendingAck tracks one in-flight frame: when its ACK would arrive, and
// whether both the frame and the ACK survived their channels.
type pendingAck struct {
	ackAt   float64
	success bool
}

// SimulateARQ runs the closed-form Selective-Repeat simulation for one
// (window size, frame payload) combination, transmitting TransferSizeBytes
// through a pair of jump-ahead Gilbert-Elliot channels driven by rng.
// Deterministic for a given seeded rng.
func SimulateARQ(windowSize, framePayloadBytes uint64, rng *rand.Rand) (Result, error) {
	if windowSize == 0 {
		return Result{}, fmt.Errorf("window size must be positive")
	}
	if framePayloadBytes == 0 {
		return Result{}, fmt.Errorf("frame payload must be positive")
	}

	cfg := DefaultPhysicalConfig()

	frameBits := int64(framePayloadBytes+FrameOverheadBytes) * 8
	ackBits := int64(FrameOverheadBits)
	transTime := float64(frameBits) / cfg.BitRate
	timeout := (cfg.RTT() + transTime) * ackTimeoutMargin
	numFrames := (TransferSizeBytes + framePayloadBytes - 1) / framePayloadBytes

	forward := NewJumpAheadModel(cfg.Gilbert, rng)
	reverse := NewJumpAheadModel(cfg.Gilbert, rng)

	var (
		sendBase        uint64
		clock           float64
		retransmissions uint64
	)
	inFlight := make(map[uint64]pendingAck)
	ackedSet := make(map[uint64]bool)
	acked := &seqHeap{}

	for sendBase < numFrames {
		windowEnd := sendBase + windowSize
		if windowEnd > numFrames {
			windowEnd = numFrames
		}
		actionTaken := false

		// Send new frames, or retransmit failed ones whose slot freed up.
		for seq := sendBase; seq < windowEnd; seq++ {
			if _, busy := inFlight[seq]; busy {
				continue
			}
			if ackedSet[seq] {
				continue
			}

			// The ACK only crosses the reverse channel if the data
			// frame arrived intact.
			success := false
			if !forward.Transmit(frameBits) {
				success = !reverse.Transmit(ackBits)
			}

			inFlight[seq] = pendingAck{ackAt: clock + timeout, success: success}
			clock += transTime
			actionTaken = true
		}

		// Harvest frames whose ACK deadline has passed.
		var completed []uint64
		for seq, p := range inFlight {
			if p.ackAt >= clock {
				continue
			}
			if p.success {
				ackedSet[seq] = true
				heap.Push(acked, seq)
			} else {
				retransmissions++
			}
			completed = append(completed, seq)
		}
		for _, seq := range completed {
			delete(inFlight, seq)
		}

		// Slide the base past contiguously acknowledged frames.
		for acked.Len() > 0 && (*acked)[0] == sendBase {
			heap.Pop(acked)
			sendBase++
		}

		if !actionTaken {
			clock += idleClockStep
		}
	}

	return Result{
		Goodput:         float64(TransferSizeBytes) * 8 / clock,
		Retransmissions: retransmissions,
		Time:            clock,
	}, nil
}

// RunRecord is the outcome of one run of one sweep combination.
type RunRecord struct {
	WindowSize   uint64
	FramePayload uint64
	Run          int
	Result       Result
}

// RunSweep runs cfg.RunsPerConfig closed-form simulations for every
// (window size, frame payload) combination, parallelized across
// combinations. Each run draws from an RNG stream derived from cfg.Seed and
// the run's identity, so results are deterministic regardless of worker
// scheduling. progress, if non-nil, is invoked once per completed run and
// may be called concurrently.
func RunSweep(ctx context.Context, cfg SweepConfig, progress func(RunRecord)) ([]RunRecord, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	records := make([]RunRecord, len(cfg.WindowSizes)*len(cfg.FramePayloads)*cfg.RunsPerConfig)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	combo := 0
	for _, w := range cfg.WindowSizes {
		for _, l := range cfg.FramePayloads {
			w, l := w, l
			base := combo * cfg.RunsPerConfig
			combo++

			g.Go(func() error {
				rng := NewPartitionedRNG(NewSimulationKey(cfg.Seed))
				for run := 0; run < cfg.RunsPerConfig; run++ {
					if err := ctx.Err(); err != nil {
						return err
					}

					res, err := SimulateARQ(w, l, rng.ForSubsystem(SubsystemRun(w, l, run)))
					if err != nil {
						return fmt.Errorf("sweep W=%d L=%d run %d: %w", w, l, run, err)
					}

					rec := RunRecord{WindowSize: w, FramePayload: l, Run: run, Result: res}
					records[base+run] = rec
					if progress != nil {
						progress(rec)
					}
				}
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return records, nil
}
