// Package sim provides the core discrete-event simulation engine for the
// Selective-Repeat ARQ link simulator.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - event_loop.go: the time-ordered, cancellable event queue driving all activity
//   - channel.go: the two-state Gilbert-Elliot bit-error process (bit-loop and jump-ahead forms)
//   - link.go: Selective-Repeat sender and receiver window state
//
// # Architecture
//
// physical.go wires a channel error model and the event loop into a
// one-directional SimplexChannel; simplex_link.go binds a Sender and a
// Receiver to a forward/reverse channel pair and manages retransmission
// timers; transfer.go orchestrates a full event-loop-driven byte transfer.
//
// sweep.go is the closed-form fast path: a discrete-time loop without a true
// event loop, used by the parameter-sweep CLI, with sweep_config.go and
// summary.go handling sweep configuration and per-combination statistics.
//
// # Key Interfaces
//
// ErrorModel is the single capability interface both channel-model forms
// implement: given a span of bits and the standing Markov state, report
// corruption and advance the state. The bit-loop form stays available as an
// oracle for differential testing against the jump-ahead optimization.
package sim
