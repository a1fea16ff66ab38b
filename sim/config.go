// sim/config.go
package sim

// Fixed physical-layer defaults for the simulated link.
const (
	// DefaultBitRate is the channel transmission rate in bits per second.
	DefaultBitRate = 10_000_000.0

	// DefaultForwardDelay is the data-path propagation delay in seconds.
	DefaultForwardDelay = 0.040

	// DefaultReverseDelay is the ACK-path propagation delay in seconds.
	DefaultReverseDelay = 0.010

	// DefaultProcessingDelay is the per-frame processing delay in seconds.
	DefaultProcessingDelay = 0.002

	// TimeoutMultiplier scales the measured round-trip time into a
	// retransmission timeout, tolerating propagation jitter without
	// excessive false timeouts.
	TimeoutMultiplier = 2.5
)

// PhysicalConfig groups the fixed physical-layer parameters. It is an
// immutable value threaded into each component at construction, so multiple
// simulations with different parameters can run concurrently without
// interference.
type PhysicalConfig struct {
	BitRate         float64 // channel rate in bits/sec (must be > 0)
	ForwardDelay    float64 // data-path propagation delay in seconds
	ReverseDelay    float64 // ACK-path propagation delay in seconds
	ProcessingDelay float64 // per-frame processing delay in seconds
	Gilbert         GilbertElliotParams
}

// DefaultPhysicalConfig returns the standard 10 Mbps link configuration.
func DefaultPhysicalConfig() PhysicalConfig {
	return PhysicalConfig{
		BitRate:         DefaultBitRate,
		ForwardDelay:    DefaultForwardDelay,
		ReverseDelay:    DefaultReverseDelay,
		ProcessingDelay: DefaultProcessingDelay,
		Gilbert:         DefaultGilbertElliotParams(),
	}
}

// RTT returns the base round-trip time: forward and reverse propagation plus
// processing at both ends, excluding transmission time.
func (c PhysicalConfig) RTT() float64 {
	return c.ForwardDelay + c.ReverseDelay + 2*c.ProcessingDelay
}
