// sim/rng.go
package sim

import (
	"fmt"
	"hash/fnv"
	"math/rand"
)

// SimulationKey uniquely identifies a reproducible simulation run.
// Two simulations with the same SimulationKey and identical configuration
// MUST produce bit-for-bit identical results.
type SimulationKey int64

// NewSimulationKey creates a SimulationKey from a seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

const (
	// SubsystemForwardChannel is the RNG subsystem for the data-path
	// Gilbert-Elliot process.
	SubsystemForwardChannel = "forward_channel"

	// SubsystemReverseChannel is the RNG subsystem for the ACK-path
	// Gilbert-Elliot process.
	SubsystemReverseChannel = "reverse_channel"
)

// SubsystemRun returns the subsystem name for one (window, payload, run)
// combination of a parameter sweep, so each run draws from an isolated
// stream regardless of scheduling order.
func SubsystemRun(windowSize, framePayload uint64, run int) string {
	return fmt.Sprintf("sweep_w%d_l%d_run%d", windowSize, framePayload, run)
}

// PartitionedRNG provides deterministic, isolated RNG instances per
// subsystem, derived as masterSeed XOR fnv1a64(subsystemName).
//
// Thread-safety: NOT thread-safe. Must be called from a single goroutine.
type PartitionedRNG struct {
	key        SimulationKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a SimulationKey.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns a deterministically-seeded RNG for the named subsystem.
// The same subsystem name always returns the same *rand.Rand instance (cached).
// Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}

	// XOR with the name hash for order-independent isolation.
	derivedSeed := int64(p.key) ^ fnv1a64(name)

	rng := rand.New(rand.NewSource(derivedSeed))
	p.subsystems[name] = rng
	return rng
}

// Key returns the SimulationKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() SimulationKey {
	return p.key
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
