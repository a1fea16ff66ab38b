// sim/channel.go
//
// Two-state (Gilbert-Elliot) Markov bit-error process. Two statistically
// equivalent implementations share one capability interface: the bit-loop
// form is the accuracy baseline used as a test oracle, the jump-ahead form
// is the production fast path.
package sim

import (
	"math"
	"math/rand"
)

// ChannelState is one of the two Markov states of the error process.
type ChannelState int

const (
	StateGood ChannelState = iota
	StateBad
)

func (s ChannelState) String() string {
	if s == StateGood {
		return "good"
	}
	return "bad"
}

func (s ChannelState) flip() ChannelState {
	if s == StateGood {
		return StateBad
	}
	return StateGood
}

// Default Gilbert-Elliot parameters for the simulated link.
const (
	// GoodStateBER is the bit-error rate while in the good state.
	GoodStateBER = 1e-6

	// BadStateBER is the bit-error rate while in the bad state.
	BadStateBER = 5e-3

	// PGoodToBad is the per-bit good-to-bad transition probability.
	PGoodToBad = 0.002

	// PBadToGood is the per-bit bad-to-good transition probability.
	PBadToGood = 0.05
)

// GilbertElliotParams holds the four probabilities of the two-state error
// process. All are per-bit.
type GilbertElliotParams struct {
	GoodBER    float64
	BadBER     float64
	PGoodToBad float64
	PBadToGood float64
}

// DefaultGilbertElliotParams returns the standard bursty-channel parameters.
func DefaultGilbertElliotParams() GilbertElliotParams {
	return GilbertElliotParams{
		GoodBER:    GoodStateBER,
		BadBER:     BadStateBER,
		PGoodToBad: PGoodToBad,
		PBadToGood: PBadToGood,
	}
}

// ber returns the bit-error rate of the given state.
func (p GilbertElliotParams) ber(s ChannelState) float64 {
	if s == StateGood {
		return p.GoodBER
	}
	return p.BadBER
}

// transitionP returns the outward transition probability of the given state.
func (p GilbertElliotParams) transitionP(s ChannelState) float64 {
	if s == StateGood {
		return p.PGoodToBad
	}
	return p.PBadToGood
}

// ErrorModel decides, for a span of bits transmitted starting in the model's
// standing Markov state, whether any bit was corrupted, and advances the
// state past those bits. A span of zero bits is not a valid input; the
// minimum meaningful span is one frame header.
//
// Implementations are not safe for concurrent use; the owning channel
// serializes access.
type ErrorModel interface {
	// Transmit consumes nbits of the error process and reports whether the
	// span contained at least one corrupted bit.
	Transmit(nbits int64) bool

	// State returns the Markov state after the last transmitted span.
	State() ChannelState
}

// BitLoopModel evaluates the error process one bit at a time. It is the
// straightforward reference form, O(bits) per frame.
type BitLoopModel struct {
	params GilbertElliotParams
	state  ChannelState
	rng    *rand.Rand
}

// NewBitLoopModel creates a bit-loop model starting in the good state.
func NewBitLoopModel(params GilbertElliotParams, rng *rand.Rand) *BitLoopModel {
	return &BitLoopModel{params: params, state: StateGood, rng: rng}
}

func (m *BitLoopModel) Transmit(nbits int64) bool {
	corrupted := false
	for i := int64(0); i < nbits; i++ {
		// One draw per bit, consumed even after the frame is already
		// corrupted so the state-transition process stays correct.
		r := m.rng.Float64()
		if r < m.params.ber(m.state) {
			corrupted = true
		}
		if r < m.params.transitionP(m.state) {
			m.state = m.state.flip()
		}
	}
	return corrupted
}

func (m *BitLoopModel) State() ChannelState { return m.state }

// JumpAheadModel computes the number of bits until the next state transition
// directly via inverse-CDF sampling of the geometric distribution, then
// applies the compound no-error probability (1-ber)^k to each whole chunk.
// O(chunks) per frame instead of O(bits), with an identical outcome
// distribution to BitLoopModel.
type JumpAheadModel struct {
	params              GilbertElliotParams
	state               ChannelState
	bitsUntilTransition int64
	rng                 *rand.Rand
}

// NewJumpAheadModel creates a jump-ahead model starting in the good state.
func NewJumpAheadModel(params GilbertElliotParams, rng *rand.Rand) *JumpAheadModel {
	m := &JumpAheadModel{params: params, state: StateGood, rng: rng}
	m.bitsUntilTransition = m.sampleTransitionGap()
	return m
}

// sampleTransitionGap draws a geometric(p) gap: the number of bits remaining
// in the current state, via floor(ln(r)/ln(1-p)) + 1 for uniform r in (0,1).
func (m *JumpAheadModel) sampleTransitionGap() int64 {
	p := m.params.transitionP(m.state)

	r := m.rng.Float64()
	for r == 0 {
		r = m.rng.Float64()
	}

	return int64(math.Floor(math.Log(r)/math.Log(1-p))) + 1
}

func (m *JumpAheadModel) Transmit(nbits int64) bool {
	corrupted := false
	processed := int64(0)

	for processed < nbits {
		chunk := nbits - processed
		if m.bitsUntilTransition < chunk {
			chunk = m.bitsUntilTransition
		}

		// One draw per chunk. Once corrupted the frame stays corrupted;
		// later chunks only advance the transition bookkeeping.
		if !corrupted {
			ber := m.params.ber(m.state)
			r := m.rng.Float64()
			if r < 1-math.Pow(1-ber, float64(chunk)) {
				corrupted = true
			}
		}

		processed += chunk
		m.bitsUntilTransition -= chunk

		if m.bitsUntilTransition <= 0 {
			m.state = m.state.flip()
			m.bitsUntilTransition = m.sampleTransitionGap()
		}
	}

	return corrupted
}

func (m *JumpAheadModel) State() ChannelState { return m.state }
