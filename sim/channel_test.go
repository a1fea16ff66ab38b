package sim

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/stat"
)

// testParams uses faster state transitions than the production defaults so
// the occupancy statistics converge within a small number of simulated bits.
func testParams() GilbertElliotParams {
	return GilbertElliotParams{
		GoodBER:    1e-4,
		BadBER:     1e-2,
		PGoodToBad: 0.01,
		PBadToGood: 0.1,
	}
}

// sampleModel transmits frames through the model and reports the observed
// corruption rate and fraction of frames ending in the good state.
func sampleModel(m ErrorModel, frames int, frameBits int64) (corruptionRate, goodFraction float64) {
	corrupted, good := 0, 0
	for i := 0; i < frames; i++ {
		if m.Transmit(frameBits) {
			corrupted++
		}
		if m.State() == StateGood {
			good++
		}
	}
	return float64(corrupted) / float64(frames), float64(good) / float64(frames)
}

func TestChannelModels_StatisticalEquivalence(t *testing.T) {
	// GIVEN both implementations with identical probability parameters
	params := testParams()
	const frames = 20000
	const frameBits = 1000

	bitLoop := NewBitLoopModel(params, rand.New(rand.NewSource(1)))
	jumpAhead := NewJumpAheadModel(params, rand.New(rand.NewSource(2)))

	// WHEN a large number of frames is pushed through each
	loopCorruption, loopGood := sampleModel(bitLoop, frames, frameBits)
	jumpCorruption, jumpGood := sampleModel(jumpAhead, frames, frameBits)

	// THEN corruption rates and state occupancy are indistinguishable
	// within sampling tolerance
	assert.InDelta(t, loopCorruption, jumpCorruption, 0.02,
		"corruption rates diverge: bit-loop %.4f vs jump-ahead %.4f", loopCorruption, jumpCorruption)
	assert.InDelta(t, loopGood, jumpGood, 0.02,
		"state occupancy diverges: bit-loop %.4f vs jump-ahead %.4f", loopGood, jumpGood)
}

func TestChannelModels_OccupancyMatchesStationaryDistribution(t *testing.T) {
	params := testParams()
	// stationary P(good) = p_bg / (p_gb + p_bg)
	wantGood := params.PBadToGood / (params.PGoodToBad + params.PBadToGood)

	for name, m := range map[string]ErrorModel{
		"bit-loop":   NewBitLoopModel(params, rand.New(rand.NewSource(7))),
		"jump-ahead": NewJumpAheadModel(params, rand.New(rand.NewSource(8))),
	} {
		_, goodFraction := sampleModel(m, 20000, 500)
		assert.InDelta(t, wantGood, goodFraction, 0.02, "%s occupancy", name)
	}
}

func TestJumpAhead_GeometricGapMean(t *testing.T) {
	// GIVEN a model sitting in the good state
	params := testParams()
	m := NewJumpAheadModel(params, rand.New(rand.NewSource(3)))
	m.state = StateGood

	// WHEN many transition gaps are sampled
	gaps := make([]float64, 50000)
	for i := range gaps {
		gaps[i] = float64(m.sampleTransitionGap())
	}

	// THEN the mean matches the geometric distribution's 1/p
	want := 1 / params.PGoodToBad
	assert.InEpsilon(t, want, stat.Mean(gaps, nil), 0.05)
}

func TestJumpAhead_GapIsAlwaysPositive(t *testing.T) {
	m := NewJumpAheadModel(DefaultGilbertElliotParams(), rand.New(rand.NewSource(4)))
	for i := 0; i < 10000; i++ {
		if gap := m.sampleTransitionGap(); gap < 1 {
			t.Fatalf("sampled non-positive gap %d", gap)
		}
	}
}

func TestBitLoop_CertainCorruption(t *testing.T) {
	// A BER of 1 corrupts every frame.
	params := GilbertElliotParams{GoodBER: 1, BadBER: 1, PGoodToBad: 0.001, PBadToGood: 0.001}
	m := NewBitLoopModel(params, rand.New(rand.NewSource(5)))

	assert.True(t, m.Transmit(8))
}

func TestJumpAhead_ZeroBERNeverCorrupts(t *testing.T) {
	params := GilbertElliotParams{GoodBER: 0, BadBER: 0, PGoodToBad: 0.01, PBadToGood: 0.1}
	m := NewJumpAheadModel(params, rand.New(rand.NewSource(6)))

	for i := 0; i < 1000; i++ {
		assert.False(t, m.Transmit(1000))
	}
}

func TestDefaultGilbertElliotParams(t *testing.T) {
	p := DefaultGilbertElliotParams()
	assert.Equal(t, 1e-6, p.GoodBER)
	assert.Equal(t, 5e-3, p.BadBER)
	assert.Equal(t, 0.002, p.PGoodToBad)
	assert.Equal(t, 0.05, p.PBadToGood)
}
