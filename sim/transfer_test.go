package sim

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTransfer_RejectsBadParameters(t *testing.T) {
	_, err := NewTransfer(0, 512, []byte("x"), NewSimulationKey(1))
	assert.Error(t, err)

	_, err = NewTransfer(8, 0, []byte("x"), NewSimulationKey(1))
	assert.Error(t, err)
}

func TestTransfer_CompletesSmallPayload(t *testing.T) {
	// GIVEN a 4 KiB payload in 512-byte frames, with a window half the frame
	// count so completion requires the ACK path to slide the window
	payload := make([]byte, 4*1024)
	for i := range payload {
		payload[i] = byte(i)
	}

	transfer, err := NewTransfer(4, 512, payload, NewSimulationKey(42))
	require.NoError(t, err)

	// WHEN the transfer runs
	require.NoError(t, transfer.Run(context.Background()))

	// THEN every byte arrived in order exactly once
	snap := transfer.Metrics().Snapshot()
	assert.Equal(t, len(payload), snap.BytesDelivered)
	assert.Equal(t, uint64(8), snap.FramesDelivered)
	assert.GreaterOrEqual(t, snap.FramesSent, uint64(8))

	// AND ACKs actually retired frames: the second half of the payload can
	// only have been admitted by window slides
	assert.GreaterOrEqual(t, snap.AcksHandled, uint64(4))

	// AND retransmissions stay bounded by genuine channel loss, with
	// simulated time near the loss-free ideal (~0.1 s) rather than inflated
	// by timeouts firing ahead of causally earlier ACKs
	assert.Less(t, snap.Retransmissions, snap.FramesSent)
	assert.Less(t, snap.FramesSent, uint64(80))
	assert.Less(t, transfer.Elapsed(), 5.0)
}

func TestTransfer_DeterministicForKey(t *testing.T) {
	// GIVEN two transfers with identical parameters and SimulationKey
	payload := make([]byte, 8*1024)
	run := func() (TransferMetrics, float64) {
		tr, err := NewTransfer(4, 1024, payload, NewSimulationKey(99))
		require.NoError(t, err)
		require.NoError(t, tr.Run(context.Background()))
		return tr.Metrics().Snapshot(), tr.Elapsed()
	}

	// WHEN both run to completion
	firstSnap, firstElapsed := run()
	secondSnap, secondElapsed := run()

	// THEN every counter and the simulated clock agree exactly
	assert.Equal(t, firstSnap, secondSnap)
	assert.Equal(t, firstElapsed, secondElapsed)
}

func TestTransfer_SingleFramePayload(t *testing.T) {
	transfer, err := NewTransfer(4, 1024, []byte("hello, link layer"), NewSimulationKey(7))
	require.NoError(t, err)

	require.NoError(t, transfer.Run(context.Background()))
	assert.Equal(t, 17, transfer.Metrics().Snapshot().BytesDelivered)
}

func TestTransfer_HonoursTimeBudget(t *testing.T) {
	// an already-expired context must surface as the context's error
	transfer, err := NewTransfer(8, 512, make([]byte, 1024), NewSimulationKey(1))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, transfer.Run(ctx), context.Canceled)
}

func TestRunTransfer_ValidatesArguments(t *testing.T) {
	err := RunTransfer(context.Background(), -1, 512, []byte("x"))
	assert.Error(t, err)
}
