// Tracks transfer-wide performance metrics for final reporting.

package sim

import (
	"fmt"
	"sync"
)

// TransferMetrics aggregates statistics about one end-to-end transfer.
// Useful for evaluating protocol performance and debugging behavior over
// time. Safe for concurrent use by the sender, receiver and timer paths.
type TransferMetrics struct {
	mu sync.Mutex

	FramesSent      uint64 // data frames put on the forward channel
	Retransmissions uint64 // subset of FramesSent that were resends
	FramesDelivered uint64 // payloads handed up in order at the receiver
	AcksHandled     uint64 // Rr frames that retired an outstanding frame
	NaksHandled     uint64 // Srej frames processed at the sender
	BytesDelivered  int    // in-order payload bytes handed up
}

// NewTransferMetrics creates a zeroed metrics collector.
func NewTransferMetrics() *TransferMetrics {
	return &TransferMetrics{}
}

// RecordFrameSent counts one data-frame transmission.
func (m *TransferMetrics) RecordFrameSent(retransmission bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FramesSent++
	if retransmission {
		m.Retransmissions++
	}
}

// RecordDelivered counts payloads handed up in order at the receiver.
func (m *TransferMetrics) RecordDelivered(frames int, bytes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FramesDelivered += uint64(frames)
	m.BytesDelivered += bytes
}

// RecordAck counts one ACK that retired an outstanding frame.
func (m *TransferMetrics) RecordAck() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AcksHandled++
}

// RecordNak counts one processed selective reject.
func (m *TransferMetrics) RecordNak() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.NaksHandled++
}

// Snapshot returns a copy of the current counters.
func (m *TransferMetrics) Snapshot() TransferMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	return TransferMetrics{
		FramesSent:      m.FramesSent,
		Retransmissions: m.Retransmissions,
		FramesDelivered: m.FramesDelivered,
		AcksHandled:     m.AcksHandled,
		NaksHandled:     m.NaksHandled,
		BytesDelivered:  m.BytesDelivered,
	}
}

// Print displays aggregated metrics at the end of a transfer.
func (m *TransferMetrics) Print(elapsed float64) {
	snap := m.Snapshot()

	fmt.Println("=== Transfer Metrics ===")
	fmt.Printf("Frames Sent          : %d\n", snap.FramesSent)
	fmt.Printf("Retransmissions      : %d\n", snap.Retransmissions)
	fmt.Printf("Frames Delivered     : %d\n", snap.FramesDelivered)
	fmt.Printf("Bytes Delivered      : %d\n", snap.BytesDelivered)
	if snap.FramesSent > 0 {
		rate := float64(snap.Retransmissions) / float64(snap.FramesSent)
		fmt.Printf("Retransmission Rate  : %.2f%%\n", rate*100)
	}
	if elapsed > 0 {
		goodput := float64(snap.BytesDelivered) * 8 / elapsed
		fmt.Printf("Simulated Time       : %.3f s\n", elapsed)
		fmt.Printf("Goodput              : %.2f bits/s\n", goodput)
	}
}
