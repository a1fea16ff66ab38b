// sim/link.go
//
// Selective-Repeat ARQ window state. Sender and Receiver are plain state
// structs; SimplexLink (transfer.go) wraps them with locking, channels and
// retransmission timers.
package sim

import "github.com/sirupsen/logrus"

// ReceiverBufferSize caps the receiver's out-of-order buffer at 256 KiB.
const ReceiverBufferSize = 256 * 1024

// Sender holds the sliding-window state of the transmitting side.
//
// Invariant: base <= nextSeq <= base + windowSize; every key of sentFrames
// lies in [base, nextSeq); base equals the smallest unacknowledged sequence
// still outstanding, or nextSeq if none is.
type Sender struct {
	base       int64
	nextSeq    int64
	windowSize int64
	// payloads of sent but unacknowledged frames, kept for retransmission
	sentFrames map[int64][]byte
	// active retransmission timer event id per in-flight sequence
	timers map[int64]int64
}

// NewSender creates a sender with the given window size.
func NewSender(windowSize int64) *Sender {
	return &Sender{
		windowSize: windowSize,
		sentFrames: make(map[int64][]byte),
		timers:     make(map[int64]int64),
	}
}

// CanSend reports whether the window admits another frame.
func (s *Sender) CanSend() bool {
	return s.nextSeq < s.base+s.windowSize
}

// Base returns the oldest unacknowledged sequence number.
func (s *Sender) Base() int64 { return s.base }

// NextSeq returns the sequence number the next frame will be assigned.
func (s *Sender) NextSeq() int64 { return s.nextSeq }

// Outstanding returns the number of in-flight unacknowledged frames.
func (s *Sender) Outstanding() int { return len(s.sentFrames) }

// SendFrame assigns the next sequence number to data, stores the payload for
// potential retransmission, and advances nextSeq. The caller is responsible
// for checking CanSend first; sending into a full window is a caller error
// this contract does not block.
func (s *Sender) SendFrame(data []byte) int64 {
	seq := s.nextSeq
	s.sentFrames[seq] = data
	s.nextSeq++
	return seq
}

// HandleAck retires seq if it is still outstanding and reports whether it
// was. On retiring the base frame, base slides forward past every
// now-missing consecutive sequence — acknowledging a non-base frame does not
// advance base, but once the base itself is acknowledged any higher
// sequences already quietly retired are skipped in one pass.
func (s *Sender) HandleAck(seq int64) bool {
	logrus.Tracef("sender ack seq=%d base=%d", seq, s.base)

	if _, ok := s.sentFrames[seq]; !ok {
		return false
	}
	delete(s.sentFrames, seq)

	for s.base < s.nextSeq {
		if _, outstanding := s.sentFrames[s.base]; outstanding {
			break
		}
		s.base++
	}
	return true
}

// HandleNak returns the stored payload for seq if it is still outstanding.
// It is a pure lookup; re-invoking the channel send is the caller's job.
func (s *Sender) HandleNak(seq int64) ([]byte, bool) {
	data, ok := s.sentFrames[seq]
	return data, ok
}

// FrameForTimeout returns the payload to retransmit when seq's timer fires,
// or false if the frame has been acknowledged in the meantime.
func (s *Sender) FrameForTimeout(seq int64) ([]byte, bool) {
	data, ok := s.sentFrames[seq]
	return data, ok
}

// Receiver holds the out-of-order-tolerant state of the receiving side.
//
// Invariant: every key of buffer is > base; bufferSize is the exact sum of
// buffered payload lengths and never exceeds maxBufferSize, enforced by
// drop-on-insert, never by eviction.
type Receiver struct {
	base          int64
	buffer        map[int64][]byte
	bufferSize    int
	maxBufferSize int
}

// NewReceiver creates a receiver expecting sequence 0 with the default
// 256 KiB buffer cap.
func NewReceiver() *Receiver {
	return &Receiver{
		buffer:        make(map[int64][]byte),
		maxBufferSize: ReceiverBufferSize,
	}
}

// Base returns the next expected sequence number.
func (r *Receiver) Base() int64 { return r.base }

// BufferedBytes returns the current out-of-order buffer occupancy.
func (r *Receiver) BufferedBytes() int { return r.bufferSize }

// ReceiveFrame processes one arriving frame and returns the response frame
// to emit on the reverse channel (nil for none) and the payloads now
// deliverable in order.
//
//   - Corrupted: no response, nothing delivered; the sender's timeout is the
//     sole recovery path.
//   - Data at base: deliver it plus any now-contiguous buffered payloads in
//     ascending order, respond Rr(seq).
//   - Data above base: buffer if it fits, silently drop otherwise; either
//     way respond Srej(base) naming the oldest still-missing sequence.
//   - Data below base: stale duplicate; respond Rr(seq) so the sender can
//     retire it, deliver nothing.
//   - Rr/Srej here is a wiring violation; no response, nothing delivered.
func (r *Receiver) ReceiveFrame(seq int64, frame Frame) (*Frame, [][]byte) {
	switch frame.Kind {
	case FrameCorrupted:
		return nil, nil

	case FrameData:
		data := frame.Payload

		if seq == r.base {
			delivered := [][]byte{data}
			r.base++
			for {
				buffered, ok := r.buffer[r.base]
				if !ok {
					break
				}
				delete(r.buffer, r.base)
				r.bufferSize -= len(buffered)
				delivered = append(delivered, buffered)
				r.base++
			}
			resp := RrFrame(seq)
			return &resp, delivered
		}

		if seq > r.base {
			if _, dup := r.buffer[seq]; !dup {
				if r.bufferSize+len(data) <= r.maxBufferSize {
					r.buffer[seq] = data
					r.bufferSize += len(data)
				} else {
					logrus.Tracef("receiver buffer full, dropping seq=%d (%d bytes)", seq, len(data))
				}
			}
			resp := SrejFrame(r.base)
			return &resp, nil
		}

		// Duplicate of an already-delivered frame.
		resp := RrFrame(seq)
		return &resp, nil
	}

	// Control frames never flow into the data-receiving path.
	logrus.Warnf("receiver got unexpected %s frame seq=%d", frame.Kind, seq)
	return nil, nil
}
