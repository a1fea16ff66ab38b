// sim/frame.go
package sim

import "fmt"

// FrameOverheadBytes is the link-layer header size charged to every
// transmitted frame. The same convention is applied to frame sizing, timeout
// margins and goodput throughout.
const FrameOverheadBytes = 24

// FrameOverheadBits is the header size in bits.
const FrameOverheadBits = FrameOverheadBytes * 8

// FrameKind discriminates the frame union.
type FrameKind uint8

const (
	// FrameData carries a payload segment.
	FrameData FrameKind = iota
	// FrameRr is a positive acknowledgment (receive-ready) for a sequence.
	FrameRr
	// FrameSrej is a selective reject naming the next expected sequence.
	FrameSrej
	// FrameCorrupted is a receive-side sentinel meaning "a frame was sent
	// but arrived unusable". It carries no sequence number and must never
	// itself be scheduled for transmission.
	FrameCorrupted
)

func (k FrameKind) String() string {
	switch k {
	case FrameData:
		return "DATA"
	case FrameRr:
		return "RR"
	case FrameSrej:
		return "SREJ"
	case FrameCorrupted:
		return "CORRUPTED"
	}
	return fmt.Sprintf("FrameKind(%d)", uint8(k))
}

// Frame is one link-layer transmission unit. Seq is meaningful for Data, Rr
// and Srej frames; Payload only for Data frames.
type Frame struct {
	Kind    FrameKind
	Seq     int64
	Payload []byte
}

// DataFrame builds a payload-carrying frame for the given sequence number.
func DataFrame(seq int64, payload []byte) Frame {
	return Frame{Kind: FrameData, Seq: seq, Payload: payload}
}

// RrFrame builds a positive acknowledgment for seq.
func RrFrame(seq int64) Frame {
	return Frame{Kind: FrameRr, Seq: seq}
}

// SrejFrame builds a selective reject naming the next expected sequence.
func SrejFrame(seq int64) Frame {
	return Frame{Kind: FrameSrej, Seq: seq}
}

// CorruptedFrame builds the corrupted-arrival sentinel.
func CorruptedFrame() Frame {
	return Frame{Kind: FrameCorrupted}
}

// SizeBits returns the deterministic bit-length of the frame on the wire:
// header-only for control frames, payload plus header for data frames.
// Querying a Corrupted frame is a wiring error and panics.
func (f Frame) SizeBits() int64 {
	switch f.Kind {
	case FrameRr, FrameSrej:
		return FrameOverheadBits
	case FrameData:
		return int64(len(f.Payload))*8 + FrameOverheadBits
	}
	panic("unexpected send of a corrupted frame")
}
