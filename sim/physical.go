// sim/physical.go
package sim

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// Delivery is one frame arriving at the far end of a channel.
type Delivery struct {
	Time  float64 // virtual arrival time
	Frame Frame
}

// SimplexChannel is a one-directional transmission medium. Send runs the
// Gilbert-Elliot error model over the frame's bits, computes transmission
// delay, and schedules the frame's arrival on the event loop; the delivered
// value is the corrupted sentinel if the error model flagged the frame.
//
// Send may be invoked concurrently, but access to the single shared Markov
// state is serialized: no two sends interleave their bit consumption.
// Receive is a single-consumer operation — one receiver entity per channel.
type SimplexChannel struct {
	loop      *EventLoop
	cfg       PhysicalConfig
	pathDelay float64 // this direction's fixed propagation path delay

	modelMu sync.Mutex
	model   ErrorModel

	queueMu sync.Mutex
	queue   []Delivery
	wakeup  chan struct{}
}

// NewSimplexChannel creates a channel delivering through the given event
// loop, with the given fixed path delay (forward or reverse).
func NewSimplexChannel(loop *EventLoop, cfg PhysicalConfig, pathDelay float64, model ErrorModel) *SimplexChannel {
	return &SimplexChannel{
		loop:      loop,
		cfg:       cfg,
		pathDelay: pathDelay,
		model:     model,
		wakeup:    make(chan struct{}, 1),
	}
}

// Send transmits frame at virtual time now. It returns the transmission
// (propagation) duration of this frame and a round-trip estimate usable for
// retransmission timeouts.
func (c *SimplexChannel) Send(now float64, frame Frame) (propagation, rtt float64) {
	bits := frame.SizeBits()

	c.modelMu.Lock()
	corrupted := c.model.Transmit(bits)
	c.modelMu.Unlock()

	propagation = float64(bits) / c.cfg.BitRate
	arrival := now + propagation + c.pathDelay + c.cfg.ProcessingDelay

	delivered := frame
	if corrupted {
		logrus.Debugf("channel corrupted %s frame seq=%d (%d bits)", frame.Kind, frame.Seq, bits)
		delivered = CorruptedFrame()
	}

	c.loop.Schedule(arrival, func() {
		c.deliver(Delivery{Time: arrival, Frame: delivered})
	})

	rtt = propagation + c.cfg.RTT()
	return propagation, rtt
}

// deliver appends to the unbounded delivery queue and wakes the receiver.
func (c *SimplexChannel) deliver(d Delivery) {
	c.queueMu.Lock()
	c.queue = append(c.queue, d)
	c.queueMu.Unlock()

	select {
	case c.wakeup <- struct{}{}:
	default:
	}
}

// TryReceive returns the next delivered frame without blocking, or ok=false
// when nothing has been delivered yet. Used by discrete-event drivers that
// must drain every delivery before advancing virtual time further.
func (c *SimplexChannel) TryReceive() (Delivery, bool) {
	c.queueMu.Lock()
	defer c.queueMu.Unlock()
	if len(c.queue) == 0 {
		return Delivery{}, false
	}
	d := c.queue[0]
	c.queue = c.queue[1:]
	return d, true
}

// Receive blocks until the next delivered frame is available and returns it
// with its arrival time. The sending half staying open for the simulation's
// lifetime is an invariant the driver upholds, so the only error returned is
// the context's.
func (c *SimplexChannel) Receive(ctx context.Context) (Delivery, error) {
	for {
		c.queueMu.Lock()
		if len(c.queue) > 0 {
			d := c.queue[0]
			c.queue = c.queue[1:]
			c.queueMu.Unlock()
			return d, nil
		}
		c.queueMu.Unlock()

		select {
		case <-c.wakeup:
		case <-ctx.Done():
			return Delivery{}, ctx.Err()
		}
	}
}
