// sim/simplex_link.go
package sim

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// SimplexLink binds a Sender and a Receiver to a forward data channel and a
// reverse ACK/NAK channel, and manages retransmission timers on the event
// loop. Sender and Receiver state are each behind their own lock, held for
// one logical operation at a time and never across a channel send.
type SimplexLink struct {
	sendMu sync.Mutex
	sender *Sender

	recvMu   sync.Mutex
	receiver *Receiver

	forward *SimplexChannel
	reverse *SimplexChannel
	loop    *EventLoop
	metrics *TransferMetrics
}

// NewSimplexLink creates a link over the given asymmetric channels.
func NewSimplexLink(forward, reverse *SimplexChannel, loop *EventLoop, windowSize int64, metrics *TransferMetrics) *SimplexLink {
	return &SimplexLink{
		sender:   NewSender(windowSize),
		receiver: NewReceiver(),
		forward:  forward,
		reverse:  reverse,
		loop:     loop,
		metrics:  metrics,
	}
}

// CanSend reports whether the send window admits another frame.
func (l *SimplexLink) CanSend() bool {
	l.sendMu.Lock()
	defer l.sendMu.Unlock()
	return l.sender.CanSend()
}

// SendData transmits one payload segment at virtual time now. It returns the
// frame's transmission duration, or ok=false if the window is full — an
// explicit "not sent" result the caller retries after the next ACK.
func (l *SimplexLink) SendData(now float64, data []byte) (propagation float64, ok bool) {
	l.sendMu.Lock()
	if !l.sender.CanSend() {
		l.sendMu.Unlock()
		return 0, false
	}
	seq := l.sender.SendFrame(data)
	l.sendMu.Unlock()

	logrus.Debugf("[t=%.4f] send seq=%d len=%d", now, seq, len(data))

	prop, rtt := l.forward.Send(now, DataFrame(seq, data))
	l.metrics.RecordFrameSent(false)
	l.armTimer(now, seq, rtt)
	return prop, true
}

// armTimer schedules seq's retransmission timeout at now + 2.5 × rtt and
// records its event id so an ACK can cancel it.
func (l *SimplexLink) armTimer(now float64, seq int64, rtt float64) {
	deadline := now + TimeoutMultiplier*rtt
	id := l.loop.Schedule(deadline, func() {
		l.onTimeout(deadline, seq, rtt)
	})

	l.sendMu.Lock()
	l.sender.timers[seq] = id
	l.sendMu.Unlock()
}

// onTimeout fires when seq's timer elapses. If the frame is still
// outstanding it is retransmitted and the timer re-armed iteratively; if it
// was acknowledged in the meantime, the timeout is a silent no-op.
func (l *SimplexLink) onTimeout(now float64, seq int64, rtt float64) {
	l.sendMu.Lock()
	data, outstanding := l.sender.FrameForTimeout(seq)
	if outstanding {
		delete(l.sender.timers, seq)
	}
	l.sendMu.Unlock()

	if !outstanding {
		return
	}

	logrus.Debugf("[t=%.4f] timeout, retransmit seq=%d", now, seq)
	l.forward.Send(now, DataFrame(seq, data))
	l.metrics.RecordFrameSent(true)
	l.armTimer(now, seq, rtt)
}

// HandleAck processes an Rr arriving on the reverse channel: the matching
// timer is cancelled exactly once and the window slides. Reports whether the
// ACK retired an outstanding frame.
func (l *SimplexLink) HandleAck(seq int64) bool {
	l.sendMu.Lock()
	if timerID, ok := l.sender.timers[seq]; ok {
		delete(l.sender.timers, seq)
		l.loop.Cancel(timerID)
	}
	retired := l.sender.HandleAck(seq)
	l.sendMu.Unlock()
	return retired
}

// HandleNak processes an Srej arriving on the reverse channel by
// retransmitting the named frame immediately if it is still outstanding.
func (l *SimplexLink) HandleNak(now float64, seq int64) {
	l.sendMu.Lock()
	data, ok := l.sender.HandleNak(seq)
	l.sendMu.Unlock()

	if !ok {
		return
	}
	logrus.Debugf("[t=%.4f] srej, retransmit seq=%d", now, seq)
	l.forward.Send(now, DataFrame(seq, data))
	l.metrics.RecordFrameSent(true)
}

// ReceiveFrame processes one frame at the receiver.
func (l *SimplexLink) ReceiveFrame(seq int64, frame Frame) (*Frame, [][]byte) {
	l.recvMu.Lock()
	defer l.recvMu.Unlock()
	return l.receiver.ReceiveFrame(seq, frame)
}

// SendAck emits an Rr on the reverse channel.
func (l *SimplexLink) SendAck(now float64, seq int64) {
	l.reverse.Send(now, RrFrame(seq))
}

// SendNak emits an Srej on the reverse channel.
func (l *SimplexLink) SendNak(now float64, seq int64) {
	l.reverse.Send(now, SrejFrame(seq))
}
