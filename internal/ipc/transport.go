package ipc

import (
	"sync"
	"sync/atomic"
)

// growthIncrement is how many bytes the receive buffer grows by when it
// needs more room for a partial message (§4.1).
const growthIncrement = 1024

// frameBuffer accumulates raw bytes read from the peer and hands off
// complete wire messages as soon as they become decodable. It grows in
// 1 KiB increments and drains consumed bytes after every successful
// decode, per §4.1.
type frameBuffer struct {
	data []byte
}

func (f *frameBuffer) feed(chunk []byte) {
	needed := len(f.data) + len(chunk)
	if cap(f.data) < needed {
		grown := make([]byte, len(f.data), needed+growthIncrement)
		copy(grown, f.data)
		f.data = grown
	}
	f.data = append(f.data, chunk...)
}

func (f *frameBuffer) drain(n int) {
	remaining := copy(f.data, f.data[n:])
	f.data = f.data[:remaining]
}

func (f *frameBuffer) empty() bool { return len(f.data) == 0 }

// decodeAll repeatedly applies decode to the head of the buffer, handing
// each successfully decoded message to emit, until the buffer reports
// ErrNeedMoreData (stop, wait for more bytes - not a failure) or a hard
// decode error occurs, in which case the connection must be torn down.
func decodeAll[T any](f *frameBuffer, decode func([]byte) (T, int, error), emit func(T)) error {
	for !f.empty() {
		msg, consumed, err := decode(f.data)
		if err != nil {
			if err == ErrNeedMoreData {
				return nil
			}
			return &ErrDecodeFailed{Err: err}
		}
		f.drain(consumed)
		emit(msg)
	}
	return nil
}

// ConnState is the lifecycle state of one endpoint's connection, per
// §4.1's state machine.
type ConnState int

const (
	StateIdle ConnState = iota
	StateConnected
	StateDisconnected
)

// Interest identifies what readiness a reactor-mode source is registered
// for, mirroring the ACCEPT/CLIENT token pair §4.1 specifies.
type Interest int

const (
	InterestAccept Interest = iota
	InterestClient
)

// Event is one readiness notification delivered by a Registry.
type Event struct {
	Interest Interest
	Readable bool
	Writable bool
	Closed   bool
}

// Registry is the portable analogue of mio's OS poller: a single channel
// that background goroutines post readiness events onto. Each registered
// source (a listener's accept loop, a connection's read loop) owns one
// goroutine that blocks on the underlying OS call and posts an Event
// every time it completes - idiomatic Go concurrency standing in for an
// epoll/IOCP wait loop.
type Registry struct {
	events  chan Event
	dropped uint64
}

// NewRegistry creates a Registry with the given event channel buffer
// depth.
func NewRegistry(buffer int) *Registry {
	return &Registry{events: make(chan Event, buffer)}
}

// Events returns the channel a daemon's main loop should range over.
func (r *Registry) Events() <-chan Event {
	return r.events
}

// post is called by the background goroutines that own a registered
// source. It never blocks: if the buffer is full because nothing has
// drained Events() recently, the event is dropped and counted rather
// than stalling the read loop that owns this connection's socket -
// blocking here would freeze that connection's input indefinitely.
func (r *Registry) post(ev Event) {
	select {
	case r.events <- ev:
	default:
		atomic.AddUint64(&r.dropped, 1)
	}
}

// Dropped reports how many events have been discarded because Events()
// wasn't drained quickly enough.
func (r *Registry) Dropped() uint64 {
	return atomic.LoadUint64(&r.dropped)
}

// pendingWrites is a small FIFO of encoded-but-not-yet-flushed messages,
// used by NonblockingConnection on every platform to hold the part of a
// message a non-blocking write has not flushed yet.
type pendingWrites struct {
	mu    sync.Mutex
	queue [][]byte
}

func (p *pendingWrites) push(b []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queue = append(p.queue, b)
}

func (p *pendingWrites) peek() ([]byte, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.queue) == 0 {
		return nil, false
	}
	return p.queue[0], true
}

func (p *pendingWrites) popFront() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.queue) > 0 {
		p.queue = p.queue[1:]
	}
}

// advanceFront trims n bytes off the front message, for a short write
// that only flushed part of it. It drops the front entry entirely once
// it's been fully consumed.
func (p *pendingWrites) advanceFront(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.queue) == 0 {
		return
	}
	if n >= len(p.queue[0]) {
		p.queue = p.queue[1:]
		return
	}
	p.queue[0] = p.queue[0][n:]
}

func (p *pendingWrites) empty() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue) == 0
}
