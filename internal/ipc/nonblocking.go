package ipc

import (
	"bytes"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// NonblockingConnection is the overlapped/nonblocking counterpart to
// Connection (§4.1: usable in both "a blocking/poll-registered reactor
// mode" and "an overlapped/nonblocking mode"). Where Connection owns a
// background read loop that blocks on the OS call and posts readiness,
// NonblockingConnection is driven entirely by the caller: every Try*
// method makes one non-blocking attempt and returns immediately,
// absorbing a would-block result instead of surfacing it as a distinct
// error - grounded on
// original_source/libraries/ipc/src/unix.rs's nonblocking_read /
// nonblocking_write under its #[cfg(not(feature = "poll"))] path, which
// coexists with the reactor-mode methods on the same backend type
// rather than a separate one.
type NonblockingConnection struct {
	conn net.Conn

	mu    sync.Mutex
	buf   frameBuffer
	state ConnState
	err   error

	writes pendingWrites
}

func newNonblockingConnection(conn net.Conn) *NonblockingConnection {
	return &NonblockingConnection{conn: conn, state: StateConnected}
}

// Closed reports whether the peer has disconnected.
func (c *NonblockingConnection) Closed() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closedLocked()
}

func (c *NonblockingConnection) closedLocked() (bool, error) {
	if c.state == StateDisconnected {
		if c.err != nil {
			return true, c.err
		}
		return true, ErrDisconnected
	}
	return false, nil
}

func (c *NonblockingConnection) Close() error {
	c.mu.Lock()
	c.state = StateDisconnected
	c.mu.Unlock()
	return c.conn.Close()
}

// wouldBlock reports whether err is the deadline-exceeded timeout a
// zero-duration SetReadDeadline/SetWriteDeadline produces when the
// underlying call had nothing ready - the portable stand-in for a raw
// EWOULDBLOCK/EAGAIN, since net.Conn exposes no such primitive directly.
func wouldBlock(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// tryFillBuffer makes one non-blocking read attempt, feeding whatever
// arrived into buf. A would-block result is absorbed silently (nil
// error, buffer unchanged), mirroring nonblocking_read's empty-result
// semantics in the original.
func (c *NonblockingConnection) tryFillBuffer() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if closed, err := c.closedLocked(); closed {
		return err
	}

	if err := c.conn.SetReadDeadline(time.Now()); err != nil {
		return &IOError{Err: err}
	}
	defer c.conn.SetReadDeadline(time.Time{})

	chunk := make([]byte, readChunkSize)
	n, err := c.conn.Read(chunk)
	if n > 0 {
		c.buf.feed(chunk[:n])
	}
	if err == nil {
		return nil
	}
	if wouldBlock(err) {
		return nil
	}

	c.state = StateDisconnected
	if !errors.Is(err, io.EOF) {
		c.err = &IOError{Err: err}
	}
	_, closedErr := c.closedLocked()
	return closedErr
}

// TryReadClient makes one non-blocking read attempt and decodes every
// complete ClientMessage now available, emitting each through emit. A
// false, nil result means would-block - there is nothing to read yet,
// not a failure. Used on the server side.
func (c *NonblockingConnection) TryReadClient(emit func(ClientMessage)) (bool, error) {
	if err := c.tryFillBuffer(); err != nil {
		return false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	got := false
	err := decodeAll(&c.buf, DecodeClientMessage, func(m ClientMessage) {
		got = true
		emit(m)
	})
	return got, err
}

// TryReadServer is the client-side counterpart of TryReadClient.
func (c *NonblockingConnection) TryReadServer(emit func(ServerMessage)) (bool, error) {
	if err := c.tryFillBuffer(); err != nil {
		return false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	got := false
	err := decodeAll(&c.buf, DecodeServerMessage, func(m ServerMessage) {
		got = true
		emit(m)
	})
	return got, err
}

// TryWrite encodes msg and makes one non-blocking attempt to flush it,
// along with anything already queued ahead of it. flushed reports
// whether msg's bytes made it onto the wire completely in this call or
// a prior one; if false, the remainder sits in the pending-writes FIFO
// and the caller must retry with the exact same msg until flushed is
// true - switching to a different msg mid-flush silently drops it,
// since a msg is only encoded and enqueued while the FIFO is empty.
func (c *NonblockingConnection) TryWrite(msg msgpack.CustomEncoder) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if closed, err := c.closedLocked(); closed {
		return false, err
	}

	if c.writes.empty() {
		var buf bytes.Buffer
		if err := Encode(&buf, msg); err != nil {
			c.state = StateDisconnected
			c.conn.Close()
			return false, &ErrEncodeFailed{Err: err}
		}
		c.writes.push(buf.Bytes())
	}

	return c.flushPendingWritesLocked()
}

func (c *NonblockingConnection) flushPendingWritesLocked() (bool, error) {
	for {
		front, ok := c.writes.peek()
		if !ok {
			return true, nil
		}

		if err := c.conn.SetWriteDeadline(time.Now()); err != nil {
			return false, &IOError{Err: err}
		}
		n, err := c.conn.Write(front)
		c.conn.SetWriteDeadline(time.Time{})

		if n > 0 {
			c.writes.advanceFront(n)
		}
		if err == nil {
			continue
		}
		if wouldBlock(err) {
			return false, nil
		}

		c.state = StateDisconnected
		if !errors.Is(err, io.EOF) {
			c.err = &IOError{Err: err}
		}
		_, closedErr := c.closedLocked()
		return false, closedErr
	}
}

// NonblockingServer is the TryAccept counterpart of Server. Since not
// every platform's listener type supports a deadline-based Accept
// (go-winio's named pipe listener's support is unconfirmed), it keeps a
// single blocking Accept permanently outstanding on a background
// goroutine and hands each result off through a 1-deep channel;
// TryAccept then does a non-blocking receive on that channel, which
// works identically regardless of whether the listener itself supports
// deadlines.
type NonblockingServer struct {
	ln       net.Listener
	registry *Registry
	cleanup  func() error

	accepted  chan net.Conn
	acceptErr chan error

	mu      sync.Mutex
	current *NonblockingConnection
}

func newNonblockingServer(ln net.Listener, registry *Registry, cleanup func() error) *NonblockingServer {
	s := &NonblockingServer{
		ln:        ln,
		registry:  registry,
		cleanup:   cleanup,
		accepted:  make(chan net.Conn, 1),
		acceptErr: make(chan error, 1),
	}
	go s.acceptLoop()
	return s
}

func (s *NonblockingServer) acceptLoop() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			s.acceptErr <- err
			return
		}
		s.accepted <- conn
	}
}

// TryAccept makes one non-blocking attempt to pick up a connection the
// background accept goroutine has already completed. A newly accepted
// connection replaces whatever was previously current, closing it
// first (§1 Non-goals: one connected client at a time per instance).
// accepted, false, nil means would-block - no connection is waiting yet.
func (s *NonblockingServer) TryAccept() (conn *NonblockingConnection, accepted bool, err error) {
	select {
	case raw := <-s.accepted:
		c := newNonblockingConnection(raw)
		s.mu.Lock()
		previous := s.current
		s.current = c
		s.mu.Unlock()
		if previous != nil {
			previous.Close()
		}
		if s.registry != nil {
			s.registry.post(Event{Interest: InterestAccept, Readable: true})
		}
		return c, true, nil
	case acceptErr := <-s.acceptErr:
		if s.registry != nil {
			s.registry.post(Event{Interest: InterestAccept, Closed: true})
		}
		return nil, false, &IOError{Err: acceptErr}
	default:
		return nil, false, nil
	}
}

// ActiveConnection returns the single connection this server is
// currently serving, or nil if none is connected or the last one has
// disconnected.
func (s *NonblockingServer) ActiveConnection() *NonblockingConnection {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	if closed, _ := s.current.Closed(); closed {
		s.current = nil
		return nil
	}
	return s.current
}

// Shutdown closes the listener and the current connection if any, then
// runs the platform cleanup callback (removing the socket file on Unix;
// a no-op on Windows).
func (s *NonblockingServer) Shutdown() error {
	s.mu.Lock()
	current := s.current
	s.current = nil
	s.mu.Unlock()
	if current != nil {
		current.Close()
	}

	if err := s.ln.Close(); err != nil {
		return &IOError{Err: err}
	}
	if s.cleanup != nil {
		return s.cleanup()
	}
	return nil
}
