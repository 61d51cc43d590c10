//go:build windows

package ipc

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/Microsoft/go-winio"
	"github.com/vmihailenco/msgpack/v5"
)

const readChunkSize = 4096

const dialTimeout = 5 * time.Second

const pipeNamePrefix = `\\.\pipe\snowland-host-ipc-`

func pipeName(instance int) string {
	return fmt.Sprintf("%s%d", pipeNamePrefix, instance)
}

// Connection mirrors the Unix Connection type over a go-winio named pipe
// net.Conn. go-winio surfaces pipe connect/read/write completion as
// ordinary net.Conn calls, so the same read-loop-plus-frameBuffer shape
// used for Unix sockets applies unchanged; only the listen/dial/lock
// helpers below differ (§9, Open Question 3).
type Connection struct {
	conn     net.Conn
	registry *Registry

	mu    sync.Mutex
	buf   frameBuffer
	state ConnState
	err   error

	writes pendingWrites
}

func newConnection(conn net.Conn, registry *Registry) *Connection {
	c := &Connection{conn: conn, registry: registry, state: StateConnected}
	go c.readLoop()
	return c
}

func (c *Connection) readLoop() {
	chunk := make([]byte, readChunkSize)
	for {
		n, err := c.conn.Read(chunk)
		if n > 0 {
			c.mu.Lock()
			c.buf.feed(chunk[:n])
			c.mu.Unlock()
			if c.registry != nil {
				c.registry.post(Event{Interest: InterestClient, Readable: true})
			}
		}
		if err != nil {
			c.mu.Lock()
			c.state = StateDisconnected
			if err != io.EOF {
				c.err = &IOError{Err: err}
			}
			c.mu.Unlock()
			if c.registry != nil {
				c.registry.post(Event{Interest: InterestClient, Closed: true})
			}
			return
		}
	}
}

func (c *Connection) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Connection) DecodeClient(emit func(ClientMessage)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return decodeAll(&c.buf, DecodeClientMessage, emit)
}

func (c *Connection) DecodeServer(emit func(ServerMessage)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return decodeAll(&c.buf, DecodeServerMessage, emit)
}

func (c *Connection) Closed() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateDisconnected {
		if c.err != nil {
			return true, c.err
		}
		return true, ErrDisconnected
	}
	return false, nil
}

func (c *Connection) Send(msg msgpack.CustomEncoder) error {
	if closed, err := c.Closed(); closed {
		return err
	}
	if err := Encode(c.conn, msg); err != nil {
		c.Close()
		return &ErrEncodeFailed{Err: err}
	}
	return nil
}

func (c *Connection) Close() error {
	c.mu.Lock()
	c.state = StateDisconnected
	c.mu.Unlock()
	return c.conn.Close()
}

// Server listens on a named pipe, one per instance number, accepting
// connections from the control panel.
type Server struct {
	ln       net.Listener
	registry *Registry
	name     string

	mu      sync.Mutex
	current *Connection
}

// ListenUnix keeps the cross-platform call sites in daemon.go name-
// agnostic; on Windows it opens a named pipe instead of a Unix domain
// socket, still picking the lowest free instance number the same way.
func ListenUnix(registry *Registry) (*Server, int, error) {
	instance := LowestFreeInstance(ListAliveInstances())
	name := pipeName(instance)

	ln, err := winio.ListenPipe(name, &winio.PipeConfig{
		SecurityDescriptor: "D:P(A;;GA;;;AU)",
		MessageMode:        false,
		InputBufferSize:    int32(growthIncrement),
		OutputBufferSize:   int32(growthIncrement),
	})
	if err != nil {
		return nil, 0, &IOError{Err: err}
	}

	s := &Server{ln: ln, registry: registry, name: name}
	go s.acceptLoop()
	return s, instance, nil
}

// acceptLoop accepts at most one live connection at a time (§1
// Non-goals: one connected client at a time per instance). A new
// ACCEPT replaces whatever connection was previously current, closing
// it first so its read loop unwinds instead of leaking.
func (s *Server) acceptLoop() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			s.registry.post(Event{Interest: InterestAccept, Closed: true})
			return
		}
		c := newConnection(conn, s.registry)
		s.mu.Lock()
		previous := s.current
		s.current = c
		s.mu.Unlock()
		if previous != nil {
			previous.Close()
		}
		// Windows has no separate write-readiness token; registering
		// the accept event is enough to let the daemon loop pick the
		// new connection up and start polling it for data (§9, Open
		// Question 3).
		s.registry.post(Event{Interest: InterestAccept, Readable: true})
	}
}

// ActiveConnection returns the single connection this instance is
// currently serving, or nil if none is connected or the last one has
// disconnected.
func (s *Server) ActiveConnection() *Connection {
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

// Connections returns a 0-or-1-length slice wrapping ActiveConnection,
// kept for callers written against the historical multi-connection
// shape.
func (s *Server) Connections() []*Connection {
	conn := s.ActiveConnection()
	if conn == nil {
		return nil
	}
	return []*Connection{conn}
}

func (s *Server) Shutdown() error {
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
	return nil
}

// Client dials an existing instance's named pipe.
type Client struct {
	*Connection
}

// DialUnix keeps the same cross-platform name as the Unix dialer.
func DialUnix(instance int, registry *Registry) (*Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	conn, err := winio.DialPipeContext(ctx, pipeName(instance))
	if err != nil {
		return nil, &IOError{Err: err}
	}
	return &Client{Connection: newConnection(conn, registry)}, nil
}

// InstanceLock has no filesystem-level flock equivalent on a named pipe;
// go-winio's exclusive pipe creation (ERROR_PIPE_BUSY on a second
// listener) already prevents two daemons from claiming the same
// instance number, so this is a no-op kept only so daemon.go doesn't
// need a platform switch at the call site.
type InstanceLock struct{}

func AcquireInstanceLock(instance int) (*InstanceLock, error) {
	return &InstanceLock{}, nil
}

func (l *InstanceLock) Release() error { return nil }

// ReadInstancePID has no equivalent on this platform since InstanceLock
// carries no PID; it always returns an error, which daemon stop reports.
func ReadInstancePID(instance int) (int, error) {
	return 0, fmt.Errorf("ipc: ReadInstancePID is unsupported on this platform")
}
