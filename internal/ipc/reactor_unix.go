//go:build !windows

package ipc

import (
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/sys/unix"
)

const readChunkSize = 4096

// Connection is one live duplex stream over a Unix domain socket,
// shared by both the server's accepted clients and the standalone
// Client dialer. It owns a background read loop that feeds a
// frameBuffer and posts readiness onto a Registry, per §4.1's
// CLIENT-interest token.
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

// State reports the connection's lifecycle state.
func (c *Connection) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// DecodeClient drains every complete client message currently buffered,
// calling emit for each. Used on the server side.
func (c *Connection) DecodeClient(emit func(ClientMessage)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return decodeAll(&c.buf, DecodeClientMessage, emit)
}

// DecodeServer drains every complete server message currently buffered,
// calling emit for each. Used on the client side.
func (c *Connection) DecodeServer(emit func(ServerMessage)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return decodeAll(&c.buf, DecodeServerMessage, emit)
}

// Closed reports whether the peer has disconnected (§8 invariant 6: once
// true, it stays true and no further message will ever be decoded).
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

// Send encodes and writes msg. If the connection has already gone away
// this returns ErrDisconnected instead of attempting the write. A failed
// encode or write closes the connection.
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

// Server listens on a per-instance Unix domain socket and accepts
// connections from the control panel, posting InterestAccept readiness
// for new connections and InterestClient readiness for data on each of
// them, per §4.1's reactor mode.
type Server struct {
	ln       net.Listener
	registry *Registry
	path     string

	mu      sync.Mutex
	current *Connection
}

// ListenUnix starts the server algorithm described in §4.1: ensure the
// socket directory exists, enumerate live instances, pick the lowest
// free instance number, probe and remove a stale socket file left behind
// by a crashed process, then bind and listen.
func ListenUnix(registry *Registry) (*Server, int, error) {
	ln, path, instance, err := bindUnixListener()
	if err != nil {
		return nil, 0, err
	}

	s := &Server{ln: ln, registry: registry, path: path}
	go s.acceptLoop()
	return s, instance, nil
}

// bindUnixListener runs the bind algorithm shared by ListenUnix and
// ListenUnixNonblocking, so the stale-socket probing logic exists in
// exactly one place.
func bindUnixListener() (net.Listener, string, int, error) {
	dir := SocketDir()
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, "", 0, &IOError{Err: err}
	}

	instance := LowestFreeInstance(ListAliveInstances())
	path := SocketPath(instance)

	if _, err := os.Stat(path); err == nil {
		if probeErr := probeStaleSocket(path); probeErr != nil {
			return nil, "", 0, ErrDuplicated
		}
		if err := os.Remove(path); err != nil {
			return nil, "", 0, &IOError{Err: err}
		}
	}

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, "", 0, &IOError{Err: err}
	}

	return ln, path, instance, nil
}

// probeStaleSocket dials an existing socket file briefly to tell apart a
// live server (dial succeeds, instance is duplicated) from a stale file
// left behind by a crash (dial fails, the file is safe to remove).
func probeStaleSocket(path string) error {
	conn, err := net.Dial("unix", path)
	if err != nil {
		return nil
	}
	conn.Close()
	return ErrDuplicated
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

// Shutdown closes the listener, the current connection if any, and
// removes the socket file - mirroring mux_server.go's Shutdown
// sequence.
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
	return removeSocketFile(s.path)
}

// removeSocketFile deletes a bound Unix socket's backing file, treating
// "already gone" as success - shared by Server.Shutdown and
// NonblockingServer's cleanup callback.
func removeSocketFile(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return &IOError{Err: err}
	}
	return nil
}

// Client dials an existing instance's socket as the control panel does.
type Client struct {
	*Connection
}

// DialUnix connects to the given instance number's socket.
func DialUnix(instance int, registry *Registry) (*Client, error) {
	conn, err := net.Dial("unix", SocketPath(instance))
	if err != nil {
		return nil, &IOError{Err: err}
	}
	return &Client{Connection: newConnection(conn, registry)}, nil
}

// InstanceLock guards one instance's lock file with an exclusive,
// non-blocking flock(2), the same role syscall.Flock plays in the
// teacher's mux_server.go Shutdown - reached through the portable
// golang.org/x/sys/unix wrapper instead.
type InstanceLock struct {
	file *os.File
}

// AcquireInstanceLock creates (or opens) the lock file for instance and
// takes an exclusive non-blocking flock, returning ErrDuplicated if
// another process already holds it. The holder's PID is written into
// the file (mirroring mux_server.go's acquireLock) so daemon stop can
// find it without a live connection.
func AcquireInstanceLock(instance int) (*InstanceLock, error) {
	path := SocketPath(instance) + ".lock"
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, &IOError{Err: err}
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		return nil, ErrDuplicated
	}
	f.Truncate(0)
	f.Seek(0, 0)
	fmt.Fprintf(f, "%d", os.Getpid())
	return &InstanceLock{file: f}, nil
}

// ReadInstancePID reads back the PID an instance's lock file was
// stamped with, for use by a CLI that wants to signal a running daemon
// it isn't itself connected to.
func ReadInstancePID(instance int) (int, error) {
	data, err := os.ReadFile(SocketPath(instance) + ".lock")
	if err != nil {
		return 0, &IOError{Err: err}
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("ipc: malformed lock file for instance %d: %w", instance, err)
	}
	return pid, nil
}

// Release drops the flock and closes the lock file.
func (l *InstanceLock) Release() error {
	if err := unix.Flock(int(l.file.Fd()), unix.LOCK_UN); err != nil {
		l.file.Close()
		return &IOError{Err: err}
	}
	return l.file.Close()
}
