//go:build !windows

package ipc

import "net"

// ListenUnixNonblocking runs the same bind algorithm as ListenUnix but
// returns a NonblockingServer, for a caller that wants the overlapped
// mode instead of the reactor one (§4.1).
func ListenUnixNonblocking(registry *Registry) (*NonblockingServer, int, error) {
	ln, path, instance, err := bindUnixListener()
	if err != nil {
		return nil, 0, err
	}

	cleanup := func() error { return removeSocketFile(path) }

	return newNonblockingServer(ln, registry, cleanup), instance, nil
}

// DialUnixNonblocking connects to the given instance number's socket,
// same as DialUnix, but hands back a NonblockingConnection.
func DialUnixNonblocking(instance int) (*NonblockingConnection, error) {
	conn, err := net.Dial("unix", SocketPath(instance))
	if err != nil {
		return nil, &IOError{Err: err}
	}
	return newNonblockingConnection(conn), nil
}
