//go:build windows

package ipc

import (
	"context"

	"github.com/Microsoft/go-winio"
)

// ListenUnixNonblocking opens the same named pipe ListenUnix does but
// returns a NonblockingServer, for a caller that wants the overlapped
// mode instead of the reactor one (§4.1, §9 Open Question 3) - named
// pipes are inherently overlapped I/O on Windows, which this still
// expresses through the portable SetReadDeadline/SetWriteDeadline
// trick go-winio's net.Conn implementation honors.
func ListenUnixNonblocking(registry *Registry) (*NonblockingServer, int, error) {
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

	return newNonblockingServer(ln, registry, nil), instance, nil
}

// DialUnixNonblocking connects to the given instance number's named
// pipe, same as DialUnix, but hands back a NonblockingConnection.
func DialUnixNonblocking(instance int) (*NonblockingConnection, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	conn, err := winio.DialPipeContext(ctx, pipeName(instance))
	if err != nil {
		return nil, &IOError{Err: err}
	}
	return newNonblockingConnection(conn), nil
}
