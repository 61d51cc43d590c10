// Package controlclient is the thin client side of the control
// protocol: dial a running daemon instance, send one ClientMessage,
// and wait for the matching ServerMessage reply. Grounded on
// mux_client.go's MuxClient (dial-then-call-then-decode-JSON pattern),
// replacing its HTTP-over-unix-socket calls with the typed framed
// protocol.
package controlclient

import (
	"context"
	"fmt"
	"time"

	"github.com/banksean/snowland/internal/ipc"
)

const defaultReplyTimeout = 2 * time.Second

// Client is a single request/reply connection to one daemon instance.
type Client struct {
	conn     *ipc.Client
	registry *ipc.Registry
}

// Dial connects to the lowest-numbered alive daemon instance. Returns
// an error if none is running.
func Dial(ctx context.Context) (*Client, error) {
	instances := ipc.ListAliveInstances()
	if len(instances) == 0 {
		return nil, fmt.Errorf("controlclient: no daemon instance is running")
	}
	return DialInstance(ctx, instances[0])
}

// DialInstance connects to a specific instance number.
func DialInstance(ctx context.Context, instance int) (*Client, error) {
	registry := ipc.NewRegistry(16)
	conn, err := ipc.DialUnix(instance, registry)
	if err != nil {
		return nil, fmt.Errorf("controlclient: dial instance %d: %w", instance, err)
	}
	return &Client{conn: conn, registry: registry}, nil
}

// Close disconnects from the daemon.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Request sends msg and waits up to defaultReplyTimeout for the first
// server message the daemon sends back. A Heartbeat received before
// the expected reply is ignored and waiting continues, since the
// daemon sends one periodically (at most once a second) independent of
// request/reply flow.
// Only QueryConfiguration and QueryDisplays provoke a reply; the other
// four client messages are one-way mutations (§4.2 Message dispatch),
// so callers that issue those should use Send and, if they want to
// show the result, follow up with a QueryConfiguration request.
func (c *Client) Request(ctx context.Context, msg ipc.ClientMessage) (ipc.ServerMessage, error) {
	if err := c.conn.Send(msg); err != nil {
		return nil, fmt.Errorf("controlclient: send %T: %w", msg, err)
	}
	return c.awaitReply(ctx)
}

// Send fires a one-way client message with no reply expected.
func (c *Client) Send(msg ipc.ClientMessage) error {
	if err := c.conn.Send(msg); err != nil {
		return fmt.Errorf("controlclient: send %T: %w", msg, err)
	}
	return nil
}

func (c *Client) awaitReply(ctx context.Context) (ipc.ServerMessage, error) {
	deadline := time.Now().Add(defaultReplyTimeout)

	for time.Now().Before(deadline) {
		if closed, err := c.conn.Closed(); closed {
			return nil, fmt.Errorf("controlclient: disconnected: %w", err)
		}

		var reply ipc.ServerMessage
		if err := c.conn.DecodeServer(func(msg ipc.ServerMessage) {
			if reply == nil {
				if _, ok := msg.(ipc.Heartbeat); !ok {
					reply = msg
				}
			}
		}); err != nil {
			return nil, fmt.Errorf("controlclient: decode reply: %w", err)
		}

		if reply != nil {
			return reply, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}

	return nil, fmt.Errorf("controlclient: timed out waiting for a reply")
}
