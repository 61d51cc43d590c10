package ipc

import (
	"testing"
	"time"
)

// pollUntil retries fn every millisecond until it reports done or the
// deadline passes, failing the test in the latter case.
func pollUntil(t *testing.T, what string, fn func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestNonblockingTryAcceptReportsWouldBlockBeforeADial(t *testing.T) {
	srv, instance, err := ListenUnixNonblocking(nil)
	if err != nil {
		t.Fatalf("ListenUnixNonblocking: %v", err)
	}
	defer srv.Shutdown()

	if conn, accepted, err := srv.TryAccept(); accepted || err != nil || conn != nil {
		t.Fatalf("TryAccept = %v, %v, %v before any dial; want nil, false, nil", conn, accepted, err)
	}

	client, err := DialUnixNonblocking(instance)
	if err != nil {
		t.Fatalf("DialUnixNonblocking: %v", err)
	}
	defer client.Close()

	var serverConn *NonblockingConnection
	pollUntil(t, "TryAccept to report the dial", func() bool {
		conn, accepted, err := srv.TryAccept()
		if err != nil {
			t.Fatalf("TryAccept: %v", err)
		}
		if accepted {
			serverConn = conn
			return true
		}
		return false
	})
	if serverConn == nil {
		t.Fatal("serverConn is nil after TryAccept reported accepted")
	}
}

func TestNonblockingRoundTrip(t *testing.T) {
	srv, instance, err := ListenUnixNonblocking(nil)
	if err != nil {
		t.Fatalf("ListenUnixNonblocking: %v", err)
	}
	defer srv.Shutdown()

	client, err := DialUnixNonblocking(instance)
	if err != nil {
		t.Fatalf("DialUnixNonblocking: %v", err)
	}
	defer client.Close()

	var serverConn *NonblockingConnection
	pollUntil(t, "server to accept the dial", func() bool {
		serverConn = srv.ActiveConnection()
		if serverConn != nil {
			return true
		}
		_, accepted, err := srv.TryAccept()
		if err != nil {
			t.Fatalf("TryAccept: %v", err)
		}
		if accepted {
			serverConn = srv.ActiveConnection()
		}
		return serverConn != nil
	})

	pollUntil(t, "QueryConfiguration to flush", func() bool {
		flushed, err := client.TryWrite(QueryConfiguration{})
		if err != nil {
			t.Fatalf("client.TryWrite: %v", err)
		}
		return flushed
	})

	var got ClientMessage
	pollUntil(t, "server to observe QueryConfiguration", func() bool {
		_, err := serverConn.TryReadClient(func(m ClientMessage) { got = m })
		if err != nil {
			t.Fatalf("TryReadClient: %v", err)
		}
		return got != nil
	})
	if _, ok := got.(QueryConfiguration); !ok {
		t.Fatalf("got = %#v, want QueryConfiguration", got)
	}

	reply := UpdateConfiguration{Configuration: Configuration{Modules: []InstalledModule{{TypeName: "clear"}}}}
	pollUntil(t, "UpdateConfiguration to flush", func() bool {
		flushed, err := serverConn.TryWrite(reply)
		if err != nil {
			t.Fatalf("serverConn.TryWrite: %v", err)
		}
		return flushed
	})

	var gotReply ServerMessage
	pollUntil(t, "client to observe UpdateConfiguration", func() bool {
		_, err := client.TryReadServer(func(m ServerMessage) { gotReply = m })
		if err != nil {
			t.Fatalf("TryReadServer: %v", err)
		}
		return gotReply != nil
	})
	update, ok := gotReply.(UpdateConfiguration)
	if !ok {
		t.Fatalf("gotReply = %#v, want UpdateConfiguration", gotReply)
	}
	if len(update.Configuration.Modules) != 1 || update.Configuration.Modules[0].TypeName != "clear" {
		t.Fatalf("unexpected configuration: %+v", update.Configuration)
	}
}

func TestNonblockingAcceptReplacesPriorConnection(t *testing.T) {
	srv, instance, err := ListenUnixNonblocking(nil)
	if err != nil {
		t.Fatalf("ListenUnixNonblocking: %v", err)
	}
	defer srv.Shutdown()

	first, err := DialUnixNonblocking(instance)
	if err != nil {
		t.Fatalf("DialUnixNonblocking (first): %v", err)
	}
	defer first.Close()

	pollUntil(t, "server to accept the first dial", func() bool {
		_, accepted, err := srv.TryAccept()
		if err != nil {
			t.Fatalf("TryAccept: %v", err)
		}
		return accepted
	})
	firstServerConn := srv.ActiveConnection()
	if firstServerConn == nil {
		t.Fatal("expected an active connection after the first accept")
	}

	second, err := DialUnixNonblocking(instance)
	if err != nil {
		t.Fatalf("DialUnixNonblocking (second): %v", err)
	}
	defer second.Close()

	pollUntil(t, "server to accept the second dial", func() bool {
		_, accepted, err := srv.TryAccept()
		if err != nil {
			t.Fatalf("TryAccept: %v", err)
		}
		return accepted
	})

	if srv.ActiveConnection() == firstServerConn {
		t.Fatal("expected the second accept to replace the first connection")
	}

	pollUntil(t, "first connection to observe its replacement as closed", func() bool {
		closed, _ := firstServerConn.Closed()
		return closed
	})
}
