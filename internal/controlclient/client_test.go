package controlclient

import (
	"context"
	"testing"
	"time"

	"github.com/banksean/snowland/internal/ipc"
)

// startFakeDaemon binds a real instance socket and runs a tiny dispatch
// loop of its own - standing in for the engine side of the protocol so
// Client can be exercised against a real connection, the same way
// mux_test.go drives MuxClient against a real MuxServer.
func startFakeDaemon(t *testing.T) (instance int, received <-chan ipc.ClientMessage) {
	t.Helper()

	registry := ipc.NewRegistry(16)
	srv, instance, err := ipc.ListenUnix(registry)
	if err != nil {
		t.Fatalf("ListenUnix: %v", err)
	}
	t.Cleanup(func() { srv.Shutdown() })

	msgs := make(chan ipc.ClientMessage, 16)
	go func() {
		var conn *ipc.Connection
		deadline := time.Now().Add(time.Second)
		for conn == nil && time.Now().Before(deadline) {
			if conns := srv.Connections(); len(conns) == 1 {
				conn = conns[0]
			}
			time.Sleep(time.Millisecond)
		}
		if conn == nil {
			return
		}

		for {
			err := conn.DecodeClient(func(m ipc.ClientMessage) {
				msgs <- m
				switch m.(type) {
				case ipc.QueryConfiguration:
					conn.Send(ipc.UpdateConfiguration{Configuration: ipc.Configuration{
						Modules: []ipc.InstalledModule{{TypeName: "clear"}},
					}})
				case ipc.QueryDisplays:
					conn.Send(ipc.UpdateDisplays{Displays: []ipc.Display{{ID: "a", Primary: true}}})
				}
			})
			if err != nil {
				return
			}
			if closed, _ := conn.Closed(); closed {
				return
			}
			time.Sleep(time.Millisecond)
		}
	}()

	return instance, msgs
}

func TestDialInstanceRequestQueryConfigurationReceivesReply(t *testing.T) {
	instance, _ := startFakeDaemon(t)

	client, err := DialInstance(context.Background(), instance)
	if err != nil {
		t.Fatalf("DialInstance: %v", err)
	}
	defer client.Close()

	reply, err := client.Request(context.Background(), ipc.QueryConfiguration{})
	if err != nil {
		t.Fatalf("Request: %v", err)
	}

	update, ok := reply.(ipc.UpdateConfiguration)
	if !ok {
		t.Fatalf("reply type = %T, want ipc.UpdateConfiguration", reply)
	}
	if len(update.Configuration.Modules) != 1 || update.Configuration.Modules[0].TypeName != "clear" {
		t.Fatalf("unexpected configuration: %+v", update.Configuration)
	}
}

func TestDialInstanceRequestQueryDisplaysReceivesReply(t *testing.T) {
	instance, _ := startFakeDaemon(t)

	client, err := DialInstance(context.Background(), instance)
	if err != nil {
		t.Fatalf("DialInstance: %v", err)
	}
	defer client.Close()

	reply, err := client.Request(context.Background(), ipc.QueryDisplays{})
	if err != nil {
		t.Fatalf("Request: %v", err)
	}

	update, ok := reply.(ipc.UpdateDisplays)
	if !ok {
		t.Fatalf("reply type = %T, want ipc.UpdateDisplays", reply)
	}
	if len(update.Displays) != 1 || update.Displays[0].ID != "a" {
		t.Fatalf("unexpected displays: %+v", update.Displays)
	}
}

func TestClientSendIsFireAndForget(t *testing.T) {
	instance, received := startFakeDaemon(t)

	client, err := DialInstance(context.Background(), instance)
	if err != nil {
		t.Fatalf("DialInstance: %v", err)
	}
	defer client.Close()

	if err := client.Send(ipc.AddModule{TypeName: "snow"}); err != nil {
		t.Fatalf("Send: %v", err)
	}

	select {
	case m := <-received:
		add, ok := m.(ipc.AddModule)
		if !ok || add.TypeName != "snow" {
			t.Fatalf("received = %#v, want AddModule{TypeName: \"snow\"}", m)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for the fake daemon to observe the message")
	}
}

func TestDialInstanceUnknownInstanceFails(t *testing.T) {
	if _, err := DialInstance(context.Background(), 999999); err == nil {
		t.Fatal("DialInstance succeeded against an instance with no listener")
	}
}
