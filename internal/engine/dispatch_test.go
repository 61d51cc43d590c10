package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/banksean/snowland/internal/ipc"
)

func newDispatchTestEngine(t *testing.T) *Engine {
	t.Helper()
	renderer := &FakeRenderer{Width: 100, Height: 100}
	e := newTestEngine(t, renderer)
	return e
}

// newLoopbackConnections sets up a real instance socket (ListenUnix picks
// the lowest free instance number itself) and dials it, returning the
// server's accepted Connection and the Client side, so dispatch handlers
// that reply over a *ipc.Connection can be exercised end to end.
func newLoopbackConnections(t *testing.T) (server *ipc.Connection, client *ipc.Client) {
	t.Helper()

	srv, instance, err := ipc.ListenUnix(ipc.NewRegistry(16))
	if err != nil {
		t.Fatalf("ListenUnix: %v", err)
	}
	t.Cleanup(func() { srv.Shutdown() })

	client, err = ipc.DialUnix(instance, ipc.NewRegistry(16))
	if err != nil {
		t.Fatalf("DialUnix: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if conns := srv.Connections(); len(conns) == 1 {
			return conns[0], client
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("timed out waiting for server to accept connection")
	return nil, nil
}

// readOneServerMessage polls a Client's decode buffer until a non-nil
// ServerMessage arrives or the timeout elapses.
func readOneServerMessage(t *testing.T, client *ipc.Client) ipc.ServerMessage {
	t.Helper()

	deadline := time.Now().Add(time.Second)
	var msg ipc.ServerMessage
	for time.Now().Before(deadline) {
		if err := client.DecodeServer(func(m ipc.ServerMessage) {
			if msg == nil {
				msg = m
			}
		}); err != nil {
			t.Fatalf("DecodeServer: %v", err)
		}
		if msg != nil {
			return msg
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("timed out waiting for a server message")
	return nil
}

type countingFactory struct {
	typeName string
}

func (f *countingFactory) TypeName() string { return f.typeName }
func (f *countingFactory) CreateDefault() Container {
	return &stubContainer{typeName: f.typeName}
}
func (f *countingFactory) CreateFromStructure(ipc.Structure) (Container, error) {
	return &stubContainer{typeName: f.typeName}, nil
}

func TestHandleAddModuleUnknownType(t *testing.T) {
	e := newDispatchTestEngine(t)
	e.handleAddModule(context.Background(), ipc.AddModule{TypeName: "NoSuchKind"})
	if len(e.modules) != 0 {
		t.Fatalf("len(modules) = %d, want 0 after unknown type", len(e.modules))
	}
}

func TestHandleAddModuleKnownType(t *testing.T) {
	e := newDispatchTestEngine(t)
	e.registry.Register(&countingFactory{typeName: "Stub"})

	e.handleAddModule(context.Background(), ipc.AddModule{TypeName: "Stub"})

	if len(e.modules) != 1 {
		t.Fatalf("len(modules) = %d, want 1", len(e.modules))
	}
	if e.modules[0].TypeName() != "Stub" {
		t.Fatalf("modules[0].TypeName() = %q, want %q", e.modules[0].TypeName(), "Stub")
	}
}

func TestHandleRemoveModuleOutOfRangeIsNoOp(t *testing.T) {
	e := newDispatchTestEngine(t)
	e.modules = []Container{&stubContainer{typeName: "A"}}

	e.handleRemoveModule(context.Background(), ipc.RemoveModule{Index: 5})

	if len(e.modules) != 1 {
		t.Fatalf("len(modules) = %d, want 1 (unchanged)", len(e.modules))
	}
}

func TestHandleRemoveModuleRemovesAtIndex(t *testing.T) {
	e := newDispatchTestEngine(t)
	a, b, c := &stubContainer{typeName: "A"}, &stubContainer{typeName: "B"}, &stubContainer{typeName: "C"}
	e.modules = []Container{a, b, c}

	e.handleRemoveModule(context.Background(), ipc.RemoveModule{Index: 1})

	if len(e.modules) != 2 {
		t.Fatalf("len(modules) = %d, want 2", len(e.modules))
	}
	if e.modules[0] != a || e.modules[1] != c {
		t.Fatalf("modules = %v, want [A, C]", e.modules)
	}
}

func TestHandleReorderModulesMovesElement(t *testing.T) {
	e := newDispatchTestEngine(t)
	a, b, c := &stubContainer{typeName: "A"}, &stubContainer{typeName: "B"}, &stubContainer{typeName: "C"}
	e.modules = []Container{a, b, c}

	e.handleReorderModules(context.Background(), ipc.ReorderModules{OldIndex: 0, NewIndex: 2})

	want := []Container{b, c, a}
	for i := range want {
		if e.modules[i] != want[i] {
			t.Fatalf("modules[%d] = %v, want %v", i, e.modules[i], want[i])
		}
	}
}

func TestHandleReorderModulesOutOfRangeIsNoOp(t *testing.T) {
	e := newDispatchTestEngine(t)
	a, b := &stubContainer{typeName: "A"}, &stubContainer{typeName: "B"}
	e.modules = []Container{a, b}

	e.handleReorderModules(context.Background(), ipc.ReorderModules{OldIndex: 0, NewIndex: 5})

	if e.modules[0] != a || e.modules[1] != b {
		t.Fatalf("modules changed on out-of-range reorder: %v", e.modules)
	}
}

func TestHandleChangeConfigurationOutOfRangeIsNoOp(t *testing.T) {
	e := newDispatchTestEngine(t)
	e.handleChangeConfiguration(context.Background(), ipc.ChangeConfiguration{ModuleIndex: 0, NewConfiguration: ipc.Null()})
	// Nothing to assert beyond "did not panic" since modules is empty.
}

type erroringContainer struct {
	stubContainer
}

func (e *erroringContainer) UpdateConfig(ipc.Structure) error {
	return errors.New("boom")
}

func TestHandleChangeConfigurationLogsErrorWithoutDroppingModule(t *testing.T) {
	e := newDispatchTestEngine(t)
	target := &erroringContainer{stubContainer: stubContainer{typeName: "Erroring"}}
	e.modules = []Container{target}

	e.handleChangeConfiguration(context.Background(), ipc.ChangeConfiguration{ModuleIndex: 0, NewConfiguration: ipc.Null()})

	if len(e.modules) != 1 {
		t.Fatalf("len(modules) = %d, want 1 (module not dropped on update error)", len(e.modules))
	}
}

func TestHandleQueryConfigurationSkipsSerializationFailures(t *testing.T) {
	e := newDispatchTestEngine(t)
	good := &stubContainer{typeName: "Good"}
	bad := &stubContainer{typeName: "Bad", serialize: func() (ipc.Structure, error) {
		return ipc.Structure{}, errors.New("serialize failed")
	}}
	e.modules = []Container{good, bad}

	server, client := newLoopbackConnections(t)
	defer client.Close()
	defer server.Close()

	if err := e.handleQueryConfiguration(context.Background(), server); err != nil {
		t.Fatalf("handleQueryConfiguration: %v", err)
	}

	reply := readOneServerMessage(t, client)
	update, ok := reply.(ipc.UpdateConfiguration)
	if !ok {
		t.Fatalf("reply type = %T, want ipc.UpdateConfiguration", reply)
	}
	if len(update.Configuration.Modules) != 1 {
		t.Fatalf("len(modules) in reply = %d, want 1 (bad module skipped)", len(update.Configuration.Modules))
	}
	if update.Configuration.Modules[0].TypeName != "Good" {
		t.Fatalf("surviving module = %q, want %q", update.Configuration.Modules[0].TypeName, "Good")
	}
}

func TestHandleQueryDisplaysRepliesWithCurrentTopology(t *testing.T) {
	e := newDispatchTestEngine(t)
	e.UpdateDisplays(context.Background(), []Display{{ID: "a", Name: "A", Width: 1920, Height: 1080}})

	server, client := newLoopbackConnections(t)
	defer client.Close()
	defer server.Close()

	if err := e.handleQueryDisplays(context.Background(), server); err != nil {
		t.Fatalf("handleQueryDisplays: %v", err)
	}

	reply := readOneServerMessage(t, client)
	update, ok := reply.(ipc.UpdateDisplays)
	if !ok {
		t.Fatalf("reply type = %T, want ipc.UpdateDisplays", reply)
	}
	if len(update.Displays) != 1 || update.Displays[0].ID != "a" {
		t.Fatalf("reply displays = %+v, want one display with ID \"a\"", update.Displays)
	}
}
