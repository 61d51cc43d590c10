package ipc

import (
	"bytes"
	"testing"

	"github.com/vmihailenco/msgpack/v5"
)

func encodeClient(t *testing.T, msg ClientMessage) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := Encode(&buf, msg); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return buf.Bytes()
}

func encodeServer(t *testing.T, msg ServerMessage) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := Encode(&buf, msg); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return buf.Bytes()
}

func TestClientMessageRoundTrip(t *testing.T) {
	cases := []ClientMessage{
		QueryConfiguration{},
		QueryDisplays{},
		ReorderModules{OldIndex: 2, NewIndex: 0},
		ChangeConfiguration{ModuleIndex: 1, NewConfiguration: StringValue("cfg")},
		AddModule{TypeName: "snow"},
		RemoveModule{Index: 3},
	}

	for _, want := range cases {
		data := encodeClient(t, want)
		got, consumed, err := DecodeClientMessage(data)
		if err != nil {
			t.Fatalf("DecodeClientMessage(%#v): %v", want, err)
		}
		if consumed != len(data) {
			t.Fatalf("consumed %d, want %d for %#v", consumed, len(data), want)
		}

		switch w := want.(type) {
		case ReorderModules:
			g := got.(ReorderModules)
			if g != w {
				t.Fatalf("round trip mismatch: got %#v, want %#v", g, w)
			}
		case ChangeConfiguration:
			g := got.(ChangeConfiguration)
			if g.ModuleIndex != w.ModuleIndex || !g.NewConfiguration.Equal(w.NewConfiguration) {
				t.Fatalf("round trip mismatch: got %#v, want %#v", g, w)
			}
		case AddModule:
			g := got.(AddModule)
			if g != w {
				t.Fatalf("round trip mismatch: got %#v, want %#v", g, w)
			}
		case RemoveModule:
			g := got.(RemoveModule)
			if g != w {
				t.Fatalf("round trip mismatch: got %#v, want %#v", g, w)
			}
		}
	}
}

func TestServerMessageRoundTrip(t *testing.T) {
	displays := []Display{{ID: "1", Name: "main", Primary: true, X: 0, Y: 0, Width: 1920, Height: 1080}}
	cfg := Configuration{Modules: []InstalledModule{{TypeName: "clear", Configuration: Null()}}}

	cases := []ServerMessage{
		UpdateConfiguration{Configuration: cfg},
		UpdateDisplays{Displays: displays},
		Heartbeat{},
	}

	for _, want := range cases {
		data := encodeServer(t, want)
		got, consumed, err := DecodeServerMessage(data)
		if err != nil {
			t.Fatalf("DecodeServerMessage(%#v): %v", want, err)
		}
		if consumed != len(data) {
			t.Fatalf("consumed %d, want %d for %#v", consumed, len(data), want)
		}
		switch w := want.(type) {
		case UpdateDisplays:
			g := got.(UpdateDisplays)
			if len(g.Displays) != len(w.Displays) || g.Displays[0] != w.Displays[0] {
				t.Fatalf("displays mismatch: got %#v, want %#v", g, w)
			}
		case UpdateConfiguration:
			g := got.(UpdateConfiguration)
			if len(g.Configuration.Modules) != len(w.Configuration.Modules) {
				t.Fatalf("modules mismatch: got %#v, want %#v", g, w)
			}
		case Heartbeat:
			if _, ok := got.(Heartbeat); !ok {
				t.Fatalf("expected Heartbeat, got %#v", got)
			}
		}
	}
}

func TestDecodeUnknownVariant(t *testing.T) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if err := enc.EncodeUint8(200); err != nil {
		t.Fatalf("EncodeUint8: %v", err)
	}

	_, _, err := DecodeClientMessage(buf.Bytes())
	if _, ok := err.(ErrUnknownVariant); !ok {
		t.Fatalf("expected ErrUnknownVariant, got %v (%T)", err, err)
	}
}
