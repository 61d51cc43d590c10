package ipc

import "testing"

func TestFrameBufferFeedAndDrain(t *testing.T) {
	var fb frameBuffer
	fb.feed([]byte("hello"))
	fb.feed([]byte("world"))

	if got, want := string(fb.data), "helloworld"; got != want {
		t.Fatalf("data = %q, want %q", got, want)
	}

	fb.drain(5)
	if got, want := string(fb.data), "world"; got != want {
		t.Fatalf("after drain, data = %q, want %q", got, want)
	}

	fb.drain(5)
	if !fb.empty() {
		t.Fatalf("expected buffer to be empty after draining everything")
	}
}

func TestFrameBufferGrowsInIncrements(t *testing.T) {
	var fb frameBuffer
	big := make([]byte, growthIncrement+1)
	fb.feed(big)

	if len(fb.data) != len(big) {
		t.Fatalf("data length = %d, want %d", len(fb.data), len(big))
	}
	if cap(fb.data) != len(big)+growthIncrement {
		t.Fatalf("capacity %d, want %d (fed data plus one growth increment)", cap(fb.data), len(big)+growthIncrement)
	}
}

func TestPendingWritesFIFO(t *testing.T) {
	var p pendingWrites
	if !p.empty() {
		t.Fatalf("expected new pendingWrites to be empty")
	}

	p.push([]byte("a"))
	p.push([]byte("b"))

	front, ok := p.peek()
	if !ok || string(front) != "a" {
		t.Fatalf("peek = %q, %v; want %q, true", front, ok, "a")
	}

	p.popFront()
	front, ok = p.peek()
	if !ok || string(front) != "b" {
		t.Fatalf("peek = %q, %v; want %q, true", front, ok, "b")
	}

	p.popFront()
	if !p.empty() {
		t.Fatalf("expected pendingWrites to be empty after draining all entries")
	}
}

func TestRegistryPostAndReceive(t *testing.T) {
	r := NewRegistry(4)
	r.post(Event{Interest: InterestClient, Readable: true})

	select {
	case ev := <-r.Events():
		if ev.Interest != InterestClient || !ev.Readable {
			t.Fatalf("unexpected event: %#v", ev)
		}
	default:
		t.Fatalf("expected an event to be immediately available")
	}
}
