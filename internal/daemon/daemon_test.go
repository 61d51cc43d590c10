package daemon

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/banksean/snowland/internal/engine"
)

type fakeFont struct{}

func (fakeFont) Measure(s string, paint engine.Paint) (float32, float32) { return 0, 0 }

type fakeFontFactory struct{}

func (fakeFontFactory) Default() engine.Font { return fakeFont{} }

// runDaemon starts a Daemon in the background and gives its event loop
// a moment to reach steady state before handing control back, since
// Run's setup (lock, persistence load, signal goroutine) completes
// before Shutdown can safely be called.
func runDaemon(t *testing.T) (*Daemon, context.Context) {
	t.Helper()
	ctx := context.Background()
	d := New(t.TempDir(), &engine.FakeRenderer{Width: 100, Height: 100}, fakeFontFactory{})

	go func() {
		if err := d.Run(ctx); err != nil {
			t.Errorf("Run: %v", err)
		}
	}()

	time.Sleep(50 * time.Millisecond)
	return d, ctx
}

func TestRunStartsAndShutdownPersistsModules(t *testing.T) {
	d, ctx := runDaemon(t)
	d.Shutdown(ctx)

	select {
	case <-d.shutdown:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the loop to observe shutdown")
	}

	data, err := os.ReadFile(filepath.Join(d.BaseDir, persistenceFileName))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	var doc struct {
		Modules []any `json:"modules"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("persisted document is not valid JSON: %v", err)
	}
}

func TestShutdownIsIdempotent(t *testing.T) {
	d, ctx := runDaemon(t)

	d.Shutdown(ctx)
	d.Shutdown(ctx) // must not panic or block on an already-closed channel
}

func TestPersistencePathJoinsBaseDir(t *testing.T) {
	d := New("/tmp/snowland-test-base", nil, nil)
	want := filepath.Join("/tmp/snowland-test-base", "modules.json")
	if got := d.persistencePath(); got != want {
		t.Fatalf("persistencePath() = %q, want %q", got, want)
	}
}

// TestPersistencePathOverride exercises FileConfig's escape hatch: a
// unique, uuid-tagged override path (one random identifier per test
// run, the same role uuid.New plays generating throwaway test fixture
// IDs in helix's auth tests) must win over BaseDir entirely.
func TestPersistencePathOverride(t *testing.T) {
	override := filepath.Join(t.TempDir(), uuid.New().String()+".json")
	d := New("/tmp/snowland-test-base", nil, nil)
	d.PersistencePathOverride = override

	if got := d.persistencePath(); got != override {
		t.Fatalf("persistencePath() = %q, want %q", got, override)
	}
}
