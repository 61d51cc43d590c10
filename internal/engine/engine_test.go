package engine

import (
	"context"
	"testing"
	"time"

	"github.com/banksean/snowland/internal/ipc"
)

func newTestEngine(t *testing.T, renderer *FakeRenderer) *Engine {
	t.Helper()
	e, _, err := Create(context.Background(), NewRegistry(), renderer, ipc.NewRegistry(16))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() {
		if err := e.Shutdown(); err != nil {
			t.Errorf("Shutdown: %v", err)
		}
	})
	return e
}

func TestCreateAllocatesInitialSurface(t *testing.T) {
	renderer := &FakeRenderer{Width: 640, Height: 480}
	e := newTestEngine(t, renderer)

	if renderer.SurfacesCreated != 1 {
		t.Fatalf("SurfacesCreated = %d, want 1", renderer.SurfacesCreated)
	}
	if e.width != 640 || e.height != 480 {
		t.Fatalf("engine size = %dx%d, want 640x480", e.width, e.height)
	}
}

// stubContainer is a minimal Container test double recording how many
// times RunFrame was called.
type stubContainer struct {
	typeName  string
	runCount  int
	serialize func() (ipc.Structure, error)
}

func (s *stubContainer) TypeName() string { return s.typeName }
func (s *stubContainer) SerializeConfig() (ipc.Structure, error) {
	if s.serialize != nil {
		return s.serialize()
	}
	return ipc.Null(), nil
}
func (s *stubContainer) UpdateConfig(ipc.Structure) error { return nil }
func (s *stubContainer) RunFrame(data *SceneData)         { s.runCount++ }

func TestDrawFrameRunsEveryModuleOnce(t *testing.T) {
	renderer := &FakeRenderer{Width: 100, Height: 100}
	e := newTestEngine(t, renderer)

	a := &stubContainer{typeName: "A"}
	b := &stubContainer{typeName: "B"}
	e.ReplaceModules([]Container{a, b})

	if err := e.DrawFrame(context.Background()); err != nil {
		t.Fatalf("DrawFrame: %v", err)
	}

	if a.runCount != 1 || b.runCount != 1 {
		t.Fatalf("run counts = %d, %d, want 1, 1", a.runCount, b.runCount)
	}
	if renderer.PresentCount != 1 {
		t.Fatalf("PresentCount = %d, want 1", renderer.PresentCount)
	}
}

func TestDrawFrameRecreatesSurfaceOnResize(t *testing.T) {
	renderer := &FakeRenderer{Width: 100, Height: 100}
	e := newTestEngine(t, renderer)

	if err := e.DrawFrame(context.Background()); err != nil {
		t.Fatalf("DrawFrame: %v", err)
	}
	if renderer.SurfacesCreated != 1 {
		t.Fatalf("SurfacesCreated after first frame = %d, want 1", renderer.SurfacesCreated)
	}

	renderer.Width, renderer.Height = 200, 150
	if err := e.DrawFrame(context.Background()); err != nil {
		t.Fatalf("DrawFrame after resize: %v", err)
	}
	if renderer.SurfacesCreated != 2 {
		t.Fatalf("SurfacesCreated after resize = %d, want 2", renderer.SurfacesCreated)
	}

	// No further resize, no further surface creation.
	if err := e.DrawFrame(context.Background()); err != nil {
		t.Fatalf("DrawFrame third call: %v", err)
	}
	if renderer.SurfacesCreated != 2 {
		t.Fatalf("SurfacesCreated after steady state = %d, want 2", renderer.SurfacesCreated)
	}
}

func TestDrawFrameMeasuresElapsedTime(t *testing.T) {
	renderer := &FakeRenderer{Width: 10, Height: 10}
	e := newTestEngine(t, renderer)

	e.lastFrameTime = time.Now().Add(-50 * time.Millisecond)

	var seenDelta time.Duration
	e.ReplaceModules([]Container{&recordingContainer{fn: func(data *SceneData) {
		seenDelta = data.Delta()
	}}})

	if err := e.DrawFrame(context.Background()); err != nil {
		t.Fatalf("DrawFrame: %v", err)
	}
	if seenDelta < 40*time.Millisecond {
		t.Fatalf("delta = %v, want at least ~50ms", seenDelta)
	}
}

type recordingContainer struct {
	fn func(*SceneData)
}

func (r *recordingContainer) TypeName() string                          { return "Recording" }
func (r *recordingContainer) SerializeConfig() (ipc.Structure, error)    { return ipc.Null(), nil }
func (r *recordingContainer) UpdateConfig(ipc.Structure) error          { return nil }
func (r *recordingContainer) RunFrame(data *SceneData)                   { r.fn(data) }

func TestUpdateDisplaysPicksMarkedPrimary(t *testing.T) {
	renderer := &FakeRenderer{Width: 10, Height: 10}
	e := newTestEngine(t, renderer)

	list := []Display{
		{ID: "a", Name: "A", Width: 1920, Height: 1080},
		{ID: "b", Name: "B", Primary: true, Width: 2560, Height: 1440},
	}
	e.UpdateDisplays(context.Background(), list)

	if e.primaryDisplay.ID != "b" {
		t.Fatalf("primaryDisplay.ID = %q, want %q", e.primaryDisplay.ID, "b")
	}
	if len(e.displays) != 2 {
		t.Fatalf("len(displays) = %d, want 2", len(e.displays))
	}
}

func TestUpdateDisplaysFallsBackToFirstThenUninitialized(t *testing.T) {
	renderer := &FakeRenderer{Width: 10, Height: 10}
	e := newTestEngine(t, renderer)

	e.UpdateDisplays(context.Background(), []Display{{ID: "only", Width: 800, Height: 600}})
	if e.primaryDisplay.ID != "only" {
		t.Fatalf("primaryDisplay.ID = %q, want %q", e.primaryDisplay.ID, "only")
	}

	e.UpdateDisplays(context.Background(), nil)
	if e.primaryDisplay != UninitializedDisplay() {
		t.Fatalf("primaryDisplay = %+v, want UninitializedDisplay()", e.primaryDisplay)
	}
}
