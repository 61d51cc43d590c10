package engine

import "fmt"

// PlatformRenderer is the external collaborator that owns the actual
// graphics surface: querying the window/monitor size, (re)creating a
// drawable surface when that size changes, and presenting a finished
// frame to the screen. Snowland never touches the platform graphics
// API directly (§1 Non-goals) - it only calls through this interface,
// grounded on core::rendering::mod.rs's `R: SnowlandRenderer` bound on
// RendererContainer.
type PlatformRenderer interface {
	// Size reports the current render target dimensions.
	Size() (width, height int32, err error)
	// CreateSurface (re)allocates the drawable surface for the given
	// dimensions.
	CreateSurface(width, height int32) (Surface, error)
	// Present flips/submits the most recently drawn frame.
	Present() error
}

// Surface is a drawable render target; its Canvas is what every module
// actually draws onto.
type Surface interface {
	Canvas() Canvas
}

// FakeRenderer is an in-memory PlatformRenderer test double, the
// engine-package analogue of the teacher's mockContainerOps
// (box_test.go): a hand-written fake for an external collaborator,
// used only in tests, with overridable hooks for every method.
type FakeRenderer struct {
	Width, Height int32

	SizeFunc          func() (int32, int32, error)
	CreateSurfaceFunc func(width, height int32) (Surface, error)
	PresentFunc       func() error

	SurfacesCreated int
	PresentCount    int
}

func (f *FakeRenderer) Size() (int32, int32, error) {
	if f.SizeFunc != nil {
		return f.SizeFunc()
	}
	return f.Width, f.Height, nil
}

func (f *FakeRenderer) CreateSurface(width, height int32) (Surface, error) {
	f.SurfacesCreated++
	if f.CreateSurfaceFunc != nil {
		return f.CreateSurfaceFunc(width, height)
	}
	return &FakeSurface{Width: width, Height: height}, nil
}

func (f *FakeRenderer) Present() error {
	f.PresentCount++
	if f.PresentFunc != nil {
		return f.PresentFunc()
	}
	return nil
}

// FakeSurface is an in-memory Surface/Canvas test double recording
// every draw call it receives, so tests can assert on what a module
// drew without a real graphics backend.
type FakeSurface struct {
	Width, Height int32

	ClearedWith Color
	Calls       []string
}

func (s *FakeSurface) Canvas() Canvas { return s }

func (s *FakeSurface) Clear(c Color) {
	s.ClearedWith = c
	s.Calls = append(s.Calls, fmt.Sprintf("clear(%v)", c))
}

func (s *FakeSurface) DrawCircle(x, y, radius float32, paint Paint) {
	s.Calls = append(s.Calls, fmt.Sprintf("circle(%.1f,%.1f,%.1f)", x, y, radius))
}

func (s *FakeSurface) DrawString(str string, x, y float32, font Font, paint Paint) {
	s.Calls = append(s.Calls, fmt.Sprintf("string(%q,%.1f,%.1f)", str, x, y))
}

func (s *FakeSurface) DrawImage(img Image, x, y int, paint *Paint) {
	s.Calls = append(s.Calls, fmt.Sprintf("image(%d,%d)", x, y))
}
