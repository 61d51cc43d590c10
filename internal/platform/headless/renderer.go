// Package headless is the pluggable seam cmd/snowland wires in for
// engine.PlatformRenderer and engine.FontFactory. The real platform
// graphics backend (Metal/DirectX/GL surface, system font shaping) is
// out of scope (§1 Non-goals say so explicitly); this package is the
// stand-in that lets the daemon actually run end to end without one -
// it reports a fixed size, and its Canvas logs draw calls through slog
// instead of rasterizing them.
package headless

import (
	"context"
	"log/slog"
	"time"

	"github.com/banksean/snowland/internal/engine"
)

// DefaultPresentInterval stands in for a real compositor's vsync: a
// genuine platform surface would block Present until the next scanout,
// and the control loop has no pacing of its own (§4.3), so this
// stand-in must supply some or TickIPC would flood its peer as fast as
// the CPU allows.
const DefaultPresentInterval = time.Second / 60

// Renderer is a PlatformRenderer that never changes size and never
// touches a real display.
type Renderer struct {
	ctx           context.Context
	Width, Height int32

	presentInterval time.Duration
	lastPresent     time.Time
}

// New returns a Renderer reporting width x height as its fixed size,
// pacing Present to interval. interval <= 0 falls back to
// DefaultPresentInterval.
func New(ctx context.Context, width, height int32, interval time.Duration) *Renderer {
	if interval <= 0 {
		interval = DefaultPresentInterval
	}
	return &Renderer{ctx: ctx, Width: width, Height: height, presentInterval: interval}
}

func (r *Renderer) Size() (int32, int32, error) {
	return r.Width, r.Height, nil
}

func (r *Renderer) CreateSurface(width, height int32) (engine.Surface, error) {
	slog.InfoContext(r.ctx, "headless.Renderer.CreateSurface", "width", width, "height", height)
	return &canvas{ctx: r.ctx, width: width, height: height}, nil
}

// Present paces itself to presentInterval, the same role a real
// surface's vsync wait would play.
func (r *Renderer) Present() error {
	if !r.lastPresent.IsZero() {
		if wait := r.presentInterval - time.Since(r.lastPresent); wait > 0 {
			time.Sleep(wait)
		}
	}
	r.lastPresent = time.Now()
	return nil
}

// canvas is a Surface/Canvas that logs every draw call at debug level
// instead of drawing anything, so the control loop has somewhere to
// put pixels without a real graphics backend.
type canvas struct {
	ctx           context.Context
	width, height int32
}

func (c *canvas) Canvas() engine.Canvas { return c }

func (c *canvas) Clear(color engine.Color) {
	slog.DebugContext(c.ctx, "headless.canvas.Clear", "color", color)
}

func (c *canvas) DrawCircle(x, y, radius float32, paint engine.Paint) {
	slog.DebugContext(c.ctx, "headless.canvas.DrawCircle", "x", x, "y", y, "radius", radius)
}

func (c *canvas) DrawString(s string, x, y float32, font engine.Font, paint engine.Paint) {
	slog.DebugContext(c.ctx, "headless.canvas.DrawString", "value", s, "x", x, "y", y)
}

func (c *canvas) DrawImage(img engine.Image, x, y int, paint *engine.Paint) {
	slog.DebugContext(c.ctx, "headless.canvas.DrawImage", "x", x, "y", y)
}
