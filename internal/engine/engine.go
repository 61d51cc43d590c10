package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/banksean/snowland/internal/ipc"
)

// Engine owns the ordered module list, the current display topology,
// the render surface, and the single IPC connection a daemon instance
// ever serves at a time. Grounded on core::rendering::mod.rs's
// RendererContainer, generalized so the IPC server lives alongside the
// render state instead of in a separate process-wide Mux (§4.2, §4.3).
// heartbeatInterval bounds how often TickIPC sends a Heartbeat to the
// connected peer. TickIPC runs once per control-loop iteration, and
// nothing else paces that loop on this platform (§4.3's pacing is the
// renderer's job); without a floor here a busy peer-less loop would
// flood the wire with heartbeats as fast as the CPU allows.
const heartbeatInterval = time.Second

type Engine struct {
	registry *Registry
	renderer PlatformRenderer
	server   *ipc.Server

	surface       Surface
	width, height int32
	lastFrameTime time.Time

	lastHeartbeatConn *ipc.Connection
	lastHeartbeatSent time.Time

	modules []Container

	primaryDisplay Display
	displays       map[string]Display
}

// Create starts the IPC server and allocates the initial render
// surface at the renderer's current size (§4.2: "create(renderer) →
// Engine | Error — also starts the IPC server; creates a surface at
// the renderer's current size").
func Create(ctx context.Context, registry *Registry, renderer PlatformRenderer, reactorEvents *ipc.Registry) (*Engine, int, error) {
	width, height, err := renderer.Size()
	if err != nil {
		return nil, 0, fmt.Errorf("engine: query initial renderer size: %w", err)
	}

	surface, err := renderer.CreateSurface(width, height)
	if err != nil {
		return nil, 0, fmt.Errorf("engine: create initial surface: %w", err)
	}

	server, instance, err := ipc.ListenUnix(reactorEvents)
	if err != nil {
		return nil, 0, fmt.Errorf("engine: start ipc server: %w", err)
	}

	e := &Engine{
		registry:       registry,
		renderer:       renderer,
		server:         server,
		surface:        surface,
		width:          width,
		height:         height,
		lastFrameTime:  time.Now(),
		primaryDisplay: UninitializedDisplay(),
		displays:       map[string]Display{},
	}

	slog.InfoContext(ctx, "engine.Create", "instance", instance, "width", width, "height", height)
	return e, instance, nil
}

// activeConnection returns the single connection this instance is
// currently serving, if any (§1 Non-goals: one connected client at a
// time per instance).
func (e *Engine) activeConnection() *ipc.Connection {
	return e.server.ActiveConnection()
}

// TickIPC drains any buffered incoming client messages, dispatching
// each, and best-effort sends a heartbeat to a connected peer, no more
// often than heartbeatInterval. Accepting new connections happens in
// the background via the server's own accept loop; TickIPC only needs
// to notice whether one has shown up (§4.2, §4.3).
func (e *Engine) TickIPC(ctx context.Context) {
	conn := e.activeConnection()
	if conn == nil {
		return
	}

	if closed, err := conn.Closed(); closed {
		slog.InfoContext(ctx, "engine.TickIPC peer disconnected", "error", err)
		return
	}

	if conn != e.lastHeartbeatConn {
		e.lastHeartbeatConn = conn
		e.lastHeartbeatSent = time.Time{}
	}
	if now := time.Now(); e.lastHeartbeatSent.IsZero() || now.Sub(e.lastHeartbeatSent) >= heartbeatInterval {
		e.lastHeartbeatSent = now
		if err := conn.Send(ipc.Heartbeat{}); err != nil {
			slog.WarnContext(ctx, "engine.TickIPC heartbeat failed", "error", err)
		}
	}

	var dispatchErr error
	decodeErr := conn.DecodeClient(func(msg ipc.ClientMessage) {
		if dispatchErr != nil {
			return
		}
		dispatchErr = e.dispatch(ctx, conn, msg)
	})
	if decodeErr != nil {
		slog.ErrorContext(ctx, "engine.TickIPC decode failed, disconnecting", "error", decodeErr)
		conn.Close()
		return
	}
	if dispatchErr != nil {
		slog.ErrorContext(ctx, "engine.TickIPC dispatch failed", "error", dispatchErr)
	}
}

// DrawFrame polls the renderer for its current size, recreates the
// surface if it changed, runs every module in order with a fresh
// SceneData, then flushes and presents (§4.2 Surface lifecycle).
func (e *Engine) DrawFrame(ctx context.Context) error {
	width, height, err := e.renderer.Size()
	if err != nil {
		return fmt.Errorf("engine: query renderer size: %w", err)
	}

	if width != e.width || height != e.height {
		surface, err := e.renderer.CreateSurface(width, height)
		if err != nil {
			return fmt.Errorf("engine: recreate surface at %dx%d: %w", width, height, err)
		}
		e.surface = surface
		e.width, e.height = width, height
	}

	now := time.Now()
	delta := now.Sub(e.lastFrameTime)
	e.lastFrameTime = now

	canvas := e.surface.Canvas()
	for _, module := range e.modules {
		data := NewSceneData(canvas, e.width, e.height, delta, e.primaryDisplay, e.displays)
		module.RunFrame(data)
	}

	return e.renderer.Present()
}

// UpdateDisplays replaces the display topology, recomputes the primary
// display, and broadcasts UpdateDisplays to any connected peer (§4.2).
func (e *Engine) UpdateDisplays(ctx context.Context, list []Display) {
	primary := UninitializedDisplay()
	found := false
	for _, d := range list {
		if d.Primary {
			primary = d
			found = true
			break
		}
	}
	if !found && len(list) > 0 {
		primary = list[0]
	}

	displays := make(map[string]Display, len(list))
	for _, d := range list {
		displays[d.ID] = d
	}

	e.primaryDisplay = primary
	e.displays = displays

	if conn := e.activeConnection(); conn != nil {
		wire := make([]ipc.Display, len(list))
		for i, d := range list {
			wire[i] = d.toIPC()
		}
		if err := conn.Send(ipc.UpdateDisplays{Displays: wire}); err != nil {
			slog.WarnContext(ctx, "engine.UpdateDisplays broadcast failed", "error", err)
		}
	}
}

// Modules returns the current ordered module list.
func (e *Engine) Modules() []Container { return e.modules }

// ReplaceModules installs a new ordered module list wholesale, used by
// LoadFromDisk callers.
func (e *Engine) ReplaceModules(modules []Container) { e.modules = modules }

// Shutdown tears down the IPC server.
func (e *Engine) Shutdown() error {
	return e.server.Shutdown()
}
