package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/goombaio/namegenerator"

	"github.com/banksean/snowland/internal/ipc"
)

// dispatch services one ClientMessage, mutating the module list /
// display topology as needed and replying over conn where the message
// calls for a reply. Grounded on RendererContainer's replace_modules /
// reorder_modules / replace_module_configuration plus the Mux's
// query/reply handling in mux_server.go, generalized into the six
// message variants (§4.2 Message dispatch).
func (e *Engine) dispatch(ctx context.Context, conn *ipc.Connection, msg ipc.ClientMessage) error {
	switch m := msg.(type) {
	case ipc.QueryConfiguration:
		return e.handleQueryConfiguration(ctx, conn)
	case ipc.QueryDisplays:
		return e.handleQueryDisplays(ctx, conn)
	case ipc.ReorderModules:
		e.handleReorderModules(ctx, m)
		return nil
	case ipc.ChangeConfiguration:
		e.handleChangeConfiguration(ctx, m)
		return nil
	case ipc.AddModule:
		e.handleAddModule(ctx, m)
		return nil
	case ipc.RemoveModule:
		e.handleRemoveModule(ctx, m)
		return nil
	default:
		return fmt.Errorf("engine: dispatch: unhandled message type %T", msg)
	}
}

// handleQueryConfiguration collects (type_name, serialize_config()) for
// every container and replies UpdateConfiguration. A container that
// fails to serialize is logged and skipped rather than aborting the
// reply (§9 Open Question 1).
func (e *Engine) handleQueryConfiguration(ctx context.Context, conn *ipc.Connection) error {
	modules := make([]ipc.InstalledModule, 0, len(e.modules))
	for _, c := range e.modules {
		cfg, err := c.SerializeConfig()
		if err != nil {
			slog.ErrorContext(ctx, "engine.dispatch QueryConfiguration: skipping module", "type", c.TypeName(), "error", err)
			continue
		}
		modules = append(modules, ipc.InstalledModule{TypeName: c.TypeName(), Configuration: cfg})
	}

	return conn.Send(ipc.UpdateConfiguration{Configuration: ipc.Configuration{Modules: modules}})
}

// handleQueryDisplays replies with the current display topology.
func (e *Engine) handleQueryDisplays(ctx context.Context, conn *ipc.Connection) error {
	displays := make([]ipc.Display, 0, len(e.displays))
	for _, d := range e.displays {
		displays = append(displays, d.toIPC())
	}
	return conn.Send(ipc.UpdateDisplays{Displays: displays})
}

// handleReorderModules removes at old_index and inserts at new_index.
// Out-of-range indices are an error and no change is applied.
func (e *Engine) handleReorderModules(ctx context.Context, m ipc.ReorderModules) {
	n := len(e.modules)
	if m.OldIndex < 0 || m.OldIndex >= n || m.NewIndex < 0 || m.NewIndex >= n {
		slog.ErrorContext(ctx, "engine.dispatch ReorderModules: index out of range", "old_index", m.OldIndex, "new_index", m.NewIndex, "count", n)
		return
	}

	moved := e.modules[m.OldIndex]
	without := make([]Container, 0, n-1)
	without = append(without, e.modules[:m.OldIndex]...)
	without = append(without, e.modules[m.OldIndex+1:]...)

	reordered := make([]Container, 0, n)
	reordered = append(reordered, without[:m.NewIndex]...)
	reordered = append(reordered, moved)
	reordered = append(reordered, without[m.NewIndex:]...)

	e.modules = reordered
}

// handleChangeConfiguration calls update_config on the target
// container. On error it logs; the module is neither reordered nor
// dropped.
func (e *Engine) handleChangeConfiguration(ctx context.Context, m ipc.ChangeConfiguration) {
	if m.ModuleIndex < 0 || m.ModuleIndex >= len(e.modules) {
		slog.ErrorContext(ctx, "engine.dispatch ChangeConfiguration: index out of range", "module_index", m.ModuleIndex, "count", len(e.modules))
		return
	}

	if err := e.modules[m.ModuleIndex].UpdateConfig(m.NewConfiguration); err != nil {
		slog.ErrorContext(ctx, "engine.dispatch ChangeConfiguration: update failed", "module_index", m.ModuleIndex, "type", e.modules[m.ModuleIndex].TypeName(), "error", err)
	}
}

// handleAddModule looks the type name up in the registry and appends a
// container built from its default configuration. An unknown type name
// is an error.
func (e *Engine) handleAddModule(ctx context.Context, m ipc.AddModule) {
	factory, ok := e.registry.Lookup(m.TypeName)
	if !ok {
		slog.ErrorContext(ctx, "engine.dispatch AddModule: unknown module type", "type", m.TypeName)
		return
	}

	e.modules = append(e.modules, factory.CreateDefault())

	// No wire field carries a friendly name for a module instance - this
	// is purely a log-correlation aid, the same role namegenerator plays
	// assigning a sandbox ID in cmd/sand/new_cmd.go.
	label := namegenerator.NewNameGenerator(time.Now().UTC().UnixNano()).Generate()
	slog.InfoContext(ctx, "engine.dispatch AddModule", "type", m.TypeName, "label", label, "index", len(e.modules)-1)
}

// handleRemoveModule removes the module at index; out-of-range is a
// no-op with a warning.
func (e *Engine) handleRemoveModule(ctx context.Context, m ipc.RemoveModule) {
	if m.Index < 0 || m.Index >= len(e.modules) {
		slog.WarnContext(ctx, "engine.dispatch RemoveModule: index out of range", "index", m.Index, "count", len(e.modules))
		return
	}

	e.modules = append(e.modules[:m.Index], e.modules[m.Index+1:]...)
}
