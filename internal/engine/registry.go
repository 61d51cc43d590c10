package engine

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/banksean/snowland/internal/ipc"
)

// Factory knows how to create a fresh Container of one module kind,
// either with default configuration or by deserializing one from a
// Structure. It is the Go-generics stand-in for the source's
// ModuleWrapper (type-erased creator + deserializer pair).
type Factory interface {
	TypeName() string
	CreateDefault() Container
	CreateFromStructure(ipc.Structure) (Container, error)
}

type typedFactory[C any] struct {
	typeName      string
	newRenderer   func() Renderer[C]
	defaultConfig func() C
	toStructure   func(C) (ipc.Structure, error)
	fromStructure func(ipc.Structure) (C, error)
}

func (f *typedFactory[C]) TypeName() string { return f.typeName }

func (f *typedFactory[C]) CreateDefault() Container {
	return newTypedContainer(f.typeName, f.newRenderer(), f.defaultConfig(), f.toStructure, f.fromStructure)
}

func (f *typedFactory[C]) CreateFromStructure(s ipc.Structure) (Container, error) {
	cfg, err := f.fromStructure(s)
	if err != nil {
		return nil, err
	}
	return newTypedContainer(f.typeName, f.newRenderer(), cfg, f.toStructure, f.fromStructure), nil
}

// NewFactory builds a Factory for one module kind. Called once per kind
// at process startup by modules.Register.
func NewFactory[C any](typeName string, newRenderer func() Renderer[C], defaultConfig func() C, toStructure func(C) (ipc.Structure, error), fromStructure func(ipc.Structure) (C, error)) Factory {
	return &typedFactory[C]{
		typeName:      typeName,
		newRenderer:   newRenderer,
		defaultConfig: defaultConfig,
		toStructure:   toStructure,
		fromStructure: fromStructure,
	}
}

// Registry is the process-wide table of known module kinds, keyed by
// type name. Grounded on the teacher's pool.ContainerPool (a
// mutex-guarded, process-wide table of managed objects) generalized
// from pooled sandbox connections to module-kind factories - this table
// is read-heavy and populated once at startup, so there is no pooling
// behavior left to carry over, only the "single guarded map, logged
// operations" shape.
type Registry struct {
	mu    sync.RWMutex
	kinds map[string]Factory
}

// NewRegistry creates an empty Registry. Built-in kinds are added via
// Register when the daemon starts (modules.Register).
func NewRegistry() *Registry {
	return &Registry{kinds: make(map[string]Factory)}
}

// Register adds a module kind. Registering the same type name twice is
// a programming error and panics, matching the source's
// HashMap::insert-at-startup pattern (collisions there would silently
// overwrite, which is worse).
func (r *Registry) Register(f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.kinds[f.TypeName()]; exists {
		panic(fmt.Sprintf("engine: module kind %q registered twice", f.TypeName()))
	}
	r.kinds[f.TypeName()] = f
	slog.Debug("registered module kind", "type", f.TypeName())
}

// Lookup finds a registered kind by name.
func (r *Registry) Lookup(typeName string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.kinds[typeName]
	return f, ok
}

// Names returns every registered kind name, in no particular order,
// for diagnostics.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.kinds))
	for name := range r.kinds {
		names = append(names, name)
	}
	return names
}
