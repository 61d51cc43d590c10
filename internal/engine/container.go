package engine

import (
	"fmt"

	"github.com/banksean/snowland/internal/ipc"
)

// Renderer is implemented by every module kind: given its own typed
// configuration and the current SceneData, draw whatever the module
// draws this frame.
type Renderer[C any] interface {
	Render(config C, data *SceneData)
}

// Container type-erases a module's (renderer, config) pair behind a
// fixed capability set, the Go-generics analogue of the source's
// `Box<dyn ModuleContainer>` trait object (§9: "implementers may use
// closed sum types ... or an open dispatch table keyed by kind name").
type Container interface {
	// TypeName is the registered kind name this container was created
	// from (e.g. "Snow", "Countdown").
	TypeName() string

	// SerializeConfig returns the container's current configuration as
	// a Structure, suitable for sending in UpdateConfiguration or
	// writing to modules.json.
	SerializeConfig() (ipc.Structure, error)

	// UpdateConfig replaces the container's configuration from a
	// Structure decoded off the wire or read from disk.
	UpdateConfig(ipc.Structure) error

	// RunFrame renders one frame of this module.
	RunFrame(data *SceneData)
}

// typedContainer is the only implementation of Container; one instance
// exists per (Config, Renderer) pair registered under NewFactory.
type typedContainer[C any] struct {
	typeName string
	renderer Renderer[C]
	config   C

	toStructure func(C) (ipc.Structure, error)
	fromStructure func(ipc.Structure) (C, error)
}

func newTypedContainer[C any](typeName string, renderer Renderer[C], config C, toStructure func(C) (ipc.Structure, error), fromStructure func(ipc.Structure) (C, error)) *typedContainer[C] {
	return &typedContainer[C]{
		typeName:      typeName,
		renderer:      renderer,
		config:        config,
		toStructure:   toStructure,
		fromStructure: fromStructure,
	}
}

func (c *typedContainer[C]) TypeName() string { return c.typeName }

func (c *typedContainer[C]) SerializeConfig() (ipc.Structure, error) {
	s, err := c.toStructure(c.config)
	if err != nil {
		return ipc.Structure{}, fmt.Errorf("engine: serialize %s configuration: %w", c.typeName, err)
	}
	return s, nil
}

func (c *typedContainer[C]) UpdateConfig(s ipc.Structure) error {
	cfg, err := c.fromStructure(s)
	if err != nil {
		return fmt.Errorf("engine: deserialize %s configuration: %w", c.typeName, err)
	}
	c.config = cfg
	return nil
}

func (c *typedContainer[C]) RunFrame(data *SceneData) {
	c.renderer.Render(c.config, data)
}
