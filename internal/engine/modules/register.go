package modules

import "github.com/banksean/snowland/internal/engine"

// Register adds every built-in module kind to registry. Grounded on
// original_source/core/src/scene/module/known.rs's KNOWN_MODULES static
// map, which inserts the same five kinds by name at process startup.
func Register(registry *engine.Registry, fonts engine.FontFactory) {
	registry.Register(newClearFactory())
	registry.Register(newTextFactory(fonts))
	registry.Register(newSnowFactory())
	registry.Register(newImageFactory())
	registry.Register(newCountdownFactory(fonts))
}
