package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/banksean/snowland/internal/ipc"
)

// persistedDocument is the on-disk modules.json shape: a single array
// field, each element the module's type name plus its own
// serialization output (§3, Persistence format).
type persistedDocument struct {
	Modules []persistedModule `json:"modules"`
}

type persistedModule struct {
	TypeName string        `json:"ty"`
	Config   ipc.Structure `json:"config"`
}

// LoadFromDisk reads a modules.json document and instantiates every
// entry the registry recognizes. Entries with an unknown type name or
// a configuration that fails to deserialize are logged and skipped -
// one bad module must never prevent the rest of the scene from loading
// (§3, §9 Open Question 1).
func LoadFromDisk(ctx context.Context, registry *Registry, path string) ([]Container, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("engine: read %s: %w", path, err)
	}

	var doc persistedDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("engine: parse %s: %w", path, err)
	}

	containers := make([]Container, 0, len(doc.Modules))
	for i, entry := range doc.Modules {
		factory, ok := registry.Lookup(entry.TypeName)
		if !ok {
			slog.ErrorContext(ctx, "engine.LoadFromDisk skipping unknown module type", "index", i, "type", entry.TypeName)
			continue
		}

		container, err := factory.CreateFromStructure(entry.Config)
		if err != nil {
			slog.ErrorContext(ctx, "engine.LoadFromDisk skipping module with invalid configuration", "index", i, "type", entry.TypeName, "error", err)
			continue
		}

		containers = append(containers, container)
	}

	slog.InfoContext(ctx, "engine.LoadFromDisk", "path", path, "loaded", len(containers), "total", len(doc.Modules))
	return containers, nil
}

// SaveToDisk writes the current module list out as a modules.json
// document. A module whose configuration fails to serialize is logged
// and omitted rather than aborting the whole save.
func SaveToDisk(ctx context.Context, containers []Container, path string) error {
	doc := persistedDocument{Modules: make([]persistedModule, 0, len(containers))}

	for i, c := range containers {
		cfg, err := c.SerializeConfig()
		if err != nil {
			slog.ErrorContext(ctx, "engine.SaveToDisk skipping module that failed to serialize", "index", i, "type", c.TypeName(), "error", err)
			continue
		}
		doc.Modules = append(doc.Modules, persistedModule{TypeName: c.TypeName(), Config: cfg})
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("engine: marshal modules document: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("engine: write %s: %w", path, err)
	}

	slog.InfoContext(ctx, "engine.SaveToDisk", "path", path, "saved", len(doc.Modules))
	return nil
}
