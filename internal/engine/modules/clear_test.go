package modules

import (
	"testing"

	"github.com/banksean/snowland/internal/engine"
	"github.com/banksean/snowland/internal/ipc"
)

func TestClearRendererClearsCanvas(t *testing.T) {
	surface := &engine.FakeSurface{}
	data := engine.NewSceneData(surface, 100, 100, 0, engine.Display{}, nil)

	config := ClearConfig{Color: engine.Color{R: 0.1, G: 0.2, B: 0.3, A: 1}}
	newClearRenderer().Render(config, data)

	if surface.ClearedWith != config.Color {
		t.Fatalf("ClearedWith = %+v, want %+v", surface.ClearedWith, config.Color)
	}
}

func TestClearConfigRoundTrip(t *testing.T) {
	config := ClearConfig{Color: engine.Color{R: 1, G: 0.5, B: 0, A: 0.8}}

	s, err := clearConfigToStructure(config)
	if err != nil {
		t.Fatalf("clearConfigToStructure: %v", err)
	}

	got, err := clearConfigFromStructure(s)
	if err != nil {
		t.Fatalf("clearConfigFromStructure: %v", err)
	}
	if got != config {
		t.Fatalf("round trip = %+v, want %+v", got, config)
	}
}

func TestClearConfigFromStructureMissingColor(t *testing.T) {
	_, err := clearConfigFromStructure(ipc.ObjectValue(ipc.NewOrderedObject()))
	if err == nil {
		t.Fatal("expected an error for a missing color field")
	}
}

func TestClearFactoryDefaultIsOpaqueBlack(t *testing.T) {
	factory := newClearFactory()
	container := factory.CreateDefault()

	cfg, err := container.SerializeConfig()
	if err != nil {
		t.Fatalf("SerializeConfig: %v", err)
	}

	want := clearConfigToStructureMust(t, defaultClearConfig())
	if !cfg.Equal(want) {
		t.Fatalf("default config = %+v, want %+v", cfg, want)
	}
}

func clearConfigToStructureMust(t *testing.T, c ClearConfig) ipc.Structure {
	t.Helper()
	s, err := clearConfigToStructure(c)
	if err != nil {
		t.Fatalf("clearConfigToStructure: %v", err)
	}
	return s
}
