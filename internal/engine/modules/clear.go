package modules

import (
	"github.com/banksean/snowland/internal/engine"
	"github.com/banksean/snowland/internal/ipc"
)

const clearTypeName = "Clear"

// ClearConfig fills the whole canvas with a flat color, covering
// whatever modules earlier in the list drew this frame. Grounded on
// original_source/universal/src/scene/module/clear.rs.
type ClearConfig struct {
	Color engine.Color
}

func defaultClearConfig() ClearConfig {
	return ClearConfig{Color: engine.Color{A: 1}}
}

type clearRenderer struct{}

func newClearRenderer() engine.Renderer[ClearConfig] { return clearRenderer{} }

func (clearRenderer) Render(config ClearConfig, data *engine.SceneData) {
	data.Canvas().Clear(config.Color)
}

const clearFieldColor = "color"

func clearConfigToStructure(c ClearConfig) (ipc.Structure, error) {
	obj := ipc.NewOrderedObject()
	obj.Set(clearFieldColor, engine.ColorToStructure(c.Color))
	return ipc.ObjectValue(obj), nil
}

func clearConfigFromStructure(s ipc.Structure) (ClearConfig, error) {
	colorVal, ok := lookupField(s, clearFieldColor)
	if !ok {
		return ClearConfig{}, fieldError(clearTypeName, clearFieldColor)
	}
	color, err := engine.ColorFromStructure(colorVal)
	if err != nil {
		return ClearConfig{}, err
	}
	return ClearConfig{Color: color}, nil
}

func newClearFactory() engine.Factory {
	return engine.NewFactory(clearTypeName, newClearRenderer, defaultClearConfig, clearConfigToStructure, clearConfigFromStructure)
}
