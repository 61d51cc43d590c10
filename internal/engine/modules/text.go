package modules

import (
	"github.com/banksean/snowland/internal/engine"
	"github.com/banksean/snowland/internal/ipc"
)

const textTypeName = "Text"

// TextConfig draws a fixed string with a configured font and paint at a
// module position - the same Position/Paint/Font shape Image and
// Countdown use. Grounded on
// original_source/core/src/scene/module/countdown.rs's sibling struct
// shape, since the built-in modules share one positioning/paint/font
// vocabulary rather than each module inventing its own.
type TextConfig struct {
	Position engine.ModulePosition
	Value    string
	Paint    engine.Paint
	Font     engine.FontSetting
}

func defaultTextConfigFactory(fonts engine.FontFactory) func() TextConfig {
	return func() TextConfig {
		return TextConfig{Value: "Custom text", Paint: engine.DefaultPaint(), Font: engine.DefaultFont(fonts)}
	}
}

type textRenderer struct{}

func newTextRenderer() engine.Renderer[TextConfig] { return textRenderer{} }

func (textRenderer) Render(config TextConfig, data *engine.SceneData) {
	if config.Font.Font == nil {
		return
	}

	width, height := config.Font.Font.Measure(config.Value, config.Paint)

	x, y, ok := config.Position.ComputePositionBaselined(data, int32(width), int32(height))
	if !ok {
		return
	}

	data.Canvas().DrawString(config.Value, float32(x), float32(y), config.Font.Font, config.Paint)
}

const (
	textFieldPosition = "position"
	textFieldValue    = "value"
	textFieldPaint    = "paint"
	textFieldFont     = "font"
)

func textConfigToStructure(c TextConfig) (ipc.Structure, error) {
	obj := ipc.NewOrderedObject()
	obj.Set(textFieldPosition, c.Position.ToStructure())
	obj.Set(textFieldValue, ipc.StringValue(c.Value))
	obj.Set(textFieldPaint, engine.PaintToStructure(c.Paint))
	// font carries no content of its own, same as Countdown's - see
	// engine.FontSetting's doc comment.
	obj.Set(textFieldFont, ipc.ObjectValue(ipc.NewOrderedObject()))
	return ipc.ObjectValue(obj), nil
}

func textConfigFromStructureFactory(fonts engine.FontFactory) func(ipc.Structure) (TextConfig, error) {
	return func(s ipc.Structure) (TextConfig, error) {
		posVal, ok := lookupField(s, textFieldPosition)
		if !ok {
			return TextConfig{}, fieldError(textTypeName, textFieldPosition)
		}
		position, err := engine.ModulePositionFromStructure(posVal)
		if err != nil {
			return TextConfig{}, err
		}

		value, err := stringField(s, textTypeName, textFieldValue)
		if err != nil {
			return TextConfig{}, err
		}

		paintVal, ok := lookupField(s, textFieldPaint)
		if !ok {
			return TextConfig{}, fieldError(textTypeName, textFieldPaint)
		}
		paint, err := engine.PaintFromStructure(paintVal)
		if err != nil {
			return TextConfig{}, err
		}

		return TextConfig{Position: position, Value: value, Paint: paint, Font: engine.DefaultFont(fonts)}, nil
	}
}

func newTextFactory(fonts engine.FontFactory) engine.Factory {
	return engine.NewFactory(textTypeName, newTextRenderer, defaultTextConfigFactory(fonts), textConfigToStructure, textConfigFromStructureFactory(fonts))
}
