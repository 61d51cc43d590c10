package modules

import (
	"fmt"
	"time"

	"github.com/banksean/snowland/internal/engine"
	"github.com/banksean/snowland/internal/ipc"
)

const countdownTypeName = "Countdown"

// CountdownConfig draws a "time remaining until target" string.
// Grounded on original_source/core/src/scene/module/countdown.rs.
type CountdownConfig struct {
	Position engine.ModulePosition
	Target   int64 // epoch milliseconds
	Paint    engine.Paint
	Font     engine.FontSetting
}

func defaultCountdownConfigFactory(fonts engine.FontFactory) func() CountdownConfig {
	return func() CountdownConfig {
		return CountdownConfig{Paint: engine.DefaultPaint(), Font: engine.DefaultFont(fonts)}
	}
}

func pluralize(value int64, one, other string) string {
	if value == 1 {
		return one
	}
	return other
}

func makeCountdownString(target time.Time) string {
	diff := time.Until(target)

	days := int64(diff / (24 * time.Hour))
	hours := int64(diff/time.Hour) % 24
	minutes := int64(diff/time.Minute) % 60
	seconds := int64(diff/time.Second) % 60

	return fmt.Sprintf(
		"%03d %s %02d %s %02d %s and %02d %s",
		days, pluralize(days, "day, ", "days,"),
		hours, pluralize(hours, "hour, ", "hours,"),
		minutes, pluralize(minutes, "minute ", "minutes"),
		seconds, pluralize(seconds, "second ", "seconds"),
	)
}

type countdownRenderer struct{}

func newCountdownRenderer() engine.Renderer[CountdownConfig] { return countdownRenderer{} }

func (countdownRenderer) Render(config CountdownConfig, data *engine.SceneData) {
	if config.Font.Font == nil {
		return
	}

	target := time.UnixMilli(config.Target)
	value := makeCountdownString(target)

	width, height := config.Font.Font.Measure(value, config.Paint)

	x, y, ok := config.Position.ComputePositionBaselined(data, int32(width), int32(height))
	if !ok {
		return
	}

	data.Canvas().DrawString(value, float32(x), float32(y), config.Font.Font, config.Paint)
}

const (
	countdownFieldPosition = "position"
	countdownFieldTarget   = "target"
	countdownFieldPaint    = "paint"
	countdownFieldFont     = "font"
)

func countdownConfigToStructure(c CountdownConfig) (ipc.Structure, error) {
	obj := ipc.NewOrderedObject()
	obj.Set(countdownFieldPosition, c.Position.ToStructure())
	obj.Set(countdownFieldTarget, ipc.NegInt(c.Target))
	obj.Set(countdownFieldPaint, engine.PaintToStructure(c.Paint))
	// font carries no content of its own - FontSetting's loaded platform
	// Font handle can't round-trip through Structure - but the key is
	// still present so the wire shape matches countdown.rs's four-field
	// struct.
	obj.Set(countdownFieldFont, ipc.ObjectValue(ipc.NewOrderedObject()))
	return ipc.ObjectValue(obj), nil
}

func countdownConfigFromStructureFactory(fonts engine.FontFactory) func(ipc.Structure) (CountdownConfig, error) {
	return func(s ipc.Structure) (CountdownConfig, error) {
		posVal, ok := lookupField(s, countdownFieldPosition)
		if !ok {
			return CountdownConfig{}, fieldError(countdownTypeName, countdownFieldPosition)
		}
		position, err := engine.ModulePositionFromStructure(posVal)
		if err != nil {
			return CountdownConfig{}, err
		}

		target, err := intField(s, countdownTypeName, countdownFieldTarget)
		if err != nil {
			return CountdownConfig{}, err
		}

		paintVal, ok := lookupField(s, countdownFieldPaint)
		if !ok {
			return CountdownConfig{}, fieldError(countdownTypeName, countdownFieldPaint)
		}
		paint, err := engine.PaintFromStructure(paintVal)
		if err != nil {
			return CountdownConfig{}, err
		}

		return CountdownConfig{Position: position, Target: target, Paint: paint, Font: engine.DefaultFont(fonts)}, nil
	}
}

func newCountdownFactory(fonts engine.FontFactory) engine.Factory {
	return engine.NewFactory(countdownTypeName, newCountdownRenderer, defaultCountdownConfigFactory(fonts), countdownConfigToStructure, countdownConfigFromStructureFactory(fonts))
}
