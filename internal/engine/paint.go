package engine

import (
	"fmt"

	"github.com/banksean/snowland/internal/ipc"
)

// numericValue reads a Structure's value as a float64 regardless of
// which numeric Kind it was encoded as (PosInt/NegInt/Float), since
// Structure.Equal already treats those as interchangeable and the wire
// codec is free to pick whichever fits (§8, invariant 4).
func numericValue(s ipc.Structure) (float64, bool) {
	switch s.Kind {
	case ipc.KindPosInt:
		return float64(s.PosInt), true
	case ipc.KindNegInt:
		return float64(s.NegInt), true
	case ipc.KindFloat:
		return s.Float, true
	default:
		return 0, false
	}
}

// ColorToStructure serializes a Color as a four-element [r, g, b, a]
// array, matching ColorSetting's hand-written Serialize
// (serialize_seq of the four Color4f components).
func ColorToStructure(c Color) ipc.Structure {
	return ipc.ArrayValue([]ipc.Structure{
		ipc.FloatValue(float64(c.R)),
		ipc.FloatValue(float64(c.G)),
		ipc.FloatValue(float64(c.B)),
		ipc.FloatValue(float64(c.A)),
	})
}

// ColorFromStructure is the inverse of ColorToStructure, matching
// ColorSetting's hand-written Deserialize (visit_seq requiring exactly
// four elements).
func ColorFromStructure(s ipc.Structure) (Color, error) {
	if s.Kind != ipc.KindArray {
		return Color{}, fmt.Errorf("engine: color must be an array")
	}
	if len(s.Arr) != 4 {
		return Color{}, fmt.Errorf("engine: color array must have exactly 4 elements, got %d", len(s.Arr))
	}

	component := func(i int, name string) (float32, error) {
		v, ok := numericValue(s.Arr[i])
		if !ok {
			return 0, fmt.Errorf("engine: color component %q (index %d) is not a number", name, i)
		}
		return float32(v), nil
	}

	r, err := component(0, "r")
	if err != nil {
		return Color{}, err
	}
	g, err := component(1, "g")
	if err != nil {
		return Color{}, err
	}
	b, err := component(2, "b")
	if err != nil {
		return Color{}, err
	}
	a, err := component(3, "a")
	if err != nil {
		return Color{}, err
	}

	return Color{R: r, G: g, B: b, A: a}, nil
}

const (
	paintFieldColor     = "color"
	paintFieldAntiAlias = "anti_alias"
	paintFieldDither    = "dither"
	paintFieldStroke    = "stroke"

	strokeFieldWidth = "width"
	strokeFieldMiter = "miter"
)

// PaintToStructure serializes a Paint with the exact field set and
// order PaintSetting's hand-written Serialize produces: color,
// anti_alias, dither, stroke (stroke is Null when the paint is fill
// style).
func PaintToStructure(p Paint) ipc.Structure {
	obj := ipc.NewOrderedObject()
	obj.Set(paintFieldColor, ColorToStructure(p.Color))
	obj.Set(paintFieldAntiAlias, ipc.BoolValue(p.AntiAlias))
	obj.Set(paintFieldDither, ipc.BoolValue(p.Dither))

	if p.Stroke != nil {
		strokeObj := ipc.NewOrderedObject()
		strokeObj.Set(strokeFieldWidth, ipc.FloatValue(float64(p.Stroke.Width)))
		strokeObj.Set(strokeFieldMiter, ipc.FloatValue(float64(p.Stroke.Miter)))
		obj.Set(paintFieldStroke, ipc.ObjectValue(strokeObj))
	} else {
		obj.Set(paintFieldStroke, ipc.Null())
	}

	return ipc.ObjectValue(obj)
}

// PaintFromStructure is the inverse of PaintToStructure, following
// PaintSetting's hand-written Deserialize: it rejects unknown field
// names and missing required fields (color/anti_alias/dither; stroke is
// optional). The duplicate check over Keys() never fires for a
// Structure built through OrderedObject.Set, which keeps one entry per
// key, so a key repeated in JSON or msgpack input is not reported.
func PaintFromStructure(s ipc.Structure) (Paint, error) {
	if s.Kind != ipc.KindObject || s.Obj == nil {
		return Paint{}, fmt.Errorf("engine: paint setting must be an object")
	}

	seen := make(map[string]bool, s.Obj.Len())
	for _, key := range s.Obj.Keys() {
		if seen[key] {
			return Paint{}, fmt.Errorf("engine: paint setting has duplicate field %q", key)
		}
		seen[key] = true

		switch key {
		case paintFieldColor, paintFieldAntiAlias, paintFieldDither, paintFieldStroke:
			// known field
		default:
			return Paint{}, fmt.Errorf("engine: paint setting has unknown field %q", key)
		}
	}

	colorVal, ok := s.Obj.Get(paintFieldColor)
	if !ok {
		return Paint{}, fmt.Errorf("engine: paint setting missing field %q", paintFieldColor)
	}
	color, err := ColorFromStructure(colorVal)
	if err != nil {
		return Paint{}, err
	}

	antiAliasVal, ok := s.Obj.Get(paintFieldAntiAlias)
	if !ok || antiAliasVal.Kind != ipc.KindBool {
		return Paint{}, fmt.Errorf("engine: paint setting missing field %q", paintFieldAntiAlias)
	}

	ditherVal, ok := s.Obj.Get(paintFieldDither)
	if !ok || ditherVal.Kind != ipc.KindBool {
		return Paint{}, fmt.Errorf("engine: paint setting missing field %q", paintFieldDither)
	}

	var stroke *Stroke
	if strokeVal, ok := s.Obj.Get(paintFieldStroke); ok && strokeVal.Kind == ipc.KindObject && strokeVal.Obj != nil {
		widthVal, ok := strokeVal.Obj.Get(strokeFieldWidth)
		if !ok {
			return Paint{}, fmt.Errorf("engine: stroke setting missing field %q", strokeFieldWidth)
		}
		width, ok := numericValue(widthVal)
		if !ok {
			return Paint{}, fmt.Errorf("engine: stroke field %q is not a number", strokeFieldWidth)
		}

		miterVal, ok := strokeVal.Obj.Get(strokeFieldMiter)
		if !ok {
			return Paint{}, fmt.Errorf("engine: stroke setting missing field %q", strokeFieldMiter)
		}
		miter, ok := numericValue(miterVal)
		if !ok {
			return Paint{}, fmt.Errorf("engine: stroke field %q is not a number", strokeFieldMiter)
		}

		stroke = &Stroke{Width: float32(width), Miter: float32(miter)}
	}

	return Paint{Color: color, AntiAlias: antiAliasVal.Bool, Dither: ditherVal.Bool, Stroke: stroke}, nil
}

// DefaultPaint is white, anti-aliased, fill-style - PaintSetting's
// Default (Paint::new(Color4f::new(1,1,1,1), None) leaves anti_alias
// and dither at skia's own construction-time defaults, which this
// engine pins to the conservative anti_alias=true/dither=false most
// built-in modules actually configure).
func DefaultPaint() Paint {
	return Paint{Color: White, AntiAlias: true, Dither: false}
}
