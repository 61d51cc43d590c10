package headless

import "github.com/banksean/snowland/internal/engine"

// font is an engine.Font that estimates a monospace bounding box
// instead of shaping real glyphs - the font system is the one sliver
// of the platform graphics backend the engine calls into directly
// (engine.Font's doc comment), and this is its headless stand-in.
type font struct {
	size float32
}

func (f font) Measure(s string, paint engine.Paint) (width, height float32) {
	glyphWidth := f.size * 0.6
	return float32(len([]rune(s))) * glyphWidth, f.size
}

// FontFactory is an engine.FontFactory returning the monospace
// estimator at a fixed default size.
type FontFactory struct {
	DefaultSize float32
}

// NewFontFactory returns a FontFactory sized like the embedded
// NotoSansMono default (32pt).
func NewFontFactory() *FontFactory {
	return &FontFactory{DefaultSize: 32}
}

func (f *FontFactory) Default() engine.Font {
	return font{size: f.DefaultSize}
}
