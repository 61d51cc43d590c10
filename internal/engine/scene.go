package engine

import "time"

// Color is an RGBA color with float components in [0, 1], matching the
// source's Color4f.
type Color struct {
	R, G, B, A float32
}

// White is the default paint/text color used throughout the built-in
// modules, matching the source's Color4f::new(1.0, 1.0, 1.0, 1.0)
// defaults.
var White = Color{R: 1, G: 1, B: 1, A: 1}

// Stroke is an optional paint stroke spec; its absence means fill
// style (§3).
type Stroke struct {
	Width float32
	Miter float32
}

// Paint bundles the drawing attributes a module hands to the Canvas.
type Paint struct {
	Color      Color
	AntiAlias  bool
	Dither     bool
	Stroke     *Stroke
}

// Font is an opaque handle to a loaded, sized typeface. The platform
// adapter is responsible for shaping and measuring text; Snowland only
// ever asks it to do so through this interface (§1's "embedded UI
// toolkit"/"platform graphics backend" are out of scope, the font
// system is the one sliver of that backend the engine must call into
// directly to lay out text).
type Font interface {
	// Measure returns the bounding box width/height a rendered string
	// would occupy with the given paint.
	Measure(s string, paint Paint) (width, height float32)
}

// Image is an opaque handle to a decoded raster image.
type Image interface {
	Width() int
	Height() int
}

// Canvas is the drawing surface a module renders onto for one frame.
// It is the external collaborator seam standing in for skia_safe's
// Canvas (§1 Non-goals: the platform graphics backend is out of scope,
// specified only as the interface it presents).
type Canvas interface {
	Clear(c Color)
	DrawCircle(x, y, radius float32, paint Paint)
	DrawString(s string, x, y float32, font Font, paint Paint)
	DrawImage(img Image, x, y int, paint *Paint)
}

// SceneData is the per-frame context handed to every module's
// RunFrame. Grounded on core::rendering::mod.rs's render_frame, which
// constructs one SceneData per module per frame from the same
// canvas/displays/size/delta.
type SceneData struct {
	canvas Canvas

	width, height int32
	delta         time.Duration

	primaryDisplay Display
	displays       map[string]Display
}

// NewSceneData constructs the per-frame context.
func NewSceneData(canvas Canvas, width, height int32, delta time.Duration, primary Display, displays map[string]Display) *SceneData {
	return &SceneData{canvas: canvas, width: width, height: height, delta: delta, primaryDisplay: primary, displays: displays}
}

func (d *SceneData) Width() int32            { return d.width }
func (d *SceneData) Height() int32           { return d.height }
func (d *SceneData) Delta() time.Duration    { return d.delta }
func (d *SceneData) Canvas() Canvas          { return d.canvas }
func (d *SceneData) PrimaryDisplay() Display { return d.primaryDisplay }

// LookupDisplay finds a display by its stable id.
func (d *SceneData) LookupDisplay(id string) (Display, bool) {
	disp, ok := d.displays[id]
	return disp, ok
}
