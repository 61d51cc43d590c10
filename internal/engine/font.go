package engine

// FontSetting's loaded platform Font handle is deliberately excluded
// from a module's persisted/wire configuration: the source marks its
// equivalent field `#[serde(skip, default = "make_default_font")]`
// because a Font handle can't round-trip through JSON, and always
// reconstructs it from the embedded default typeface on load. Modules
// that persist a font key still do so for wire-shape parity with that
// struct - the key's value is always an empty placeholder, and
// FromStructure always calls DefaultFont rather than reading it back.
type FontSetting struct {
	Font Font
}

// DefaultFont asks the renderer-supplied Font factory for the built-in
// embedded typeface at the default size, matching
// fonts::load_embedded_font(fonts::Font::NotoSansMono) at 32pt.
func DefaultFont(factory FontFactory) FontSetting {
	if factory == nil {
		return FontSetting{}
	}
	return FontSetting{Font: factory.Default()}
}

// FontFactory is the external collaborator that loads and sizes fonts;
// the engine never reads font files itself (§1 Non-goals: manifest/
// resource bundling is out of scope).
type FontFactory interface {
	Default() Font
}
