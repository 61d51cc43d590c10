package engine

import (
	"fmt"

	"github.com/banksean/snowland/internal/ipc"
)

// HorizontalAnchor selects where a module sits along the horizontal axis
// of the available area.
type HorizontalAnchor int

const (
	HorizontalLeft HorizontalAnchor = iota
	HorizontalCenter
	HorizontalRight
)

// Compute returns the x offset for available width and content width.
func (a HorizontalAnchor) Compute(available, value int32) int32 {
	switch a {
	case HorizontalLeft:
		return 0
	case HorizontalCenter:
		return (available - value) / 2
	case HorizontalRight:
		return available - value
	default:
		return 0
	}
}

// VerticalAnchor selects where a module sits along the vertical axis of
// the available area.
type VerticalAnchor int

const (
	VerticalTop VerticalAnchor = iota
	VerticalCenter
	VerticalBottom
)

// Compute returns the y offset for available height and content height.
func (a VerticalAnchor) Compute(available, value int32) int32 {
	switch a {
	case VerticalTop:
		return 0
	case VerticalCenter:
		return (available - value) / 2
	case VerticalBottom:
		return available - value
	default:
		return 0
	}
}

// ComputeBaselined is the text-baseline variant: the origin is the
// glyph baseline, not the top-left of the bounding box, so Top/Center
// measure from the opposite edge.
func (a VerticalAnchor) ComputeBaselined(available, value int32) int32 {
	switch a {
	case VerticalTop:
		return value
	case VerticalCenter:
		return (available / 2) + (value / 2)
	case VerticalBottom:
		return available
	default:
		return value
	}
}

// DisplaySelectionKind picks which of the three DisplaySelection
// variants is active.
type DisplaySelectionKind int

const (
	DisplayNone DisplaySelectionKind = iota
	DisplayPrimary
	DisplayIdentified
)

// DisplaySelection chooses which display's bounds a ModulePosition is
// computed against.
type DisplaySelection struct {
	Kind DisplaySelectionKind
	// ID and Name are only meaningful when Kind == DisplayIdentified.
	ID   string
	Name string
}

// bounds resolves the selection to (width, height, originX, originY),
// or false if an Identified selection names a display that isn't
// currently present (the module silently skips render this frame, per
// §3).
func (s DisplaySelection) bounds(data *SceneData) (width, height, originX, originY int32, ok bool) {
	switch s.Kind {
	case DisplayNone:
		return data.Width(), data.Height(), 0, 0, true
	case DisplayPrimary:
		d := data.PrimaryDisplay()
		return d.Width, d.Height, d.X, d.Y, true
	case DisplayIdentified:
		d, found := data.LookupDisplay(s.ID)
		if !found {
			return 0, 0, 0, 0, false
		}
		return d.Width, d.Height, d.X, d.Y, true
	default:
		return data.Width(), data.Height(), 0, 0, true
	}
}

// ModulePosition carries the anchor pair, display selection, and pixel
// offsets used to place a module's content within the chosen area
// (§3).
type ModulePosition struct {
	Horizontal HorizontalAnchor
	Vertical   VerticalAnchor
	Display    DisplaySelection
	XOffset    int32
	YOffset    int32
}

// ComputePosition resolves the top-left corner a content box of the
// given width/height should be drawn at.
func (p ModulePosition) ComputePosition(data *SceneData, width, height int32) (x, y int32, ok bool) {
	availW, availH, originX, originY, ok := p.Display.bounds(data)
	if !ok {
		return 0, 0, false
	}
	x = originX + p.Horizontal.Compute(availW, width) + p.XOffset
	y = originY + p.Vertical.Compute(availH, height) + p.YOffset
	return x, y, true
}

// ComputePositionBaselined is the text-specific variant used by
// Countdown/Text, where the vertical coordinate is a glyph baseline.
func (p ModulePosition) ComputePositionBaselined(data *SceneData, width, height int32) (x, y int32, ok bool) {
	availW, availH, originX, originY, ok := p.Display.bounds(data)
	if !ok {
		return 0, 0, false
	}
	x = originX + p.Horizontal.Compute(availW, width) + p.XOffset
	y = originY + p.Vertical.ComputeBaselined(availH, height) + p.YOffset
	return x, y, true
}

const (
	anchorLeftName   = "left"
	anchorCenterName = "center"
	anchorRightName  = "right"
	anchorTopName    = "top"
	anchorBottomName = "bottom"

	displayNoneName       = "none"
	displayPrimaryName    = "primary"
	displayIdentifiedName = "identified"
)

func (a HorizontalAnchor) marshalName() string {
	switch a {
	case HorizontalLeft:
		return anchorLeftName
	case HorizontalRight:
		return anchorRightName
	default:
		return anchorCenterName
	}
}

func parseHorizontalAnchor(name string) (HorizontalAnchor, error) {
	switch name {
	case anchorLeftName:
		return HorizontalLeft, nil
	case anchorCenterName:
		return HorizontalCenter, nil
	case anchorRightName:
		return HorizontalRight, nil
	default:
		return 0, fmt.Errorf("engine: unknown horizontal anchor %q", name)
	}
}

func (a VerticalAnchor) marshalName() string {
	switch a {
	case VerticalTop:
		return anchorTopName
	case VerticalBottom:
		return anchorBottomName
	default:
		return anchorCenterName
	}
}

func parseVerticalAnchor(name string) (VerticalAnchor, error) {
	switch name {
	case anchorTopName:
		return VerticalTop, nil
	case anchorCenterName:
		return VerticalCenter, nil
	case anchorBottomName:
		return VerticalBottom, nil
	default:
		return 0, fmt.Errorf("engine: unknown vertical anchor %q", name)
	}
}

// ToStructure serializes a DisplaySelection the way the source's
// `#[serde(tag = ...)]` enum would: a "kind" discriminator plus the
// Identified variant's extra fields.
func (s DisplaySelection) ToStructure() ipc.Structure {
	obj := ipc.NewOrderedObject()
	switch s.Kind {
	case DisplayPrimary:
		obj.Set("kind", ipc.StringValue(displayPrimaryName))
	case DisplayIdentified:
		obj.Set("kind", ipc.StringValue(displayIdentifiedName))
		obj.Set("id", ipc.StringValue(s.ID))
		obj.Set("name", ipc.StringValue(s.Name))
	default:
		obj.Set("kind", ipc.StringValue(displayNoneName))
	}
	return ipc.ObjectValue(obj)
}

func displaySelectionFromStructure(s ipc.Structure) (DisplaySelection, error) {
	if s.Kind != ipc.KindObject || s.Obj == nil {
		return DisplaySelection{}, fmt.Errorf("engine: display selection must be an object")
	}
	kindVal, ok := s.Obj.Get("kind")
	if !ok || kindVal.Kind != ipc.KindString {
		return DisplaySelection{}, fmt.Errorf("engine: display selection missing string field %q", "kind")
	}
	switch kindVal.Str {
	case displayNoneName:
		return DisplaySelection{Kind: DisplayNone}, nil
	case displayPrimaryName:
		return DisplaySelection{Kind: DisplayPrimary}, nil
	case displayIdentifiedName:
		idVal, ok := s.Obj.Get("id")
		if !ok || idVal.Kind != ipc.KindString {
			return DisplaySelection{}, fmt.Errorf("engine: identified display selection missing field %q", "id")
		}
		nameVal, ok := s.Obj.Get("name")
		if !ok || nameVal.Kind != ipc.KindString {
			return DisplaySelection{}, fmt.Errorf("engine: identified display selection missing field %q", "name")
		}
		return DisplaySelection{Kind: DisplayIdentified, ID: idVal.Str, Name: nameVal.Str}, nil
	default:
		return DisplaySelection{}, fmt.Errorf("engine: unknown display selection kind %q", kindVal.Str)
	}
}

// ToStructure serializes a ModulePosition, mirroring the field names
// core::scene::module::part::position::ModulePosition derives.
func (p ModulePosition) ToStructure() ipc.Structure {
	obj := ipc.NewOrderedObject()
	obj.Set("horizontal", ipc.StringValue(p.Horizontal.marshalName()))
	obj.Set("vertical", ipc.StringValue(p.Vertical.marshalName()))
	obj.Set("display", p.Display.ToStructure())
	obj.Set("x_offset", ipc.NegInt(int64(p.XOffset)))
	obj.Set("y_offset", ipc.NegInt(int64(p.YOffset)))
	return ipc.ObjectValue(obj)
}

func ModulePositionFromStructure(s ipc.Structure) (ModulePosition, error) {
	if s.Kind != ipc.KindObject || s.Obj == nil {
		return ModulePosition{}, fmt.Errorf("engine: module position must be an object")
	}

	horizVal, ok := s.Obj.Get("horizontal")
	if !ok || horizVal.Kind != ipc.KindString {
		return ModulePosition{}, fmt.Errorf("engine: module position missing field %q", "horizontal")
	}
	horiz, err := parseHorizontalAnchor(horizVal.Str)
	if err != nil {
		return ModulePosition{}, err
	}

	vertVal, ok := s.Obj.Get("vertical")
	if !ok || vertVal.Kind != ipc.KindString {
		return ModulePosition{}, fmt.Errorf("engine: module position missing field %q", "vertical")
	}
	vert, err := parseVerticalAnchor(vertVal.Str)
	if err != nil {
		return ModulePosition{}, err
	}

	displayVal, ok := s.Obj.Get("display")
	if !ok {
		return ModulePosition{}, fmt.Errorf("engine: module position missing field %q", "display")
	}
	display, err := displaySelectionFromStructure(displayVal)
	if err != nil {
		return ModulePosition{}, err
	}

	xVal, ok := s.Obj.Get("x_offset")
	if !ok {
		return ModulePosition{}, fmt.Errorf("engine: module position missing field %q", "x_offset")
	}
	x, ok := xVal.Int()
	if !ok {
		return ModulePosition{}, fmt.Errorf("engine: module position field %q is not an integer", "x_offset")
	}

	yVal, ok := s.Obj.Get("y_offset")
	if !ok {
		return ModulePosition{}, fmt.Errorf("engine: module position missing field %q", "y_offset")
	}
	y, ok := yVal.Int()
	if !ok {
		return ModulePosition{}, fmt.Errorf("engine: module position field %q is not an integer", "y_offset")
	}

	return ModulePosition{Horizontal: horiz, Vertical: vert, Display: display, XOffset: int32(x), YOffset: int32(y)}, nil
}
