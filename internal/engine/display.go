package engine

import (
	"fmt"

	"github.com/banksean/snowland/internal/ipc"
)

// Display mirrors ipc.Display but is the engine's own working copy,
// separate from the wire type the way the source keeps
// core::rendering::display::Display distinct from
// snowland_ipc::protocol::Display and converts explicitly at the
// boundary (into_ipc/from_ipc).
type Display struct {
	ID      string
	Name    string
	Primary bool
	X       int32
	Y       int32
	Width   int32
	Height  int32
}

// UninitializedDisplay is the placeholder primary display used before
// the first UpdateDisplays has ever been received.
func UninitializedDisplay() Display {
	return Display{ID: "UNINITIALIZED", Name: "Virtual uninitialized Display", X: -1, Y: -1, Width: -1, Height: -1}
}

func (d Display) String() string {
	return fmt.Sprintf("%s %dx%d", d.Name, d.Width, d.Height)
}

func displayFromIPC(d ipc.Display) Display {
	return Display{ID: d.ID, Name: d.Name, Primary: d.Primary, X: d.X, Y: d.Y, Width: d.Width, Height: d.Height}
}

func (d Display) toIPC() ipc.Display {
	return ipc.Display{ID: d.ID, Name: d.Name, Primary: d.Primary, X: d.X, Y: d.Y, Width: d.Width, Height: d.Height}
}
