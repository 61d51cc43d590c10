package ipc

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Display describes one physical display reported by the platform's
// display enumeration.
type Display struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Primary bool   `json:"primary"`
	X       int32  `json:"x"`
	Y       int32  `json:"y"`
	Width   int32  `json:"width"`
	Height  int32  `json:"height"`
}

// InstalledModule pairs a registered module kind with its serialized
// configuration. Order within a Configuration is the render order.
type InstalledModule struct {
	TypeName      string    `json:"ty"`
	Configuration Structure `json:"config"`
}

// Configuration is the ordered module list, as sent in
// UpdateConfiguration and persisted to disk.
type Configuration struct {
	Modules []InstalledModule `json:"modules"`
}

// ClientMessage is the closed set of messages the control panel may send
// to the engine.
type ClientMessage interface {
	isClientMessage()
	msgpack.CustomEncoder
}

// ServerMessage is the closed set of messages the engine may send to the
// control panel.
type ServerMessage interface {
	isServerMessage()
	msgpack.CustomEncoder
}

// Client -> server variant tags. Never reorder these (§6: compatibility
// is maintained only by not reordering variant tags).
const (
	tagQueryConfiguration byte = iota
	tagQueryDisplays
	tagReorderModules
	tagChangeConfiguration
	tagAddModule
	tagRemoveModule
)

// Server -> client variant tags.
const (
	tagUpdateConfiguration byte = iota
	tagUpdateDisplays
	tagHeartbeat
)

type QueryConfiguration struct{}

func (QueryConfiguration) isClientMessage() {}

func (QueryConfiguration) EncodeMsgpack(enc *msgpack.Encoder) error {
	return enc.EncodeUint8(tagQueryConfiguration)
}

type QueryDisplays struct{}

func (QueryDisplays) isClientMessage() {}

func (QueryDisplays) EncodeMsgpack(enc *msgpack.Encoder) error {
	return enc.EncodeUint8(tagQueryDisplays)
}

type ReorderModules struct {
	OldIndex int
	NewIndex int
}

func (ReorderModules) isClientMessage() {}

func (m ReorderModules) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeUint8(tagReorderModules); err != nil {
		return err
	}
	if err := enc.EncodeInt64(int64(m.OldIndex)); err != nil {
		return err
	}
	return enc.EncodeInt64(int64(m.NewIndex))
}

type ChangeConfiguration struct {
	ModuleIndex      int
	NewConfiguration Structure
}

func (ChangeConfiguration) isClientMessage() {}

func (m ChangeConfiguration) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeUint8(tagChangeConfiguration); err != nil {
		return err
	}
	if err := enc.EncodeInt64(int64(m.ModuleIndex)); err != nil {
		return err
	}
	return enc.Encode(m.NewConfiguration)
}

type AddModule struct {
	TypeName string
}

func (AddModule) isClientMessage() {}

func (m AddModule) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeUint8(tagAddModule); err != nil {
		return err
	}
	return enc.EncodeString(m.TypeName)
}

type RemoveModule struct {
	Index int
}

func (RemoveModule) isClientMessage() {}

func (m RemoveModule) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeUint8(tagRemoveModule); err != nil {
		return err
	}
	return enc.EncodeInt64(int64(m.Index))
}

type UpdateConfiguration struct {
	Configuration Configuration
}

func (UpdateConfiguration) isServerMessage() {}

func (m UpdateConfiguration) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeUint8(tagUpdateConfiguration); err != nil {
		return err
	}
	if err := enc.EncodeArrayLen(len(m.Configuration.Modules)); err != nil {
		return err
	}
	for _, mod := range m.Configuration.Modules {
		if err := enc.EncodeString(mod.TypeName); err != nil {
			return err
		}
		if err := enc.Encode(mod.Configuration); err != nil {
			return err
		}
	}
	return nil
}

type UpdateDisplays struct {
	Displays []Display
}

func (UpdateDisplays) isServerMessage() {}

func (m UpdateDisplays) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeUint8(tagUpdateDisplays); err != nil {
		return err
	}
	if err := enc.EncodeArrayLen(len(m.Displays)); err != nil {
		return err
	}
	for _, d := range m.Displays {
		if err := encodeDisplay(enc, d); err != nil {
			return err
		}
	}
	return nil
}

func encodeDisplay(enc *msgpack.Encoder, d Display) error {
	if err := enc.EncodeString(d.ID); err != nil {
		return err
	}
	if err := enc.EncodeString(d.Name); err != nil {
		return err
	}
	if err := enc.EncodeBool(d.Primary); err != nil {
		return err
	}
	if err := enc.EncodeInt64(int64(d.X)); err != nil {
		return err
	}
	if err := enc.EncodeInt64(int64(d.Y)); err != nil {
		return err
	}
	if err := enc.EncodeInt64(int64(d.Width)); err != nil {
		return err
	}
	return enc.EncodeInt64(int64(d.Height))
}

func decodeDisplay(dec *msgpack.Decoder) (Display, error) {
	var d Display
	var err error
	if d.ID, err = dec.DecodeString(); err != nil {
		return d, err
	}
	if d.Name, err = dec.DecodeString(); err != nil {
		return d, err
	}
	if d.Primary, err = dec.DecodeBool(); err != nil {
		return d, err
	}
	x, err := dec.DecodeInt64()
	if err != nil {
		return d, err
	}
	d.X = int32(x)
	y, err := dec.DecodeInt64()
	if err != nil {
		return d, err
	}
	d.Y = int32(y)
	w, err := dec.DecodeInt64()
	if err != nil {
		return d, err
	}
	d.Width = int32(w)
	h, err := dec.DecodeInt64()
	if err != nil {
		return d, err
	}
	d.Height = int32(h)
	return d, nil
}

type Heartbeat struct{}

func (Heartbeat) isServerMessage() {}

func (Heartbeat) EncodeMsgpack(enc *msgpack.Encoder) error {
	return enc.EncodeUint8(tagHeartbeat)
}

// ErrUnknownVariant is returned by the decoder when a variant tag byte
// doesn't match any known message - always a DecodeFailed condition,
// never a "need more bytes" one.
type ErrUnknownVariant struct {
	Tag byte
}

func (e ErrUnknownVariant) Error() string {
	return fmt.Sprintf("ipc: unknown message variant tag %d", e.Tag)
}
