// Package ipc implements the Snowland transport and protocol: a framed,
// typed message channel between the rendering daemon and its control
// panel, plus the self-describing Structure value used to carry module
// configuration opaquely across that channel.
package ipc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/vmihailenco/msgpack/v5"
)

func bytesReader(data []byte) io.Reader {
	return bytes.NewReader(data)
}

// Kind identifies which alternative of Structure is populated.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindPosInt
	KindNegInt
	KindFloat
	KindString
	KindArray
	KindObject
)

// Structure is the self-describing value tree carried by the protocol and
// persisted to disk. Exactly one of the payload fields is meaningful,
// selected by Kind.
type Structure struct {
	Kind Kind

	Bool   bool
	PosInt uint64
	NegInt int64
	Float  float64
	Str    string
	Arr    []Structure
	// Obj preserves insertion order. Objects decoded from JSON or
	// msgpack are built with their keys in sorted order, so the order
	// the input was written in is not kept.
	Obj *OrderedObject
}

// OrderedObject is a String -> Structure map that remembers key order.
type OrderedObject struct {
	keys   []string
	values map[string]Structure
}

func NewOrderedObject() *OrderedObject {
	return &OrderedObject{values: make(map[string]Structure)}
}

func (o *OrderedObject) Set(key string, value Structure) {
	if _, exists := o.values[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
}

func (o *OrderedObject) Get(key string) (Structure, bool) {
	v, ok := o.values[key]
	return v, ok
}

func (o *OrderedObject) Keys() []string {
	return o.keys
}

func (o *OrderedObject) Len() int {
	return len(o.keys)
}

func Null() Structure               { return Structure{Kind: KindNull} }
func BoolValue(v bool) Structure    { return Structure{Kind: KindBool, Bool: v} }
func PosInt(v uint64) Structure     { return Structure{Kind: KindPosInt, PosInt: v} }
func NegInt(v int64) Structure      { return Structure{Kind: KindNegInt, NegInt: v} }
func FloatValue(v float64) Structure { return Structure{Kind: KindFloat, Float: v} }
func StringValue(v string) Structure { return Structure{Kind: KindString, Str: v} }
func ArrayValue(v []Structure) Structure { return Structure{Kind: KindArray, Arr: v} }
func ObjectValue(o *OrderedObject) Structure {
	if o == nil {
		o = NewOrderedObject()
	}
	return Structure{Kind: KindObject, Obj: o}
}

// Int reports an integer Structure regardless of sign, for callers that
// don't care which of PosInt/NegInt was chosen on encode.
func (s Structure) Int() (int64, bool) {
	switch s.Kind {
	case KindPosInt:
		return int64(s.PosInt), true
	case KindNegInt:
		return s.NegInt, true
	default:
		return 0, false
	}
}

// Equal reports canonical equivalence, the form the round-trip law (§8,
// invariant 4) is checked against: numeric kind (PosInt vs NegInt vs
// Float) is not part of the comparison, only value.
func (s Structure) Equal(other Structure) bool {
	sf, sIsNum := s.numeric()
	of, oIsNum := other.numeric()
	if sIsNum && oIsNum {
		return sf == of
	}
	if s.Kind != other.Kind {
		return false
	}
	switch s.Kind {
	case KindNull:
		return true
	case KindBool:
		return s.Bool == other.Bool
	case KindString:
		return s.Str == other.Str
	case KindArray:
		if len(s.Arr) != len(other.Arr) {
			return false
		}
		for i := range s.Arr {
			if !s.Arr[i].Equal(other.Arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		a, b := s.Obj, other.Obj
		if a == nil {
			a = NewOrderedObject()
		}
		if b == nil {
			b = NewOrderedObject()
		}
		if a.Len() != b.Len() {
			return false
		}
		for _, k := range a.Keys() {
			av, _ := a.Get(k)
			bv, ok := b.Get(k)
			if !ok || !av.Equal(bv) {
				return false
			}
		}
		return true
	}
	return false
}

func (s Structure) numeric() (float64, bool) {
	switch s.Kind {
	case KindPosInt:
		return float64(s.PosInt), true
	case KindNegInt:
		return float64(s.NegInt), true
	case KindFloat:
		return s.Float, true
	default:
		return 0, false
	}
}

// MarshalJSON implements a lossless JSON projection used by persistence.
func (s Structure) MarshalJSON() ([]byte, error) {
	switch s.Kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		return json.Marshal(s.Bool)
	case KindPosInt:
		return json.Marshal(s.PosInt)
	case KindNegInt:
		return json.Marshal(s.NegInt)
	case KindFloat:
		return json.Marshal(s.Float)
	case KindString:
		return json.Marshal(s.Str)
	case KindArray:
		return json.Marshal(s.Arr)
	case KindObject:
		obj := s.Obj
		if obj == nil {
			obj = NewOrderedObject()
		}
		var buf []byte
		buf = append(buf, '{')
		for i, k := range obj.Keys() {
			if i > 0 {
				buf = append(buf, ',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			buf = append(buf, kb...)
			buf = append(buf, ':')
			v, _ := obj.Get(k)
			vb, err := v.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf = append(buf, vb...)
		}
		buf = append(buf, '}')
		return buf, nil
	}
	return nil, fmt.Errorf("ipc: unknown structure kind %d", s.Kind)
}

// UnmarshalJSON implements the inverse of MarshalJSON, preferring PosInt
// for non-negative whole numbers and NegInt for negative whole numbers so
// persisted files read naturally.
func (s *Structure) UnmarshalJSON(data []byte) error {
	var generic any
	dec := json.NewDecoder(bytesReader(data))
	dec.UseNumber()
	if err := dec.Decode(&generic); err != nil {
		return err
	}
	*s = fromGeneric(generic)
	return nil
}

func fromGeneric(v any) Structure {
	switch t := v.(type) {
	case nil:
		return Null()
	case bool:
		return BoolValue(t)
	case json.Number:
		if i, err := t.Int64(); err == nil {
			if i >= 0 {
				return PosInt(uint64(i))
			}
			return NegInt(i)
		}
		f, _ := t.Float64()
		return FloatValue(f)
	case string:
		return StringValue(t)
	case []any:
		arr := make([]Structure, len(t))
		for i, e := range t {
			arr[i] = fromGeneric(e)
		}
		return ArrayValue(arr)
	case map[string]any:
		obj := NewOrderedObject()
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			obj.Set(k, fromGeneric(t[k]))
		}
		return ObjectValue(obj)
	default:
		return Null()
	}
}

// EncodeMsgpack implements msgpack.CustomEncoder so Structure round-trips
// through the wire codec without an intermediate representation.
func (s Structure) EncodeMsgpack(enc *msgpack.Encoder) error {
	switch s.Kind {
	case KindNull:
		return enc.EncodeNil()
	case KindBool:
		return enc.EncodeBool(s.Bool)
	case KindPosInt:
		return enc.EncodeUint64(s.PosInt)
	case KindNegInt:
		return enc.EncodeInt64(s.NegInt)
	case KindFloat:
		return enc.EncodeFloat64(s.Float)
	case KindString:
		return enc.EncodeString(s.Str)
	case KindArray:
		if err := enc.EncodeArrayLen(len(s.Arr)); err != nil {
			return err
		}
		for _, e := range s.Arr {
			if err := enc.Encode(e); err != nil {
				return err
			}
		}
		return nil
	case KindObject:
		obj := s.Obj
		if obj == nil {
			obj = NewOrderedObject()
		}
		if err := enc.EncodeMapLen(obj.Len()); err != nil {
			return err
		}
		for _, k := range obj.Keys() {
			if err := enc.EncodeString(k); err != nil {
				return err
			}
			v, _ := obj.Get(k)
			if err := enc.Encode(v); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("ipc: unknown structure kind %d", s.Kind)
}

// DecodeMsgpack implements msgpack.CustomDecoder. It decodes via the
// decoder's loose-interface mode (maps come back as map[string]any,
// never map[any]any) and converts into the Structure tree; nested
// objects lose their original wire order in exchange for never needing
// to hand-roll msgpack's type-code table, which §8's round-trip law
// (canonical Structure equivalence, order-independent for objects) does
// not require anyway.
func (s *Structure) DecodeMsgpack(dec *msgpack.Decoder) error {
	raw, err := dec.DecodeInterfaceLoose()
	if err != nil {
		return err
	}
	*s = structureFromMsgpackValue(raw)
	return nil
}

func structureFromMsgpackValue(raw any) Structure {
	switch v := raw.(type) {
	case nil:
		return Null()
	case bool:
		return BoolValue(v)
	case int8:
		return signed(int64(v))
	case int16:
		return signed(int64(v))
	case int32:
		return signed(int64(v))
	case int64:
		return signed(v)
	case int:
		return signed(int64(v))
	case uint8:
		return PosInt(uint64(v))
	case uint16:
		return PosInt(uint64(v))
	case uint32:
		return PosInt(uint64(v))
	case uint64:
		return PosInt(v)
	case float32:
		return FloatValue(float64(v))
	case float64:
		return FloatValue(v)
	case string:
		return StringValue(v)
	case []byte:
		return StringValue(string(v))
	case []any:
		arr := make([]Structure, len(v))
		for i, e := range v {
			arr[i] = structureFromMsgpackValue(e)
		}
		return ArrayValue(arr)
	case map[string]any:
		obj := NewOrderedObject()
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			obj.Set(k, structureFromMsgpackValue(v[k]))
		}
		return ObjectValue(obj)
	default:
		return Null()
	}
}

func signed(v int64) Structure {
	if v >= 0 {
		return PosInt(uint64(v))
	}
	return NegInt(v)
}
