// Package modules contains the built-in module kinds wired into the
// engine's registry at startup. Grounded on
// original_source/core/src/scene/module/known.rs's KNOWN_MODULES map.
package modules

import (
	"fmt"

	"github.com/banksean/snowland/internal/ipc"
)

// lookupField fetches a named field off an object-kind Structure,
// reporting false if s isn't an object or the field is absent.
func lookupField(s ipc.Structure, name string) (ipc.Structure, bool) {
	if s.Kind != ipc.KindObject || s.Obj == nil {
		return ipc.Structure{}, false
	}
	return s.Obj.Get(name)
}

func fieldError(typeName, field string) error {
	return fmt.Errorf("modules: %s configuration missing field %q", typeName, field)
}

// numericField reads a field as a float64 regardless of which numeric
// Kind it was encoded as.
func numericField(s ipc.Structure, typeName, field string) (float64, error) {
	val, ok := lookupField(s, field)
	if !ok {
		return 0, fieldError(typeName, field)
	}
	switch val.Kind {
	case ipc.KindPosInt:
		return float64(val.PosInt), nil
	case ipc.KindNegInt:
		return float64(val.NegInt), nil
	case ipc.KindFloat:
		return val.Float, nil
	default:
		return 0, fmt.Errorf("modules: %s field %q is not a number", typeName, field)
	}
}

func intField(s ipc.Structure, typeName, field string) (int64, error) {
	val, ok := lookupField(s, field)
	if !ok {
		return 0, fieldError(typeName, field)
	}
	switch val.Kind {
	case ipc.KindPosInt:
		return int64(val.PosInt), nil
	case ipc.KindNegInt:
		return val.NegInt, nil
	default:
		return 0, fmt.Errorf("modules: %s field %q is not an integer", typeName, field)
	}
}

func stringField(s ipc.Structure, typeName, field string) (string, error) {
	val, ok := lookupField(s, field)
	if !ok {
		return "", fieldError(typeName, field)
	}
	if val.Kind != ipc.KindString {
		return "", fmt.Errorf("modules: %s field %q is not a string", typeName, field)
	}
	return val.Str, nil
}

func boolField(s ipc.Structure, typeName, field string) (bool, error) {
	val, ok := lookupField(s, field)
	if !ok {
		return false, fieldError(typeName, field)
	}
	if val.Kind != ipc.KindBool {
		return false, fmt.Errorf("modules: %s field %q is not a boolean", typeName, field)
	}
	return val.Bool, nil
}
