package modules

import (
	"testing"

	"github.com/banksean/snowland/internal/engine"
)

func TestRegisterAddsEveryBuiltinKind(t *testing.T) {
	registry := engine.NewRegistry()
	Register(registry, fakeFontFactory{})

	want := []string{clearTypeName, textTypeName, snowTypeName, imageTypeName, countdownTypeName}
	for _, name := range want {
		if _, ok := registry.Lookup(name); !ok {
			t.Errorf("registry missing built-in kind %q", name)
		}
	}
	if got := len(registry.Names()); got != len(want) {
		t.Errorf("len(Names()) = %d, want %d", got, len(want))
	}
}

func TestRegisterPanicsOnDoubleRegistration(t *testing.T) {
	registry := engine.NewRegistry()
	Register(registry, fakeFontFactory{})

	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic when registering the same built-in kinds twice")
		}
	}()
	Register(registry, fakeFontFactory{})
}
