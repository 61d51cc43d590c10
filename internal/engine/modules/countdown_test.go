package modules

import (
	"testing"
	"time"

	"github.com/banksean/snowland/internal/engine"
)

func TestPluralize(t *testing.T) {
	if got := pluralize(1, "day, ", "days,"); got != "day, " {
		t.Fatalf("pluralize(1) = %q, want %q", got, "day, ")
	}
	if got := pluralize(0, "day, ", "days,"); got != "days," {
		t.Fatalf("pluralize(0) = %q, want %q", got, "days,")
	}
	if got := pluralize(2, "day, ", "days,"); got != "days," {
		t.Fatalf("pluralize(2) = %q, want %q", got, "days,")
	}
}

func TestMakeCountdownStringFormatsFourComponents(t *testing.T) {
	// A half-second pad keeps the offset off an exact-second boundary:
	// makeCountdownString re-samples time.Now() internally, so without
	// slack the handful of nanoseconds spent getting there would floor
	// the seconds component down by one.
	target := time.Now().Add(2*time.Hour + 7*time.Minute + 33*time.Second + 500*time.Millisecond)
	got := makeCountdownString(target)

	want := "000 days, 02 hours, 07 minutes and 33 seconds"
	if got != want {
		t.Fatalf("makeCountdownString = %q, want %q", got, want)
	}
}

func TestCountdownRendererSkipsWithoutFont(t *testing.T) {
	surface := &engine.FakeSurface{}
	data := engine.NewSceneData(surface, 100, 100, 0, engine.Display{}, nil)

	config := CountdownConfig{Target: time.Now().Add(time.Hour).UnixMilli()}
	newCountdownRenderer().Render(config, data)

	if len(surface.Calls) != 0 {
		t.Fatalf("expected no draw calls without a configured font, got %v", surface.Calls)
	}
}

func TestCountdownRendererDrawsWhenPositioned(t *testing.T) {
	surface := &engine.FakeSurface{}
	data := engine.NewSceneData(surface, 100, 100, 0, engine.Display{}, nil)

	config := CountdownConfig{
		Target: time.Now().Add(time.Hour).UnixMilli(),
		Paint:  engine.DefaultPaint(),
		Font:   engine.FontSetting{Font: fakeFont{}},
	}
	newCountdownRenderer().Render(config, data)

	if len(surface.Calls) != 1 {
		t.Fatalf("len(Calls) = %d, want 1", len(surface.Calls))
	}
}

func TestCountdownConfigRoundTrip(t *testing.T) {
	fonts := fakeFontFactory{}
	config := CountdownConfig{
		Position: engine.ModulePosition{Horizontal: engine.HorizontalCenter, Vertical: engine.VerticalBottom},
		Target:   1234567,
		Paint:    engine.DefaultPaint(),
		Font:     engine.DefaultFont(fonts),
	}

	s, err := countdownConfigToStructure(config)
	if err != nil {
		t.Fatalf("countdownConfigToStructure: %v", err)
	}

	got, err := countdownConfigFromStructureFactory(fonts)(s)
	if err != nil {
		t.Fatalf("countdownConfigFromStructureFactory: %v", err)
	}

	if got.Position != config.Position || got.Target != config.Target || got.Paint != config.Paint {
		t.Fatalf("round trip = %+v, want %+v", got, config)
	}
}
