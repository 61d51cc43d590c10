package modules

import (
	"testing"
	"time"

	"github.com/banksean/snowland/internal/engine"
)

func TestSnowConfigRoundTrip(t *testing.T) {
	config := defaultSnowConfig()

	s, err := snowConfigToStructure(config)
	if err != nil {
		t.Fatalf("snowConfigToStructure: %v", err)
	}
	got, err := snowConfigFromStructure(s)
	if err != nil {
		t.Fatalf("snowConfigFromStructure: %v", err)
	}
	if got != config {
		t.Fatalf("round trip = %+v, want %+v", got, config)
	}
}

func TestSnowRendererPopulatesFlakesToTargetCount(t *testing.T) {
	surface := &engine.FakeSurface{}
	data := engine.NewSceneData(surface, 1920, 1080, 16*time.Millisecond, engine.Display{}, nil)

	config := defaultSnowConfig()
	r := newSnowRenderer().(*snowRenderer)
	r.Render(config, data)

	want := int((1920 * 1080) / defaultPixelFlakeRatio)
	if len(r.flakes) != want {
		t.Fatalf("len(flakes) = %d, want %d", len(r.flakes), want)
	}
	if len(surface.Calls) != want {
		t.Fatalf("draw calls = %d, want %d (one circle per flake)", len(surface.Calls), want)
	}
}

func TestSnowRendererResizesFlakeCountOnDimensionChange(t *testing.T) {
	surface := &engine.FakeSurface{}
	config := defaultSnowConfig()
	r := newSnowRenderer().(*snowRenderer)

	small := engine.NewSceneData(surface, 100, 100, 16*time.Millisecond, engine.Display{}, nil)
	r.Render(config, small)
	smallCount := len(r.flakes)

	large := engine.NewSceneData(surface, 1920, 1080, 16*time.Millisecond, engine.Display{}, nil)
	r.Render(config, large)

	if len(r.flakes) <= smallCount {
		t.Fatalf("flake count did not grow with target area: %d -> %d", smallCount, len(r.flakes))
	}
}

func TestSnowflakeRespawnsPastBottomEdge(t *testing.T) {
	config := defaultSnowConfig()
	f := snowflake{x: 10, y: 1000, timeAlive: 0, timeToLive: 100000, fallingSpeed: 3}

	_, _, _ = f.tick(100, 100, 16, config)

	if f.y > 110 {
		t.Fatalf("expected flake to respawn once past the bottom edge, y = %v", f.y)
	}
}

func TestSnowflakeRespawnsAfterTimeToLiveElapses(t *testing.T) {
	config := defaultSnowConfig()
	f := snowflake{x: 10, y: 10, timeAlive: 999, timeToLive: 1000, fallingSpeed: 0}

	_, _, _ = f.tick(1000, 1000, 16, config)

	if f.timeAlive >= 1000 {
		t.Fatalf("expected respawn to reset timeAlive below timeToLive, got %v", f.timeAlive)
	}
}

func TestOpacityRampsUpThenDown(t *testing.T) {
	config := SnowConfig{FadeTime: 100}

	start := snowflake{timeAlive: 0, timeToLive: 1000}
	if got := start.opacity(config); got != 0 {
		t.Fatalf("opacity at birth = %v, want 0", got)
	}

	mid := snowflake{timeAlive: 500, timeToLive: 1000}
	if got := mid.opacity(config); got != 1 {
		t.Fatalf("opacity mid-life = %v, want 1 (fully faded in and not yet fading out)", got)
	}

	nearDeath := snowflake{timeAlive: 999, timeToLive: 1000}
	if got := nearDeath.opacity(config); got >= 1 {
		t.Fatalf("opacity near death = %v, want < 1", got)
	}
}
