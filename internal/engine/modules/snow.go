package modules

import (
	"math"
	"math/rand/v2"

	"github.com/banksean/snowland/internal/engine"
	"github.com/banksean/snowland/internal/ipc"
)

const snowTypeName = "Snow"

// 400 flakes look good on 1920 * 1080.
const (
	defaultPixelFlakeRatio = (1920 * 1080) / 400
	defaultFadeTime        = 2000.0

	defaultTimeToLiveMin = 2000.0
	defaultTimeToLiveMax = 4000.0

	defaultTumblingMin = 0.0
	defaultTumblingMax = 1.0

	defaultFallingSpeedMin = 1.0
	defaultFallingSpeedMax = 3.0
)

// SnowConfig tunes the falling-snow particle system. Grounded verbatim
// on original_source/libraries/core/src/scene/module/snow.rs.
type SnowConfig struct {
	PixelFlakeRatio int32
	FadeTime        float32

	TimeToLiveMin, TimeToLiveMax     float32
	TumblingMin, TumblingMax         float32
	FallingSpeedMin, FallingSpeedMax float32
}

func defaultSnowConfig() SnowConfig {
	return SnowConfig{
		PixelFlakeRatio: defaultPixelFlakeRatio,
		FadeTime:        defaultFadeTime,
		TimeToLiveMin:   defaultTimeToLiveMin,
		TimeToLiveMax:   defaultTimeToLiveMax,
		TumblingMin:     defaultTumblingMin,
		TumblingMax:     defaultTumblingMax,
		FallingSpeedMin: defaultFallingSpeedMin,
		FallingSpeedMax: defaultFallingSpeedMax,
	}
}

type snowflake struct {
	x, y      float32
	timeAlive float32

	tumblingMultiplier float32
	timeToLive         float32
	fallingSpeed       float32
}

func newRandomSnowflake(width, height int32, config SnowConfig) snowflake {
	return snowflake{
		x:                  float32(rand.Int32N(max32(width, 1))),
		y:                  float32(rand.Int32N(max32(height, 1))),
		tumblingMultiplier: rangeFloat32(config.TumblingMin, config.TumblingMax),
		timeToLive:         rangeFloat32(config.TimeToLiveMin, config.TimeToLiveMax),
		fallingSpeed:       rangeFloat32(config.FallingSpeedMin, config.FallingSpeedMax),
	}
}

func rangeFloat32(lo, hi float32) float32 {
	if hi <= lo {
		return lo
	}
	return lo + rand.Float32()*(hi-lo)
}

func max32(v, floor int32) int32 {
	if v < floor {
		return floor
	}
	return v
}

func (f *snowflake) opacity(config SnowConfig) float32 {
	v := min32f(min32f(f.timeAlive, f.timeToLive-f.timeAlive), config.FadeTime)
	if v < 0 {
		v = 0
	}
	return v / config.FadeTime
}

func min32f(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

// tick advances one flake by one frame, matching Snowflake::tick's
// exact sequencing: opacity is sampled before the move, the move
// happens, the draw (by the caller) uses the moved position, and only
// then does time_alive advance and the respawn check run.
func (f *snowflake) tick(width, height int32, deltaMillis float32, config SnowConfig) (drawX, drawY, opacity float32) {
	opacity = f.opacity(config)

	tumble := float32(math.Sin(float64(f.timeAlive/1000.0))) * f.tumblingMultiplier * (deltaMillis / 20.0)
	fall := f.fallingSpeed * (deltaMillis / 20.0)

	f.x += tumble
	f.y += fall
	drawX, drawY = f.x, f.y

	f.timeAlive += deltaMillis

	if f.timeAlive > f.timeToLive || f.x < -10 || f.x > float32(width)+10 || f.y > float32(height)+10 {
		*f = newRandomSnowflake(width, height, config)
	}

	return drawX, drawY, opacity
}

type snowRenderer struct {
	flakes []snowflake
}

func newSnowRenderer() engine.Renderer[SnowConfig] { return &snowRenderer{} }

func (r *snowRenderer) Render(config SnowConfig, data *engine.SceneData) {
	ratio := config.PixelFlakeRatio
	if ratio <= 0 {
		ratio = defaultPixelFlakeRatio
	}
	target := int((data.Width() * data.Height()) / ratio)

	if target != len(r.flakes) {
		flakes := make([]snowflake, target)
		copy(flakes, r.flakes)
		for i := len(r.flakes); i < target; i++ {
			flakes[i] = newRandomSnowflake(data.Width(), data.Height(), config)
		}
		r.flakes = flakes
	}

	deltaMillis := float32(data.Delta().Milliseconds())
	canvas := data.Canvas()

	for i := range r.flakes {
		f := &r.flakes[i]
		x, y, opacity := f.tick(data.Width(), data.Height(), deltaMillis, config)
		paint := engine.Paint{Color: engine.Color{R: 1, G: 1, B: 1, A: opacity}, AntiAlias: true}
		canvas.DrawCircle(x, y, 2.5, paint)
	}
}

const (
	snowFieldPixelFlakeRatio = "pixel_flake_ratio"
	snowFieldFadeTime        = "fade_time"
	snowFieldTimeToLiveMin   = "time_to_live_min"
	snowFieldTimeToLiveMax   = "time_to_live_max"
	snowFieldTumblingMin     = "tumbling_min"
	snowFieldTumblingMax     = "tumbling_max"
	snowFieldFallingSpeedMin = "falling_speed_min"
	snowFieldFallingSpeedMax = "falling_speed_max"
)

func snowConfigToStructure(c SnowConfig) (ipc.Structure, error) {
	obj := ipc.NewOrderedObject()
	obj.Set(snowFieldPixelFlakeRatio, ipc.PosInt(uint64(c.PixelFlakeRatio)))
	obj.Set(snowFieldFadeTime, ipc.FloatValue(float64(c.FadeTime)))
	obj.Set(snowFieldTimeToLiveMin, ipc.FloatValue(float64(c.TimeToLiveMin)))
	obj.Set(snowFieldTimeToLiveMax, ipc.FloatValue(float64(c.TimeToLiveMax)))
	obj.Set(snowFieldTumblingMin, ipc.FloatValue(float64(c.TumblingMin)))
	obj.Set(snowFieldTumblingMax, ipc.FloatValue(float64(c.TumblingMax)))
	obj.Set(snowFieldFallingSpeedMin, ipc.FloatValue(float64(c.FallingSpeedMin)))
	obj.Set(snowFieldFallingSpeedMax, ipc.FloatValue(float64(c.FallingSpeedMax)))
	return ipc.ObjectValue(obj), nil
}

func snowConfigFromStructure(s ipc.Structure) (SnowConfig, error) {
	ratio, err := intField(s, snowTypeName, snowFieldPixelFlakeRatio)
	if err != nil {
		return SnowConfig{}, err
	}
	fade, err := numericField(s, snowTypeName, snowFieldFadeTime)
	if err != nil {
		return SnowConfig{}, err
	}
	ttlMin, err := numericField(s, snowTypeName, snowFieldTimeToLiveMin)
	if err != nil {
		return SnowConfig{}, err
	}
	ttlMax, err := numericField(s, snowTypeName, snowFieldTimeToLiveMax)
	if err != nil {
		return SnowConfig{}, err
	}
	tumbleMin, err := numericField(s, snowTypeName, snowFieldTumblingMin)
	if err != nil {
		return SnowConfig{}, err
	}
	tumbleMax, err := numericField(s, snowTypeName, snowFieldTumblingMax)
	if err != nil {
		return SnowConfig{}, err
	}
	fallMin, err := numericField(s, snowTypeName, snowFieldFallingSpeedMin)
	if err != nil {
		return SnowConfig{}, err
	}
	fallMax, err := numericField(s, snowTypeName, snowFieldFallingSpeedMax)
	if err != nil {
		return SnowConfig{}, err
	}

	return SnowConfig{
		PixelFlakeRatio: int32(ratio),
		FadeTime:        float32(fade),
		TimeToLiveMin:   float32(ttlMin),
		TimeToLiveMax:   float32(ttlMax),
		TumblingMin:     float32(tumbleMin),
		TumblingMax:     float32(tumbleMax),
		FallingSpeedMin: float32(fallMin),
		FallingSpeedMax: float32(fallMax),
	}, nil
}

func newSnowFactory() engine.Factory {
	return engine.NewFactory(snowTypeName, newSnowRenderer, defaultSnowConfig, snowConfigToStructure, snowConfigFromStructure)
}
