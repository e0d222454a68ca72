package control

import (
	"time"

	boilerassistant "github.com/prairiewillow-rgb/Boiler-Assistant"
)

// TemperatureSource supplies the smoothed flue temperature, NaN while
// no valid reading exists yet.
type TemperatureSource interface {
	Sample() float64
}

// Output is the controller's per-tick result: everything presentation
// and actuation need from one control cycle.
type Output struct {
	Phase          boilerassistant.BurnPhase
	SmoothedF      float64 // NaN while the sensor has no reading
	FanPercent     int
	DamperOpen     bool
	BoostRemaining time.Duration
	TimerLabel     string
	TimerRemaining time.Duration
}

// Controller composes sensor acquisition, the burn-phase engine and
// the fan shaping layer into the single per-cycle entry point. It is
// not safe for concurrent use; one goroutine owns it.
type Controller struct {
	source TemperatureSource
	engine *Engine
	shaper *Shaper
}

// NewController wires the three stages. now may be nil (wall clock).
func NewController(source TemperatureSource, now func() time.Time) *Controller {
	return &Controller{
		source: source,
		engine: NewEngine(now),
		shaper: NewShaper(),
	}
}

// Engine exposes the command surface (boost, safety, reset).
func (c *Controller) Engine() *Engine {
	return c.engine
}

// Tick runs one full control cycle with an immutable settings snapshot.
func (c *Controller) Tick(cfg boilerassistant.Settings) Output {
	smoothed := c.source.Sample()
	demand := c.engine.Tick(smoothed, cfg)
	final := c.shaper.Apply(demand.FanPercent, demand.Phase, cfg)

	out := Output{
		Phase:          demand.Phase,
		SmoothedF:      smoothed,
		FanPercent:     final,
		DamperOpen:     demand.DamperOpen,
		BoostRemaining: c.engine.BoostRemaining(cfg),
	}
	if label, remaining, ok := c.engine.ActiveTimer(cfg); ok {
		out.TimerLabel = label
		out.TimerRemaining = remaining
	}
	return out
}
