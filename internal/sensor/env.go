package sensor

import (
	"fmt"
	"sync"
	"time"

	"periph.io/x/periph/conn/i2c"
	"periph.io/x/periph/conn/i2c/i2creg"
	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/devices/bmxx80"

	boilerassistant "github.com/prairiewillow-rgb/Boiler-Assistant"
)

const (
	envAddr     = 0x76
	envInterval = time.Second
)

// Env reads a BME280 for room temperature, humidity and pressure.
// Telemetry only: nothing in the control path consumes these values.
type Env struct {
	mu   sync.Mutex
	bus  i2c.BusCloser
	dev  *bmxx80.Dev
	now  func() time.Time
	last time.Time
	prev boilerassistant.EnvReading
}

// NewEnv opens the named I2C bus (empty string selects the first one).
func NewEnv(busName string, now func() time.Time) (*Env, error) {
	if err := initHost(); err != nil {
		return nil, fmt.Errorf("load platform drivers: %w", err)
	}
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", busName, err)
	}
	dev, err := bmxx80.NewI2C(bus, envAddr, &bmxx80.DefaultOpts)
	if err != nil {
		_ = bus.Close()
		return nil, fmt.Errorf("init bme280: %w", err)
	}
	if now == nil {
		now = time.Now
	}
	return &Env{bus: bus, dev: dev, now: now}, nil
}

// Read returns the latest environmental snapshot, refreshing from the
// sensor at most once per second. A failed read keeps the previous
// snapshot with OK forced false.
func (e *Env) Read() boilerassistant.EnvReading {
	e.mu.Lock()
	defer e.mu.Unlock()

	t := e.now()
	if !e.last.IsZero() && t.Sub(e.last) < envInterval {
		return e.prev
	}
	e.last = t

	var sample physic.Env
	if err := e.dev.Sense(&sample); err != nil {
		e.prev.OK = false
		return e.prev
	}
	e.prev = boilerassistant.EnvReading{
		TempF:     sample.Temperature.Celsius()*9.0/5.0 + 32.0,
		Humidity:  float64(sample.Humidity) / float64(physic.PercentRH),
		PressureH: float64(sample.Pressure) / float64(100*physic.Pascal),
		OK:        true,
	}
	return e.prev
}

func (e *Env) Close() error {
	if err := e.dev.Halt(); err != nil {
		_ = e.bus.Close()
		return err
	}
	return e.bus.Close()
}
