package sensor

// Thermocouple is a single raw exhaust-probe read in °F. A non-nil
// error means the hardware flagged a fault for this read; the caller
// keeps its previous value.
type Thermocouple interface {
	TemperatureF() (float64, error)
}

// AirflowAware is implemented by probes whose reading depends on the
// applied fan output (the simulated firebox). The control loop feeds
// the final fan percentage back after every tick.
type AirflowAware interface {
	SetAirflow(percent int)
}
