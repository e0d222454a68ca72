package sensor

import (
	"sync"
	"time"
)

// Firebox model constants.
const (
	simAmbientF  = 68.0   // cold appliance
	simMaxFireF  = 650.0  // sustained full-airflow flue temperature
	simTimeConst = 90.0   // seconds to cover ~63% of the gap to target
	simDecayF    = 0.35   // °F per second lost with the fan off
)

// Sim is a deterministic simulated firebox probe: flue temperature
// chases a target set by the applied airflow. It lets the whole stack
// run and be demonstrated without combustion hardware.
type Sim struct {
	mu      sync.Mutex
	now     func() time.Time
	last    time.Time
	tempF   float64
	airflow int
}

// NewSim starts the model at ambient. now may be nil (wall clock).
func NewSim(now func() time.Time) *Sim {
	if now == nil {
		now = time.Now
	}
	return &Sim{now: now, tempF: simAmbientF}
}

// SetAirflow feeds the applied fan percentage back into the model.
func (s *Sim) SetAirflow(percent int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	s.airflow = percent
}

// TemperatureF advances the model by the elapsed wall time and returns
// the current flue temperature. Never faults.
func (s *Sim) TemperatureF() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.now()
	if s.last.IsZero() {
		s.last = t
		return s.tempF, nil
	}
	elapsed := t.Sub(s.last).Seconds()
	if elapsed <= 0 {
		return s.tempF, nil
	}
	s.last = t

	if s.airflow > 0 {
		target := simAmbientF + (simMaxFireF-simAmbientF)*float64(s.airflow)/100.0
		step := elapsed / simTimeConst
		if step > 1 {
			step = 1
		}
		s.tempF += (target - s.tempF) * step
	} else if s.tempF > simAmbientF {
		s.tempF -= simDecayF * elapsed
		if s.tempF < simAmbientF {
			s.tempF = simAmbientF
		}
	}
	return s.tempF, nil
}
