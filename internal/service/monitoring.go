package service

import (
	"context"
	"time"

	boilerassistant "github.com/prairiewillow-rgb/Boiler-Assistant"
	"github.com/prairiewillow-rgb/Boiler-Assistant/internal/repository"
)

type MonitoringService struct {
	statusRepo repository.StatusRepo
}

func NewMonitoringService(statusRepo repository.StatusRepo) *MonitoringService {
	return &MonitoringService{statusRepo: statusRepo}
}

// Status returns the latest persisted telemetry snapshot. Before the
// runner has written anything it returns a baseline RAMP snapshot, the
// state a freshly started controller is in.
func (s *MonitoringService) Status(ctx context.Context) (boilerassistant.ControlStatus, error) {
	st, err := s.statusRepo.Load(ctx)
	if err != nil {
		return boilerassistant.ControlStatus{}, err
	}
	if st.ID == 0 {
		return s.baselineStatus(), nil
	}
	st.UpdatedAt = toUTC(st.UpdatedAt)
	return st, nil
}

func (s *MonitoringService) baselineStatus() boilerassistant.ControlStatus {
	return boilerassistant.ControlStatus{
		ID:         1, // schema enforces a single snapshot row with id=1
		Phase:      boilerassistant.PhaseRamp,
		DamperOpen: true,
		UpdatedAt:  time.Now().UTC(),
	}
}

// toUTC normalizes non-zero time to UTC, preserving zero values.
func toUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}
