package ports

import "github.com/ghalamif/AegisPilot/internal/domain"

// PilotInput supplies the scaled pilot channel vector.
type PilotInput interface {
	ScaledVector() []float64
}

// PositionSource supplies the current NED position for reference capture.
type PositionSource interface {
	NEDPosition() ([]float64, error)
}

// AttitudeSource supplies the latest attitude estimate; ok is false before the
// first estimate arrives.
type AttitudeSource interface {
	Attitude() (domain.AttitudeState, bool)
}

// NavigationSource supplies the latest position/velocity estimate.
type NavigationSource interface {
	Position() (domain.PositionState, bool)
}

// Actuator receives the mixed output every cycle.
type Actuator interface {
	Apply(output []float64) error
}
