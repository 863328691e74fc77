package domain

import "time"

// AttitudeState is the latest attitude estimate in radians and radians/second.
type AttitudeState struct {
	Roll, Pitch, Yaw             float64
	RollRate, PitchRate, YawRate float64
	Timestamp                    time.Time
}

// PositionState is the latest NED position (m) and velocity (m/s) estimate.
type PositionState struct {
	North, East, Down          float64
	VelNorth, VelEast, VelDown float64
	Timestamp                  time.Time
}

// NED returns the position as a 3-vector.
func (p PositionState) NED() []float64 {
	return []float64{p.North, p.East, p.Down}
}
