package domain

// Channel indexes the six actuator channels shared by pilot input, control effort,
// and the mixed output.
type Channel int

const (
	Roll Channel = iota
	Pitch
	Yaw
	Collective
	Throttle
	GyroGain

	NumChannels = 6
)

// PilotMix holds one blend weight per channel: 1 is full pilot authority, 0 is full
// control-law authority.
type PilotMix [NumChannels]float64

// DefaultPilotMix gives the pilot full authority on every channel.
func DefaultPilotMix() PilotMix {
	var m PilotMix
	for i := range m {
		m[i] = 1
	}
	return m
}

// ValidWeight reports whether w is a legal blend weight.
func ValidWeight(w float64) bool {
	return w >= 0 && w <= 1
}
