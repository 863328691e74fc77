package domain

import (
	"fmt"
	"strings"
)

// ControllerMode selects which control law stack drives the aircraft.
type ControllerMode uint8

const (
	ModeAttitudeStabilization ControllerMode = iota
	ModePositionHold

	// NumControllerModes is the count sentinel. It is never an operating mode and
	// doubles as the uninitialized value.
	NumControllerModes
)

const ModeUninitialized = NumControllerModes

// Valid reports whether m names an operating mode.
func (m ControllerMode) Valid() bool {
	return m < NumControllerModes
}

func (m ControllerMode) String() string {
	switch m {
	case ModeAttitudeStabilization:
		return "MODE_ATTITUDE_STABILIZATION_PID"
	case ModePositionHold:
		return "MODE_POSITION_HOLD_PID"
	default:
		return fmt.Sprintf("MODE_INVALID(%d)", uint8(m))
	}
}

// ParseControllerMode accepts the short config names used in the daemon config
// as well as the String() form.
func ParseControllerMode(s string) (ControllerMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "attitude", "attitude_stabilization", "mode_attitude_stabilization_pid":
		return ModeAttitudeStabilization, nil
	case "position", "position_hold", "mode_position_hold_pid":
		return ModePositionHold, nil
	default:
		return ModeUninitialized, fmt.Errorf("unknown controller mode %q", s)
	}
}
