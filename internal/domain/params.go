package domain

// Parameter ids understood by the ground-station parameter protocol.
const (
	ParamMixRoll  = "MIX_ROLL"
	ParamMixPitch = "MIX_PITCH"

	ParamRollKP    = "ROLL_KP"
	ParamRollKD    = "ROLL_KD"
	ParamRollKI    = "ROLL_KI"
	ParamPitchKP   = "PITCH_KP"
	ParamPitchKD   = "PITCH_KD"
	ParamPitchKI   = "PITCH_KI"
	ParamRollTrim  = "ROLL_TRIM"
	ParamPitchTrim = "PITCH_TRIM"

	ParamXKP    = "POS_X_KP"
	ParamXKD    = "POS_X_KD"
	ParamXKI    = "POS_X_KI"
	ParamYKP    = "POS_Y_KP"
	ParamYKD    = "POS_Y_KD"
	ParamYKI    = "POS_Y_KI"
	ParamTravel = "POS_TRAVEL"
)

// Telemetry vector names.
const (
	LogControlEffort     = "Control Effort"
	LogMixedOutput       = "Mixed Control Output"
	LogTransAttitudeRef  = "Translation Attitude Reference"
	LogReferencePosition = "Reference Position"
)
