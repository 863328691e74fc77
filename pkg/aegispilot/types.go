package aegispilot

import (
	"github.com/ghalamif/AegisPilot/internal/domain"
	"github.com/ghalamif/AegisPilot/internal/ports"
)

// ControllerMode selects which control law stack drives the aircraft.
type ControllerMode = domain.ControllerMode

const (
	ModeAttitudeStabilization = domain.ModeAttitudeStabilization
	ModePositionHold          = domain.ModePositionHold
)

// Parameter is a named tunable value owned by a component.
type Parameter = domain.Parameter

// NewParameter builds a parameter addressed to the controller.
func NewParameter(id string, value float64) Parameter {
	return domain.NewParameter(id, value, domain.ComponentController)
}

type (
	// AttitudeState is an attitude estimate in radians and radians/second.
	AttitudeState = domain.AttitudeState
	// PositionState is a NED position and velocity estimate.
	PositionState = domain.PositionState
	// Record is the telemetry unit that flows through the WAL, queue and sink.
	Record = domain.Record
)

// AttitudeLaw is the inner loop holding roll and pitch.
type AttitudeLaw = ports.AttitudeLaw

// TranslationLaw is the outer position loop.
type TranslationLaw = ports.TranslationLaw

// PilotInput supplies the scaled six-channel pilot vector.
type PilotInput = ports.PilotInput

// PositionSource supplies the NED position used for reference capture.
type PositionSource = ports.PositionSource

// Actuator receives the mixed output every control cycle.
type Actuator = ports.Actuator

// Commander is the command surface a ground-station link drives.
type Commander = ports.Commander

// CommandLink delivers asynchronous ground-station commands.
type CommandLink = ports.CommandLink

// Sink consumes batches of telemetry records and persists them downstream.
type Sink = ports.Sink

// Observability emits metrics and logs.
type Observability = ports.Observability

// Field is a structured log field used by Observability implementations.
type Field = ports.Field

// WAL abstracts the write-ahead log used for telemetry durability.
type WAL = ports.WAL

// WALStats exposes WAL metadata for observability.
type WALStats = ports.WALStats

// WALEntryID uniquely identifies a WAL entry.
type WALEntryID = ports.WALEntryID

// RecordQueue is the bounded queue between the recorder and the ingest loop.
type RecordQueue = ports.RecordQueue

// QueuedRecord is an item buffered inside the RecordQueue.
type QueuedRecord = ports.QueuedRecord

// Parameter ids accepted by SetParameter.
const (
	ParamMixRoll   = domain.ParamMixRoll
	ParamMixPitch  = domain.ParamMixPitch
	ParamRollKP    = domain.ParamRollKP
	ParamRollKD    = domain.ParamRollKD
	ParamRollKI    = domain.ParamRollKI
	ParamPitchKP   = domain.ParamPitchKP
	ParamPitchKD   = domain.ParamPitchKD
	ParamPitchKI   = domain.ParamPitchKI
	ParamRollTrim  = domain.ParamRollTrim
	ParamPitchTrim = domain.ParamPitchTrim
	ParamXKP       = domain.ParamXKP
	ParamXKD       = domain.ParamXKD
	ParamXKI       = domain.ParamXKI
	ParamYKP       = domain.ParamYKP
	ParamYKD       = domain.ParamYKD
	ParamYKI       = domain.ParamYKI
	ParamTravel    = domain.ParamTravel
)

// Names of the vectors the controller records.
const (
	LogControlEffort     = domain.LogControlEffort
	LogMixedOutput       = domain.LogMixedOutput
	LogTransAttitudeRef  = domain.LogTransAttitudeRef
	LogReferencePosition = domain.LogReferencePosition
)
