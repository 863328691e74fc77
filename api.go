package aegispilot

import (
	"github.com/rs/zerolog"

	base "github.com/ghalamif/AegisPilot/pkg/aegispilot"
)

// Re-exported errors for convenience.
var (
	ErrQueueFull         = base.ErrQueueFull
	ErrWALFull           = base.ErrWALFull
	ErrChannelSinkClosed = base.ErrChannelSinkClosed
)

// Type aliases so consumers can import github.com/ghalamif/AegisPilot directly.
type (
	Config             = base.Config
	ControlConfig      = base.ControlConfig
	RCConfig           = base.RCConfig
	TelemetryConfig    = base.TelemetryConfig
	Policy             = base.Policy
	TimescaleConfig    = base.TimescaleConfig
	MetricsConfig      = base.MetricsConfig
	WALConfig          = base.WALConfig
	LogConfig          = base.LogConfig
	GroundLinkConfig   = base.GroundLinkConfig
	ParamNode          = base.ParamNode
	ParamsSnapshot     = base.ParamsSnapshot
	Flow               = base.Flow
	FlowOption         = base.FlowOption
	ControlInOption    = base.ControlInOption
	ControlOutOption   = base.ControlOutOption
	Runtime            = base.Runtime
	RuntimeOption      = base.RuntimeOption
	ControllerMode     = base.ControllerMode
	Parameter          = base.Parameter
	AttitudeState      = base.AttitudeState
	PositionState      = base.PositionState
	Record             = base.Record
	Telemetry          = base.Telemetry
	TelemetryBatchSink = base.TelemetryBatchSink
	AttitudeLaw        = base.AttitudeLaw
	TranslationLaw     = base.TranslationLaw
	PilotInput         = base.PilotInput
	PositionSource     = base.PositionSource
	Actuator           = base.Actuator
	Commander          = base.Commander
	CommandLink        = base.CommandLink
	Sink               = base.Sink
	Observability      = base.Observability
	Field              = base.Field
	WAL                = base.WAL
	WALStats           = base.WALStats
	WALEntryID         = base.WALEntryID
	RecordQueue        = base.RecordQueue
	QueuedRecord       = base.QueuedRecord
)

const (
	ModeAttitudeStabilization = base.ModeAttitudeStabilization
	ModePositionHold          = base.ModePositionHold
)

// Config helpers.
func LoadConfig(path string) (*Config, error) {
	return base.LoadConfig(path)
}

// Flow builder helpers.
func Conf(path string, opts ...FlowOption) (*Flow, error) {
	return base.Conf(path, opts...)
}

func ConfFromConfig(cfg *Config, opts ...FlowOption) (*Flow, error) {
	return base.ConfFromConfig(cfg, opts...)
}

func WithFlowOptions(opts ...RuntimeOption) FlowOption {
	return base.WithFlowOptions(opts...)
}

func InPilot(p PilotInput) ControlInOption {
	return base.InPilot(p)
}

func InPosition(p PositionSource) ControlInOption {
	return base.InPosition(p)
}

func InAttitudeLaw(law AttitudeLaw) ControlInOption {
	return base.InAttitudeLaw(law)
}

func InTranslationLaw(law TranslationLaw) ControlInOption {
	return base.InTranslationLaw(law)
}

func InCommandLink(l CommandLink) ControlInOption {
	return base.InCommandLink(l)
}

func OutActuator(a Actuator) ControlOutOption {
	return base.OutActuator(a)
}

func OutSink(s Sink) ControlOutOption {
	return base.OutSink(s)
}

func OutObservability(obs Observability) ControlOutOption {
	return base.OutObservability(obs)
}

func OutCallback(name string, fn TelemetryBatchSink) ControlOutOption {
	return base.OutCallback(name, fn)
}

// Runtime and options.
func NewRuntime(cfg *Config, opts ...RuntimeOption) (*Runtime, error) {
	return base.NewRuntime(cfg, opts...)
}

func WithLogger(logger zerolog.Logger) RuntimeOption {
	return base.WithLogger(logger)
}

func WithObservability(obs Observability) RuntimeOption {
	return base.WithObservability(obs)
}

func WithWAL(w WAL) RuntimeOption {
	return base.WithWAL(w)
}

func WithRecordQueue(q RecordQueue) RuntimeOption {
	return base.WithRecordQueue(q)
}

func WithSink(s Sink) RuntimeOption {
	return base.WithSink(s)
}

func WithAttitudeLaw(law AttitudeLaw) RuntimeOption {
	return base.WithAttitudeLaw(law)
}

func WithTranslationLaw(law TranslationLaw) RuntimeOption {
	return base.WithTranslationLaw(law)
}

func WithPilotInput(p PilotInput) RuntimeOption {
	return base.WithPilotInput(p)
}

func WithPositionSource(p PositionSource) RuntimeOption {
	return base.WithPositionSource(p)
}

func WithActuator(a Actuator) RuntimeOption {
	return base.WithActuator(a)
}

func WithCommandLink(l CommandLink) RuntimeOption {
	return base.WithCommandLink(l)
}

// Parameters.
func NewParameter(id string, value float64) Parameter {
	return base.NewParameter(id, value)
}

func ReadParams(path string, logger zerolog.Logger) (ParamsSnapshot, error) {
	return base.ReadParams(path, logger)
}

// Sink adapters.
func NewCallbackSink(name string, fn TelemetryBatchSink) Sink {
	return base.NewCallbackSink(name, fn)
}

func NewChannelSink(name string, buffer int) (Sink, <-chan []Telemetry, func()) {
	return base.NewChannelSink(name, buffer)
}
