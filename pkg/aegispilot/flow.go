package aegispilot

import (
	"context"
	"fmt"
)

// Flow is a convenience builder that lets callers say Conf → ControlIN → ControlOUT
// without touching the underlying hexagonal wiring.
type Flow struct {
	cfg  *Config
	opts []RuntimeOption
}

// FlowOption mutates the Flow after configuration is loaded.
type FlowOption func(*Flow)

// ControlInOption configures what feeds the controller: pilot input, position, control
// laws and the ground-station link.
type ControlInOption func(*Flow)

// ControlOutOption configures where results go: actuator, telemetry sink and
// observability.
type ControlOutOption func(*Flow)

// Conf loads YAML from disk, applies FlowOption values, and returns a Flow builder.
func Conf(path string, opts ...FlowOption) (*Flow, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return ConfFromConfig(cfg, opts...)
}

// ConfFromConfig bootstraps a Flow from an in-memory Config.
func ConfFromConfig(cfg *Config, opts ...FlowOption) (*Flow, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	f := &Flow{cfg: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f, nil
}

// Config returns the underlying configuration so callers can tweak it before building a runtime.
func (f *Flow) Config() *Config {
	if f == nil {
		return nil
	}
	return f.cfg
}

// Options appends raw RuntimeOption values to the builder for advanced scenarios.
func (f *Flow) Options(opts ...RuntimeOption) *Flow {
	if f == nil {
		return nil
	}
	f.appendOptions(opts...)
	return f
}

// ControlIN records input-side overrides.
func (f *Flow) ControlIN(opts ...ControlInOption) *Flow {
	if f == nil {
		return nil
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// ControlOUT records output-side overrides and builds a Runtime ready to run.
func (f *Flow) ControlOUT(opts ...ControlOutOption) (*Runtime, error) {
	if f == nil {
		return nil, fmt.Errorf("flow is nil")
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return NewRuntime(f.cfg, f.opts...)
}

// Run is a shortcut for ControlOUT + runtime.Run.
func (f *Flow) Run(ctx context.Context, opts ...ControlOutOption) error {
	rt, err := f.ControlOUT(opts...)
	if err != nil {
		return err
	}
	return rt.Run(ctx)
}

// WithFlowOptions appends RuntimeOption values during Conf.
func WithFlowOptions(opts ...RuntimeOption) FlowOption {
	return func(f *Flow) {
		if f != nil {
			f.appendOptions(opts...)
		}
	}
}

// InPilot replaces the iBus receiver with another pilot channel source.
func InPilot(p PilotInput) ControlInOption {
	return func(f *Flow) {
		if f != nil && p != nil {
			f.appendOptions(WithPilotInput(p))
		}
	}
}

// InPosition replaces the navigation store as the reference-capture source.
func InPosition(p PositionSource) ControlInOption {
	return func(f *Flow) {
		if f != nil && p != nil {
			f.appendOptions(WithPositionSource(p))
		}
	}
}

// InAttitudeLaw swaps the attitude PID for a custom law.
func InAttitudeLaw(law AttitudeLaw) ControlInOption {
	return func(f *Flow) {
		if f != nil && law != nil {
			f.appendOptions(WithAttitudeLaw(law))
		}
	}
}

// InTranslationLaw swaps the position-hold PID for a custom law.
func InTranslationLaw(law TranslationLaw) ControlInOption {
	return func(f *Flow) {
		if f != nil && law != nil {
			f.appendOptions(WithTranslationLaw(law))
		}
	}
}

// InCommandLink replaces the OPC UA ground-station link.
func InCommandLink(l CommandLink) ControlInOption {
	return func(f *Flow) {
		if f != nil && l != nil {
			f.appendOptions(WithCommandLink(l))
		}
	}
}

// OutActuator receives the mixed output every control cycle.
func OutActuator(a Actuator) ControlOutOption {
	return func(f *Flow) {
		if f != nil && a != nil {
			f.appendOptions(WithActuator(a))
		}
	}
}

// OutSink injects a custom telemetry sink.
func OutSink(s Sink) ControlOutOption {
	return func(f *Flow) {
		if f != nil && s != nil {
			f.appendOptions(WithSink(s))
		}
	}
}

// OutObservability replaces the default observability backend.
func OutObservability(obs Observability) ControlOutOption {
	return func(f *Flow) {
		if f != nil && obs != nil {
			f.appendOptions(WithObservability(obs))
		}
	}
}

// OutCallback installs a telemetry sink built from a simple callback function.
func OutCallback(name string, fn TelemetryBatchSink) ControlOutOption {
	return func(f *Flow) {
		if f != nil {
			f.appendOptions(WithSink(NewCallbackSink(name, fn)))
		}
	}
}

func (f *Flow) appendOptions(opts ...RuntimeOption) {
	for _, opt := range opts {
		if opt != nil {
			f.opts = append(f.opts, opt)
		}
	}
}
