package control

import (
	"fmt"
	"sync/atomic"

	"github.com/ghalamif/AegisPilot/internal/domain"
	"github.com/ghalamif/AegisPilot/internal/ports"
)

// Deps are the collaborators a Controller is built from. Position may be nil when no
// position sensor is fitted; reference capture then fails.
type Deps struct {
	Attitude    ports.AttitudeLaw
	Translation ports.TranslationLaw
	Pilot       ports.PilotInput
	Position    ports.PositionSource
	Telemetry   ports.TelemetryLog
	Obs         ports.Observability
	ParamsPath  string
}

// Controller blends pilot input with control effort and decides which control law
// runs each tick. Every piece of mutable state sits behind its own lock and no lock is
// held while calling into a control law or another resource.
type Controller struct {
	attitude    ports.AttitudeLaw
	translation ports.TranslationLaw
	pilot       ports.PilotInput
	position    ports.PositionSource
	telemetry   ports.TelemetryLog
	obs         ports.Observability

	mix       *Guarded[domain.PilotMix]
	mode      *Guarded[domain.ControllerMode]
	reference *Guarded[[]float64]
	file      *Guarded[paramsFile]

	observers observerList
	setters   map[string]func(float64)

	attitudeFailing atomic.Bool
}

// Compile-time assertion that Controller implements ports.Commander
var _ ports.Commander = (*Controller)(nil)

// New wires a Controller. The mode starts uninitialized; callers set it explicitly or
// through LoadFile.
func New(deps Deps) (*Controller, error) {
	switch {
	case deps.Attitude == nil:
		return nil, fmt.Errorf("attitude control law is required")
	case deps.Translation == nil:
		return nil, fmt.Errorf("translation control law is required")
	case deps.Pilot == nil:
		return nil, fmt.Errorf("pilot input is required")
	case deps.Telemetry == nil:
		return nil, fmt.Errorf("telemetry log is required")
	case deps.Obs == nil:
		return nil, fmt.Errorf("observability is required")
	case deps.ParamsPath == "":
		return nil, fmt.Errorf("params path is required")
	}

	c := &Controller{
		attitude:    deps.Attitude,
		translation: deps.Translation,
		pilot:       deps.Pilot,
		position:    deps.Position,
		telemetry:   deps.Telemetry,
		obs:         deps.Obs,
		mix:         NewGuarded(domain.DefaultPilotMix()),
		mode:        NewGuarded(domain.ModeUninitialized),
		reference:   NewGuarded[[]float64](nil),
		file:        NewGuarded(paramsFile{path: deps.ParamsPath}),
	}
	c.setters = c.buildSetters()
	return c, nil
}

// Reset returns every owned control law to its initial state. Mode and mix are kept.
func (c *Controller) Reset() {
	c.translation.Reset()
	c.attitude.Reset()
}

// Runnable is true while attitude can still be controlled; position hold is optional.
func (c *Controller) Runnable() bool {
	return c.attitude.Runnable()
}
