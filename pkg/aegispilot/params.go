package aegispilot

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/ghalamif/AegisPilot/internal/adapters/nav"
	"github.com/ghalamif/AegisPilot/internal/adapters/observability"
	"github.com/ghalamif/AegisPilot/internal/adapters/pid"
	"github.com/ghalamif/AegisPilot/internal/adapters/rc"
	"github.com/ghalamif/AegisPilot/internal/app/control"
)

// ParamsSnapshot is what a params document configures.
type ParamsSnapshot struct {
	// Mode is the stored mode; Valid() is false when the document has none.
	Mode       ControllerMode
	Parameters []Parameter
}

// ReadParams parses a params document offline against the built-in control laws.
// Unlike the runtime, a missing file is an error.
func ReadParams(path string, logger zerolog.Logger) (ParamsSnapshot, error) {
	if _, err := os.Stat(path); err != nil {
		return ParamsSnapshot{}, fmt.Errorf("params file: %w", err)
	}

	store := nav.NewStore()
	ctrl, err := control.New(control.Deps{
		Attitude:    pid.NewAttitudeController(store, pid.Config{}),
		Translation: pid.NewTranslationController(store, store, pid.Config{}),
		Pilot:       rc.NewReceiver(rc.DefaultChannelMap, 0),
		Position:    store,
		Telemetry:   discardTelemetry{},
		Obs:         observability.NewLogObs(logger),
		ParamsPath:  path,
	})
	if err != nil {
		return ParamsSnapshot{}, err
	}
	if err := ctrl.LoadFile(); err != nil {
		return ParamsSnapshot{}, err
	}
	return ParamsSnapshot{Mode: ctrl.Mode(), Parameters: ctrl.Parameters()}, nil
}

type discardTelemetry struct{}

func (discardTelemetry) LogVector(string, []float64) {}
