package ports

import (
	"context"

	"github.com/ghalamif/AegisPilot/internal/domain"
)

// Commander is what a ground-station link may ask of the orchestrator.
type Commander interface {
	SetMode(mode domain.ControllerMode) error
	Mode() domain.ControllerMode
	Subscribe(fn func(domain.ControllerMode)) (cancel func())
	SetParameter(p domain.Parameter)
	Parameters() []domain.Parameter
	CaptureReferencePosition() error
}

// CommandLink delivers asynchronous commands from the ground station.
type CommandLink interface {
	Start(ctx context.Context, cmd Commander) error
	Stop() error
}
