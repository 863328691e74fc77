package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/ghalamif/AegisPilot/internal/app/control"
	"github.com/ghalamif/AegisPilot/internal/ports"
)

// Stepper is the part of the controller the control loop drives.
type Stepper interface {
	Tick() error
	ControlEffort() ([]float64, error)
}

// RunControlLoop ticks the controller at a fixed interval and hands the mixed output to
// the actuator. It returns nil when ctx ends and the error when the controller reports
// a bad-control condition; nothing is actuated for that cycle.
func RunControlLoop(ctx context.Context, ctrl Stepper, act ports.Actuator, interval time.Duration, obs ports.Observability) error {
	if interval <= 0 {
		interval = 10 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		start := time.Now()
		err := step(ctrl, act, obs)
		obs.ObserveLatency("aegis_tick_duration_seconds", time.Since(start).Seconds())
		if err != nil {
			obs.LogCritical("control_loop_stopped", err)
			return err
		}
	}
}

func step(ctrl Stepper, act ports.Actuator, obs ports.Observability) error {
	if err := ctrl.Tick(); err != nil {
		if errors.Is(err, control.ErrBadControl) {
			return err
		}
		obs.LogError("tick_failed", err)
	}

	out, err := ctrl.ControlEffort()
	if err != nil {
		return err
	}
	if err := act.Apply(out); err != nil {
		obs.LogError("actuator_apply_failed", err)
	}
	return nil
}
