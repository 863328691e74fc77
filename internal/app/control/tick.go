package control

import (
	"github.com/ghalamif/AegisPilot/internal/domain"
	"github.com/ghalamif/AegisPilot/internal/ports"
)

// Tick runs one control cycle for the active mode. The mode checks are not exclusive:
// after a fallback out of position hold, attitude stabilization runs in the same tick.
// Only an invalid mode is returned as an error.
func (c *Controller) Tick() error {
	c.obs.IncCounter("aegis_control_ticks_total", 1)
	ran := false

	if c.Mode() == domain.ModePositionHold {
		ran = true
		c.runPositionHold()
	}

	if c.Mode() == domain.ModeAttitudeStabilization {
		ran = true
		reference := []float64{c.attitude.RollTrimRadians(), c.attitude.PitchTrimRadians()}
		c.runAttitude(reference)
	}

	if !ran {
		return ErrNoControlMode
	}
	return nil
}

func (c *Controller) runPositionHold() {
	if !c.translation.Runnable() {
		c.fallback("translation_not_runnable", domain.ReasonNotRunnable)
		return
	}

	res := c.translation.Compute(c.ReferencePosition())
	if !res.OK() {
		c.fallback("translation_failed", res.Failure)
		return
	}

	c.telemetry.LogVector(domain.LogTransAttitudeRef, res.Effort)
	c.runAttitude(res.Effort)
}

func (c *Controller) runAttitude(reference []float64) {
	res := c.attitude.Compute(reference)
	if res.OK() {
		if c.attitudeFailing.Swap(false) {
			c.obs.LogInfo("attitude_control_recovered")
		}
		return
	}
	c.obs.IncCounter("aegis_attitude_failures_total", 1)
	if !c.attitudeFailing.Swap(true) {
		c.obs.LogWarn("attitude_control_failed", ports.Field{Key: "reason", Value: res.Failure.String()})
	}
}

// fallback drops to attitude stabilization. The mode lock is taken fresh by SetMode.
func (c *Controller) fallback(msg string, reason domain.FailureReason) {
	c.obs.LogWarn(msg,
		ports.Field{Key: "reason", Value: reason.String()},
		ports.Field{Key: "fallback", Value: domain.ModeAttitudeStabilization.String()})
	c.obs.IncCounter("aegis_mode_fallbacks_total", 1)
	_ = c.SetMode(domain.ModeAttitudeStabilization)
}
