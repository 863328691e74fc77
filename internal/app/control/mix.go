package control

import (
	"fmt"

	"github.com/ghalamif/AegisPilot/internal/domain"
	"github.com/ghalamif/AegisPilot/internal/ports"
)

// PilotMix returns a copy of the blend weights.
func (c *Controller) PilotMix() domain.PilotMix {
	return c.mix.Load()
}

func (c *Controller) SetRollMix(v float64) {
	c.setMix(domain.Roll, "roll", v)
}

func (c *Controller) SetPitchMix(v float64) {
	c.setMix(domain.Pitch, "pitch", v)
}

func (c *Controller) setMix(ch domain.Channel, name string, v float64) {
	if !domain.ValidWeight(v) {
		c.obs.LogWarn("pilot_mix_invalid",
			ports.Field{Key: "channel", Value: name},
			ports.Field{Key: "value", Value: v})
		return
	}
	_ = c.mix.With(func(m *domain.PilotMix) error {
		m[ch] = v
		return nil
	})
	c.obs.LogInfo("pilot_mix_changed",
		ports.Field{Key: "channel", Value: name},
		ports.Field{Key: "value", Value: v})
}

// ControlEffort blends the pilot channels with the attitude law's effort:
// out[i] = mix[i]*pilot[i] + (1-mix[i])*effort[i]. Length or weight violations are
// returned as ErrBadControl errors and nothing is logged.
func (c *Controller) ControlEffort() ([]float64, error) {
	pilot := c.pilot.ScaledVector()
	effort := c.attitude.ControlEffort()
	mix := c.mix.Load()

	if len(pilot) != domain.NumChannels || len(effort) != len(pilot) || len(mix) != len(pilot) {
		return nil, fmt.Errorf("%w (pilot=%d effort=%d mix=%d)", ErrVectorLength, len(pilot), len(effort), len(mix))
	}

	out := make([]float64, domain.NumChannels)
	for i := range out {
		if !domain.ValidWeight(mix[i]) {
			return nil, fmt.Errorf("%w (channel=%d value=%g)", ErrMixOutOfRange, i, mix[i])
		}
		out[i] = mix[i]*pilot[i] + (1-mix[i])*effort[i]
	}

	c.telemetry.LogVector(domain.LogControlEffort, effort)
	c.telemetry.LogVector(domain.LogMixedOutput, out)
	return out, nil
}
