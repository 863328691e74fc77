package control

import (
	"strings"

	"github.com/ghalamif/AegisPilot/internal/domain"
	"github.com/ghalamif/AegisPilot/internal/ports"
)

// Parameters lists the pilot-mix parameters, then the attitude law's, then the
// translation law's.
func (c *Controller) Parameters() []domain.Parameter {
	mix := c.mix.Load()
	plist := []domain.Parameter{
		domain.NewParameter(domain.ParamMixRoll, mix[domain.Roll], domain.ComponentController),
		domain.NewParameter(domain.ParamMixPitch, mix[domain.Pitch], domain.ComponentController),
	}
	plist = append(plist, c.attitude.Parameters()...)
	plist = append(plist, c.translation.Parameters()...)
	return plist
}

// SetParameter routes p to exactly one setter and then saves the params file. Unknown
// ids are logged and ignored.
func (c *Controller) SetParameter(p domain.Parameter) {
	id := strings.TrimSpace(p.ID())
	set, ok := c.setters[id]
	if !ok {
		c.obs.IncCounter("aegis_param_rejected_total", 1)
		c.obs.LogWarn("unknown_parameter", ports.Field{Key: "param", Value: p.String()})
		return
	}
	set(p.Value())
	c.obs.IncCounter("aegis_param_updates_total", 1)

	if err := c.SaveFile(); err != nil {
		c.obs.LogError("params_save_failed", err, ports.Field{Key: "param", Value: id})
	}
}

func (c *Controller) buildSetters() map[string]func(float64) {
	a, t := c.attitude, c.translation
	return map[string]func(float64){
		domain.ParamMixRoll:  c.SetRollMix,
		domain.ParamMixPitch: c.SetPitchMix,

		domain.ParamRollKP:    a.SetRollProportional,
		domain.ParamRollKD:    a.SetRollDerivative,
		domain.ParamRollKI:    a.SetRollIntegral,
		domain.ParamPitchKP:   a.SetPitchProportional,
		domain.ParamPitchKD:   a.SetPitchDerivative,
		domain.ParamPitchKI:   a.SetPitchIntegral,
		domain.ParamRollTrim:  a.SetRollTrimDegrees,
		domain.ParamPitchTrim: a.SetPitchTrimDegrees,

		domain.ParamXKP:    t.SetXProportional,
		domain.ParamXKD:    t.SetXDerivative,
		domain.ParamXKI:    t.SetXIntegral,
		domain.ParamYKP:    t.SetYProportional,
		domain.ParamYKD:    t.SetYDerivative,
		domain.ParamYKI:    t.SetYIntegral,
		domain.ParamTravel: t.SetScaledTravelDegrees,
	}
}
