package pid

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/beevik/etree"

	"github.com/ghalamif/AegisPilot/internal/domain"
	"github.com/ghalamif/AegisPilot/internal/ports"
)

const AttitudeTag = "attitude_pid"

// Config tunes the timing behaviour shared by both control laws.
type Config struct {
	// StateTimeout is how old a state estimate may be before the law stops running.
	StateTimeout time.Duration
	// Period is the dt used when consecutive estimates carry no usable timestamps.
	Period        time.Duration
	IntegralLimit float64
	Now           func() time.Time
}

func (c *Config) applyDefaults() {
	if c.StateTimeout <= 0 {
		c.StateTimeout = 200 * time.Millisecond
	}
	if c.Period <= 0 {
		c.Period = 10 * time.Millisecond
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}

// AttitudeController holds roll and pitch against a reference in radians.
type AttitudeController struct {
	cfg   Config
	state ports.AttitudeSource

	mu        sync.Mutex
	roll      Loop
	pitch     Loop
	rollTrim  float64
	pitchTrim float64
	effort    []float64
	lastStamp time.Time
}

var _ ports.AttitudeLaw = (*AttitudeController)(nil)

func NewAttitudeController(state ports.AttitudeSource, cfg Config) *AttitudeController {
	cfg.applyDefaults()
	return &AttitudeController{
		cfg:    cfg,
		state:  state,
		roll:   Loop{IntegralLimit: cfg.IntegralLimit},
		pitch:  Loop{IntegralLimit: cfg.IntegralLimit},
		effort: make([]float64, domain.NumChannels),
	}
}

func (a *AttitudeController) ConfigTag() string { return AttitudeTag }

func (a *AttitudeController) Runnable() bool {
	st, ok := a.state.Attitude()
	return ok && a.cfg.Now().Sub(st.Timestamp) <= a.cfg.StateTimeout
}

// Compute needs a [roll, pitch] reference and a fresh attitude estimate. A failed
// compute zeroes the latest effort so no stale correction reaches the mixer.
func (a *AttitudeController) Compute(reference []float64) domain.Result {
	if len(reference) < 2 {
		return a.fail(domain.ReasonInvalidReference)
	}
	st, ok := a.state.Attitude()
	if !ok {
		return a.fail(domain.ReasonNotRunnable)
	}
	if a.cfg.Now().Sub(st.Timestamp) > a.cfg.StateTimeout {
		return a.fail(domain.ReasonStaleState)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	dt := a.cfg.Period.Seconds()
	if !a.lastStamp.IsZero() && st.Timestamp.After(a.lastStamp) {
		dt = st.Timestamp.Sub(a.lastStamp).Seconds()
	}
	a.lastStamp = st.Timestamp

	effort := make([]float64, domain.NumChannels)
	effort[domain.Roll] = a.roll.Update(reference[0]-st.Roll, st.RollRate, dt)
	effort[domain.Pitch] = a.pitch.Update(reference[1]-st.Pitch, st.PitchRate, dt)
	a.effort = effort

	return domain.Success(append([]float64(nil), effort...))
}

func (a *AttitudeController) fail(reason domain.FailureReason) domain.Result {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.effort = make([]float64, domain.NumChannels)
	return domain.Failure(reason)
}

func (a *AttitudeController) ControlEffort() []float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]float64(nil), a.effort...)
}

func (a *AttitudeController) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.roll.Reset()
	a.pitch.Reset()
	a.effort = make([]float64, domain.NumChannels)
	a.lastStamp = time.Time{}
}

func (a *AttitudeController) RollTrimRadians() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.rollTrim
}

func (a *AttitudeController) PitchTrimRadians() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pitchTrim
}

func (a *AttitudeController) SetRollProportional(v float64)  { a.set(func() { a.roll.Kp = v }) }
func (a *AttitudeController) SetRollDerivative(v float64)    { a.set(func() { a.roll.Kd = v }) }
func (a *AttitudeController) SetRollIntegral(v float64)      { a.set(func() { a.roll.Ki = v }) }
func (a *AttitudeController) SetPitchProportional(v float64) { a.set(func() { a.pitch.Kp = v }) }
func (a *AttitudeController) SetPitchDerivative(v float64)   { a.set(func() { a.pitch.Kd = v }) }
func (a *AttitudeController) SetPitchIntegral(v float64)     { a.set(func() { a.pitch.Ki = v }) }
func (a *AttitudeController) SetRollTrimDegrees(v float64)   { a.set(func() { a.rollTrim = degToRad(v) }) }
func (a *AttitudeController) SetPitchTrimDegrees(v float64)  { a.set(func() { a.pitchTrim = degToRad(v) }) }

func (a *AttitudeController) set(fn func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fn()
}

func (a *AttitudeController) Parameters() []domain.Parameter {
	a.mu.Lock()
	defer a.mu.Unlock()
	owner := domain.ComponentController
	return []domain.Parameter{
		domain.NewParameter(domain.ParamRollKP, a.roll.Kp, owner),
		domain.NewParameter(domain.ParamRollKD, a.roll.Kd, owner),
		domain.NewParameter(domain.ParamRollKI, a.roll.Ki, owner),
		domain.NewParameter(domain.ParamPitchKP, a.pitch.Kp, owner),
		domain.NewParameter(domain.ParamPitchKD, a.pitch.Kd, owner),
		domain.NewParameter(domain.ParamPitchKI, a.pitch.Ki, owner),
		domain.NewParameter(domain.ParamRollTrim, radToDeg(a.rollTrim), owner),
		domain.NewParameter(domain.ParamPitchTrim, radToDeg(a.pitchTrim), owner),
	}
}

// ParseConfig reads <roll> and <pitch> blocks; each may carry a <trim> in degrees.
// Nothing is applied when any value is malformed.
func (a *AttitudeController) ParseConfig(el *etree.Element) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	roll, pitch := a.roll, a.pitch
	rollTrim, pitchTrim := a.rollTrim, a.pitchTrim

	for _, axis := range el.ChildElements() {
		var (
			loop *Loop
			trim *float64
		)
		switch {
		case strings.EqualFold(axis.Tag, "roll"):
			loop, trim = &roll, &rollTrim
		case strings.EqualFold(axis.Tag, "pitch"):
			loop, trim = &pitch, &pitchTrim
		default:
			return fmt.Errorf("%s: unknown element %q", AttitudeTag, axis.Tag)
		}
		if err := parseLoop(axis, loop); err != nil {
			return err
		}
		if t := axis.SelectElement("trim"); t != nil {
			deg, err := parseFloat(t)
			if err != nil {
				return fmt.Errorf("%s trim: %w", axis.Tag, err)
			}
			*trim = degToRad(deg)
		}
	}

	a.roll, a.pitch = roll, pitch
	a.rollTrim, a.pitchTrim = rollTrim, pitchTrim
	return nil
}

func (a *AttitudeController) ConfigElement() *etree.Element {
	a.mu.Lock()
	defer a.mu.Unlock()

	el := etree.NewElement(AttitudeTag)
	roll := loopElement("roll", &a.roll)
	roll.CreateElement("trim").SetText(formatFloat(radToDeg(a.rollTrim)))
	el.AddChild(roll)

	pitch := loopElement("pitch", &a.pitch)
	pitch.CreateElement("trim").SetText(formatFloat(radToDeg(a.pitchTrim)))
	el.AddChild(pitch)
	return el
}
