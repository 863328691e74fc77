package pid

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/beevik/etree"

	"github.com/ghalamif/AegisPilot/internal/domain"
	"github.com/ghalamif/AegisPilot/internal/ports"
)

const (
	TranslationTag = "translation_outer_pid"

	defaultTravelDegrees = 10
)

// TranslationController is the outer position loop. It turns a NED reference into a
// [roll, pitch] attitude reference bounded by the scaled travel.
type TranslationController struct {
	cfg     Config
	nav     ports.NavigationSource
	heading ports.AttitudeSource

	mu        sync.Mutex
	x         Loop
	y         Loop
	travel    float64 // radians
	lastStamp time.Time
}

var _ ports.TranslationLaw = (*TranslationController)(nil)

// NewTranslationController builds the outer loop. heading may be nil, in which case the
// north axis is assumed to be the nose.
func NewTranslationController(nav ports.NavigationSource, heading ports.AttitudeSource, cfg Config) *TranslationController {
	cfg.applyDefaults()
	return &TranslationController{
		cfg:     cfg,
		nav:     nav,
		heading: heading,
		x:       Loop{IntegralLimit: cfg.IntegralLimit},
		y:       Loop{IntegralLimit: cfg.IntegralLimit},
		travel:  degToRad(defaultTravelDegrees),
	}
}

func (t *TranslationController) ConfigTag() string { return TranslationTag }

func (t *TranslationController) Runnable() bool {
	pos, ok := t.nav.Position()
	return ok && t.cfg.Now().Sub(pos.Timestamp) <= t.cfg.StateTimeout
}

// Compute needs a 3-element NED reference and a fresh position estimate.
func (t *TranslationController) Compute(reference []float64) domain.Result {
	if len(reference) < 3 {
		return domain.Failure(domain.ReasonInvalidReference)
	}
	pos, ok := t.nav.Position()
	if !ok {
		return domain.Failure(domain.ReasonNotRunnable)
	}
	if t.cfg.Now().Sub(pos.Timestamp) > t.cfg.StateTimeout {
		return domain.Failure(domain.ReasonStaleState)
	}

	var yaw float64
	if t.heading != nil {
		if att, ok := t.heading.Attitude(); ok {
			yaw = att.Yaw
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	dt := t.cfg.Period.Seconds()
	if !t.lastStamp.IsZero() && pos.Timestamp.After(t.lastStamp) {
		dt = pos.Timestamp.Sub(t.lastStamp).Seconds()
	}
	t.lastStamp = pos.Timestamp

	north := t.x.Update(reference[0]-pos.North, pos.VelNorth, dt)
	east := t.y.Update(reference[1]-pos.East, pos.VelEast, dt)

	// rotate into the heading frame: forward needs nose down, right needs right roll
	sin, cos := math.Sincos(yaw)
	forward := cos*north + sin*east
	right := -sin*north + cos*east

	roll := constrain(right, -t.travel, t.travel)
	pitch := constrain(-forward, -t.travel, t.travel)
	return domain.Success([]float64{roll, pitch})
}

func (t *TranslationController) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.x.Reset()
	t.y.Reset()
	t.lastStamp = time.Time{}
}

func (t *TranslationController) SetXProportional(v float64) { t.set(func() { t.x.Kp = v }) }
func (t *TranslationController) SetXDerivative(v float64)   { t.set(func() { t.x.Kd = v }) }
func (t *TranslationController) SetXIntegral(v float64)     { t.set(func() { t.x.Ki = v }) }
func (t *TranslationController) SetYProportional(v float64) { t.set(func() { t.y.Kp = v }) }
func (t *TranslationController) SetYDerivative(v float64)   { t.set(func() { t.y.Kd = v }) }
func (t *TranslationController) SetYIntegral(v float64)     { t.set(func() { t.y.Ki = v }) }

// SetScaledTravelDegrees bounds the commanded attitude. Negative values are taken as
// their magnitude.
func (t *TranslationController) SetScaledTravelDegrees(v float64) {
	t.set(func() { t.travel = degToRad(math.Abs(v)) })
}

func (t *TranslationController) set(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn()
}

func (t *TranslationController) Parameters() []domain.Parameter {
	t.mu.Lock()
	defer t.mu.Unlock()
	owner := domain.ComponentController
	return []domain.Parameter{
		domain.NewParameter(domain.ParamXKP, t.x.Kp, owner),
		domain.NewParameter(domain.ParamXKD, t.x.Kd, owner),
		domain.NewParameter(domain.ParamXKI, t.x.Ki, owner),
		domain.NewParameter(domain.ParamYKP, t.y.Kp, owner),
		domain.NewParameter(domain.ParamYKD, t.y.Kd, owner),
		domain.NewParameter(domain.ParamYKI, t.y.Ki, owner),
		domain.NewParameter(domain.ParamTravel, radToDeg(t.travel), owner),
	}
}

// ParseConfig reads <x>, <y> and <travel>. Nothing is applied when any value is
// malformed.
func (t *TranslationController) ParseConfig(el *etree.Element) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	x, y, travel := t.x, t.y, t.travel
	for _, child := range el.ChildElements() {
		switch {
		case strings.EqualFold(child.Tag, "x"):
			if err := parseLoop(child, &x); err != nil {
				return err
			}
		case strings.EqualFold(child.Tag, "y"):
			if err := parseLoop(child, &y); err != nil {
				return err
			}
		case strings.EqualFold(child.Tag, "travel"):
			deg, err := parseFloat(child)
			if err != nil {
				return fmt.Errorf("%s travel: %w", TranslationTag, err)
			}
			travel = degToRad(math.Abs(deg))
		default:
			return fmt.Errorf("%s: unknown element %q", TranslationTag, child.Tag)
		}
	}

	t.x, t.y, t.travel = x, y, travel
	return nil
}

func (t *TranslationController) ConfigElement() *etree.Element {
	t.mu.Lock()
	defer t.mu.Unlock()

	el := etree.NewElement(TranslationTag)
	el.AddChild(loopElement("x", &t.x))
	el.AddChild(loopElement("y", &t.y))
	el.CreateElement("travel").SetText(formatFloat(radToDeg(t.travel)))
	return el
}
