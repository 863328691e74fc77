package ports

import (
	"github.com/beevik/etree"

	"github.com/ghalamif/AegisPilot/internal/domain"
)

// ControlLaw is the capability every control law shares with the orchestrator.
type ControlLaw interface {
	Runnable() bool
	Reset()
	Parameters() []domain.Parameter

	// ConfigTag names the params-document element the law owns.
	ConfigTag() string
	ParseConfig(el *etree.Element) error
	ConfigElement() *etree.Element
}

// AttitudeLaw is the inner loop holding roll and pitch.
type AttitudeLaw interface {
	ControlLaw

	// Compute runs one step towards a [roll, pitch] reference in radians.
	Compute(reference []float64) domain.Result
	// ControlEffort returns the latest 6-channel effort.
	ControlEffort() []float64

	RollTrimRadians() float64
	PitchTrimRadians() float64

	SetRollProportional(v float64)
	SetRollDerivative(v float64)
	SetRollIntegral(v float64)
	SetPitchProportional(v float64)
	SetPitchDerivative(v float64)
	SetPitchIntegral(v float64)
	SetRollTrimDegrees(v float64)
	SetPitchTrimDegrees(v float64)
}

// TranslationLaw is the outer loop that turns a NED position reference into a
// [roll, pitch] attitude reference.
type TranslationLaw interface {
	ControlLaw

	Compute(reference []float64) domain.Result

	SetXProportional(v float64)
	SetXDerivative(v float64)
	SetXIntegral(v float64)
	SetYProportional(v float64)
	SetYDerivative(v float64)
	SetYIntegral(v float64)
	SetScaledTravelDegrees(v float64)
}
