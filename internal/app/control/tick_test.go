package control

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ghalamif/AegisPilot/internal/domain"
)

func TestTickAttitudeUsesTrimReference(t *testing.T) {
	f := newFixture(t)
	_ = f.ctrl.SetMode(domain.ModeAttitudeStabilization)
	f.attitude.set(domain.ParamRollTrim, 0.02)
	f.attitude.set(domain.ParamPitchTrim, -0.01)

	if err := f.ctrl.Tick(); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if f.translation.computeCalls() != 0 {
		t.Fatalf("translation law must not run in attitude mode")
	}
	if diff := cmp.Diff([][]float64{{0.02, -0.01}}, f.attitude.refs); diff != "" {
		t.Fatalf("unexpected attitude reference (-want +got):\n%s", diff)
	}
	if f.obs.counter("aegis_control_ticks_total") != 1 {
		t.Fatalf("tick counter not incremented")
	}
}

func TestTickPositionHoldFeedsAttitude(t *testing.T) {
	f := newFixture(t)
	_ = f.ctrl.SetMode(domain.ModePositionHold)
	if err := f.ctrl.SetReferencePosition([]float64{1, 2, 3}); err != nil {
		t.Fatalf("set reference: %v", err)
	}
	f.translation.result = domain.Success([]float64{0.1, -0.2})

	if err := f.ctrl.Tick(); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if diff := cmp.Diff([][]float64{{1, 2, 3}}, f.translation.refs); diff != "" {
		t.Fatalf("translation law must see the reference position (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([][]float64{{0.1, -0.2}}, f.attitude.refs); diff != "" {
		t.Fatalf("attitude law must track the translation output (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{0.1, -0.2}, f.telemetry.vectors[domain.LogTransAttitudeRef]); diff != "" {
		t.Fatalf("attitude reference not logged (-want +got):\n%s", diff)
	}
	if f.ctrl.Mode() != domain.ModePositionHold {
		t.Fatalf("mode must stay position hold")
	}
}

func TestTickPositionHoldNotRunnableFallsBack(t *testing.T) {
	f := newFixture(t)
	_ = f.ctrl.SetMode(domain.ModePositionHold)
	f.translation.setRunnable(false)

	var events []domain.ControllerMode
	defer f.ctrl.Subscribe(func(m domain.ControllerMode) { events = append(events, m) })()

	if err := f.ctrl.Tick(); err != nil {
		t.Fatalf("fallback must not surface as an error: %v", err)
	}
	if f.ctrl.Mode() != domain.ModeAttitudeStabilization {
		t.Fatalf("expected attitude stabilization, got %v", f.ctrl.Mode())
	}
	if f.obs.count("warn", "translation_not_runnable") != 1 {
		t.Fatalf("expected a fallback warning")
	}
	if diff := cmp.Diff([]domain.ControllerMode{domain.ModeAttitudeStabilization}, events); diff != "" {
		t.Fatalf("expected one mode change (-want +got):\n%s", diff)
	}
	// attitude stabilization runs in the same tick
	if f.attitude.computeCalls() != 1 {
		t.Fatalf("expected attitude law to run once, got %d", f.attitude.computeCalls())
	}
	if f.obs.counter("aegis_mode_fallbacks_total") != 1 {
		t.Fatalf("fallback counter not incremented")
	}
}

func TestTickPositionHoldFailureFallsBack(t *testing.T) {
	f := newFixture(t)
	_ = f.ctrl.SetMode(domain.ModePositionHold)
	f.translation.result = domain.Failure(domain.ReasonInvalidReference)

	if err := f.ctrl.Tick(); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if f.ctrl.Mode() != domain.ModeAttitudeStabilization {
		t.Fatalf("expected fallback, got %v", f.ctrl.Mode())
	}
	if f.obs.count("warn", "translation_failed") != 1 {
		t.Fatalf("expected a failure warning")
	}
	if f.telemetry.has(domain.LogTransAttitudeRef) {
		t.Fatalf("failed computation must not log a reference")
	}
}

func TestTickInvalidModeIsFatal(t *testing.T) {
	f := newFixture(t)

	err := f.ctrl.Tick()
	if !errors.Is(err, ErrNoControlMode) || !errors.Is(err, ErrBadControl) {
		t.Fatalf("expected ErrNoControlMode, got %v", err)
	}
	if f.attitude.computeCalls() != 0 || f.translation.computeCalls() != 0 {
		t.Fatalf("no law may run without a mode")
	}
}

func TestTickAttitudeFailureLoggedOnEdges(t *testing.T) {
	f := newFixture(t)
	_ = f.ctrl.SetMode(domain.ModeAttitudeStabilization)
	f.attitude.result = domain.Failure(domain.ReasonStaleState)

	for i := 0; i < 3; i++ {
		if err := f.ctrl.Tick(); err != nil {
			t.Fatalf("tick: %v", err)
		}
	}
	if f.obs.count("warn", "attitude_control_failed") != 1 {
		t.Fatalf("expected one failure warning for a run of failures")
	}
	if f.obs.counter("aegis_attitude_failures_total") != 3 {
		t.Fatalf("expected every failed tick counted")
	}

	f.attitude.result = domain.Success(nil)
	_ = f.ctrl.Tick()
	if f.obs.count("info", "attitude_control_recovered") != 1 {
		t.Fatalf("expected recovery to be logged")
	}
}
