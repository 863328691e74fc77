package control

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/ghalamif/AegisPilot/internal/domain"
)

func TestControlEffortBlendsPerChannel(t *testing.T) {
	f := newFixture(t)
	pilot := []float64{0.5, -0.5, 0.25, 0.8, 0.9, 0.1}
	effort := []float64{-0.2, 0.4, 0, 0.3, 0.6, 0.7}
	f.pilot.vec = pilot
	f.attitude.setEffort(effort)

	for _, w := range []float64{0, 0.25, 0.5, 1} {
		f.ctrl.SetRollMix(w)
		f.ctrl.SetPitchMix(1 - w)

		got, err := f.ctrl.ControlEffort()
		if err != nil {
			t.Fatalf("control effort: %v", err)
		}

		mix := f.ctrl.PilotMix()
		want := make([]float64, domain.NumChannels)
		for i := range want {
			want[i] = mix[i]*pilot[i] + (1-mix[i])*effort[i]
		}
		if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
			t.Fatalf("w=%v mixed output mismatch (-want +got):\n%s", w, diff)
		}
	}
}

func TestControlEffortPureAuthority(t *testing.T) {
	f := newFixture(t)
	pilot := []float64{0.3, -0.7, 0.1, 0.5, 0.6, 0.2}
	effort := []float64{-0.9, 0.8, 0.4, 0.2, 0.1, 0.05}
	f.pilot.vec = pilot
	f.attitude.setEffort(effort)

	// defaults give the pilot everything
	got, err := f.ctrl.ControlEffort()
	if err != nil {
		t.Fatalf("control effort: %v", err)
	}
	if diff := cmp.Diff(pilot, got); diff != "" {
		t.Fatalf("w=1 must reproduce pilot input exactly (-want +got):\n%s", diff)
	}

	_ = f.ctrl.mix.With(func(m *domain.PilotMix) error {
		*m = domain.PilotMix{}
		return nil
	})
	got, err = f.ctrl.ControlEffort()
	if err != nil {
		t.Fatalf("control effort: %v", err)
	}
	if diff := cmp.Diff(effort, got); diff != "" {
		t.Fatalf("w=0 must reproduce control effort exactly (-want +got):\n%s", diff)
	}
}

func TestControlEffortLogsBothVectors(t *testing.T) {
	f := newFixture(t)
	f.attitude.setEffort([]float64{1, 2, 3, 4, 5, 6})

	if _, err := f.ctrl.ControlEffort(); err != nil {
		t.Fatalf("control effort: %v", err)
	}
	want := []string{domain.LogControlEffort, domain.LogMixedOutput}
	if diff := cmp.Diff(want, f.telemetry.entries); diff != "" {
		t.Fatalf("unexpected telemetry (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{1, 2, 3, 4, 5, 6}, f.telemetry.vectors[domain.LogControlEffort]); diff != "" {
		t.Fatalf("raw effort not logged (-want +got):\n%s", diff)
	}
}

func TestControlEffortRejectsShortPilotVector(t *testing.T) {
	f := newFixture(t)
	f.pilot.vec = []float64{0, 0, 0, 0, 0}

	out, err := f.ctrl.ControlEffort()
	if !errors.Is(err, ErrVectorLength) || !errors.Is(err, ErrBadControl) {
		t.Fatalf("expected vector length error, got %v", err)
	}
	if out != nil {
		t.Fatalf("no output may be produced, got %v", out)
	}
	if f.telemetry.has(domain.LogMixedOutput) {
		t.Fatalf("mixed output must not be logged")
	}
}

func TestControlEffortRejectsEffortLengthMismatch(t *testing.T) {
	f := newFixture(t)
	f.attitude.setEffort([]float64{0, 0})

	if _, err := f.ctrl.ControlEffort(); !errors.Is(err, ErrVectorLength) {
		t.Fatalf("expected vector length error, got %v", err)
	}
}

func TestControlEffortRejectsCorruptMix(t *testing.T) {
	f := newFixture(t)
	_ = f.ctrl.mix.With(func(m *domain.PilotMix) error {
		m[domain.Yaw] = 1.5
		return nil
	})

	if _, err := f.ctrl.ControlEffort(); !errors.Is(err, ErrMixOutOfRange) {
		t.Fatalf("expected mix range error, got %v", err)
	}
	if f.telemetry.has(domain.LogMixedOutput) {
		t.Fatalf("mixed output must not be logged")
	}
}

func TestSetMixRejectsOutOfRange(t *testing.T) {
	f := newFixture(t)
	f.ctrl.SetRollMix(0.4)
	before := f.ctrl.PilotMix()

	for _, v := range []float64{-0.01, 1.01, 42} {
		f.ctrl.SetRollMix(v)
		f.ctrl.SetPitchMix(v)
		if f.ctrl.PilotMix() != before {
			t.Fatalf("mix changed after rejecting %v", v)
		}
	}
	if n := f.obs.count("warn", "pilot_mix_invalid"); n != 6 {
		t.Fatalf("expected 6 rejection logs, got %d", n)
	}
}

func TestSetMixAcceptsBoundaries(t *testing.T) {
	f := newFixture(t)

	f.ctrl.SetRollMix(0)
	f.ctrl.SetPitchMix(1)
	mix := f.ctrl.PilotMix()
	if mix[domain.Roll] != 0 || mix[domain.Pitch] != 1 {
		t.Fatalf("boundary values not stored: %v", mix)
	}
	if mix[domain.Yaw] != 1 {
		t.Fatalf("other channels must keep their weight, got %v", mix)
	}
}
