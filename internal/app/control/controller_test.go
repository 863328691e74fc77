package control

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewRequiresCollaborators(t *testing.T) {
	f := newFixture(t)
	full := Deps{
		Attitude:    f.attitude,
		Translation: f.translation,
		Pilot:       f.pilot,
		Telemetry:   f.telemetry,
		Obs:         f.obs,
		ParamsPath:  f.path,
	}
	if _, err := New(full); err != nil {
		t.Fatalf("position source is optional: %v", err)
	}

	missing := []func(d *Deps){
		func(d *Deps) { d.Attitude = nil },
		func(d *Deps) { d.Translation = nil },
		func(d *Deps) { d.Pilot = nil },
		func(d *Deps) { d.Telemetry = nil },
		func(d *Deps) { d.Obs = nil },
		func(d *Deps) { d.ParamsPath = "" },
	}
	for i, drop := range missing {
		d := full
		drop(&d)
		if _, err := New(d); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
}

func TestResetAndRunnable(t *testing.T) {
	f := newFixture(t)
	f.ctrl.SetRollMix(0.4)

	f.ctrl.Reset()
	if f.attitude.resets != 1 || f.translation.resets != 1 {
		t.Fatalf("both laws must be reset")
	}
	if f.ctrl.PilotMix()[0] != 0.4 {
		t.Fatalf("reset must keep the mix")
	}

	f.translation.setRunnable(false)
	if !f.ctrl.Runnable() {
		t.Fatalf("runnable follows the attitude law only")
	}
	f.attitude.setRunnable(false)
	if f.ctrl.Runnable() {
		t.Fatalf("expected not runnable")
	}
}

func TestReferencePosition(t *testing.T) {
	f := newFixture(t)
	if f.ctrl.ReferencePosition() != nil {
		t.Fatalf("reference must start unset")
	}

	if err := f.ctrl.SetReferencePosition([]float64{1, 2}); err == nil {
		t.Fatalf("expected length error")
	}

	if err := f.ctrl.CaptureReferencePosition(); err != nil {
		t.Fatalf("capture: %v", err)
	}
	ref := f.ctrl.ReferencePosition()
	if diff := cmp.Diff([]float64{10, -5, -20}, ref); diff != "" {
		t.Fatalf("unexpected reference (-want +got):\n%s", diff)
	}
	ref[0] = 99
	if f.ctrl.ReferencePosition()[0] != 10 {
		t.Fatalf("reference must be returned as a copy")
	}

	boom := errors.New("no fix")
	f.position.err = boom
	if err := f.ctrl.CaptureReferencePosition(); !errors.Is(err, boom) {
		t.Fatalf("expected %v, got %v", boom, err)
	}
	if f.obs.count("error", "reference_capture_failed") != 1 {
		t.Fatalf("expected capture failure to be logged")
	}
}

func TestGuardedWith(t *testing.T) {
	g := NewGuarded(0)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = g.With(func(v *int) error {
				*v++
				return nil
			})
		}()
	}
	wg.Wait()
	if g.Load() != 50 {
		t.Fatalf("expected 50, got %d", g.Load())
	}
	if old := g.Swap(7); old != 50 || g.Load() != 7 {
		t.Fatalf("swap returned %d", old)
	}

	boom := errors.New("boom")
	if err := g.With(func(*int) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("With must return fn's error")
	}
}
