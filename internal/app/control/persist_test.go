package control

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ghalamif/AegisPilot/internal/domain"
)

func writeParams(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write params: %v", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	f := newFixture(t)
	_ = f.ctrl.SetMode(domain.ModePositionHold)
	f.ctrl.SetRollMix(0.25)
	f.ctrl.SetPitchMix(0.75)
	f.attitude.SetRollProportional(1.5)
	f.translation.SetYIntegral(0.125)

	if err := f.ctrl.SaveFile(); err != nil {
		t.Fatalf("save: %v", err)
	}
	savedMix := f.ctrl.PilotMix()

	g := newFixture(t)
	g.ctrl.file.Store(paramsFile{path: f.path})
	if err := g.ctrl.LoadFile(); err != nil {
		t.Fatalf("load: %v", err)
	}

	if g.ctrl.Mode() != domain.ModePositionHold {
		t.Fatalf("mode did not round-trip, got %v", g.ctrl.Mode())
	}
	if g.ctrl.PilotMix() != savedMix {
		t.Fatalf("mix did not round-trip: %v != %v", g.ctrl.PilotMix(), savedMix)
	}
	if g.attitude.gain(domain.ParamRollKP) != 1.5 || g.translation.gain(domain.ParamYKI) != 0.125 {
		t.Fatalf("law gains did not round-trip")
	}
}

func TestSaveFileDocumentShape(t *testing.T) {
	f := newFixture(t)
	_ = f.ctrl.SetMode(domain.ModeAttitudeStabilization)
	f.ctrl.SetRollMix(0.5)

	if err := f.ctrl.SaveFile(); err != nil {
		t.Fatalf("save: %v", err)
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	doc := string(data)
	for _, want := range []string{
		"<controller_params>",
		"<attitude_pid>",
		"<translation_outer_pid>",
		`<mix channel="roll">0.5</mix>`,
		`<mix channel="pitch">1</mix>`,
		"<mode>0</mode>",
	} {
		if !strings.Contains(doc, want) {
			t.Fatalf("saved document lacks %s:\n%s", want, doc)
		}
	}
	if _, err := os.Stat(f.path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file must not be left behind")
	}
}

func TestLoadFileMissingKeepsState(t *testing.T) {
	f := newFixture(t)
	_ = f.ctrl.SetMode(domain.ModePositionHold)
	f.ctrl.SetRollMix(0.2)
	before := f.ctrl.PilotMix()

	if err := f.ctrl.LoadFile(); err != nil {
		t.Fatalf("missing file is not an error: %v", err)
	}
	if f.ctrl.Mode() != domain.ModePositionHold || f.ctrl.PilotMix() != before {
		t.Fatalf("state changed on missing file")
	}
	if f.obs.count("warn", "params_file_missing") != 1 {
		t.Fatalf("expected a missing-file warning")
	}
}

func TestLoadFileWrongRootKeepsState(t *testing.T) {
	f := newFixture(t)
	_ = f.ctrl.SetMode(domain.ModeAttitudeStabilization)
	f.ctrl.SetPitchMix(0.6)
	before := f.ctrl.PilotMix()

	writeParams(t, f.path, `<foo><mix channel="pitch">0.1</mix><mode>1</mode></foo>`)

	err := f.ctrl.LoadFile()
	if !errors.Is(err, ErrConfigFormat) {
		t.Fatalf("expected ErrConfigFormat, got %v", err)
	}
	if f.obs.count("critical", "") != 1 {
		t.Fatalf("expected one critical log")
	}
	if f.ctrl.Mode() != domain.ModeAttitudeStabilization || f.ctrl.PilotMix() != before {
		t.Fatalf("state changed on rejected document")
	}
}

func TestLoadFileMalformedKeepsState(t *testing.T) {
	f := newFixture(t)
	writeParams(t, f.path, `<controller_params><mix channel=roll>0.1</mix></controller_params>`)

	if err := f.ctrl.LoadFile(); !errors.Is(err, ErrConfigFormat) {
		t.Fatalf("expected ErrConfigFormat, got %v", err)
	}
	if f.ctrl.PilotMix() != domain.DefaultPilotMix() {
		t.Fatalf("mix changed on malformed document")
	}
}

func TestLoadFileCaseInsensitiveAndTolerant(t *testing.T) {
	f := newFixture(t)
	writeParams(t, f.path, `<?xml version="1.0"?>
<Controller_Params>
  <MIX Channel="ROLL">0.3</MIX>
  <mix channel="yaw">0.2</mix>
  <mix channel="pitch">abc</mix>
  <mix channel="pitch">1.7</mix>
  <Mode>1</Mode>
  <ATTITUDE_PID><ROLL_KP>2</ROLL_KP></ATTITUDE_PID>
  <unknown_thing/>
</Controller_Params>`)

	if err := f.ctrl.LoadFile(); err != nil {
		t.Fatalf("load: %v", err)
	}
	mix := f.ctrl.PilotMix()
	if mix[domain.Roll] != 0.3 || mix[domain.Pitch] != 1 || mix[domain.Yaw] != 1 {
		t.Fatalf("unexpected mix %v", mix)
	}
	if f.ctrl.Mode() != domain.ModePositionHold {
		t.Fatalf("expected position hold, got %v", f.ctrl.Mode())
	}
	if f.attitude.gain(domain.ParamRollKP) != 2 {
		t.Fatalf("law node not dispatched")
	}
	if f.obs.count("warn", "params_unknown_node") != 1 {
		t.Fatalf("expected unknown node warning")
	}
	if f.obs.count("warn", "params_mix_unknown_channel") != 1 || f.obs.count("warn", "params_mix_invalid") != 1 {
		t.Fatalf("expected bad mix nodes to be warned")
	}
	if f.obs.count("warn", "pilot_mix_invalid") != 1 {
		t.Fatalf("out of range mix must be rejected at the setter")
	}
}

func TestLoadFileInvalidModeValueIgnored(t *testing.T) {
	f := newFixture(t)
	_ = f.ctrl.SetMode(domain.ModeAttitudeStabilization)
	writeParams(t, f.path, `<controller_params><mode>2</mode></controller_params>`)

	if err := f.ctrl.LoadFile(); err != nil {
		t.Fatalf("load: %v", err)
	}
	if f.ctrl.Mode() != domain.ModeAttitudeStabilization {
		t.Fatalf("invalid mode must not be applied")
	}
}

func TestSaveFileCreatesDirectory(t *testing.T) {
	f := newFixture(t)
	nested := filepath.Join(t.TempDir(), "a", "b", "params.xml")
	f.ctrl.file.Store(paramsFile{path: nested})

	if err := f.ctrl.SaveFile(); err != nil {
		t.Fatalf("save: %v", err)
	}
	if f.ctrl.ParamsPath() != nested {
		t.Fatalf("unexpected params path %s", f.ctrl.ParamsPath())
	}
	if _, err := os.Stat(nested); err != nil {
		t.Fatalf("expected nested file: %v", err)
	}
}

func TestReloadFileSkipsOwnSave(t *testing.T) {
	f := newFixture(t)
	_ = f.ctrl.SetMode(domain.ModeAttitudeStabilization)
	f.ctrl.SetParameter(domain.NewParameter(domain.ParamMixRoll, 0.5, domain.ComponentController))

	// a mode commanded after the save must survive the change notification for it
	if err := f.ctrl.SetMode(domain.ModePositionHold); err != nil {
		t.Fatalf("set mode: %v", err)
	}
	applied, err := f.ctrl.ReloadFile()
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if applied {
		t.Fatalf("own save must not be re-applied")
	}
	if f.ctrl.Mode() != domain.ModePositionHold {
		t.Fatalf("mode reverted to %v", f.ctrl.Mode())
	}
}

func TestReloadFileAppliesExternalEdit(t *testing.T) {
	f := newFixture(t)
	_ = f.ctrl.SetMode(domain.ModePositionHold)
	if err := f.ctrl.SaveFile(); err != nil {
		t.Fatalf("save: %v", err)
	}

	writeParams(t, f.path, `<controller_params><mode>0</mode><mix channel="roll">0.3</mix></controller_params>`)
	applied, err := f.ctrl.ReloadFile()
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !applied {
		t.Fatalf("external edit was skipped")
	}
	if f.ctrl.Mode() != domain.ModeAttitudeStabilization || f.ctrl.PilotMix()[domain.Roll] != 0.3 {
		t.Fatalf("external edit not applied: mode %v mix %v", f.ctrl.Mode(), f.ctrl.PilotMix())
	}

	// the same bytes again are a no-op
	_ = f.ctrl.SetMode(domain.ModePositionHold)
	if applied, err := f.ctrl.ReloadFile(); err != nil || applied {
		t.Fatalf("unchanged file re-applied: applied=%v err=%v", applied, err)
	}
	if f.ctrl.Mode() != domain.ModePositionHold {
		t.Fatalf("mode reverted to %v", f.ctrl.Mode())
	}
}
