package control

import (
	"fmt"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/beevik/etree"

	"github.com/ghalamif/AegisPilot/internal/domain"
	"github.com/ghalamif/AegisPilot/internal/ports"
)

// stubLaw keeps gains in a map keyed by parameter id and serializes them as
// <ID>value</ID> children.
type stubLaw struct {
	mu       sync.Mutex
	tag      string
	ids      []string
	gains    map[string]float64
	runnable bool
	result   domain.Result
	refs     [][]float64
	resets   int
}

func newStubLaw(tag string, ids ...string) *stubLaw {
	return &stubLaw{
		tag:      tag,
		ids:      ids,
		gains:    make(map[string]float64),
		runnable: true,
		result:   domain.Success([]float64{0, 0}),
	}
}

func (s *stubLaw) set(id string, v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gains[id] = v
}

func (s *stubLaw) gain(id string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gains[id]
}

func (s *stubLaw) setRunnable(ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runnable = ok
}

func (s *stubLaw) Runnable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runnable
}

func (s *stubLaw) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resets++
}

func (s *stubLaw) Parameters() []domain.Parameter {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Parameter, 0, len(s.ids))
	for _, id := range s.ids {
		out = append(out, domain.NewParameter(id, s.gains[id], domain.ComponentController))
	}
	return out
}

func (s *stubLaw) Compute(reference []float64) domain.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refs = append(s.refs, append([]float64(nil), reference...))
	return s.result
}

func (s *stubLaw) computeCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.refs)
}

func (s *stubLaw) ConfigTag() string { return s.tag }

func (s *stubLaw) ParseConfig(el *etree.Element) error {
	parsed := make(map[string]float64)
	for _, child := range el.ChildElements() {
		v, err := strconv.ParseFloat(child.Text(), 64)
		if err != nil {
			return fmt.Errorf("%s: %w", child.Tag, err)
		}
		parsed[child.Tag] = v
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range parsed {
		s.gains[k] = v
	}
	return nil
}

func (s *stubLaw) ConfigElement() *etree.Element {
	s.mu.Lock()
	defer s.mu.Unlock()
	el := etree.NewElement(s.tag)
	for _, id := range s.ids {
		el.CreateElement(id).SetText(strconv.FormatFloat(s.gains[id], 'g', -1, 64))
	}
	return el
}

type stubAttitude struct {
	*stubLaw
	effort []float64
}

func newStubAttitude() *stubAttitude {
	return &stubAttitude{
		stubLaw: newStubLaw("attitude_pid",
			domain.ParamRollKP, domain.ParamRollKD, domain.ParamRollKI,
			domain.ParamPitchKP, domain.ParamPitchKD, domain.ParamPitchKI,
			domain.ParamRollTrim, domain.ParamPitchTrim),
		effort: make([]float64, domain.NumChannels),
	}
}

func (s *stubAttitude) ControlEffort() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]float64(nil), s.effort...)
}

func (s *stubAttitude) setEffort(e []float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.effort = e
}

func (s *stubAttitude) RollTrimRadians() float64  { return s.gain(domain.ParamRollTrim) }
func (s *stubAttitude) PitchTrimRadians() float64 { return s.gain(domain.ParamPitchTrim) }

func (s *stubAttitude) SetRollProportional(v float64)  { s.set(domain.ParamRollKP, v) }
func (s *stubAttitude) SetRollDerivative(v float64)    { s.set(domain.ParamRollKD, v) }
func (s *stubAttitude) SetRollIntegral(v float64)      { s.set(domain.ParamRollKI, v) }
func (s *stubAttitude) SetPitchProportional(v float64) { s.set(domain.ParamPitchKP, v) }
func (s *stubAttitude) SetPitchDerivative(v float64)   { s.set(domain.ParamPitchKD, v) }
func (s *stubAttitude) SetPitchIntegral(v float64)     { s.set(domain.ParamPitchKI, v) }
func (s *stubAttitude) SetRollTrimDegrees(v float64)   { s.set(domain.ParamRollTrim, v) }
func (s *stubAttitude) SetPitchTrimDegrees(v float64)  { s.set(domain.ParamPitchTrim, v) }

type stubTranslation struct {
	*stubLaw
}

func newStubTranslation() *stubTranslation {
	return &stubTranslation{stubLaw: newStubLaw("translation_outer_pid",
		domain.ParamXKP, domain.ParamXKD, domain.ParamXKI,
		domain.ParamYKP, domain.ParamYKD, domain.ParamYKI,
		domain.ParamTravel)}
}

func (s *stubTranslation) SetXProportional(v float64)       { s.set(domain.ParamXKP, v) }
func (s *stubTranslation) SetXDerivative(v float64)         { s.set(domain.ParamXKD, v) }
func (s *stubTranslation) SetXIntegral(v float64)           { s.set(domain.ParamXKI, v) }
func (s *stubTranslation) SetYProportional(v float64)       { s.set(domain.ParamYKP, v) }
func (s *stubTranslation) SetYDerivative(v float64)         { s.set(domain.ParamYKD, v) }
func (s *stubTranslation) SetYIntegral(v float64)           { s.set(domain.ParamYKI, v) }
func (s *stubTranslation) SetScaledTravelDegrees(v float64) { s.set(domain.ParamTravel, v) }

type stubPilot struct {
	mu  sync.Mutex
	vec []float64
}

func (p *stubPilot) ScaledVector() []float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]float64(nil), p.vec...)
}

type stubPosition struct {
	ned []float64
	err error
}

func (p *stubPosition) NEDPosition() ([]float64, error) { return p.ned, p.err }

type vectorLog struct {
	mu      sync.Mutex
	entries []string
	vectors map[string][]float64
}

func (l *vectorLog) LogVector(name string, values []float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.vectors == nil {
		l.vectors = make(map[string][]float64)
	}
	l.entries = append(l.entries, name)
	l.vectors[name] = append([]float64(nil), values...)
}

func (l *vectorLog) has(name string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.vectors[name]
	return ok
}

type logEntry struct {
	level string
	msg   string
}

type stubObs struct {
	ports.Observability
	mu       sync.Mutex
	entries  []logEntry
	counters map[string]float64
	gauges   map[string]float64
}

func (o *stubObs) log(level, msg string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.entries = append(o.entries, logEntry{level: level, msg: msg})
}

func (o *stubObs) LogInfo(msg string, _ ...ports.Field)             { o.log("info", msg) }
func (o *stubObs) LogWarn(msg string, _ ...ports.Field)             { o.log("warn", msg) }
func (o *stubObs) LogError(msg string, _ error, _ ...ports.Field)    { o.log("error", msg) }
func (o *stubObs) LogCritical(msg string, _ error, _ ...ports.Field) { o.log("critical", msg) }

func (o *stubObs) IncCounter(name string, v float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.counters == nil {
		o.counters = make(map[string]float64)
	}
	o.counters[name] += v
}

func (o *stubObs) SetGauge(name string, v float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.gauges == nil {
		o.gauges = make(map[string]float64)
	}
	o.gauges[name] = v
}

func (o *stubObs) count(level, msg string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := 0
	for _, e := range o.entries {
		if e.level == level && (msg == "" || e.msg == msg) {
			n++
		}
	}
	return n
}

func (o *stubObs) counter(name string) float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.counters[name]
}

type fixture struct {
	ctrl        *Controller
	attitude    *stubAttitude
	translation *stubTranslation
	pilot       *stubPilot
	position    *stubPosition
	telemetry   *vectorLog
	obs         *stubObs
	path        string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		attitude:    newStubAttitude(),
		translation: newStubTranslation(),
		pilot:       &stubPilot{vec: make([]float64, domain.NumChannels)},
		position:    &stubPosition{ned: []float64{10, -5, -20}},
		telemetry:   &vectorLog{},
		obs:         &stubObs{},
		path:        filepath.Join(t.TempDir(), "controller_params.xml"),
	}
	ctrl, err := New(Deps{
		Attitude:    f.attitude,
		Translation: f.translation,
		Pilot:       f.pilot,
		Position:    f.position,
		Telemetry:   f.telemetry,
		Obs:         f.obs,
		ParamsPath:  f.path,
	})
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	f.ctrl = ctrl
	return f
}

var (
	_ ports.AttitudeLaw    = (*stubAttitude)(nil)
	_ ports.TranslationLaw = (*stubTranslation)(nil)
)
