package aegispilot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/ghalamif/AegisPilot/internal/adapters/nav"
	"github.com/ghalamif/AegisPilot/internal/adapters/observability"
	"github.com/ghalamif/AegisPilot/internal/adapters/opcua"
	"github.com/ghalamif/AegisPilot/internal/adapters/pid"
	"github.com/ghalamif/AegisPilot/internal/adapters/queue"
	"github.com/ghalamif/AegisPilot/internal/adapters/rc"
	"github.com/ghalamif/AegisPilot/internal/adapters/sink"
	"github.com/ghalamif/AegisPilot/internal/adapters/wal"
	"github.com/ghalamif/AegisPilot/internal/adapters/watch"
	"github.com/ghalamif/AegisPilot/internal/app/control"
	"github.com/ghalamif/AegisPilot/internal/app/pipeline"
	"github.com/ghalamif/AegisPilot/internal/ports"
)

// RuntimeOption customizes the dependencies used by Runtime.
type RuntimeOption func(*runtimeOverrides)

type runtimeOverrides struct {
	logger        *zerolog.Logger
	observability Observability
	wal           WAL
	queue         RecordQueue
	sink          Sink
	attitude      AttitudeLaw
	translation   TranslationLaw
	pilot         PilotInput
	position      PositionSource
	actuator      Actuator
	link          CommandLink
}

// WithLogger sets the logger handed to the default observability backend and log sink.
func WithLogger(logger zerolog.Logger) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.logger = &logger
	}
}

// WithObservability plugs in a custom observability backend.
func WithObservability(obs Observability) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.observability = obs
	}
}

// WithWAL lets callers bring their own telemetry WAL.
func WithWAL(w WAL) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.wal = w
	}
}

// WithRecordQueue injects a custom telemetry queue.
func WithRecordQueue(q RecordQueue) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.queue = q
	}
}

// WithSink sends telemetry to a custom sink instead of TimescaleDB or the log.
func WithSink(s Sink) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.sink = s
	}
}

// WithAttitudeLaw replaces the built-in attitude PID.
func WithAttitudeLaw(law AttitudeLaw) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.attitude = law
	}
}

// WithTranslationLaw replaces the built-in position-hold PID.
func WithTranslationLaw(law TranslationLaw) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.translation = law
	}
}

// WithPilotInput replaces the iBus receiver as the source of pilot channels.
func WithPilotInput(p PilotInput) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.pilot = p
	}
}

// WithPositionSource replaces the navigation store for reference capture.
func WithPositionSource(p PositionSource) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.position = p
	}
}

// WithActuator receives the mixed output every control cycle.
func WithActuator(a Actuator) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.actuator = a
	}
}

// WithCommandLink replaces the OPC UA ground-station link.
func WithCommandLink(l CommandLink) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.link = l
	}
}

// Runtime wires the controller, its control laws, pilot input, telemetry pipeline and
// ground-station link, and runs them under one context.
type Runtime struct {
	cfg    *Config
	policy Policy
	logger zerolog.Logger
	obs    ports.Observability

	wal      ports.WAL
	queue    ports.RecordQueue
	sink     ports.Sink
	db       *sql.DB
	recorder *pipeline.Recorder

	nav      *nav.Store
	receiver *rc.Receiver
	ctrl     *control.Controller
	actuator ports.Actuator
	output   *outputLatch
	link     ports.CommandLink

	closeOnce sync.Once
	closeErr  error
}

// NewRuntime bootstraps the default adapters (file WAL, in-memory queue, TimescaleDB or
// log sink, PID control laws, iBus receiver, Prometheus observability, OPC UA ground
// link when configured). The initial mode is applied first, then the params file.
func NewRuntime(cfg *Config, opts ...RuntimeOption) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var overrides runtimeOverrides
	for _, opt := range opts {
		if opt != nil {
			opt(&overrides)
		}
	}

	logger := log.Logger
	if overrides.logger != nil {
		logger = *overrides.logger
	}

	rt := &Runtime{
		cfg:    cfg,
		policy: cfg.Telemetry.Policy,
		logger: logger,
		nav:    nav.NewStore(),
	}

	rt.obs = overrides.observability
	if rt.obs == nil {
		rt.obs = observability.NewPromObs(logger)
	}

	if err := rt.buildTelemetry(overrides); err != nil {
		_ = rt.Close()
		return nil, err
	}
	if err := rt.buildControl(overrides); err != nil {
		_ = rt.Close()
		return nil, err
	}

	rt.link = overrides.link
	if rt.link == nil && cfg.GroundLink != nil {
		link, err := opcua.NewLink(*cfg.GroundLink, rt.obs)
		if err != nil {
			_ = rt.Close()
			return nil, err
		}
		rt.link = link
	}
	return rt, nil
}

func (r *Runtime) buildTelemetry(o runtimeOverrides) error {
	r.wal = o.wal
	if r.wal == nil {
		w, err := wal.NewFileWAL(r.cfg.Telemetry.WAL.Dir)
		if err != nil {
			return err
		}
		r.wal = w
	}

	r.queue = o.queue
	if r.queue == nil {
		r.queue = queue.NewMemQueue(r.policy.MaxQueueLen)
	}

	if err := pipeline.ReplayWAL(r.wal, r.queue, r.policy, r.obs); err != nil {
		return err
	}

	r.sink = o.sink
	if r.sink == nil {
		if conn := r.cfg.Telemetry.Timescale.ConnString; conn != "" {
			db, err := sql.Open("postgres", conn)
			if err != nil {
				return err
			}
			r.db = db
			r.sink = sink.NewTimescaleSink(db, r.cfg.Telemetry.Timescale.Table)
		} else {
			r.sink = sink.NewLogSink(r.logger)
		}
	}

	r.recorder = pipeline.NewRecorder(r.wal, r.queue, r.policy, r.obs)
	return nil
}

func (r *Runtime) buildControl(o runtimeOverrides) error {
	lawCfg := pid.Config{
		StateTimeout:  r.cfg.Control.StateTimeout,
		Period:        r.cfg.Control.TickInterval,
		IntegralLimit: r.cfg.Control.IntegralLimit,
	}

	attitude := o.attitude
	if attitude == nil {
		attitude = pid.NewAttitudeController(r.nav, lawCfg)
	}
	translation := o.translation
	if translation == nil {
		translation = pid.NewTranslationController(r.nav, r.nav, lawCfg)
	}

	pilot := o.pilot
	if pilot == nil {
		r.receiver = rc.NewReceiver(rc.DefaultChannelMap, r.cfg.RC.Timeout)
		r.receiver.OnFailsafe(r.reportFailsafe)
		r.obs.SetGauge("aegis_rc_failsafe", 1)
		pilot = r.receiver
	}

	position := o.position
	if position == nil {
		position = r.nav
	}

	ctrl, err := control.New(control.Deps{
		Attitude:    attitude,
		Translation: translation,
		Pilot:       pilot,
		Position:    position,
		Telemetry:   r.recorder,
		Obs:         r.obs,
		ParamsPath:  r.cfg.Control.ParamsFile,
	})
	if err != nil {
		return err
	}
	r.ctrl = ctrl

	mode, err := r.cfg.Control.Mode()
	if err != nil {
		return err
	}
	if err := ctrl.SetMode(mode); err != nil {
		return err
	}
	// a bad document was already logged critical; keep the initial mode and defaults
	if err := ctrl.LoadFile(); err != nil && !errors.Is(err, control.ErrConfigFormat) {
		return fmt.Errorf("load controller params: %w", err)
	}

	r.output = &outputLatch{}
	r.actuator = o.actuator
	if r.actuator == nil {
		r.actuator = r.output
	} else {
		r.actuator = teeActuator{r.output, o.actuator}
	}
	return nil
}

// Run blocks until ctx is cancelled or a component fails, then releases every resource.
// A bad-control condition stops the control loop and is returned.
func (r *Runtime) Run(ctx context.Context) error {
	if r == nil {
		return fmt.Errorf("runtime is nil")
	}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return pipeline.RunControlLoop(gctx, r.ctrl, r.actuator, r.cfg.Control.TickInterval, r.obs)
	})
	g.Go(func() error {
		return pipeline.RunIngest(gctx, r.wal, r.queue, r.sink, r.policy, r.obs)
	})
	g.Go(func() error {
		r.recordResourceGauges(gctx, time.Second)
		return nil
	})
	if r.cfg.Metrics.Addr != "" {
		g.Go(func() error { return r.serveMetrics(gctx) })
	}
	if r.cfg.Control.WatchParams {
		w := r.paramsWatcher()
		g.Go(func() error { return w.Run(gctx) })
	}
	if r.receiver != nil && r.cfg.RC.Device != "" {
		g.Go(func() error { return r.readPilot(gctx) })
	}
	if r.link != nil {
		g.Go(func() error {
			if err := r.link.Start(gctx, r.ctrl); err != nil {
				return fmt.Errorf("ground link: %w", err)
			}
			<-gctx.Done()
			return nil
		})
	}

	err := g.Wait()
	return errors.Join(err, r.Close())
}

// Close stops the ground link and releases the WAL and database handle.
func (r *Runtime) Close() error {
	r.closeOnce.Do(func() {
		var errs []error
		if r.link != nil {
			if err := r.link.Stop(); err != nil {
				errs = append(errs, err)
			}
		}
		if r.wal != nil {
			if err := r.wal.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		if r.db != nil {
			if err := r.db.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		r.closeErr = errors.Join(errs...)
	})
	return r.closeErr
}

func (r *Runtime) serveMetrics(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if !r.ctrl.Runnable() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("attitude not runnable"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:              r.cfg.Metrics.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		// metrics failures are logged, never fatal
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.obs.LogError("metrics_server_exited", err, ports.Field{Key: "addr", Value: r.cfg.Metrics.Addr})
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// readPilot decodes iBus frames from the configured device. The device is expected to
// be configured for 115200 8N1 before the daemon starts.
func (r *Runtime) readPilot(ctx context.Context) error {
	f, err := os.Open(r.cfg.RC.Device)
	if err != nil {
		return fmt.Errorf("open rc device: %w", err)
	}
	stop := context.AfterFunc(ctx, func() { _ = f.Close() })
	defer func() {
		if stop() {
			_ = f.Close()
		}
	}()

	dec := rc.NewIBusDecoder(r.receiver, func(err error) {
		r.obs.LogWarn("ibus_frame_rejected", ports.Field{Key: "error", Value: err.Error()})
	})
	err = dec.Run(ctx, f)
	if ctx.Err() != nil {
		return nil
	}
	if err == nil {
		r.obs.LogWarn("rc_device_closed", ports.Field{Key: "device", Value: r.cfg.RC.Device})
	}
	return err
}

func (r *Runtime) recordResourceGauges(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := r.wal.Stats()
			r.obs.SetGauge("aegis_wal_size_bytes", float64(stats.SizeBytes))
			r.obs.SetGauge("aegis_queue_length", float64(r.queue.Len()))
			if mq, ok := r.queue.(*queue.MemQueue); ok {
				var rejected uint64
				for _, n := range mq.Rejected() {
					rejected += n
				}
				r.obs.SetGauge("aegis_queue_rejected", float64(rejected))
			}
		}
	}
}

// paramsWatcher reloads external edits of the params file. The controller's own saves
// are recognised by content and skipped.
func (r *Runtime) paramsWatcher() *watch.ParamsWatcher {
	return &watch.ParamsWatcher{Path: r.ctrl.ParamsPath(), Reload: r.ctrl.ReloadFile, Obs: r.obs}
}

func (r *Runtime) reportFailsafe(active bool) {
	if active {
		r.obs.SetGauge("aegis_rc_failsafe", 1)
		r.obs.LogWarn("rc_failsafe", ports.Field{Key: "timeout", Value: r.cfg.RC.Timeout.String()})
		return
	}
	r.obs.SetGauge("aegis_rc_failsafe", 0)
	r.obs.LogInfo("rc_link_restored")
}

// Commander exposes the controller to custom ground-station links.
func (r *Runtime) Commander() Commander { return r.ctrl }

func (r *Runtime) Mode() ControllerMode { return r.ctrl.Mode() }

func (r *Runtime) SetMode(mode ControllerMode) error { return r.ctrl.SetMode(mode) }

// Subscribe registers fn for committed mode changes. Observers run on the goroutine
// that changed the mode and must not block.
func (r *Runtime) Subscribe(fn func(ControllerMode)) (cancel func()) {
	return r.ctrl.Subscribe(fn)
}

// ModeEvents delivers committed mode changes on a buffered channel. Changes are dropped
// while the buffer is full.
func (r *Runtime) ModeEvents(buffer int) (<-chan ControllerMode, func()) {
	return r.ctrl.ModeEvents(buffer)
}

func (r *Runtime) Parameters() []Parameter { return r.ctrl.Parameters() }

func (r *Runtime) SetParameter(p Parameter) { r.ctrl.SetParameter(p) }

func (r *Runtime) SetRollMix(v float64) { r.ctrl.SetRollMix(v) }

func (r *Runtime) SetPitchMix(v float64) { r.ctrl.SetPitchMix(v) }

func (r *Runtime) CaptureReferencePosition() error { return r.ctrl.CaptureReferencePosition() }

// SaveParams writes the current parameters to the params file.
func (r *Runtime) SaveParams() error { return r.ctrl.SaveFile() }

// UpdateAttitude feeds an attitude estimate to the built-in control laws.
func (r *Runtime) UpdateAttitude(st AttitudeState) { r.nav.UpdateAttitude(st) }

// UpdatePosition feeds a position estimate to the built-in control laws.
func (r *Runtime) UpdatePosition(st PositionState) { r.nav.UpdatePosition(st) }

// UpdatePilot stores raw receiver channel values (988..2012). It reports false when a
// custom PilotInput replaced the receiver.
func (r *Runtime) UpdatePilot(raw []uint16) bool {
	if r.receiver == nil {
		return false
	}
	r.receiver.Update(raw)
	return true
}

// Output returns the latest mixed actuator command, or nil before the first cycle.
func (r *Runtime) Output() []float64 { return r.output.latest() }

// Publish records a custom telemetry vector alongside the controller's own.
func (r *Runtime) Publish(name string, values []float64) error {
	return r.recorder.Publish(name, values)
}

type outputLatch struct {
	mu  sync.Mutex
	out []float64
}

func (l *outputLatch) Apply(output []float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out = append(l.out[:0], output...)
	return nil
}

func (l *outputLatch) latest() []float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.out == nil {
		return nil
	}
	return append([]float64(nil), l.out...)
}

type teeActuator struct {
	latch *outputLatch
	next  ports.Actuator
}

func (t teeActuator) Apply(output []float64) error {
	_ = t.latch.Apply(output)
	return t.next.Apply(output)
}
