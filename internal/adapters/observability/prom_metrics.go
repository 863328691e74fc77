package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/ghalamif/AegisPilot/internal/domain"
	"github.com/ghalamif/AegisPilot/internal/ports"
)

// PromObs implements ports.Observability with zerolog for logs and Prometheus
// collectors registered on the default registerer. Unknown metric names are ignored.
type PromObs struct {
	logger   zerolog.Logger
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
	histos   map[string]prometheus.Observer
}

func NewPromObs(logger zerolog.Logger) *PromObs {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: help})
	}
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: help})
	}

	counters := map[string]prometheus.Counter{
		"aegis_control_ticks_total":      counter("aegis_control_ticks_total", "Controller ticks executed."),
		"aegis_mode_fallbacks_total":     counter("aegis_mode_fallbacks_total", "Position hold to attitude stabilization fallbacks."),
		"aegis_attitude_failures_total":  counter("aegis_attitude_failures_total", "Ticks in which the attitude law produced no effort."),
		"aegis_param_updates_total":      counter("aegis_param_updates_total", "Parameter updates applied."),
		"aegis_param_rejected_total":     counter("aegis_param_rejected_total", "Parameter updates rejected for an unknown id."),
		"aegis_telemetry_records_total":  counter("aegis_telemetry_records_total", "Telemetry records written to the sink."),
		"aegis_telemetry_dropped_total":  counter("aegis_telemetry_dropped_total", "Telemetry records lost to WAL or queue backpressure."),
		"aegis_dlq_total":                counter("aegis_dlq_total", "Telemetry records the sink refused."),
	}
	gauges := map[string]prometheus.Gauge{
		"aegis_controller_mode": gauge("aegis_controller_mode", "Committed controller mode."),
		"aegis_wal_size_bytes":  gauge("aegis_wal_size_bytes", "Size of the telemetry WAL on disk."),
		"aegis_queue_length":    gauge("aegis_queue_length", "Telemetry records buffered in memory."),
		"aegis_queue_rejected":  gauge("aegis_queue_rejected", "Telemetry records refused by a full queue since start."),
		"aegis_rc_failsafe":     gauge("aegis_rc_failsafe", "1 while the RC receiver reports its failsafe frame."),
	}
	tick := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "aegis_tick_duration_seconds",
		Help:    "Duration of one control loop iteration.",
		Buckets: prometheus.ExponentialBuckets(0.00005, 2, 12),
	})
	sinkLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "aegis_sink_latency_seconds",
		Help:    "Latency of one telemetry batch write to the sink.",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
	})

	for _, c := range counters {
		prometheus.MustRegister(c)
	}
	for _, g := range gauges {
		prometheus.MustRegister(g)
	}
	prometheus.MustRegister(tick, sinkLatency)

	return &PromObs{
		logger:   logger,
		counters: counters,
		gauges:   gauges,
		histos: map[string]prometheus.Observer{
			"aegis_tick_duration_seconds": tick,
			"aegis_sink_latency_seconds":  sinkLatency,
		},
	}
}

// NewLogObs logs like PromObs but records no metrics. Offline tools use it so nothing
// is registered with Prometheus.
func NewLogObs(logger zerolog.Logger) *PromObs {
	return &PromObs{logger: logger}
}

func withFields(e *zerolog.Event, fields []ports.Field) *zerolog.Event {
	for _, f := range fields {
		e = e.Interface(f.Key, f.Value)
	}
	return e
}

func (p *PromObs) LogInfo(msg string, fields ...ports.Field) {
	withFields(p.logger.Info(), fields).Msg(msg)
}

func (p *PromObs) LogWarn(msg string, fields ...ports.Field) {
	withFields(p.logger.Warn(), fields).Msg(msg)
}

func (p *PromObs) LogError(msg string, err error, fields ...ports.Field) {
	withFields(p.logger.Error().Err(err), fields).Msg(msg)
}

func (p *PromObs) LogCritical(msg string, err error, fields ...ports.Field) {
	withFields(p.logger.Error().Err(err).Str("severity", "critical"), fields).Msg(msg)
}

func (p *PromObs) IncCounter(name string, v float64) {
	if c, ok := p.counters[name]; ok {
		c.Add(v)
	}
}

func (p *PromObs) ObserveLatency(name string, seconds float64) {
	if h, ok := p.histos[name]; ok {
		h.Observe(seconds)
	}
}

func (p *PromObs) SetGauge(name string, v float64) {
	if g, ok := p.gauges[name]; ok {
		g.Set(v)
	}
}

func (p *PromObs) RecordDLQ(id ports.WALEntryID, r *domain.Record, err error) {
	p.IncCounter("aegis_dlq_total", 1)
	e := p.logger.Warn().Err(err).Uint64("wal_id", uint64(id))
	if r != nil {
		e = e.Str("record", r.Name).Uint64("seq", r.Seq)
	}
	e.Msg("telemetry_dlq")
}

var _ ports.Observability = (*PromObs)(nil)
