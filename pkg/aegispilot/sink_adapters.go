package aegispilot

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ghalamif/AegisPilot/internal/app/pipeline"
	"github.com/ghalamif/AegisPilot/internal/domain"
)

// ErrQueueFull indicates the telemetry queue rejected a record according to policy.
var ErrQueueFull = pipeline.ErrQueueFull

// ErrWALFull indicates the telemetry WAL is at capacity and OnWALFull != "block".
var ErrWALFull = pipeline.ErrWALFull

// ErrChannelSinkClosed is returned when a channel sink is written to after being closed.
var ErrChannelSinkClosed = errors.New("aegispilot: channel sink closed")

// Telemetry mirrors the internal record but is safe for external callers to keep.
type Telemetry struct {
	Name      string
	Timestamp time.Time
	Seq       uint64
	Values    []float64
}

// TelemetryBatchSink is invoked with ordered batches dequeued from the pipeline.
type TelemetryBatchSink func([]Telemetry) error

// NewCallbackSink adapts a TelemetryBatchSink into a full Sink implementation so callers
// can plug arbitrary functions without defining structs.
func NewCallbackSink(name string, fn TelemetryBatchSink) Sink {
	if name == "" {
		name = "callback"
	}
	return &callbackSink{name: name, fn: fn}
}

// NewChannelSink exposes batches via a channel; it returns the sink, the read-only channel,
// and a close function that the caller should invoke during shutdown. Closing fails
// pending and later writes with ErrChannelSinkClosed; the batch channel itself stays
// open, so readers stop on their own context.
func NewChannelSink(name string, buffer int) (Sink, <-chan []Telemetry, func()) {
	if name == "" {
		name = "channel"
	}
	if buffer < 0 {
		buffer = 0
	}
	ch := make(chan []Telemetry, buffer)
	s := &channelSink{
		name:   name,
		ch:     ch,
		closed: make(chan struct{}),
	}
	return s, ch, func() { s.close() }
}

type callbackSink struct {
	name string
	fn   TelemetryBatchSink
}

func (s *callbackSink) WriteBatch(records []*domain.Record) error {
	if s.fn == nil {
		return fmt.Errorf("callback sink %q: nil handler", s.name)
	}
	if len(records) == 0 {
		return nil
	}
	return s.fn(convertDomainBatch(records))
}

func (s *callbackSink) Name() string { return s.name }

type channelSink struct {
	name   string
	ch     chan []Telemetry
	closed chan struct{}
	once   sync.Once
}

func (s *channelSink) WriteBatch(records []*domain.Record) error {
	select {
	case <-s.closed:
		return ErrChannelSinkClosed
	default:
	}

	if len(records) == 0 {
		return nil
	}

	batch := convertDomainBatch(records)

	select {
	case <-s.closed:
		return ErrChannelSinkClosed
	case s.ch <- batch:
		return nil
	}
}

func (s *channelSink) Name() string { return s.name }

func (s *channelSink) close() {
	s.once.Do(func() {
		close(s.closed)
	})
}

func convertDomainBatch(records []*domain.Record) []Telemetry {
	if len(records) == 0 {
		return nil
	}
	out := make([]Telemetry, len(records))
	for i, r := range records {
		out[i] = Telemetry{
			Name:      r.Name,
			Timestamp: r.Timestamp,
			Seq:       r.Seq,
			Values:    append([]float64(nil), r.Values...),
		}
	}
	return out
}
