package pipeline

import (
	"sync/atomic"
	"time"

	"github.com/ghalamif/AegisPilot/internal/domain"
	"github.com/ghalamif/AegisPilot/internal/ports"
)

// Recorder is the ports.TelemetryLog behind the control path. Each vector is made
// durable in the WAL and queued for the ingest loop; with the drop policies a full
// WAL or queue costs the record, never the caller's time.
type Recorder struct {
	wal    ports.WAL
	queue  ports.RecordQueue
	policy ports.Policy
	obs    ports.Observability
	now    func() time.Time

	seq atomic.Uint64
}

var _ ports.TelemetryLog = (*Recorder)(nil)

func NewRecorder(wal ports.WAL, q ports.RecordQueue, pol ports.Policy, obs ports.Observability) *Recorder {
	r := &Recorder{
		wal:    wal,
		queue:  q,
		policy: pol,
		obs:    obs,
		now:    time.Now,
	}
	// keep sequence numbers increasing across restarts
	r.seq.Store(uint64(wal.Stats().LatestAppended))
	return r
}

func (r *Recorder) LogVector(name string, values []float64) {
	if err := r.Publish(name, values); err != nil {
		r.obs.IncCounter("aegis_telemetry_dropped_total", 1)
	}
}

// Publish appends the vector to the WAL and enqueues it according to policy.
func (r *Recorder) Publish(name string, values []float64) error {
	rec := &domain.Record{
		Name:      name,
		Timestamp: r.now(),
		Seq:       r.seq.Add(1),
		Values:    append([]float64(nil), values...),
	}

	if !waitForWALCapacity(r.wal, r.policy, r.obs) {
		return ErrWALFull
	}

	id, err := r.wal.Append(rec)
	if err != nil {
		r.obs.LogCritical("wal_append_failed", err)
		return err
	}

	if !enqueueWithPolicy(r.queue, id, rec, r.policy, r.obs) {
		return ErrQueueFull
	}
	return nil
}
