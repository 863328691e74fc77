package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/ghalamif/AegisPilot/internal/domain"
	"github.com/ghalamif/AegisPilot/internal/ports"
)

// RunIngest drains the queue into the sink until ctx is cancelled. A batch the sink
// refuses is retried until it lands; it stays uncommitted in the WAL meanwhile.
func RunIngest(ctx context.Context, wal ports.WAL, q ports.RecordQueue, sink ports.Sink, pol ports.Policy, obs ports.Observability) error {
	idle := idleSleep(pol)

	for {
		if ctx.Err() != nil {
			return nil
		}

		batch := q.DequeueBatch(pol.MaxBatchSize)
		obs.SetGauge("aegis_queue_length", float64(q.Len()))
		if len(batch) == 0 {
			if !sleepCtx(ctx, idle) {
				return nil
			}
			continue
		}

		records := make([]*domain.Record, 0, len(batch))
		var maxID ports.WALEntryID
		for _, item := range batch {
			records = append(records, item.Record)
			if item.ID > maxID {
				maxID = item.ID
			}
		}

		for {
			start := time.Now()
			err := sink.WriteBatch(records)
			if err == nil {
				obs.ObserveLatency("aegis_sink_latency_seconds", time.Since(start).Seconds())
				break
			}
			obs.LogError("sink_write_failed", err,
				ports.Field{Key: "sink", Value: sink.Name()},
				ports.Field{Key: "records", Value: len(records)})
			if !sleepCtx(ctx, idle) {
				// uncommitted, replayed on next start
				return nil
			}
		}
		obs.IncCounter("aegis_telemetry_records_total", float64(len(records)))

		if err := wal.Commit(maxID); err != nil {
			obs.LogError("wal_commit_failed", err)
			continue
		}
		compactIfLarge(wal, pol, obs)
	}
}

// compactIfLarge drops committed frames once the WAL passes half its budget.
func compactIfLarge(wal ports.WAL, pol ports.Policy, obs ports.Observability) {
	stats := wal.Stats()
	obs.SetGauge("aegis_wal_size_bytes", float64(stats.SizeBytes))
	if pol.MaxWALSizeBytes <= 0 || stats.SizeBytes < pol.MaxWALSizeBytes/2 {
		return
	}
	if err := wal.TruncateCommitted(); err != nil {
		obs.LogError("wal_truncate_failed", err)
		return
	}
	obs.SetGauge("aegis_wal_size_bytes", float64(wal.Stats().SizeBytes))
}

// ReplayWAL queues every uncommitted record left by a previous run. Records that do
// not fit under a drop policy are counted as dropped.
func ReplayWAL(wal ports.WAL, q ports.RecordQueue, pol ports.Policy, obs ports.Observability) error {
	stats := wal.Stats()
	if stats.LatestAppended == 0 {
		return nil
	}
	start := stats.OldestUncommitted
	if start == 0 || start > stats.LatestAppended {
		return nil
	}

	sleep := idleSleep(pol)
	var replayed, dropped int
	err := wal.Iterate(start, func(id ports.WALEntryID, r *domain.Record) error {
		for {
			if q.Enqueue(id, r) {
				replayed++
				return nil
			}
			switch pol.OnQueueFull {
			case "drop", "reject":
				dropped++
				return nil
			case "block":
				time.Sleep(sleep)
			default:
				return fmt.Errorf("queue full during WAL replay")
			}
		}
	})
	if err != nil {
		return err
	}
	if dropped > 0 {
		obs.IncCounter("aegis_telemetry_dropped_total", float64(dropped))
	}
	if replayed > 0 || dropped > 0 {
		obs.LogInfo("wal_replay_complete",
			ports.Field{Key: "records", Value: replayed},
			ports.Field{Key: "dropped", Value: dropped},
			ports.Field{Key: "from_id", Value: start})
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
