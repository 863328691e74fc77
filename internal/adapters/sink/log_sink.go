package sink

import (
	"github.com/rs/zerolog"

	"github.com/ghalamif/AegisPilot/internal/domain"
	"github.com/ghalamif/AegisPilot/internal/ports"
)

// LogSink emits every record as a structured debug line. It is the
// fallback when no database is configured.
type LogSink struct {
	logger zerolog.Logger
}

func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger.With().Str("component", "telemetry").Logger()}
}

func (l *LogSink) Name() string { return "log" }

func (l *LogSink) WriteBatch(records []*domain.Record) error {
	for _, r := range records {
		l.logger.Debug().
			Str("name", r.Name).
			Uint64("seq", r.Seq).
			Time("ts", r.Timestamp).
			Floats64("values", r.Values).
			Msg("telemetry")
	}
	return nil
}

var _ ports.Sink = (*LogSink)(nil)
