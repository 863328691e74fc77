package aegispilot

import (
	"github.com/ghalamif/AegisPilot/internal/adapters/observability"
	"github.com/ghalamif/AegisPilot/internal/adapters/opcua"
	"github.com/ghalamif/AegisPilot/internal/app/config"
	"github.com/ghalamif/AegisPilot/internal/ports"
)

// Config re-exports the root configuration struct so downstream projects can
// construct or modify it programmatically.
type Config = config.Config

type (
	// ControlConfig selects the params file, tick rate and initial mode.
	ControlConfig = config.ControlConfig
	// RCConfig points at the iBus receiver device.
	RCConfig = config.RCConfig
	// TelemetryConfig holds the WAL, queue policy and archive settings.
	TelemetryConfig = config.TelemetryConfig
	// Policy controls WAL/queue thresholds.
	Policy = ports.Policy
	// TimescaleConfig configures the telemetry archive.
	TimescaleConfig = config.TimescaleConfig
	// MetricsConfig configures the metrics HTTP server.
	MetricsConfig = config.MetricsConfig
	// WALConfig configures on-disk durability.
	WALConfig = config.WALConfig
	// LogConfig configures the process logger.
	LogConfig = observability.LogConfig
	// GroundLinkConfig holds OPC UA connection and node details.
	GroundLinkConfig = opcua.Config
	// ParamNode binds a ground-station node to a controller parameter.
	ParamNode = opcua.ParamNode
)

// LoadConfig loads YAML from disk using the internal config reader.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}
