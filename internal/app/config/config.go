package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ghalamif/AegisPilot/internal/adapters/observability"
	"github.com/ghalamif/AegisPilot/internal/adapters/opcua"
	"github.com/ghalamif/AegisPilot/internal/domain"
	"github.com/ghalamif/AegisPilot/internal/ports"
)

type Config struct {
	Control   ControlConfig           `yaml:"control"`
	RC        RCConfig                `yaml:"rc"`
	Telemetry TelemetryConfig         `yaml:"telemetry"`
	Metrics   MetricsConfig           `yaml:"metrics"`
	Logging   observability.LogConfig `yaml:"logging"`
	// GroundLink is optional; nil leaves the ground-station link off.
	GroundLink *opcua.Config `yaml:"groundlink"`
}

type ControlConfig struct {
	ParamsFile    string        `yaml:"params_file"`
	TickInterval  time.Duration `yaml:"tick_interval"`
	InitialMode   string        `yaml:"initial_mode"`
	WatchParams   bool          `yaml:"watch_params"`
	StateTimeout  time.Duration `yaml:"state_timeout"`
	IntegralLimit float64       `yaml:"integral_limit"`
}

// Mode resolves InitialMode.
func (c ControlConfig) Mode() (domain.ControllerMode, error) {
	return domain.ParseControllerMode(c.InitialMode)
}

type RCConfig struct {
	// Device is an iBus serial device; empty means pilot input arrives through the API.
	Device  string        `yaml:"device"`
	Timeout time.Duration `yaml:"timeout"`
}

type TelemetryConfig struct {
	Policy    ports.Policy    `yaml:"policy"`
	WAL       WALConfig       `yaml:"wal"`
	Timescale TimescaleConfig `yaml:"timescale"`
}

type TimescaleConfig struct {
	ConnString string `yaml:"conn_string"`
	Table      string `yaml:"table"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

type WALConfig struct {
	Dir string `yaml:"dir"`
}

func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) ApplyDefaults() {
	if c.Control.ParamsFile == "" {
		c.Control.ParamsFile = "./data/controller_params.xml"
	}
	if c.Control.TickInterval == 0 {
		c.Control.TickInterval = 10 * time.Millisecond
	}
	if c.Control.InitialMode == "" {
		c.Control.InitialMode = "attitude"
	}
	if c.Control.StateTimeout == 0 {
		c.Control.StateTimeout = 200 * time.Millisecond
	}
	if c.RC.Timeout == 0 {
		c.RC.Timeout = 500 * time.Millisecond
	}

	pol := &c.Telemetry.Policy
	if pol.MaxWALSizeBytes == 0 {
		pol.MaxWALSizeBytes = 256 << 20
	}
	if pol.MaxQueueLen == 0 {
		pol.MaxQueueLen = 10_000
	}
	if pol.MaxBatchSize == 0 {
		pol.MaxBatchSize = 500
	}
	if pol.IdleSleep == 0 {
		pol.IdleSleep = 5 * time.Millisecond
	}
	// the control thread must never wait on telemetry
	if pol.OnQueueFull == "" {
		pol.OnQueueFull = "drop"
	}
	if pol.OnWALFull == "" {
		pol.OnWALFull = "drop"
	}
	if c.Telemetry.WAL.Dir == "" {
		c.Telemetry.WAL.Dir = "./data/wal"
	}
	if c.Telemetry.Timescale.Table == "" {
		c.Telemetry.Timescale.Table = "telemetry"
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9100"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.File != "" {
		if c.Logging.MaxSizeMB == 0 {
			c.Logging.MaxSizeMB = 50
		}
		if c.Logging.MaxBackups == 0 {
			c.Logging.MaxBackups = 5
		}
		if c.Logging.MaxAgeDays == 0 {
			c.Logging.MaxAgeDays = 14
		}
	}

	if c.GroundLink != nil {
		c.GroundLink.ApplyDefaults()
	}
}

func (c *Config) Validate() error {
	if c.Control.TickInterval < 0 {
		return fmt.Errorf("control.tick_interval must be > 0")
	}
	if _, err := c.Control.Mode(); err != nil {
		return fmt.Errorf("control.initial_mode: %w", err)
	}
	if c.Control.IntegralLimit < 0 {
		return fmt.Errorf("control.integral_limit must be >= 0")
	}
	if err := validatePolicy(c.Telemetry.Policy); err != nil {
		return fmt.Errorf("telemetry.policy: %w", err)
	}
	if c.Telemetry.WAL.Dir == "" {
		return fmt.Errorf("telemetry.wal.dir is required")
	}
	if c.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr is required")
	}
	if c.GroundLink != nil {
		if err := c.GroundLink.Validate(); err != nil {
			return fmt.Errorf("groundlink config: %w", err)
		}
	}
	return nil
}

func validatePolicy(p ports.Policy) error {
	if p.MaxQueueLen <= 0 {
		return fmt.Errorf("max_queue_len must be > 0")
	}
	if p.MaxBatchSize <= 0 {
		return fmt.Errorf("max_batch_size must be > 0")
	}
	switch strings.ToLower(p.OnWALFull) {
	case "block", "drop":
	default:
		return fmt.Errorf("on_wal_full %q must be block or drop", p.OnWALFull)
	}
	switch strings.ToLower(p.OnQueueFull) {
	case "block", "drop", "reject":
	default:
		return fmt.Errorf("on_queue_full %q must be block, drop or reject", p.OnQueueFull)
	}
	return nil
}
