package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ghalamif/AegisPilot"
	"github.com/ghalamif/AegisPilot/internal/adapters/observability"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	var err error

	switch cmd {
	case "run":
		err = runCommand(os.Args[2:])
	case "validate":
		err = validateCommand(os.Args[2:])
	case "params":
		err = paramsCommand(os.Args[2:])
	case "stats":
		err = statsCommand(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		printUsage()
		err = fmt.Errorf("unknown command %q", cmd)
	}

	if err != nil {
		log.Fatal().Err(err).Str("command", cmd).Msg("aegis-pilot failed")
	}
}

func runCommand(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	cfgPath := fs.String("config", "./data/config.yaml", "Path to autopilot configuration file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := aegispilot.LoadConfig(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, closer := observability.InitLogger("aegis-pilot", cfg.Logging)
	defer closer.Close()

	flow, err := aegispilot.ConfFromConfig(cfg, aegispilot.WithFlowOptions(aegispilot.WithLogger(logger)))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info().
		Str("params", cfg.Control.ParamsFile).
		Str("mode", cfg.Control.InitialMode).
		Dur("tick", cfg.Control.TickInterval).
		Msg("autopilot starting")
	return flow.Run(ctx)
}

func validateCommand(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	cfgPath := fs.String("config", "./data/config.yaml", "Path to configuration file to validate")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := aegispilot.LoadConfig(*cfgPath)
	if err != nil {
		return err
	}
	fmt.Printf("config %s looks good\n", *cfgPath)

	if _, err := os.Stat(cfg.Control.ParamsFile); os.IsNotExist(err) {
		fmt.Printf("params %s not found, defaults will be used\n", cfg.Control.ParamsFile)
		return nil
	}
	if _, err := aegispilot.ReadParams(cfg.Control.ParamsFile, consoleLogger()); err != nil {
		return fmt.Errorf("params %s: %w", cfg.Control.ParamsFile, err)
	}
	fmt.Printf("params %s looks good\n", cfg.Control.ParamsFile)
	return nil
}

func paramsCommand(args []string) error {
	fs := flag.NewFlagSet("params", flag.ExitOnError)
	path := fs.String("file", "./data/controller_params.xml", "Path to the controller params document")
	if err := fs.Parse(args); err != nil {
		return err
	}

	snap, err := aegispilot.ReadParams(*path, consoleLogger())
	if err != nil {
		return err
	}

	mode := "unset"
	if snap.Mode.Valid() {
		mode = snap.Mode.String()
	}
	fmt.Printf("mode  %s\n", mode)
	for _, p := range snap.Parameters {
		fmt.Printf("%-12s %g\n", p.ID(), p.Value())
	}
	return nil
}

func consoleLogger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(observability.ParseLevel("warn")).
		With().Timestamp().Logger()
}

func statsCommand(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	url := fs.String("url", "http://localhost:9100/metrics", "Prometheus metrics endpoint")
	interval := fs.Duration("interval", 2*time.Second, "Refresh interval")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	fmt.Printf("Streaming metrics from %s (Ctrl+C to stop)\n", *url)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := printMetricsSnapshot(*url); err != nil {
				fmt.Fprintf(os.Stderr, "stats error: %v\n", err)
			}
		}
	}
}

var statsTargets = []string{
	"aegis_controller_mode",
	"aegis_control_ticks_total",
	"aegis_mode_fallbacks_total",
	"aegis_attitude_failures_total",
	"aegis_telemetry_records_total",
	"aegis_telemetry_dropped_total",
	"aegis_queue_length",
	"aegis_wal_size_bytes",
}

func printMetricsSnapshot(url string) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	values, err := scanMetrics(bufio.NewScanner(resp.Body))
	if err != nil {
		return err
	}

	mode := "unset"
	if m := aegispilot.ControllerMode(values["aegis_controller_mode"]); m.Valid() {
		mode = m.String()
	}
	fmt.Printf("[%s] mode=%s ticks=%.0f fallbacks=%.0f attitude_failures=%.0f records=%.0f dropped=%.0f queue=%.0f wal_bytes=%.0f\n",
		time.Now().Format(time.RFC3339),
		mode,
		values["aegis_control_ticks_total"],
		values["aegis_mode_fallbacks_total"],
		values["aegis_attitude_failures_total"],
		values["aegis_telemetry_records_total"],
		values["aegis_telemetry_dropped_total"],
		values["aegis_queue_length"],
		values["aegis_wal_size_bytes"],
	)
	return nil
}

func scanMetrics(scanner *bufio.Scanner) (map[string]float64, error) {
	values := make(map[string]float64, len(statsTargets))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#") {
			continue
		}
		for _, key := range statsTargets {
			if strings.HasPrefix(line, key+" ") {
				var value float64
				if _, err := fmt.Sscanf(line, key+" %g", &value); err == nil {
					values[key] = value
				}
			}
		}
	}
	return values, scanner.Err()
}

func printUsage() {
	fmt.Printf(`AegisPilot CLI

Usage:
  aegis-pilot <command> [flags]

Commands:
  run        Start the autopilot runtime using the provided config
  validate   Load and validate a config file and its params document
  params     Print the parameters stored in a params document
  stats      Poll the Prometheus metrics endpoint and print live counters

Examples:
  aegis-pilot run -config ./data/config.yaml
  aegis-pilot validate -config ./data/config.yaml
  aegis-pilot params -file ./data/controller_params.xml
  aegis-pilot stats -url http://localhost:9100/metrics -interval 1s
`)
}
