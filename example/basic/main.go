package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ghalamif/AegisPilot"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Str("app", "basic").Logger()

	flow, err := aegispilot.Conf("../../data/config.yaml", aegispilot.WithFlowOptions(aegispilot.WithLogger(logger)))
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	rt, err := flow.ControlOUT()
	if err != nil {
		log.Fatal().Err(err).Msg("build runtime")
	}

	logger.Info().Str("mode", rt.Mode().String()).Msg("autopilot ready")
	for _, p := range rt.Parameters() {
		logger.Info().Str("param", p.ID()).Float64("value", p.Value()).Send()
	}
	cancel := rt.Subscribe(func(m aegispilot.ControllerMode) {
		logger.Warn().Str("mode", m.String()).Msg("mode changed")
	})
	defer cancel()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rt.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("autopilot exited")
	}
}
