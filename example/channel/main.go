package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/ghalamif/AegisPilot"
)

func main() {
	flow, err := aegispilot.Conf("../../data/config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sink, batches, closeBatches := aegispilot.NewChannelSink("fanout", 32)
	defer closeBatches()

	go fanoutWorker(ctx, "groundstation", batches)

	rt, err := flow.ControlOUT(aegispilot.OutSink(sink))
	if err != nil {
		log.Fatalf("build runtime: %v", err)
	}

	modes, cancelModes := rt.ModeEvents(4)
	defer cancelModes()
	go func() {
		for m := range modes {
			fmt.Printf("mode changed to %s\n", m)
		}
	}()

	if err := rt.Run(ctx); err != nil && err != context.Canceled {
		log.Fatalf("runtime error: %v", err)
	}
}

func fanoutWorker(ctx context.Context, name string, batches <-chan []aegispilot.Telemetry) {
	for {
		select {
		case <-ctx.Done():
			return
		case batch := <-batches:
			fmt.Printf("[%s] forwarding %d records at %s\n", name, len(batch), time.Now().Format(time.RFC3339))
		}
	}
}
