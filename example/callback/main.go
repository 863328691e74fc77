package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/ghalamif/AegisPilot/pkg/aegispilot"
)

// printActuator stands in for the servo driver.
type printActuator struct{ every int }

func (p *printActuator) Apply(output []float64) error {
	p.every++
	if p.every%100 == 0 {
		fmt.Printf("servo %v\n", output)
	}
	return nil
}

func main() {
	flow, err := aegispilot.Conf("../../data/config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	callback := func(batch []aegispilot.Telemetry) error {
		for _, rec := range batch {
			fmt.Printf("%s %s seq=%d values=%v\n",
				rec.Timestamp.Format(time.RFC3339Nano),
				rec.Name,
				rec.Seq,
				rec.Values,
			)
		}
		return nil
	}

	if err := flow.Run(ctx,
		aegispilot.OutCallback("stdout", callback),
		aegispilot.OutActuator(&printActuator{}),
	); err != nil && err != context.Canceled {
		log.Fatalf("runtime error: %v", err)
	}
}
