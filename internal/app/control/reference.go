package control

import (
	"fmt"

	"github.com/ghalamif/AegisPilot/internal/domain"
	"github.com/ghalamif/AegisPilot/internal/ports"
)

// ReferencePosition returns a copy of the hold position, or nil while unset.
func (c *Controller) ReferencePosition() []float64 {
	var out []float64
	_ = c.reference.With(func(ref *[]float64) error {
		if *ref != nil {
			out = append([]float64(nil), (*ref)...)
		}
		return nil
	})
	return out
}

// SetReferencePosition stores an explicit NED hold position.
func (c *Controller) SetReferencePosition(ned []float64) error {
	if len(ned) != 3 {
		return fmt.Errorf("reference position needs 3 elements, got %d", len(ned))
	}
	c.reference.Store(append([]float64(nil), ned...))
	c.telemetry.LogVector(domain.LogReferencePosition, ned)
	c.obs.LogInfo("reference_position_set",
		ports.Field{Key: "north", Value: ned[0]},
		ports.Field{Key: "east", Value: ned[1]},
		ports.Field{Key: "down", Value: ned[2]})
	return nil
}

// CaptureReferencePosition holds the current position reported by the position source.
func (c *Controller) CaptureReferencePosition() error {
	if c.position == nil {
		return fmt.Errorf("no position source configured")
	}
	ned, err := c.position.NEDPosition()
	if err != nil {
		c.obs.LogError("reference_capture_failed", err)
		return err
	}
	return c.SetReferencePosition(ned)
}
