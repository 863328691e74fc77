package domain

import "time"

// Record is one named telemetry vector captured by the control path.
type Record struct {
	Name      string    `json:"name"`
	Timestamp time.Time `json:"ts"`
	Seq       uint64    `json:"seq"`
	Values    []float64 `json:"values"`
}
