package ports

// TelemetryLog accepts named vectors from the control path. Implementations must not
// block the caller for longer than their policy allows.
type TelemetryLog interface {
	LogVector(name string, values []float64)
}
