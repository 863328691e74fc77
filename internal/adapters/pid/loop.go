// Package pid holds the attitude and translation PID control laws.
package pid

import "math"

// Loop is a single-axis PID whose derivative term acts on the measured rate.
type Loop struct {
	Kp, Ki, Kd    float64
	IntegralLimit float64

	integral float64
}

// Update advances the loop by dt seconds and returns the control output.
func (l *Loop) Update(err, rate, dt float64) float64 {
	if dt > 0 {
		l.integral += err * dt
	}
	if l.IntegralLimit > 0 {
		l.integral = constrain(l.integral, -l.IntegralLimit, l.IntegralLimit)
	}
	return l.Kp*err + l.Ki*l.integral - l.Kd*rate
}

// Reset clears the accumulated integral.
func (l *Loop) Reset() {
	l.integral = 0
}

func constrain(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

func degToRad(d float64) float64 { return d * math.Pi / 180 }
func radToDeg(r float64) float64 { return r * 180 / math.Pi }
