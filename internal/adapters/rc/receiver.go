// Package rc turns radio-control receiver frames into the scaled pilot vector.
package rc

import (
	"sync"
	"time"

	"github.com/ghalamif/AegisPilot/internal/domain"
	"github.com/ghalamif/AegisPilot/internal/ports"
)

const (
	NumRawChannels = 14

	MinRxValue     = 988
	MaxRxValue     = 2012
	NeutralRxValue = 1500
)

// ChannelMap says which raw receiver channel feeds each actuator channel.
type ChannelMap [domain.NumChannels]int

// DefaultChannelMap is the usual helicopter layout: aileron, elevator, rudder,
// collective (ch6), throttle (ch3), gyro gain (ch5).
var DefaultChannelMap = ChannelMap{
	domain.Roll:       0,
	domain.Pitch:      1,
	domain.Yaw:        3,
	domain.Collective: 5,
	domain.Throttle:   2,
	domain.GyroGain:   4,
}

// Receiver holds the latest raw channel values. When no frame arrived within the
// timeout it reports the failsafe frame instead: sticks and gyro gain centred,
// throttle and collective at the bottom.
type Receiver struct {
	mu         sync.Mutex
	raw        [NumRawChannels]uint16
	failsafe   [NumRawChannels]uint16
	lastPacket time.Time
	mapping    ChannelMap
	timeout    time.Duration
	now        func() time.Time

	inFailsafe bool
	onFailsafe func(active bool)
}

var _ ports.PilotInput = (*Receiver)(nil)

func NewReceiver(mapping ChannelMap, timeout time.Duration) *Receiver {
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}
	r := &Receiver{mapping: mapping, timeout: timeout, now: time.Now, inFailsafe: true}
	for i := range r.failsafe {
		r.failsafe[i] = NeutralRxValue
	}
	r.failsafe[mapping[domain.Throttle]] = MinRxValue
	r.failsafe[mapping[domain.Collective]] = MinRxValue
	r.raw = r.failsafe
	return r
}

// OnFailsafe registers fn for failsafe transitions. It is called from ScaledVector,
// outside the receiver lock, once per edge. The receiver starts in failsafe.
func (r *Receiver) OnFailsafe(fn func(active bool)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onFailsafe = fn
}

// Update stores a new frame. Channels beyond NumRawChannels are ignored.
func (r *Receiver) Update(raw []uint16) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copy(r.raw[:], raw)
	r.lastPacket = r.now()
}

// Fresh reports whether a frame arrived within the failsafe timeout.
func (r *Receiver) Fresh() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.freshLocked()
}

func (r *Receiver) freshLocked() bool {
	return !r.lastPacket.IsZero() && r.now().Sub(r.lastPacket) <= r.timeout
}

// ScaledVector maps sticks to [-1, 1] and throttle, collective and gyro gain to [0, 1].
// A stale receiver yields the failsafe frame.
func (r *Receiver) ScaledVector() []float64 {
	r.mu.Lock()
	raw := r.raw
	stale := !r.freshLocked()
	if stale {
		raw = r.failsafe
	}
	var notify func(bool)
	if stale != r.inFailsafe {
		r.inFailsafe = stale
		notify = r.onFailsafe
	}
	r.mu.Unlock()

	if notify != nil {
		notify(stale)
	}

	out := make([]float64, domain.NumChannels)
	for ch, idx := range r.mapping {
		v := constrain(float64(raw[idx]), MinRxValue, MaxRxValue)
		switch domain.Channel(ch) {
		case domain.Throttle, domain.Collective, domain.GyroGain:
			out[ch] = mapRange(v, MinRxValue, MaxRxValue, 0, 1)
		default:
			out[ch] = mapRange(v, MinRxValue, MaxRxValue, -1, 1)
		}
	}
	return out
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

func mapRange(value, fromMin, fromMax, toMin, toMax float64) float64 {
	return (value-fromMin)/(fromMax-fromMin)*(toMax-toMin) + toMin
}
