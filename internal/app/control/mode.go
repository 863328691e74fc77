package control

import (
	"fmt"
	"sync"

	"github.com/ghalamif/AegisPilot/internal/domain"
	"github.com/ghalamif/AegisPilot/internal/ports"
)

type observer struct {
	id uint64
	fn func(domain.ControllerMode)
}

// observerList keeps mode listeners in registration order.
type observerList struct {
	mu     sync.Mutex
	nextID uint64
	items  []observer
}

func (l *observerList) add(fn func(domain.ControllerMode)) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextID++
	l.items = append(l.items, observer{id: l.nextID, fn: fn})
	return l.nextID
}

func (l *observerList) remove(id uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, o := range l.items {
		if o.id == id {
			l.items = append(l.items[:i:i], l.items[i+1:]...)
			return
		}
	}
}

func (l *observerList) snapshot() []observer {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]observer, len(l.items))
	copy(out, l.items)
	return out
}

// Mode returns the active controller mode.
func (c *Controller) Mode() domain.ControllerMode {
	return c.mode.Load()
}

// SetMode commits a new mode. Listeners run synchronously, in registration order, after
// the mode lock is released and only when the mode actually changed.
func (c *Controller) SetMode(mode domain.ControllerMode) error {
	if !mode.Valid() {
		c.obs.LogWarn("controller_mode_rejected", ports.Field{Key: "mode", Value: uint8(mode)})
		return fmt.Errorf("%w: %d", ErrInvalidMode, uint8(mode))
	}

	prev := c.mode.Swap(mode)
	if prev == mode {
		return nil
	}

	c.obs.SetGauge("aegis_controller_mode", float64(mode))
	for _, o := range c.observers.snapshot() {
		o.fn(mode)
	}
	c.obs.LogWarn("controller_mode_changed",
		ports.Field{Key: "mode", Value: mode.String()},
		ports.Field{Key: "previous", Value: prev.String()})
	return nil
}

// Subscribe registers fn for mode-changed events and returns a function that removes it.
// fn runs on the goroutine that changed the mode.
func (c *Controller) Subscribe(fn func(domain.ControllerMode)) (cancel func()) {
	if fn == nil {
		return func() {}
	}
	id := c.observers.add(fn)
	var once sync.Once
	return func() {
		once.Do(func() { c.observers.remove(id) })
	}
}

// ModeEvents exposes mode changes on a channel. Events that do not fit in the buffer
// are dropped with a warning so the committing goroutine never blocks on a slow reader.
func (c *Controller) ModeEvents(buffer int) (<-chan domain.ControllerMode, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan domain.ControllerMode, buffer)
	var (
		mu     sync.Mutex
		closed bool
	)
	unsubscribe := c.Subscribe(func(m domain.ControllerMode) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case ch <- m:
		default:
			c.obs.LogWarn("mode_event_dropped", ports.Field{Key: "mode", Value: m.String()})
		}
	})
	return ch, func() {
		unsubscribe()
		mu.Lock()
		defer mu.Unlock()
		if !closed {
			closed = true
			close(ch)
		}
	}
}
