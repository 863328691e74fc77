// Package nav keeps the latest navigation estimates published by the sensor stack.
package nav

import (
	"errors"
	"sync"

	"github.com/ghalamif/AegisPilot/internal/domain"
	"github.com/ghalamif/AegisPilot/internal/ports"
)

// ErrNoPositionFix is returned until the first position estimate arrives.
var ErrNoPositionFix = errors.New("nav: no position fix")

// Store is safe for one writer per estimate kind and any number of readers.
type Store struct {
	mu          sync.RWMutex
	attitude    domain.AttitudeState
	hasAttitude bool
	position    domain.PositionState
	hasPosition bool
}

var (
	_ ports.AttitudeSource   = (*Store)(nil)
	_ ports.NavigationSource = (*Store)(nil)
	_ ports.PositionSource   = (*Store)(nil)
)

func NewStore() *Store {
	return &Store{}
}

func (s *Store) UpdateAttitude(st domain.AttitudeState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attitude = st
	s.hasAttitude = true
}

func (s *Store) UpdatePosition(st domain.PositionState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.position = st
	s.hasPosition = true
}

func (s *Store) Attitude() (domain.AttitudeState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.attitude, s.hasAttitude
}

func (s *Store) Position() (domain.PositionState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.position, s.hasPosition
}

func (s *Store) NEDPosition() ([]float64, error) {
	pos, ok := s.Position()
	if !ok {
		return nil, ErrNoPositionFix
	}
	return pos.NED(), nil
}
