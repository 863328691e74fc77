package control

import (
	"errors"
	"fmt"
)

// ErrBadControl marks invariant violations. The control path must stop actuating when
// it sees one.
var ErrBadControl = errors.New("control: bad control")

var (
	ErrVectorLength  = fmt.Errorf("%w: at least one of the vectors is not of length 6", ErrBadControl)
	ErrMixOutOfRange = fmt.Errorf("%w: pilot mix value is out of range", ErrBadControl)
	ErrNoControlMode = fmt.Errorf("%w: not set to a valid control mode", ErrBadControl)
)

// ErrInvalidMode is returned when a mode request names no operating mode.
var ErrInvalidMode = errors.New("control: invalid controller mode")

// ErrConfigFormat is returned when the params document cannot be used.
var ErrConfigFormat = errors.New("control: unknown params file format")
