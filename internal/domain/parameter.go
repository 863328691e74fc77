package domain

import "fmt"

// ComponentID identifies the component owning a parameter on the ground-station link.
type ComponentID uint8

const (
	ComponentController ComponentID = 200
)

// Parameter is an immutable (id, value, owner) triple used for tuning and persistence.
// Two parameters are the same parameter when their ids match.
type Parameter struct {
	id    string
	value float64
	owner ComponentID
}

func NewParameter(id string, value float64, owner ComponentID) Parameter {
	return Parameter{id: id, value: value, owner: owner}
}

func (p Parameter) ID() string         { return p.id }
func (p Parameter) Value() float64     { return p.value }
func (p Parameter) Owner() ComponentID { return p.owner }

func (p Parameter) String() string {
	return fmt.Sprintf("%s=%g (component %d)", p.id, p.value, p.owner)
}
