package models

import "fmt"

// EvalState is the lifecycle state of an evaluation. States form a strict
// total order; comparisons use the underlying integer.
type EvalState int

const (
	StatePartial EvalState = iota
	StateInQueue
	StateActive
	StateDue
	StateGracePeriod
	StateClosed
	StateViewable
)

var stateNames = [...]string{
	StatePartial:     "partial",
	StateInQueue:     "inqueue",
	StateActive:      "active",
	StateDue:         "due",
	StateGracePeriod: "graceperiod",
	StateClosed:      "closed",
	StateViewable:    "viewable",
}

func (s EvalState) String() string {
	if !s.Valid() {
		return fmt.Sprintf("EvalState(%d)", int(s))
	}
	return stateNames[s]
}

// Valid reports whether s is one of the defined states.
func (s EvalState) Valid() bool {
	return s >= StatePartial && s <= StateViewable
}

// ParseEvalState maps a stored memo back to a state.
func ParseEvalState(v string) (EvalState, error) {
	for i, name := range stateNames {
		if name == v {
			return EvalState(i), nil
		}
	}
	return StatePartial, fmt.Errorf("unknown evaluation state %q", v)
}
