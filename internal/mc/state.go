package mc

import "fmt"

// State is a point in the sampling space: an energy and an atom count.
type State struct {
	E float64 `json:"e"`
	N int     `json:"n"`
}

// StateOf reads the system's current state.
func StateOf(sys System) State {
	return State{E: sys.Energy(), N: sys.NumAtoms()}
}

func (s State) String() string {
	return fmt.Sprintf("%d:%g", s.N, s.E)
}
