package system

import (
	"math"

	"github.com/san-kum/dosim/internal/config"
	"github.com/san-kum/dosim/internal/mc"
	"github.com/san-kum/dosim/internal/rng"
)

func init() {
	Register("squarewell",
		func(geom config.GeomConfig) mc.System {
			return NewSquareWell(geom.CellWidth, geom.Lambda)
		},
		func() mc.System { return &SquareWell{} })
}

// SquareWell is a square-well fluid in a periodic cubic cell: hard
// spheres of diameter 1 with an attractive well of depth 1 reaching out
// to Lambda diameters. The energy is minus the number of interacting
// pairs and is tracked incrementally as moves are confirmed.
type SquareWell struct {
	CellWidth float64      `json:"cell_width"`
	Lambda    float64      `json:"lambda"`
	Positions [][3]float64 `json:"positions"`
	E         float64      `json:"energy"`

	pending pendingMove
}

type moveKind int

const (
	moveNone moveKind = iota
	moveDisplace
	moveAdd
	moveRemove
)

type pendingMove struct {
	kind moveKind
	atom int
	pos  [3]float64
	e    float64
}

// NewSquareWell builds an empty cell; atoms enter through add moves.
func NewSquareWell(cellWidth, lambda float64) *SquareWell {
	return &SquareWell{CellWidth: cellWidth, Lambda: lambda}
}

func (s *SquareWell) Energy() float64 { return s.E }

func (s *SquareWell) NumAtoms() int { return len(s.Positions) }

// DeltaEnergy is the well depth: energies only come in whole pairs.
func (s *SquareWell) DeltaEnergy() (float64, bool) { return 1.0, true }

// distSq is the squared minimum-image distance between a and b.
func (s *SquareWell) distSq(a, b [3]float64) float64 {
	var d2 float64
	for k := 0; k < 3; k++ {
		d := a[k] - b[k]
		d -= s.CellWidth * math.Round(d/s.CellWidth)
		d2 += d * d
	}
	return d2
}

// pairEnergy is the energy contribution of an atom at pos, skipping the
// atom at index skip (-1 to count against everyone). Returns overlap
// when pos sits inside another atom's hard core.
func (s *SquareWell) pairEnergy(pos [3]float64, skip int) (e float64, overlap bool) {
	l2 := s.Lambda * s.Lambda
	for i, p := range s.Positions {
		if i == skip {
			continue
		}
		d2 := s.distSq(pos, p)
		if d2 < 1 {
			return 0, true
		}
		if d2 < l2 {
			e -= 1
		}
	}
	return e, false
}

func (s *SquareWell) wrap(x float64) float64 {
	x = math.Mod(x, s.CellWidth)
	if x < 0 {
		x += s.CellWidth
	}
	return x
}

// PlanMove proposes a Gaussian displacement of a random atom. Overlap
// with a hard core means no legal move.
func (s *SquareWell) PlanMove(r *rng.Source, scale float64) (float64, bool) {
	if len(s.Positions) == 0 {
		return 0, false
	}
	i := r.IntN(len(s.Positions))
	old := s.Positions[i]
	var pos [3]float64
	for k := 0; k < 3; k++ {
		pos[k] = s.wrap(old[k] + scale*r.NormFloat64())
	}
	eNew, overlap := s.pairEnergy(pos, i)
	if overlap {
		return 0, false
	}
	eOld, _ := s.pairEnergy(old, i)
	e := s.E - eOld + eNew
	s.pending = pendingMove{kind: moveDisplace, atom: i, pos: pos, e: e}
	return e, true
}

// PlanAdd proposes a new atom at a uniform random position.
func (s *SquareWell) PlanAdd(r *rng.Source) (float64, bool) {
	var pos [3]float64
	for k := 0; k < 3; k++ {
		pos[k] = s.CellWidth * r.Float64()
	}
	eNew, overlap := s.pairEnergy(pos, -1)
	if overlap {
		return 0, false
	}
	e := s.E + eNew
	s.pending = pendingMove{kind: moveAdd, pos: pos, e: e}
	return e, true
}

// PlanRemove proposes deleting a random atom. Callers must not ask with
// zero atoms present.
func (s *SquareWell) PlanRemove(r *rng.Source) float64 {
	i := r.IntN(len(s.Positions))
	eOld, _ := s.pairEnergy(s.Positions[i], i)
	e := s.E - eOld
	s.pending = pendingMove{kind: moveRemove, atom: i, e: e}
	return e
}

// Confirm commits the most recently planned move.
func (s *SquareWell) Confirm() {
	switch s.pending.kind {
	case moveDisplace:
		s.Positions[s.pending.atom] = s.pending.pos
	case moveAdd:
		s.Positions = append(s.Positions, s.pending.pos)
	case moveRemove:
		i := s.pending.atom
		s.Positions[i] = s.Positions[len(s.Positions)-1]
		s.Positions = s.Positions[:len(s.Positions)-1]
	default:
		return
	}
	s.E = s.pending.e
	s.pending = pendingMove{}
}

// totalEnergy recomputes the energy from scratch; the incremental value
// must always agree with it.
func (s *SquareWell) totalEnergy() float64 {
	l2 := s.Lambda * s.Lambda
	var e float64
	for i := range s.Positions {
		for j := i + 1; j < len(s.Positions); j++ {
			if s.distSq(s.Positions[i], s.Positions[j]) < l2 {
				e -= 1
			}
		}
	}
	return e
}
