package system

import (
	"github.com/san-kum/dosim/internal/config"
	"github.com/san-kum/dosim/internal/mc"
	"github.com/san-kum/dosim/internal/rng"
)

func init() {
	Register("latticegas",
		func(geom config.GeomConfig) mc.System {
			return NewLatticeGas(geom.LatticeSize)
		},
		func() mc.System { return &LatticeGas{} })
}

// LatticeGas is a gas on an L x L periodic square lattice: at most one
// atom per site, energy minus the number of adjacent occupied pairs.
// The discrete energy spectrum makes it a cheap exact check of the
// sampler; the translation scale has no meaning here and is ignored.
type LatticeGas struct {
	Size     int     `json:"size"`
	Occupied []bool  `json:"occupied"`
	Atoms    []int   `json:"atoms"`
	E        float64 `json:"energy"`

	pending pendingSite
}

type pendingSite struct {
	kind moveKind
	atom int
	site int
	e    float64
}

func NewLatticeGas(size int) *LatticeGas {
	return &LatticeGas{Size: size, Occupied: make([]bool, size*size)}
}

func (g *LatticeGas) Energy() float64 { return g.E }

func (g *LatticeGas) NumAtoms() int { return len(g.Atoms) }

func (g *LatticeGas) DeltaEnergy() (float64, bool) { return 1.0, true }

// neighbors fills buf with the four periodic neighbor sites of site.
func (g *LatticeGas) neighbors(site int, buf *[4]int) {
	x, y := site%g.Size, site/g.Size
	buf[0] = (x+1)%g.Size + y*g.Size
	buf[1] = (x+g.Size-1)%g.Size + y*g.Size
	buf[2] = x + ((y+1)%g.Size)*g.Size
	buf[3] = x + ((y+g.Size-1)%g.Size)*g.Size
}

// bonds counts occupied neighbors of site, pretending the exclude site
// is empty.
func (g *LatticeGas) bonds(site, exclude int) float64 {
	var nb [4]int
	g.neighbors(site, &nb)
	var n float64
	for _, s := range nb {
		if s != exclude && g.Occupied[s] {
			n++
		}
	}
	return n
}

// PlanMove hops a random atom to a random adjacent site; an occupied
// target means no legal move.
func (g *LatticeGas) PlanMove(r *rng.Source, _ float64) (float64, bool) {
	if len(g.Atoms) == 0 {
		return 0, false
	}
	i := r.IntN(len(g.Atoms))
	from := g.Atoms[i]
	var nb [4]int
	g.neighbors(from, &nb)
	to := nb[r.IntN(4)]
	if g.Occupied[to] {
		return 0, false
	}
	e := g.E + g.bonds(from, from) - g.bonds(to, from)
	g.pending = pendingSite{kind: moveDisplace, atom: i, site: to, e: e}
	return e, true
}

// PlanAdd proposes occupying a uniform random site.
func (g *LatticeGas) PlanAdd(r *rng.Source) (float64, bool) {
	site := r.IntN(len(g.Occupied))
	if g.Occupied[site] {
		return 0, false
	}
	e := g.E - g.bonds(site, -1)
	g.pending = pendingSite{kind: moveAdd, site: site, e: e}
	return e, true
}

// PlanRemove proposes vacating a random atom's site.
func (g *LatticeGas) PlanRemove(r *rng.Source) float64 {
	i := r.IntN(len(g.Atoms))
	site := g.Atoms[i]
	e := g.E + g.bonds(site, site)
	g.pending = pendingSite{kind: moveRemove, atom: i, site: site, e: e}
	return e
}

func (g *LatticeGas) Confirm() {
	switch g.pending.kind {
	case moveDisplace:
		g.Occupied[g.Atoms[g.pending.atom]] = false
		g.Occupied[g.pending.site] = true
		g.Atoms[g.pending.atom] = g.pending.site
	case moveAdd:
		g.Occupied[g.pending.site] = true
		g.Atoms = append(g.Atoms, g.pending.site)
	case moveRemove:
		g.Occupied[g.pending.site] = false
		i := g.pending.atom
		g.Atoms[i] = g.Atoms[len(g.Atoms)-1]
		g.Atoms = g.Atoms[:len(g.Atoms)-1]
	default:
		return
	}
	g.E = g.pending.e
	g.pending = pendingSite{}
}

// totalEnergy recomputes the bond count from the occupation map.
func (g *LatticeGas) totalEnergy() float64 {
	var e float64
	for site, occ := range g.Occupied {
		if !occ {
			continue
		}
		x, y := site%g.Size, site/g.Size
		// Count each pair once through its right and down bonds.
		if g.Occupied[(x+1)%g.Size+y*g.Size] {
			e -= 1
		}
		if g.Occupied[x+((y+1)%g.Size)*g.Size] {
			e -= 1
		}
	}
	return e
}
