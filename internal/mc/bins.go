package mc

import "fmt"

// Bins is the adaptive 2D grid over energy and atom count, flattened to
// index = floor((E-Min)/Width)*(MaxN+1) + N. The grid only ever grows:
// Min decreases, NumE and MaxN increase, and a rebuild remaps every
// stored entry to its new index. Width never changes during a run.
type Bins struct {
	// Min is the lowest energy covered by any bin.
	Min float64 `json:"min"`
	// Width is the energy bin size.
	Width float64 `json:"width"`
	// Histogram counts visits per bin.
	Histogram []uint64 `json:"histogram"`
	// LnW is the natural-log relative weight (entropy estimate) per bin.
	LnW []float64 `json:"lnw"`
	// TranslationScale is the displacement scale per atom count.
	TranslationScale []float64 `json:"translation_scale"`
	// TranslationAttempts counts displacement proposals per atom count.
	TranslationAttempts []uint64 `json:"translation_attempts"`
	// TranslationAccepted counts accepted displacements per atom count.
	TranslationAccepted []uint64 `json:"translation_accepted"`
	// AddRemoveAttempts counts add/remove proposals.
	AddRemoveAttempts uint64 `json:"addremove_attempts"`
	// AddRemoveAccepted counts accepted adds/removes.
	AddRemoveAccepted uint64 `json:"addremove_accepted"`
	// HaveVisitedSinceMaxEntropy flags bins visited since the last stay
	// in the max-entropy bin; RoundTrips counts completed revisits.
	HaveVisitedSinceMaxEntropy []bool   `json:"have_visited_since_max_entropy"`
	RoundTrips                 []uint64 `json:"round_trips"`
	// MaxS and MaxSIndex track the highest log-weight seen and where.
	MaxS      float64 `json:"max_s"`
	MaxSIndex int     `json:"max_s_index"`
	// MaxN is the highest atom count covered by the grid.
	MaxN int `json:"max_n"`
	// NumE is the number of energy bins.
	NumE int `json:"num_e"`
	// NumStates is the number of bins ever visited.
	NumStates int `json:"num_states"`
	// TLast is the move count of the most recent new-bin discovery.
	TLast uint64 `json:"t_last"`
}

// initialBins builds the one-bin grid centered on the starting energy.
func initialBins(e0, width, scale float64) *Bins {
	return &Bins{
		Min:                        e0 - width*0.5,
		Width:                      width,
		Histogram:                  []uint64{1},
		LnW:                        []float64{0},
		TranslationScale:           []float64{scale},
		TranslationAttempts:        []uint64{0},
		TranslationAccepted:        []uint64{0},
		HaveVisitedSinceMaxEntropy: []bool{false},
		RoundTrips:                 []uint64{1},
		MaxN:                       0,
		NumE:                       1,
		NumStates:                  1,
		TLast:                      1,
	}
}

// StateToIndex maps a state to its flat index. It panics when the energy
// lies below the grid minimum: callers must grow the grid first.
func (b *Bins) StateToIndex(s State) int {
	if s.E < b.Min {
		panic(fmt.Sprintf("mc: energy %g below bin minimum %g", s.E, b.Min))
	}
	return int((s.E-b.Min)/b.Width)*(b.MaxN+1) + s.N
}

// IndexToState reconstructs the bin-center state for a flat index.
func (b *Bins) IndexToState(i int) State {
	return State{
		E: b.Min + (float64(i/(b.MaxN+1))+0.5)*b.Width,
		N: i % (b.MaxN + 1),
	}
}

// EMax is the exclusive upper energy bound of the grid.
func (b *Bins) EMax() float64 {
	return b.Min + b.Width*float64(b.NumE)
}

// NBins is the flat array length.
func (b *Bins) NBins() int {
	return b.NumE * (b.MaxN + 1)
}

// Energies returns the bin-center energies in index order.
func (b *Bins) Energies() []float64 {
	es := make([]float64, b.NumE)
	for i := range es {
		es[i] = b.Min + b.Width*(float64(i)+0.5)
	}
	return es
}

// PrepareForState grows the grid to cover s and reports whether a grow
// happened. Growth rebuilds the arrays at the new size, remaps every
// stored entry, and seeds per-count scales for new counts from index 0.
func (b *Bins) PrepareForState(s State) bool {
	if b.Width <= 0 {
		panic("mc: bin width must be positive")
	}
	if s.N <= b.MaxN && s.E >= b.Min && s.E < b.EMax() {
		return false
	}

	nb := *b
	if s.N > b.MaxN {
		nb.MaxN = s.N
	}
	for nb.Min > s.E {
		nb.Min -= b.Width
		nb.NumE++
	}
	for nb.EMax() <= s.E {
		nb.NumE++
	}

	nb.LnW = make([]float64, nb.NBins())
	nb.Histogram = make([]uint64, nb.NBins())
	nb.HaveVisitedSinceMaxEntropy = make([]bool, nb.NBins())
	nb.RoundTrips = make([]uint64, nb.NBins())
	nb.TranslationScale = make([]float64, nb.MaxN+1)
	nb.TranslationAttempts = make([]uint64, nb.MaxN+1)
	nb.TranslationAccepted = make([]uint64, nb.MaxN+1)
	for n := range nb.TranslationScale {
		nb.TranslationScale[n] = b.TranslationScale[0]
	}
	copy(nb.TranslationScale, b.TranslationScale)
	copy(nb.TranslationAttempts, b.TranslationAttempts)
	copy(nb.TranslationAccepted, b.TranslationAccepted)

	// MaxSIndex is not remapped.
	for i := range b.LnW {
		j := nb.StateToIndex(b.IndexToState(i))
		nb.LnW[j] = b.LnW[i]
		nb.Histogram[j] = b.Histogram[i]
		nb.HaveVisitedSinceMaxEntropy[j] = b.HaveVisitedSinceMaxEntropy[i]
		nb.RoundTrips[j] = b.RoundTrips[i]
	}

	*b = nb
	return true
}

// Temperature estimates the temperature at s by finite differences of
// the weight table: the largest slope against lower bins bounds T from
// below, the smallest against higher bins bounds it from above. Bins
// with non-positive log-weight are skipped as uninformative.
func (b *Bins) Temperature(s State) float64 {
	i := b.StateToIndex(s)
	lnwi := b.LnW[i]

	tlo := 0.0
	for j := 0; j < i; j++ {
		if b.LnW[j] > 0 {
			tj := (s.E - b.IndexToState(j).E) / (lnwi - b.LnW[j])
			if tj > tlo {
				tlo = tj
			}
		}
	}
	thi := 1e300
	for j := i + 1; j < len(b.LnW); j++ {
		if b.LnW[j] > 0 {
			tj := (s.E - b.IndexToState(j).E) / (lnwi - b.LnW[j])
			if tj < thi {
				thi = tj
			}
		}
	}

	if thi > tlo && tlo > 0 {
		return 0.5 * (thi + tlo)
	}
	if tlo > 0 {
		return tlo
	}
	return thi
}
