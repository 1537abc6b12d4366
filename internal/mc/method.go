package mc

import "log/slog"

// Method names accepted by Params.Method.
const (
	MethodSAMC = "samc"
	MethodWL   = "wl"
)

// Method is the weight-update policy. Exactly two implementations exist,
// SAMC and WangLandau; the unexported methods keep the set closed.
type Method interface {
	Kind() string
	// Gamma is the amount added to a visited bin's log-weight at the
	// given move count.
	Gamma(moves uint64) float64

	// prepare runs before the acceptance decision for candidate e2,
	// after the primary grid has grown for it.
	prepare(primary *Bins, e2 State, moves uint64)
	// visit runs after gamma has been added to the visited bin i.
	visit(primary *Bins, i int, moves uint64)
	bind(log *slog.Logger, onGamma func(moves uint64, gamma float64))
}

// SAMC is the stochastic-approximation schedule: gamma stays at 1 until
// move t0, then decays as t0/t.
type SAMC struct {
	T0 float64 `json:"t0"`
}

func (m *SAMC) Kind() string { return MethodSAMC }

func (m *SAMC) Gamma(moves uint64) float64 {
	t := float64(moves)
	if t > m.T0 {
		return m.T0 / t
	}
	return 1.0
}

func (m *SAMC) prepare(*Bins, State, uint64) {}
func (m *SAMC) visit(*Bins, int, uint64)     {}

func (m *SAMC) bind(*slog.Logger, func(uint64, float64)) {}

// WangLandau halves its modification factor whenever the auxiliary visit
// histogram is sufficiently flat across occupied bins. The auxiliary
// grid mirrors the primary grid's geometry move for move.
type WangLandau struct {
	Factor      float64 `json:"gamma"`
	LowestHist  uint64  `json:"lowest_hist"`
	HighestHist uint64  `json:"highest_hist"`
	TotalHist   uint64  `json:"total_hist"`
	Aux         *Bins   `json:"bins"`

	log     *slog.Logger
	onGamma func(moves uint64, gamma float64)
}

func newWangLandau(e0, width, scale float64) *WangLandau {
	return &WangLandau{
		Factor:      1.0,
		LowestHist:  1,
		HighestHist: 1,
		Aux:         initialBins(e0, width, scale),
	}
}

func (m *WangLandau) Kind() string { return MethodWL }

func (m *WangLandau) Gamma(uint64) float64 { return m.Factor }

func (m *WangLandau) bind(log *slog.Logger, onGamma func(uint64, float64)) {
	m.log = log
	m.onGamma = onGamma
}

// gammaChanged reports the value before and after a change.
func (m *WangLandau) gammaChanged(moves uint64, old float64) {
	if m.onGamma != nil {
		m.onGamma(moves, old)
		m.onGamma(moves, m.Factor)
	}
}

func (m *WangLandau) prepare(primary *Bins, e2 State, moves uint64) {
	if !m.Aux.PrepareForState(e2) {
		return
	}
	// New territory invalidates flatness progress once the initial
	// gamma=1 phase is over; until then accumulated counts stay.
	if m.Factor != 1.0 || len(m.Aux.Histogram) == 0 {
		old := m.Factor
		m.Factor = 1.0
		m.LowestHist = 0
		m.HighestHist = 0
		m.TotalHist = 0
		m.gammaChanged(moves, old)
		m.log.Info("wang-landau starting fresh", "energies", len(primary.LnW))
	}
}

func (m *WangLandau) visit(primary *Bins, i int, moves uint64) {
	numStates := float64(primary.NumStates)
	m.Aux.Histogram[i]++
	if m.Aux.Histogram[i] > m.HighestHist {
		m.HighestHist = m.Aux.Histogram[i]
	}
	m.TotalHist++

	// Flatness can only improve when the visited bin just left the
	// lowest-count tier, and only counts bins the primary grid has
	// actually occupied.
	if m.Aux.Histogram[i] != m.LowestHist+1 {
		return
	}
	if low, ok := minOccupied(m.Aux.Histogram, primary.Histogram); !ok || low != m.LowestHist+1 {
		return
	}
	m.LowestHist = m.Aux.Histogram[i]
	if len(m.Aux.Histogram) > 1 && float64(m.LowestHist) >= 0.8*float64(m.TotalHist)/numStates {
		old := m.Factor
		m.Factor *= 0.5
		if m.Factor > 1e-16 {
			m.log.Info("wang-landau flatness reached",
				"flatness", float64(m.LowestHist)*numStates/float64(m.TotalHist),
				"min", m.LowestHist,
				"gamma", m.Factor)
		}
		for j := range m.Aux.Histogram {
			m.Aux.Histogram[j] = 0
		}
		m.TotalHist = 0
		m.LowestHist = 0
		m.gammaChanged(moves, old)
	}
}

// minOccupied is the smallest aux count among bins the primary histogram
// has occupied.
func minOccupied(aux, primary []uint64) (uint64, bool) {
	var low uint64
	found := false
	for i, h := range aux {
		if primary[i] == 0 {
			continue
		}
		if !found || h < low {
			low = h
			found = true
		}
	}
	return low, found
}
