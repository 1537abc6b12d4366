package mc

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/san-kum/dosim/internal/rng"
)

// System is the capability a physical system offers the sampler. Plan
// calls propose the energy the system would have after a move; the move
// is applied only by Confirm. A false second return means no legal move
// was found, a normal outcome.
type System interface {
	Energy() float64
	NumAtoms() int
	// DeltaEnergy suggests a natural energy bin width, if the system
	// has one.
	DeltaEnergy() (float64, bool)
	PlanMove(r *rng.Source, scale float64) (float64, bool)
	PlanAdd(r *rng.Source) (float64, bool)
	PlanRemove(r *rng.Source) float64
	Confirm()
}

// DefaultTranslationScale is used when the move plan leaves the
// displacement scale unset.
const DefaultTranslationScale = 0.05

// MovePlan configures move proposal tuning. A positive TargetAcceptance
// switches on adaptive control of the add/remove probability; otherwise
// the explicit probability is used throughout the run.
type MovePlan struct {
	TranslationScale     float64 `json:"translation_scale"`
	AddRemoveProbability float64 `json:"addremove_probability"`
	TargetAcceptance     float64 `json:"target_acceptance,omitempty"`
}

// Params configures a fresh sampler.
type Params struct {
	// SystemName is recorded in checkpoints so a resume can rebuild
	// the right system.
	SystemName string
	// Method selects the weight-update policy, MethodSAMC or MethodWL.
	Method string
	// T0 is the SAMC schedule parameter.
	T0 float64
	// Seed for the run's random source.
	Seed uint64
	// EnergyBin is the bin width; 0 defers to the system's suggestion,
	// then to 1.0.
	EnergyBin float64
	// MaxAtoms caps the atom count; 0 means unbounded.
	MaxAtoms int
	Plan     MovePlan
}

// Sampler walks one system through (energy, count) space, accumulating
// the density-of-states estimate in Bins. Not safe for concurrent use.
type Sampler struct {
	System        System
	Bins          *Bins
	Moves         uint64
	AcceptedMoves uint64
	// AddRemoveProbability is the chance a move is an add/remove
	// rather than a displacement; retuned during the run in adaptive
	// mode.
	AddRemoveProbability float64
	Plan                 MovePlan
	MaxAtoms             int
	SystemName           string

	method    Method
	rng       *rng.Source
	log       *slog.Logger
	hooks     []Hook
	observers []GammaObserver
	saveFunc  func(*Sampler) error
	done      bool
}

// NewSampler builds a sampler around sys with a one-bin grid centered on
// the system's current energy.
func NewSampler(sys System, p Params, log *slog.Logger) (*Sampler, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	width := p.EnergyBin
	if width == 0 {
		if de, ok := sys.DeltaEnergy(); ok {
			width = de
		} else {
			width = 1.0
		}
	}
	if width <= 0 {
		return nil, fmt.Errorf("%w: %g", ErrInvalidBinWidth, width)
	}

	scale := p.Plan.TranslationScale
	if scale == 0 {
		scale = DefaultTranslationScale
	}

	var m Method
	switch p.Method {
	case MethodSAMC:
		m = &SAMC{T0: p.T0}
	case MethodWL:
		m = newWangLandau(sys.Energy(), width, scale)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, p.Method)
	}

	addremove := p.Plan.AddRemoveProbability
	if p.Plan.TargetAcceptance > 0 {
		// Adaptive mode starts even-handed; runs begin with zero
		// atoms, so add/remove is the only way to go anywhere.
		addremove = 0.5
	}

	s := &Sampler{
		System:               sys,
		Bins:                 initialBins(sys.Energy(), width, scale),
		AddRemoveProbability: addremove,
		Plan:                 p.Plan,
		MaxAtoms:             p.MaxAtoms,
		SystemName:           p.SystemName,
		method:               m,
		rng:                  rng.New(p.Seed),
		log:                  log,
	}
	s.method.bind(log, s.notifyGamma)
	return s, nil
}

// Method exposes the weight-update policy for diagnostics.
func (s *Sampler) Method() Method { return s.method }

// Gamma is the current weight-update magnitude.
func (s *Sampler) Gamma() float64 { return s.method.Gamma(s.Moves) }

// Done reports whether a hook requested the run to end.
func (s *Sampler) Done() bool { return s.done }

// AddHook registers a diagnostic hook; hooks also implementing
// GammaObserver receive gamma-change events.
func (s *Sampler) AddHook(h Hook) {
	s.hooks = append(s.hooks, h)
	if o, ok := h.(GammaObserver); ok {
		s.observers = append(s.observers, o)
	}
}

// SetSaveFunc installs the checkpoint writer invoked on ActionSave.
func (s *Sampler) SetSaveFunc(fn func(*Sampler) error) { s.saveFunc = fn }

func (s *Sampler) notifyGamma(moves uint64, gamma float64) {
	for _, o := range s.observers {
		o.GammaChanged(moves, gamma)
	}
}

// MoveOnce performs one full move: propose, accept or reject, update
// weights at the resulting state, update round-trip bookkeeping, and run
// hooks. The returned error only ever comes from hook I/O or the save
// function.
func (s *Sampler) MoveOnce() error {
	s.Moves++
	e1 := StateOf(s.System)

	if s.rng.Float64() > s.AddRemoveProbability {
		s.Bins.TranslationAttempts[e1.N]++
		if e2E, ok := s.System.PlanMove(s.rng, s.Bins.TranslationScale[e1.N]); ok {
			e2 := State{E: e2E, N: e1.N}
			s.Bins.PrepareForState(e2)
			if !s.rejectMove(e1, e2) {
				s.AcceptedMoves++
				s.Bins.TranslationAccepted[e1.N]++
				s.System.Confirm()
			}
		}
	} else {
		s.Bins.AddRemoveAttempts++
		var e2 State
		ok := false
		if s.rng.Uint64()&1 == 0 {
			if !(s.MaxAtoms > 0 && s.System.NumAtoms() == s.MaxAtoms) {
				if e, planned := s.System.PlanAdd(s.rng); planned {
					e2 = State{E: e, N: e1.N + 1}
					ok = true
				}
			}
		} else if e1.N > 0 {
			e2 = State{E: s.System.PlanRemove(s.rng), N: e1.N - 1}
			ok = true
		}
		if ok {
			s.Bins.PrepareForState(e2)
			if !s.rejectMove(e1, e2) {
				s.AcceptedMoves++
				s.Bins.AddRemoveAccepted++
				s.System.Confirm()
			}
		}
	}

	cur := StateOf(s.System)
	i := s.Bins.StateToIndex(cur)

	if s.Bins.Histogram[i] == 0 {
		s.Bins.NumStates++
		s.Bins.TLast = s.Moves
	}
	if s.Moves%s.Bins.TLast == 0 && s.Plan.TargetAcceptance > 0 {
		s.retune()
	}
	s.Bins.Histogram[i]++
	s.updateWeights(cur)

	if s.Bins.LnW[i] > s.Bins.MaxS {
		s.Bins.MaxS = s.Bins.LnW[i]
		s.Bins.MaxSIndex = i
		for j := range s.Bins.HaveVisitedSinceMaxEntropy {
			s.Bins.HaveVisitedSinceMaxEntropy[j] = true
		}
	} else if i == s.Bins.MaxSIndex {
		if s.Bins.StateToIndex(e1) != i {
			// Leaving the max-entropy bin opens a new round-trip
			// epoch for every bin.
			for j := range s.Bins.HaveVisitedSinceMaxEntropy {
				s.Bins.HaveVisitedSinceMaxEntropy[j] = false
			}
		}
	} else if !s.Bins.HaveVisitedSinceMaxEntropy[i] {
		s.Bins.HaveVisitedSinceMaxEntropy[i] = true
		s.Bins.RoundTrips[i]++
	}

	return s.runHooks()
}

// rejectMove applies the acceptance rule shared by both methods: moves
// into equal-or-lower-weight bins always pass; moves up in weight pass
// with probability exp(lnw1-lnw2). The random draw happens only in the
// uphill case.
func (s *Sampler) rejectMove(e1, e2 State) bool {
	i1 := s.Bins.StateToIndex(e1)
	i2 := s.Bins.StateToIndex(e2)
	s.method.prepare(s.Bins, e2, s.Moves)
	lnw1 := s.Bins.LnW[i1]
	lnw2 := s.Bins.LnW[i2]
	return lnw2 > lnw1 && s.rng.Float64() > math.Exp(lnw1-lnw2)
}

func (s *Sampler) updateWeights(cur State) {
	i := s.Bins.StateToIndex(cur)
	s.Bins.LnW[i] += s.method.Gamma(s.Moves)
	s.method.visit(s.Bins, i, s.Moves)
}

// retune solves for the add/remove probability that would bring the
// blended acceptance rate to the target, interpolating between the two
// per-category rates. A NaN result leaves the probability alone.
func (s *Sampler) retune() {
	target := s.Plan.TargetAcceptance
	old := s.AddRemoveProbability

	addremoveRate := float64(s.Bins.AddRemoveAccepted) / float64(s.Bins.AddRemoveAttempts)
	translationRate := float64(s.AcceptedMoves-s.Bins.AddRemoveAccepted) /
		float64(s.Moves-s.Bins.AddRemoveAttempts)

	newP := (target - translationRate) / (addremoveRate - translationRate)
	if !math.IsNaN(newP) {
		if newP > 0.999 {
			newP = 0.999
		}
		s.AddRemoveProbability = newP
	}

	if math.Abs(s.AddRemoveProbability-old) > 0.01 {
		s.log.Info("retuned add/remove probability",
			"p", s.AddRemoveProbability,
			"acceptance", float64(s.AcceptedMoves)/float64(s.Moves),
			"addremove_acceptance", addremoveRate)
	}
}

func (s *Sampler) runHooks() error {
	act := ActionNone
	for _, h := range s.hooks {
		a, err := h.Run(s, s.System)
		if err != nil {
			return fmt.Errorf("mc: hook: %w", err)
		}
		if a > act {
			act = a
		}
	}
	if act >= ActionLog {
		for _, h := range s.hooks {
			h.Log(s, s.System)
		}
	}
	if act >= ActionSave && s.saveFunc != nil {
		if err := s.saveFunc(s); err != nil {
			return fmt.Errorf("mc: save: %w", err)
		}
	}
	if act >= ActionExit {
		s.done = true
	}
	return nil
}
