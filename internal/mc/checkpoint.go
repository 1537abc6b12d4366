package mc

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/san-kum/dosim/internal/rng"
)

// Checkpoint is the full persisted run state. Restoring it reproduces a
// bit-identical continuation: bins, method state (including the
// Wang-Landau auxiliary histogram), engine counters, the generator
// state, and the system itself all round-trip exactly.
type Checkpoint struct {
	SystemName           string          `json:"system"`
	SystemState          json.RawMessage `json:"system_state"`
	Method               methodState     `json:"method"`
	Bins                 *Bins           `json:"bins"`
	Moves                uint64          `json:"moves"`
	AcceptedMoves        uint64          `json:"accepted_moves"`
	AddRemoveProbability float64         `json:"addremove_probability"`
	Plan                 MovePlan        `json:"move_plan"`
	MaxAtoms             int             `json:"max_atoms"`
	RNG                  *rng.Source     `json:"rng"`
}

type methodState struct {
	Kind string      `json:"kind"`
	SAMC *SAMC       `json:"samc,omitempty"`
	WL   *WangLandau `json:"wl,omitempty"`
}

// Checkpoint captures the sampler's complete state. Safe to call at any
// step boundary.
func (s *Sampler) Checkpoint() (*Checkpoint, error) {
	sysRaw, err := json.Marshal(s.System)
	if err != nil {
		return nil, fmt.Errorf("mc: marshal system: %w", err)
	}

	ms := methodState{Kind: s.method.Kind()}
	switch m := s.method.(type) {
	case *SAMC:
		ms.SAMC = m
	case *WangLandau:
		ms.WL = m
	}

	return &Checkpoint{
		SystemName:           s.SystemName,
		SystemState:          sysRaw,
		Method:               ms,
		Bins:                 s.Bins,
		Moves:                s.Moves,
		AcceptedMoves:        s.AcceptedMoves,
		AddRemoveProbability: s.AddRemoveProbability,
		Plan:                 s.Plan,
		MaxAtoms:             s.MaxAtoms,
		RNG:                  s.rng,
	}, nil
}

// SystemFactory returns a blank system of the named kind for a
// checkpoint to unmarshal into.
type SystemFactory func(name string) (System, bool)

// Resume rebuilds a sampler from a checkpoint. The factory supplies a
// blank system matching the checkpoint's system name.
func Resume(ck *Checkpoint, factory SystemFactory, log *slog.Logger) (*Sampler, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if ck.Bins == nil || ck.RNG == nil {
		return nil, fmt.Errorf("%w: missing bins or rng", ErrBadCheckpoint)
	}

	sys, ok := factory(ck.SystemName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSystem, ck.SystemName)
	}
	if err := json.Unmarshal(ck.SystemState, sys); err != nil {
		return nil, fmt.Errorf("mc: unmarshal system: %w", err)
	}

	var m Method
	switch ck.Method.Kind {
	case MethodSAMC:
		if ck.Method.SAMC == nil {
			return nil, fmt.Errorf("%w: missing samc state", ErrBadCheckpoint)
		}
		m = ck.Method.SAMC
	case MethodWL:
		if ck.Method.WL == nil || ck.Method.WL.Aux == nil {
			return nil, fmt.Errorf("%w: missing wang-landau state", ErrBadCheckpoint)
		}
		m = ck.Method.WL
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, ck.Method.Kind)
	}

	s := &Sampler{
		System:               sys,
		Bins:                 ck.Bins,
		Moves:                ck.Moves,
		AcceptedMoves:        ck.AcceptedMoves,
		AddRemoveProbability: ck.AddRemoveProbability,
		Plan:                 ck.Plan,
		MaxAtoms:             ck.MaxAtoms,
		SystemName:           ck.SystemName,
		method:               m,
		rng:                  ck.RNG,
		log:                  log,
	}
	s.method.bind(log, s.notifyGamma)
	return s, nil
}
