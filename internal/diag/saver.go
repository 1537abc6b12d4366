package diag

import "github.com/san-kum/dosim/internal/mc"

// Saver asks the engine to checkpoint every Every moves. The engine's
// injected save function does the writing.
type Saver struct {
	Every uint64
}

func (s *Saver) Run(samp *mc.Sampler, sys mc.System) (mc.Action, error) {
	if s.Every == 0 || samp.Moves%s.Every != 0 {
		return mc.ActionNone, nil
	}
	return mc.ActionSave, nil
}

func (s *Saver) Log(*mc.Sampler, mc.System) {}
