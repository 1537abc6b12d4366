package diag

import (
	"fmt"
	"os"

	"github.com/san-kum/dosim/internal/mc"
)

// Trace appends (moves, energy, natoms) CSV rows to Path every Every
// moves, for post-run statistics.
type Trace struct {
	Path  string
	Every uint64
}

func (t *Trace) Run(s *mc.Sampler, sys mc.System) (mc.Action, error) {
	if t.Every == 0 || s.Moves%t.Every != 0 {
		return mc.ActionNone, nil
	}

	_, statErr := os.Stat(t.Path)
	f, err := os.OpenFile(t.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return mc.ActionNone, err
	}
	defer f.Close()

	if os.IsNotExist(statErr) {
		if _, err := fmt.Fprintln(f, "moves,energy,natoms"); err != nil {
			return mc.ActionNone, err
		}
	}
	_, err = fmt.Fprintf(f, "%d,%g,%d\n", s.Moves, sys.Energy(), sys.NumAtoms())
	return mc.ActionNone, err
}

func (t *Trace) Log(*mc.Sampler, mc.System) {}
