package diag

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/san-kum/dosim/internal/mc"
)

// Movies writes log-spaced snapshot frames of the weight table and the
// histogram into Dir: S-%016d.dat and h-%016d.dat named by move count,
// plus gamma.dat, an append-only (moves, gamma) trace. A TimeBase of 2
// means a frame every time the move count doubles.
//
// The frame schedule is a pure function of the move count, so a resumed
// run picks up the cadence with no movie state in the checkpoint.
type Movies struct {
	Dir      string
	TimeBase float64

	frame int
	next  uint64
}

func NewMovies(dir string, timeBase float64) *Movies {
	return &Movies{Dir: dir, TimeBase: timeBase, next: 1}
}

func (m *Movies) Run(s *mc.Sampler, sys mc.System) (mc.Action, error) {
	if m.TimeBase == 0 {
		return mc.ActionNone, nil
	}
	if m.next < s.Moves {
		// A resumed run starts past the old schedule; skip ahead.
		m.advancePast(s.Moves - 1)
	}
	if s.Moves != m.next {
		return mc.ActionNone, nil
	}

	if err := os.MkdirAll(m.Dir, 0755); err != nil {
		return mc.ActionNone, err
	}
	if err := m.writeFrame(fmt.Sprintf("S-%016d.dat", s.Moves), s.Bins, func(i int) string {
		return fmt.Sprintf("%g", s.Bins.LnW[i])
	}); err != nil {
		return mc.ActionNone, err
	}
	if err := m.writeFrame(fmt.Sprintf("h-%016d.dat", s.Moves), s.Bins, func(i int) string {
		return fmt.Sprintf("%d", s.Bins.Histogram[i])
	}); err != nil {
		return mc.ActionNone, err
	}
	if err := m.appendGamma(s.Moves, s.Gamma()); err != nil {
		return mc.ActionNone, err
	}

	m.advancePast(s.Moves)
	return mc.ActionSave, nil
}

func (m *Movies) Log(*mc.Sampler, mc.System) {}

// GammaChanged appends method gamma changes to the trace as they
// happen, between frames.
func (m *Movies) GammaChanged(moves uint64, gamma float64) {
	if m.TimeBase == 0 {
		return
	}
	// Errors surface on the next frame write; the trace itself is
	// best-effort between frames.
	_ = m.appendGamma(moves, gamma)
}

// advancePast moves the schedule to the first frame time beyond t.
func (m *Movies) advancePast(t uint64) {
	for m.next <= t {
		m.frame++
		m.next = uint64(math.Pow(m.TimeBase, float64(m.frame)) + 0.5)
	}
}

// writeFrame writes one tabular snapshot: a line of bin-center
// energies, then one line per atom count of tab-separated values in
// energy order.
func (m *Movies) writeFrame(name string, b *mc.Bins, value func(i int) string) error {
	f, err := os.Create(filepath.Join(m.Dir, name))
	if err != nil {
		return err
	}
	defer f.Close()

	for _, e := range b.Energies() {
		if _, err := fmt.Fprintf(f, "%g\t", e); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(f); err != nil {
		return err
	}
	for n := 0; n <= b.MaxN; n++ {
		if _, err := fmt.Fprint(f, value(n)); err != nil {
			return err
		}
		for i := 1; i < b.NumE; i++ {
			if _, err := fmt.Fprintf(f, "\t%s", value(n+i*(b.MaxN+1))); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(f); err != nil {
			return err
		}
	}
	return nil
}

func (m *Movies) appendGamma(moves uint64, gamma float64) error {
	if err := os.MkdirAll(m.Dir, 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(filepath.Join(m.Dir, "gamma.dat"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = fmt.Fprintf(f, "%d\t%g\n", moves, gamma)
	return err
}
