// Package diag implements the diagnostic hooks a run attaches to the
// sampler: periodic progress reports, movie frames, checkpoint cadence,
// and the energy trace.
package diag

import (
	"fmt"
	"log/slog"

	"github.com/san-kum/dosim/internal/mc"
)

// Report logs run progress every Every moves.
type Report struct {
	Every uint64
	log   *slog.Logger
}

func NewReport(every uint64, log *slog.Logger) *Report {
	return &Report{Every: every, log: log}
}

func (r *Report) Run(s *mc.Sampler, sys mc.System) (mc.Action, error) {
	if r.Every == 0 || s.Moves%r.Every != 0 {
		return mc.ActionNone, nil
	}
	return mc.ActionLog, nil
}

// Log prints the progress line: how far round trips have come at the
// 1/10/100/1000 marks (with temperature estimates where meaningful),
// where the entropy maximum sits, and the Wang-Landau flatness when
// that method is running.
func (r *Report) Log(s *mc.Sampler, sys mc.System) {
	b := s.Bins
	marks := []uint64{1, 10, 100, 1000}
	attrs := []any{
		"moves", s.Moves,
		"accepted", float64(s.AcceptedMoves) / float64(s.Moves),
		"state", mc.StateOf(sys).String(),
		"states", b.NumStates,
		"moves_per_tlast", float64(s.Moves) / float64(b.TLast),
		"max_entropy", b.IndexToState(b.MaxSIndex).String(),
	}
	for _, mark := range marks {
		found := -1
		for i, trips := range b.RoundTrips {
			if trips >= mark {
				found = i
				break
			}
		}
		if found < 0 {
			continue
		}
		st := b.IndexToState(found)
		v := st.String()
		if mark > 1 {
			v = fmt.Sprintf("%s (T=%.3g)", st, b.Temperature(st))
		}
		attrs = append(attrs, fmt.Sprintf("trips_%d", mark), v)
	}
	r.log.Info("progress", attrs...)

	if wl, ok := s.Method().(*mc.WangLandau); ok && wl.TotalHist > 0 {
		lowest, highest := -1, -1
		for i, h := range wl.Aux.Histogram {
			if b.Histogram[i] == 0 {
				continue
			}
			if h == wl.LowestHist {
				lowest = i
			}
			if h == wl.HighestHist {
				highest = i
			}
		}
		attrs := []any{
			"flatness", float64(wl.LowestHist) * float64(b.NumStates) / float64(wl.TotalHist),
			"min", wl.LowestHist,
			"max", wl.HighestHist,
		}
		if lowest >= 0 {
			attrs = append(attrs, "min_at", b.IndexToState(lowest).String())
		}
		if highest >= 0 {
			attrs = append(attrs, "max_at", b.IndexToState(highest).String())
		}
		r.log.Info("wang-landau", attrs...)
	}
}
