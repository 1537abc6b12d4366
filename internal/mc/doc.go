// Package mc implements grand-canonical density-of-states Monte Carlo.
//
// The sampler walks a system through (energy, particle count) space and
// accumulates the entropy estimate lnw on an adaptively growing 2D grid:
//
//   - [Bins]: the flattened energy/count grid with histogram, log-weights,
//     move-tuning counters, and round-trip bookkeeping
//   - [Method]: the weight-update policy, either [SAMC] or [WangLandau]
//   - [Sampler]: the step engine; one call to MoveOnce is one move
//   - [System]: the capability a physical system implements
//   - [Hook]: diagnostics invoked after every completed move
//
// A minimal run:
//
//	samp, err := mc.NewSampler(sys, mc.Params{Method: mc.MethodWL, Seed: 1}, log)
//	for samp.Moves < 1_000_000 && !samp.Done() {
//	    if err := samp.MoveOnce(); err != nil {
//	        // hook I/O failure
//	    }
//	}
//
// All state mutated by MoveOnce is owned by the single goroutine calling
// it; nothing in this package is safe for concurrent use.
package mc
