// Package analysis provides statistics over run traces.
//
// The trace hook samples (energy, atom count) at a fixed cadence; this
// package turns those series into summary numbers:
//
//   - [Mean], [Variance]: the basics
//   - [Autocorrelation]: FFT-based normalized autocorrelation
//   - [IntegratedTime]: integrated autocorrelation time with a
//     self-consistent window
//
// The integrated time is the honest yardstick for a sampled series: a
// trace of length L holds roughly L/tau independent samples.
package analysis
