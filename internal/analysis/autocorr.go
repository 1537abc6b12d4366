package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// Autocorrelation returns the normalized autocorrelation of xs at every
// lag, computed through the FFT of the zero-padded, mean-subtracted
// series. rho[0] is 1; a constant series has no correlation structure
// and returns zeros past lag 0.
func Autocorrelation(xs []float64) []float64 {
	n := len(xs)
	if n == 0 {
		return nil
	}

	m := Mean(xs)
	// Pad to at least twice the length so the circular convolution
	// does not wrap.
	size := 1
	for size < 2*n {
		size *= 2
	}
	padded := make([]float64, size)
	for i, x := range xs {
		padded[i] = x - m
	}

	spectrum := fft.FFTReal(padded)
	for i, c := range spectrum {
		r := cmplx.Abs(c)
		spectrum[i] = complex(r*r, 0)
	}
	acov := fft.IFFT(spectrum)

	rho := make([]float64, n)
	rho[0] = 1
	norm := real(acov[0])
	if norm == 0 {
		return rho
	}
	for k := 1; k < n; k++ {
		rho[k] = real(acov[k]) / norm
	}
	return rho
}

// IntegratedTime estimates the integrated autocorrelation time
// tau = 1 + 2*sum(rho), truncating the sum with the usual
// self-consistent window: stop once the window passes five times the
// running estimate. Short or empty series report tau = 1.
func IntegratedTime(xs []float64) float64 {
	rho := Autocorrelation(xs)
	if len(rho) < 2 {
		return 1
	}

	tau := 1.0
	for k := 1; k < len(rho); k++ {
		tau += 2 * rho[k]
		if float64(k) >= 5*tau {
			break
		}
	}
	if tau < 0 {
		tau = 0
	}
	return tau
}
