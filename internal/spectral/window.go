package spectral

import (
	"github.com/mjibson/go-dsp/window"
)

// Supported segment tapers.
const (
	WindowBoxcar   = "boxcar"
	WindowHann     = "hann"
	WindowHamming  = "hamming"
	WindowBartlett = "bartlett"
	WindowBlackman = "blackman"
)

var windows = map[string]func(int) []float64{
	WindowBoxcar:   window.Rectangular,
	WindowHann:     periodic(window.Hann),
	WindowHamming:  periodic(window.Hamming),
	WindowBartlett: periodic(window.Bartlett),
	WindowBlackman: periodic(window.Blackman),
}

// periodic turns a symmetric window into its DFT-even form: n+1 symmetric
// points with the last one dropped.
func periodic(symmetric func(int) []float64) func(int) []float64 {
	return func(n int) []float64 {
		return symmetric(n + 1)[:n]
	}
}

// makeWindow returns the coefficients of the named window. An empty name
// selects the boxcar window.
func makeWindow(name string, n int) ([]float64, error) {
	if name == "" {
		name = WindowBoxcar
	}
	fn, ok := windows[name]
	if !ok {
		return nil, &InvalidParameterError{Param: "window", Value: float64(n), Reason: "unknown window type " + name}
	}
	return fn(n), nil
}

// ValidWindow reports whether name is a supported window type.
func ValidWindow(name string) bool {
	if name == "" {
		return true
	}
	_, ok := windows[name]
	return ok
}
