// Package spectral computes short-time power spectral densities of LFP traces
// and averages them over canonical frequency bands.
package spectral

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Params is the windowing configuration of a spectrogram
type Params struct {
	WindowSize  float64 // seconds
	OverlapSize float64 // seconds
	Window      string
}

// Result holds a spectrogram and its axes.
// Power has one row per Frequency entry and one column per Time entry.
type Result struct {
	Frequency []float64
	Time      []float64
	Power     *mat.Dense
}

// Segments converts the window and overlap durations into sample counts,
// truncating toward zero.
func Segments(fs, windowSize, overlapSize float64) (nperseg, noverlap int) {
	return int(windowSize * fs), int(overlapSize * fs)
}

// CheckParams validates a configuration on its own, before any trace is known.
func CheckParams(p Params) error {
	if p.WindowSize <= 0 || math.IsNaN(p.WindowSize) || math.IsInf(p.WindowSize, 0) {
		return invalid("window_size", p.WindowSize, "must be positive")
	}
	if p.OverlapSize < 0 || p.OverlapSize >= p.WindowSize {
		return invalid("overlap_size", p.OverlapSize, "must satisfy 0 <= overlap < window (%g)", p.WindowSize)
	}
	if !ValidWindow(p.Window) {
		return &InvalidParameterError{Param: "window", Reason: "unknown window type " + p.Window}
	}
	return nil
}

// Validate checks a configuration against a trace of n samples.
func Validate(n int, fs float64, p Params) (nperseg, noverlap int, err error) {
	if fs <= 0 || math.IsNaN(fs) || math.IsInf(fs, 0) {
		return 0, 0, invalid("sampling_rate", fs, "must be positive and finite")
	}
	if err := CheckParams(p); err != nil {
		return 0, 0, err
	}

	nperseg, noverlap = Segments(fs, p.WindowSize, p.OverlapSize)
	if nperseg <= 0 {
		return 0, 0, invalid("window_size", p.WindowSize, "yields %d samples per segment at %g Hz", nperseg, fs)
	}
	if nperseg > n {
		return 0, 0, invalid("window_size", p.WindowSize, "segment of %d samples exceeds trace length %d", nperseg, n)
	}
	if noverlap >= nperseg {
		return 0, 0, invalid("overlap_size", p.OverlapSize, "overlap of %d samples is not shorter than segment of %d", noverlap, nperseg)
	}
	return nperseg, noverlap, nil
}

// Compute returns the one-sided power spectral density spectrogram of lfp
// sampled at fs. Each segment is mean-detrended and tapered before the
// transform, and powers are density scaled (units²/Hz).
func Compute(lfp []float64, fs float64, p Params) (*Result, error) {
	nperseg, noverlap, err := Validate(len(lfp), fs, p)
	if err != nil {
		return nil, err
	}
	win, err := makeWindow(p.Window, nperseg)
	if err != nil {
		return nil, err
	}

	step := nperseg - noverlap
	nseg := (len(lfp) - noverlap) / step
	nfreq := nperseg/2 + 1
	scale := 1 / (fs * floats.Dot(win, win))

	frequency := make([]float64, nfreq)
	for k := range frequency {
		frequency[k] = float64(k) * fs / float64(nperseg)
	}

	times := make([]float64, nseg)
	for j := range times {
		times[j] = (float64(nperseg)/2 + float64(j*step)) / fs
	}

	fft := fourier.NewFFT(nperseg)
	seg := make([]float64, nperseg)
	coeff := make([]complex128, nfreq)
	power := mat.NewDense(nfreq, nseg, nil)

	for j := 0; j < nseg; j++ {
		start := j * step
		copy(seg, lfp[start:start+nperseg])
		floats.AddConst(-floats.Sum(seg)/float64(nperseg), seg)
		floats.Mul(seg, win)

		coeff = fft.Coefficients(coeff, seg)
		for k, c := range coeff {
			v := (real(c)*real(c) + imag(c)*imag(c)) * scale
			if k > 0 && !(nperseg%2 == 0 && k == nfreq-1) {
				v *= 2
			}
			power.Set(k, j, v)
		}
	}

	return &Result{Frequency: frequency, Time: times, Power: power}, nil
}
