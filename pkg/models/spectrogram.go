package models

import (
	"fmt"
	"time"
)

// SpectrogramParameters is a named windowing configuration
type SpectrogramParameters struct {
	ParamIdx    int     `json:"param_idx" doc:"Parameter set identifier"`
	WindowSize  float64 `json:"window_size" doc:"Segment length in seconds"`
	OverlapSize float64 `json:"overlap_size" doc:"Segment overlap in seconds"`
	WindowType  string  `json:"window_type" enum:"boxcar,hann,hamming,bartlett,blackman" doc:"Taper applied to each segment"`
	Description string  `json:"description" maxLength:"64" doc:"Free-text description"`
}

// SpectralBand is a canonical named frequency interval
type SpectralBand struct {
	BandName  string  `json:"band_name" maxLength:"16" doc:"Band name, e.g. theta"`
	LowerFreq float64 `json:"lower_freq" doc:"Lower bound in Hz (inclusive)"`
	UpperFreq float64 `json:"upper_freq" doc:"Upper bound in Hz (exclusive)"`
}

// LFP holds the per-session properties shared by all of its traces
type LFP struct {
	SessionID    string    `json:"session_id"`
	SamplingRate float64   `json:"sampling_rate"`
	CreatedAt    time.Time `json:"created_at"`
}

// TraceKey identifies one LFP trace
type TraceKey struct {
	SessionID string `json:"session_id"`
	Electrode int    `json:"electrode"`
}

func (k TraceKey) String() string {
	return fmt.Sprintf("%s/%d", k.SessionID, k.Electrode)
}

// LFPTrace is the low-pass filtered, notch filtered and resampled signal of one electrode
type LFPTrace struct {
	TraceKey
	LFP []float64 `json:"lfp"`
}

// SpectrogramKey identifies one spectrogram: a trace combined with a parameter set
type SpectrogramKey struct {
	TraceKey
	ParamIdx int `json:"param_idx"`
}

func (k SpectrogramKey) String() string {
	return fmt.Sprintf("%s/%d/%d", k.SessionID, k.Electrode, k.ParamIdx)
}

// PlotKey identifies a group of channel spectrograms rendered together
type PlotKey struct {
	SessionID string `json:"session_id"`
	ParamIdx  int    `json:"param_idx"`
}

func (k PlotKey) String() string {
	return fmt.Sprintf("%s/%d", k.SessionID, k.ParamIdx)
}

// LFPSpectrogram is the master record of a computed spectrogram.
// Its children are written in the same transaction.
type LFPSpectrogram struct {
	SpectrogramKey
	CreatedAt time.Time          `json:"created_at"`
	Channel   ChannelSpectrogram `json:"channel"`
	Powers    []ChannelPower     `json:"powers"`
}

// ChannelSpectrogram holds the power matrix with its axes.
// Spectrogram rows follow Frequency, columns follow Time.
type ChannelSpectrogram struct {
	SpectrogramKey
	Spectrogram [][]float64 `json:"spectrogram"`
	Time        []float64   `json:"time"`
	Frequency   []float64   `json:"frequency"`
}

// ChannelPower is the mean power of one spectral band as a function of time
type ChannelPower struct {
	SpectrogramKey
	BandName  string    `json:"band_name"`
	LowerFreq float64   `json:"lower_freq"`
	UpperFreq float64   `json:"upper_freq"`
	Power     []float64 `json:"power"`
	MeanPower float64   `json:"mean_power"`
	StdPower  float64   `json:"std_power"`
}

// SpectrogramPlot is a rendered multi-channel figure. Electrodes is the
// channel set it was rendered from; a plot is stale once the group's
// spectrograms no longer match it.
type SpectrogramPlot struct {
	PlotKey
	ID                string    `json:"id"`
	Electrodes        []int     `json:"electrodes"`
	FreqMin           float64   `json:"freq_min"`
	FreqMax           float64   `json:"freq_max"`
	ExecutionDuration float64   `json:"execution_duration" doc:"Rendering time in hours"`
	Figure            []byte    `json:"-"`
	CreatedAt         time.Time `json:"created_at"`
}
