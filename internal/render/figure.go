// Package render turns channel spectrograms into a self-describing figure
// with one selectable trace per electrode.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/RMahshie/ephyspipe/pkg/models"
)

// Display bounds in Hz, inclusive at both ends
const (
	FreqMin = 1.0
	FreqMax = 300.0
)

// EmptyChannelSetError is returned when a group has no spectrograms to plot
type EmptyChannelSetError struct {
	Group string
}

func (e *EmptyChannelSetError) Error() string {
	if e.Group == "" {
		return "no channel spectrograms to plot"
	}
	return fmt.Sprintf("no channel spectrograms to plot for %s", e.Group)
}

// DomainError is returned when a log transform meets a negative power
type DomainError struct {
	Electrode int
	Frequency float64
	Value     float64
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("negative power %g at %g Hz on electrode %d", e.Value, e.Frequency, e.Electrode)
}

// LogPower is a row of log powers. Non-finite values encode as JSON null.
type LogPower []float64

// MarshalJSON implements json.Marshaler
func (p LogPower) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('[')
	for i, v := range p {
		if i > 0 {
			b.WriteByte(',')
		}
		if math.IsInf(v, 0) || math.IsNaN(v) {
			b.WriteString("null")
			continue
		}
		b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	b.WriteByte(']')
	return b.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler; null decodes to -Inf
func (p *LogPower) UnmarshalJSON(data []byte) error {
	var raw []*float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(LogPower, len(raw))
	for i, v := range raw {
		if v == nil {
			out[i] = math.Inf(-1)
			continue
		}
		out[i] = *v
	}
	*p = out
	return nil
}

// Trace is the heatmap of one electrode
type Trace struct {
	Name      string     `json:"name"`
	Electrode int        `json:"electrode"`
	Visible   bool       `json:"visible"`
	X         []float64  `json:"x"`
	Y         []float64  `json:"y"`
	Z         []LogPower `json:"z"`
}

// Button toggles the visibility of the traces
type Button struct {
	Label   string `json:"label"`
	Method  string `json:"method"`
	Visible []bool `json:"visible"`
}

// Layout carries the titles of the figure
type Layout struct {
	Title         string  `json:"title"`
	XAxisTitle    string  `json:"xaxis_title"`
	YAxisTitle    string  `json:"yaxis_title"`
	ColorbarTitle string  `json:"colorbar_title"`
	FreqMin       float64 `json:"freq_min"`
	FreqMax       float64 `json:"freq_max"`
}

// Figure is the serialized plot payload
type Figure struct {
	Traces  []Trace  `json:"traces"`
	Buttons []Button `json:"buttons"`
	Layout  Layout   `json:"layout"`
}

// Encode serializes the figure as JSON
func (f *Figure) Encode() ([]byte, error) {
	return json.Marshal(f)
}

// DecodeFigure parses a payload produced by Encode
func DecodeFigure(data []byte) (*Figure, error) {
	var f Figure
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to decode figure: %w", err)
	}
	return &f, nil
}

// ElectrodeLabel names the toggle for an electrode
func ElectrodeLabel(electrode int) string {
	return fmt.Sprintf("Electrode %d", electrode)
}

// BuildFigure masks every channel to [FreqMin, FreqMax], takes the natural log
// of its power and lays the channels out as mutually exclusive traces.
// Channels are ordered by electrode; the first one is visible.
func BuildFigure(channels []models.ChannelSpectrogram) (*Figure, error) {
	if len(channels) == 0 {
		return nil, &EmptyChannelSetError{}
	}

	sorted := make([]models.ChannelSpectrogram, len(channels))
	copy(sorted, channels)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Electrode < sorted[j].Electrode
	})

	fig := &Figure{
		Layout: Layout{
			Title:         "Spectrogram (log Power) per Electrode",
			XAxisTitle:    "Time (s)",
			YAxisTitle:    "Frequency (Hz)",
			ColorbarTitle: "log Power",
			FreqMin:       FreqMin,
			FreqMax:       FreqMax,
		},
	}

	for i, ch := range sorted {
		trace, err := buildTrace(ch)
		if err != nil {
			return nil, err
		}
		trace.Visible = i == 0
		fig.Traces = append(fig.Traces, trace)
	}

	for i, tr := range fig.Traces {
		visible := make([]bool, len(fig.Traces))
		visible[i] = true
		fig.Buttons = append(fig.Buttons, Button{
			Label:   ElectrodeLabel(tr.Electrode),
			Method:  "update",
			Visible: visible,
		})
	}

	return fig, nil
}

func buildTrace(ch models.ChannelSpectrogram) (Trace, error) {
	if len(ch.Spectrogram) != len(ch.Frequency) {
		return Trace{}, fmt.Errorf("electrode %d: %d spectrogram rows for %d frequencies",
			ch.Electrode, len(ch.Spectrogram), len(ch.Frequency))
	}

	trace := Trace{
		Name:      ElectrodeLabel(ch.Electrode),
		Electrode: ch.Electrode,
		X:         append([]float64(nil), ch.Time...),
		Y:         []float64{},
		Z:         []LogPower{},
	}

	for i, f := range ch.Frequency {
		if f < FreqMin || f > FreqMax {
			continue
		}
		row := ch.Spectrogram[i]
		if len(row) != len(ch.Time) {
			return Trace{}, fmt.Errorf("electrode %d: row at %g Hz has %d columns for %d time bins",
				ch.Electrode, f, len(row), len(ch.Time))
		}
		z := make(LogPower, len(row))
		for j, v := range row {
			if v < 0 {
				return Trace{}, &DomainError{Electrode: ch.Electrode, Frequency: f, Value: v}
			}
			z[j] = math.Log(v)
		}
		trace.Y = append(trace.Y, f)
		trace.Z = append(trace.Z, z)
	}
	return trace, nil
}
