package spectral

import (
	"gonum.org/v1/gonum/stat"
)

// BandSeries is the mean power of one band over time
type BandSeries struct {
	Power []float64
	Mean  float64
	Std   float64
}

// BandPower averages the spectrogram rows whose frequency lies in
// [lower, upper). A band without any bins yields a zero series.
func BandPower(res *Result, lower, upper float64) BandSeries {
	_, cols := res.Power.Dims()
	series := make([]float64, cols)

	var rows []int
	for i, f := range res.Frequency {
		if f >= lower && f < upper {
			rows = append(rows, i)
		}
	}

	if len(rows) > 0 {
		for _, i := range rows {
			row := res.Power.RawRowView(i)
			for j, v := range row {
				series[j] += v
			}
		}
		n := float64(len(rows))
		for j := range series {
			series[j] /= n
		}
	}

	if len(series) == 0 {
		return BandSeries{Power: series}
	}
	mean, std := stat.PopMeanStdDev(series, nil)
	return BandSeries{Power: series, Mean: mean, Std: std}
}
