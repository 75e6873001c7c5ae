package sqlstore

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Numeric arrays are stored in gonum's binary layout. Empty arrays are stored
// as NULL since gonum refuses zero-length matrices.

func encodeVector(v []float64) ([]byte, error) {
	if len(v) == 0 {
		return nil, nil
	}
	return mat.NewVecDense(len(v), v).MarshalBinary()
}

func decodeVector(b []byte) ([]float64, error) {
	if len(b) == 0 {
		return []float64{}, nil
	}
	var v mat.VecDense
	if err := v.UnmarshalBinary(b); err != nil {
		return nil, fmt.Errorf("failed to decode vector: %w", err)
	}
	raw := v.RawVector()
	out := make([]float64, v.Len())
	for i := range out {
		out[i] = raw.Data[i*raw.Inc]
	}
	return out, nil
}

func encodeMatrix(rows [][]float64) ([]byte, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, nil
	}
	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("ragged matrix: row %d has %d columns, want %d", i, len(row), cols)
		}
		data = append(data, row...)
	}
	return mat.NewDense(len(rows), cols, data).MarshalBinary()
}

func decodeMatrix(b []byte) ([][]float64, error) {
	if len(b) == 0 {
		return [][]float64{}, nil
	}
	var m mat.Dense
	if err := m.UnmarshalBinary(b); err != nil {
		return nil, fmt.Errorf("failed to decode matrix: %w", err)
	}
	r, _ := m.Dims()
	out := make([][]float64, r)
	for i := range out {
		out[i] = append([]float64(nil), m.RawRowView(i)...)
	}
	return out, nil
}
