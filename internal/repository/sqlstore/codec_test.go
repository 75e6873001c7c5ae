package sqlstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRebind(t *testing.T) {
	pg := &Store{driver: DriverPostgres}
	assert.Equal(t, "SELECT a FROM t WHERE b = $1 AND c = $2", pg.rebind("SELECT a FROM t WHERE b = ? AND c = ?"))

	lite := &Store{driver: DriverSQLite}
	assert.Equal(t, "SELECT a FROM t WHERE b = ?", lite.rebind("SELECT a FROM t WHERE b = ?"))
}

func TestVectorCodec(t *testing.T) {
	in := []float64{1.5, -2, 0, 3e-12}
	b, err := encodeVector(in)
	require.NoError(t, err)

	out, err := decodeVector(b)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	b, err = encodeVector(nil)
	require.NoError(t, err)
	assert.Nil(t, b)
	out, err = decodeVector(b)
	require.NoError(t, err)
	assert.Empty(t, out)

	_, err = decodeVector([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestMatrixCodec(t *testing.T) {
	in := [][]float64{{1, 2, 3}, {4, 5, 6}}
	b, err := encodeMatrix(in)
	require.NoError(t, err)

	out, err := decodeMatrix(b)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	_, err = encodeMatrix([][]float64{{1, 2}, {3}})
	assert.ErrorContains(t, err, "ragged")

	b, err = encodeMatrix([][]float64{})
	require.NoError(t, err)
	out, err = decodeMatrix(b)
	require.NoError(t, err)
	assert.Empty(t, out)
}
