package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTensorsInfo_CountBounds(t *testing.T) {
	_, err := NewTensorsInfo(0)
	require.Error(t, err)

	_, err = NewTensorsInfo(17)
	require.Error(t, err)

	ti, err := NewTensorsInfo(1)
	require.NoError(t, err)
	assert.Equal(t, 1, ti.Count())
}

func TestSetCount_Bounds(t *testing.T) {
	ti, err := NewTensorsInfo(1)
	require.NoError(t, err)

	require.Error(t, ti.SetCount(0))
	require.Error(t, ti.SetCount(17))
	require.NoError(t, ti.SetCount(3))
	assert.Equal(t, 3, ti.Count())
}

func TestClone_DeepAndRequiresValid(t *testing.T) {
	ti, err := NewTensorsInfo(2)
	require.NoError(t, err)
	require.NoError(t, ti.Set(0, "in", Float32, []uint32{1, 1, 1, 1}))
	require.NoError(t, ti.Set(1, "out", Float32, []uint32{1, 1, 1, 1}))

	clone, err := ti.Clone()
	require.NoError(t, err)
	assert.True(t, ti.Compare(clone))

	clone.Tensors[0].Dimension[0] = 5
	assert.False(t, ti.Compare(clone))
}

func TestClone_FailsWhenInvalid(t *testing.T) {
	ti, err := NewTensorsInfo(1)
	require.NoError(t, err)
	// leave the single tensor unset -> Unknown elem type -> invalid
	_, err = ti.Clone()
	require.Error(t, err)
}

func TestGetTensorData_OutOfRange(t *testing.T) {
	ti, err := NewTensorsInfo(1)
	require.NoError(t, err)
	require.NoError(t, ti.Set(0, "a", Float32, []uint32{1, 1, 1, 1}))

	d, err := Create(ti)
	require.NoError(t, err)

	_, err = d.GetTensorData(d.Count())
	require.Error(t, err)
}

func TestByteSize_SumAndPerIndex(t *testing.T) {
	ti, err := NewTensorsInfo(2)
	require.NoError(t, err)
	require.NoError(t, ti.Set(0, "a", Float32, []uint32{1, 1, 1, 1}))
	require.NoError(t, ti.Set(1, "b", UInt8, []uint32{2, 1, 1, 1}))

	total, err := ti.ByteSize(-1)
	require.NoError(t, err)
	assert.Equal(t, uint64(4+2), total)

	one, err := ti.ByteSize(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), one)
}
