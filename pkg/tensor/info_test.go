package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetType_RejectsUnknown(t *testing.T) {
	var ti TensorInfo
	err := ti.SetType(Unknown)
	require.Error(t, err)
}

func TestSetType_Float16GatedByFlag(t *testing.T) {
	defer func() { AllowFloat16 = true }()

	AllowFloat16 = false
	var ti TensorInfo
	require.Error(t, ti.SetType(Float16))

	AllowFloat16 = true
	require.NoError(t, ti.SetType(Float16))
}

func TestSetDimension_TrailingZeroThenNonZero(t *testing.T) {
	var ti TensorInfo
	err := ti.SetDimension([]uint32{1, 0, 1, 1}, false)
	require.Error(t, err)
}

func TestSetDimension_ValidNonExtended(t *testing.T) {
	var ti TensorInfo
	require.NoError(t, ti.SetDimension([]uint32{1, 1, 1, 1}, false))
	assert.Equal(t, 4, ti.Rank())
}

func TestSetDimension_RejectsExtendedAxesOnNonExtendedInfo(t *testing.T) {
	var ti TensorInfo
	dim := make([]uint32, 5)
	for i := range dim {
		dim[i] = 1
	}
	err := ti.SetDimension(dim, false)
	require.Error(t, err)
}

func TestSetDimension_ExtendedAllowsFullRank(t *testing.T) {
	var ti TensorInfo
	dim := make([]uint32, MaxRank)
	for i := range dim {
		dim[i] = 2
	}
	require.NoError(t, ti.SetDimension(dim, true))
	assert.Equal(t, MaxRank, ti.Rank())
}

func TestByteSize(t *testing.T) {
	var ti TensorInfo
	require.NoError(t, ti.SetType(Float32))
	require.NoError(t, ti.SetDimension([]uint32{1, 1, 1, 1}, false))
	assert.Equal(t, uint64(4), ti.ByteSize())
}

func TestClone_Independent(t *testing.T) {
	var ti TensorInfo
	require.NoError(t, ti.SetType(Float32))
	require.NoError(t, ti.SetDimension([]uint32{2, 2, 1, 1}, false))

	clone := ti.Clone()
	assert.True(t, ti.Equal(clone))

	clone.Dimension[0] = 99
	assert.False(t, ti.Equal(clone))
}
