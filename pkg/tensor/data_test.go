package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func add1Info(t *testing.T) *TensorsInfo {
	t.Helper()
	ti, err := NewTensorsInfo(1)
	require.NoError(t, err)
	require.NoError(t, ti.Set(0, "", Float32, []uint32{1, 1, 1, 1}))
	return ti
}

func TestCreate_ZeroesBuffers(t *testing.T) {
	d, err := Create(add1Info(t))
	require.NoError(t, err)
	buf, err := d.GetTensorData(0)
	require.NoError(t, err)
	assert.Len(t, buf, 4)
}

func TestCreateNoAlloc_LeavesNilBuffers(t *testing.T) {
	d, err := CreateNoAlloc(add1Info(t))
	require.NoError(t, err)
	buf, err := d.GetTensorData(0)
	require.NoError(t, err)
	assert.Nil(t, buf)
	assert.Equal(t, uint64(4), d.Buffers[0].ByteSize)
}

func TestSetTensorData_SizeBounds(t *testing.T) {
	d, err := CreateNoAlloc(add1Info(t))
	require.NoError(t, err)

	require.Error(t, d.SetTensorData(0, []byte{1, 2, 3, 4}, 0))
	require.Error(t, d.SetTensorData(0, []byte{1, 2, 3, 4}, 5))

	require.NoError(t, d.SetTensorData(0, []byte{1, 2, 3, 4}, 4))
	buf, err := d.GetTensorData(0)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, buf)
}

func TestCloneNoAlloc_SharesBuffers(t *testing.T) {
	src, err := Create(add1Info(t))
	require.NoError(t, err)
	require.NoError(t, src.SetTensorData(0, []byte{9, 9, 9, 9}, 4))

	clone, err := CloneNoAlloc(src)
	require.NoError(t, err)
	buf, err := clone.GetTensorData(0)
	require.NoError(t, err)
	assert.Equal(t, []byte{9, 9, 9, 9}, buf)

	// Destroy on the aliased clone must not matter to src's data model;
	// it is a no-op since aliasedOf is set.
	clone.Destroy()
}

func TestCloneDeep_IsIndependentOfSource(t *testing.T) {
	src, err := Create(add1Info(t))
	require.NoError(t, err)
	require.NoError(t, src.SetTensorData(0, []byte{1, 2, 3, 4}, 4))

	clone, err := CloneDeep(src)
	require.NoError(t, err)

	srcBuf, err := src.GetTensorData(0)
	require.NoError(t, err)
	cloneBuf, err := clone.GetTensorData(0)
	require.NoError(t, err)
	assert.Equal(t, srcBuf, cloneBuf)

	cloneBuf[0] = 99
	srcBuf, err = src.GetTensorData(0)
	require.NoError(t, err)
	assert.Equal(t, byte(1), srcBuf[0])
}

func TestDestroy_CustomHookRuns(t *testing.T) {
	d, err := Create(add1Info(t))
	require.NoError(t, err)

	called := false
	d.SetDestroy(func(data *Data, userData interface{}) {
		called = true
		assert.Equal(t, "ud", userData)
	}, "ud")

	d.Destroy()
	assert.True(t, called)
}
