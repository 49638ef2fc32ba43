package infomap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSet_LastWriteWinsAndDestructorRunsOnce(t *testing.T) {
	m := NewInformation()

	var destroyed1, destroyed2 int
	require.NoError(t, m.Set("k", "v1", func(interface{}) { destroyed1++ }))
	require.NoError(t, m.Set("k", "v2", func(interface{}) { destroyed2++ }))

	v, ok := m.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v2", v)
	assert.Equal(t, 1, destroyed1)
	assert.Equal(t, 0, destroyed2)
}

func TestSet_RejectsEmptyKey(t *testing.T) {
	m := NewOption()
	require.Error(t, m.Set("", "v", nil))
}

func TestDestroy_RunsAllDestructors(t *testing.T) {
	m := NewInformation()
	count := 0
	require.NoError(t, m.Set("a", 1, func(interface{}) { count++ }))
	require.NoError(t, m.Set("b", 2, func(interface{}) { count++ }))

	m.Destroy()
	assert.Equal(t, 2, count)
	_, ok := m.Get("a")
	assert.False(t, ok)
}

func TestCheckKind(t *testing.T) {
	m := NewOption()
	require.NoError(t, CheckKind(m, Option))
	require.Error(t, CheckKind(m, Information))
	require.Error(t, CheckKind(nil, Option))
}

func TestList_FixedLengthAndBounds(t *testing.T) {
	_, err := NewList(0)
	require.Error(t, err)

	l, err := NewList(3)
	require.NoError(t, err)
	assert.Equal(t, 3, l.Length())

	_, err = l.Get(3)
	require.Error(t, err)

	item, err := l.Get(0)
	require.NoError(t, err)
	require.NoError(t, item.Set("x", 1, nil))
}

func TestKeys_PreservesInsertionOrder(t *testing.T) {
	m := NewInformation()
	require.NoError(t, m.Set("first", 1, nil))
	require.NoError(t, m.Set("second", 2, nil))
	require.NoError(t, m.Set("third", 3, nil))

	assert.Equal(t, []string{"first", "second", "third"}, m.Keys())
}

func TestJSONRoundTrip(t *testing.T) {
	m := NewInformation()
	require.NoError(t, m.Set("name", "result_clf", nil))

	data, err := m.ToJSON()
	require.NoError(t, err)

	out, err := FromJSON(data)
	require.NoError(t, err)

	v, ok := out.Get("name")
	require.True(t, ok)
	assert.Equal(t, "result_clf", v)
}
