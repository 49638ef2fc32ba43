package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterModel_VersionsIncrement(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	path := newTestModelFile(t)

	v1, err := s.RegisterModel(ctx, "clf", path, false, "first", "")
	require.NoError(t, err)
	assert.Equal(t, uint32(1), v1)

	v2, err := s.RegisterModel(ctx, "clf", path, false, "second", "")
	require.NoError(t, err)
	assert.Equal(t, uint32(2), v2)
}

// TestRegisterModel_ActivateSwapsActiveVersion implements testable
// property P3.
func TestRegisterModel_ActivateSwapsActiveVersion(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	pathA := newTestModelFile(t)
	pathB := newTestModelFile(t)

	v1, err := s.RegisterModel(ctx, "clf", pathA, true, "", "")
	require.NoError(t, err)

	active, err := s.GetModelActivated(ctx, "clf")
	require.NoError(t, err)
	assert.Equal(t, pathA, active.Path)

	v2, err := s.RegisterModel(ctx, "clf", pathB, true, "", "")
	require.NoError(t, err)

	active, err = s.GetModelActivated(ctx, "clf")
	require.NoError(t, err)
	assert.Equal(t, pathB, active.Path)
	assert.Equal(t, v2, active.Version)

	row1, err := s.GetModel(ctx, "clf", v1)
	require.NoError(t, err)
	assert.False(t, row1.Active)
}

func TestRegisterModel_RejectsEmptyOrRelativePath(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.RegisterModel(ctx, "clf", "", false, "", "")
	assert.Error(t, err)

	_, err = s.RegisterModel(ctx, "clf", "relative/path.bin", false, "", "")
	assert.Error(t, err)
}

func TestActivateModel_SwitchesActiveFlagAcrossVersions(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	path := newTestModelFile(t)

	v1, err := s.RegisterModel(ctx, "clf", path, true, "", "")
	require.NoError(t, err)
	v2, err := s.RegisterModel(ctx, "clf", path, false, "", "")
	require.NoError(t, err)

	require.NoError(t, s.ActivateModel(ctx, "clf", v2))

	row1, err := s.GetModel(ctx, "clf", v1)
	require.NoError(t, err)
	assert.False(t, row1.Active)

	row2, err := s.GetModel(ctx, "clf", v2)
	require.NoError(t, err)
	assert.True(t, row2.Active)
}

func TestActivateModel_NotFoundReturnsError(t *testing.T) {
	s := openTestStore(t)
	err := s.ActivateModel(context.Background(), "missing", 1)
	assert.Error(t, err)
}

func TestUpdateModelDescription_NotFoundReturnsError(t *testing.T) {
	s := openTestStore(t)
	err := s.UpdateModelDescription(context.Background(), "missing", 1, "x")
	assert.Error(t, err)
}

func TestGetModelAll_ReturnsEveryVersionInOrder(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	path := newTestModelFile(t)

	_, err := s.RegisterModel(ctx, "clf", path, false, "v1", "")
	require.NoError(t, err)
	_, err = s.RegisterModel(ctx, "clf", path, false, "v2", "")
	require.NoError(t, err)
	_, err = s.RegisterModel(ctx, "clf", path, false, "v3", "")
	require.NoError(t, err)

	all, err := s.GetModelAll(ctx, "clf")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, uint32(1), all[0].Version)
	assert.Equal(t, uint32(2), all[1].Version)
	assert.Equal(t, uint32(3), all[2].Version)
}

func TestDeleteModel_ZeroVersionDeletesAll(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	path := newTestModelFile(t)

	_, err := s.RegisterModel(ctx, "clf", path, false, "", "")
	require.NoError(t, err)
	_, err = s.RegisterModel(ctx, "clf", path, false, "", "")
	require.NoError(t, err)

	require.NoError(t, s.DeleteModel(ctx, "clf", 0))

	all, err := s.GetModelAll(ctx, "clf")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestDeleteModel_SpecificVersionLeavesOthers(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	path := newTestModelFile(t)

	v1, err := s.RegisterModel(ctx, "clf", path, false, "", "")
	require.NoError(t, err)
	v2, err := s.RegisterModel(ctx, "clf", path, false, "", "")
	require.NoError(t, err)

	require.NoError(t, s.DeleteModel(ctx, "clf", v1))

	_, err = s.GetModel(ctx, "clf", v1)
	assert.Error(t, err)

	row2, err := s.GetModel(ctx, "clf", v2)
	require.NoError(t, err)
	assert.Equal(t, v2, row2.Version)
}
