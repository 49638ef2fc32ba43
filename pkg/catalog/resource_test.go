package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResource_AddGetDeleteRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddResource(ctx, "labels", "/opt/res/labels.txt", "class labels", ""))

	rows, err := s.GetResource(ctx, "labels")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "/opt/res/labels.txt", rows[0].Path)

	require.NoError(t, s.DeleteResource(ctx, "labels"))

	_, err = s.GetResource(ctx, "labels")
	assert.Error(t, err)
}

func TestResource_MultipleRowsPerKey(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddResource(ctx, "labels", "/opt/res/a.txt", "", ""))
	require.NoError(t, s.AddResource(ctx, "labels", "/opt/res/b.txt", "", ""))

	rows, err := s.GetResource(ctx, "labels")
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestResource_GetMissingReturnsError(t *testing.T) {
	s := openTestStore(t)
	_, err := s.GetResource(context.Background(), "missing")
	assert.Error(t, err)
}
