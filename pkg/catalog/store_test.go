package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(context.Background(), filepath.Join(dir, "catalog.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newTestModelFile(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "model.bin")
	require.NoError(t, os.WriteFile(path, []byte("weights"), 0o644))
	return path
}

func TestOpen_CreatesSchemaIdempotently(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.db")

	s1, err := Open(context.Background(), path, nil)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(context.Background(), path, nil)
	require.NoError(t, err)
	defer s2.Close()

	_, err = s2.GetPipeline(context.Background(), "missing")
	assert.Error(t, err)
}

func TestPipeline_SetGetDeleteRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetPipeline(ctx, "clf", "a classifier pipeline"))

	desc, err := s.GetPipeline(ctx, "clf")
	require.NoError(t, err)
	assert.Equal(t, "a classifier pipeline", desc)

	require.NoError(t, s.DeletePipeline(ctx, "clf"))

	_, err = s.GetPipeline(ctx, "clf")
	assert.Error(t, err)
}

func TestPipeline_SetIsUpsert(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetPipeline(ctx, "clf", "v1"))
	require.NoError(t, s.SetPipeline(ctx, "clf", "v2"))

	desc, err := s.GetPipeline(ctx, "clf")
	require.NoError(t, err)
	assert.Equal(t, "v2", desc)
}

func TestPipeline_DeleteIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.DeletePipeline(context.Background(), "never-registered"))
}
