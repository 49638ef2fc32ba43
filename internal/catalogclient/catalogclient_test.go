package catalogclient

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nnstreamer/ml-service-core/internal/catalogipc"
	"github.com/nnstreamer/ml-service-core/pkg/catalog"
	"github.com/nnstreamer/ml-service-core/pkg/mlerrors"
)

func startTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	dir := t.TempDir()

	store, err := catalog.Open(context.Background(), filepath.Join(dir, "catalog.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	socketPath := filepath.Join(dir, "catalog.sock")
	server := catalogipc.NewServer(store, socketPath, nil)

	go func() { _ = server.Start() }()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	})

	client := catalogipc.NewClient(socketPath)
	require.Eventually(t, func() bool {
		_, err := client.GetPipeline(context.Background(), "")
		_, ok := err.(*mlerrors.Error) // a reachable daemon answers, even with an error
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	return New(client)
}

func TestCatalog_GetModelActivated_UnmarshalsPath(t *testing.T) {
	c := startTestCatalog(t)
	ctx := context.Background()

	modelPath := filepath.Join(t.TempDir(), "model.tflite")
	require.NoError(t, os.WriteFile(modelPath, []byte("weights"), 0o644))

	_, err := c.RegisterModel(ctx, "clf", modelPath, true, "a classifier", "")
	require.NoError(t, err)

	row, err := c.GetModelActivated(ctx, "clf")
	require.NoError(t, err)
	assert.Equal(t, modelPath, row.Path)
}

func TestCatalog_GetModelActivated_PropagatesNotFound(t *testing.T) {
	c := startTestCatalog(t)
	_, err := c.GetModelActivated(context.Background(), "missing")
	require.Error(t, err)
}

func TestCatalog_PassthroughMethodsSatisfyPipelineCatalog(t *testing.T) {
	c := startTestCatalog(t)
	ctx := context.Background()

	require.NoError(t, c.SetPipeline(ctx, "pl", "a pipeline"))
	desc, err := c.GetPipeline(ctx, "pl")
	require.NoError(t, err)
	assert.Equal(t, "a pipeline", desc)
}

func TestUnavailable_ReturnsNotSupported(t *testing.T) {
	var u Unavailable
	ctx := context.Background()

	_, err := u.GetModelActivated(ctx, "x")
	assert.True(t, mlerrors.Is(err, mlerrors.NotSupported))

	_, err = u.GetPipeline(ctx, "x")
	assert.True(t, mlerrors.Is(err, mlerrors.NotSupported))

	_, err = u.RegisterModel(ctx, "x", "/tmp/x", false, "", "")
	assert.True(t, mlerrors.Is(err, mlerrors.NotSupported))

	err = u.SetPipeline(ctx, "x", "desc")
	assert.True(t, mlerrors.Is(err, mlerrors.NotSupported))
}
