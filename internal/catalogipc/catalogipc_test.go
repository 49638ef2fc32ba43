package catalogipc

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nnstreamer/ml-service-core/pkg/catalog"
	"github.com/nnstreamer/ml-service-core/pkg/mlerrors"
)

func startTestServer(t *testing.T) *Client {
	t.Helper()
	dir := t.TempDir()

	store, err := catalog.Open(context.Background(), filepath.Join(dir, "catalog.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	socketPath := filepath.Join(dir, "catalog.sock")
	server := NewServer(store, socketPath, nil)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	})

	require.Eventually(t, func() bool {
		client := NewClient(socketPath)
		return client.ping(context.Background()) == nil
	}, 2*time.Second, 10*time.Millisecond)

	return NewClient(socketPath)
}

func TestClientServer_PipelineRoundTrip(t *testing.T) {
	client := startTestServer(t)
	ctx := context.Background()

	require.NoError(t, client.SetPipeline(ctx, "clf", "a classifier"))

	desc, err := client.GetPipeline(ctx, "clf")
	require.NoError(t, err)
	assert.Equal(t, "a classifier", desc)

	require.NoError(t, client.DeletePipeline(ctx, "clf"))

	_, err = client.GetPipeline(ctx, "clf")
	assert.Error(t, err)
}

func TestClientServer_UnknownMethodIsIOError(t *testing.T) {
	client := startTestServer(t)
	_, err := client.call(context.Background(), "nonexistent", map[string]string{})
	assert.Error(t, err)
	assert.True(t, mlerrors.Is(err, mlerrors.IoError))
}
