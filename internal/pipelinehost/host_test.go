package pipelinehost

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nnstreamer/ml-service-core/pkg/mlerrors"
	"github.com/nnstreamer/ml-service-core/pkg/pipelineruntime"
	"github.com/nnstreamer/ml-service-core/pkg/pipelineruntime/fake"
)

type mapCatalog struct {
	mu           sync.Mutex
	descriptions map[string]string
}

func newMapCatalog() *mapCatalog {
	return &mapCatalog{descriptions: make(map[string]string)}
}

func (c *mapCatalog) set(name, description string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.descriptions[name] = description
}

func (c *mapCatalog) GetPipeline(ctx context.Context, name string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.descriptions[name]
	if !ok {
		return "", mlerrors.New(mlerrors.InvalidParameter, "mapCatalog.GetPipeline", "pipeline not found")
	}
	return d, nil
}

func TestLaunch_AssignsMonotonicIDsAndInsertsIntoTable(t *testing.T) {
	catalog := newMapCatalog()
	catalog.set("clf", "appsrc ! appsink")

	host := New(fake.NewRuntime(), catalog, nil)

	id1, err := host.Launch(context.Background(), "clf", nil)
	require.NoError(t, err)

	id2, err := host.Launch(context.Background(), "clf", nil)
	require.NoError(t, err)

	assert.NotEqual(t, id1, id2)
	assert.Equal(t, 2, host.Len())

	e, err := host.Get(id1)
	require.NoError(t, err)
	assert.Equal(t, pipelineruntime.StatePaused, e.Pipeline.State())
}

func TestLaunch_UnknownNameFails(t *testing.T) {
	host := New(fake.NewRuntime(), newMapCatalog(), nil)
	_, err := host.Launch(context.Background(), "missing", nil)
	assert.Error(t, err)
}

func TestLaunch_ParseFailureDestroysImmediately(t *testing.T) {
	catalog := newMapCatalog()
	catalog.set("broken", "this is invalid")

	host := New(fake.NewRuntime(), catalog, nil)
	_, err := host.Launch(context.Background(), "broken", nil)
	assert.Error(t, err)
	assert.Equal(t, 0, host.Len())
}

func TestDestroy_RemovesFromTableAndTransitionsToNull(t *testing.T) {
	catalog := newMapCatalog()
	catalog.set("clf", "appsrc ! appsink")
	host := New(fake.NewRuntime(), catalog, nil)

	id, err := host.Launch(context.Background(), "clf", nil)
	require.NoError(t, err)

	e, err := host.Get(id)
	require.NoError(t, err)

	require.NoError(t, host.Destroy(context.Background(), id))
	assert.Equal(t, 0, host.Len())
	assert.Equal(t, pipelineruntime.StateNull, e.Pipeline.State())

	_, err = host.Get(id)
	assert.Error(t, err)
}

func TestStartStop_DriveStateTransitions(t *testing.T) {
	catalog := newMapCatalog()
	catalog.set("clf", "appsrc ! appsink")
	host := New(fake.NewRuntime(), catalog, nil)

	id, err := host.Launch(context.Background(), "clf", nil)
	require.NoError(t, err)

	require.NoError(t, host.Start(context.Background(), id))
	e, err := host.Get(id)
	require.NoError(t, err)
	assert.Equal(t, pipelineruntime.StatePlaying, e.Pipeline.State())

	require.NoError(t, host.Stop(context.Background(), id))
	assert.Equal(t, pipelineruntime.StatePaused, e.Pipeline.State())
}
