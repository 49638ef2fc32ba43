package fake

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nnstreamer/ml-service-core/pkg/pipelineruntime"
)

func TestConstruct_ReachesPausedAndNotifiesStates(t *testing.T) {
	rt := NewRuntime()
	var transitions []pipelineruntime.State

	p, err := rt.Construct(context.Background(), "videotestsrc ! fakesink", func(old, new pipelineruntime.State) {
		transitions = append(transitions, new)
	})
	require.NoError(t, err)
	assert.Equal(t, pipelineruntime.StatePaused, p.State())
	assert.Equal(t, []pipelineruntime.State{pipelineruntime.StateReady, pipelineruntime.StatePaused}, transitions)
}

func TestConstruct_InvalidDescriptionFails(t *testing.T) {
	rt := NewRuntime()
	_, err := rt.Construct(context.Background(), "this is invalid", nil)
	assert.Error(t, err)
}

func TestConstruct_UnpausableFails(t *testing.T) {
	rt := NewRuntime()
	_, err := rt.Construct(context.Background(), "unpausable pipeline", nil)
	assert.Error(t, err)
}

func TestPipeline_StartStopFansDataToSinks(t *testing.T) {
	rt := NewRuntime()
	p, err := rt.Construct(context.Background(), "appsrc ! appsink", nil)
	require.NoError(t, err)

	var received []byte
	_, err = p.RegisterSink("out", func(data []byte, info map[string]string) {
		received = data
	})
	require.NoError(t, err)

	src, err := p.Source("in")
	require.NoError(t, err)

	require.NoError(t, p.Start(context.Background()))
	require.NoError(t, src.InputData([]byte("hello"), pipelineruntime.AutoFree))
	assert.Equal(t, []byte("hello"), received)

	require.NoError(t, p.Stop(context.Background()))
	assert.Equal(t, pipelineruntime.StatePaused, p.State())
}

func TestSource_InputDataFailsWhenNotPlaying(t *testing.T) {
	rt := NewRuntime()
	p, err := rt.Construct(context.Background(), "appsrc ! appsink", nil)
	require.NoError(t, err)

	src, err := p.Source("in")
	require.NoError(t, err)

	err = src.InputData([]byte("x"), pipelineruntime.AutoFree)
	assert.Error(t, err)
}

func TestDestroy_TransitionsToNull(t *testing.T) {
	rt := NewRuntime()
	p, err := rt.Construct(context.Background(), "appsrc ! appsink", nil)
	require.NoError(t, err)

	require.NoError(t, rt.Destroy(p))
	assert.Equal(t, pipelineruntime.StateNull, p.State())
}
