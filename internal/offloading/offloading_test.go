package offloading

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nnstreamer/ml-service-core/pkg/edgetransport/loopback"
	"github.com/nnstreamer/ml-service-core/pkg/mlerrors"
	"github.com/nnstreamer/ml-service-core/pkg/tensor"
)

// mapPipelineCatalog is a map-backed stand-in for pkg/catalog.Store,
// narrow enough to satisfy PipelineCatalog without a real database.
type mapPipelineCatalog map[string]string

func (c mapPipelineCatalog) SetPipeline(ctx context.Context, name, description string) error {
	c[name] = description
	return nil
}

func tensorOf(b []byte) *tensor.Data {
	return &tensor.Data{Buffers: []tensor.Buffer{{Ptr: b, ByteSize: uint64(len(b))}}}
}

// TestPipelineRegistrationRoundTrip exercises S5: a sender's Request of
// a pipeline_raw service descriptor reaches a loopback-connected
// receiver, which registers it in the catalog and raises
// PipelineRegistered with exactly one message.
func TestPipelineRegistrationRoundTrip(t *testing.T) {
	factory := loopback.NewFactory()
	catalog := mapPipelineCatalog{}

	receiverCfg := []byte(`{"node-type": "receiver", "id": "pipeline-registration-receiver"}`)
	receiver, err := New(context.Background(), receiverCfg, nil, Deps{
		TransportFactory: factory,
		PipelineCatalog:  catalog,
	})
	require.NoError(t, err)
	defer func() { _ = receiver.Close() }()

	events := make(chan Event, 4)
	receiver.SetEventCallback(func(ev Event) { events <- ev })

	senderCfg := []byte(`{
		"node-type": "sender",
		"dest-host": "pipeline-registration-receiver",
		"dest-port": 1,
		"connect-type": "TCP",
		"topic": "t"
	}`)
	servicesCfg := []byte(`{
		"pipeline_registration_raw": {
			"service-type": "pipeline_raw",
			"service-key": "pipeline_registration_test_key"
		}
	}`)
	sender, err := New(context.Background(), senderCfg, servicesCfg, Deps{TransportFactory: factory})
	require.NoError(t, err)
	defer func() { _ = sender.Close() }()

	data := tensorOf([]byte("fakesrc ! fakesink"))
	require.NoError(t, sender.Request(context.Background(), "pipeline_registration_raw", data))

	select {
	case ev := <-events:
		assert.Equal(t, EventPipelineRegistered, ev.Kind)
		name, ok := ev.Info.Get("name")
		require.True(t, ok)
		assert.Equal(t, "pipeline_registration_test_key", name)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for PipelineRegistered")
	}

	assert.Equal(t, "fakesrc ! fakesink", catalog["pipeline_registration_test_key"])

	select {
	case ev := <-events:
		t.Fatalf("unexpected second event: %v", ev.Kind)
	default:
	}
}

// TestRequest_UnknownServiceKey rejects a request against a user key
// absent from the services table.
func TestRequest_UnknownServiceKey(t *testing.T) {
	factory := loopback.NewFactory()
	receiverCfg := []byte(`{"node-type": "receiver", "id": "unknown-key-receiver"}`)
	receiver, err := New(context.Background(), receiverCfg, nil, Deps{TransportFactory: factory})
	require.NoError(t, err)
	defer func() { _ = receiver.Close() }()

	senderCfg := []byte(`{
		"node-type": "sender",
		"dest-host": "unknown-key-receiver",
		"dest-port": 1,
		"connect-type": "TCP",
		"topic": "t"
	}`)
	sender, err := New(context.Background(), senderCfg, nil, Deps{TransportFactory: factory})
	require.NoError(t, err)
	defer func() { _ = sender.Close() }()

	err = sender.Request(context.Background(), "does-not-exist", tensorOf([]byte("x")))
	assert.True(t, mlerrors.Is(err, mlerrors.InvalidParameter))
}

// TestTrainingOffloading_WatchdogTimeout exercises S6: a receiver in
// training mode whose time-limit elapses before the pipeline-description
// marker arrives fails Start with an error and never constructs a
// pipeline (PipelineRuntime is left nil, so the receiver has no runtime
// to construct one with).
func TestTrainingOffloading_WatchdogTimeout(t *testing.T) {
	factory := loopback.NewFactory()
	receiverCfg := []byte(`{
		"node-type": "receiver",
		"id": "training-timeout-receiver",
		"training": {"node-type": "receiver", "time-limit": 1}
	}`)
	receiver, err := New(context.Background(), receiverCfg, nil, Deps{TransportFactory: factory})
	require.NoError(t, err)
	defer func() { _ = receiver.Close() }()

	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = receiver.Start(ctx)
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.True(t, mlerrors.Is(err, mlerrors.InvalidParameter))
	assert.Less(t, elapsed, 2*time.Second)
}
