package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nnstreamer/ml-service-core/internal/extension"
	"github.com/nnstreamer/ml-service-core/internal/offloading"
	"github.com/nnstreamer/ml-service-core/internal/pipelinehost"
	"github.com/nnstreamer/ml-service-core/pkg/edgetransport/loopback"
	"github.com/nnstreamer/ml-service-core/pkg/mlerrors"
	runtimefake "github.com/nnstreamer/ml-service-core/pkg/pipelineruntime/fake"
	singleshotfake "github.com/nnstreamer/ml-service-core/pkg/singleshot/fake"
)

// mapCatalog is a map-backed stand-in for pkg/catalog.Store, narrow
// enough to satisfy pipelinehost.CatalogResolver and offloading's
// ModelCatalog/PipelineCatalog without a real database.
type mapCatalog map[string]string

func (c mapCatalog) GetPipeline(ctx context.Context, name string) (string, error) {
	desc, ok := c[name]
	if !ok {
		return "", mlerrors.New(mlerrors.InvalidParameter, "mapCatalog.GetPipeline", "unknown pipeline")
	}
	return desc, nil
}

func (c mapCatalog) RegisterModel(ctx context.Context, name, path string, activate bool, description, appInfo string) (uint32, error) {
	return 1, nil
}

func (c mapCatalog) SetPipeline(ctx context.Context, name, description string) error {
	c[name] = description
	return nil
}

func singleConfig() []byte {
	return []byte(`{
		"single": {
			"model": "/models/a.tflite",
			"framework": "tflite",
			"input_info": {"type": "uint8", "dimension": "1", "name": "in"},
			"output_info": {"type": "uint8", "dimension": "1", "name": "out"}
		}
	}`)
}

func TestNew_RejectsConfigWithNoVariant(t *testing.T) {
	_, err := New(context.Background(), []byte(`{}`), Deps{})
	require.Error(t, err)
}

func TestNew_ExtensionSingle(t *testing.T) {
	deps := Deps{ExtensionDeps: extension.Deps{SingleOpener: singleshotfake.NewOpener()}}
	svc, err := New(context.Background(), singleConfig(), deps)
	require.NoError(t, err)
	defer func() { _ = svc.Close(context.Background()) }()

	assert.Equal(t, KindExtension, svc.Kind())
	require.NoError(t, svc.Start(context.Background()))
	require.NoError(t, svc.Stop(context.Background()))
}

func TestNew_HostedPipeline(t *testing.T) {
	catalog := mapCatalog{"my-pipeline": "videotestsrc ! fakesink"}
	host := pipelinehost.New(runtimefake.NewRuntime(), catalog, nil)
	deps := Deps{Host: host}

	cfg := []byte(`{"pipeline": {"key": "my-pipeline"}}`)
	svc, err := New(context.Background(), cfg, deps)
	require.NoError(t, err)
	defer func() { _ = svc.Close(context.Background()) }()

	assert.Equal(t, KindHosted, svc.Kind())
	assert.Equal(t, 1, host.Len())

	require.NoError(t, svc.Start(context.Background()))
	require.NoError(t, svc.Stop(context.Background()))

	err = svc.Request(context.Background(), "n/a", nil)
	assert.True(t, mlerrors.Is(err, mlerrors.NotSupported))
}

func TestNew_HostedPipeline_RequiresHost(t *testing.T) {
	cfg := []byte(`{"pipeline": {"key": "my-pipeline"}}`)
	_, err := New(context.Background(), cfg, Deps{})
	require.Error(t, err)
}

func TestNew_ExtensionPipeline_NotHosted(t *testing.T) {
	cfg := []byte(`{
		"pipeline": {
			"description": "videotestsrc ! fakesink",
			"input_node": {"name": "src", "info": {"type": "float32", "dimension": "1:1:1:1", "name": "in"}},
			"output_node": {"name": "sink", "info": {"type": "float32", "dimension": "1:1:1:1", "name": "out"}}
		}
	}`)
	deps := Deps{ExtensionDeps: extension.Deps{Runtime: runtimefake.NewRuntime()}}
	svc, err := New(context.Background(), cfg, deps)
	require.NoError(t, err)
	defer func() { _ = svc.Close(context.Background()) }()

	assert.Equal(t, KindExtension, svc.Kind())
}

func TestNew_Offloading_Receiver(t *testing.T) {
	cfg := []byte(`{"offloading": {"node-type": "receiver", "id": "test-receiver"}}`)
	deps := Deps{OffloadingDeps: offloading.Deps{TransportFactory: loopback.NewFactory()}}
	svc, err := New(context.Background(), cfg, deps)
	require.NoError(t, err)
	defer func() { _ = svc.Close(context.Background()) }()

	assert.Equal(t, KindOffloading, svc.Kind())
	require.NoError(t, svc.Start(context.Background()))
	require.NoError(t, svc.Stop(context.Background()))
}

func TestNew_AppliesInformationBlock(t *testing.T) {
	cfg := []byte(`{
		"single": {
			"model": "/models/a.tflite",
			"framework": "tflite",
			"input_info": {"type": "uint8", "dimension": "1", "name": "in"},
			"output_info": {"type": "uint8", "dimension": "1", "name": "out"}
		},
		"information": {"max_input": "4"}
	}`)
	deps := Deps{ExtensionDeps: extension.Deps{SingleOpener: singleshotfake.NewOpener()}}
	svc, err := New(context.Background(), cfg, deps)
	require.NoError(t, err)
	defer func() { _ = svc.Close(context.Background()) }()

	v, ok := svc.GetInformation("max_input")
	require.True(t, ok)
	assert.Equal(t, "4", v)
}

func TestClose_IsIdempotent(t *testing.T) {
	deps := Deps{ExtensionDeps: extension.Deps{SingleOpener: singleshotfake.NewOpener()}}
	svc, err := New(context.Background(), singleConfig(), deps)
	require.NoError(t, err)

	require.NoError(t, svc.Close(context.Background()))
	require.NoError(t, svc.Close(context.Background()))
}
