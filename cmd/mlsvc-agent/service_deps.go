package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/viper"

	"github.com/nnstreamer/ml-service-core/internal/catalogclient"
	"github.com/nnstreamer/ml-service-core/internal/catalogipc"
	"github.com/nnstreamer/ml-service-core/internal/extension"
	"github.com/nnstreamer/ml-service-core/internal/offloading"
	"github.com/nnstreamer/ml-service-core/internal/pipelinehost"
	"github.com/nnstreamer/ml-service-core/internal/service"
	"github.com/nnstreamer/ml-service-core/pkg/edgetransport/loopback"
	"github.com/nnstreamer/ml-service-core/pkg/logging"
	pipelineruntimefake "github.com/nnstreamer/ml-service-core/pkg/pipelineruntime/fake"
	singleshotfake "github.com/nnstreamer/ml-service-core/pkg/singleshot/fake"
	"github.com/nnstreamer/ml-service-core/pkg/storage"
)

// newStorageFactory wires the s3:// and gs:// URI schemes the
// resource/offloading fetch path can reference behind
// pkg/storage.Factory, each backend resolving credentials through its
// own SDK's default chain.
func newStorageFactory() storage.Factory {
	return storage.NewDefaultFactory()
}

// dialCatalog connects to the catalog daemon over its Unix socket,
// falling back to a nil catalog if none is reachable — a Service handle
// that never references "key"-addressed models/pipelines works without one.
func dialCatalog(ctx context.Context, logger logging.Interface) *catalogclient.Catalog {
	c, err := catalogipc.Dial(ctx)
	if err != nil {
		logger.WithError(err).Debug("catalog daemon not reachable, continuing without one")
		return nil
	}
	return catalogclient.New(c)
}

// buildServiceDeps assembles every dependency internal/service.New might
// need regardless of which variant the loaded configuration selects.
func buildServiceDeps(ctx context.Context, logger logging.Interface) service.Deps {
	storageFactory := newStorageFactory()
	fetcher := offloading.NewURIFetcher(storageFactory, nil)

	runtime := pipelineruntimefake.NewRuntime()
	opener := singleshotfake.NewOpener()

	cat := dialCatalog(ctx, logger)

	var extModelCatalog extension.ModelCatalog = catalogclient.Unavailable{}
	var extPipelineCatalog extension.PipelineCatalog = catalogclient.Unavailable{}
	var offModelCatalog offloading.ModelCatalog = catalogclient.Unavailable{}
	var offPipelineCatalog offloading.PipelineCatalog = catalogclient.Unavailable{}
	var resolver pipelinehost.CatalogResolver = catalogclient.Unavailable{}
	if cat != nil {
		extModelCatalog = cat
		extPipelineCatalog = cat
		offModelCatalog = cat
		offPipelineCatalog = cat
		resolver = cat
	}

	host := pipelinehost.New(runtime, resolver, logger)

	return service.Deps{
		ExtensionDeps: extension.Deps{
			SingleOpener:    opener,
			ModelCatalog:    extModelCatalog,
			Runtime:         runtime,
			PipelineCatalog: extPipelineCatalog,
			Logger:          logger,
		},
		OffloadingDeps: offloading.Deps{
			TransportFactory: loopback.NewFactory(),
			Fetcher:          fetcher,
			ModelCatalog:     offModelCatalog,
			PipelineCatalog:  offPipelineCatalog,
			PipelineRuntime:  runtime,
			Logger:           logger,
		},
		Host:   host,
		Logger: logger,
	}
}

// configJSON renders the viper tree this process loaded into the JSON
// document internal/service.New parses; the agent's config file
// carries the Service configuration directly (its "single"/"pipeline"/
// "offloading"/"information" keys) alongside whatever ambient keys
// (logging, debug) the daemon scaffolding reads.
func configJSON(v *viper.Viper) ([]byte, error) {
	data, err := json.Marshal(v.AllSettings())
	if err != nil {
		return nil, fmt.Errorf("cannot render service configuration: %w", err)
	}
	return data, nil
}
