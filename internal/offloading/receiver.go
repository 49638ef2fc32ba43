package offloading

import (
	"context"
	"os"
	"path/filepath"
	"strconv"

	"github.com/nnstreamer/ml-service-core/pkg/edgetransport"
	"github.com/nnstreamer/ml-service-core/pkg/infomap"
	"github.com/nnstreamer/ml-service-core/pkg/mlerrors"
)

// handleMessage is the receiver-side dispatch of step 3, invoked on
// the edge transport's callback thread for every inbound Message. If
// training mode is active, the message is routed there first (step 4).
func (e *Endpoint) handleMessage(m edgetransport.Message) {
	e.mu.Lock()
	training := e.training
	e.mu.Unlock()
	if training != nil {
		if training.handleMessage(m) {
			return
		}
	}

	serviceType := ServiceType(m.Info[infoServiceType])
	serviceKey := m.Info[infoServiceKey]

	switch serviceType {
	case ServiceModelRaw:
		e.handleModelRaw(context.Background(), serviceKey, m)
	case ServiceModelURI:
		e.handleModelURI(context.Background(), serviceKey, m)
	case ServicePipelineRaw:
		e.handlePipelineRaw(context.Background(), serviceKey, m)
	case ServicePipelineURI:
		e.handlePipelineURI(context.Background(), serviceKey, m)
	case ServiceReply:
		e.handleReply(m)
	default:
		e.logger.Warnf("offloading: unrecognized service-type %q", serviceType)
	}
}

func (e *Endpoint) handleModelRaw(ctx context.Context, serviceKey string, m edgetransport.Message) {
	if len(m.Blobs) == 0 {
		e.logger.Errorf("offloading: model_raw message for %q carries no blob", serviceKey)
		return
	}
	dir, err := e.resolveSaveDir(serviceKey)
	if err != nil {
		e.logger.Errorf("offloading: resolve save dir for %q: %v", serviceKey, err)
		return
	}

	name := m.Info[infoName]
	if name == "" {
		name = serviceKey
	}
	path := filepath.Join(dir, safeFileName(name))
	if err := os.WriteFile(path, m.Blobs[0], 0o644); err != nil {
		e.logger.Errorf("offloading: write model file %q: %v", path, err)
		return
	}

	activate, _ := strconv.ParseBool(m.Info[infoActivate])
	description := m.Info[infoDescription]

	if e.deps.ModelCatalog == nil {
		e.logger.Errorf("offloading: no ModelCatalog configured, cannot register %q", serviceKey)
		return
	}
	if _, err := e.deps.ModelCatalog.RegisterModel(ctx, serviceKey, path, activate, description, ""); err != nil {
		e.logger.Errorf("offloading: register model %q: %v", serviceKey, err)
		return
	}

	info := infomap.NewInformation()
	_ = info.Set("name", serviceKey, nil)
	_ = info.Set("path", path, nil)
	e.emit(EventModelRegistered, info)
}

func (e *Endpoint) handleModelURI(ctx context.Context, serviceKey string, m edgetransport.Message) {
	if len(m.Blobs) == 0 {
		e.logger.Errorf("offloading: model_uri message for %q carries no blob", serviceKey)
		return
	}
	body, err := e.fetchURI(ctx, string(m.Blobs[0]))
	if err != nil {
		e.logger.Errorf("offloading: fetch model uri for %q: %v", serviceKey, err)
		return
	}
	m.Blobs[0] = body
	e.handleModelRaw(ctx, serviceKey, m)
}

func (e *Endpoint) handlePipelineRaw(ctx context.Context, serviceKey string, m edgetransport.Message) {
	if len(m.Blobs) == 0 {
		e.logger.Errorf("offloading: pipeline_raw message for %q carries no blob", serviceKey)
		return
	}
	if e.deps.PipelineCatalog == nil {
		e.logger.Errorf("offloading: no PipelineCatalog configured, cannot register %q", serviceKey)
		return
	}
	description := string(m.Blobs[0])
	if err := e.deps.PipelineCatalog.SetPipeline(ctx, serviceKey, description); err != nil {
		e.logger.Errorf("offloading: set pipeline %q: %v", serviceKey, err)
		return
	}
	info := infomap.NewInformation()
	_ = info.Set("name", serviceKey, nil)
	e.emit(EventPipelineRegistered, info)
}

func (e *Endpoint) handlePipelineURI(ctx context.Context, serviceKey string, m edgetransport.Message) {
	if len(m.Blobs) == 0 {
		e.logger.Errorf("offloading: pipeline_uri message for %q carries no blob", serviceKey)
		return
	}
	body, err := e.fetchURI(ctx, string(m.Blobs[0]))
	if err != nil {
		e.logger.Errorf("offloading: fetch pipeline uri for %q: %v", serviceKey, err)
		return
	}
	m.Blobs[0] = body
	e.handlePipelineRaw(ctx, serviceKey, m)
}

func (e *Endpoint) handleReply(m edgetransport.Message) {
	var blob []byte
	if len(m.Blobs) > 0 {
		blob = m.Blobs[0]
	}
	info := infomap.NewInformation()
	_ = info.Set("data", blob, nil)
	e.emit(EventReply, info)
}

func (e *Endpoint) fetchURI(ctx context.Context, uri string) ([]byte, error) {
	if e.deps.Fetcher == nil {
		return nil, mlerrors.New(mlerrors.NotSupported, "offloading.fetchURI", "no URI fetcher configured")
	}
	return e.deps.Fetcher.Fetch(ctx, uri)
}
