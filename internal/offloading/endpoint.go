package offloading

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/nnstreamer/ml-service-core/pkg/edgetransport"
	"github.com/nnstreamer/ml-service-core/pkg/infomap"
	"github.com/nnstreamer/ml-service-core/pkg/logging"
	"github.com/nnstreamer/ml-service-core/pkg/mlerrors"
	"github.com/nnstreamer/ml-service-core/pkg/pipelineruntime"
	"github.com/nnstreamer/ml-service-core/pkg/tensor"
)

// ModelCatalog is the subset of pkg/catalog.Store the receiver uses to
// register an incoming model.
type ModelCatalog interface {
	RegisterModel(ctx context.Context, name, path string, activate bool, description, appInfo string) (uint32, error)
}

// PipelineCatalog is the subset of pkg/catalog.Store the receiver uses to
// register an incoming pipeline description.
type PipelineCatalog interface {
	SetPipeline(ctx context.Context, name, description string) error
}

// EventKind discriminates the four events an Offloading handle can raise.
type EventKind int

const (
	EventModelRegistered EventKind = iota
	EventPipelineRegistered
	EventReply
	EventNewData
)

func (k EventKind) String() string {
	switch k {
	case EventModelRegistered:
		return "ModelRegistered"
	case EventPipelineRegistered:
		return "PipelineRegistered"
	case EventReply:
		return "Reply"
	case EventNewData:
		return "NewData"
	default:
		return "Unknown"
	}
}

// Event is delivered to the registered callback on the edge transport's
// callback thread.
type Event struct {
	Kind EventKind
	Info *infomap.Map
}

// Deps bundles every external dependency an Endpoint's constructor needs.
type Deps struct {
	TransportFactory edgetransport.Factory
	Fetcher          *URIFetcher
	ModelCatalog     ModelCatalog
	PipelineCatalog  PipelineCatalog
	// PipelineRuntime is only required when the "offloading" config
	// carries a "training" block; plain offloading never
	// constructs a pipeline itself.
	PipelineRuntime pipelineruntime.Runtime
	Logger          logging.Interface
}

// Endpoint is a running sender or receiver offloading handle.
type Endpoint struct {
	role      edgetransport.Role
	transport edgetransport.Transport
	deps      Deps
	logger    logging.Interface

	mu       sync.Mutex
	path     string
	services map[string]ServiceDescriptor
	eventCB  func(Event)
	info     *infomap.Map

	training *trainingState
}

// New builds an Endpoint from the "offloading" config object plus the
// sibling "services" object, starts its transport, and (for a sender)
// connects to the configured peer.
func New(ctx context.Context, configJSON, servicesJSON []byte, deps Deps) (*Endpoint, error) {
	if deps.Logger == nil {
		deps.Logger = logging.NewNopLogger()
	}
	if deps.TransportFactory == nil {
		return nil, mlerrors.New(mlerrors.InvalidParameter, "offloading.New", "TransportFactory must be set")
	}

	cfg, err := parseConfig(configJSON)
	if err != nil {
		return nil, err
	}
	services, err := parseServices(servicesJSON)
	if err != nil {
		return nil, err
	}

	id := cfg.ID
	if id == "" {
		id = cfg.Topic
	}
	transport, err := deps.TransportFactory.Create(id, connectTypeFromString(cfg.ConnectType), cfg.role())
	if err != nil {
		return nil, mlerrors.Wrap(mlerrors.StreamsPipe, "offloading.New", err)
	}

	e := &Endpoint{
		role:      cfg.role(),
		transport: transport,
		deps:      deps,
		logger:    deps.Logger,
		path:      cfg.Path,
		services:  services,
		info:      infomap.NewInformation(),
	}

	if err := transport.Start(ctx); err != nil {
		return nil, mlerrors.Wrap(mlerrors.StreamsPipe, "offloading.New", err)
	}

	// Both roles register the callback: a receiver dispatches service
	// messages, a sender only ever sees "reply" messages when training
	// mode is active.
	transport.SetEventCallback(e.handleMessage)
	if e.role == edgetransport.RoleSender {
		if err := transport.Connect(ctx, cfg.DestHost, cfg.DestPort); err != nil {
			return nil, mlerrors.Wrap(mlerrors.StreamsPipe, "offloading.New", err)
		}
	}

	if cfg.Training != nil {
		if err := e.startTraining(ctx, cfg.Training); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// SetEventCallback registers the handler invoked for every raised Event.
func (e *Endpoint) SetEventCallback(cb func(Event)) {
	e.mu.Lock()
	e.eventCB = cb
	e.mu.Unlock()
}

func (e *Endpoint) emit(kind EventKind, info *infomap.Map) {
	e.mu.Lock()
	cb := e.eventCB
	e.mu.Unlock()
	if cb != nil {
		cb(Event{Kind: kind, Info: info})
	}
}

// Request is the sender-side operation: look up userKey in the services
// table, build a wire message, and send it.
func (e *Endpoint) Request(ctx context.Context, userKey string, data *tensor.Data) error {
	if e.role != edgetransport.RoleSender {
		return mlerrors.New(mlerrors.NotSupported, "offloading.Request", "not a sender")
	}
	e.mu.Lock()
	desc, ok := e.services[userKey]
	e.mu.Unlock()
	if !ok {
		return mlerrors.New(mlerrors.InvalidParameter, "offloading.Request", "unknown service key: "+userKey)
	}

	msg, err := buildRequestMessage(desc, data)
	if err != nil {
		return err
	}
	if err := e.transport.Send(ctx, msg); err != nil {
		return mlerrors.Wrap(mlerrors.StreamsPipe, "offloading.Request", err)
	}
	return nil
}

// Start implements the training sub-mode's receiver-side wait: block
// until the pipeline-description marker arrives or the watchdog's
// time-limit expires, surfacing the timeout as an error (S6). A no-op
// for a sender, or outside training mode.
func (e *Endpoint) Start(ctx context.Context) error {
	e.mu.Lock()
	training := e.training
	role := e.role
	e.mu.Unlock()
	if training == nil || role != edgetransport.RoleReceiver {
		return nil
	}
	return training.waitStart(ctx)
}

// Stop implements the training sub-mode's pre-destroy step (receiver
// step 4): wait up to ~36s for the trained-model file, flipping the
// pipeline's ready-to-complete property along the way. A no-op outside
// training mode.
func (e *Endpoint) Stop(ctx context.Context) error {
	e.mu.Lock()
	training := e.training
	e.mu.Unlock()
	if training == nil {
		return nil
	}
	return training.stop(ctx)
}

// Close releases the endpoint's transport, stopping its watchdog if training is active.
func (e *Endpoint) Close() error {
	e.mu.Lock()
	training := e.training
	e.mu.Unlock()
	if training != nil {
		e.destroyTraining()
	}
	return e.transport.Close()
}

// SetInformation stores a key/value pair on the handle. "path"
// (case-insensitive) reconfigures the receiver's save directory used by
// resolveSaveDir; every other key is stored verbatim, mirroring the
// extension worker's recognized-key-allowlist-over-one-map shape.
func (e *Endpoint) SetInformation(key string, value interface{}) error {
	if strings.EqualFold(key, "path") {
		v, ok := value.(string)
		if !ok {
			return mlerrors.New(mlerrors.InvalidParameter, "offloading.SetInformation", "path must be a string")
		}
		e.mu.Lock()
		e.path = v
		e.mu.Unlock()
		return nil
	}
	return e.info.Set(key, value, nil)
}

// GetInformation returns a previously set, unrecognized information key.
func (e *Endpoint) GetInformation(key string) (interface{}, bool) {
	return e.info.Get(key)
}

// resolveSaveDir implements step 2: the handle's path information,
// else <cwd>/<service-key>, created 0755.
func (e *Endpoint) resolveSaveDir(serviceKey string) (string, error) {
	e.mu.Lock()
	dir := e.path
	e.mu.Unlock()
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", mlerrors.Wrap(mlerrors.IoError, "offloading.resolveSaveDir", err)
		}
		dir = filepath.Join(cwd, safeFileName(serviceKey))
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", mlerrors.Wrap(mlerrors.IoError, "offloading.resolveSaveDir", err)
	}
	return dir, nil
}
