// Package service implements the polymorphic Service handle and its
// dispatch table: a factory that reads a JSON configuration file and
// returns a Service backed by one of three variants — ExtensionState,
// HostedPipelineState, or OffloadingState — fronted by a single call
// surface (Start/Stop/Request/GetInputInformation/GetOutputInformation/
// SetEventCallback/SetInformation/Close).
//
// The source's runtime magic-word/void* discrimination is replaced with
// the tagged sum below; Kind is this package's
// realization of that tag for callers that need to branch on it (e.g.
// a JNI/CLI shim issuing a typed external handle id), while internally
// every operation simply switches on which of the three pointer fields
// is non-nil.
package service

import (
	"context"
	"sync"

	"github.com/nnstreamer/ml-service-core/pkg/infomap"
	"github.com/nnstreamer/ml-service-core/pkg/logging"
	"github.com/nnstreamer/ml-service-core/pkg/mlerrors"
	"github.com/nnstreamer/ml-service-core/pkg/pipelineruntime"
	"github.com/nnstreamer/ml-service-core/pkg/tensor"

	"github.com/nnstreamer/ml-service-core/internal/extension"
	"github.com/nnstreamer/ml-service-core/internal/offloading"
	"github.com/nnstreamer/ml-service-core/internal/pipelinehost"
)

// Kind discriminates which of the three variants a Service wraps.
type Kind int

const (
	KindExtension Kind = iota
	KindHosted
	KindOffloading
)

func (k Kind) String() string {
	switch k {
	case KindExtension:
		return "extension"
	case KindHosted:
		return "hosted-pipeline"
	case KindOffloading:
		return "offloading"
	default:
		return "unknown"
	}
}

// Deps bundles every dependency the factory needs to build whichever
// variant a configuration selects.
type Deps struct {
	ExtensionDeps  extension.Deps
	OffloadingDeps offloading.Deps
	Host           *pipelinehost.Host
	Logger         logging.Interface
}

// hostedPipeline is the thin wrapper a Hosted-pipeline Service owns: an
// id into the shared pipelinehost.Host table plus the handle's own
// information map and event callback for state transitions.
type hostedPipeline struct {
	host *pipelinehost.Host
	id   uint64

	mu      sync.Mutex
	eventCB func(*infomap.Map)
	info    *infomap.Map
}

// Service is the polymorphic front object.
type Service struct {
	kind   Kind
	logger logging.Interface

	ext    *extension.Extension
	hosted *hostedPipeline
	off    *offloading.Endpoint
}

// New loads configJSON, determines the variant from its top-level keys
// (Extension for "single"/"pipeline" with I/O nodes, Hosted for a
// "pipeline" object with a key and no input_node/output_node,
// Offloading for "offloading"), constructs it, and applies every member
// of a sibling "information" object. The members are applied in an
// unspecified order, not in their order in the config text.
func New(ctx context.Context, configJSON []byte, deps Deps) (*Service, error) {
	if deps.Logger == nil {
		deps.Logger = logging.NewNopLogger()
	}

	top, err := parseTopLevel(configJSON)
	if err != nil {
		return nil, err
	}

	var svc *Service
	switch {
	case len(top.Single) > 0:
		svc, err = newExtensionService(ctx, configJSON, deps)
	case len(top.Pipeline) > 0:
		hosted, herr := isHostedPipeline(top.Pipeline)
		if herr != nil {
			return nil, herr
		}
		if hosted {
			svc, err = newHostedService(ctx, top.Pipeline, deps)
		} else {
			svc, err = newExtensionService(ctx, configJSON, deps)
		}
	case len(top.Offloading) > 0:
		svc, err = newOffloadingService(ctx, top.Offloading, top.Services, deps)
	default:
		return nil, mlerrors.New(mlerrors.InvalidParameter, "service.New", "configuration has none of single, pipeline, or offloading")
	}
	if err != nil {
		return nil, err
	}

	entries, err := informationEntries(top.Information)
	if err != nil {
		_ = svc.Close(ctx)
		return nil, err
	}
	for k, v := range entries {
		if err := svc.SetInformation(k, v); err != nil {
			_ = svc.Close(ctx)
			return nil, err
		}
	}

	return svc, nil
}

func newExtensionService(ctx context.Context, configJSON []byte, deps Deps) (*Service, error) {
	ext, err := extension.New(ctx, configJSON, deps.ExtensionDeps)
	if err != nil {
		return nil, err
	}
	return &Service{kind: KindExtension, logger: deps.Logger, ext: ext}, nil
}

func newHostedService(ctx context.Context, pipelineRaw []byte, deps Deps) (*Service, error) {
	if deps.Host == nil {
		return nil, mlerrors.New(mlerrors.InvalidParameter, "service.newHostedService", "pipelinehost.Host must be configured")
	}
	spec, err := parseHostedPipeline(pipelineRaw)
	if err != nil {
		return nil, err
	}

	hp := &hostedPipeline{host: deps.Host, info: infomap.NewInformation()}

	id, err := deps.Host.Launch(ctx, spec.Key, hp.onState)
	if err != nil {
		return nil, err
	}
	hp.id = id

	return &Service{kind: KindHosted, logger: deps.Logger, hosted: hp}, nil
}

func newOffloadingService(ctx context.Context, offloadingRaw, servicesRaw []byte, deps Deps) (*Service, error) {
	off, err := offloading.New(ctx, offloadingRaw, servicesRaw, deps.OffloadingDeps)
	if err != nil {
		return nil, err
	}
	return &Service{kind: KindOffloading, logger: deps.Logger, off: off}, nil
}

func (hp *hostedPipeline) onState(old, new pipelineruntime.State) {
	hp.mu.Lock()
	cb := hp.eventCB
	hp.mu.Unlock()
	if cb == nil {
		return
	}
	payload := infomap.NewInformation()
	_ = payload.Set("old", old.String(), nil)
	_ = payload.Set("new", new.String(), nil)
	cb(payload)
}

// Kind reports which variant this Service wraps.
func (s *Service) Kind() Kind { return s.kind }

// Start issues the "start" operation for the active variant.
func (s *Service) Start(ctx context.Context) error {
	switch s.kind {
	case KindExtension:
		return s.ext.Start(ctx)
	case KindHosted:
		return s.hosted.host.Start(ctx, s.hosted.id)
	case KindOffloading:
		// Offloading's "start" only blocks for a receiver in training
		// mode (internal/offloading.Endpoint.Start waits out the
		// staging watchdog); it is a no-op otherwise, since
		// training.go's sender-side setup already ran as a side effect
		// of offloading.New.
		return s.off.Start(ctx)
	default:
		return mlerrors.New(mlerrors.InvalidParameter, "service.Start", "unknown variant")
	}
}

// Stop issues the "stop" operation for the active variant.
func (s *Service) Stop(ctx context.Context) error {
	switch s.kind {
	case KindExtension:
		return s.ext.Stop(ctx)
	case KindHosted:
		return s.hosted.host.Stop(ctx, s.hosted.id)
	case KindOffloading:
		return s.off.Stop(ctx)
	default:
		return mlerrors.New(mlerrors.InvalidParameter, "service.Stop", "unknown variant")
	}
}

// Request implements the request operation: enqueue into the Extension
// worker's request queue, send as an offloading message, or fail with
// NotSupported for a Hosted pipeline (it has no addressable node).
func (s *Service) Request(ctx context.Context, name string, data *tensor.Data) error {
	switch s.kind {
	case KindExtension:
		return s.ext.Request(name, data)
	case KindHosted:
		return mlerrors.New(mlerrors.NotSupported, "service.Request", "request is not supported on a hosted pipeline")
	case KindOffloading:
		return s.off.Request(ctx, name, data)
	default:
		return mlerrors.New(mlerrors.InvalidParameter, "service.Request", "unknown variant")
	}
}

// GetInputInformation forwards to the Extension sub-variant; it is
// NotSupported for Hosted and Offloading, which have no declared tensor
// shape of their own.
func (s *Service) GetInputInformation(name string) (*tensor.TensorsInfo, error) {
	if s.kind != KindExtension {
		return nil, mlerrors.New(mlerrors.NotSupported, "service.GetInputInformation", "only supported on an extension handle")
	}
	return s.ext.GetInputInformation(name)
}

// GetOutputInformation is the output-side counterpart of GetInputInformation.
func (s *Service) GetOutputInformation(name string) (*tensor.TensorsInfo, error) {
	if s.kind != KindExtension {
		return nil, mlerrors.New(mlerrors.NotSupported, "service.GetOutputInformation", "only supported on an extension handle")
	}
	return s.ext.GetOutputInformation(name)
}

// SetEventCallback stores the handler invoked for every event the
// active variant raises, translating each variant's native event shape
// into a single InformationMap payload routed through a thread-safe
// callback slot.
func (s *Service) SetEventCallback(cb func(*infomap.Map)) {
	switch s.kind {
	case KindExtension:
		s.ext.SetEventCallback(cb)
	case KindHosted:
		s.hosted.mu.Lock()
		s.hosted.eventCB = cb
		s.hosted.mu.Unlock()
	case KindOffloading:
		s.off.SetEventCallback(func(ev offloading.Event) {
			if cb == nil {
				return
			}
			_ = ev.Info.Set("event", ev.Kind.String(), nil)
			cb(ev.Info)
		})
	}
}

// SetInformation stores a key/value pair under the handle, routing
// recognized keys to the active variant (some keys are consumed by the
// variant itself) and storing everything else in a generic allow-list map.
func (s *Service) SetInformation(key string, value interface{}) error {
	switch s.kind {
	case KindExtension:
		return s.ext.SetInformation(key, value)
	case KindHosted:
		return s.hosted.info.Set(key, value, nil)
	case KindOffloading:
		return s.off.SetInformation(key, value)
	default:
		return mlerrors.New(mlerrors.InvalidParameter, "service.SetInformation", "unknown variant")
	}
}

// GetInformation returns the value last stored for key by SetInformation.
// The offloading variant consumes "path" without storing it, so that key
// is not returned there.
func (s *Service) GetInformation(key string) (interface{}, bool) {
	switch s.kind {
	case KindExtension:
		return s.ext.GetInformation(key)
	case KindHosted:
		return s.hosted.info.Get(key)
	case KindOffloading:
		return s.off.GetInformation(key)
	default:
		return nil, false
	}
}

// Close tears down the active variant: clears the event callback first,
// then releases the variant-specific resource.
// Always safe to call.
func (s *Service) Close(ctx context.Context) error {
	s.SetEventCallback(nil)
	switch s.kind {
	case KindExtension:
		return s.ext.Close()
	case KindHosted:
		return s.hosted.host.Destroy(ctx, s.hosted.id)
	case KindOffloading:
		return s.off.Close()
	default:
		return nil
	}
}
