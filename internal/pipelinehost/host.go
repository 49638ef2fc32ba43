// Package pipelinehost is the process-wide table of launched, catalog-
// resolved pipelines. It is grounded on the teacher's
// pkg/distributor pattern of a single mutex-guarded map keyed by a
// monotonic id (activeTorrents/torrentsMu), with the id generator
// itself grounded on the teacher's p2p_lease.go monotonic-under-lock
// idiom.
package pipelinehost

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/nnstreamer/ml-service-core/pkg/logging"
	"github.com/nnstreamer/ml-service-core/pkg/mlerrors"
	"github.com/nnstreamer/ml-service-core/pkg/pipelineruntime"
)

// CatalogResolver resolves a pipeline name to its stored description,
// the pipelinehost's only dependency on pkg/catalog (kept narrow so
// tests can supply a map-backed fake instead of a real Store).
type CatalogResolver interface {
	GetPipeline(ctx context.Context, name string) (string, error)
}

// Entry is one launched pipeline, tracked by id.
type Entry struct {
	ID       uint64
	Name     string
	Pipeline pipelineruntime.Pipeline
}

// Host is the process-wide table of launched pipelines.
type Host struct {
	runtime pipelineruntime.Runtime
	catalog CatalogResolver
	logger  logging.Interface
	nextID  uint64
	mu      sync.RWMutex
	entries map[uint64]*Entry
}

// New builds a Host driving pipelines through runtime, resolving names
// through catalog.
func New(runtime pipelineruntime.Runtime, catalog CatalogResolver, logger logging.Interface) *Host {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Host{
		runtime: runtime,
		catalog: catalog,
		logger:  logger,
		entries: make(map[uint64]*Entry),
	}
}

// Launch resolves name through the catalog, parse-launches its
// description on the runtime, drives it to PAUSED, assigns a monotonic
// id, and inserts it into the host table. A failure to parse or to
// reach PAUSED destroys the half-built pipeline immediately and returns
// a StreamsPipe error.
func (h *Host) Launch(ctx context.Context, name string, onState pipelineruntime.StateFunc) (uint64, error) {
	if name == "" {
		return 0, mlerrors.New(mlerrors.InvalidParameter, "pipelinehost.Launch", "name must not be empty")
	}

	description, err := h.catalog.GetPipeline(ctx, name)
	if err != nil {
		return 0, err
	}

	p, err := h.runtime.Construct(ctx, description, onState)
	if err != nil {
		return 0, mlerrors.Wrap(mlerrors.StreamsPipe, "pipelinehost.Launch", err)
	}

	if p.State() != pipelineruntime.StatePaused {
		_ = h.runtime.Destroy(p)
		return 0, mlerrors.New(mlerrors.StreamsPipe, "pipelinehost.Launch", "pipeline failed to reach PAUSED")
	}

	id := atomic.AddUint64(&h.nextID, 1)

	h.mu.Lock()
	h.entries[id] = &Entry{ID: id, Name: name, Pipeline: p}
	h.mu.Unlock()

	h.logger.Infof("launched pipeline %q as id %d", name, id)
	return id, nil
}

// Get returns the entry for id.
func (h *Host) Get(id uint64) (*Entry, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	e, ok := h.entries[id]
	if !ok {
		return nil, mlerrors.New(mlerrors.InvalidParameter, "pipelinehost.Get", "unknown pipeline id")
	}
	return e, nil
}

// Start issues a PAUSED -> PLAYING transition for id and returns
// immediately; confirmation arrives through the state callback passed
// to Launch.
func (h *Host) Start(ctx context.Context, id uint64) error {
	e, err := h.Get(id)
	if err != nil {
		return err
	}
	if err := e.Pipeline.Start(ctx); err != nil {
		return mlerrors.Wrap(mlerrors.StreamsPipe, "pipelinehost.Start", err)
	}
	return nil
}

// Stop issues a PLAYING -> PAUSED transition for id.
func (h *Host) Stop(ctx context.Context, id uint64) error {
	e, err := h.Get(id)
	if err != nil {
		return err
	}
	if err := e.Pipeline.Stop(ctx); err != nil {
		return mlerrors.Wrap(mlerrors.StreamsPipe, "pipelinehost.Stop", err)
	}
	return nil
}

// Destroy removes id from the host table and releases its native
// handle. The chosen pipelineruntime fake/shim does not exhibit the
// reference platform's query-transport hang, so Destroy first stops a
// PLAYING pipeline (PLAYING -> PAUSED) and then hands it to the
// runtime's Destroy, which takes it to NULL and releases it, instead of
// skipping straight to release.
func (h *Host) Destroy(ctx context.Context, id uint64) error {
	h.mu.Lock()
	e, ok := h.entries[id]
	if ok {
		delete(h.entries, id)
	}
	h.mu.Unlock()

	if !ok {
		return mlerrors.New(mlerrors.InvalidParameter, "pipelinehost.Destroy", "unknown pipeline id")
	}

	if e.Pipeline.State() == pipelineruntime.StatePlaying {
		_ = e.Pipeline.Stop(ctx)
	}

	return h.runtime.Destroy(e.Pipeline)
}

// Len reports the number of currently-hosted pipelines, mainly for tests.
func (h *Host) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}
