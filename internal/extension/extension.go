// Package extension implements the Single and Pipeline sub-variants of
// the Service handle: a bounded FIFO request queue drained by a
// dedicated worker goroutine that either invokes a single-shot
// inference handle or pushes data into a constructed pipeline, emitting
// NewData events as results arrive. Grounded on
// internal/ome-agent/serving-agent/serving_agent.go's worker-loop shape
// (a long-running goroutine draining work with a timeout-bounded pop),
// generalized from "watch a ConfigMap, download+unzip models" to "pop a
// request, invoke, emit"; the bounded-queue-with-back-pressure idiom is
// grounded on pkg/distributor's mutex-guarded table pattern.
package extension

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/nnstreamer/ml-service-core/pkg/infomap"
	"github.com/nnstreamer/ml-service-core/pkg/logging"
	"github.com/nnstreamer/ml-service-core/pkg/mlerrors"
	"github.com/nnstreamer/ml-service-core/pkg/pipelineruntime"
	"github.com/nnstreamer/ml-service-core/pkg/singleshot"
	"github.com/nnstreamer/ml-service-core/pkg/tensor"
)

const (
	defaultMaxInput = 5
	defaultTimeout  = 200 * time.Millisecond
)

// Kind distinguishes the two sub-variants.
type Kind int

const (
	KindSingle Kind = iota
	KindPipeline
)

// ModelRow is the subset of a catalog model row the Single sub-variant
// needs to resolve a "key" to a model path.
type ModelRow struct {
	Path string
}

// ModelCatalog resolves a "key" to its activated model, narrowed from
// pkg/catalog.Store so this package does not need a direct dependency
// on the SQL store.
type ModelCatalog interface {
	GetModelActivated(ctx context.Context, name string) (*ModelRow, error)
}

// PipelineCatalog resolves a pipeline "key" to its stored description.
type PipelineCatalog interface {
	GetPipeline(ctx context.Context, name string) (string, error)
}

// Deps bundles every external dependency an Extension's constructors need.
type Deps struct {
	SingleOpener    singleshot.Opener
	ModelCatalog    ModelCatalog
	Runtime         pipelineruntime.Runtime
	PipelineCatalog PipelineCatalog
	Logger          logging.Interface
}

type request struct {
	nodeName string
	data     *tensor.Data
}

// Extension is the running Single or Pipeline sub-variant.
type Extension struct {
	kind   Kind
	logger logging.Interface

	single singleshot.Handle

	pipeline     pipelineruntime.Pipeline
	runtime      pipelineruntime.Runtime
	inputNodes   map[string]pipelineruntime.Source
	inputInfos   map[string]*tensor.TensorsInfo
	outputInfos  map[string]*tensor.TensorsInfo
	sinks        []pipelineruntime.Sink

	info *infomap.Map

	mu       sync.Mutex
	maxInput int
	timeout  time.Duration
	queue    []request
	running  bool
	eventCB  func(*infomap.Map)

	notify chan struct{}
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New parses configJSON against the top-level grammar and dispatches to
// the Single or Pipeline constructor based on which key is present.
func New(ctx context.Context, configJSON []byte, deps Deps) (*Extension, error) {
	if deps.Logger == nil {
		deps.Logger = logging.NewNopLogger()
	}

	top, err := parseTopLevel(configJSON)
	if err != nil {
		return nil, err
	}

	switch {
	case top.Single != nil:
		return newSingle(ctx, deps, top.Single)
	case top.Pipeline != nil:
		return newPipeline(ctx, deps, top.Pipeline)
	default:
		return nil, mlerrors.New(mlerrors.InvalidParameter, "extension.New", "configuration has neither a single nor a pipeline object")
	}
}

func newSingle(ctx context.Context, deps Deps, spec *singleSpec) (*Extension, error) {
	if spec.Key == "" && spec.Model == "" {
		return nil, mlerrors.New(mlerrors.InvalidParameter, "extension.newSingle", "single requires key or model")
	}

	var paths []string
	if spec.Key != "" {
		row, err := deps.ModelCatalog.GetModelActivated(ctx, spec.Key)
		if err != nil {
			return nil, err
		}
		paths = []string{row.Path}
	} else {
		paths = modelPaths(spec.Model)
	}

	var inputInfo, outputInfo *tensor.TensorsInfo
	var err error
	if len(spec.InputInfo) > 0 {
		if inputInfo, err = parseTensorsInfo(spec.InputInfo); err != nil {
			return nil, err
		}
	}
	if len(spec.OutputInfo) > 0 {
		if outputInfo, err = parseTensorsInfo(spec.OutputInfo); err != nil {
			return nil, err
		}
	}

	handle, err := deps.SingleOpener.Open(ctx, paths, spec.Framework, inputInfo, outputInfo)
	if err != nil {
		return nil, mlerrors.Wrap(mlerrors.StreamsPipe, "extension.newSingle", err)
	}

	e := newExtension(KindSingle, deps.Logger)
	e.single = handle
	e.start()
	return e, nil
}

func newPipeline(ctx context.Context, deps Deps, spec *pipelineSpec) (*Extension, error) {
	if spec.Key == "" && spec.Description == "" {
		return nil, mlerrors.New(mlerrors.InvalidParameter, "extension.newPipeline", "pipeline requires key or description")
	}
	if len(spec.InputNode) == 0 || len(spec.OutputNode) == 0 {
		return nil, mlerrors.New(mlerrors.InvalidParameter, "extension.newPipeline", "pipeline requires input_node and output_node")
	}

	description := spec.Description
	if spec.Key != "" {
		d, err := deps.PipelineCatalog.GetPipeline(ctx, spec.Key)
		if err != nil {
			return nil, err
		}
		description = d
	}

	inputNodes, err := parseNodeArr(spec.InputNode)
	if err != nil {
		return nil, err
	}
	outputNodes, err := parseNodeArr(spec.OutputNode)
	if err != nil {
		return nil, err
	}

	p, err := deps.Runtime.Construct(ctx, description, nil)
	if err != nil {
		return nil, mlerrors.Wrap(mlerrors.StreamsPipe, "extension.newPipeline", err)
	}

	e := newExtension(KindPipeline, deps.Logger)
	e.pipeline = p
	e.runtime = deps.Runtime

	for _, n := range inputNodes {
		src, err := p.Source(n.Name)
		if err != nil {
			_ = deps.Runtime.Destroy(p)
			return nil, mlerrors.Wrap(mlerrors.StreamsPipe, "extension.newPipeline", err)
		}
		e.inputNodes[n.Name] = src
		if len(n.Info) > 0 {
			info, err := parseTensorsInfo(n.Info)
			if err != nil {
				_ = deps.Runtime.Destroy(p)
				return nil, err
			}
			e.inputInfos[n.Name] = info
		}
	}

	for _, n := range outputNodes {
		name := n.Name
		sink, err := p.RegisterSink(name, e.makeSinkCallback(name))
		if err != nil {
			_ = deps.Runtime.Destroy(p)
			return nil, mlerrors.Wrap(mlerrors.StreamsPipe, "extension.newPipeline", err)
		}
		e.sinks = append(e.sinks, sink)
		if len(n.Info) > 0 {
			info, err := parseTensorsInfo(n.Info)
			if err != nil {
				_ = deps.Runtime.Destroy(p)
				return nil, err
			}
			e.outputInfos[name] = info
		}
	}

	// Starts the pipeline at creation to fail fast on invalid descriptions.
	if err := p.Start(ctx); err != nil {
		_ = deps.Runtime.Destroy(p)
		return nil, mlerrors.Wrap(mlerrors.StreamsPipe, "extension.newPipeline", err)
	}

	e.start()
	return e, nil
}

func newExtension(kind Kind, logger logging.Interface) *Extension {
	return &Extension{
		kind:        kind,
		logger:      logger,
		inputNodes:  make(map[string]pipelineruntime.Source),
		inputInfos:  make(map[string]*tensor.TensorsInfo),
		outputInfos: make(map[string]*tensor.TensorsInfo),
		info:        infomap.NewInformation(),
		maxInput:    defaultMaxInput,
		timeout:     defaultTimeout,
		notify:      make(chan struct{}, 1),
		stopCh:      make(chan struct{}),
	}
}

func (e *Extension) start() {
	e.mu.Lock()
	e.running = true
	e.mu.Unlock()
	e.wg.Add(1)
	go e.workerLoop()
}

// SetEventCallback registers the handler invoked for every NewData event.
func (e *Extension) SetEventCallback(cb func(*infomap.Map)) {
	e.mu.Lock()
	e.eventCB = cb
	e.mu.Unlock()
}

// Request clones data, enqueues it, and returns immediately, or returns
// a StreamsPipe error if the queue is already at max_input (request
// back-pressure). For the Pipeline sub-variant, nodeName must match a
// registered input node.
func (e *Extension) Request(nodeName string, data *tensor.Data) error {
	if data == nil {
		return mlerrors.New(mlerrors.InvalidParameter, "extension.Request", "data must not be nil")
	}

	if e.kind == KindPipeline {
		e.mu.Lock()
		_, ok := e.inputNodes[nodeName]
		e.mu.Unlock()
		if !ok {
			return mlerrors.New(mlerrors.InvalidParameter, "extension.Request", "unknown input node: "+nodeName)
		}
	}

	cloned, err := tensor.CloneDeep(data)
	if err != nil {
		return err
	}

	e.mu.Lock()
	if e.maxInput > 0 && len(e.queue) >= e.maxInput {
		e.mu.Unlock()
		return mlerrors.New(mlerrors.StreamsPipe, "extension.Request", "request queue full")
	}
	e.queue = append(e.queue, request{nodeName: nodeName, data: cloned})
	e.mu.Unlock()

	select {
	case e.notify <- struct{}{}:
	default:
	}
	return nil
}

// GetInputInformation returns the declared input shape. For Single it
// forwards to the single-shot handle; for Pipeline it looks up the
// node by name.
func (e *Extension) GetInputInformation(name string) (*tensor.TensorsInfo, error) {
	if e.kind == KindSingle {
		return e.single.InputInfo(), nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	info, ok := e.inputInfos[name]
	if !ok {
		return nil, mlerrors.New(mlerrors.InvalidParameter, "extension.GetInputInformation", "unknown input node: "+name)
	}
	return info.Clone()
}

// GetOutputInformation is the output-side counterpart of GetInputInformation.
func (e *Extension) GetOutputInformation(name string) (*tensor.TensorsInfo, error) {
	if e.kind == KindSingle {
		return e.single.OutputInfo(), nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	info, ok := e.outputInfos[name]
	if !ok {
		return nil, mlerrors.New(mlerrors.InvalidParameter, "extension.GetOutputInformation", "unknown output node: "+name)
	}
	return info.Clone()
}

// SetInformation stores a key/value pair verbatim in the handle's
// information map. input_queue_size/max_input and timeout
// (case-insensitive) are also recognized and reconfigure the worker.
func (e *Extension) SetInformation(key string, value interface{}) error {
	switch strings.ToLower(key) {
	case "input_queue_size", "max_input":
		v, err := toUint32(value)
		if err != nil {
			return err
		}
		e.mu.Lock()
		e.maxInput = int(v)
		e.mu.Unlock()
		return e.info.Set(key, value, nil)
	case "timeout":
		v, err := toUint32(value)
		if err != nil {
			return err
		}
		e.mu.Lock()
		e.timeout = time.Duration(v) * time.Millisecond
		e.mu.Unlock()
		return e.info.Set(key, value, nil)
	default:
		return e.info.Set(key, value, nil)
	}
}

// GetInformation returns the value last stored for key by SetInformation.
func (e *Extension) GetInformation(key string) (interface{}, bool) {
	return e.info.Get(key)
}

func toUint32(value interface{}) (uint32, error) {
	switch v := value.(type) {
	case uint32:
		return v, nil
	case int:
		if v < 0 {
			return 0, mlerrors.New(mlerrors.InvalidParameter, "extension.toUint32", "value must not be negative")
		}
		return uint32(v), nil
	case float64:
		if v < 0 {
			return 0, mlerrors.New(mlerrors.InvalidParameter, "extension.toUint32", "value must not be negative")
		}
		return uint32(v), nil
	case string:
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return 0, mlerrors.Wrap(mlerrors.InvalidParameter, "extension.toUint32", err)
		}
		return uint32(n), nil
	default:
		return 0, mlerrors.New(mlerrors.InvalidParameter, "extension.toUint32", "unsupported value type")
	}
}

// Start issues a PAUSED -> PLAYING transition on the underlying pipeline
// (a no-op for the Single sub-variant, which has no state machine
// of its own beyond the worker already started at construction).
func (e *Extension) Start(ctx context.Context) error {
	if e.kind != KindPipeline {
		return nil
	}
	if err := e.pipeline.Start(ctx); err != nil {
		return mlerrors.Wrap(mlerrors.StreamsPipe, "extension.Start", err)
	}
	return nil
}

// Stop issues a PLAYING -> PAUSED transition on the underlying pipeline;
// a no-op for the Single sub-variant.
func (e *Extension) Stop(ctx context.Context) error {
	if e.kind != KindPipeline {
		return nil
	}
	if err := e.pipeline.Stop(ctx); err != nil {
		return mlerrors.Wrap(mlerrors.StreamsPipe, "extension.Stop", err)
	}
	return nil
}

// Close stops the worker and releases the underlying single-shot handle
// or pipeline. Always safe to call, including after a worker fault.
func (e *Extension) Close() error {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return nil
	}
	e.running = false
	e.mu.Unlock()

	close(e.stopCh)
	e.wg.Wait()

	switch e.kind {
	case KindSingle:
		return e.single.Close()
	case KindPipeline:
		for _, s := range e.sinks {
			_ = s.Unregister()
		}
		return e.runtime.Destroy(e.pipeline)
	default:
		return nil
	}
}
