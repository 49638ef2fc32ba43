// Package fake is an in-memory stand-in for pipelineruntime.Runtime,
// used throughout the test suite in place of the real (out-of-scope)
// pipeline graph executor.
package fake

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/nnstreamer/ml-service-core/pkg/mlerrors"
	"github.com/nnstreamer/ml-service-core/pkg/pipelineruntime"
)

// Runtime is a pipelineruntime.Runtime backed by in-process Pipelines.
// A description containing the substring "invalid" fails to parse, and
// one containing "unpausable" fails to reach PAUSED - both are test
// hooks for the "failure to parse or to reach PAUSED -> destroy
// immediately, return a streams-pipe error" path.
type Runtime struct {
	mu        sync.Mutex
	destroyed map[*Pipeline]bool
}

// NewRuntime builds an empty fake Runtime.
func NewRuntime() *Runtime {
	return &Runtime{destroyed: make(map[*Pipeline]bool)}
}

func (r *Runtime) Construct(ctx context.Context, description string, onState pipelineruntime.StateFunc) (pipelineruntime.Pipeline, error) {
	if strings.TrimSpace(description) == "" || strings.Contains(description, "invalid") {
		return nil, mlerrors.New(mlerrors.StreamsPipe, "fake.Runtime.Construct", "failed to parse pipeline description")
	}

	p := &Pipeline{
		description: description,
		state:       pipelineruntime.StateNull,
		onState:     onState,
		sources:     make(map[string]*Source),
		sinks:       make(map[string]*Sink),
	}
	p.setState(pipelineruntime.StateReady)

	if strings.Contains(description, "unpausable") {
		return nil, mlerrors.New(mlerrors.StreamsPipe, "fake.Runtime.Construct", "failed to reach PAUSED")
	}
	p.setState(pipelineruntime.StatePaused)

	return p, nil
}

func (r *Runtime) Destroy(p pipelineruntime.Pipeline) error {
	fp, ok := p.(*Pipeline)
	if !ok {
		return mlerrors.New(mlerrors.InvalidParameter, "fake.Runtime.Destroy", "not a fake pipeline")
	}
	r.mu.Lock()
	r.destroyed[fp] = true
	r.mu.Unlock()
	fp.setState(pipelineruntime.StateNull)
	return nil
}

// Pipeline is the in-memory Pipeline implementation.
type Pipeline struct {
	mu          sync.Mutex
	description string
	state       pipelineruntime.State
	onState     pipelineruntime.StateFunc
	sources     map[string]*Source
	sinks       map[string]*Sink
}

func (p *Pipeline) setState(new pipelineruntime.State) {
	p.mu.Lock()
	old := p.state
	p.state = new
	p.mu.Unlock()
	if p.onState != nil && old != new {
		p.onState(old, new)
	}
}

func (p *Pipeline) Start(ctx context.Context) error {
	p.setState(pipelineruntime.StatePlaying)
	return nil
}

func (p *Pipeline) Stop(ctx context.Context) error {
	p.setState(pipelineruntime.StatePaused)
	return nil
}

func (p *Pipeline) State() pipelineruntime.State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Pipeline) Source(name string) (pipelineruntime.Source, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	src, ok := p.sources[name]
	if !ok {
		src = &Source{pipeline: p, name: name}
		p.sources[name] = src
	}
	return src, nil
}

func (p *Pipeline) RegisterSink(name string, cb pipelineruntime.SinkFunc) (pipelineruntime.Sink, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	sink := &Sink{pipeline: p, name: name, cb: cb}
	p.sinks[name] = sink
	return sink, nil
}

func (p *Pipeline) fanOut(data []byte, info map[string]string) {
	p.mu.Lock()
	sinks := make([]*Sink, 0, len(p.sinks))
	for _, s := range p.sinks {
		sinks = append(sinks, s)
	}
	p.mu.Unlock()
	for _, s := range sinks {
		if s.cb != nil {
			s.cb(data, info)
		}
	}
}

// Source is a named input element; InputData fans the buffer out to
// every registered Sink, standing in for the real executor's internal
// element graph.
type Source struct {
	pipeline *Pipeline
	name     string
}

func (s *Source) InputData(data []byte, policy pipelineruntime.DataPolicy) error {
	if s.pipeline.State() != pipelineruntime.StatePlaying {
		return mlerrors.New(mlerrors.TryAgain, fmt.Sprintf("fake.Source(%s).InputData", s.name), "pipeline not PLAYING")
	}
	s.pipeline.fanOut(data, map[string]string{"source": s.name})
	return nil
}

// Sink is a named output element with a registered callback.
type Sink struct {
	pipeline *Pipeline
	name     string
	cb       pipelineruntime.SinkFunc
}

func (s *Sink) Unregister() error {
	s.pipeline.mu.Lock()
	delete(s.pipeline.sinks, s.name)
	s.pipeline.mu.Unlock()
	return nil
}
