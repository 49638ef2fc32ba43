package extension

import (
	"context"
	"time"

	"github.com/nnstreamer/ml-service-core/pkg/infomap"
	"github.com/nnstreamer/ml-service-core/pkg/pipelineruntime"
	"github.com/nnstreamer/ml-service-core/pkg/tensor"
)

// workerLoop drains the request queue. It wakes on notify (a request was
// enqueued), on its own timeout (re-checking running, matching a "pop
// with timeout... on timeout, re-check running, continue" loop), or on
// stopCh (Close was called). A bounded mutex-guarded slice stands in
// for a channel here because max_input and timeout must be adjustable
// at runtime via SetInformation, which a fixed-capacity channel cannot
// support.
func (e *Extension) workerLoop() {
	defer e.wg.Done()
	for {
		e.mu.Lock()
		running := e.running
		timeout := e.timeout
		e.mu.Unlock()
		if !running {
			return
		}

		select {
		case <-e.notify:
		case <-time.After(timeout):
		case <-e.stopCh:
			return
		}

		for {
			e.mu.Lock()
			if len(e.queue) == 0 {
				e.mu.Unlock()
				break
			}
			req := e.queue[0]
			e.queue = e.queue[1:]
			e.mu.Unlock()
			e.process(req)
		}
	}
}

func (e *Extension) process(req request) {
	switch e.kind {
	case KindSingle:
		out, err := e.single.Invoke(context.Background(), req.data)
		req.data.Destroy()
		if err != nil {
			e.logger.Errorf("single invoke failed: %v", err)
			return
		}
		e.emit("", out)
	case KindPipeline:
		e.mu.Lock()
		src, ok := e.inputNodes[req.nodeName]
		e.mu.Unlock()
		if !ok {
			e.logger.Errorf("unknown input node %q", req.nodeName)
			return
		}
		// Ownership of req.data's buffer transfers to the pipeline under
		// AutoFree; it must not be freed here.
		if err := src.InputData(firstBuffer(req.data), pipelineruntime.AutoFree); err != nil {
			e.logger.Errorf("pipeline input failed: %v", err)
		}
	}
}

func firstBuffer(d *tensor.Data) []byte {
	if d == nil || d.Count() == 0 {
		return nil
	}
	b, _ := d.GetTensorData(0)
	return b
}

// makeSinkCallback builds the pipelineruntime.SinkFunc registered for
// output node name, translating its raw bytes into a NewData event.
func (e *Extension) makeSinkCallback(name string) pipelineruntime.SinkFunc {
	return func(data []byte, info map[string]string) {
		e.mu.Lock()
		outInfo := e.outputInfos[name]
		e.mu.Unlock()

		td := &tensor.Data{
			Buffers: []tensor.Buffer{{Ptr: data, ByteSize: uint64(len(data))}},
			Info:    outInfo,
		}
		e.emit(name, td)
	}
}

// emit snapshots the event callback under lock, then invokes it
// unlocked so a slow or reentrant callback cannot stall the worker.
func (e *Extension) emit(name string, data *tensor.Data) {
	e.mu.Lock()
	cb := e.eventCB
	e.mu.Unlock()
	if cb == nil {
		return
	}

	payload := infomap.NewInformation()
	_ = payload.Set("data", data, nil)
	if name != "" {
		_ = payload.Set("name", name, nil)
	}
	cb(payload)
}
