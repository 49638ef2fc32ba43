// Package pipelineruntime is the narrow interface this module requires
// from an external streaming-pipeline graph executor. The real
// executor is explicitly out of scope; this interface and its
// in-memory fake (see the fake subpackage) exist so the core is
// testable without one, grounded on the teacher's pattern of a narrow
// interface in front of a heavy external system (pkg/storage.Storage
// in front of cloud SDKs).
package pipelineruntime

import "context"

// State mirrors the underlying runtime's pipeline state machine.
type State int

const (
	StateUnknown State = iota
	StateNull
	StateReady
	StatePaused
	StatePlaying
)

func (s State) String() string {
	switch s {
	case StateNull:
		return "NULL"
	case StateReady:
		return "READY"
	case StatePaused:
		return "PAUSED"
	case StatePlaying:
		return "PLAYING"
	default:
		return "UNKNOWN"
	}
}

// DataPolicy controls ownership of a buffer handed to a Source.
type DataPolicy int

const (
	// AutoFree means the runtime takes ownership and frees the buffer
	// once consumed.
	AutoFree DataPolicy = iota
	// DoNotFree means the caller retains ownership; the runtime must not
	// free or retain the buffer beyond the call.
	DoNotFree
	// EosEvent signals end-of-stream instead of carrying data.
	EosEvent
)

// StateFunc is invoked asynchronously whenever a Pipeline's state changes.
type StateFunc func(old, new State)

// SinkFunc is invoked asynchronously whenever a registered Sink produces data.
type SinkFunc func(data []byte, info map[string]string)

// Source is a named input element of a running Pipeline.
type Source interface {
	// InputData pushes a buffer into the pipeline under the given policy.
	InputData(data []byte, policy DataPolicy) error
}

// Sink is a named output element of a running Pipeline, with its
// callback registered via Pipeline.RegisterSink.
type Sink interface {
	Unregister() error
}

// Pipeline is a constructed, drivable instance of a pipeline description.
type Pipeline interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	State() State
	Source(name string) (Source, error)
	RegisterSink(name string, cb SinkFunc) (Sink, error)
}

// Runtime constructs and destroys Pipelines from textual descriptions.
type Runtime interface {
	Construct(ctx context.Context, description string, onState StateFunc) (Pipeline, error)
	Destroy(p Pipeline) error
}
