// Package fake is an in-memory stand-in for singleshot.Opener, used by
// the extension worker's test suite in place of the real (out-of-scope)
// inference engine.
package fake

import (
	"context"
	"strings"

	"github.com/nnstreamer/ml-service-core/pkg/mlerrors"
	"github.com/nnstreamer/ml-service-core/pkg/singleshot"
	"github.com/nnstreamer/ml-service-core/pkg/tensor"
)

// Opener builds fake Handles. A model path list containing the string
// "unopenable" fails to open, a test hook standing in for a malformed
// model file.
type Opener struct{}

// NewOpener returns a fresh fake Opener.
func NewOpener() *Opener { return &Opener{} }

func (o *Opener) Open(ctx context.Context, modelPaths []string, framework string, inputInfo, outputInfo *tensor.TensorsInfo) (singleshot.Handle, error) {
	if strings.Contains(strings.Join(modelPaths, ","), "unopenable") {
		return nil, mlerrors.New(mlerrors.StreamsPipe, "fake.Opener.Open", "failed to open model")
	}
	return &Handle{inputInfo: inputInfo, outputInfo: outputInfo}, nil
}

// Handle is a fake single-shot session that ignores its input and
// returns a zeroed buffer shaped like outputInfo.
type Handle struct {
	inputInfo  *tensor.TensorsInfo
	outputInfo *tensor.TensorsInfo
	closed     bool
}

func (h *Handle) Invoke(ctx context.Context, input *tensor.Data) (*tensor.Data, error) {
	if h.closed {
		return nil, mlerrors.New(mlerrors.InvalidParameter, "fake.Handle.Invoke", "handle closed")
	}
	if input == nil {
		return nil, mlerrors.New(mlerrors.InvalidParameter, "fake.Handle.Invoke", "input must not be nil")
	}
	out, err := tensor.Create(h.outputInfo)
	if err != nil {
		return nil, mlerrors.Wrap(mlerrors.OutOfMemory, "fake.Handle.Invoke", err)
	}
	return out, nil
}

func (h *Handle) InputInfo() *tensor.TensorsInfo  { return h.inputInfo }
func (h *Handle) OutputInfo() *tensor.TensorsInfo { return h.outputInfo }

func (h *Handle) Close() error {
	h.closed = true
	return nil
}
