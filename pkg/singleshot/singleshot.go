// Package singleshot is the narrow interface this module requires from
// an external single-shot inference engine, the one the Single
// sub-variant wraps. The real engine is explicitly out of scope; this
// interface and its in-memory fake exist so the extension worker is
// testable without one, grounded on the same narrow-interface pattern
// as pkg/pipelineruntime and pkg/edgetransport.
package singleshot

import (
	"context"

	"github.com/nnstreamer/ml-service-core/pkg/tensor"
)

// Handle is an opened single-shot inference session over one or more
// model files.
type Handle interface {
	Invoke(ctx context.Context, input *tensor.Data) (*tensor.Data, error)
	InputInfo() *tensor.TensorsInfo
	OutputInfo() *tensor.TensorsInfo
	Close() error
}

// Opener constructs Handles, mirroring an "opens a single-shot
// inference handle over those options".
type Opener interface {
	Open(ctx context.Context, modelPaths []string, framework string, inputInfo, outputInfo *tensor.TensorsInfo) (Handle, error)
}
