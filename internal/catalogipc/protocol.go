// Package catalogipc is the named-method façade in front of the catalog
// store. It stands in for the reference platform's system bus: a
// request/response channel with fan-in from multiple clients to a single
// daemon. Every method returns a negated-POSIX status code plus an
// optional JSON payload, grounded on the teacher's metainfo_server.go
// control-plane pattern (a small net/http server alongside JSON bodies).
package catalogipc

import (
	"github.com/nnstreamer/ml-service-core/pkg/mlerrors"
)

// Method names, one per catalog operation.
const (
	MethodSetPipeline            = "set_pipeline"
	MethodGetPipeline            = "get_pipeline"
	MethodDeletePipeline         = "delete_pipeline"
	MethodRegisterModel          = "register_model"
	MethodUpdateModelDescription = "update_model_description"
	MethodActivateModel          = "activate_model"
	MethodGetModel               = "get_model"
	MethodGetModelActivated      = "get_model_activated"
	MethodGetModelAll            = "get_model_all"
	MethodDeleteModel            = "delete_model"
	MethodAddResource            = "add_resource"
	MethodGetResource            = "get_resource"
	MethodDeleteResource         = "delete_resource"
)

// Envelope is the wire shape for every request: a method name plus its
// JSON-encoded arguments, opaque to the transport.
type Envelope struct {
	Method string `json:"method"`
	Args   []byte `json:"args,omitempty"`
}

// Reply carries a negated-POSIX status (0 on success) plus an
// optional JSON-encoded payload.
type Reply struct {
	Status  int    `json:"status"`
	Payload []byte `json:"payload,omitempty"`
}

// statusOf maps an error into the boundary's signed integer code. A nil
// error maps to 0 (success); any error not already an *mlerrors.Error is
// reported as an I/O error, since it crossed the transport boundary.
func statusOf(err error) int {
	if err == nil {
		return 0
	}
	var merr *mlerrors.Error
	if e, ok := err.(*mlerrors.Error); ok {
		merr = e
	} else {
		merr = mlerrors.New(mlerrors.IoError, "catalogipc", err.Error())
	}
	return merr.Errno()
}
