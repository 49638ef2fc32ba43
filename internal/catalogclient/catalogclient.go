// Package catalogclient adapts internal/catalogipc.Client onto the
// narrow catalog interfaces each of internal/extension, internal/offloading,
// and internal/pipelinehost declare for themselves, so the daemons in
// cmd/ can hand every Service handle the same IPC-backed catalog
// connection regardless of which variant it constructs.
package catalogclient

import (
	"context"
	"encoding/json"

	"github.com/nnstreamer/ml-service-core/internal/catalogipc"
	"github.com/nnstreamer/ml-service-core/internal/extension"
	"github.com/nnstreamer/ml-service-core/pkg/mlerrors"
)

// Catalog wraps a catalogipc.Client. Every method pkg/catalog.Store
// exposes over IPC is already shaped to match internal/offloading's and
// internal/pipelinehost's catalog interfaces exactly; only
// extension.ModelCatalog.GetModelActivated needs a return-type
// conversion, since catalogipc.Client returns the raw JSON reply while
// extension expects its own narrow *extension.ModelRow.
type Catalog struct {
	*catalogipc.Client
}

// New wraps an already-dialed catalogipc.Client.
func New(c *catalogipc.Client) *Catalog {
	return &Catalog{Client: c}
}

// GetModelActivated satisfies extension.ModelCatalog.
func (c *Catalog) GetModelActivated(ctx context.Context, name string) (*extension.ModelRow, error) {
	raw, err := c.Client.GetModelActivated(ctx, name)
	if err != nil {
		return nil, err
	}
	var row struct {
		Path string
	}
	if err := json.Unmarshal(raw, &row); err != nil {
		return nil, mlerrors.Wrap(mlerrors.InvalidParameter, "catalogclient.GetModelActivated", err)
	}
	return &extension.ModelRow{Path: row.Path}, nil
}

// Unavailable satisfies every catalog interface in the module with a
// constant "no catalog daemon reachable" error, so a Service handle
// whose config never references a "key" still constructs cleanly when
// no catalog-daemon socket was reachable at startup.
type Unavailable struct{}

func (Unavailable) GetModelActivated(ctx context.Context, name string) (*extension.ModelRow, error) {
	return nil, mlerrors.New(mlerrors.NotSupported, "catalogclient.GetModelActivated", "no catalog daemon reachable")
}

func (Unavailable) GetPipeline(ctx context.Context, name string) (string, error) {
	return "", mlerrors.New(mlerrors.NotSupported, "catalogclient.GetPipeline", "no catalog daemon reachable")
}

func (Unavailable) RegisterModel(ctx context.Context, name, path string, activate bool, description, appInfo string) (uint32, error) {
	return 0, mlerrors.New(mlerrors.NotSupported, "catalogclient.RegisterModel", "no catalog daemon reachable")
}

func (Unavailable) SetPipeline(ctx context.Context, name, description string) error {
	return mlerrors.New(mlerrors.NotSupported, "catalogclient.SetPipeline", "no catalog daemon reachable")
}
