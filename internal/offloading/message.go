package offloading

import (
	"path/filepath"

	"github.com/nnstreamer/ml-service-core/pkg/edgetransport"
	"github.com/nnstreamer/ml-service-core/pkg/mlerrors"
	"github.com/nnstreamer/ml-service-core/pkg/tensor"
)

const (
	infoServiceType = "service-type"
	infoServiceKey  = "service-key"
	infoDescription = "description"
	infoName        = "name"
	infoActivate    = "activate"
)

// buildRequestMessage implements the sender-side request: build a
// message with info fields service-type/service-key (plus the
// descriptor's optional description/name/activate) and attach each
// tensor of data as a blob.
func buildRequestMessage(desc ServiceDescriptor, data *tensor.Data) (edgetransport.Message, error) {
	if data == nil {
		return edgetransport.Message{}, mlerrors.New(mlerrors.InvalidParameter, "offloading.buildRequestMessage", "data must not be nil")
	}
	info := map[string]string{
		infoServiceType: string(desc.ServiceType),
		infoServiceKey:  desc.ServiceKey,
	}
	if desc.Description != "" {
		info[infoDescription] = desc.Description
	}
	if desc.Name != "" {
		info[infoName] = desc.Name
	}
	if desc.Activate {
		info[infoActivate] = "true"
	}

	blobs := make([][]byte, data.Count())
	for i := 0; i < data.Count(); i++ {
		b, err := data.GetTensorData(i)
		if err != nil {
			return edgetransport.Message{}, err
		}
		blobs[i] = b
	}
	return edgetransport.Message{Info: info, Blobs: blobs}, nil
}

// buildRawMessage sends a single opaque blob under a service descriptor,
// used for the training sub-mode's file staging and reply delivery.
func buildRawMessage(serviceType ServiceType, serviceKey string, extra map[string]string, blob []byte) edgetransport.Message {
	info := map[string]string{
		infoServiceType: string(serviceType),
		infoServiceKey:  serviceKey,
	}
	for k, v := range extra {
		info[k] = v
	}
	return edgetransport.Message{Info: info, Blobs: [][]byte{blob}}
}

// safeFileName reduces a peer-supplied name (the "name"/"service-key"
// info field of an inbound message) to its final path element, so a
// value like "../../etc/cron.d/x" cannot escape the save directory it
// is later joined with. An empty or all-traversal name falls back to
// "data".
func safeFileName(name string) string {
	base := filepath.Base(filepath.Clean("/" + name))
	if base == "" || base == "." || base == "/" {
		return "data"
	}
	return base
}
