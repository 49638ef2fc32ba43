// Package offloading implements the Offloading sub-variant of the
// Service handle: a sender/receiver pair exchanging typed
// messages over an edge transport, plus a training sub-mode
// that stages files on the receiver before a trained model is shipped
// back. Grounded on pkg/distributor's sender/receiver peer-role split
// and internal/ome-agent/training-agent/training_agent.go's staged
// multi-step lifecycle, generalized from an HTTP fine-tuning sidecar
// to a message-driven protocol over the narrow edgetransport interface.
package offloading

import (
	"encoding/json"
	"strings"

	"github.com/nnstreamer/ml-service-core/pkg/edgetransport"
	"github.com/nnstreamer/ml-service-core/pkg/mlerrors"
)

// ServiceType is the wire-level discriminant of a service descriptor
// (the "service-type" info field).
type ServiceType string

const (
	ServiceModelRaw    ServiceType = "model_raw"
	ServiceModelURI    ServiceType = "model_uri"
	ServicePipelineRaw ServiceType = "pipeline_raw"
	ServicePipelineURI ServiceType = "pipeline_uri"
	ServiceReply       ServiceType = "reply"
	// ServiceLaunch ("launch") is intentionally unimplemented: no caller
	// in this module exercises it yet.
)

// ServiceDescriptor is one row of the "services" table: a user key's
// wire-level service-type, service-key, and optional registration
// metadata used when the receiver dispatches a model_raw/model_uri message.
type ServiceDescriptor struct {
	ServiceType ServiceType `json:"service-type"`
	ServiceKey  string      `json:"service-key"`
	Description string      `json:"description,omitempty"`
	Name        string      `json:"name,omitempty"`
	Activate    bool        `json:"activate,omitempty"`
}

// config is the "offloading" config object.
type config struct {
	NodeType   string `json:"node-type"`
	Host       string `json:"host"`
	Port       int    `json:"port"`
	DestHost   string `json:"dest-host"`
	DestPort   int    `json:"dest-port"`
	ConnectType string `json:"connect-type"`
	Topic      string `json:"topic"`
	ID         string `json:"id"`
	Path       string `json:"path"`
	Training   *trainingConfig `json:"training"`
}

type trainingConfig struct {
	SenderPipeline string            `json:"sender-pipeline"`
	TransferData   map[string]string `json:"transfer-data"`
	TimeLimitS     int               `json:"time-limit"`
}

func parseConfig(data []byte) (*config, error) {
	var c config
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, mlerrors.Wrap(mlerrors.InvalidParameter, "offloading.parseConfig", err)
	}
	if c.NodeType != "sender" && c.NodeType != "receiver" {
		return nil, mlerrors.New(mlerrors.InvalidParameter, "offloading.parseConfig", "node-type must be sender or receiver")
	}
	if c.NodeType == "sender" {
		if c.DestHost == "" || c.DestPort == 0 || c.ConnectType == "" || c.Topic == "" {
			return nil, mlerrors.New(mlerrors.InvalidParameter, "offloading.parseConfig", "sender requires dest-host, dest-port, connect-type, topic")
		}
	}
	return &c, nil
}

func (c *config) role() edgetransport.Role {
	if c.NodeType == "sender" {
		return edgetransport.RoleSender
	}
	return edgetransport.RoleReceiver
}

func connectTypeFromString(s string) edgetransport.ConnectType {
	switch strings.ToUpper(s) {
	case "TCP":
		return edgetransport.ConnectTCP
	case "HYBRID", "MQTT", "AITT":
		// Neither MQTT nor AITT nor the HYBRID blend have a distinct
		// in-module shim; they route through the same connection-oriented
		// transport as TCP.
		return edgetransport.ConnectTCP
	default:
		return edgetransport.ConnectTCP
	}
}

func parseServices(data []byte) (map[string]ServiceDescriptor, error) {
	if len(data) == 0 {
		return map[string]ServiceDescriptor{}, nil
	}
	var services map[string]ServiceDescriptor
	if err := json.Unmarshal(data, &services); err != nil {
		return nil, mlerrors.Wrap(mlerrors.InvalidParameter, "offloading.parseServices", err)
	}
	return services, nil
}
