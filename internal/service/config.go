package service

import (
	"encoding/json"
	"strings"

	"github.com/nnstreamer/ml-service-core/pkg/mlerrors"
)

// topLevel is the top-level config grammar, restricted to what the
// factory needs to pick a variant: it leaves "single"/"pipeline"/
// "offloading" as raw JSON so the chosen sub-package can parse its own
// object shape.
type topLevel struct {
	Single     json.RawMessage `json:"single"`
	Pipeline   json.RawMessage `json:"pipeline"`
	Offloading json.RawMessage `json:"offloading"`
	Services   json.RawMessage `json:"services"`
	Information json.RawMessage `json:"information"`
}

// hostedPipelineSpec is the subset of the "pipeline" config object a
// hosted-pipeline config carries: just enough to resolve a pipeline
// through the catalog, with none of the input_node/output_node wiring
// that distinguishes the Extension Pipeline sub-variant.
type hostedPipelineSpec struct {
	Key string `json:"key"`
}

func parseTopLevel(data []byte) (*topLevel, error) {
	var t topLevel
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, mlerrors.Wrap(mlerrors.InvalidParameter, "service.parseTopLevel", err)
	}
	return &t, nil
}

// isHostedPipeline distinguishes the Hosted-pipeline variant ("joins the
// Pipeline host by reference via the Catalog") from the Extension
// Pipeline sub-variant: the config grammar only names one "pipeline"
// object, so this factory reads the presence of input_node/output_node
// as the discriminant — a pipeline block that wires no I/O nodes has
// nothing for the Extension's request queue to address and is instead
// handed to the pipelinehost table, where Request is invalid.
func isHostedPipeline(raw json.RawMessage) (bool, error) {
	var probe struct {
		InputNode  json.RawMessage `json:"input_node"`
		OutputNode json.RawMessage `json:"output_node"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return false, mlerrors.Wrap(mlerrors.InvalidParameter, "service.isHostedPipeline", err)
	}
	return len(probe.InputNode) == 0 && len(probe.OutputNode) == 0, nil
}

func parseHostedPipeline(raw json.RawMessage) (*hostedPipelineSpec, error) {
	var s hostedPipelineSpec
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, mlerrors.Wrap(mlerrors.InvalidParameter, "service.parseHostedPipeline", err)
	}
	if strings.TrimSpace(s.Key) == "" {
		return nil, mlerrors.New(mlerrors.InvalidParameter, "service.parseHostedPipeline", "hosted pipeline requires key")
	}
	return &s, nil
}

// informationEntries decodes the "information" config object into a
// key/value map. The members' order in the config text is not kept:
// callers that range over the map see them in an unspecified order.
func informationEntries(raw json.RawMessage) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var m map[string]string
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, mlerrors.Wrap(mlerrors.InvalidParameter, "service.informationEntries", err)
	}
	return m, nil
}
