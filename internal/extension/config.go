package extension

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/nnstreamer/ml-service-core/pkg/mlerrors"
	"github.com/nnstreamer/ml-service-core/pkg/tensor"
)

// singleSpec is the "single" config object.
type singleSpec struct {
	Key        string          `json:"key"`
	Model      string          `json:"model"`
	Framework  string          `json:"framework"`
	InputInfo  json.RawMessage `json:"input_info"`
	OutputInfo json.RawMessage `json:"output_info"`
	Custom     string          `json:"custom"`
}

// pipelineSpec is the "pipeline" config object.
type pipelineSpec struct {
	Key         string          `json:"key"`
	Description string          `json:"description"`
	InputNode   json.RawMessage `json:"input_node"`
	OutputNode  json.RawMessage `json:"output_node"`
}

type nodeJSON struct {
	Name string          `json:"name"`
	Info json.RawMessage `json:"info"`
}

type tensorInfoJSON struct {
	Type      string `json:"type"`
	Dimension string `json:"dimension"`
	Name      string `json:"name"`
}

// topLevel is the top-level config object, restricted to the keys
// the extension worker cares about (services/information are handled
// one layer up, by the Service handle factory).
type topLevel struct {
	Single   *singleSpec   `json:"single"`
	Pipeline *pipelineSpec `json:"pipeline"`
}

func parseTopLevel(data []byte) (*topLevel, error) {
	var t topLevel
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, mlerrors.Wrap(mlerrors.InvalidParameter, "extension.parseTopLevel", err)
	}
	return &t, nil
}

// parseNodeArr accepts a Node or an array of Node.
func parseNodeArr(raw json.RawMessage) ([]nodeJSON, error) {
	if len(raw) == 0 {
		return nil, mlerrors.New(mlerrors.InvalidParameter, "extension.parseNodeArr", "node list must not be empty")
	}
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		var nodes []nodeJSON
		if err := json.Unmarshal(raw, &nodes); err != nil {
			return nil, mlerrors.Wrap(mlerrors.InvalidParameter, "extension.parseNodeArr", err)
		}
		return nodes, nil
	}
	var node nodeJSON
	if err := json.Unmarshal(raw, &node); err != nil {
		return nil, mlerrors.Wrap(mlerrors.InvalidParameter, "extension.parseNodeArr", err)
	}
	return []nodeJSON{node}, nil
}

// parseTensorsInfo accepts a TensorInfo or an array of TensorInfo.
func parseTensorsInfo(raw json.RawMessage) (*tensor.TensorsInfo, error) {
	if len(raw) == 0 {
		return nil, mlerrors.New(mlerrors.InvalidParameter, "extension.parseTensorsInfo", "info must not be empty")
	}

	var entries []tensorInfoJSON
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(raw, &entries); err != nil {
			return nil, mlerrors.Wrap(mlerrors.InvalidParameter, "extension.parseTensorsInfo", err)
		}
	} else {
		var one tensorInfoJSON
		if err := json.Unmarshal(raw, &one); err != nil {
			return nil, mlerrors.Wrap(mlerrors.InvalidParameter, "extension.parseTensorsInfo", err)
		}
		entries = []tensorInfoJSON{one}
	}

	info, err := tensor.NewTensorsInfo(len(entries))
	if err != nil {
		return nil, err
	}
	for i, e := range entries {
		elemType, err := elemTypeFromString(e.Type)
		if err != nil {
			return nil, err
		}
		dim, err := dimensionFromString(e.Dimension)
		if err != nil {
			return nil, err
		}
		if err := info.Set(i, e.Name, elemType, dim); err != nil {
			return nil, err
		}
	}
	return info, nil
}

func elemTypeFromString(s string) (tensor.ElemType, error) {
	switch strings.ToLower(s) {
	case "int8":
		return tensor.Int8, nil
	case "uint8":
		return tensor.UInt8, nil
	case "int16":
		return tensor.Int16, nil
	case "uint16":
		return tensor.UInt16, nil
	case "int32":
		return tensor.Int32, nil
	case "uint32":
		return tensor.UInt32, nil
	case "int64":
		return tensor.Int64, nil
	case "uint64":
		return tensor.UInt64, nil
	case "float16":
		return tensor.Float16, nil
	case "float32":
		return tensor.Float32, nil
	case "float64":
		return tensor.Float64, nil
	default:
		return tensor.Unknown, mlerrors.New(mlerrors.InvalidParameter, "extension.elemTypeFromString", "unknown tensor type: "+s)
	}
}

// dimensionFromString parses "d0:d1:...:dn" into a []uint32.
func dimensionFromString(s string) ([]uint32, error) {
	if s == "" {
		return nil, mlerrors.New(mlerrors.InvalidParameter, "extension.dimensionFromString", "dimension must not be empty")
	}
	parts := strings.Split(s, ":")
	dim := make([]uint32, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return nil, mlerrors.New(mlerrors.InvalidParameter, "extension.dimensionFromString", "invalid dimension component: "+p)
		}
		dim[i] = uint32(v)
	}
	return dim, nil
}

// modelPaths splits a possibly comma-joined model path list.
func modelPaths(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
