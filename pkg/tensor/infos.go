package tensor

import "github.com/nnstreamer/ml-service-core/pkg/mlerrors"

// TensorsInfo is an ordered bundle of TensorInfo, 1..MaxTensors long.
// IsExtended raises the per-tensor rank cap from LegacyRank to MaxRank.
type TensorsInfo struct {
	Tensors    []TensorInfo
	IsExtended bool
}

// NewTensorsInfo returns an empty, non-extended TensorsInfo with count
// slots, all zero-valued. count must be in [1, MaxTensors].
func NewTensorsInfo(count int) (*TensorsInfo, error) {
	if count < 1 || count > MaxTensors {
		return nil, mlerrors.New(mlerrors.InvalidParameter, "tensor.NewTensorsInfo", "count out of range [1,16]")
	}
	return &TensorsInfo{Tensors: make([]TensorInfo, count)}, nil
}

// SetCount resizes the bundle, preserving existing entries up to the new
// length and zero-filling any new slots. n must be in [1, MaxTensors].
func (ti *TensorsInfo) SetCount(n int) error {
	if n < 1 || n > MaxTensors {
		return mlerrors.New(mlerrors.InvalidParameter, "tensor.SetCount", "count out of range [1,16]")
	}
	next := make([]TensorInfo, n)
	copy(next, ti.Tensors)
	ti.Tensors = next
	return nil
}

// Count returns the number of tensors in the bundle.
func (ti *TensorsInfo) Count() int { return len(ti.Tensors) }

// Set stores info at index i, validating the shape against IsExtended.
func (ti *TensorsInfo) Set(i int, name string, elemType ElemType, dim []uint32) error {
	if i < 0 || i >= len(ti.Tensors) {
		return mlerrors.New(mlerrors.InvalidParameter, "tensor.Set", "index out of range")
	}
	var t TensorInfo
	t.Name = name
	if err := t.SetType(elemType); err != nil {
		return err
	}
	if err := t.SetDimension(dim, ti.IsExtended); err != nil {
		return err
	}
	ti.Tensors[i] = t
	return nil
}

// Get returns a copy of the TensorInfo at index i.
func (ti *TensorsInfo) Get(i int) (TensorInfo, error) {
	if i < 0 || i >= len(ti.Tensors) {
		return TensorInfo{}, mlerrors.New(mlerrors.InvalidParameter, "tensor.Get", "index out of range")
	}
	return ti.Tensors[i], nil
}

// ByteSize returns the total byte size across all tensors if index < 0,
// otherwise the byte size of the tensor at index.
func (ti *TensorsInfo) ByteSize(index int) (uint64, error) {
	if index < 0 {
		var total uint64
		for i := range ti.Tensors {
			total += ti.Tensors[i].ByteSize()
		}
		return total, nil
	}
	if index >= len(ti.Tensors) {
		return 0, mlerrors.New(mlerrors.InvalidParameter, "tensor.ByteSize", "index out of range")
	}
	return ti.Tensors[index].ByteSize(), nil
}

// Validate reports whether every tensor in the bundle has a known
// element type and a non-empty rank.
func (ti *TensorsInfo) Validate() error {
	if len(ti.Tensors) < 1 || len(ti.Tensors) > MaxTensors {
		return mlerrors.New(mlerrors.InvalidParameter, "tensor.Validate", "tensor count out of range")
	}
	for i := range ti.Tensors {
		t := &ti.Tensors[i]
		if t.ElemType == Unknown {
			return mlerrors.New(mlerrors.InvalidParameter, "tensor.Validate", "tensor has unknown element type")
		}
		if t.Rank() == 0 {
			return mlerrors.New(mlerrors.InvalidParameter, "tensor.Validate", "tensor has zero rank")
		}
	}
	return nil
}

// Clone returns a deep copy of ti. It fails if ti does not validate.
func (ti *TensorsInfo) Clone() (*TensorsInfo, error) {
	if err := ti.Validate(); err != nil {
		return nil, err
	}
	out := &TensorsInfo{
		Tensors:    make([]TensorInfo, len(ti.Tensors)),
		IsExtended: ti.IsExtended,
	}
	copy(out.Tensors, ti.Tensors)
	return out, nil
}

// Compare performs an order-sensitive element-wise equality check.
func (ti *TensorsInfo) Compare(other *TensorsInfo) bool {
	if other == nil || len(ti.Tensors) != len(other.Tensors) || ti.IsExtended != other.IsExtended {
		return false
	}
	for i := range ti.Tensors {
		if !ti.Tensors[i].Equal(&other.Tensors[i]) {
			return false
		}
	}
	return true
}
