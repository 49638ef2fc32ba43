// Package tensor implements the immutable-shape tensor metadata and the
// data buffers that carry values between a Service handle and its
// extension worker or pipeline.
package tensor

import (
	"fmt"

	"github.com/nnstreamer/ml-service-core/pkg/mlerrors"
)

// MaxRank is the largest number of axes a TensorInfo can describe.
const MaxRank = 16

// LegacyRank is the rank cap for a non-extended TensorsInfo.
const LegacyRank = 4

// MaxTensors is the largest number of tensors a TensorsInfo/TensorsData
// bundle may carry.
const MaxTensors = 16

// ElemType enumerates the element types a tensor axis may carry.
type ElemType int

const (
	Unknown ElemType = iota
	Int8
	UInt8
	Int16
	UInt16
	Int32
	UInt32
	Int64
	UInt64
	Float16
	Float32
	Float64
)

// Size returns the byte size of one element of this type, or 0 for Unknown.
func (t ElemType) Size() int {
	switch t {
	case Int8, UInt8:
		return 1
	case Int16, UInt16, Float16:
		return 2
	case Int32, UInt32, Float32:
		return 4
	case Int64, UInt64, Float64:
		return 8
	default:
		return 0
	}
}

func (t ElemType) String() string {
	switch t {
	case Int8:
		return "int8"
	case UInt8:
		return "uint8"
	case Int16:
		return "int16"
	case UInt16:
		return "uint16"
	case Int32:
		return "int32"
	case UInt32:
		return "uint32"
	case Int64:
		return "int64"
	case UInt64:
		return "uint64"
	case Float16:
		return "float16"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	default:
		return "unknown"
	}
}

// AllowFloat16 gates Float16 support the way the source's compile-time
// flag does. Flip at build time for targets that support half-precision.
var AllowFloat16 = true

// TensorInfo is the immutable-shape metadata for a single tensor: an
// optional name, its element type, and its per-axis dimensions.
type TensorInfo struct {
	Name      string
	ElemType  ElemType
	Dimension [MaxRank]uint32
}

// SetType validates and stores elemType. UNKNOWN is always rejected;
// Float16 is rejected unless AllowFloat16 is set.
func (ti *TensorInfo) SetType(elemType ElemType) error {
	if elemType == Unknown {
		return mlerrors.New(mlerrors.InvalidParameter, "tensor.SetType", "element type must not be UNKNOWN")
	}
	if elemType == Float16 && !AllowFloat16 {
		return mlerrors.New(mlerrors.InvalidParameter, "tensor.SetType", "float16 support is not compiled in")
	}
	ti.ElemType = elemType
	return nil
}

// SetDimension validates dim against the rank/dimension validity rule and stores
// it. extended raises the rank cap from LegacyRank to MaxRank.
//
// A dim vector is valid if, for some rank r <= cap, dim[0:r] are all
// non-zero and dim[r:] are all zero: the first zero determines rank,
// and no non-zero value may follow it.
func (ti *TensorInfo) SetDimension(dim []uint32, extended bool) error {
	rankCap := LegacyRank
	if extended {
		rankCap = MaxRank
	}
	if len(dim) > MaxRank {
		return mlerrors.New(mlerrors.InvalidParameter, "tensor.SetDimension", "dimension vector longer than MAX_RANK")
	}

	seenZero := -1
	for i, d := range dim {
		if d == 0 {
			if seenZero < 0 {
				seenZero = i
			}
			continue
		}
		if seenZero >= 0 {
			return mlerrors.New(mlerrors.InvalidParameter, "tensor.SetDimension", "non-zero axis follows a zero axis")
		}
		if i >= rankCap {
			return mlerrors.New(mlerrors.InvalidParameter, "tensor.SetDimension", "rank exceeds the axis cap for this info")
		}
	}

	var out [MaxRank]uint32
	copy(out[:], dim)
	ti.Dimension = out
	return nil
}

// Rank returns the number of non-zero leading axes.
func (ti *TensorInfo) Rank() int {
	for i, d := range ti.Dimension {
		if d == 0 {
			return i
		}
	}
	return MaxRank
}

// ByteSize returns the product of the non-zero dimensions times the
// element size, or 0 if the element type or rank is unset.
func (ti *TensorInfo) ByteSize() uint64 {
	elemSize := ti.ElemType.Size()
	if elemSize == 0 {
		return 0
	}
	size := uint64(elemSize)
	rank := ti.Rank()
	if rank == 0 {
		return 0
	}
	for i := 0; i < rank; i++ {
		size *= uint64(ti.Dimension[i])
	}
	return size
}

// Equal reports whether ti and other describe the same tensor.
func (ti *TensorInfo) Equal(other *TensorInfo) bool {
	if other == nil {
		return false
	}
	return ti.Name == other.Name && ti.ElemType == other.ElemType && ti.Dimension == other.Dimension
}

// Clone returns a deep copy of ti.
func (ti *TensorInfo) Clone() *TensorInfo {
	clone := *ti
	return &clone
}

func (ti *TensorInfo) String() string {
	return fmt.Sprintf("TensorInfo{name=%q, type=%s, rank=%d}", ti.Name, ti.ElemType, ti.Rank())
}
