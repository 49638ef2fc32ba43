package tensor

import "github.com/nnstreamer/ml-service-core/pkg/mlerrors"

// DestroyFunc is the hook a TensorsData buffer may carry in place of the
// default per-tensor free, invoked with the user_data supplied when the
// hook was set.
type DestroyFunc func(data *Data, userData interface{})

// Buffer is a single tensor's raw bytes plus the size the buffer was
// allocated or declared at.
type Buffer struct {
	Ptr      []byte
	ByteSize uint64
}

// Data is a parallel sequence of Buffer aligned one-to-one with a
// TensorsInfo. At most MaxTensors buffers may be present.
type Data struct {
	Buffers   []Buffer
	Info      *TensorsInfo
	destroy   DestroyFunc
	userData  interface{}
	aliasedOf *Data // set by CloneNoAlloc: buffers are shared, not owned
}

// CreateNoAlloc allocates a Data container sized from info, with byte
// sizes filled in but every Ptr left nil. Callers must attach buffers
// before use (see SetTensorData).
func CreateNoAlloc(info *TensorsInfo) (*Data, error) {
	if info == nil {
		return nil, mlerrors.New(mlerrors.InvalidParameter, "tensor.CreateNoAlloc", "info must not be nil")
	}
	if err := info.Validate(); err != nil {
		return nil, err
	}
	buffers := make([]Buffer, len(info.Tensors))
	for i := range info.Tensors {
		buffers[i].ByteSize = info.Tensors[i].ByteSize()
	}
	return &Data{Buffers: buffers, Info: info}, nil
}

// Create allocates a Data container from info and zeroes every buffer.
func Create(info *TensorsInfo) (*Data, error) {
	d, err := CreateNoAlloc(info)
	if err != nil {
		return nil, err
	}
	for i := range d.Buffers {
		d.Buffers[i].Ptr = make([]byte, d.Buffers[i].ByteSize)
	}
	return d, nil
}

// CloneNoAlloc returns a Data that shares src's buffers (aliasing). Used
// for pipeline hand-off where the downstream pipeline owns release; the
// caller must not double-free the shared buffers.
func CloneNoAlloc(src *Data) (*Data, error) {
	if src == nil {
		return nil, mlerrors.New(mlerrors.InvalidParameter, "tensor.CloneNoAlloc", "src must not be nil")
	}
	out := &Data{
		Buffers:   make([]Buffer, len(src.Buffers)),
		Info:      src.Info,
		aliasedOf: src,
	}
	copy(out.Buffers, src.Buffers)
	return out, nil
}

// CloneDeep returns a Data with freshly allocated buffers holding a
// copy of src's bytes, fully independent of src. Used where ownership
// of the clone must outlive the caller's own buffer, e.g. an enqueued
// request ("request(...) clones the input, enqueues...").
func CloneDeep(src *Data) (*Data, error) {
	if src == nil {
		return nil, mlerrors.New(mlerrors.InvalidParameter, "tensor.CloneDeep", "src must not be nil")
	}
	out := &Data{
		Buffers: make([]Buffer, len(src.Buffers)),
		Info:    src.Info,
	}
	for i, b := range src.Buffers {
		out.Buffers[i].ByteSize = b.ByteSize
		if b.Ptr != nil {
			out.Buffers[i].Ptr = make([]byte, len(b.Ptr))
			copy(out.Buffers[i].Ptr, b.Ptr)
		}
	}
	return out, nil
}

// SetDestroy installs a destroy hook, replacing the default per-tensor
// free when the container is released.
func (d *Data) SetDestroy(fn DestroyFunc, userData interface{}) {
	d.destroy = fn
	d.userData = userData
}

// Destroy runs the installed destroy hook, or frees owned buffers.
// Aliased (CloneNoAlloc'd) data never frees the underlying buffers.
func (d *Data) Destroy() {
	if d.destroy != nil {
		d.destroy(d, d.userData)
		return
	}
	if d.aliasedOf != nil {
		return
	}
	for i := range d.Buffers {
		d.Buffers[i].Ptr = nil
	}
}

// Count returns the number of tensors in the bundle.
func (d *Data) Count() int { return len(d.Buffers) }

// GetTensorData returns the buffer at index i.
func (d *Data) GetTensorData(i int) ([]byte, error) {
	if i < 0 || i >= len(d.Buffers) {
		return nil, mlerrors.New(mlerrors.InvalidParameter, "tensor.GetTensorData", "index out of range")
	}
	return d.Buffers[i].Ptr, nil
}

// SetTensorData copies size bytes from src into the buffer at index i.
// size must be in (0, declared byte size].
func (d *Data) SetTensorData(i int, src []byte, size uint64) error {
	if i < 0 || i >= len(d.Buffers) {
		return mlerrors.New(mlerrors.InvalidParameter, "tensor.SetTensorData", "index out of range")
	}
	b := &d.Buffers[i]
	if size == 0 || size > b.ByteSize {
		return mlerrors.New(mlerrors.InvalidParameter, "tensor.SetTensorData", "size must be in (0, declared byte size]")
	}
	if uint64(len(src)) < size {
		return mlerrors.New(mlerrors.InvalidParameter, "tensor.SetTensorData", "src shorter than size")
	}
	b.Ptr = make([]byte, size)
	copy(b.Ptr, src[:size])
	return nil
}
