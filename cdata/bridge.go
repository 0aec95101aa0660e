//go:build cgo

package cdata

import (
	"runtime"
	"sync/atomic"
	"unsafe"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// arrayOwner is the shared refcount behind every memory.Buffer a Bridge
// hands out via createBuffer. One owner is created per imported top-level
// array descriptor and shared by every buffer sliced out of it and its
// descendants, so the C-side memory stays alive until the last Go-side
// buffer referencing it is collected, not just until the first one is.
type arrayOwner struct {
	count  atomic.Int64
	schema *CSchema
	array  *CArray
}

func newArrayOwner(schema *CSchema, arr *CArray) *arrayOwner {
	o := &arrayOwner{schema: schema, array: arr}
	o.count.Store(1)
	return o
}

func (o *arrayOwner) retain() { o.count.Add(1) }

func (o *arrayOwner) release() {
	if o.count.Add(-1) == 0 {
		o.array.Release()
		if o.schema != nil {
			o.schema.Release()
		}
	}
}

// Bridge is the consumer-side handle produced by importing a schema/array
// pair across the C Data Interface boundary. It owns the pair's release
// callbacks via arrayOwner and exposes the imported data as an arrow-go
// arrow.ArrayData tree through ToArrayData.
//
// A Bridge's own reference to the pair is dropped by Release (further
// calls are no-ops); releasing the ArrayData returned by ToArrayData does
// not release the Bridge. The descriptors' release callbacks run once
// both the Bridge and every buffer handed out by ToArrayData have let go
// of the shared arrayOwner. A finalizer is installed as a safety net against a forgotten Release, the same pattern the
// teacher's DataFrame type uses for its own native handle.
type Bridge struct {
	owner    *arrayOwner
	schema   *CSchema
	array    *CArray
	released atomic.Bool
}

// BridgeFromData constructs a schema/array descriptor pair for data and
// wraps it in a Bridge ready to be exported via IntoRaw. This is the
// producer-side entry point: data is retained through the descriptor's
// private data, not copied.
func BridgeFromData(field arrow.Field, data arrow.ArrayData) (*Bridge, error) {
	schema, err := NewSchema(field)
	if err != nil {
		return nil, err
	}
	arr, err := NewArray(data)
	if err != nil {
		schema.Release()
		return nil, err
	}
	return newBridge(schema, arr), nil
}

// BridgeFromRaw adopts a schema/array descriptor pair already populated
// at the given addresses by a foreign producer, taking ownership of their
// release callbacks. Both pointers must be non-null and must not be
// touched by the caller again after this call succeeds.
func BridgeFromRaw(schemaPtr, arrayPtr unsafe.Pointer) (*Bridge, error) {
	if schemaPtr == nil || arrayPtr == nil {
		return nil, newError(ErrNullPointer, "schema or array pointer is null")
	}
	schema := (*CSchema)(schemaPtr)
	arr := (*CArray)(arrayPtr)
	if schemaIsReleased(schema) {
		return nil, newError(ErrProtocol, "schema descriptor already released")
	}
	if arrayIsReleased(arr) {
		return nil, newError(ErrProtocol, "array descriptor already released")
	}
	return newBridge(schema, arr), nil
}

// BridgeEmpty constructs a Bridge around a pair of zeroed descriptors
// (release == NULL, i.e. in the released state), suitable for passing their addresses to a foreign producer
// that will populate them in place (the standard two-step CDI import
// pattern: allocate, hand addresses out, then adopt).
func BridgeEmpty() *Bridge {
	return newBridge(newEmptySchema(), newEmptyArray())
}

func newBridge(schema *CSchema, arr *CArray) *Bridge {
	b := &Bridge{
		owner:  newArrayOwner(schema, arr),
		schema: schema,
		array:  arr,
	}
	runtime.SetFinalizer(b, func(b *Bridge) { b.Release() })
	return b
}

// SchemaPtr and ArrayPtr expose the descriptor addresses for handing to a
// foreign consumer, e.g. as the schema_out/array_out parameters of an
// exported FFI function.
func (b *Bridge) SchemaPtr() unsafe.Pointer { return unsafe.Pointer(b.schema) }
func (b *Bridge) ArrayPtr() unsafe.Pointer  { return unsafe.Pointer(b.array) }

// IntoRaw returns the schema/array descriptor addresses and disarms the
// Bridge's own ownership of them: the caller becomes responsible for
// eventually invoking their release callbacks (typically by the foreign
// consumer, once it is done with the data). Calling any other Bridge
// method after IntoRaw is undefined; the Bridge should be discarded.
func (b *Bridge) IntoRaw() (schemaPtr, arrayPtr unsafe.Pointer) {
	b.released.Store(true)
	runtime.SetFinalizer(b, nil)
	return unsafe.Pointer(b.schema), unsafe.Pointer(b.array)
}

// Release drops the Bridge's ownership of its descriptor pair. Idempotent:
// a second call, or a finalizer call after an explicit Release, is a
// no-op.
func (b *Bridge) Release() {
	if b.released.CompareAndSwap(false, true) {
		b.owner.release()
	}
}

// ToArrayData reconstructs the imported data as an arrow-go ArrayData
// tree rooted at the Bridge's field/array pair. The returned ArrayData
// retains buffers anchored to the Bridge's arrayOwner (see createBuffer),
// so the underlying C memory is kept alive for as long as any of them
// are, independent of whether the Bridge itself has been released.
func (b *Bridge) ToArrayData() (arrow.Field, arrow.ArrayData, error) {
	field, err := toField(b.schema)
	if err != nil {
		return arrow.Field{}, nil, err
	}
	data, err := toArrayData(b.owner, b.schema, b.array, field.Type)
	if err != nil {
		return arrow.Field{}, nil, err
	}
	return field, data, nil
}

// arrowArrayRef is the capability set shared by a Bridge's top-level
// array descriptor and a childView borrowed from a parent's children
// vector: both can be asked for their length/offset/buffer/child
// information without exposing whether they own their own release
// callback.
type arrowArrayRef interface {
	length() int64
	offset() int64
	nullCount() int64
	numBuffers() int
	numChildren() int
	child(i int) (arrowArrayRef, error)
	rawArray() *CArray
}

type topArrayRef struct{ a *CArray }

func (t topArrayRef) length() int64      { return arrayLength(t.a) }
func (t topArrayRef) offset() int64      { return arrayOffset(t.a) }
func (t topArrayRef) nullCount() int64   { return arrayNullCount(t.a) }
func (t topArrayRef) numBuffers() int    { return int(arrayNBuffers(t.a)) }
func (t topArrayRef) numChildren() int   { return int(arrayNChildren(t.a)) }
func (t topArrayRef) rawArray() *CArray  { return t.a }
func (t topArrayRef) child(i int) (arrowArrayRef, error) {
	c, err := arrayChild(t.a, i)
	if err != nil {
		return nil, err
	}
	return topArrayRef{a: c}, nil
}

// toArrayData recursively walks the descriptor tree rooted at arr,
// building arrow-go array.Data nodes whose buffers are backed by
// createBuffer (so every byte stays owned by owner) and whose children
// are built the same way.
func toArrayData(owner *arrayOwner, schema *CSchema, arr *CArray, dt arrow.DataType) (arrow.ArrayData, error) {
	ref := topArrayRef{a: arr}
	return buildArrayData(owner, ref, dt)
}

func buildArrayData(owner *arrayOwner, ref arrowArrayRef, dt arrow.DataType) (arrow.ArrayData, error) {
	arr := ref.rawArray()
	length := ref.length()
	nullN := int(ref.nullCount())
	offset := int(ref.offset())

	buffers, err := buildBuffers(owner, arr, dt)
	if err != nil {
		return nil, err
	}

	numChildren := ref.numChildren()
	children := make([]arrow.ArrayData, 0, numChildren)
	childTypes, err := childDataTypes(dt)
	if err != nil {
		return nil, err
	}
	if len(childTypes) != numChildren && numChildren != 0 {
		return nil, newErrorf(ErrProtocol, "type %s expects %d children, array has %d", dt, len(childTypes), numChildren)
	}
	for i := 0; i < numChildren; i++ {
		childRef, err := ref.child(i)
		if err != nil {
			return nil, err
		}
		childData, err := buildArrayData(owner, childRef, childTypes[i])
		if err != nil {
			return nil, err
		}
		children = append(children, childData)
	}

	data := array.NewData(dt, int(length), buffers, children, nullN, offset)
	for _, c := range children {
		c.Release()
	}
	return data, nil
}

func childDataTypes(dt arrow.DataType) ([]arrow.DataType, error) {
	switch t := dt.(type) {
	case *arrow.ListType:
		return []arrow.DataType{t.Elem()}, nil
	case *arrow.LargeListType:
		return []arrow.DataType{t.Elem()}, nil
	case *arrow.StructType:
		types := make([]arrow.DataType, len(t.Fields()))
		for i, f := range t.Fields() {
			types[i] = f.Type
		}
		return types, nil
	default:
		return nil, nil
	}
}

func buildBuffers(owner *arrayOwner, arr *CArray, dt arrow.DataType) ([]*memory.Buffer, error) {
	n := int(arrayNBuffers(arr))
	buffers := make([]*memory.Buffer, n)
	if n == 0 {
		return buffers, nil
	}

	if ref, err := rawBufferPointer(arr, 0); err != nil {
		return nil, err
	} else if ref != nil {
		validityLen, err := bufferLen(arr, dt, 0)
		if err != nil {
			return nil, err
		}
		buf, err := createBuffer(owner, arr, 0, validityLen)
		if err != nil {
			return nil, err
		}
		buffers[0] = buf
	}

	switch dt.ID() {
	case arrow.BINARY, arrow.STRING, arrow.LARGE_BINARY, arrow.LARGE_STRING:
		if n < 2 {
			return nil, newErrorf(ErrProtocol, "type %s requires an offsets buffer", dt)
		}
		offsetsLen, err := bufferLen(arr, dt, 1)
		if err != nil {
			return nil, err
		}
		offsetsBuf, err := createBuffer(owner, arr, 1, offsetsLen)
		if err != nil {
			return nil, err
		}
		buffers[1] = offsetsBuf

		var dataLen int64
		if offsetsBuf != nil {
			dataLen, err = lastOffsetValue(offsetsBuf, dt, int(arrayLength(arr)))
			if err != nil {
				return nil, err
			}
		}
		if n >= 3 {
			dataBuf, err := createBuffer(owner, arr, 2, dataLen)
			if err != nil {
				return nil, err
			}
			buffers[2] = dataBuf
		}
	default:
		for i := 1; i < n; i++ {
			blen, err := bufferLen(arr, dt, i)
			if err != nil {
				return nil, err
			}
			buf, err := createBuffer(owner, arr, i, blen)
			if err != nil {
				return nil, err
			}
			buffers[i] = buf
		}
	}

	return buffers, nil
}

// lastOffsetValue reads the final entry of an offsets buffer (32-bit for
// Binary/String, 64-bit for the Large variants) to learn the byte length
// of the accompanying data buffer, per the C Data Interface's variable-
// length layout: offsets[n] always equals the data buffer's extent.
func lastOffsetValue(offsets *memory.Buffer, dt arrow.DataType, n int) (int64, error) {
	if n == 0 {
		return 0, nil
	}
	raw := unsafe.Pointer(&offsets.Bytes()[0])
	switch dt.ID() {
	case arrow.BINARY, arrow.STRING:
		return int64(readInt32At(raw, n)), nil
	case arrow.LARGE_BINARY, arrow.LARGE_STRING:
		return readInt64At(raw, n), nil
	default:
		return 0, newErrorf(ErrUnsupportedType, "type %s has no offsets buffer", dt)
	}
}
