//go:build cgo

package cdata

import (
	"runtime"
	"runtime/cgo"
	"unsafe"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// arrayPrivate is the producer-private block an exported array
// descriptor's private_data points to. Every buffer handle retained by
// the descriptor lives here, so releasing it (via releaseArrayImpl) is
// what actually drops the arrow-go memory.Buffer references this package
// holds on behalf of the C consumer.
type arrayPrivate struct {
	buffers []*memory.Buffer
}

// NewArray builds an array descriptor for data. arrow-go's array.Data
// already orders its Buffers() the way the C Data Interface does (index 0
// is the validity bitmap, possibly nil), so no buffer needs to be
// synthesized or reordered here; it only needs to be retained for the
// private block and exposed as a vector of raw pointers.
func NewArray(data arrow.ArrayData) (*CArray, error) {
	srcBuffers := data.Buffers()
	retained := make([]*memory.Buffer, len(srcBuffers))
	for i, b := range srcBuffers {
		if b != nil {
			b.Retain()
		}
		retained[i] = b
	}

	childData := data.Children()
	children := make([]*CArray, 0, len(childData))
	for _, cd := range childData {
		child, err := NewArray(cd)
		if err != nil {
			for _, built := range children {
				arrayInvokeRelease(built) // frees built's own memory block
			}
			for _, b := range retained {
				if b != nil {
					b.Release()
				}
			}
			return nil, err
		}
		children = append(children, child)
	}

	var bufferBlock unsafe.Pointer
	if n := len(retained); n > 0 {
		bufferBlock = cMalloc(uintptr(n) * ptrSize)
		for i, b := range retained {
			writePointerAt(bufferBlock, i, bufferDataPointer(b))
		}
	}

	var childrenBlock unsafe.Pointer
	if n := len(children); n > 0 {
		childrenBlock = cMalloc(uintptr(n) * ptrSize)
		for i, c := range children {
			writePointerAt(childrenBlock, i, unsafe.Pointer(c))
		}
	}

	h := cgo.NewHandle(&arrayPrivate{buffers: retained})

	a := mallocArray()
	zeroArray(a)
	arraySetLength(a, int64(data.Len()))
	arraySetNullCount(a, int64(data.NullN()))
	arraySetOffset(a, int64(data.Offset()))
	arraySetNBuffers(a, int64(len(retained)))
	arraySetNChildren(a, int64(len(children)))
	arraySetBuffersBlock(a, bufferBlock)
	arraySetChildrenBlock(a, childrenBlock)
	arraySetPrivateData(a, unsafe.Pointer(uintptr(h)))
	arrayArmRelease(a)

	return a, nil
}

func bufferDataPointer(b *memory.Buffer) unsafe.Pointer {
	if b == nil || b.Len() == 0 {
		return nil
	}
	return unsafe.Pointer(&b.Bytes()[0])
}

func newEmptyArray() *CArray {
	a := mallocArray()
	zeroArray(a)
	return a
}

// arrayChild returns the i'th child array descriptor.
func arrayChild(a *CArray, i int) (*CArray, error) {
	n := int(arrayNChildren(a))
	if i < 0 || i >= n {
		return nil, newErrorf(ErrProtocol, "array child index %d out of range (n_children=%d)", i, n)
	}
	child := arrayChildPtrAt(a, i)
	if child == nil {
		return nil, newErrorf(ErrProtocol, "array child %d is null", i)
	}
	return child, nil
}

// rawBufferPointer returns the raw pointer stored at buffers[index],
// without interpreting its length. A null buffers vector or a null entry
// both come back as nil; distinguishing "descriptor has no buffers at
// all" from "this particular buffer is absent" is left to the caller.
func rawBufferPointer(a *CArray, index int) (unsafe.Pointer, error) {
	n := int(arrayNBuffers(a))
	if index < 0 || index >= n {
		return nil, newErrorf(ErrProtocol, "buffer index %d out of range (n_buffers=%d)", index, n)
	}
	return arrayBufferPtrAt(a, index), nil
}

// createBuffer wraps byteLen bytes at array.buffers[index] in an unowned
// memory.Buffer anchored to owner: constructing it retains owner, and a
// finalizer on the returned Buffer releases it when the Buffer is
// collected. This is the concrete mechanism behind spec.md's "owner
// liveness" property; Go has no deterministic Drop, so a GC finalizer is
// the idiomatic stand-in, the same technique the bridge's own Bridge type
// uses to safety-net a forgotten Release() (see bridge.go).
func createBuffer(owner *arrayOwner, arr *CArray, index int, byteLen int64) (*memory.Buffer, error) {
	raw, err := rawBufferPointer(arr, index)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	var data []byte
	if byteLen > 0 {
		data = unsafe.Slice((*byte)(raw), int(byteLen))
	}
	buf := memory.NewBufferBytes(data)

	owner.retain()
	runtime.SetFinalizer(buf, func(*memory.Buffer) {
		owner.release()
	})
	return buf, nil
}

// Release invokes the array's release callback; a no-op if it was
// already released.
func (a *CArray) Release() {
	arrayInvokeRelease(a)
}

// releaseArrayImpl is the teardown logic behind the release function
// pointer every constructed array carries. It releases the retained
// buffers, recursively releases (and thereby frees) every child
// descriptor, frees the buffers and children vectors and the
// producer-private block, and finally frees the descriptor's own memory.
func releaseArrayImpl(a *CArray) {
	if a == nil || arrayIsReleased(a) {
		return
	}

	if priv := arrayPrivateData(a); priv != nil {
		h := cgo.Handle(uintptr(priv))
		p := h.Value().(*arrayPrivate)
		for _, b := range p.buffers {
			if b != nil {
				b.Release()
			}
		}
		h.Delete()
	}

	if block := arrayBuffersBlock(a); block != nil {
		cFree(block)
	}

	if n := int(arrayNChildren(a)); n > 0 {
		block := arrayChildrenBlock(a)
		if block != nil {
			for i := 0; i < n; i++ {
				if child := (*CArray)(readPointerAt(block, i)); child != nil {
					// the child's own release call frees its memory block.
					arrayInvokeRelease(child)
				}
			}
			cFree(block)
		}
	}

	arrayClearRelease(a)
	arraySetPrivateData(a, nil)
	arrayFreeSelf(a)
}
