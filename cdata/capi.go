//go:build cgo

// Package cdata implements the Arrow C Data Interface: zero-copy export and
// import of columnar array data between independent runtimes sharing a
// process, per https://arrow.apache.org/docs/format/CDataInterface.html.
//
// Two ABI records cross the boundary: a schema descriptor (type/field
// information) and an array descriptor (buffers, children, length). Each
// carries its own release callback; this package owns construction,
// release, and the reconstruction of arrow-go array.Data trees on import.
//
// All direct C-struct field access lives in this file. Every other file in
// the package (schema.go, array.go, bufshape.go, bridge.go) talks to the
// descriptors only through the accessor functions declared here, so that a
// single cgo preamble, and therefore a single definition of struct
// ArrowSchema/struct ArrowArray, governs the whole package.
package cdata

/*
#include <stdint.h>
#include <stdlib.h>
#include <string.h>

struct ArrowSchema {
	const char* format;
	const char* name;
	const char* metadata;
	int64_t flags;
	int64_t n_children;
	struct ArrowSchema** children;
	struct ArrowSchema* dictionary;
	void (*release)(struct ArrowSchema*);
	void* private_data;
};

struct ArrowArray {
	int64_t length;
	int64_t null_count;
	int64_t offset;
	int64_t n_buffers;
	int64_t n_children;
	const void** buffers;
	struct ArrowArray** children;
	struct ArrowArray* dictionary;
	void (*release)(struct ArrowArray*);
	void* private_data;
};

extern void cdataGoReleaseSchema(struct ArrowSchema* schema);
extern void cdataGoReleaseArray(struct ArrowArray* array);

static void cdata_schema_set_release(struct ArrowSchema* schema) {
	schema->release = cdataGoReleaseSchema;
}

static void cdata_array_set_release(struct ArrowArray* array) {
	array->release = cdataGoReleaseArray;
}

static void cdata_call_schema_release(struct ArrowSchema* schema) {
	if (schema != NULL && schema->release != NULL) {
		schema->release(schema);
	}
}

static void cdata_call_array_release(struct ArrowArray* array) {
	if (array != NULL && array->release != NULL) {
		array->release(array);
	}
}
*/
import "C"

import "unsafe"

// CSchema is the C-ABI schema descriptor record (FFI_ArrowSchema in the
// Arrow docs). Field order and width match the C Data Interface exactly;
// the type exists so producer and consumer can exchange its address as an
// unsafe.Pointer without either side depending on cgo types directly.
type CSchema C.struct_ArrowSchema

// CArray is the C-ABI array descriptor record (FFI_ArrowArray).
type CArray C.struct_ArrowArray

func cSchema(s *CSchema) *C.struct_ArrowSchema { return (*C.struct_ArrowSchema)(unsafe.Pointer(s)) }
func cArrayC(a *CArray) *C.struct_ArrowArray    { return (*C.struct_ArrowArray)(unsafe.Pointer(a)) }

// --- generic C memory helpers -----------------------------------------

func cMalloc(size uintptr) unsafe.Pointer {
	return C.malloc(C.size_t(size))
}

func cFree(p unsafe.Pointer) {
	if p != nil {
		C.free(p)
	}
}

func cStringNew(s string) unsafe.Pointer {
	return unsafe.Pointer(C.CString(s))
}

func cGoString(p unsafe.Pointer) string {
	return C.GoString((*C.char)(p))
}

const ptrSize = unsafe.Sizeof(unsafe.Pointer(nil))

func writePointerAt(block unsafe.Pointer, i int, v unsafe.Pointer) {
	*(*unsafe.Pointer)(unsafe.Pointer(uintptr(block) + uintptr(i)*ptrSize)) = v
}

func readPointerAt(block unsafe.Pointer, i int) unsafe.Pointer {
	return *(*unsafe.Pointer)(unsafe.Pointer(uintptr(block) + uintptr(i)*ptrSize))
}

func readInt32At(block unsafe.Pointer, i int) int32 {
	return *(*int32)(unsafe.Pointer(uintptr(block) + uintptr(i)*4))
}

func readInt64At(block unsafe.Pointer, i int) int64 {
	return *(*int64)(unsafe.Pointer(uintptr(block) + uintptr(i)*8))
}

// --- schema accessors ---------------------------------------------------

func mallocSchema() *CSchema {
	return (*CSchema)(unsafe.Pointer((*C.struct_ArrowSchema)(cMalloc(unsafe.Sizeof(C.struct_ArrowSchema{})))))
}

func zeroSchema(s *CSchema) {
	*cSchema(s) = C.struct_ArrowSchema{}
}

func schemaIsReleased(s *CSchema) bool {
	return cSchema(s).release == nil
}

func schemaFormatPtr(s *CSchema) unsafe.Pointer { return unsafe.Pointer(cSchema(s).format) }
func schemaSetFormat(s *CSchema, p unsafe.Pointer) {
	cSchema(s).format = (*C.char)(p)
}

func schemaNamePtr(s *CSchema) unsafe.Pointer { return unsafe.Pointer(cSchema(s).name) }
func schemaSetName(s *CSchema, p unsafe.Pointer) {
	cSchema(s).name = (*C.char)(p)
}

func schemaFlags(s *CSchema) int64 { return int64(cSchema(s).flags) }
func schemaSetFlags(s *CSchema, v int64) {
	cSchema(s).flags = C.int64_t(v)
}

func schemaNumChildren(s *CSchema) int { return int(cSchema(s).n_children) }
func schemaSetNumChildren(s *CSchema, n int) {
	cSchema(s).n_children = C.int64_t(n)
}

func schemaChildrenBlock(s *CSchema) unsafe.Pointer { return unsafe.Pointer(cSchema(s).children) }
func schemaSetChildrenBlock(s *CSchema, block unsafe.Pointer) {
	cSchema(s).children = (**C.struct_ArrowSchema)(block)
}

func schemaChildPtrAt(s *CSchema, i int) *CSchema {
	block := schemaChildrenBlock(s)
	if block == nil {
		return nil
	}
	return (*CSchema)(readPointerAt(block, i))
}

func schemaPrivateData(s *CSchema) unsafe.Pointer { return cSchema(s).private_data }
func schemaSetPrivateData(s *CSchema, v unsafe.Pointer) {
	cSchema(s).private_data = v
}

func schemaArmRelease(s *CSchema) {
	C.cdata_schema_set_release(cSchema(s))
}

func schemaClearRelease(s *CSchema) {
	cSchema(s).release = nil
}

func schemaInvokeRelease(s *CSchema) {
	C.cdata_call_schema_release(cSchema(s))
}

func schemaFreeSelf(s *CSchema) {
	cFree(unsafe.Pointer(cSchema(s)))
}

// --- array accessors ------------------------------------------------------

func mallocArray() *CArray {
	return (*CArray)(unsafe.Pointer((*C.struct_ArrowArray)(cMalloc(unsafe.Sizeof(C.struct_ArrowArray{})))))
}

func zeroArray(a *CArray) {
	*cArrayC(a) = C.struct_ArrowArray{}
}

func arrayIsReleased(a *CArray) bool { return cArrayC(a).release == nil }

func arrayLength(a *CArray) int64    { return int64(cArrayC(a).length) }
func arrayOffset(a *CArray) int64    { return int64(cArrayC(a).offset) }
func arrayNullCount(a *CArray) int64 { return int64(cArrayC(a).null_count) }
func arrayNBuffers(a *CArray) int64  { return int64(cArrayC(a).n_buffers) }
func arrayNChildren(a *CArray) int64 { return int64(cArrayC(a).n_children) }

func arraySetLength(a *CArray, v int64)    { cArrayC(a).length = C.int64_t(v) }
func arraySetOffset(a *CArray, v int64)    { cArrayC(a).offset = C.int64_t(v) }
func arraySetNullCount(a *CArray, v int64) { cArrayC(a).null_count = C.int64_t(v) }
func arraySetNBuffers(a *CArray, v int64)  { cArrayC(a).n_buffers = C.int64_t(v) }
func arraySetNChildren(a *CArray, v int64) { cArrayC(a).n_children = C.int64_t(v) }

func arrayBuffersBlock(a *CArray) unsafe.Pointer { return unsafe.Pointer(cArrayC(a).buffers) }
func arraySetBuffersBlock(a *CArray, block unsafe.Pointer) {
	cArrayC(a).buffers = (*unsafe.Pointer)(block)
}

func arrayBufferPtrAt(a *CArray, i int) unsafe.Pointer {
	block := arrayBuffersBlock(a)
	if block == nil {
		return nil
	}
	return readPointerAt(block, i)
}

func arrayChildrenBlock(a *CArray) unsafe.Pointer { return unsafe.Pointer(cArrayC(a).children) }
func arraySetChildrenBlock(a *CArray, block unsafe.Pointer) {
	cArrayC(a).children = (**C.struct_ArrowArray)(block)
}

func arrayChildPtrAt(a *CArray, i int) *CArray {
	block := arrayChildrenBlock(a)
	if block == nil {
		return nil
	}
	return (*CArray)(readPointerAt(block, i))
}

func arrayPrivateData(a *CArray) unsafe.Pointer { return cArrayC(a).private_data }
func arraySetPrivateData(a *CArray, v unsafe.Pointer) {
	cArrayC(a).private_data = v
}

func arrayArmRelease(a *CArray) {
	C.cdata_array_set_release(cArrayC(a))
}

func arrayClearRelease(a *CArray) {
	cArrayC(a).release = nil
}

func arrayInvokeRelease(a *CArray) {
	C.cdata_call_array_release(cArrayC(a))
}

func arrayFreeSelf(a *CArray) {
	cFree(unsafe.Pointer(cArrayC(a)))
}

// --- exported release trampolines ----------------------------------------
//
// These are the C-callable function pointers installed by
// schemaArmRelease/arrayArmRelease. The actual teardown logic lives in
// schema.go/array.go as releaseSchemaImpl/releaseArrayImpl; this indirection
// exists only because a //export function and the C declarations it
// satisfies must share one cgo preamble.

//export cdataGoReleaseSchema
func cdataGoReleaseSchema(c *C.struct_ArrowSchema) {
	releaseSchemaImpl((*CSchema)(unsafe.Pointer(c)))
}

//export cdataGoReleaseArray
func cdataGoReleaseArray(c *C.struct_ArrowArray) {
	releaseArrayImpl((*CArray)(unsafe.Pointer(c)))
}
