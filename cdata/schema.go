//go:build cgo

package cdata

import (
	"runtime/cgo"
	"unicode/utf8"
	"unsafe"

	"github.com/apache/arrow-go/v18/arrow"
)

// schemaPrivate is the producer-private block a constructed schema
// descriptor's private_data points to (via a cgo.Handle). Every resource
// reachable from the descriptor other than the originating Field, the
// format/name strings, the children-pointer vector, the child structs,
// lives in C-allocated memory and is freed directly by releaseSchemaImpl;
// schemaPrivate exists mainly to anchor the handle and keep the Field
// available for producer-side bookkeeping.
type schemaPrivate struct {
	field arrow.Field
}

// NewSchema constructs a schema descriptor for field, recursively building
// one child schema per List/LargeList element or Struct field. Children
// are allocated first so a failure partway through can free everything
// already built; only the final, infallible step populates the descriptor
// itself.
func NewSchema(field arrow.Field) (*CSchema, error) {
	format, err := toFormat(field.Type)
	if err != nil {
		return nil, err
	}

	var childFields []arrow.Field
	switch dt := field.Type.(type) {
	case *arrow.ListType:
		childFields = []arrow.Field{dt.ElemField()}
	case *arrow.LargeListType:
		childFields = []arrow.Field{dt.ElemField()}
	case *arrow.StructType:
		childFields = dt.Fields()
	}

	children := make([]*CSchema, 0, len(childFields))
	for _, cf := range childFields {
		child, err := NewSchema(cf)
		if err != nil {
			for _, built := range children {
				schemaInvokeRelease(built) // frees built's own memory block
			}
			return nil, err
		}
		children = append(children, child)
	}

	var childrenBlock unsafe.Pointer
	if n := len(children); n > 0 {
		childrenBlock = cMalloc(uintptr(n) * ptrSize)
		for i, c := range children {
			writePointerAt(childrenBlock, i, unsafe.Pointer(c))
		}
	}

	var flags int64
	if field.Nullable {
		flags = 2
	}

	h := cgo.NewHandle(&schemaPrivate{field: field})

	s := mallocSchema()
	zeroSchema(s)
	schemaSetFormat(s, cStringNew(format))
	schemaSetName(s, cStringNew(field.Name))
	schemaSetFlags(s, flags)
	schemaSetNumChildren(s, len(children))
	schemaSetChildrenBlock(s, childrenBlock)
	schemaSetPrivateData(s, unsafe.Pointer(uintptr(h)))
	schemaArmRelease(s)

	return s, nil
}

func newEmptySchema() *CSchema {
	s := mallocSchema()
	zeroSchema(s)
	return s
}

// Format returns the schema's format grapheme, validating it as UTF-8.
// spec.md treats a non-UTF-8 format pointer as a protocol violation to be
// reported, not a thing to silently coerce.
func (s *CSchema) Format() (string, error) {
	if schemaIsReleased(s) {
		return "", newError(ErrProtocol, "schema already released")
	}
	raw := cGoString(schemaFormatPtr(s))
	if !utf8.ValidString(raw) {
		return "", newError(ErrNonUTF8Format, "format string is not valid UTF-8")
	}
	return raw, nil
}

// Name returns the schema's field name. A null name pointer is asserted
// against, per spec.md's open-question resolution: CDI permits an empty
// but non-null name; a null name is treated as a producer bug rather than
// silently defaulted to "".
func (s *CSchema) Name() string {
	p := schemaNamePtr(s)
	if p == nil {
		panic("cdata: schema name pointer is null")
	}
	return cGoString(p)
}

// Nullable reports bit 1 of flags.
func (s *CSchema) Nullable() bool {
	return (schemaFlags(s)>>1)&1 == 1
}

// NumChildren returns n_children.
func (s *CSchema) NumChildren() int {
	return schemaNumChildren(s)
}

// Child returns the i'th child schema. Preconditions: release != nil,
// 0 <= i < NumChildren().
func (s *CSchema) Child(i int) (*CSchema, error) {
	n := schemaNumChildren(s)
	if i < 0 || i >= n {
		return nil, newErrorf(ErrProtocol, "schema child index %d out of range (n_children=%d)", i, n)
	}
	child := schemaChildPtrAt(s, i)
	if child == nil {
		return nil, newErrorf(ErrProtocol, "schema child %d is null", i)
	}
	return child, nil
}

// Release invokes the schema's release callback; a no-op if it was
// already released.
func (s *CSchema) Release() {
	schemaInvokeRelease(s)
}

// releaseSchemaImpl is the teardown logic behind the release function
// pointer every constructed schema carries. It frees the format/name
// strings, recursively releases (and thereby frees) every child
// descriptor, frees the children-pointer vector and the producer-private
// block, and finally frees the descriptor's own memory. After that
// nothing may touch it again.
func releaseSchemaImpl(s *CSchema) {
	if s == nil || schemaIsReleased(s) {
		return
	}

	cFree(schemaFormatPtr(s))
	cFree(schemaNamePtr(s))

	if n := schemaNumChildren(s); n > 0 {
		block := schemaChildrenBlock(s)
		if block != nil {
			for i := 0; i < n; i++ {
				if child := (*CSchema)(readPointerAt(block, i)); child != nil {
					// the child's own release call frees its memory block.
					schemaInvokeRelease(child)
				}
			}
			cFree(block)
		}
	}

	if priv := schemaPrivateData(s); priv != nil {
		cgo.Handle(uintptr(priv)).Delete()
	}

	schemaClearRelease(s)
	schemaSetPrivateData(s, nil)
	schemaFreeSelf(s)
}
