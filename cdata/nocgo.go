//go:build !cgo

package cdata

import (
	"unsafe"

	"github.com/apache/arrow-go/v18/arrow"
)

// CSchema and CArray are opaque placeholders when the package is built
// without cgo. No C Data Interface boundary exists in that configuration;
// every error-returning entry point below reports ErrProtocol rather than
// attempting any unsafe layout.
type CSchema struct{}
type CArray struct{}

func (s *CSchema) Release() {}
func (a *CArray) Release()  {}

const errNoCgo = "cdata: built without cgo support, the C Data Interface is unavailable"

// NewSchema is unavailable without cgo.
func NewSchema(field arrow.Field) (*CSchema, error) {
	return nil, newError(ErrProtocol, errNoCgo)
}

// NewArray is unavailable without cgo.
func NewArray(data arrow.ArrayData) (*CArray, error) {
	return nil, newError(ErrProtocol, errNoCgo)
}

// Bridge is unavailable without cgo; BridgeFromData, BridgeFromRaw and
// ToArrayData return ErrProtocol so callers that probe for cgo support at
// runtime get a stable, typed failure instead of a missing symbol.
// BridgeEmpty returns an inert Bridge whose pointers are nil.
type Bridge struct{}

func BridgeFromData(field arrow.Field, data arrow.ArrayData) (*Bridge, error) {
	return nil, newError(ErrProtocol, errNoCgo)
}

func BridgeFromRaw(schemaPtr, arrayPtr unsafe.Pointer) (*Bridge, error) {
	return nil, newError(ErrProtocol, errNoCgo)
}

func BridgeEmpty() *Bridge {
	return &Bridge{}
}

func (b *Bridge) SchemaPtr() unsafe.Pointer { return nil }
func (b *Bridge) ArrayPtr() unsafe.Pointer  { return nil }

func (b *Bridge) IntoRaw() (schemaPtr, arrayPtr unsafe.Pointer) {
	return nil, nil
}

func (b *Bridge) Release() {}

func (b *Bridge) ToArrayData() (arrow.Field, arrow.ArrayData, error) {
	return arrow.Field{}, nil, newError(ErrProtocol, errNoCgo)
}
