//go:build cgo

package cdata

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/bitutil"
)

// bitWidth returns the bit width of buffer index i (0 = validity bitmap,
// always 1 bit; others depend on the type) for a value of type dt, per
// the C Data Interface's buffer layout table. Primitive types have
// exactly 2 buffers (validity, data) and variable-width types have
// exactly 3 (validity, offsets, data); any index beyond what the type
// actually has is a protocol violation, not a guess.
func bitWidth(dt arrow.DataType, i int) (int, error) {
	if i == 0 {
		return 1, nil
	}

	switch dt.ID() {
	case arrow.BOOL:
		if i == 1 {
			return 1, nil
		}
		return 0, newErrorf(ErrProtocol, "type %s expects 2 buffers, requested index %d", dt, i)
	case arrow.INT8, arrow.UINT8:
		if i == 1 {
			return 8, nil
		}
		return 0, newErrorf(ErrProtocol, "type %s expects 2 buffers, requested index %d", dt, i)
	case arrow.INT16, arrow.UINT16, arrow.FLOAT16:
		if i == 1 {
			return 16, nil
		}
		return 0, newErrorf(ErrProtocol, "type %s expects 2 buffers, requested index %d", dt, i)
	case arrow.INT32, arrow.UINT32, arrow.FLOAT32, arrow.DATE32, arrow.TIME32:
		if i == 1 {
			return 32, nil
		}
		return 0, newErrorf(ErrProtocol, "type %s expects 2 buffers, requested index %d", dt, i)
	case arrow.INT64, arrow.UINT64, arrow.FLOAT64, arrow.DATE64, arrow.TIME64:
		if i == 1 {
			return 64, nil
		}
		return 0, newErrorf(ErrProtocol, "type %s expects 2 buffers, requested index %d", dt, i)
	case arrow.BINARY, arrow.STRING, arrow.LIST:
		switch i {
		case 1:
			return 32, nil // offsets buffer
		case 2:
			return 8, nil // data buffer
		default:
			return 0, newErrorf(ErrProtocol, "type %s expects 3 buffers, requested index %d", dt, i)
		}
	case arrow.LARGE_BINARY, arrow.LARGE_STRING, arrow.LARGE_LIST:
		switch i {
		case 1:
			return 64, nil
		case 2:
			return 8, nil
		default:
			return 0, newErrorf(ErrProtocol, "type %s expects 3 buffers, requested index %d", dt, i)
		}
	case arrow.STRUCT, arrow.NULL:
		return 0, newErrorf(ErrProtocol, "type %s has no data buffer at index %d", dt, i)
	default:
		return 0, newErrorf(ErrUnsupportedType, "no known buffer layout for type %s", dt)
	}
}

// bufferLen computes the byte length to wrap buffer index i of arr in,
// given arr's logical type. Sizing uses only the array's logical length,
// never length+offset: CDI offsets are a window over a whole buffer, so
// the buffer's own extent does not grow with where the window starts.
func bufferLen(arr *CArray, dt arrow.DataType, i int) (int64, error) {
	length := arrayLength(arr)

	width, err := bitWidth(dt, i)
	if err != nil {
		return 0, err
	}

	switch dt.ID() {
	case arrow.BINARY, arrow.STRING, arrow.LARGE_BINARY, arrow.LARGE_STRING,
		arrow.LIST, arrow.LARGE_LIST:
		if i == 0 {
			return int64(bitutil.BytesForBits(length)), nil
		}
		if i == 1 {
			return int64(bitutil.BytesForBits(int64(width) * (length + 1))), nil
		}
		// data buffer: its length is the offsets buffer's last value, not
		// derivable here without reading that buffer; the caller supplies
		// it directly instead of calling bufferLen for index 2.
		return -1, nil
	default:
		return int64(bitutil.BytesForBits(int64(width) * length)), nil
	}
}
