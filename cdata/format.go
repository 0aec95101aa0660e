//go:build cgo

package cdata

import "github.com/apache/arrow-go/v18/arrow"

// toFormat maps a DataType to its C Data Interface format grapheme. See
// https://arrow.apache.org/docs/format/CDataInterface.html#data-type-description-format-strings
func toFormat(dt arrow.DataType) (string, error) {
	if dt == nil {
		return "", newError(ErrUnsupportedType, "nil data type")
	}

	switch dt.ID() {
	case arrow.NULL:
		return "n", nil
	case arrow.BOOL:
		return "b", nil
	case arrow.INT8:
		return "c", nil
	case arrow.UINT8:
		return "C", nil
	case arrow.INT16:
		return "s", nil
	case arrow.UINT16:
		return "S", nil
	case arrow.INT32:
		return "i", nil
	case arrow.UINT32:
		return "I", nil
	case arrow.INT64:
		return "l", nil
	case arrow.UINT64:
		return "L", nil
	case arrow.FLOAT16:
		return "e", nil
	case arrow.FLOAT32:
		return "f", nil
	case arrow.FLOAT64:
		return "g", nil
	case arrow.BINARY:
		return "z", nil
	case arrow.LARGE_BINARY:
		return "Z", nil
	case arrow.STRING:
		return "u", nil
	case arrow.LARGE_STRING:
		return "U", nil
	case arrow.DATE32:
		return "tdD", nil
	case arrow.DATE64:
		return "tdm", nil
	case arrow.TIME32:
		tt, ok := dt.(*arrow.Time32Type)
		if !ok {
			return "", newErrorf(ErrUnsupportedType, "malformed time32 type %s", dt)
		}
		switch tt.Unit {
		case arrow.Second:
			return "tts", nil
		case arrow.Millisecond:
			return "ttm", nil
		default:
			return "", newErrorf(ErrUnsupportedType, "unsupported time32 unit %s", tt.Unit)
		}
	case arrow.TIME64:
		tt, ok := dt.(*arrow.Time64Type)
		if !ok {
			return "", newErrorf(ErrUnsupportedType, "malformed time64 type %s", dt)
		}
		switch tt.Unit {
		case arrow.Microsecond:
			return "ttu", nil
		case arrow.Nanosecond:
			return "ttn", nil
		default:
			return "", newErrorf(ErrUnsupportedType, "unsupported time64 unit %s", tt.Unit)
		}
	case arrow.LIST:
		return "+l", nil
	case arrow.LARGE_LIST:
		return "+L", nil
	case arrow.STRUCT:
		return "+s", nil
	default:
		return "", newErrorf(ErrUnsupportedType, "data type %s has no C Data Interface format", dt)
	}
}

// toField decodes a schema descriptor into a Field, recursing through
// children for nested types. See the format table in toFormat above; this
// is its inverse.
func toField(schema *CSchema) (arrow.Field, error) {
	format, err := schema.Format()
	if err != nil {
		return arrow.Field{}, err
	}
	name := schema.Name()
	nullable := schema.Nullable()

	var dt arrow.DataType
	switch format {
	case "n":
		dt = arrow.Null
	case "b":
		dt = arrow.FixedWidthTypes.Boolean
	case "c":
		dt = arrow.PrimitiveTypes.Int8
	case "C":
		dt = arrow.PrimitiveTypes.Uint8
	case "s":
		dt = arrow.PrimitiveTypes.Int16
	case "S":
		dt = arrow.PrimitiveTypes.Uint16
	case "i":
		dt = arrow.PrimitiveTypes.Int32
	case "I":
		dt = arrow.PrimitiveTypes.Uint32
	case "l":
		dt = arrow.PrimitiveTypes.Int64
	case "L":
		dt = arrow.PrimitiveTypes.Uint64
	case "e":
		dt = arrow.FixedWidthTypes.Float16
	case "f":
		dt = arrow.PrimitiveTypes.Float32
	case "g":
		dt = arrow.PrimitiveTypes.Float64
	case "z":
		dt = arrow.BinaryTypes.Binary
	case "Z":
		dt = arrow.BinaryTypes.LargeBinary
	case "u":
		dt = arrow.BinaryTypes.String
	case "U":
		dt = arrow.BinaryTypes.LargeString
	case "tdD":
		dt = arrow.FixedWidthTypes.Date32
	case "tdm":
		dt = arrow.FixedWidthTypes.Date64
	case "tts":
		dt = arrow.FixedWidthTypes.Time32s
	case "ttm":
		dt = arrow.FixedWidthTypes.Time32ms
	case "ttu":
		dt = arrow.FixedWidthTypes.Time64us
	case "ttn":
		dt = arrow.FixedWidthTypes.Time64ns
	case "+l":
		elem, err := decodeChildField(schema, 0)
		if err != nil {
			return arrow.Field{}, err
		}
		dt = arrow.ListOfField(elem)
	case "+L":
		elem, err := decodeChildField(schema, 0)
		if err != nil {
			return arrow.Field{}, err
		}
		dt = arrow.LargeListOfField(elem)
	case "+s":
		n := schema.NumChildren()
		fields := make([]arrow.Field, n)
		for i := 0; i < n; i++ {
			f, err := decodeChildField(schema, i)
			if err != nil {
				return arrow.Field{}, err
			}
			fields[i] = f
		}
		dt = arrow.StructOf(fields...)
	default:
		return arrow.Field{}, newErrorf(ErrUnsupportedType, "format %q is not supported", format)
	}

	return arrow.Field{Name: name, Type: dt, Nullable: nullable}, nil
}

func decodeChildField(schema *CSchema, index int) (arrow.Field, error) {
	child, err := schema.Child(index)
	if err != nil {
		return arrow.Field{}, err
	}
	return toField(child)
}
