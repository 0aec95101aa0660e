//go:build cgo

package cdata

import (
	"errors"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/stretchr/testify/suite"
)

type FormatTestSuite struct {
	suite.Suite
}

func TestFormatTestSuite(t *testing.T) {
	suite.Run(t, new(FormatTestSuite))
}

func (s *FormatTestSuite) TestPrimitiveRoundTrip() {
	cases := []arrow.DataType{
		arrow.FixedWidthTypes.Boolean,
		arrow.PrimitiveTypes.Int8,
		arrow.PrimitiveTypes.Uint8,
		arrow.PrimitiveTypes.Int16,
		arrow.PrimitiveTypes.Uint16,
		arrow.PrimitiveTypes.Int32,
		arrow.PrimitiveTypes.Uint32,
		arrow.PrimitiveTypes.Int64,
		arrow.PrimitiveTypes.Uint64,
		arrow.PrimitiveTypes.Float32,
		arrow.PrimitiveTypes.Float64,
		arrow.BinaryTypes.Binary,
		arrow.BinaryTypes.LargeBinary,
		arrow.BinaryTypes.String,
		arrow.BinaryTypes.LargeString,
		arrow.FixedWidthTypes.Date32,
		arrow.FixedWidthTypes.Date64,
		arrow.FixedWidthTypes.Time32s,
		arrow.FixedWidthTypes.Time32ms,
		arrow.FixedWidthTypes.Time64us,
		arrow.FixedWidthTypes.Time64ns,
	}

	for _, dt := range cases {
		format, err := toFormat(dt)
		s.Require().NoError(err, dt.String())

		schema, err := NewSchema(arrow.Field{Name: "f", Type: dt, Nullable: true})
		s.Require().NoError(err)
		defer schema.Release()

		got, err := schema.Format()
		s.Require().NoError(err)
		s.Equal(format, got)

		field, err := toField(schema)
		s.Require().NoError(err)
		s.True(arrow.TypeEqual(dt, field.Type), "%s != %s", dt, field.Type)
	}
}

func (s *FormatTestSuite) TestNestedRoundTrip() {
	listType := arrow.ListOf(arrow.PrimitiveTypes.Int32)
	schema, err := NewSchema(arrow.Field{Name: "items", Type: listType, Nullable: true})
	s.Require().NoError(err)
	defer schema.Release()

	s.Equal(1, schema.NumChildren())
	field, err := toField(schema)
	s.Require().NoError(err)
	s.True(arrow.TypeEqual(listType, field.Type))

	structType := arrow.StructOf(
		arrow.Field{Name: "a", Type: arrow.PrimitiveTypes.Int32},
		arrow.Field{Name: "b", Type: arrow.BinaryTypes.String, Nullable: true},
	)
	structSchema, err := NewSchema(arrow.Field{Name: "s", Type: structType})
	s.Require().NoError(err)
	defer structSchema.Release()

	s.Equal(2, structSchema.NumChildren())
	gotField, err := toField(structSchema)
	s.Require().NoError(err)
	s.True(arrow.TypeEqual(structType, gotField.Type))
}

func (s *FormatTestSuite) TestUnsupportedTypeIsReported() {
	_, err := toFormat(arrow.Decimal128Type{Precision: 10, Scale: 2})
	s.Require().Error(err)
	s.True(errors.Is(err, SentinelUnsupportedType))
}

func (s *FormatTestSuite) TestChildOutOfRange() {
	schema, err := NewSchema(arrow.Field{Name: "n", Type: arrow.PrimitiveTypes.Int32})
	s.Require().NoError(err)
	defer schema.Release()

	_, err = schema.Child(0)
	s.Require().Error(err)
	s.True(errors.Is(err, SentinelProtocol))
}
