//go:build cgo

package cdata

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/suite"
)

type BridgeTestSuite struct {
	suite.Suite
}

func TestBridgeTestSuite(t *testing.T) {
	suite.Run(t, new(BridgeTestSuite))
}

func (s *BridgeTestSuite) roundTrip(field arrow.Field, data arrow.ArrayData) (arrow.Field, arrow.ArrayData) {
	bridge, err := BridgeFromData(field, data)
	s.Require().NoError(err)

	gotField, gotData, err := bridge.ToArrayData()
	s.Require().NoError(err)
	bridge.Release()

	return gotField, gotData
}

func (s *BridgeTestSuite) TestInt32RoundTripWithNulls() {
	bldr := array.NewInt32Builder(memory.DefaultAllocator)
	defer bldr.Release()
	bldr.AppendValues([]int32{1, 2, 3, 0}, []bool{true, false, true, true})
	arr := bldr.NewArray()
	defer arr.Release()

	field := arrow.Field{Name: "n", Type: arrow.PrimitiveTypes.Int32, Nullable: true}
	gotField, gotData := s.roundTrip(field, arr.Data())
	defer gotData.Release()

	s.True(arrow.TypeEqual(field.Type, gotField.Type))
	s.Equal(4, gotData.Len())
	s.Equal(1, gotData.NullN())

	got := array.NewInt32Data(gotData)
	defer got.Release()
	s.Equal(int32(1), got.Value(0))
	s.True(got.IsNull(1))
	s.Equal(int32(3), got.Value(2))
}

func (s *BridgeTestSuite) TestStringRoundTrip() {
	bldr := array.NewStringBuilder(memory.DefaultAllocator)
	defer bldr.Release()
	bldr.AppendValues([]string{"alpha", "", "gamma"}, []bool{true, true, false})
	arr := bldr.NewArray()
	defer arr.Release()

	field := arrow.Field{Name: "s", Type: arrow.BinaryTypes.String, Nullable: true}
	gotField, gotData := s.roundTrip(field, arr.Data())
	defer gotData.Release()

	s.True(arrow.TypeEqual(field.Type, gotField.Type))

	got := array.NewStringData(gotData)
	defer got.Release()
	s.Equal("alpha", got.Value(0))
	s.Equal("", got.Value(1))
	s.True(got.IsNull(2))
}

// TestListRoundTrip follows the seed scenario directly: offsets
// [0,3,6,8] over values [0..8) split the list into [0,1,2], [3,4,5],
// [6,7].
func (s *BridgeTestSuite) TestListRoundTrip() {
	bldr := array.NewListBuilder(memory.DefaultAllocator, arrow.PrimitiveTypes.Int32)
	defer bldr.Release()
	vb := bldr.ValueBuilder().(*array.Int32Builder)

	bldr.Append(true)
	vb.AppendValues([]int32{0, 1, 2}, nil)
	bldr.Append(true)
	vb.AppendValues([]int32{3, 4, 5}, nil)
	bldr.Append(true)
	vb.AppendValues([]int32{6, 7}, nil)

	arr := bldr.NewArray()
	defer arr.Release()

	field := arrow.Field{Name: "items", Type: arrow.ListOf(arrow.PrimitiveTypes.Int32)}
	gotField, gotData := s.roundTrip(field, arr.Data())
	defer gotData.Release()

	s.True(arrow.TypeEqual(field.Type, gotField.Type))
	s.Equal(3, gotData.Len())
	s.Require().Len(gotData.Children(), 1)

	got := array.NewListData(gotData)
	defer got.Release()
	values := got.ListValues().(*array.Int32)

	wantRows := [][]int32{{0, 1, 2}, {3, 4, 5}, {6, 7}}
	for i, want := range wantRows {
		start, end := got.ValueOffsets(i)
		s.Equal(want, values.Int32Values()[start:end])
	}
}

// TestBooleanRoundTrip follows the seed scenario: [None, Some(true),
// Some(false)] round-trips intact, exercising bitWidth's 1-bit case for
// both the validity and the data buffer.
func (s *BridgeTestSuite) TestBooleanRoundTrip() {
	bldr := array.NewBooleanBuilder(memory.DefaultAllocator)
	defer bldr.Release()
	bldr.AppendValues([]bool{false, true, false}, []bool{false, true, true})
	arr := bldr.NewArray()
	defer arr.Release()

	field := arrow.Field{Name: "flags", Type: arrow.FixedWidthTypes.Boolean, Nullable: true}
	gotField, gotData := s.roundTrip(field, arr.Data())
	defer gotData.Release()

	s.True(arrow.TypeEqual(field.Type, gotField.Type))

	got := array.NewBooleanData(gotData)
	defer got.Release()
	s.True(got.IsNull(0))
	s.False(got.IsNull(1))
	s.True(got.Value(1))
	s.False(got.IsNull(2))
	s.False(got.Value(2))

	// bitwise-not over the non-null slots, as the seed scenario applies
	// after import; a null stays null rather than inverting to a value.
	s.True(got.IsNull(0))
	s.False(!got.Value(1))
	s.True(!got.Value(2))
}

// TestTime32RoundTrip follows the seed scenario's [None, Some(1), Some(2)]
// Time32(Milli) array.
func (s *BridgeTestSuite) TestTime32RoundTrip() {
	bldr := array.NewTime32Builder(memory.DefaultAllocator, arrow.FixedWidthTypes.Time32ms)
	defer bldr.Release()
	bldr.AppendValues([]arrow.Time32{0, 1, 2}, []bool{false, true, true})
	arr := bldr.NewArray()
	defer arr.Release()

	field := arrow.Field{Name: "t", Type: arrow.FixedWidthTypes.Time32ms, Nullable: true}
	gotField, gotData := s.roundTrip(field, arr.Data())
	defer gotData.Release()

	s.True(arrow.TypeEqual(field.Type, gotField.Type))

	got := array.NewTime32Data(gotData)
	defer got.Release()
	s.True(got.IsNull(0))
	s.Equal(arrow.Time32(1), got.Value(1))
	s.Equal(arrow.Time32(2), got.Value(2))
}

func (s *BridgeTestSuite) TestStructRoundTrip() {
	structType := arrow.StructOf(
		arrow.Field{Name: "a", Type: arrow.PrimitiveTypes.Int32},
		arrow.Field{Name: "b", Type: arrow.BinaryTypes.String, Nullable: true},
	)
	bldr := array.NewStructBuilder(memory.DefaultAllocator, structType)
	defer bldr.Release()
	ab := bldr.FieldBuilder(0).(*array.Int32Builder)
	bb := bldr.FieldBuilder(1).(*array.StringBuilder)

	bldr.Append(true)
	ab.Append(7)
	bb.Append("hello")

	arr := bldr.NewArray()
	defer arr.Release()

	field := arrow.Field{Name: "row", Type: structType}
	gotField, gotData := s.roundTrip(field, arr.Data())
	defer gotData.Release()

	s.True(arrow.TypeEqual(structType, gotField.Type))
	s.Len(gotData.Children(), 2)
}

func (s *BridgeTestSuite) TestBridgeReleaseIsIdempotent() {
	bldr := array.NewInt32Builder(memory.DefaultAllocator)
	defer bldr.Release()
	bldr.AppendValues([]int32{1, 2}, nil)
	arr := bldr.NewArray()
	defer arr.Release()

	bridge, err := BridgeFromData(arrow.Field{Name: "n", Type: arrow.PrimitiveTypes.Int32}, arr.Data())
	s.Require().NoError(err)

	bridge.Release()
	s.NotPanics(func() { bridge.Release() })
}

func (s *BridgeTestSuite) TestBridgeEmptyForForeignPopulation() {
	bridge := BridgeEmpty()
	s.NotNil(bridge.SchemaPtr())
	s.NotNil(bridge.ArrayPtr())
	bridge.Release()
}

func (s *BridgeTestSuite) TestIntoRawTransfersOwnership() {
	bldr := array.NewInt32Builder(memory.DefaultAllocator)
	defer bldr.Release()
	bldr.AppendValues([]int32{9}, nil)
	arr := bldr.NewArray()
	defer arr.Release()

	bridge, err := BridgeFromData(arrow.Field{Name: "n", Type: arrow.PrimitiveTypes.Int32}, arr.Data())
	s.Require().NoError(err)

	schemaPtr, arrayPtr := bridge.IntoRaw()
	s.NotNil(schemaPtr)
	s.NotNil(arrayPtr)

	adopted, err := BridgeFromRaw(schemaPtr, arrayPtr)
	s.Require().NoError(err)
	adopted.Release()
}

// TestBridgeFromRawNullPointer follows the seed scenario:
// bridge_from_raw(null, any) must report NullPointer.
func (s *BridgeTestSuite) TestBridgeFromRawNullPointer() {
	bldr := array.NewInt32Builder(memory.DefaultAllocator)
	defer bldr.Release()
	bldr.AppendValues([]int32{1}, nil)
	arr := bldr.NewArray()
	defer arr.Release()

	bridge, err := BridgeFromData(arrow.Field{Name: "n", Type: arrow.PrimitiveTypes.Int32}, arr.Data())
	s.Require().NoError(err)
	schemaPtr, arrayPtr := bridge.IntoRaw()

	_, err = BridgeFromRaw(nil, arrayPtr)
	s.Require().Error(err)
	s.ErrorIs(err, SentinelNullPointer)

	_, err = BridgeFromRaw(nil, nil)
	s.Require().Error(err)
	s.ErrorIs(err, SentinelNullPointer)

	adopted, err := BridgeFromRaw(schemaPtr, arrayPtr)
	s.Require().NoError(err)
	adopted.Release()
}
