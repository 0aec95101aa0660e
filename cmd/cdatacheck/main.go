package main

import (
	"fmt"
	"log"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/cdatago/arrowcdata/cdata"
)

func main() {
	fmt.Println("=== Exporting an int32 column across the C Data Interface ===")
	if err := checkInt32RoundTrip(); err != nil {
		log.Fatalf("int32 round trip failed: %v", err)
	}

	fmt.Println("\n=== Exporting a nested list column ===")
	if err := checkListRoundTrip(); err != nil {
		log.Fatalf("list round trip failed: %v", err)
	}

	fmt.Println("\n✅ All round trips passed!")
}

func checkInt32RoundTrip() error {
	bldr := array.NewInt32Builder(memory.DefaultAllocator)
	defer bldr.Release()
	bldr.AppendValues([]int32{10, 20, 0, 40}, []bool{true, true, false, true})
	arr := bldr.NewArray()
	defer arr.Release()

	field := arrow.Field{Name: "measurements", Type: arrow.PrimitiveTypes.Int32, Nullable: true}

	fmt.Printf("   Building bridge for field %q (%d values)\n", field.Name, arr.Len())
	bridge, err := cdata.BridgeFromData(field, arr.Data())
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	gotField, gotData, err := bridge.ToArrayData()
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}
	defer gotData.Release()
	bridge.Release()

	got := array.NewInt32Data(gotData)
	defer got.Release()

	fmt.Printf("   Imported field %q, length=%d, nulls=%d\n", gotField.Name, got.Len(), got.NullN())
	for i := 0; i < got.Len(); i++ {
		if got.IsNull(i) {
			fmt.Printf("   [%d] null\n", i)
			continue
		}
		fmt.Printf("   [%d] %d\n", i, got.Value(i))
	}
	return nil
}

func checkListRoundTrip() error {
	bldr := array.NewListBuilder(memory.DefaultAllocator, arrow.PrimitiveTypes.Int32)
	defer bldr.Release()
	vb := bldr.ValueBuilder().(*array.Int32Builder)

	bldr.Append(true)
	vb.AppendValues([]int32{1, 2, 3}, nil)
	bldr.Append(true)
	vb.AppendValues([]int32{4}, nil)

	arr := bldr.NewArray()
	defer arr.Release()

	field := arrow.Field{Name: "groups", Type: arrow.ListOf(arrow.PrimitiveTypes.Int32)}

	fmt.Printf("   Building bridge for field %q (%d rows)\n", field.Name, arr.Len())
	bridge, err := cdata.BridgeFromData(field, arr.Data())
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	gotField, gotData, err := bridge.ToArrayData()
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}
	defer gotData.Release()
	bridge.Release()

	got := array.NewListData(gotData)
	defer got.Release()

	fmt.Printf("   Imported field %q, rows=%d\n", gotField.Name, got.Len())
	for i := 0; i < got.Len(); i++ {
		start, end := got.ValueOffsets(i)
		fmt.Printf("   row %d spans offsets [%d, %d)\n", i, start, end)
	}
	return nil
}
