// Package columnar implements the C5 Columnar Writer: serializes a
// TabularData table to Parquet bytes with Snappy compression (or another
// compression codec if the dataset spec overrides it), using
// github.com/parquet-go/parquet-go — any conformant columnar writer
// satisfies spec §4.5, so the on-disk byte layout is an implementation
// detail of this package, not a public contract.
package columnar

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/snappy"
	"github.com/parquet-go/parquet-go/compress/zstd"

	"github.com/r3e-network/datalake-ingestion/internal/execution"
	"github.com/r3e-network/datalake-ingestion/internal/ingesterr"
)

// Write serializes table to sink as Parquet bytes. codec selects the
// compression: "snappy" (default) or "zstd"; anything else falls back to
// snappy.
func Write(ctx context.Context, table *execution.TabularData, codec string, sink io.Writer) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("columnar: %w", ingesterr.ErrCancelled)
	default:
	}

	schema := buildSchema(table.Schema)
	writer := parquet.NewGenericWriter[any](sink, schema, parquet.Compression(compressionFor(codec)))

	for _, row := range table.Rows {
		select {
		case <-ctx.Done():
			_ = writer.Close()
			return fmt.Errorf("columnar: %w", ingesterr.ErrCancelled)
		default:
		}
		values := toParquetRow(table.Schema, row)
		if _, err := writer.WriteRows([]parquet.Row{values}); err != nil {
			return fmt.Errorf("columnar: write row: %w: %v", ingesterr.ErrPack, err)
		}
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("columnar: close writer: %w: %v", ingesterr.ErrPack, err)
	}
	return nil
}

func compressionFor(codec string) parquet.Compression {
	switch codec {
	case "zstd":
		return &zstd.Codec{}
	default:
		return &snappy.Codec{}
	}
}

// buildSchema maps logical types to physical Parquet types per spec §4.5's
// table. Every node is Optional: Parquet has native null-mask support, so
// nulls are preserved as true nulls for every logical type, not just string.
func buildSchema(cols []execution.ColumnSchema) *parquet.Schema {
	group := parquet.Group{}
	for _, c := range cols {
		group[c.Name] = nodeFor(c.Type)
	}
	return parquet.NewSchema("ingestion_row", group)
}

func nodeFor(t execution.LogicalType) parquet.Node {
	switch t {
	case execution.TypeInt32:
		return parquet.Optional(parquet.Int(32))
	case execution.TypeInt64:
		return parquet.Optional(parquet.Int(64))
	case execution.TypeDecimal:
		return parquet.Optional(parquet.Decimal(0, 18, parquet.Int64Type))
	case execution.TypeFloat64:
		return parquet.Optional(parquet.Leaf(parquet.DoubleType))
	case execution.TypeBool:
		return parquet.Optional(parquet.Leaf(parquet.BooleanType))
	case execution.TypeTimestamp:
		return parquet.Optional(parquet.Timestamp(parquet.Microsecond))
	case execution.TypeBinary:
		return parquet.Optional(parquet.Leaf(parquet.ByteArrayType))
	default:
		return parquet.Optional(parquet.String())
	}
}

func toParquetRow(cols []execution.ColumnSchema, row []any) parquet.Row {
	values := make(parquet.Row, len(cols))
	for i, c := range cols {
		values[i] = valueFor(c.Type, row[i])
	}
	return values
}

func valueFor(t execution.LogicalType, v any) parquet.Value {
	if v == nil {
		return parquet.NullValue()
	}
	switch t {
	case execution.TypeInt32:
		n, _ := v.(int64)
		return parquet.ValueOf(int32(n))
	case execution.TypeInt64:
		n, _ := v.(int64)
		return parquet.ValueOf(n)
	case execution.TypeFloat64, execution.TypeDecimal:
		f, ok := v.(float64)
		if !ok {
			if n, ok := v.(int64); ok {
				f = float64(n)
			}
		}
		return parquet.ValueOf(f)
	case execution.TypeBool:
		b, _ := v.(bool)
		return parquet.ValueOf(b)
	case execution.TypeTimestamp:
		ts, ok := v.(time.Time)
		if !ok {
			return parquet.ValueOf(time.Time{})
		}
		return parquet.ValueOf(ts)
	case execution.TypeBinary:
		b, _ := v.([]byte)
		return parquet.ValueOf(b)
	default:
		return parquet.ValueOf(fmt.Sprintf("%v", v))
	}
}
