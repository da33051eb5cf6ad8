package datasource

import (
	"database/sql"
	"fmt"
	"reflect"
	"time"

	"github.com/r3e-network/datalake-ingestion/internal/execution"
	"github.com/r3e-network/datalake-ingestion/internal/ingesterr"
)

// tabularFromRows drains rows into TabularData, inferring logical column
// types from the driver-reported scan type and normalizing offset-bearing
// timestamps to naive UTC (spec §4.3.3).
func tabularFromRows(rows *sql.Rows) (*execution.TabularData, error) {
	cols, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("datasource: column types: %w: %v", ingesterr.ErrExtraction, err)
	}

	schema := make([]execution.ColumnSchema, len(cols))
	for i, c := range cols {
		nullable, _ := c.Nullable()
		schema[i] = execution.ColumnSchema{
			Name:     c.Name(),
			Type:     logicalTypeOf(c),
			Nullable: nullable,
		}
	}

	table := &execution.TabularData{Schema: schema}
	scanDest := make([]any, len(cols))
	scanBuf := make([]any, len(cols))
	for i := range scanDest {
		scanDest[i] = &scanBuf[i]
	}

	for rows.Next() {
		if err := rows.Scan(scanDest...); err != nil {
			return nil, fmt.Errorf("datasource: scan row: %w: %v", ingesterr.ErrExtraction, err)
		}
		row := make([]any, len(cols))
		for i, v := range scanBuf {
			row[i] = normalizeValue(v)
		}
		table.Rows = append(table.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("datasource: row iteration: %w: %v", ingesterr.ErrExtraction, err)
	}
	return table, nil
}

func logicalTypeOf(c *sql.ColumnType) execution.LogicalType {
	switch c.ScanType() {
	case reflect.TypeOf(int32(0)), reflect.TypeOf(sql.NullInt32{}):
		return execution.TypeInt32
	case reflect.TypeOf(int64(0)), reflect.TypeOf(sql.NullInt64{}):
		return execution.TypeInt64
	case reflect.TypeOf(float64(0)), reflect.TypeOf(float32(0)), reflect.TypeOf(sql.NullFloat64{}):
		return execution.TypeFloat64
	case reflect.TypeOf(bool(false)), reflect.TypeOf(sql.NullBool{}):
		return execution.TypeBool
	case reflect.TypeOf(time.Time{}), reflect.TypeOf(sql.NullTime{}):
		return execution.TypeTimestamp
	case reflect.TypeOf([]byte{}):
		return execution.TypeBinary
	case reflect.TypeOf(""), reflect.TypeOf(sql.NullString{}):
		return execution.TypeString
	default:
		switch c.DatabaseTypeName() {
		case "DECIMAL", "NUMERIC", "MONEY":
			return execution.TypeDecimal
		}
		return execution.TypeString
	}
}

// normalizeValue strips timezone offsets from timestamps (naive UTC per
// spec §4.3.3) and coerces anything unrecognized to a string.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case time.Time:
		return val.UTC()
	case []byte:
		return val
	case int64, float64, bool, string:
		return val
	case int32:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}
