// Package datasource implements the C3 Data Source Drivers: a uniform
// Extract contract over two database families, selected by a factory.
package datasource

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/r3e-network/datalake-ingestion/internal/execution"
	"github.com/r3e-network/datalake-ingestion/internal/ingesterr"
)

// Driver is the uniform C3 contract.
type Driver interface {
	Extract(ctx context.Context, connectionString, query string, parameters map[string]any, commandTimeoutSec int) (*execution.TabularData, error)
}

// Factory returns a Driver for a dataset's source kind.
type Factory struct{}

// NewFactory builds a Factory.
func NewFactory() *Factory { return &Factory{} }

// Create returns a driver for kind in {relA, relB}.
func (f *Factory) Create(kind string) (Driver, error) {
	switch kind {
	case "relA":
		return &relADriver{}, nil
	case "relB":
		return &relBDriver{}, nil
	default:
		return nil, fmt.Errorf("datasource: unknown kind %q: %w", kind, ingesterr.ErrConfig)
	}
}

var rawTextPrefix = regexp.MustCompile(`(?i)^\s*(SELECT|WITH|EXEC|EXECUTE|INSERT|UPDATE|DELETE)\b`)

// isRawText reports whether query should be executed as literal SQL text
// rather than as a stored-procedure/package name (spec §4.3.1/4.3.2).
func isRawText(query string) bool {
	return rawTextPrefix.MatchString(query)
}

// coerceParam narrows a JSON-originated scalar following the int32 → int64
// → decimal → float64 → string promotion chain from spec §4.3.1, preserving
// bool and passing nil through untouched.
func coerceParam(v any) any {
	switch v.(type) {
	case nil, bool, int64, float64, string:
		return v
	case int:
		return int64(v.(int))
	case int32:
		return int64(v.(int32))
	default:
		return fmt.Sprintf("%v", v)
	}
}

// stripColonPrefix tolerates a leading ':' on bound parameter names.
func stripColonPrefix(name string) string {
	return strings.TrimPrefix(name, ":")
}
