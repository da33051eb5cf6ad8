package transform

import (
	"context"
	"strings"

	"github.com/r3e-network/datalake-ingestion/internal/execution"
)

type dataCleansingConfig struct {
	TrimWhitespace     bool
	RemoveEmptyStrings bool
}

type dataCleansing struct {
	cfg dataCleansingConfig
}

func newDataCleansing(config map[string]any) Step {
	cfg := dataCleansingConfig{TrimWhitespace: true}
	if v, ok := config["trimWhitespace"].(bool); ok {
		cfg.TrimWhitespace = v
	}
	if v, ok := config["removeEmptyStrings"].(bool); ok {
		cfg.RemoveEmptyStrings = v
	}
	return &dataCleansing{cfg: cfg}
}

func (s *dataCleansing) Name() string { return "DataCleansing" }

func (s *dataCleansing) Transform(ctx context.Context, table *execution.TabularData, config map[string]any) (*execution.TabularData, error) {
	if !s.cfg.TrimWhitespace && !s.cfg.RemoveEmptyStrings {
		return table, nil
	}

	stringCols := make([]int, 0)
	for i, col := range table.Schema {
		if col.Type == execution.TypeString {
			stringCols = append(stringCols, i)
		}
	}

	for r, row := range table.Rows {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		for _, c := range stringCols {
			v, ok := row[c].(string)
			if !ok {
				continue
			}
			if s.cfg.TrimWhitespace {
				v = strings.TrimSpace(v)
			}
			if s.cfg.RemoveEmptyStrings && v == "" {
				table.Rows[r][c] = nil
				continue
			}
			table.Rows[r][c] = v
		}
	}
	return table, nil
}
