package transform

import (
	"context"
	"fmt"

	"github.com/r3e-network/datalake-ingestion/internal/execution"
	"github.com/r3e-network/datalake-ingestion/internal/ingesterr"
)

type dataValidationConfig struct {
	RequiredColumns []string
	ValidateEmail   bool
}

type dataValidation struct {
	cfg dataValidationConfig
}

func newDataValidation(config map[string]any) Step {
	cfg := dataValidationConfig{}
	if raw, ok := config["requiredColumns"].([]any); ok {
		for _, v := range raw {
			if s, ok := v.(string); ok {
				cfg.RequiredColumns = append(cfg.RequiredColumns, s)
			}
		}
	}
	if v, ok := config["validateEmail"].(bool); ok {
		cfg.ValidateEmail = v
	}
	return &dataValidation{cfg: cfg}
}

func (s *dataValidation) Name() string { return "DataValidation" }

func (s *dataValidation) Transform(ctx context.Context, table *execution.TabularData, config map[string]any) (*execution.TabularData, error) {
	for _, required := range s.cfg.RequiredColumns {
		if table.ColumnIndex(required) < 0 {
			return nil, fmt.Errorf("required column %q absent from schema: %w", required, ingesterr.ErrValidation)
		}
	}
	// validateEmail is reserved: a no-op that never silently rejects rows.
	return table, nil
}
